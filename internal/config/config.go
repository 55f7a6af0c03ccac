// Package config loads the reference host's configuration.
//
// Configuration is a YAML file decoded over Default() and then checked
// against an embedded CUE schema, so that type, enum and cross-field
// constraints (a command transformer needs a command) live in one place.
package config

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
	"gopkg.in/yaml.v3"
)

//go:embed schema.cue
var schemaCUE string

// Transformer kinds.
const (
	KindCopy    = "copy"
	KindSqueeze = "squeeze"
	KindCommand = "command"
)

// Config is the host configuration.
type Config struct {
	Format    string          `yaml:"format" json:"format"`
	Jobs      int             `yaml:"jobs" json:"jobs"`
	Verbose   bool            `yaml:"verbose" json:"verbose"`
	OutDir    string          `yaml:"out_dir,omitempty" json:"out_dir,omitempty"`
	Transform TransformConfig `yaml:"transform" json:"transform"`
}

// TransformConfig selects the transformer run between the hooks.
type TransformConfig struct {
	Kind    string   `yaml:"kind" json:"kind"`
	Command string   `yaml:"command,omitempty" json:"command,omitempty"`
	Args    []string `yaml:"args,omitempty" json:"args,omitempty"`
}

// Default returns the configuration used when no file is given.
func Default() Config {
	return Config{
		Format:    "text",
		Jobs:      4,
		Transform: TransformConfig{Kind: KindCopy},
	}
}

// ValidationError lists every schema violation found in a configuration.
type ValidationError struct {
	Issues []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid config: %s", strings.Join(e.Issues, "; "))
}

// Load reads the YAML file at path over Default() and validates the result.
// An empty path returns the validated defaults.
func Load(path string) (Config, error) {
	if path == "" {
		cfg := Default()
		return cfg, Validate(cfg)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("reading config: %w", err)
	}
	return Parse(data)
}

// Parse decodes YAML over Default() and validates the result.
// Unknown keys are rejected.
func Parse(data []byte) (Config, error) {
	cfg := Default()

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, fmt.Errorf("parsing config: %w", err)
	}

	if err := Validate(cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks cfg against the embedded CUE schema.
func Validate(cfg Config) error {
	ctx := cuecontext.New()
	schema := ctx.CompileString(schemaCUE, cue.Filename("schema.cue"))
	if err := schema.Err(); err != nil {
		return fmt.Errorf("compiling config schema: %w", err)
	}

	def := schema.LookupPath(cue.ParsePath("#Config"))
	value := def.Unify(ctx.Encode(cfg))
	if err := value.Validate(cue.Concrete(true)); err != nil {
		return &ValidationError{Issues: issues(err)}
	}
	return nil
}

// issues flattens CUE errors into "path: message" strings.
func issues(err error) []string {
	var out []string
	for _, e := range cueerrors.Errors(err) {
		path := strings.Join(e.Path(), ".")
		format, args := e.Msg()
		msg := fmt.Sprintf(format, args...)
		if path != "" {
			msg = path + ": " + msg
		}
		out = append(out, msg)
	}
	if len(out) == 0 {
		out = append(out, err.Error())
	}
	return out
}
