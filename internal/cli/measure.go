package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/sizeprobe/internal/config"
	"github.com/roach88/sizeprobe/internal/hooks"
	"github.com/roach88/sizeprobe/internal/pipeline"
)

// MeasureOptions holds flags for the measure command.
// Empty or zero values leave the config file's setting in place.
type MeasureOptions struct {
	*RootOptions
	Transform string
	Command   string
	Args      []string
	Jobs      int
	OutDir    string
}

// MeasureSummary is printed in verbose mode after all units ran.
type MeasureSummary struct {
	Units    int `json:"units"`
	Reported int `json:"reported"`
	Failed   int `json:"failed"`
}

// NewMeasureCommand creates the measure command.
func NewMeasureCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &MeasureOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "measure <file>...",
		Short: "Compile files and report size changes",
		Long: `Run each file through the configured transformer and print one size
report per file.

Transformers:
  copy     output equals input (baseline)
  squeeze  drop blank lines and trailing whitespace
  command  run an external compiler: unit on stdin, output on stdout;
           "{}" in --arg is replaced with the file path

Exit codes:
  0 - All units measured
  1 - One or more units failed (transform error, invalid UTF-8, ...)
  2 - Command error (missing files, invalid config)

Examples:
  sizeprobe measure src/*.js
  sizeprobe measure --transform command --cmd npx --arg babel --arg --filename --arg {} src/app.js
  sizeprobe measure --config sizeprobe.yaml --format json src/app.js`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMeasure(opts, args, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Transform, "transform", "", "transformer (copy|squeeze|command)")
	cmd.Flags().StringVar(&opts.Command, "cmd", "", "compiler executable for --transform command")
	cmd.Flags().StringArrayVar(&opts.Args, "arg", nil, "compiler argument (repeatable)")
	cmd.Flags().IntVarP(&opts.Jobs, "jobs", "j", 0, "units compiled concurrently")
	cmd.Flags().StringVar(&opts.OutDir, "out-dir", "", "write compiled output to this directory")

	return cmd
}

func runMeasure(opts *MeasureOptions, files []string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	cfg, err := resolveMeasureConfig(opts, cmd)
	if err != nil {
		return fail(formatter, ExitCommandError, ErrCodeInvalidConfig, err, configDetails(err))
	}
	formatter.Format = cfg.Format
	formatter.Verbose = cfg.Verbose

	sources := make([]pipeline.Source, 0, len(files))
	for _, path := range files {
		data, err := os.ReadFile(path)
		if err != nil {
			return fail(formatter, ExitCommandError, ErrCodeNotFound, fmt.Errorf("reading %s: %w", path, err), nil)
		}
		sources = append(sources, pipeline.Source{Path: path, Text: string(data)})
	}
	var dests map[string]string
	if cfg.OutDir != "" {
		if dests, err = outputPaths(cfg.OutDir, sources); err != nil {
			return fail(formatter, ExitCommandError, ErrCodeWriteFailed, err, nil)
		}
	}
	formatter.VerboseLog("Measuring %d unit(s) with %s transformer", len(sources), cfg.Transform.Kind)

	logger := formatter.Logger()
	h := hooks.New(formatter.Writer,
		hooks.WithLogger(logger),
		hooks.WithFormat(hooks.Format(cfg.Format)),
	)
	runner := pipeline.NewRunner(h, newTransformer(cfg.Transform),
		pipeline.WithJobs(cfg.Jobs),
		pipeline.WithRunnerLogger(logger),
	)

	results, err := runner.Run(cmd.Context(), sources)
	if err != nil {
		return fail(formatter, ExitFailure, ErrCodeGeneric, err, nil)
	}

	summary := MeasureSummary{Units: len(results)}
	for _, res := range results {
		if res.Reported {
			summary.Reported++
		}
		if res.Failed() {
			summary.Failed++
			_ = formatter.Error(ErrCodeUnitFailed, fmt.Sprintf("%s: %v", res.Source.Path, unitError(res)), nil)
		}
		if dests != nil && res.TransformErr == nil {
			if err := writeOutput(dests[res.Source.Path], res); err != nil {
				return fail(formatter, ExitCommandError, ErrCodeWriteFailed, err, nil)
			}
		}
	}
	formatter.VerboseLog("Reported %d of %d unit(s), %d failed", summary.Reported, summary.Units, summary.Failed)

	if summary.Failed > 0 {
		return NewExitError(ExitFailure, fmt.Sprintf("%d of %d unit(s) failed", summary.Failed, summary.Units))
	}
	return nil
}

// resolveMeasureConfig loads the config file and applies explicitly set flags.
func resolveMeasureConfig(opts *MeasureOptions, cmd *cobra.Command) (config.Config, error) {
	cfg, err := config.Load(opts.Config)
	if err != nil {
		return config.Config{}, err
	}

	// Standalone commands (tests) have no inherited --format flag.
	flags := cmd.Flags()
	if opts.Format != "" && (flags.Lookup("format") == nil || flags.Changed("format")) {
		cfg.Format = opts.Format
	}
	if opts.Verbose {
		cfg.Verbose = true
	}
	if opts.Transform != "" {
		cfg.Transform.Kind = opts.Transform
	}
	if opts.Command != "" {
		cfg.Transform.Command = opts.Command
	}
	if len(opts.Args) > 0 {
		cfg.Transform.Args = opts.Args
	}
	if opts.Jobs != 0 {
		cfg.Jobs = opts.Jobs
	}
	if opts.OutDir != "" {
		cfg.OutDir = opts.OutDir
	}

	if err := config.Validate(cfg); err != nil {
		return config.Config{}, err
	}
	return cfg, nil
}

// newTransformer maps a validated transform config to a Transformer.
func newTransformer(tc config.TransformConfig) pipeline.Transformer {
	switch tc.Kind {
	case config.KindSqueeze:
		return pipeline.Squeeze{}
	case config.KindCommand:
		return pipeline.Command{Name: tc.Command, Args: tc.Args}
	default:
		return pipeline.Copy{}
	}
}

func unitError(res pipeline.Result) error {
	if res.TransformErr != nil {
		return res.TransformErr
	}
	return res.HookErr
}

// outputPaths maps each source path to its destination under dir. Paths keep
// their layout relative to the deepest directory shared by all sources, so
// src/a.js and lib/a.js land in separate files.
func outputPaths(dir string, sources []pipeline.Source) (map[string]string, error) {
	abs := make([]string, len(sources))
	for i, src := range sources {
		p, err := filepath.Abs(src.Path)
		if err != nil {
			return nil, fmt.Errorf("resolving %s: %w", src.Path, err)
		}
		abs[i] = p
	}
	root := commonDir(abs)

	dests := make(map[string]string, len(sources))
	owners := make(map[string]string, len(sources))
	for i, src := range sources {
		rel, err := filepath.Rel(root, abs[i])
		if err != nil {
			return nil, fmt.Errorf("resolving %s: %w", src.Path, err)
		}
		dest := filepath.Join(dir, rel)
		if prev, ok := owners[dest]; ok {
			return nil, fmt.Errorf("%s and %s would both be written to %s", prev, src.Path, dest)
		}
		owners[dest] = src.Path
		dests[src.Path] = dest
	}
	return dests, nil
}

// commonDir returns the deepest directory containing every path.
func commonDir(paths []string) string {
	if len(paths) == 0 {
		return "."
	}
	root := filepath.Dir(paths[0])
	for _, p := range paths[1:] {
		for !within(root, p) {
			parent := filepath.Dir(root)
			if parent == root {
				break
			}
			root = parent
		}
	}
	return root
}

func within(dir, path string) bool {
	rel, err := filepath.Rel(dir, path)
	return err == nil && rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

// writeOutput stores the compiled text at dest, creating parent directories.
func writeOutput(dest string, res pipeline.Result) error {
	if err := os.MkdirAll(filepath.Dir(dest), 0755); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}
	if err := os.WriteFile(dest, []byte(res.Output), 0644); err != nil {
		return fmt.Errorf("writing %s: %w", dest, err)
	}
	return nil
}

// configDetails exposes individual schema issues in verbose/JSON output.
func configDetails(err error) interface{} {
	var verr *config.ValidationError
	if errors.As(err, &verr) {
		return verr.Issues
	}
	return nil
}
