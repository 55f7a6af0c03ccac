package pipeline

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
)

// Source is one compile unit handed to the pipeline.
type Source struct {
	// Path identifies the unit. It may be empty.
	Path string

	// Text is the unit's source text.
	Text string
}

// Transformer compiles a single unit.
type Transformer interface {
	Transform(ctx context.Context, src Source) (string, error)
}

// TransformFunc adapts a function to the Transformer interface.
type TransformFunc func(ctx context.Context, src Source) (string, error)

// Transform calls f.
func (f TransformFunc) Transform(ctx context.Context, src Source) (string, error) {
	return f(ctx, src)
}

// Copy returns the source unchanged.
type Copy struct{}

// Transform implements Transformer.
func (Copy) Transform(_ context.Context, src Source) (string, error) {
	return src.Text, nil
}

// Squeeze drops blank lines and trailing whitespace, a crude stand-in for a
// minifying compiler.
type Squeeze struct{}

// Transform implements Transformer.
func (Squeeze) Transform(_ context.Context, src Source) (string, error) {
	lines := strings.Split(src.Text, "\n")
	out := make([]string, 0, len(lines))
	for _, line := range lines {
		trimmed := strings.TrimRight(line, " \t\r")
		if trimmed == "" {
			continue
		}
		out = append(out, trimmed)
	}
	if len(out) == 0 {
		return "", nil
	}
	return strings.Join(out, "\n") + "\n", nil
}

// Command runs an external compiler that reads the unit on stdin and writes
// the compiled output to stdout. The literal argument "{}" is replaced with
// the unit path.
type Command struct {
	Name string
	Args []string
}

// Transform implements Transformer.
func (c Command) Transform(ctx context.Context, src Source) (string, error) {
	if c.Name == "" {
		return "", fmt.Errorf("command transformer: no command configured")
	}
	args := make([]string, len(c.Args))
	for i, a := range c.Args {
		args[i] = strings.ReplaceAll(a, "{}", src.Path)
	}

	cmd := exec.CommandContext(ctx, c.Name, args...)
	cmd.Stdin = strings.NewReader(src.Text)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		msg := strings.TrimSpace(stderr.String())
		if msg != "" {
			return "", fmt.Errorf("running %s: %w: %s", c.Name, err, msg)
		}
		return "", fmt.Errorf("running %s: %w", c.Name, err)
	}
	return stdout.String(), nil
}
