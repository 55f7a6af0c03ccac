package pipeline

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/roach88/sizeprobe/internal/hooks"
	"github.com/roach88/sizeprobe/internal/measure"
)

// DefaultJobs is the concurrency limit used when none is configured.
const DefaultJobs = 4

// Result is the outcome of one compile unit.
type Result struct {
	Source Source

	// Output is the compiled text. Empty when TransformErr is set.
	Output string

	// Measurement is valid only when Reported is true.
	Measurement measure.Measurement
	Reported    bool

	// TransformErr is the compiler's own failure.
	TransformErr error

	// HookErr is a failure inside the size hooks (invalid UTF-8, unmatched
	// post, report write). It never prevents Output from being produced.
	HookErr error
}

// Failed reports whether the unit has any error.
func (r Result) Failed() bool {
	return r.TransformErr != nil || r.HookErr != nil
}

// Runner drives compile units through a Transformer with size hooks.
type Runner struct {
	hooks       *hooks.Hooks
	transformer Transformer
	jobs        int
	logger      *slog.Logger
}

// RunnerOption configures a Runner.
type RunnerOption func(*Runner)

// WithJobs sets the number of units processed concurrently.
// Values below 1 are ignored.
func WithJobs(n int) RunnerOption {
	return func(r *Runner) {
		if n >= 1 {
			r.jobs = n
		}
	}
}

// WithRunnerLogger sets the runner's logger. Defaults to slog.Default().
func WithRunnerLogger(l *slog.Logger) RunnerOption {
	return func(r *Runner) {
		r.logger = l
	}
}

// NewRunner creates a runner.
func NewRunner(h *hooks.Hooks, t Transformer, opts ...RunnerOption) *Runner {
	r := &Runner{
		hooks:       h,
		transformer: t,
		jobs:        DefaultJobs,
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run processes all sources and returns one Result per source, in input
// order. The returned error is non-nil only when ctx is cancelled; unit
// failures are reported on the individual Results.
func (r *Runner) Run(ctx context.Context, sources []Source) ([]Result, error) {
	results := make([]Result, len(sources))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.jobs)

	for i, src := range sources {
		if gctx.Err() != nil {
			break
		}
		i, src := i, src
		g.Go(func() error {
			results[i] = r.runUnit(gctx, src)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return results, err
	}
	if err := ctx.Err(); err != nil {
		return results, fmt.Errorf("pipeline cancelled: %w", err)
	}
	return results, nil
}

// runUnit processes one unit. Hook errors are recorded and the transform
// still runs.
func (r *Runner) runUnit(ctx context.Context, src Source) Result {
	res := Result{Source: src}

	key, preErr := r.hooks.Pre(src.Text, src.Path)
	if preErr != nil {
		res.HookErr = preErr
	}

	out, err := r.transformer.Transform(ctx, src)
	if err != nil {
		res.TransformErr = err
		r.logger.Error("transform failed", "unit", src.Path, "error", err)
		if preErr == nil {
			r.hooks.Discard(key)
		}
		return res
	}
	res.Output = out

	if preErr != nil {
		return res
	}

	m, err := r.hooks.Post(key, out)
	if err != nil {
		res.HookErr = err
		if measure.IsInvalidUTF8(err) {
			r.hooks.Discard(key)
		}
		return res
	}
	res.Measurement = m
	res.Reported = true
	return res
}
