package harness

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"sync"

	"github.com/roach88/sizeprobe/internal/hooks"
	"github.com/roach88/sizeprobe/internal/measure"
)

// sequenceGenerator yields "instance-1", "instance-2", ... for
// reproducible keys in transcripts.
type sequenceGenerator struct {
	mu sync.Mutex
	n  int
}

func (g *sequenceGenerator) Generate() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.n++
	return fmt.Sprintf("instance-%d", g.n)
}

// Harness executes scenario steps against a fresh set of hooks.
type Harness struct {
	hooks *hooks.Hooks
	out   *bytes.Buffer
	units map[string]measure.Key // last key captured per scenario unit label
}

// Run executes a scenario and returns the result.
//
// Each run uses fresh hooks, so scenarios are isolated from each other.
// Hook errors are part of the result, not run failures; Run only returns an
// error for a nil scenario.
func Run(scenario *Scenario) (*Result, error) {
	if scenario == nil {
		return nil, errors.New("nil scenario")
	}

	format := hooks.FormatText
	if scenario.Format == "json" {
		format = hooks.FormatJSON
	}

	out := &bytes.Buffer{}
	tracker := measure.NewTracker(measure.WithTokenGenerator(&sequenceGenerator{}))
	h := &Harness{
		hooks: hooks.New(out,
			hooks.WithTracker(tracker),
			hooks.WithFormat(format),
			hooks.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))), // Suppress logs in scenarios
		),
		out:   out,
		units: make(map[string]measure.Key),
	}

	result := NewResult()
	for i, step := range scenario.Steps {
		h.executeStep(i+1, step, result)
	}

	result.Output = out.String()
	result.Pending = h.hooks.Pending()

	if scenario.Expect != nil {
		checkExpectation(scenario.Expect, result)
	}
	return result, nil
}

func (h *Harness) executeStep(n int, step Step, result *Result) {
	switch {
	case step.Pre != nil:
		ev := TraceEvent{
			Step:     n,
			Type:     "pre",
			Unit:     step.Pre.Unit,
			Identity: measure.NormalizeIdentity(step.Pre.Identity),
		}
		key, err := h.hooks.Pre(step.Pre.Source, step.Pre.Identity)
		if err != nil {
			ev.Code = codeOf(err)
		} else {
			ev.Instance = key.Instance
			h.units[step.Pre.Unit] = key
		}
		result.Trace = append(result.Trace, ev)

	case step.Post != nil:
		ev := TraceEvent{Step: n, Type: "post", Unit: step.Post.Unit}

		var m measure.Measurement
		var err error
		if step.Post.Unit != "" {
			key, ok := h.units[step.Post.Unit]
			if !ok {
				// Never captured (or pre failed): the tracker reports it unmatched.
				key = measure.Key{Identity: measure.NormalizeIdentity(step.Post.Identity)}
			}
			ev.Identity = key.Identity
			ev.Instance = key.Instance
			// The key stays mapped so a repeated post is traced under the
			// unit's real identity; the tracker reports it unmatched.
			m, err = h.hooks.Post(key, step.Post.Output)
		} else {
			ev.Identity = measure.NormalizeIdentity(step.Post.Identity)
			m, err = h.hooks.PostLatest(step.Post.Identity, step.Post.Output)
		}

		if err != nil {
			ev.Code = codeOf(err)
		} else {
			ev.Identity = m.Identity
			result.Reports++
		}
		result.Trace = append(result.Trace, ev)
	}
}

func checkExpectation(exp *Expectation, result *Result) {
	if result.Reports != exp.Reports {
		result.AddError(fmt.Sprintf("expected %d report(s), got %d", exp.Reports, result.Reports))
	}
	want := exp.Errors
	if want == nil {
		want = []string{}
	}
	if got := result.Codes(); !slices.Equal(got, want) {
		result.AddError(fmt.Sprintf("expected hook errors %v, got %v", want, got))
	}
}

func codeOf(err error) string {
	var he *measure.HookError
	if errors.As(err, &he) {
		return string(he.Code)
	}
	return "ERROR"
}
