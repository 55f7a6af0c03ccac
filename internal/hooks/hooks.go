// Package hooks exposes the pre/post hook pair that a host transformation
// pipeline calls around each compile unit.
//
// Hooks never abort the host: unmatched posts are logged and the report is
// skipped, and invalid UTF-8 is logged and returned so the host can route it
// through its own error handling.
package hooks

import (
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/roach88/sizeprobe/internal/measure"
	"github.com/roach88/sizeprobe/internal/report"
)

// Name identifies the hook pair in diagnostics.
const Name = "file-size-plugin"

// Format selects the report encoding written by Post.
type Format string

const (
	FormatText Format = "text"
	FormatJSON Format = "json"
)

// Hooks binds a Tracker to an output stream.
//
// Thread-safety: Hooks is safe for concurrent use. Each report is written
// with a single Write call under a mutex so blocks never interleave.
type Hooks struct {
	tracker *measure.Tracker
	logger  *slog.Logger
	format  Format

	mu  sync.Mutex
	out io.Writer
}

// Option configures Hooks.
type Option func(*Hooks)

// WithLogger sets the diagnostic logger. Defaults to slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(h *Hooks) {
		h.logger = l
	}
}

// WithFormat sets the report encoding. Defaults to FormatText.
func WithFormat(f Format) Option {
	return func(h *Hooks) {
		h.format = f
	}
}

// WithTracker replaces the tracker, e.g. one built with a FixedGenerator.
func WithTracker(t *measure.Tracker) Option {
	return func(h *Hooks) {
		h.tracker = t
	}
}

// New creates hooks that write reports to out.
func New(out io.Writer, opts ...Option) *Hooks {
	h := &Hooks{
		tracker: measure.NewTracker(),
		logger:  slog.Default(),
		format:  FormatText,
		out:     out,
	}
	for _, opt := range opts {
		opt(h)
	}
	h.logger = h.logger.With("plugin", Name)
	return h
}

// Name returns the hook pair's name.
func (h *Hooks) Name() string {
	return Name
}

// Pending returns the number of units waiting for a post hook.
func (h *Hooks) Pending() int {
	return h.tracker.Pending()
}

// Pre records the original size of a compile unit. identity may be empty.
// The returned key must be passed to Post.
func (h *Hooks) Pre(source, identity string) (measure.Key, error) {
	key, err := h.tracker.Pre(source, identity)
	if err != nil {
		h.logger.Error("pre capture failed",
			"unit", measure.NormalizeIdentity(identity),
			"error", err,
		)
		return measure.Key{}, err
	}
	h.logger.Debug("pre capture",
		"unit", key.Identity,
		"instance", key.Instance,
		"bytes", len(source),
	)
	return key, nil
}

// Post completes the unit stored under key and writes its report.
// The measurement is returned even when writing the report fails.
func (h *Hooks) Post(key measure.Key, output string) (measure.Measurement, error) {
	m, err := h.tracker.Post(key, output)
	return h.finish(key.String(), m, err)
}

// PostLatest completes the most recent unmatched Pre for identity and
// writes its report.
func (h *Hooks) PostLatest(identity, output string) (measure.Measurement, error) {
	m, err := h.tracker.PostLatest(identity, output)
	return h.finish(measure.NormalizeIdentity(identity), m, err)
}

// Discard drops a pending unit whose transformation failed.
func (h *Hooks) Discard(key measure.Key) {
	if h.tracker.Discard(key) {
		h.logger.Debug("pre capture discarded", "unit", key.String())
	}
}

func (h *Hooks) finish(unit string, m measure.Measurement, err error) (measure.Measurement, error) {
	if err != nil {
		if measure.IsUnmatchedPost(err) {
			h.logger.Warn("report skipped: unmatched post hook", "unit", unit)
		} else {
			h.logger.Error("post capture failed", "unit", unit, "error", err)
		}
		return measure.Measurement{}, err
	}

	h.logger.Debug("post capture",
		"unit", m.Identity,
		"original_bytes", m.OriginalBytes,
		"compiled_bytes", m.CompiledBytes,
	)

	if err := h.write(m); err != nil {
		h.logger.Error("writing report failed", "unit", m.Identity, "error", err)
		return m, err
	}
	return m, nil
}

func (h *Hooks) write(m measure.Measurement) error {
	var block []byte
	switch h.format {
	case FormatJSON:
		data, err := report.JSON(m)
		if err != nil {
			return err
		}
		block = data
	default:
		block = []byte("\n" + report.Text(m) + "\n")
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if _, err := h.out.Write(block); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	return nil
}
