package harness

import (
	"fmt"
	"strings"
)

// TraceEvent records one executed hook call.
type TraceEvent struct {
	Step     int    `json:"step"`
	Type     string `json:"type"` // "pre" or "post"
	Unit     string `json:"unit,omitempty"`
	Identity string `json:"identity"`
	Instance string `json:"instance,omitempty"`
	Code     string `json:"code,omitempty"` // hook error code, empty on success
}

// String renders the event as a single transcript line.
func (e TraceEvent) String() string {
	status := "ok"
	if e.Code != "" {
		status = e.Code
	}
	unit := e.Unit
	if unit == "" {
		unit = "-"
	}
	return fmt.Sprintf("%d %s unit=%s identity=%s %s", e.Step, e.Type, unit, e.Identity, status)
}

// Result is the outcome of a scenario run.
type Result struct {
	// Pass is false when the run did not meet the scenario's expectation.
	Pass bool `json:"pass"`

	// Trace lists every hook call in execution order.
	Trace []TraceEvent `json:"trace"`

	// Output is everything the hooks wrote.
	Output string `json:"output"`

	// Reports is the number of reports written.
	Reports int `json:"reports"`

	// Pending is the number of pre captures never matched by a post.
	Pending int `json:"pending"`

	// Errors contains expectation failures. Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Trace:  []TraceEvent{},
		Errors: []string{},
	}
}

// AddError adds an expectation failure and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// Codes returns the hook error codes in trace order.
func (r *Result) Codes() []string {
	codes := []string{}
	for _, e := range r.Trace {
		if e.Code != "" {
			codes = append(codes, e.Code)
		}
	}
	return codes
}

// Transcript renders the trace followed by the hook output. Golden files
// store this form.
func (r *Result) Transcript(name string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# scenario: %s\n", name)
	b.WriteString("# trace\n")
	for _, e := range r.Trace {
		b.WriteString(e.String())
		b.WriteString("\n")
	}
	fmt.Fprintf(&b, "# reports: %d pending: %d\n", r.Reports, r.Pending)
	b.WriteString("# output\n")
	b.WriteString(r.Output)
	return b.String()
}
