// Package report renders completed size measurements.
//
// All functions are pure; writing the result is the caller's job.
package report

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"unicode"

	"github.com/roach88/sizeprobe/internal/measure"
)

const (
	// Title is the header text of every report block.
	Title = "Compile Size Report"

	// NotApplicable is rendered instead of a ratio when the original size is zero.
	NotApplicable = "N/A"

	header = "===== " + Title + " ====="
	footer = "=============================="
)

// Text formats m as the fixed report block:
//
//	===== Compile Size Report =====
//	File: <identity>
//	Original size: <X.XX>KB
//	Compiled size: <Y.YY>KB
//	Change: <+Z.ZZ%|-Z.ZZ%|N/A>
//	==============================
//
// Every line, including the last, ends with a newline. An identity holding
// control characters is printed Go-quoted so the block keeps its six lines.
func Text(m measure.Measurement) string {
	var b strings.Builder
	b.WriteString(header + "\n")
	fmt.Fprintf(&b, "File: %s\n", displayIdentity(m))
	fmt.Fprintf(&b, "Original size: %.2fKB\n", m.OriginalKB())
	fmt.Fprintf(&b, "Compiled size: %.2fKB\n", m.CompiledKB())
	fmt.Fprintf(&b, "Change: %s\n", FormatChange(m.Change()))
	b.WriteString(footer + "\n")
	return b.String()
}

// FormatChange renders c with an explicit sign and two decimals, or
// NotApplicable when c is undefined.
func FormatChange(c measure.Change) string {
	if !c.Defined {
		return NotApplicable
	}
	r := c.Rounded()
	if r >= 0 {
		return fmt.Sprintf("+%.2f%%", r)
	}
	return fmt.Sprintf("%.2f%%", r)
}

// Record is the JSON shape of a report.
type Record struct {
	File          string  `json:"file"`
	OriginalBytes int     `json:"original_bytes"`
	CompiledBytes int     `json:"compiled_bytes"`
	OriginalKB    float64 `json:"original_kb"`
	CompiledKB    float64 `json:"compiled_kb"`
	Change        string  `json:"change"`
}

// NewRecord builds the JSON record for m.
func NewRecord(m measure.Measurement) Record {
	return Record{
		File:          identity(m),
		OriginalBytes: m.OriginalBytes,
		CompiledBytes: m.CompiledBytes,
		OriginalKB:    m.OriginalKB(),
		CompiledKB:    m.CompiledKB(),
		Change:        FormatChange(m.Change()),
	}
}

// JSON formats m as a single-line JSON object terminated by a newline.
func JSON(m measure.Measurement) ([]byte, error) {
	data, err := json.Marshal(NewRecord(m))
	if err != nil {
		return nil, fmt.Errorf("marshaling report: %w", err)
	}
	return append(data, '\n'), nil
}

// identity never returns an empty string, even for a zero Measurement.
func identity(m measure.Measurement) string {
	if m.Identity == "" {
		return measure.PlaceholderIdentity
	}
	return m.Identity
}

func displayIdentity(m measure.Measurement) string {
	id := identity(m)
	if strings.ContainsFunc(id, unicode.IsControl) {
		return strconv.Quote(id)
	}
	return id
}
