package hooks

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/sizeprobe/internal/measure"
	"github.com/roach88/sizeprobe/internal/report"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestHooks_GrowingUnitReport(t *testing.T) {
	var out bytes.Buffer
	h := New(&out, WithLogger(discardLogger()))

	key, err := h.Pre("const a=1;", "src/a.js")
	require.NoError(t, err)
	m, err := h.Post(key, "const a = 1;\n")
	require.NoError(t, err)

	assert.Equal(t, 10, m.OriginalBytes)
	assert.Equal(t, 13, m.CompiledBytes)
	assert.Equal(t, "\n"+report.Text(m)+"\n", out.String())
	assert.Contains(t, out.String(), "Change: +30.00%\n")
}

func TestHooks_InterleavedUnits(t *testing.T) {
	var out bytes.Buffer
	h := New(&out, WithLogger(discardLogger()))

	keyA, err := h.Pre("aaaaaaaaaa", "A.js")
	require.NoError(t, err)
	keyB, err := h.Pre(strings.Repeat("b", 4096), "B.js")
	require.NoError(t, err)

	mA, err := h.Post(keyA, "aaaaa")
	require.NoError(t, err)
	mB, err := h.Post(keyB, strings.Repeat("b", 8192))
	require.NoError(t, err)

	assert.Equal(t, measure.Measurement{Identity: "A.js", OriginalBytes: 10, CompiledBytes: 5}, mA)
	assert.Equal(t, measure.Measurement{Identity: "B.js", OriginalBytes: 4096, CompiledBytes: 8192}, mB)

	reports := out.String()
	idxA := strings.Index(reports, "File: A.js")
	idxB := strings.Index(reports, "File: B.js")
	require.True(t, idxA >= 0 && idxB > idxA)
	assert.Contains(t, reports[idxA:idxB], "Change: -50.00%")
	assert.Contains(t, reports[idxB:], "Change: +100.00%")
}

func TestHooks_PlaceholderIdentity(t *testing.T) {
	var out bytes.Buffer
	h := New(&out, WithLogger(discardLogger()))

	_, err := h.Pre("x", "")
	require.NoError(t, err)
	_, err = h.PostLatest("", "xy")
	require.NoError(t, err)

	assert.Contains(t, out.String(), "File: unknown-file\n")
}

func TestHooks_UnmatchedPostSkipsReport(t *testing.T) {
	var out, logs bytes.Buffer
	h := New(&out, WithLogger(slog.New(slog.NewTextHandler(&logs, nil))))

	_, err := h.PostLatest("ghost.js", "output")
	require.Error(t, err)
	assert.True(t, measure.IsUnmatchedPost(err))

	assert.Empty(t, out.String(), "no report for unmatched post")
	assert.Contains(t, logs.String(), "unmatched post hook")
	assert.Contains(t, logs.String(), "plugin=file-size-plugin")
	assert.Contains(t, logs.String(), "unit=ghost.js")
}

func TestHooks_InvalidUTF8Propagates(t *testing.T) {
	var out, logs bytes.Buffer
	h := New(&out, WithLogger(slog.New(slog.NewTextHandler(&logs, nil))))

	_, err := h.Pre("\xfe\xff", "bad.js")
	require.Error(t, err)
	assert.True(t, measure.IsInvalidUTF8(err))
	assert.Contains(t, logs.String(), "pre capture failed")
	assert.Equal(t, 0, h.Pending())

	key, err := h.Pre("fine", "ok.js")
	require.NoError(t, err)
	_, err = h.Post(key, "\xfe")
	assert.True(t, measure.IsInvalidUTF8(err))
	assert.Empty(t, out.String())
}

func TestHooks_EmptySourceRendersNA(t *testing.T) {
	var out bytes.Buffer
	h := New(&out, WithLogger(discardLogger()))

	key, err := h.Pre("", "empty.js")
	require.NoError(t, err)
	_, err = h.Post(key, "\"use strict\";")
	require.NoError(t, err)

	assert.Contains(t, out.String(), "Change: N/A\n")
	assert.NotContains(t, out.String(), "NaN")
	assert.NotContains(t, out.String(), "Inf")
}

func TestHooks_JSONFormat(t *testing.T) {
	var out bytes.Buffer
	h := New(&out, WithLogger(discardLogger()), WithFormat(FormatJSON))

	key, err := h.Pre("const a=1;", "a.js")
	require.NoError(t, err)
	_, err = h.Post(key, "const a = 1;\n")
	require.NoError(t, err)

	var rec report.Record
	require.NoError(t, json.Unmarshal(out.Bytes(), &rec))
	assert.Equal(t, "a.js", rec.File)
	assert.Equal(t, "+30.00%", rec.Change)
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) {
	return 0, errors.New("disk full")
}

func TestHooks_WriteFailureReturnsMeasurement(t *testing.T) {
	h := New(failingWriter{}, WithLogger(discardLogger()))

	key, err := h.Pre("abc", "a.js")
	require.NoError(t, err)
	m, err := h.Post(key, "abcd")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk full")
	assert.Equal(t, 4, m.CompiledBytes)
}

func TestHooks_Discard(t *testing.T) {
	var out bytes.Buffer
	h := New(&out, WithLogger(discardLogger()))

	key, err := h.Pre("abc", "a.js")
	require.NoError(t, err)
	h.Discard(key)
	assert.Equal(t, 0, h.Pending())

	_, err = h.Post(key, "abc")
	assert.True(t, measure.IsUnmatchedPost(err))
}

func TestHooks_Name(t *testing.T) {
	assert.Equal(t, "file-size-plugin", New(io.Discard).Name())
}
