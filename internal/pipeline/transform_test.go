package pipeline

import (
	"context"
	"os/exec"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCopy(t *testing.T) {
	out, err := Copy{}.Transform(context.Background(), Source{Text: "const a=1;"})
	require.NoError(t, err)
	assert.Equal(t, "const a=1;", out)
}

func TestSqueeze(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{"blank lines", "a\n\n\nb\n", "a\nb\n"},
		{"trailing whitespace", "a  \t\nb\r\n", "a\nb\n"},
		{"empty", "", ""},
		{"only whitespace", "  \n\t\n", ""},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			out, err := Squeeze{}.Transform(context.Background(), Source{Text: tc.in})
			require.NoError(t, err)
			assert.Equal(t, tc.want, out)
		})
	}
}

func TestCommand(t *testing.T) {
	if _, err := exec.LookPath("cat"); err != nil {
		t.Skip("cat not available")
	}

	out, err := Command{Name: "cat"}.Transform(context.Background(), Source{Path: "a.js", Text: "let x = 1;\n"})
	require.NoError(t, err)
	assert.Equal(t, "let x = 1;\n", out)
}

func TestCommand_PathPlaceholder(t *testing.T) {
	if _, err := exec.LookPath("echo"); err != nil {
		t.Skip("echo not available")
	}

	out, err := Command{Name: "echo", Args: []string{"compiled:{}"}}.Transform(context.Background(), Source{Path: "src/a.js"})
	require.NoError(t, err)
	assert.Equal(t, "compiled:src/a.js\n", out)
}

func TestCommand_Failure(t *testing.T) {
	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("sh not available")
	}

	_, err := Command{Name: "sh", Args: []string{"-c", "echo boom >&2; exit 3"}}.Transform(context.Background(), Source{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "boom")
}

func TestCommand_NoName(t *testing.T) {
	_, err := Command{}.Transform(context.Background(), Source{})
	assert.Error(t, err)
}
