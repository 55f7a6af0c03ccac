package cli

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/sizeprobe/internal/config"
)

func TestConfig_Defaults(t *testing.T) {
	out, _, err := execute("config")
	require.NoError(t, err)
	assert.Contains(t, out, "format: text")
	assert.Contains(t, out, "jobs: 4")
	assert.Contains(t, out, "kind: copy")
}

func TestConfig_FileJSON(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "c.yaml", "jobs: 2\ntransform:\n  kind: command\n  command: tsc\n")

	out, _, err := execute("config", "--format", "json", path)
	require.NoError(t, err)

	var resp struct {
		Status string        `json:"status"`
		Data   config.Config `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, 2, resp.Data.Jobs)
	assert.Equal(t, "tsc", resp.Data.Transform.Command)
}

func TestConfig_GlobalFlag(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "c.yaml", "transform:\n  kind: squeeze\n")

	out, _, err := execute("config", "--config", path)
	require.NoError(t, err)
	assert.Contains(t, out, "kind: squeeze")
}

func TestConfig_Invalid(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "c.yaml", "transform:\n  kind: command\n")

	_, errOut, err := execute("config", "-v", path)
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, errOut, "Error [E008]")
	assert.Contains(t, errOut, "Details:")
}
