package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaults(t *testing.T) {
	cfg := Defaults()
	assert.Equal(t, 10, cfg.MaxTurns)
	assert.Equal(t, 2, cfg.PlanRetries)
	assert.Equal(t, int64(2048), cfg.MaxTokens)
	assert.Equal(t, 0.7, cfg.Temperature)
	assert.Equal(t, 30*time.Second, cfg.ToolTimeout())
	assert.Equal(t, 64*1024, cfg.MaxCommandOutput)
	assert.Empty(t, cfg.AllowedCommands)
}

func TestLoadConfigReadsProjectFile(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, ".devassist"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".devassist", "config.yaml"), []byte(`
llm: anthropic
model: claude-sonnet-4-0
max_turns: 4
allowed_commands:
  - "^go (build|test)\\b"
`), 0644))
	t.Chdir(dir)

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, "anthropic", cfg.LLMClient)
	assert.Equal(t, "claude-sonnet-4-0", cfg.Model)
	assert.Equal(t, 4, cfg.MaxTurns)
	assert.Equal(t, []string{`^go (build|test)\b`}, cfg.AllowedCommands)

	// Untouched fields keep their defaults.
	assert.Equal(t, 2, cfg.PlanRetries)
}

func TestLoadConfigDefaultsWorkspaceRootToCwd(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	dir := t.TempDir()
	t.Chdir(dir)

	cfg, err := LoadConfig()
	require.NoError(t, err)
	resolved, err := filepath.EvalSymlinks(cfg.WorkspaceRoot)
	require.NoError(t, err)
	expected, err := filepath.EvalSymlinks(dir)
	require.NoError(t, err)
	assert.Equal(t, expected, resolved)
}

func TestLoadConfigHidesOwnStateDirectory(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Chdir(t.TempDir())

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Contains(t, cfg.FilesystemAccess.Hidden, ".devassist")
	assert.Contains(t, cfg.FilesystemAccess.Hidden, ".devassist/**")
}

func TestToolTimeoutFallsBackWhenUnset(t *testing.T) {
	cfg := &Config{}
	assert.Equal(t, 30*time.Second, cfg.ToolTimeout())
}
