package tools

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mwillems/devassist/config"
	"github.com/mwillems/devassist/errors"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.Defaults()
	cfg.WorkspaceRoot = t.TempDir()
	return cfg
}

func TestRegistryHoldsBuiltinTools(t *testing.T) {
	registry, err := NewRegistry(testConfig(t))
	require.NoError(t, err)

	assert.Equal(t, []string{
		"browser_action",
		"execute_command",
		"list_code_definition_names",
		"list_files",
		"read_file",
		"search_files",
		"write_to_file",
	}, registry.Names())
}

func TestValidateUnknownTool(t *testing.T) {
	registry, err := NewRegistry(testConfig(t))
	require.NoError(t, err)

	err = registry.Validate("make_coffee", map[string]string{})
	require.Error(t, err)
	assert.Equal(t, errors.KindUnknownTool, errors.KindOf(err))
	assert.False(t, registry.Has("make_coffee"))
}

func TestValidateMissingRequiredArgument(t *testing.T) {
	registry, err := NewRegistry(testConfig(t))
	require.NoError(t, err)

	err = registry.Validate("search_files", map[string]string{"path": "."})
	require.Error(t, err)
	assert.Equal(t, errors.KindInvalidArguments, errors.KindOf(err))
	assert.Contains(t, err.Error(), "pattern")
}

func TestValidateRejectsUnknownArgument(t *testing.T) {
	registry, err := NewRegistry(testConfig(t))
	require.NoError(t, err)

	err = registry.Validate("read_file", map[string]string{"path": "a.txt", "mode": "fast"})
	require.Error(t, err)
	assert.Equal(t, errors.KindInvalidArguments, errors.KindOf(err))
}

func TestValidateAcceptsWellFormedArguments(t *testing.T) {
	registry, err := NewRegistry(testConfig(t))
	require.NoError(t, err)

	assert.NoError(t, registry.Validate("read_file", map[string]string{"path": "a.txt"}))
	assert.NoError(t, registry.Validate("list_files", map[string]string{"path": ".", "recursive": "true"}))
	assert.NoError(t, registry.Validate("search_files", map[string]string{"path": ".", "pattern": "TODO"}))
}

func TestRegisterAfterFreezeFails(t *testing.T) {
	registry, err := NewRegistry(testConfig(t))
	require.NoError(t, err)

	err = registry.register(&ReadFileTool{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "frozen")
}
