package agent

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mwillems/devassist/config"
	"github.com/mwillems/devassist/tools"
)

func testRegistry(t *testing.T) *tools.Registry {
	t.Helper()
	cfg := config.Defaults()
	cfg.WorkspaceRoot = t.TempDir()
	registry, err := tools.NewRegistry(cfg)
	require.NoError(t, err)
	return registry
}

func TestParseToolCallsInOrder(t *testing.T) {
	p := NewParser(testRegistry(t))

	outcome := p.Parse(`I'll start by looking around.
>>tool list_files {"path": "."}
>>tool read_file {"path": "main.go"}
Then I'll know more.`)

	require.Equal(t, OutcomeToolCalls, outcome.Kind)
	require.Len(t, outcome.Calls, 2)
	assert.Equal(t, "list_files", outcome.Calls[0].ToolID)
	assert.Equal(t, ".", outcome.Calls[0].Args["path"])
	assert.Equal(t, "read_file", outcome.Calls[1].ToolID)
	assert.Equal(t, "main.go", outcome.Calls[1].Args["path"])
	assert.NotEqual(t, outcome.Calls[0].ID, outcome.Calls[1].ID)
}

func TestParseToleratesMarkdownFences(t *testing.T) {
	p := NewParser(testRegistry(t))

	outcome := p.Parse("```\n>>tool list_files {\"path\": \"src\"}\n```")

	require.Equal(t, OutcomeToolCalls, outcome.Kind)
	require.Len(t, outcome.Calls, 1)
	assert.Equal(t, "list_files", outcome.Calls[0].ToolID)
}

func TestParseFinalAnswer(t *testing.T) {
	p := NewParser(testRegistry(t))

	outcome := p.Parse(">>final\nAll done.\nThe file was updated.")

	require.Equal(t, OutcomeFinal, outcome.Kind)
	assert.Equal(t, "All done.\nThe file was updated.", outcome.Answer)
	assert.Empty(t, outcome.NextSteps)
}

func TestParseFinalAnswerWithNextSteps(t *testing.T) {
	p := NewParser(testRegistry(t))

	outcome := p.Parse(`>>final
Refactored the handler.
>>next add integration tests
>>next update the changelog`)

	require.Equal(t, OutcomeFinal, outcome.Kind)
	assert.Equal(t, "Refactored the handler.", outcome.Answer)
	assert.Equal(t, []string{"add integration tests", "update the changelog"}, outcome.NextSteps)
}

func TestParseFinalOnSameLine(t *testing.T) {
	p := NewParser(testRegistry(t))

	outcome := p.Parse(">>final The answer is 42.")

	require.Equal(t, OutcomeFinal, outcome.Kind)
	assert.Equal(t, "The answer is 42.", outcome.Answer)
}

func TestParseToolCallsWinOverTrailingFinal(t *testing.T) {
	p := NewParser(testRegistry(t))

	outcome := p.Parse(">>tool list_files {\"path\": \".\"}\n>>final\npremature answer")

	require.Equal(t, OutcomeToolCalls, outcome.Kind)
	require.Len(t, outcome.Calls, 1)
}

func TestParseToolCallsAfterIgnoredFinalStillCollected(t *testing.T) {
	p := NewParser(testRegistry(t))

	outcome := p.Parse(`>>tool list_files {"path": "."}
>>final
premature answer
>>tool read_file {"path": "main.go"}`)

	require.Equal(t, OutcomeToolCalls, outcome.Kind)
	require.Len(t, outcome.Calls, 2)
	assert.Equal(t, "list_files", outcome.Calls[0].ToolID)
	assert.Equal(t, "read_file", outcome.Calls[1].ToolID)
}

func TestParseFinalWinsOverTrailingToolDirectives(t *testing.T) {
	p := NewParser(testRegistry(t))

	outcome := p.Parse(">>final\nDone.\n>>tool list_files {\"path\": \".\"}")

	require.Equal(t, OutcomeFinal, outcome.Kind)
	assert.Equal(t, "Done.", outcome.Answer)
}

func TestParseUnparseable(t *testing.T) {
	p := NewParser(testRegistry(t))

	cases := map[string]string{
		"plain prose":      "Sure, I will list the files for you now.",
		"unknown tool":     ">>tool delete_everything {\"path\": \"/\"}",
		"malformed json":   ">>tool list_files {\"path\": ",
		"non-string value": ">>tool list_files {\"path\": 42}",
		"empty completion": "",
		"marker typo":      ">> tool list_files {\"path\": \".\"}",
		"truncated marker": ">>too",
	}

	for name, text := range cases {
		t.Run(name, func(t *testing.T) {
			outcome := p.Parse(text)
			assert.Equal(t, OutcomeUnparseable, outcome.Kind)
			assert.Equal(t, text, outcome.Raw)
		})
	}
}

func TestParseToolDirectiveWithoutArgs(t *testing.T) {
	p := NewParser(testRegistry(t))

	// Missing argument object parses as an empty args map; the registry's
	// schema validation rejects it later, as a tool-level failure the model
	// can observe and correct.
	outcome := p.Parse(">>tool list_files")

	require.Equal(t, OutcomeToolCalls, outcome.Kind)
	require.Len(t, outcome.Calls, 1)
	assert.Empty(t, outcome.Calls[0].Args)
}
