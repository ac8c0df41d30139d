package session

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewSessionStartsInInit(t *testing.T) {
	s := New(Task{Description: "x"})
	assert.Equal(t, StateInit, s.State)
	assert.NotEmpty(t, s.ID)
	assert.Empty(t, s.Turns)
	assert.Empty(t, s.ActionsTaken)
}

func TestTerminalStates(t *testing.T) {
	assert.True(t, StateDone.Terminal())
	assert.True(t, StateFailed.Terminal())
	for _, s := range []State{StateInit, StatePlanning, StateExecuting, StateObserving, StateSummarizing} {
		assert.False(t, s.Terminal(), string(s))
	}
}

func TestRecordResultAppendsToLastTurnAndActionLog(t *testing.T) {
	s := New(Task{Description: "x"})
	s.AppendTurn(Turn{Completion: "plan"})
	s.RecordResult(ToolResult{ToolID: "list_files", Success: true, Target: "/tmp/demo"})
	s.RecordResult(ToolResult{ToolID: "read_file", Success: false, ErrorKind: "AccessDenied", Target: "secret"})

	require.Len(t, s.Turns, 1)
	require.Len(t, s.Turns[0].Results, 2)
	assert.Equal(t, []string{
		"listed files in /tmp/demo",
		"read file secret (failed: AccessDenied)",
	}, s.ActionsTaken)
}

func TestRecordResultWithoutTurnIsIgnored(t *testing.T) {
	s := New(Task{Description: "x"})
	s.RecordResult(ToolResult{ToolID: "read_file", Success: true, Target: "a"})
	assert.Empty(t, s.ActionsTaken)
}

func TestActionDescription(t *testing.T) {
	cases := []struct {
		res  ToolResult
		want string
	}{
		{ToolResult{ToolID: "execute_command", Success: true, Target: "go test"}, "ran command go test"},
		{ToolResult{ToolID: "write_to_file", Success: true, Target: "a.txt"}, "wrote file a.txt"},
		{ToolResult{ToolID: "search_files", Success: true, Target: "src"}, "searched files in src"},
		{ToolResult{ToolID: "browser_action", Success: true, Target: "https://example.com"}, "fetched https://example.com"},
		{ToolResult{ToolID: "custom_mcp_tool", Success: true, Target: "thing"}, "called custom_mcp_tool on thing"},
		{ToolResult{ToolID: "read_file", Success: false, ErrorKind: "Timeout", Target: "big"}, "read file big (failed: Timeout)"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, ActionDescription(tc.res))
	}
}
