package agent

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mwillems/devassist/session"
)

func TestRenderIsDeterministic(t *testing.T) {
	b := NewTranscriptBuilder(testRegistry(t))
	s := session.New(session.Task{
		Description: "clean up the handlers",
		Context:     map[string]string{"branch": "main", "area": "server"},
	})
	s.AppendTurn(session.Turn{Completion: ">>tool list_files {\"path\": \".\"}"})
	s.RecordResult(session.ToolResult{ToolID: "list_files", Success: true, Output: "a.go\nb.go", Target: "."})

	first := b.Render(s)
	second := b.Render(s)
	assert.Equal(t, first, second)
}

func TestRenderIncludesTaskAndSortedContext(t *testing.T) {
	b := NewTranscriptBuilder(testRegistry(t))
	s := session.New(session.Task{
		Description: "do the thing",
		Context:     map[string]string{"zebra": "z", "alpha": "a"},
	})

	text := b.Render(s)

	assert.Contains(t, text, "Human: Task: do the thing")
	alphaAt := strings.Index(text, "alpha: a")
	zebraAt := strings.Index(text, "zebra: z")
	require.True(t, alphaAt >= 0 && zebraAt >= 0)
	assert.Less(t, alphaAt, zebraAt)
}

func TestRenderListsTools(t *testing.T) {
	b := NewTranscriptBuilder(testRegistry(t))
	s := session.New(session.Task{Description: "x"})

	text := b.Render(s)

	for _, name := range []string{"read_file", "write_to_file", "search_files", "list_files", "list_code_definition_names", "execute_command", "browser_action"} {
		assert.Contains(t, text, "- "+name+": ")
	}
}

func TestRenderTruncatesLongObservations(t *testing.T) {
	b := NewTranscriptBuilder(testRegistry(t))
	s := session.New(session.Task{Description: "x"})
	s.AppendTurn(session.Turn{Completion: ">>tool read_file {\"path\": \"big.txt\"}"})
	s.RecordResult(session.ToolResult{
		ToolID:  "read_file",
		Success: true,
		Output:  strings.Repeat("y", maxObservationChars+500),
		Target:  "big.txt",
	})

	text := b.Render(s)

	assert.Contains(t, text, truncationMarker)
	assert.NotContains(t, text, strings.Repeat("y", maxObservationChars+1))
}

func TestRenderTruncationKeepsRuneBoundaries(t *testing.T) {
	b := NewTranscriptBuilder(testRegistry(t))
	s := session.New(session.Task{Description: "x"})
	s.AppendTurn(session.Turn{Completion: ">>tool read_file {\"path\": \"big.txt\"}"})
	// Three-byte runes that never line up with the byte cap, so a byte-index
	// cut would split one.
	s.RecordResult(session.ToolResult{
		ToolID:  "read_file",
		Success: true,
		Output:  strings.Repeat("世", maxObservationChars),
		Target:  "big.txt",
	})

	text := b.Render(s)

	assert.Contains(t, text, truncationMarker)
	assert.True(t, utf8.ValidString(text))
}

func TestRenderFailedObservationCarriesErrorKind(t *testing.T) {
	b := NewTranscriptBuilder(testRegistry(t))
	s := session.New(session.Task{Description: "x"})
	s.AppendTurn(session.Turn{Completion: ">>tool write_to_file {\"path\": \"/etc/passwd\", \"content\": \"x\"}"})
	s.RecordResult(session.ToolResult{
		ToolID:    "write_to_file",
		Success:   false,
		ErrorKind: "AccessDenied",
		ErrorMsg:  "path '/etc/passwd' resolves outside the workspace root",
		Target:    "/etc/passwd",
	})

	text := b.Render(s)

	assert.Contains(t, text, "Observation (write_to_file, error AccessDenied):")
	assert.Contains(t, text, "outside the workspace root")
}

func TestRenderAppendsRetryNote(t *testing.T) {
	b := NewTranscriptBuilder(testRegistry(t))
	s := session.New(session.Task{Description: "x"})
	s.RetryNote = retryNote

	text := b.Render(s)

	assert.Contains(t, text, "System note: "+retryNote)
}
