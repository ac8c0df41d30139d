package agent

import (
	"fmt"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/mwillems/devassist/session"
	"github.com/mwillems/devassist/tools"
)

// maxObservationChars bounds how much of a tool output is rendered into the
// transcript. Without it a single long file read would grow the prompt
// without bound across turns.
const maxObservationChars = 4000

const truncationMarker = "\n[output truncated]"

const personaPreamble = `System: You are Dev Assist, a software engineering assistant.
You have access to tools for file operations, code analysis and system commands.
Analyze the task carefully and work step by step.

To use tools, reply with one directive per line, nothing else on the line:
>>tool <tool_name> {"argument": "value"}
All argument values must be JSON strings.

When the task is complete, reply with the final-answer directive on its own
line, followed by your answer:
>>final
<your answer>
Inside the final answer you may list remaining work, one item per line:
>>next <suggested follow-up>`

// TranscriptBuilder renders a session into the linear text the completion
// backend consumes. Rendering is pure: the same session always produces
// byte-identical text.
type TranscriptBuilder struct {
	registry *tools.Registry
}

// NewTranscriptBuilder creates a builder that lists the registry's tools in
// the system segment.
func NewTranscriptBuilder(registry *tools.Registry) *TranscriptBuilder {
	return &TranscriptBuilder{registry: registry}
}

// Render produces the full role-tagged transcript for the session: system
// segment, task block, then each prior turn's completion and observations.
func (b *TranscriptBuilder) Render(s *session.Session) string {
	var sb strings.Builder

	sb.WriteString(personaPreamble)
	sb.WriteString("\n\nAvailable tools:\n")
	for _, name := range b.registry.Names() {
		tool, _ := b.registry.Get(name)
		fmt.Fprintf(&sb, "- %s: %s\n", name, tool.Description())
	}

	sb.WriteString("\nHuman: Task: ")
	sb.WriteString(s.Task.Description)
	sb.WriteString("\n")
	if len(s.Task.Context) > 0 {
		sb.WriteString("Context:\n")
		keys := make([]string, 0, len(s.Task.Context))
		for k := range s.Task.Context {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			fmt.Fprintf(&sb, "  %s: %s\n", k, s.Task.Context[k])
		}
	}
	if len(s.Task.ToolsNeeded) > 0 {
		fmt.Fprintf(&sb, "Tools suggested by the caller: %s\n", strings.Join(s.Task.ToolsNeeded, ", "))
	}

	for _, turn := range s.Turns {
		sb.WriteString("\nAssistant: ")
		sb.WriteString(turn.Completion)
		sb.WriteString("\n")
		for _, res := range turn.Results {
			sb.WriteString(renderObservation(res))
		}
	}

	if s.RetryNote != "" {
		sb.WriteString("\nSystem note: ")
		sb.WriteString(s.RetryNote)
		sb.WriteString("\n")
	}

	sb.WriteString("\nAssistant:")
	return sb.String()
}

// renderObservation renders one tool result as a delimited observation
// block, truncating long output.
func renderObservation(res session.ToolResult) string {
	status := "ok"
	body := res.Output
	if !res.Success {
		status = "error " + res.ErrorKind
		body = res.ErrorMsg
	}
	if len(body) > maxObservationChars {
		cut := maxObservationChars
		// Back off to a rune boundary so the cut never splits a multi-byte
		// character.
		for cut > 0 && !utf8.RuneStart(body[cut]) {
			cut--
		}
		body = body[:cut] + truncationMarker
	}
	return fmt.Sprintf("\nObservation (%s, %s):\n%s\n", res.ToolID, status, body)
}
