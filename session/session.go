package session

import (
	"fmt"

	"github.com/google/uuid"
)

// Task is the caller-supplied description of work to perform. It is never
// mutated after construction.
type Task struct {
	Description string            `json:"description"`
	Context     map[string]string `json:"context,omitempty"`
	// ToolsNeeded is advisory only: hints from the caller about which tools
	// the task will probably require. The planner is free to ignore it.
	ToolsNeeded []string `json:"tools_needed,omitempty"`
}

// ToolCall is a parsed intent to invoke one named tool with arguments.
type ToolCall struct {
	ID     string            `json:"id"`
	ToolID string            `json:"tool_id"`
	Args   map[string]string `json:"args"`
}

// ToolResult is the outcome of executing one ToolCall. Immutable once
// produced.
type ToolResult struct {
	ToolID    string `json:"tool_id"`
	Success   bool   `json:"success"`
	Output    string `json:"output,omitempty"`
	ErrorKind string `json:"error_kind,omitempty"`
	ErrorMsg  string `json:"error_message,omitempty"`
	// Target is the primary argument the call was made against (a path, a
	// command, a URL), kept for the human-readable action log.
	Target string `json:"target,omitempty"`
}

// Turn is one planning→execution→observation cycle: the raw completion text
// for that turn, the calls parsed from it and the results produced.
type Turn struct {
	Completion string       `json:"completion"`
	Calls      []ToolCall   `json:"calls,omitempty"`
	Results    []ToolResult `json:"results,omitempty"`
}

// State identifies where a session is in its lifecycle.
type State string

const (
	StateInit        State = "init"
	StatePlanning    State = "planning"
	StateExecuting   State = "executing"
	StateObserving   State = "observing"
	StateSummarizing State = "summarizing"
	StateDone        State = "done"
	StateFailed      State = "failed"
)

// Terminal reports whether the state is one of the two terminal states.
func (s State) Terminal() bool { return s == StateDone || s == StateFailed }

// Session is the full lifecycle of processing one Task. A session is owned by
// exactly one goroutine and lives only for the duration of one ProcessTask
// call; nothing is persisted across requests.
type Session struct {
	ID    string
	Task  Task
	Turns []Turn
	State State

	// ActionsTaken holds one human-readable entry per attempted tool call,
	// successful or not, in execution order.
	ActionsTaken []string

	// FinalMessage is set exactly when the session reaches a terminal state.
	FinalMessage string
	// NextSteps is whatever the model separated out as remaining work in its
	// final answer. Never synthesized.
	NextSteps []string

	// RetryNote is a corrective instruction queued for the next transcript
	// render after an unparseable completion. Cleared once rendered.
	RetryNote string
}

// New constructs a session for a task in the Init state.
func New(task Task) *Session {
	return &Session{
		ID:    uuid.NewString(),
		Task:  task,
		State: StateInit,
	}
}

// AppendTurn appends a turn to the session history. Turns are append-only; a
// retried planning step produces a new turn rather than rewriting an old one.
func (s *Session) AppendTurn(t Turn) {
	s.Turns = append(s.Turns, t)
}

// RecordResult attaches a result to the most recent turn and derives its
// action-log entry.
func (s *Session) RecordResult(res ToolResult) {
	if len(s.Turns) == 0 {
		return
	}
	last := &s.Turns[len(s.Turns)-1]
	last.Results = append(last.Results, res)
	s.ActionsTaken = append(s.ActionsTaken, ActionDescription(res))
}

// Response is the contract returned to the caller.
type Response struct {
	Message      string   `json:"message"`
	ActionsTaken []string `json:"actions_taken"`
	NextSteps    []string `json:"next_steps,omitempty"`
}

// ActionDescription renders a tool result as one action-log entry.
func ActionDescription(res ToolResult) string {
	verb := map[string]string{
		"execute_command":            "ran command",
		"read_file":                  "read file",
		"write_to_file":              "wrote file",
		"search_files":               "searched files in",
		"list_files":                 "listed files in",
		"list_code_definition_names": "listed code definitions in",
		"browser_action":             "fetched",
	}[res.ToolID]
	if verb == "" {
		verb = "called " + res.ToolID + " on"
	}
	target := res.Target
	if target == "" {
		target = "(no target)"
	}
	if !res.Success {
		return fmt.Sprintf("%s %s (failed: %s)", verb, target, res.ErrorKind)
	}
	return fmt.Sprintf("%s %s", verb, target)
}
