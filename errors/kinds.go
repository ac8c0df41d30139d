package errors

import "fmt"

// Kind classifies a failure so callers can decide whether it is recoverable
// inside a session (tool-level kinds) or must abort it (session-level kinds).
type Kind string

const (
	// Tool-level kinds. These are encoded into a failed ToolResult and fed
	// back to the model; they never abort the session.
	KindInvalidArguments Kind = "InvalidArguments"
	KindUnknownTool      Kind = "UnknownTool"
	KindAccessDenied     Kind = "AccessDenied"
	KindNotPermitted     Kind = "NotPermitted"
	KindTimeout          Kind = "Timeout"
	KindExecutionFailed  Kind = "ExecutionFailed"

	// Session-level kinds. These surface to the caller as a structured error.
	KindBackendUnavailable  Kind = "BackendUnavailable"
	KindPlanningExhausted   Kind = "PlanningExhausted"
	KindTurnBudgetExhausted Kind = "TurnBudgetExhausted"
	KindCancelled           Kind = "Cancelled"
)

// kindError carries a Kind through a wrap chain.
type kindError struct {
	kind Kind
	err  error
}

func (e *kindError) Error() string { return fmt.Sprintf("%s: %v", e.kind, e.err) }
func (e *kindError) Unwrap() error { return e.err }

// WithKind annotates err with a kind. Returns nil if err is nil.
func WithKind(kind Kind, err error) error {
	if err == nil {
		return nil
	}
	return &kindError{kind: kind, err: err}
}

// Kindf creates a new error of the given kind.
func Kindf(kind Kind, format string, a ...interface{}) error {
	return &kindError{kind: kind, err: fmt.Errorf(format, a...)}
}

// KindOf returns the kind annotated closest to the surface of err's chain.
// Errors with no annotation report KindExecutionFailed, the catch-all for
// capability failures.
func KindOf(err error) Kind {
	var ke *kindError
	if As(err, &ke) {
		return ke.kind
	}
	return KindExecutionFailed
}

// HasKind reports whether err carries the given kind.
func HasKind(err error, kind Kind) bool {
	var ke *kindError
	if As(err, &ke) {
		return ke.kind == kind
	}
	return false
}
