package agent

import (
	"fmt"

	"github.com/mwillems/devassist/session"
)

// Aggregate builds the response contract from a session that reached
// Summarizing. The message is the model's final answer when it gave one;
// otherwise a fallback is synthesized from the action log. Next steps are
// only ever what the model supplied, never fabricated.
func Aggregate(s *session.Session) session.Response {
	message := s.FinalMessage
	if message == "" {
		if len(s.ActionsTaken) == 0 {
			message = "Task processed; no actions were required."
		} else {
			message = fmt.Sprintf("Task processed; %d actions were taken.", len(s.ActionsTaken))
		}
	}
	return session.Response{
		Message:      message,
		ActionsTaken: append([]string{}, s.ActionsTaken...),
		NextSteps:    append([]string{}, s.NextSteps...),
	}
}
