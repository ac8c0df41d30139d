// Package agent contains the orchestration core: the state machine that
// turns one task description into a bounded sequence of planning, tool
// execution and observation steps, ending in a structured response.
package agent

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/mwillems/devassist/config"
	"github.com/mwillems/devassist/errors"
	"github.com/mwillems/devassist/llm"
	"github.com/mwillems/devassist/session"
	"github.com/mwillems/devassist/tools"
)

const retryNote = "Your previous reply did not follow the required format. " +
	"Respond with '>>tool <name> {json args}' directives or a '>>final' answer."

// Agent drives sessions. It holds only shared, read-only collaborators
// (client, frozen registry, executor), so one Agent serves any number of
// concurrent sessions; each session's state is owned by its ProcessTask
// call.
type Agent struct {
	client   llm.Client
	registry *tools.Registry
	executor *tools.Executor
	builder  *TranscriptBuilder
	parser   *Parser

	maxTurns    int
	planRetries int
	opts        llm.Options
}

// New creates an agent from explicit dependencies. Nothing here is global:
// the backend client and registry are passed in, per collaborator.
func New(cfg *config.Config, client llm.Client, registry *tools.Registry) *Agent {
	return &Agent{
		client:      client,
		registry:    registry,
		executor:    tools.NewExecutor(registry, cfg),
		builder:     NewTranscriptBuilder(registry),
		parser:      NewParser(registry),
		maxTurns:    cfg.MaxTurns,
		planRetries: cfg.PlanRetries,
		opts:        llm.Options{MaxTokens: cfg.MaxTokens, Temperature: cfg.Temperature},
	}
}

// SessionError is the structured failure a caller receives when a session
// cannot produce a response. It carries the actions taken before the
// failure, so partial work is never silently discarded.
type SessionError struct {
	Kind         errors.Kind
	ActionsTaken []string
	Err          error
}

func (e *SessionError) Error() string {
	return fmt.Sprintf("session failed (%s): %v", e.Kind, e.Err)
}

func (e *SessionError) Unwrap() error { return e.Err }

// ProcessTask runs one task through the full state machine, synchronously,
// and returns either the aggregated response or a SessionError.
func (a *Agent) ProcessTask(ctx context.Context, task session.Task) (session.Response, error) {
	s := session.New(task)
	s.State = session.StatePlanning
	log.Info().Str("session", s.ID).Str("task", task.Description).Msg("session started")

	retries := 0
	execTurns := 0

	for {
		// Cooperative cancellation, checked between turns only; an in-flight
		// tool call is never killed mid-write.
		if err := ctx.Err(); err != nil {
			return session.Response{}, a.fail(s, errors.KindCancelled,
				errors.Wrapf(err, "session cancelled"))
		}

		if execTurns >= a.maxTurns {
			// Soft limit: synthesize a summary rather than failing, since
			// partial progress plus a clear message beats a hard error.
			s.FinalMessage = fmt.Sprintf(
				"Turn budget of %d exhausted before the task completed. %d actions were taken; see the action log.",
				a.maxTurns, len(s.ActionsTaken))
			log.Warn().Str("session", s.ID).Int("turns", execTurns).Msg("turn budget exhausted")
			return a.summarize(s), nil
		}

		transcript := a.builder.Render(s)
		s.RetryNote = ""

		completion, err := a.client.Complete(ctx, transcript, a.opts)
		if err != nil {
			// No retry at this layer; retry policy belongs to the backend.
			return session.Response{}, a.fail(s, errors.KindBackendUnavailable, err)
		}

		outcome := a.parser.Parse(completion)
		switch outcome.Kind {
		case OutcomeUnparseable:
			s.AppendTurn(session.Turn{Completion: completion})
			retries++
			log.Debug().Str("session", s.ID).Int("retries", retries).Msg("completion unparseable")
			if retries > a.planRetries {
				return session.Response{}, a.fail(s, errors.KindPlanningExhausted,
					errors.New("model failed to produce a parseable plan after %d retries", a.planRetries))
			}
			s.RetryNote = retryNote

		case OutcomeFinal:
			s.AppendTurn(session.Turn{Completion: completion})
			s.FinalMessage = outcome.Answer
			s.NextSteps = outcome.NextSteps
			return a.summarize(s), nil

		case OutcomeToolCalls:
			retries = 0
			s.AppendTurn(session.Turn{Completion: completion, Calls: outcome.Calls})

			// Calls execute sequentially in emission order: later calls may
			// depend on earlier side effects.
			s.State = session.StateExecuting
			for _, call := range outcome.Calls {
				result := a.executor.Execute(ctx, call)
				s.State = session.StateObserving
				s.RecordResult(result)
			}
			execTurns++
			s.State = session.StatePlanning
		}
	}
}

// summarize moves the session through Summarizing to Done and builds the
// response.
func (a *Agent) summarize(s *session.Session) session.Response {
	s.State = session.StateSummarizing
	resp := Aggregate(s)
	s.State = session.StateDone
	log.Info().Str("session", s.ID).Int("actions", len(resp.ActionsTaken)).Msg("session done")
	return resp
}

// fail marks the session terminal and builds the structured error. No
// further backend calls or tool executions happen after this.
func (a *Agent) fail(s *session.Session, kind errors.Kind, err error) error {
	s.State = session.StateFailed
	s.FinalMessage = err.Error()
	log.Error().Str("session", s.ID).Str("kind", string(kind)).Err(err).Msg("session failed")
	return &SessionError{
		Kind:         kind,
		ActionsTaken: append([]string{}, s.ActionsTaken...),
		Err:          err,
	}
}
