package agent

import (
	"encoding/json"
	"strings"

	"github.com/google/uuid"

	"github.com/mwillems/devassist/session"
	"github.com/mwillems/devassist/tools"
)

const (
	toolMarker  = ">>tool"
	finalMarker = ">>final"
	nextMarker  = ">>next"
)

// OutcomeKind identifies what a completion parsed into.
type OutcomeKind int

const (
	// OutcomeToolCalls means the completion requested one or more tool
	// invocations.
	OutcomeToolCalls OutcomeKind = iota
	// OutcomeFinal means the completion carried a final answer.
	OutcomeFinal
	// OutcomeUnparseable means the completion matched neither pattern. This
	// is an expected outcome, not a fault; the session retries planning.
	OutcomeUnparseable
)

// PlanOutcome is the structured reading of one model completion.
type PlanOutcome struct {
	Kind      OutcomeKind
	Calls     []session.ToolCall
	Answer    string
	NextSteps []string
	// Raw holds the original completion text for unparseable outcomes.
	Raw string
}

// Parser extracts tool-call directives or a final answer from free-form
// completion text. It tolerates markdown fencing and surrounding whitespace
// but refuses to guess: ambiguous or malformed directives make the whole
// completion unparseable rather than risking a tool call the model did not
// clearly ask for.
type Parser struct {
	registry *tools.Registry
}

// NewParser creates a parser that validates tool identifiers against the
// frozen registry, so unknown tools are rejected at parse time, before
// anything can be dispatched.
func NewParser(registry *tools.Registry) *Parser {
	return &Parser{registry: registry}
}

// Parse reads one completion. Directives are one per line; everything the
// model says outside directives is commentary and ignored unless a final
// answer is in progress.
func (p *Parser) Parse(completion string) PlanOutcome {
	unparseable := PlanOutcome{Kind: OutcomeUnparseable, Raw: completion}

	var calls []session.ToolCall
	var answer []string
	var nextSteps []string
	inFinal := false

	for _, line := range strings.Split(completion, "\n") {
		trimmed := strings.TrimSpace(line)

		// Markdown fences around the directive block are formatting drift,
		// not content.
		if strings.HasPrefix(trimmed, "```") {
			continue
		}

		switch {
		case inFinal:
			if rest, ok := directive(trimmed, nextMarker); ok {
				if rest != "" {
					nextSteps = append(nextSteps, rest)
				}
				continue
			}
			if _, ok := directive(trimmed, toolMarker); ok {
				// The final answer wins over trailing tool directives.
				continue
			}
			answer = append(answer, line)

		default:
			if rest, ok := directive(trimmed, finalMarker); ok {
				if len(calls) > 0 {
					// Tool calls were issued first; the final answer is
					// ignored and the model must re-emit it after observing
					// the results. Later tool directives still count.
					continue
				}
				inFinal = true
				if rest != "" {
					answer = append(answer, rest)
				}
				continue
			}
			rest, ok := directive(trimmed, toolMarker)
			if !ok {
				continue
			}
			call, ok := p.parseToolDirective(rest)
			if !ok {
				return unparseable
			}
			calls = append(calls, call)
		}
	}

	if inFinal {
		return PlanOutcome{
			Kind:      OutcomeFinal,
			Answer:    strings.TrimSpace(strings.Join(answer, "\n")),
			NextSteps: nextSteps,
		}
	}
	if len(calls) > 0 {
		return PlanOutcome{Kind: OutcomeToolCalls, Calls: calls}
	}
	return unparseable
}

// directive strips a marker prefix from a line. The marker must be the whole
// first word.
func directive(line, marker string) (string, bool) {
	if line == marker {
		return "", true
	}
	if strings.HasPrefix(line, marker+" ") {
		return strings.TrimSpace(line[len(marker)+1:]), true
	}
	return "", false
}

// parseToolDirective reads "<tool_id> {json args}". The tool id must be
// registered and the arguments must be a JSON object with string values.
func (p *Parser) parseToolDirective(rest string) (session.ToolCall, bool) {
	toolID, argText, _ := strings.Cut(rest, " ")
	if toolID == "" || !p.registry.Has(toolID) {
		return session.ToolCall{}, false
	}

	args := map[string]string{}
	argText = strings.TrimSpace(argText)
	if argText != "" {
		if err := json.Unmarshal([]byte(argText), &args); err != nil {
			return session.ToolCall{}, false
		}
	}

	return session.ToolCall{
		ID:     uuid.NewString(),
		ToolID: toolID,
		Args:   args,
	}, true
}
