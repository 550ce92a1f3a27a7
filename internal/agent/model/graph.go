package model

// ConversationState stores per-invocation state for the orchestrator graph.
// Concurrency model:
//   - Registered as Graph Local State via compose.WithGenLocalState, so every
//     Invoke gets a fresh value and nothing is shared between invocations.
//   - All reads/writes happen inside Eino state handlers or
//     compose.ProcessState, which serialise access.
//   - Messages is append-only. Only derived Turns are persisted, and that is
//     the inbound channel's job.
type ConversationState struct {
	SessionID string
	Messages  []Turn

	// Escalate is nil until the check stage has run.
	Escalate *bool

	Classification Classification
	Context        []Snippet
	Reply          string
	TicketID       string

	// Accumulated LLM cost (USD) for this turn.
	TotalCostUSD float64
}

// Append adds a turn to the state and returns it.
func (s *ConversationState) Append(role Role, content string) Turn {
	t := NewTurn(role, content)
	s.Messages = append(s.Messages, t)
	return t
}

// LatestUserTurn returns the newest user turn.
func (s *ConversationState) LatestUserTurn() (Turn, bool) {
	for i := len(s.Messages) - 1; i >= 0; i-- {
		if s.Messages[i].Role == RoleUser {
			return s.Messages[i], true
		}
	}
	return Turn{}, false
}

func (s *ConversationState) SetEscalate(v bool) {
	s.Escalate = &v
}

// QueryInput represents one inbound user message.
type QueryInput struct {
	SessionID string `json:"session_id"`
	Text      string `json:"message"`
}

// Outcome is produced by the check stage and consumed by the branch:
// either the reply continues to the user as is, or the turn escalates.
type Outcome struct {
	Reply    string
	Escalate bool
	// Reason names the policy signal that fired, for logs only.
	Reason string
}
