package model

import (
	"context"

	"github.com/cloudwego/eino/schema"
)

// Classifier detects the intent of a user message. Implementations must be
// safe for concurrent use and free of side effects visible to the caller.
type Classifier interface {
	Classify(ctx context.Context, text string) (Classification, error)
}

// Retriever fetches supporting snippets for a message, best first.
// An empty result is valid.
type Retriever interface {
	Retrieve(ctx context.Context, text string, topK int) ([]Snippet, error)
}

// Generator produces the assistant reply for an ordered prompt. It must
// honour ctx cancellation and report failures instead of returning "".
type Generator interface {
	Generate(ctx context.Context, messages []*schema.Message) (string, error)
}

// TicketSink records escalation tickets. Delivery is at-least-once: a retry
// may create a duplicate, and the returned id is the one shown to the user.
type TicketSink interface {
	Create(ctx context.Context, ticket *Ticket) (string, error)
}

// Readiness is implemented by ports with a startup phase (index build,
// model load). The orchestrator refuses to build until all report ready.
type Readiness interface {
	Ready() bool
}
