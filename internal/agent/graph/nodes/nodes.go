package nodes

import (
	"context"
	"fmt"
	"strings"

	"github.com/cloudwego/eino/compose"

	"github.com/chative/supportdesk/internal/agent/graph/conversations"
	"github.com/chative/supportdesk/internal/agent/graph/prompts"
	"github.com/chative/supportdesk/internal/agent/model"
	"github.com/chative/supportdesk/internal/agent/policy"
	errx "github.com/chative/supportdesk/internal/core/error"
	logx "github.com/chative/supportdesk/pkg/logger"
)

// DegradedHandoffMessage is returned when escalation fires but no ticket
// could be recorded. It carries no ticket reference.
const DegradedHandoffMessage = "I'm transferring you to a human specialist. Please hold while I connect you."

// HandoffMessage is the reply shown once a ticket has been created.
func HandoffMessage(ticketID string) string {
	return fmt.Sprintf("I'm transferring you to a human specialist. Your ticket reference is %s. Please hold while I connect you.", ticketID)
}

// DebugTurn formats the classification debug turn.
func DebugTurn(c model.Classification) string {
	return fmt.Sprintf("[debug] intent=%s prob=%.2f", c.Label, c.Confidence)
}

// NewClassifyPreHandler initialises the turn state: session id, prior
// history and the new user turn. A history failure is logged and the turn
// runs without prior context.
func NewClassifyPreHandler(mm *conversations.MessagesManager) func(context.Context, model.QueryInput, *model.ConversationState) (model.QueryInput, error) {
	return func(ctx context.Context, in model.QueryInput, s *model.ConversationState) (model.QueryInput, error) {
		s.SessionID = in.SessionID
		s.TotalCostUSD = 0

		prior, err := mm.LoadPrior(ctx, in.SessionID)
		if err != nil {
			logx.Warn().Err(err).Str("session_id", in.SessionID).Msg("Prior history unavailable, continuing without it")
		}
		s.Messages = append(s.Messages, prior...)
		s.Append(model.RoleUser, in.Text)
		return in, nil
	}
}

// NewClassifyNode runs the classifier. Classification is advisory: any
// failure degrades to the unknown intent.
func NewClassifyNode(classifier model.Classifier) *compose.Lambda {
	return compose.InvokableLambda(func(ctx context.Context, in model.QueryInput) (model.QueryInput, error) {
		ctx, tracker := model.WithCostTracker(ctx)

		c, err := classifier.Classify(ctx, in.Text)
		if err != nil {
			logx.Warn().Err(errx.Classification(err)).Str("session_id", in.SessionID).Msg("Classification failed, using unknown intent")
			c = model.Unknown()
		}
		c = c.Normalized()

		err = compose.ProcessState(ctx, func(_ context.Context, s *model.ConversationState) error {
			s.Classification = c
			s.TotalCostUSD += tracker.TotalUSD()
			s.Append(model.RoleSystemDebug, DebugTurn(c))
			return nil
		})
		if err != nil {
			return in, fmt.Errorf("failed to access state: %w", err)
		}

		logx.Debug().
			Str("session_id", in.SessionID).
			Str("intent", c.Label).
			Float64("confidence", c.Confidence).
			Msg("Classified message")
		return in, nil
	})
}

// NewRetrieveNode fetches context snippets. Empty text skips the lookup;
// failures degrade to empty context.
func NewRetrieveNode(retriever model.Retriever, topK int) *compose.Lambda {
	return compose.InvokableLambda(func(ctx context.Context, in model.QueryInput) ([]model.Snippet, error) {
		if strings.TrimSpace(in.Text) == "" {
			return nil, nil
		}
		snippets, err := retriever.Retrieve(ctx, in.Text, topK)
		if err != nil {
			logx.Warn().Err(errx.Retrieval(err)).Str("session_id", in.SessionID).Msg("Retrieval failed, continuing with empty context")
			return nil, nil
		}
		logx.Debug().Str("session_id", in.SessionID).Int("snippets", len(snippets)).Msg("Retrieved context")
		return snippets, nil
	})
}

// NewRetrievePostHandler stores the retrieved context in state.
func NewRetrievePostHandler() func(context.Context, []model.Snippet, *model.ConversationState) ([]model.Snippet, error) {
	return func(ctx context.Context, out []model.Snippet, s *model.ConversationState) ([]model.Snippet, error) {
		s.Context = out
		return out, nil
	}
}

// NewGenerateNode assembles the prompt from state and calls the generator.
// Any failure here is fatal for the turn.
func NewGenerateNode(gen model.Generator, mm *conversations.MessagesManager, promptCfg model.PromptConfig) *compose.Lambda {
	return compose.InvokableLambda(func(ctx context.Context, snippets []model.Snippet) (string, error) {
		var (
			sessionID string
			intent    string
			turns     []model.Turn
		)
		err := compose.ProcessState(ctx, func(_ context.Context, s *model.ConversationState) error {
			sessionID = s.SessionID
			intent = s.Classification.Label
			turns = append([]model.Turn(nil), s.Messages...)
			return nil
		})
		if err != nil {
			return "", fmt.Errorf("failed to access state: %w", err)
		}

		system, err := prompts.RenderSupportSystem(ctx, promptCfg, intent)
		if err != nil {
			return "", errx.Generation(err)
		}
		messages := mm.BuildPrompt(system, snippets, turns)

		ctx, tracker := model.WithCostTracker(ctx)
		reply, err := gen.Generate(ctx, messages)
		if err == nil && strings.TrimSpace(reply) == "" {
			err = errx.Content("empty reply")
		}
		if err != nil {
			logx.Error().Err(err).Str("session_id", sessionID).Msg("Generation failed")
			return "", errx.Generation(err)
		}

		err = compose.ProcessState(ctx, func(_ context.Context, s *model.ConversationState) error {
			s.TotalCostUSD += tracker.TotalUSD()
			return nil
		})
		if err != nil {
			return "", fmt.Errorf("failed to access state: %w", err)
		}
		return reply, nil
	})
}

// NewCheckNode applies the escalation policy to the generated reply.
func NewCheckNode(p *policy.Policy) *compose.Lambda {
	return compose.InvokableLambda(func(ctx context.Context, reply string) (model.Outcome, error) {
		d := p.Explain(reply)
		return model.Outcome{Reply: reply, Escalate: d.Escalate, Reason: d.Reason}, nil
	})
}

// NewCheckPostHandler records the decision in state.
func NewCheckPostHandler() func(context.Context, model.Outcome, *model.ConversationState) (model.Outcome, error) {
	return func(ctx context.Context, out model.Outcome, s *model.ConversationState) (model.Outcome, error) {
		s.SetEscalate(out.Escalate)
		if out.Escalate {
			logx.Info().
				Str("session_id", s.SessionID).
				Str("reason", out.Reason).
				Str("generated_reply", out.Reply).
				Msg("Reply triggered escalation")
		}
		return out, nil
	}
}

// NewEscalationCondition routes the outcome to escalation or straight to
// the final reply.
func NewEscalationCondition() func(context.Context, model.Outcome) (string, error) {
	return func(ctx context.Context, o model.Outcome) (string, error) {
		if o.Escalate {
			return NodeEscalate, nil
		}
		return NodeFinalize, nil
	}
}

// NewEscalateNode creates a ticket and replaces the reply with the hand-off
// message. Ticket creation is tried twice with the same ticket; if both
// attempts fail the customer gets DegradedHandoffMessage and no ticket id
// is shown. A cancelled context never creates a ticket.
func NewEscalateNode(sink model.TicketSink) *compose.Lambda {
	return compose.InvokableLambda(func(ctx context.Context, o model.Outcome) (string, error) {
		if err := ctx.Err(); err != nil {
			return "", fmt.Errorf("escalation aborted: %w", err)
		}

		var sessionID, userMessage string
		err := compose.ProcessState(ctx, func(_ context.Context, s *model.ConversationState) error {
			sessionID = s.SessionID
			if t, ok := s.LatestUserTurn(); ok {
				userMessage = t.Content
			}
			return nil
		})
		if err != nil {
			return "", fmt.Errorf("failed to access state: %w", err)
		}

		ticket := model.NewTicket(sessionID, userMessage)

		var id string
		for attempt := 1; attempt <= 2; attempt++ {
			if err = ctx.Err(); err != nil {
				return "", fmt.Errorf("escalation aborted: %w", err)
			}
			id, err = sink.Create(ctx, ticket)
			if err == nil {
				break
			}
			logx.Warn().
				Err(errx.TicketCreation(err)).
				Str("session_id", sessionID).
				Str("ticket_id", ticket.ID).
				Int("attempt", attempt).
				Msg("Ticket creation failed")
		}
		if err != nil {
			logx.Error().Err(errx.TicketCreation(err)).Str("session_id", sessionID).Msg("Escalating without a ticket")
			return DegradedHandoffMessage, nil
		}
		if id == "" {
			id = ticket.ID
		}

		// ticket is already persisted; only the id in state is lost
		err = compose.ProcessState(ctx, func(_ context.Context, s *model.ConversationState) error {
			s.TicketID = id
			return nil
		})
		if err != nil {
			logx.Error().Err(err).Str("session_id", sessionID).Str("ticket_id", id).Msg("Failed to record ticket in state")
		}
		logx.Info().Str("session_id", sessionID).Str("ticket_id", id).Msg("Escalation ticket created")
		return HandoffMessage(id), nil
	})
}

// NewFinalizeNode passes the generated reply through unchanged.
func NewFinalizeNode() *compose.Lambda {
	return compose.InvokableLambda(func(ctx context.Context, o model.Outcome) (string, error) {
		return o.Reply, nil
	})
}

// NewReplyPostHandler appends the user-visible reply to the turn state.
func NewReplyPostHandler() func(context.Context, string, *model.ConversationState) (string, error) {
	return func(ctx context.Context, out string, s *model.ConversationState) (string, error) {
		s.Reply = out
		s.Append(model.RoleAssistant, out)
		logx.Debug().
			Str("session_id", s.SessionID).
			Int("turns", len(s.Messages)).
			Float64("total_cost_usd", s.TotalCostUSD).
			Msg("Turn complete")
		return out, nil
	}
}
