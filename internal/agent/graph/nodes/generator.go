package nodes

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/cloudwego/eino/callbacks"
	"github.com/cloudwego/eino/components"
	einomodel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"

	"github.com/chative/supportdesk/internal/agent/model"
	errx "github.com/chative/supportdesk/internal/core/error"
	logx "github.com/chative/supportdesk/pkg/logger"
)

// ChatModelGenerator adapts an Eino chat model to the Generator port.
// Each call gets its own timeout; usage cost is logged and added to the
// turn's CostTracker.
type ChatModelGenerator struct {
	chat      einomodel.BaseChatModel
	modelName string
	timeout   time.Duration
}

func NewChatModelGenerator(chat einomodel.BaseChatModel, modelName string, timeout time.Duration) *ChatModelGenerator {
	return &ChatModelGenerator{chat: chat, modelName: modelName, timeout: timeout}
}

func (g *ChatModelGenerator) Ready() bool { return g.chat != nil }

func (g *ChatModelGenerator) Generate(ctx context.Context, messages []*schema.Message) (string, error) {
	if g.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}

	// Called from inside a lambda node; re-tag the run info so model
	// callbacks see a chat model component.
	ctx = callbacks.ReuseHandlers(ctx, &callbacks.RunInfo{
		Name:      g.modelName,
		Type:      "Gemini",
		Component: components.ComponentOfChatModel,
	})

	out, err := g.chat.Generate(ctx, messages)
	if err != nil {
		return "", fmt.Errorf("chat model generate: %w", err)
	}
	if out == nil {
		return "", errx.Content("nil message")
	}

	if out.ResponseMeta != nil && out.ResponseMeta.Usage != nil {
		usage := out.ResponseMeta.Usage
		inC, outC, totalC := model.ComputeCost(usage, model.ResolvePricing(g.modelName))
		model.CostTrackerFrom(ctx).Add(totalC, usage.TotalTokens)
		logx.Debug().
			Str("node", NodeGenerate).
			Str("model", g.modelName).
			Int("prompt_tokens", usage.PromptTokens).
			Int("completion_tokens", usage.CompletionTokens).
			Int("total_tokens", usage.TotalTokens).
			Float64("input_cost_usd", inC).
			Float64("output_cost_usd", outC).
			Float64("total_cost_usd", totalC).
			Msg("LLM usage")
	}

	reply := strings.TrimSpace(out.Content)
	if reply == "" {
		reason := "empty reply"
		if out.ResponseMeta != nil && out.ResponseMeta.FinishReason != "" {
			reason += " (finish_reason=" + out.ResponseMeta.FinishReason + ")"
		}
		return "", errx.Content(reason)
	}
	return reply, nil
}
