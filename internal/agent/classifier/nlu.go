package classifier

import (
	"context"
	"fmt"
	"slices"

	einomodel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"

	"github.com/chative/supportdesk/internal/agent/graph/parsers"
	"github.com/chative/supportdesk/internal/agent/graph/prompts"
	"github.com/chative/supportdesk/internal/agent/model"
	errx "github.com/chative/supportdesk/internal/core/error"
	logx "github.com/chative/supportdesk/pkg/logger"
)

// ModelClassifier asks an NLU chat model for intent tuples and keeps the
// primary intent. Labels outside the configured set become unknown.
type ModelClassifier struct {
	chat      einomodel.BaseChatModel
	modelName string
	labels    []string
}

func NewModelClassifier(chat einomodel.BaseChatModel, modelName string, set IntentSet) *ModelClassifier {
	return &ModelClassifier{chat: chat, modelName: modelName, labels: set.Labels()}
}

func (c *ModelClassifier) Ready() bool { return c.chat != nil && len(c.labels) > 0 }

func (c *ModelClassifier) Classify(ctx context.Context, text string) (model.Classification, error) {
	system, err := prompts.RenderClassifierSystem(ctx, c.labels)
	if err != nil {
		return model.Classification{}, errx.Classification(err)
	}

	out, err := c.chat.Generate(ctx, []*schema.Message{
		schema.SystemMessage(system),
		schema.UserMessage(prompts.ClassifierUserMessage(text)),
	})
	if err != nil {
		return model.Classification{}, errx.Classification(err)
	}
	if out == nil {
		return model.Classification{}, errx.Classification(fmt.Errorf("nil model output"))
	}
	if out.ResponseMeta != nil && out.ResponseMeta.Usage != nil {
		_, _, total := model.ComputeCost(out.ResponseMeta.Usage, model.ResolvePricing(c.modelName))
		model.CostTrackerFrom(ctx).Add(total, out.ResponseMeta.Usage.TotalTokens)
		logx.Debug().
			Str("model", c.modelName).
			Int("total_tokens", out.ResponseMeta.Usage.TotalTokens).
			Float64("total_cost_usd", total).
			Msg("Classifier usage")
	}

	resp, err := parsers.ParseNLUResponse(out.Content)
	if err != nil {
		return model.Classification{}, errx.Classification(err)
	}
	if errs, ok := resp.ParsingMetadata["parsing_errors"]; ok {
		logx.Debug().Interface("parsing_errors", errs).Msg("Classifier output had malformed records")
	}

	primary, ok := resp.Primary()
	if !ok {
		return model.Classification{}, errx.Classification(fmt.Errorf("no intent in model output"))
	}
	if !slices.Contains(c.labels, primary.Label) {
		primary.Label = model.UnknownIntent
	}
	return primary, nil
}
