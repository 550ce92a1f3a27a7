package prompts

import (
	"context"
	_ "embed"
	"fmt"

	"github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/schema"

	"github.com/chative/supportdesk/internal/agent/model"
)

//go:embed template/support_prompt.txt
var supportSystemPrompt string

// RenderSupportSystem renders the assistant system prompt via the Eino prompt
// component so prompt callbacks fire. intent may be empty or "unknown", in
// which case the hint is left out.
func RenderSupportSystem(ctx context.Context, config model.PromptConfig, intent string) (string, error) {
	if intent == model.UnknownIntent {
		intent = ""
	}

	tpl := prompt.FromMessages(
		schema.GoTemplate,
		schema.SystemMessage(supportSystemPrompt),
	)
	msgs, err := tpl.Format(ctx, map[string]any{
		"BusinessType": config.BusinessType,
		"BusinessName": config.BusinessName,
		"Intent":       intent,
	})
	if err != nil {
		return "", fmt.Errorf("support prompt render: %w", err)
	}
	if len(msgs) == 0 || msgs[0] == nil {
		return "", fmt.Errorf("support prompt render: empty result")
	}
	return msgs[0].Content, nil
}
