package prompts

import (
	"context"
	_ "embed"
	"fmt"
	"strings"

	"github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/schema"

	"github.com/chative/supportdesk/internal/agent/graph/parsers"
)

//go:embed template/classifier_prompt.txt
var classifierSystemPrompt string

// RenderClassifierSystem renders the NLU classifier prompt for the given
// intent labels.
func RenderClassifierSystem(ctx context.Context, intents []string) (string, error) {
	if len(intents) == 0 {
		return "", fmt.Errorf("classifier prompt: no intents")
	}

	var list strings.Builder
	for _, in := range intents {
		list.WriteString("- " + in + "\n")
	}

	// Replace known tokens only so the JSON braces in the template survive.
	content := strings.NewReplacer(
		"{TD}", parsers.TupleDelimiter,
		"{RD}", parsers.RecordDelimiter,
		"{CD}", parsers.CompleteDelimiter,
		"{intents}", strings.TrimRight(list.String(), "\n"),
	).Replace(classifierSystemPrompt)

	tpl := prompt.FromMessages(
		schema.FString,
		schema.MessagesPlaceholder("system_messages", false),
	)
	msgs, err := tpl.Format(ctx, map[string]any{
		"system_messages": []*schema.Message{schema.SystemMessage(content)},
	})
	if err != nil {
		return "", fmt.Errorf("classifier prompt callbacks: %w", err)
	}
	if len(msgs) == 0 || msgs[0] == nil {
		return "", fmt.Errorf("classifier prompt callbacks: empty result")
	}
	return msgs[0].Content, nil
}

// ClassifierUserMessage wraps text for the classifier model.
func ClassifierUserMessage(text string) string {
	return "<message_to_classify>\n" + text + "\n</message_to_classify>"
}
