package prompts_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chative/supportdesk/internal/agent/graph/prompts"
	"github.com/chative/supportdesk/internal/agent/model"
)

func TestRenderSupportSystem(t *testing.T) {
	t.Parallel()

	cfg := model.PromptConfig{BusinessType: "banking", BusinessName: "Adaptive Bank"}

	out, err := prompts.RenderSupportSystem(context.Background(), cfg, "card_block")
	require.NoError(t, err)
	assert.Contains(t, out, "Adaptive Bank, a banking business")
	assert.Contains(t, out, `classified as "card_block"`)

	out, err = prompts.RenderSupportSystem(context.Background(), cfg, model.UnknownIntent)
	require.NoError(t, err)
	assert.NotContains(t, out, "classified as")
}

func TestRenderClassifierSystem(t *testing.T) {
	t.Parallel()

	out, err := prompts.RenderClassifierSystem(context.Background(), []string{"card_block", "loan_inquiry"})
	require.NoError(t, err)
	assert.Contains(t, out, "- card_block\n- loan_inquiry")
	assert.Contains(t, out, "(intent<||><intent_name><||>")
	assert.Contains(t, out, `{"reason":"lost card"}`)
	assert.Contains(t, out, "<|COMPLETE|>")
	assert.NotContains(t, out, "{TD}")

	_, err = prompts.RenderClassifierSystem(context.Background(), nil)
	require.Error(t, err)
}
