package nodes_test

import (
	"context"
	"sync/atomic"
	"testing"

	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chative/supportdesk/internal/agent/graph/conversations"
	"github.com/chative/supportdesk/internal/agent/graph/nodes"
	"github.com/chative/supportdesk/internal/agent/model"
)

type countingGenerator struct{ calls atomic.Int32 }

func (g *countingGenerator) Generate(context.Context, []*schema.Message) (string, error) {
	g.calls.Add(1)
	return "ok", nil
}

type countingSink struct{ calls atomic.Int32 }

func (s *countingSink) Create(_ context.Context, t *model.Ticket) (string, error) {
	s.calls.Add(1)
	return t.ID, nil
}

// Nodes compiled outside the orchestrator graph have no local state.

func TestGenerateNodeReportsMissingState(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	gen := &countingGenerator{}
	r, err := compose.NewChain[[]model.Snippet, string]().
		AppendLambda(nodes.NewGenerateNode(gen, conversations.NewMessagesManager(nil, 0), model.PromptConfig{})).
		Compile(ctx)
	require.NoError(t, err)

	_, err = r.Invoke(ctx, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to access state")
	assert.Zero(t, gen.calls.Load())
}

func TestEscalateNodeReportsMissingState(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	sink := &countingSink{}
	r, err := compose.NewChain[model.Outcome, string]().
		AppendLambda(nodes.NewEscalateNode(sink)).
		Compile(ctx)
	require.NoError(t, err)

	_, err = r.Invoke(ctx, model.Outcome{Reply: "fraud", Escalate: true})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to access state")
	assert.Zero(t, sink.calls.Load())
}
