package model_test

import (
	"context"
	"math"
	"regexp"
	"sync"
	"testing"

	"github.com/cloudwego/eino/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chative/supportdesk/internal/agent/model"
)

var ticketIDPattern = regexp.MustCompile(`^TCK-[0-9A-F]{8}$`)

func TestNewTicketID(t *testing.T) {
	t.Parallel()

	seen := map[string]bool{}
	for range 200 {
		id := model.NewTicketID()
		require.Regexp(t, ticketIDPattern, id)
		seen[id] = true
	}
	assert.Greater(t, len(seen), 190)
}

func TestNewTicket(t *testing.T) {
	t.Parallel()

	tk := model.NewTicket("s1", "my card was stolen")
	assert.Regexp(t, ticketIDPattern, tk.ID)
	assert.Equal(t, "s1", tk.SessionID)
	assert.Equal(t, "my card was stolen", tk.UserMessage)
	assert.Equal(t, model.TicketOpen, tk.Status)
	assert.Equal(t, tk.CreatedAt, tk.UpdatedAt)
	assert.False(t, tk.CreatedAt.IsZero())
}

func TestTicketStatusValid(t *testing.T) {
	t.Parallel()

	for _, s := range []model.TicketStatus{model.TicketOpen, model.TicketInProgress, model.TicketResolved, model.TicketClosed} {
		assert.True(t, s.Valid(), s)
	}
	assert.False(t, model.TicketStatus("pending").Valid())
	assert.False(t, model.TicketStatus("").Valid())
}

func TestRoleValid(t *testing.T) {
	t.Parallel()

	assert.True(t, model.RoleUser.Valid())
	assert.True(t, model.RoleAssistant.Valid())
	assert.True(t, model.RoleSystemDebug.Valid())
	assert.False(t, model.Role("system").Valid())
}

func TestClassificationNormalized(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   model.Classification
		want model.Classification
	}{
		{"empty label", model.Classification{Confidence: 0.4}, model.Classification{Label: model.UnknownIntent, Confidence: 0.4}},
		{"negative", model.Classification{Label: "x", Confidence: -1}, model.Classification{Label: "x"}},
		{"above one", model.Classification{Label: "x", Confidence: 3}, model.Classification{Label: "x", Confidence: 1}},
		{"nan", model.Classification{Label: "x", Confidence: math.NaN()}, model.Classification{Label: "x"}},
		{"in range", model.Classification{Label: "x", Confidence: 0.7}, model.Classification{Label: "x", Confidence: 0.7}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, tt.in.Normalized())
		})
	}
	assert.Equal(t, model.Classification{Label: "unknown"}, model.Unknown())
}

func TestConversationState(t *testing.T) {
	t.Parallel()

	var s model.ConversationState
	_, ok := s.LatestUserTurn()
	assert.False(t, ok)

	s.Append(model.RoleUser, "first")
	s.Append(model.RoleUser, "second")
	s.Append(model.RoleSystemDebug, "[debug] intent=x prob=0.10")

	u, ok := s.LatestUserTurn()
	require.True(t, ok)
	assert.Equal(t, "second", u.Content)
	assert.Equal(t, model.RoleSystemDebug, s.Messages[len(s.Messages)-1].Role)

	assert.Nil(t, s.Escalate)
	s.SetEscalate(true)
	require.NotNil(t, s.Escalate)
	assert.True(t, *s.Escalate)
}

func TestCostTracker(t *testing.T) {
	t.Parallel()

	assert.Nil(t, model.CostTrackerFrom(context.Background()))

	var nilTracker *model.CostTracker
	nilTracker.Add(1, 1)
	assert.Zero(t, nilTracker.TotalUSD())
	assert.Zero(t, nilTracker.Tokens())

	ctx, tr := model.WithCostTracker(context.Background())
	assert.Same(t, tr, model.CostTrackerFrom(ctx))

	var wg sync.WaitGroup
	for range 50 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			model.CostTrackerFrom(ctx).Add(0.01, 10)
		}()
	}
	wg.Wait()
	assert.InDelta(t, 0.5, tr.TotalUSD(), 1e-9)
	assert.Equal(t, 500, tr.Tokens())
}

func TestComputeCost(t *testing.T) {
	t.Parallel()

	in, out, total := model.ComputeCost(nil, model.ResolvePricing("gemini-2.5-flash"))
	assert.Zero(t, in+out+total)

	usage := &schema.TokenUsage{PromptTokens: 1_000_000, CompletionTokens: 100_000}
	in, out, total = model.ComputeCost(usage, model.ResolvePricing("gemini-2.5-flash"))
	assert.InDelta(t, 0.30, in, 1e-9)
	assert.InDelta(t, 0.25, out, 1e-9)
	assert.InDelta(t, 0.55, total, 1e-9)

	_, _, total = model.ComputeCost(usage, model.ResolvePricing("no-such-model"))
	assert.Zero(t, total)
}

func TestNLUResponsePrimary(t *testing.T) {
	t.Parallel()

	r := &model.NLUResponse{
		Intents: []model.Intent{
			{Name: "greeting", Confidence: 0.2},
			{Name: "card_block", Confidence: 1.4},
		},
		PrimaryIntent: "card_block",
	}
	c, ok := r.Primary()
	require.True(t, ok)
	assert.Equal(t, model.Classification{Label: "card_block", Confidence: 1}, c)

	r.PrimaryIntent = "missing"
	_, ok = r.Primary()
	assert.False(t, ok)
}
