package model

import (
	"context"
	"sync"

	"github.com/cloudwego/eino/schema"
)

// Pricing defines USD cost per 1M tokens for input/output.
type Pricing struct {
	InputPerM  float64
	OutputPerM float64
}

// defaultPricing provides hardcoded USD pricing per 1M text tokens.
var defaultPricing = map[string]Pricing{
	"gemini-2.5-flash":      {InputPerM: 0.30, OutputPerM: 2.50},
	"gemini-2.5-flash-lite": {InputPerM: 0.10, OutputPerM: 0.40},
	"gemini-2.5-pro":        {InputPerM: 1.25, OutputPerM: 10.00},
}

// ResolvePricing returns the pricing for a model, zero when unknown.
func ResolvePricing(model string) Pricing {
	return defaultPricing[model]
}

// ComputeCost converts token usage to USD cost using per-1M Pricing.
func ComputeCost(usage *schema.TokenUsage, p Pricing) (inputCost, outputCost, total float64) {
	if usage == nil {
		return 0, 0, 0
	}
	inputCost = p.InputPerM * float64(usage.PromptTokens) / 1_000_000.0
	outputCost = p.OutputPerM * float64(usage.CompletionTokens) / 1_000_000.0
	total = inputCost + outputCost
	return
}

type costTrackerKey struct{}

// CostTracker accumulates LLM cost for one orchestrator turn. Ports find it
// on the context; it is safe for concurrent use and nil-safe.
type CostTracker struct {
	mu       sync.Mutex
	totalUSD float64
	tokens   int
}

// WithCostTracker attaches a fresh tracker to ctx.
func WithCostTracker(ctx context.Context) (context.Context, *CostTracker) {
	t := &CostTracker{}
	return context.WithValue(ctx, costTrackerKey{}, t), t
}

// CostTrackerFrom returns the tracker on ctx, or nil.
func CostTrackerFrom(ctx context.Context) *CostTracker {
	t, _ := ctx.Value(costTrackerKey{}).(*CostTracker)
	return t
}

func (t *CostTracker) Add(usd float64, tokens int) {
	if t == nil {
		return
	}
	t.mu.Lock()
	t.totalUSD += usd
	t.tokens += tokens
	t.mu.Unlock()
}

func (t *CostTracker) TotalUSD() float64 {
	if t == nil {
		return 0
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.totalUSD
}

func (t *CostTracker) Tokens() int {
	if t == nil {
		return 0
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.tokens
}
