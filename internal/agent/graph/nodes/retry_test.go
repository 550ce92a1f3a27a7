package nodes_test

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/cloudwego/eino/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"

	"github.com/chative/supportdesk/internal/agent/graph/nodes"
	"github.com/chative/supportdesk/internal/agent/model"
	errx "github.com/chative/supportdesk/internal/core/error"
)

func TestIsRetryable(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"content", errx.Content("blocked"), false},
		{"wrapped content", fmt.Errorf("gen: %w", errx.Content("empty")), false},
		{"canceled", context.Canceled, false},
		{"deadline", context.DeadlineExceeded, true},
		{"rate limited", genai.APIError{Code: http.StatusTooManyRequests}, true},
		{"request timeout", genai.APIError{Code: http.StatusRequestTimeout}, true},
		{"bad request", genai.APIError{Code: http.StatusBadRequest}, false},
		{"wrapped forbidden", fmt.Errorf("call: %w", genai.APIError{Code: http.StatusForbidden}), false},
		{"server", genai.APIError{Code: http.StatusServiceUnavailable}, true},
		{"connection reset", errors.New("read: connection reset by peer"), true},
		{"unauthorized text", errors.New("401 Unauthorized"), false},
		{"unknown", errors.New("boom"), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, nodes.IsRetryable(tt.err))
		})
	}
}

func TestNextDelayCaps(t *testing.T) {
	t.Parallel()

	p := &nodes.RetryPolicy{MaxAttempts: 5, InitialDelay: time.Second, Multiplier: 2, MaxDelay: 5 * time.Second}
	assert.Equal(t, time.Second, p.NextDelay(1))
	assert.Equal(t, 2*time.Second, p.NextDelay(2))
	assert.Equal(t, 4*time.Second, p.NextDelay(3))
	assert.Equal(t, 5*time.Second, p.NextDelay(4))
}

func TestExecuteBackoffIsJitteredAndBounded(t *testing.T) {
	t.Parallel()

	var slept []time.Duration
	p := &nodes.RetryPolicy{
		MaxAttempts:  4,
		InitialDelay: 100 * time.Millisecond,
		Multiplier:   2,
		MaxDelay:     250 * time.Millisecond,
		Sleep: func(_ context.Context, d time.Duration) error {
			slept = append(slept, d)
			return nil
		},
	}
	calls := 0
	err := p.Execute(context.Background(), func(context.Context) error {
		calls++
		return errors.New("temporary failure")
	})
	require.Error(t, err)
	assert.Equal(t, 4, calls)
	require.Len(t, slept, 3)
	for i, d := range slept {
		assert.Positive(t, d)
		assert.LessOrEqual(t, d, p.NextDelay(i+1))
	}
}

func TestExecuteStopsOnCancel(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	p := &nodes.RetryPolicy{MaxAttempts: 5, InitialDelay: time.Hour, Multiplier: 2, MaxDelay: time.Hour}
	err := p.Execute(ctx, func(context.Context) error {
		calls++
		cancel()
		return errors.New("boom")
	})
	require.Error(t, err)
	assert.Equal(t, 1, calls)
}

func TestExecuteSleepHonoursContext(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	p := &nodes.RetryPolicy{MaxAttempts: 3, InitialDelay: time.Hour, Multiplier: 1, MaxDelay: time.Hour}

	start := time.Now()
	err := p.Execute(ctx, func(context.Context) error { return errors.New("boom") })
	require.Error(t, err)
	assert.Less(t, time.Since(start), 10*time.Second)
}

type countingGen struct {
	calls int
	errs  []error
}

func (g *countingGen) Generate(context.Context, []*schema.Message) (string, error) {
	g.calls++
	if len(g.errs) > 0 {
		err := g.errs[0]
		g.errs = g.errs[1:]
		return "", err
	}
	return "ok", nil
}

func TestRetryPolicyFrom(t *testing.T) {
	t.Parallel()

	p := nodes.RetryPolicyFrom(model.GeneratorConfig{MaxAttempts: 5, InitialBackoff: 2 * time.Second, MaxBackoff: 20 * time.Second})
	assert.Equal(t, 5, p.MaxAttempts)
	assert.Equal(t, 2*time.Second, p.InitialDelay)
	assert.Equal(t, 20*time.Second, p.MaxDelay)

	d := nodes.RetryPolicyFrom(model.GeneratorConfig{})
	assert.Equal(t, nodes.DefaultRetryPolicy().MaxAttempts, d.MaxAttempts)
}

func TestRetryingGenerator(t *testing.T) {
	t.Parallel()

	g := &countingGen{errs: []error{errors.New("timeout"), errors.New("timeout")}}
	p := &nodes.RetryPolicy{MaxAttempts: 3, InitialDelay: time.Millisecond, Multiplier: 2, MaxDelay: time.Millisecond,
		Sleep: func(context.Context, time.Duration) error { return nil }}

	out, err := nodes.NewRetryingGenerator(g, p).Generate(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, "ok", out)
	assert.Equal(t, 3, g.calls)

	g = &countingGen{errs: []error{errx.Content("empty")}}
	_, err = nodes.NewRetryingGenerator(g, p).Generate(context.Background(), nil)
	require.ErrorIs(t, err, errx.ErrContent)
	assert.Equal(t, 1, g.calls)
}
