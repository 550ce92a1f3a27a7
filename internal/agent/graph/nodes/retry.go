package nodes

import (
	"context"
	"errors"
	"math"
	"math/rand/v2"
	"net/http"
	"strings"
	"time"

	"github.com/cloudwego/eino/schema"
	"google.golang.org/genai"

	"github.com/chative/supportdesk/internal/agent/model"
	errx "github.com/chative/supportdesk/internal/core/error"
	logx "github.com/chative/supportdesk/pkg/logger"
)

// RetryPolicy controls how failed generator calls are retried with
// exponential backoff and full jitter.
type RetryPolicy struct {
	MaxAttempts  int
	InitialDelay time.Duration
	Multiplier   float64
	MaxDelay     time.Duration

	// Sleep waits between attempts. Nil uses a timer that honours ctx.
	Sleep func(ctx context.Context, d time.Duration) error
}

// DefaultRetryPolicy returns 3 attempts, 1s initial delay, 2x multiplier
// and a 10s cap.
func DefaultRetryPolicy() *RetryPolicy {
	return &RetryPolicy{
		MaxAttempts:  3,
		InitialDelay: 1 * time.Second,
		Multiplier:   2.0,
		MaxDelay:     10 * time.Second,
	}
}

// RetryPolicyFrom builds a policy from generator settings.
func RetryPolicyFrom(cfg model.GeneratorConfig) *RetryPolicy {
	p := DefaultRetryPolicy()
	if cfg.MaxAttempts > 0 {
		p.MaxAttempts = cfg.MaxAttempts
	}
	if cfg.InitialBackoff > 0 {
		p.InitialDelay = cfg.InitialBackoff
	}
	if cfg.MaxBackoff > 0 {
		p.MaxDelay = cfg.MaxBackoff
	}
	return p
}

// IsRetryable classifies err. Content rejections, caller cancellation and
// 4xx API errors other than 408 and 429 are permanent. Unknown errors
// default to retryable.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, errx.ErrContent) || errors.Is(err, context.Canceled) {
		return false
	}

	if code, ok := apiStatus(err); ok {
		switch {
		case code == http.StatusRequestTimeout, code == http.StatusTooManyRequests:
			return true
		case code >= 400 && code < 500:
			return false
		default:
			return true
		}
	}

	msg := strings.ToLower(err.Error())
	if strings.Contains(msg, "connection refused") ||
		strings.Contains(msg, "connection reset") ||
		strings.Contains(msg, "timeout") ||
		strings.Contains(msg, "temporary failure") {
		return true
	}
	if strings.Contains(msg, "invalid argument") ||
		strings.Contains(msg, "unauthorized") ||
		strings.Contains(msg, "forbidden") {
		return false
	}
	return true
}

func apiStatus(err error) (int, bool) {
	var v genai.APIError
	if errors.As(err, &v) {
		return v.Code, true
	}
	var p *genai.APIError
	if errors.As(err, &p) && p != nil {
		return p.Code, true
	}
	return 0, false
}

// NextDelay returns the capped backoff for attempt (1-indexed) before jitter.
func (p *RetryPolicy) NextDelay(attempt int) time.Duration {
	mult := p.Multiplier
	if mult < 1 {
		mult = 1
	}
	delay := float64(p.InitialDelay) * math.Pow(mult, float64(attempt-1))
	if delay > float64(p.MaxDelay) {
		return p.MaxDelay
	}
	return time.Duration(delay)
}

func (p *RetryPolicy) jittered(attempt int) time.Duration {
	d := p.NextDelay(attempt)
	if d <= 0 {
		return 0
	}
	return time.Duration(rand.Int64N(int64(d)) + 1)
}

// Execute runs fn up to MaxAttempts times. It stops early on success, on a
// permanent error or when ctx is done, and returns the last error.
func (p *RetryPolicy) Execute(ctx context.Context, fn func(ctx context.Context) error) error {
	attempts := p.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}
	sleep := p.Sleep
	if sleep == nil {
		sleep = sleepCtx
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		err := fn(ctx)
		if err == nil {
			return nil
		}
		lastErr = err
		if ctx.Err() != nil || !IsRetryable(err) || attempt == attempts {
			return lastErr
		}
		d := p.jittered(attempt)
		logx.Warn().Err(err).Int("attempt", attempt).Dur("backoff", d).Msg("Generator call failed, retrying")
		if serr := sleep(ctx, d); serr != nil {
			return lastErr
		}
	}
	return lastErr
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// RetryingGenerator wraps a Generator with a RetryPolicy.
type RetryingGenerator struct {
	next   model.Generator
	policy *RetryPolicy
}

func NewRetryingGenerator(next model.Generator, policy *RetryPolicy) *RetryingGenerator {
	if policy == nil {
		policy = DefaultRetryPolicy()
	}
	return &RetryingGenerator{next: next, policy: policy}
}

func (g *RetryingGenerator) Generate(ctx context.Context, messages []*schema.Message) (string, error) {
	var out string
	err := g.policy.Execute(ctx, func(ctx context.Context) error {
		reply, err := g.next.Generate(ctx, messages)
		if err != nil {
			return err
		}
		out = reply
		return nil
	})
	if err != nil {
		return "", err
	}
	return out, nil
}

// Ready forwards the wrapped generator's readiness.
func (g *RetryingGenerator) Ready() bool {
	if r, ok := g.next.(model.Readiness); ok {
		return r.Ready()
	}
	return true
}
