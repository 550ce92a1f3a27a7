package main

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/fatih/color"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chative/supportdesk/internal/agent/model"
	"github.com/chative/supportdesk/internal/agent/policy"
	"github.com/chative/supportdesk/internal/agent/repo"
)

func init() {
	color.NoColor = true
}

func TestPrintPolicyLists(t *testing.T) {
	var out bytes.Buffer
	printPolicy(&out, policy.Default(), "")

	s := out.String()
	assert.Contains(t, s, "low confidence phrases:")
	assert.Contains(t, s, "  I am not able")
	assert.Contains(t, s, "risk patterns:")
	assert.Contains(t, s, "  unauthori[sz]ed")
}

func TestPrintPolicyCheck(t *testing.T) {
	var out bytes.Buffer
	printPolicy(&out, policy.Default(), "This looks like fraud")
	assert.Equal(t, "escalate: risk_pattern (\"fraud\")\n", out.String())

	out.Reset()
	printPolicy(&out, policy.Default(), "Your card is blocked.")
	assert.Equal(t, "pass\n", out.String())

	p, err := policy.New(policy.Config{LowConfidencePhrases: []string{}, RiskPatterns: []string{}})
	require.NoError(t, err)
	out.Reset()
	printPolicy(&out, p, "")
	assert.Equal(t, "low confidence phrases:\n  (none)\nrisk patterns:\n  (none)\n", out.String())
}

func TestSessionHistoryAndClear(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	store := repo.NewRedisSessionStore(rdb, model.SessionConfig{TTL: time.Hour, MaxTurns: 100})
	ctx := context.Background()
	require.NoError(t, store.Append(ctx, "s1", model.NewTurn(model.RoleUser, "lost my card")))
	require.NoError(t, store.Append(ctx, "s1", model.NewTurn(model.RoleAssistant, "I blocked it.")))
	require.NoError(t, store.Append(ctx, "s1", model.NewTurn(model.RoleUser, "thanks")))

	var out bytes.Buffer
	require.NoError(t, printHistory(ctx, &out, store, "s1", 2))
	s := out.String()
	assert.Contains(t, s, "session: s1 (2 of 3 turns)")
	assert.NotContains(t, s, "lost my card")
	assert.Contains(t, s, "I blocked it.")
	assert.Contains(t, s, "thanks")

	out.Reset()
	require.NoError(t, clearSession(ctx, &out, store, "s1"))
	assert.Equal(t, "cleared 3 turns from s1\n", out.String())

	n, err := store.Count(ctx, "s1")
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.False(t, mr.Exists("session:s1:turns"))
}
