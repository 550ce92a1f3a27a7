package repo

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chative/supportdesk/internal/agent/model"
	errx "github.com/chative/supportdesk/internal/core/error"
)

var testSession = model.SessionConfig{TTL: time.Hour, HistoryLimit: 15, MaxTurns: 5}

func newRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
	t.Cleanup(func() { _ = rdb.Close() })
	return mr, rdb
}

func TestRedisSessionStore(t *testing.T) {
	t.Parallel()

	mr, rdb := newRedis(t)
	store := NewRedisSessionStore(rdb, testSession)
	ctx := context.Background()

	for i := range 7 {
		require.NoError(t, store.Append(ctx, "s1", model.NewTurn(model.RoleUser, fmt.Sprintf("m%d", i))))
	}

	n, err := store.Count(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, 5, n, "list is trimmed to MaxTurns")

	turns, err := store.Recent(ctx, "s1", 3)
	require.NoError(t, err)
	require.Len(t, turns, 3)
	assert.Equal(t, "m4", turns[0].Content)
	assert.Equal(t, "m6", turns[2].Content)
	assert.Equal(t, model.RoleUser, turns[2].Role)

	all, err := store.Recent(ctx, "s1", 0)
	require.NoError(t, err)
	assert.Len(t, all, 5)

	assert.Equal(t, time.Hour, mr.TTL("session:s1:turns"))

	empty, err := store.Recent(ctx, "nobody", 10)
	require.NoError(t, err)
	assert.Empty(t, empty)

	require.NoError(t, store.Clear(ctx, "s1"))
	n, err = store.Count(ctx, "s1")
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestRedisSessionStoreExpires(t *testing.T) {
	t.Parallel()

	mr, rdb := newRedis(t)
	store := NewRedisSessionStore(rdb, testSession)
	ctx := context.Background()

	require.NoError(t, store.Append(ctx, "s1", model.NewTurn(model.RoleUser, "hi")))
	mr.FastForward(2 * time.Hour)

	turns, err := store.Recent(ctx, "s1", 10)
	require.NoError(t, err)
	assert.Empty(t, turns)
}

func TestRedisSessionStoreRejectsCorruptTurn(t *testing.T) {
	t.Parallel()

	mr, rdb := newRedis(t)
	_, err := mr.Push("session:bad:turns", "{not json")
	require.NoError(t, err)

	_, err = NewRedisSessionStore(rdb, testSession).Recent(context.Background(), "bad", 10)
	require.Error(t, err)
}

func TestMemorySessionStore(t *testing.T) {
	t.Parallel()

	store := NewMemorySessionStore(testSession)
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return now }
	ctx := context.Background()

	for i := range 7 {
		require.NoError(t, store.Append(ctx, "s1", model.NewTurn(model.RoleAssistant, fmt.Sprintf("m%d", i))))
	}
	turns, err := store.Recent(ctx, "s1", 2)
	require.NoError(t, err)
	require.Len(t, turns, 2)
	assert.Equal(t, "m5", turns[0].Content)

	n, err := store.Count(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, 5, n)

	// returned slices are copies
	turns[0].Content = "changed"
	again, _ := store.Recent(ctx, "s1", 2)
	assert.Equal(t, "m5", again[0].Content)

	now = now.Add(2 * time.Hour)
	turns, err = store.Recent(ctx, "s1", 10)
	require.NoError(t, err)
	assert.Empty(t, turns, "expired session reads as empty")

	require.NoError(t, store.Append(ctx, "s1", model.NewTurn(model.RoleUser, "fresh")))
	turns, _ = store.Recent(ctx, "s1", 10)
	require.Len(t, turns, 1)
	assert.Equal(t, "fresh", turns[0].Content)
}

func TestFallbackSessionStoreDegrades(t *testing.T) {
	t.Parallel()

	mr := miniredis.NewMiniRedis()
	require.NoError(t, mr.Start())
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1, DialTimeout: 200 * time.Millisecond})
	defer rdb.Close()

	store := NewFallbackSessionStore(NewRedisSessionStore(rdb, testSession), testSession)
	ctx := context.Background()

	require.NoError(t, store.Append(ctx, "s1", model.NewTurn(model.RoleUser, "in redis")))
	turns, err := store.Recent(ctx, "s1", 10)
	require.NoError(t, err)
	require.Len(t, turns, 1)
	assert.Equal(t, "in redis", turns[0].Content)

	mr.Close()

	require.NoError(t, store.Append(ctx, "s1", model.NewTurn(model.RoleUser, "in memory")))
	turns, err = store.Recent(ctx, "s1", 10)
	require.NoError(t, err)
	require.Len(t, turns, 1)
	assert.Equal(t, "in memory", turns[0].Content)
}

func TestFallbackSessionStoreWithoutPrimary(t *testing.T) {
	t.Parallel()

	store := NewFallbackSessionStore(nil, testSession)
	ctx := context.Background()
	require.NoError(t, store.Append(ctx, "s1", model.NewTurn(model.RoleUser, "hi")))
	turns, err := store.Recent(ctx, "s1", 10)
	require.NoError(t, err)
	assert.Len(t, turns, 1)
}

func TestFallbackSessionStoreReturnsDataErrors(t *testing.T) {
	t.Parallel()

	mr, rdb := newRedis(t)

	_, err := mr.Push("session:bad:turns", "{not json")
	require.NoError(t, err)

	store := NewFallbackSessionStore(NewRedisSessionStore(rdb, testSession), testSession)
	_, err = store.Recent(context.Background(), "bad", 10)
	require.Error(t, err)
	assert.NotErrorIs(t, err, errx.ErrSessionStore)
}
