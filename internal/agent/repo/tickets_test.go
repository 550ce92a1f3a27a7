package repo

import (
	"context"
	"path/filepath"
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chative/supportdesk/internal/agent/model"
)

var ticketIDRe = regexp.MustCompile(`^TCK-[0-9A-F]{8}$`)

func ticketStores(t *testing.T) map[string]TicketStore {
	t.Helper()
	sq, err := NewSQLiteTicketStore(filepath.Join(t.TempDir(), "data", "tickets.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = sq.Close() })
	return map[string]TicketStore{
		"sqlite": sq,
		"memory": NewMemoryTicketStore(),
	}
}

func TestTicketStores(t *testing.T) {
	t.Parallel()

	for name, store := range ticketStores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			first := model.NewTicket("s1", "someone used my card")
			id, err := store.Create(ctx, first)
			require.NoError(t, err)
			assert.Equal(t, first.ID, id)
			assert.Regexp(t, ticketIDRe, id)

			// a retried create with the same ticket is a no-op
			id2, err := store.Create(ctx, first)
			require.NoError(t, err)
			assert.Equal(t, id, id2)

			time.Sleep(time.Millisecond)
			second := model.NewTicket("s2", "scam sms")
			_, err = store.Create(ctx, second)
			require.NoError(t, err)

			got, err := store.Get(ctx, id)
			require.NoError(t, err)
			assert.Equal(t, "s1", got.SessionID)
			assert.Equal(t, "someone used my card", got.UserMessage)
			assert.Equal(t, model.TicketOpen, got.Status)
			assert.WithinDuration(t, first.CreatedAt, got.CreatedAt, time.Microsecond)

			all, err := store.List(ctx, ListOptions{})
			require.NoError(t, err)
			require.Len(t, all, 2)
			assert.Equal(t, second.ID, all[0].ID, "newest first")

			require.NoError(t, store.UpdateStatus(ctx, id, model.TicketResolved))
			open, err := store.List(ctx, ListOptions{Status: model.TicketOpen})
			require.NoError(t, err)
			require.Len(t, open, 1)
			assert.Equal(t, second.ID, open[0].ID)

			bySession, err := store.List(ctx, ListOptions{SessionID: "s1"})
			require.NoError(t, err)
			require.Len(t, bySession, 1)
			assert.Equal(t, model.TicketResolved, bySession[0].Status)

			limited, err := store.List(ctx, ListOptions{Limit: 1})
			require.NoError(t, err)
			assert.Len(t, limited, 1)

			_, err = store.Get(ctx, "TCK-00000000")
			require.ErrorIs(t, err, ErrTicketNotFound)
			require.ErrorIs(t, store.UpdateStatus(ctx, "TCK-00000000", model.TicketClosed), ErrTicketNotFound)
			require.Error(t, store.UpdateStatus(ctx, id, "bogus"))

			_, err = store.Create(ctx, &model.Ticket{})
			require.Error(t, err)
		})
	}
}

func TestSQLiteTicketStoreReopens(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "tickets.db")
	store, err := NewSQLiteTicketStore(path)
	require.NoError(t, err)
	tk := model.NewTicket("s1", "help")
	_, err = store.Create(context.Background(), tk)
	require.NoError(t, err)
	require.NoError(t, store.Close())

	store, err = NewSQLiteTicketStore(path)
	require.NoError(t, err)
	defer store.Close()
	got, err := store.Get(context.Background(), tk.ID)
	require.NoError(t, err)
	assert.Equal(t, "help", got.UserMessage)
}
