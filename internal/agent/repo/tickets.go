package repo

import (
	"context"
	"errors"
	"slices"
	"sync"
	"time"

	"github.com/chative/supportdesk/internal/agent/model"
)

// ErrTicketNotFound is returned when a ticket id is unknown.
var ErrTicketNotFound = errors.New("ticket not found")

// ListOptions filters ticket listings. Zero values mean no filter; Limit
// defaults to 50.
type ListOptions struct {
	Status    model.TicketStatus
	SessionID string
	Limit     int
}

func (o ListOptions) limit() int {
	if o.Limit <= 0 {
		return 50
	}
	return o.Limit
}

// TicketStore is a TicketSink that can also be queried by operators.
// Create is idempotent on ticket id, so a retried create never duplicates
// a row.
type TicketStore interface {
	model.TicketSink
	Get(ctx context.Context, id string) (*model.Ticket, error)
	List(ctx context.Context, opts ListOptions) ([]*model.Ticket, error)
	UpdateStatus(ctx context.Context, id string, status model.TicketStatus) error
	Close() error
}

// MemoryTicketStore keeps tickets in process.
type MemoryTicketStore struct {
	mu      sync.RWMutex
	tickets map[string]*model.Ticket
	order   []string
}

func NewMemoryTicketStore() *MemoryTicketStore {
	return &MemoryTicketStore{tickets: make(map[string]*model.Ticket)}
}

func (m *MemoryTicketStore) Create(ctx context.Context, t *model.Ticket) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if t == nil || t.ID == "" {
		return "", errors.New("ticket id is required")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.tickets[t.ID]; !ok {
		cp := *t
		m.tickets[t.ID] = &cp
		m.order = append(m.order, t.ID)
	}
	return t.ID, nil
}

func (m *MemoryTicketStore) Get(_ context.Context, id string) (*model.Ticket, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	t, ok := m.tickets[id]
	if !ok {
		return nil, ErrTicketNotFound
	}
	cp := *t
	return &cp, nil
}

// List returns matching tickets, newest first.
func (m *MemoryTicketStore) List(_ context.Context, opts ListOptions) ([]*model.Ticket, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := []*model.Ticket{}
	for _, id := range slices.Backward(m.order) {
		t := m.tickets[id]
		if opts.Status != "" && t.Status != opts.Status {
			continue
		}
		if opts.SessionID != "" && t.SessionID != opts.SessionID {
			continue
		}
		cp := *t
		out = append(out, &cp)
		if len(out) == opts.limit() {
			break
		}
	}
	return out, nil
}

func (m *MemoryTicketStore) UpdateStatus(_ context.Context, id string, status model.TicketStatus) error {
	if !status.Valid() {
		return errors.New("invalid ticket status " + string(status))
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.tickets[id]
	if !ok {
		return ErrTicketNotFound
	}
	t.Status = status
	t.UpdatedAt = time.Now().UTC()
	return nil
}

func (m *MemoryTicketStore) Close() error { return nil }

var _ TicketStore = (*MemoryTicketStore)(nil)
