package repo

import (
	"context"
	"sync"
	"time"

	"github.com/chative/supportdesk/internal/agent/model"
)

const sweepEvery = 256

type memorySession struct {
	turns   []model.Turn
	touched time.Time
}

// MemorySessionStore is an in-process SessionStore with the same trim and
// TTL rules as the Redis store. Expired sessions are dropped lazily.
type MemorySessionStore struct {
	mu       sync.Mutex
	sessions map[string]*memorySession
	ttl      time.Duration
	maxTurns int
	appends  int
	now      func() time.Time
}

func NewMemorySessionStore(cfg model.SessionConfig) *MemorySessionStore {
	return &MemorySessionStore{
		sessions: make(map[string]*memorySession),
		ttl:      cfg.TTL,
		maxTurns: cfg.MaxTurns,
		now:      time.Now,
	}
}

func (m *MemorySessionStore) expired(s *memorySession, now time.Time) bool {
	return m.ttl > 0 && now.Sub(s.touched) > m.ttl
}

func (m *MemorySessionStore) Append(ctx context.Context, sessionID string, turn model.Turn) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	s, ok := m.sessions[sessionID]
	if !ok || m.expired(s, now) {
		s = &memorySession{}
		m.sessions[sessionID] = s
	}
	s.turns = append(s.turns, turn)
	if m.maxTurns > 0 && len(s.turns) > m.maxTurns {
		s.turns = append([]model.Turn(nil), s.turns[len(s.turns)-m.maxTurns:]...)
	}
	s.touched = now

	m.appends++
	if m.appends%sweepEvery == 0 {
		for id, other := range m.sessions {
			if m.expired(other, now) {
				delete(m.sessions, id)
			}
		}
	}
	return nil
}

func (m *MemorySessionStore) Recent(ctx context.Context, sessionID string, limit int) ([]model.Turn, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.sessions[sessionID]
	if !ok || m.expired(s, m.now()) {
		return []model.Turn{}, nil
	}
	turns := s.turns
	if limit > 0 && len(turns) > limit {
		turns = turns[len(turns)-limit:]
	}
	return append([]model.Turn(nil), turns...), nil
}

func (m *MemorySessionStore) Clear(_ context.Context, sessionID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, sessionID)
	return nil
}

func (m *MemorySessionStore) Count(_ context.Context, sessionID string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[sessionID]
	if !ok || m.expired(s, m.now()) {
		return 0, nil
	}
	return len(s.turns), nil
}

var _ model.SessionStore = (*MemorySessionStore)(nil)
