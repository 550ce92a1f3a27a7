package repo

import (
	"context"
	"errors"

	"github.com/chative/supportdesk/internal/agent/model"
	errx "github.com/chative/supportdesk/internal/core/error"
	logx "github.com/chative/supportdesk/pkg/logger"
)

// FallbackSessionStore serves from primary and degrades to an in-process
// store when primary is nil or reports errx.ErrSessionStore. Other errors,
// such as a corrupt stored turn, are returned as is.
type FallbackSessionStore struct {
	primary  model.SessionStore
	fallback *MemorySessionStore
}

func NewFallbackSessionStore(primary model.SessionStore, cfg model.SessionConfig) *FallbackSessionStore {
	return &FallbackSessionStore{primary: primary, fallback: NewMemorySessionStore(cfg)}
}

func (f *FallbackSessionStore) Append(ctx context.Context, sessionID string, turn model.Turn) error {
	if f.primary != nil {
		err := f.primary.Append(ctx, sessionID, turn)
		if err == nil {
			return nil
		}
		if ctx.Err() != nil || !errors.Is(err, errx.ErrSessionStore) {
			return err
		}
		logx.Warn().Err(err).Str("session_id", sessionID).Msg("Session store unavailable, appending in memory")
	}
	return f.fallback.Append(ctx, sessionID, turn)
}

func (f *FallbackSessionStore) Recent(ctx context.Context, sessionID string, limit int) ([]model.Turn, error) {
	if f.primary != nil {
		turns, err := f.primary.Recent(ctx, sessionID, limit)
		if err == nil {
			return turns, nil
		}
		if ctx.Err() != nil || !errors.Is(err, errx.ErrSessionStore) {
			return nil, err
		}
		logx.Warn().Err(err).Str("session_id", sessionID).Msg("Session store unavailable, reading from memory")
	}
	return f.fallback.Recent(ctx, sessionID, limit)
}

var _ model.SessionStore = (*FallbackSessionStore)(nil)
