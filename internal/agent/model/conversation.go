package model

import (
	"context"
	"time"
)

// Role identifies who produced a Turn.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	// RoleSystemDebug turns carry pipeline annotations (e.g. the detected
	// intent). They are kept in state for transparency but never shown to
	// the customer or sent to the generator.
	RoleSystemDebug Role = "system-debug"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleUser, RoleAssistant, RoleSystemDebug:
		return true
	}
	return false
}

// Turn is one immutable message in a session.
type Turn struct {
	Role      Role      `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// NewTurn stamps a turn with the current UTC time.
func NewTurn(role Role, content string) Turn {
	return Turn{Role: role, Content: content, Timestamp: time.Now().UTC()}
}

type HistoryReader interface {
	// Recent returns up to limit of the latest turns, oldest first.
	Recent(ctx context.Context, sessionID string, limit int) ([]Turn, error)
}

// SessionStore is the append-only history written by inbound channels.
// The orchestrator only ever reads through HistoryReader.
type SessionStore interface {
	HistoryReader

	// Append adds a turn at the end of the session, creating it on first use.
	Append(ctx context.Context, sessionID string, turn Turn) error
}
