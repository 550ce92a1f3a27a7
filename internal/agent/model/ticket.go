package model

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// TicketPrefix is prepended to every ticket id.
const TicketPrefix = "TCK-"

type TicketStatus string

const (
	TicketOpen       TicketStatus = "open"
	TicketInProgress TicketStatus = "in_progress"
	TicketResolved   TicketStatus = "resolved"
	TicketClosed     TicketStatus = "closed"
)

// Valid reports whether s is a known ticket status.
func (s TicketStatus) Valid() bool {
	switch s {
	case TicketOpen, TicketInProgress, TicketResolved, TicketClosed:
		return true
	}
	return false
}

// Ticket is a request for a human specialist to pick up a session.
type Ticket struct {
	ID          string       `json:"ticket_id"`
	SessionID   string       `json:"session_id"`
	UserMessage string       `json:"user_message"`
	Status      TicketStatus `json:"status"`
	CreatedAt   time.Time    `json:"created_at"`
	UpdatedAt   time.Time    `json:"updated_at"`
}

// NewTicketID returns "TCK-" followed by 8 uppercase hex characters taken
// from a random UUID.
func NewTicketID() string {
	id := uuid.New()
	hex := strings.ReplaceAll(id.String(), "-", "")
	return TicketPrefix + strings.ToUpper(hex[:8])
}

// NewTicket builds an open ticket for the given session and message.
func NewTicket(sessionID, userMessage string) *Ticket {
	now := time.Now().UTC()
	return &Ticket{
		ID:          NewTicketID(),
		SessionID:   sessionID,
		UserMessage: userMessage,
		Status:      TicketOpen,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}
