package repo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/chative/supportdesk/internal/agent/model"
	logx "github.com/chative/supportdesk/pkg/logger"
)

// timeLayout is fixed width so created_at sorts lexically.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// SQLiteTicketStore persists tickets in a SQLite database.
type SQLiteTicketStore struct {
	db *sql.DB
}

// NewSQLiteTicketStore opens (or creates) the database at path and makes
// sure the schema exists. Parent directories are created if needed.
func NewSQLiteTicketStore(path string) (*SQLiteTicketStore, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("creating database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	if path == ":memory:" {
		// each pooled connection would get its own empty database
		db.SetMaxOpenConns(1)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling WAL mode: %w", err)
	}
	if _, err := db.Exec("PRAGMA busy_timeout=5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting busy timeout: %w", err)
	}

	s := &SQLiteTicketStore{db: db}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	logx.Info().Str("path", path).Msg("Ticket store initialized")
	return s, nil
}

func (s *SQLiteTicketStore) createSchema() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS tickets (
			ticket_id    TEXT PRIMARY KEY,
			session_id   TEXT NOT NULL,
			user_message TEXT NOT NULL,
			status       TEXT NOT NULL DEFAULT 'open',
			created_at   TEXT NOT NULL,
			updated_at   TEXT NOT NULL,

			CHECK (status IN ('open', 'in_progress', 'resolved', 'closed'))
		);

		CREATE INDEX IF NOT EXISTS idx_tickets_session ON tickets(session_id);
		CREATE INDEX IF NOT EXISTS idx_tickets_status_created ON tickets(status, created_at);
	`)
	return err
}

// Create inserts t. Inserting an id that already exists is a no-op, so a
// retried create returns the same id without a second row.
func (s *SQLiteTicketStore) Create(ctx context.Context, t *model.Ticket) (string, error) {
	if t == nil || t.ID == "" {
		return "", errors.New("ticket id is required")
	}
	status := t.Status
	if status == "" {
		status = model.TicketOpen
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO tickets (ticket_id, session_id, user_message, status, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(ticket_id) DO NOTHING`,
		t.ID,
		t.SessionID,
		t.UserMessage,
		string(status),
		t.CreatedAt.UTC().Format(timeLayout),
		t.UpdatedAt.UTC().Format(timeLayout),
	)
	if err != nil {
		return "", fmt.Errorf("inserting ticket: %w", err)
	}
	return t.ID, nil
}

func (s *SQLiteTicketStore) Get(ctx context.Context, id string) (*model.Ticket, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT ticket_id, session_id, user_message, status, created_at, updated_at
		FROM tickets WHERE ticket_id = ?`, id)
	t, err := scanTicket(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrTicketNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("getting ticket: %w", err)
	}
	return t, nil
}

// List returns matching tickets, newest first.
func (s *SQLiteTicketStore) List(ctx context.Context, opts ListOptions) ([]*model.Ticket, error) {
	var (
		where []string
		args  []any
	)
	if opts.Status != "" {
		where = append(where, "status = ?")
		args = append(args, string(opts.Status))
	}
	if opts.SessionID != "" {
		where = append(where, "session_id = ?")
		args = append(args, opts.SessionID)
	}

	query := `SELECT ticket_id, session_id, user_message, status, created_at, updated_at FROM tickets`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY created_at DESC, rowid DESC LIMIT ?"
	args = append(args, opts.limit())

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing tickets: %w", err)
	}
	defer rows.Close()

	out := []*model.Ticket{}
	for rows.Next() {
		t, err := scanTicket(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning ticket: %w", err)
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (s *SQLiteTicketStore) UpdateStatus(ctx context.Context, id string, status model.TicketStatus) error {
	if !status.Valid() {
		return fmt.Errorf("invalid ticket status %q", status)
	}
	res, err := s.db.ExecContext(ctx,
		`UPDATE tickets SET status = ?, updated_at = ? WHERE ticket_id = ?`,
		string(status), time.Now().UTC().Format(timeLayout), id)
	if err != nil {
		return fmt.Errorf("updating ticket: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("updating ticket: %w", err)
	}
	if n == 0 {
		return ErrTicketNotFound
	}
	return nil
}

func (s *SQLiteTicketStore) Close() error {
	return s.db.Close()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanTicket(sc scanner) (*model.Ticket, error) {
	var (
		t                    model.Ticket
		status               string
		createdAt, updatedAt string
	)
	if err := sc.Scan(&t.ID, &t.SessionID, &t.UserMessage, &status, &createdAt, &updatedAt); err != nil {
		return nil, err
	}
	t.Status = model.TicketStatus(status)

	var err error
	if t.CreatedAt, err = time.Parse(timeLayout, createdAt); err != nil {
		return nil, fmt.Errorf("parsing created_at: %w", err)
	}
	if t.UpdatedAt, err = time.Parse(timeLayout, updatedAt); err != nil {
		return nil, fmt.Errorf("parsing updated_at: %w", err)
	}
	return &t, nil
}

var _ TicketStore = (*SQLiteTicketStore)(nil)
