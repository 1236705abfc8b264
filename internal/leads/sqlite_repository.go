package leads

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite" // registers the "sqlite" driver
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS leads (
	id                 TEXT PRIMARY KEY,
	session_id         TEXT NOT NULL DEFAULT '',
	name               TEXT NOT NULL,
	email              TEXT NOT NULL DEFAULT '',
	phone              TEXT NOT NULL DEFAULT '',
	service            TEXT NOT NULL,
	additional_message TEXT NOT NULL DEFAULT '',
	chat_history       TEXT NOT NULL DEFAULT '[]',
	created_at         INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_leads_created_at ON leads (created_at DESC);
`

// OpenSQLite opens a local lead database file with WAL journaling.
func OpenSQLite(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", fmt.Sprintf(
		"file:%s?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)", path,
	))
	if err != nil {
		return nil, fmt.Errorf("leads: open sqlite: %w", err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("leads: ping sqlite: %w", err)
	}
	// single writer
	db.SetMaxOpenConns(1)
	return db, nil
}

// SQLiteRepository stores leads in a local SQLite file for development.
// Timestamps are stored as unix nanoseconds so range filters compare numerically.
type SQLiteRepository struct {
	db  *sql.DB
	now func() time.Time
}

// NewSQLiteRepository wraps an open database handle.
func NewSQLiteRepository(db *sql.DB) *SQLiteRepository {
	if db == nil {
		panic("leads: sqlite db required")
	}
	return &SQLiteRepository{
		db:  db,
		now: func() time.Time { return time.Now().UTC() },
	}
}

// Migrate creates the leads table when missing.
func (r *SQLiteRepository) Migrate(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, sqliteSchema); err != nil {
		return fmt.Errorf("leads: sqlite schema: %w", err)
	}
	return nil
}

// Create inserts a new row.
func (r *SQLiteRepository) Create(ctx context.Context, req *CreateLeadRequest) (*Lead, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	history, err := marshalTranscript(req.Transcript)
	if err != nil {
		return nil, err
	}

	id := uuid.New().String()
	createdAt := r.now()
	_, err = r.db.ExecContext(ctx, `
		INSERT INTO leads (id, session_id, name, email, phone, service, additional_message, chat_history, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		id, req.SessionID, req.Name, req.Email, req.Phone, req.Service, req.AdditionalMessage,
		string(history), createdAt.UnixNano(),
	)
	if err != nil {
		return nil, fmt.Errorf("leads: insert failed: %w", err)
	}
	return req.toLead(id, createdAt), nil
}

// GetByID fetches a single lead with its chat history.
func (r *SQLiteRepository) GetByID(ctx context.Context, id string) (*Lead, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+leadColumns+` FROM leads WHERE id = ?`, id)
	lead, err := scanSQLiteLead(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrLeadNotFound
		}
		return nil, fmt.Errorf("leads: select failed: %w", err)
	}
	return lead, nil
}

// List returns leads newest first.
func (r *SQLiteRepository) List(ctx context.Context, filter ListFilter) ([]*Lead, error) {
	query, args := buildListQuery(filter,
		func(int) string { return "?" },
		func(t time.Time) any { return t.UnixNano() },
	)
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("leads: list failed: %w", err)
	}
	defer rows.Close()

	out := []*Lead{}
	for rows.Next() {
		lead, err := scanSQLiteLead(rows)
		if err != nil {
			return nil, fmt.Errorf("leads: scan failed: %w", err)
		}
		out = append(out, lead)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("leads: list failed: %w", err)
	}
	return out, nil
}

func scanSQLiteLead(row rowScanner) (*Lead, error) {
	var (
		lead      Lead
		history   string
		createdAt int64
	)
	if err := row.Scan(
		&lead.ID,
		&lead.SessionID,
		&lead.Name,
		&lead.Email,
		&lead.Phone,
		&lead.Service,
		&lead.AdditionalMessage,
		&history,
		&createdAt,
	); err != nil {
		return nil, err
	}
	transcript, err := unmarshalTranscript([]byte(history))
	if err != nil {
		return nil, err
	}
	lead.Transcript = transcript
	lead.CreatedAt = time.Unix(0, createdAt).UTC()
	return &lead, nil
}
