package leads

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// pgxPool is the subset of pgxpool.Pool used by the repository.
type pgxPool interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// PostgresRepository stores leads in the relational database.
type PostgresRepository struct {
	pool pgxPool
}

// NewPostgresRepository initializes a repo backed by pgxpool.
func NewPostgresRepository(pool pgxPool) *PostgresRepository {
	if pool == nil {
		panic("leads: pgx pool required")
	}
	return &PostgresRepository{pool: pool}
}

// Create inserts a new row.
func (r *PostgresRepository) Create(ctx context.Context, req *CreateLeadRequest) (*Lead, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	history, err := marshalTranscript(req.Transcript)
	if err != nil {
		return nil, err
	}

	id := uuid.New()
	query := `
		INSERT INTO leads (id, session_id, name, email, phone, service, additional_message, chat_history)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING created_at
	`
	var createdAt time.Time
	if err := r.pool.QueryRow(ctx, query,
		id.String(),
		req.SessionID,
		req.Name,
		req.Email,
		req.Phone,
		req.Service,
		req.AdditionalMessage,
		history,
	).Scan(&createdAt); err != nil {
		return nil, fmt.Errorf("leads: insert failed: %w", err)
	}

	return req.toLead(id.String(), createdAt.UTC()), nil
}

// GetByID fetches a single lead with its chat history.
func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*Lead, error) {
	// the column is a UUID; anything else cannot match
	if _, err := uuid.Parse(id); err != nil {
		return nil, ErrLeadNotFound
	}
	query := `SELECT ` + leadColumns + ` FROM leads WHERE id = $1`
	lead, err := scanLead(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrLeadNotFound
		}
		return nil, fmt.Errorf("leads: select failed: %w", err)
	}
	return lead, nil
}

// List returns leads newest first.
func (r *PostgresRepository) List(ctx context.Context, filter ListFilter) ([]*Lead, error) {
	query, args := buildListQuery(filter,
		func(n int) string { return "$" + strconv.Itoa(n) },
		func(t time.Time) any { return t },
	)
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("leads: list failed: %w", err)
	}
	defer rows.Close()

	out := []*Lead{}
	for rows.Next() {
		lead, err := scanLead(rows)
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

type rowScanner interface {
	Scan(dest ...any) error
}

func scanLead(row rowScanner) (*Lead, error) {
	var (
		lead    Lead
		history []byte
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
		&lead.CreatedAt,
	); err != nil {
		return nil, err
	}
	transcript, err := unmarshalTranscript(history)
	if err != nil {
		return nil, err
	}
	lead.Transcript = transcript
	lead.CreatedAt = lead.CreatedAt.UTC()
	return &lead, nil
}

func marshalTranscript(entries []TranscriptEntry) ([]byte, error) {
	if entries == nil {
		entries = []TranscriptEntry{}
	}
	data, err := json.Marshal(entries)
	if err != nil {
		return nil, fmt.Errorf("leads: marshal chat history: %w", err)
	}
	return data, nil
}

func unmarshalTranscript(data []byte) ([]TranscriptEntry, error) {
	if len(data) == 0 {
		return []TranscriptEntry{}, nil
	}
	var entries []TranscriptEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("leads: decode chat history: %w", err)
	}
	return entries, nil
}
