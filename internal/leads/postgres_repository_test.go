package leads

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	pgxmock "github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var selectColumns = []string{"id", "session_id", "name", "email", "phone", "service", "additional_message", "chat_history", "created_at"}

func TestPostgresRepository_Create(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock: %v", err)
	}
	defer mock.Close()

	createdAt := time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)
	req := validRequest("Jane Doe")
	req.AdditionalMessage = "need it by June"

	mock.ExpectQuery("INSERT INTO leads").
		WithArgs(pgxmock.AnyArg(), "sess-1", "Jane Doe", "jane@x.com", "555-1234", "Web Development", "need it by June", pgxmock.AnyArg()).
		WillReturnRows(pgxmock.NewRows([]string{"created_at"}).AddRow(createdAt))

	repo := NewPostgresRepository(mock)
	lead, err := repo.Create(context.Background(), req)
	require.NoError(t, err)
	assert.NotEmpty(t, lead.ID)
	assert.Equal(t, createdAt, lead.CreatedAt)
	assert.Equal(t, "need it by June", lead.AdditionalMessage)
	assert.Len(t, lead.Transcript, 2)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresRepository_CreateInsertError(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectQuery("INSERT INTO leads").WillReturnError(errors.New("connection reset"))

	repo := NewPostgresRepository(mock)
	_, err = repo.Create(context.Background(), validRequest("Jane"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "leads: insert failed")
}

func TestPostgresRepository_CreateValidatesBeforeQuery(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewPostgresRepository(mock)
	_, err = repo.Create(context.Background(), &CreateLeadRequest{Name: "Jane"})
	assert.ErrorIs(t, err, ErrMissingContact)
	require.NoError(t, mock.ExpectationsWereMet())
}

const testLeadID = "6f1c2a9e-3b1d-4c55-9a0e-2f7d8b4e1c10"

func TestPostgresRepository_GetByID(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	createdAt := time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)
	history := []byte(`[{"id":"t1","role":"user","content":"what's the cost?","timestamp":"2026-06-01T11:59:00Z"}]`)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT " + leadColumns + " FROM leads WHERE id = $1")).
		WithArgs(testLeadID).
		WillReturnRows(pgxmock.NewRows(selectColumns).
			AddRow(testLeadID, "sess-1", "Jane", "jane@x.com", "555", "Meta Ads", "", history, createdAt))

	repo := NewPostgresRepository(mock)
	lead, err := repo.GetByID(context.Background(), testLeadID)
	require.NoError(t, err)
	assert.Equal(t, "Jane", lead.Name)
	require.Len(t, lead.Transcript, 1)
	assert.Equal(t, "what's the cost?", lead.Transcript[0].Content)
	assert.Equal(t, "user", lead.Transcript[0].Role)
}

func TestPostgresRepository_GetByIDNotFound(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectQuery("SELECT").WithArgs(testLeadID).WillReturnError(pgx.ErrNoRows)

	repo := NewPostgresRepository(mock)
	_, err = repo.GetByID(context.Background(), testLeadID)
	assert.ErrorIs(t, err, ErrLeadNotFound)

	// not a uuid, no query issued
	_, err = repo.GetByID(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrLeadNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresRepository_ListAppliesFilters(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	day := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
	mock.ExpectQuery(regexp.QuoteMeta("WHERE (LOWER(name) LIKE $1 OR LOWER(email) LIKE $2 OR phone LIKE $3) AND LOWER(service) LIKE $4 AND created_at >= $5 AND created_at < $6 ORDER BY created_at DESC, id DESC LIMIT $7")).
		WithArgs("%jane%", "%jane%", "%Jane%", "%web%", day, day.AddDate(0, 0, 1), 25).
		WillReturnRows(pgxmock.NewRows(selectColumns).
			AddRow("lead-2", "s2", "Jane B", "jb@x.com", "1", "Web Development", "", []byte(`[]`), day.Add(3*time.Hour)).
			AddRow("lead-1", "s1", "Jane A", "ja@x.com", "2", "Web Development", "", []byte(nil), day.Add(time.Hour)))

	repo := NewPostgresRepository(mock)
	leads, err := repo.List(context.Background(), ListFilter{Search: "Jane", Service: "Web", Day: day, Limit: 25})
	require.NoError(t, err)
	require.Len(t, leads, 2)
	assert.Equal(t, "lead-2", leads[0].ID)
	assert.Empty(t, leads[1].Transcript)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresRepository_ListQueryError(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectQuery("SELECT").WillReturnError(errors.New("boom"))

	repo := NewPostgresRepository(mock)
	_, err = repo.List(context.Background(), ListFilter{})
	require.Error(t, err)
}
