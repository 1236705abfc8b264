package leads

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/assistaura/leadchat/pkg/logging"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type failingRepo struct{ Repository }

func (failingRepo) List(context.Context, ListFilter) ([]*Lead, error) {
	return nil, errors.New("db down")
}

func seededHandler(t *testing.T) (*Handler, *InMemoryRepository) {
	t.Helper()
	repo := NewInMemoryRepository()
	base := time.Date(2026, 4, 2, 15, 30, 0, 0, time.UTC)
	calls := 0
	repo.now = func() time.Time {
		calls++
		return base.Add(time.Duration(calls) * time.Hour)
	}
	for _, req := range []*CreateLeadRequest{
		{Name: "Ann Lee", Email: "ann@x.io", Service: "CGI Ads"},
		{Name: "Bo Chan", Phone: "555-0101", Service: "Web Development", AdditionalMessage: "needs, commas"},
	} {
		_, err := repo.Create(context.Background(), req)
		require.NoError(t, err)
	}
	return NewHandler(repo, logging.New("error")), repo
}

func TestHandler_ListLeads(t *testing.T) {
	h, _ := seededHandler(t)

	rec := httptest.NewRecorder()
	h.ListLeads(rec, httptest.NewRequest(http.MethodGet, "/admin/leads?service=web", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var resp ListLeadsResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, 1, resp.Count)
	assert.Equal(t, 50, resp.Limit)
	assert.Equal(t, "Bo Chan", resp.Leads[0].Name)
}

func TestHandler_ListLeadsLimitBounds(t *testing.T) {
	h, _ := seededHandler(t)

	rec := httptest.NewRecorder()
	h.ListLeads(rec, httptest.NewRequest(http.MethodGet, "/admin/leads?limit=500&offset=1", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var resp ListLeadsResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, 50, resp.Limit)
	assert.Equal(t, 1, resp.Offset)
	require.Len(t, resp.Leads, 1)
	assert.Equal(t, "Ann Lee", resp.Leads[0].Name)
}

func TestHandler_ListLeadsBadDate(t *testing.T) {
	h, _ := seededHandler(t)

	rec := httptest.NewRecorder()
	h.ListLeads(rec, httptest.NewRequest(http.MethodGet, "/admin/leads?date=04/02/2026", nil))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "YYYY-MM-DD")
}

func TestHandler_ListLeadsRepositoryError(t *testing.T) {
	h := NewHandler(failingRepo{}, logging.New("error"))

	rec := httptest.NewRecorder()
	h.ListLeads(rec, httptest.NewRequest(http.MethodGet, "/admin/leads", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestHandler_GetLead(t *testing.T) {
	h, repo := seededHandler(t)
	all, err := repo.List(context.Background(), ListFilter{})
	require.NoError(t, err)

	r := chi.NewRouter()
	r.Get("/admin/leads/{leadID}", h.GetLead)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/admin/leads/"+all[0].ID, nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var lead Lead
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&lead))
	assert.Equal(t, all[0].ID, lead.ID)

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/admin/leads/unknown", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHandler_ExportCSV(t *testing.T) {
	h, _ := seededHandler(t)

	rec := httptest.NewRecorder()
	h.ExportCSV(rec, httptest.NewRequest(http.MethodGet, "/admin/leads.csv", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/csv", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "attachment;")

	records, err := csv.NewReader(strings.NewReader(rec.Body.String())).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, csvHeader, records[0])
	assert.Equal(t, []string{"Bo Chan", "", "555-0101", "Web Development", "needs, commas", "Apr 2, 2026, 05:30 PM"}, records[1])
	assert.Equal(t, "Apr 2, 2026, 04:30 PM", records[2][5])
}
