package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/crosslist/backend/internal/entity"
	"github.com/crosslist/backend/internal/usecase"
)

type stubLeadRepo struct {
	lead *entity.Lead
}

func (s *stubLeadRepo) Serialized(ctx context.Context, ownerID string, fn func(entity.LeadMatchTx) error) error {
	return nil
}

func (s *stubLeadRepo) FindByID(ctx context.Context, id string) (*entity.Lead, error) {
	if s.lead == nil || s.lead.ID != id {
		return nil, entity.ErrNotFound
	}
	return s.lead, nil
}

func (s *stubLeadRepo) List(ctx context.Context, ownerID string, f entity.LeadFilters) ([]*entity.Lead, error) {
	if s.lead == nil {
		return nil, nil
	}
	return []*entity.Lead{s.lead}, nil
}

func (s *stubLeadRepo) UpdateStatus(ctx context.Context, id string, status entity.LeadStatus) error {
	if s.lead == nil || s.lead.ID != id {
		return entity.ErrNotFound
	}
	s.lead.Status = status
	return nil
}

func leadRouter(repo entity.LeadRepositoryInterface) *chi.Mux {
	h := NewLeadHandler(repo, usecase.NewUpdateLeadStatusUseCase(repo, zap.NewNop()))
	r := chi.NewRouter()
	r.Get("/leads", h.HandleList)
	r.Get("/leads/{id}", h.HandleGet)
	r.Post("/leads/{id}/status", h.HandleUpdateStatus)
	return r
}

func TestLeadListRequiresOwner(t *testing.T) {
	r := leadRouter(&stubLeadRepo{})

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/leads", nil))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestLeadList(t *testing.T) {
	r := leadRouter(&stubLeadRepo{lead: &entity.Lead{ID: "lead-1", OwnerID: "owner-1", Status: entity.LeadStatusNew}})

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/leads?owner_id=owner-1", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		Leads []*entity.Lead `json:"leads"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.Leads, 1)
	assert.Equal(t, "lead-1", body.Leads[0].ID)
}

func TestLeadStatusUpdate(t *testing.T) {
	repo := &stubLeadRepo{lead: &entity.Lead{ID: "lead-1", Status: entity.LeadStatusNew}}
	r := leadRouter(repo)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/leads/lead-1/status",
		strings.NewReader(`{"status":"contacted"}`))
	r.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, entity.LeadStatusContacted, repo.lead.Status)
}

func TestLeadStatusInvalidTransitionIs422(t *testing.T) {
	repo := &stubLeadRepo{lead: &entity.Lead{ID: "lead-1", Status: entity.LeadStatusNew}}
	r := leadRouter(repo)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/leads/lead-1/status",
		strings.NewReader(`{"status":"converted"}`))
	r.ServeHTTP(rec, req)

	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "invalid_transition", body["error"])
	assert.Equal(t, entity.LeadStatusNew, repo.lead.Status)
}

func TestLeadStatusReactivation(t *testing.T) {
	repo := &stubLeadRepo{lead: &entity.Lead{ID: "lead-1", Status: entity.LeadStatusArchived}}
	r := leadRouter(repo)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/leads/lead-1/status",
		strings.NewReader(`{"status":"contacted","reactivate":true}`))
	r.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, entity.LeadStatusContacted, repo.lead.Status)
}

func TestLeadNotFound(t *testing.T) {
	r := leadRouter(&stubLeadRepo{})

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/leads/missing", nil))

	assert.Equal(t, http.StatusNotFound, rec.Code)
}
