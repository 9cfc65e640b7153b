package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/crosslist/backend/internal/entity"
	"github.com/crosslist/backend/internal/usecase"
)

type LeadHandler struct {
	leadRepo entity.LeadRepositoryInterface
	statusUC *usecase.UpdateLeadStatusUseCase
}

func NewLeadHandler(leadRepo entity.LeadRepositoryInterface, statusUC *usecase.UpdateLeadStatusUseCase) *LeadHandler {
	return &LeadHandler{leadRepo: leadRepo, statusUC: statusUC}
}

func (h *LeadHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	ownerID := r.URL.Query().Get("owner_id")
	if ownerID == "" {
		http.Error(w, "owner_id is required", http.StatusBadRequest)
		return
	}

	filters := entity.LeadFilters{
		Status:    entity.LeadStatus(r.URL.Query().Get("status")),
		Platform:  r.URL.Query().Get("platform"),
		ListingID: r.URL.Query().Get("listing_id"),
	}
	if filters.Status != "" && !entity.ValidLeadStatus(filters.Status) {
		http.Error(w, "unknown status filter", http.StatusBadRequest)
		return
	}

	leads, err := h.leadRepo.List(r.Context(), ownerID, filters)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"leads": leads})
}

func (h *LeadHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	lead, err := h.leadRepo.FindByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, lead)
}

type UpdateStatusRequest struct {
	Status     entity.LeadStatus `json:"status"`
	Reactivate bool              `json:"reactivate,omitempty"`
}

func (h *LeadHandler) HandleUpdateStatus(w http.ResponseWriter, r *http.Request) {
	var req UpdateStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid JSON", http.StatusBadRequest)
		return
	}

	lead, err := h.statusUC.Execute(r.Context(), chi.URLParam(r, "id"), req.Status, req.Reactivate)
	if err != nil {
		if errors.Is(err, entity.ErrInvalidTransition) {
			writeJSON(w, http.StatusUnprocessableEntity, map[string]string{
				"error":  "invalid_transition",
				"detail": err.Error(),
			})
			return
		}
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, lead)
}
