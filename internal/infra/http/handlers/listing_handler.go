package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/crosslist/backend/internal/entity"
	"github.com/crosslist/backend/internal/infra/queue"
	"github.com/crosslist/backend/internal/usecase"
)

// ListingStore is the slice of the listing repository the handler needs
// beyond what the use cases already cover.
type ListingStore interface {
	Create(ctx context.Context, l *entity.Listing) error
	Delete(ctx context.Context, id string) error
}

type ListingHandler struct {
	Listings     ListingStore
	DistributeUC *usecase.DistributeListingUseCase
	RemoveUC     *usecase.RemoveListingUseCase
	Producer     *queue.RabbitMQProducer
}

func NewListingHandler(listings ListingStore, distributeUC *usecase.DistributeListingUseCase, removeUC *usecase.RemoveListingUseCase, producer *queue.RabbitMQProducer) *ListingHandler {
	return &ListingHandler{
		Listings:     listings,
		DistributeUC: distributeUC,
		RemoveUC:     removeUC,
		Producer:     producer,
	}
}

type CreateListingRequest struct {
	OwnerID     string   `json:"owner_id"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Price       float64  `json:"price"`
	Category    string   `json:"category"`
	Location    string   `json:"location"`
	Images      []string `json:"images,omitempty"`
	Platforms   []string `json:"platforms"`
}

func (h *ListingHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var req CreateListingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid JSON", http.StatusBadRequest)
		return
	}
	if req.OwnerID == "" || req.Title == "" || len(req.Platforms) == 0 {
		http.Error(w, "owner_id, title and platforms are required", http.StatusBadRequest)
		return
	}

	listing := entity.NewListing(req.OwnerID, req.Title, req.Description, req.Price, req.Category, req.Location, req.Platforms)
	listing.Images = req.Images

	if err := h.Listings.Create(r.Context(), listing); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, listing)
}

type DistributeRequest struct {
	Platforms []string `json:"platforms,omitempty"`
	Async     bool     `json:"async,omitempty"`
}

type DistributeResponse struct {
	ListingID string                          `json:"listing_id"`
	Platforms map[string]entity.PlatformState `json:"platforms,omitempty"`
	Queued    bool                            `json:"queued,omitempty"`
}

func (h *ListingHandler) HandleDistribute(w http.ResponseWriter, r *http.Request) {
	listingID := chi.URLParam(r, "id")

	var req DistributeRequest
	// empty body means "all selected platforms, synchronously"
	_ = json.NewDecoder(r.Body).Decode(&req)

	if req.Async {
		listing, err := h.DistributeUC.Listings.FindByID(r.Context(), listingID)
		if err != nil {
			writeError(w, err)
			return
		}
		job := queue.DistributionJob{
			ListingID: listingID,
			OwnerID:   listing.OwnerID,
			Platforms: req.Platforms,
		}
		if err := h.Producer.PublishDistribution(r.Context(), job); err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusAccepted, DistributeResponse{ListingID: listingID, Queued: true})
		return
	}

	states, err := h.DistributeUC.Execute(r.Context(), listingID, req.Platforms)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, DistributeResponse{ListingID: listingID, Platforms: states})
}

func (h *ListingHandler) HandleRemove(w http.ResponseWriter, r *http.Request) {
	listingID := chi.URLParam(r, "id")

	states, err := h.RemoveUC.Execute(r.Context(), listingID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, DistributeResponse{ListingID: listingID, Platforms: states})
}

// HandleDelete takes the listing down from every published platform, then
// deletes the canonical record.
func (h *ListingHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	listingID := chi.URLParam(r, "id")

	states, err := h.RemoveUC.Execute(r.Context(), listingID)
	if err != nil {
		writeError(w, err)
		return
	}
	if err := h.Listings.Delete(r.Context(), listingID); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, DistributeResponse{ListingID: listingID, Platforms: states})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, entity.ErrNotFound):
		http.Error(w, "not found", http.StatusNotFound)
	default:
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
