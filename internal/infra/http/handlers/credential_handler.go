package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/crosslist/backend/internal/entity"
	"github.com/crosslist/backend/internal/usecase"
)

// CredentialHandler connects and disconnects platform accounts. Payloads are
// accepted in plaintext over the API boundary and sealed before they touch
// the database; responses never echo them back.
type CredentialHandler struct {
	store    *usecase.CredentialStore
	adapters usecase.AdapterRegistryInterface
}

func NewCredentialHandler(store *usecase.CredentialStore, adapters usecase.AdapterRegistryInterface) *CredentialHandler {
	return &CredentialHandler{store: store, adapters: adapters}
}

type ConnectRequest struct {
	Kind      entity.CredentialKind `json:"kind"`
	Payload   json.RawMessage       `json:"payload"`
	ExpiresAt *time.Time            `json:"expires_at,omitempty"`
}

type ConnectResponse struct {
	Platform  string     `json:"platform"`
	Kind      string     `json:"kind"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
}

func (h *CredentialHandler) HandleConnect(w http.ResponseWriter, r *http.Request) {
	ownerID := chi.URLParam(r, "ownerID")
	platformName := chi.URLParam(r, "platform")

	if _, ok := h.adapters.Get(platformName); !ok {
		http.Error(w, "unknown platform", http.StatusNotFound)
		return
	}

	var req ConnectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid JSON", http.StatusBadRequest)
		return
	}
	if req.Kind != entity.CredentialKindOAuth && req.Kind != entity.CredentialKindSecret {
		http.Error(w, "kind must be oauth or secret", http.StatusBadRequest)
		return
	}
	if len(req.Payload) == 0 {
		http.Error(w, "payload is required", http.StatusBadRequest)
		return
	}

	cred, err := h.store.Put(r.Context(), ownerID, platformName, req.Kind, req.Payload, req.ExpiresAt)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, ConnectResponse{
		Platform:  cred.Platform,
		Kind:      string(cred.Kind),
		ExpiresAt: cred.ExpiresAt,
	})
}

func (h *CredentialHandler) HandleDisconnect(w http.ResponseWriter, r *http.Request) {
	ownerID := chi.URLParam(r, "ownerID")
	platformName := chi.URLParam(r, "platform")

	if err := h.store.Disconnect(r.Context(), ownerID, platformName); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
