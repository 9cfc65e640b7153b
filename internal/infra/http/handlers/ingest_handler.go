package handlers

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/crosslist/backend/internal/platform"
	"github.com/crosslist/backend/internal/usecase"
)

// IngestHandler accepts webhook-style notification pushes from platforms
// that support them. Polled platforms bypass HTTP and feed the same use case
// directly.
type IngestHandler struct {
	ingestUC    *usecase.IngestMessageUseCase
	rateLimiter *RateLimiter
}

func NewIngestHandler(ingestUC *usecase.IngestMessageUseCase) *IngestHandler {
	return &IngestHandler{
		ingestUC:    ingestUC,
		rateLimiter: NewRateLimiter(60, time.Minute),
	}
}

type IngestRequest struct {
	OwnerID  string                `json:"owner_id"`
	Platform string                `json:"platform"`
	Payload  platform.Notification `json:"payload"`
}

type IngestResponse struct {
	Result    string `json:"result"`
	MessageID string `json:"message_id,omitempty"`
}

func (h *IngestHandler) Handle(w http.ResponseWriter, r *http.Request) {
	if !h.rateLimiter.Allow(getClientIP(r)) {
		http.Error(w, "too many requests", http.StatusTooManyRequests)
		return
	}

	var req IngestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid JSON", http.StatusBadRequest)
		return
	}
	if req.OwnerID == "" || req.Platform == "" {
		http.Error(w, "owner_id and platform are required", http.StatusBadRequest)
		return
	}

	result, msg, err := h.ingestUC.Execute(r.Context(), req.OwnerID, req.Platform, req.Payload)
	if err != nil {
		writeError(w, err)
		return
	}

	// duplicates and spam are normal outcomes, not errors
	resp := IngestResponse{Result: string(result)}
	if result != usecase.IngestDuplicate {
		// a duplicate was never stored, so its id would point nowhere
		resp.MessageID = msg.ID
	}
	writeJSON(w, http.StatusOK, resp)
}

func getClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		return xff
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return xri
	}
	return r.RemoteAddr
}

type RateLimiter struct {
	mu       sync.Mutex
	visitors map[string]*visitor
	limit    int
	window   time.Duration
}

type visitor struct {
	count     int
	lastReset time.Time
}

func NewRateLimiter(limit int, window time.Duration) *RateLimiter {
	rl := &RateLimiter{
		visitors: make(map[string]*visitor),
		limit:    limit,
		window:   window,
	}
	go rl.cleanup()
	return rl
}

func (rl *RateLimiter) Allow(ip string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	v, exists := rl.visitors[ip]
	now := time.Now()

	if !exists {
		rl.visitors[ip] = &visitor{count: 1, lastReset: now}
		return true
	}

	if now.Sub(v.lastReset) > rl.window {
		v.count = 1
		v.lastReset = now
		return true
	}

	v.count++
	return v.count <= rl.limit
}

func (rl *RateLimiter) cleanup() {
	ticker := time.NewTicker(10 * time.Minute)
	defer ticker.Stop()

	for range ticker.C {
		rl.mu.Lock()
		now := time.Now()
		for ip, v := range rl.visitors {
			if now.Sub(v.lastReset) > rl.window*2 {
				delete(rl.visitors, ip)
			}
		}
		rl.mu.Unlock()
	}
}
