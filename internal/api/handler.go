// Package api exposes the reminder engine's HTTP surface: the trigger
// endpoint the external scheduler hits, and the health endpoint.
package api

import (
	"context"
	"encoding/json"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/alghaibb/kick-back-sub002/internal/domain"
)

// maxRequestBodySize bounds trigger request bodies. Schedulers send an
// empty or tiny body; anything bigger is garbage.
const maxRequestBodySize = 64 << 10

// Runner fires one reminder batch.
type Runner interface {
	Run(ctx context.Context) (domain.Summary, error)
}

// HealthChecker provides database health status for the /health endpoint.
type HealthChecker interface {
	PingContext(ctx context.Context) error
}

// MetricsSink defines the interface for recording trigger metrics.
// All methods must be non-blocking and fire-and-forget.
type MetricsSink interface {
	TriggerDecision(authorized bool)
}

type Handler struct {
	runner  Runner
	auth    Auth
	db      HealthChecker // optional, nil = simple health only
	metrics MetricsSink   // optional, nil = disabled
}

func NewHandler(runner Runner, auth Auth) *Handler {
	return &Handler{runner: runner, auth: auth}
}

// WithHealthChecker sets the database health checker for verbose /health responses.
func (h *Handler) WithHealthChecker(db HealthChecker) *Handler {
	h.db = db
	return h
}

// WithMetrics attaches a metrics sink to the handler.
func (h *Handler) WithMetrics(sink MetricsSink) *Handler {
	h.metrics = sink
	return h
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	path := r.URL.Path

	switch {
	case path == "/health" && r.Method == http.MethodGet:
		h.health(w, r)

	case path == "/cron/reminders" && (r.Method == http.MethodGet || r.Method == http.MethodPost):
		h.trigger(w, r)

	default:
		writeError(w, http.StatusNotFound, "not found")
	}
}

// trigger authenticates the scheduler and fires one reminder batch.
// An unauthorized request gets a 401 before anything else happens: no
// selection, no dispatch, no marker writes.
func (h *Handler) trigger(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)
	body, err := io.ReadAll(r.Body)
	if err != nil {
		writeError(w, http.StatusBadRequest, "unreadable body")
		return
	}

	if !h.auth.authorize(r, body) {
		if h.metrics != nil {
			h.metrics.TriggerDecision(false)
		}
		log.Printf("api: unauthorized trigger from %s", r.RemoteAddr)
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	if h.metrics != nil {
		h.metrics.TriggerDecision(true)
	}

	summary, err := h.runner.Run(r.Context())
	if err != nil {
		log.Printf("api: reminder run failed: %v", err)
		writeError(w, http.StatusInternalServerError, "reminder run failed")
		return
	}

	writeJSON(w, http.StatusOK, newSummaryResponse(summary))
}

func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	verbose := r.URL.Query().Get("verbose") == "true"

	if !verbose || h.db == nil {
		writeJSON(w, http.StatusOK, HealthResponse{Status: "ok"})
		return
	}

	resp := HealthResponse{
		Status:     "ok",
		Components: make(map[string]string),
	}

	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	if err := h.db.PingContext(ctx); err != nil {
		resp.Status = "degraded"
		resp.Components["database"] = "unhealthy: " + err.Error()
	} else {
		resp.Components["database"] = "healthy"
	}

	statusCode := http.StatusOK
	if resp.Status == "degraded" {
		statusCode = http.StatusServiceUnavailable
	}

	writeJSON(w, statusCode, resp)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("api: json encode error: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, ErrorResponse{Error: msg})
}
