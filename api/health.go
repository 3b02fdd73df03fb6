package api

import (
	"net/http"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/legisgraph/legisgraph/internal/log"
)

// HealthHandler handles health and readiness endpoints.
type HealthHandler struct {
	store      Store
	pool       *pgxpool.Pool
	project    string
	embedModel string
	genModel   string
	logger     log.Logger
}

// NewHealthHandler creates a new health handler.
// pool is the database connection pool used for readiness checks.
func NewHealthHandler(store Store, pool *pgxpool.Pool, project, embedModel, genModel string, logger log.Logger) *HealthHandler {
	return &HealthHandler{
		store:      store,
		pool:       pool,
		project:    project,
		embedModel: embedModel,
		genModel:   genModel,
		logger:     logger,
	}
}

// RegisterRoutes registers health routes on the given mux.
func (h *HealthHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /health", h.health)
	mux.HandleFunc("GET /ready", h.readiness)
}

// HealthResponse reports corpus statistics.
type HealthResponse struct {
	Status     string `json:"status"`
	Project    string `json:"project"`
	Chunks     int64  `json:"chunks"`
	EmbedModel string `json:"embed_model"`
	GenModel   string `json:"gen_model"`
}

// health reports liveness plus corpus statistics. Chunk counting failures
// degrade the report rather than failing the probe.
func (h *HealthHandler) health(w http.ResponseWriter, r *http.Request) {
	var chunks int64
	if h.store != nil {
		n, err := h.store.CountChunks(r.Context(), h.project)
		if err != nil {
			h.logger.Error("chunk count failed", "error", err)
		} else {
			chunks = n
		}
	}
	writeJSON(w, http.StatusOK, HealthResponse{
		Status:     "ok",
		Project:    h.project,
		Chunks:     chunks,
		EmbedModel: h.embedModel,
		GenModel:   h.genModel,
	})
}

// readiness is a readiness probe endpoint.
// Returns 200 OK if all dependencies are ready.
// Performs actual health check by pinging the database.
func (h *HealthHandler) readiness(w http.ResponseWriter, r *http.Request) {
	if h.pool == nil {
		http.Error(w, "database pool not configured", http.StatusServiceUnavailable)
		return
	}
	if err := h.pool.Ping(r.Context()); err != nil {
		h.logger.Error("readiness check failed", "error", err)
		http.Error(w, "database not ready", http.StatusServiceUnavailable)
		return
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}
