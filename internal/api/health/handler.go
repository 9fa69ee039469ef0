// Package health provides the health check endpoint for the API.
package health

import (
	"context"
	"database/sql"
	"log"
	"net/http"
	"time"

	"github.com/spectraops/spectraops/internal/api/respond"
)

// Handler reports process and database health.
type Handler struct {
	db *sql.DB
}

// NewHandler creates a new health handler.
func NewHandler(db *sql.DB) *Handler {
	return &Handler{db: db}
}

// HealthResponse represents the health check response.
type HealthResponse struct {
	Status string `json:"status"`
	DB     string `json:"db"`
}

// Health handles GET /health. A reachable database reports ok; anything
// else degrades the status so load balancers can rotate the instance out.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	if err := h.db.PingContext(ctx); err != nil {
		log.Printf("health check db ping failed: %v", err)
		respond.JSON(w, http.StatusServiceUnavailable, HealthResponse{Status: "degraded", DB: "unreachable"})
		return
	}

	respond.JSON(w, http.StatusOK, HealthResponse{Status: "ok", DB: "connected"})
}
