// Package events provides HTTP handlers for error event ingestion and
// querying.
package events

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/spectraops/spectraops/internal/api/middleware"
	"github.com/spectraops/spectraops/internal/api/respond"
	"github.com/spectraops/spectraops/internal/ingest"
	"github.com/spectraops/spectraops/internal/metrics"
	"github.com/spectraops/spectraops/internal/models"
)

// Handler handles error event endpoints.
type Handler struct {
	ingest *ingest.Service
}

// NewHandler creates a new events handler.
func NewHandler(svc *ingest.Service) *Handler {
	return &Handler{ingest: svc}
}

// BatchRequest is the body of POST /api/errors/batch.
type BatchRequest struct {
	Errors []ingest.Payload `json:"errors"`
}

// CaptureResponse is returned for a single accepted event.
type CaptureResponse struct {
	Data CapturedEvent `json:"data"`
}

// CapturedEvent identifies a stored event.
type CapturedEvent struct {
	ID         string `json:"id"`
	ReceivedAt string `json:"received_at"`
}

// BatchResponse reports how many events a batch stored.
type BatchResponse struct {
	Accepted int `json:"accepted"`
}

// ListResponse is the body of GET /api/errors.
type ListResponse struct {
	Data       []*models.ErrorEvent `json:"data"`
	Pagination respond.Pagination   `json:"pagination"`
}

// projectScope extracts the resolved scope, rejecting requests that lack a
// project scope. Session-authenticated callers cannot ingest: an event
// belongs to exactly one project and only an API key names one.
func projectScope(w http.ResponseWriter, r *http.Request) (middleware.Scope, bool) {
	scope, ok := middleware.GetScope(r.Context())
	if !ok {
		respond.Error(w, http.StatusUnauthorized, respond.CodeUnauthorized, "Authentication required")
		return middleware.Scope{}, false
	}
	if scope.Kind != middleware.ScopeProject {
		respond.Error(w, http.StatusForbidden, respond.CodeForbidden, "Ingestion requires an API key")
		return middleware.Scope{}, false
	}
	return scope, true
}

// Capture handles POST /api/errors.
func (h *Handler) Capture(w http.ResponseWriter, r *http.Request) {
	scope, ok := projectScope(w, r)
	if !ok {
		return
	}

	var payload ingest.Payload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		respond.Error(w, http.StatusBadRequest, respond.CodeBadRequest, "Invalid JSON body")
		return
	}

	event, err := h.ingest.IngestOne(r.Context(), scope.ProjectID, payload)
	if err != nil {
		var verr *ingest.ValidationError
		if errors.As(err, &verr) {
			metrics.EventsRejectedTotal.Inc()
			respond.Error(w, http.StatusBadRequest, respond.CodeValidationFailed, verr.Reason)
			return
		}
		log.Printf("store event error: %v", err)
		respond.Error(w, http.StatusInternalServerError, respond.CodeInternalError, "Failed to store error")
		return
	}

	metrics.EventsIngestedTotal.Inc()
	respond.JSON(w, http.StatusCreated, CaptureResponse{Data: CapturedEvent{
		ID:         event.ID,
		ReceivedAt: event.ReceivedAt.UTC().Format(time.RFC3339),
	}})
}

// CaptureBatch handles POST /api/errors/batch.
func (h *Handler) CaptureBatch(w http.ResponseWriter, r *http.Request) {
	scope, ok := projectScope(w, r)
	if !ok {
		return
	}

	var req BatchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.Error(w, http.StatusBadRequest, respond.CodeBadRequest, "Invalid JSON body")
		return
	}

	metrics.BatchesTotal.Inc()

	accepted, err := h.ingest.IngestBatch(r.Context(), scope.ProjectID, req.Errors)
	if err != nil {
		var verr *ingest.ValidationError
		if errors.As(err, &verr) {
			metrics.EventsRejectedTotal.Inc()
			respond.Error(w, http.StatusBadRequest, respond.CodeValidationFailed, verr.Error())
			return
		}
		log.Printf("store batch error: %v", err)
		respond.Error(w, http.StatusInternalServerError, respond.CodeInternalError, "Failed to store errors")
		return
	}

	metrics.EventsIngestedTotal.Add(float64(accepted))
	respond.JSON(w, http.StatusCreated, BatchResponse{Accepted: accepted})
}

// List handles GET /api/errors. API-key callers see their project's events;
// session callers see events across every project they own.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	scope, ok := middleware.GetScope(r.Context())
	if !ok {
		respond.Error(w, http.StatusUnauthorized, respond.CodeUnauthorized, "Authentication required")
		return
	}

	page := queryInt(r, "page", ingest.DefaultPage)
	limit := queryInt(r, "limit", ingest.DefaultLimit)

	var result *ingest.Page
	var err error
	switch scope.Kind {
	case middleware.ScopeProject:
		result, err = h.ingest.QueryProject(r.Context(), scope.ProjectID, page, limit)
	case middleware.ScopeUser:
		result, err = h.ingest.QueryOwner(r.Context(), scope.UserID, page, limit)
	default:
		respond.Error(w, http.StatusForbidden, respond.CodeForbidden, "Access denied")
		return
	}
	if err != nil {
		log.Printf("list events error: %v", err)
		respond.Error(w, http.StatusInternalServerError, respond.CodeInternalError, "Failed to fetch errors")
		return
	}

	events := result.Events
	if events == nil {
		events = []*models.ErrorEvent{}
	}

	respond.JSON(w, http.StatusOK, ListResponse{
		Data: events,
		Pagination: respond.Pagination{
			Page:       result.Page,
			Limit:      result.Limit,
			Total:      result.Total,
			TotalPages: result.TotalPages,
		},
	})
}

func queryInt(r *http.Request, key string, fallback int) int {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return n
}
