// Package projects provides HTTP handlers for project management.
package projects

import (
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/spectraops/spectraops/internal/api/middleware"
	"github.com/spectraops/spectraops/internal/api/respond"
	"github.com/spectraops/spectraops/internal/models"
	"github.com/spectraops/spectraops/internal/sanitize"
	"github.com/spectraops/spectraops/internal/storage"
)

const maxNameLength = 100

// Handler handles project management endpoints.
type Handler struct {
	projects storage.ProjectRepository
}

// NewHandler creates a new projects handler.
func NewHandler(projects storage.ProjectRepository) *Handler {
	return &Handler{projects: projects}
}

// Request and response types

type CreateRequest struct {
	Name string `json:"name"`
}

// ProjectResponse is a project as returned to its owner. The API key is
// included: only the owner can reach these endpoints.
type ProjectResponse struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	APIKey    string `json:"api_key"`
	CreatedAt string `json:"created_at"`
}

type ListResponse struct {
	Data []ProjectResponse `json:"data"`
}

func toResponse(p *models.Project) ProjectResponse {
	return ProjectResponse{
		ID:        p.ID,
		Name:      p.Name,
		APIKey:    p.APIKey,
		CreatedAt: p.CreatedAt.UTC().Format(time.RFC3339),
	}
}

// userScope extracts the session scope; project management is dashboard
// functionality and API keys cannot reach it.
func userScope(w http.ResponseWriter, r *http.Request) (middleware.Scope, bool) {
	scope, ok := middleware.GetScope(r.Context())
	if !ok || scope.Kind != middleware.ScopeUser {
		respond.Error(w, http.StatusUnauthorized, respond.CodeUnauthorized, "Authentication required")
		return middleware.Scope{}, false
	}
	return scope, true
}

// List handles GET /api/projects.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	scope, ok := userScope(w, r)
	if !ok {
		return
	}

	list, err := h.projects.ListByUser(r.Context(), scope.UserID)
	if err != nil {
		log.Printf("list projects error: %v", err)
		respond.Error(w, http.StatusInternalServerError, respond.CodeInternalError, "Failed to fetch projects")
		return
	}

	resp := ListResponse{Data: make([]ProjectResponse, 0, len(list))}
	for _, p := range list {
		resp.Data = append(resp.Data, toResponse(p))
	}
	respond.JSON(w, http.StatusOK, resp)
}

// Create handles POST /api/projects.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	scope, ok := userScope(w, r)
	if !ok {
		return
	}

	var req CreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.Error(w, http.StatusBadRequest, respond.CodeBadRequest, "Invalid JSON body")
		return
	}

	name := sanitize.StripAndTrim(req.Name, maxNameLength)
	if name == "" {
		respond.Error(w, http.StatusBadRequest, respond.CodeValidationFailed, "Project name is required")
		return
	}

	project := models.NewProject(name, scope.UserID)
	if err := h.projects.Create(r.Context(), project); err != nil {
		log.Printf("create project error: %v", err)
		respond.Error(w, http.StatusInternalServerError, respond.CodeInternalError, "Failed to create project")
		return
	}

	respond.JSON(w, http.StatusCreated, toResponse(project))
}

// Delete handles DELETE /api/projects/{id}. Ownership is enforced inside
// the delete statement; a project owned by someone else looks identical to
// one that does not exist.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	scope, ok := userScope(w, r)
	if !ok {
		return
	}

	id := chi.URLParam(r, "id")
	deleted, err := h.projects.DeleteOwned(r.Context(), id, scope.UserID)
	if err != nil {
		log.Printf("delete project error: %v", err)
		respond.Error(w, http.StatusInternalServerError, respond.CodeInternalError, "Failed to delete project")
		return
	}
	if !deleted {
		respond.Error(w, http.StatusNotFound, respond.CodeNotFound, "Project not found")
		return
	}

	respond.NoContent(w)
}

// RotateKey handles POST /api/projects/{id}/rotate-key. The swap is a
// single statement: the old key stops working the moment the new one is
// returned.
func (h *Handler) RotateKey(w http.ResponseWriter, r *http.Request) {
	scope, ok := userScope(w, r)
	if !ok {
		return
	}

	id := chi.URLParam(r, "id")
	project, err := h.projects.RotateKey(r.Context(), id, scope.UserID)
	if err != nil {
		log.Printf("rotate key error: %v", err)
		respond.Error(w, http.StatusInternalServerError, respond.CodeInternalError, "Failed to rotate API key")
		return
	}
	if project == nil {
		respond.Error(w, http.StatusNotFound, respond.CodeNotFound, "Project not found")
		return
	}

	respond.JSON(w, http.StatusOK, toResponse(project))
}
