package projects

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/spectraops/spectraops/internal/api/middleware"
	"github.com/spectraops/spectraops/internal/models"
)

// mockProjectRepo implements storage.ProjectRepository.
type mockProjectRepo struct {
	byUser  map[string][]*models.Project
	created []*models.Project
	deleted []string
	rotated *models.Project
}

func (m *mockProjectRepo) Create(ctx context.Context, p *models.Project) error {
	p.ID = "proj-new"
	m.created = append(m.created, p)
	return nil
}

func (m *mockProjectRepo) GetByID(ctx context.Context, id string) (*models.Project, error) {
	return nil, nil
}

func (m *mockProjectRepo) GetByAPIKey(ctx context.Context, apiKey string) (*models.Project, error) {
	return nil, nil
}

func (m *mockProjectRepo) ListByUser(ctx context.Context, userID string) ([]*models.Project, error) {
	return m.byUser[userID], nil
}

func (m *mockProjectRepo) DeleteOwned(ctx context.Context, id, userID string) (bool, error) {
	for _, p := range m.byUser[userID] {
		if p.ID == id {
			m.deleted = append(m.deleted, id)
			return true, nil
		}
	}
	return false, nil
}

func (m *mockProjectRepo) RotateKey(ctx context.Context, id, userID string) (*models.Project, error) {
	if m.rotated != nil && m.rotated.ID == id && m.rotated.UserID == userID {
		return m.rotated, nil
	}
	return nil, nil
}

func sessionRequest(method, target, body string) *http.Request {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
	}
	scope := middleware.Scope{Kind: middleware.ScopeUser, UserID: "user-1", Email: "dev@example.com"}
	return req.WithContext(middleware.WithScope(req.Context(), scope))
}

// withURLParam attaches a chi route parameter so URLParam resolves outside
// a full router.
func withURLParam(r *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

func TestList(t *testing.T) {
	repo := &mockProjectRepo{byUser: map[string][]*models.Project{
		"user-1": {
			models.NewProject("checkout", "user-1"),
			models.NewProject("billing", "user-1"),
		},
	}}
	h := NewHandler(repo)

	rec := httptest.NewRecorder()
	h.List(rec, sessionRequest("GET", "/api/projects", ""))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}

	var resp ListResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(resp.Data) != 2 {
		t.Fatalf("data = %d projects, want 2", len(resp.Data))
	}
	if resp.Data[0].APIKey == "" {
		t.Error("owner listing should include API key")
	}
}

func TestList_Empty(t *testing.T) {
	h := NewHandler(&mockProjectRepo{byUser: map[string][]*models.Project{}})

	rec := httptest.NewRecorder()
	h.List(rec, sessionRequest("GET", "/api/projects", ""))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	if !strings.Contains(rec.Body.String(), `"data":[]`) {
		t.Errorf("body = %s, want empty data array", rec.Body.String())
	}
}

func TestCreate(t *testing.T) {
	repo := &mockProjectRepo{}
	h := NewHandler(repo)

	rec := httptest.NewRecorder()
	h.Create(rec, sessionRequest("POST", "/api/projects", `{"name":"checkout"}`))

	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want %d: %s", rec.Code, http.StatusCreated, rec.Body.String())
	}
	if len(repo.created) != 1 {
		t.Fatalf("created = %d projects, want 1", len(repo.created))
	}
	if repo.created[0].UserID != "user-1" {
		t.Errorf("UserID = %q, want user-1", repo.created[0].UserID)
	}
	if repo.created[0].APIKey == "" {
		t.Error("created project has no API key")
	}
}

func TestCreate_SanitizesName(t *testing.T) {
	repo := &mockProjectRepo{}
	h := NewHandler(repo)

	rec := httptest.NewRecorder()
	h.Create(rec, sessionRequest("POST", "/api/projects", `{"name":"  <b>checkout</b>  "}`))

	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusCreated)
	}
	if repo.created[0].Name != "checkout" {
		t.Errorf("name = %q, want %q", repo.created[0].Name, "checkout")
	}
}

func TestCreate_NameRequired(t *testing.T) {
	repo := &mockProjectRepo{}
	h := NewHandler(repo)

	tests := []struct {
		name string
		body string
	}{
		{"missing", `{}`},
		{"blank", `{"name":"   "}`},
		{"tags only", `{"name":"<script></script>"}`},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			h.Create(rec, sessionRequest("POST", "/api/projects", tc.body))

			if rec.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want %d", rec.Code, http.StatusBadRequest)
			}
		})
	}

	if len(repo.created) != 0 {
		t.Errorf("created = %d projects, want 0", len(repo.created))
	}
}

func TestDelete(t *testing.T) {
	repo := &mockProjectRepo{byUser: map[string][]*models.Project{
		"user-1": {{ID: "proj-1", UserID: "user-1"}},
	}}
	h := NewHandler(repo)

	req := withURLParam(sessionRequest("DELETE", "/api/projects/proj-1", ""), "id", "proj-1")
	rec := httptest.NewRecorder()
	h.Delete(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusNoContent)
	}
	if len(repo.deleted) != 1 {
		t.Errorf("deleted = %v, want [proj-1]", repo.deleted)
	}
}

func TestDelete_NotOwnedLooksLikeMissing(t *testing.T) {
	// proj-1 belongs to another user: the response must be 404, not 403.
	repo := &mockProjectRepo{byUser: map[string][]*models.Project{
		"user-2": {{ID: "proj-1", UserID: "user-2"}},
	}}
	h := NewHandler(repo)

	req := withURLParam(sessionRequest("DELETE", "/api/projects/proj-1", ""), "id", "proj-1")
	rec := httptest.NewRecorder()
	h.Delete(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusNotFound)
	}
}

func TestRotateKey(t *testing.T) {
	repo := &mockProjectRepo{rotated: &models.Project{
		ID: "proj-1", UserID: "user-1", Name: "checkout", APIKey: "new-key",
	}}
	h := NewHandler(repo)

	req := withURLParam(sessionRequest("POST", "/api/projects/proj-1/rotate-key", ""), "id", "proj-1")
	rec := httptest.NewRecorder()
	h.RotateKey(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}

	var resp ProjectResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.APIKey != "new-key" {
		t.Errorf("api_key = %q, want new-key", resp.APIKey)
	}
}

func TestRotateKey_NotOwned(t *testing.T) {
	h := NewHandler(&mockProjectRepo{})

	req := withURLParam(sessionRequest("POST", "/api/projects/proj-9/rotate-key", ""), "id", "proj-9")
	rec := httptest.NewRecorder()
	h.RotateKey(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusNotFound)
	}
}

func TestUnauthenticated(t *testing.T) {
	h := NewHandler(&mockProjectRepo{})

	rec := httptest.NewRecorder()
	h.List(rec, httptest.NewRequest("GET", "/api/projects", nil))

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusUnauthorized)
	}
}
