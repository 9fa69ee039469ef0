package middleware

import (
	"context"
	"log"
	"net/http"
	"strings"

	"github.com/spectraops/spectraops/internal/api/respond"
	"github.com/spectraops/spectraops/internal/storage"
)

// Context keys for storing the resolved scope.
type contextKey string

const scopeKey contextKey = "scope"

// ScopeKind tags the resolved authorization context.
type ScopeKind int

const (
	// ScopeProject grants access to exactly one project, resolved from an
	// SDK API key.
	ScopeProject ScopeKind = iota
	// ScopeUser grants access across all projects owned by a dashboard
	// user, resolved from a session token.
	ScopeUser
)

// Scope is the resolved authorization context attached to authenticated
// requests. Requests without a scope in context are unauthenticated.
type Scope struct {
	Kind      ScopeKind
	ProjectID string // set for ScopeProject
	UserID    string // set for ScopeUser
	Email     string // set for ScopeUser
}

// GetScope returns the resolved scope from context.
func GetScope(ctx context.Context) (Scope, bool) {
	if v := ctx.Value(scopeKey); v != nil {
		if s, ok := v.(Scope); ok {
			return s, true
		}
	}
	return Scope{}, false
}

// WithScope returns a context carrying the given scope. Exported for
// handler tests that bypass the middleware chain.
func WithScope(ctx context.Context, scope Scope) context.Context {
	return context.WithValue(ctx, scopeKey, scope)
}

// bearerToken extracts the token from an "Authorization: Bearer x" header,
// returning "" when the header is absent or not bearer-shaped.
func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return parts[1]
}

// RequireAPIKey returns middleware that authenticates SDK requests via the
// x-api-key header against the projects table. A missing key and an
// unknown key fail differently so SDK misconfiguration is debuggable
// without revealing whether a given key exists.
func RequireAPIKey(projects storage.ProjectRepository) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			apiKey := r.Header.Get("x-api-key")
			if apiKey == "" {
				respond.Error(w, http.StatusUnauthorized, respond.CodeUnauthorized, "Missing x-api-key header")
				return
			}

			project, err := projects.GetByAPIKey(r.Context(), apiKey)
			if err != nil {
				log.Printf("api key lookup failed for %s: %v", r.RemoteAddr, err)
				respond.Error(w, http.StatusInternalServerError, respond.CodeInternalError, "Auth lookup failed")
				return
			}
			if project == nil {
				respond.Error(w, http.StatusForbidden, respond.CodeForbidden, "Invalid API key")
				return
			}

			scope := Scope{Kind: ScopeProject, ProjectID: project.ID}
			next.ServeHTTP(w, r.WithContext(WithScope(r.Context(), scope)))
		})
	}
}

// RequireSession returns middleware that authenticates dashboard requests
// via a bearer session token, requiring an unexpired session joined to its
// owning user.
func RequireSession(sessions storage.SessionRepository) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := bearerToken(r)
			if token == "" {
				respond.Error(w, http.StatusUnauthorized, respond.CodeUnauthorized, "Authentication required")
				return
			}

			session, user, err := sessions.GetValid(r.Context(), token)
			if err != nil {
				log.Printf("session lookup failed for %s: %v", r.RemoteAddr, err)
				respond.Error(w, http.StatusInternalServerError, respond.CodeInternalError, "Session validation failed")
				return
			}
			if session == nil {
				respond.Error(w, http.StatusUnauthorized, respond.CodeUnauthorized, "Session expired or invalid")
				return
			}

			scope := Scope{Kind: ScopeUser, UserID: user.ID, Email: user.Email}
			next.ServeHTTP(w, r.WithContext(WithScope(r.Context(), scope)))
		})
	}
}

// DualAuth returns middleware for endpoints serving both SDK clients and
// the dashboard. A bearer credential selects the session strategy
// (interactive dashboard); otherwise the API-key strategy applies
// (autonomous SDK). A request carrying neither is rejected by the API-key
// branch as missing credentials.
func DualAuth(projects storage.ProjectRepository, sessions storage.SessionRepository) func(http.Handler) http.Handler {
	apiKeyAuth := RequireAPIKey(projects)
	sessionAuth := RequireSession(sessions)

	return func(next http.Handler) http.Handler {
		viaAPIKey := apiKeyAuth(next)
		viaSession := sessionAuth(next)

		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if bearerToken(r) != "" {
				viaSession.ServeHTTP(w, r)
				return
			}
			viaAPIKey.ServeHTTP(w, r)
		})
	}
}
