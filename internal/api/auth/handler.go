// Package auth provides dashboard authentication: registration, login,
// logout, and session introspection.
package auth

import (
	"encoding/json"
	"log"
	"net/http"
	"net/mail"
	"strings"
	"time"

	"github.com/spectraops/spectraops/internal/api/middleware"
	"github.com/spectraops/spectraops/internal/api/respond"
	"github.com/spectraops/spectraops/internal/metrics"
	"github.com/spectraops/spectraops/internal/models"
	"github.com/spectraops/spectraops/internal/storage"
)

// DefaultSessionTTL bounds how long a dashboard login stays valid.
const DefaultSessionTTL = 24 * time.Hour

// Handler handles dashboard authentication endpoints.
type Handler struct {
	users      storage.UserRepository
	sessions   storage.SessionRepository
	sessionTTL time.Duration
}

// NewHandler creates a new auth handler.
func NewHandler(users storage.UserRepository, sessions storage.SessionRepository, sessionTTL time.Duration) *Handler {
	if sessionTTL <= 0 {
		sessionTTL = DefaultSessionTTL
	}
	return &Handler{users: users, sessions: sessions, sessionTTL: sessionTTL}
}

// Request and response types

type CredentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type UserResponse struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

type SessionResponse struct {
	Token string       `json:"token"`
	User  UserResponse `json:"user"`
}

type MeResponse struct {
	User UserResponse `json:"user"`
}

func validEmail(email string) bool {
	addr, err := mail.ParseAddress(email)
	return err == nil && addr.Address == email
}

func (h *Handler) issueSession(w http.ResponseWriter, r *http.Request, user *models.User, status int) {
	session, err := models.NewSession(user.ID, h.sessionTTL)
	if err != nil {
		log.Printf("session generation failed: %v", err)
		respond.Error(w, http.StatusInternalServerError, respond.CodeInternalError, "Internal server error")
		return
	}
	if err := h.sessions.Create(r.Context(), session); err != nil {
		log.Printf("session insert failed: %v", err)
		respond.Error(w, http.StatusInternalServerError, respond.CodeInternalError, "Internal server error")
		return
	}

	metrics.SessionsIssued.Inc()
	respond.JSON(w, status, SessionResponse{
		Token: session.Token,
		User:  UserResponse{ID: user.ID, Email: user.Email},
	})
}

// Register handles POST /api/auth/register.
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req CredentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.Error(w, http.StatusBadRequest, respond.CodeBadRequest, "Invalid JSON body")
		return
	}

	req.Email = strings.TrimSpace(req.Email)
	if !validEmail(req.Email) {
		respond.Error(w, http.StatusBadRequest, respond.CodeValidationFailed, "Valid email is required")
		return
	}
	if err := ValidatePassword(req.Password); err != nil {
		respond.Error(w, http.StatusBadRequest, respond.CodeValidationFailed, err.Error())
		return
	}

	existing, err := h.users.GetByEmail(r.Context(), req.Email)
	if err != nil {
		log.Printf("register lookup failed: %v", err)
		respond.Error(w, http.StatusInternalServerError, respond.CodeInternalError, "Registration failed")
		return
	}
	if existing != nil {
		respond.Error(w, http.StatusConflict, respond.CodeConflict, "User already exists")
		return
	}

	hash, err := HashPassword(req.Password)
	if err != nil {
		log.Printf("password hash failed: %v", err)
		respond.Error(w, http.StatusInternalServerError, respond.CodeInternalError, "Registration failed")
		return
	}

	user := models.NewUser(req.Email, hash)
	if err := h.users.Create(r.Context(), user); err != nil {
		log.Printf("user insert failed: %v", err)
		respond.Error(w, http.StatusInternalServerError, respond.CodeInternalError, "Registration failed")
		return
	}

	log.Printf("user registered: %s", user.Email)
	h.issueSession(w, r, user, http.StatusCreated)
}

// Login handles POST /api/auth/login. Unknown email and wrong password
// produce the same response so accounts cannot be enumerated.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req CredentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.Error(w, http.StatusBadRequest, respond.CodeBadRequest, "Invalid JSON body")
		return
	}

	user, err := h.users.GetByEmail(r.Context(), strings.TrimSpace(req.Email))
	if err != nil {
		log.Printf("login lookup failed: %v", err)
		respond.Error(w, http.StatusInternalServerError, respond.CodeInternalError, "Login failed")
		return
	}
	if user == nil || !CheckPassword(req.Password, user.PasswordHash) {
		metrics.AuthAttemptsTotal.WithLabelValues("failure").Inc()
		respond.Error(w, http.StatusUnauthorized, respond.CodeUnauthorized, "Invalid credentials")
		return
	}

	metrics.AuthAttemptsTotal.WithLabelValues("success").Inc()
	log.Printf("user logged in: %s", user.Email)
	h.issueSession(w, r, user, http.StatusOK)
}

// Logout handles POST /api/auth/logout. Session deletion is best-effort:
// a missing or already-deleted token still logs the client out.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	header := r.Header.Get("Authorization")
	if token, ok := strings.CutPrefix(header, "Bearer "); ok && token != "" {
		if err := h.sessions.Delete(r.Context(), token); err != nil {
			log.Printf("logout delete failed: %v", err)
		}
	}
	respond.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Me handles GET /api/auth/me. The session middleware has already
// validated the token; this just reflects the authenticated user.
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	scope, ok := middleware.GetScope(r.Context())
	if !ok || scope.Kind != middleware.ScopeUser {
		respond.Error(w, http.StatusUnauthorized, respond.CodeUnauthorized, "Authentication required")
		return
	}
	respond.JSON(w, http.StatusOK, MeResponse{User: UserResponse{ID: scope.UserID, Email: scope.Email}})
}
