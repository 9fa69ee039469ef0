package models

import (
	"crypto/rand"
	"encoding/base64"
	"time"
)

// Session represents a time-bounded proof of dashboard authentication.
// The token is opaque and stored as-is; sessions are never mutated, only
// created and deleted.
type Session struct {
	Token     string    `json:"token"`
	UserID    string    `json:"user_id"`
	ExpiresAt time.Time `json:"expires_at"`
	CreatedAt time.Time `json:"created_at"`
}

// NewSession creates a Session for the given user with a generated token.
// The token carries 256 bits of entropy encoded as base64url.
func NewSession(userID string, ttl time.Duration) (*Session, error) {
	tokenBytes := make([]byte, 32)
	if _, err := rand.Read(tokenBytes); err != nil {
		return nil, err
	}

	now := time.Now()
	return &Session{
		Token:     base64.RawURLEncoding.EncodeToString(tokenBytes),
		UserID:    userID,
		ExpiresAt: now.Add(ttl),
		CreatedAt: now,
	}, nil
}

// IsExpired returns true if the session has expired.
func (s *Session) IsExpired() bool {
	return !time.Now().Before(s.ExpiresAt)
}

// IsValid returns true if the session has not expired.
func (s *Session) IsValid() bool {
	return !s.IsExpired()
}
