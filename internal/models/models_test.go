package models

import (
	"testing"
	"time"
)

func TestValidSeverity(t *testing.T) {
	valid := []Severity{SeverityInfo, SeverityWarning, SeverityError, SeverityFatal}
	for _, s := range valid {
		if !ValidSeverity(s) {
			t.Errorf("ValidSeverity(%q) = false, want true", s)
		}
	}

	invalid := []Severity{"", "critical", "debug", "ERROR"}
	for _, s := range invalid {
		if ValidSeverity(s) {
			t.Errorf("ValidSeverity(%q) = true, want false", s)
		}
	}
}

func TestValidEnvironment(t *testing.T) {
	valid := []Environment{EnvDevelopment, EnvStaging, EnvProduction}
	for _, e := range valid {
		if !ValidEnvironment(e) {
			t.Errorf("ValidEnvironment(%q) = false, want true", e)
		}
	}

	invalid := []Environment{"", "prod", "test", "Production"}
	for _, e := range invalid {
		if ValidEnvironment(e) {
			t.Errorf("ValidEnvironment(%q) = true, want false", e)
		}
	}
}

func TestNewSession(t *testing.T) {
	sess, err := NewSession("user-1", 24*time.Hour)
	if err != nil {
		t.Fatalf("NewSession failed: %v", err)
	}

	if sess.Token == "" {
		t.Error("token should not be empty")
	}
	// 32 random bytes base64url-encoded without padding is 43 characters
	if len(sess.Token) != 43 {
		t.Errorf("token length = %d, want 43", len(sess.Token))
	}
	if sess.UserID != "user-1" {
		t.Errorf("user ID = %q, want user-1", sess.UserID)
	}
	if !sess.IsValid() {
		t.Error("fresh session should be valid")
	}

	// Tokens must be unique
	other, err := NewSession("user-1", 24*time.Hour)
	if err != nil {
		t.Fatalf("NewSession failed: %v", err)
	}
	if other.Token == sess.Token {
		t.Error("two sessions should not share a token")
	}
}

func TestSessionExpiry(t *testing.T) {
	sess := &Session{
		Token:     "t",
		UserID:    "u",
		ExpiresAt: time.Now().Add(-time.Second),
		CreatedAt: time.Now().Add(-time.Hour),
	}

	if !sess.IsExpired() {
		t.Error("past-expiry session should report expired")
	}
	if sess.IsValid() {
		t.Error("expired session should not be valid")
	}
}

func TestNewProject(t *testing.T) {
	p := NewProject("web-frontend", "user-1")

	if p.Name != "web-frontend" {
		t.Errorf("name = %q", p.Name)
	}
	if p.UserID != "user-1" {
		t.Errorf("user ID = %q", p.UserID)
	}
	if p.APIKey == "" {
		t.Error("API key should be generated")
	}
	if p.CreatedAt.IsZero() {
		t.Error("created_at should be set")
	}

	other := NewProject("api", "user-1")
	if other.APIKey == p.APIKey {
		t.Error("two projects should not share an API key")
	}
}
