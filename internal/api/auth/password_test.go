package auth

import (
	"strings"
	"testing"
)

func TestValidatePassword(t *testing.T) {
	tests := []struct {
		name     string
		password string
		wantErr  bool
		wantMsg  string
	}{
		{"valid", "Sup3rsecret", false, ""},
		{"too short", "Ab1", true, "at least 8 characters"},
		{"no uppercase", "lowercase1", true, "uppercase"},
		{"no lowercase", "UPPERCASE1", true, "lowercase"},
		{"no digit", "NoDigitsHere", true, "digit"},
		{"empty", "", true, "at least 8 characters"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := ValidatePassword(tc.password)
			if tc.wantErr && err == nil {
				t.Fatal("expected error, got nil")
			}
			if !tc.wantErr && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if tc.wantMsg != "" && !strings.Contains(err.Error(), tc.wantMsg) {
				t.Errorf("error = %q, want it to mention %q", err.Error(), tc.wantMsg)
			}
		})
	}
}

func TestValidatePassword_CollectsAllFailures(t *testing.T) {
	err := ValidatePassword("abc")
	if err == nil {
		t.Fatal("expected error, got nil")
	}
	verr, ok := err.(*PasswordValidationError)
	if !ok {
		t.Fatalf("error type = %T, want *PasswordValidationError", err)
	}
	if len(verr.Messages) != 3 {
		t.Errorf("messages = %d (%v), want 3", len(verr.Messages), verr.Messages)
	}
}

func TestHashAndCheckPassword(t *testing.T) {
	hash, err := HashPassword("Sup3rsecret")
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	if hash == "Sup3rsecret" {
		t.Fatal("hash equals plaintext")
	}
	if !CheckPassword("Sup3rsecret", hash) {
		t.Error("correct password rejected")
	}
	if CheckPassword("wrong", hash) {
		t.Error("wrong password accepted")
	}
}
