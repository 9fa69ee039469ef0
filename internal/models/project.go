package models

import (
	"time"

	"github.com/google/uuid"
)

// Project represents a tenant-scoping unit. Each project owns an API key
// used by SDK clients for ingestion and a set of error events.
type Project struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	APIKey    string    `json:"api_key"`
	UserID    string    `json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
}

// NewProject creates a Project with a freshly generated API key.
func NewProject(name, userID string) *Project {
	return &Project{
		Name:      name,
		APIKey:    NewAPIKey(),
		UserID:    userID,
		CreatedAt: time.Now(),
	}
}

// NewAPIKey generates an opaque project API key.
func NewAPIKey() string {
	return uuid.New().String()
}
