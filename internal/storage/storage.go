// Package storage provides database storage interfaces and implementations.
package storage

import (
	"context"
	"database/sql"
	"time"

	"github.com/spectraops/spectraops/internal/models"
)

// Storage is the main interface for database operations.
type Storage interface {
	// Open initializes the database connection.
	Open() error
	// Close closes the database connection.
	Close() error
	// Migrate runs database migrations.
	Migrate() error
	// DB returns the underlying connection for health checks.
	DB() *sql.DB

	// Repository accessors
	Users() UserRepository
	Projects() ProjectRepository
	Sessions() SessionRepository
	Events() EventRepository
}

// UserRepository defines operations for dashboard user management.
type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	List(ctx context.Context) ([]*models.User, error)
	UpdatePassword(ctx context.Context, id, passwordHash string) error
}

// ProjectRepository defines operations for project management.
type ProjectRepository interface {
	Create(ctx context.Context, project *models.Project) error
	GetByID(ctx context.Context, id string) (*models.Project, error)
	// GetByAPIKey resolves a project from an SDK API key. Returns nil
	// without error when no project holds the key.
	GetByAPIKey(ctx context.Context, apiKey string) (*models.Project, error)
	ListByUser(ctx context.Context, userID string) ([]*models.Project, error)
	// DeleteOwned deletes a project only when owned by userID. The owner
	// check is part of the DELETE statement; returns false when zero rows
	// were affected.
	DeleteOwned(ctx context.Context, id, userID string) (bool, error)
	// RotateKey atomically replaces the API key of a project owned by
	// userID. Returns nil without error when the project is not owned by
	// the caller.
	RotateKey(ctx context.Context, id, userID string) (*models.Project, error)
}

// SessionRepository defines operations for dashboard sessions.
type SessionRepository interface {
	Create(ctx context.Context, session *models.Session) error
	// GetValid returns the session and its owning user, requiring
	// expires_at > now. Returns nils without error on miss or expiry.
	GetValid(ctx context.Context, token string) (*models.Session, *models.User, error)
	Delete(ctx context.Context, token string) error
	// DeleteForUser revokes every session belonging to userID.
	DeleteForUser(ctx context.Context, userID string) error
	DeleteExpired(ctx context.Context) (int64, error)
}

// EventRepository defines operations for error event persistence.
type EventRepository interface {
	// Insert persists a single event, assigning ID and ReceivedAt.
	Insert(ctx context.Context, event *models.ErrorEvent) error
	// InsertBatch persists all events in a single transaction. On any
	// failure no rows are committed.
	InsertBatch(ctx context.Context, events []*models.ErrorEvent) error
	// ListByProject returns a newest-first page of events for one project
	// plus the total matching count.
	ListByProject(ctx context.Context, projectID string, limit, offset int) ([]*models.ErrorEvent, int64, error)
	// ListByOwner returns a newest-first page of events across all
	// projects owned by userID plus the total matching count.
	ListByOwner(ctx context.Context, userID string, limit, offset int) ([]*models.ErrorEvent, int64, error)
	// DeleteBefore removes events received before the cutoff, returning
	// the number of pruned rows.
	DeleteBefore(ctx context.Context, before time.Time) (int64, error)
}
