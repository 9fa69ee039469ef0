package storage

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/spectraops/spectraops/internal/models"
)

// sqliteProjectRepo implements ProjectRepository using SQLite.
type sqliteProjectRepo struct {
	db *sql.DB
}

const projectColumns = "id, name, api_key, user_id, created_at"

// Create inserts a new project.
func (r *sqliteProjectRepo) Create(ctx context.Context, project *models.Project) error {
	if project.ID == "" {
		project.ID = uuid.New().String()
	}
	if project.APIKey == "" {
		project.APIKey = models.NewAPIKey()
	}

	query := `
		INSERT INTO projects (id, name, api_key, user_id, created_at)
		VALUES (?, ?, ?, ?, ?)
	`

	_, err := r.db.ExecContext(ctx, query,
		project.ID,
		project.Name,
		project.APIKey,
		project.UserID,
		project.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert project: %w", err)
	}

	return nil
}

// GetByID retrieves a project by ID.
func (r *sqliteProjectRepo) GetByID(ctx context.Context, id string) (*models.Project, error) {
	query := fmt.Sprintf("SELECT %s FROM projects WHERE id = ?", projectColumns)
	return r.scanOne(r.db.QueryRowContext(ctx, query, id))
}

// GetByAPIKey retrieves a project by its API key. An exact match is
// required; a miss returns nil without error.
func (r *sqliteProjectRepo) GetByAPIKey(ctx context.Context, apiKey string) (*models.Project, error) {
	query := fmt.Sprintf("SELECT %s FROM projects WHERE api_key = ?", projectColumns)
	return r.scanOne(r.db.QueryRowContext(ctx, query, apiKey))
}

// ListByUser retrieves all projects owned by a user, newest first.
func (r *sqliteProjectRepo) ListByUser(ctx context.Context, userID string) ([]*models.Project, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM projects
		WHERE user_id = ?
		ORDER BY created_at DESC
	`, projectColumns)

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("query projects: %w", err)
	}
	defer rows.Close()

	var projects []*models.Project
	for rows.Next() {
		var p models.Project
		if err := rows.Scan(&p.ID, &p.Name, &p.APIKey, &p.UserID, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan project: %w", err)
		}
		projects = append(projects, &p)
	}

	return projects, rows.Err()
}

// DeleteOwned deletes a project when owned by userID. The ownership check
// lives in the DELETE itself so an unowned ID deterministically affects
// zero rows instead of leaking existence.
func (r *sqliteProjectRepo) DeleteOwned(ctx context.Context, id, userID string) (bool, error) {
	result, err := r.db.ExecContext(ctx,
		"DELETE FROM projects WHERE id = ? AND user_id = ?",
		id, userID,
	)
	if err != nil {
		return false, fmt.Errorf("delete project: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}

	return rows > 0, nil
}

// RotateKey atomically replaces the API key of a project owned by userID.
// The old key is invalidated in the same statement that assigns the new
// one. Returns nil when the caller does not own the project.
func (r *sqliteProjectRepo) RotateKey(ctx context.Context, id, userID string) (*models.Project, error) {
	newKey := models.NewAPIKey()

	result, err := r.db.ExecContext(ctx,
		"UPDATE projects SET api_key = ? WHERE id = ? AND user_id = ?",
		newKey, id, userID,
	)
	if err != nil {
		return nil, fmt.Errorf("rotate api key: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("rows affected: %w", err)
	}
	if rows == 0 {
		return nil, nil
	}

	return r.GetByID(ctx, id)
}

func (r *sqliteProjectRepo) scanOne(row *sql.Row) (*models.Project, error) {
	var p models.Project
	err := row.Scan(&p.ID, &p.Name, &p.APIKey, &p.UserID, &p.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query project: %w", err)
	}
	return &p, nil
}
