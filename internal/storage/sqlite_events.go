package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/spectraops/spectraops/internal/models"
)

// sqliteEventRepo implements EventRepository using SQLite.
type sqliteEventRepo struct {
	db *sql.DB
}

const eventColumns = `id, project_id, message, stack, source_url, user_agent,
	environment, severity, client_timestamp, received_at`

const insertEventQuery = `
	INSERT INTO events (id, project_id, message, stack, source_url, user_agent,
		environment, severity, client_timestamp, received_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
`

// Insert persists a single event, assigning ID and ReceivedAt.
func (r *sqliteEventRepo) Insert(ctx context.Context, event *models.ErrorEvent) error {
	stampEvent(event)

	if _, err := r.db.ExecContext(ctx, insertEventQuery, eventArgs(event)...); err != nil {
		return fmt.Errorf("insert event: %w", err)
	}

	return nil
}

// InsertBatch persists all events within a single transaction. Any failure
// rolls back the whole batch so no partial state is committed.
func (r *sqliteEventRepo) InsertBatch(ctx context.Context, events []*models.ErrorEvent) error {
	if len(events) == 0 {
		return nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin batch insert: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, insertEventQuery)
	if err != nil {
		tx.Rollback()
		return fmt.Errorf("prepare batch insert: %w", err)
	}
	defer stmt.Close()

	for _, event := range events {
		stampEvent(event)
		if _, err := stmt.ExecContext(ctx, eventArgs(event)...); err != nil {
			tx.Rollback()
			return fmt.Errorf("insert event in batch: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit batch insert: %w", err)
	}

	return nil
}

// ListByProject returns one page of events for a project, newest first,
// plus the total matching count.
func (r *sqliteEventRepo) ListByProject(ctx context.Context, projectID string, limit, offset int) ([]*models.ErrorEvent, int64, error) {
	var total int64
	err := r.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM events WHERE project_id = ?",
		projectID,
	).Scan(&total)
	if err != nil {
		return nil, 0, fmt.Errorf("count events: %w", err)
	}

	query := fmt.Sprintf(`
		SELECT %s FROM events
		WHERE project_id = ?
		ORDER BY received_at DESC, id DESC
		LIMIT ? OFFSET ?
	`, eventColumns)

	rows, err := r.db.QueryContext(ctx, query, projectID, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("query events: %w", err)
	}
	defer rows.Close()

	events, err := scanEvents(rows)
	if err != nil {
		return nil, 0, err
	}

	return events, total, nil
}

// ListByOwner returns one page of events across all projects owned by a
// user, newest first, plus the total matching count.
func (r *sqliteEventRepo) ListByOwner(ctx context.Context, userID string, limit, offset int) ([]*models.ErrorEvent, int64, error) {
	var total int64
	err := r.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM events e
		JOIN projects p ON e.project_id = p.id
		WHERE p.user_id = ?
	`, userID).Scan(&total)
	if err != nil {
		return nil, 0, fmt.Errorf("count events: %w", err)
	}

	query := fmt.Sprintf(`
		SELECT %s FROM events e
		JOIN projects p ON e.project_id = p.id
		WHERE p.user_id = ?
		ORDER BY e.received_at DESC, e.id DESC
		LIMIT ? OFFSET ?
	`, eventColumnsPrefixed("e"))

	rows, err := r.db.QueryContext(ctx, query, userID, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("query events: %w", err)
	}
	defer rows.Close()

	events, err := scanEvents(rows)
	if err != nil {
		return nil, 0, err
	}

	return events, total, nil
}

// DeleteBefore removes events received before the cutoff.
func (r *sqliteEventRepo) DeleteBefore(ctx context.Context, before time.Time) (int64, error) {
	result, err := r.db.ExecContext(ctx,
		"DELETE FROM events WHERE received_at < ?",
		before,
	)
	if err != nil {
		return 0, fmt.Errorf("delete old events: %w", err)
	}

	return result.RowsAffected()
}

// stampEvent assigns the persist-time fields.
func stampEvent(event *models.ErrorEvent) {
	if event.ID == "" {
		event.ID = uuid.New().String()
	}
	if event.ReceivedAt.IsZero() {
		event.ReceivedAt = time.Now()
	}
}

func eventArgs(event *models.ErrorEvent) []any {
	var projectID any
	if event.ProjectID != "" {
		projectID = event.ProjectID
	}

	var clientTS any
	if event.ClientTimestamp != nil {
		clientTS = *event.ClientTimestamp
	}

	return []any{
		event.ID,
		projectID,
		event.Message,
		nullable(event.Stack),
		nullable(event.SourceURL),
		nullable(event.UserAgent),
		string(event.Environment),
		string(event.Severity),
		clientTS,
		event.ReceivedAt,
	}
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func scanEvents(rows *sql.Rows) ([]*models.ErrorEvent, error) {
	var events []*models.ErrorEvent
	for rows.Next() {
		var e models.ErrorEvent
		var projectID, stack, sourceURL, userAgent sql.NullString
		var clientTS sql.NullTime

		err := rows.Scan(
			&e.ID,
			&projectID,
			&e.Message,
			&stack,
			&sourceURL,
			&userAgent,
			&e.Environment,
			&e.Severity,
			&clientTS,
			&e.ReceivedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}

		e.ProjectID = projectID.String
		e.Stack = stack.String
		e.SourceURL = sourceURL.String
		e.UserAgent = userAgent.String
		if clientTS.Valid {
			e.ClientTimestamp = &clientTS.Time
		}

		events = append(events, &e)
	}

	return events, rows.Err()
}

func eventColumnsPrefixed(alias string) string {
	return fmt.Sprintf(`%[1]s.id, %[1]s.project_id, %[1]s.message, %[1]s.stack,
	%[1]s.source_url, %[1]s.user_agent, %[1]s.environment, %[1]s.severity,
	%[1]s.client_timestamp, %[1]s.received_at`, alias)
}
