package storage

import (
	"context"
	"database/sql"
	"fmt"

	// Pure-Go SQLite driver.
	_ "modernc.org/sqlite"
)

// SQLiteStorage implements Storage using SQLite.
type SQLiteStorage struct {
	path         string
	maxOpenConns int
	db           *sql.DB

	users    *sqliteUserRepo
	projects *sqliteProjectRepo
	sessions *sqliteSessionRepo
	events   *sqliteEventRepo
}

// NewSQLiteStorage creates a new SQLite storage for the given database path.
// maxOpenConns bounds the connection pool; values below 1 fall back to a
// single connection (SQLite is single-writer).
func NewSQLiteStorage(path string, maxOpenConns int) *SQLiteStorage {
	if maxOpenConns < 1 {
		maxOpenConns = 1
	}
	return &SQLiteStorage{
		path:         path,
		maxOpenConns: maxOpenConns,
	}
}

// Open initializes the database connection.
func (s *SQLiteStorage) Open() error {
	ctx := context.Background()

	db, err := sql.Open("sqlite", s.path)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}

	// Set connection pool settings
	db.SetMaxOpenConns(s.maxOpenConns)
	db.SetMaxIdleConns(s.maxOpenConns)
	db.SetConnMaxLifetime(0) // Keep connections alive

	// Test connection
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return fmt.Errorf("ping database: %w", err)
	}

	// Enable foreign keys and WAL mode
	pragmas := []string{
		"PRAGMA foreign_keys = ON",
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			db.Close()
			return fmt.Errorf("execute %s: %w", pragma, err)
		}
	}

	s.db = db

	// Initialize repositories
	s.users = &sqliteUserRepo{db: db}
	s.projects = &sqliteProjectRepo{db: db}
	s.sessions = &sqliteSessionRepo{db: db}
	s.events = &sqliteEventRepo{db: db}

	return nil
}

// Close closes the database connection.
func (s *SQLiteStorage) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// DB returns the underlying database connection for health checks.
func (s *SQLiteStorage) DB() *sql.DB {
	return s.db
}

// Migrate runs database migrations.
func (s *SQLiteStorage) Migrate() error {
	return runMigrations(s.db)
}

// Users returns the user repository.
func (s *SQLiteStorage) Users() UserRepository {
	return s.users
}

// Projects returns the project repository.
func (s *SQLiteStorage) Projects() ProjectRepository {
	return s.projects
}

// Sessions returns the session repository.
func (s *SQLiteStorage) Sessions() SessionRepository {
	return s.sessions
}

// Events returns the event repository.
func (s *SQLiteStorage) Events() EventRepository {
	return s.events
}
