// Package ingest implements validation, sanitization, and persistence of
// error event batches, plus scope-aware querying of stored events.
package ingest

import (
	"context"
	"fmt"
	"time"

	"github.com/spectraops/spectraops/internal/metrics"
	"github.com/spectraops/spectraops/internal/models"
	"github.com/spectraops/spectraops/internal/sanitize"
	"github.com/spectraops/spectraops/internal/storage"
)

// MaxBatchSize is the largest accepted batch. Batches outside [1, 100] are
// rejected before any item is examined.
const MaxBatchSize = 100

// Payload is a raw error event as submitted by an SDK client.
type Payload struct {
	Message     string `json:"message"`
	Stack       string `json:"stack,omitempty"`
	SourceURL   string `json:"source_url,omitempty"`
	UserAgent   string `json:"user_agent,omitempty"`
	Environment string `json:"environment,omitempty"`
	Severity    string `json:"severity,omitempty"`
	Timestamp   string `json:"timestamp,omitempty"`
}

// ValidationError describes a schema violation in a submitted payload.
// Index is -1 for batch-level violations (empty or oversized batches).
type ValidationError struct {
	Index  int
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Index < 0 {
		return e.Reason
	}
	return fmt.Sprintf("item %d: %s", e.Index, e.Reason)
}

// Service validates, sanitizes, and persists error events.
type Service struct {
	events storage.EventRepository
}

// NewService creates a new ingestion service.
func NewService(events storage.EventRepository) *Service {
	return &Service{events: events}
}

// IngestOne validates and persists a single event for the given project.
// Returns the persisted event with its assigned ID and receive timestamp.
func (s *Service) IngestOne(ctx context.Context, projectID string, payload Payload) (*models.ErrorEvent, error) {
	event, err := buildEvent(projectID, payload)
	if err != nil {
		return nil, err
	}

	if err := s.events.Insert(ctx, event); err != nil {
		metrics.StorageErrors.WithLabelValues("insert").Inc()
		return nil, fmt.Errorf("persist event: %w", err)
	}

	return event, nil
}

// IngestBatch validates and persists a batch of events for the given
// project. Validation is fail-fast: any invalid item rejects the entire
// batch before persistence, and the storage write is a single transaction,
// so either every item is committed or none are. Returns the accepted count.
func (s *Service) IngestBatch(ctx context.Context, projectID string, payloads []Payload) (int, error) {
	if len(payloads) == 0 {
		return 0, &ValidationError{Index: -1, Reason: "batch must contain at least one error"}
	}
	if len(payloads) > MaxBatchSize {
		return 0, &ValidationError{Index: -1, Reason: fmt.Sprintf("batch exceeds %d errors", MaxBatchSize)}
	}

	events := make([]*models.ErrorEvent, len(payloads))
	for i, payload := range payloads {
		event, err := buildEvent(projectID, payload)
		if err != nil {
			if verr, ok := err.(*ValidationError); ok {
				verr.Index = i
			}
			return 0, err
		}
		events[i] = event
	}

	if err := s.events.InsertBatch(ctx, events); err != nil {
		// Constraint violations surfacing from the storage layer were not
		// caught by schema validation and are storage faults, not
		// validation failures.
		metrics.StorageErrors.WithLabelValues("insert_batch").Inc()
		return 0, fmt.Errorf("persist batch: %w", err)
	}

	return len(events), nil
}

// buildEvent validates and sanitizes a payload into a persistable event.
func buildEvent(projectID string, payload Payload) (*models.ErrorEvent, error) {
	message := sanitize.Strip(payload.Message)
	if message == "" {
		return nil, &ValidationError{Index: -1, Reason: "message is required"}
	}

	environment := models.EnvProduction
	if payload.Environment != "" {
		environment = models.Environment(payload.Environment)
		if !models.ValidEnvironment(environment) {
			return nil, &ValidationError{Index: -1, Reason: fmt.Sprintf("invalid environment %q", payload.Environment)}
		}
	}

	severity := models.SeverityError
	if payload.Severity != "" {
		severity = models.Severity(payload.Severity)
		if !models.ValidSeverity(severity) {
			return nil, &ValidationError{Index: -1, Reason: fmt.Sprintf("invalid severity %q", payload.Severity)}
		}
	}

	var clientTS *time.Time
	if payload.Timestamp != "" {
		ts, err := time.Parse(time.RFC3339, payload.Timestamp)
		if err != nil {
			return nil, &ValidationError{Index: -1, Reason: "timestamp must be RFC3339"}
		}
		clientTS = &ts
	}

	return &models.ErrorEvent{
		ProjectID:       projectID,
		Message:         message,
		Stack:           sanitize.Strip(payload.Stack),
		SourceURL:       payload.SourceURL,
		UserAgent:       payload.UserAgent,
		Environment:     environment,
		Severity:        severity,
		ClientTimestamp: clientTS,
	}, nil
}
