package ingest

import (
	"context"
	"fmt"

	"github.com/spectraops/spectraops/internal/models"
)

// Pagination defaults and bounds for event queries.
const (
	DefaultPage  = 1
	DefaultLimit = 50
	MaxLimit     = 100
)

// Page is one window of query results plus pagination metadata.
type Page struct {
	Events     []*models.ErrorEvent
	Page       int
	Limit      int
	Total      int64
	TotalPages int
}

// QueryProject returns a newest-first page of events belonging to one
// project. A page beyond the last returns an empty window, not an error.
func (s *Service) QueryProject(ctx context.Context, projectID string, page, limit int) (*Page, error) {
	page, limit = clampWindow(page, limit)

	events, total, err := s.events.ListByProject(ctx, projectID, limit, (page-1)*limit)
	if err != nil {
		return nil, fmt.Errorf("query project events: %w", err)
	}

	return newPage(events, page, limit, total), nil
}

// QueryOwner returns a newest-first page of events across every project
// owned by the given user.
func (s *Service) QueryOwner(ctx context.Context, userID string, page, limit int) (*Page, error) {
	page, limit = clampWindow(page, limit)

	events, total, err := s.events.ListByOwner(ctx, userID, limit, (page-1)*limit)
	if err != nil {
		return nil, fmt.Errorf("query owner events: %w", err)
	}

	return newPage(events, page, limit, total), nil
}

func clampWindow(page, limit int) (int, int) {
	if page < 1 {
		page = DefaultPage
	}
	if limit < 1 {
		limit = DefaultLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}
	return page, limit
}

func newPage(events []*models.ErrorEvent, page, limit int, total int64) *Page {
	totalPages := int((total + int64(limit) - 1) / int64(limit))
	return &Page{
		Events:     events,
		Page:       page,
		Limit:      limit,
		Total:      total,
		TotalPages: totalPages,
	}
}
