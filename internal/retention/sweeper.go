// Package retention prunes aged-out error events and expired sessions on
// fixed intervals.
package retention

import (
	"context"
	"log"
	"time"

	"github.com/spectraops/spectraops/internal/metrics"
	"github.com/spectraops/spectraops/internal/storage"
)

// Defaults for sweep cadence and event age.
const (
	DefaultEventInterval   = time.Hour
	DefaultEventMaxAge     = 90 * 24 * time.Hour
	DefaultSessionInterval = 15 * time.Minute
)

// EventSweeper periodically deletes events older than the retention horizon.
type EventSweeper struct {
	events   storage.EventRepository
	interval time.Duration
	maxAge   time.Duration
}

// NewEventSweeper creates an event sweeper. Non-positive interval or maxAge
// fall back to the defaults.
func NewEventSweeper(events storage.EventRepository, interval, maxAge time.Duration) *EventSweeper {
	if interval <= 0 {
		interval = DefaultEventInterval
	}
	if maxAge <= 0 {
		maxAge = DefaultEventMaxAge
	}
	return &EventSweeper{events: events, interval: interval, maxAge: maxAge}
}

// Run sweeps on the configured interval until the context is canceled.
// A failed sweep is logged and retried on the next tick; it never stops
// the loop.
func (s *EventSweeper) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	log.Printf("event retention sweeper started (interval %v, max age %v)", s.interval, s.maxAge)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			s.Sweep(ctx)
		}
	}
}

// Sweep performs one retention pass.
func (s *EventSweeper) Sweep(ctx context.Context) {
	cutoff := time.Now().Add(-s.maxAge)

	pruned, err := s.events.DeleteBefore(ctx, cutoff)
	if err != nil {
		metrics.RetentionSweepErrors.Inc()
		log.Printf("event retention sweep failed: %v", err)
		return
	}
	if pruned > 0 {
		metrics.RetentionPrunedTotal.Add(float64(pruned))
		log.Printf("event retention sweep pruned %d events", pruned)
	}
}

// SessionSweeper periodically deletes expired dashboard sessions. Expired
// sessions are already unusable; sweeping only reclaims table space.
type SessionSweeper struct {
	sessions storage.SessionRepository
	interval time.Duration
}

// NewSessionSweeper creates a session sweeper.
func NewSessionSweeper(sessions storage.SessionRepository, interval time.Duration) *SessionSweeper {
	if interval <= 0 {
		interval = DefaultSessionInterval
	}
	return &SessionSweeper{sessions: sessions, interval: interval}
}

// Run sweeps on the configured interval until the context is canceled.
func (s *SessionSweeper) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	log.Printf("session sweeper started (interval %v)", s.interval)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			s.Sweep(ctx)
		}
	}
}

// Sweep performs one expired-session pass.
func (s *SessionSweeper) Sweep(ctx context.Context) {
	deleted, err := s.sessions.DeleteExpired(ctx)
	if err != nil {
		log.Printf("session sweep failed: %v", err)
		return
	}
	if deleted > 0 {
		log.Printf("session sweep removed %d expired sessions", deleted)
	}
}
