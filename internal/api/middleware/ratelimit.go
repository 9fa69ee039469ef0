package middleware

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/spectraops/spectraops/internal/api/respond"
	"github.com/spectraops/spectraops/internal/metrics"
)

// RateLimiter implements a fixed-window rate limiter keyed by client.
//
// Counters live in process memory: state resets on restart and is not
// shared across instances. Fleet-wide limits need an external store.
type RateLimiter struct {
	mu      sync.Mutex
	clients map[string]*clientRecord
	limit   int           // max requests per window
	window  time.Duration // window duration

	sweepInterval time.Duration
	stopCh        chan struct{}
	stopOnce      sync.Once
}

type clientRecord struct {
	count   int
	resetAt time.Time
}

// Decision reports the outcome of a rate-limit check.
type Decision struct {
	Allowed   bool
	Limit     int
	Remaining int
	ResetAt   time.Time
}

// NewRateLimiter creates a rate limiter allowing limit requests per window.
// A background sweep removes stale per-client records every five minutes
// until Close is called.
func NewRateLimiter(limit int, window time.Duration) *RateLimiter {
	if limit <= 0 {
		limit = 100
	}
	if window <= 0 {
		window = time.Minute
	}

	rl := &RateLimiter{
		clients:       make(map[string]*clientRecord),
		limit:         limit,
		window:        window,
		sweepInterval: 5 * time.Minute,
		stopCh:        make(chan struct{}),
	}

	go rl.sweepLoop()

	return rl
}

// Allow records a request for the given key and returns the decision along
// with the window metadata reported to clients.
func (rl *RateLimiter) Allow(key string) Decision {
	now := time.Now()

	rl.mu.Lock()
	defer rl.mu.Unlock()

	record, ok := rl.clients[key]
	if !ok || !record.resetAt.After(now) {
		record = &clientRecord{resetAt: now.Add(rl.window)}
		rl.clients[key] = record
	}

	record.count++

	remaining := rl.limit - record.count
	if remaining < 0 {
		remaining = 0
	}

	return Decision{
		Allowed:   record.count <= rl.limit,
		Limit:     rl.limit,
		Remaining: remaining,
		ResetAt:   record.resetAt,
	}
}

// Close stops the background sweep goroutine.
func (rl *RateLimiter) Close() {
	rl.stopOnce.Do(func() {
		close(rl.stopCh)
	})
}

// sweepLoop periodically removes expired client records to bound memory.
// The interval is independent of request traffic.
func (rl *RateLimiter) sweepLoop() {
	ticker := time.NewTicker(rl.sweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			rl.sweep(time.Now())
		case <-rl.stopCh:
			return
		}
	}
}

func (rl *RateLimiter) sweep(now time.Time) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	for key, record := range rl.clients {
		if !record.resetAt.After(now) {
			delete(rl.clients, key)
		}
	}
}

// RateLimitByIP returns middleware that rate limits by client IP and
// attaches the X-RateLimit-* headers to every response, throttled or not.
func RateLimitByIP(limiter *RateLimiter, trustProxy bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			decision := limiter.Allow(ClientIP(r, trustProxy))

			w.Header().Set("X-RateLimit-Limit", strconv.Itoa(decision.Limit))
			w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(decision.Remaining))
			w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(decision.ResetAt.Unix(), 10))

			if !decision.Allowed {
				metrics.RateLimitHits.Inc()
				respond.Error(w, http.StatusTooManyRequests, respond.CodeRateLimited, "Too many requests")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
