// Package api provides the HTTP REST API server.
package api

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/spectraops/spectraops/internal/api/middleware"
	"github.com/spectraops/spectraops/internal/ingest"
	"github.com/spectraops/spectraops/internal/storage"
)

// Config contains HTTP API server configuration.
type Config struct {
	Address         string
	RateLimitMax    int           // requests per window per client IP
	RateLimitWindow time.Duration // fixed window duration
	CORSOrigins     []string      // allowed dashboard origins; "*" allows any
	TrustProxy      bool          // honor X-Forwarded-For / X-Real-IP
	SessionTTL      time.Duration // dashboard session lifetime
	MaxBodyBytes    int64         // request body cap
	Verbose         bool
}

// SetDefaults applies default values for missing configuration.
func (c *Config) SetDefaults() {
	if c.Address == "" {
		c.Address = ":8080"
	}
	if c.RateLimitMax == 0 {
		c.RateLimitMax = 100 // 100 requests per minute per IP
	}
	if c.RateLimitWindow == 0 {
		c.RateLimitWindow = time.Minute
	}
	if c.SessionTTL == 0 {
		c.SessionTTL = 24 * time.Hour
	}
	if c.MaxBodyBytes == 0 {
		c.MaxBodyBytes = 256 << 10 // 256 KB
	}
}

// Server is the HTTP API server.
type Server struct {
	config  *Config
	storage storage.Storage
	ingest  *ingest.Service
	limiter *middleware.RateLimiter
	server  *http.Server
}

// New creates a new API server.
func New(cfg *Config, store storage.Storage) (*Server, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}
	if store == nil {
		return nil, fmt.Errorf("storage is required")
	}

	cfg.SetDefaults()

	s := &Server{
		config:  cfg,
		storage: store,
		ingest:  ingest.NewService(store.Events()),
		limiter: middleware.NewRateLimiter(cfg.RateLimitMax, cfg.RateLimitWindow),
	}

	router := s.setupRouter()

	s.server = &http.Server{
		Addr:         cfg.Address,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return s, nil
}

// Run starts the HTTP server and blocks until context is canceled.
func (s *Server) Run(ctx context.Context) error {
	errChan := make(chan error, 1)

	go func() {
		log.Printf("HTTP API listening on %s", s.config.Address)
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errChan <- err
		}
	}()

	select {
	case <-ctx.Done():
		log.Printf("shutting down HTTP API server...")
		s.limiter.Close()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return s.server.Shutdown(shutdownCtx)
	case err := <-errChan:
		s.limiter.Close()
		return err
	}
}

// Address returns the configured listen address.
func (s *Server) Address() string {
	return s.config.Address
}
