package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/spectraops/spectraops/internal/api"
	"github.com/spectraops/spectraops/internal/metrics"
	"github.com/spectraops/spectraops/internal/retention"
	"github.com/spectraops/spectraops/internal/storage"
	"github.com/spectraops/spectraops/pkg/config"
)

var (
	configFile string
	httpAddr   string
	verbose    bool
)

var rootCmd = &cobra.Command{
	Use:   "spectraops-server",
	Short: "SpectraOps Server - Error tracking ingestion and query API",
	Long: `SpectraOps Server receives error events from SDK clients, stores
them per project, and serves the dashboard query and management API.`,
	RunE: runServer,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("spectraops-server %s\n", config.Version)
		fmt.Printf("  commit: %s\n", config.Commit)
		fmt.Printf("  built:  %s\n", config.BuildTime)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "config file path (optional)")
	rootCmd.PersistentFlags().StringVarP(&httpAddr, "address", "a", "", "HTTP listen address (default :8080)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")

	rootCmd.AddCommand(versionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func runServer(cmd *cobra.Command, args []string) error {
	var cfg *Config

	if configFile != "" {
		var err error
		cfg, err = LoadConfig(configFile)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
	} else {
		cfg = DefaultConfig()
	}

	// Override with CLI flags
	if httpAddr != "" {
		cfg.Server.Address = httpAddr
	}
	cfg.Verbose = verbose

	sessionTTL, err := cfg.SessionTTL()
	if err != nil {
		return fmt.Errorf("parse session ttl: %w", err)
	}
	rateWindow, err := cfg.RateLimitWindow()
	if err != nil {
		return fmt.Errorf("parse rate limit window: %w", err)
	}
	sweepInterval, err := cfg.SweepInterval()
	if err != nil {
		return fmt.Errorf("parse sweep interval: %w", err)
	}

	// Auto-create data directory
	dbDir := filepath.Dir(cfg.Database.Path)
	if err := os.MkdirAll(dbDir, 0750); err != nil {
		return fmt.Errorf("create data directory: %w", err)
	}

	// Initialize storage
	store := storage.NewSQLiteStorage(cfg.Database.Path, cfg.Database.MaxOpenConns)
	if err := store.Open(); err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer store.Close()

	if err := store.Migrate(); err != nil {
		return fmt.Errorf("migrate database: %w", err)
	}

	log.Printf("database initialized at %s", cfg.Database.Path)

	metrics.SetBuildInfo(config.Version, config.Commit, config.BuildTime)

	apiCfg := &api.Config{
		Address:         cfg.Server.Address,
		RateLimitMax:    cfg.RateLimit.Max,
		RateLimitWindow: rateWindow,
		CORSOrigins:     cfg.Server.CORSOrigins,
		TrustProxy:      cfg.Server.TrustProxy,
		SessionTTL:      sessionTTL,
		Verbose:         cfg.Verbose,
	}
	srv, err := api.New(apiCfg, store)
	if err != nil {
		return fmt.Errorf("create server: %w", err)
	}

	eventSweeper := retention.NewEventSweeper(store.Events(), sweepInterval, cfg.EventMaxAge())
	sessionSweeper := retention.NewSessionSweeper(store.Sessions(), retention.DefaultSessionInterval)

	// Setup signal handling
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigChan
		log.Printf("received signal %v, shutting down...", sig)
		cancel()
	}()

	log.Printf("starting spectraops-server %s", config.Version)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return srv.Run(gctx) })
	g.Go(func() error { return eventSweeper.Run(gctx) })
	g.Go(func() error { return sessionSweeper.Run(gctx) })

	if err := g.Wait(); err != nil && err != context.Canceled {
		return fmt.Errorf("run server: %w", err)
	}

	log.Printf("server stopped")
	return nil
}
