/*
main.go - Application entry point

PURPOSE:
  Initializes and starts the dosing reconciliation server. Handles
  configuration, dependency injection, and graceful shutdown.

STARTUP SEQUENCE:
  1. Parse command-line flags, load the YAML config if one is named
  2. Initialize logging
  3. Open the configured store (sqlite, postgres or memory)
  4. Create API handler and router
  5. Start the snapshot refresher
  6. Start server with graceful shutdown

COMMAND-LINE FLAGS:
  -config  YAML configuration file (optional; defaults apply without one)
  -addr    Listen address override (default from config, ":8080")
  -db      SQLite database path override
           Use ":memory:" for a throwaway on-disk-free database

GRACEFUL SHUTDOWN:
  On SIGINT/SIGTERM:
  1. Stop accepting new connections
  2. Wait for active requests to complete (30s timeout)
  3. Stop the snapshot refresher
  4. Close the store
  5. Exit

EXAMPLES:
  # Run with defaults (SQLite at ./data/dosing.db)
  ./server

  # Run against a config file
  ./server -config=/etc/dosing/config.yaml

  # Run with an in-memory store on another port
  ./server -db=":memory:" -addr=":3000"

SEE ALSO:
  - config/config.go: File format and defaults
  - api/server.go: Router configuration
  - api/refresher.go: Background snapshot refresh
*/
package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/clearwater/dosing-engine/api"
	"github.com/clearwater/dosing-engine/config"
	"github.com/clearwater/dosing-engine/dosing"
	memstore "github.com/clearwater/dosing-engine/dosing/store"
	"github.com/clearwater/dosing-engine/logging"
	"github.com/clearwater/dosing-engine/store/postgres"
	"github.com/clearwater/dosing-engine/store/sqlite"
)

func main() {
	// Flags
	configPath := flag.String("config", "", "YAML configuration file")
	addr := flag.String("addr", "", "listen address override")
	dbPath := flag.String("db", "", "SQLite database path override")
	flag.Parse()

	// Configuration
	cfg := config.Default()
	if *configPath != "" {
		loaded, err := config.Load(*configPath)
		if err != nil {
			logging.Fatalf("Failed to load config: %v", err)
		}
		cfg = loaded
	}
	if *addr != "" {
		cfg.ListenAddr = *addr
	}
	if *dbPath != "" {
		cfg.Database.Driver = config.DriverSQLite
		cfg.Database.DSN = *dbPath
	}

	if err := logging.Init(cfg.Debug); err != nil {
		logging.Fatalf("Failed to initialize logging: %v", err)
	}
	defer logging.Sync()

	// Initialize store
	st, err := openStore(cfg.Database)
	if err != nil {
		logging.Fatalf("Failed to initialize database: %v", err)
	}
	defer st.Close()

	// Initialize handler and router
	handler := api.NewHandler(st)
	router := api.NewRouter(handler, api.RouterConfig{CORSOrigins: cfg.CORSOrigins})

	// Background snapshot refresh
	refresher := api.NewSnapshotRefresher(st)
	refresher.Interval = cfg.Refresher.Interval.Duration()
	refresher.Enabled = cfg.Refresher.Enabled
	refresher.Start()

	// Create server
	server := &http.Server{
		Addr:         cfg.ListenAddr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		logging.Infof("🚀 Server starting on %s", cfg.ListenAddr)
		logging.Infof("📊 API available at %s/api", cfg.ListenAddr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logging.Fatalf("Server failed: %v", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logging.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logging.Fatalf("Server forced to shutdown: %v", err)
	}
	refresher.Stop()

	logging.Info("Server stopped")
}

// openStore builds the storage backend the configuration names.
func openStore(db config.Database) (dosing.Store, error) {
	switch db.Driver {
	case config.DriverPostgres:
		return postgres.New(context.Background(), db.DSN)
	case config.DriverMemory:
		return memstore.NewMemory(), nil
	default:
		return sqlite.New(db.DSN)
	}
}
