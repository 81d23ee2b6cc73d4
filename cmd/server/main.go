package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/zaphodtime-a11y/multi-agent-relay/internal/api"
	"github.com/zaphodtime-a11y/multi-agent-relay/internal/blob"
	"github.com/zaphodtime-a11y/multi-agent-relay/internal/config"
	"github.com/zaphodtime-a11y/multi-agent-relay/internal/handlers"
	"github.com/zaphodtime-a11y/multi-agent-relay/internal/relay"
	"github.com/zaphodtime-a11y/multi-agent-relay/internal/store"
)

func main() {
	// Load configuration
	cfg := config.Load()

	// Initialize logger
	var logger zerolog.Logger
	if cfg.IsDevelopment() {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}).
			With().
			Timestamp().
			Logger()
	} else {
		logger = zerolog.New(os.Stdout).
			With().
			Timestamp().
			Logger()
	}

	ctx := context.Background()

	// Initialize the message store: Postgres when configured, SQLite
	// otherwise
	var msgStore store.MessageStore
	if cfg.DatabaseURL != "" {
		pgStore, err := store.NewPostgresStore(ctx, cfg.DatabaseURL)
		if err != nil {
			logger.Fatal().Err(err).Msg("postgres connection failed")
		}
		msgStore = pgStore
		logger.Info().Msg("connected to PostgreSQL")
	} else {
		sqliteStore, err := store.NewSQLiteStore(ctx, cfg.SQLitePath)
		if err != nil {
			logger.Fatal().Err(err).Msg("sqlite open failed")
		}
		msgStore = sqliteStore
		logger.Info().Str("path", cfg.SQLitePath).Msg("opened SQLite store")
	}
	defer msgStore.Close()

	// Initialize blob storage for uploaded files
	blobs, err := blob.NewFilesystemStore(cfg.BlobDir)
	if err != nil {
		logger.Fatal().Err(err).Msg("blob store init failed")
	}

	// Relay core
	core := relay.New(msgStore, logger, relay.Options{
		HistoryLimit:     cfg.HistoryLimit,
		QueueLimit:       cfg.QueueLimit,
		HandshakeTimeout: cfg.HandshakeTimeout,
	})
	defer core.Close()

	bridge := relay.NewFileBridge(msgStore, blobs, core.Router(), logger)

	// Create router
	h := handlers.NewHandler(core, bridge, msgStore, logger, cfg.WriteTimeout)
	router := api.NewRouter(logger, h)

	// Create server. No global read/write timeouts: websocket sessions
	// are long-lived.
	srv := &http.Server{
		Addr:        ":" + cfg.Port,
		Handler:     router,
		IdleTimeout: 60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		logger.Info().
			Str("port", cfg.Port).
			Str("env", cfg.Env).
			Msg("starting multi-agent relay server")

		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server failed to start")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("shutting down server...")

	// Close live sessions, then drain HTTP with a 30 second timeout
	core.Close()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Fatal().Err(err).Msg("server forced to shutdown")
	}

	logger.Info().Msg("server stopped")
}
