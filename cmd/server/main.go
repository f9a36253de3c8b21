package main

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/dgallion1/mintaro/internal/api"
	"github.com/dgallion1/mintaro/internal/config"
	"github.com/dgallion1/mintaro/internal/pathstore"
	"github.com/dgallion1/mintaro/internal/session"
	"github.com/dgallion1/mintaro/internal/sink"
)

func main() {
	cfg := config.Load()

	level, err := config.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = slog.LevelInfo
	}
	var out io.Writer = os.Stdout
	if cfg.LogFile != "" {
		lj := &lumberjack.Logger{
			Filename:   cfg.LogFile,
			MaxSize:    10, // MB
			MaxBackups: 3,
			MaxAge:     7, // days
			Compress:   true,
		}
		defer lj.Close()
		out = lj
	}
	log := slog.New(slog.NewJSONHandler(out, &slog.HandlerOptions{Level: level}))

	if err := cfg.Validate(); err != nil {
		log.Error("invalid configuration", "error", err)
		os.Exit(1)
	}
	defaults, err := cfg.EditorDefaults()
	if err != nil {
		log.Error("invalid editor config", "path", cfg.EditorConfig, "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize the document sink.
	stats := sink.NewStats(cfg.StatsWindow, nil)
	var store sink.Sink = sink.NewMemory()
	var ps *pathstore.Client
	if cfg.PathstoreURL != "" {
		ps = pathstore.NewClient(cfg.PathstoreURL, cfg.PathstoreAPIKey)
		store = sink.NewRetrying(sink.NewPathstore(ps, sink.DefaultPrefix, log), cfg.SaveRetries, log)
	} else {
		log.Warn("PATHSTORE_URL not set, saved documents are kept in memory")
	}
	store = sink.NewMeasured(store, stats)

	// Initialize sessions.
	sessions := session.NewManager(session.Config{
		TTL:         cfg.SessionTTL,
		MaxSessions: cfg.MaxSessions,
		Defaults:    defaults,
		Sink:        store,
		Logger:      log,
	})
	sessions.Start(ctx, cfg.JanitorInterval)

	// Initialize HTTP server.
	srv := api.NewServer(sessions, stats, log, cfg)

	httpServer := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      srv,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown.
	stopped := make(chan struct{})
	go func() {
		defer close(stopped)
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		log.Info("shutting down...")

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		httpServer.Shutdown(shutdownCtx)

		sessions.Stop()
		if ps != nil {
			ps.Close()
		}
	}()

	log.Info("starting mintaro", "port", cfg.Port, "level", level.String())
	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Error("server error", "error", err)
		os.Exit(1)
	}
	<-stopped
}
