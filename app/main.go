package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/feedpress/feedpress/app/api"
	"github.com/feedpress/feedpress/app/cfg"
	"github.com/feedpress/feedpress/app/database"
	"github.com/feedpress/feedpress/app/feed"
	"github.com/feedpress/feedpress/app/queue"
	"github.com/feedpress/feedpress/app/tasks"
)

func main() {
	appCfg, err := cfg.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	if appCfg == nil {
		// Help was shown, exit gracefully
		return
	}

	logLevel := slog.LevelInfo
	if appCfg.Debug {
		logLevel = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel})))

	slog.Info("Starting FeedPress server", "version", appCfg.Version)

	db, err := database.NewConnection(appCfg.DBPath)
	if err != nil {
		slog.Error("Failed to open database", "path", appCfg.DBPath, "error", err)
		os.Exit(1)
	}
	defer db.Close()

	version, dirty, err := database.RunMigrations(db)
	if err != nil {
		slog.Error("Failed to run migrations", "error", err)
		os.Exit(1)
	}
	slog.Info("Database ready", "path", appCfg.DBPath, "schema_version", version, "dirty", dirty)

	definitionCache := feed.NewDefinitionCache(appCfg.FeedsDir)
	if err := definitionCache.Run(); err != nil {
		slog.Error("Failed to load feed definitions", "dir", appCfg.FeedsDir, "error", err)
		os.Exit(1)
	}
	slog.Info("Feed definitions loaded", "count", definitionCache.GetDefinitionCount())

	feedRepo := database.NewFeedRepository(db)
	entryRepo := database.NewEntryRepository(db)

	adapter := queue.NewAdapter(queue.NewMemoryClient())
	if _, err := adapter.CreateQueue(context.Background(), tasks.NotificationQueue); err != nil {
		slog.Error("Failed to create notification queue", "error", err)
		os.Exit(1)
	}

	renderer := feed.NewRenderer()
	httpClient := &http.Client{Timeout: 30 * time.Second}

	scheduler := tasks.NewScheduler(definitionCache, feedRepo, entryRepo, adapter, renderer, httpClient)
	scheduler.Start()
	defer scheduler.Stop()
	slog.Info("Background scheduler started", "workers", appCfg.WorkerCount, "interval_seconds", appCfg.SchedulerInterval)

	apiHandler := api.NewHandler(definitionCache, feedRepo, entryRepo, scheduler)
	server := api.NewServer(apiHandler, appCfg.APIAccessKey)

	httpServer := &http.Server{
		Addr:         ":" + appCfg.Port,
		Handler:      server,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	serverErrChan := make(chan error, 1)
	go func() {
		slog.Info("HTTP server listening", "port", appCfg.Port)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErrChan <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		slog.Info("Received shutdown signal", "signal", sig.String())
	case err := <-serverErrChan:
		slog.Error("Server error", "error", err)
	}

	slog.Info("Shutting down gracefully...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		slog.Error("HTTP server shutdown error", "error", err)
	}

	// Scheduler is stopped via defer
	slog.Info("Shutdown complete")
}
