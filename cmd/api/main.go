package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/timmy/medloader/internal/api"
	"github.com/timmy/medloader/internal/config"
	"github.com/timmy/medloader/internal/directory"
	"github.com/timmy/medloader/internal/logger"
	"github.com/timmy/medloader/internal/service"
	"github.com/timmy/medloader/internal/store"
)

func main() {
	// Load configuration
	// Support CONFIG_PATH environment variable for production deployments
	configPath := os.Getenv("CONFIG_PATH")
	cfg, err := config.Load(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log := logger.NewDefault()
	logger.SetDefault(log)
	defer logger.Sync()

	// Initialize the Hospital Directory API client
	client := directory.NewClient(&directory.Config{
		BaseURL:        cfg.Upstream.BaseURL,
		TimeoutSeconds: cfg.Upstream.TimeoutSeconds,
	})

	// Initialize batch tracking and the bulk service
	batches := store.New()
	bulkService := service.NewBulkService(client, batches, log, &service.BulkConfig{
		RowLimit: cfg.Bulk.BatchSizeLimit,
	})

	// Setup router
	router := api.SetupRouter(bulkService, batches, cfg)

	// Create HTTP server
	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: router,
	}

	// Start server in goroutine
	go func() {
		log.WithFields(logger.Fields{
			"port": cfg.Server.Port,
			"mode": cfg.Server.Mode,
		}).Info("Starting API server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.WithError(err).Fatal("Failed to start server")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server...")

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Fatal("Server forced to shutdown")
	}

	log.Info("Server exited")
}
