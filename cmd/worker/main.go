// Package main implements the VitalSync worker: it runs the task queue
// dispatcher, the wearable sync engine, and the ops HTTP surface in one
// process.
package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/evermore-health/vitalsync/internal/api"
	"github.com/evermore-health/vitalsync/internal/config"
	"github.com/evermore-health/vitalsync/internal/domain"
	"github.com/evermore-health/vitalsync/internal/metrics"
	"github.com/evermore-health/vitalsync/internal/platform/logger"
	"github.com/evermore-health/vitalsync/internal/platform/postgres"
	"github.com/evermore-health/vitalsync/internal/platform/whoop"
	"github.com/evermore-health/vitalsync/internal/service/token"
	"github.com/evermore-health/vitalsync/internal/sync"
	"github.com/evermore-health/vitalsync/internal/task"
	"github.com/evermore-health/vitalsync/internal/worker"
	"github.com/joho/godotenv"

	_ "github.com/jackc/pgx/v5/stdlib"
)

func main() {
	if err := run(); err != nil {
		log.Fatalf("worker exited: %v", err)
	}
}

func run() error {
	// Optional .env for local development; real deployments set the
	// environment directly.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	logr := logger.Setup(cfg.Server.LogLevel)
	logr.Info("worker starting",
		"port", cfg.Server.Port,
		"log_level", cfg.Server.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := sql.Open("pgx", cfg.Database.URL)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer func() {
		_ = db.Close()
	}()

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(30 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		return fmt.Errorf("failed to reach database: %w", err)
	}

	if err := postgres.RunMigrations(ctx, db, logr); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	// Stores.
	taskStore := postgres.NewPostgresTaskStore(db)
	integrationStore := postgres.NewPostgresIntegrationStore(db)
	recordStores := sync.RecordStores{
		Cycles:           postgres.NewPostgresCycleStore(db),
		Workouts:         postgres.NewPostgresWorkoutStore(db),
		Sleeps:           postgres.NewPostgresSleepStore(db),
		Recoveries:       postgres.NewPostgresRecoveryStore(db),
		BodyMeasurements: postgres.NewPostgresBodyMeasurementStore(db),
	}

	// Provider access.
	whoopClient, err := whoop.NewClient(logr, cfg.Whoop)
	if err != nil {
		return fmt.Errorf("failed to create provider client: %w", err)
	}

	tokenManager, err := token.NewOAuthManager(integrationStore, cfg.Whoop, logr)
	if err != nil {
		return fmt.Errorf("failed to create token manager: %w", err)
	}

	// Sync engine and queue handlers.
	engine, err := sync.NewEngine(
		whoopClient,
		tokenManager,
		integrationStore,
		recordStores,
		cfg.Sync,
		logr,
	)
	if err != nil {
		return fmt.Errorf("failed to create sync engine: %w", err)
	}

	registry := task.NewRegistry()
	if err := registry.Register(task.QueueSync, sync.NewTaskHandler(taskStore, integrationStore, engine)); err != nil {
		return fmt.Errorf("failed to register sync handler: %w", err)
	}
	if err := registry.Register(task.QueueNotifications, worker.NewNotificationHandler(taskStore)); err != nil {
		return fmt.Errorf("failed to register notification handler: %w", err)
	}
	if err := registry.Register(task.QueueInsights, worker.NewInsightHandler(taskStore)); err != nil {
		return fmt.Errorf("failed to register insight handler: %w", err)
	}

	// Pre-register the per-family counters so every family exports as zero
	// before its first pass.
	for _, family := range domain.RecordFamilies() {
		metrics.RecordsFetched.WithLabelValues(string(family))
		metrics.RecordsUpserted.WithLabelValues(string(family))
		metrics.FamilyFailures.WithLabelValues(string(family))
	}

	dispatcher := task.NewDispatcher(taskStore, registry, task.DispatcherConfig{
		PollInterval: time.Duration(cfg.Worker.PollIntervalSeconds) * time.Second,
		ErrorBackoff: time.Duration(cfg.Worker.ErrorBackoffSeconds) * time.Second,
		TaskTimeout:  time.Duration(cfg.Worker.TaskTimeoutSeconds) * time.Second,
	}, logr)

	// Ops HTTP surface.
	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           api.NewRouter(db, logr),
		ReadHeaderTimeout: 5 * time.Second,
	}

	serverErrs := make(chan error, 1)
	go func() {
		logr.Info("ops server listening", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErrs <- err
		}
	}()

	dispatcher.Start()

	select {
	case <-ctx.Done():
		logr.Info("shutdown signal received")
	case err := <-serverErrs:
		logr.Error("ops server failed", "error", err)
	}

	// Let queue loops drain their in-flight task, then take down the ops
	// surface.
	dispatcher.Stop()

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelShutdown()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logr.Error("ops server shutdown failed", "error", err)
	}

	logr.Info("worker stopped")
	return nil
}
