package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Harshitk-cp/clubledger/internal/api"
	"github.com/Harshitk-cp/clubledger/internal/buildconfig"
	"github.com/Harshitk-cp/clubledger/internal/config"
	"github.com/Harshitk-cp/clubledger/internal/logging"
	"github.com/Harshitk-cp/clubledger/internal/metrics"
	"github.com/Harshitk-cp/clubledger/internal/monitoring"
	"github.com/Harshitk-cp/clubledger/internal/store"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

func main() {
	_ = config.Load()

	logger, err := logging.New(config.LogLevel())
	if err != nil {
		logger = zap.Must(zap.NewProduction())
	}
	defer func() { _ = logger.Sync() }()

	dbURL := config.DatabaseURL()
	if dbURL == "" {
		logger.Fatal("DATABASE_URL is required")
	}

	reporter, sentryOn, err := monitoring.NewReporter(monitoring.SentryConfig{
		DSN:         config.SentryDSN(),
		Environment: config.SentryEnvironment(),
	})
	if err != nil {
		logger.Error("sentry init failed, continuing without error tracking", zap.Error(err))
	}
	defer reporter.Flush(2 * time.Second)

	if config.AutoMigrate() {
		if err := store.Migrate(dbURL, logger); err != nil {
			reporter.Capture(context.Background(), err, map[string]string{"phase": "migrate"})
			logger.Fatal("failed to migrate database", zap.Error(err))
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pool, err := pgxpool.New(ctx, dbURL)
	if err != nil {
		logger.Fatal("failed to connect to database", zap.Error(err))
	}
	defer pool.Close()

	if err := pool.Ping(ctx); err != nil {
		logger.Fatal("failed to ping database", zap.Error(err))
	}
	logger.Info("connected to database",
		zap.String("version", buildconfig.Version()),
		zap.Bool("sentry", sentryOn))

	app := api.NewApp(ctx, pool, reporter, metrics.New(), logger)
	app.Bus.Start(ctx)

	addr := config.ServerAddr()
	srv := &http.Server{
		Addr:              addr,
		Handler:           app.Router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		logger.Info("server starting", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server failed", zap.Error(err))
		}
	}()

	<-quit
	logger.Info("shutting down server")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", zap.Error(err))
	}

	// Drain queued provisioning events after no new requests can publish.
	app.Bus.Stop()
	cancel()

	logger.Info("server stopped")
}
