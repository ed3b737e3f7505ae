package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Harshitk-cp/clubledger/internal/auth"
	"github.com/Harshitk-cp/clubledger/internal/config"
	"github.com/Harshitk-cp/clubledger/internal/domain"
	"github.com/Harshitk-cp/clubledger/internal/events"
	"github.com/Harshitk-cp/clubledger/internal/importer"
	"github.com/Harshitk-cp/clubledger/internal/logging"
	"github.com/Harshitk-cp/clubledger/internal/monitoring"
	"github.com/Harshitk-cp/clubledger/internal/service"
	"github.com/Harshitk-cp/clubledger/internal/store"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

var errNoDatabase = errors.New("DATABASE_URL is required")

// inlinePublisher delivers events synchronously. The CLI runs no bus
// workers, so provisioning finishes before the command exits.
type inlinePublisher struct {
	bus *events.Bus
}

func (p inlinePublisher) Publish(ctx context.Context, ev domain.Event) error {
	return p.bus.Dispatch(ctx, ev)
}

func newLogger() *zap.Logger {
	logger, err := logging.New(config.LogLevel())
	if err != nil {
		return zap.NewNop()
	}
	return logger
}

func openRuntime(ctx context.Context) (*runtime, error) {
	_ = config.Load()
	logger := newLogger()

	dbURL := config.DatabaseURL()
	if dbURL == "" {
		return nil, errNoDatabase
	}

	reporter, _, err := monitoring.NewReporter(monitoring.SentryConfig{
		DSN:         config.SentryDSN(),
		Environment: config.SentryEnvironment(),
	})
	if err != nil {
		logger.Warn("sentry init failed, continuing without error tracking", zap.Error(err))
	}

	pool, err := pgxpool.New(ctx, dbURL)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	tenantStore := store.NewTenantStore(pool)
	userStore := store.NewUserStore(pool)

	bus := events.NewBus(events.Options{MaxAttempts: 1}, logger, reporter, nil)
	pub := inlinePublisher{bus: bus}

	dir := service.NewDirectoryService(tenantStore, store.NewMembershipStore(pool), logger)
	roles := service.NewRoleService(store.NewRoleStore(pool), dir, config.DefaultGuard(), reporter, nil, logger)
	wallets := service.NewWalletService(store.NewWalletStore(pool), dir, nil, logger)
	tokens := auth.NewTokenIssuer(config.JWTSecret(), time.Duration(config.JWTTTLHours())*time.Hour)
	users := service.NewUserService(userStore, dir, tokens, pub, logger)

	service.NewProvisioner(dir, userStore, roles, wallets, logger).Register(bus)

	return &runtime{
		backfill: service.NewBackfillService(dir, wallets, logger),
		importer: importer.New(users, reporter, nil, logger),
		tenants:  dir,
		logger:   logger,
		close: func() {
			pool.Close()
			reporter.Flush(2 * time.Second)
			_ = logger.Sync()
		},
	}, nil
}
