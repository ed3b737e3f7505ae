package store

import (
	"embed"
	"errors"
	"fmt"
	"strings"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"go.uber.org/zap"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Migrate applies every pending migration embedded in the binary.
func Migrate(databaseURL string, logger *zap.Logger) error {
	src, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("failed loading embedded migrations: %w", err)
	}

	m, err := migrate.NewWithSourceInstance("iofs", src, migrateURL(databaseURL))
	if err != nil {
		return fmt.Errorf("failed initializing db migration: %w", err)
	}
	defer func() { _, _ = m.Close() }()

	ver, dirty, err := m.Version()
	if err != nil && !errors.Is(err, migrate.ErrNilVersion) {
		return fmt.Errorf("failed obtaining db migration version: %w", err)
	}
	if dirty {
		return fmt.Errorf("database is in a dirty state at version %d, requires manual intervention", ver)
	}
	logger.Info("loaded migration version", zap.Uint("version", ver), zap.Bool("nil_version", errors.Is(err, migrate.ErrNilVersion)))

	err = m.Up()
	switch {
	case err == nil, errors.Is(err, migrate.ErrNoChange):
		logger.Info("processed db migration", zap.Bool("no_change", errors.Is(err, migrate.ErrNoChange)))
		return nil
	default:
		return fmt.Errorf("failed running db migration: %w", err)
	}
}

// migrateURL rewrites a postgres:// DSN to the scheme registered by the
// golang-migrate pgx/v5 driver.
func migrateURL(databaseURL string) string {
	for _, prefix := range []string{"postgres://", "postgresql://"} {
		if strings.HasPrefix(databaseURL, prefix) {
			return "pgx5://" + strings.TrimPrefix(databaseURL, prefix)
		}
	}
	return databaseURL
}
