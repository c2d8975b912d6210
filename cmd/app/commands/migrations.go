package commands

import (
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/mysql"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"

	"github.com/allisson/seedvault/internal/config"
	"github.com/allisson/seedvault/internal/database"
)

// ErrMigrationsNotApplicable is returned when the configured seed store has no schema.
var ErrMigrationsNotApplicable = errors.New("migrations only apply to the database seed store")

// RunMigrations creates or upgrades the otp_seeds schema under migrationsDir/{postgresql,mysql}.
// A schema that is already current is not an error.
func RunMigrations(logger *slog.Logger, cfg *config.Config, migrationsDir string) error {
	if cfg.SeedStore != config.SeedStoreDatabase {
		return fmt.Errorf("%w (SEED_STORE=%s)", ErrMigrationsNotApplicable, cfg.SeedStore)
	}

	var dialect string
	switch cfg.DBDriver {
	case database.DriverPostgres:
		dialect = "postgresql"
	case database.DriverMySQL:
		dialect = "mysql"
	default:
		return fmt.Errorf("%w: %q", database.ErrUnsupportedDriver, cfg.DBDriver)
	}

	sourceURL := "file://" + filepath.ToSlash(filepath.Join(migrationsDir, dialect))
	logger.Info("running database migrations",
		slog.String("driver", cfg.DBDriver),
		slog.String("source", sourceURL),
	)

	m, err := migrate.New(sourceURL, cfg.DBConnectionString)
	if err != nil {
		return fmt.Errorf("failed to create migrate instance: %w", err)
	}
	defer closeMigrate(m, logger)

	if err := m.Up(); err != nil {
		if !errors.Is(err, migrate.ErrNoChange) {
			return fmt.Errorf("failed to run migrations: %w", err)
		}
		logger.Info("schema already up to date")
	}

	version, dirty, err := m.Version()
	if err != nil && !errors.Is(err, migrate.ErrNilVersion) {
		return fmt.Errorf("failed to read schema version: %w", err)
	}

	logger.Info("migrations completed successfully",
		slog.Uint64("version", uint64(version)),
		slog.Bool("dirty", dirty),
	)
	return nil
}
