package postgres

import (
	"embed"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	"github.com/golang-migrate/migrate/v4/source/iofs"

	"github.com/verdantio/plotproof/internal/config"
	"github.com/verdantio/plotproof/internal/infrastructure/monitoring/logging"
	"github.com/verdantio/plotproof/pkg/errors"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Migrator applies the embedded schema migrations.
type Migrator struct {
	m      *migrate.Migrate
	logger logging.Logger
}

// NewMigrator builds a migrator against the configured database.
func NewMigrator(cfg config.DatabaseConfig, log logging.Logger) (*Migrator, error) {
	src, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeInternal, "failed to read embedded migrations")
	}
	m, err := migrate.NewWithSourceInstance("iofs", src, "pgx5://"+trimScheme(DSN(cfg)))
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to initialize migrator")
	}
	return &Migrator{m: m, logger: log.Named("migrator")}, nil
}

// Up applies all pending migrations.  An already current schema is not an
// error.
func (mg *Migrator) Up() error {
	err := mg.m.Up()
	if err == migrate.ErrNoChange {
		mg.logger.Info("schema already up to date")
		return nil
	}
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeDatabaseError, "migration failed")
	}
	version, _, _ := mg.m.Version()
	mg.logger.Info("schema migrated", logging.Int("version", int(version)))
	return nil
}

// Down rolls back a single migration step.
func (mg *Migrator) Down() error {
	if err := mg.m.Steps(-1); err != nil {
		return errors.Wrap(err, errors.ErrCodeDatabaseError, "rollback failed")
	}
	return nil
}

// Close releases the migrator's own database handle.
func (mg *Migrator) Close() error {
	srcErr, dbErr := mg.m.Close()
	if srcErr != nil {
		return srcErr
	}
	return dbErr
}

// trimScheme drops the postgres:// prefix so the pgx5 migrate driver scheme
// can replace it.
func trimScheme(dsn string) string {
	const prefix = "postgres://"
	if len(dsn) > len(prefix) && dsn[:len(prefix)] == prefix {
		return dsn[len(prefix):]
	}
	return dsn
}
