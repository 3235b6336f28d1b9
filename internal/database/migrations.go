package database

import (
	"context"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/sirupsen/logrus"
)

// MigrationRunner applies the evaluation-history schema from the SQL files
// under the migrations directory. It wraps golang-migrate with logging; the
// DDL itself lives in migrations/*.sql.
type MigrationRunner struct {
	m   *migrate.Migrate
	log *logrus.Logger
}

// NewMigrationRunner points golang-migrate at migrationsPath and the target
// database. The runner holds its own connection; Close releases it.
func NewMigrationRunner(databaseURL, migrationsPath string, logger *logrus.Logger) (*MigrationRunner, error) {
	m, err := migrate.New("file://"+migrationsPath, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("initializing migration runner: %w", err)
	}
	return &MigrationRunner{m: m, log: logger}, nil
}

// Up applies every pending migration. An already-current schema is not an
// error.
func (mr *MigrationRunner) Up(ctx context.Context) error {
	mr.log.Info("Applying schema migrations")

	switch err := mr.m.Up(); {
	case errors.Is(err, migrate.ErrNoChange):
		mr.log.Info("Schema already current")
		return nil
	case err != nil:
		return fmt.Errorf("applying migrations: %w", err)
	}

	mr.logVersion("Schema migrated")
	return nil
}

// Down rolls back the most recent migration.
func (mr *MigrationRunner) Down(ctx context.Context) error {
	mr.log.Info("Rolling back last schema migration")

	switch err := mr.m.Steps(-1); {
	case errors.Is(err, migrate.ErrNoChange):
		mr.log.Info("Nothing to roll back")
		return nil
	case err != nil:
		return fmt.Errorf("rolling back migration: %w", err)
	}

	mr.logVersion("Schema rolled back")
	return nil
}

// Version reports the current schema version and whether a failed migration
// left it dirty.
func (mr *MigrationRunner) Version() (uint, bool, error) {
	return mr.m.Version()
}

// Close releases the runner's source and database handles.
func (mr *MigrationRunner) Close() error {
	sourceErr, dbErr := mr.m.Close()
	if err := errors.Join(sourceErr, dbErr); err != nil {
		return fmt.Errorf("closing migration runner: %w", err)
	}
	return nil
}

// logVersion records the schema version after a successful run; failing to
// read it back is only worth a warning.
func (mr *MigrationRunner) logVersion(msg string) {
	version, dirty, err := mr.m.Version()
	if err != nil {
		mr.log.WithError(err).Warn("Could not read schema version")
		return
	}
	mr.log.WithFields(logrus.Fields{"version": version, "dirty": dirty}).Info(msg)
}
