// internal/database/migration.go
package database

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"strings"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"go.uber.org/zap"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Migrator applies the embedded job index schema
type Migrator struct {
	db     *DB
	logger *zap.Logger
}

// NewMigrator creates a new migrator instance
func NewMigrator(db *DB, logger *zap.Logger) *Migrator {
	return &Migrator{
		db:     db,
		logger: logger.With(zap.String("component", "migrator")),
	}
}

// Up applies every pending migration and logs the resulting schema version
func (m *Migrator) Up() error {
	return m.run("up", (*migrate.Migrate).Up)
}

// Down rolls the job index schema back completely
func (m *Migrator) Down() error {
	return m.run("down", (*migrate.Migrate).Down)
}

// Version returns the current schema version. ok is false when no migration
// has been applied yet.
func (m *Migrator) Version() (version uint, dirty bool, ok bool, err error) {
	migrator, err := m.createMigrator()
	if err != nil {
		return 0, false, false, err
	}
	defer migrator.Close()

	return schemaVersion(migrator)
}

func (m *Migrator) run(direction string, apply func(*migrate.Migrate) error) error {
	migrator, err := m.createMigrator()
	if err != nil {
		return err
	}
	defer migrator.Close()

	if _, dirty, _, err := schemaVersion(migrator); err != nil {
		return err
	} else if dirty {
		return errors.New("job index schema is dirty, a previous migration failed halfway")
	}

	changed := true
	if err := apply(migrator); err != nil {
		if !errors.Is(err, migrate.ErrNoChange) {
			return fmt.Errorf("failed to migrate %s: %w", direction, err)
		}
		changed = false
	}

	version, _, ok, err := schemaVersion(migrator)
	if err != nil {
		return err
	}
	m.logger.Info("Job index schema migrated",
		zap.String("direction", direction),
		zap.Bool("changed", changed),
		zap.Uint("version", version),
		zap.Bool("initialized", ok),
	)
	return nil
}

func schemaVersion(migrator *migrate.Migrate) (uint, bool, bool, error) {
	version, dirty, err := migrator.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		return 0, false, false, nil
	}
	if err != nil {
		return 0, false, false, fmt.Errorf("failed to read schema version: %w", err)
	}
	return version, dirty, true, nil
}

// createMigrator creates a migrate instance over embedded migrations. It uses
// its own connection because closing the migrator closes the database handle.
func (m *Migrator) createMigrator() (*migrate.Migrate, error) {
	conn, err := sql.Open("postgres", m.db.dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open migration connection: %w", err)
	}

	driver, err := postgres.WithInstance(conn, &postgres.Config{})
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to create postgres driver: %w", err)
	}

	source, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		driver.Close()
		return nil, fmt.Errorf("failed to open embedded migrations: %w", err)
	}

	migrator, err := migrate.NewWithInstance("iofs", source, "postgres", driver)
	if err != nil {
		driver.Close()
		return nil, fmt.Errorf("failed to create migrator: %w", err)
	}
	migrator.Log = migrateLogger{logger: m.logger}

	return migrator, nil
}

// migrateLogger routes golang-migrate progress output through zap
type migrateLogger struct {
	logger *zap.Logger
}

func (l migrateLogger) Printf(format string, v ...interface{}) {
	l.logger.Debug(strings.TrimSpace(fmt.Sprintf(format, v...)))
}

func (l migrateLogger) Verbose() bool {
	return l.logger.Core().Enabled(zap.DebugLevel)
}
