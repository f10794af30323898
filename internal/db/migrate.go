package db

import (
	"embed"
	"errors"
	"fmt"

	"github.com/ZerkerEOD/appserver/pkg/debug"
	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	migratesqlite "github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

//go:embed migrations/sqlite/*.sql migrations/postgres/*.sql
var migrationFS embed.FS

// Migrate brings the schema up to the latest version for the DB's dialect.
func Migrate(database *DB) error {
	src, err := iofs.New(migrationFS, "migrations/"+string(database.dialect))
	if err != nil {
		return fmt.Errorf("failed to load migrations: %w", err)
	}

	var m *migrate.Migrate
	switch database.dialect {
	case DialectSQLite:
		driver, err := migratesqlite.WithInstance(database.DB, &migratesqlite.Config{})
		if err != nil {
			return fmt.Errorf("failed to create migration driver: %w", err)
		}
		// Closing this instance would close the shared connection, so it is left open.
		m, err = migrate.NewWithInstance("iofs", src, "sqlite", driver)
		if err != nil {
			return fmt.Errorf("failed to create migrator: %w", err)
		}
	case DialectPostgres:
		m, err = migrate.NewWithSourceInstance("iofs", src, database.url)
		if err != nil {
			return fmt.Errorf("failed to create migrator: %w", err)
		}
		defer m.Close()
	default:
		return fmt.Errorf("%w: %s", ErrUnsupportedDialect, database.dialect)
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	version, dirty, err := m.Version()
	if err != nil && !errors.Is(err, migrate.ErrNilVersion) {
		return fmt.Errorf("failed to read migration version: %w", err)
	}
	debug.Info("Database schema at version %d (dirty: %v)", version, dirty)
	return nil
}
