package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/ZerkerEOD/appserver/pkg/debug"
	"github.com/lib/pq" // PostgreSQL driver
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// Dialect names the SQL backend behind a DB
type Dialect string

const (
	DialectSQLite   Dialect = "sqlite"
	DialectPostgres Dialect = "postgres"
)

// ErrUnsupportedDialect is returned by Open for unknown drivers
var ErrUnsupportedDialect = errors.New("unsupported database driver")

// DB wraps sql.DB to provide additional functionality
type DB struct {
	*sql.DB
	dialect Dialect
	url     string
}

// Config holds database configuration
type Config struct {
	// Driver is "sqlite" (default) or "postgres"
	Driver string
	// Path is the SQLite database file
	Path string
	// URL is the PostgreSQL connection string
	URL string
}

// NewDB wraps an existing connection pool
func NewDB(sqlDB *sql.DB, dialect Dialect) *DB {
	return &DB{DB: sqlDB, dialect: dialect}
}

// Open creates a new database connection and verifies it with a ping.
func Open(cfg Config) (*DB, error) {
	switch Dialect(strings.ToLower(cfg.Driver)) {
	case "", DialectSQLite:
		return openSQLite(cfg.Path)
	case DialectPostgres:
		return openPostgres(cfg.URL)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedDialect, cfg.Driver)
	}
}

func openSQLite(path string) (*DB, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("sqlite database path is required")
	}

	cleanPath := filepath.Clean(path)
	if dir := filepath.Dir(cleanPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	dsn := cleanPath + "?_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// One connection is the single writer; concurrent callers queue on it.
	sqlDB.SetMaxOpenConns(1)

	if err := ping(sqlDB); err != nil {
		_ = sqlDB.Close()
		return nil, err
	}

	debug.Info("Database initialized at %s", cleanPath)
	return &DB{DB: sqlDB, dialect: DialectSQLite}, nil
}

func openPostgres(url string) (*DB, error) {
	if strings.TrimSpace(url) == "" {
		return nil, fmt.Errorf("postgres connection URL is required")
	}

	sqlDB, err := sql.Open("postgres", url)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Set connection pool settings
	sqlDB.SetMaxOpenConns(25)
	sqlDB.SetMaxIdleConns(5)
	sqlDB.SetConnMaxLifetime(5 * time.Minute)

	if err := ping(sqlDB); err != nil {
		_ = sqlDB.Close()
		return nil, err
	}

	debug.Info("Successfully connected to postgres database")
	return &DB{DB: sqlDB, dialect: DialectPostgres, url: url}, nil
}

func ping(sqlDB *sql.DB) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := sqlDB.PingContext(ctx); err != nil {
		return fmt.Errorf("failed to ping database: %w", err)
	}
	return nil
}

// Dialect returns the backend in use
func (db *DB) Dialect() Dialect {
	return db.dialect
}

// WithTx executes a function within a transaction. The transaction is rolled
// back if fn returns an error or panics, and committed otherwise.
func (db *DB) WithTx(ctx context.Context, fn func(*sql.Tx) error) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			// A panic occurred, rollback and repanic
			tx.Rollback()
			panic(p)
		}
	}()

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			debug.Error("failed to rollback transaction: %v", rbErr)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// QueryRowContext executes a query that returns a single row with debug logging
func (db *DB) QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row {
	debug.Debug("executing query: %s with args: %v", query, args)
	return db.DB.QueryRowContext(ctx, query, args...)
}

// IsUniqueViolation reports whether err is a unique constraint failure on either backend.
func IsUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23505"
	}
	var sqliteErr *sqlite.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.Code() == sqlite3.SQLITE_CONSTRAINT_UNIQUE ||
			sqliteErr.Code() == sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY
	}
	return false
}
