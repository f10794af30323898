package db

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	database, err := Open(Config{Driver: "sqlite", Path: filepath.Join(t.TempDir(), "nested", "test.sqlite")})
	require.NoError(t, err)
	t.Cleanup(func() { database.Close() })
	require.NoError(t, Migrate(database))
	return database
}

func countUsers(t *testing.T, database *DB) int {
	t.Helper()
	var n int
	require.NoError(t, database.QueryRowContext(context.Background(), "SELECT COUNT(*) FROM users").Scan(&n))
	return n
}

func TestOpen(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr error
	}{
		{"unknown driver", Config{Driver: "oracle"}, ErrUnsupportedDialect},
		{"sqlite without path", Config{Driver: "sqlite"}, nil},
		{"postgres without url", Config{Driver: "postgres"}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			database, err := Open(tt.cfg)
			assert.Error(t, err)
			assert.Nil(t, database)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			}
		})
	}
}

func TestMigrateIsIdempotent(t *testing.T) {
	database := openTestDB(t)
	assert.Equal(t, DialectSQLite, database.Dialect())

	// Running again reports no change, which is not an error.
	require.NoError(t, Migrate(database))
	assert.Equal(t, 0, countUsers(t, database))
}

func TestForeignKeysEnforced(t *testing.T) {
	database := openTestDB(t)

	_, err := database.ExecContext(context.Background(),
		`INSERT INTO notification_preference (user_uuid, email_enabled, html_email, push_enabled, language)
		 VALUES ('missing', 1, 1, 0, 'en')`)
	assert.Error(t, err)
}

func TestWithTx(t *testing.T) {
	ctx := context.Background()
	insert := func(tx *sql.Tx, uuid, email string) error {
		_, err := tx.ExecContext(ctx, "INSERT INTO users (uuid, name, email) VALUES ($1, $2, $3)", uuid, "n", email)
		return err
	}

	t.Run("commits on success", func(t *testing.T) {
		database := openTestDB(t)
		err := database.WithTx(ctx, func(tx *sql.Tx) error {
			return insert(tx, "u1", "a@example.com")
		})
		require.NoError(t, err)
		assert.Equal(t, 1, countUsers(t, database))
	})

	t.Run("rolls back on error", func(t *testing.T) {
		database := openTestDB(t)
		boom := errors.New("boom")
		err := database.WithTx(ctx, func(tx *sql.Tx) error {
			require.NoError(t, insert(tx, "u1", "a@example.com"))
			return boom
		})
		assert.ErrorIs(t, err, boom)
		assert.Equal(t, 0, countUsers(t, database))
	})

	t.Run("rolls back on panic", func(t *testing.T) {
		database := openTestDB(t)
		assert.Panics(t, func() {
			_ = database.WithTx(ctx, func(tx *sql.Tx) error {
				require.NoError(t, insert(tx, "u1", "a@example.com"))
				panic("boom")
			})
		})
		assert.Equal(t, 0, countUsers(t, database))
	})
}

func TestIsUniqueViolation(t *testing.T) {
	database := openTestDB(t)
	ctx := context.Background()

	_, err := database.ExecContext(ctx, "INSERT INTO users (uuid, name, email) VALUES ('u1', 'a', 'dup@example.com')")
	require.NoError(t, err)

	_, err = database.ExecContext(ctx, "INSERT INTO users (uuid, name, email) VALUES ('u2', 'b', 'dup@example.com')")
	require.Error(t, err)
	assert.True(t, IsUniqueViolation(err))

	assert.False(t, IsUniqueViolation(errors.New("something else")))
	assert.False(t, IsUniqueViolation(nil))
}
