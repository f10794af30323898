package testutil

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/ZerkerEOD/appserver/internal/db"
	"github.com/ZerkerEOD/appserver/internal/db/queries"
	"github.com/ZerkerEOD/appserver/internal/models"
)

// SetupTestDB creates a migrated SQLite database in a temporary directory.
// It is closed when the test finishes.
func SetupTestDB(t *testing.T) *db.DB {
	t.Helper()

	testDB, err := db.Open(db.Config{
		Driver: string(db.DialectSQLite),
		Path:   filepath.Join(t.TempDir(), "test.sqlite"),
	})
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}

	t.Cleanup(func() {
		testDB.Close()
	})

	if err := db.Migrate(testDB); err != nil {
		t.Fatalf("Failed to migrate test database: %v", err)
	}

	return testDB
}

// CreateTestUser inserts a user row directly, without a preference row
func CreateTestUser(t *testing.T, testDB *db.DB, name, email string) *models.User {
	t.Helper()

	user := models.NewUser(name, email)
	if _, err := testDB.ExecContext(context.Background(), queries.UpsertUser, user.UUID, user.Name, user.Email); err != nil {
		t.Fatalf("Failed to create test user: %v", err)
	}
	return user
}
