package testutil

import (
	"os"
	"testing"

	"github.com/jmoiron/sqlx"

	"github.com/trezcool/rollcall/storage/database"
)

// OpenDB opens the Postgres database at TEST_DATABASE_URL with a freshly migrated schema.
// The test is skipped when the variable is not set.
func OpenDB(t *testing.T) *sqlx.DB {
	dbURL := os.Getenv("TEST_DATABASE_URL")
	if dbURL == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}

	db, err := database.OpenURL("postgres", dbURL)
	if err != nil {
		t.Fatalf("OpenDB() failed: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	if err = database.Migrate(db.DB, "reset"); err != nil {
		t.Fatalf("OpenDB() failed: %v", err)
	}
	if err = database.Migrate(db.DB, "up"); err != nil {
		t.Fatalf("OpenDB() failed: %v", err)
	}
	return db
}
