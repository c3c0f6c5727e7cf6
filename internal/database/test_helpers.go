package database

import (
	"path/filepath"
	"testing"
)

func setupTestDB(t *testing.T) (*DB, func()) {
	t.Helper()

	dbPath := filepath.Join(t.TempDir(), "adlens_test.db")
	db, err := NewDB(dbPath)
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}

	cleanup := func() {
		db.Close()
	}
	return db, cleanup
}
