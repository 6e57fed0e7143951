package testutil

import (
	"path/filepath"
	"testing"

	"gorm.io/gorm"

	"study-scheduler/internal/repository"
)

// NewTestDB opens a throwaway migrated SQLite database inside the test's
// temporary directory.
func NewTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := repository.NewDB(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return db
}
