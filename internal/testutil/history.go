package testutil

import (
	"testing"

	"notty-go/internal/database"
)

// NewTestHistory returns a migrated in-memory history database with
// sequential operation ids. It is closed when the test completes.
func NewTestHistory(t *testing.T) *database.SQLiteHistory {
	t.Helper()

	h, err := database.NewSQLiteHistory(":memory:", NewStubIDGenerator())
	if err != nil {
		t.Fatalf("NewSQLiteHistory() error = %v", err)
	}
	t.Cleanup(func() { h.Close() })
	return h
}
