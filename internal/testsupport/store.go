package testsupport

import (
	"path/filepath"
	"testing"

	"bvdump/internal/journal"
)

// NewJournal opens a journal store backed by a per-test temp database.
func NewJournal(t testing.TB) *journal.Store {
	t.Helper()

	store, err := journal.Open(filepath.Join(t.TempDir(), "journal.db"))
	if err != nil {
		t.Fatalf("open journal store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}
