package journal_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"bvdump/internal/journal"
)

func openStore(t *testing.T) *journal.Store {
	t.Helper()
	store, err := journal.Open(filepath.Join(t.TempDir(), "journal.db"))
	if err != nil {
		t.Fatalf("Open returned error: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestAppendAssignsIDAndTimestamp(t *testing.T) {
	store := openStore(t)

	record := &journal.Record{
		TitleID:     "12345",
		Title:       "Example Title",
		OutputPath:  "/out/12345.mp4",
		OutputBytes: 4096,
		Duration:    1500 * time.Millisecond,
		Status:      journal.StatusCompleted,
	}
	if err := store.Append(context.Background(), record); err != nil {
		t.Fatalf("Append returned error: %v", err)
	}
	if record.ID == 0 {
		t.Fatal("expected record ID to be assigned")
	}
	if record.CreatedAt.IsZero() {
		t.Fatal("expected CreatedAt to be set")
	}
}

func TestAppendRejectsIncompleteRecords(t *testing.T) {
	store := openStore(t)

	if err := store.Append(context.Background(), &journal.Record{Status: journal.StatusCompleted}); err == nil {
		t.Fatal("expected error for missing title id")
	}
	if err := store.Append(context.Background(), &journal.Record{TitleID: "1"}); err == nil {
		t.Fatal("expected error for missing status")
	}
}

func TestLastCompleted(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()

	if record, err := store.LastCompleted(ctx, "12345"); err != nil || record != nil {
		t.Fatalf("expected no record for unknown title, got %v (err %v)", record, err)
	}

	failed := &journal.Record{TitleID: "12345", Status: journal.StatusFailed, Error: "mux failed"}
	if err := store.Append(ctx, failed); err != nil {
		t.Fatalf("Append failed record: %v", err)
	}
	if record, err := store.LastCompleted(ctx, "12345"); err != nil || record != nil {
		t.Fatalf("failed record should not count as completed, got %v (err %v)", record, err)
	}

	first := &journal.Record{TitleID: "12345", Status: journal.StatusCompleted, OutputPath: "/out/a.mp4"}
	second := &journal.Record{TitleID: "12345", Status: journal.StatusCompleted, OutputPath: "/out/b.mp4"}
	if err := store.Append(ctx, first); err != nil {
		t.Fatalf("Append first: %v", err)
	}
	if err := store.Append(ctx, second); err != nil {
		t.Fatalf("Append second: %v", err)
	}

	record, err := store.LastCompleted(ctx, "12345")
	if err != nil {
		t.Fatalf("LastCompleted returned error: %v", err)
	}
	if record == nil || record.OutputPath != "/out/b.mp4" {
		t.Fatalf("expected most recent completed record, got %+v", record)
	}
}

func TestListNewestFirstWithLimit(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()

	for _, titleID := range []string{"1", "2", "3"} {
		if err := store.Append(ctx, &journal.Record{TitleID: titleID, Status: journal.StatusCompleted}); err != nil {
			t.Fatalf("Append %s: %v", titleID, err)
		}
	}

	records, err := store.List(ctx, 2)
	if err != nil {
		t.Fatalf("List returned error: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(records))
	}
	if records[0].TitleID != "3" || records[1].TitleID != "2" {
		t.Fatalf("expected newest first, got %s then %s", records[0].TitleID, records[1].TitleID)
	}

	all, err := store.List(ctx, 0)
	if err != nil {
		t.Fatalf("List all returned error: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("expected 3 records, got %d", len(all))
	}
}

func TestOpenPersistsAcrossConnections(t *testing.T) {
	path := filepath.Join(t.TempDir(), "journal.db")

	store, err := journal.Open(path)
	if err != nil {
		t.Fatalf("Open returned error: %v", err)
	}
	if err := store.Append(context.Background(), &journal.Record{TitleID: "42", Status: journal.StatusCompleted}); err != nil {
		t.Fatalf("Append returned error: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("Close returned error: %v", err)
	}

	reopened, err := journal.Open(path)
	if err != nil {
		t.Fatalf("reopen returned error: %v", err)
	}
	defer reopened.Close()

	record, err := reopened.LastCompleted(context.Background(), "42")
	if err != nil {
		t.Fatalf("LastCompleted returned error: %v", err)
	}
	if record == nil {
		t.Fatal("expected record to survive reopen")
	}
}
