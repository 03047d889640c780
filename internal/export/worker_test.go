package export

import (
	"context"
	"path/filepath"
	"testing"

	"pocketbook/internal/amqp"
	"pocketbook/internal/core"
	"pocketbook/internal/export/memory"
	"pocketbook/internal/storage"
)

func newTestWorker(t *testing.T) (*Worker, *storage.SQLiteRepository, *memory.Store) {
	t.Helper()
	repo, err := storage.NewSQLiteRepository(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("NewSQLiteRepository: %v", err)
	}
	t.Cleanup(func() { repo.Close() })

	store := memory.New()
	return NewWorker(repo, store, DefaultWorkerConfig()), repo, store
}

func seedEntry(t *testing.T, repo *storage.SQLiteRepository, userID string) int64 {
	t.Helper()
	ctx := context.Background()
	err := repo.CreateUser(ctx, core.User{
		ID: userID, Username: "user-" + userID, Email: userID + "@example.com", PasswordHash: "x",
	})
	if err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	d, _ := core.ParseDate("2024-05-01")
	id, err := repo.InsertTransaction(ctx, core.Transaction{
		Label: "Salary", Amount: core.Money{Cents: 50000}, Date: d, UserID: userID,
	})
	if err != nil {
		t.Fatalf("InsertTransaction: %v", err)
	}
	return id
}

func TestHandleMessageExportsAndMarks(t *testing.T) {
	w, repo, store := newTestWorker(t)
	ctx := context.Background()
	id := seedEntry(t, repo, "u1")

	if err := w.HandleMessage(ctx, amqp.NewExportMessage(id, "u1")); err != nil {
		t.Fatalf("HandleMessage: %v", err)
	}

	rows := store.Rows()
	if len(rows) != 1 || rows[0].ID != id {
		t.Fatalf("expected entry %d in sheet, got %+v", id, rows)
	}
	exported, err := repo.IsExported(ctx, id)
	if err != nil {
		t.Fatalf("IsExported: %v", err)
	}
	if !exported {
		t.Fatal("entry not marked exported")
	}
}

func TestHandleMessageRedeliveryIsIdempotent(t *testing.T) {
	w, repo, store := newTestWorker(t)
	ctx := context.Background()
	id := seedEntry(t, repo, "u1")

	msg := amqp.NewExportMessage(id, "u1")
	if err := w.HandleMessage(ctx, msg); err != nil {
		t.Fatalf("first HandleMessage: %v", err)
	}
	if err := w.HandleMessage(ctx, msg); err != nil {
		t.Fatalf("redelivered HandleMessage: %v", err)
	}

	if rows := store.Rows(); len(rows) != 1 {
		t.Fatalf("redelivery duplicated row: %d rows", len(rows))
	}
}

func TestHandleMessageDropsDeletedEntry(t *testing.T) {
	w, repo, store := newTestWorker(t)
	ctx := context.Background()
	id := seedEntry(t, repo, "u1")
	if err := repo.DeleteTransaction(ctx, "u1", id); err != nil {
		t.Fatalf("DeleteTransaction: %v", err)
	}

	if err := w.HandleMessage(ctx, amqp.NewExportMessage(id, "u1")); err != nil {
		t.Fatalf("HandleMessage should drop deleted entries, got %v", err)
	}
	if rows := store.Rows(); len(rows) != 0 {
		t.Fatalf("deleted entry was exported: %+v", rows)
	}
}

func TestSweepExportsPendingOldestFirst(t *testing.T) {
	w, repo, store := newTestWorker(t)
	ctx := context.Background()

	first := seedEntry(t, repo, "u1")
	d, _ := core.ParseDate("2024-05-02")
	second, err := repo.InsertTransaction(ctx, core.Transaction{
		Label: "Coffee", Amount: core.Money{Cents: -350}, Date: d, UserID: "u1",
	})
	if err != nil {
		t.Fatalf("InsertTransaction: %v", err)
	}

	n, err := w.Sweep(ctx)
	if err != nil {
		t.Fatalf("Sweep: %v", err)
	}
	if n != 2 {
		t.Fatalf("exported %d entries, want 2", n)
	}
	rows := store.Rows()
	if len(rows) != 2 || rows[0].ID != first || rows[1].ID != second {
		t.Fatalf("unexpected export order: %+v", rows)
	}
}

func TestSweepStopsOnFailureAndRetries(t *testing.T) {
	w, repo, store := newTestWorker(t)
	ctx := context.Background()
	seedEntry(t, repo, "u1")

	store.FailNext = true
	if _, err := w.Sweep(ctx); err == nil {
		t.Fatal("expected sweep failure")
	}

	// The entry stays pending and the next sweep picks it up.
	n, err := w.Sweep(ctx)
	if err != nil {
		t.Fatalf("retry Sweep: %v", err)
	}
	if n != 1 {
		t.Fatalf("retry exported %d entries, want 1", n)
	}
}
