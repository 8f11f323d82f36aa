package worker

import (
	"context"
	"fmt"
	"path/filepath"
	"strconv"
	"sync"
	"testing"
	"time"

	"contabile/internal/amqp"
	"contabile/internal/core"
	"contabile/internal/storage"
)

// fakeRemote records replayed writes and can be told to fail.
type fakeRemote struct {
	mu      sync.Mutex
	fail    bool
	added   []core.Transaction
	deleted []string
	nextID  int
}

func (f *fakeRemote) AddExpense(_ context.Context, t core.Transaction) (core.Transaction, error) {
	return f.add(t)
}

func (f *fakeRemote) AddIncome(_ context.Context, t core.Transaction) (core.Transaction, error) {
	return f.add(t)
}

func (f *fakeRemote) add(t core.Transaction) (core.Transaction, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail {
		return core.Transaction{}, fmt.Errorf("remote unavailable")
	}
	f.nextID++
	t.ID = "remote-" + strconv.Itoa(f.nextID)
	f.added = append(f.added, t)
	return t, nil
}

func (f *fakeRemote) DeleteExpense(_ context.Context, id string) error { return f.del(id) }
func (f *fakeRemote) DeleteIncome(_ context.Context, id string) error  { return f.del(id) }

func (f *fakeRemote) del(id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail {
		return fmt.Errorf("remote unavailable")
	}
	f.deleted = append(f.deleted, id)
	return nil
}

func (f *fakeRemote) DeleteExpenses(ctx context.Context, ids []string) error {
	for _, id := range ids {
		if err := f.del(id); err != nil {
			return err
		}
	}
	return nil
}

func (f *fakeRemote) DeleteIncomes(ctx context.Context, ids []string) error {
	return f.DeleteExpenses(ctx, ids)
}

func newTestWorker(t *testing.T) (*SyncWorker, *storage.SQLiteRepository, *fakeRemote) {
	t.Helper()
	repo, err := storage.NewSQLiteRepository(filepath.Join(t.TempDir(), "contabile.db"))
	if err != nil {
		t.Fatalf("NewSQLiteRepository: %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	remote := &fakeRemote{}
	return NewSyncWorker(repo, remote, nil, 10), repo, remote
}

func workerTx(desc string) core.Transaction {
	return core.Transaction{
		Description: desc,
		Amount:      core.Money{Cents: 1000},
		Date:        time.Date(2025, 3, 10, 0, 0, 0, 0, time.Local),
		Category:    "Food",
		CardID:      "c1",
	}
}

func TestHandleSyncMessageAdd(t *testing.T) {
	ctx := context.Background()
	w, repo, remote := newTestWorker(t)

	added, err := repo.AddExpense(ctx, workerTx("pane"))
	if err != nil {
		t.Fatal(err)
	}
	rowID, _ := strconv.ParseInt(added.ID, 10, 64)

	if err := w.HandleSyncMessage(ctx, amqp.NewAddMessage(storage.KindExpense, rowID)); err != nil {
		t.Fatalf("HandleSyncMessage: %v", err)
	}
	if len(remote.added) != 1 || remote.added[0].Description != "pane" {
		t.Fatalf("remote.added = %+v", remote.added)
	}

	pending, _ := repo.GetPendingSync(ctx, 10)
	if len(pending) != 0 {
		t.Fatalf("row must be marked synced, pending = %+v", pending)
	}
}

func TestHandleSyncMessageAddIsIdempotent(t *testing.T) {
	ctx := context.Background()
	w, repo, remote := newTestWorker(t)

	added, _ := repo.AddExpense(ctx, workerTx("pane"))
	rowID, _ := strconv.ParseInt(added.ID, 10, 64)
	msg := amqp.NewAddMessage(storage.KindExpense, rowID)

	if err := w.HandleSyncMessage(ctx, msg); err != nil {
		t.Fatal(err)
	}
	// Redelivery of the same message must not create a duplicate remotely.
	if err := w.HandleSyncMessage(ctx, msg); err != nil {
		t.Fatal(err)
	}
	if len(remote.added) != 1 {
		t.Fatalf("duplicate message produced %d remote rows, want 1", len(remote.added))
	}
}

func TestHandleSyncMessageRemoteFailureMarksError(t *testing.T) {
	ctx := context.Background()
	w, repo, remote := newTestWorker(t)
	remote.fail = true

	added, _ := repo.AddExpense(ctx, workerTx("pane"))
	rowID, _ := strconv.ParseInt(added.ID, 10, 64)

	if err := w.HandleSyncMessage(ctx, amqp.NewAddMessage(storage.KindExpense, rowID)); err == nil {
		t.Fatal("remote failure must surface so the message is requeued")
	}
	pending, _ := repo.GetPendingSync(ctx, 10)
	if len(pending) != 0 {
		t.Fatalf("errored row must leave the pending scan, got %+v", pending)
	}
}

func TestHandleSyncMessageDelete(t *testing.T) {
	ctx := context.Background()
	w, repo, remote := newTestWorker(t)

	added, _ := repo.AddExpense(ctx, workerTx("pane"))
	rowID, _ := strconv.ParseInt(added.ID, 10, 64)
	if err := repo.MarkSynced(ctx, rowID, "remote-9"); err != nil {
		t.Fatal(err)
	}
	if err := repo.DeleteExpense(ctx, added.ID); err != nil {
		t.Fatal(err)
	}

	msg := amqp.NewDeleteMessage(storage.KindExpense, "remote-9")
	if err := w.HandleSyncMessage(ctx, msg); err != nil {
		t.Fatalf("HandleSyncMessage: %v", err)
	}
	if len(remote.deleted) != 1 || remote.deleted[0] != "remote-9" {
		t.Fatalf("remote.deleted = %v", remote.deleted)
	}
	deletes, _ := repo.GetPendingDeletes(ctx, 10)
	if len(deletes) != 0 {
		t.Fatalf("tombstone must be dropped after replay, got %+v", deletes)
	}
}

func TestProcessPendingReplaysBacklog(t *testing.T) {
	ctx := context.Background()
	w, repo, remote := newTestWorker(t)

	for _, desc := range []string{"a", "b", "c"} {
		if _, err := repo.AddExpense(ctx, workerTx(desc)); err != nil {
			t.Fatal(err)
		}
	}

	if err := w.ProcessPending(ctx); err != nil {
		t.Fatalf("ProcessPending: %v", err)
	}
	if len(remote.added) != 3 {
		t.Fatalf("replayed %d rows, want 3", len(remote.added))
	}
	pending, _ := repo.GetPendingSync(ctx, 10)
	if len(pending) != 0 {
		t.Fatalf("pending after replay = %+v", pending)
	}
}
