// Package worker replays local ledger changes against the remote API.
// Messages from AMQP drive the normal path; a periodic scan of unsynced rows
// and tombstones covers lost messages and worker downtime.
package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"contabile/internal/amqp"
	"contabile/internal/core"
	"contabile/internal/ledger"
	"contabile/internal/storage"
)

// Exporter mirrors synced transactions to an external sheet. Optional.
type Exporter interface {
	AppendTransaction(ctx context.Context, kind string, t core.Transaction) error
}

type SyncWorker struct {
	storage   *storage.SQLiteRepository
	remote    ledger.TransactionWriter
	exporter  Exporter
	batchSize int
}

func NewSyncWorker(repo *storage.SQLiteRepository, remote ledger.TransactionWriter, exporter Exporter, batchSize int) *SyncWorker {
	return &SyncWorker{
		storage:   repo,
		remote:    remote,
		exporter:  exporter,
		batchSize: batchSize,
	}
}

// HandleSyncMessage processes a single message from the queue.
func (w *SyncWorker) HandleSyncMessage(ctx context.Context, msg *amqp.SyncMessage) error {
	slog.InfoContext(ctx, "Processing sync message",
		"op", msg.Op,
		"kind", msg.Kind,
		"id", msg.ID)

	switch msg.Op {
	case amqp.OpAdd:
		return w.syncAdd(ctx, msg.ID)
	case amqp.OpDelete:
		return w.syncDelete(ctx, msg.Kind, msg.RemoteID)
	default:
		// Drop unknown ops instead of requeueing them forever.
		slog.WarnContext(ctx, "Unknown sync op, dropping message", "op", msg.Op)
		return nil
	}
}

func (w *SyncWorker) syncAdd(ctx context.Context, id int64) error {
	pending, err := w.storage.GetTransaction(ctx, id)
	if errors.Is(err, core.ErrNotFound) {
		// Already synced or deleted locally in the meantime.
		slog.InfoContext(ctx, "Transaction no longer pending, skipping", "id", id)
		return nil
	}
	if err != nil {
		return fmt.Errorf("get transaction from storage: %w", err)
	}
	return w.replayAdd(ctx, pending)
}

func (w *SyncWorker) replayAdd(ctx context.Context, pending storage.PendingTransaction) error {
	var (
		remote core.Transaction
		err    error
	)
	switch pending.Kind {
	case storage.KindIncome:
		remote, err = w.remote.AddIncome(ctx, pending.Tx)
	default:
		remote, err = w.remote.AddExpense(ctx, pending.Tx)
	}
	if err != nil {
		if markErr := w.storage.MarkSyncError(ctx, pending.ID); markErr != nil {
			slog.ErrorContext(ctx, "Failed to mark sync error", "id", pending.ID, "error", markErr)
		}
		return fmt.Errorf("replay %s to remote: %w", pending.Kind, err)
	}

	if err := w.storage.MarkSynced(ctx, pending.ID, remote.ID); err != nil {
		// The remote write landed; a failed mark only causes a duplicate
		// replay attempt later.
		slog.ErrorContext(ctx, "Failed to mark as synced", "id", pending.ID, "error", err)
	}

	w.export(ctx, pending.Kind, pending.Tx)

	slog.InfoContext(ctx, "Successfully synced transaction",
		"id", pending.ID,
		"kind", pending.Kind,
		"remote_id", remote.ID,
		"amount_cents", pending.Tx.Amount.Cents)
	return nil
}

func (w *SyncWorker) syncDelete(ctx context.Context, kind, remoteID string) error {
	if remoteID == "" {
		return nil
	}
	var err error
	switch kind {
	case storage.KindIncome:
		err = w.remote.DeleteIncome(ctx, remoteID)
	default:
		err = w.remote.DeleteExpense(ctx, remoteID)
	}
	if err != nil {
		return fmt.Errorf("replay delete to remote: %w", err)
	}
	if err := w.storage.DropTombstoneByRemote(ctx, kind, remoteID); err != nil {
		slog.ErrorContext(ctx, "Failed to drop tombstone", "kind", kind, "remote_id", remoteID, "error", err)
	}
	slog.InfoContext(ctx, "Successfully deleted remote transaction", "kind", kind, "remote_id", remoteID)
	return nil
}

// ProcessPending replays unsynced rows and outstanding tombstones. This is
// the backup path for lost AMQP messages.
func (w *SyncWorker) ProcessPending(ctx context.Context) error {
	pending, err := w.storage.GetPendingSync(ctx, w.batchSize)
	if err != nil {
		return fmt.Errorf("get pending transactions: %w", err)
	}
	if len(pending) > 0 {
		slog.InfoContext(ctx, "Processing pending transactions", "count", len(pending))
	}
	for _, p := range pending {
		if err := w.replayAdd(ctx, p); err != nil {
			slog.ErrorContext(ctx, "Failed to sync transaction", "id", p.ID, "error", err)
		}
	}

	deletes, err := w.storage.GetPendingDeletes(ctx, w.batchSize)
	if err != nil {
		return fmt.Errorf("get pending deletes: %w", err)
	}
	for _, d := range deletes {
		if err := w.syncDelete(ctx, d.Kind, d.RemoteID); err != nil {
			slog.ErrorContext(ctx, "Failed to replay delete", "remote_id", d.RemoteID, "error", err)
		}
	}
	return nil
}

// StartupSyncCheck drains the backlog left from downtime before consuming
// new messages.
func (w *SyncWorker) StartupSyncCheck(ctx context.Context) error {
	pending, err := w.storage.GetPendingSync(ctx, w.batchSize*5)
	if err != nil {
		return fmt.Errorf("get pending transactions for startup check: %w", err)
	}
	if len(pending) == 0 {
		slog.InfoContext(ctx, "No pending transactions found on startup")
		return nil
	}

	slog.InfoContext(ctx, "Found pending transactions on startup, processing...",
		"count", len(pending))

	successCount := 0
	errorCount := 0
	for _, p := range pending {
		if err := w.replayAdd(ctx, p); err != nil {
			slog.ErrorContext(ctx, "Failed to sync transaction during startup",
				"id", p.ID, "error", err)
			errorCount++
			continue
		}
		successCount++
	}

	slog.InfoContext(ctx, "Startup sync completed",
		"total", len(pending),
		"synced", successCount,
		"errors", errorCount)
	return nil
}

func (w *SyncWorker) export(ctx context.Context, kind string, t core.Transaction) {
	if w.exporter == nil {
		return
	}
	if err := w.exporter.AppendTransaction(ctx, kind, t); err != nil {
		// Export is best-effort; the row is already synced.
		slog.ErrorContext(ctx, "Failed to export transaction", "kind", kind, "error", err)
	}
}
