// Package services orchestrates writes across the local sqlite ledger and
// the AMQP sync queue. The local write always wins; a failed publish only
// delays sync, the periodic pending scan picks the row up later.
package services

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"

	"contabile/internal/amqp"
	"contabile/internal/core"
	"contabile/internal/storage"
)

type LedgerService struct {
	*storage.SQLiteRepository
	amqpClient *amqp.Client
}

func NewLedgerService(repo *storage.SQLiteRepository, amqpClient *amqp.Client) *LedgerService {
	return &LedgerService{SQLiteRepository: repo, amqpClient: amqpClient}
}

func (s *LedgerService) AddExpense(ctx context.Context, t core.Transaction) (core.Transaction, error) {
	added, err := s.SQLiteRepository.AddExpense(ctx, t)
	if err != nil {
		return core.Transaction{}, err
	}
	s.publishAdd(ctx, storage.KindExpense, added.ID)
	return added, nil
}

func (s *LedgerService) AddIncome(ctx context.Context, t core.Transaction) (core.Transaction, error) {
	added, err := s.SQLiteRepository.AddIncome(ctx, t)
	if err != nil {
		return core.Transaction{}, err
	}
	s.publishAdd(ctx, storage.KindIncome, added.ID)
	return added, nil
}

func (s *LedgerService) DeleteExpense(ctx context.Context, id string) error {
	return s.DeleteExpenses(ctx, []string{id})
}

func (s *LedgerService) DeleteExpenses(ctx context.Context, ids []string) error {
	if err := s.SQLiteRepository.DeleteExpenses(ctx, ids); err != nil {
		return err
	}
	s.publishPendingDeletes(ctx)
	return nil
}

func (s *LedgerService) DeleteIncome(ctx context.Context, id string) error {
	return s.DeleteIncomes(ctx, []string{id})
}

func (s *LedgerService) DeleteIncomes(ctx context.Context, ids []string) error {
	if err := s.SQLiteRepository.DeleteIncomes(ctx, ids); err != nil {
		return err
	}
	s.publishPendingDeletes(ctx)
	return nil
}

func (s *LedgerService) publishAdd(ctx context.Context, kind, id string) {
	if s.amqpClient == nil {
		slog.WarnContext(ctx, "AMQP client not available, skipping sync message")
		return
	}
	rowID, err := strconv.ParseInt(id, 10, 64)
	if err != nil {
		slog.ErrorContext(ctx, "Failed to parse row id for sync message", "id", id, "error", err)
		return
	}
	if err := s.amqpClient.PublishSync(ctx, amqp.NewAddMessage(kind, rowID)); err != nil {
		// The write already landed locally; the pending scan will retry.
		slog.ErrorContext(ctx, "Failed to publish sync message", "id", id, "error", err)
	}
}

// publishPendingDeletes pushes every outstanding tombstone onto the queue.
// Replays are idempotent: the worker drops the tombstone after deleting
// remotely, and a message for a dropped tombstone is a no-op.
func (s *LedgerService) publishPendingDeletes(ctx context.Context) {
	if s.amqpClient == nil {
		return
	}
	deletes, err := s.SQLiteRepository.GetPendingDeletes(ctx, 100)
	if err != nil {
		slog.ErrorContext(ctx, "Failed to list pending deletes", "error", err)
		return
	}
	for _, d := range deletes {
		if err := s.amqpClient.PublishSync(ctx, amqp.NewDeleteMessage(d.Kind, d.RemoteID)); err != nil {
			slog.ErrorContext(ctx, "Failed to publish delete message",
				"kind", d.Kind, "remote_id", d.RemoteID, "error", err)
		}
	}
}

// Close closes both storage and the AMQP connection.
func (s *LedgerService) Close() error {
	var errs []error

	if s.SQLiteRepository != nil {
		if err := s.SQLiteRepository.Close(); err != nil {
			errs = append(errs, fmt.Errorf("storage: %w", err))
		}
	}

	if s.amqpClient != nil {
		if err := s.amqpClient.Close(); err != nil {
			errs = append(errs, fmt.Errorf("amqp: %w", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("close ledger service: %v", errs)
	}

	return nil
}
