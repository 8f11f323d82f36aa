package services

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"contabile/internal/core"
	"contabile/internal/storage"
)

func newTestService(t *testing.T) *LedgerService {
	t.Helper()
	repo, err := storage.NewSQLiteRepository(filepath.Join(t.TempDir(), "contabile.db"))
	if err != nil {
		t.Fatalf("NewSQLiteRepository: %v", err)
	}
	// nil AMQP client: local-only mode, the pending scan covers sync.
	svc := NewLedgerService(repo, nil)
	t.Cleanup(func() { svc.Close() })
	return svc
}

func serviceTx(desc string, cents int64) core.Transaction {
	return core.Transaction{
		Description: desc,
		Amount:      core.Money{Cents: cents},
		Date:        time.Date(2025, 3, 10, 0, 0, 0, 0, time.Local),
		Category:    "Food",
		CardID:      "c1",
	}
}

func TestAddExpenseWithoutBroker(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t)

	added, err := svc.AddExpense(ctx, serviceTx("pane", 250))
	if err != nil {
		t.Fatalf("AddExpense: %v", err)
	}
	if added.ID == "" {
		t.Fatal("expense must get an id even with no broker")
	}

	pending, err := svc.GetPendingSync(ctx, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(pending) != 1 {
		t.Fatalf("got %d pending rows, want 1 (pending scan is the fallback)", len(pending))
	}
}

func TestDeleteExpensesWithoutBroker(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t)

	a, _ := svc.AddExpense(ctx, serviceTx("a", 100))
	b, _ := svc.AddExpense(ctx, serviceTx("b", 200))

	if err := svc.DeleteExpenses(ctx, []string{a.ID, b.ID}); err != nil {
		t.Fatalf("DeleteExpenses: %v", err)
	}
	left, err := svc.ListExpenses(ctx, "")
	if err != nil {
		t.Fatal(err)
	}
	if len(left) != 0 {
		t.Fatalf("expenses still listed after delete: %+v", left)
	}
}

func TestAddExpenseValidationStopsWrite(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t)

	if _, err := svc.AddExpense(ctx, core.Transaction{Description: "x"}); err == nil {
		t.Fatal("invalid transaction must be rejected")
	}
	rows, _ := svc.ListExpenses(ctx, "")
	if len(rows) != 0 {
		t.Fatalf("rejected write must not persist, got %+v", rows)
	}
}
