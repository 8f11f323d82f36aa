package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"contabile/internal/core"
)

func newTestRepo(t *testing.T) *SQLiteRepository {
	t.Helper()
	repo, err := NewSQLiteRepository(filepath.Join(t.TempDir(), "contabile.db"))
	if err != nil {
		t.Fatalf("NewSQLiteRepository: %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	return repo
}

func storedTx(desc string, cents int64, cardID string) core.Transaction {
	return core.Transaction{
		Description: desc,
		Amount:      core.Money{Cents: cents},
		Date:        time.Date(2025, 3, 10, 0, 0, 0, 0, time.Local),
		Category:    "Food",
		CardID:      cardID,
	}
}

func TestAddExpenseRoundTrip(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)

	added, err := repo.AddExpense(ctx, storedTx("pane", 250, "c1"))
	if err != nil {
		t.Fatalf("AddExpense: %v", err)
	}
	if added.ID == "" {
		t.Fatal("expense must get an id")
	}

	got, err := repo.ListExpenses(ctx, "c1")
	if err != nil {
		t.Fatalf("ListExpenses: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("got %d expenses, want 1", len(got))
	}
	if got[0].Amount.Cents != 250 || got[0].Description != "pane" {
		t.Errorf("round trip lost data: %+v", got[0])
	}
	if core.DayKey(got[0].Date) != "2025-03-10" {
		t.Errorf("date day = %q, want 2025-03-10", core.DayKey(got[0].Date))
	}
}

func TestExpensesAndIncomesAreSeparate(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)
	if _, err := repo.AddExpense(ctx, storedTx("spesa", 100, "c1")); err != nil {
		t.Fatal(err)
	}
	if _, err := repo.AddIncome(ctx, storedTx("stipendio", 200000, "c1")); err != nil {
		t.Fatal(err)
	}

	expenses, _ := repo.ListExpenses(ctx, "")
	incomes, _ := repo.ListIncomes(ctx, "")
	if len(expenses) != 1 || len(incomes) != 1 {
		t.Fatalf("got %d expenses and %d incomes, want 1 and 1", len(expenses), len(incomes))
	}
	if incomes[0].Description != "stipendio" {
		t.Errorf("income = %+v", incomes[0])
	}
}

func TestDeleteUnsyncedLeavesNoTombstone(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)
	e, err := repo.AddExpense(ctx, storedTx("pane", 250, "c1"))
	if err != nil {
		t.Fatal(err)
	}
	if err := repo.DeleteExpense(ctx, e.ID); err != nil {
		t.Fatalf("DeleteExpense: %v", err)
	}

	left, _ := repo.ListExpenses(ctx, "")
	if len(left) != 0 {
		t.Fatalf("expense still listed after delete: %+v", left)
	}
	deletes, err := repo.GetPendingDeletes(ctx, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(deletes) != 0 {
		t.Fatalf("unsynced delete must not be replayed remotely, got %+v", deletes)
	}
}

func TestDeleteSyncedCreatesTombstone(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)
	e, err := repo.AddExpense(ctx, storedTx("pane", 250, "c1"))
	if err != nil {
		t.Fatal(err)
	}

	pending, err := repo.GetPendingSync(ctx, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(pending) != 1 {
		t.Fatalf("got %d pending, want 1", len(pending))
	}
	if err := repo.MarkSynced(ctx, pending[0].ID, "remote-42"); err != nil {
		t.Fatal(err)
	}

	if err := repo.DeleteExpense(ctx, e.ID); err != nil {
		t.Fatal(err)
	}
	deletes, err := repo.GetPendingDeletes(ctx, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(deletes) != 1 || deletes[0].RemoteID != "remote-42" || deletes[0].Kind != KindExpense {
		t.Fatalf("tombstone = %+v, want remote-42 expense", deletes)
	}

	if err := repo.DropTombstone(ctx, deletes[0].ID); err != nil {
		t.Fatal(err)
	}
	if deletes, _ = repo.GetPendingDeletes(ctx, 10); len(deletes) != 0 {
		t.Fatalf("tombstone must be dropped after replay, got %+v", deletes)
	}
}

func TestPendingSyncSkipsSyncedAndErrored(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)
	a, _ := repo.AddExpense(ctx, storedTx("a", 100, "c1"))
	b, _ := repo.AddExpense(ctx, storedTx("b", 200, "c1"))
	if _, err := repo.AddExpense(ctx, storedTx("c", 300, "c1")); err != nil {
		t.Fatal(err)
	}

	aID, _ := parseID(a.ID)
	bID, _ := parseID(b.ID)
	if err := repo.MarkSynced(ctx, aID, "r1"); err != nil {
		t.Fatal(err)
	}
	if err := repo.MarkSyncError(ctx, bID); err != nil {
		t.Fatal(err)
	}

	pending, err := repo.GetPendingSync(ctx, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(pending) != 1 || pending[0].Tx.Description != "c" {
		t.Fatalf("pending = %+v, want only c", pending)
	}
}

func TestUpdateCardPartial(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)
	c, err := repo.AddCard(ctx, core.Card{Name: "Revolut", Color: "#123", InitialCredit: core.Money{Cents: 100000}})
	if err != nil {
		t.Fatal(err)
	}

	credit := core.Money{Cents: 50000}
	got, err := repo.UpdateCard(ctx, c.ID, core.CardUpdate{InitialCredit: &credit})
	if err != nil {
		t.Fatalf("UpdateCard: %v", err)
	}
	if got.Name != "Revolut" || got.InitialCredit.Cents != 50000 {
		t.Errorf("UpdateCard = %+v", got)
	}

	if _, err := repo.UpdateCard(ctx, "9999", core.CardUpdate{}); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("got %v, want %v", err, core.ErrNotFound)
	}
}

func TestExpenseProductsCascade(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)
	e, err := repo.AddExpense(ctx, storedTx("spesa", 2500, "c1"))
	if err != nil {
		t.Fatal(err)
	}
	p := core.ExpenseProduct{Name: "Latte", Quantity: 2, Price: core.Money{Cents: 189}, ItemType: core.ItemTypeAlimentare}
	if _, err := repo.AddExpenseProduct(ctx, e.ID, p); err != nil {
		t.Fatalf("AddExpenseProduct: %v", err)
	}

	products, err := repo.ExpenseProducts(ctx, e.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(products) != 1 || products[0].Quantity != 2 {
		t.Fatalf("products = %+v", products)
	}

	if err := repo.DeleteExpense(ctx, e.ID); err != nil {
		t.Fatal(err)
	}
	products, err = repo.ExpenseProducts(ctx, e.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(products) != 0 {
		t.Fatalf("products must cascade on delete, got %+v", products)
	}

	if _, err := repo.AddExpenseProduct(ctx, "9999", p); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("got %v, want %v", err, core.ErrNotFound)
	}
}
