package memory

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"contabile/internal/core"
)

func testTx(desc string, cents int64, cardID string) core.Transaction {
	return core.Transaction{
		Description: desc,
		Amount:      core.Money{Cents: cents},
		Date:        time.Date(2025, 3, 10, 12, 0, 0, 0, time.Local),
		Category:    "Food",
		CardID:      cardID,
	}
}

func TestAddAndListExpenses(t *testing.T) {
	ctx := context.Background()
	s := New()

	a, err := s.AddExpense(ctx, testTx("pane", 250, "card-1"))
	if err != nil {
		t.Fatalf("AddExpense: %v", err)
	}
	b, err := s.AddExpense(ctx, testTx("latte", 189, "card-2"))
	if err != nil {
		t.Fatalf("AddExpense: %v", err)
	}
	if a.ID == "" || a.ID == b.ID {
		t.Fatalf("ids must be assigned and distinct, got %q and %q", a.ID, b.ID)
	}

	all, err := s.ListExpenses(ctx, "")
	if err != nil {
		t.Fatalf("ListExpenses: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("ListExpenses(all) = %d rows, want 2", len(all))
	}

	one, err := s.ListExpenses(ctx, "card-2")
	if err != nil {
		t.Fatalf("ListExpenses: %v", err)
	}
	if len(one) != 1 || one[0].Description != "latte" {
		t.Fatalf("ListExpenses(card-2) = %+v, want only latte", one)
	}
}

func TestAddExpenseValidates(t *testing.T) {
	s := New()
	bad := testTx("", 250, "card-1")
	if _, err := s.AddExpense(context.Background(), bad); !errors.Is(err, core.ErrEmptyDescription) {
		t.Fatalf("got %v, want %v", err, core.ErrEmptyDescription)
	}
}

func TestBulkDeleteKeepsOthers(t *testing.T) {
	ctx := context.Background()
	s := New()
	var ids []string
	for _, desc := range []string{"a", "b", "c"} {
		e, err := s.AddExpense(ctx, testTx(desc, 100, "card-1"))
		if err != nil {
			t.Fatalf("AddExpense: %v", err)
		}
		ids = append(ids, e.ID)
	}
	if err := s.DeleteExpenses(ctx, []string{ids[0], ids[2]}); err != nil {
		t.Fatalf("DeleteExpenses: %v", err)
	}
	left, _ := s.ListExpenses(ctx, "")
	if len(left) != 1 || left[0].ID != ids[1] {
		t.Fatalf("after bulk delete got %+v, want only %s", left, ids[1])
	}
}

func TestDeleteExpenseDropsProducts(t *testing.T) {
	ctx := context.Background()
	s := New()
	e, err := s.AddExpense(ctx, testTx("spesa", 2500, "card-1"))
	if err != nil {
		t.Fatalf("AddExpense: %v", err)
	}
	p := core.ExpenseProduct{Name: "Latte", Quantity: 1, Price: core.Money{Cents: 189}, ItemType: core.ItemTypeAlimentare}
	if _, err := s.AddExpenseProduct(ctx, e.ID, p); err != nil {
		t.Fatalf("AddExpenseProduct: %v", err)
	}
	if err := s.DeleteExpense(ctx, e.ID); err != nil {
		t.Fatalf("DeleteExpense: %v", err)
	}
	got, err := s.ExpenseProducts(ctx, e.ID)
	if err != nil {
		t.Fatalf("ExpenseProducts: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("products must be dropped with their expense, got %d", len(got))
	}
}

func TestAddExpenseProductUnknownExpense(t *testing.T) {
	s := New()
	p := core.ExpenseProduct{Name: "Latte", Quantity: 1, Price: core.Money{Cents: 189}, ItemType: core.ItemTypeAlimentare}
	if _, err := s.AddExpenseProduct(context.Background(), "missing", p); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("got %v, want %v", err, core.ErrNotFound)
	}
}

func TestUpdateCard(t *testing.T) {
	ctx := context.Background()
	s := New()
	c, err := s.AddCard(ctx, core.Card{Name: "Revolut", Color: "#123456", InitialCredit: core.Money{Cents: 100000}})
	if err != nil {
		t.Fatalf("AddCard: %v", err)
	}

	name := "Revolut Premium"
	credit := core.Money{Cents: 200000}
	got, err := s.UpdateCard(ctx, c.ID, core.CardUpdate{Name: &name, InitialCredit: &credit})
	if err != nil {
		t.Fatalf("UpdateCard: %v", err)
	}
	if got.Name != name || got.InitialCredit != credit {
		t.Fatalf("UpdateCard = %+v", got)
	}
	if got.Color != "#123456" {
		t.Fatalf("unset fields must be kept, color = %q", got.Color)
	}

	if _, err := s.UpdateCard(ctx, "missing", core.CardUpdate{Name: &name}); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("got %v, want %v", err, core.ErrNotFound)
	}
}

func TestNewFromFiles(t *testing.T) {
	dir := t.TempDir()
	seed := `[
		{"name": "Conto corrente", "color": "#1976d2", "credito_iniziale": 1500.5, "start_date": "2024-01-01"},
		{"name": "  ", "credito_iniziale": 10}
	]`
	if err := os.WriteFile(filepath.Join(dir, "seed_cards.json"), []byte(seed), 0o644); err != nil {
		t.Fatal(err)
	}

	s := NewFromFiles(dir)
	cards, err := s.ListCards(context.Background())
	if err != nil {
		t.Fatalf("ListCards: %v", err)
	}
	if len(cards) != 1 {
		t.Fatalf("blank names must be skipped, got %d cards", len(cards))
	}
	if cards[0].InitialCredit.Cents != 150050 {
		t.Errorf("credito iniziale = %d cents, want 150050", cards[0].InitialCredit.Cents)
	}
	if cards[0].StartDate.IsZero() {
		t.Error("start date must be parsed")
	}
}

func TestNewFromFilesMissingSeed(t *testing.T) {
	s := NewFromFiles(t.TempDir())
	cards, err := s.ListCards(context.Background())
	if err != nil {
		t.Fatalf("ListCards: %v", err)
	}
	if len(cards) == 0 {
		t.Fatal("missing seed must fall back to default cards")
	}
}
