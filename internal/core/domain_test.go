package core

import (
	"errors"
	"testing"
	"time"
)

func validTx() Transaction {
	return Transaction{
		ID:          "e1",
		Description: "Spesa settimanale",
		Amount:      Money{Cents: 5000},
		Date:        time.Date(2024, 1, 1, 0, 0, 0, 0, time.Local),
		Category:    "Food",
		CardID:      "c1",
	}
}

func TestTransactionValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Transaction)
		wantErr error
	}{
		{"valid", func(*Transaction) {}, nil},
		{"empty description", func(tx *Transaction) { tx.Description = "  " }, ErrEmptyDescription},
		{"zero amount", func(tx *Transaction) { tx.Amount = Money{} }, ErrInvalidAmount},
		{"negative amount", func(tx *Transaction) { tx.Amount = Money{Cents: -1} }, ErrInvalidAmount},
		{"zero date", func(tx *Transaction) { tx.Date = time.Time{} }, ErrInvalidDate},
		{"empty category", func(tx *Transaction) { tx.Category = "" }, ErrEmptyCategory},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			tx := validTx()
			tc.mutate(&tx)
			err := tx.Validate()
			if tc.wantErr == nil {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if !errors.Is(err, tc.wantErr) {
				t.Fatalf("got %v, want %v", err, tc.wantErr)
			}
		})
	}
}

func TestCardValidate(t *testing.T) {
	c := Card{Name: "Revolut", InitialCredit: Money{Cents: 100000}}
	if err := c.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	c.Name = ""
	if err := c.Validate(); !errors.Is(err, ErrEmptyName) {
		t.Fatalf("got %v, want %v", err, ErrEmptyName)
	}
}

func TestExpenseProductValidate(t *testing.T) {
	p := ExpenseProduct{Name: "Latte", Quantity: 2, Price: Money{Cents: 189}, ItemType: ItemTypeAlimentare}
	if err := p.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	p.ItemType = "Sconosciuto"
	if err := p.Validate(); err == nil {
		t.Fatal("invalid item type must fail validation")
	}
}

func TestCurrentCredit(t *testing.T) {
	cards := []Card{
		{ID: "c1", Name: "A", InitialCredit: Money{Cents: 100000}},
		{ID: "c2", Name: "B", InitialCredit: Money{Cents: 50000}},
	}
	expenses := []Transaction{
		tx("e1", "c1", 5000),
		tx("e2", "c1", 3000),
		tx("e3", "c1", 2000),
	}

	// Single card: 1000 - 100 + 0 = 900 euro.
	got := CurrentCredit(&cards[0], cards, expenses, nil)
	if got.Cents != 90000 {
		t.Errorf("single card credit = %d, want 90000", got.Cents)
	}
	if got.String() != "€900,00" {
		t.Errorf("credito attuale = %q, want €900,00", got.String())
	}

	// All cards: 1500 - 100 + 20 income.
	incomes := []Transaction{tx("i1", "c2", 2000)}
	got = CurrentCredit(nil, cards, expenses, incomes)
	if got.Cents != 142000 {
		t.Errorf("all-cards credit = %d, want 142000", got.Cents)
	}
}

func TestFilterByCard(t *testing.T) {
	txs := []Transaction{
		tx("e1", "c1", 1),
		tx("e2", "c1", 2),
		tx("e3", "c2", 3),
	}
	got := FilterByCard(txs, "c2")
	if len(got) != 1 || got[0].ID != "e3" {
		t.Fatalf("FilterByCard(c2) = %+v, want only e3", got)
	}
	if all := FilterByCard(txs, ""); len(all) != 3 {
		t.Fatalf("empty card id must select everything, got %d", len(all))
	}
}
