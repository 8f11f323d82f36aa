// Package memory implements the ledger ports with an in-process store,
// optionally seeded from JSON files. It backs local development and tests.
package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"contabile/internal/core"
)

type Store struct {
	mu       sync.Mutex
	cards    []core.Card
	expenses []core.Transaction
	incomes  []core.Transaction
	products map[string][]core.ExpenseProduct // keyed by expense id
	users    []core.User
	nextID   int64
}

func New() *Store {
	return &Store{products: make(map[string][]core.ExpenseProduct), nextID: 1}
}

type seedCard struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Color       string  `json:"color"`
	CreditoIniz float64 `json:"credito_iniziale"`
	StartDate   string  `json:"start_date"`
}

// NewFromFiles seeds cards from <base>/seed_cards.json when present. Missing
// or malformed seed data falls back to a small default set so the app is
// usable out of the box.
func NewFromFiles(base string) *Store {
	s := New()
	data, err := os.ReadFile(filepath.Join(base, "seed_cards.json"))
	if err == nil {
		var seeds []seedCard
		if json.Unmarshal(data, &seeds) == nil {
			for _, sc := range seeds {
				if strings.TrimSpace(sc.Name) == "" {
					continue
				}
				card := core.Card{
					ID:            sc.ID,
					Name:          sc.Name,
					Color:         sc.Color,
					InitialCredit: core.Money{Cents: core.CentsFromFloat(sc.CreditoIniz)},
				}
				if t, err := core.ParseDateLenient(sc.StartDate); err == nil {
					card.StartDate = t
				}
				if card.ID == "" {
					card.ID = s.newID("card")
				}
				s.cards = append(s.cards, card)
			}
		}
	}
	if len(s.cards) == 0 {
		s.cards = []core.Card{
			{ID: s.newID("card"), Name: "Carta principale", Color: "#1976d2", InitialCredit: core.Money{Cents: 100000}},
			{ID: s.newID("card"), Name: "Carta risparmi", Color: "#388e3c", InitialCredit: core.Money{Cents: 50000}},
		}
	}
	return s
}

// newID returns a monotonically increasing identifier; callers must hold mu
// or be in single-threaded setup code. Running balances rank by the trailing
// digits, so ids must stay in assignment order.
func (s *Store) newID(prefix string) string {
	id := fmt.Sprintf("%s-%d", prefix, s.nextID)
	s.nextID++
	return id
}

func (s *Store) ListCards(_ context.Context) ([]core.Card, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]core.Card(nil), s.cards...), nil
}

func (s *Store) AddCard(_ context.Context, c core.Card) (core.Card, error) {
	if err := c.Validate(); err != nil {
		return core.Card{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	c.ID = s.newID("card")
	s.cards = append(s.cards, c)
	return c, nil
}

func (s *Store) UpdateCard(_ context.Context, id string, upd core.CardUpdate) (core.Card, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.cards {
		if s.cards[i].ID != id {
			continue
		}
		if upd.Name != nil {
			s.cards[i].Name = *upd.Name
		}
		if upd.Color != nil {
			s.cards[i].Color = *upd.Color
		}
		if upd.InitialCredit != nil {
			s.cards[i].InitialCredit = *upd.InitialCredit
		}
		if upd.StartDate != nil {
			s.cards[i].StartDate = *upd.StartDate
		}
		return s.cards[i], nil
	}
	return core.Card{}, core.ErrNotFound
}

func (s *Store) ListExpenses(_ context.Context, cardID string) ([]core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return core.FilterByCard(append([]core.Transaction(nil), s.expenses...), cardID), nil
}

func (s *Store) ListIncomes(_ context.Context, cardID string) ([]core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return core.FilterByCard(append([]core.Transaction(nil), s.incomes...), cardID), nil
}

func (s *Store) AddExpense(_ context.Context, t core.Transaction) (core.Transaction, error) {
	if err := t.Validate(); err != nil {
		return core.Transaction{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	t.ID = s.newID("exp")
	s.expenses = append(s.expenses, t)
	return t, nil
}

func (s *Store) AddIncome(_ context.Context, t core.Transaction) (core.Transaction, error) {
	if err := t.Validate(); err != nil {
		return core.Transaction{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	t.ID = s.newID("inc")
	s.incomes = append(s.incomes, t)
	return t, nil
}

func (s *Store) DeleteExpense(ctx context.Context, id string) error {
	return s.DeleteExpenses(ctx, []string{id})
}

func (s *Store) DeleteExpenses(_ context.Context, ids []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.expenses = deleteByID(s.expenses, ids)
	for _, id := range ids {
		delete(s.products, id)
	}
	return nil
}

func (s *Store) DeleteIncome(ctx context.Context, id string) error {
	return s.DeleteIncomes(ctx, []string{id})
}

func (s *Store) DeleteIncomes(_ context.Context, ids []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.incomes = deleteByID(s.incomes, ids)
	return nil
}

func (s *Store) ExpenseProducts(_ context.Context, expenseID string) ([]core.ExpenseProduct, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]core.ExpenseProduct(nil), s.products[expenseID]...), nil
}

func (s *Store) AddExpenseProduct(_ context.Context, expenseID string, p core.ExpenseProduct) (core.ExpenseProduct, error) {
	if err := p.Validate(); err != nil {
		return core.ExpenseProduct{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	found := false
	for _, e := range s.expenses {
		if e.ID == expenseID {
			found = true
			break
		}
	}
	if !found {
		return core.ExpenseProduct{}, core.ErrNotFound
	}
	p.ID = s.newID("prod")
	s.products[expenseID] = append(s.products[expenseID], p)
	return p, nil
}

func (s *Store) ListUsers(_ context.Context) ([]core.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]core.User(nil), s.users...), nil
}

func (s *Store) AddUser(_ context.Context, u core.User) (core.User, error) {
	if err := u.Validate(); err != nil {
		return core.User{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	u.ID = s.newID("user")
	s.users = append(s.users, u)
	return u, nil
}

// SeedTransactions loads expenses and incomes directly, for tests.
func (s *Store) SeedTransactions(expenses, incomes []core.Transaction) {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	for _, t := range expenses {
		if t.Date.IsZero() {
			t.Date = now
		}
		if t.ID == "" {
			t.ID = s.newID("exp")
		}
		s.expenses = append(s.expenses, t)
	}
	for _, t := range incomes {
		if t.Date.IsZero() {
			t.Date = now
		}
		if t.ID == "" {
			t.ID = s.newID("inc")
		}
		s.incomes = append(s.incomes, t)
	}
}

func deleteByID(txs []core.Transaction, ids []string) []core.Transaction {
	drop := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		drop[id] = struct{}{}
	}
	out := txs[:0]
	for _, t := range txs {
		if _, gone := drop[t.ID]; !gone {
			out = append(out, t)
		}
	}
	return out
}
