package core

import (
	"errors"
	"strings"
	"time"
)

const (
	ItemTypeAltro      ItemType = "Altro"
	ItemTypeAlimentare ItemType = "Alimentare"
)

type (
	// ItemType classifies an expense product line.
	ItemType string

	Money struct {
		Cents int64
	}

	// Card is a payment account with an initial credit and a start date.
	Card struct {
		ID            string
		Name          string
		Color         string
		InitialCredit Money
		StartDate     time.Time
	}

	// CardUpdate carries the editable card fields. Nil means "leave as is".
	CardUpdate struct {
		Name          *string
		Color         *string
		InitialCredit *Money
		StartDate     *time.Time
	}

	// Transaction is an expense or income record. The two share one shape;
	// which list a transaction belongs to decides its sign in totals.
	Transaction struct {
		ID          string
		Description string
		Amount      Money
		Date        time.Time
		Category    string
		CardID      string // empty means unassigned
	}

	// ExpenseProduct is a sub-line-item of one expense.
	ExpenseProduct struct {
		ID       string
		Name     string
		Quantity int
		Price    Money
		Note     string
		ItemType ItemType
		Expiry   time.Time
	}

	// AldiProduct is a catalog entry; Description holds long-form HTML and
	// is only populated by the detail lookup.
	AldiProduct struct {
		ID          string
		Name        string
		Price       Money
		Category    string
		Image       string
		SKU         string
		Description string
	}

	User struct {
		ID    string
		Name  string
		Email string
	}
)

var (
	ErrInvalidAmount    = errors.New("invalid amount")
	ErrInvalidDate      = errors.New("invalid date")
	ErrEmptyDescription = errors.New("empty description")
	ErrEmptyCategory    = errors.New("empty category")
	ErrEmptyName        = errors.New("empty name")
	ErrNotFound         = errors.New("not found")
)

func (m Money) Validate() error {
	if m.Cents <= 0 {
		return ErrInvalidAmount
	}
	return nil
}

func (t Transaction) Validate() error {
	if len(strings.TrimSpace(t.Description)) == 0 {
		return ErrEmptyDescription
	}
	if len(t.Description) > 200 {
		return errors.New("description too long (max 200 characters)")
	}
	if err := t.Amount.Validate(); err != nil {
		return err
	}
	if t.Date.IsZero() {
		return ErrInvalidDate
	}
	if strings.TrimSpace(t.Category) == "" {
		return ErrEmptyCategory
	}
	return nil
}

func (c Card) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return ErrEmptyName
	}
	if c.InitialCredit.Cents < 0 {
		return ErrInvalidAmount
	}
	return nil
}

func (p ExpenseProduct) Validate() error {
	if strings.TrimSpace(p.Name) == "" {
		return ErrEmptyName
	}
	if p.Quantity < 1 {
		return errors.New("invalid quantity")
	}
	if err := p.Price.Validate(); err != nil {
		return err
	}
	switch p.ItemType {
	case "", ItemTypeAltro, ItemTypeAlimentare:
	default:
		return errors.New("invalid item type")
	}
	return nil
}

func (u User) Validate() error {
	if strings.TrimSpace(u.Name) == "" {
		return ErrEmptyName
	}
	if !strings.Contains(u.Email, "@") {
		return errors.New("invalid email")
	}
	return nil
}

// TotalAmount sums transaction amounts.
func TotalAmount(txs []Transaction) Money {
	var cents int64
	for _, t := range txs {
		cents += t.Amount.Cents
	}
	return Money{Cents: cents}
}

// TotalInitialCredit sums the initial credit of all cards.
func TotalInitialCredit(cards []Card) Money {
	var cents int64
	for _, c := range cards {
		cents += c.InitialCredit.Cents
	}
	return Money{Cents: cents}
}

// CurrentCredit computes initial credit + incomes - expenses. When card is
// nil the initial credit of every card is summed ("all cards" view).
func CurrentCredit(card *Card, cards []Card, expenses, incomes []Transaction) Money {
	var initial int64
	if card != nil {
		initial = card.InitialCredit.Cents
	} else {
		initial = TotalInitialCredit(cards).Cents
	}
	return Money{Cents: initial + TotalAmount(incomes).Cents - TotalAmount(expenses).Cents}
}

// FilterByCard returns the transactions whose card id matches. An empty
// cardID selects everything.
func FilterByCard(txs []Transaction, cardID string) []Transaction {
	if cardID == "" {
		return txs
	}
	out := make([]Transaction, 0, len(txs))
	for _, t := range txs {
		if t.CardID == cardID {
			out = append(out, t)
		}
	}
	return out
}
