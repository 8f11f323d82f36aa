package graphql

import (
	"contabile/internal/core"
)

// Wire types mirror the API schema: euro amounts travel as floats and dates
// as strings, so each type carries a conversion to the domain representation.

type wireCard struct {
	ID              string  `json:"id"`
	Name            string  `json:"name"`
	Color           string  `json:"color"`
	CreditoIniziale float64 `json:"credito_iniziale"`
	StartDate       string  `json:"start_date"`
}

func (w wireCard) toDomain() core.Card {
	c := core.Card{
		ID:            w.ID,
		Name:          w.Name,
		Color:         w.Color,
		InitialCredit: core.Money{Cents: core.CentsFromFloat(w.CreditoIniziale)},
	}
	if t, err := core.ParseDateLenient(w.StartDate); err == nil {
		c.StartDate = t
	}
	return c
}

type wireTransaction struct {
	ID          string  `json:"id"`
	Description string  `json:"description"`
	Amount      float64 `json:"amount"`
	Date        string  `json:"date"`
	Category    string  `json:"category"`
	CardID      string  `json:"card_id"`
}

func (w wireTransaction) toDomain() core.Transaction {
	t := core.Transaction{
		ID:          w.ID,
		Description: w.Description,
		Amount:      core.Money{Cents: core.CentsFromFloat(w.Amount)},
		Category:    w.Category,
		CardID:      w.CardID,
	}
	if d, err := core.ParseDateLenient(w.Date); err == nil {
		t.Date = d
	}
	return t
}

func toDomainTransactions(ws []wireTransaction) []core.Transaction {
	out := make([]core.Transaction, len(ws))
	for i, w := range ws {
		out[i] = w.toDomain()
	}
	return out
}

type wireExpenseProduct struct {
	ID       string  `json:"id"`
	Name     string  `json:"name"`
	Quantity int     `json:"quantity"`
	Note     string  `json:"note"`
	Price    float64 `json:"price"`
	ItemType string  `json:"item_type"`
	Scadenza string  `json:"scadenza"`
}

func (w wireExpenseProduct) toDomain() core.ExpenseProduct {
	p := core.ExpenseProduct{
		ID:       w.ID,
		Name:     w.Name,
		Quantity: w.Quantity,
		Note:     w.Note,
		Price:    core.Money{Cents: core.CentsFromFloat(w.Price)},
		ItemType: core.ItemType(w.ItemType),
	}
	if t, err := core.ParseDateLenient(w.Scadenza); err == nil {
		p.Expiry = t
	}
	return p
}

type wireAldiProduct struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Price       float64 `json:"price"`
	Category    string  `json:"category"`
	Image       string  `json:"image"`
	SKU         string  `json:"sku"`
	Description string  `json:"description"`
}

func (w wireAldiProduct) toDomain() core.AldiProduct {
	return core.AldiProduct{
		ID:          w.ID,
		Name:        w.Name,
		Price:       core.Money{Cents: core.CentsFromFloat(w.Price)},
		Category:    w.Category,
		Image:       w.Image,
		SKU:         w.SKU,
		Description: w.Description,
	}
}

type wireUser struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

func (w wireUser) toDomain() core.User {
	return core.User{ID: w.ID, Name: w.Name, Email: w.Email}
}

// Input maps follow the schema's input object field names.

func transactionInput(t core.Transaction) map[string]any {
	in := map[string]any{
		"description": t.Description,
		"amount":      t.Amount.Euros(),
		"date":        core.FormatDateYYYYMMDDLocal(t.Date),
		"category":    t.Category,
	}
	if t.CardID != "" {
		in["card_id"] = t.CardID
	}
	return in
}

func cardInput(c core.Card) map[string]any {
	in := map[string]any{
		"name":             c.Name,
		"color":            c.Color,
		"credito_iniziale": c.InitialCredit.Euros(),
	}
	if !c.StartDate.IsZero() {
		in["start_date"] = core.FormatDateYYYYMMDDLocal(c.StartDate)
	}
	return in
}

func cardUpdateInput(upd core.CardUpdate) map[string]any {
	in := map[string]any{}
	if upd.Name != nil {
		in["name"] = *upd.Name
	}
	if upd.Color != nil {
		in["color"] = *upd.Color
	}
	if upd.InitialCredit != nil {
		in["credito_iniziale"] = upd.InitialCredit.Euros()
	}
	if upd.StartDate != nil {
		in["start_date"] = core.FormatDateYYYYMMDDLocal(*upd.StartDate)
	}
	return in
}

func expenseProductInput(p core.ExpenseProduct) map[string]any {
	in := map[string]any{
		"name":      p.Name,
		"quantity":  p.Quantity,
		"price":     p.Price.Euros(),
		"item_type": string(p.ItemType),
	}
	if p.Note != "" {
		in["note"] = p.Note
	}
	if !p.Expiry.IsZero() {
		in["scadenza"] = core.FormatDateYYYYMMDDLocal(p.Expiry)
	}
	return in
}
