package graphql

import (
	"context"
	"fmt"

	"github.com/machinebox/graphql"

	"contabile/internal/core"
)

// Ledger implements ledger.Store over the remote API.
type Ledger struct {
	client *Client
}

func NewLedger(client *Client) *Ledger {
	return &Ledger{client: client}
}

func (l *Ledger) ListCards(ctx context.Context) ([]core.Card, error) {
	var resp struct {
		Cards []wireCard `json:"cards"`
	}
	req := graphql.NewRequest(queryCards)
	if err := l.client.gql.Run(ctx, req, &resp); err != nil {
		return nil, fmt.Errorf("query Cards: %w", err)
	}
	cards := make([]core.Card, len(resp.Cards))
	for i, w := range resp.Cards {
		cards[i] = w.toDomain()
	}
	return cards, nil
}

func (l *Ledger) AddCard(ctx context.Context, c core.Card) (core.Card, error) {
	if err := c.Validate(); err != nil {
		return core.Card{}, err
	}
	var resp struct {
		AddCard wireCard `json:"addCard"`
	}
	req := graphql.NewRequest(mutationAddCard)
	req.Var("input", cardInput(c))
	if err := l.client.gql.Run(ctx, req, &resp); err != nil {
		return core.Card{}, fmt.Errorf("mutation AddCard: %w", err)
	}
	return resp.AddCard.toDomain(), nil
}

func (l *Ledger) UpdateCard(ctx context.Context, id string, upd core.CardUpdate) (core.Card, error) {
	var resp struct {
		UpdateCard wireCard `json:"updateCard"`
	}
	req := graphql.NewRequest(mutationUpdateCard)
	req.Var("id", id)
	req.Var("input", cardUpdateInput(upd))
	if err := l.client.gql.Run(ctx, req, &resp); err != nil {
		return core.Card{}, fmt.Errorf("mutation UpdateCard: %w", err)
	}
	return resp.UpdateCard.toDomain(), nil
}

func (l *Ledger) ListExpenses(ctx context.Context, cardID string) ([]core.Transaction, error) {
	var resp struct {
		Expenses []wireTransaction `json:"expenses"`
	}
	req := graphql.NewRequest(queryExpenses)
	if cardID != "" {
		req.Var("cardId", cardID)
	}
	if err := l.client.gql.Run(ctx, req, &resp); err != nil {
		return nil, fmt.Errorf("query Expenses: %w", err)
	}
	return toDomainTransactions(resp.Expenses), nil
}

func (l *Ledger) ListIncomes(ctx context.Context, cardID string) ([]core.Transaction, error) {
	var resp struct {
		Incomes []wireTransaction `json:"incomes"`
	}
	req := graphql.NewRequest(queryIncomes)
	if cardID != "" {
		req.Var("cardId", cardID)
	}
	if err := l.client.gql.Run(ctx, req, &resp); err != nil {
		return nil, fmt.Errorf("query Incomes: %w", err)
	}
	return toDomainTransactions(resp.Incomes), nil
}

func (l *Ledger) AddExpense(ctx context.Context, t core.Transaction) (core.Transaction, error) {
	if err := t.Validate(); err != nil {
		return core.Transaction{}, err
	}
	var resp struct {
		AddExpense wireTransaction `json:"addExpense"`
	}
	req := graphql.NewRequest(mutationAddExpense)
	req.Var("expenseInput", transactionInput(t))
	if err := l.client.gql.Run(ctx, req, &resp); err != nil {
		return core.Transaction{}, fmt.Errorf("mutation AddExpense: %w", err)
	}
	return resp.AddExpense.toDomain(), nil
}

func (l *Ledger) AddIncome(ctx context.Context, t core.Transaction) (core.Transaction, error) {
	if err := t.Validate(); err != nil {
		return core.Transaction{}, err
	}
	var resp struct {
		AddIncome wireTransaction `json:"addIncome"`
	}
	req := graphql.NewRequest(mutationAddIncome)
	req.Var("incomeInput", transactionInput(t))
	if err := l.client.gql.Run(ctx, req, &resp); err != nil {
		return core.Transaction{}, fmt.Errorf("mutation AddIncome: %w", err)
	}
	return resp.AddIncome.toDomain(), nil
}

func (l *Ledger) DeleteExpense(ctx context.Context, id string) error {
	req := graphql.NewRequest(mutationDeleteExpense)
	req.Var("id", id)
	var resp struct{}
	if err := l.client.gql.Run(ctx, req, &resp); err != nil {
		return fmt.Errorf("mutation DeleteExpense: %w", err)
	}
	return nil
}

func (l *Ledger) DeleteExpenses(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	req := graphql.NewRequest(mutationDeleteExpenses)
	req.Var("ids", ids)
	var resp struct{}
	if err := l.client.gql.Run(ctx, req, &resp); err != nil {
		return fmt.Errorf("mutation DeleteExpenses: %w", err)
	}
	return nil
}

func (l *Ledger) DeleteIncome(ctx context.Context, id string) error {
	req := graphql.NewRequest(mutationDeleteIncome)
	req.Var("id", id)
	var resp struct{}
	if err := l.client.gql.Run(ctx, req, &resp); err != nil {
		return fmt.Errorf("mutation DeleteIncome: %w", err)
	}
	return nil
}

func (l *Ledger) DeleteIncomes(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	req := graphql.NewRequest(mutationDeleteIncomes)
	req.Var("ids", ids)
	var resp struct{}
	if err := l.client.gql.Run(ctx, req, &resp); err != nil {
		return fmt.Errorf("mutation DeleteIncomes: %w", err)
	}
	return nil
}

func (l *Ledger) ExpenseProducts(ctx context.Context, expenseID string) ([]core.ExpenseProduct, error) {
	var resp struct {
		ExpenseProducts []wireExpenseProduct `json:"expenseProducts"`
	}
	req := graphql.NewRequest(queryExpenseProducts)
	req.Var("expenseId", expenseID)
	if err := l.client.gql.Run(ctx, req, &resp); err != nil {
		return nil, fmt.Errorf("query ExpenseProducts: %w", err)
	}
	out := make([]core.ExpenseProduct, len(resp.ExpenseProducts))
	for i, w := range resp.ExpenseProducts {
		out[i] = w.toDomain()
	}
	return out, nil
}

func (l *Ledger) AddExpenseProduct(ctx context.Context, expenseID string, p core.ExpenseProduct) (core.ExpenseProduct, error) {
	if err := p.Validate(); err != nil {
		return core.ExpenseProduct{}, err
	}
	var resp struct {
		AddExpenseProduct wireExpenseProduct `json:"addExpenseProduct"`
	}
	req := graphql.NewRequest(mutationAddExpenseProduct)
	req.Var("expenseId", expenseID)
	req.Var("product", expenseProductInput(p))
	if err := l.client.gql.Run(ctx, req, &resp); err != nil {
		return core.ExpenseProduct{}, fmt.Errorf("mutation AddExpenseProduct: %w", err)
	}
	return resp.AddExpenseProduct.toDomain(), nil
}

func (l *Ledger) ListUsers(ctx context.Context) ([]core.User, error) {
	var resp struct {
		Users []wireUser `json:"users"`
	}
	req := graphql.NewRequest(queryUsers)
	if err := l.client.gql.Run(ctx, req, &resp); err != nil {
		return nil, fmt.Errorf("query Users: %w", err)
	}
	users := make([]core.User, len(resp.Users))
	for i, w := range resp.Users {
		users[i] = w.toDomain()
	}
	return users, nil
}

func (l *Ledger) AddUser(ctx context.Context, u core.User) (core.User, error) {
	if err := u.Validate(); err != nil {
		return core.User{}, err
	}
	var resp struct {
		AddUser wireUser `json:"addUser"`
	}
	req := graphql.NewRequest(mutationAddUser)
	req.Var("input", map[string]any{"name": u.Name, "email": u.Email})
	if err := l.client.gql.Run(ctx, req, &resp); err != nil {
		return core.User{}, fmt.Errorf("mutation AddUser: %w", err)
	}
	return resp.AddUser.toDomain(), nil
}
