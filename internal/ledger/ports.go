// Package ledger defines the ports every data backend implements. The HTTP
// layer and the sync worker only speak these interfaces; concrete adapters
// live in internal/graphql, internal/storage and internal/ledger/memory.
package ledger

import (
	"context"

	"contabile/internal/core"
)

type (
	CardReader interface {
		ListCards(ctx context.Context) ([]core.Card, error)
	}

	CardWriter interface {
		AddCard(ctx context.Context, c core.Card) (core.Card, error)
		UpdateCard(ctx context.Context, id string, upd core.CardUpdate) (core.Card, error)
	}

	// TransactionReader lists expenses and incomes. An empty cardID means
	// "all cards".
	TransactionReader interface {
		ListExpenses(ctx context.Context, cardID string) ([]core.Transaction, error)
		ListIncomes(ctx context.Context, cardID string) ([]core.Transaction, error)
	}

	TransactionWriter interface {
		AddExpense(ctx context.Context, t core.Transaction) (core.Transaction, error)
		AddIncome(ctx context.Context, t core.Transaction) (core.Transaction, error)
		DeleteExpense(ctx context.Context, id string) error
		DeleteExpenses(ctx context.Context, ids []string) error
		DeleteIncome(ctx context.Context, id string) error
		DeleteIncomes(ctx context.Context, ids []string) error
	}

	ProductReader interface {
		ExpenseProducts(ctx context.Context, expenseID string) ([]core.ExpenseProduct, error)
	}

	ProductWriter interface {
		AddExpenseProduct(ctx context.Context, expenseID string, p core.ExpenseProduct) (core.ExpenseProduct, error)
	}

	UserReader interface {
		ListUsers(ctx context.Context) ([]core.User, error)
	}

	UserWriter interface {
		AddUser(ctx context.Context, u core.User) (core.User, error)
	}

	// Store is the full ledger surface a backend provides.
	Store interface {
		CardReader
		CardWriter
		TransactionReader
		TransactionWriter
		ProductReader
		ProductWriter
		UserReader
		UserWriter
	}
)
