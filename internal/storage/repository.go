// Package storage is the sqlite ledger backend. It records every write
// locally and keeps per-row sync state so the worker can replay changes to
// the remote API later.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"

	"contabile/internal/core"

	_ "modernc.org/sqlite"
)

const (
	KindExpense = "expense"
	KindIncome  = "income"
)

type SQLiteRepository struct {
	db      *sql.DB
	queries *Queries
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db, queries: New(db)}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

func (r *SQLiteRepository) ListCards(ctx context.Context) ([]core.Card, error) {
	rows, err := r.queries.ListCards(ctx)
	if err != nil {
		return nil, fmt.Errorf("list cards: %w", err)
	}
	cards := make([]core.Card, len(rows))
	for i, row := range rows {
		cards[i] = cardToDomain(row)
	}
	return cards, nil
}

func (r *SQLiteRepository) AddCard(ctx context.Context, c core.Card) (core.Card, error) {
	if err := c.Validate(); err != nil {
		return core.Card{}, err
	}
	row, err := r.queries.CreateCard(ctx, CreateCardParams{
		Name:               c.Name,
		Color:              c.Color,
		InitialCreditCents: c.InitialCredit.Cents,
		StartDate:          core.FormatDateYYYYMMDDLocal(c.StartDate),
	})
	if err != nil {
		return core.Card{}, fmt.Errorf("create card: %w", err)
	}
	return cardToDomain(row), nil
}

func (r *SQLiteRepository) UpdateCard(ctx context.Context, id string, upd core.CardUpdate) (core.Card, error) {
	rowID, err := parseID(id)
	if err != nil {
		return core.Card{}, core.ErrNotFound
	}
	current, err := r.queries.GetCard(ctx, rowID)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Card{}, core.ErrNotFound
	}
	if err != nil {
		return core.Card{}, fmt.Errorf("get card: %w", err)
	}

	params := UpdateCardParams{
		Name:               current.Name,
		Color:              current.Color,
		InitialCreditCents: current.InitialCreditCents,
		StartDate:          current.StartDate,
		ID:                 rowID,
	}
	if upd.Name != nil {
		params.Name = *upd.Name
	}
	if upd.Color != nil {
		params.Color = *upd.Color
	}
	if upd.InitialCredit != nil {
		params.InitialCreditCents = upd.InitialCredit.Cents
	}
	if upd.StartDate != nil {
		params.StartDate = core.FormatDateYYYYMMDDLocal(*upd.StartDate)
	}

	row, err := r.queries.UpdateCard(ctx, params)
	if err != nil {
		return core.Card{}, fmt.Errorf("update card: %w", err)
	}
	return cardToDomain(row), nil
}

func (r *SQLiteRepository) ListExpenses(ctx context.Context, cardID string) ([]core.Transaction, error) {
	return r.listTransactions(ctx, KindExpense, cardID)
}

func (r *SQLiteRepository) ListIncomes(ctx context.Context, cardID string) ([]core.Transaction, error) {
	return r.listTransactions(ctx, KindIncome, cardID)
}

func (r *SQLiteRepository) listTransactions(ctx context.Context, kind, cardID string) ([]core.Transaction, error) {
	rows, err := r.queries.ListTransactions(ctx, ListTransactionsParams{Kind: kind, CardID: cardID})
	if err != nil {
		return nil, fmt.Errorf("list %ss: %w", kind, err)
	}
	txs := make([]core.Transaction, len(rows))
	for i, row := range rows {
		txs[i] = transactionToDomain(row)
	}
	return txs, nil
}

func (r *SQLiteRepository) AddExpense(ctx context.Context, t core.Transaction) (core.Transaction, error) {
	return r.addTransaction(ctx, KindExpense, t)
}

func (r *SQLiteRepository) AddIncome(ctx context.Context, t core.Transaction) (core.Transaction, error) {
	return r.addTransaction(ctx, KindIncome, t)
}

func (r *SQLiteRepository) addTransaction(ctx context.Context, kind string, t core.Transaction) (core.Transaction, error) {
	if err := t.Validate(); err != nil {
		return core.Transaction{}, err
	}
	row, err := r.queries.CreateTransaction(ctx, CreateTransactionParams{
		Kind:        kind,
		Description: t.Description,
		AmountCents: t.Amount.Cents,
		Date:        core.FormatDateYYYYMMDDLocal(t.Date),
		Category:    t.Category,
		CardID:      t.CardID,
	})
	if err != nil {
		return core.Transaction{}, fmt.Errorf("create %s: %w", kind, err)
	}

	slog.InfoContext(ctx, "Transaction saved to SQLite",
		"id", row.ID,
		"kind", kind,
		"description", row.Description,
		"amount_cents", row.AmountCents)

	return transactionToDomain(row), nil
}

func (r *SQLiteRepository) DeleteExpense(ctx context.Context, id string) error {
	return r.deleteTransactions(ctx, KindExpense, []string{id})
}

func (r *SQLiteRepository) DeleteExpenses(ctx context.Context, ids []string) error {
	return r.deleteTransactions(ctx, KindExpense, ids)
}

func (r *SQLiteRepository) DeleteIncome(ctx context.Context, id string) error {
	return r.deleteTransactions(ctx, KindIncome, []string{id})
}

func (r *SQLiteRepository) DeleteIncomes(ctx context.Context, ids []string) error {
	return r.deleteTransactions(ctx, KindIncome, ids)
}

// deleteTransactions removes rows locally and leaves a tombstone for every
// row that had already been synced, so the worker can delete it remotely too.
func (r *SQLiteRepository) deleteTransactions(ctx context.Context, kind string, ids []string) error {
	rowIDs := make([]int64, 0, len(ids))
	for _, id := range ids {
		rowID, err := parseID(id)
		if err != nil {
			continue
		}
		rowIDs = append(rowIDs, rowID)
	}
	if len(rowIDs) == 0 {
		return nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin delete: %w", err)
	}
	defer tx.Rollback()

	q := New(tx)
	for _, rowID := range rowIDs {
		row, err := q.GetTransaction(ctx, rowID)
		if errors.Is(err, sql.ErrNoRows) {
			continue
		}
		if err != nil {
			return fmt.Errorf("get %s %d: %w", kind, rowID, err)
		}
		if row.RemoteID.Valid {
			err := q.CreateTombstone(ctx, CreateTombstoneParams{Kind: kind, RemoteID: row.RemoteID.String})
			if err != nil {
				return fmt.Errorf("create tombstone: %w", err)
			}
		}
	}
	if err := q.DeleteTransactions(ctx, DeleteTransactionsParams{Kind: kind, IDs: rowIDs}); err != nil {
		return fmt.Errorf("delete %ss: %w", kind, err)
	}
	return tx.Commit()
}

func (r *SQLiteRepository) ExpenseProducts(ctx context.Context, expenseID string) ([]core.ExpenseProduct, error) {
	rowID, err := parseID(expenseID)
	if err != nil {
		return nil, core.ErrNotFound
	}
	rows, err := r.queries.ListExpenseProducts(ctx, rowID)
	if err != nil {
		return nil, fmt.Errorf("list expense products: %w", err)
	}
	products := make([]core.ExpenseProduct, len(rows))
	for i, row := range rows {
		products[i] = productToDomain(row)
	}
	return products, nil
}

func (r *SQLiteRepository) AddExpenseProduct(ctx context.Context, expenseID string, p core.ExpenseProduct) (core.ExpenseProduct, error) {
	if err := p.Validate(); err != nil {
		return core.ExpenseProduct{}, err
	}
	rowID, err := parseID(expenseID)
	if err != nil {
		return core.ExpenseProduct{}, core.ErrNotFound
	}
	if _, err := r.queries.GetTransaction(ctx, rowID); errors.Is(err, sql.ErrNoRows) {
		return core.ExpenseProduct{}, core.ErrNotFound
	} else if err != nil {
		return core.ExpenseProduct{}, fmt.Errorf("get expense: %w", err)
	}

	row, err := r.queries.CreateExpenseProduct(ctx, CreateExpenseProductParams{
		ExpenseID:  rowID,
		Name:       p.Name,
		Quantity:   int64(p.Quantity),
		Note:       p.Note,
		PriceCents: p.Price.Cents,
		ItemType:   string(p.ItemType),
		Scadenza:   core.FormatDateYYYYMMDDLocal(p.Expiry),
	})
	if err != nil {
		return core.ExpenseProduct{}, fmt.Errorf("create expense product: %w", err)
	}
	return productToDomain(row), nil
}

func (r *SQLiteRepository) ListUsers(ctx context.Context) ([]core.User, error) {
	rows, err := r.queries.ListUsers(ctx)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	users := make([]core.User, len(rows))
	for i, row := range rows {
		users[i] = core.User{ID: formatID(row.ID), Name: row.Name, Email: row.Email}
	}
	return users, nil
}

func (r *SQLiteRepository) AddUser(ctx context.Context, u core.User) (core.User, error) {
	if err := u.Validate(); err != nil {
		return core.User{}, err
	}
	row, err := r.queries.CreateUser(ctx, CreateUserParams{Name: u.Name, Email: u.Email})
	if err != nil {
		return core.User{}, fmt.Errorf("create user: %w", err)
	}
	return core.User{ID: formatID(row.ID), Name: row.Name, Email: row.Email}, nil
}

// PendingTransaction is what the sync worker needs to replay a local write.
type PendingTransaction struct {
	ID   int64
	Kind string
	Tx   core.Transaction
}

// PendingDelete is a replayable delete of an already-synced row.
type PendingDelete struct {
	ID       int64
	Kind     string
	RemoteID string
}

func (r *SQLiteRepository) GetPendingSync(ctx context.Context, limit int) ([]PendingTransaction, error) {
	rows, err := r.queries.GetPendingSync(ctx, int64(limit))
	if err != nil {
		return nil, fmt.Errorf("get pending sync: %w", err)
	}
	pending := make([]PendingTransaction, len(rows))
	for i, row := range rows {
		pending[i] = PendingTransaction{ID: row.ID, Kind: row.Kind, Tx: transactionToDomain(row)}
	}
	return pending, nil
}

func (r *SQLiteRepository) GetPendingDeletes(ctx context.Context, limit int) ([]PendingDelete, error) {
	rows, err := r.queries.ListTombstones(ctx, int64(limit))
	if err != nil {
		return nil, fmt.Errorf("list tombstones: %w", err)
	}
	deletes := make([]PendingDelete, len(rows))
	for i, row := range rows {
		deletes[i] = PendingDelete{ID: row.ID, Kind: row.Kind, RemoteID: row.RemoteID}
	}
	return deletes, nil
}

func (r *SQLiteRepository) GetTransaction(ctx context.Context, id int64) (PendingTransaction, error) {
	row, err := r.queries.GetTransaction(ctx, id)
	if errors.Is(err, sql.ErrNoRows) {
		return PendingTransaction{}, core.ErrNotFound
	}
	if err != nil {
		return PendingTransaction{}, fmt.Errorf("get transaction: %w", err)
	}
	if row.SyncedAt.Valid {
		return PendingTransaction{}, core.ErrNotFound
	}
	return PendingTransaction{ID: row.ID, Kind: row.Kind, Tx: transactionToDomain(row)}, nil
}

func (r *SQLiteRepository) MarkSynced(ctx context.Context, id int64, remoteID string) error {
	if err := r.queries.MarkSynced(ctx, MarkSyncedParams{RemoteID: remoteID, ID: id}); err != nil {
		return fmt.Errorf("mark synced: %w", err)
	}
	slog.InfoContext(ctx, "Transaction marked as synced", "id", id, "remote_id", remoteID)
	return nil
}

func (r *SQLiteRepository) MarkSyncError(ctx context.Context, id int64) error {
	if err := r.queries.MarkSyncError(ctx, id); err != nil {
		return fmt.Errorf("mark sync error: %w", err)
	}
	slog.WarnContext(ctx, "Transaction marked with sync error", "id", id)
	return nil
}

func (r *SQLiteRepository) DropTombstone(ctx context.Context, id int64) error {
	if err := r.queries.DeleteTombstone(ctx, id); err != nil {
		return fmt.Errorf("drop tombstone: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) DropTombstoneByRemote(ctx context.Context, kind, remoteID string) error {
	err := r.queries.DeleteTombstoneByRemote(ctx, DeleteTombstoneByRemoteParams{Kind: kind, RemoteID: remoteID})
	if err != nil {
		return fmt.Errorf("drop tombstone by remote id: %w", err)
	}
	return nil
}

func cardToDomain(row Card) core.Card {
	c := core.Card{
		ID:            formatID(row.ID),
		Name:          row.Name,
		Color:         row.Color,
		InitialCredit: core.Money{Cents: row.InitialCreditCents},
	}
	if t, err := core.ParseDateLenient(row.StartDate); err == nil {
		c.StartDate = t
	}
	return c
}

func transactionToDomain(row Transaction) core.Transaction {
	t := core.Transaction{
		ID:          formatID(row.ID),
		Description: row.Description,
		Amount:      core.Money{Cents: row.AmountCents},
		Category:    row.Category,
		CardID:      row.CardID,
	}
	if d, err := core.ParseDateLenient(row.Date); err == nil {
		t.Date = d
	}
	return t
}

func productToDomain(row ExpenseProduct) core.ExpenseProduct {
	p := core.ExpenseProduct{
		ID:       formatID(row.ID),
		Name:     row.Name,
		Quantity: int(row.Quantity),
		Note:     row.Note,
		Price:    core.Money{Cents: row.PriceCents},
		ItemType: core.ItemType(row.ItemType),
	}
	if t, err := core.ParseDateLenient(row.Scadenza); err == nil {
		p.Expiry = t
	}
	return p
}

func formatID(id int64) string {
	return strconv.FormatInt(id, 10)
}

func parseID(id string) (int64, error) {
	return strconv.ParseInt(id, 10, 64)
}
