package storage

import (
	"context"
	"database/sql"
	"strings"
)

// DBTX is the subset of *sql.DB and *sql.Tx the queries need.
type DBTX interface {
	ExecContext(context.Context, string, ...any) (sql.Result, error)
	QueryContext(context.Context, string, ...any) (*sql.Rows, error)
	QueryRowContext(context.Context, string, ...any) *sql.Row
}

type Queries struct {
	db DBTX
}

func New(db DBTX) *Queries {
	return &Queries{db: db}
}

type Card struct {
	ID                 int64
	Name               string
	Color              string
	InitialCreditCents int64
	StartDate          string
	CreatedAt          sql.NullTime
}

type Transaction struct {
	ID          int64
	Kind        string
	Description string
	AmountCents int64
	Date        string
	Category    string
	CardID      string
	RemoteID    sql.NullString
	SyncedAt    sql.NullTime
	SyncError   int64
	CreatedAt   sql.NullTime
}

type ExpenseProduct struct {
	ID         int64
	ExpenseID  int64
	Name       string
	Quantity   int64
	Note       string
	PriceCents int64
	ItemType   string
	Scadenza   string
}

type User struct {
	ID        int64
	Name      string
	Email     string
	CreatedAt sql.NullTime
}

type Tombstone struct {
	ID       int64
	Kind     string
	RemoteID string
}

const createCard = `
INSERT INTO cards (name, color, initial_credit_cents, start_date)
VALUES (?, ?, ?, ?)
RETURNING id, name, color, initial_credit_cents, start_date, created_at`

type CreateCardParams struct {
	Name               string
	Color              string
	InitialCreditCents int64
	StartDate          string
}

func (q *Queries) CreateCard(ctx context.Context, arg CreateCardParams) (Card, error) {
	row := q.db.QueryRowContext(ctx, createCard, arg.Name, arg.Color, arg.InitialCreditCents, arg.StartDate)
	var c Card
	err := row.Scan(&c.ID, &c.Name, &c.Color, &c.InitialCreditCents, &c.StartDate, &c.CreatedAt)
	return c, err
}

const updateCard = `
UPDATE cards
SET name = ?, color = ?, initial_credit_cents = ?, start_date = ?
WHERE id = ?
RETURNING id, name, color, initial_credit_cents, start_date, created_at`

type UpdateCardParams struct {
	Name               string
	Color              string
	InitialCreditCents int64
	StartDate          string
	ID                 int64
}

func (q *Queries) UpdateCard(ctx context.Context, arg UpdateCardParams) (Card, error) {
	row := q.db.QueryRowContext(ctx, updateCard, arg.Name, arg.Color, arg.InitialCreditCents, arg.StartDate, arg.ID)
	var c Card
	err := row.Scan(&c.ID, &c.Name, &c.Color, &c.InitialCreditCents, &c.StartDate, &c.CreatedAt)
	return c, err
}

const getCard = `
SELECT id, name, color, initial_credit_cents, start_date, created_at
FROM cards WHERE id = ?`

func (q *Queries) GetCard(ctx context.Context, id int64) (Card, error) {
	row := q.db.QueryRowContext(ctx, getCard, id)
	var c Card
	err := row.Scan(&c.ID, &c.Name, &c.Color, &c.InitialCreditCents, &c.StartDate, &c.CreatedAt)
	return c, err
}

const listCards = `
SELECT id, name, color, initial_credit_cents, start_date, created_at
FROM cards ORDER BY id`

func (q *Queries) ListCards(ctx context.Context) ([]Card, error) {
	rows, err := q.db.QueryContext(ctx, listCards)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var cards []Card
	for rows.Next() {
		var c Card
		if err := rows.Scan(&c.ID, &c.Name, &c.Color, &c.InitialCreditCents, &c.StartDate, &c.CreatedAt); err != nil {
			return nil, err
		}
		cards = append(cards, c)
	}
	return cards, rows.Err()
}

const createTransaction = `
INSERT INTO transactions (kind, description, amount_cents, date, category, card_id)
VALUES (?, ?, ?, ?, ?, ?)
RETURNING id, kind, description, amount_cents, date, category, card_id, remote_id, synced_at, sync_error, created_at`

type CreateTransactionParams struct {
	Kind        string
	Description string
	AmountCents int64
	Date        string
	Category    string
	CardID      string
}

func (q *Queries) CreateTransaction(ctx context.Context, arg CreateTransactionParams) (Transaction, error) {
	row := q.db.QueryRowContext(ctx, createTransaction,
		arg.Kind, arg.Description, arg.AmountCents, arg.Date, arg.Category, arg.CardID)
	return scanTransaction(row)
}

const getTransaction = `
SELECT id, kind, description, amount_cents, date, category, card_id, remote_id, synced_at, sync_error, created_at
FROM transactions WHERE id = ?`

func (q *Queries) GetTransaction(ctx context.Context, id int64) (Transaction, error) {
	return scanTransaction(q.db.QueryRowContext(ctx, getTransaction, id))
}

const listTransactions = `
SELECT id, kind, description, amount_cents, date, category, card_id, remote_id, synced_at, sync_error, created_at
FROM transactions
WHERE kind = ? AND (? = '' OR card_id = ?)
ORDER BY id`

type ListTransactionsParams struct {
	Kind   string
	CardID string
}

func (q *Queries) ListTransactions(ctx context.Context, arg ListTransactionsParams) ([]Transaction, error) {
	rows, err := q.db.QueryContext(ctx, listTransactions, arg.Kind, arg.CardID, arg.CardID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var txs []Transaction
	for rows.Next() {
		t, err := scanTransactionRows(rows)
		if err != nil {
			return nil, err
		}
		txs = append(txs, t)
	}
	return txs, rows.Err()
}

type DeleteTransactionsParams struct {
	Kind string
	IDs  []int64
}

// DeleteTransactions removes the given rows of one kind. The IN clause is
// expanded by hand because sqlite has no array binding.
func (q *Queries) DeleteTransactions(ctx context.Context, arg DeleteTransactionsParams) error {
	if len(arg.IDs) == 0 {
		return nil
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(arg.IDs)), ", ")
	query := "DELETE FROM transactions WHERE kind = ? AND id IN (" + placeholders + ")"
	args := make([]any, 0, len(arg.IDs)+1)
	args = append(args, arg.Kind)
	for _, id := range arg.IDs {
		args = append(args, id)
	}
	_, err := q.db.ExecContext(ctx, query, args...)
	return err
}

const getPendingSync = `
SELECT id, kind, description, amount_cents, date, category, card_id, remote_id, synced_at, sync_error, created_at
FROM transactions
WHERE synced_at IS NULL AND sync_error = 0
ORDER BY id
LIMIT ?`

func (q *Queries) GetPendingSync(ctx context.Context, limit int64) ([]Transaction, error) {
	rows, err := q.db.QueryContext(ctx, getPendingSync, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var txs []Transaction
	for rows.Next() {
		t, err := scanTransactionRows(rows)
		if err != nil {
			return nil, err
		}
		txs = append(txs, t)
	}
	return txs, rows.Err()
}

const markSynced = `
UPDATE transactions SET synced_at = CURRENT_TIMESTAMP, sync_error = 0, remote_id = ?
WHERE id = ?`

type MarkSyncedParams struct {
	RemoteID string
	ID       int64
}

func (q *Queries) MarkSynced(ctx context.Context, arg MarkSyncedParams) error {
	_, err := q.db.ExecContext(ctx, markSynced, arg.RemoteID, arg.ID)
	return err
}

const markSyncError = `UPDATE transactions SET sync_error = 1 WHERE id = ?`

func (q *Queries) MarkSyncError(ctx context.Context, id int64) error {
	_, err := q.db.ExecContext(ctx, markSyncError, id)
	return err
}

const createExpenseProduct = `
INSERT INTO expense_products (expense_id, name, quantity, note, price_cents, item_type, scadenza)
VALUES (?, ?, ?, ?, ?, ?, ?)
RETURNING id, expense_id, name, quantity, note, price_cents, item_type, scadenza`

type CreateExpenseProductParams struct {
	ExpenseID  int64
	Name       string
	Quantity   int64
	Note       string
	PriceCents int64
	ItemType   string
	Scadenza   string
}

func (q *Queries) CreateExpenseProduct(ctx context.Context, arg CreateExpenseProductParams) (ExpenseProduct, error) {
	row := q.db.QueryRowContext(ctx, createExpenseProduct,
		arg.ExpenseID, arg.Name, arg.Quantity, arg.Note, arg.PriceCents, arg.ItemType, arg.Scadenza)
	var p ExpenseProduct
	err := row.Scan(&p.ID, &p.ExpenseID, &p.Name, &p.Quantity, &p.Note, &p.PriceCents, &p.ItemType, &p.Scadenza)
	return p, err
}

const listExpenseProducts = `
SELECT id, expense_id, name, quantity, note, price_cents, item_type, scadenza
FROM expense_products WHERE expense_id = ? ORDER BY id`

func (q *Queries) ListExpenseProducts(ctx context.Context, expenseID int64) ([]ExpenseProduct, error) {
	rows, err := q.db.QueryContext(ctx, listExpenseProducts, expenseID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var products []ExpenseProduct
	for rows.Next() {
		var p ExpenseProduct
		if err := rows.Scan(&p.ID, &p.ExpenseID, &p.Name, &p.Quantity, &p.Note, &p.PriceCents, &p.ItemType, &p.Scadenza); err != nil {
			return nil, err
		}
		products = append(products, p)
	}
	return products, rows.Err()
}

const createUser = `
INSERT INTO users (name, email) VALUES (?, ?)
RETURNING id, name, email, created_at`

type CreateUserParams struct {
	Name  string
	Email string
}

func (q *Queries) CreateUser(ctx context.Context, arg CreateUserParams) (User, error) {
	row := q.db.QueryRowContext(ctx, createUser, arg.Name, arg.Email)
	var u User
	err := row.Scan(&u.ID, &u.Name, &u.Email, &u.CreatedAt)
	return u, err
}

const listUsers = `SELECT id, name, email, created_at FROM users ORDER BY id`

func (q *Queries) ListUsers(ctx context.Context) ([]User, error) {
	rows, err := q.db.QueryContext(ctx, listUsers)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var users []User
	for rows.Next() {
		var u User
		if err := rows.Scan(&u.ID, &u.Name, &u.Email, &u.CreatedAt); err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

const createTombstone = `INSERT INTO tombstones (kind, remote_id) VALUES (?, ?)`

type CreateTombstoneParams struct {
	Kind     string
	RemoteID string
}

func (q *Queries) CreateTombstone(ctx context.Context, arg CreateTombstoneParams) error {
	_, err := q.db.ExecContext(ctx, createTombstone, arg.Kind, arg.RemoteID)
	return err
}

const listTombstones = `SELECT id, kind, remote_id FROM tombstones ORDER BY id LIMIT ?`

func (q *Queries) ListTombstones(ctx context.Context, limit int64) ([]Tombstone, error) {
	rows, err := q.db.QueryContext(ctx, listTombstones, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var ts []Tombstone
	for rows.Next() {
		var t Tombstone
		if err := rows.Scan(&t.ID, &t.Kind, &t.RemoteID); err != nil {
			return nil, err
		}
		ts = append(ts, t)
	}
	return ts, rows.Err()
}

const deleteTombstone = `DELETE FROM tombstones WHERE id = ?`

func (q *Queries) DeleteTombstone(ctx context.Context, id int64) error {
	_, err := q.db.ExecContext(ctx, deleteTombstone, id)
	return err
}

const deleteTombstoneByRemote = `DELETE FROM tombstones WHERE kind = ? AND remote_id = ?`

type DeleteTombstoneByRemoteParams struct {
	Kind     string
	RemoteID string
}

func (q *Queries) DeleteTombstoneByRemote(ctx context.Context, arg DeleteTombstoneByRemoteParams) error {
	_, err := q.db.ExecContext(ctx, deleteTombstoneByRemote, arg.Kind, arg.RemoteID)
	return err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTransaction(row rowScanner) (Transaction, error) {
	var t Transaction
	err := row.Scan(&t.ID, &t.Kind, &t.Description, &t.AmountCents, &t.Date, &t.Category,
		&t.CardID, &t.RemoteID, &t.SyncedAt, &t.SyncError, &t.CreatedAt)
	return t, err
}

func scanTransactionRows(rows *sql.Rows) (Transaction, error) {
	return scanTransaction(rows)
}
