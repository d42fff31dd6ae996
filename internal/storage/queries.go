package storage

import (
	"context"
	"database/sql"
	"time"
)

// DBTX is satisfied by both *sql.DB and *sql.Tx so every query can run
// standalone or inside a transaction.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type Queries struct {
	db DBTX
}

func New(db DBTX) *Queries {
	return &Queries{db: db}
}

func (q *Queries) WithTx(tx *sql.Tx) *Queries {
	return &Queries{db: tx}
}

// Wallet is the wallets table row.
type Wallet struct {
	ID                 int64
	Name               string
	OwnerID            string
	AmountCents        int64
	TotalIncomeCents   int64
	TotalExpensesCents int64
	CreatedAt          time.Time
}

// Transaction is the transactions table row.
type Transaction struct {
	ID          int64
	WalletID    int64
	OwnerID     string
	Type        string
	AmountCents int64
	Category    string
	Description string
	TxDate      time.Time
}

type CreateWalletParams struct {
	Name    string
	OwnerID string
}

func (q *Queries) CreateWallet(ctx context.Context, arg CreateWalletParams) (Wallet, error) {
	row := q.db.QueryRowContext(ctx, `
		INSERT INTO wallets (name, owner_id, amount_cents, total_income_cents, total_expenses_cents, created_at)
		VALUES (?, ?, 0, 0, 0, ?)
		RETURNING id, name, owner_id, amount_cents, total_income_cents, total_expenses_cents, created_at`,
		arg.Name, arg.OwnerID, time.Now().UTC())
	return scanWallet(row)
}

func (q *Queries) GetWallet(ctx context.Context, id int64) (Wallet, error) {
	row := q.db.QueryRowContext(ctx, `
		SELECT id, name, owner_id, amount_cents, total_income_cents, total_expenses_cents, created_at
		FROM wallets WHERE id = ?`, id)
	return scanWallet(row)
}

func (q *Queries) UpdateWalletName(ctx context.Context, id int64, name string) (int64, error) {
	res, err := q.db.ExecContext(ctx, `UPDATE wallets SET name = ? WHERE id = ?`, name, id)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

type UpdateWalletAggregatesParams struct {
	ID                 int64
	AmountCents        int64
	TotalIncomeCents   int64
	TotalExpensesCents int64
}

func (q *Queries) UpdateWalletAggregates(ctx context.Context, arg UpdateWalletAggregatesParams) (int64, error) {
	res, err := q.db.ExecContext(ctx, `
		UPDATE wallets
		SET amount_cents = ?, total_income_cents = ?, total_expenses_cents = ?
		WHERE id = ?`,
		arg.AmountCents, arg.TotalIncomeCents, arg.TotalExpensesCents, arg.ID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (q *Queries) DeleteWallet(ctx context.Context, id int64) (int64, error) {
	res, err := q.db.ExecContext(ctx, `DELETE FROM wallets WHERE id = ?`, id)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (q *Queries) ListWalletsByOwner(ctx context.Context, ownerID string) ([]Wallet, error) {
	rows, err := q.db.QueryContext(ctx, `
		SELECT id, name, owner_id, amount_cents, total_income_cents, total_expenses_cents, created_at
		FROM wallets WHERE owner_id = ?
		ORDER BY created_at DESC, id DESC`, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectWallets(rows)
}

func (q *Queries) ListAllWallets(ctx context.Context) ([]Wallet, error) {
	rows, err := q.db.QueryContext(ctx, `
		SELECT id, name, owner_id, amount_cents, total_income_cents, total_expenses_cents, created_at
		FROM wallets ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectWallets(rows)
}

type CreateTransactionParams struct {
	WalletID    int64
	OwnerID     string
	Type        string
	AmountCents int64
	Category    string
	Description string
	TxDate      time.Time
}

func (q *Queries) CreateTransaction(ctx context.Context, arg CreateTransactionParams) (Transaction, error) {
	row := q.db.QueryRowContext(ctx, `
		INSERT INTO transactions (wallet_id, owner_id, type, amount_cents, category, description, tx_date)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		RETURNING id, wallet_id, owner_id, type, amount_cents, category, description, tx_date`,
		arg.WalletID, arg.OwnerID, arg.Type, arg.AmountCents, arg.Category, arg.Description, arg.TxDate)
	return scanTransaction(row)
}

func (q *Queries) GetTransaction(ctx context.Context, id int64) (Transaction, error) {
	row := q.db.QueryRowContext(ctx, `
		SELECT id, wallet_id, owner_id, type, amount_cents, category, description, tx_date
		FROM transactions WHERE id = ?`, id)
	return scanTransaction(row)
}

type UpdateTransactionParams struct {
	ID          int64
	WalletID    int64
	Type        string
	AmountCents int64
	Category    string
	Description string
	TxDate      time.Time
}

func (q *Queries) UpdateTransaction(ctx context.Context, arg UpdateTransactionParams) (int64, error) {
	res, err := q.db.ExecContext(ctx, `
		UPDATE transactions
		SET wallet_id = ?, type = ?, amount_cents = ?, category = ?, description = ?, tx_date = ?
		WHERE id = ?`,
		arg.WalletID, arg.Type, arg.AmountCents, arg.Category, arg.Description, arg.TxDate, arg.ID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (q *Queries) DeleteTransaction(ctx context.Context, id int64) (int64, error) {
	res, err := q.db.ExecContext(ctx, `DELETE FROM transactions WHERE id = ?`, id)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (q *Queries) ListTransactionsByWallet(ctx context.Context, walletID int64) ([]Transaction, error) {
	rows, err := q.db.QueryContext(ctx, `
		SELECT id, wallet_id, owner_id, type, amount_cents, category, description, tx_date
		FROM transactions WHERE wallet_id = ?
		ORDER BY tx_date DESC, id DESC`, walletID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectTransactions(rows)
}

type ListTransactionsSinceParams struct {
	OwnerID string
	Since   time.Time
}

func (q *Queries) ListTransactionsSince(ctx context.Context, arg ListTransactionsSinceParams) ([]Transaction, error) {
	rows, err := q.db.QueryContext(ctx, `
		SELECT id, wallet_id, owner_id, type, amount_cents, category, description, tx_date
		FROM transactions WHERE owner_id = ? AND tx_date >= ?
		ORDER BY tx_date, id`, arg.OwnerID, arg.Since)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectTransactions(rows)
}

func (q *Queries) ListExpensesByOwner(ctx context.Context, ownerID string) ([]Transaction, error) {
	rows, err := q.db.QueryContext(ctx, `
		SELECT id, wallet_id, owner_id, type, amount_cents, category, description, tx_date
		FROM transactions WHERE owner_id = ? AND type = 'expense'
		ORDER BY tx_date, id`, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectTransactions(rows)
}

type ListRecentTransactionsParams struct {
	OwnerID string
	Limit   int64
}

func (q *Queries) ListRecentTransactions(ctx context.Context, arg ListRecentTransactionsParams) ([]Transaction, error) {
	rows, err := q.db.QueryContext(ctx, `
		SELECT id, wallet_id, owner_id, type, amount_cents, category, description, tx_date
		FROM transactions WHERE owner_id = ?
		ORDER BY tx_date DESC, id DESC
		LIMIT ?`, arg.OwnerID, arg.Limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectTransactions(rows)
}

func scanWallet(row *sql.Row) (Wallet, error) {
	var w Wallet
	err := row.Scan(&w.ID, &w.Name, &w.OwnerID, &w.AmountCents, &w.TotalIncomeCents, &w.TotalExpensesCents, &w.CreatedAt)
	return w, err
}

func collectWallets(rows *sql.Rows) ([]Wallet, error) {
	var out []Wallet
	for rows.Next() {
		var w Wallet
		if err := rows.Scan(&w.ID, &w.Name, &w.OwnerID, &w.AmountCents, &w.TotalIncomeCents, &w.TotalExpensesCents, &w.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, w)
	}
	return out, rows.Err()
}

func scanTransaction(row *sql.Row) (Transaction, error) {
	var t Transaction
	err := row.Scan(&t.ID, &t.WalletID, &t.OwnerID, &t.Type, &t.AmountCents, &t.Category, &t.Description, &t.TxDate)
	return t, err
}

func collectTransactions(rows *sql.Rows) ([]Transaction, error) {
	var out []Transaction
	for rows.Next() {
		var t Transaction
		if err := rows.Scan(&t.ID, &t.WalletID, &t.OwnerID, &t.Type, &t.AmountCents, &t.Category, &t.Description, &t.TxDate); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}
