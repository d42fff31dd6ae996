package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"pocket/internal/core"

	_ "modernc.org/sqlite"
)

// Repository is the SQLite-backed entity store. All derived state in the
// system can be recomputed from the rows it holds.
type Repository struct {
	db      *sql.DB
	queries *Queries
}

func NewRepository(dbPath string) (*Repository, error) {
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

	if _, err := db.Exec(`PRAGMA foreign_keys = ON`); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &Repository{
		db:      db,
		queries: New(db),
	}, nil
}

func (r *Repository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Store exposes the entity operations against a fixed DBTX. A Store
// obtained through InTx sees and writes uncommitted transaction state;
// the Repository's own methods delegate to an auto-commit Store.
type Store struct {
	q *Queries
}

// InTx runs fn against a transaction-bound store. Any error rolls the
// whole transaction back, which is what makes the ledger's multi-step
// revert/apply protocol atomic.
func (r *Repository) InTx(ctx context.Context, fn func(s *Store) error) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if err := fn(&Store{q: r.queries.WithTx(tx)}); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

func (r *Repository) view() *Store {
	return &Store{q: r.queries}
}

func (r *Repository) GetWallet(ctx context.Context, id int64) (core.Wallet, error) {
	return r.view().GetWallet(ctx, id)
}

func (r *Repository) ListWallets(ctx context.Context, ownerID string) ([]core.Wallet, error) {
	return r.view().ListWallets(ctx, ownerID)
}

func (r *Repository) ListAllWallets(ctx context.Context) ([]core.Wallet, error) {
	rows, err := r.queries.ListAllWallets(ctx)
	if err != nil {
		return nil, fmt.Errorf("list all wallets: %w", err)
	}
	return toCoreWallets(rows), nil
}

func (r *Repository) GetTransaction(ctx context.Context, id int64) (core.Transaction, error) {
	return r.view().GetTransaction(ctx, id)
}

func (r *Repository) WalletTransactions(ctx context.Context, walletID int64) ([]core.Transaction, error) {
	return r.view().WalletTransactions(ctx, walletID)
}

// TransactionsSince returns the owner's transactions dated at or after
// since, oldest first. Snapshot read; safe to run alongside mutations.
func (r *Repository) TransactionsSince(ctx context.Context, ownerID string, since time.Time) ([]core.Transaction, error) {
	rows, err := r.queries.ListTransactionsSince(ctx, ListTransactionsSinceParams{OwnerID: ownerID, Since: since})
	if err != nil {
		return nil, fmt.Errorf("list transactions since: %w", err)
	}
	return toCoreTransactions(rows), nil
}

func (r *Repository) ExpensesByOwner(ctx context.Context, ownerID string) ([]core.Transaction, error) {
	rows, err := r.queries.ListExpensesByOwner(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list expenses: %w", err)
	}
	return toCoreTransactions(rows), nil
}

func (r *Repository) RecentTransactions(ctx context.Context, ownerID string, limit int) ([]core.Transaction, error) {
	rows, err := r.queries.ListRecentTransactions(ctx, ListRecentTransactionsParams{OwnerID: ownerID, Limit: int64(limit)})
	if err != nil {
		return nil, fmt.Errorf("list recent transactions: %w", err)
	}
	return toCoreTransactions(rows), nil
}

func (s *Store) GetWallet(ctx context.Context, id int64) (core.Wallet, error) {
	row, err := s.q.GetWallet(ctx, id)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Wallet{}, core.ErrWalletNotFound
	}
	if err != nil {
		return core.Wallet{}, fmt.Errorf("get wallet %d: %w", id, err)
	}
	return toCoreWallet(row), nil
}

func (s *Store) InsertWallet(ctx context.Context, w core.Wallet) (core.Wallet, error) {
	row, err := s.q.CreateWallet(ctx, CreateWalletParams{Name: w.Name, OwnerID: w.OwnerID})
	if err != nil {
		return core.Wallet{}, fmt.Errorf("insert wallet: %w", err)
	}
	return toCoreWallet(row), nil
}

func (s *Store) RenameWallet(ctx context.Context, id int64, name string) error {
	n, err := s.q.UpdateWalletName(ctx, id, name)
	if err != nil {
		return fmt.Errorf("rename wallet %d: %w", id, err)
	}
	if n == 0 {
		return core.ErrWalletNotFound
	}
	return nil
}

// PutWalletAggregates persists the wallet's cached balance and totals.
// The sole write path for aggregate fields.
func (s *Store) PutWalletAggregates(ctx context.Context, w core.Wallet) error {
	n, err := s.q.UpdateWalletAggregates(ctx, UpdateWalletAggregatesParams{
		ID:                 w.ID,
		AmountCents:        w.Amount.Cents,
		TotalIncomeCents:   w.TotalIncome.Cents,
		TotalExpensesCents: w.TotalExpenses.Cents,
	})
	if err != nil {
		return fmt.Errorf("update wallet aggregates %d: %w", w.ID, err)
	}
	if n == 0 {
		return core.ErrWalletNotFound
	}
	return nil
}

func (s *Store) DeleteWallet(ctx context.Context, id int64) error {
	n, err := s.q.DeleteWallet(ctx, id)
	if err != nil {
		return fmt.Errorf("delete wallet %d: %w", id, err)
	}
	if n == 0 {
		return core.ErrWalletNotFound
	}
	return nil
}

func (s *Store) ListWallets(ctx context.Context, ownerID string) ([]core.Wallet, error) {
	rows, err := s.q.ListWalletsByOwner(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list wallets: %w", err)
	}
	return toCoreWallets(rows), nil
}

func (s *Store) GetTransaction(ctx context.Context, id int64) (core.Transaction, error) {
	row, err := s.q.GetTransaction(ctx, id)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Transaction{}, core.ErrTransactionNotFound
	}
	if err != nil {
		return core.Transaction{}, fmt.Errorf("get transaction %d: %w", id, err)
	}
	return toCoreTransaction(row), nil
}

func (s *Store) InsertTransaction(ctx context.Context, t core.Transaction) (core.Transaction, error) {
	row, err := s.q.CreateTransaction(ctx, CreateTransactionParams{
		WalletID:    t.WalletID,
		OwnerID:     t.OwnerID,
		Type:        string(t.Type),
		AmountCents: t.Amount.Cents,
		Category:    string(t.Category),
		Description: t.Description,
		TxDate:      t.Date.UTC(),
	})
	if err != nil {
		return core.Transaction{}, fmt.Errorf("insert transaction: %w", err)
	}
	return toCoreTransaction(row), nil
}

func (s *Store) PutTransaction(ctx context.Context, t core.Transaction) error {
	n, err := s.q.UpdateTransaction(ctx, UpdateTransactionParams{
		ID:          t.ID,
		WalletID:    t.WalletID,
		Type:        string(t.Type),
		AmountCents: t.Amount.Cents,
		Category:    string(t.Category),
		Description: t.Description,
		TxDate:      t.Date.UTC(),
	})
	if err != nil {
		return fmt.Errorf("update transaction %d: %w", t.ID, err)
	}
	if n == 0 {
		return core.ErrTransactionNotFound
	}
	return nil
}

func (s *Store) DeleteTransaction(ctx context.Context, id int64) error {
	n, err := s.q.DeleteTransaction(ctx, id)
	if err != nil {
		return fmt.Errorf("delete transaction %d: %w", id, err)
	}
	if n == 0 {
		return core.ErrTransactionNotFound
	}
	return nil
}

func (s *Store) WalletTransactions(ctx context.Context, walletID int64) ([]core.Transaction, error) {
	rows, err := s.q.ListTransactionsByWallet(ctx, walletID)
	if err != nil {
		return nil, fmt.Errorf("list wallet transactions: %w", err)
	}
	return toCoreTransactions(rows), nil
}

func toCoreWallet(w Wallet) core.Wallet {
	return core.Wallet{
		ID:            w.ID,
		Name:          w.Name,
		OwnerID:       w.OwnerID,
		Amount:        core.Money{Cents: w.AmountCents},
		TotalIncome:   core.Money{Cents: w.TotalIncomeCents},
		TotalExpenses: core.Money{Cents: w.TotalExpensesCents},
		CreatedAt:     w.CreatedAt,
	}
}

func toCoreWallets(rows []Wallet) []core.Wallet {
	out := make([]core.Wallet, len(rows))
	for i, w := range rows {
		out[i] = toCoreWallet(w)
	}
	return out
}

func toCoreTransaction(t Transaction) core.Transaction {
	return core.Transaction{
		ID:          t.ID,
		WalletID:    t.WalletID,
		OwnerID:     t.OwnerID,
		Type:        core.TxType(t.Type),
		Amount:      core.Money{Cents: t.AmountCents},
		Category:    core.Category(t.Category),
		Description: t.Description,
		Date:        t.TxDate,
	}
}

func toCoreTransactions(rows []Transaction) []core.Transaction {
	out := make([]core.Transaction, len(rows))
	for i, t := range rows {
		out[i] = toCoreTransaction(t)
	}
	return out
}
