package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"pocket/internal/core"
)

func newTestRepo(t *testing.T) *Repository {
	t.Helper()
	repo, err := NewRepository(filepath.Join(t.TempDir(), "pocket.db"))
	if err != nil {
		t.Fatalf("new repository: %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	return repo
}

func insertWallet(t *testing.T, repo *Repository, name, owner string) core.Wallet {
	t.Helper()
	var w core.Wallet
	err := repo.InTx(context.Background(), func(s *Store) error {
		var err error
		w, err = s.InsertWallet(context.Background(), core.Wallet{Name: name, OwnerID: owner})
		return err
	})
	if err != nil {
		t.Fatalf("insert wallet: %v", err)
	}
	return w
}

func TestWalletLifecycle(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	w := insertWallet(t, repo, "Main", "alice")
	if w.ID == 0 {
		t.Fatalf("expected assigned id")
	}
	if w.Amount.Cents != 0 || w.TotalIncome.Cents != 0 || w.TotalExpenses.Cents != 0 {
		t.Fatalf("new wallet must start with zeroed aggregates: %+v", w)
	}

	got, err := repo.GetWallet(ctx, w.ID)
	if err != nil {
		t.Fatalf("get wallet: %v", err)
	}
	if got.Name != "Main" || got.OwnerID != "alice" {
		t.Fatalf("unexpected wallet: %+v", got)
	}

	err = repo.InTx(ctx, func(s *Store) error {
		return s.RenameWallet(ctx, w.ID, "Savings")
	})
	if err != nil {
		t.Fatalf("rename wallet: %v", err)
	}
	got, _ = repo.GetWallet(ctx, w.ID)
	if got.Name != "Savings" {
		t.Fatalf("expected renamed wallet, got %q", got.Name)
	}

	err = repo.InTx(ctx, func(s *Store) error {
		got.Amount.Cents = 500
		got.TotalIncome.Cents = 500
		return s.PutWalletAggregates(ctx, got)
	})
	if err != nil {
		t.Fatalf("put aggregates: %v", err)
	}
	got, _ = repo.GetWallet(ctx, w.ID)
	if got.Amount.Cents != 500 || got.TotalIncome.Cents != 500 {
		t.Fatalf("aggregates not persisted: %+v", got)
	}

	err = repo.InTx(ctx, func(s *Store) error {
		return s.DeleteWallet(ctx, w.ID)
	})
	if err != nil {
		t.Fatalf("delete wallet: %v", err)
	}
	if _, err := repo.GetWallet(ctx, w.ID); !errors.Is(err, core.ErrWalletNotFound) {
		t.Fatalf("expected ErrWalletNotFound, got %v", err)
	}
}

func TestWalletNotFoundMapping(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	if _, err := repo.GetWallet(ctx, 12345); !errors.Is(err, core.ErrWalletNotFound) {
		t.Fatalf("expected ErrWalletNotFound, got %v", err)
	}
	err := repo.InTx(ctx, func(s *Store) error {
		return s.RenameWallet(ctx, 12345, "x")
	})
	if !errors.Is(err, core.ErrWalletNotFound) {
		t.Fatalf("expected ErrWalletNotFound, got %v", err)
	}
	if _, err := repo.GetTransaction(ctx, 12345); !errors.Is(err, core.ErrTransactionNotFound) {
		t.Fatalf("expected ErrTransactionNotFound, got %v", err)
	}
}

func TestTransactionLifecycle(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	w := insertWallet(t, repo, "Main", "alice")

	tx := core.Transaction{
		WalletID:    w.ID,
		OwnerID:     "alice",
		Type:        core.Expense,
		Amount:      core.Money{Cents: 1250},
		Category:    core.CategoryGroceries,
		Description: "weekly shop",
		Date:        time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC),
	}

	var created core.Transaction
	err := repo.InTx(ctx, func(s *Store) error {
		var err error
		created, err = s.InsertTransaction(ctx, tx)
		return err
	})
	if err != nil {
		t.Fatalf("insert transaction: %v", err)
	}
	if created.ID == 0 {
		t.Fatalf("expected assigned id")
	}

	got, err := repo.GetTransaction(ctx, created.ID)
	if err != nil {
		t.Fatalf("get transaction: %v", err)
	}
	if got.Amount.Cents != 1250 || got.Category != core.CategoryGroceries || !got.Date.Equal(tx.Date) {
		t.Fatalf("unexpected transaction: %+v", got)
	}

	got.Description = "monthly shop"
	got.Amount.Cents = 2000
	err = repo.InTx(ctx, func(s *Store) error {
		return s.PutTransaction(ctx, got)
	})
	if err != nil {
		t.Fatalf("put transaction: %v", err)
	}
	reloaded, _ := repo.GetTransaction(ctx, created.ID)
	if reloaded.Description != "monthly shop" || reloaded.Amount.Cents != 2000 {
		t.Fatalf("update not persisted: %+v", reloaded)
	}

	err = repo.InTx(ctx, func(s *Store) error {
		return s.DeleteTransaction(ctx, created.ID)
	})
	if err != nil {
		t.Fatalf("delete transaction: %v", err)
	}
	if _, err := repo.GetTransaction(ctx, created.ID); !errors.Is(err, core.ErrTransactionNotFound) {
		t.Fatalf("expected ErrTransactionNotFound, got %v", err)
	}
}

func TestTransactionsSinceOrdering(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	w := insertWallet(t, repo, "Main", "alice")

	dates := []time.Time{
		time.Date(2025, 6, 3, 0, 0, 0, 0, time.UTC),
		time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC),
	}
	for _, d := range dates {
		err := repo.InTx(ctx, func(s *Store) error {
			_, err := s.InsertTransaction(ctx, core.Transaction{
				WalletID: w.ID, OwnerID: "alice", Type: core.Income,
				Amount: core.Money{Cents: 100}, Date: d,
			})
			return err
		})
		if err != nil {
			t.Fatalf("insert: %v", err)
		}
	}

	since := time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC)
	txs, err := repo.TransactionsSince(ctx, "alice", since)
	if err != nil {
		t.Fatalf("transactions since: %v", err)
	}
	if len(txs) != 2 {
		t.Fatalf("expected 2 transactions at or after %v, got %d", since, len(txs))
	}
	if !txs[0].Date.Before(txs[1].Date) {
		t.Fatalf("expected ascending date order: %v, %v", txs[0].Date, txs[1].Date)
	}
}

func TestInTxRollsBackOnError(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	w := insertWallet(t, repo, "Main", "alice")

	boom := errors.New("boom")
	err := repo.InTx(ctx, func(s *Store) error {
		if _, err := s.InsertTransaction(ctx, core.Transaction{
			WalletID: w.ID, OwnerID: "alice", Type: core.Income,
			Amount: core.Money{Cents: 100}, Date: time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC),
		}); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}

	txs, err := repo.WalletTransactions(ctx, w.ID)
	if err != nil {
		t.Fatalf("wallet transactions: %v", err)
	}
	if len(txs) != 0 {
		t.Fatalf("expected rollback to discard insert, found %d rows", len(txs))
	}
}
