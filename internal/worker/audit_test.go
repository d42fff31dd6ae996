package worker

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"pocket/internal/amqp"
	"pocket/internal/core"
	"pocket/internal/ledger"
	"pocket/internal/storage"
)

func newTestWorker(t *testing.T) (*AuditWorker, *ledger.Engine, *storage.Repository) {
	t.Helper()
	repo, err := storage.NewRepository(filepath.Join(t.TempDir(), "pocket.db"))
	if err != nil {
		t.Fatalf("new repository: %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	return New(repo), ledger.New(repo, nil), repo
}

func seedWallet(t *testing.T, e *ledger.Engine) core.Wallet {
	t.Helper()
	ctx := context.Background()
	w, err := e.CreateOrUpdateWallet(ctx, core.Wallet{Name: "Main", OwnerID: "alice"})
	if err != nil {
		t.Fatalf("create wallet: %v", err)
	}
	if _, err := e.CreateTransaction(ctx, core.Transaction{
		WalletID: w.ID, OwnerID: "alice", Type: core.Income,
		Amount: core.Money{Cents: 1000}, Date: time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC),
	}); err != nil {
		t.Fatalf("create income: %v", err)
	}
	return w
}

func TestVerifyWalletClean(t *testing.T) {
	w, e, _ := newTestWorker(t)
	wallet := seedWallet(t, e)

	if err := w.VerifyWallet(context.Background(), wallet.ID); err != nil {
		t.Fatalf("verify: %v", err)
	}
}

func TestVerifyWalletDetectsDrift(t *testing.T) {
	w, e, repo := newTestWorker(t)
	wallet := seedWallet(t, e)
	ctx := context.Background()

	// Corrupt the cached balance behind the ledger's back.
	err := repo.InTx(ctx, func(s *storage.Store) error {
		got, err := s.GetWallet(ctx, wallet.ID)
		if err != nil {
			return err
		}
		got.Amount.Cents += 123
		return s.PutWalletAggregates(ctx, got)
	})
	if err != nil {
		t.Fatalf("corrupt wallet: %v", err)
	}

	// Drift is reported via logs and metrics, not as an error.
	if err := w.VerifyWallet(ctx, wallet.ID); err != nil {
		t.Fatalf("verify: %v", err)
	}
}

func TestVerifyWalletMissingIsNotAnError(t *testing.T) {
	w, _, _ := newTestWorker(t)
	if err := w.VerifyWallet(context.Background(), 999); err != nil {
		t.Fatalf("missing wallet must be skipped, got %v", err)
	}
}

func TestHandleEvent(t *testing.T) {
	w, e, _ := newTestWorker(t)
	wallet := seedWallet(t, e)
	ctx := context.Background()

	ev := amqp.NewLedgerEvent(amqp.OpTransactionCreated, 1, wallet.ID, "alice")
	if err := w.HandleEvent(ctx, ev); err != nil {
		t.Fatalf("handle event: %v", err)
	}

	// Moves verify both wallets.
	ev = amqp.NewLedgerEvent(amqp.OpTransactionUpdated, 1, wallet.ID, "alice")
	ev.SourceWalletID = 999 // already deleted; skipped, not failed
	if err := w.HandleEvent(ctx, ev); err != nil {
		t.Fatalf("handle move event: %v", err)
	}

	// Wallet deletions leave nothing to audit.
	ev = amqp.NewLedgerEvent(amqp.OpWalletDeleted, 0, 999, "alice")
	if err := w.HandleEvent(ctx, ev); err != nil {
		t.Fatalf("handle delete event: %v", err)
	}
}

func TestSweepAll(t *testing.T) {
	w, e, _ := newTestWorker(t)
	seedWallet(t, e)

	if _, err := e.CreateOrUpdateWallet(context.Background(), core.Wallet{Name: "Savings", OwnerID: "bob"}); err != nil {
		t.Fatalf("create wallet: %v", err)
	}

	if err := w.SweepAll(context.Background()); err != nil {
		t.Fatalf("sweep: %v", err)
	}
}

func TestSweepAllStopsOnCancel(t *testing.T) {
	w, e, _ := newTestWorker(t)
	seedWallet(t, e)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := w.SweepAll(ctx); err == nil {
		t.Fatalf("expected context error")
	}
}
