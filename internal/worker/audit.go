// Package worker audits wallet consistency out of band. It recomputes
// aggregates from the transaction log and flags wallets whose cached
// values have drifted, both on ledger events and on a periodic sweep.
package worker

import (
	"context"
	"errors"
	"fmt"

	"pocket/internal/amqp"
	"pocket/internal/core"
	"pocket/internal/ledger"
	applog "pocket/internal/log"
	"pocket/internal/metrics"
	"pocket/internal/storage"
)

type AuditWorker struct {
	store  *storage.Repository
	logger *applog.Logger
}

func New(store *storage.Repository) *AuditWorker {
	return &AuditWorker{
		store:  store,
		logger: applog.New(applog.DefaultConfig()).WithComponent(applog.ComponentWorker),
	}
}

// HandleEvent verifies the wallet(s) an event touched. Deleted wallets
// are skipped; there is nothing left to audit.
func (w *AuditWorker) HandleEvent(ctx context.Context, ev *amqp.LedgerEvent) error {
	if ev.Op == amqp.OpWalletDeleted {
		return nil
	}

	if err := w.VerifyWallet(ctx, ev.WalletID); err != nil {
		return err
	}
	if ev.SourceWalletID != 0 {
		return w.VerifyWallet(ctx, ev.SourceWalletID)
	}
	return nil
}

// VerifyWallet recomputes aggregates from the wallet's transactions and
// compares them with the cached values. Drift is reported, not repaired:
// a repair would hide the bug that caused it.
func (w *AuditWorker) VerifyWallet(ctx context.Context, walletID int64) error {
	wallet, err := w.store.GetWallet(ctx, walletID)
	if errors.Is(err, core.ErrWalletNotFound) {
		// Deleted between event and audit; nothing to verify.
		return nil
	}
	if err != nil {
		return fmt.Errorf("audit wallet %d: %w", walletID, err)
	}

	txs, err := w.store.WalletTransactions(ctx, walletID)
	if err != nil {
		return fmt.Errorf("audit wallet %d: %w", walletID, err)
	}

	income, expenses := ledger.RecomputeAggregates(txs)

	if wallet.TotalIncome != income || wallet.TotalExpenses != expenses || !wallet.Consistent() {
		metrics.AuditDrift.Inc()
		w.logger.ErrorContext(ctx, "Wallet aggregate drift detected",
			applog.FieldWalletID, walletID,
			applog.FieldOwnerID, wallet.OwnerID,
			"cached_amount_cents", wallet.Amount.Cents,
			"cached_income_cents", wallet.TotalIncome.Cents,
			"cached_expenses_cents", wallet.TotalExpenses.Cents,
			"recomputed_income_cents", income.Cents,
			"recomputed_expenses_cents", expenses.Cents,
			"transaction_count", len(txs))
		return nil
	}

	w.logger.Debug("Wallet audit passed",
		applog.FieldWalletID, walletID,
		"transaction_count", len(txs))
	return nil
}

// SweepAll audits every wallet in the store. Individual failures are
// logged and do not stop the sweep.
func (w *AuditWorker) SweepAll(ctx context.Context) error {
	wallets, err := w.store.ListAllWallets(ctx)
	if err != nil {
		return fmt.Errorf("list wallets for sweep: %w", err)
	}

	for _, wallet := range wallets {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err := w.VerifyWallet(ctx, wallet.ID); err != nil {
			w.logger.ErrorContext(ctx, "Wallet audit failed", applog.FieldWalletID, wallet.ID, applog.FieldError, err)
		}
	}

	w.logger.InfoContext(ctx, "Audit sweep completed", "wallet_count", len(wallets))
	return nil
}
