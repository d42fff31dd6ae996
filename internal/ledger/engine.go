// Package ledger keeps wallet aggregates consistent with the
// transaction log. The invariant it owns: a wallet's amount, total
// income and total expenses reflect exactly the set of transactions
// referencing that wallet, and amount never goes negative as the
// result of an expense.
package ledger

import (
	"context"
	"errors"
	"log/slog"

	"pocket/internal/amqp"
	"pocket/internal/core"
	"pocket/internal/metrics"
	"pocket/internal/storage"
)

// Engine is the sole mutator of wallets and transactions. Every
// mutation runs under the per-wallet lock and inside a single store
// transaction, so the revert/apply pair either fully commits or leaves
// no trace.
type Engine struct {
	store  *storage.Repository
	events *amqp.Client // nil when no broker is configured
	locks  *walletLocks
}

func New(store *storage.Repository, events *amqp.Client) *Engine {
	return &Engine{
		store:  store,
		events: events,
		locks:  newWalletLocks(),
	}
}

// applyEffect folds a transaction's effect into its wallet. The only
// primitive that moves aggregates forward; create and update compose it.
func applyEffect(ctx context.Context, s *storage.Store, walletID int64, amount core.Money, typ core.TxType) error {
	w, err := s.GetWallet(ctx, walletID)
	if err != nil {
		return err
	}
	switch typ {
	case core.Expense:
		if w.Amount.Cents-amount.Cents < 0 {
			return core.ErrInsufficientBalance
		}
		w.Amount.Cents -= amount.Cents
		w.TotalExpenses.Cents += amount.Cents
	case core.Income:
		w.Amount.Cents += amount.Cents
		w.TotalIncome.Cents += amount.Cents
	default:
		return core.ErrInvalidType
	}
	return s.PutWalletAggregates(ctx, w)
}

// revertEffect undoes a previously applied transaction. No balance
// check: a revert restores a state that was valid when applied.
func revertEffect(ctx context.Context, s *storage.Store, t core.Transaction) error {
	w, err := s.GetWallet(ctx, t.WalletID)
	if err != nil {
		return err
	}
	switch t.Type {
	case core.Expense:
		w.Amount.Cents += t.Amount.Cents
		w.TotalExpenses.Cents -= t.Amount.Cents
	case core.Income:
		w.Amount.Cents -= t.Amount.Cents
		w.TotalIncome.Cents -= t.Amount.Cents
	default:
		return core.ErrInvalidType
	}
	return s.PutWalletAggregates(ctx, w)
}

// revertDelta is the change revertEffect would make to the wallet's
// amount, used to project the post-revert balance during simulation.
func revertDelta(t core.Transaction) int64 {
	if t.Type == core.Expense {
		return t.Amount.Cents
	}
	return -t.Amount.Cents
}

// simulateApply pre-flights an apply without writing. freedCents is the
// balance the pending revert will release when the old and new wallet
// are the same; counting it avoids falsely rejecting updates whose
// revert frees the capacity the apply needs.
func simulateApply(ctx context.Context, s *storage.Store, walletID int64, amount core.Money, typ core.TxType, freedCents int64) error {
	w, err := s.GetWallet(ctx, walletID)
	if err != nil {
		return err
	}
	if typ == core.Expense && w.Amount.Cents+freedCents-amount.Cents < 0 {
		return core.ErrInsufficientBalance
	}
	return nil
}

// CreateTransaction records a new transaction and applies its effect to
// the wallet. Nothing is written when validation or the balance check fails.
func (e *Engine) CreateTransaction(ctx context.Context, t core.Transaction) (core.Transaction, error) {
	if err := t.Validate(); err != nil {
		metrics.LedgerOps.WithLabelValues("create", "invalid").Inc()
		return core.Transaction{}, err
	}

	unlock := e.locks.Lock(t.WalletID)
	defer unlock()

	var created core.Transaction
	err := e.store.InTx(ctx, func(s *storage.Store) error {
		if err := applyEffect(ctx, s, t.WalletID, t.Amount, t.Type); err != nil {
			return err
		}
		var err error
		created, err = s.InsertTransaction(ctx, t)
		return err
	})
	if err != nil {
		e.countFailure("create", err)
		return core.Transaction{}, err
	}

	metrics.LedgerOps.WithLabelValues("create", "ok").Inc()
	e.publish(ctx, amqp.NewLedgerEvent(amqp.OpTransactionCreated, created.ID, created.WalletID, created.OwnerID))
	return created, nil
}

// UpdateTransaction replaces a transaction with merge semantics and
// rebalances the affected wallet(s): simulate against the new wallet,
// revert the old effect, apply the new one, persist the merged record.
// All four steps share one store transaction.
func (e *Engine) UpdateTransaction(ctx context.Context, id int64, upd core.TransactionUpdate) (core.Transaction, error) {
	if err := upd.Validate(); err != nil {
		metrics.LedgerOps.WithLabelValues("update", "invalid").Inc()
		return core.Transaction{}, err
	}

	// Peek at the stored transaction to learn which wallets to lock.
	// The locks are taken before the transaction re-reads it, so the
	// record cannot change between peek and protocol.
	old, err := e.store.GetTransaction(ctx, id)
	if err != nil {
		e.countFailure("update", err)
		return core.Transaction{}, err
	}

	unlock := e.locks.Lock(old.WalletID, upd.WalletID)
	defer unlock()

	var merged core.Transaction
	err = e.store.InTx(ctx, func(s *storage.Store) error {
		old, err := s.GetTransaction(ctx, id)
		if err != nil {
			return err
		}

		merged = upd.Apply(old)
		if err := merged.Validate(); err != nil {
			return err
		}

		var freed int64
		if old.WalletID == upd.WalletID {
			freed = revertDelta(old)
		}
		if err := simulateApply(ctx, s, upd.WalletID, upd.Amount, upd.Type, freed); err != nil {
			return err
		}
		if err := revertEffect(ctx, s, old); err != nil {
			return err
		}
		if err := applyEffect(ctx, s, upd.WalletID, upd.Amount, upd.Type); err != nil {
			return err
		}
		return s.PutTransaction(ctx, merged)
	})
	if err != nil {
		e.countFailure("update", err)
		return core.Transaction{}, err
	}

	metrics.LedgerOps.WithLabelValues("update", "ok").Inc()
	ev := amqp.NewLedgerEvent(amqp.OpTransactionUpdated, merged.ID, merged.WalletID, merged.OwnerID)
	if old.WalletID != merged.WalletID {
		ev.SourceWalletID = old.WalletID
	}
	e.publish(ctx, ev)
	return merged, nil
}

// DeleteTransaction reverts the transaction's effect and removes it.
// walletID must match the stored record; a stale wallet reference is
// rejected rather than silently honored.
func (e *Engine) DeleteTransaction(ctx context.Context, walletID, transactionID int64) error {
	t, err := e.store.GetTransaction(ctx, transactionID)
	if err != nil {
		e.countFailure("delete", err)
		return err
	}
	if t.WalletID != walletID {
		metrics.LedgerOps.WithLabelValues("delete", "invalid").Inc()
		return core.ErrWalletMismatch
	}

	unlock := e.locks.Lock(walletID)
	defer unlock()

	err = e.store.InTx(ctx, func(s *storage.Store) error {
		t, err := s.GetTransaction(ctx, transactionID)
		if err != nil {
			return err
		}
		if t.WalletID != walletID {
			return core.ErrWalletMismatch
		}
		if err := revertEffect(ctx, s, t); err != nil {
			return err
		}
		return s.DeleteTransaction(ctx, transactionID)
	})
	if err != nil {
		e.countFailure("delete", err)
		return err
	}

	metrics.LedgerOps.WithLabelValues("delete", "ok").Inc()
	e.publish(ctx, amqp.NewLedgerEvent(amqp.OpTransactionDeleted, transactionID, walletID, t.OwnerID))
	return nil
}

// CreateOrUpdateWallet inserts a wallet with zeroed aggregates, or
// renames an existing one. Aggregates are never touched here; they
// belong to the transaction mutation paths.
func (e *Engine) CreateOrUpdateWallet(ctx context.Context, w core.Wallet) (core.Wallet, error) {
	if err := w.Validate(); err != nil {
		metrics.LedgerOps.WithLabelValues("wallet_upsert", "invalid").Inc()
		return core.Wallet{}, err
	}

	var saved core.Wallet
	err := e.store.InTx(ctx, func(s *storage.Store) error {
		if w.ID == 0 {
			var err error
			saved, err = s.InsertWallet(ctx, w)
			return err
		}
		if err := s.RenameWallet(ctx, w.ID, w.Name); err != nil {
			return err
		}
		var err error
		saved, err = s.GetWallet(ctx, w.ID)
		return err
	})
	if err != nil {
		e.countFailure("wallet_upsert", err)
		return core.Wallet{}, err
	}

	metrics.LedgerOps.WithLabelValues("wallet_upsert", "ok").Inc()
	e.publish(ctx, amqp.NewLedgerEvent(amqp.OpWalletUpserted, 0, saved.ID, saved.OwnerID))
	return saved, nil
}

// DeleteWallet removes a wallet and all transactions referencing it.
// Each transaction's effect is reverted before its row goes, so the
// wallet passes its own invariant right up to the moment it is deleted.
func (e *Engine) DeleteWallet(ctx context.Context, id int64) error {
	unlock := e.locks.Lock(id)
	defer unlock()

	var ownerID string
	err := e.store.InTx(ctx, func(s *storage.Store) error {
		w, err := s.GetWallet(ctx, id)
		if err != nil {
			return err
		}
		ownerID = w.OwnerID

		txs, err := s.WalletTransactions(ctx, id)
		if err != nil {
			return err
		}
		for _, t := range txs {
			if err := revertEffect(ctx, s, t); err != nil {
				return err
			}
			if err := s.DeleteTransaction(ctx, t.ID); err != nil {
				return err
			}
		}
		return s.DeleteWallet(ctx, id)
	})
	if err != nil {
		e.countFailure("wallet_delete", err)
		return err
	}

	metrics.LedgerOps.WithLabelValues("wallet_delete", "ok").Inc()
	e.publish(ctx, amqp.NewLedgerEvent(amqp.OpWalletDeleted, 0, id, ownerID))
	return nil
}

func (e *Engine) countFailure(op string, err error) {
	switch {
	case errors.Is(err, core.ErrInsufficientBalance):
		metrics.InsufficientBalance.Inc()
		metrics.LedgerOps.WithLabelValues(op, "insufficient_balance").Inc()
	case errors.Is(err, core.ErrWalletNotFound) || errors.Is(err, core.ErrTransactionNotFound):
		metrics.LedgerOps.WithLabelValues(op, "not_found").Inc()
	case core.IsValidation(err):
		metrics.LedgerOps.WithLabelValues(op, "invalid").Inc()
	default:
		metrics.LedgerOps.WithLabelValues(op, "error").Inc()
	}
}

// publish is best-effort: the mutation is already committed, so a
// broker failure is logged and swallowed rather than failing the call.
func (e *Engine) publish(ctx context.Context, ev *amqp.LedgerEvent) {
	if e.events == nil {
		return
	}
	if err := e.events.PublishLedgerEvent(ctx, ev); err != nil {
		slog.ErrorContext(ctx, "Failed to publish ledger event",
			"op", ev.Op,
			"wallet_id", ev.WalletID,
			"error", err)
	}
}

// RecomputeAggregates derives a wallet's aggregates from its full
// transaction log. Used by the audit worker to detect drift.
func RecomputeAggregates(txs []core.Transaction) (income, expenses core.Money) {
	for _, t := range txs {
		switch t.Type {
		case core.Income:
			income.Cents += t.Amount.Cents
		case core.Expense:
			expenses.Cents += t.Amount.Cents
		}
	}
	return income, expenses
}
