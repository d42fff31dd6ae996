package core

import (
	"errors"
	"strings"
	"time"
)

const (
	Income  TxType = "income"
	Expense TxType = "expense"
)

const (
	Weekly  Granularity = "week"
	Monthly Granularity = "month"
	Yearly  Granularity = "year"
)

type (
	TxType string

	Granularity string

	// Wallet holds a cached running balance plus income/expense totals.
	// The aggregate fields are a materialized view over the wallet's
	// transactions; only the ledger engine may change them.
	Wallet struct {
		ID            int64
		Name          string
		OwnerID       string
		Amount        Money
		TotalIncome   Money
		TotalExpenses Money
		CreatedAt     time.Time
	}

	// Transaction is a single income or expense event tied to one wallet.
	Transaction struct {
		ID          int64
		WalletID    int64
		OwnerID     string
		Type        TxType
		Amount      Money
		Category    Category
		Description string
		Date        time.Time
	}

	// TransactionUpdate carries the replacement fields for an update.
	// Nil pointers keep the stored value (merge semantics).
	TransactionUpdate struct {
		WalletID    int64
		Type        TxType
		Amount      Money
		Category    *Category
		Description *string
		Date        *time.Time
	}
)

var (
	ErrInvalidAmount       = errors.New("amount must be positive")
	ErrInvalidType         = errors.New("transaction type must be income or expense")
	ErrMissingWallet       = errors.New("wallet reference is required")
	ErrMissingOwner        = errors.New("owner is required")
	ErrMissingCategory     = errors.New("category is required for expenses")
	ErrMissingDate         = errors.New("transaction date is required")
	ErrEmptyWalletName     = errors.New("wallet name cannot be empty")
	ErrWalletNotFound      = errors.New("wallet not found")
	ErrTransactionNotFound = errors.New("transaction not found")
	ErrInsufficientBalance = errors.New("insufficient balance")
	ErrWalletMismatch      = errors.New("transaction does not belong to this wallet")
	ErrConflict            = errors.New("concurrent modification detected")
	ErrUnavailable         = errors.New("store unavailable")
)

func (t TxType) Validate() error {
	switch t {
	case Income, Expense:
		return nil
	}
	return ErrInvalidType
}

func (g Granularity) Validate() error {
	switch g {
	case Weekly, Monthly, Yearly:
		return nil
	}
	return errors.New("granularity must be week, month or year")
}

func (w Wallet) Validate() error {
	if len(strings.TrimSpace(w.Name)) == 0 {
		return ErrEmptyWalletName
	}
	if len(w.Name) > 100 {
		return errors.New("wallet name too long (max 100 characters)")
	}
	if strings.TrimSpace(w.OwnerID) == "" {
		return ErrMissingOwner
	}
	return nil
}

// Consistent reports whether the cached balance agrees with the totals.
func (w Wallet) Consistent() bool {
	return w.Amount.Cents == w.TotalIncome.Cents-w.TotalExpenses.Cents
}

func (t Transaction) Validate() error {
	if t.WalletID == 0 {
		return ErrMissingWallet
	}
	if strings.TrimSpace(t.OwnerID) == "" {
		return ErrMissingOwner
	}
	if err := t.Type.Validate(); err != nil {
		return err
	}
	if err := t.Amount.Validate(); err != nil {
		return err
	}
	if t.Type == Expense {
		if t.Category == "" {
			return ErrMissingCategory
		}
		if !t.Category.Valid() {
			return ErrUnknownCategory
		}
	}
	if len(t.Description) > 200 {
		return errors.New("description too long (max 200 characters)")
	}
	if t.Date.IsZero() {
		return ErrMissingDate
	}
	return nil
}

func (u TransactionUpdate) Validate() error {
	if u.WalletID == 0 {
		return ErrMissingWallet
	}
	if err := u.Type.Validate(); err != nil {
		return err
	}
	return u.Amount.Validate()
}

// Apply merges the update over an existing transaction. Nil optional
// fields keep the stored values. The result still needs Validate.
func (u TransactionUpdate) Apply(old Transaction) Transaction {
	merged := old
	merged.WalletID = u.WalletID
	merged.Type = u.Type
	merged.Amount = u.Amount
	if u.Category != nil {
		merged.Category = *u.Category
	}
	if u.Description != nil {
		merged.Description = *u.Description
	}
	if u.Date != nil {
		merged.Date = *u.Date
	}
	if merged.Type == Income {
		// Income carries no category.
		merged.Category = ""
	}
	return merged
}

// IsValidation reports whether err is an input-validation failure as
// opposed to a store or lookup failure. Handlers use it to pick a status.
func IsValidation(err error) bool {
	for _, target := range []error{
		ErrInvalidAmount, ErrInvalidType, ErrMissingWallet, ErrMissingOwner,
		ErrMissingCategory, ErrMissingDate, ErrEmptyWalletName,
		ErrUnknownCategory, ErrWalletMismatch,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
