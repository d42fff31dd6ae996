package amqp

import (
	"encoding/json"
	"time"
)

// Ledger event kinds. Events are compact by design: consumers fetch the
// current state from the store by id rather than trusting a snapshot
// that may already be stale when the message is delivered.
const (
	OpTransactionCreated = "transaction.created"
	OpTransactionUpdated = "transaction.updated"
	OpTransactionDeleted = "transaction.deleted"
	OpWalletUpserted     = "wallet.upserted"
	OpWalletDeleted      = "wallet.deleted"
)

// LedgerEvent announces a completed ledger mutation. SourceWalletID is
// set only for updates that moved a transaction between wallets.
type LedgerEvent struct {
	Op             string    `json:"op"`
	TransactionID  int64     `json:"transactionId,omitempty"`
	WalletID       int64     `json:"walletId"`
	SourceWalletID int64     `json:"sourceWalletId,omitempty"`
	OwnerID        string    `json:"ownerId"`
	Timestamp      time.Time `json:"timestamp"`
}

func NewLedgerEvent(op string, txID, walletID int64, ownerID string) *LedgerEvent {
	return &LedgerEvent{
		Op:            op,
		TransactionID: txID,
		WalletID:      walletID,
		OwnerID:       ownerID,
		Timestamp:     time.Now(),
	}
}

func (e *LedgerEvent) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

func LedgerEventFromJSON(data []byte) (*LedgerEvent, error) {
	var ev LedgerEvent
	if err := json.Unmarshal(data, &ev); err != nil {
		return nil, err
	}
	return &ev, nil
}
