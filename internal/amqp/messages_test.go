package amqp

import (
	"strings"
	"testing"
)

func TestLedgerEventRoundTrip(t *testing.T) {
	ev := NewLedgerEvent(OpTransactionUpdated, 42, 7, "alice")
	ev.SourceWalletID = 3

	body, err := ev.ToJSON()
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	got, err := LedgerEventFromJSON(body)
	if err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if got.Op != OpTransactionUpdated || got.TransactionID != 42 || got.WalletID != 7 {
		t.Fatalf("unexpected event: %+v", got)
	}
	if got.SourceWalletID != 3 || got.OwnerID != "alice" {
		t.Fatalf("unexpected event: %+v", got)
	}
	if got.Timestamp.IsZero() {
		t.Fatalf("timestamp must survive the round trip")
	}
}

func TestLedgerEventOmitsEmptyFields(t *testing.T) {
	ev := NewLedgerEvent(OpWalletDeleted, 0, 7, "alice")
	body, err := ev.ToJSON()
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	s := string(body)
	if strings.Contains(s, "transactionId") || strings.Contains(s, "sourceWalletId") {
		t.Fatalf("zero ids must be omitted: %s", s)
	}
}

func TestLedgerEventFromJSONRejectsGarbage(t *testing.T) {
	if _, err := LedgerEventFromJSON([]byte("{not json")); err == nil {
		t.Fatalf("expected error")
	}
}
