package amqp

import (
	"testing"
	"time"
)

func TestNewTransactionSyncMessage(t *testing.T) {
	msg := NewTransactionSyncMessage("tx-123")

	if msg.Kind != KindTransactionCreated {
		t.Errorf("Kind = %q, want %q", msg.Kind, KindTransactionCreated)
	}
	if msg.TransactionID != "tx-123" {
		t.Errorf("TransactionID = %q", msg.TransactionID)
	}
	if msg.Timestamp.IsZero() || time.Since(msg.Timestamp) > time.Second {
		t.Errorf("Timestamp = %v, want recent", msg.Timestamp)
	}
}

func TestTreasuryMessageRoundTrip(t *testing.T) {
	msg := &TreasuryMessage{
		Kind:          KindTransactionDeleted,
		TransactionID: "tx-9",
		Timestamp:     time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
		MemberID:      "m1",
		Type:          "income",
		AmountCents:   10000,
		DayKey:        "2025-06-01",
		Month:         "06",
		Year:          2025,
		Description:   "mensalidade",
		Category:      "dues",
	}

	data, err := msg.ToJSON()
	if err != nil {
		t.Fatalf("ToJSON: %v", err)
	}
	got, err := TreasuryMessageFromJSON(data)
	if err != nil {
		t.Fatalf("TreasuryMessageFromJSON: %v", err)
	}
	if got.Kind != msg.Kind || got.TransactionID != msg.TransactionID ||
		got.AmountCents != msg.AmountCents || got.DayKey != msg.DayKey {
		t.Errorf("round trip = %+v, want %+v", got, msg)
	}
}

func TestTreasuryMessageFromInvalidJSON(t *testing.T) {
	if _, err := TreasuryMessageFromJSON([]byte(`{"amount_cents": "lots"}`)); err == nil {
		t.Error("expected error for invalid JSON")
	}
}
