package amqp

import (
	"encoding/json"
	"time"
)

const (
	KindTransactionCreated = "transaction.created"
	KindTransactionDeleted = "transaction.deleted"
)

// TreasuryMessage is the envelope for treasury mirror events. Created
// events carry only the transaction id; the worker fetches the current row
// from storage. Deleted events carry the row data, because by the time the
// worker runs the row is gone.
type TreasuryMessage struct {
	Kind          string    `json:"kind"`
	TransactionID string    `json:"transaction_id"`
	Timestamp     time.Time `json:"timestamp"`

	// Populated for deletes only.
	MemberID    string `json:"member_id,omitempty"`
	Type        string `json:"type,omitempty"`
	AmountCents int64  `json:"amount_cents,omitempty"`
	DayKey      string `json:"day_key,omitempty"`
	Month       string `json:"month,omitempty"`
	Year        int    `json:"year,omitempty"`
	Description string `json:"description,omitempty"`
	Category    string `json:"category,omitempty"`
}

func NewTransactionSyncMessage(id string) *TreasuryMessage {
	return &TreasuryMessage{
		Kind:          KindTransactionCreated,
		TransactionID: id,
		Timestamp:     time.Now(),
	}
}

func (m *TreasuryMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func TreasuryMessageFromJSON(data []byte) (*TreasuryMessage, error) {
	var msg TreasuryMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}

// GameCreatedMessage announces a new occurrence on the exchange. Nothing in
// this repo consumes it yet; it exists for reminder bots and other future
// listeners.
type GameCreatedMessage struct {
	GameID    string    `json:"game_id"`
	Date      time.Time `json:"date"`
	Location  string    `json:"location"`
	Timestamp time.Time `json:"timestamp"`
}

func (m *GameCreatedMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}
