package amqp

import (
	"encoding/json"
	"time"

	"financas/internal/core"
)

// TransactionCreatedMessage announces a freshly persisted transaction.
// It carries the rollup delta inline so the worker can apply it without
// a read back to the database.
type TransactionCreatedMessage struct {
	TransactionID int64                `json:"transaction_id"`
	UserID        int64                `json:"user_id"`
	Kind          core.TransactionKind `json:"kind"`
	AmountCents   int64                `json:"amount_cents"`
	Year          int                  `json:"year"`
	Month         int                  `json:"month"`
	Timestamp     time.Time            `json:"timestamp"`
}

// NewTransactionCreatedMessage builds the event for a saved transaction.
func NewTransactionCreatedMessage(t core.Transaction) *TransactionCreatedMessage {
	return &TransactionCreatedMessage{
		TransactionID: t.ID,
		UserID:        t.UserID,
		Kind:          t.Kind,
		AmountCents:   t.Amount.Cents,
		Year:          t.OccurredAt.Year(),
		Month:         t.OccurredAt.Month(),
		Timestamp:     time.Now(),
	}
}

// ToJSON converts the message to JSON bytes
func (m *TransactionCreatedMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// TransactionCreatedMessageFromJSON creates a message from JSON bytes
func TransactionCreatedMessageFromJSON(data []byte) (*TransactionCreatedMessage, error) {
	var msg TransactionCreatedMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
