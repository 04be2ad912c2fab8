package amqp

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"

	"tesoretto/internal/core"
)

// TransactionMaterialized announces a transaction created from a recurring
// template. Consumers deduplicate on MessageID or TransactionID since
// delivery is at least once.
type TransactionMaterialized struct {
	MessageID       string    `json:"message_id"`
	TransactionID   int64     `json:"transaction_id"`
	TemplateID      int64     `json:"template_id"`
	CategoryID      int64     `json:"category_id"`
	AccountID       int64     `json:"account_id"`
	Type            string    `json:"type"`
	AmountCents     int64     `json:"amount_cents"`
	TransactionDate string    `json:"transaction_date"`
	Timestamp       time.Time `json:"timestamp"`
}

func NewTransactionMaterialized(tx core.Transaction) *TransactionMaterialized {
	return &TransactionMaterialized{
		MessageID:       uuid.NewString(),
		TransactionID:   tx.ID,
		TemplateID:      tx.RecurringTemplateID,
		CategoryID:      tx.CategoryID,
		AccountID:       tx.AccountID,
		Type:            string(tx.Type),
		AmountCents:     tx.Amount.Cents,
		TransactionDate: tx.TransactionDate.String(),
		Timestamp:       time.Now().UTC(),
	}
}

func (m *TransactionMaterialized) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// Date returns the parsed transaction date.
func (m *TransactionMaterialized) Date() (core.Date, error) {
	return core.ParseDate(m.TransactionDate)
}

func (m *TransactionMaterialized) IsExpense() bool {
	return core.TransactionType(m.Type) == core.Expense
}

// TransactionMaterializedFromJSON decodes and sanity-checks a message body.
func TransactionMaterializedFromJSON(data []byte) (*TransactionMaterialized, error) {
	var msg TransactionMaterialized
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	if msg.TransactionID <= 0 {
		return nil, errors.New("missing transaction_id")
	}
	if _, err := msg.Date(); err != nil {
		return nil, errors.New("invalid transaction_date: " + err.Error())
	}
	return &msg, nil
}
