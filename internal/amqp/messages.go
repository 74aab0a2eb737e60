package amqp

import (
	"encoding/json"
	"time"

	"budgetdesk/internal/core"
)

// Message types travel in the AMQP Type property so one queue can carry both.
const (
	TypeExpenseSync   = "expense.sync"
	TypeExpenseDelete = "expense.delete"
)

// ExpenseSyncMessage carries only the id and version; the worker reads the
// current expense from the store.
type ExpenseSyncMessage struct {
	ID        int64     `json:"id"`
	Version   int64     `json:"version"`
	Timestamp time.Time `json:"timestamp"`
}

func NewExpenseSyncMessage(id, version int64) *ExpenseSyncMessage {
	return &ExpenseSyncMessage{
		ID:        id,
		Version:   version,
		Timestamp: time.Now(),
	}
}

func (m *ExpenseSyncMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func ExpenseSyncMessageFromJSON(data []byte) (*ExpenseSyncMessage, error) {
	var msg ExpenseSyncMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}

// ExpenseDeleteMessage snapshots the deleted expense, since the row is no
// longer readable once the worker gets the message.
type ExpenseDeleteMessage struct {
	ID          int64     `json:"id"`
	Date        string    `json:"date"`
	Description string    `json:"description"`
	AmountCents int64     `json:"amount_cents"`
	Category    string    `json:"category"`
	SupplierID  int64     `json:"supplier_id,omitempty"`
	ContractID  int64     `json:"contract_id,omitempty"`
	Timestamp   time.Time `json:"timestamp"`
}

func NewExpenseDeleteMessage(e core.Expense) *ExpenseDeleteMessage {
	return &ExpenseDeleteMessage{
		ID:          e.ID,
		Date:        e.Date.String(),
		Description: e.Description,
		AmountCents: e.Amount.Cents,
		Category:    e.Category,
		SupplierID:  e.SupplierID,
		ContractID:  e.ContractID,
		Timestamp:   time.Now(),
	}
}

func (m *ExpenseDeleteMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func ExpenseDeleteMessageFromJSON(data []byte) (*ExpenseDeleteMessage, error) {
	var msg ExpenseDeleteMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
