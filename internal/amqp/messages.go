package amqp

import (
	"encoding/json"
	"fmt"
	"time"

	"tally/internal/core"
)

// TransactionEventMessage announces a confirmed transaction mutation.
// It carries the fields a consumer needs to react without a follow-up
// fetch; deleted events only have the ID.
type TransactionEventMessage struct {
	Action      string    `json:"action"`
	ID          string    `json:"id"`
	Title       string    `json:"title,omitempty"`
	AmountCents int64     `json:"amountCents,omitempty"`
	Category    string    `json:"category,omitempty"`
	Date        string    `json:"date,omitempty"`
	Type        string    `json:"type,omitempty"`
	Timestamp   time.Time `json:"timestamp"`
}

func NewTransactionEventMessage(action string, tx core.Transaction) *TransactionEventMessage {
	msg := &TransactionEventMessage{
		Action:    action,
		ID:        tx.ID,
		Timestamp: time.Now(),
	}
	if tx.Title != "" {
		msg.Title = tx.Title
		msg.AmountCents = tx.Amount.Cents
		msg.Category = tx.Category
		msg.Date = tx.Date.String()
		msg.Type = string(tx.Type)
	}
	return msg
}

func (m *TransactionEventMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// String renders the event as a single log-style line for the follow
// command.
func (m *TransactionEventMessage) String() string {
	ts := m.Timestamp.Local().Format("15:04:05")
	if m.Title == "" {
		return fmt.Sprintf("%s %s %s", ts, m.Action, m.ID)
	}
	amount := core.Money{Cents: m.AmountCents}
	return fmt.Sprintf("%s %s %s %q %s %s", ts, m.Action, m.ID, m.Title, amount, m.Category)
}

func TransactionEventMessageFromJSON(data []byte) (*TransactionEventMessage, error) {
	var msg TransactionEventMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
