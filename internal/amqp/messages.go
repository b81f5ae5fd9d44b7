package amqp

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// EventTransactionCreated is published after a transaction is committed to SQLite.
const EventTransactionCreated = "transaction.created"

var ErrMalformedMessage = errors.New("malformed message")

// TransactionCreatedMessage only carries the id; the consumer loads the
// transaction itself so the row it exports is the committed one.
type TransactionCreatedMessage struct {
	Event     string    `json:"event"`
	ID        int64     `json:"id"`
	Timestamp time.Time `json:"timestamp"`
}

func NewTransactionCreatedMessage(id int64) *TransactionCreatedMessage {
	return &TransactionCreatedMessage{
		Event:     EventTransactionCreated,
		ID:        id,
		Timestamp: time.Now().UTC(),
	}
}

func (m *TransactionCreatedMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// TransactionCreatedMessageFromJSON decodes data and rejects messages of
// another event type or without a positive id.
func TransactionCreatedMessageFromJSON(data []byte) (*TransactionCreatedMessage, error) {
	var msg TransactionCreatedMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedMessage, err)
	}
	if msg.Event != EventTransactionCreated {
		return nil, fmt.Errorf("%w: unexpected event %q", ErrMalformedMessage, msg.Event)
	}
	if msg.ID <= 0 {
		return nil, fmt.Errorf("%w: invalid id %d", ErrMalformedMessage, msg.ID)
	}
	return &msg, nil
}
