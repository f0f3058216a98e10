package amqp

import (
	"encoding/json"
	"time"

	"cashbook/internal/events"
)

// LedgerEventMessage is the wire form of an events.Event.
type LedgerEventMessage struct {
	Kind          events.Kind `json:"kind"`
	TransactionID int64       `json:"transactionId,omitempty"`
	Count         int         `json:"count,omitempty"`
	Timestamp     time.Time   `json:"timestamp"`
}

// NewLedgerEventMessage wraps e. A zero event time is replaced by now.
func NewLedgerEventMessage(e events.Event) *LedgerEventMessage {
	at := e.At
	if at.IsZero() {
		at = time.Now()
	}
	return &LedgerEventMessage{
		Kind:          e.Kind,
		TransactionID: e.TransactionID,
		Count:         e.Count,
		Timestamp:     at,
	}
}

// Event converts the message back to an events.Event.
func (m *LedgerEventMessage) Event() events.Event {
	return events.Event{Kind: m.Kind, TransactionID: m.TransactionID, Count: m.Count, At: m.Timestamp}
}

// ToJSON converts the message to JSON bytes
func (m *LedgerEventMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// LedgerEventMessageFromJSON creates a message from JSON bytes
func LedgerEventMessageFromJSON(data []byte) (*LedgerEventMessage, error) {
	var msg LedgerEventMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
