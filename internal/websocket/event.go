package websocket

import (
	"encoding/json"
	"fmt"
	"time"
)

// EventType represents the kind of change an event describes
type EventType string

const (
	EventTypeUpdated EventType = "updated"
	EventTypeSettled EventType = "settled"
	EventTypeFailed  EventType = "failed"
)

// EntityType represents the kind of entity an event is about
type EntityType string

const (
	EntityTypeBalance           EntityType = "balance"
	EntityTypePendingTransaction EntityType = "pending_tx"
)

// Event represents a WebSocket event message sent to clients
// Format: { type, entity, payload, timestamp }
type Event struct {
	Type      string      `json:"type"`      // Combined type e.g. "balance.updated"
	Entity    EntityType  `json:"entity"`    // Entity type e.g. "balance"
	Payload   interface{} `json:"payload"`   // Full entity data
	Timestamp time.Time   `json:"timestamp"` // Event timestamp
}

// NewEvent creates a new event with the given type, entity, and payload
func NewEvent(eventType EventType, entityType EntityType, payload interface{}) Event {
	return Event{
		Type:      fmt.Sprintf("%s.%s", entityType, eventType),
		Entity:    entityType,
		Payload:   payload,
		Timestamp: time.Now().UTC(),
	}
}

// ToJSON serializes the event to JSON bytes
func (e Event) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

// BalancePayload is the payload carried by a balance.updated event.
type BalancePayload struct {
	UserAddress string `json:"userAddress"`
	WincBalance string `json:"wincBalance"`
}

// PendingTransactionPayload is the payload carried by pending_tx events.
type PendingTransactionPayload struct {
	TransactionID string `json:"transactionId"`
	UserAddress   string `json:"userAddress"`
	WincAmount    string `json:"wincAmount"`
	Status        string `json:"status"`
}

// BalanceUpdated creates a balance.updated event, sent whenever a
// user's winc balance changes for any reason (upload, top-up,
// chargeback, refund, gift redemption, crypto credit).
func BalanceUpdated(payload BalancePayload) Event {
	return NewEvent(EventTypeUpdated, EntityTypeBalance, payload)
}

// PendingTransactionSettled creates a pending_tx.settled event, sent
// when the crypto poller confirms a pending transaction and credits
// the destination address.
func PendingTransactionSettled(payload PendingTransactionPayload) Event {
	return NewEvent(EventTypeSettled, EntityTypePendingTransaction, payload)
}

// PendingTransactionFailed creates a pending_tx.failed event, sent
// when the crypto poller's grace period elapses without confirmation.
func PendingTransactionFailed(payload PendingTransactionPayload) Event {
	return NewEvent(EventTypeFailed, EntityTypePendingTransaction, payload)
}
