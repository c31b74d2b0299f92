package websocket

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEventType_String(t *testing.T) {
	tests := []struct {
		name     string
		et       EventType
		expected string
	}{
		{"updated", EventTypeUpdated, "updated"},
		{"settled", EventTypeSettled, "settled"},
		{"failed", EventTypeFailed, "failed"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, string(tt.et))
		})
	}
}

func TestEntityType_String(t *testing.T) {
	tests := []struct {
		name     string
		et       EntityType
		expected string
	}{
		{"balance", EntityTypeBalance, "balance"},
		{"pending_tx", EntityTypePendingTransaction, "pending_tx"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, string(tt.et))
		})
	}
}

func TestNewEvent(t *testing.T) {
	payload := BalancePayload{UserAddress: "addr-1", WincBalance: "100"}

	before := time.Now()
	evt := NewEvent(EventTypeUpdated, EntityTypeBalance, payload)
	after := time.Now()

	assert.Equal(t, "balance.updated", evt.Type)
	assert.Equal(t, EntityTypeBalance, evt.Entity)
	assert.Equal(t, payload, evt.Payload)
	assert.True(t, !evt.Timestamp.Before(before) && !evt.Timestamp.After(after))
}

func TestEvent_JSON_Serialization(t *testing.T) {
	fixedTime := time.Date(2025, 1, 15, 10, 30, 0, 0, time.UTC)
	payload := map[string]interface{}{
		"userAddress": "addr-1",
		"wincBalance": "100",
	}

	evt := Event{
		Type:      "balance.updated",
		Entity:    EntityTypeBalance,
		Payload:   payload,
		Timestamp: fixedTime,
	}

	data, err := json.Marshal(evt)
	require.NoError(t, err)

	var decoded Event
	err = json.Unmarshal(data, &decoded)
	require.NoError(t, err)

	assert.Equal(t, evt.Type, decoded.Type)
	assert.Equal(t, evt.Entity, decoded.Entity)
	assert.Equal(t, fixedTime.UTC(), decoded.Timestamp.UTC())

	decodedPayload, ok := decoded.Payload.(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "addr-1", decodedPayload["userAddress"])
	assert.Equal(t, "100", decodedPayload["wincBalance"])
}

func TestEvent_ToJSON(t *testing.T) {
	payload := PendingTransactionPayload{
		TransactionID: "tx-1",
		UserAddress:   "addr-1",
		WincAmount:    "42",
		Status:        "confirmed",
	}

	evt := NewEvent(EventTypeSettled, EntityTypePendingTransaction, payload)

	data, err := evt.ToJSON()
	require.NoError(t, err)
	assert.NotEmpty(t, data)

	var decoded map[string]interface{}
	err = json.Unmarshal(data, &decoded)
	require.NoError(t, err)

	assert.Equal(t, "pending_tx.settled", decoded["type"])
	assert.Equal(t, "pending_tx", decoded["entity"])
	assert.NotNil(t, decoded["payload"])
	assert.NotNil(t, decoded["timestamp"])
}

func TestBalanceUpdated(t *testing.T) {
	payload := BalancePayload{UserAddress: "addr-1", WincBalance: "500"}
	evt := BalanceUpdated(payload)

	assert.Equal(t, "balance.updated", evt.Type)
	assert.Equal(t, EntityTypeBalance, evt.Entity)
	assert.Equal(t, payload, evt.Payload)
}

func TestPendingTransactionEvent_Helpers(t *testing.T) {
	payload := PendingTransactionPayload{
		TransactionID: "tx-1",
		UserAddress:   "addr-1",
		WincAmount:    "1000",
		Status:        "pending",
	}

	t.Run("PendingTransactionSettled", func(t *testing.T) {
		evt := PendingTransactionSettled(payload)
		assert.Equal(t, "pending_tx.settled", evt.Type)
		assert.Equal(t, EntityTypePendingTransaction, evt.Entity)
		assert.Equal(t, payload, evt.Payload)
	})

	t.Run("PendingTransactionFailed", func(t *testing.T) {
		evt := PendingTransactionFailed(payload)
		assert.Equal(t, "pending_tx.failed", evt.Type)
		assert.Equal(t, EntityTypePendingTransaction, evt.Entity)
		assert.Equal(t, payload, evt.Payload)
	})
}
