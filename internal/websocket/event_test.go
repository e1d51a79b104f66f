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
		{"created", EventTypeCreated, "created"},
		{"updated", EventTypeUpdated, "updated"},
		{"deleted", EventTypeDeleted, "deleted"},
		{"transitioned", EventTypeTransition, "transitioned"},
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
		{"deal", EntityTypeDeal, "deal"},
		{"scenario", EntityTypeScenario, "scenario"},
		{"vehicle", EntityTypeVehicle, "vehicle"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, string(tt.et))
		})
	}
}

func TestNewEvent(t *testing.T) {
	payload := map[string]interface{}{
		"id":     1,
		"status": "draft",
	}

	before := time.Now()
	evt := NewEvent(EventTypeCreated, EntityTypeDeal, payload)
	after := time.Now()

	assert.Equal(t, "deal.created", evt.Type)
	assert.Equal(t, EntityTypeDeal, evt.Entity)
	assert.Equal(t, payload, evt.Payload)
	assert.True(t, !evt.Timestamp.Before(before) && !evt.Timestamp.After(after))
}

func TestEvent_JSON_Serialization(t *testing.T) {
	fixedTime := time.Date(2026, 1, 15, 10, 30, 0, 0, time.UTC)
	payload := map[string]interface{}{
		"id":     float64(1),
		"status": "pending",
	}

	evt := Event{
		Type:      "deal.updated",
		Entity:    EntityTypeDeal,
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
	assert.Equal(t, float64(1), decodedPayload["id"])
	assert.Equal(t, "pending", decodedPayload["status"])
}

func TestEvent_ToJSON(t *testing.T) {
	payload := map[string]interface{}{
		"id": float64(42),
	}

	evt := NewEvent(EventTypeUpdated, EntityTypeScenario, payload)

	data, err := evt.ToJSON()
	require.NoError(t, err)
	assert.NotEmpty(t, data)

	var decoded map[string]interface{}
	err = json.Unmarshal(data, &decoded)
	require.NoError(t, err)

	assert.Equal(t, "scenario.updated", decoded["type"])
	assert.Equal(t, "scenario", decoded["entity"])
	assert.NotNil(t, decoded["payload"])
	assert.NotNil(t, decoded["timestamp"])
}

func TestDealEvent_Helpers(t *testing.T) {
	payload := map[string]interface{}{
		"id":     float64(1),
		"status": "draft",
	}

	t.Run("DealCreated", func(t *testing.T) {
		evt := DealCreated(payload)
		assert.Equal(t, "deal.created", evt.Type)
		assert.Equal(t, EntityTypeDeal, evt.Entity)
		assert.Equal(t, payload, evt.Payload)
	})

	t.Run("DealUpdated", func(t *testing.T) {
		evt := DealUpdated(payload)
		assert.Equal(t, "deal.updated", evt.Type)
		assert.Equal(t, EntityTypeDeal, evt.Entity)
		assert.Equal(t, payload, evt.Payload)
	})

	t.Run("DealTransitioned", func(t *testing.T) {
		evt := DealTransitioned(payload)
		assert.Equal(t, "deal.transitioned", evt.Type)
		assert.Equal(t, EntityTypeDeal, evt.Entity)
		assert.Equal(t, payload, evt.Payload)
	})
}

func TestScenarioAndVehicleEvent_Helpers(t *testing.T) {
	scenarioPayload := map[string]interface{}{"id": float64(7), "revision": float64(2)}
	vehiclePayload := map[string]interface{}{"id": float64(42), "status": "pending"}

	t.Run("ScenarioUpdated", func(t *testing.T) {
		evt := ScenarioUpdated(scenarioPayload)
		assert.Equal(t, "scenario.updated", evt.Type)
		assert.Equal(t, EntityTypeScenario, evt.Entity)
		assert.Equal(t, scenarioPayload, evt.Payload)
	})

	t.Run("VehicleReserved", func(t *testing.T) {
		evt := VehicleReserved(vehiclePayload)
		assert.Equal(t, "vehicle.updated", evt.Type)
		assert.Equal(t, EntityTypeVehicle, evt.Entity)
		assert.Equal(t, vehiclePayload, evt.Payload)
	})
}
