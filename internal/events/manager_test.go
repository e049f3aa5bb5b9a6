package events

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestManager_EmitLogsEvent(t *testing.T) {
	var buf bytes.Buffer
	m := NewManager(zerolog.New(&buf))

	m.Emit("trading", &PositionOpenedData{PositionID: "p-1", Instrument: "NIFTY", EntryPrice: 120.5})

	out := buf.String()
	assert.Contains(t, out, `"event_type":"POSITION_OPENED"`)
	assert.Contains(t, out, `"module":"trading"`)
	assert.Contains(t, out, `"position_id":"p-1"`)
}

func TestManager_Subscribe(t *testing.T) {
	m := NewManager(zerolog.Nop())
	fixed := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	m.now = func() time.Time { return fixed }

	ch, cancel := m.Subscribe(4)
	defer cancel()

	m.Emit("trading", &MilestoneHitData{PositionID: "p-1", Reason: "MILESTONE_1_HIT", MilestoneIndex: 1})

	select {
	case ev := <-ch:
		assert.Equal(t, MilestoneHit, ev.Type)
		assert.Equal(t, "trading", ev.Module)
		assert.Equal(t, fixed, ev.Timestamp)
		data, ok := ev.Data.(*MilestoneHitData)
		require.True(t, ok)
		assert.Equal(t, 1, data.MilestoneIndex)
	case <-time.After(time.Second):
		t.Fatal("event not delivered")
	}
}

func TestManager_SlowSubscriberDoesNotBlock(t *testing.T) {
	m := NewManager(zerolog.Nop())
	_, cancel := m.Subscribe(1)
	defer cancel()

	done := make(chan struct{})
	go func() {
		for i := 0; i < 5; i++ {
			m.Emit("trading", &StateResetData{Reason: "test"})
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Emit blocked on a full subscriber")
	}
	assert.Equal(t, uint64(4), m.Dropped())
}

func TestManager_CancelRemovesSubscriber(t *testing.T) {
	m := NewManager(zerolog.Nop())
	ch, cancel := m.Subscribe(0)
	require.Equal(t, 1, m.SubscriberCount())

	cancel()
	cancel()

	assert.Equal(t, 0, m.SubscriberCount())
	_, open := <-ch
	assert.False(t, open)

	assert.NotPanics(t, func() { m.Emit("trading", &StateResetData{}) })
}

func TestManager_EmitError(t *testing.T) {
	m := NewManager(zerolog.Nop())
	ch, cancel := m.Subscribe(1)
	defer cancel()

	m.EmitError("journal", errors.New("disk full"), map[string]interface{}{"table": "decisions"})

	ev := <-ch
	assert.Equal(t, ErrorOccurred, ev.Type)
	data := ev.Data.(*ErrorEventData)
	assert.Equal(t, "disk full", data.Error)
	assert.Equal(t, "decisions", data.Context["table"])
}

func TestEventWithData_JSON(t *testing.T) {
	tests := []struct {
		name string
		data EventData
	}{
		{"entry decided", &EntryDecidedData{Instrument: "NIFTY", Scenario: "S", ShouldEnter: true, Confidence: 8.5}},
		{"position opened", &PositionOpenedData{PositionID: "p", Direction: "CALL", EntryPrice: 101}},
		{"milestone", &MilestoneHitData{PositionID: "p", ReleasedPoints: 5}},
		{"closed", &PositionClosedData{PositionID: "p", Reason: "FINAL_TARGET_HIT", Profit: 16}},
		{"reset", &StateResetData{Reason: "stale", DroppedPositions: 2}},
		{"error", &ErrorEventData{Error: "boom"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := EventWithData{Type: tt.data.EventType(), Module: "m", Data: tt.data}

			raw, err := json.Marshal(&in)
			require.NoError(t, err)

			var out EventWithData
			require.NoError(t, json.Unmarshal(raw, &out))
			assert.Equal(t, tt.data, out.Data)
		})
	}
}

func TestEventWithData_UnknownTypeFallsBackToGeneric(t *testing.T) {
	var out EventWithData
	require.NoError(t, json.Unmarshal([]byte(`{"type":"CUSTOM","module":"x","data":{"k":"v"}}`), &out))

	generic, ok := out.Data.(*GenericEventData)
	require.True(t, ok)
	assert.Equal(t, EventType("CUSTOM"), generic.EventType())
	assert.Equal(t, "v", generic.Data["k"])
}
