package events

import (
	"encoding/json"
	"time"
)

// EventType represents different event types
type EventType string

const (
	EntryDecided   EventType = "ENTRY_DECIDED"
	PositionOpened EventType = "POSITION_OPENED"
	MilestoneHit   EventType = "MILESTONE_HIT"
	PositionClosed EventType = "POSITION_CLOSED"
	StateReset     EventType = "STATE_RESET"
	ErrorOccurred  EventType = "ERROR_OCCURRED"
)

// EventData is the interface that all event data types must implement
// This allows for type-safe event data while maintaining flexibility
type EventData interface {
	// EventType returns the event type this data is associated with
	EventType() EventType
}

// EntryDecidedData contains data for EntryDecided events
type EntryDecidedData struct {
	Instrument   string  `json:"instrument"`
	Scenario     string  `json:"scenario,omitempty"`
	Direction    string  `json:"direction,omitempty"`
	Reason       string  `json:"reason"`
	Confidence   float64 `json:"confidence"`
	QualityScore float64 `json:"quality_score"`
	ShouldEnter  bool    `json:"should_enter"`
}

// EventType returns the event type for EntryDecidedData
func (d *EntryDecidedData) EventType() EventType {
	return EntryDecided
}

// PositionOpenedData contains data for PositionOpened events
type PositionOpenedData struct {
	PositionID string  `json:"position_id"`
	Instrument string  `json:"instrument"`
	Scenario   string  `json:"scenario"`
	Direction  string  `json:"direction"`
	EntryPrice float64 `json:"entry_price"`
}

// EventType returns the event type for PositionOpenedData
func (d *PositionOpenedData) EventType() EventType {
	return PositionOpened
}

// MilestoneHitData contains data for MilestoneHit events
type MilestoneHitData struct {
	PositionID          string  `json:"position_id"`
	Instrument          string  `json:"instrument"`
	Reason              string  `json:"reason"`
	Price               float64 `json:"price"`
	ReleasedPoints      float64 `json:"released_points"`
	TotalReleasedProfit float64 `json:"total_released_profit"`
	MilestoneIndex      int     `json:"milestone_index"`
}

// EventType returns the event type for MilestoneHitData
func (d *MilestoneHitData) EventType() EventType {
	return MilestoneHit
}

// PositionClosedData contains data for PositionClosed events
type PositionClosedData struct {
	PositionID          string  `json:"position_id"`
	Instrument          string  `json:"instrument"`
	Reason              string  `json:"reason"`
	ExitPrice           float64 `json:"exit_price"`
	Profit              float64 `json:"profit"`
	TotalReleasedProfit float64 `json:"total_released_profit"`
}

// EventType returns the event type for PositionClosedData
func (d *PositionClosedData) EventType() EventType {
	return PositionClosed
}

// StateResetData contains data for StateReset events
type StateResetData struct {
	Reason           string `json:"reason"`
	DroppedPositions int    `json:"dropped_positions"`
}

// EventType returns the event type for StateResetData
func (d *StateResetData) EventType() EventType {
	return StateReset
}

// ErrorEventData contains data for ErrorOccurred events
type ErrorEventData struct {
	Error   string                 `json:"error"`
	Context map[string]interface{} `json:"context,omitempty"`
}

// EventType returns the event type for ErrorEventData
func (d *ErrorEventData) EventType() EventType {
	return ErrorOccurred
}

// EventWithData represents an event with typed data
type EventWithData struct {
	Type      EventType `json:"type"`
	Timestamp time.Time `json:"timestamp"`
	Module    string    `json:"module"`
	Data      EventData `json:"data"`
}

// MarshalJSON customizes JSON serialization for EventWithData
func (e *EventWithData) MarshalJSON() ([]byte, error) {
	type Alias EventWithData
	aux := &struct {
		Data json.RawMessage `json:"data"`
		*Alias
	}{
		Alias: (*Alias)(e),
	}

	if e.Data != nil {
		dataBytes, err := json.Marshal(e.Data)
		if err != nil {
			return nil, err
		}
		aux.Data = dataBytes
	}

	return json.Marshal(aux)
}

// UnmarshalJSON customizes JSON deserialization for EventWithData
func (e *EventWithData) UnmarshalJSON(data []byte) error {
	type Alias EventWithData
	aux := &struct {
		Data json.RawMessage `json:"data"`
		*Alias
	}{
		Alias: (*Alias)(e),
	}

	if err := json.Unmarshal(data, aux); err != nil {
		return err
	}

	if len(aux.Data) == 0 || string(aux.Data) == "null" {
		return nil
	}

	var eventData EventData
	switch aux.Type {
	case EntryDecided:
		eventData = &EntryDecidedData{}
	case PositionOpened:
		eventData = &PositionOpenedData{}
	case MilestoneHit:
		eventData = &MilestoneHitData{}
	case PositionClosed:
		eventData = &PositionClosedData{}
	case StateReset:
		eventData = &StateResetData{}
	case ErrorOccurred:
		eventData = &ErrorEventData{}
	default:
		eventData = &GenericEventData{Type: aux.Type}
	}

	if err := json.Unmarshal(aux.Data, eventData); err != nil {
		return err
	}
	e.Data = eventData
	return nil
}

// GenericEventData is a fallback for events that don't have a specific type
type GenericEventData struct {
	Type EventType              `json:"-"`
	Data map[string]interface{} `json:"-"`
}

// EventType returns the event type for GenericEventData
func (d *GenericEventData) EventType() EventType {
	return d.Type
}

// MarshalJSON customizes JSON serialization for GenericEventData
func (d *GenericEventData) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.Data)
}

// UnmarshalJSON customizes JSON deserialization for GenericEventData
func (d *GenericEventData) UnmarshalJSON(data []byte) error {
	return json.Unmarshal(data, &d.Data)
}
