// Package events emits structured lifecycle events to the log and to live
// subscribers such as websocket clients.
package events

import (
	"encoding/json"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
)

const defaultSubscriberBuffer = 64

// Manager handles event emission and logging
type Manager struct {
	mu          sync.RWMutex
	subscribers map[uint64]chan EventWithData
	nextID      uint64
	dropped     atomic.Uint64
	now         func() time.Time
	log         zerolog.Logger
}

// NewManager creates a new event manager
func NewManager(log zerolog.Logger) *Manager {
	return &Manager{
		subscribers: make(map[uint64]chan EventWithData),
		now:         time.Now,
		log:         log.With().Str("service", "events").Logger(),
	}
}

// Emit logs an event and fans it out to subscribers. A subscriber whose buffer
// is full misses the event; emission never blocks.
func (m *Manager) Emit(module string, data EventData) {
	event := EventWithData{
		Type:      data.EventType(),
		Timestamp: m.now(),
		Module:    module,
		Data:      data,
	}

	eventJSON, err := json.Marshal(&event)
	if err != nil {
		m.log.Error().Err(err).Str("event_type", string(event.Type)).Msg("Failed to marshal event")
	} else {
		m.log.Info().
			Str("event_type", string(event.Type)).
			Str("module", module).
			RawJSON("event", eventJSON).
			Msg("Event emitted")
	}

	m.mu.RLock()
	defer m.mu.RUnlock()
	for id, ch := range m.subscribers {
		select {
		case ch <- event:
		default:
			m.dropped.Add(1)
			m.log.Warn().Uint64("subscriber", id).Str("event_type", string(event.Type)).Msg("Subscriber too slow, event dropped")
		}
	}
}

// EmitError emits an error event
func (m *Manager) EmitError(module string, err error, context map[string]interface{}) {
	m.Emit(module, &ErrorEventData{
		Error:   err.Error(),
		Context: context,
	})
}

// Subscribe registers a live subscriber. The returned cancel function removes
// it and closes the channel; it is safe to call more than once.
func (m *Manager) Subscribe(buffer int) (<-chan EventWithData, func()) {
	if buffer <= 0 {
		buffer = defaultSubscriberBuffer
	}
	ch := make(chan EventWithData, buffer)

	m.mu.Lock()
	m.nextID++
	id := m.nextID
	m.subscribers[id] = ch
	m.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			m.mu.Lock()
			delete(m.subscribers, id)
			m.mu.Unlock()
			close(ch)
		})
	}
	return ch, cancel
}

// SubscriberCount returns the number of live subscribers
func (m *Manager) SubscriberCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.subscribers)
}

// Dropped returns how many deliveries were skipped because a subscriber was full
func (m *Manager) Dropped() uint64 {
	return m.dropped.Load()
}
