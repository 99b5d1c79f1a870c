package outbox

import (
	"context"
	"sync"
)

// Event is the envelope written to outbox_events. The relay publishes it to
// the Kafka topic named EventType, keyed by AggregateID.
type Event struct {
	AggregateType string
	AggregateID   string
	EventType     string
	Payload       []byte
}

// Sink accepts events for later publication.
type Sink interface {
	Append(ctx context.Context, evt Event) error
}

// Memory is a Sink for the in-memory storage driver. Nothing relays it.
type Memory struct {
	mu     sync.Mutex
	events []Event
}

func NewMemory() *Memory { return &Memory{} }

func (m *Memory) Append(_ context.Context, evt Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, evt)
	return nil
}

func (m *Memory) Events() []Event {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Event, len(m.events))
	copy(out, m.events)
	return out
}
