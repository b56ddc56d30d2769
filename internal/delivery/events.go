package delivery

import "sync"

// EventType defines the type of delivery event
type EventType string

const (
	EventEntityCreated    EventType = "entity_created"
	EventEntityFailed     EventType = "entity_failed"
	EventDeliveryFinished EventType = "delivery_finished"
)

// Event represents a step of a delivery run
type Event struct {
	Type     EventType `json:"type"`
	RunID    string    `json:"run_id"`
	EntityID string    `json:"entity_id,omitempty"`
	Key      string    `json:"entity_key,omitempty"`
	Err      error     `json:"-"`
}

// EventBus allows publishing and subscribing to events
type EventBus struct {
	mu          sync.RWMutex
	subscribers []chan<- Event
}

// NewEventBus creates a new event bus
func NewEventBus() *EventBus {
	return &EventBus{
		subscribers: make([]chan<- Event, 0),
	}
}

// Subscribe adds a subscriber to receive events
func (eb *EventBus) Subscribe(ch chan<- Event) {
	eb.mu.Lock()
	defer eb.mu.Unlock()
	eb.subscribers = append(eb.subscribers, ch)
}

// Publish sends an event to all subscribers. A nil bus drops the event.
func (eb *EventBus) Publish(event Event) {
	if eb == nil {
		return
	}
	eb.mu.RLock()
	defer eb.mu.RUnlock()
	for _, ch := range eb.subscribers {
		select {
		case ch <- event:
		default:
			// Subscriber is slow, skip
		}
	}
}
