package events

import (
	"encoding/json"
	"sync"
	"time"
)

const (
	EventCalculationDone    = "calculation_done"
	EventBroadcastStarted   = "broadcast_started"
	EventBroadcastFinished  = "broadcast_finished"
	EventSubscriptionChange = "subscription_changed"
)

// CalculationEventPayload describes a finished calculation for event consumers.
type CalculationEventPayload struct {
	UserID     int64     `json:"user_id"`
	Expression string    `json:"expression"`
	Result     string    `json:"result"`
	At         time.Time `json:"at"`
}

// BroadcastEventPayload describes a broadcast lifecycle change.
type BroadcastEventPayload struct {
	BroadcastID int64  `json:"broadcast_id"`
	AdminID     int64  `json:"admin_id"`
	TotalUsers  int64  `json:"total_users"`
	SentCount   int64  `json:"sent_count"`
	FailedCount int64  `json:"failed_count"`
	Status      string `json:"status"`
}

// SubscriptionEventPayload describes a subscription status transition.
type SubscriptionEventPayload struct {
	UserID     int64 `json:"user_id"`
	Subscribed bool  `json:"subscribed"`
}

// Event represents a lightweight domain event.
type Event struct {
	ID        int64
	Type      string
	Payload   []byte
	CreatedAt time.Time
	Processed bool
}

// EventHandler reacts to an event.
type EventHandler func(event *Event) error

// EventBus provides in-process pub/sub for events.
type EventBus struct {
	subscribers map[string][]EventHandler
	mu          sync.RWMutex
}

// NewEventBus constructs an empty bus.
func NewEventBus() *EventBus {
	return &EventBus{subscribers: make(map[string][]EventHandler)}
}

// Subscribe registers a handler for a given event type.
func (b *EventBus) Subscribe(eventType string, handler EventHandler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subscribers[eventType] = append(b.subscribers[eventType], handler)
}

// Publish notifies subscribers of the event type.
func (b *EventBus) Publish(event *Event) {
	b.mu.RLock()
	handlers := append([]EventHandler(nil), b.subscribers[event.Type]...)
	b.mu.RUnlock()

	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now()
	}

	for _, handler := range handlers {
		// Handlers run synchronously; caller decides concurrency model.
		_ = handler(event)
	}
}

// PublishJSON serializes the payload and publishes an event.
func (b *EventBus) PublishJSON(eventType string, payload interface{}) error {
	if b == nil {
		return nil
	}

	raw, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	b.Publish(&Event{Type: eventType, Payload: raw, CreatedAt: time.Now()})
	return nil
}
