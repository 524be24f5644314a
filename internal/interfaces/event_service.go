package interfaces

import "context"

// EventType represents different event types in the system
type EventType string

const (
	// EventRunStarted fires when a generation run is accepted for a date
	EventRunStarted EventType = "run_started"
	// EventRunStateChanged fires on every run phase transition
	EventRunStateChanged EventType = "run_state_changed"
	// EventRunCompleted fires when a run finishes successfully
	EventRunCompleted EventType = "run_completed"
	// EventRunFailed fires when a run exhausts its attempts
	EventRunFailed EventType = "run_failed"
	// EventContentUpdated fires after a content record is persisted
	EventContentUpdated EventType = "content_updated"
	// EventLogEntry carries a single log line for UI streaming
	EventLogEntry EventType = "log_event"
	// EventStatusChanged fires when the application state changes
	EventStatusChanged EventType = "status_changed"
)

// Event represents a system event
type Event struct {
	Type    EventType
	Payload interface{}
}

// EventHandler is a function that handles events
type EventHandler func(ctx context.Context, event Event) error

// EventService manages pub/sub event bus
type EventService interface {
	// Subscribe to an event type
	Subscribe(eventType EventType, handler EventHandler) error

	// Unsubscribe from an event type
	Unsubscribe(eventType EventType, handler EventHandler) error

	// Publish an event to all subscribers
	Publish(ctx context.Context, event Event) error

	// PublishSync publishes event and waits for all handlers to complete
	PublishSync(ctx context.Context, event Event) error

	// Close shuts down the event service
	Close() error
}
