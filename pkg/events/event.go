package events

import "time"

// Event defines the contract for all system events.
type Event interface {
	// EventType returns the unique code for this event (e.g., "SESSION_CREATED").
	EventType() string

	// Payload returns the data associated with the event.
	Payload() map[string]interface{}

	// Timestamp returns when the event occurred.
	Timestamp() time.Time
}

const (
	TypeSessionCreated = "SESSION_CREATED"
	TypeSessionUpdated = "SESSION_UPDATED"
	TypeSessionDeleted = "SESSION_DELETED"
	TypeMessageAdded   = "MESSAGE_ADDED"
	TypeMessageDeleted = "MESSAGE_DELETED"
)

type BaseEvent struct {
	Type       string
	Data       map[string]interface{}
	OccurredAt time.Time
}

func (e BaseEvent) EventType() string {
	return e.Type
}

func (e BaseEvent) Payload() map[string]interface{} {
	return e.Data
}

func (e BaseEvent) Timestamp() time.Time {
	return e.OccurredAt
}
