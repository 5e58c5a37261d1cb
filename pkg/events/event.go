package events

import "time"

// Event is the contract every published workflow event satisfies.
type Event interface {
	// EventType returns the unique code for this event, e.g. "RESOLUTION_APPROVED".
	EventType() string

	// Payload returns the data carried by the event.
	Payload() map[string]interface{}

	// Timestamp returns when the event occurred.
	Timestamp() time.Time
}

// BaseEvent is a generic implementation used both for ad-hoc publishing and
// for reconstructing events on the consuming side.
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
