package domain

import "time"

// EventType names a notification pushed to connected users
type EventType string

const (
	EventRequestCreated   EventType = "request.created"
	EventRequestResponded EventType = "request.responded"
	EventSessionScheduled EventType = "session.scheduled"
	EventSessionFeedback  EventType = "session.feedback"
	EventSessionCancelled EventType = "session.cancelled"
)

// Event is a notification delivered to a single user
type Event struct {
	Type      EventType   `json:"type"`
	Data      interface{} `json:"data"`
	Timestamp time.Time   `json:"timestamp"`
}

// NewEvent creates an event stamped with the current time
func NewEvent(t EventType, data interface{}) Event {
	return Event{Type: t, Data: data, Timestamp: time.Now().UTC()}
}
