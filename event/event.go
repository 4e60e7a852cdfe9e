// Package event defines the immutable event value distributed by streamhub
// and its wire representation for streaming clients.
package event

import (
	"time"

	"github.com/google/uuid"
)

// Event describes something that happened on the platform. Events are
// immutable once created; treat all fields as read-only.
type Event struct {
	// Topic is a dot-segmented subject string, e.g. "conversation.message_received".
	Topic string `json:"topic"`
	// Payload is the opaque structured value carried by the event.
	Payload any `json:"payload"`
	// Source identifies the collaborator that published the event.
	Source string `json:"source"`
	// TraceID correlates log lines produced while handling this event.
	TraceID string `json:"trace_id"`
	// CorrelationID optionally links the event to a request or saga.
	CorrelationID string `json:"correlation_id,omitempty"`
	// Timestamp is the creation instant in UTC.
	Timestamp time.Time `json:"timestamp"`
}

// New creates an Event with a fresh trace id and UTC timestamp.
func New(topic string, payload any, source string) Event {
	return Event{
		Topic:     topic,
		Payload:   payload,
		Source:    source,
		TraceID:   uuid.New().String(),
		Timestamp: time.Now().UTC(),
	}
}

// WithCorrelationID returns a copy of the event carrying the given
// correlation id. The receiver is not modified.
func (e Event) WithCorrelationID(id string) Event {
	e.CorrelationID = id
	return e
}

// Well-known topics emitted by streamhub itself.
const (
	// TopicHeartbeat is the synthetic keep-alive event written to idle streams.
	TopicHeartbeat = "heartbeat"

	// TopicConnected is the first frame written after a stream is registered.
	TopicConnected = "connected"
)
