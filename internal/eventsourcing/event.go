package eventsourcing

import (
	"time"

	"github.com/google/uuid"
)

// Event is a domain event: an immutable fact about a state change that
// already happened to one aggregate.
type Event interface {
	// AggregateID returns the id of the aggregate the event belongs to.
	AggregateID() string

	// EventType returns the stable name used for persistence and routing,
	// e.g. "game.created".
	EventType() string
}

// Envelope wraps a domain event with the stream bookkeeping the event store
// needs: stream identity, the event's position in the stream, and when the
// fact occurred.
type Envelope struct {
	EventID    uuid.UUID
	StreamID   string
	StreamType string
	Version    uint64
	OccurredAt time.Time
	Event      Event
}
