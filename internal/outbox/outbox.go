// Package outbox implements the transactional-outbox side of the command
// pipeline: integration events are staged in the same database transaction
// as the event-store append, and a relay delivers them to the message
// transport only after that transaction has durably committed.
package outbox

import (
	"time"

	"github.com/google/uuid"
)

// Message is one integration event staged for delivery. Payload is the
// serialized flat fact; Headers carry the correlation context (acting user,
// originating aggregate id, correlation id).
type Message struct {
	ID        uuid.UUID
	Topic     string
	Key       string
	EventType string
	Payload   []byte
	Headers   map[string]string
}

// Staged is a Message as read back from the staging table, with the
// monotonic sequence the relay uses to preserve per-aggregate order.
type Staged struct {
	Seq       int64
	CreatedAt time.Time
	Message
}
