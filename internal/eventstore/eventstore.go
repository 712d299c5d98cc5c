// Package eventstore defines the contract for the append-only event store
// backing the aggregates: per-stream ordered append with optimistic
// concurrency, ordered stream reads for hydration, and fan-out reads by
// stream type for projection rebuilds.
package eventstore

import (
	"context"
	"errors"

	"github.com/arcadia-lab/project-arcadia/internal/eventsourcing"
	"github.com/arcadia-lab/project-arcadia/internal/outbox"
)

var (
	// ErrStreamNotFound is returned when a stream id has no events.
	ErrStreamNotFound = errors.New("event stream not found")

	// ErrVersionConflict is returned when the expected version no longer
	// matches the stream: another writer advanced it first. Retryable by
	// the caller after a fresh load.
	ErrVersionConflict = errors.New("event stream version conflict")
)

// AppendRequest is the unit of work of one command: all uncommitted events
// of one aggregate plus the integration events derived from them. The store
// must apply it all-or-nothing: events, outbox rows and inline projections
// become visible together or not at all.
type AppendRequest struct {
	StreamID        string
	StreamType      string
	ExpectedVersion uint64
	Events          []eventsourcing.Envelope
	Outbox          []outbox.Message
}

// Store is the append-only event store contract.
//
// Implementations must guarantee:
//   - events of one stream are stored and read back in version order,
//   - AppendToStream fails with ErrVersionConflict when ExpectedVersion
//     does not match the stream's current version,
//   - the append, the outbox staging and the registered inline projections
//     commit atomically.
type Store interface {
	AppendToStream(ctx context.Context, req AppendRequest) error

	// LoadStream returns the full ordered history of one stream, or
	// ErrStreamNotFound when no events exist for the id.
	LoadStream(ctx context.Context, streamID string) ([]eventsourcing.Envelope, error)

	// LoadByStreamType reads events across all streams of one family in
	// global append order, starting after the given sequence. Used by
	// projection rebuilds. Returns the envelopes and the sequence of the
	// last one, for pagination.
	LoadByStreamType(ctx context.Context, streamType string, afterSeq int64, limit int) ([]eventsourcing.Envelope, int64, error)
}

// Projector consumes committed envelopes and maintains a read model.
// Implementations must merge only the fields an event actually carries into
// the existing record; replaying the full history from scratch must produce
// the same record as incremental application.
type Projector interface {
	// StreamType names the event family this projector consumes.
	StreamType() string

	ApplyEnvelope(ctx context.Context, env eventsourcing.Envelope) error
}
