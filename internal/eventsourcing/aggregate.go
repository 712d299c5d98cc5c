package eventsourcing

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Aggregate is the contract every event-sourced aggregate root implements.
// State is derived entirely from the aggregate's own event history: loading
// folds Apply over the stored envelopes, behavior methods record new events
// through the embedded AggregateBase.
type Aggregate interface {
	// EntityID returns the unique identifier of the aggregate.
	EntityID() string

	// StreamType names the event family this aggregate writes to ("game",
	// "library", ...).
	StreamType() string

	// AggregateVersion returns the committed version, i.e. the number of
	// events durably appended to the stream. Uncommitted events are not
	// counted until MarkCommitted.
	AggregateVersion() uint64

	// UncommittedEvents returns the events recorded since the last load or
	// commit, in the order they were recorded.
	UncommittedEvents() []Envelope

	// Apply folds a single envelope into the aggregate's state. It must be
	// pure: no I/O, no clock reads, timestamps come from the envelope.
	Apply(env Envelope) error
}

// AggregateBase carries the identity, version and uncommitted-event plumbing
// shared by all aggregates. Concrete aggregates embed it and implement Apply.
type AggregateBase struct {
	id         string
	streamType string
	version    uint64
	events     []Envelope
	now        func() time.Time
}

// NewAggregateBase creates the base for a fresh or to-be-hydrated aggregate.
func NewAggregateBase(id, streamType string) *AggregateBase {
	return &AggregateBase{
		id:         id,
		streamType: streamType,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

func (b *AggregateBase) EntityID() string {
	return b.id
}

func (b *AggregateBase) StreamType() string {
	return b.streamType
}

func (b *AggregateBase) AggregateVersion() uint64 {
	return b.version
}

func (b *AggregateBase) UncommittedEvents() []Envelope {
	return b.events
}

// SetClock overrides the clock used to stamp newly recorded events.
// Hydration is unaffected; replayed envelopes keep their stored timestamps.
func (b *AggregateBase) SetClock(fn func() time.Time) {
	b.now = fn
}

// Record wraps the event in an envelope at the next uncommitted version and
// appends it to the uncommitted list. The caller applies the returned
// envelope so in-memory state and history stay in lockstep.
func (b *AggregateBase) Record(event Event) Envelope {
	env := Envelope{
		EventID:    uuid.New(),
		StreamID:   b.id,
		StreamType: b.streamType,
		Version:    b.version + uint64(len(b.events)) + 1,
		OccurredAt: b.now(),
		Event:      event,
	}
	b.events = append(b.events, env)
	return env
}

// MarkCommitted advances the committed version past the uncommitted events
// and clears them. Called by the command pipeline after a successful append.
func (b *AggregateBase) MarkCommitted() {
	b.version += uint64(len(b.events))
	b.events = nil
}

// Hydrate rebuilds an aggregate by folding its ordered event history into
// Apply, then fixes the committed version to the last envelope's. The fold
// starts from the aggregate's empty state; a stream whose events cannot be
// applied in order is corrupt.
func Hydrate(agg Aggregate, base *AggregateBase, history []Envelope) error {
	for _, env := range history {
		if err := agg.Apply(env); err != nil {
			return fmt.Errorf("replay %s at version %d: %w", env.EventType(), env.Version, err)
		}
	}
	if n := len(history); n > 0 {
		base.version = history[n-1].Version
	}
	return nil
}

// EventType is a convenience accessor for the wrapped event's type name.
func (e Envelope) EventType() string {
	if e.Event == nil {
		return ""
	}
	return e.Event.EventType()
}
