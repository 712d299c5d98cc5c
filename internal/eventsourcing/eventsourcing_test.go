package eventsourcing

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type counterBumped struct {
	CounterID string `json:"counter_id"`
	By        int    `json:"by"`
}

func (e *counterBumped) AggregateID() string { return e.CounterID }
func (e *counterBumped) EventType() string   { return "counter.bumped" }

// counter is a minimal aggregate for exercising the base plumbing.
type counter struct {
	*AggregateBase
	total int
}

func newCounter(id string) *counter {
	return &counter{AggregateBase: NewAggregateBase(id, "counter")}
}

func (c *counter) Apply(env Envelope) error {
	c.total += env.Event.(*counterBumped).By
	return nil
}

func (c *counter) bump(by int) error {
	return c.Apply(c.Record(&counterBumped{CounterID: c.EntityID(), By: by}))
}

func TestAggregateBase_RecordAssignsContiguousVersions(t *testing.T) {
	c := newCounter("c-1")
	require.NoError(t, c.bump(1))
	require.NoError(t, c.bump(2))
	require.NoError(t, c.bump(3))

	events := c.UncommittedEvents()
	require.Len(t, events, 3)
	for i, env := range events {
		require.Equal(t, uint64(i+1), env.Version)
		require.Equal(t, "c-1", env.StreamID)
		require.Equal(t, "counter", env.StreamType)
		require.NotEqual(t, env.EventID.String(), "00000000-0000-0000-0000-000000000000")
	}
	require.Equal(t, 6, c.total)

	// Version counts only committed events.
	require.Equal(t, uint64(0), c.AggregateVersion())
}

func TestAggregateBase_MarkCommitted(t *testing.T) {
	c := newCounter("c-1")
	require.NoError(t, c.bump(1))
	require.NoError(t, c.bump(1))

	c.MarkCommitted()
	require.Equal(t, uint64(2), c.AggregateVersion())
	require.Empty(t, c.UncommittedEvents())

	// Versioning continues from the committed version.
	require.NoError(t, c.bump(1))
	require.Equal(t, uint64(3), c.UncommittedEvents()[0].Version)
}

func TestAggregateBase_SetClock(t *testing.T) {
	at := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	c := newCounter("c-1")
	c.SetClock(func() time.Time { return at })

	require.NoError(t, c.bump(1))
	require.Equal(t, at, c.UncommittedEvents()[0].OccurredAt)
}

func TestHydrate(t *testing.T) {
	source := newCounter("c-1")
	require.NoError(t, source.bump(2))
	require.NoError(t, source.bump(3))

	restored := newCounter("c-1")
	require.NoError(t, Hydrate(restored, restored.AggregateBase, source.UncommittedEvents()))

	require.Equal(t, 5, restored.total)
	require.Equal(t, uint64(2), restored.AggregateVersion())
	require.Empty(t, restored.UncommittedEvents())
}

func TestCodec_RoundTrip(t *testing.T) {
	codec := NewCodec()
	codec.Register(func() Event { return &counterBumped{} })

	payload, err := codec.Marshal(&counterBumped{CounterID: "c-1", By: 7})
	require.NoError(t, err)

	event, err := codec.Unmarshal("counter.bumped", payload)
	require.NoError(t, err)
	bumped, ok := event.(*counterBumped)
	require.True(t, ok)
	require.Equal(t, "c-1", bumped.CounterID)
	require.Equal(t, 7, bumped.By)
}

func TestCodec_UnknownType(t *testing.T) {
	codec := NewCodec()
	_, err := codec.Unmarshal("counter.bumped", []byte(`{}`))
	require.Error(t, err)
}

func TestCodec_DuplicateRegistrationPanics(t *testing.T) {
	codec := NewCodec()
	codec.Register(func() Event { return &counterBumped{} })
	require.Panics(t, func() {
		codec.Register(func() Event { return &counterBumped{} })
	})
}

func TestValidationErrors(t *testing.T) {
	var c Collector
	c.Add("Price.GreaterThanOrEqualToZero", "price must not be negative")
	c.Add("Game.NameRequired", "name is required")

	err := c.Err()
	require.Error(t, err)

	v, ok := AsValidation(err)
	require.True(t, ok)
	require.Len(t, v, 2)
	require.True(t, v.Has("Price.GreaterThanOrEqualToZero"))
	require.True(t, v.Has("Game.NameRequired"))
	require.False(t, v.Has("Game.NameTooLong"))
}

func TestCollector_EmptyYieldsNil(t *testing.T) {
	var c Collector
	require.NoError(t, c.Err())
}

func TestCollector_MergeFlattens(t *testing.T) {
	var c Collector
	c.Merge(Validation("AgeRating.Unknown", "unknown rating"))
	c.Merge(Validation("Rating.OutOfRange", "out of range"))
	c.Merge(nil)

	v, ok := AsValidation(c.Err())
	require.True(t, ok)
	require.Len(t, v, 2)
}

func TestAsValidation_OtherError(t *testing.T) {
	_, ok := AsValidation(ErrCorruptStream)
	require.False(t, ok)
}
