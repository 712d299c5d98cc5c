// Package memory provides an in-memory event store with the same
// concurrency and atomicity semantics as the postgres adapter. It backs the
// service-level tests and supports fault injection between the append and
// the commit so outbox atomicity can be exercised.
package memory

import (
	"context"
	"sync"

	"github.com/arcadia-lab/project-arcadia/internal/eventsourcing"
	"github.com/arcadia-lab/project-arcadia/internal/eventstore"
	"github.com/arcadia-lab/project-arcadia/internal/outbox"
)

type globalEntry struct {
	seq int64
	env eventsourcing.Envelope
}

// Store is an in-memory eventstore.Store.
type Store struct {
	mu         sync.RWMutex
	streams    map[string][]eventsourcing.Envelope
	global     []globalEntry
	staged     []outbox.Staged
	nextSeq    int64
	projectors []eventstore.Projector

	// Fault injection. FailAppend aborts before any mutation; FailCommit
	// aborts after validation but still before anything becomes visible,
	// mimicking a commit failure of the underlying transaction.
	FailAppend error
	FailCommit error
}

func NewStore(projectors ...eventstore.Projector) *Store {
	return &Store{
		streams:    make(map[string][]eventsourcing.Envelope),
		projectors: projectors,
	}
}

// Snapshotter is implemented by projectors whose backing store can capture
// and restore its state. The event store restores those snapshots when an
// append fails after some projection writes, matching the postgres
// adapter's transaction rollback. A nil restore func means the store has no
// snapshot support.
type Snapshotter interface {
	Snapshot() func()
}

func (s *Store) AppendToStream(ctx context.Context, req eventstore.AppendRequest) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.FailAppend != nil {
		return s.FailAppend
	}

	current := uint64(len(s.streams[req.StreamID]))
	if current != req.ExpectedVersion {
		return eventstore.ErrVersionConflict
	}

	if s.FailCommit != nil {
		return s.FailCommit
	}

	var restores []func()
	for _, p := range s.projectors {
		if p.StreamType() != req.StreamType {
			continue
		}
		if snap, ok := p.(Snapshotter); ok {
			if restore := snap.Snapshot(); restore != nil {
				restores = append(restores, restore)
			}
		}
	}

	for _, env := range req.Events {
		for _, p := range s.projectors {
			if p.StreamType() != env.StreamType {
				continue
			}
			if err := p.ApplyEnvelope(ctx, env); err != nil {
				for i := len(restores) - 1; i >= 0; i-- {
					restores[i]()
				}
				return err
			}
		}
	}

	for _, env := range req.Events {
		s.streams[req.StreamID] = append(s.streams[req.StreamID], env)
		s.nextSeq++
		s.global = append(s.global, globalEntry{seq: s.nextSeq, env: env})
	}
	for _, msg := range req.Outbox {
		s.nextSeq++
		s.staged = append(s.staged, outbox.Staged{Seq: s.nextSeq, Message: msg})
	}

	return nil
}

func (s *Store) LoadStream(ctx context.Context, streamID string) ([]eventsourcing.Envelope, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	events, ok := s.streams[streamID]
	if !ok || len(events) == 0 {
		return nil, eventstore.ErrStreamNotFound
	}

	out := make([]eventsourcing.Envelope, len(events))
	copy(out, events)
	return out, nil
}

func (s *Store) LoadByStreamType(ctx context.Context, streamType string, afterSeq int64, limit int) ([]eventsourcing.Envelope, int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var (
		out     []eventsourcing.Envelope
		lastSeq int64
	)
	for _, entry := range s.global {
		if entry.seq <= afterSeq || entry.env.StreamType != streamType {
			continue
		}
		out = append(out, entry.env)
		lastSeq = entry.seq
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, lastSeq, nil
}

// StagedMessages returns the committed outbox messages in staging order.
// Only messages whose owning append committed are ever visible here.
func (s *Store) StagedMessages() []outbox.Staged {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]outbox.Staged, len(s.staged))
	copy(out, s.staged)
	return out
}
