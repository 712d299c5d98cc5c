// Package postgres implements the event store on PostgreSQL. One append is
// one transaction: optimistic version check, event rows, outbox rows and
// inline projection writes commit together, so the event log, the staged
// integration events and the read models are never observably out of sync.
package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/arcadia-lab/project-arcadia/internal/eventsourcing"
	"github.com/arcadia-lab/project-arcadia/internal/eventstore"
	"github.com/google/uuid"
	"github.com/lib/pq" // also registers the postgres driver
)

const connectPingTimeout = 5 * time.Second

// pq error code for unique_violation; a racing writer that slipped past the
// version read hits the (stream_id, version) unique index instead.
const pqUniqueViolation = "23505"

// ProjectorFactory builds projectors bound to the transaction that is
// appending the events, so projection writes commit with the append.
type ProjectorFactory func(tx *sql.Tx) []eventstore.Projector

// Adapter implements eventstore.Store on PostgreSQL.
type Adapter struct {
	db         *sql.DB
	codec      *eventsourcing.Codec
	projectors ProjectorFactory
}

// Open opens a connection pool, verifies connectivity and returns an
// Adapter. Schema must already exist; run migrations first.
func Open(dsn string, maxOpenConns, maxIdleConns int) (*sql.DB, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open postgres database: %w", err)
	}

	db.SetMaxOpenConns(maxOpenConns)
	db.SetMaxIdleConns(maxIdleConns)
	db.SetConnMaxLifetime(5 * time.Minute)

	pingCtx, cancel := context.WithTimeout(context.Background(), connectPingTimeout)
	defer cancel()

	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping postgres database: %w", err)
	}

	slog.Info("[Postgres] Connection pool configured",
		"max_open_conns", maxOpenConns,
		"max_idle_conns", maxIdleConns)
	return db, nil
}

// NewAdapter wraps an open pool. The codec decodes stored payloads back into
// domain events; projectors (optional) run inside every append transaction.
func NewAdapter(db *sql.DB, codec *eventsourcing.Codec, projectors ProjectorFactory) *Adapter {
	return &Adapter{db: db, codec: codec, projectors: projectors}
}

func (a *Adapter) AppendToStream(ctx context.Context, req eventstore.AppendRequest) error {
	if len(req.Events) == 0 {
		return nil
	}

	tx, err := a.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin append transaction: %w", err)
	}
	defer tx.Rollback()

	var current uint64
	if err := tx.QueryRowContext(ctx, queryStreamVersion, req.StreamID).Scan(&current); err != nil {
		return fmt.Errorf("read stream version: %w", err)
	}
	if current != req.ExpectedVersion {
		return fmt.Errorf("stream %s at version %d, expected %d: %w",
			req.StreamID, current, req.ExpectedVersion, eventstore.ErrVersionConflict)
	}

	for _, env := range req.Events {
		payload, err := a.codec.Marshal(env.Event)
		if err != nil {
			return err
		}
		_, err = tx.ExecContext(ctx, queryInsertEvent,
			env.EventID,
			env.StreamID,
			env.StreamType,
			env.Version,
			env.EventType(),
			env.OccurredAt,
			payload,
		)
		if err != nil {
			if isUniqueViolation(err) {
				return fmt.Errorf("stream %s version %d already written: %w",
					req.StreamID, env.Version, eventstore.ErrVersionConflict)
			}
			return fmt.Errorf("insert event %s: %w", env.EventType(), err)
		}
	}

	for _, msg := range req.Outbox {
		headers, err := json.Marshal(msg.Headers)
		if err != nil {
			return fmt.Errorf("marshal outbox headers: %w", err)
		}
		_, err = tx.ExecContext(ctx, queryStageOutbox,
			msg.ID,
			msg.Topic,
			msg.Key,
			msg.EventType,
			msg.Payload,
			headers,
			time.Now().UTC(),
		)
		if err != nil {
			return fmt.Errorf("stage outbox message %s: %w", msg.EventType, err)
		}
	}

	if a.projectors != nil {
		for _, p := range a.projectors(tx) {
			if p.StreamType() != req.StreamType {
				continue
			}
			for _, env := range req.Events {
				if err := p.ApplyEnvelope(ctx, env); err != nil {
					return fmt.Errorf("project %s: %w", env.EventType(), err)
				}
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit append transaction: %w", err)
	}

	slog.Debug("[EventStore] Appended events",
		"stream_id", req.StreamID,
		"stream_type", req.StreamType,
		"events", len(req.Events),
		"outbox", len(req.Outbox))
	return nil
}

func (a *Adapter) LoadStream(ctx context.Context, streamID string) ([]eventsourcing.Envelope, error) {
	rows, err := a.db.QueryContext(ctx, queryLoadStream, streamID)
	if err != nil {
		return nil, fmt.Errorf("query stream %s: %w", streamID, err)
	}
	defer rows.Close()

	var envelopes []eventsourcing.Envelope
	for rows.Next() {
		env, err := a.scanEnvelope(rows)
		if err != nil {
			return nil, err
		}
		envelopes = append(envelopes, env)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate stream %s: %w", streamID, err)
	}

	if len(envelopes) == 0 {
		return nil, eventstore.ErrStreamNotFound
	}
	return envelopes, nil
}

func (a *Adapter) LoadByStreamType(ctx context.Context, streamType string, afterSeq int64, limit int) ([]eventsourcing.Envelope, int64, error) {
	rows, err := a.db.QueryContext(ctx, queryLoadByStreamType, streamType, afterSeq, limit)
	if err != nil {
		return nil, 0, fmt.Errorf("query %s events: %w", streamType, err)
	}
	defer rows.Close()

	var (
		envelopes []eventsourcing.Envelope
		lastSeq   int64
	)
	for rows.Next() {
		env, seq, err := a.scanEnvelopeSeq(rows)
		if err != nil {
			return nil, 0, err
		}
		envelopes = append(envelopes, env)
		lastSeq = seq
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate %s events: %w", streamType, err)
	}
	return envelopes, lastSeq, nil
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func (a *Adapter) scanEnvelope(row scanner) (eventsourcing.Envelope, error) {
	var (
		env       eventsourcing.Envelope
		eventID   uuid.UUID
		eventType string
		payload   []byte
	)
	if err := row.Scan(&eventID, &env.StreamID, &env.StreamType, &env.Version,
		&eventType, &env.OccurredAt, &payload); err != nil {
		return eventsourcing.Envelope{}, fmt.Errorf("scan event row: %w", err)
	}

	event, err := a.codec.Unmarshal(eventType, payload)
	if err != nil {
		return eventsourcing.Envelope{}, err
	}
	env.EventID = eventID
	env.Event = event
	env.OccurredAt = env.OccurredAt.UTC()
	return env, nil
}

func (a *Adapter) scanEnvelopeSeq(row scanner) (eventsourcing.Envelope, int64, error) {
	var (
		env       eventsourcing.Envelope
		eventID   uuid.UUID
		eventType string
		payload   []byte
		seq       int64
	)
	if err := row.Scan(&eventID, &env.StreamID, &env.StreamType, &env.Version,
		&eventType, &env.OccurredAt, &payload, &seq); err != nil {
		return eventsourcing.Envelope{}, 0, fmt.Errorf("scan event row: %w", err)
	}

	event, err := a.codec.Unmarshal(eventType, payload)
	if err != nil {
		return eventsourcing.Envelope{}, 0, err
	}
	env.EventID = eventID
	env.Event = event
	env.OccurredAt = env.OccurredAt.UTC()
	return env, seq, nil
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == pqUniqueViolation
}
