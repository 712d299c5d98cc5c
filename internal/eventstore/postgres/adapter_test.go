package postgres

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/arcadia-lab/project-arcadia/internal/eventsourcing"
	"github.com/arcadia-lab/project-arcadia/internal/eventstore"
	"github.com/arcadia-lab/project-arcadia/internal/outbox"
	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/stretchr/testify/require"
)

type stubEvent struct {
	ID   string `json:"id"`
	Name string `json:"name,omitempty"`
}

func (e *stubEvent) AggregateID() string { return e.ID }
func (e *stubEvent) EventType() string   { return "stub.happened" }

func stubCodec() *eventsourcing.Codec {
	codec := eventsourcing.NewCodec()
	codec.Register(func() eventsourcing.Event { return &stubEvent{} })
	return codec
}

func stubEnvelope(version uint64) eventsourcing.Envelope {
	return eventsourcing.Envelope{
		EventID:    uuid.New(),
		StreamID:   "stream-1",
		StreamType: "stub",
		Version:    version,
		OccurredAt: time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC),
		Event:      &stubEvent{ID: "stream-1", Name: "first"},
	}
}

func eventColumns() []string {
	return []string{"event_id", "stream_id", "stream_type", "version", "event_type", "occurred_at", "payload"}
}

func TestAdapter_AppendToStream(t *testing.T) {
	env := stubEnvelope(1)
	msg := outbox.Message{
		ID:        uuid.New(),
		Topic:     "arcadia.games",
		Key:       "stream-1",
		EventType: "catalog.game-created",
		Payload:   []byte(`{}`),
		Headers:   map[string]string{"correlation-id": "c-1"},
	}

	tests := []struct {
		name       string
		req        eventstore.AppendRequest
		mockResult func(mock sqlmock.Sqlmock)
		assertions func(t *testing.T, err error)
	}{
		{
			name: "success with outbox",
			req: eventstore.AppendRequest{
				StreamID:        "stream-1",
				StreamType:      "stub",
				ExpectedVersion: 0,
				Events:          []eventsourcing.Envelope{env},
				Outbox:          []outbox.Message{msg},
			},
			mockResult: func(mock sqlmock.Sqlmock) {
				mock.ExpectBegin()
				mock.ExpectQuery(regexp.QuoteMeta(queryStreamVersion)).
					WithArgs("stream-1").
					WillReturnRows(sqlmock.NewRows([]string{"coalesce"}).AddRow(0))
				mock.ExpectExec(regexp.QuoteMeta(queryInsertEvent)).
					WithArgs(env.EventID, "stream-1", "stub", 1, "stub.happened", env.OccurredAt, sqlmock.AnyArg()).
					WillReturnResult(sqlmock.NewResult(0, 1))
				mock.ExpectExec(regexp.QuoteMeta(queryStageOutbox)).
					WithArgs(msg.ID, msg.Topic, msg.Key, msg.EventType, msg.Payload, sqlmock.AnyArg(), sqlmock.AnyArg()).
					WillReturnResult(sqlmock.NewResult(0, 1))
				mock.ExpectCommit()
			},
			assertions: func(t *testing.T, err error) {
				require.NoError(t, err)
			},
		},
		{
			name: "stale expected version",
			req: eventstore.AppendRequest{
				StreamID:        "stream-1",
				StreamType:      "stub",
				ExpectedVersion: 0,
				Events:          []eventsourcing.Envelope{env},
			},
			mockResult: func(mock sqlmock.Sqlmock) {
				mock.ExpectBegin()
				mock.ExpectQuery(regexp.QuoteMeta(queryStreamVersion)).
					WithArgs("stream-1").
					WillReturnRows(sqlmock.NewRows([]string{"coalesce"}).AddRow(3))
				mock.ExpectRollback()
			},
			assertions: func(t *testing.T, err error) {
				require.ErrorIs(t, err, eventstore.ErrVersionConflict)
			},
		},
		{
			name: "racing writer hits unique index",
			req: eventstore.AppendRequest{
				StreamID:        "stream-1",
				StreamType:      "stub",
				ExpectedVersion: 0,
				Events:          []eventsourcing.Envelope{env},
			},
			mockResult: func(mock sqlmock.Sqlmock) {
				mock.ExpectBegin()
				mock.ExpectQuery(regexp.QuoteMeta(queryStreamVersion)).
					WithArgs("stream-1").
					WillReturnRows(sqlmock.NewRows([]string{"coalesce"}).AddRow(0))
				mock.ExpectExec(regexp.QuoteMeta(queryInsertEvent)).
					WillReturnError(&pq.Error{Code: pqUniqueViolation})
				mock.ExpectRollback()
			},
			assertions: func(t *testing.T, err error) {
				require.ErrorIs(t, err, eventstore.ErrVersionConflict)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock, err := sqlmock.New()
			require.NoError(t, err)
			defer db.Close()

			tt.mockResult(mock)

			adapter := NewAdapter(db, stubCodec(), nil)
			tt.assertions(t, adapter.AppendToStream(context.Background(), tt.req))
			require.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestAdapter_AppendToStream_NoEventsIsNoOp(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	adapter := NewAdapter(db, stubCodec(), nil)
	require.NoError(t, adapter.AppendToStream(context.Background(), eventstore.AppendRequest{StreamID: "s"}))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAdapter_LoadStream(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	occurred := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	eventID := uuid.New()
	mock.ExpectQuery(regexp.QuoteMeta(queryLoadStream)).
		WithArgs("stream-1").
		WillReturnRows(sqlmock.NewRows(eventColumns()).
			AddRow(eventID, "stream-1", "stub", 1, "stub.happened", occurred, []byte(`{"id":"stream-1","name":"first"}`)))

	adapter := NewAdapter(db, stubCodec(), nil)
	envs, err := adapter.LoadStream(context.Background(), "stream-1")
	require.NoError(t, err)
	require.Len(t, envs, 1)
	require.Equal(t, eventID, envs[0].EventID)
	require.Equal(t, uint64(1), envs[0].Version)

	event, ok := envs[0].Event.(*stubEvent)
	require.True(t, ok)
	require.Equal(t, "first", event.Name)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAdapter_LoadStream_Empty(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(regexp.QuoteMeta(queryLoadStream)).
		WithArgs("missing").
		WillReturnRows(sqlmock.NewRows(eventColumns()))

	adapter := NewAdapter(db, stubCodec(), nil)
	_, err = adapter.LoadStream(context.Background(), "missing")
	require.ErrorIs(t, err, eventstore.ErrStreamNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAdapter_LoadByStreamType(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	occurred := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	cols := append(eventColumns(), "global_seq")
	mock.ExpectQuery(regexp.QuoteMeta(queryLoadByStreamType)).
		WithArgs("stub", int64(0), 100).
		WillReturnRows(sqlmock.NewRows(cols).
			AddRow(uuid.New(), "stream-1", "stub", 1, "stub.happened", occurred, []byte(`{"id":"stream-1"}`), int64(7)).
			AddRow(uuid.New(), "stream-2", "stub", 1, "stub.happened", occurred, []byte(`{"id":"stream-2"}`), int64(9)))

	adapter := NewAdapter(db, stubCodec(), nil)
	envs, lastSeq, err := adapter.LoadByStreamType(context.Background(), "stub", 0, 100)
	require.NoError(t, err)
	require.Len(t, envs, 2)
	require.Equal(t, int64(9), lastSeq)
	require.NoError(t, mock.ExpectationsWereMet())
}
