// Package postgres implements the relay-facing side of the outbox table.
// Rows are inserted by the event store inside the append transaction; this
// store only reads unpublished rows and marks them delivered.
package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/arcadia-lab/project-arcadia/internal/outbox"
)

const (
	queryFetchUnpublished = `
		SELECT seq, id, topic, key, event_type, payload, headers, created_at
		FROM outbox
		WHERE published_at IS NULL
		ORDER BY seq ASC
		LIMIT $1
	`

	queryMarkPublished = `
		UPDATE outbox
		SET published_at = $2
		WHERE seq = $1
	`
)

// Store implements outbox.Reader on PostgreSQL.
type Store struct {
	db *sql.DB
}

func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// FetchUnpublished returns committed-but-undelivered messages in staging
// order. Ordering within one aggregate's messages matches append order
// because staging happens in the append transaction, in event order.
func (s *Store) FetchUnpublished(ctx context.Context, limit int) ([]outbox.Staged, error) {
	rows, err := s.db.QueryContext(ctx, queryFetchUnpublished, limit)
	if err != nil {
		return nil, fmt.Errorf("query unpublished outbox rows: %w", err)
	}
	defer rows.Close()

	var staged []outbox.Staged
	for rows.Next() {
		var (
			msg     outbox.Staged
			headers []byte
		)
		if err := rows.Scan(&msg.Seq, &msg.ID, &msg.Topic, &msg.Key,
			&msg.EventType, &msg.Payload, &headers, &msg.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan outbox row: %w", err)
		}
		if len(headers) > 0 {
			if err := json.Unmarshal(headers, &msg.Headers); err != nil {
				return nil, fmt.Errorf("unmarshal outbox headers: %w", err)
			}
		}
		staged = append(staged, msg)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate outbox rows: %w", err)
	}
	return staged, nil
}

func (s *Store) MarkPublished(ctx context.Context, seq int64) error {
	if _, err := s.db.ExecContext(ctx, queryMarkPublished, seq, time.Now().UTC()); err != nil {
		return fmt.Errorf("mark outbox row %d published: %w", seq, err)
	}
	return nil
}
