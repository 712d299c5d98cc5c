package postgres

// SQL for the append-only event streams and the outbox staging table.

const (
	// queryStreamVersion reads the current version of one stream inside the
	// append transaction. The unique index on (stream_id, version) backstops
	// writers that race past this check.
	queryStreamVersion = `
		SELECT COALESCE(MAX(version), 0)
		FROM events
		WHERE stream_id = $1
	`

	queryInsertEvent = `
		INSERT INTO events (
			event_id, stream_id, stream_type, version,
			event_type, occurred_at, payload
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	// queryStageOutbox stages an integration event in the same transaction
	// as the event append. published_at stays NULL until the relay delivers
	// the message.
	queryStageOutbox = `
		INSERT INTO outbox (
			id, topic, key, event_type, payload, headers, created_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	queryLoadStream = `
		SELECT event_id, stream_id, stream_type, version, event_type, occurred_at, payload
		FROM events
		WHERE stream_id = $1
		ORDER BY version ASC
	`

	// queryLoadByStreamType pages through one event family in global append
	// order (global_seq is a BIGSERIAL). Used by projection rebuilds.
	queryLoadByStreamType = `
		SELECT event_id, stream_id, stream_type, version, event_type, occurred_at, payload, global_seq
		FROM events
		WHERE stream_type = $1
		  AND global_seq > $2
		ORDER BY global_seq ASC
		LIMIT $3
	`
)
