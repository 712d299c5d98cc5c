package outbox

import (
	"context"
	"log/slog"
	"time"

	"github.com/arcadia-lab/project-arcadia/internal/messaging"
)

// Reader is the staging-table view the relay needs: committed, undelivered
// messages in staging order, and a way to mark them delivered.
type Reader interface {
	FetchUnpublished(ctx context.Context, limit int) ([]Staged, error)
	MarkPublished(ctx context.Context, seq int64) error
}

// Relay drains the outbox to the message transport. It is decoupled from the
// commands that staged the messages: delivery is at-least-once (a crash
// between publish and mark redelivers), retried on the next tick, and never
// blocks a command.
type Relay struct {
	reader    Reader
	publisher messaging.Publisher
	interval  time.Duration
	batchSize int
}

func NewRelay(reader Reader, publisher messaging.Publisher, interval time.Duration, batchSize int) *Relay {
	if interval <= 0 {
		interval = time.Second
	}
	if batchSize <= 0 {
		batchSize = 100
	}
	return &Relay{
		reader:    reader,
		publisher: publisher,
		interval:  interval,
		batchSize: batchSize,
	}
}

// Start drains the outbox every tick until the context is cancelled, with a
// final drain on shutdown so committed facts are not stranded.
func (r *Relay) Start(ctx context.Context) error {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	slog.Info("[Outbox] Relay starting", "interval", r.interval, "batch_size", r.batchSize)

	r.drain(ctx)
	for {
		select {
		case <-ticker.C:
			r.drain(ctx)
		case <-ctx.Done():
			slog.Info("[Outbox] Relay stopping, running final drain")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			r.drain(shutdownCtx)
			return nil
		}
	}
}

// drain publishes pending batches until the backlog is empty. A publish
// failure stops the pass in order: later messages of the same aggregate must
// not overtake a failed earlier one.
func (r *Relay) drain(ctx context.Context) {
	for {
		if ctx.Err() != nil {
			return
		}

		staged, err := r.reader.FetchUnpublished(ctx, r.batchSize)
		if err != nil {
			slog.Error("[Outbox] Fetch failed", "error", err)
			return
		}
		if len(staged) == 0 {
			return
		}

		for _, msg := range staged {
			err := r.publisher.Publish(ctx, messaging.Message{
				Topic:   msg.Topic,
				Key:     msg.Key,
				Payload: msg.Payload,
				Headers: msg.Headers,
			})
			if err != nil {
				slog.Error("[Outbox] Publish failed, will retry next tick",
					"seq", msg.Seq, "topic", msg.Topic, "event_type", msg.EventType, "error", err)
				return
			}
			if err := r.reader.MarkPublished(ctx, msg.Seq); err != nil {
				// The message went out; failing to mark means one duplicate
				// on the next pass, which downstream consumers absorb.
				slog.Error("[Outbox] Mark-published failed", "seq", msg.Seq, "error", err)
				return
			}
		}

		if len(staged) < r.batchSize {
			return
		}
	}
}
