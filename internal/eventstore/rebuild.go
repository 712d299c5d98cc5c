package eventstore

import (
	"context"
	"fmt"
	"log/slog"
)

const rebuildBatchSize = 1000

// Rebuild replays the entire committed history of one event family through
// a projector, in global append order. Read models are derived state; this
// reconstructs them from scratch at any time using the same apply functions
// the inline path uses.
func Rebuild(ctx context.Context, store Store, projector Projector) error {
	var (
		cursor int64
		total  int
	)

	for {
		envs, lastSeq, err := store.LoadByStreamType(ctx, projector.StreamType(), cursor, rebuildBatchSize)
		if err != nil {
			return fmt.Errorf("load %s events after seq %d: %w", projector.StreamType(), cursor, err)
		}
		if len(envs) == 0 {
			break
		}

		for _, env := range envs {
			if err := projector.ApplyEnvelope(ctx, env); err != nil {
				return fmt.Errorf("apply %s at stream %s version %d: %w",
					env.EventType(), env.StreamID, env.Version, err)
			}
		}

		total += len(envs)
		cursor = lastSeq
		if len(envs) < rebuildBatchSize {
			break
		}
	}

	slog.Info("[EventStore] Projection rebuild complete",
		"stream_type", projector.StreamType(),
		"events_replayed", total)
	return nil
}
