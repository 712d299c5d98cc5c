package library

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/arcadia-lab/project-arcadia/internal/eventsourcing"
	"github.com/arcadia-lab/project-arcadia/internal/readmodel"
	"github.com/shopspring/decimal"
)

// Projection is the denormalized read model of one library entry.
type Projection struct {
	EntryID         string
	UserID          string
	GameID          string
	GameName        string
	PricePaid       decimal.Decimal
	PaymentID       string
	PlaytimeMinutes int
	IsActive        bool
	PurchasedAt     time.Time
	UpdatedAt       time.Time
}

// ProjectionStore is the read-model storage the projector writes through.
// Get must return readmodel.ErrNotFound (wrapped or not) for unknown ids.
type ProjectionStore interface {
	Get(ctx context.Context, entryID string) (*Projection, error)
	Upsert(ctx context.Context, p *Projection) error
}

// Projector maintains the library read model. As in the game projector,
// update handlers merge the stored record with only the fields the event
// carries.
type Projector struct {
	store ProjectionStore
}

func NewProjector(store ProjectionStore) *Projector {
	return &Projector{store: store}
}

func (p *Projector) StreamType() string { return StreamType }

// Snapshot returns a restore function for the backing store's current
// contents, or nil when the store cannot snapshot itself.
func (p *Projector) Snapshot() func() {
	if s, ok := p.store.(interface{ Snapshot() func() }); ok {
		return s.Snapshot()
	}
	return nil
}

func (p *Projector) ApplyEnvelope(ctx context.Context, env eventsourcing.Envelope) error {
	if purchased, ok := env.Event.(*GamePurchased); ok {
		return p.applyPurchased(ctx, env, purchased)
	}

	rec, err := p.store.Get(ctx, env.StreamID)
	if err != nil {
		return fmt.Errorf("load library record %s: %w", env.StreamID, err)
	}

	switch e := env.Event.(type) {
	case *PlaytimeIncreased:
		rec.PlaytimeMinutes += e.Minutes
	case *EntryRemoved:
		rec.IsActive = false
	default:
		return fmt.Errorf("unhandled library event %T", env.Event)
	}

	rec.UpdatedAt = env.OccurredAt
	return p.store.Upsert(ctx, rec)
}

// applyPurchased handles both the first purchase and a repurchase of a
// removed entry. On repurchase the accumulated playtime and the original
// purchase date are kept.
func (p *Projector) applyPurchased(ctx context.Context, env eventsourcing.Envelope, e *GamePurchased) error {
	price, err := decimal.NewFromString(e.PricePaid)
	if err != nil {
		return fmt.Errorf("parse price %q: %w", e.PricePaid, err)
	}

	rec, err := p.store.Get(ctx, env.StreamID)
	switch {
	case errors.Is(err, readmodel.ErrNotFound):
		rec = &Projection{EntryID: env.StreamID, PurchasedAt: env.OccurredAt}
	case err != nil:
		return fmt.Errorf("load library record %s: %w", env.StreamID, err)
	}
	rec.UserID = e.UserID
	rec.GameID = e.GameID
	rec.GameName = e.GameName
	rec.PricePaid = price
	rec.PaymentID = e.PaymentID
	rec.IsActive = true
	rec.UpdatedAt = env.OccurredAt
	return p.store.Upsert(ctx, rec)
}
