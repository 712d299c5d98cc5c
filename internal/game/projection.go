package game

import (
	"context"
	"fmt"
	"time"

	"github.com/arcadia-lab/project-arcadia/internal/eventsourcing"
	"github.com/shopspring/decimal"
)

// Projection is the denormalized read model of one game, keyed by aggregate
// id and rebuildable at any time by replaying the game stream through the
// Projector.
type Projection struct {
	ID                      string
	Name                    string
	Description             string
	Website                 string
	Genres                  []string
	Platforms               []string
	Mode                    string
	Distribution            string
	Price                   decimal.Decimal
	AgeRating               string
	Status                  string
	Rating                  *float64
	DiskSizeGB              float64
	MinimumRequirements     string
	RecommendedRequirements string
	Developer               string
	Publisher               string
	IsActive                bool
	CreatedAt               time.Time
	UpdatedAt               time.Time
}

// ProjectionStore is the read-model storage the projector writes through.
// Get must return readmodel.ErrNotFound (wrapped or not) for unknown ids.
type ProjectionStore interface {
	Get(ctx context.Context, id string) (*Projection, error)
	Upsert(ctx context.Context, p *Projection) error
}

// Projector maintains the game read model. Update handlers load the stored
// record and merge in only the fields the event actually carries; they never
// rebuild the record from the event alone, or previously projected data
// would be silently lost.
type Projector struct {
	store ProjectionStore
}

func NewProjector(store ProjectionStore) *Projector {
	return &Projector{store: store}
}

func (p *Projector) StreamType() string { return StreamType }

// Snapshot returns a restore function for the backing store's current
// contents, or nil when the store cannot snapshot itself. Non-transactional
// stores need it to undo inline projection writes of a failed append.
func (p *Projector) Snapshot() func() {
	if s, ok := p.store.(interface{ Snapshot() func() }); ok {
		return s.Snapshot()
	}
	return nil
}

func (p *Projector) ApplyEnvelope(ctx context.Context, env eventsourcing.Envelope) error {
	created, ok := env.Event.(*GameCreated)
	if ok {
		price, err := decimal.NewFromString(created.Price)
		if err != nil {
			return fmt.Errorf("bad price in %s: %w", env.EventType(), err)
		}
		return p.store.Upsert(ctx, &Projection{
			ID:                      created.GameID,
			Name:                    created.Name,
			Description:             created.Description,
			Website:                 created.Website,
			Genres:                  created.Genres,
			Platforms:               created.Platforms,
			Mode:                    created.Mode,
			Distribution:            created.Distribution,
			Price:                   price,
			AgeRating:               created.AgeRating,
			DiskSizeGB:              created.DiskSizeGB,
			MinimumRequirements:     created.MinimumRequirements,
			RecommendedRequirements: created.RecommendedRequirements,
			Developer:               created.Developer,
			Publisher:               created.Publisher,
			IsActive:                true,
			CreatedAt:               env.OccurredAt,
			UpdatedAt:               env.OccurredAt,
		})
	}

	rec, err := p.store.Get(ctx, env.StreamID)
	if err != nil {
		return fmt.Errorf("load game projection %s for %s: %w", env.StreamID, env.EventType(), err)
	}

	switch e := env.Event.(type) {
	case *GamePriceChanged:
		price, err := decimal.NewFromString(e.Price)
		if err != nil {
			return fmt.Errorf("bad price in %s: %w", env.EventType(), err)
		}
		rec.Price = price

	case *GameStatusChanged:
		rec.Status = e.Status

	case *GameRatingChanged:
		v := e.Rating
		rec.Rating = &v

	case *GameDetailsChanged:
		rec.Description = e.Description
		rec.Website = e.Website
		rec.Genres = e.Genres
		rec.Platforms = e.Platforms
		rec.Mode = e.Mode
		rec.Distribution = e.Distribution

	case *GameActivated:
		rec.IsActive = true

	case *GameDeactivated:
		rec.IsActive = false

	default:
		return fmt.Errorf("no projection handler for event %T", env.Event)
	}

	rec.UpdatedAt = env.OccurredAt
	return p.store.Upsert(ctx, rec)
}
