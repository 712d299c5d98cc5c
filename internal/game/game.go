// Package game holds the Game aggregate of the catalog: an event-sourced
// root whose state is the fold of its own event history, its value objects,
// its command service and its read-model projector.
package game

import (
	"fmt"
	"time"

	"github.com/arcadia-lab/project-arcadia/internal/eventsourcing"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Game is the aggregate root. All fields are derived from events; behavior
// methods validate first and emit exactly one event on success, so a failed
// call leaves both the fields and the uncommitted-event list untouched.
type Game struct {
	*eventsourcing.AggregateBase

	name      string
	price     Price
	ageRating AgeRating
	status    GameStatus
	rating    Rating
	hasRating bool
	details   GameDetails
	diskSize  DiskSize
	hasDisk   bool
	sysReq    SystemRequirements
	devInfo   DeveloperInfo
	isActive  bool
	createdAt time.Time
	updatedAt time.Time

	initialized bool
}

// CreateGameInput carries the raw primitives of a create command.
type CreateGameInput struct {
	Name                    string
	Price                   decimal.Decimal
	AgeRating               string
	Details                 DetailsInput
	DiskSizeGB              float64
	MinimumRequirements     string
	RecommendedRequirements string
	Developer               string
	Publisher               string
}

func newEmptyGame(id string) *Game {
	return &Game{AggregateBase: eventsourcing.NewAggregateBase(id, StreamType)}
}

// NewGame validates every value object and cross-field rule, and only then
// assigns a fresh identity and emits the created event. All validation
// failures are collected and returned together.
func NewGame(input CreateGameInput, limits Limits) (*Game, error) {
	var c eventsourcing.Collector

	validateName(input.Name, limits, &c)
	if _, err := NewPrice(input.Price, limits); err != nil {
		c.Merge(err)
	}
	if _, err := NewAgeRating(input.AgeRating); err != nil {
		c.Merge(err)
	}
	if _, err := NewGameDetails(input.Details, limits); err != nil {
		c.Merge(err)
	}
	if input.DiskSizeGB != 0 {
		if _, err := NewDiskSize(input.DiskSizeGB); err != nil {
			c.Merge(err)
		}
	}
	if input.MinimumRequirements != "" || input.RecommendedRequirements != "" {
		if _, err := NewSystemRequirements(input.MinimumRequirements, input.RecommendedRequirements); err != nil {
			c.Merge(err)
		}
	}
	if input.Developer != "" || input.Publisher != "" {
		if _, err := NewDeveloperInfo(input.Developer, input.Publisher); err != nil {
			c.Merge(err)
		}
	}
	if err := c.Err(); err != nil {
		return nil, err
	}

	g := newEmptyGame(uuid.NewString())
	err := g.record(&GameCreated{
		GameID:                  g.EntityID(),
		Name:                    input.Name,
		Price:                   input.Price.String(),
		AgeRating:               input.AgeRating,
		Description:             input.Details.Description,
		Website:                 input.Details.Website,
		Genres:                  input.Details.Genres,
		Platforms:               input.Details.Platforms,
		Mode:                    input.Details.Mode,
		Distribution:            input.Details.Distribution,
		DiskSizeGB:              input.DiskSizeGB,
		MinimumRequirements:     input.MinimumRequirements,
		RecommendedRequirements: input.RecommendedRequirements,
		Developer:               input.Developer,
		Publisher:               input.Publisher,
	})
	if err != nil {
		return nil, err
	}
	return g, nil
}

// Load rebuilds a Game from its ordered event history.
func Load(history []eventsourcing.Envelope) (*Game, error) {
	if len(history) == 0 {
		return nil, fmt.Errorf("%w: empty game history", eventsourcing.ErrCorruptStream)
	}
	g := newEmptyGame(history[0].StreamID)
	if err := eventsourcing.Hydrate(g, g.AggregateBase, history); err != nil {
		return nil, err
	}
	return g, nil
}

// ChangePrice sets a new catalog price.
func (g *Game) ChangePrice(amount decimal.Decimal, limits Limits) error {
	price, err := NewPrice(amount, limits)
	if err != nil {
		return err
	}
	if g.price.Equal(price) {
		return eventsourcing.Validation("Price.Unchanged", "price already has this value")
	}
	return g.record(&GamePriceChanged{GameID: g.EntityID(), Price: price.String()})
}

// ChangeStatus moves the game to a new lifecycle status.
func (g *Game) ChangeStatus(status string) error {
	parsed, err := ParseGameStatus(status)
	if err != nil {
		return err
	}
	if g.status == parsed {
		return eventsourcing.Validation("GameStatus.Unchanged", "game already has this status")
	}
	return g.record(&GameStatusChanged{GameID: g.EntityID(), Status: string(parsed)})
}

// Rate sets the aggregate review score.
func (g *Game) Rate(value float64) error {
	rating, err := NewRating(value)
	if err != nil {
		return err
	}
	if g.hasRating && g.rating.Value() == rating.Value() {
		return eventsourcing.Validation("Rating.Unchanged", "rating already has this value")
	}
	return g.record(&GameRatingChanged{GameID: g.EntityID(), Rating: rating.Value()})
}

// ChangeDetails replaces the descriptive block.
func (g *Game) ChangeDetails(input DetailsInput, limits Limits) error {
	details, err := NewGameDetails(input, limits)
	if err != nil {
		return err
	}
	if g.details.Equal(details) {
		return eventsourcing.Validation("GameDetails.Unchanged", "details already have these values")
	}
	return g.record(&GameDetailsChanged{
		GameID:       g.EntityID(),
		Description:  details.Description(),
		Website:      details.Website(),
		Genres:       details.Genres(),
		Platforms:    details.Platforms(),
		Mode:         details.Mode(),
		Distribution: details.Distribution(),
	})
}

// Activate returns an inactive game to the catalog. Inactive -> Active only.
func (g *Game) Activate() error {
	if g.isActive {
		return eventsourcing.Validation("Game.AlreadyActive", "game is already active")
	}
	return g.record(&GameActivated{GameID: g.EntityID()})
}

// Deactivate removes the game from the catalog. This is the only deletion
// the aggregate knows; events are never physically removed.
func (g *Game) Deactivate() error {
	if !g.isActive {
		return eventsourcing.Validation("Game.AlreadyInactive", "game is already inactive")
	}
	return g.record(&GameDeactivated{GameID: g.EntityID()})
}

// record wraps the event in an envelope and applies it, keeping the live
// state identical to what a replay of the extended history would produce.
func (g *Game) record(e GameEvent) error {
	return g.Apply(g.Record(e))
}

// Apply folds one envelope into the aggregate. Pure: timestamps come from
// the envelope, never from a clock.
func (g *Game) Apply(env eventsourcing.Envelope) error {
	if !g.initialized {
		if _, ok := env.Event.(*GameCreated); !ok {
			return fmt.Errorf("%w: stream %s does not begin with game.created",
				eventsourcing.ErrCorruptStream, env.StreamID)
		}
	}

	switch e := env.Event.(type) {
	case *GameCreated:
		price, err := priceFromStored(e.Price)
		if err != nil {
			return err
		}
		g.name = e.Name
		g.price = price
		g.ageRating = AgeRating{code: e.AgeRating}
		g.details = detailsFromStored(e.Description, e.Website, e.Genres, e.Platforms, e.Mode, e.Distribution)
		g.diskSize = DiskSize{gb: e.DiskSizeGB}
		g.hasDisk = e.DiskSizeGB != 0
		g.sysReq = SystemRequirements{minimum: e.MinimumRequirements, recommended: e.RecommendedRequirements}
		g.devInfo = DeveloperInfo{developer: e.Developer, publisher: e.Publisher}
		g.status = StatusUnset
		g.isActive = true
		g.createdAt = env.OccurredAt
		g.initialized = true

	case *GamePriceChanged:
		price, err := priceFromStored(e.Price)
		if err != nil {
			return err
		}
		g.price = price

	case *GameStatusChanged:
		g.status = GameStatus(e.Status)

	case *GameRatingChanged:
		g.rating = Rating{value: e.Rating}
		g.hasRating = true

	case *GameDetailsChanged:
		g.details = detailsFromStored(e.Description, e.Website, e.Genres, e.Platforms, e.Mode, e.Distribution)

	case *GameActivated:
		g.isActive = true

	case *GameDeactivated:
		g.isActive = false

	default:
		return fmt.Errorf("%w: unexpected event %T in game stream", eventsourcing.ErrCorruptStream, env.Event)
	}

	g.updatedAt = env.OccurredAt
	return nil
}

func (g *Game) Name() string                { return g.name }
func (g *Game) Price() Price                { return g.price }
func (g *Game) AgeRating() AgeRating        { return g.ageRating }
func (g *Game) Status() GameStatus          { return g.status }
func (g *Game) Details() GameDetails        { return g.details }
func (g *Game) IsActive() bool              { return g.isActive }
func (g *Game) CreatedAt() time.Time        { return g.createdAt }
func (g *Game) UpdatedAt() time.Time        { return g.updatedAt }
func (g *Game) Developer() DeveloperInfo    { return g.devInfo }
func (g *Game) Requirements() SystemRequirements {
	return g.sysReq
}

// Rating returns the current score; ok is false while no rating has been
// recorded yet.
func (g *Game) Rating() (Rating, bool) { return g.rating, g.hasRating }

// DiskSize returns the install footprint; ok is false when none was given.
func (g *Game) DiskSize() (DiskSize, bool) { return g.diskSize, g.hasDisk }
