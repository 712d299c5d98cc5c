package game

import (
	"context"
	"time"

	"github.com/arcadia-lab/project-arcadia/internal/eventstore"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Service is the command pipeline of the Game aggregate. Every command runs
// the same five steps: map the input (build or load-and-mutate the
// aggregate), validate, persist the uncommitted events, derive and stage
// integration events, commit. The persistence steps share one event-store
// transaction. The response is built only from post-commit
// state; any failure discards the in-memory aggregate with no side effects.
type Service struct {
	store  eventstore.Store
	limits Limits
}

func NewService(store eventstore.Store, limits Limits) *Service {
	return &Service{store: store, limits: limits}
}

type CreateGameCommand struct {
	Input        CreateGameInput
	ActingUserID string
}

type ChangePriceCommand struct {
	GameID       string
	Price        decimal.Decimal
	ActingUserID string
}

type ChangeStatusCommand struct {
	GameID       string
	Status       string
	ActingUserID string
}

type RateGameCommand struct {
	GameID       string
	Rating       float64
	ActingUserID string
}

type ChangeDetailsCommand struct {
	GameID       string
	Details      DetailsInput
	ActingUserID string
}

type ActivateGameCommand struct {
	GameID       string
	ActingUserID string
}

type DeactivateGameCommand struct {
	GameID       string
	ActingUserID string
}

// Result is the flat post-commit state returned to callers.
type Result struct {
	ID           string
	Name         string
	Price        string
	AgeRating    string
	Status       string
	Rating       *float64
	Description  string
	Website      string
	Genres       []string
	Platforms    []string
	Mode         string
	Distribution string
	DiskSizeGB   float64
	IsActive     bool
	Version      uint64
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

func (s *Service) CreateGame(ctx context.Context, cmd CreateGameCommand) (*Result, error) {
	g, err := NewGame(cmd.Input, s.limits)
	if err != nil {
		return nil, err
	}
	if err := s.commit(ctx, g, cmd.ActingUserID); err != nil {
		return nil, err
	}
	return resultFrom(g), nil
}

func (s *Service) ChangePrice(ctx context.Context, cmd ChangePriceCommand) (*Result, error) {
	return s.mutate(ctx, cmd.GameID, cmd.ActingUserID, func(g *Game) error {
		return g.ChangePrice(cmd.Price, s.limits)
	})
}

func (s *Service) ChangeStatus(ctx context.Context, cmd ChangeStatusCommand) (*Result, error) {
	return s.mutate(ctx, cmd.GameID, cmd.ActingUserID, func(g *Game) error {
		return g.ChangeStatus(cmd.Status)
	})
}

func (s *Service) RateGame(ctx context.Context, cmd RateGameCommand) (*Result, error) {
	return s.mutate(ctx, cmd.GameID, cmd.ActingUserID, func(g *Game) error {
		return g.Rate(cmd.Rating)
	})
}

func (s *Service) ChangeDetails(ctx context.Context, cmd ChangeDetailsCommand) (*Result, error) {
	return s.mutate(ctx, cmd.GameID, cmd.ActingUserID, func(g *Game) error {
		return g.ChangeDetails(cmd.Details, s.limits)
	})
}

func (s *Service) ActivateGame(ctx context.Context, cmd ActivateGameCommand) (*Result, error) {
	return s.mutate(ctx, cmd.GameID, cmd.ActingUserID, func(g *Game) error {
		return g.Activate()
	})
}

func (s *Service) DeactivateGame(ctx context.Context, cmd DeactivateGameCommand) (*Result, error) {
	return s.mutate(ctx, cmd.GameID, cmd.ActingUserID, func(g *Game) error {
		return g.Deactivate()
	})
}

// mutate is the load-mutate-commit path shared by every non-create command.
// A validation failure from the behavior returns before anything is
// persisted; a version conflict from the store surfaces as
// eventstore.ErrVersionConflict for the caller to retry.
func (s *Service) mutate(ctx context.Context, gameID, actingUserID string, fn func(*Game) error) (*Result, error) {
	history, err := s.store.LoadStream(ctx, gameID)
	if err != nil {
		return nil, err
	}
	g, err := Load(history)
	if err != nil {
		return nil, err
	}
	if err := fn(g); err != nil {
		return nil, err
	}
	if err := s.commit(ctx, g, actingUserID); err != nil {
		return nil, err
	}
	return resultFrom(g), nil
}

func (s *Service) commit(ctx context.Context, g *Game, actingUserID string) error {
	events := g.UncommittedEvents()
	if len(events) == 0 {
		return nil
	}

	msgs, err := integrationMessages(events, actingUserID, uuid.NewString())
	if err != nil {
		return err
	}

	err = s.store.AppendToStream(ctx, eventstore.AppendRequest{
		StreamID:        g.EntityID(),
		StreamType:      StreamType,
		ExpectedVersion: g.AggregateVersion(),
		Events:          events,
		Outbox:          msgs,
	})
	if err != nil {
		return err
	}

	g.MarkCommitted()
	return nil
}

func resultFrom(g *Game) *Result {
	res := &Result{
		ID:           g.EntityID(),
		Name:         g.Name(),
		Price:        g.Price().String(),
		AgeRating:    g.AgeRating().Code(),
		Status:       string(g.Status()),
		Description:  g.Details().Description(),
		Website:      g.Details().Website(),
		Genres:       g.Details().Genres(),
		Platforms:    g.Details().Platforms(),
		Mode:         g.Details().Mode(),
		Distribution: g.Details().Distribution(),
		IsActive:     g.IsActive(),
		Version:      g.AggregateVersion(),
		CreatedAt:    g.CreatedAt(),
		UpdatedAt:    g.UpdatedAt(),
	}
	if rating, ok := g.Rating(); ok {
		v := rating.Value()
		res.Rating = &v
	}
	if disk, ok := g.DiskSize(); ok {
		res.DiskSizeGB = disk.Gigabytes()
	}
	return res
}
