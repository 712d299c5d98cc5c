package library

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/arcadia-lab/project-arcadia/internal/eventsourcing"
	"github.com/arcadia-lab/project-arcadia/internal/eventstore"
	"github.com/arcadia-lab/project-arcadia/internal/game"
	"github.com/arcadia-lab/project-arcadia/internal/payment"
	"github.com/arcadia-lab/project-arcadia/internal/readmodel"
	"github.com/google/uuid"
)

// Service is the command pipeline of the library entry. A purchase runs the
// longest path in the system: catalog lookup, ownership check, remote
// payment authorization, then the usual validate-persist-publish-commit
// sequence inside one event-store transaction.
type Service struct {
	store      eventstore.Store
	catalog    game.ProjectionStore
	authorizer payment.Authorizer
	logger     *slog.Logger
}

func NewService(store eventstore.Store, catalog game.ProjectionStore, authorizer payment.Authorizer, logger *slog.Logger) *Service {
	return &Service{
		store:      store,
		catalog:    catalog,
		authorizer: authorizer,
		logger:     logger.With("component", "[LibraryService]"),
	}
}

type PurchaseGameCommand struct {
	UserID        string
	GameID        string
	PaymentMethod string
}

type IncreasePlaytimeCommand struct {
	UserID  string
	GameID  string
	Minutes int
}

type RemoveFromLibraryCommand struct {
	UserID string
	GameID string
	Reason string
}

// Result is the flat post-commit state of one library entry.
type Result struct {
	EntryID         string
	UserID          string
	GameID          string
	GameName        string
	PricePaid       string
	PaymentID       string
	PlaytimeMinutes int
	IsActive        bool
	Version         uint64
	PurchasedAt     time.Time
	UpdatedAt       time.Time
}

// PurchaseGame adds a game to the user's library, charging the catalog
// price at the moment of purchase. The payment call happens before the
// append transaction; an authorization that succeeds but loses the
// subsequent version race is surfaced as eventstore.ErrVersionConflict and
// left to the caller, the payment context reconciles on its own facts.
func (s *Service) PurchaseGame(ctx context.Context, cmd PurchaseGameCommand) (*Result, error) {
	var c eventsourcing.Collector
	if cmd.UserID == "" {
		c.Add("Library.UserRequired", "user id is required")
	}
	if cmd.GameID == "" {
		c.Add("Library.GameRequired", "game id is required")
	}
	if err := c.Err(); err != nil {
		return nil, err
	}

	catalogGame, err := s.catalog.Get(ctx, cmd.GameID)
	if err != nil {
		if errors.Is(err, readmodel.ErrNotFound) {
			return nil, eventsourcing.Validation("Game.NotFound", "game does not exist")
		}
		return nil, fmt.Errorf("look up game %s: %w", cmd.GameID, err)
	}
	if !catalogGame.IsActive {
		return nil, eventsourcing.Validation("Game.NotAvailable", "game is not available for purchase")
	}

	entry, err := s.loadEntry(ctx, cmd.UserID, cmd.GameID)
	if err != nil {
		return nil, err
	}
	if entry != nil && entry.IsActive() {
		return nil, eventsourcing.Validation("Library.AlreadyOwned", "user already owns this game")
	}

	auth, err := s.authorizer.Authorize(ctx, payment.AuthorizationRequest{
		UserID:        cmd.UserID,
		GameID:        cmd.GameID,
		Amount:        catalogGame.Price,
		PaymentMethod: cmd.PaymentMethod,
	})
	if err != nil {
		if errors.Is(err, payment.ErrUnavailable) {
			s.logger.WarnContext(ctx, "payment authorization unavailable",
				"user_id", cmd.UserID, "game_id", cmd.GameID, "error", err)
			return nil, eventsourcing.Validation("Payment.ServiceUnavailable",
				"payment service is unavailable, try again later")
		}
		return nil, fmt.Errorf("authorize payment: %w", err)
	}
	if !auth.Approved {
		return nil, eventsourcing.Validation("Payment.Declined",
			fmt.Sprintf("payment was declined: %s", auth.Reason))
	}

	if entry == nil {
		entry, err = NewEntry(cmd.UserID, cmd.GameID, catalogGame.Name, catalogGame.Price, auth.PaymentID, cmd.PaymentMethod)
	} else {
		err = entry.Repurchase(catalogGame.Price, auth.PaymentID, cmd.PaymentMethod)
	}
	if err != nil {
		return nil, err
	}

	if err := s.commit(ctx, entry, cmd.UserID); err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "game purchased",
		"user_id", cmd.UserID, "game_id", cmd.GameID, "payment_id", auth.PaymentID)
	return resultFrom(entry), nil
}

func (s *Service) IncreasePlaytime(ctx context.Context, cmd IncreasePlaytimeCommand) (*Result, error) {
	return s.mutate(ctx, cmd.UserID, cmd.GameID, func(e *Entry) error {
		return e.IncreasePlaytime(cmd.Minutes)
	})
}

func (s *Service) RemoveFromLibrary(ctx context.Context, cmd RemoveFromLibraryCommand) (*Result, error) {
	return s.mutate(ctx, cmd.UserID, cmd.GameID, func(e *Entry) error {
		return e.Remove(cmd.Reason)
	})
}

// RemoveByEntryID removes an entry addressed by its aggregate id. Used by
// the payment-facts consumer, which only knows the entry id carried in the
// purchase fact. Returns eventstore.ErrStreamNotFound for unknown entries.
func (s *Service) RemoveByEntryID(ctx context.Context, entryID, reason string) error {
	history, err := s.store.LoadStream(ctx, entryID)
	if err != nil {
		return err
	}
	entry, err := Load(history)
	if err != nil {
		return err
	}
	if err := entry.Remove(reason); err != nil {
		return err
	}
	return s.commit(ctx, entry, entry.UserID())
}

func (s *Service) mutate(ctx context.Context, userID, gameID string, fn func(*Entry) error) (*Result, error) {
	history, err := s.store.LoadStream(ctx, EntryID(userID, gameID))
	if err != nil {
		if errors.Is(err, eventstore.ErrStreamNotFound) {
			return nil, eventsourcing.Validation("Library.NotOwned", "game is not in the user's library")
		}
		return nil, err
	}
	entry, err := Load(history)
	if err != nil {
		return nil, err
	}
	if err := fn(entry); err != nil {
		return nil, err
	}
	if err := s.commit(ctx, entry, userID); err != nil {
		return nil, err
	}
	return resultFrom(entry), nil
}

// loadEntry returns (nil, nil) when the user never owned the game.
func (s *Service) loadEntry(ctx context.Context, userID, gameID string) (*Entry, error) {
	history, err := s.store.LoadStream(ctx, EntryID(userID, gameID))
	if err != nil {
		if errors.Is(err, eventstore.ErrStreamNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return Load(history)
}

func (s *Service) commit(ctx context.Context, e *Entry, actingUserID string) error {
	events := e.UncommittedEvents()
	if len(events) == 0 {
		return nil
	}

	msgs, err := integrationMessages(e, events, actingUserID, uuid.NewString())
	if err != nil {
		return err
	}

	err = s.store.AppendToStream(ctx, eventstore.AppendRequest{
		StreamID:        e.EntityID(),
		StreamType:      StreamType,
		ExpectedVersion: e.AggregateVersion(),
		Events:          events,
		Outbox:          msgs,
	})
	if err != nil {
		return err
	}

	e.MarkCommitted()
	return nil
}

func resultFrom(e *Entry) *Result {
	return &Result{
		EntryID:         e.EntityID(),
		UserID:          e.UserID(),
		GameID:          e.GameID(),
		GameName:        e.GameName(),
		PricePaid:       e.PricePaid().String(),
		PaymentID:       e.PaymentID(),
		PlaytimeMinutes: e.Playtime().Minutes(),
		IsActive:        e.IsActive(),
		Version:         e.AggregateVersion(),
		PurchasedAt:     e.PurchasedAt(),
		UpdatedAt:       e.UpdatedAt(),
	}
}
