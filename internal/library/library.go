// Package library holds the user game-library bounded context: the
// event-sourced library-entry aggregate, the purchase command pipeline with
// its payment authorization, the read-model projector and the consumer for
// payment facts from the payment context.
package library

import (
	"fmt"
	"time"

	"github.com/arcadia-lab/project-arcadia/internal/eventsourcing"
	"github.com/shopspring/decimal"
)

// EntryID derives the deterministic aggregate id of one (user, game) pair.
// The event store's uniqueness on (stream, version) then doubles as the
// "owns at most once" guard under concurrent purchases. Ids are uuids, so
// ":" cannot occur inside either part and distinct pairs never collide.
func EntryID(userID, gameID string) string {
	return fmt.Sprintf("library:%s:%s", userID, gameID)
}

// Playtime is accumulated play time in minutes. Never negative.
type Playtime struct {
	minutes int
}

func NewPlaytime(minutes int) (Playtime, error) {
	if minutes < 0 {
		return Playtime{}, eventsourcing.Validation("Playtime.GreaterThanOrEqualToZero",
			"playtime must not be negative")
	}
	return Playtime{minutes: minutes}, nil
}

func (p Playtime) Minutes() int { return p.minutes }

func (p Playtime) Add(minutes int) Playtime {
	return Playtime{minutes: p.minutes + minutes}
}

// Entry is one user's ownership of one game. Removal is a deactivation
// event; a removed entry can be repurchased, which reactivates it while the
// accumulated playtime survives.
type Entry struct {
	*eventsourcing.AggregateBase

	userID        string
	gameID        string
	gameName      string
	pricePaid     decimal.Decimal
	paymentID     string
	paymentMethod string
	playtime      Playtime
	purchasedAt   time.Time
	updatedAt     time.Time
	isActive      bool

	initialized bool
}

func newEmptyEntry(id string) *Entry {
	return &Entry{AggregateBase: eventsourcing.NewAggregateBase(id, StreamType)}
}

// NewEntry records the first purchase of a game by a user.
func NewEntry(userID, gameID, gameName string, pricePaid decimal.Decimal, paymentID, paymentMethod string) (*Entry, error) {
	var c eventsourcing.Collector
	if userID == "" {
		c.Add("Library.UserRequired", "user id is required")
	}
	if gameID == "" {
		c.Add("Library.GameRequired", "game id is required")
	}
	if paymentID == "" {
		c.Add("Library.PaymentRequired", "payment id is required")
	}
	if pricePaid.IsNegative() {
		c.Add("Library.PriceNotNegative", "price paid must not be negative")
	}
	if err := c.Err(); err != nil {
		return nil, err
	}

	e := newEmptyEntry(EntryID(userID, gameID))
	err := e.record(&GamePurchased{
		EntryID:       e.EntityID(),
		UserID:        userID,
		GameID:        gameID,
		GameName:      gameName,
		PricePaid:     pricePaid.String(),
		PaymentID:     paymentID,
		PaymentMethod: paymentMethod,
	})
	if err != nil {
		return nil, err
	}
	return e, nil
}

// Load rebuilds an Entry from its ordered event history.
func Load(history []eventsourcing.Envelope) (*Entry, error) {
	if len(history) == 0 {
		return nil, fmt.Errorf("%w: empty library history", eventsourcing.ErrCorruptStream)
	}
	e := newEmptyEntry(history[0].StreamID)
	if err := eventsourcing.Hydrate(e, e.AggregateBase, history); err != nil {
		return nil, err
	}
	return e, nil
}

// Repurchase reactivates a previously removed entry with a fresh payment.
func (e *Entry) Repurchase(pricePaid decimal.Decimal, paymentID, paymentMethod string) error {
	if e.isActive {
		return eventsourcing.Validation("Library.AlreadyOwned", "user already owns this game")
	}
	if paymentID == "" {
		return eventsourcing.Validation("Library.PaymentRequired", "payment id is required")
	}
	return e.record(&GamePurchased{
		EntryID:       e.EntityID(),
		UserID:        e.userID,
		GameID:        e.gameID,
		GameName:      e.gameName,
		PricePaid:     pricePaid.String(),
		PaymentID:     paymentID,
		PaymentMethod: paymentMethod,
	})
}

// IncreasePlaytime adds played minutes to the entry.
func (e *Entry) IncreasePlaytime(minutes int) error {
	if !e.isActive {
		return eventsourcing.Validation("Library.NotOwned", "game is not in the user's library")
	}
	if minutes <= 0 {
		return eventsourcing.Validation("Playtime.GreaterThanZero", "minutes must be greater than zero")
	}
	return e.record(&PlaytimeIncreased{EntryID: e.EntityID(), Minutes: minutes})
}

// Remove takes the game out of the user's library. Active -> inactive only.
func (e *Entry) Remove(reason string) error {
	if !e.isActive {
		return eventsourcing.Validation("Library.AlreadyRemoved", "entry is already removed")
	}
	return e.record(&EntryRemoved{EntryID: e.EntityID(), Reason: reason})
}

func (e *Entry) record(ev LibraryEvent) error {
	return e.Apply(e.Record(ev))
}

func (e *Entry) Apply(env eventsourcing.Envelope) error {
	if !e.initialized {
		if _, ok := env.Event.(*GamePurchased); !ok {
			return fmt.Errorf("%w: stream %s does not begin with library.game_purchased",
				eventsourcing.ErrCorruptStream, env.StreamID)
		}
	}

	switch ev := env.Event.(type) {
	case *GamePurchased:
		price, err := decimal.NewFromString(ev.PricePaid)
		if err != nil {
			return fmt.Errorf("%w: bad price %q", eventsourcing.ErrCorruptStream, ev.PricePaid)
		}
		e.userID = ev.UserID
		e.gameID = ev.GameID
		e.gameName = ev.GameName
		e.pricePaid = price
		e.paymentID = ev.PaymentID
		e.paymentMethod = ev.PaymentMethod
		e.isActive = true
		if !e.initialized {
			e.purchasedAt = env.OccurredAt
			e.initialized = true
		}

	case *PlaytimeIncreased:
		e.playtime = e.playtime.Add(ev.Minutes)

	case *EntryRemoved:
		e.isActive = false

	default:
		return fmt.Errorf("%w: unexpected event %T in library stream", eventsourcing.ErrCorruptStream, env.Event)
	}

	e.updatedAt = env.OccurredAt
	return nil
}

func (e *Entry) UserID() string             { return e.userID }
func (e *Entry) GameID() string             { return e.gameID }
func (e *Entry) GameName() string           { return e.gameName }
func (e *Entry) PricePaid() decimal.Decimal { return e.pricePaid }
func (e *Entry) PaymentID() string          { return e.paymentID }
func (e *Entry) Playtime() Playtime         { return e.playtime }
func (e *Entry) IsActive() bool             { return e.isActive }
func (e *Entry) PurchasedAt() time.Time     { return e.purchasedAt }
func (e *Entry) UpdatedAt() time.Time       { return e.updatedAt }
