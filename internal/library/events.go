package library

import "github.com/arcadia-lab/project-arcadia/internal/eventsourcing"

// StreamType is the event family of the user game-library aggregate.
const StreamType = "library"

// LibraryEvent is the closed set of facts a library entry can emit. Same
// payload convention as the game family: the purchase event carries the
// full snapshot, later events only what changed, and a valid stream begins
// with library.game_purchased.
type LibraryEvent interface {
	eventsourcing.Event
	isLibraryEvent()
}

type GamePurchased struct {
	EntryID       string `json:"entry_id"`
	UserID        string `json:"user_id"`
	GameID        string `json:"game_id"`
	GameName      string `json:"game_name"`
	PricePaid     string `json:"price_paid"`
	PaymentID     string `json:"payment_id"`
	PaymentMethod string `json:"payment_method,omitempty"`
}

type PlaytimeIncreased struct {
	EntryID string `json:"entry_id"`
	Minutes int    `json:"minutes"`
}

type EntryRemoved struct {
	EntryID string `json:"entry_id"`
	Reason  string `json:"reason,omitempty"`
}

func (e *GamePurchased) AggregateID() string     { return e.EntryID }
func (e *PlaytimeIncreased) AggregateID() string { return e.EntryID }
func (e *EntryRemoved) AggregateID() string      { return e.EntryID }

func (*GamePurchased) EventType() string     { return "library.game_purchased" }
func (*PlaytimeIncreased) EventType() string { return "library.playtime_increased" }
func (*EntryRemoved) EventType() string      { return "library.entry_removed" }

func (*GamePurchased) isLibraryEvent()     {}
func (*PlaytimeIncreased) isLibraryEvent() {}
func (*EntryRemoved) isLibraryEvent()      {}

// RegisterEvents adds this event family to a codec.
func RegisterEvents(codec *eventsourcing.Codec) {
	codec.Register(func() eventsourcing.Event { return &GamePurchased{} })
	codec.Register(func() eventsourcing.Event { return &PlaytimeIncreased{} })
	codec.Register(func() eventsourcing.Event { return &EntryRemoved{} })
}
