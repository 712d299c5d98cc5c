package game

import "github.com/arcadia-lab/project-arcadia/internal/eventsourcing"

// StreamType is the event family of the Game aggregate.
const StreamType = "game"

// GameEvent is the closed set of facts the Game aggregate can emit. The
// unexported marker keeps the set sealed to this package, and apply switches
// over every variant; an event without an apply case fails loudly at replay.
//
// Payload convention for this family: the created event carries the full
// primitive snapshot of the aggregate, every later event carries only the
// fields it changed. A valid stream therefore always begins with
// game.created; replaying update events against an empty aggregate is a
// corrupt stream, not a recoverable state.
type GameEvent interface {
	eventsourcing.Event
	isGameEvent()
}

type GameCreated struct {
	GameID                  string   `json:"game_id"`
	Name                    string   `json:"name"`
	Price                   string   `json:"price"`
	AgeRating               string   `json:"age_rating"`
	Description             string   `json:"description,omitempty"`
	Website                 string   `json:"website,omitempty"`
	Genres                  []string `json:"genres,omitempty"`
	Platforms               []string `json:"platforms"`
	Mode                    string   `json:"mode"`
	Distribution            string   `json:"distribution"`
	DiskSizeGB              float64  `json:"disk_size_gb,omitempty"`
	MinimumRequirements     string   `json:"minimum_requirements,omitempty"`
	RecommendedRequirements string   `json:"recommended_requirements,omitempty"`
	Developer               string   `json:"developer,omitempty"`
	Publisher               string   `json:"publisher,omitempty"`
}

type GamePriceChanged struct {
	GameID string `json:"game_id"`
	Price  string `json:"price"`
}

type GameStatusChanged struct {
	GameID string `json:"game_id"`
	Status string `json:"status"`
}

type GameRatingChanged struct {
	GameID string  `json:"game_id"`
	Rating float64 `json:"rating"`
}

type GameDetailsChanged struct {
	GameID       string   `json:"game_id"`
	Description  string   `json:"description,omitempty"`
	Website      string   `json:"website,omitempty"`
	Genres       []string `json:"genres,omitempty"`
	Platforms    []string `json:"platforms"`
	Mode         string   `json:"mode"`
	Distribution string   `json:"distribution"`
}

type GameActivated struct {
	GameID string `json:"game_id"`
}

type GameDeactivated struct {
	GameID string `json:"game_id"`
}

func (e *GameCreated) AggregateID() string        { return e.GameID }
func (e *GamePriceChanged) AggregateID() string   { return e.GameID }
func (e *GameStatusChanged) AggregateID() string  { return e.GameID }
func (e *GameRatingChanged) AggregateID() string  { return e.GameID }
func (e *GameDetailsChanged) AggregateID() string { return e.GameID }
func (e *GameActivated) AggregateID() string      { return e.GameID }
func (e *GameDeactivated) AggregateID() string    { return e.GameID }

func (*GameCreated) EventType() string        { return "game.created" }
func (*GamePriceChanged) EventType() string   { return "game.price_changed" }
func (*GameStatusChanged) EventType() string  { return "game.status_changed" }
func (*GameRatingChanged) EventType() string  { return "game.rating_changed" }
func (*GameDetailsChanged) EventType() string { return "game.details_changed" }
func (*GameActivated) EventType() string      { return "game.activated" }
func (*GameDeactivated) EventType() string    { return "game.deactivated" }

func (*GameCreated) isGameEvent()        {}
func (*GamePriceChanged) isGameEvent()   {}
func (*GameStatusChanged) isGameEvent()  {}
func (*GameRatingChanged) isGameEvent()  {}
func (*GameDetailsChanged) isGameEvent() {}
func (*GameActivated) isGameEvent()      {}
func (*GameDeactivated) isGameEvent()    {}

// RegisterEvents adds this event family to a codec so stored payloads can be
// decoded back into their concrete types.
func RegisterEvents(codec *eventsourcing.Codec) {
	codec.Register(func() eventsourcing.Event { return &GameCreated{} })
	codec.Register(func() eventsourcing.Event { return &GamePriceChanged{} })
	codec.Register(func() eventsourcing.Event { return &GameStatusChanged{} })
	codec.Register(func() eventsourcing.Event { return &GameRatingChanged{} })
	codec.Register(func() eventsourcing.Event { return &GameDetailsChanged{} })
	codec.Register(func() eventsourcing.Event { return &GameActivated{} })
	codec.Register(func() eventsourcing.Event { return &GameDeactivated{} })
}
