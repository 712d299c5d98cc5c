package game

import (
	"encoding/json"
	"fmt"

	"github.com/arcadia-lab/project-arcadia/internal/eventsourcing"
	"github.com/arcadia-lab/project-arcadia/internal/messaging"
	"github.com/arcadia-lab/project-arcadia/internal/outbox"
	"github.com/google/uuid"
)

// Integration facts published to other bounded contexts. Flat primitives
// only; correlation travels in the message headers.

type GameCreatedFact struct {
	GameID       string   `json:"game_id"`
	Name         string   `json:"name"`
	Price        string   `json:"price"`
	AgeRating    string   `json:"age_rating"`
	Platforms    []string `json:"platforms"`
	Mode         string   `json:"mode"`
	Distribution string   `json:"distribution"`
}

type GamePriceChangedFact struct {
	GameID string `json:"game_id"`
	Price  string `json:"price"`
}

type GameStatusChangedFact struct {
	GameID string `json:"game_id"`
	Status string `json:"status"`
}

type GameRemovedFact struct {
	GameID string `json:"game_id"`
}

type GameRestoredFact struct {
	GameID string `json:"game_id"`
}

// integrationBuilders is the static mapping from domain-event type to
// integration-event constructor. Domain events absent from this table are
// internal facts and are simply not published.
var integrationBuilders = map[string]func(eventsourcing.Envelope) (string, any){
	"game.created": func(env eventsourcing.Envelope) (string, any) {
		e := env.Event.(*GameCreated)
		return "catalog.game-created", GameCreatedFact{
			GameID:       e.GameID,
			Name:         e.Name,
			Price:        e.Price,
			AgeRating:    e.AgeRating,
			Platforms:    e.Platforms,
			Mode:         e.Mode,
			Distribution: e.Distribution,
		}
	},
	"game.price_changed": func(env eventsourcing.Envelope) (string, any) {
		e := env.Event.(*GamePriceChanged)
		return "catalog.game-price-changed", GamePriceChangedFact{GameID: e.GameID, Price: e.Price}
	},
	"game.status_changed": func(env eventsourcing.Envelope) (string, any) {
		e := env.Event.(*GameStatusChanged)
		return "catalog.game-status-changed", GameStatusChangedFact{GameID: e.GameID, Status: e.Status}
	},
	"game.deactivated": func(env eventsourcing.Envelope) (string, any) {
		e := env.Event.(*GameDeactivated)
		return "catalog.game-removed", GameRemovedFact{GameID: e.GameID}
	},
	"game.activated": func(env eventsourcing.Envelope) (string, any) {
		e := env.Event.(*GameActivated)
		return "catalog.game-restored", GameRestoredFact{GameID: e.GameID}
	},
}

// integrationMessages derives one outbox message per mapped domain event,
// in event order, stamped with the correlation context of the command.
func integrationMessages(events []eventsourcing.Envelope, actingUserID, correlationID string) ([]outbox.Message, error) {
	var msgs []outbox.Message
	for _, env := range events {
		build, ok := integrationBuilders[env.EventType()]
		if !ok {
			continue
		}
		name, fact := build(env)
		payload, err := json.Marshal(fact)
		if err != nil {
			return nil, fmt.Errorf("marshal integration event %s: %w", name, err)
		}
		msgs = append(msgs, outbox.Message{
			ID:        uuid.New(),
			Topic:     messaging.TopicGames,
			Key:       env.StreamID,
			EventType: name,
			Payload:   payload,
			Headers: map[string]string{
				messaging.HeaderCorrelationID: correlationID,
				messaging.HeaderActingUserID:  actingUserID,
				messaging.HeaderAggregateID:   env.StreamID,
			},
		})
	}
	return msgs, nil
}
