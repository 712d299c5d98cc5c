package library

import (
	"encoding/json"
	"fmt"

	"github.com/arcadia-lab/project-arcadia/internal/eventsourcing"
	"github.com/arcadia-lab/project-arcadia/internal/messaging"
	"github.com/arcadia-lab/project-arcadia/internal/outbox"
	"github.com/google/uuid"
)

type PurchaseCompletedFact struct {
	EntryID   string `json:"entry_id"`
	UserID    string `json:"user_id"`
	GameID    string `json:"game_id"`
	PricePaid string `json:"price_paid"`
	PaymentID string `json:"payment_id"`
}

type EntryRemovedFact struct {
	EntryID string `json:"entry_id"`
	UserID  string `json:"user_id"`
	GameID  string `json:"game_id"`
	Reason  string `json:"reason,omitempty"`
}

// integrationBuilders maps domain-event types to the facts other contexts
// see. Playtime changes stay internal.
var integrationBuilders = map[string]func(*Entry, eventsourcing.Envelope) (string, any){
	"library.game_purchased": func(e *Entry, env eventsourcing.Envelope) (string, any) {
		ev := env.Event.(*GamePurchased)
		return "library.purchase-completed", PurchaseCompletedFact{
			EntryID:   ev.EntryID,
			UserID:    ev.UserID,
			GameID:    ev.GameID,
			PricePaid: ev.PricePaid,
			PaymentID: ev.PaymentID,
		}
	},
	"library.entry_removed": func(e *Entry, env eventsourcing.Envelope) (string, any) {
		ev := env.Event.(*EntryRemoved)
		return "library.entry-removed", EntryRemovedFact{
			EntryID: ev.EntryID,
			UserID:  e.UserID(),
			GameID:  e.GameID(),
			Reason:  ev.Reason,
		}
	},
}

// integrationMessages derives one outbox message per mapped domain event.
// The post-mutation entry supplies the identity fields removal events do
// not carry themselves.
func integrationMessages(entry *Entry, events []eventsourcing.Envelope, actingUserID, correlationID string) ([]outbox.Message, error) {
	var msgs []outbox.Message
	for _, env := range events {
		build, ok := integrationBuilders[env.EventType()]
		if !ok {
			continue
		}
		name, fact := build(entry, env)
		payload, err := json.Marshal(fact)
		if err != nil {
			return nil, fmt.Errorf("marshal integration event %s: %w", name, err)
		}
		msgs = append(msgs, outbox.Message{
			ID:        uuid.New(),
			Topic:     messaging.TopicLibrary,
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
