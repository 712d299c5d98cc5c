package library

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/arcadia-lab/project-arcadia/internal/eventsourcing"
	"github.com/arcadia-lab/project-arcadia/internal/eventstore"
	"github.com/arcadia-lab/project-arcadia/internal/messaging"
)

const consumerGroup = "arcadia-library"

// PaymentStatusFact is the fact the payment context publishes when a
// payment changes state after authorization.
type PaymentStatusFact struct {
	PaymentID string `json:"payment_id"`
	EntryID   string `json:"entry_id"`
	Status    string `json:"status"`
	Reason    string `json:"reason,omitempty"`
}

const paymentStatusRefunded = "refunded"

// PaymentConsumer reacts to payment facts: a refund removes the refunded
// entry from the library. Delivery is at-least-once, so every outcome that
// means "already done" acks the message instead of failing it.
type PaymentConsumer struct {
	service *Service
	logger  *slog.Logger
}

func NewPaymentConsumer(service *Service, logger *slog.Logger) *PaymentConsumer {
	return &PaymentConsumer{service: service, logger: logger.With("component", "[PaymentConsumer]")}
}

// Run consumes payment facts until ctx is cancelled.
func (c *PaymentConsumer) Run(ctx context.Context, sub messaging.Subscriber) error {
	return sub.Consume(ctx, messaging.TopicPayments, consumerGroup, c.handle)
}

func (c *PaymentConsumer) handle(ctx context.Context, msg messaging.Message) error {
	var fact PaymentStatusFact
	if err := json.Unmarshal(msg.Payload, &fact); err != nil {
		// A payload that never parses would block the partition forever.
		c.logger.ErrorContext(ctx, "dropping unparseable payment fact", "error", err)
		return nil
	}
	if fact.Status != paymentStatusRefunded {
		return nil
	}
	if fact.EntryID == "" {
		c.logger.WarnContext(ctx, "refund fact without entry id", "payment_id", fact.PaymentID)
		return nil
	}

	err := c.service.RemoveByEntryID(ctx, fact.EntryID, fmt.Sprintf("payment %s refunded", fact.PaymentID))
	switch {
	case err == nil:
		c.logger.InfoContext(ctx, "entry removed after refund",
			"entry_id", fact.EntryID, "payment_id", fact.PaymentID)
		return nil
	case errors.Is(err, eventstore.ErrStreamNotFound):
		return nil
	default:
		if v, ok := eventsourcing.AsValidation(err); ok && v.Has("Library.AlreadyRemoved") {
			return nil
		}
		return fmt.Errorf("remove entry %s: %w", fact.EntryID, err)
	}
}
