// Package messaging defines the message-transport contracts the service
// publishes integration events through and consumes facts from other
// bounded contexts with. The transport is at-least-once; consumers must be
// idempotent by aggregate id.
package messaging

import "context"

// Topic names, one per event family.
const (
	TopicGames   = "arcadia.games"
	TopicLibrary = "arcadia.library"

	// TopicPayments carries payment facts published by the payment context.
	TopicPayments = "payments.status-changed"
)

// Correlation header keys attached to every published integration event.
const (
	HeaderCorrelationID = "correlation-id"
	HeaderActingUserID  = "acting-user-id"
	HeaderAggregateID   = "aggregate-id"
)

// Message is one transport message.
type Message struct {
	Topic   string
	Key     string
	Payload []byte
	Headers map[string]string
}

// Publisher publishes a serialized integration event to a named topic.
// Key selects the partition; messages with the same key keep their order.
type Publisher interface {
	Publish(ctx context.Context, msg Message) error
}

// Handler processes one delivered message. Returning an error leaves the
// message uncommitted; the transport redelivers it and never advances to a
// later message first.
type Handler func(ctx context.Context, msg Message) error

// Subscriber delivers messages from a topic to a handler within a consumer
// group.
type Subscriber interface {
	Consume(ctx context.Context, topic, groupID string, handler Handler) error
}
