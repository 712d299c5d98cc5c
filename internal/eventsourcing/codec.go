package eventsourcing

import (
	"encoding/json"
	"errors"
	"fmt"
)

// ErrCorruptStream marks an event stream whose history cannot be replayed,
// e.g. a stream that does not begin with its aggregate's created event.
var ErrCorruptStream = errors.New("corrupt event stream")

// Codec maps stored event-type names to factories for their concrete Go
// types so persisted payloads can be decoded back into domain events.
//
// A Codec is an explicit, passed-in object: each bounded context registers
// its event family on the instance it is given. There is no process-wide
// registry.
type Codec struct {
	factories map[string]func() Event
}

func NewCodec() *Codec {
	return &Codec{factories: make(map[string]func() Event)}
}

// Register adds an event factory keyed by the event's own type name.
// The factory must return a fresh, addressable instance on every call.
// Registering the same name twice is a wiring bug and panics at startup.
func (c *Codec) Register(fn func() Event) {
	name := fn().EventType()
	if _, exists := c.factories[name]; exists {
		panic(fmt.Sprintf("event type already registered: %s", name))
	}
	c.factories[name] = fn
}

// Marshal serializes a domain event payload as JSON.
func (c *Codec) Marshal(event Event) ([]byte, error) {
	payload, err := json.Marshal(event)
	if err != nil {
		return nil, fmt.Errorf("marshal event %s: %w", event.EventType(), err)
	}
	return payload, nil
}

// Unmarshal decodes a stored payload into the registered concrete type.
func (c *Codec) Unmarshal(eventType string, payload []byte) (Event, error) {
	fn, ok := c.factories[eventType]
	if !ok {
		return nil, fmt.Errorf("event type not registered: %s", eventType)
	}
	event := fn()
	if err := json.Unmarshal(payload, event); err != nil {
		return nil, fmt.Errorf("unmarshal event %s: %w", eventType, err)
	}
	return event, nil
}
