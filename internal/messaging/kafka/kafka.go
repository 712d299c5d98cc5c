// Package kafka implements the messaging contracts on Kafka.
package kafka

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/arcadia-lab/project-arcadia/internal/messaging"
	kafkaGo "github.com/segmentio/kafka-go"
)

// Broker is a Kafka-backed messaging.Publisher and messaging.Subscriber.
// Writers are created lazily per topic and reused; the hash balancer keeps
// messages with one key (one aggregate) on one partition, preserving their
// relative order.
type Broker struct {
	brokers []string

	mu      sync.Mutex
	writers map[string]*kafkaGo.Writer
}

func NewBroker(brokers []string) *Broker {
	return &Broker{
		brokers: brokers,
		writers: make(map[string]*kafkaGo.Writer),
	}
}

func (b *Broker) Publish(ctx context.Context, msg messaging.Message) error {
	headers := make([]kafkaGo.Header, 0, len(msg.Headers))
	for k, v := range msg.Headers {
		headers = append(headers, kafkaGo.Header{Key: k, Value: []byte(v)})
	}

	err := b.writer(msg.Topic).WriteMessages(ctx, kafkaGo.Message{
		Key:     []byte(msg.Key),
		Value:   msg.Payload,
		Headers: headers,
	})
	if err != nil {
		return fmt.Errorf("publish to %s: %w", msg.Topic, err)
	}
	return nil
}

// Redelivery backoff for a failing handler. Offset commits are cumulative
// per partition, so a consumer must never commit past a message it failed to
// handle: the loop retries the same message in place instead of fetching the
// next one.
const (
	redeliveryBaseDelay = time.Second
	redeliveryMaxDelay  = 30 * time.Second
)

// fetchCommitter is the slice of kafka-go's Reader the consume loop needs.
type fetchCommitter interface {
	FetchMessage(ctx context.Context) (kafkaGo.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafkaGo.Message) error
}

func (b *Broker) Consume(ctx context.Context, topic, groupID string, handler messaging.Handler) error {
	reader := kafkaGo.NewReader(kafkaGo.ReaderConfig{
		Brokers: b.brokers,
		Topic:   topic,
		GroupID: groupID,
	})
	defer reader.Close()

	return consumeLoop(ctx, reader, topic, groupID, handler, time.Sleep)
}

func consumeLoop(ctx context.Context, reader fetchCommitter, topic, groupID string, handler messaging.Handler, sleepFn func(time.Duration)) error {
	for {
		raw, err := reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				slog.Info("[Kafka] Consumer shutting down", "topic", topic, "group", groupID)
				return nil
			}
			return fmt.Errorf("fetch from %s: %w", topic, err)
		}

		msg := messaging.Message{
			Topic:   raw.Topic,
			Key:     string(raw.Key),
			Payload: raw.Value,
			Headers: make(map[string]string, len(raw.Headers)),
		}
		for _, h := range raw.Headers {
			msg.Headers[h.Key] = string(h.Value)
		}

		delay := redeliveryBaseDelay
		for {
			err := handler(ctx, msg)
			if err == nil {
				break
			}
			slog.Error("[Kafka] Handler failed, retrying message",
				"topic", topic, "key", msg.Key, "delay", delay, "error", err)
			sleepFn(delay)
			if ctx.Err() != nil {
				return nil
			}
			if delay *= 2; delay > redeliveryMaxDelay {
				delay = redeliveryMaxDelay
			}
		}

		if err := reader.CommitMessages(ctx, raw); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("commit offset on %s: %w", topic, err)
		}
	}
}

func (b *Broker) writer(topic string) *kafkaGo.Writer {
	b.mu.Lock()
	defer b.mu.Unlock()

	w, ok := b.writers[topic]
	if !ok {
		w = &kafkaGo.Writer{
			Addr:     kafkaGo.TCP(b.brokers...),
			Topic:    topic,
			Balancer: &kafkaGo.Hash{},
		}
		b.writers[topic] = w
	}
	return w
}

// Close closes all topic writers.
func (b *Broker) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	var firstErr error
	for topic, w := range b.writers {
		if err := w.Close(); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("close writer for %s: %w", topic, err)
		}
	}
	return firstErr
}
