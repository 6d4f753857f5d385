// Package kafka implements an eventstream publisher on Apache Kafka.
package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/segmentio/kafka-go"

	"github.com/papercomputeco/liner/pkg/eventstream"
)

// DefaultTopic is the topic used when the config names none.
const DefaultTopic = "liner.memories"

// Config holds the Kafka publisher configuration.
type Config struct {
	// Brokers is the list of bootstrap broker addresses. Required.
	Brokers []string

	// Topic defaults to DefaultTopic when empty.
	Topic string
}

// Publisher writes events to a Kafka topic, keyed by conversation id so one
// conversation's events land on one partition in order.
type Publisher struct {
	writer *kafka.Writer
	log    *slog.Logger
}

// NewPublisher creates a Kafka publisher. The writer dials lazily, so
// construction succeeds even while the brokers are still coming up.
func NewPublisher(c Config, logger *slog.Logger) (*Publisher, error) {
	if len(c.Brokers) == 0 {
		return nil, errors.New("kafka publisher requires at least one broker")
	}

	topic := c.Topic
	if topic == "" {
		topic = DefaultTopic
	}

	writer := &kafka.Writer{
		Addr:     kafka.TCP(c.Brokers...),
		Topic:    topic,
		Balancer: &kafka.LeastBytes{},
	}

	return &Publisher{
		writer: writer,
		log:    logger,
	}, nil
}

// Topic returns the topic this publisher writes to.
func (p *Publisher) Topic() string {
	return p.writer.Topic
}

// Publish encodes the event as JSON and writes it to the topic.
func (p *Publisher) Publish(ctx context.Context, event eventstream.MemoryPersistedEvent) error {
	value, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encoding event %s: %w", event.EventID, err)
	}

	msg := kafka.Message{
		Key:   []byte(event.ConversationID),
		Value: value,
		Time:  event.OccurredAt,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(eventstream.EventTypeMemoryPersisted)},
			{Key: "schema_version", Value: fmt.Appendf(nil, "%d", event.SchemaVersion)},
		},
	}

	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("publishing event %s: %w", event.EventID, err)
	}

	p.log.Debug("published event",
		"event_id", event.EventID,
		"conversation_id", event.ConversationID,
		"topic", p.writer.Topic)

	return nil
}

// Close flushes and closes the underlying writer.
func (p *Publisher) Close() error {
	return p.writer.Close()
}

var _ eventstream.Publisher = (*Publisher)(nil)
