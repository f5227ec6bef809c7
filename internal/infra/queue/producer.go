package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/segmentio/kafka-go"

	"github.com/spacetraveling/blog/internal/domain"
)

// messageWriter is the subset of *kafka.Writer used by the producer.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type KafkaProducer struct {
	writer messageWriter
	topic  string
}

func NewKafkaProducer(brokers []string, topic string) *KafkaProducer {
	w := &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.Hash{},
		AllowAutoTopicCreation: true,
	}
	slog.Info("Kafka Producer initialized", "brokers", brokers, "topic", topic)
	return &KafkaProducer{writer: w, topic: topic}
}

// Publish writes event keyed by its id so redeliveries of one webhook land on the same partition.
func (p *KafkaProducer) Publish(ctx context.Context, event *domain.RevalidationEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal revalidation event: %w", err)
	}

	msg := kafka.Message{
		Key:   []byte(event.ID),
		Value: payload,
	}

	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		slog.Error("Failed to write to kafka", "topic", p.topic, "error", err)
		return fmt.Errorf("failed to publish revalidation event: %w", err)
	}

	slog.Debug("Published revalidation event", "id", event.ID, "type", event.Type, "topic", p.topic)
	return nil
}

func (p *KafkaProducer) Close() error {
	return p.writer.Close()
}
