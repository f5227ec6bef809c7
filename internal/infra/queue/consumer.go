package queue

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"

	"github.com/segmentio/kafka-go"

	"github.com/spacetraveling/blog/internal/domain"
	"github.com/spacetraveling/blog/internal/infra/metrics"
)

type KafkaConsumer struct {
	reader      *kafka.Reader
	dlqProducer domain.EventProducer
}

func NewKafkaConsumer(brokers []string, topic string, groupID string, dlqProducer domain.EventProducer) *KafkaConsumer {
	r := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  brokers,
		Topic:    topic,
		GroupID:  groupID,
		MinBytes: 1,
		MaxBytes: 10e6, // 10MB
	})
	slog.Info("Kafka Consumer initialized", "brokers", brokers, "topic", topic, "group", groupID)
	return &KafkaConsumer{
		reader:      r,
		dlqProducer: dlqProducer,
	}
}

type MessageHandler func(ctx context.Context, event *domain.RevalidationEvent) error

// Start reads messages until ctx is cancelled or the reader is closed.
func (c *KafkaConsumer) Start(ctx context.Context, handler MessageHandler) {
	for {
		m, err := c.reader.ReadMessage(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || ctx.Err() != nil {
				slog.Info("Kafka consumer stopped")
			} else {
				slog.Error("Error reading kafka message", "error", err)
			}
			return
		}
		c.process(ctx, m, handler)
	}
}

func (c *KafkaConsumer) process(ctx context.Context, m kafka.Message, handler MessageHandler) {
	var event domain.RevalidationEvent
	if err := json.Unmarshal(m.Value, &event); err != nil {
		slog.Error("Error unmarshaling revalidation event", "offset", m.Offset, "error", err)
		return
	}

	slog.Debug("Received revalidation event", "id", event.ID, "partition", m.Partition)

	if err := handler(ctx, &event); err != nil {
		slog.Error("Error handling revalidation event", "id", event.ID, "error", err)

		if c.dlqProducer != nil {
			slog.Info("Publishing failed event to DLQ", "event_id", event.ID)
			if dlqErr := c.dlqProducer.Publish(ctx, &event); dlqErr != nil {
				slog.Error("Failed to publish to DLQ", "event_id", event.ID, "error", dlqErr)
			} else {
				metrics.DLQMessagesPublished.Inc()
			}
		}
	}
}

func (c *KafkaConsumer) Close() error {
	return c.reader.Close()
}
