package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/spacetraveling/blog/internal/domain"
	"github.com/spacetraveling/blog/internal/infra/metrics"
	"github.com/spacetraveling/blog/internal/infra/queue"
)

// Generator rebuilds the static snapshot.
type Generator interface {
	GenerateAll(ctx context.Context) error
}

// EventConsumer delivers revalidation events to a handler.
type EventConsumer interface {
	Start(ctx context.Context, handler queue.MessageHandler)
	Close() error
}

// RevalidationService turns CMS publish webhooks into snapshot rebuilds through the event queue.
type RevalidationService struct {
	producer  domain.EventProducer
	consumer  EventConsumer
	generator Generator
	now       func() time.Time
}

func NewRevalidationService(producer domain.EventProducer, consumer EventConsumer, generator Generator) *RevalidationService {
	return &RevalidationService{
		producer:  producer,
		consumer:  consumer,
		generator: generator,
		now:       time.Now,
	}
}

// Request enqueues a revalidation and returns the event id.
func (s *RevalidationService) Request(ctx context.Context, eventType string, documentIDs []string) (string, error) {
	event := &domain.RevalidationEvent{
		ID:          uuid.NewString(),
		Type:        eventType,
		DocumentIDs: documentIDs,
		ReceivedAt:  s.now().UTC(),
	}
	if err := s.producer.Publish(ctx, event); err != nil {
		return "", fmt.Errorf("failed to enqueue revalidation: %w", err)
	}
	slog.Info("Revalidation requested", "event_id", event.ID, "type", eventType, "documents", len(documentIDs))
	return event.ID, nil
}

func (s *RevalidationService) Start(ctx context.Context) {
	slog.Info("Starting revalidation service (Kafka Consumer)")
	go s.consumer.Start(ctx, s.handleEvent)
}

func (s *RevalidationService) handleEvent(ctx context.Context, event *domain.RevalidationEvent) error {
	start := time.Now()
	slog.Info("Consuming revalidation event", "event_id", event.ID, "type", event.Type, "documents", len(event.DocumentIDs))

	err := s.generator.GenerateAll(ctx)
	metrics.RevalidationDuration.Observe(time.Since(start).Seconds())

	if err != nil {
		slog.Error("Revalidation failed", "event_id", event.ID, "error", err)
		metrics.RevalidationErrors.Inc()
		return err
	}

	metrics.RevalidationSuccess.Inc()
	return nil
}

func (s *RevalidationService) Stop() error {
	return s.consumer.Close()
}
