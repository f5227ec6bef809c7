package app

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/segmentio/kafka-go"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

// ReadinessWaiter blocks start-up until the snapshot store, the event queue and the preview store answer.
type ReadinessWaiter struct {
	mongoClient *mongo.Client
	redisClient *redis.Client
	brokers     []string
	topic       string
	interval    time.Duration
}

func NewReadinessWaiter(mongoClient *mongo.Client, redisClient *redis.Client, brokers []string, topic string) *ReadinessWaiter {
	return &ReadinessWaiter{
		mongoClient: mongoClient,
		redisClient: redisClient,
		brokers:     brokers,
		topic:       topic,
		interval:    2 * time.Second,
	}
}

func (w *ReadinessWaiter) WaitForDependencies(ctx context.Context) error {
	if err := w.waitFor(ctx, "MongoDB", func(ctx context.Context) error {
		return w.mongoClient.Ping(ctx, readpref.Primary())
	}); err != nil {
		return err
	}
	if err := w.waitFor(ctx, "Redis", func(ctx context.Context) error {
		return w.redisClient.Ping(ctx).Err()
	}); err != nil {
		return err
	}
	return w.waitFor(ctx, "Kafka", w.checkKafka)
}

// waitFor polls check until it succeeds. There is no deadline: slow
// dependencies in a dev environment should delay start-up, not crash it.
func (w *ReadinessWaiter) waitFor(ctx context.Context, name string, check func(context.Context) error) error {
	slog.Info("Waiting for dependency", "name", name)
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := check(ctx); err != nil {
				slog.Warn("Dependency not ready yet", "name", name, "error", err)
				continue
			}
			slog.Info("Dependency is ready", "name", name)
			return nil
		}
	}
}

func (w *ReadinessWaiter) checkKafka(ctx context.Context) error {
	if len(w.brokers) == 0 {
		return fmt.Errorf("no brokers configured")
	}

	for _, broker := range w.brokers {
		conn, err := net.DialTimeout("tcp", broker, 2*time.Second)
		if err != nil {
			return fmt.Errorf("failed to connect to broker %s: %w", broker, err)
		}
		_ = conn.Close()
	}

	conn, err := kafka.DialContext(ctx, "tcp", w.brokers[0])
	if err != nil {
		return fmt.Errorf("failed to dial kafka: %w", err)
	}
	defer func() {
		_ = conn.Close()
	}()

	partitions, err := conn.ReadPartitions(w.topic)
	if err != nil {
		return fmt.Errorf("failed to read partitions for topic %s: %w", w.topic, err)
	}
	if len(partitions) == 0 {
		return fmt.Errorf("topic %s has no partitions", w.topic)
	}
	return nil
}
