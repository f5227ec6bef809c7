package preview

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/spacetraveling/blog/internal/domain"
)

const keyPrefix = "preview:"

// RedisStore keeps the CMS preview ref of each browser session.
type RedisStore struct {
	client *redis.Client
}

var _ domain.PreviewStore = (*RedisStore)(nil)

func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func key(sessionID string) string {
	return keyPrefix + sessionID
}

func (s *RedisStore) Save(ctx context.Context, sessionID, ref string, ttl time.Duration) error {
	if err := s.client.Set(ctx, key(sessionID), ref, ttl).Err(); err != nil {
		return fmt.Errorf("failed to save preview session: %w", err)
	}
	return nil
}

func (s *RedisStore) Get(ctx context.Context, sessionID string) (string, error) {
	ref, err := s.client.Get(ctx, key(sessionID)).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to read preview session: %w", err)
	}
	return ref, nil
}

func (s *RedisStore) Delete(ctx context.Context, sessionID string) error {
	if err := s.client.Del(ctx, key(sessionID)).Err(); err != nil {
		return fmt.Errorf("failed to delete preview session: %w", err)
	}
	return nil
}
