package chat

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

const dialogKeyPrefix = "dialog:"

// RedisStateStore keeps conversation state in Redis so dialog state survives
// a bot process restart.
type RedisStateStore struct {
	client *redis.Client
}

// NewRedisStateStore wraps an existing client.
func NewRedisStateStore(client *redis.Client) *RedisStateStore {
	return &RedisStateStore{client: client}
}

func (s *RedisStateStore) Get(ctx context.Context, conversationID string, into any) (bool, error) {
	raw, err := s.client.Get(ctx, dialogKeyPrefix+conversationID).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("redis get state for %s: %w", conversationID, err)
	}
	if err := json.Unmarshal(raw, into); err != nil {
		return false, fmt.Errorf("decode state for %s: %w", conversationID, err)
	}
	return true, nil
}

func (s *RedisStateStore) Set(ctx context.Context, conversationID string, value any) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode state for %s: %w", conversationID, err)
	}
	if err := s.client.Set(ctx, dialogKeyPrefix+conversationID, raw, 0).Err(); err != nil {
		return fmt.Errorf("redis set state for %s: %w", conversationID, err)
	}
	return nil
}

func (s *RedisStateStore) Clear(ctx context.Context, conversationID string) error {
	if err := s.client.Del(ctx, dialogKeyPrefix+conversationID).Err(); err != nil {
		return fmt.Errorf("redis clear state for %s: %w", conversationID, err)
	}
	return nil
}
