package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	json "github.com/goccy/go-json"
	"github.com/redis/go-redis/v9"
)

// RedisStore keeps session values in Redis with a sliding TTL.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisStore wraps an existing client. ttl <= 0 uses DefaultTTL.
func NewRedisStore(client *redis.Client, ttl time.Duration) *RedisStore {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &RedisStore{client: client, ttl: ttl}
}

func (s *RedisStore) Load(ctx context.Context, sessionID, key string, dst any) (bool, error) {
	if !ValidID(sessionID) {
		return false, ErrInvalidSessionID
	}
	raw, err := s.client.Get(ctx, storageKey(sessionID, key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("session: get %s: %w", key, err)
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return false, fmt.Errorf("session: decode %s: %w", key, err)
	}
	return true, nil
}

func (s *RedisStore) Save(ctx context.Context, sessionID, key string, value any) error {
	if !ValidID(sessionID) {
		return ErrInvalidSessionID
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("session: encode %s: %w", key, err)
	}
	if err := s.client.Set(ctx, storageKey(sessionID, key), raw, s.ttl).Err(); err != nil {
		return fmt.Errorf("session: set %s: %w", key, err)
	}
	return nil
}

func (s *RedisStore) Delete(ctx context.Context, sessionID, key string) error {
	if !ValidID(sessionID) {
		return ErrInvalidSessionID
	}
	if err := s.client.Del(ctx, storageKey(sessionID, key)).Err(); err != nil {
		return fmt.Errorf("session: del %s: %w", key, err)
	}
	return nil
}

func (s *RedisStore) Claim(ctx context.Context, sessionID, key string, ttl time.Duration) (bool, error) {
	if !ValidID(sessionID) {
		return false, ErrInvalidSessionID
	}
	ok, err := s.client.SetNX(ctx, storageKey(sessionID, key), "1", ttl).Result()
	if err != nil {
		return false, fmt.Errorf("session: claim %s: %w", key, err)
	}
	return ok, nil
}
