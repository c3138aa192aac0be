package viewstate

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisStore is a Redis-backed view-state store for multi-instance
// deployments where several API servers share one state namespace.
type RedisStore struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// RedisConfig configures a RedisStore.
type RedisConfig struct {
	Addr     string        // host:port, e.g. "localhost:6379"
	Password string        // optional
	DB       int           // redis database number
	Prefix   string        // key prefix, defaults to "graphport:view:"
	TTL      time.Duration // 0 means state never expires
}

// NewRedisStore connects to Redis and verifies the connection.
func NewRedisStore(ctx context.Context, cfg RedisConfig) (*RedisStore, error) {
	if cfg.Prefix == "" {
		cfg.Prefix = "graphport:view:"
	}
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("connect redis: %w", err)
	}
	return &RedisStore{client: client, prefix: cfg.Prefix, ttl: cfg.TTL}, nil
}

func (s *RedisStore) key(viewID string) string { return s.prefix + viewID }

func (s *RedisStore) Load(ctx context.Context, viewID string) (*State, error) {
	data, err := s.client.Get(ctx, s.key(viewID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load view state: %w", err)
	}

	var st State
	if err := json.Unmarshal(data, &st); err != nil {
		// Corrupt state is treated as absent.
		return nil, nil
	}
	return &st, nil
}

func (s *RedisStore) Save(ctx context.Context, viewID string, state *State) error {
	state.UpdatedAt = time.Now()
	data, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("marshal view state: %w", err)
	}
	if err := s.client.Set(ctx, s.key(viewID), data, s.ttl).Err(); err != nil {
		return fmt.Errorf("save view state: %w", err)
	}
	return nil
}

func (s *RedisStore) Delete(ctx context.Context, viewID string) error {
	if err := s.client.Del(ctx, s.key(viewID)).Err(); err != nil {
		return fmt.Errorf("delete view state: %w", err)
	}
	return nil
}

func (s *RedisStore) Close() error { return s.client.Close() }

var _ Store = (*RedisStore)(nil)
