package cache

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/goccy/go-json"
	"github.com/redis/go-redis/v9"
)

const keyPrefix = "weatherscent:result:"

// RedisStore is a ResultStore backed by Redis. Expiry is delegated to the
// key TTL, so Prune has nothing to do.
type RedisStore[T any] struct {
	client *redis.Client
	ttl    time.Duration
	logger *slog.Logger
}

// NewRedisStore connects to rawURL (redis://...) and checks the connection.
func NewRedisStore[T any](ctx context.Context, rawURL string, ttl time.Duration, logger *slog.Logger) (*RedisStore[T], error) {
	opts, err := redis.ParseURL(rawURL)
	if err != nil {
		return nil, fmt.Errorf("invalid redis URL: %w", err)
	}
	client := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	logger.InfoContext(ctx, "Connected to Redis result cache", "addr", opts.Addr, "ttl", ttl)
	return &RedisStore[T]{
		client: client,
		ttl:    ttl,
		logger: logger.With("component", "result_cache"),
	}, nil
}

func (s *RedisStore[T]) Save(ctx context.Context, id string, result T) error {
	data, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("failed to encode result: %w", err)
	}
	if err := s.client.Set(ctx, keyPrefix+id, data, s.ttl).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

func (s *RedisStore[T]) Get(ctx context.Context, id string) (T, error) {
	var result T
	data, err := s.client.Get(ctx, keyPrefix+id).Bytes()
	if errors.Is(err, redis.Nil) {
		return result, ErrNotFound
	}
	if err != nil {
		return result, fmt.Errorf("redis get: %w", err)
	}
	if err := json.Unmarshal(data, &result); err != nil {
		return result, fmt.Errorf("failed to decode result %s: %w", id, err)
	}
	return result, nil
}

func (s *RedisStore[T]) Prune(ctx context.Context) (int, error) {
	s.logger.DebugContext(ctx, "Redis expires results by TTL, nothing to prune")
	return 0, nil
}

func (s *RedisStore[T]) Close() error {
	return s.client.Close()
}
