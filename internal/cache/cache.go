// Package cache keeps finished combined recommendations so they can be
// shared by id.
package cache

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/edgard/weatherscent/internal/config"
)

// ErrNotFound is returned for unknown or expired result ids.
var ErrNotFound = errors.New("result not found")

// ResultStore stores combined recommendation results for a limited time.
type ResultStore[T any] interface {
	Save(ctx context.Context, id string, result T) error
	Get(ctx context.Context, id string) (T, error)
	// Prune drops expired entries and reports how many were removed.
	Prune(ctx context.Context) (int, error)
	Close() error
}

// New selects Redis when a URL is configured and process memory otherwise.
func New[T any](ctx context.Context, cfg config.CacheConfig, logger *slog.Logger) (ResultStore[T], error) {
	if cfg.RedisURL == "" {
		logger.InfoContext(ctx, "No Redis URL configured, keeping shared results in memory", "ttl", cfg.TTL)
		return NewMemoryStore[T](cfg.TTL), nil
	}
	store, err := NewRedisStore[T](ctx, cfg.RedisURL, cfg.TTL, logger)
	if err != nil {
		return nil, err
	}
	return store, nil
}

type entry[T any] struct {
	value   T
	expires time.Time
}
