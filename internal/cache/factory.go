// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package cache

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// Config selects and tunes a backend.
type Config struct {
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	TTL           time.Duration
}

// New returns a Redis cache when RedisAddr is set, a no-op cache when TTL is
// not positive, and a memory cache otherwise. Redis failures are returned;
// callers decide whether to fall back.
func New(ctx context.Context, cfg Config, logger zerolog.Logger) (Cache, error) {
	switch {
	case cfg.TTL <= 0:
		return NewNoOpCache(), nil
	case cfg.RedisAddr != "":
		return NewRedisCache(ctx, RedisConfig{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		}, logger)
	default:
		interval := cfg.TTL
		if interval > time.Minute {
			interval = time.Minute
		}
		return NewMemoryCache(interval), nil
	}
}

// Close releases backend resources when the backend has any.
func Close(c Cache) error {
	if closer, ok := c.(interface{ Close() error }); ok {
		return closer.Close()
	}
	return nil
}
