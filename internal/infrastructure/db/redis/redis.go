package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/contactbook/contacts-gateway/internal/core/ports"
)

const defaultTimeout = 5 * time.Second

// Config captures the settings for establishing a Redis connection.
type Config struct {
	Addr    string
	DB      int
	Timeout time.Duration
	// ViewTTL is how long a rendered page stays cached.
	ViewTTL time.Duration
}

// Connect initialises a Redis client and validates connectivity with a ping.
// A default timeout is applied when none is provided.
func Connect(ctx context.Context, cfg Config) (*redis.Client, error) {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	client := redis.NewClient(&redis.Options{
		Addr: cfg.Addr,
		DB:   cfg.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	return client, nil
}

// OpenViewCache returns a Redis-backed view cache, or NopCache when no
// address is configured. The returned client is nil in the latter case.
func OpenViewCache(ctx context.Context, cfg Config, log zerolog.Logger) (ports.ViewCache, *redis.Client, error) {
	if cfg.Addr == "" {
		log.Info().Msg("REDIS_ADDR not set, view cache disabled")
		return NopCache{}, nil, nil
	}

	client, err := Connect(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}
	log.Info().Str("addr", cfg.Addr).Int("db", cfg.DB).Dur("ttl", cfg.ViewTTL).Msg("view cache connected")
	return NewViewCache(client, cfg.ViewTTL), client, nil
}
