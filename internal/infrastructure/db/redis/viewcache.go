package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/contactbook/contacts-gateway/internal/api/metrics"
)

const (
	defaultViewTTL = time.Minute
	scanBatch      = 100
)

// ViewCache stores rendered pages in Redis.
// Key format: view:<path>:<viewer>
type ViewCache struct {
	client redis.UniversalClient
	ttl    time.Duration
}

// NewViewCache creates a ViewCache wrapping the given Redis client. A zero
// ttl falls back to five minutes.
func NewViewCache(client redis.UniversalClient, ttl time.Duration) *ViewCache {
	if ttl <= 0 {
		ttl = defaultViewTTL
	}
	return &ViewCache{client: client, ttl: ttl}
}

// Get returns the cached rendering of path for viewer, if any.
func (v *ViewCache) Get(ctx context.Context, path, viewer string) ([]byte, bool, error) {
	b, err := v.client.Get(ctx, v.key(path, viewer)).Bytes()
	if errors.Is(err, redis.Nil) {
		metrics.ViewCacheLookupsTotal.WithLabelValues("miss").Inc()
		return nil, false, nil
	}
	if err != nil {
		metrics.ViewCacheLookupsTotal.WithLabelValues("error").Inc()
		return nil, false, fmt.Errorf("view cache get: %w", err)
	}
	metrics.ViewCacheLookupsTotal.WithLabelValues("hit").Inc()
	return b, true, nil
}

// Set stores body for path and viewer until the TTL expires.
func (v *ViewCache) Set(ctx context.Context, path, viewer string, body []byte) error {
	return v.client.Set(ctx, v.key(path, viewer), body, v.ttl).Err()
}

// Invalidate removes every viewer's rendering of each path.
func (v *ViewCache) Invalidate(ctx context.Context, paths ...string) error {
	var errs []error
	for _, p := range paths {
		if err := v.dropPattern(ctx, "view:"+p+":*"); err != nil {
			errs = append(errs, err)
		}
	}
	if err := errors.Join(errs...); err != nil {
		metrics.ViewCacheInvalidationErrorsTotal.Inc()
		return fmt.Errorf("view cache invalidate: %w", err)
	}
	return nil
}

func (v *ViewCache) dropPattern(ctx context.Context, pattern string) error {
	var cursor uint64
	for {
		keys, next, err := v.client.Scan(ctx, cursor, pattern, scanBatch).Result()
		if err != nil {
			return err
		}
		if len(keys) > 0 {
			if err := v.client.Del(ctx, keys...).Err(); err != nil {
				return err
			}
		}
		if next == 0 {
			return nil
		}
		cursor = next
	}
}

func (v *ViewCache) key(path, viewer string) string {
	return fmt.Sprintf("view:%s:%s", path, viewer)
}

// NopCache is used when no Redis address is configured. Every lookup
// misses and every write is discarded.
type NopCache struct{}

func (NopCache) Get(context.Context, string, string) ([]byte, bool, error) { return nil, false, nil }
func (NopCache) Set(context.Context, string, string, []byte) error         { return nil }
func (NopCache) Invalidate(context.Context, ...string) error               { return nil }
