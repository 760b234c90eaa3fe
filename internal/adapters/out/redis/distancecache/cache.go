// Package distancecache caches distance estimates in Redis. Distance lookups
// dominate route optimization cost when a mapping service supplies them, and
// the same merchant-to-customer legs recur across dispatch attempts, so a
// shared cache in front of the estimator pays off quickly.
package distancecache

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/core/ports"

	"github.com/redis/go-redis/v9"
)

const defaultTTL = 15 * time.Minute

// CachedDistanceEstimator decorates a DistanceEstimator with a Redis
// read-through cache. Cache failures degrade to the wrapped estimator and
// are logged, never surfaced to the caller.
type CachedDistanceEstimator struct {
	client *redis.Client
	next   ports.DistanceEstimator
	ttl    time.Duration
	logger *slog.Logger
}

// Option configures a CachedDistanceEstimator.
type Option func(*CachedDistanceEstimator)

// WithTTL overrides the default cache entry lifetime.
func WithTTL(ttl time.Duration) Option {
	return func(c *CachedDistanceEstimator) {
		if ttl > 0 {
			c.ttl = ttl
		}
	}
}

// NewCachedDistanceEstimator wraps next with a Redis read-through cache.
func NewCachedDistanceEstimator(
	client *redis.Client,
	next ports.DistanceEstimator,
	logger *slog.Logger,
	opts ...Option,
) *CachedDistanceEstimator {
	c := &CachedDistanceEstimator{
		client: client,
		next:   next,
		ttl:    defaultTTL,
		logger: logger.With("component", "distance_cache"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// EstimateKm returns the cached distance when present, otherwise delegates
// to the wrapped estimator and stores the result.
func (c *CachedDistanceEstimator) EstimateKm(
	ctx context.Context,
	from kernel.GeoPoint,
	to kernel.GeoPoint,
) (float64, error) {
	key, err := cacheKey(from, to)
	if err != nil {
		return 0, err
	}

	cached, err := c.client.Get(ctx, key).Float64()
	if err == nil {
		return cached, nil
	}
	if !errors.Is(err, redis.Nil) {
		c.logger.Warn("cache read failed", "key", key, "error", err)
	}

	km, err := c.next.EstimateKm(ctx, from, to)
	if err != nil {
		return 0, err
	}

	if err = c.client.Set(ctx, key, km, c.ttl).Err(); err != nil {
		c.logger.Warn("cache write failed", "key", key, "error", err)
	}

	return km, nil
}

// cacheKey builds a canonical key for the unordered point pair. Distance is
// symmetric, so both directions map to the same entry.
func cacheKey(from kernel.GeoPoint, to kernel.GeoPoint) (string, error) {
	if err := errors.Join(from.Validate(), to.Validate()); err != nil {
		return "", err
	}

	a := fmt.Sprintf("%.6f,%.6f", from.Lat(), from.Lon())
	b := fmt.Sprintf("%.6f,%.6f", to.Lat(), to.Lon())
	if b < a {
		a, b = b, a
	}
	return "distance:" + a + ":" + b, nil
}
