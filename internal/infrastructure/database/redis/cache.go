package redis

import (
	"context"
	"encoding/json"
	"math/rand"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"

	"github.com/sj-huang/rdkit-m/internal/infrastructure/monitoring/logging"
	"github.com/sj-huang/rdkit-m/pkg/errors"
)

var ErrSerializationFailed = errors.New(errors.ErrCodeSerialization, "serialization failed")

const (
	weightsNamespace      = "weights"
	defaultComputeTimeout = 2 * time.Minute
)

// WeightsCache stores atomic weight vectors as JSON under
// <prefix>weights:<key>. It satisfies simmap.WeightsCache.
type WeightsCache struct {
	client         *Client
	logger         logging.Logger
	defaultTTL     time.Duration
	computeTimeout time.Duration
	singleflight   singleflight.Group
}

type CacheOption func(*WeightsCache)

func WithDefaultTTL(ttl time.Duration) CacheOption {
	return func(c *WeightsCache) { c.defaultTTL = ttl }
}

// WithComputeTimeout bounds a shared computation in GetOrCompute.
func WithComputeTimeout(d time.Duration) CacheOption {
	return func(c *WeightsCache) {
		if d > 0 {
			c.computeTimeout = d
		}
	}
}

func NewWeightsCache(client *Client, log logging.Logger, opts ...CacheOption) *WeightsCache {
	c := &WeightsCache{
		client:         client,
		logger:         log,
		defaultTTL:     time.Hour,
		computeTimeout: defaultComputeTimeout,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *WeightsCache) fullKey(key string) string {
	return c.client.Key(weightsNamespace, key)
}

// jitterTTL spreads expiries by +/- 10%.
func (c *WeightsCache) jitterTTL(ttl time.Duration) time.Duration {
	if ttl == 0 {
		return 0
	}
	jitter := float64(ttl) * 0.1 * (rand.Float64()*2 - 1)
	return ttl + time.Duration(jitter)
}

// Get returns the cached weights and whether they were present.
func (c *WeightsCache) Get(ctx context.Context, key string) ([]float64, bool, error) {
	data, err := c.client.Get(ctx, c.fullKey(key)).Bytes()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, errors.Wrap(err, errors.ErrCodeCacheError, "failed to get weights from cache")
	}
	var weights []float64
	if err := json.Unmarshal(data, &weights); err != nil {
		c.logger.Warn("Dropping undecodable cache entry", logging.String("key", key), logging.Err(err))
		return nil, false, nil
	}
	return weights, true, nil
}

// Set stores weights for ttl, or the default TTL when ttl is zero.
func (c *WeightsCache) Set(ctx context.Context, key string, weights []float64, ttl time.Duration) error {
	if ttl == 0 {
		ttl = c.defaultTTL
	}
	data, err := json.Marshal(weights)
	if err != nil {
		return ErrSerializationFailed.WithCause(err)
	}
	if err := c.client.Set(ctx, c.fullKey(key), data, c.jitterTTL(ttl)).Err(); err != nil {
		return errors.Wrap(err, errors.ErrCodeCacheError, "failed to set weights in cache")
	}
	return nil
}

// GetOrCompute returns the cached weights for key, or runs compute once for
// all concurrent callers, caches the result and returns it. The boolean reports
// a cache hit. Cache failures are logged and do not fail the call.
//
// The shared computation runs detached from any one caller, bounded by the
// compute timeout; each caller stops waiting when its own ctx ends.
func (c *WeightsCache) GetOrCompute(ctx context.Context, key string, ttl time.Duration, compute func(ctx context.Context) ([]float64, error)) ([]float64, bool, error) {
	weights, ok, err := c.Get(ctx, key)
	if err != nil {
		c.logger.Warn("Weights cache read failed", logging.String("key", key), logging.Err(err))
	}
	if ok {
		return weights, true, nil
	}

	ch := c.singleflight.DoChan(key, func() (interface{}, error) {
		cctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.computeTimeout)
		defer cancel()
		w, err := compute(cctx)
		if err != nil {
			return nil, err
		}
		if setErr := c.Set(cctx, key, w, ttl); setErr != nil {
			c.logger.Warn("Failed to set cache in GetOrCompute", logging.Err(setErr))
		}
		return w, nil
	})

	select {
	case <-ctx.Done():
		return nil, false, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, false, res.Err
		}
		out := append([]float64(nil), res.Val.([]float64)...)
		return out, false, nil
	}
}

// Purge removes every cached weight vector and returns the number of keys deleted.
func (c *WeightsCache) Purge(ctx context.Context) (int64, error) {
	var deleted int64
	var cursor uint64
	match := c.fullKey("*")
	for {
		keys, next, err := c.client.Scan(ctx, cursor, match, 100).Result()
		if err != nil {
			return deleted, errors.Wrap(err, errors.ErrCodeCacheError, "failed to scan weights cache")
		}
		if len(keys) > 0 {
			if err := c.client.Del(ctx, keys...).Err(); err != nil {
				return deleted, errors.Wrap(err, errors.ErrCodeCacheError, "failed to purge weights cache")
			}
			deleted += int64(len(keys))
		}
		cursor = next
		if cursor == 0 {
			break
		}
	}
	return deleted, nil
}

func (c *WeightsCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx)
}

//Personal.AI order the ending
