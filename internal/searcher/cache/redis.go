package cache

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/Adithya-Monish-Kumar-K/Portfolio-Assistant/pkg/metrics"
	"github.com/Adithya-Monish-Kumar-K/Portfolio-Assistant/pkg/resilience"
	"golang.org/x/sync/singleflight"
)

const keyPrefix = "answer:"

// Store is the subset of the Redis client the cache needs.
type Store interface {
	GetJSON(ctx context.Context, key string, dst any) (bool, error)
	SetJSON(ctx context.Context, key string, v any, ttl time.Duration) error
	FlushPrefix(ctx context.Context, prefix string) (int64, error)
}

// RedisOptions configures a RedisCache. A nil Breaker gets a default one.
type RedisOptions struct {
	Corpus  string
	TTL     time.Duration
	Breaker *resilience.CircuitBreaker
	Metrics *metrics.Metrics
}

// RedisCache shares results between instances. Any Redis failure degrades
// to computing the result locally; the breaker stops hammering a dead
// server.
type RedisCache struct {
	store   Store
	prefix  string
	ttl     time.Duration
	breaker *resilience.CircuitBreaker
	group   singleflight.Group
	stats   counters
	logger  *slog.Logger
	hits    atomic.Int64
	misses  atomic.Int64
}

func NewRedis(store Store, opts RedisOptions) *RedisCache {
	if opts.Breaker == nil {
		opts.Breaker = resilience.NewCircuitBreaker("redis-cache-"+opts.Corpus, resilience.CircuitBreakerConfig{})
	}
	return &RedisCache{
		store:   store,
		prefix:  keyPrefix + opts.Corpus + ":",
		ttl:     opts.TTL,
		breaker: opts.Breaker,
		stats:   counters{corpus: opts.Corpus, metrics: opts.Metrics},
		logger:  slog.Default().With("component", "redis-cache", "corpus", opts.Corpus),
	}
}

func (c *RedisCache) GetOrCompute(ctx context.Context, key string, compute func() Result) (Result, bool) {
	full := c.prefix + key
	if r, ok := c.get(ctx, full); ok {
		c.hits.Add(1)
		c.stats.hit()
		return r, true
	}
	c.misses.Add(1)
	c.stats.miss()

	v, _, _ := c.group.Do(full, func() (any, error) {
		r := compute()
		c.set(ctx, full, r)
		return r, nil
	})
	return v.(Result), false
}

func (c *RedisCache) get(ctx context.Context, key string) (Result, bool) {
	var (
		r     Result
		found bool
	)
	err := c.breaker.Execute(func() error {
		var err error
		found, err = c.store.GetJSON(ctx, key, &r)
		return err
	})
	if err != nil {
		c.logFailure("cache get failed", key, err)
		return Result{}, false
	}
	return r, found
}

func (c *RedisCache) set(ctx context.Context, key string, r Result) {
	err := c.breaker.Execute(func() error {
		return c.store.SetJSON(ctx, key, r, c.ttl)
	})
	if err != nil {
		c.logFailure("cache set failed", key, err)
	}
}

func (c *RedisCache) logFailure(msg, key string, err error) {
	if errors.Is(err, resilience.ErrCircuitOpen) {
		c.logger.Debug(msg, "key", key, "error", err)
		return
	}
	c.logger.Warn(msg, "key", key, "error", err)
}

// Invalidate deletes every key of this corpus. Unlike lookups, a failure
// here is returned so the caller can surface it.
func (c *RedisCache) Invalidate(ctx context.Context) error {
	var deleted int64
	err := c.breaker.Execute(func() error {
		var err error
		deleted, err = c.store.FlushPrefix(ctx, c.prefix)
		return err
	})
	if err != nil {
		return err
	}
	c.logger.Info("cache invalidated", "keys_deleted", deleted)
	return nil
}

func (c *RedisCache) Stats() (hits, misses int64) {
	return c.hits.Load(), c.misses.Load()
}
