// Package cache memoizes best-match selections per (index version,
// normalized query). Entries reference documents by ID so a cached result
// is rehydrated from the live index rather than serialized in full.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"

	"github.com/Adithya-Monish-Kumar-K/Portfolio-Assistant/pkg/metrics"
)

// Result is the cached outcome of a best-match selection.
type Result struct {
	Found       bool   `json:"found"`
	DocID       int    `json:"doc_id"`
	Score       int    `json:"score"`
	Kind        string `json:"kind"`
	TimestampMs int64  `json:"timestamp_ms"`
}

// ResultCache is implemented by MemoryCache, RedisCache and Disabled.
type ResultCache interface {
	// GetOrCompute returns the cached result for key or stores compute's
	// result. The bool reports a cache hit.
	GetOrCompute(ctx context.Context, key string, compute func() Result) (Result, bool)
	Invalidate(ctx context.Context) error
	Stats() (hits, misses int64)
}

// Key derives a fixed-length cache key from an index version and a
// normalized query.
func Key(version, normalized string) string {
	sum := sha256.Sum256([]byte(version + "\x00" + normalized))
	return hex.EncodeToString(sum[:16])
}

type counters struct {
	corpus  string
	metrics *metrics.Metrics
}

func (c counters) hit() {
	if c.metrics != nil {
		c.metrics.CacheHitsTotal.WithLabelValues(c.corpus).Inc()
	}
}

func (c counters) miss() {
	if c.metrics != nil {
		c.metrics.CacheMissesTotal.WithLabelValues(c.corpus).Inc()
	}
}

// Disabled never stores anything; every call computes.
type Disabled struct{}

func (d *Disabled) GetOrCompute(_ context.Context, _ string, compute func() Result) (Result, bool) {
	return compute(), false
}

func (d *Disabled) Invalidate(context.Context) error { return nil }

func (d *Disabled) Stats() (hits, misses int64) { return 0, 0 }
