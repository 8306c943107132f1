// Package stats keeps the per-session query counters reported alongside
// answers.
package stats

import (
	"math"
	"sync"
)

// LatencyDecay is the weight kept from the previous average on each sample.
const LatencyDecay = 0.7

// SessionStats is a point-in-time view of the counters.
type SessionStats struct {
	TotalQueries      int64   `json:"total_queries"`
	SuccessfulMatches int64   `json:"successful_matches"`
	SuccessRatePct    int     `json:"success_rate_pct"`
	AvgLatencyMs      float64 `json:"avg_latency_ms"`
}

// Outcome describes one answered query.
type Outcome struct {
	Matched   bool
	LatencyMs float64
}

// Counters is safe for concurrent use. The zero value is ready.
type Counters struct {
	mu         sync.Mutex
	total      int64
	successful int64
	avgLatency float64
}

func New() *Counters {
	return &Counters{}
}

// RecordQuery folds one outcome into the counters. The latency average is an
// exponential moving average seeded from zero.
func (c *Counters) RecordQuery(o Outcome) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.total++
	if o.Matched {
		c.successful++
	}
	latency := o.LatencyMs
	if latency < 0 || math.IsNaN(latency) {
		latency = 0
	}
	c.avgLatency = c.avgLatency*LatencyDecay + latency*(1-LatencyDecay)
}

func (c *Counters) Snapshot() SessionStats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return SessionStats{
		TotalQueries:      c.total,
		SuccessfulMatches: c.successful,
		SuccessRatePct:    rate(c.successful, c.total),
		AvgLatencyMs:      c.avgLatency,
	}
}

// Restore seeds the counters from a persisted snapshot. The success rate is
// recomputed rather than trusted.
func (c *Counters) Restore(s SessionStats) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.total = max(s.TotalQueries, 0)
	c.successful = min(max(s.SuccessfulMatches, 0), c.total)
	c.avgLatency = max(s.AvgLatencyMs, 0)
}

func rate(successful, total int64) int {
	if total == 0 {
		return 0
	}
	return int(math.Round(float64(successful) / float64(total) * 100))
}
