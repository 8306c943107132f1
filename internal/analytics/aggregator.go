package analytics

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"sort"
	"sync"
	"time"

	"github.com/Adithya-Monish-Kumar-K/Portfolio-Assistant/pkg/kafka"
)

const (
	maxLatencySamples = 10000
	topQueriesLimit   = 10
	// maxTrackedQueries bounds the distinct query texts counted. Past it the
	// counts are pruned to the most frequent half.
	maxTrackedQueries = 5000
)

// AggregatedStats summarizes query events across corpora and instances.
// UnansweredQueries lists the most frequent queries that got no confident
// answer, i.e. the content gaps of the corpus.
type AggregatedStats struct {
	TotalQueries      int64                  `json:"total_queries"`
	Answered          int64                  `json:"answered"`
	Suggestions       int64                  `json:"suggestions"`
	Generic           int64                  `json:"generic"`
	CacheHits         int64                  `json:"cache_hits"`
	CacheMisses       int64                  `json:"cache_misses"`
	AnswerRatePct     int                    `json:"answer_rate_pct"`
	AvgLatencyMs      float64                `json:"avg_latency_ms"`
	P50LatencyMs      float64                `json:"p50_latency_ms"`
	P95LatencyMs      float64                `json:"p95_latency_ms"`
	P99LatencyMs      float64                `json:"p99_latency_ms"`
	TopQueries        []QueryCount           `json:"top_queries"`
	UnansweredQueries []QueryCount           `json:"unanswered_queries"`
	Corpora           map[string]CorpusStats `json:"corpora"`
	QueriesPerMinute  float64                `json:"queries_per_minute"`
}

type QueryCount struct {
	Query string `json:"query"`
	Count int64  `json:"count"`
}

type CorpusStats struct {
	Queries   int64     `json:"queries"`
	Answered  int64     `json:"answered"`
	Documents int       `json:"documents"`
	Skipped   int       `json:"skipped"`
	Version   string    `json:"version,omitempty"`
	IndexedAt time.Time `json:"indexed_at,omitempty"`
}

// Aggregator folds events into AggregatedStats. It implements the engine's
// event sink so it can be fed directly when Kafka is disabled.
type Aggregator struct {
	mu          sync.Mutex
	stats       AggregatedStats
	latencies   []float64
	next        int
	latencySum  float64
	queryCounts map[string]int64
	unanswered  map[string]int64
	queryLimit  int
	corpora     map[string]CorpusStats
	startTime   time.Time
	now         func() time.Time
	logger      *slog.Logger
}

func NewAggregator() *Aggregator {
	return &Aggregator{
		latencies:   make([]float64, 0, 1024),
		queryCounts: make(map[string]int64),
		unanswered:  make(map[string]int64),
		queryLimit:  maxTrackedQueries,
		corpora:     make(map[string]CorpusStats),
		startTime:   time.Now(),
		now:         time.Now,
		logger:      slog.Default().With("component", "analytics-aggregator"),
	}
}

// Track records a QueryEvent or IndexEvent; other values are ignored.
func (a *Aggregator) Track(event any) {
	switch e := event.(type) {
	case QueryEvent:
		a.recordQuery(e)
	case *QueryEvent:
		a.recordQuery(*e)
	case IndexEvent:
		a.recordIndex(e)
	case *IndexEvent:
		a.recordIndex(*e)
	default:
		a.logger.Debug("ignoring unknown analytics event", "type", fmt.Sprintf("%T", event))
	}
}

func (a *Aggregator) recordQuery(e QueryEvent) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.stats.TotalQueries++
	switch e.Kind {
	case "answered":
		a.stats.Answered++
	case "suggestions":
		a.stats.Suggestions++
	case "generic":
		a.stats.Generic++
	}
	if e.CacheHit {
		a.stats.CacheHits++
	} else {
		a.stats.CacheMisses++
	}
	a.addLatency(e.LatencyMs)
	a.count(a.queryCounts, e.Query)
	if !e.Answered() {
		a.count(a.unanswered, e.Query)
	}
	cs := a.corpora[e.Corpus]
	cs.Queries++
	if e.Answered() {
		cs.Answered++
	}
	a.corpora[e.Corpus] = cs
}

func (a *Aggregator) recordIndex(e IndexEvent) {
	a.mu.Lock()
	defer a.mu.Unlock()
	cs := a.corpora[e.Corpus]
	cs.Documents = e.Documents
	cs.Skipped = e.Skipped
	cs.Version = e.Version
	cs.IndexedAt = e.Timestamp
	a.corpora[e.Corpus] = cs
}

func (a *Aggregator) count(counts map[string]int64, query string) {
	counts[query]++
	if len(counts) <= a.queryLimit {
		return
	}
	keep := topN(counts, a.queryLimit/2)
	clear(counts)
	for _, qc := range keep {
		counts[qc.Query] = qc.Count
	}
}

// addLatency keeps the most recent maxLatencySamples in a ring.
func (a *Aggregator) addLatency(ms float64) {
	if len(a.latencies) < maxLatencySamples {
		a.latencies = append(a.latencies, ms)
		a.latencySum += ms
		return
	}
	a.latencySum += ms - a.latencies[a.next]
	a.latencies[a.next] = ms
	a.next = (a.next + 1) % maxLatencySamples
}

func (a *Aggregator) Stats() AggregatedStats {
	a.mu.Lock()
	defer a.mu.Unlock()

	s := a.stats
	if s.TotalQueries > 0 {
		s.AnswerRatePct = int(math.Round(float64(s.Answered) / float64(s.TotalQueries) * 100))
	}
	if n := len(a.latencies); n > 0 {
		sorted := make([]float64, n)
		copy(sorted, a.latencies)
		sort.Float64s(sorted)
		s.AvgLatencyMs = a.latencySum / float64(n)
		s.P50LatencyMs = percentile(sorted, 50)
		s.P95LatencyMs = percentile(sorted, 95)
		s.P99LatencyMs = percentile(sorted, 99)
	}
	s.TopQueries = topN(a.queryCounts, topQueriesLimit)
	s.UnansweredQueries = topN(a.unanswered, topQueriesLimit)
	s.Corpora = make(map[string]CorpusStats, len(a.corpora))
	for name, cs := range a.corpora {
		s.Corpora[name] = cs
	}
	if elapsed := a.now().Sub(a.startTime).Minutes(); elapsed > 0 {
		s.QueriesPerMinute = float64(s.TotalQueries) / elapsed
	}
	return s
}

// HandleEvent decodes Kafka messages by their "type" field and feeds them
// to agg. Undecodable messages are logged and committed so they do not
// block the partition.
func HandleEvent(agg *Aggregator) kafka.MessageHandler {
	return func(ctx context.Context, key []byte, value []byte) error {
		typ, err := kafka.EventType(value)
		if err != nil {
			agg.logger.Error("failed to decode analytics event", "key", string(key), "error", err)
			return nil
		}
		switch EventType(typ) {
		case EventQuery:
			ev, err := kafka.DecodeJSON[QueryEvent](value)
			if err != nil {
				agg.logger.Error("failed to decode query event", "error", err)
				return nil
			}
			agg.recordQuery(ev)
		case EventIndex:
			ev, err := kafka.DecodeJSON[IndexEvent](value)
			if err != nil {
				agg.logger.Error("failed to decode index event", "error", err)
				return nil
			}
			agg.recordIndex(ev)
		default:
			agg.logger.Warn("unknown analytics event type", "type", typ)
		}
		return nil
	}
}

// percentile uses the nearest-rank method on sorted samples.
func percentile(sorted []float64, pct int) float64 {
	if len(sorted) == 0 {
		return 0
	}
	rank := int(math.Ceil(float64(pct) / 100 * float64(len(sorted))))
	if rank < 1 {
		rank = 1
	}
	if rank > len(sorted) {
		rank = len(sorted)
	}
	return sorted[rank-1]
}

// topN orders by count descending, then query ascending.
func topN(counts map[string]int64, n int) []QueryCount {
	result := make([]QueryCount, 0, len(counts))
	for query, count := range counts {
		result = append(result, QueryCount{Query: query, Count: count})
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].Count != result[j].Count {
			return result[i].Count > result[j].Count
		}
		return result[i].Query < result[j].Query
	})
	if len(result) > n {
		result = result[:n]
	}
	return result
}
