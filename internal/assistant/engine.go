// Package assistant ties the indexing, scoring, ranking and answer
// synthesis stages together behind the host-facing Ask, Stats and Related
// operations for one named corpus.
package assistant

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/Adithya-Monish-Kumar-K/Portfolio-Assistant/internal/analytics"
	"github.com/Adithya-Monish-Kumar-K/Portfolio-Assistant/internal/indexer"
	"github.com/Adithya-Monish-Kumar-K/Portfolio-Assistant/internal/indexer/index"
	"github.com/Adithya-Monish-Kumar-K/Portfolio-Assistant/internal/indexer/tokenizer"
	"github.com/Adithya-Monish-Kumar-K/Portfolio-Assistant/internal/searcher/answer"
	"github.com/Adithya-Monish-Kumar-K/Portfolio-Assistant/internal/searcher/cache"
	"github.com/Adithya-Monish-Kumar-K/Portfolio-Assistant/internal/searcher/ranker"
	"github.com/Adithya-Monish-Kumar-K/Portfolio-Assistant/internal/searcher/scorer"
	"github.com/Adithya-Monish-Kumar-K/Portfolio-Assistant/internal/stats"
	"github.com/Adithya-Monish-Kumar-K/Portfolio-Assistant/internal/vocab"
	"github.com/Adithya-Monish-Kumar-K/Portfolio-Assistant/pkg/config"
	apperrors "github.com/Adithya-Monish-Kumar-K/Portfolio-Assistant/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/Portfolio-Assistant/pkg/logger"
	"github.com/Adithya-Monish-Kumar-K/Portfolio-Assistant/pkg/metrics"
	"github.com/Adithya-Monish-Kumar-K/Portfolio-Assistant/pkg/tracing"
)

// EventSink receives analytics events. analytics.Collector and
// analytics.Aggregator implement it.
type EventSink interface {
	Track(event any)
}

// Options wires an Engine. Any field may be left zero: a zero Engine uses
// config.DefaultEngineConfig, Vocabulary defaults to vocab.Default, Cache to
// an unbounded MemoryCache and Counters to fresh counters.
type Options struct {
	Vocabulary *vocab.Table
	Weights    *scorer.Weights
	Engine     config.EngineConfig
	Cache      cache.ResultCache
	Counters   *stats.Counters
	Events     EventSink
	Metrics    *metrics.Metrics
	Tracer     *tracing.Tracer
	Picker     answer.Picker
	Now        func() time.Time
}

// Answer is the result of Ask.
type Answer struct {
	Text       string              `json:"text"`
	Kind       answer.Kind         `json:"kind"`
	Confidence int                 `json:"confidence"`
	Match      *ranker.ScoredMatch `json:"-"`
	CacheHit   bool                `json:"cache_hit"`
	Latency    time.Duration       `json:"-"`
	Breakdown  *scorer.Breakdown   `json:"-"`
}

func (a Answer) String() string { return a.Text }

// RelatedItem is one entry of a related-questions list.
type RelatedItem struct {
	ID            int    `json:"id"`
	QuestionText  string `json:"question"`
	AnswerPreview string `json:"answer_preview"`
	Relevance     int    `json:"relevance"`
}

// Overview is the blog AI overview: a ranked shortlist plus a synthesized
// summary of the top match.
type Overview struct {
	Query   string          `json:"query"`
	Summary answer.Response `json:"summary"`
	Items   []OverviewItem  `json:"items"`
}

type OverviewItem struct {
	ID        int      `json:"id"`
	Title     string   `json:"title"`
	Preview   string   `json:"preview"`
	Score     int      `json:"score"`
	MatchKind string   `json:"match_kind"`
	Relevance int      `json:"relevance"`
	Author    string   `json:"author,omitempty"`
	Date      string   `json:"date,omitempty"`
	Tags      []string `json:"tags,omitempty"`
}

// Engine answers free-text questions over one corpus. It is safe for
// concurrent use; the corpus can be swapped with SetCorpus while serving.
type Engine struct {
	name     string
	cfg      config.EngineConfig
	tok      *tokenizer.Tokenizer
	indexer  *indexer.Indexer
	scorer   *scorer.Scorer
	ranker   *ranker.Ranker
	synth    *answer.Synthesizer
	cache    cache.ResultCache
	counters *stats.Counters
	events   EventSink
	metrics  *metrics.Metrics
	tracer   *tracing.Tracer
	now      func() time.Time
	logger   *slog.Logger

	mu     sync.RWMutex
	corpus *index.Corpus
}

// New builds an Engine for c and indexes it eagerly so configuration and
// data problems surface at startup.
func New(c *index.Corpus, opts Options) (*Engine, error) {
	if c == nil {
		return nil, fmt.Errorf("%w: nil corpus", apperrors.ErrInvalidInput)
	}
	table := opts.Vocabulary
	if table == nil {
		table = vocab.Default()
	}
	weights := scorer.DefaultWeights()
	if opts.Weights != nil {
		weights = *opts.Weights
	}
	if opts.Cache == nil {
		opts.Cache = cache.NewMemory(cache.MemoryOptions{Corpus: c.Name, Metrics: opts.Metrics})
	}
	if opts.Counters == nil {
		opts.Counters = stats.New()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Engine == (config.EngineConfig{}) {
		opts.Engine = config.DefaultEngineConfig()
	}

	tok := tokenizer.New(table.Stopwords, tokenizer.DefaultMinLength)
	sc := scorer.New(weights, table)
	cfg := opts.Engine
	e := &Engine{
		name:    c.Name,
		cfg:     cfg,
		tok:     tok,
		indexer: indexer.New(tok, table.CategoryTriggers, opts.Metrics),
		scorer:  sc,
		ranker: ranker.New(sc, ranker.Config{
			MinScore:       cfg.MinScore,
			DirectScore:    cfg.DirectScore,
			MinQueryLength: cfg.MinQueryLength,
			MaxConfidence:  cfg.MaxConfidence,
		}),
		synth: answer.New(answer.Config{
			SuccessScore:   cfg.SuccessScore,
			MaxConfidence:  cfg.MaxConfidence,
			PreviewLength:  cfg.PreviewLength,
			MaxSuggestions: cfg.MaxSuggestions,
			MaxQueryLength: cfg.MaxQueryLength,
		}, opts.Picker),
		cache:    opts.Cache,
		counters: opts.Counters,
		events:   opts.Events,
		metrics:  opts.Metrics,
		tracer:   opts.Tracer,
		now:      opts.Now,
		logger:   slog.Default().With("component", "assistant", "corpus", c.Name),
		corpus:   c,
	}
	if _, err := e.index(); err != nil {
		return nil, err
	}
	return e, nil
}

// Name returns the corpus name the engine serves.
func (e *Engine) Name() string { return e.name }

// Ask answers query. Bad input never produces an error; it yields guidance
// text with Kind invalid and is not counted in the session stats.
func (e *Engine) Ask(ctx context.Context, query string) Answer {
	start := e.now()
	ctx, span := e.tracer.Start(ctx, "assistant.ask", logger.RequestID(ctx))
	span.SetAttr("corpus", e.name)
	defer span.End()

	trimmed := strings.TrimSpace(query)
	if trimmed == "" {
		return e.reject(ctx, answer.ReasonEmpty, start)
	}
	if utf8.RuneCountInString(trimmed) > e.cfg.MaxQueryLength {
		return e.reject(ctx, answer.ReasonTooLong, start)
	}

	q := scorer.NewQuery(trimmed, e.tok)
	idx, err := e.index()
	if err != nil {
		logger.FromContext(ctx).Error("index unavailable", "corpus", e.name, "error", err)
		resp := e.synth.Synthesize(q, nil, nil)
		return Answer{Text: resp.Text, Kind: resp.Kind, Latency: e.now().Sub(start)}
	}

	match, hit := e.bestMatch(ctx, q, idx)
	var fallback []*index.Document
	if match == nil || match.Score <= e.cfg.SuccessScore {
		_, fspan := tracing.StartChildSpan(ctx, "fallback")
		fallback = e.ranker.FallbackCandidates(q, idx.Documents, e.cfg.MaxSuggestions)
		fspan.SetAttr("candidates", len(fallback))
		fspan.End()
	}
	resp := e.synth.Synthesize(q, match, fallback)

	latency := e.now().Sub(start)
	ans := Answer{
		Text:       resp.Text,
		Kind:       resp.Kind,
		Confidence: resp.Confidence,
		Match:      match,
		CacheHit:   hit,
		Latency:    latency,
	}
	if match != nil {
		b := e.scorer.Explain(q, match.Document)
		ans.Breakdown = &b
	}

	latencyMs := float64(latency) / float64(time.Millisecond)
	e.counters.RecordQuery(stats.Outcome{Matched: resp.Kind == answer.KindAnswered, LatencyMs: latencyMs})
	e.observe(ans)
	e.track(ctx, q, ans, latencyMs)

	span.SetAttr("kind", string(resp.Kind))
	span.SetAttr("cache_hit", hit)
	logger.FromContext(ctx).Debug("query answered",
		"corpus", e.name,
		"kind", resp.Kind,
		"confidence", resp.Confidence,
		"cache_hit", hit,
		"latency_ms", latencyMs,
	)
	return ans
}

// Stats returns a snapshot of the session counters.
func (e *Engine) Stats() stats.SessionStats {
	return e.counters.Snapshot()
}

// Related lists documents sharing a category with query's best match,
// excluding the match itself.
func (e *Engine) Related(ctx context.Context, query string, limit int) ([]RelatedItem, error) {
	q, idx, err := e.prepare(query)
	if err != nil {
		return nil, err
	}
	best, _ := e.bestMatch(ctx, q, idx)
	related := e.ranker.Related(q, best, idx.Documents, e.clampLimit(limit))
	items := make([]RelatedItem, 0, len(related))
	for _, r := range related {
		items = append(items, RelatedItem{
			ID:            r.Document.ID,
			QuestionText:  r.Document.QuestionText,
			AnswerPreview: answer.Preview(r.Document.AnswerText, e.cfg.PreviewLength),
			Relevance:     r.Relevance,
		})
	}
	return items, nil
}

// Overview ranks the corpus for query and summarizes the top entry.
func (e *Engine) Overview(ctx context.Context, query string, limit int) (Overview, error) {
	q, idx, err := e.prepare(query)
	if err != nil {
		return Overview{}, err
	}
	_, span := tracing.StartChildSpan(ctx, "overview.rank")
	ranked := e.ranker.Rank(q, idx.Documents, e.clampLimit(limit))
	span.SetAttr("ranked", len(ranked))
	span.End()

	ov := Overview{Query: q.Normalized, Items: make([]OverviewItem, 0, len(ranked))}
	var top *ranker.ScoredMatch
	if len(ranked) > 0 {
		top = &ranked[0]
	}
	var fallback []*index.Document
	if top == nil || top.Score <= e.cfg.SuccessScore {
		fallback = e.ranker.FallbackCandidates(q, idx.Documents, e.cfg.MaxSuggestions)
	}
	ov.Summary = e.synth.Synthesize(q, top, fallback)
	for _, m := range ranked {
		d := m.Document
		ov.Items = append(ov.Items, OverviewItem{
			ID:        d.ID,
			Title:     d.QuestionText,
			Preview:   answer.Preview(d.AnswerText, e.cfg.PreviewLength),
			Score:     m.Score,
			MatchKind: m.Kind.String(),
			Relevance: ranker.Confidence(m.Score, e.cfg.MaxConfidence),
			Author:    d.Author,
			Date:      d.Date,
			Tags:      d.Tags,
		})
	}
	return ov, nil
}

// SetCorpus swaps the served corpus and flushes the memoized index and the
// result cache. The new corpus is indexed before SetCorpus returns. A failed
// cache flush is only logged: keys carry the index version, so entries of
// the old corpus can no longer be hit.
func (e *Engine) SetCorpus(ctx context.Context, c *index.Corpus) error {
	if c == nil {
		return fmt.Errorf("%w: nil corpus", apperrors.ErrInvalidInput)
	}
	if c.Name == "" {
		c.Name = e.name
	}
	e.mu.Lock()
	e.corpus = c
	e.indexer.Invalidate()
	e.mu.Unlock()

	if _, err := e.index(); err != nil {
		return err
	}
	if err := e.cache.Invalidate(ctx); err != nil {
		e.logger.Warn("result cache flush failed after corpus swap", "corpus", e.name, "error", err)
	}
	return nil
}

// Invalidate flushes the result cache only.
func (e *Engine) Invalidate(ctx context.Context) error {
	return e.cache.Invalidate(ctx)
}

// Index returns the current index, building it if needed.
func (e *Engine) Index() (*index.Index, error) {
	return e.index()
}

// CacheStats reports result cache hits and misses.
func (e *Engine) CacheStats() (hits, misses int64) {
	return e.cache.Stats()
}

// Counters exposes the session counters for persistence.
func (e *Engine) Counters() *stats.Counters {
	return e.counters
}

func (e *Engine) index() (*index.Index, error) {
	e.mu.RLock()
	c := e.corpus
	e.mu.RUnlock()

	before := e.indexer.Builds()
	start := e.now()
	idx, err := e.indexer.Index(c)
	if err != nil {
		return nil, err
	}
	if e.indexer.Builds() != before && e.events != nil {
		e.events.Track(analytics.IndexEvent{
			Type:      analytics.EventIndex,
			Corpus:    e.name,
			Version:   idx.Version,
			Documents: idx.Len(),
			Skipped:   idx.Skipped,
			LatencyMs: float64(e.now().Sub(start)) / float64(time.Millisecond),
			Timestamp: e.now(),
		})
	}
	return idx, nil
}

func (e *Engine) prepare(query string) (scorer.Query, *index.Index, error) {
	trimmed := strings.TrimSpace(query)
	if trimmed == "" {
		return scorer.Query{}, nil, fmt.Errorf("%w: empty query", apperrors.ErrInvalidInput)
	}
	if utf8.RuneCountInString(trimmed) > e.cfg.MaxQueryLength {
		return scorer.Query{}, nil, fmt.Errorf("%w: limit is %d characters", apperrors.ErrQueryTooLong, e.cfg.MaxQueryLength)
	}
	idx, err := e.index()
	if err != nil {
		return scorer.Query{}, nil, err
	}
	return scorer.NewQuery(trimmed, e.tok), idx, nil
}

// bestMatch consults the result cache, which stores document references
// only; the document is rehydrated from idx.
func (e *Engine) bestMatch(ctx context.Context, q scorer.Query, idx *index.Index) (*ranker.ScoredMatch, bool) {
	ctx, span := tracing.StartChildSpan(ctx, "select")
	defer span.End()

	res, hit := e.cache.GetOrCompute(ctx, cache.Key(idx.Version, q.Normalized), func() cache.Result {
		m := e.ranker.SelectBestMatch(q, idx.Documents)
		r := cache.Result{TimestampMs: e.now().UnixMilli()}
		if m != nil {
			r.Found = true
			r.DocID = m.Document.ID
			r.Score = m.Score
			r.Kind = m.Kind.String()
		}
		return r
	})
	span.SetAttr("cache_hit", hit)
	if !res.Found {
		return nil, hit
	}
	doc, ok := idx.Get(res.DocID)
	if !ok {
		e.logger.Warn("cached match references unknown document", "doc_id", res.DocID, "version", idx.Version)
		return nil, hit
	}
	kind, err := ranker.ParseMatchKind(res.Kind)
	if err != nil {
		kind = ranker.MatchHeuristic
	}
	span.SetAttr("score", res.Score)
	return &ranker.ScoredMatch{Document: doc, Score: res.Score, Kind: kind}, hit
}

func (e *Engine) reject(ctx context.Context, reason answer.Reason, start time.Time) Answer {
	resp := e.synth.Invalid(reason)
	ans := Answer{Text: resp.Text, Kind: resp.Kind, Latency: e.now().Sub(start)}
	e.observe(ans)
	logger.FromContext(ctx).Debug("query rejected", "corpus", e.name, "reason", reason)
	return ans
}

func (e *Engine) clampLimit(limit int) int {
	if limit <= 0 {
		limit = e.cfg.DefaultLimit
	}
	if e.cfg.MaxLimit > 0 && limit > e.cfg.MaxLimit {
		limit = e.cfg.MaxLimit
	}
	return limit
}

func (e *Engine) observe(a Answer) {
	if e.metrics == nil {
		return
	}
	e.metrics.QueriesTotal.WithLabelValues(e.name, string(a.Kind)).Inc()
	status := "miss"
	if a.CacheHit {
		status = "hit"
	}
	e.metrics.QueryLatency.WithLabelValues(e.name, status).Observe(a.Latency.Seconds())
	if a.Match != nil {
		e.metrics.MatchScore.WithLabelValues(e.name, a.Match.Kind.String()).Observe(float64(a.Match.Score))
	}
}

func (e *Engine) track(ctx context.Context, q scorer.Query, a Answer, latencyMs float64) {
	if e.events == nil {
		return
	}
	ev := analytics.QueryEvent{
		Type:       analytics.EventQuery,
		Corpus:     e.name,
		Query:      q.Normalized,
		Kind:       string(a.Kind),
		DocID:      -1,
		Confidence: a.Confidence,
		LatencyMs:  latencyMs,
		CacheHit:   a.CacheHit,
		Timestamp:  e.now(),
		RequestID:  logger.RequestID(ctx),
	}
	if a.Match != nil {
		ev.MatchKind = a.Match.Kind.String()
		ev.DocID = a.Match.Document.ID
		ev.Score = a.Match.Score
	}
	e.events.Track(ev)
}
