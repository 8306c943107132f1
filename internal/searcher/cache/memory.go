package cache

import (
	"container/list"
	"context"
	"log/slog"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Adithya-Monish-Kumar-K/Portfolio-Assistant/pkg/metrics"
	"golang.org/x/sync/singleflight"
)

// MemoryOptions configures a MemoryCache. Zero MaxEntries or TTL means
// unbounded.
type MemoryOptions struct {
	Corpus     string
	MaxEntries int
	TTL        time.Duration
	Metrics    *metrics.Metrics
	Now        func() time.Time
}

type memoryEntry struct {
	key     string
	result  Result
	expires time.Time
}

// MemoryCache is an in-process ResultCache. Entries are evicted oldest
// first once MaxEntries is reached.
type MemoryCache struct {
	opts   MemoryOptions
	logger *slog.Logger
	stats  counters
	group  singleflight.Group

	mu      sync.Mutex
	entries map[string]*list.Element
	order   *list.List
	gen     uint64

	hits   atomic.Int64
	misses atomic.Int64
}

func NewMemory(opts MemoryOptions) *MemoryCache {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &MemoryCache{
		opts:    opts,
		logger:  slog.Default().With("component", "memory-cache", "corpus", opts.Corpus),
		stats:   counters{corpus: opts.Corpus, metrics: opts.Metrics},
		entries: make(map[string]*list.Element),
		order:   list.New(),
	}
}

func (c *MemoryCache) GetOrCompute(_ context.Context, key string, compute func() Result) (Result, bool) {
	res, ok, gen := c.lookup(key)
	if ok {
		c.hits.Add(1)
		c.stats.hit()
		return res, true
	}
	c.misses.Add(1)
	c.stats.miss()

	v, _, _ := c.group.Do(strconv.FormatUint(gen, 10)+":"+key, func() (any, error) {
		r := compute()
		c.store(key, r, gen)
		return r, nil
	})
	return v.(Result), false
}

func (c *MemoryCache) lookup(key string) (Result, bool, uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	el, ok := c.entries[key]
	if !ok {
		return Result{}, false, c.gen
	}
	e := el.Value.(*memoryEntry)
	if !e.expires.IsZero() && !c.opts.Now().Before(e.expires) {
		c.order.Remove(el)
		delete(c.entries, key)
		return Result{}, false, c.gen
	}
	return e.result, true, c.gen
}

// store drops results computed against a generation that has since been
// invalidated.
func (c *MemoryCache) store(key string, r Result, gen uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if gen != c.gen {
		return
	}
	var expires time.Time
	if c.opts.TTL > 0 {
		expires = c.opts.Now().Add(c.opts.TTL)
	}
	if el, ok := c.entries[key]; ok {
		c.order.Remove(el)
	}
	c.entries[key] = c.order.PushBack(&memoryEntry{key: key, result: r, expires: expires})
	for c.opts.MaxEntries > 0 && c.order.Len() > c.opts.MaxEntries {
		oldest := c.order.Front()
		c.order.Remove(oldest)
		delete(c.entries, oldest.Value.(*memoryEntry).key)
	}
}

func (c *MemoryCache) Invalidate(context.Context) error {
	c.mu.Lock()
	n := len(c.entries)
	c.gen++
	c.entries = make(map[string]*list.Element)
	c.order.Init()
	c.mu.Unlock()
	c.logger.Info("cache invalidated", "entries_dropped", n)
	return nil
}

func (c *MemoryCache) Stats() (hits, misses int64) {
	return c.hits.Load(), c.misses.Load()
}

// Len returns the number of live entries, including expired ones not yet
// observed.
func (c *MemoryCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
