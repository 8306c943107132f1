package assistant

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"github.com/Adithya-Monish-Kumar-K/Portfolio-Assistant/internal/corpus/loader"
	"github.com/Adithya-Monish-Kumar-K/Portfolio-Assistant/internal/indexer/index"
	"github.com/Adithya-Monish-Kumar-K/Portfolio-Assistant/internal/stats"
	apperrors "github.com/Adithya-Monish-Kumar-K/Portfolio-Assistant/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/Portfolio-Assistant/pkg/logger"
)

// Source locates the file a corpus is loaded from.
type Source struct {
	Kind string
	Path string
}

// Registry holds one Engine per corpus name.
type Registry struct {
	mu      sync.RWMutex
	engines map[string]*Engine
	sources map[string]Source
	logger  *slog.Logger
}

func NewRegistry() *Registry {
	return &Registry{
		engines: make(map[string]*Engine),
		sources: make(map[string]Source),
		logger:  logger.WithComponent("registry"),
	}
}

// Add registers e under its corpus name. src may be zero for corpora that
// are not file backed.
func (r *Registry) Add(e *Engine, src Source) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.engines[e.Name()] = e
	r.sources[e.Name()] = src
}

func (r *Registry) Get(name string) (*Engine, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.engines[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", apperrors.ErrCorpusNotFound, name)
	}
	return e, nil
}

// Names returns the registered corpus names in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.engines))
	for name := range r.engines {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Counters returns each engine's session counters keyed by corpus.
func (r *Registry) Counters() map[string]*stats.Counters {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make(map[string]*stats.Counters, len(r.engines))
	for name, e := range r.engines {
		out[name] = e.Counters()
	}
	return out
}

// Reload re-reads the corpus file and swaps it in.
func (r *Registry) Reload(ctx context.Context, name string) (*index.Index, error) {
	e, err := r.Get(name)
	if err != nil {
		return nil, err
	}
	r.mu.RLock()
	src := r.sources[name]
	r.mu.RUnlock()
	if src.Path == "" {
		return nil, fmt.Errorf("%w: corpus %q has no source file", apperrors.ErrInvalidInput, name)
	}
	c, err := loader.LoadFile(name, src.Kind, src.Path)
	if err != nil {
		return nil, err
	}
	return r.swap(ctx, e, c)
}

// Replace swaps in entries supplied directly, e.g. from a corpus update
// event.
func (r *Registry) Replace(ctx context.Context, name string, entries []index.RawDoc) (*index.Index, error) {
	e, err := r.Get(name)
	if err != nil {
		return nil, err
	}
	return r.swap(ctx, e, &index.Corpus{Name: name, Entries: entries})
}

func (r *Registry) swap(ctx context.Context, e *Engine, c *index.Corpus) (*index.Index, error) {
	if err := e.SetCorpus(ctx, c); err != nil {
		return nil, err
	}
	idx, err := e.Index()
	if err != nil {
		return nil, err
	}
	r.logger.Info("corpus reloaded", "corpus", e.Name(), "documents", idx.Len(), "skipped", idx.Skipped, "version", idx.Version)
	return idx, nil
}
