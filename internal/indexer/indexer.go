// Package indexer converts host corpora into keyword-enriched documents and
// memoizes the result per corpus value.
package indexer

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/Adithya-Monish-Kumar-K/Portfolio-Assistant/internal/indexer/index"
	"github.com/Adithya-Monish-Kumar-K/Portfolio-Assistant/internal/indexer/tokenizer"
	"github.com/Adithya-Monish-Kumar-K/Portfolio-Assistant/internal/vocab"
	apperrors "github.com/Adithya-Monish-Kumar-K/Portfolio-Assistant/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/Portfolio-Assistant/pkg/metrics"
)

// Indexer builds an index.Index once per *index.Corpus and publishes it for
// read-only use. It is safe for concurrent use.
type Indexer struct {
	tok      *tokenizer.Tokenizer
	triggers []vocab.CategoryTrigger
	metrics  *metrics.Metrics
	logger   *slog.Logger

	mu     sync.Mutex
	memo   map[*index.Corpus]*index.Index
	builds atomic.Int64
}

// New creates an Indexer. m may be nil.
func New(tok *tokenizer.Tokenizer, triggers []vocab.CategoryTrigger, m *metrics.Metrics) *Indexer {
	return &Indexer{
		tok:      tok,
		triggers: triggers,
		metrics:  m,
		logger:   slog.Default().With("component", "indexer"),
		memo:     make(map[*index.Corpus]*index.Index),
	}
}

// Index returns the memoized index of c, building it on first access.
// Malformed entries are skipped and counted rather than failing the pass.
func (ix *Indexer) Index(c *index.Corpus) (*index.Index, error) {
	if c == nil {
		return nil, fmt.Errorf("%w: nil corpus", apperrors.ErrInvalidInput)
	}
	ix.mu.Lock()
	defer ix.mu.Unlock()
	if idx, ok := ix.memo[c]; ok {
		return idx, nil
	}

	idx := ix.build(c)
	ix.memo[c] = idx
	ix.builds.Add(1)
	return idx, nil
}

// Invalidate drops every memoized index.
func (ix *Indexer) Invalidate() {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	n := len(ix.memo)
	ix.memo = make(map[*index.Corpus]*index.Index)
	ix.logger.Info("index memo invalidated", "entries_dropped", n)
}

// Builds returns how many indexes have been computed, for observing
// memoization.
func (ix *Indexer) Builds() int64 {
	return ix.builds.Load()
}

// Document indexes a single raw entry at position id. It reports false for
// entries missing a question/title or an answer/content.
func (ix *Indexer) Document(id int, raw index.RawDoc) (*index.Document, bool) {
	question := strings.TrimSpace(raw.QuestionText())
	answer := strings.TrimSpace(raw.AnswerText())
	if question == "" || answer == "" {
		return nil, false
	}
	return index.NewDocument(
		id,
		raw,
		ix.tok.Keywords(question),
		ix.tok.Keywords(answer),
		ix.categorize(question, answer, raw.Tags),
	), true
}

func (ix *Indexer) build(c *index.Corpus) *index.Index {
	docs := make([]*index.Document, 0, len(c.Entries))
	skipped := 0
	hash := sha256.New()
	for i, raw := range c.Entries {
		doc, ok := ix.Document(i, raw)
		if !ok {
			skipped++
			continue
		}
		fmt.Fprintf(hash, "%d\x00%s\x00%s\x00%s\x00", doc.ID, doc.QuestionText, doc.AnswerText, strings.Join(doc.Tags, ","))
		docs = append(docs, doc)
	}
	version := hex.EncodeToString(hash.Sum(nil)[:8])

	if skipped > 0 {
		ix.logger.Warn("malformed corpus entries skipped",
			"corpus", c.Name,
			"skipped", skipped,
			"total", len(c.Entries),
		)
	}
	ix.logger.Info("corpus indexed",
		"corpus", c.Name,
		"documents", len(docs),
		"skipped", skipped,
		"version", version,
	)
	if ix.metrics != nil {
		ix.metrics.DocsIndexedTotal.WithLabelValues(c.Name).Add(float64(len(docs)))
		ix.metrics.DocsSkippedTotal.WithLabelValues(c.Name).Add(float64(skipped))
		ix.metrics.CorpusDocuments.WithLabelValues(c.Name).Set(float64(len(docs)))
	}
	return index.New(c.Name, version, docs, skipped)
}

// categorize applies each trigger independently as a case-insensitive
// substring test over question and answer, then adds article tags.
func (ix *Indexer) categorize(question, answer string, tags []string) map[string]struct{} {
	text := strings.ToLower(question + " " + answer)
	cats := make(map[string]struct{})
	for _, tr := range ix.triggers {
		if strings.Contains(text, tr.Term) {
			cats[tr.Category] = struct{}{}
		}
	}
	for _, tag := range tags {
		tag = strings.ToLower(strings.TrimSpace(tag))
		if tag != "" {
			cats[tag] = struct{}{}
		}
	}
	return cats
}
