// Package handler exposes the answer engines over HTTP.
package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/Adithya-Monish-Kumar-K/Portfolio-Assistant/internal/assistant"
	"github.com/Adithya-Monish-Kumar-K/Portfolio-Assistant/internal/indexer/index"
	"github.com/Adithya-Monish-Kumar-K/Portfolio-Assistant/internal/searcher/scorer"
	apperrors "github.com/Adithya-Monish-Kumar-K/Portfolio-Assistant/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/Portfolio-Assistant/pkg/logger"
	"github.com/Adithya-Monish-Kumar-K/Portfolio-Assistant/pkg/resilience"
)

const maxReloadBody = 8 << 20

// Engines is satisfied by *assistant.Registry.
type Engines interface {
	Get(name string) (*assistant.Engine, error)
	Names() []string
	Reload(ctx context.Context, name string) (*index.Index, error)
	Replace(ctx context.Context, name string, entries []index.RawDoc) (*index.Index, error)
}

// Announcer propagates a reload to other instances.
type Announcer interface {
	Announce(ctx context.Context, corpus string, entries []index.RawDoc) error
}

type Options struct {
	AskTimeout   time.Duration
	DefaultLimit int
	Announcer    Announcer
}

type Handler struct {
	engines Engines
	opts    Options
	logger  *slog.Logger
}

func New(engines Engines, opts Options) *Handler {
	if opts.DefaultLimit <= 0 {
		opts.DefaultLimit = 5
	}
	return &Handler{
		engines: engines,
		opts:    opts,
		logger:  slog.Default().With("component", "assistant-handler"),
	}
}

// Register mounts the API routes on mux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/v1/corpora", h.Corpora)
	mux.HandleFunc("GET /api/v1/{corpus}/ask", h.Ask)
	mux.HandleFunc("GET /api/v1/{corpus}/related", h.Related)
	mux.HandleFunc("GET /api/v1/{corpus}/overview", h.Overview)
	mux.HandleFunc("GET /api/v1/{corpus}/stats", h.Stats)
	mux.HandleFunc("GET /api/v1/{corpus}/cache/stats", h.CacheStats)
	mux.HandleFunc("POST /api/v1/{corpus}/cache/invalidate", h.CacheInvalidate)
	mux.HandleFunc("POST /api/v1/{corpus}/reload", h.Reload)
}

type matchView struct {
	ID        int    `json:"id"`
	Question  string `json:"question"`
	Score     int    `json:"score"`
	MatchKind string `json:"match_kind"`
}

type askResponse struct {
	Corpus     string            `json:"corpus"`
	Query      string            `json:"query"`
	Text       string            `json:"text"`
	Kind       string            `json:"kind"`
	Confidence int               `json:"confidence"`
	CacheHit   bool              `json:"cache_hit"`
	LatencyMs  float64           `json:"latency_ms"`
	Match      *matchView        `json:"match,omitempty"`
	Breakdown  *scorer.Breakdown `json:"breakdown,omitempty"`
}

func (h *Handler) Corpora(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]any{"corpora": h.engines.Names()})
}

// Ask serves GET /api/v1/{corpus}/ask?q=...&explain=true. Bad queries still
// get 200 with guidance text, matching what a chat widget expects.
func (h *Handler) Ask(w http.ResponseWriter, r *http.Request) {
	e, ok := h.engine(w, r)
	if !ok {
		return
	}
	query := r.URL.Query().Get("q")

	ans, err := resilience.Within(r.Context(), h.opts.AskTimeout, "ask", func(ctx context.Context) (assistant.Answer, error) {
		return e.Ask(ctx, query), nil
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}

	resp := askResponse{
		Corpus:     e.Name(),
		Query:      query,
		Text:       ans.Text,
		Kind:       string(ans.Kind),
		Confidence: ans.Confidence,
		CacheHit:   ans.CacheHit,
		LatencyMs:  float64(ans.Latency) / float64(time.Millisecond),
	}
	if ans.Match != nil {
		resp.Match = &matchView{
			ID:        ans.Match.Document.ID,
			Question:  ans.Match.Document.QuestionText,
			Score:     ans.Match.Score,
			MatchKind: ans.Match.Kind.String(),
		}
		if explain, _ := strconv.ParseBool(r.URL.Query().Get("explain")); explain {
			resp.Breakdown = ans.Breakdown
		}
	}
	h.writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) Related(w http.ResponseWriter, r *http.Request) {
	e, ok := h.engine(w, r)
	if !ok {
		return
	}
	limit, err := h.limit(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	items, err := e.Related(r.Context(), r.URL.Query().Get("q"), limit)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if items == nil {
		items = []assistant.RelatedItem{}
	}
	h.writeJSON(w, http.StatusOK, map[string]any{"corpus": e.Name(), "related": items})
}

func (h *Handler) Overview(w http.ResponseWriter, r *http.Request) {
	e, ok := h.engine(w, r)
	if !ok {
		return
	}
	limit, err := h.limit(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	ov, err := e.Overview(r.Context(), r.URL.Query().Get("q"), limit)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if ov.Items == nil {
		ov.Items = []assistant.OverviewItem{}
	}
	h.writeJSON(w, http.StatusOK, ov)
}

func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	e, ok := h.engine(w, r)
	if !ok {
		return
	}
	h.writeJSON(w, http.StatusOK, e.Stats())
}

func (h *Handler) CacheStats(w http.ResponseWriter, r *http.Request) {
	e, ok := h.engine(w, r)
	if !ok {
		return
	}
	hits, misses := e.CacheStats()
	total := hits + misses
	var hitRate float64
	if total > 0 {
		hitRate = float64(hits) / float64(total) * 100
	}
	h.writeJSON(w, http.StatusOK, map[string]any{
		"hits":     hits,
		"misses":   misses,
		"total":    total,
		"hit_rate": fmt.Sprintf("%.1f%%", hitRate),
	})
}

func (h *Handler) CacheInvalidate(w http.ResponseWriter, r *http.Request) {
	e, ok := h.engine(w, r)
	if !ok {
		return
	}
	if err := e.Invalidate(r.Context()); err != nil {
		h.fail(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]string{"status": "invalidated"})
}

// Reload serves POST /api/v1/{corpus}/reload. An empty body re-reads the
// corpus file; a JSON array of entries replaces the corpus outright.
func (h *Handler) Reload(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("corpus")
	entries, err := decodeEntries(r.Body)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	var idx *index.Index
	if entries != nil {
		idx, err = h.engines.Replace(r.Context(), name, entries)
	} else {
		idx, err = h.engines.Reload(r.Context(), name)
	}
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if h.opts.Announcer != nil {
		if err := h.opts.Announcer.Announce(r.Context(), name, entries); err != nil {
			logger.FromContext(r.Context()).Warn("reload not propagated", "corpus", name, "error", err)
		}
	}
	h.writeJSON(w, http.StatusOK, map[string]any{
		"corpus":    name,
		"documents": idx.Len(),
		"skipped":   idx.Skipped,
		"version":   idx.Version,
	})
}

func decodeEntries(body io.Reader) ([]index.RawDoc, error) {
	if body == nil {
		return nil, nil
	}
	data, err := io.ReadAll(io.LimitReader(body, maxReloadBody+1))
	if err != nil {
		return nil, fmt.Errorf("%w: reading body: %v", apperrors.ErrInvalidInput, err)
	}
	if len(data) > maxReloadBody {
		return nil, fmt.Errorf("%w: body exceeds %d bytes", apperrors.ErrInvalidInput, maxReloadBody)
	}
	if len(data) == 0 {
		return nil, nil
	}
	var entries []index.RawDoc
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("%w: %v", apperrors.ErrInvalidInput, err)
	}
	if entries == nil {
		entries = []index.RawDoc{}
	}
	return entries, nil
}

func (h *Handler) engine(w http.ResponseWriter, r *http.Request) (*assistant.Engine, bool) {
	e, err := h.engines.Get(r.PathValue("corpus"))
	if err != nil {
		h.fail(w, r, err)
		return nil, false
	}
	return e, true
}

func (h *Handler) limit(r *http.Request) (int, error) {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return h.opts.DefaultLimit, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return 0, apperrors.New(apperrors.ErrInvalidInput, http.StatusBadRequest, "limit must be a positive integer")
	}
	return n, nil
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	status := apperrors.HTTPStatusCode(err)
	if status >= http.StatusInternalServerError {
		logger.FromContext(r.Context()).Error("request failed", "path", r.URL.Path, "error", err)
	}
	h.writeJSON(w, status, map[string]string{"error": apperrors.PublicMessage(err)})
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("failed to write response", "error", err)
	}
}
