// Package ranker orders scored documents and selects the best match for a
// query. Selection is fully deterministic: ties are broken by answer length
// and then by document ID.
package ranker

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/Adithya-Monish-Kumar-K/Portfolio-Assistant/internal/indexer/index"
	"github.com/Adithya-Monish-Kumar-K/Portfolio-Assistant/internal/searcher/scorer"
)

// MatchKind records which pass produced a match.
type MatchKind int

const (
	MatchDirect MatchKind = iota
	MatchHeuristic
)

func (k MatchKind) String() string {
	switch k {
	case MatchDirect:
		return "direct"
	case MatchHeuristic:
		return "heuristic"
	default:
		return "unknown"
	}
}

func (k MatchKind) MarshalJSON() ([]byte, error) {
	return json.Marshal(k.String())
}

// ParseMatchKind is the inverse of MatchKind.String.
func ParseMatchKind(s string) (MatchKind, error) {
	switch s {
	case "direct":
		return MatchDirect, nil
	case "heuristic":
		return MatchHeuristic, nil
	default:
		return 0, fmt.Errorf("unknown match kind %q", s)
	}
}

// ScoredMatch is a document paired with its score. It is not persisted.
type ScoredMatch struct {
	Document *index.Document
	Score    int
	Kind     MatchKind
}

// Related is a document sharing a category with the best match.
type Related struct {
	Document  *index.Document
	Score     int
	Relevance int
}

// Config holds the ranker's thresholds.
type Config struct {
	MinScore       int
	DirectScore    int
	MinQueryLength int
	MaxConfidence  int
}

// DefaultConfig returns the FAQ assistant's thresholds.
func DefaultConfig() Config {
	return Config{
		MinScore:       30,
		DirectScore:    200,
		MinQueryLength: 2,
		MaxConfidence:  98,
	}
}

type Ranker struct {
	scorer *scorer.Scorer
	cfg    Config
}

func New(s *scorer.Scorer, cfg Config) *Ranker {
	return &Ranker{scorer: s, cfg: cfg}
}

// SelectBestMatch returns the single best document for q, or nil when the
// query is too short, the corpus is empty, or nothing clears MinScore.
// A literal substring hit in any document short-circuits heuristic scoring.
func (r *Ranker) SelectBestMatch(q scorer.Query, docs []*index.Document) *ScoredMatch {
	if !r.Searchable(q) || len(docs) == 0 {
		return nil
	}
	if direct := r.directMatches(q, docs); len(direct) > 0 {
		m := direct[0]
		return &m
	}
	candidates := r.heuristicMatches(q, docs, nil)
	if len(candidates) == 0 {
		return nil
	}
	m := candidates[0]
	return &m
}

// Rank returns a ranked shortlist: direct matches first, then heuristic
// matches above MinScore. limit <= 0 returns every candidate.
func (r *Ranker) Rank(q scorer.Query, docs []*index.Document, limit int) []ScoredMatch {
	if !r.Searchable(q) || len(docs) == 0 {
		return nil
	}
	direct := r.directMatches(q, docs)
	exclude := make(map[int]struct{}, len(direct))
	for _, m := range direct {
		exclude[m.Document.ID] = struct{}{}
	}
	ranked := append(direct, r.heuristicMatches(q, docs, exclude)...)
	if limit > 0 && len(ranked) > limit {
		ranked = ranked[:limit]
	}
	return ranked
}

// FallbackCandidates is a plain substring filter: documents whose question or
// answer contains any query token, in ID order.
func (r *Ranker) FallbackCandidates(q scorer.Query, docs []*index.Document, limit int) []*index.Document {
	if len(q.Tokens) == 0 {
		return nil
	}
	out := make([]*index.Document, 0)
	for _, d := range docs {
		for _, tok := range q.Tokens {
			if d.ContainsText(tok) {
				out = append(out, d)
				break
			}
		}
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out
}

// Related returns documents sharing at least one category with best,
// excluding best itself, ordered by relevance.
func (r *Ranker) Related(q scorer.Query, best *ScoredMatch, docs []*index.Document, limit int) []Related {
	if best == nil || best.Document == nil {
		return nil
	}
	out := make([]Related, 0)
	for _, d := range docs {
		if d.ID == best.Document.ID || !d.SharesCategory(best.Document) {
			continue
		}
		score := r.scorer.Score(q, d)
		out = append(out, Related{
			Document:  d,
			Score:     score,
			Relevance: Confidence(score, r.cfg.MaxConfidence),
		})
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Relevance != out[j].Relevance {
			return out[i].Relevance > out[j].Relevance
		}
		return less(out[i].Document, out[j].Document)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

// Searchable reports whether q is long enough to be scored.
func (r *Ranker) Searchable(q scorer.Query) bool {
	return utf8.RuneCountInString(strings.TrimSpace(q.Normalized)) >= r.cfg.MinQueryLength
}

// Config returns the ranker's thresholds.
func (r *Ranker) Config() Config {
	return r.cfg
}

func (r *Ranker) directMatches(q scorer.Query, docs []*index.Document) []ScoredMatch {
	out := make([]ScoredMatch, 0)
	for _, d := range docs {
		if d.ContainsText(q.Normalized) {
			out = append(out, ScoredMatch{Document: d, Score: r.cfg.DirectScore, Kind: MatchDirect})
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return less(out[i].Document, out[j].Document)
	})
	return out
}

func (r *Ranker) heuristicMatches(q scorer.Query, docs []*index.Document, exclude map[int]struct{}) []ScoredMatch {
	out := make([]ScoredMatch, 0)
	for _, d := range docs {
		if _, skip := exclude[d.ID]; skip {
			continue
		}
		score := r.scorer.Score(q, d)
		if score <= r.cfg.MinScore {
			continue
		}
		out = append(out, ScoredMatch{Document: d, Score: score, Kind: MatchHeuristic})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		return less(out[i].Document, out[j].Document)
	})
	return out
}

// less prefers the shorter answer, then the lower ID.
func less(a, b *index.Document) bool {
	if a.AnswerLength != b.AnswerLength {
		return a.AnswerLength < b.AnswerLength
	}
	return a.ID < b.ID
}

// Confidence maps a score to the user-facing relevance percentage,
// score/2 capped at ceiling.
func Confidence(score, ceiling int) int {
	c := score / 2
	if c > ceiling {
		return ceiling
	}
	if c < 0 {
		return 0
	}
	return c
}
