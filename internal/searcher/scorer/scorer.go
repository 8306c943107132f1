// Package scorer computes the additive relevance score of a document for a
// query. Every factor is a non-negative bonus; there are no penalties.
package scorer

import (
	"slices"
	"strings"

	"github.com/Adithya-Monish-Kumar-K/Portfolio-Assistant/internal/indexer/index"
	"github.com/Adithya-Monish-Kumar-K/Portfolio-Assistant/internal/vocab"
)

// Weights holds every bonus and cut-off the scorer applies.
type Weights struct {
	QuestionSubstring int
	AnswerSubstring   int
	QuestionKeyword   int
	AnswerKeyword     int
	PrefixQuestion    int
	PrefixAnswer      int
	PrefixMinLength   int
	PrefixRatio       float64
	SynonymToken      int
	SynonymSubstring  int
	Context           int
	Brevity           int
	BrevityMaxTokens  int
	BrevityMaxAnswer  int
}

// DefaultWeights returns the hand-tuned weights of the FAQ assistant.
func DefaultWeights() Weights {
	return Weights{
		QuestionSubstring: 150,
		AnswerSubstring:   100,
		QuestionKeyword:   40,
		AnswerKeyword:     20,
		PrefixQuestion:    15,
		PrefixAnswer:      10,
		PrefixMinLength:   4,
		PrefixRatio:       0.7,
		SynonymToken:      25,
		SynonymSubstring:  30,
		Context:           35,
		Brevity:           20,
		BrevityMaxTokens:  3,
		BrevityMaxAnswer:  500,
	}
}

// Breakdown is the per-factor contribution to a score.
type Breakdown struct {
	Exact   int `json:"exact"`
	Keyword int `json:"keyword"`
	Prefix  int `json:"prefix"`
	Synonym int `json:"synonym"`
	Context int `json:"context"`
	Brevity int `json:"brevity"`
}

// Total sums all factors.
func (b Breakdown) Total() int {
	return b.Exact + b.Keyword + b.Prefix + b.Synonym + b.Context + b.Brevity
}

// Scorer is stateless apart from its configuration and safe for concurrent
// use.
type Scorer struct {
	weights  Weights
	synonyms []vocab.SynonymGroup
	context  []vocab.ContextTrigger
}

// New creates a Scorer using the synonym groups and context triggers of
// table. A nil table disables both bonuses.
func New(w Weights, table *vocab.Table) *Scorer {
	s := &Scorer{weights: w}
	if table != nil {
		s.synonyms = table.Synonyms
		s.context = table.ContextTriggers
	}
	return s
}

// Weights returns the scorer's configuration.
func (s *Scorer) Weights() Weights {
	return s.weights
}

// Score returns the relevance of doc for q. It is always >= 0.
func (s *Scorer) Score(q Query, doc *index.Document) int {
	return s.Explain(q, doc).Total()
}

// Explain returns the factor breakdown behind Score.
func (s *Scorer) Explain(q Query, doc *index.Document) Breakdown {
	return Breakdown{
		Exact:   s.exact(q, doc),
		Keyword: s.keyword(q, doc),
		Prefix:  s.prefix(q, doc),
		Synonym: s.synonym(q, doc),
		Context: s.contextual(q, doc),
		Brevity: s.brevity(q, doc),
	}
}

func (s *Scorer) exact(q Query, doc *index.Document) int {
	if q.Normalized == "" {
		return 0
	}
	score := 0
	if strings.Contains(doc.QuestionLower(), q.Normalized) {
		score += s.weights.QuestionSubstring
	}
	if strings.Contains(doc.AnswerLower(), q.Normalized) {
		score += s.weights.AnswerSubstring
	}
	return score
}

func (s *Scorer) keyword(q Query, doc *index.Document) int {
	score := 0
	for _, tok := range q.Tokens {
		if _, ok := doc.DerivedKeywords[tok]; ok {
			score += s.weights.QuestionKeyword
		}
		if _, ok := doc.AnswerKeywords[tok]; ok {
			score += s.weights.AnswerKeyword
		}
	}
	return score
}

// prefix awards partial matches: for each long token, every keyword that
// contains its leading PrefixRatio share counts once.
func (s *Scorer) prefix(q Query, doc *index.Document) int {
	score := 0
	for _, tok := range q.Tokens {
		p, ok := s.stem(tok)
		if !ok {
			continue
		}
		score += s.weights.PrefixQuestion * countContaining(doc.DerivedKeywords, p)
		score += s.weights.PrefixAnswer * countContaining(doc.AnswerKeywords, p)
	}
	return score
}

func (s *Scorer) stem(tok string) (string, bool) {
	runes := []rune(tok)
	if len(runes) <= s.weights.PrefixMinLength {
		return "", false
	}
	n := int(float64(len(runes)) * s.weights.PrefixRatio)
	if n <= 0 {
		return "", false
	}
	return string(runes[:n]), true
}

func (s *Scorer) synonym(q Query, doc *index.Document) int {
	score := 0
	for _, g := range s.synonyms {
		if !doc.HasCategory(g.Canonical) {
			continue
		}
		if anyTokenIn(q.Tokens, g.Members) {
			score += s.weights.SynonymToken
		}
		if anySubstring(q.Normalized, g.Members) {
			score += s.weights.SynonymSubstring
		}
	}
	return score
}

func (s *Scorer) contextual(q Query, doc *index.Document) int {
	if q.Normalized == "" {
		return 0
	}
	score := 0
	for _, tr := range s.context {
		if !doc.HasCategory(tr.Category) {
			continue
		}
		if mentions(q, tr.Term) {
			score += s.weights.Context
		}
	}
	return score
}

// mentions matches a single-word term against whole query tokens so "obs"
// does not fire on "jobs". Phrases fall back to a substring test.
func mentions(q Query, term string) bool {
	if strings.ContainsRune(term, ' ') {
		return strings.Contains(q.Normalized, term)
	}
	return slices.Contains(q.Tokens, term)
}

func (s *Scorer) brevity(q Query, doc *index.Document) int {
	if len(q.Tokens) <= s.weights.BrevityMaxTokens && doc.AnswerLength < s.weights.BrevityMaxAnswer {
		return s.weights.Brevity
	}
	return 0
}

func countContaining(set map[string]struct{}, sub string) int {
	n := 0
	for kw := range set {
		if strings.Contains(kw, sub) {
			n++
		}
	}
	return n
}

func anyTokenIn(tokens, members []string) bool {
	for _, tok := range tokens {
		for _, m := range members {
			if tok == m {
				return true
			}
		}
	}
	return false
}

func anySubstring(text string, members []string) bool {
	if text == "" {
		return false
	}
	for _, m := range members {
		if strings.Contains(text, m) {
			return true
		}
	}
	return false
}
