// Package answer turns a ranking outcome into a natural-language reply.
// Template choice is random for phrasing variety only; it never influences
// which document was selected.
package answer

import (
	"fmt"
	"math/rand/v2"
	"strings"
	"unicode/utf8"

	"github.com/Adithya-Monish-Kumar-K/Portfolio-Assistant/internal/indexer/index"
	"github.com/Adithya-Monish-Kumar-K/Portfolio-Assistant/internal/searcher/ranker"
	"github.com/Adithya-Monish-Kumar-K/Portfolio-Assistant/internal/searcher/scorer"
)

// Kind classifies a synthesized response.
type Kind string

const (
	KindAnswered    Kind = "answered"
	KindSuggestions Kind = "suggestions"
	KindGeneric     Kind = "generic"
	KindInvalid     Kind = "invalid"
)

// Reason explains why a query was rejected before scoring.
type Reason int

const (
	ReasonEmpty Reason = iota
	ReasonTooLong
	ReasonTooShort
)

// Response is a synthesized reply.
type Response struct {
	Text       string `json:"text"`
	Kind       Kind   `json:"kind"`
	Confidence int    `json:"confidence"`
}

// Picker returns an index in [0, n).
type Picker func(n int) int

// Config holds the synthesizer's thresholds.
type Config struct {
	SuccessScore   int
	MaxConfidence  int
	PreviewLength  int
	MaxSuggestions int
	MaxQueryLength int
}

func DefaultConfig() Config {
	return Config{
		SuccessScore:   60,
		MaxConfidence:  98,
		PreviewLength:  150,
		MaxSuggestions: 3,
		MaxQueryLength: 500,
	}
}

var answeredTemplates = []string{
	"%[1]s\n\n(Relevansi %[2]d%%, jawaban #%[3]d)",
	"Berdasarkan entri #%[3]d: %[1]s\n\nTingkat kecocokan: %[2]d%%",
	"Ini yang saya temukan (%[2]d%% relevan):\n%[1]s\n\nSumber: pertanyaan #%[3]d",
	"Jawaban terbaik yang cocok dengan pertanyaan Anda:\n%[1]s\n\n[#%[3]d, relevansi %[2]d%%]",
}

var suggestionHeaders = []string{
	"Saya belum menemukan jawaban yang pasti, tapi mungkin ini membantu:",
	"Belum ada jawaban yang benar-benar cocok. Coba lihat topik terkait berikut:",
	"Mungkin yang Anda maksud salah satu dari ini:",
}

var genericTemplates = []string{
	"Maaf, saya belum menemukan jawaban untuk pertanyaan itu. Coba gunakan kata kunci lain, misalnya \"proyek\", \"kontak\", atau \"streaming\".",
	"Pertanyaan Anda belum ada di basis pengetahuan saya. Coba ulangi dengan istilah yang lebih umum atau lebih spesifik.",
	"Hmm, saya tidak menemukan topik yang cocok. Anda bisa bertanya tentang pengalaman, proyek, atau cara menghubungi saya.",
}

type Synthesizer struct {
	cfg  Config
	pick Picker
}

// New creates a Synthesizer. A nil picker uses math/rand/v2.
func New(cfg Config, pick Picker) *Synthesizer {
	if pick == nil {
		pick = rand.IntN
	}
	return &Synthesizer{cfg: cfg, pick: pick}
}

// Synthesize renders the reply for q. A confident match is answered
// directly; otherwise up to MaxSuggestions fallback documents are listed;
// otherwise a generic hint is returned.
func (s *Synthesizer) Synthesize(q scorer.Query, match *ranker.ScoredMatch, fallback []*index.Document) Response {
	if match != nil && match.Document != nil && match.Score > s.cfg.SuccessScore {
		confidence := ranker.Confidence(match.Score, s.cfg.MaxConfidence)
		tmpl := answeredTemplates[s.choose(len(answeredTemplates))]
		return Response{
			Text:       fmt.Sprintf(tmpl, match.Document.AnswerText, confidence, match.Document.ID+1),
			Kind:       KindAnswered,
			Confidence: confidence,
		}
	}

	if len(fallback) > 0 {
		n := min(len(fallback), s.cfg.MaxSuggestions)
		var b strings.Builder
		b.WriteString(suggestionHeaders[s.choose(len(suggestionHeaders))])
		for i, d := range fallback[:n] {
			fmt.Fprintf(&b, "\n\n%d. %s\n   %s", i+1, d.QuestionText, Preview(d.AnswerText, s.cfg.PreviewLength))
		}
		resp := Response{Text: b.String(), Kind: KindSuggestions}
		if match != nil {
			resp.Confidence = ranker.Confidence(match.Score, s.cfg.MaxConfidence)
		}
		return resp
	}

	return Response{
		Text: genericTemplates[s.choose(len(genericTemplates))],
		Kind: KindGeneric,
	}
}

// Invalid returns the guidance reply for a rejected query.
func (s *Synthesizer) Invalid(reason Reason) Response {
	var text string
	switch reason {
	case ReasonTooLong:
		text = fmt.Sprintf("Pertanyaan Anda terlalu panjang. Mohon persingkat menjadi maksimal %d karakter.", s.cfg.MaxQueryLength)
	case ReasonTooShort:
		text = "Pertanyaan Anda terlalu pendek. Coba tuliskan setidaknya satu kata kunci."
	default:
		text = "Silakan ketik pertanyaan Anda terlebih dahulu, misalnya \"Apa saja proyek yang pernah dibuat?\"."
	}
	return Response{Text: text, Kind: KindInvalid}
}

func (s *Synthesizer) choose(n int) int {
	i := s.pick(n)
	if i < 0 || i >= n {
		return 0
	}
	return i
}

// Preview truncates text to at most limit runes, appending "..." when cut.
func Preview(text string, limit int) string {
	text = strings.TrimSpace(text)
	if limit <= 0 || utf8.RuneCountInString(text) <= limit {
		return text
	}
	runes := []rune(text)
	return strings.TrimRight(string(runes[:limit]), " ") + "..."
}
