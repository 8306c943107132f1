package scorer

import (
	"strings"

	"github.com/Adithya-Monish-Kumar-K/Portfolio-Assistant/internal/indexer/tokenizer"
)

// Query is a normalized user query. It is created per request and never
// shared.
type Query struct {
	Raw        string
	Normalized string
	Tokens     []string
}

// NewQuery lower-cases and trims raw and tokenizes it with tok.
func NewQuery(raw string, tok *tokenizer.Tokenizer) Query {
	normalized := strings.ToLower(strings.TrimSpace(raw))
	return Query{
		Raw:        raw,
		Normalized: normalized,
		Tokens:     tok.Tokenize(normalized),
	}
}
