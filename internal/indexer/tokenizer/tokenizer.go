// Package tokenizer turns free text into normalized keyword tokens. It
// lower-cases input, splits on runs of non-alphanumeric characters, and drops
// short tokens and stop-words.
package tokenizer

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// DefaultMinLength is the shortest token kept; anything of two runes or
// fewer is discarded.
const DefaultMinLength = 3

// DefaultStopwords holds the Indonesian and English function words the
// portfolio corpora are written in.
var DefaultStopwords = []string{
	// Indonesian
	"yang", "dan", "di", "ke", "dari", "untuk", "dengan", "ini", "itu",
	"apa", "ada", "adalah", "atau", "pada", "juga", "saya", "anda", "kamu",
	"bisa", "akan", "tidak", "bagaimana", "kenapa", "mengapa", "siapa",
	"kapan", "dimana", "mana", "sudah", "belum", "dalam", "oleh", "karena",
	"jika", "kalau", "agar", "supaya", "tentang", "seperti", "lebih", "sangat",
	"saja", "hanya", "masih", "para", "kami", "kita", "mereka", "nya", "pun",
	"lah", "kah", "tersebut", "bahwa", "secara",
	// English
	"the", "and", "are", "for", "from", "has", "have", "had", "its", "that",
	"this", "was", "were", "will", "with", "but", "they", "what", "when",
	"where", "who", "which", "their", "each", "not", "can", "how", "why",
	"you", "your", "about", "does", "did",
}

// Tokenizer splits text into keyword tokens using a configurable stop-word
// set. It is immutable after construction and safe for concurrent use.
type Tokenizer struct {
	stopwords map[string]struct{}
	minLength int
}

// New creates a Tokenizer. minLength below 1 falls back to DefaultMinLength.
func New(stopwords []string, minLength int) *Tokenizer {
	if minLength < 1 {
		minLength = DefaultMinLength
	}
	set := make(map[string]struct{}, len(stopwords))
	for _, w := range stopwords {
		w = strings.ToLower(strings.TrimSpace(w))
		if w != "" {
			set[w] = struct{}{}
		}
	}
	return &Tokenizer{stopwords: set, minLength: minLength}
}

// Default returns a Tokenizer using DefaultStopwords.
func Default() *Tokenizer {
	return New(DefaultStopwords, DefaultMinLength)
}

// Tokenize breaks text into an ordered slice of lower-cased tokens with
// short words and stop-words removed. Duplicates are preserved.
func (t *Tokenizer) Tokenize(text string) []string {
	words := strings.FieldsFunc(strings.ToLower(text), isSeparator)
	tokens := make([]string, 0, len(words))
	for _, word := range words {
		if utf8.RuneCountInString(word) < t.minLength {
			continue
		}
		if t.IsStopword(word) {
			continue
		}
		tokens = append(tokens, word)
	}
	return tokens
}

// Keywords returns the deduplicated token set of text.
func (t *Tokenizer) Keywords(text string) map[string]struct{} {
	tokens := t.Tokenize(text)
	set := make(map[string]struct{}, len(tokens))
	for _, tok := range tokens {
		set[tok] = struct{}{}
	}
	return set
}

// IsStopword reports whether word (already lower-cased) is filtered.
func (t *Tokenizer) IsStopword(word string) bool {
	_, ok := t.stopwords[word]
	return ok
}

func isSeparator(r rune) bool {
	return !unicode.IsLetter(r) && !unicode.IsDigit(r)
}
