// Package loader reads FAQ and blog corpora from JSON files into the raw
// document shape the indexer consumes.
package loader

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/Adithya-Monish-Kumar-K/Portfolio-Assistant/internal/indexer/index"
	apperrors "github.com/Adithya-Monish-Kumar-K/Portfolio-Assistant/pkg/errors"
)

const (
	KindFAQ  = "faq"
	KindBlog = "blog"

	maxCorpusBytes = 32 << 20
)

// FAQEntry is one element of a FAQ file: [{"question": ..., "answer": ...}].
type FAQEntry struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

// BlogPost is one element of a blog file.
type BlogPost struct {
	Title   string   `json:"title"`
	Content string   `json:"content"`
	Author  string   `json:"author"`
	Date    string   `json:"date"`
	Tags    []string `json:"tags"`
}

// LoadFile reads the corpus at path. Entries with missing fields are kept;
// the indexer skips and counts them.
func LoadFile(name, kind, path string) (*index.Corpus, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening corpus %s: %w", name, err)
	}
	defer f.Close()
	c, err := Decode(name, kind, f)
	if err != nil {
		return nil, fmt.Errorf("loading corpus %s from %s: %w", name, path, err)
	}
	return c, nil
}

// Decode parses a JSON array of FAQ entries or blog posts.
func Decode(name, kind string, r io.Reader) (*index.Corpus, error) {
	data, err := io.ReadAll(io.LimitReader(r, maxCorpusBytes+1))
	if err != nil {
		return nil, err
	}
	if len(data) > maxCorpusBytes {
		return nil, fmt.Errorf("%w: corpus exceeds %d bytes", apperrors.ErrInvalidInput, maxCorpusBytes)
	}

	var entries []index.RawDoc
	switch strings.ToLower(kind) {
	case KindFAQ:
		var faq []FAQEntry
		if err := unmarshal(data, &faq); err != nil {
			return nil, err
		}
		entries = make([]index.RawDoc, 0, len(faq))
		for _, e := range faq {
			entries = append(entries, index.RawDoc{Question: e.Question, Answer: e.Answer})
		}
	case KindBlog:
		var posts []BlogPost
		if err := unmarshal(data, &posts); err != nil {
			return nil, err
		}
		entries = make([]index.RawDoc, 0, len(posts))
		for _, p := range posts {
			entries = append(entries, index.RawDoc{
				Title:   p.Title,
				Content: p.Content,
				Author:  p.Author,
				Date:    p.Date,
				Tags:    p.Tags,
			})
		}
	default:
		return nil, fmt.Errorf("%w: unknown corpus kind %q", apperrors.ErrInvalidInput, kind)
	}
	return &index.Corpus{Name: name, Entries: entries}, nil
}

func unmarshal(data []byte, dst any) error {
	err := json.Unmarshal(data, dst)
	if err == nil {
		return nil
	}
	var syntaxErr *json.SyntaxError
	if errors.As(err, &syntaxErr) {
		return fmt.Errorf("%w: malformed JSON at offset %d: %v", apperrors.ErrInvalidInput, syntaxErr.Offset, err)
	}
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) {
		return fmt.Errorf("%w: expected a JSON array of entries: %v", apperrors.ErrInvalidInput, err)
	}
	return fmt.Errorf("%w: %v", apperrors.ErrInvalidInput, err)
}
