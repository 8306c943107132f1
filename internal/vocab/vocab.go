// Package vocab holds the static vocabulary the answer engine scores with:
// stop-words, synonym groups keyed by category, category triggers used while
// indexing, and context triggers used while scoring.
package vocab

import (
	"fmt"
	"os"
	"strings"

	apperrors "github.com/Adithya-Monish-Kumar-K/Portfolio-Assistant/pkg/errors"
	"gopkg.in/yaml.v3"
)

// SynonymGroup is a canonical term plus alternate surface forms. The
// canonical term names a document category.
type SynonymGroup struct {
	Canonical string   `yaml:"canonical"`
	Members   []string `yaml:"members"`
}

// CategoryTrigger tags a document with Category when Term occurs in its
// question or answer text.
type CategoryTrigger struct {
	Term     string `yaml:"term"`
	Category string `yaml:"category"`
}

// ContextTrigger awards a bonus when Term occurs in the query and the
// document carries Category.
type ContextTrigger struct {
	Term     string `yaml:"term"`
	Category string `yaml:"category"`
}

// Table is the complete vocabulary for one corpus. It is read-only once
// loaded.
type Table struct {
	Stopwords        []string          `yaml:"stopwords"`
	Synonyms         []SynonymGroup    `yaml:"synonyms"`
	CategoryTriggers []CategoryTrigger `yaml:"categoryTriggers"`
	ContextTriggers  []ContextTrigger  `yaml:"contextTriggers"`
}

// LoadFile reads and validates a YAML vocabulary file.
func LoadFile(path string) (*Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading vocabulary %s: %w", path, err)
	}
	t, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("loading vocabulary %s: %w", path, err)
	}
	return t, nil
}

// Parse decodes a YAML vocabulary, normalizes it to lower case and
// validates it.
func Parse(data []byte) (*Table, error) {
	var t Table
	if err := yaml.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("%w: parsing vocabulary: %v", apperrors.ErrInvalidConfig, err)
	}
	t.normalize()
	if err := t.Validate(); err != nil {
		return nil, err
	}
	return &t, nil
}

// Validate rejects duplicate canonical keys, empty member lists and blank
// trigger entries.
func (t *Table) Validate() error {
	seen := make(map[string]struct{}, len(t.Synonyms))
	for i, g := range t.Synonyms {
		if g.Canonical == "" {
			return fmt.Errorf("%w: synonym group %d has no canonical term", apperrors.ErrInvalidConfig, i)
		}
		if _, dup := seen[g.Canonical]; dup {
			return fmt.Errorf("%w: duplicate synonym canonical %q", apperrors.ErrInvalidConfig, g.Canonical)
		}
		seen[g.Canonical] = struct{}{}
		if len(g.Members) == 0 {
			return fmt.Errorf("%w: synonym group %q has no members", apperrors.ErrInvalidConfig, g.Canonical)
		}
		for _, m := range g.Members {
			if m == "" {
				return fmt.Errorf("%w: synonym group %q has a blank member", apperrors.ErrInvalidConfig, g.Canonical)
			}
		}
	}
	for i, tr := range t.CategoryTriggers {
		if tr.Term == "" || tr.Category == "" {
			return fmt.Errorf("%w: category trigger %d is incomplete", apperrors.ErrInvalidConfig, i)
		}
	}
	for i, tr := range t.ContextTriggers {
		if tr.Term == "" || tr.Category == "" {
			return fmt.Errorf("%w: context trigger %d is incomplete", apperrors.ErrInvalidConfig, i)
		}
	}
	return nil
}

func (t *Table) normalize() {
	for i := range t.Stopwords {
		t.Stopwords[i] = norm(t.Stopwords[i])
	}
	for i := range t.Synonyms {
		g := &t.Synonyms[i]
		g.Canonical = norm(g.Canonical)
		for j := range g.Members {
			g.Members[j] = norm(g.Members[j])
		}
	}
	for i := range t.CategoryTriggers {
		t.CategoryTriggers[i].Term = norm(t.CategoryTriggers[i].Term)
		t.CategoryTriggers[i].Category = norm(t.CategoryTriggers[i].Category)
	}
	for i := range t.ContextTriggers {
		t.ContextTriggers[i].Term = norm(t.ContextTriggers[i].Term)
		t.ContextTriggers[i].Category = norm(t.ContextTriggers[i].Category)
	}
}

func norm(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
