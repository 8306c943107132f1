// Package index defines the raw corpus records supplied by the host and the
// immutable, keyword-enriched documents the answer engine scores.
package index

import (
	"strings"
	"unicode/utf8"
)

// RawDoc is one host-supplied corpus entry. FAQ entries fill Question and
// Answer; blog articles fill Title, Content and the optional metadata.
type RawDoc struct {
	Question string   `json:"question,omitempty"`
	Answer   string   `json:"answer,omitempty"`
	Title    string   `json:"title,omitempty"`
	Content  string   `json:"content,omitempty"`
	Author   string   `json:"author,omitempty"`
	Date     string   `json:"date,omitempty"`
	Tags     []string `json:"tags,omitempty"`
}

// QuestionText returns the question, or the title for articles.
func (r RawDoc) QuestionText() string {
	if strings.TrimSpace(r.Question) != "" {
		return r.Question
	}
	return r.Title
}

// AnswerText returns the answer, or the content for articles.
func (r RawDoc) AnswerText() string {
	if strings.TrimSpace(r.Answer) != "" {
		return r.Answer
	}
	return r.Content
}

// Corpus is an in-memory document set. Its pointer identity is the unit of
// memoization: a new corpus value means a new index.
type Corpus struct {
	Name    string
	Entries []RawDoc
}

// Document is an indexed corpus entry. It is never mutated after indexing.
type Document struct {
	ID              int
	QuestionText    string
	AnswerText      string
	DerivedKeywords map[string]struct{}
	AnswerKeywords  map[string]struct{}
	Categories      map[string]struct{}
	AnswerLength    int
	Author          string
	Date            string
	Tags            []string

	questionLower string
	answerLower   string
}

// NewDocument assembles a Document and precomputes its lower-cased text.
func NewDocument(id int, raw RawDoc, derived, answerKeywords, categories map[string]struct{}) *Document {
	question := strings.TrimSpace(raw.QuestionText())
	answer := strings.TrimSpace(raw.AnswerText())
	return &Document{
		ID:              id,
		QuestionText:    question,
		AnswerText:      answer,
		DerivedKeywords: nonNil(derived),
		AnswerKeywords:  nonNil(answerKeywords),
		Categories:      nonNil(categories),
		AnswerLength:    utf8.RuneCountInString(answer),
		Author:          raw.Author,
		Date:            raw.Date,
		Tags:            raw.Tags,
		questionLower:   strings.ToLower(question),
		answerLower:     strings.ToLower(answer),
	}
}

// QuestionLower returns the lower-cased question text.
func (d *Document) QuestionLower() string { return d.questionLower }

// AnswerLower returns the lower-cased answer text.
func (d *Document) AnswerLower() string { return d.answerLower }

// ContainsText reports whether the lower-cased question or answer contains
// the already-normalized needle.
func (d *Document) ContainsText(needle string) bool {
	return strings.Contains(d.questionLower, needle) || strings.Contains(d.answerLower, needle)
}

// HasCategory reports whether the document is tagged with category.
func (d *Document) HasCategory(category string) bool {
	_, ok := d.Categories[category]
	return ok
}

// SharesCategory reports whether d and other have at least one category in
// common.
func (d *Document) SharesCategory(other *Document) bool {
	for c := range d.Categories {
		if other.HasCategory(c) {
			return true
		}
	}
	return false
}

func nonNil(m map[string]struct{}) map[string]struct{} {
	if m == nil {
		return map[string]struct{}{}
	}
	return m
}
