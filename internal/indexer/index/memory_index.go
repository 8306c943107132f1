package index

import "sort"

// Index is the read-only result of indexing one corpus.
type Index struct {
	Corpus    string
	Version   string
	Documents []*Document
	Skipped   int
	byID      map[int]*Document
}

// New builds an Index over docs, which must be ordered by ID.
func New(corpus, version string, docs []*Document, skipped int) *Index {
	byID := make(map[int]*Document, len(docs))
	for _, d := range docs {
		byID[d.ID] = d
	}
	return &Index{
		Corpus:    corpus,
		Version:   version,
		Documents: docs,
		Skipped:   skipped,
		byID:      byID,
	}
}

// Get returns the document with the given ID.
func (i *Index) Get(id int) (*Document, bool) {
	d, ok := i.byID[id]
	return d, ok
}

// Len returns the number of indexed documents.
func (i *Index) Len() int {
	return len(i.Documents)
}

// Categories returns the sorted set of categories across all documents.
func (i *Index) Categories() []string {
	seen := make(map[string]struct{})
	for _, d := range i.Documents {
		for c := range d.Categories {
			seen[c] = struct{}{}
		}
	}
	out := make([]string, 0, len(seen))
	for c := range seen {
		out = append(out, c)
	}
	sort.Strings(out)
	return out
}
