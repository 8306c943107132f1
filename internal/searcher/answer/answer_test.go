package answer

import (
	"strings"
	"testing"

	"github.com/Adithya-Monish-Kumar-K/Portfolio-Assistant/internal/indexer/index"
	"github.com/Adithya-Monish-Kumar-K/Portfolio-Assistant/internal/indexer/tokenizer"
	"github.com/Adithya-Monish-Kumar-K/Portfolio-Assistant/internal/searcher/ranker"
	"github.com/Adithya-Monish-Kumar-K/Portfolio-Assistant/internal/searcher/scorer"
)

func doc(id int, q, a string) *index.Document {
	return index.NewDocument(id, index.RawDoc{Question: q, Answer: a}, nil, nil, nil)
}

func fixed(i int) Picker {
	return func(int) int { return i }
}

var q = scorer.NewQuery("proyek streaming", tokenizer.Default())

func TestConfidentMatchIsAnswered(t *testing.T) {
	d := doc(4, "Proyek apa saja?", "Demo streaming dan portofolio.")
	for i := range answeredTemplates {
		s := New(DefaultConfig(), fixed(i))
		resp := s.Synthesize(q, &ranker.ScoredMatch{Document: d, Score: 200, Kind: ranker.MatchDirect}, nil)
		if resp.Kind != KindAnswered {
			t.Fatalf("template %d: kind = %s", i, resp.Kind)
		}
		if resp.Confidence != 98 {
			t.Errorf("template %d: confidence = %d, want 98", i, resp.Confidence)
		}
		if strings.Contains(resp.Text, "FAQ") {
			t.Errorf("template %d names a corpus kind but serves every corpus: %q", i, resp.Text)
		}
		for _, want := range []string{"Demo streaming dan portofolio.", "98%", "#5"} {
			if !strings.Contains(resp.Text, want) {
				t.Errorf("template %d: %q missing from %q", i, want, resp.Text)
			}
		}
	}
}

func TestConfidenceIsHalfScore(t *testing.T) {
	s := New(DefaultConfig(), fixed(0))
	resp := s.Synthesize(q, &ranker.ScoredMatch{Document: doc(0, "q", "a"), Score: 61, Kind: ranker.MatchHeuristic}, nil)
	if resp.Kind != KindAnswered || resp.Confidence != 30 {
		t.Errorf("got %s/%d, want answered/30", resp.Kind, resp.Confidence)
	}
}

func TestWeakMatchFallsBackToSuggestions(t *testing.T) {
	long := strings.Repeat("kata ", 60)
	fallback := []*index.Document{
		doc(0, "Pertanyaan satu", "Jawaban pendek."),
		doc(1, "Pertanyaan dua", long),
		doc(2, "Pertanyaan tiga", "Tiga."),
		doc(3, "Pertanyaan empat", "Empat."),
	}
	s := New(DefaultConfig(), fixed(0))
	resp := s.Synthesize(q, &ranker.ScoredMatch{Document: fallback[0], Score: 60}, fallback)
	if resp.Kind != KindSuggestions {
		t.Fatalf("score 60 must not be answered, got %s", resp.Kind)
	}
	if resp.Confidence != 30 {
		t.Errorf("confidence = %d, want 30", resp.Confidence)
	}
	for _, want := range []string{"Pertanyaan satu", "Pertanyaan dua", "Pertanyaan tiga", "Jawaban pendek.", "..."} {
		if !strings.Contains(resp.Text, want) {
			t.Errorf("%q missing from suggestions", want)
		}
	}
	if strings.Contains(resp.Text, "Pertanyaan empat") {
		t.Error("at most three suggestions may be listed")
	}
}

func TestNoMatchNoFallbackIsGeneric(t *testing.T) {
	for i := range genericTemplates {
		resp := New(DefaultConfig(), fixed(i)).Synthesize(q, nil, nil)
		if resp.Kind != KindGeneric || resp.Text != genericTemplates[i] {
			t.Errorf("template %d: got %s %q", i, resp.Kind, resp.Text)
		}
		if resp.Confidence != 0 {
			t.Errorf("generic reply must carry no confidence")
		}
	}
}

func TestOutOfRangePickerIsClamped(t *testing.T) {
	resp := New(DefaultConfig(), fixed(99)).Synthesize(q, nil, nil)
	if resp.Text != genericTemplates[0] {
		t.Errorf("expected first template, got %q", resp.Text)
	}
}

func TestInvalid(t *testing.T) {
	s := New(DefaultConfig(), nil)
	if r := s.Invalid(ReasonEmpty); r.Kind != KindInvalid || r.Text == "" {
		t.Errorf("empty: %+v", r)
	}
	if r := s.Invalid(ReasonTooLong); !strings.Contains(r.Text, "500") {
		t.Errorf("too long reply should mention the limit: %q", r.Text)
	}
}

func TestPreview(t *testing.T) {
	cases := []struct {
		in    string
		limit int
		want  string
	}{
		{"short", 150, "short"},
		{"  padded  ", 150, "padded"},
		{"abcdef", 3, "abc..."},
		{"ab cdef", 3, "ab..."},
		{"ééééé", 2, "éé..."},
		{"exact", 5, "exact"},
	}
	for _, c := range cases {
		if got := Preview(c.in, c.limit); got != c.want {
			t.Errorf("Preview(%q, %d) = %q, want %q", c.in, c.limit, got, c.want)
		}
	}
	long := strings.Repeat("x", 200)
	if got := Preview(long, 150); len([]rune(got)) != 153 {
		t.Errorf("expected 150 runes plus ellipsis, got %d", len([]rune(got)))
	}
}
