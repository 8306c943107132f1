package ranker

import (
	"strings"
	"testing"

	"github.com/Adithya-Monish-Kumar-K/Portfolio-Assistant/internal/indexer"
	"github.com/Adithya-Monish-Kumar-K/Portfolio-Assistant/internal/indexer/index"
	"github.com/Adithya-Monish-Kumar-K/Portfolio-Assistant/internal/indexer/tokenizer"
	"github.com/Adithya-Monish-Kumar-K/Portfolio-Assistant/internal/searcher/scorer"
	"github.com/Adithya-Monish-Kumar-K/Portfolio-Assistant/internal/vocab"
)

var tok = tokenizer.Default()

func buildDocs(t *testing.T, entries ...index.RawDoc) []*index.Document {
	t.Helper()
	idx, err := indexer.New(tok, vocab.Default().CategoryTriggers, nil).Index(&index.Corpus{Name: "test", Entries: entries})
	if err != nil {
		t.Fatalf("Index: %v", err)
	}
	return idx.Documents
}

func newRanker(w scorer.Weights) *Ranker {
	return New(scorer.New(w, vocab.Default()), DefaultConfig())
}

func query(raw string) scorer.Query {
	return scorer.NewQuery(raw, tok)
}

func TestDirectMatchScenario(t *testing.T) {
	docs := buildDocs(t, index.RawDoc{
		Question: "Apa itu pembelajaran digital?",
		Answer:   "Pembelajaran digital adalah ...",
	})
	m := newRanker(scorer.DefaultWeights()).SelectBestMatch(query("pembelajaran digital"), docs)
	if m == nil {
		t.Fatal("expected a match")
	}
	if m.Kind != MatchDirect || m.Score != 200 || m.Document.ID != 0 {
		t.Errorf("got kind=%v score=%d id=%d, want direct/200/0", m.Kind, m.Score, m.Document.ID)
	}
}

func TestNoOverlapReturnsNil(t *testing.T) {
	docs := buildDocs(t,
		index.RawDoc{Question: "Apa itu pembelajaran digital?", Answer: "Pembelajaran digital adalah ..."},
		index.RawDoc{Question: "Bagaimana menghubungi saya?", Answer: "Lewat email."},
	)
	if m := newRanker(scorer.DefaultWeights()).SelectBestMatch(query("xyzxyz"), docs); m != nil {
		t.Fatalf("expected nil, got doc %d score %d", m.Document.ID, m.Score)
	}
}

func TestHeuristicTieBreaksOnAnswerLength(t *testing.T) {
	w := scorer.DefaultWeights()
	w.Brevity = 0
	docs := buildDocs(t,
		index.RawDoc{Question: "java and rust", Answer: strings.Repeat("x", 300)},
		index.RawDoc{Question: "rust and java", Answer: strings.Repeat("x", 120)},
	)
	r := New(scorer.New(w, nil), DefaultConfig())
	q := query("rust java")
	for _, d := range docs {
		if got := r.scorer.Score(q, d); got != 80 {
			t.Fatalf("doc %d scored %d, want 80", d.ID, got)
		}
	}
	m := r.SelectBestMatch(q, docs)
	if m == nil {
		t.Fatal("expected a match")
	}
	if m.Kind != MatchHeuristic || m.Document.AnswerLength != 120 || m.Score != 80 {
		t.Errorf("got kind=%v len=%d score=%d", m.Kind, m.Document.AnswerLength, m.Score)
	}
}

func TestDirectMatchBeatsHigherHeuristic(t *testing.T) {
	docs := buildDocs(t,
		index.RawDoc{Question: "golang untuk belajar golang", Answer: "belajar dan golang, golang untuk belajar"},
		index.RawDoc{Question: "tips", Answer: "cara belajar golang dengan cepat dan mudah bagi pemula yang baru mulai"},
	)
	r := newRanker(scorer.DefaultWeights())
	q := query("belajar golang")
	if r.scorer.Score(q, docs[0]) <= 200 {
		t.Fatalf("fixture should give doc 0 a heuristic score above 200, got %d", r.scorer.Score(q, docs[0]))
	}
	m := r.SelectBestMatch(q, docs)
	if m == nil || m.Document.ID != 1 || m.Kind != MatchDirect {
		t.Fatalf("expected direct match on doc 1, got %+v", m)
	}
}

func TestDirectMatchPrefersShortestAnswer(t *testing.T) {
	docs := buildDocs(t,
		index.RawDoc{Question: "Harga jasa website?", Answer: "Harga jasa website mulai dari satu juta rupiah tergantung fitur."},
		index.RawDoc{Question: "Berapa harga jasa website", Answer: "Satu juta."},
		index.RawDoc{Question: "Layanan", Answer: "Kami juga menerima harga jasa website custom."},
	)
	m := newRanker(scorer.DefaultWeights()).SelectBestMatch(query("harga jasa website"), docs)
	if m == nil || m.Document.ID != 1 {
		t.Fatalf("expected doc 1 (shortest answer), got %+v", m)
	}
}

func TestThresholdEnforced(t *testing.T) {
	docs := buildDocs(t,
		index.RawDoc{Question: "Apa itu pembelajaran digital?", Answer: "Pembelajaran digital adalah proses belajar memakai teknologi."},
		index.RawDoc{Question: "Bagaimana menghubungi saya?", Answer: "Kirim email atau hubungi lewat LinkedIn."},
		index.RawDoc{Question: "Proyek apa saja yang pernah dibuat?", Answer: "Demo streaming video, portofolio, dan aplikasi kursus."},
	)
	r := newRanker(scorer.DefaultWeights())
	queries := []string{"email", "kursus online", "xyz", "siaran langsung", "teknologi guru", "zzzz qqqq", "hubungi linkedin"}
	for _, raw := range queries {
		q := query(raw)
		m := r.SelectBestMatch(q, docs)
		if m == nil || m.Kind == MatchDirect {
			continue
		}
		if m.Score <= 30 {
			t.Errorf("query %q returned heuristic match with score %d", raw, m.Score)
		}
		if m.Score != r.scorer.Score(q, m.Document) {
			t.Errorf("query %q: reported score differs from scorer", raw)
		}
	}
	for _, m := range r.Rank(query("teknologi guru"), docs, 0) {
		if m.Kind == MatchHeuristic && m.Score <= 30 {
			t.Errorf("Rank returned doc %d with score %d", m.Document.ID, m.Score)
		}
	}
}

func TestSelectionIsDeterministic(t *testing.T) {
	docs := buildDocs(t,
		index.RawDoc{Question: "rust and java", Answer: "aaa"},
		index.RawDoc{Question: "java and rust", Answer: "bbb"},
		index.RawDoc{Question: "rust", Answer: "ccc"},
	)
	r := newRanker(scorer.DefaultWeights())
	q := query("java rust")
	first := r.SelectBestMatch(q, docs)
	if first == nil {
		t.Fatal("expected a match")
	}
	for i := 0; i < 25; i++ {
		m := r.SelectBestMatch(q, docs)
		if m.Document.ID != first.Document.ID || m.Score != first.Score {
			t.Fatalf("run %d selected doc %d/%d, first was %d/%d", i, m.Document.ID, m.Score, first.Document.ID, first.Score)
		}
	}
	if first.Document.ID != 0 {
		t.Errorf("equal score and length should fall back to lowest ID, got %d", first.Document.ID)
	}
}

func TestEdgeCases(t *testing.T) {
	r := newRanker(scorer.DefaultWeights())
	docs := buildDocs(t, index.RawDoc{Question: "a b c", Answer: "a"})
	for _, raw := range []string{"", "   ", "a", " b "} {
		if m := r.SelectBestMatch(query(raw), docs); m != nil {
			t.Errorf("query %q should not match", raw)
		}
	}
	if m := r.SelectBestMatch(query("anything"), nil); m != nil {
		t.Error("empty corpus must return nil")
	}
}

func TestRankOrdersDirectThenHeuristic(t *testing.T) {
	w := scorer.DefaultWeights()
	w.Brevity = 0
	docs := buildDocs(t,
		index.RawDoc{Question: "rust java", Answer: "long direct answer text"},
		index.RawDoc{Question: "java then rust", Answer: "x"},
		index.RawDoc{Question: "only rust", Answer: "y"},
		index.RawDoc{Question: "unrelated", Answer: "z"},
	)
	r := New(scorer.New(w, nil), DefaultConfig())
	ranked := r.Rank(query("rust java"), docs, 0)
	if len(ranked) != 3 {
		t.Fatalf("expected 3 ranked results, got %d", len(ranked))
	}
	wantIDs := []int{0, 1, 2}
	for i, m := range ranked {
		if m.Document.ID != wantIDs[i] {
			t.Errorf("position %d: got doc %d, want %d", i, m.Document.ID, wantIDs[i])
		}
	}
	if ranked[0].Kind != MatchDirect || ranked[1].Kind != MatchHeuristic {
		t.Errorf("unexpected kinds: %v, %v", ranked[0].Kind, ranked[1].Kind)
	}
	if limited := r.Rank(query("rust java"), docs, 2); len(limited) != 2 {
		t.Errorf("limit not applied, got %d", len(limited))
	}
}

func TestFallbackCandidates(t *testing.T) {
	docs := buildDocs(t,
		index.RawDoc{Question: "Streaming demo", Answer: "WebRTC"},
		index.RawDoc{Question: "Kontak", Answer: "email"},
		index.RawDoc{Question: "Video", Answer: "Rekaman streaming tersedia"},
	)
	r := newRanker(scorer.DefaultWeights())
	got := r.FallbackCandidates(query("streaming rekaman"), docs, 0)
	if len(got) != 2 || got[0].ID != 0 || got[1].ID != 2 {
		t.Fatalf("unexpected fallback candidates: %v", ids(got))
	}
	if limited := r.FallbackCandidates(query("streaming rekaman"), docs, 1); len(limited) != 1 {
		t.Errorf("limit not applied: %v", ids(limited))
	}
	if none := r.FallbackCandidates(query("the"), docs, 0); len(none) != 0 {
		t.Errorf("stopword-only query should have no candidates: %v", ids(none))
	}
}

func TestRelated(t *testing.T) {
	docs := buildDocs(t,
		index.RawDoc{Question: "Apa itu pembelajaran digital?", Answer: "Belajar memakai teknologi."},
		index.RawDoc{Question: "Kursus apa yang tersedia?", Answer: "Kursus pemrograman dasar."},
		index.RawDoc{Question: "Bagaimana menghubungi saya?", Answer: "Lewat email."},
		index.RawDoc{Question: "Aplikasi belajar", Answer: "Aplikasi untuk belajar mandiri dan kursus."},
	)
	r := newRanker(scorer.DefaultWeights())
	q := query("pembelajaran digital")
	best := r.SelectBestMatch(q, docs)
	if best == nil || best.Document.ID != 0 {
		t.Fatalf("expected doc 0 as best, got %+v", best)
	}
	related := r.Related(q, best, docs, 5)
	gotIDs := make(map[int]bool)
	for _, rel := range related {
		gotIDs[rel.Document.ID] = true
		if rel.Relevance != Confidence(rel.Score, 98) {
			t.Errorf("doc %d relevance %d does not match score %d", rel.Document.ID, rel.Relevance, rel.Score)
		}
	}
	if gotIDs[0] {
		t.Error("best match must be excluded")
	}
	if gotIDs[2] {
		t.Error("contact doc shares no category and must be excluded")
	}
	if !gotIDs[1] || !gotIDs[3] {
		t.Errorf("expected education docs 1 and 3, got %v", gotIDs)
	}
	if got := r.Related(q, best, docs, 1); len(got) != 1 {
		t.Errorf("limit not applied, got %d", len(got))
	}
	if got := r.Related(q, nil, docs, 5); got != nil {
		t.Error("nil best match should produce no related documents")
	}
}

func TestConfidence(t *testing.T) {
	cases := []struct{ score, want int }{{0, 0}, {61, 30}, {150, 75}, {196, 98}, {200, 98}, {440, 98}}
	for _, c := range cases {
		if got := Confidence(c.score, 98); got != c.want {
			t.Errorf("Confidence(%d) = %d, want %d", c.score, got, c.want)
		}
	}
}

func TestMatchKindRoundTrip(t *testing.T) {
	for _, k := range []MatchKind{MatchDirect, MatchHeuristic} {
		parsed, err := ParseMatchKind(k.String())
		if err != nil || parsed != k {
			t.Errorf("ParseMatchKind(%q) = %v, %v", k.String(), parsed, err)
		}
	}
	if _, err := ParseMatchKind("fuzzy"); err == nil {
		t.Error("expected error for unknown kind")
	}
}

func ids(docs []*index.Document) []int {
	out := make([]int, len(docs))
	for i, d := range docs {
		out[i] = d.ID
	}
	return out
}
