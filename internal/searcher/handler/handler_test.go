package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/Adithya-Monish-Kumar-K/Portfolio-Assistant/internal/assistant"
	"github.com/Adithya-Monish-Kumar-K/Portfolio-Assistant/internal/indexer/index"
	"github.com/Adithya-Monish-Kumar-K/Portfolio-Assistant/pkg/metrics"
)

type recordingAnnouncer struct {
	corpus  string
	entries []index.RawDoc
	calls   int
}

func (a *recordingAnnouncer) Announce(_ context.Context, corpus string, entries []index.RawDoc) error {
	a.calls++
	a.corpus = corpus
	a.entries = entries
	return nil
}

func newServer(t *testing.T, ann Announcer) *httptest.Server {
	t.Helper()
	e, err := assistant.New(&index.Corpus{
		Name: "faq",
		Entries: []index.RawDoc{
			{Question: "Apa itu pembelajaran digital?", Answer: "Pembelajaran digital adalah proses belajar memakai teknologi."},
			{Question: "Proyek apa saja yang pernah dibuat?", Answer: "Aplikasi kursus daring, demo streaming, dan portofolio ini."},
		},
	}, assistant.Options{
		Metrics: metrics.New(nil),
		Picker:  func(int) int { return 0 },
	})
	if err != nil {
		t.Fatal(err)
	}
	reg := assistant.NewRegistry()
	reg.Add(e, assistant.Source{})

	mux := http.NewServeMux()
	New(reg, Options{Announcer: ann}).Register(mux)
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func getJSON(t *testing.T, url string, dst any) int {
	t.Helper()
	resp, err := http.Get(url)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if dst != nil {
		if err := json.NewDecoder(resp.Body).Decode(dst); err != nil {
			t.Fatalf("decoding %s: %v", url, err)
		}
	}
	return resp.StatusCode
}

func TestAsk(t *testing.T) {
	srv := newServer(t, nil)

	var resp askResponse
	code := getJSON(t, srv.URL+"/api/v1/faq/ask?q=pembelajaran+digital&explain=true", &resp)
	if code != http.StatusOK {
		t.Fatalf("status %d", code)
	}
	if resp.Kind != "answered" || resp.Match == nil || resp.Match.ID != 0 {
		t.Fatalf("unexpected answer: %+v", resp)
	}
	if resp.Match.MatchKind != "direct" || resp.Breakdown == nil {
		t.Errorf("expected direct match with breakdown: %+v", resp)
	}

	code = getJSON(t, srv.URL+"/api/v1/faq/ask?q=", &resp)
	if code != http.StatusOK || resp.Kind != "invalid" {
		t.Errorf("empty query: %d %+v", code, resp)
	}
}

func TestUnknownCorpus(t *testing.T) {
	srv := newServer(t, nil)
	var body map[string]string
	if code := getJSON(t, srv.URL+"/api/v1/blog/ask?q=halo", &body); code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", code)
	}
	if !strings.Contains(body["error"], "corpus not found") {
		t.Errorf("error body %v", body)
	}
}

func TestRelatedAndOverview(t *testing.T) {
	srv := newServer(t, nil)

	var related struct {
		Related []assistant.RelatedItem `json:"related"`
	}
	if code := getJSON(t, srv.URL+"/api/v1/faq/related?q=pembelajaran+digital", &related); code != http.StatusOK {
		t.Fatalf("related status %d", code)
	}
	if len(related.Related) != 1 || related.Related[0].ID != 1 {
		t.Errorf("related = %+v", related.Related)
	}

	if code := getJSON(t, srv.URL+"/api/v1/faq/related?q=", nil); code != http.StatusBadRequest {
		t.Errorf("empty related query: %d", code)
	}
	if code := getJSON(t, srv.URL+"/api/v1/faq/overview?q=x&limit=zero", nil); code != http.StatusBadRequest {
		t.Errorf("bad limit: %d", code)
	}

	var ov assistant.Overview
	if code := getJSON(t, srv.URL+"/api/v1/faq/overview?q=streaming&limit=3", &ov); code != http.StatusOK {
		t.Fatalf("overview status %d", code)
	}
	if len(ov.Items) == 0 || ov.Items[0].ID != 1 {
		t.Errorf("overview = %+v", ov)
	}
}

func TestStatsAndCache(t *testing.T) {
	srv := newServer(t, nil)
	getJSON(t, srv.URL+"/api/v1/faq/ask?q=pembelajaran+digital", nil)
	getJSON(t, srv.URL+"/api/v1/faq/ask?q=pembelajaran+digital", nil)

	var st struct {
		TotalQueries      int64 `json:"total_queries"`
		SuccessfulMatches int64 `json:"successful_matches"`
	}
	getJSON(t, srv.URL+"/api/v1/faq/stats", &st)
	if st.TotalQueries != 2 || st.SuccessfulMatches != 2 {
		t.Errorf("stats = %+v", st)
	}

	var cs map[string]any
	getJSON(t, srv.URL+"/api/v1/faq/cache/stats", &cs)
	if cs["hits"].(float64) != 1 {
		t.Errorf("cache stats = %v", cs)
	}

	resp, err := http.Post(srv.URL+"/api/v1/faq/cache/invalidate", "application/json", nil)
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("invalidate status %d", resp.StatusCode)
	}
}

func TestReloadWithEntries(t *testing.T) {
	ann := &recordingAnnouncer{}
	srv := newServer(t, ann)

	body := `[{"question":"Apa itu OBS?","answer":"Perangkat lunak siaran."},{"title":"Catatan","content":"Isi blog."}]`
	resp, err := http.Post(srv.URL+"/api/v1/faq/reload", "application/json", strings.NewReader(body))
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	var out map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != http.StatusOK || out["documents"].(float64) != 2 {
		t.Fatalf("reload: %d %v", resp.StatusCode, out)
	}
	if ann.calls != 1 || ann.corpus != "faq" || len(ann.entries) != 2 {
		t.Errorf("announcer = %+v", ann)
	}

	var ans askResponse
	getJSON(t, srv.URL+"/api/v1/faq/ask?q=apa+itu+obs", &ans)
	if ans.Kind != "answered" {
		t.Errorf("new corpus not served: %+v", ans)
	}
}

func TestReloadWithoutSourceFails(t *testing.T) {
	ann := &recordingAnnouncer{}
	srv := newServer(t, ann)
	resp, err := http.Post(srv.URL+"/api/v1/faq/reload", "application/json", nil)
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", resp.StatusCode)
	}
	if ann.calls != 0 {
		t.Error("failed reload must not be announced")
	}

	resp, err = http.Post(srv.URL+"/api/v1/faq/reload", "application/json", strings.NewReader(`{"not":"an array"}`))
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("malformed body: expected 400, got %d", resp.StatusCode)
	}
}

func TestCorpora(t *testing.T) {
	srv := newServer(t, nil)
	var out struct {
		Corpora []string `json:"corpora"`
	}
	getJSON(t, srv.URL+"/api/v1/corpora", &out)
	if len(out.Corpora) != 1 || out.Corpora[0] != "faq" {
		t.Errorf("corpora = %v", out.Corpora)
	}
}
