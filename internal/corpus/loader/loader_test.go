package loader

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	apperrors "github.com/Adithya-Monish-Kumar-K/Portfolio-Assistant/pkg/errors"
)

func TestDecodeFAQ(t *testing.T) {
	c, err := Decode("faq", "faq", strings.NewReader(`[
		{"question": "Apa itu pembelajaran digital?", "answer": "Belajar memakai teknologi."},
		{"question": "", "answer": "tanpa pertanyaan"}
	]`))
	if err != nil {
		t.Fatal(err)
	}
	if c.Name != "faq" || len(c.Entries) != 2 {
		t.Fatalf("corpus %+v", c)
	}
	if c.Entries[0].QuestionText() != "Apa itu pembelajaran digital?" || c.Entries[0].AnswerText() != "Belajar memakai teknologi." {
		t.Errorf("entry 0: %+v", c.Entries[0])
	}
}

func TestDecodeBlog(t *testing.T) {
	c, err := Decode("blog", "BLOG", strings.NewReader(`[
		{"title": "Streaming dengan OBS", "content": "Panduan siaran.", "author": "Adi", "date": "2024-05-01", "tags": ["streaming", "obs"]}
	]`))
	if err != nil {
		t.Fatal(err)
	}
	e := c.Entries[0]
	if e.QuestionText() != "Streaming dengan OBS" || e.AnswerText() != "Panduan siaran." {
		t.Errorf("title/content not mapped: %+v", e)
	}
	if e.Author != "Adi" || e.Date != "2024-05-01" || len(e.Tags) != 2 {
		t.Errorf("metadata lost: %+v", e)
	}
}

func TestDecodeErrors(t *testing.T) {
	cases := map[string]struct {
		kind string
		body string
	}{
		"unknown kind": {"wiki", `[]`},
		"syntax":       {"faq", `[{"question": }]`},
		"not an array": {"faq", `{"question": "x"}`},
	}
	for name, c := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Decode("x", c.kind, strings.NewReader(c.body))
			if !errors.Is(err, apperrors.ErrInvalidInput) {
				t.Fatalf("expected ErrInvalidInput, got %v", err)
			}
		})
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "faq.json")
	if err := os.WriteFile(path, []byte(`[{"question":"q?","answer":"a."}]`), 0o644); err != nil {
		t.Fatal(err)
	}
	c, err := LoadFile("faq", KindFAQ, path)
	if err != nil || len(c.Entries) != 1 {
		t.Fatalf("LoadFile = %+v, %v", c, err)
	}
	if _, err := LoadFile("faq", KindFAQ, filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Fatal("expected error for missing file")
	}
}
