package vocab

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	apperrors "github.com/Adithya-Monish-Kumar-K/Portfolio-Assistant/pkg/errors"
)

func TestParseNormalizes(t *testing.T) {
	data := []byte(`
stopwords: [" Yang ", "DAN"]
synonyms:
  - canonical: Education
    members: [" Belajar", "COURSE"]
categoryTriggers:
  - term: Kursus
    category: Education
contextTriggers:
  - term: Guru
    category: EDUCATION
`)
	tbl, err := Parse(data)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if tbl.Stopwords[0] != "yang" || tbl.Stopwords[1] != "dan" {
		t.Errorf("stopwords not normalized: %v", tbl.Stopwords)
	}
	g := tbl.Synonyms[0]
	if g.Canonical != "education" || g.Members[0] != "belajar" || g.Members[1] != "course" {
		t.Errorf("synonyms not normalized: %+v", g)
	}
	if tbl.CategoryTriggers[0] != (CategoryTrigger{Term: "kursus", Category: "education"}) {
		t.Errorf("category trigger not normalized: %+v", tbl.CategoryTriggers[0])
	}
	if tbl.ContextTriggers[0] != (ContextTrigger{Term: "guru", Category: "education"}) {
		t.Errorf("context trigger not normalized: %+v", tbl.ContextTriggers[0])
	}
}

func TestParseRejectsInvalid(t *testing.T) {
	cases := map[string]string{
		"duplicate canonical": `
synonyms:
  - canonical: tech
    members: [software]
  - canonical: TECH
    members: [coding]
`,
		"empty members": `
synonyms:
  - canonical: tech
    members: []
`,
		"blank member": `
synonyms:
  - canonical: tech
    members: ["  "]
`,
		"incomplete category trigger": `
categoryTriggers:
  - term: video
`,
		"incomplete context trigger": `
contextTriggers:
  - category: streaming
`,
		"malformed yaml": "synonyms: [",
	}
	for name, data := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Parse([]byte(data))
			if !errors.Is(err, apperrors.ErrInvalidConfig) {
				t.Fatalf("expected ErrInvalidConfig, got %v", err)
			}
		})
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "vocab.yaml")
	if err := os.WriteFile(path, []byte("synonyms:\n  - canonical: a\n    members: [b]\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	tbl, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if len(tbl.Synonyms) != 1 {
		t.Errorf("expected one group, got %d", len(tbl.Synonyms))
	}
	if _, err := LoadFile(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestDefaultIsValid(t *testing.T) {
	if err := Default().Validate(); err != nil {
		t.Fatalf("default vocabulary invalid: %v", err)
	}
}
