package vocab

import "github.com/Adithya-Monish-Kumar-K/Portfolio-Assistant/internal/indexer/tokenizer"

// Default returns the built-in vocabulary shared by the FAQ assistant and
// the blog overview. Each call returns a fresh copy.
func Default() *Table {
	stop := make([]string, len(tokenizer.DefaultStopwords))
	copy(stop, tokenizer.DefaultStopwords)
	return &Table{
		Stopwords: stop,
		Synonyms: []SynonymGroup{
			{Canonical: "education", Members: []string{"pembelajaran", "belajar", "pendidikan", "kursus", "learning", "course", "tutorial"}},
			{Canonical: "technology", Members: []string{"teknologi", "digital", "software", "aplikasi", "tech", "programming", "coding"}},
			{Canonical: "streaming", Members: []string{"stream", "siaran", "live", "video", "broadcast", "webrtc", "hls"}},
			{Canonical: "contact", Members: []string{"kontak", "hubungi", "email", "telepon", "whatsapp", "reach"}},
			{Canonical: "project", Members: []string{"proyek", "projek", "portfolio", "portofolio", "karya", "work"}},
			{Canonical: "career", Members: []string{"karir", "pekerjaan", "kerja", "pengalaman", "experience", "job", "hire"}},
			{Canonical: "pricing", Members: []string{"harga", "biaya", "tarif", "bayar", "price", "cost", "fee"}},
		},
		CategoryTriggers: []CategoryTrigger{
			{Term: "pembelajaran", Category: "education"},
			{Term: "belajar", Category: "education"},
			{Term: "kursus", Category: "education"},
			{Term: "learning", Category: "education"},
			{Term: "digital", Category: "technology"},
			{Term: "teknologi", Category: "technology"},
			{Term: "aplikasi", Category: "technology"},
			{Term: "software", Category: "technology"},
			{Term: "stream", Category: "streaming"},
			{Term: "siaran", Category: "streaming"},
			{Term: "video", Category: "streaming"},
			{Term: "email", Category: "contact"},
			{Term: "kontak", Category: "contact"},
			{Term: "hubungi", Category: "contact"},
			{Term: "proyek", Category: "project"},
			{Term: "portfolio", Category: "project"},
			{Term: "portofolio", Category: "project"},
			{Term: "pengalaman", Category: "career"},
			{Term: "karir", Category: "career"},
			{Term: "experience", Category: "career"},
			{Term: "harga", Category: "pricing"},
			{Term: "biaya", Category: "pricing"},
		},
		ContextTriggers: []ContextTrigger{
			{Term: "siswa", Category: "education"},
			{Term: "guru", Category: "education"},
			{Term: "kurikulum", Category: "education"},
			{Term: "framework", Category: "technology"},
			{Term: "database", Category: "technology"},
			{Term: "latency", Category: "streaming"},
			{Term: "obs", Category: "streaming"},
			{Term: "linkedin", Category: "contact"},
			{Term: "github", Category: "project"},
			{Term: "freelance", Category: "career"},
		},
	}
}
