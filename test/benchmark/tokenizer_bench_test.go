// Package benchmark measures the answer pipeline: tokenization, indexing,
// scoring and end-to-end Ask throughput.
package benchmark

import (
	"strings"
	"testing"

	"github.com/Adithya-Monish-Kumar-K/Portfolio-Assistant/internal/indexer/tokenizer"
)

var sampleTexts = map[string]string{
	"short": "Apa itu pembelajaran digital?",
	"medium": `Pembelajaran digital adalah proses belajar yang memanfaatkan teknologi,
        misalnya kursus daring, video interaktif, dan kuis. Siswa dapat belajar kapan
        saja dan guru memantau kemajuan lewat dasbor.`,
	"long": strings.Repeat(`Platform siaran langsung dengan latensi rendah memakai WebRTC
        untuk interaksi dan HLS untuk penonton dalam jumlah besar. Encoder OBS mengirim
        aliran ke server, lalu server mendistribusikannya ke banyak penonton. `, 20),
}

func BenchmarkTokenize(b *testing.B) {
	tok := tokenizer.Default()
	for name, text := range sampleTexts {
		b.Run(name, func(b *testing.B) {
			b.ReportAllocs()
			b.SetBytes(int64(len(text)))
			for i := 0; i < b.N; i++ {
				_ = tok.Tokenize(text)
			}
		})
	}
}

func BenchmarkTokenizeParallel(b *testing.B) {
	tok := tokenizer.Default()
	text := sampleTexts["medium"]
	b.ReportAllocs()
	b.SetBytes(int64(len(text)))
	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			_ = tok.Tokenize(text)
		}
	})
}

func BenchmarkKeywords(b *testing.B) {
	tok := tokenizer.Default()
	text := sampleTexts["long"]
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		_ = tok.Keywords(text)
	}
}
