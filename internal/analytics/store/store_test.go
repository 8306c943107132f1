package store

import (
	"context"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/Adithya-Monish-Kumar-K/Portfolio-Assistant/internal/stats"
	"github.com/Adithya-Monish-Kumar-K/Portfolio-Assistant/pkg/config"
	"github.com/Adithya-Monish-Kumar-K/Portfolio-Assistant/pkg/postgres"
)

type memorySaver struct {
	mu    sync.Mutex
	saved map[string][]stats.SessionStats
}

func (m *memorySaver) Save(_ context.Context, corpus string, snap stats.SessionStats) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saved[corpus] = append(m.saved[corpus], snap)
	return nil
}

func TestRunPeriodicSavesOnShutdown(t *testing.T) {
	c := stats.New()
	c.RecordQuery(stats.Outcome{Matched: true, LatencyMs: 1})
	saver := &memorySaver{saved: make(map[string][]stats.SessionStats)}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		RunPeriodic(ctx, saver, map[string]*stats.Counters{"faq": c}, time.Hour)
		close(done)
	}()
	cancel()
	<-done

	got := saver.saved["faq"]
	if len(got) != 1 || got[0].TotalQueries != 1 {
		t.Fatalf("saved = %+v", got)
	}
}

func TestPostgresRoundTrip(t *testing.T) {
	if os.Getenv("PA_TEST_POSTGRES_HOST") == "" {
		t.Skip("PA_TEST_POSTGRES_HOST not set")
	}
	cfg := config.PostgresConfig{
		Host:         os.Getenv("PA_TEST_POSTGRES_HOST"),
		Port:         5432,
		Database:     "portfolio",
		User:         "portfolio",
		Password:     "localdev",
		SSLMode:      "disable",
		MaxOpenConns: 2,
	}
	db, err := postgres.New(cfg)
	if err != nil {
		t.Skipf("postgres unavailable: %v", err)
	}
	defer db.Close()

	s := New(db)
	ctx := context.Background()
	if err := s.Migrate(ctx); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	corpus := "test-" + time.Now().Format("150405.000000")
	want := stats.SessionStats{TotalQueries: 4, SuccessfulMatches: 3, SuccessRatePct: 75, AvgLatencyMs: 1.5}
	if err := s.Save(ctx, corpus, want); err != nil {
		t.Fatalf("save: %v", err)
	}
	got, err := s.Latest(ctx, corpus)
	if err != nil || got == nil || *got != want {
		t.Fatalf("latest = %+v, %v", got, err)
	}

	c := stats.New()
	if err := s.Restore(ctx, map[string]*stats.Counters{corpus: c}); err != nil {
		t.Fatal(err)
	}
	if c.Snapshot().TotalQueries != 4 {
		t.Errorf("restore did not seed counters: %+v", c.Snapshot())
	}

	none, err := s.Latest(ctx, corpus+"-missing")
	if err != nil || none != nil {
		t.Errorf("missing corpus: %+v, %v", none, err)
	}
}
