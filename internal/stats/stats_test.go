package stats

import (
	"math"
	"sync"
	"testing"
)

func TestEmptySnapshot(t *testing.T) {
	s := New().Snapshot()
	if s != (SessionStats{}) {
		t.Fatalf("expected zero stats, got %+v", s)
	}
}

func TestRecordQuery(t *testing.T) {
	c := New()
	c.RecordQuery(Outcome{Matched: true, LatencyMs: 10})
	s := c.Snapshot()
	if s.TotalQueries != 1 || s.SuccessfulMatches != 1 || s.SuccessRatePct != 100 {
		t.Fatalf("after one match: %+v", s)
	}
	if math.Abs(s.AvgLatencyMs-3) > 1e-9 {
		t.Errorf("EMA seeded from zero should be 3, got %v", s.AvgLatencyMs)
	}

	c.RecordQuery(Outcome{Matched: false, LatencyMs: 20})
	c.RecordQuery(Outcome{Matched: false, LatencyMs: 0})
	s = c.Snapshot()
	if s.TotalQueries != 3 || s.SuccessfulMatches != 1 {
		t.Fatalf("counts: %+v", s)
	}
	if s.SuccessRatePct != 33 {
		t.Errorf("rate = %d, want 33", s.SuccessRatePct)
	}
	// 3*0.7 + 20*0.3 = 8.1; 8.1*0.7 = 5.67
	if math.Abs(s.AvgLatencyMs-5.67) > 1e-9 {
		t.Errorf("avg latency = %v, want 5.67", s.AvgLatencyMs)
	}
}

func TestRateRounds(t *testing.T) {
	c := New()
	c.RecordQuery(Outcome{Matched: true})
	c.RecordQuery(Outcome{Matched: true})
	c.RecordQuery(Outcome{})
	if got := c.Snapshot().SuccessRatePct; got != 67 {
		t.Errorf("rate = %d, want 67", got)
	}
}

func TestCountersMonotonicUnderConcurrency(t *testing.T) {
	c := New()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			c.RecordQuery(Outcome{Matched: i%2 == 0, LatencyMs: float64(i)})
		}(i)
	}
	var last int64
	for i := 0; i < 20; i++ {
		s := c.Snapshot()
		if s.TotalQueries < last {
			t.Fatalf("total decreased: %d < %d", s.TotalQueries, last)
		}
		if s.SuccessfulMatches > s.TotalQueries {
			t.Fatalf("successful exceeds total: %+v", s)
		}
		if s.SuccessRatePct < 0 || s.SuccessRatePct > 100 {
			t.Fatalf("rate out of range: %+v", s)
		}
		last = s.TotalQueries
	}
	wg.Wait()
	s := c.Snapshot()
	if s.TotalQueries != 50 || s.SuccessfulMatches != 25 || s.SuccessRatePct != 50 {
		t.Fatalf("final: %+v", s)
	}
}

func TestRestore(t *testing.T) {
	c := New()
	c.Restore(SessionStats{TotalQueries: 10, SuccessfulMatches: 40, SuccessRatePct: 7, AvgLatencyMs: 2})
	s := c.Snapshot()
	if s.TotalQueries != 10 || s.SuccessfulMatches != 10 || s.SuccessRatePct != 100 {
		t.Fatalf("restore should clamp and recompute: %+v", s)
	}
	c.RecordQuery(Outcome{LatencyMs: 2})
	if got := c.Snapshot(); got.TotalQueries != 11 || math.Abs(got.AvgLatencyMs-2) > 1e-9 {
		t.Fatalf("after restore + record: %+v", got)
	}
}
