package analytics

import "time"

type EventType string

const (
	EventQuery EventType = "query"
	EventIndex EventType = "index"
)

// QueryEvent is emitted once per Ask. Query holds the normalized text.
type QueryEvent struct {
	Type       EventType `json:"type"`
	Corpus     string    `json:"corpus"`
	Query      string    `json:"query"`
	Kind       string    `json:"kind"`
	MatchKind  string    `json:"match_kind,omitempty"`
	DocID      int       `json:"doc_id"`
	Score      int       `json:"score"`
	Confidence int       `json:"confidence"`
	LatencyMs  float64   `json:"latency_ms"`
	CacheHit   bool      `json:"cache_hit"`
	Timestamp  time.Time `json:"timestamp"`
	RequestID  string    `json:"request_id,omitempty"`
}

// Answered reports whether the query received a confident answer.
func (e QueryEvent) Answered() bool {
	return e.Kind == "answered"
}

// IndexEvent is emitted whenever a corpus is (re)indexed.
type IndexEvent struct {
	Type      EventType `json:"type"`
	Corpus    string    `json:"corpus"`
	Version   string    `json:"version"`
	Documents int       `json:"documents"`
	Skipped   int       `json:"skipped"`
	LatencyMs float64   `json:"latency_ms"`
	Timestamp time.Time `json:"timestamp"`
}
