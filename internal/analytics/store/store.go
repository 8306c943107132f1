// Package store persists per-corpus session statistics in PostgreSQL so the
// counters survive restarts.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/Adithya-Monish-Kumar-K/Portfolio-Assistant/internal/stats"
	"github.com/Adithya-Monish-Kumar-K/Portfolio-Assistant/pkg/postgres"
	"github.com/Adithya-Monish-Kumar-K/Portfolio-Assistant/pkg/resilience"
)

// Schema creates the snapshot table. Only the newest keepSnapshots rows per
// corpus are retained.
var Schema = []string{
	`CREATE TABLE IF NOT EXISTS session_snapshots (
		id          BIGSERIAL PRIMARY KEY,
		corpus      TEXT NOT NULL,
		data        JSONB NOT NULL,
		captured_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE INDEX IF NOT EXISTS session_snapshots_corpus_idx
		ON session_snapshots (corpus, captured_at DESC)`,
}

const keepSnapshots = 100

type Store struct {
	db     *postgres.Client
	retry  resilience.Backoff
	logger *slog.Logger
}

func New(db *postgres.Client) *Store {
	return &Store{
		db: db,
		retry: resilience.Backoff{
			Attempts: 3,
			Base:     200 * time.Millisecond,
			Cap:      2 * time.Second,
		},
		logger: slog.Default().With("component", "session-store"),
	}
}

// Migrate creates the schema if needed.
func (s *Store) Migrate(ctx context.Context) error {
	return s.db.Migrate(ctx, Schema...)
}

// Save inserts a snapshot for corpus and prunes older rows, retrying
// transient failures.
func (s *Store) Save(ctx context.Context, corpus string, snap stats.SessionStats) error {
	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("marshaling session stats: %w", err)
	}
	return resilience.Retry(ctx, "save-session-snapshot", s.retry, func() error {
		err := s.db.InTx(ctx, func(tx *sql.Tx) error {
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO session_snapshots (corpus, data, captured_at) VALUES ($1, $2, $3)`,
				corpus, data, time.Now().UTC(),
			); err != nil {
				return fmt.Errorf("inserting snapshot: %w", err)
			}
			if _, err := tx.ExecContext(ctx,
				`DELETE FROM session_snapshots WHERE corpus = $1 AND id NOT IN (
					SELECT id FROM session_snapshots WHERE corpus = $1
					ORDER BY captured_at DESC LIMIT $2)`,
				corpus, keepSnapshots,
			); err != nil {
				return fmt.Errorf("pruning snapshots: %w", err)
			}
			return nil
		})
		if postgres.IsPermanent(err) {
			return resilience.Permanent(err)
		}
		return err
	})
}

// Latest returns the newest snapshot of corpus, or nil when none exists.
func (s *Store) Latest(ctx context.Context, corpus string) (*stats.SessionStats, error) {
	var data []byte
	err := s.db.DB.QueryRowContext(ctx,
		`SELECT data FROM session_snapshots WHERE corpus = $1 ORDER BY captured_at DESC LIMIT 1`,
		corpus,
	).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("querying latest snapshot of %s: %w", corpus, err)
	}
	var snap stats.SessionStats
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("unmarshaling snapshot of %s: %w", corpus, err)
	}
	return &snap, nil
}

// Restore seeds each counter set from its corpus's latest snapshot.
func (s *Store) Restore(ctx context.Context, counters map[string]*stats.Counters) error {
	for corpus, c := range counters {
		snap, err := s.Latest(ctx, corpus)
		if err != nil {
			return err
		}
		if snap == nil {
			continue
		}
		c.Restore(*snap)
		s.logger.Info("session stats restored", "corpus", corpus, "total_queries", snap.TotalQueries)
	}
	return nil
}

// Saver persists one snapshot. *Store implements it.
type Saver interface {
	Save(ctx context.Context, corpus string, snap stats.SessionStats) error
}

// RunPeriodic saves every counter set each interval and once more when ctx
// is cancelled. It blocks until then.
func RunPeriodic(ctx context.Context, saver Saver, counters map[string]*stats.Counters, interval time.Duration) {
	logger := slog.Default().With("component", "session-store")
	saveAll := func(ctx context.Context) {
		for corpus, c := range counters {
			if err := saver.Save(ctx, corpus, c.Snapshot()); err != nil {
				logger.Error("session snapshot failed", "corpus", corpus, "error", err)
			}
		}
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	logger.Info("periodic session snapshots started", "interval", interval, "corpora", len(counters))
	for {
		select {
		case <-ticker.C:
			saveAll(ctx)
		case <-ctx.Done():
			final, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			saveAll(final)
			cancel()
			return
		}
	}
}
