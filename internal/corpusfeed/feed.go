// Package corpusfeed announces corpus changes over Kafka so every running
// instance reindexes the same content.
package corpusfeed

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/Adithya-Monish-Kumar-K/Portfolio-Assistant/internal/indexer/index"
	apperrors "github.com/Adithya-Monish-Kumar-K/Portfolio-Assistant/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/Portfolio-Assistant/pkg/kafka"
	"github.com/Adithya-Monish-Kumar-K/Portfolio-Assistant/pkg/resilience"
)

const EventCorpusUpdated = "corpus_updated"

// Update tells instances to reload a corpus. With Replace set every
// instance swaps in Entries, which may be empty; otherwise each re-reads its
// own source file.
type Update struct {
	Type      string         `json:"type"`
	Corpus    string         `json:"corpus"`
	Replace   bool           `json:"replace"`
	Entries   []index.RawDoc `json:"entries"`
	Origin    string         `json:"origin"`
	Timestamp time.Time      `json:"timestamp"`
}

type Publisher interface {
	Publish(ctx context.Context, event kafka.Event) error
}

// Reloader is satisfied by *assistant.Registry.
type Reloader interface {
	Reload(ctx context.Context, name string) (*index.Index, error)
	Replace(ctx context.Context, name string, entries []index.RawDoc) (*index.Index, error)
}

type Feed struct {
	pub      Publisher
	reloader Reloader
	origin   string
	logger   *slog.Logger
}

// New builds a feed for the instance identified by origin. pub may be nil
// for a receive-only feed.
func New(pub Publisher, reloader Reloader, origin string) *Feed {
	return &Feed{
		pub:      pub,
		reloader: reloader,
		origin:   origin,
		logger:   slog.Default().With("component", "corpus-feed", "origin", origin),
	}
}

// Announce publishes an update for corpus. The caller has already applied
// it locally. Nil entries announce a file reload, a non-nil slice (even an
// empty one) a replacement.
func (f *Feed) Announce(ctx context.Context, corpus string, entries []index.RawDoc) error {
	if f.pub == nil {
		return nil
	}
	u := Update{
		Type:      EventCorpusUpdated,
		Corpus:    corpus,
		Replace:   entries != nil,
		Entries:   entries,
		Origin:    f.origin,
		Timestamp: time.Now().UTC(),
	}
	if err := f.pub.Publish(ctx, kafka.Event{Key: corpus, Value: u}); err != nil {
		return fmt.Errorf("announcing update of %s: %w", corpus, err)
	}
	f.logger.Info("corpus update announced", "corpus", corpus, "entries", len(entries))
	return nil
}

// Handle returns the consumer callback. Updates from this instance and
// unknown event types are acknowledged without effect.
func (f *Feed) Handle() kafka.MessageHandler {
	return func(ctx context.Context, key, value []byte) error {
		eventType, err := kafka.EventType(value)
		if err != nil {
			f.logger.Warn("dropping undecodable message", "error", err)
			return nil
		}
		if eventType != EventCorpusUpdated {
			return nil
		}
		u, err := kafka.DecodeJSON[Update](value)
		if err != nil {
			f.logger.Warn("dropping malformed update", "error", err)
			return nil
		}
		if u.Origin == f.origin {
			return nil
		}
		return f.apply(ctx, u)
	}
}

func (f *Feed) apply(ctx context.Context, u Update) error {
	var (
		idx *index.Index
		err error
	)
	if u.Replace {
		entries := u.Entries
		if entries == nil {
			entries = []index.RawDoc{}
		}
		idx, err = f.reloader.Replace(ctx, u.Corpus, entries)
	} else {
		idx, err = f.reloader.Reload(ctx, u.Corpus)
	}
	if err != nil {
		err = fmt.Errorf("applying update of %s from %s: %w", u.Corpus, u.Origin, err)
		if errors.Is(err, apperrors.ErrCorpusNotFound) || errors.Is(err, apperrors.ErrInvalidInput) {
			return resilience.Permanent(err)
		}
		return err
	}
	f.logger.Info("corpus update applied",
		"corpus", u.Corpus,
		"from", u.Origin,
		"documents", idx.Len(),
		"version", idx.Version,
	)
	return nil
}
