package analytics

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/Adithya-Monish-Kumar-K/Portfolio-Assistant/pkg/kafka"
	"github.com/Adithya-Monish-Kumar-K/Portfolio-Assistant/pkg/resilience"
)

// Publisher is satisfied by *kafka.Producer.
type Publisher interface {
	PublishBatch(ctx context.Context, events []kafka.Event) error
}

// CollectorConfig sizes the collector's buffer and batches. Zero values
// get defaults.
type CollectorConfig struct {
	BufferSize    int
	BatchSize     int
	FlushInterval time.Duration
}

// Collector buffers events from the request path and publishes them in
// batches, either when a batch fills or when FlushInterval passes. Track
// never blocks; events are dropped when the buffer is full.
type Collector struct {
	pub           Publisher
	events        chan kafka.Event
	batchSize     int
	flushInterval time.Duration
	logger        *slog.Logger
	done          chan struct{}
	dropped       atomic.Int64
	published     atomic.Int64
}

func NewCollector(pub Publisher, cfg CollectorConfig) *Collector {
	if cfg.BufferSize <= 0 {
		cfg.BufferSize = 10000
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 100
	}
	if cfg.FlushInterval <= 0 {
		cfg.FlushInterval = time.Second
	}
	return &Collector{
		pub:           pub,
		events:        make(chan kafka.Event, cfg.BufferSize),
		batchSize:     cfg.BatchSize,
		flushInterval: cfg.FlushInterval,
		logger:        slog.Default().With("component", "analytics-collector"),
		done:          make(chan struct{}),
	}
}

// Start launches the publish loop. Cancelling ctx drains the buffer,
// publishes a final batch and stops the loop.
func (c *Collector) Start(ctx context.Context) {
	go c.run(ctx)
	c.logger.Info("analytics collector started",
		"buffer_size", cap(c.events),
		"batch_size", c.batchSize,
		"flush_interval", c.flushInterval,
	)
}

func (c *Collector) run(ctx context.Context) {
	defer close(c.done)
	ticker := time.NewTicker(c.flushInterval)
	defer ticker.Stop()
	batch := make([]kafka.Event, 0, c.batchSize)
	for {
		select {
		case ev := <-c.events:
			batch = append(batch, ev)
			if len(batch) >= c.batchSize {
				batch = c.flush(ctx, batch)
			}
		case <-ticker.C:
			batch = c.flush(ctx, batch)
		case <-ctx.Done():
		drain:
			for {
				select {
				case ev := <-c.events:
					batch = append(batch, ev)
				default:
					break drain
				}
			}
			final, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			c.flush(final, batch)
			cancel()
			return
		}
	}
}

func (c *Collector) flush(ctx context.Context, batch []kafka.Event) []kafka.Event {
	if len(batch) == 0 {
		return batch
	}
	err := resilience.Retry(ctx, "publish-analytics", resilience.Backoff{
		Attempts: 3,
		Base:     50 * time.Millisecond,
		Cap:      time.Second,
		Jitter:   0.2,
	}, func() error {
		return c.pub.PublishBatch(ctx, batch)
	})
	if err != nil {
		c.dropped.Add(int64(len(batch)))
		c.logger.Error("analytics batch dropped", "events", len(batch), "error", err)
	} else {
		c.published.Add(int64(len(batch)))
	}
	return batch[:0]
}

// Track enqueues a QueryEvent or IndexEvent, keyed by corpus.
func (c *Collector) Track(event any) {
	select {
	case c.events <- kafka.Event{Key: eventKey(event), Value: event}:
	default:
		if c.dropped.Add(1)%100 == 1 {
			c.logger.Warn("analytics event dropped (buffer full)", "dropped_total", c.dropped.Load())
		}
	}
}

// Close waits for the publish loop to finish. Cancel Start's context first.
func (c *Collector) Close() {
	<-c.done
}

// Counts reports how many events were published and dropped.
func (c *Collector) Counts() (published, dropped int64) {
	return c.published.Load(), c.dropped.Load()
}

func eventKey(event any) string {
	switch e := event.(type) {
	case QueryEvent:
		return e.Corpus
	case IndexEvent:
		return e.Corpus
	default:
		return "analytics"
	}
}
