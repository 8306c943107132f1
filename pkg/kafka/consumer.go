// Package kafka carries the assistant's JSON events over segmentio/kafka-go:
// query analytics to the aggregator and corpus-update notices to every
// instance.
package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/Adithya-Monish-Kumar-K/Portfolio-Assistant/pkg/config"
	"github.com/Adithya-Monish-Kumar-K/Portfolio-Assistant/pkg/resilience"
	"github.com/segmentio/kafka-go"
)

// MessageHandler is invoked for each message. A failing handler is retried
// with backoff before the consumer moves on; an error marked with
// resilience.Permanent is logged and the message committed.
type MessageHandler func(ctx context.Context, key []byte, value []byte) error

type Consumer struct {
	reader  *kafka.Reader
	logger  *slog.Logger
	handler MessageHandler
	backoff resilience.Backoff
}

// NewConsumer reads topic as member of group. An empty group uses the
// configured ConsumerGroup.
func NewConsumer(cfg config.KafkaConfig, topic, group string, handler MessageHandler) *Consumer {
	if group == "" {
		group = cfg.ConsumerGroup
	}
	r := kafka.NewReader(kafka.ReaderConfig{
		Brokers:        cfg.Brokers,
		Topic:          topic,
		GroupID:        group,
		MinBytes:       1,
		MaxBytes:       10e6,
		MaxWait:        500 * time.Millisecond,
		StartOffset:    kafka.LastOffset,
		CommitInterval: time.Second,
	})
	return &Consumer{
		reader:  r,
		logger:  slog.Default().With("component", "kafka-consumer", "topic", topic, "group", group),
		handler: handler,
		backoff: resilience.Backoff{
			Attempts: resilience.Unlimited,
			Base:     500 * time.Millisecond,
			Cap:      30 * time.Second,
			Jitter:   0.2,
		},
	}
}

// Start consumes until ctx is cancelled, then closes the reader.
func (c *Consumer) Start(ctx context.Context) error {
	c.logger.Info("consumer started")
	defer c.reader.Close()
	for {
		msg, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				c.logger.Info("consumer stopping", "reason", ctx.Err())
				return nil
			}
			c.logger.Error("failed to fetch message", "error", err)
			select {
			case <-time.After(time.Second):
			case <-ctx.Done():
				return nil
			}
			continue
		}
		if !c.deliver(ctx, msg) {
			c.logger.Info("consumer stopping with message uncommitted", "partition", msg.Partition, "offset", msg.Offset)
			return nil
		}
		if err := c.reader.CommitMessages(ctx, msg); err != nil && ctx.Err() == nil {
			c.logger.Error("failed to commit message",
				"partition", msg.Partition,
				"offset", msg.Offset,
				"error", err,
			)
		}
	}
}

// deliver runs the handler until it succeeds or fails permanently, and
// reports whether the message may be committed. Offsets only move forward
// within a partition, so a transient failure holds the partition rather than
// skipping the message.
func (c *Consumer) deliver(ctx context.Context, msg kafka.Message) bool {
	err := resilience.Retry(ctx, "handle-message", c.backoff, func() error {
		return c.handler(ctx, msg.Key, msg.Value)
	})
	switch {
	case err == nil:
		return true
	case ctx.Err() != nil:
		return false
	default:
		c.logger.Error("giving up on message",
			"partition", msg.Partition,
			"offset", msg.Offset,
			"error", err,
		)
		return true
	}
}

// DecodeJSON unmarshals a message value into T.
func DecodeJSON[T any](value []byte) (T, error) {
	var result T
	if err := json.Unmarshal(value, &result); err != nil {
		return result, fmt.Errorf("decoding kafka message: %w", err)
	}
	return result, nil
}

// EventType reads the "type" discriminator of a JSON event without decoding
// the rest of it.
func EventType(value []byte) (string, error) {
	var envelope struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(value, &envelope); err != nil {
		return "", fmt.Errorf("decoding event type: %w", err)
	}
	return envelope.Type, nil
}
