package kafka

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/Adithya-Monish-Kumar-K/Portfolio-Assistant/pkg/resilience"
)

func TestEncode(t *testing.T) {
	msgs, err := encode([]Event{
		{Key: "faq", Value: map[string]any{"type": "query", "doc_id": 1}},
		{Key: "blog", Value: "plain"},
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(msgs) != 2 || string(msgs[0].Key) != "faq" || string(msgs[1].Value) != `"plain"` {
		t.Fatalf("unexpected messages: %+v", msgs)
	}

	if _, err := encode([]Event{{Key: "bad", Value: make(chan int)}}); err == nil {
		t.Fatal("expected encode error for channel value")
	}
}

func TestEventTypeAndDecode(t *testing.T) {
	value := []byte(`{"type":"corpus_updated","corpus":"faq"}`)
	typ, err := EventType(value)
	if err != nil || typ != "corpus_updated" {
		t.Fatalf("EventType = %q, %v", typ, err)
	}
	decoded, err := DecodeJSON[struct {
		Corpus string `json:"corpus"`
	}](value)
	if err != nil || decoded.Corpus != "faq" {
		t.Fatalf("DecodeJSON = %+v, %v", decoded, err)
	}
	if _, err := EventType([]byte("not json")); err == nil {
		t.Fatal("expected error for malformed value")
	}
}

func testConsumer(handler MessageHandler) *Consumer {
	return &Consumer{
		logger:  slog.Default(),
		handler: handler,
		backoff: resilience.Backoff{Attempts: resilience.Unlimited, Base: time.Millisecond, Cap: 5 * time.Millisecond},
	}
}

func TestDeliverRetriesFailedHandler(t *testing.T) {
	calls := 0
	c := testConsumer(func(context.Context, []byte, []byte) error {
		calls++
		if calls == 1 {
			return errors.New("reload failed")
		}
		return nil
	})
	if !c.deliver(context.Background(), kafka.Message{Value: []byte(`{}`)}) {
		t.Fatal("message should be committed once the handler succeeds")
	}
	if calls != 2 {
		t.Errorf("handler calls = %d, want 2", calls)
	}
}

func TestDeliverCommitsPermanentFailure(t *testing.T) {
	calls := 0
	c := testConsumer(func(context.Context, []byte, []byte) error {
		calls++
		return resilience.Permanent(errors.New("unknown corpus"))
	})
	if !c.deliver(context.Background(), kafka.Message{}) {
		t.Fatal("a permanent failure should be committed and skipped")
	}
	if calls != 1 {
		t.Errorf("handler calls = %d, want 1", calls)
	}
}

func TestDeliverLeavesMessageOnShutdown(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	c := testConsumer(func(context.Context, []byte, []byte) error {
		calls++
		if calls == 3 {
			cancel()
		}
		return errors.New("broker unreachable")
	})
	if c.deliver(ctx, kafka.Message{}) {
		t.Fatal("a message that never succeeded must stay uncommitted")
	}
}
