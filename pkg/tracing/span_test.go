package tracing

import (
	"context"
	"testing"

	"github.com/Adithya-Monish-Kumar-K/Portfolio-Assistant/pkg/config"
)

func TestDisabledTracerReturnsNilSpan(t *testing.T) {
	tr := New(config.TracingConfig{Enabled: false, SampleRate: 1})
	ctx, span := tr.Start(context.Background(), "ask", "")
	if span != nil {
		t.Fatal("disabled tracer must not create spans")
	}
	_, child := StartChildSpan(ctx, "rank")
	if child != nil {
		t.Fatal("child without parent must be nil")
	}
	span.SetAttr("k", 1)
	span.End()

	var nilTracer *Tracer
	if _, s := nilTracer.Start(context.Background(), "ask", ""); s != nil {
		t.Fatal("nil tracer must not create spans")
	}
}

func TestSpanTree(t *testing.T) {
	tr := New(config.TracingConfig{Enabled: true, SampleRate: 1})
	ctx, root := tr.Start(context.Background(), "ask", "req-1")
	if root == nil {
		t.Fatal("expected sampled span")
	}
	childCtx, child := StartChildSpan(ctx, "rank")
	child.SetAttr("candidates", 3)
	child.End()
	if SpanFromContext(childCtx) != child {
		t.Fatal("child not stored in context")
	}
	root.End()

	if child.TraceID != "req-1" {
		t.Errorf("child trace id = %q", child.TraceID)
	}
	if len(root.Children) != 1 || root.Children[0].Attrs["candidates"] != 3 {
		t.Errorf("unexpected tree: %+v", root.Children)
	}
}

func TestSampling(t *testing.T) {
	tr := New(config.TracingConfig{Enabled: true, SampleRate: 0.5})
	tr.sample = func() float64 { return 0.9 }
	if _, s := tr.Start(context.Background(), "ask", ""); s != nil {
		t.Fatal("sample above rate must be dropped")
	}
	tr.sample = func() float64 { return 0.1 }
	_, s := tr.Start(context.Background(), "ask", "")
	if s == nil || len(s.TraceID) != 16 {
		t.Fatalf("expected sampled span with generated id, got %+v", s)
	}
}
