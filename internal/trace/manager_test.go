package trace

import (
	"context"
	"errors"
	"sync"
	"testing"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

func newTestProvider(maxTraces int) (*Manager, *sdktrace.TracerProvider) {
	m := NewManager(maxTraces)
	return m, sdktrace.NewTracerProvider(sdktrace.WithSyncer(m))
}

func TestNewManager_Defaults(t *testing.T) {
	m := NewManager(0)
	if m.maxTraces != 10 {
		t.Errorf("NewManager(0): expected maxTraces=10, got %d", m.maxTraces)
	}
	if m.traces == nil || m.orphanedSpans == nil {
		t.Error("NewManager: expected maps to be initialized")
	}
}

func TestExportSpans_BuildsTree(t *testing.T) {
	m, tp := newTestProvider(10)
	tracer := tp.Tracer("test")

	ctx, root := tracer.Start(context.Background(), "router.navigate")
	_, child := tracer.Start(ctx, "module.load")
	child.SetAttributes(attribute.String("arcshell.module.id", "history-panel"))
	child.End()

	traces := m.GetRecentTraces()
	if len(traces) != 1 || traces[0].Status != "running" {
		t.Fatalf("before root ends: expected one running trace, got %+v", traces)
	}

	root.End()

	tr := m.GetTrace(root.SpanContext().TraceID().String())
	if tr == nil || tr.RootSpan == nil {
		t.Fatal("GetTrace: expected trace with root span")
	}
	if tr.Status != "completed" {
		t.Errorf("Status: expected completed, got %q", tr.Status)
	}
	if tr.RootSpan.Name != "router.navigate" {
		t.Errorf("RootSpan.Name: got %q", tr.RootSpan.Name)
	}
	if len(tr.RootSpan.Children) != 1 {
		t.Fatalf("expected 1 child, got %d", len(tr.RootSpan.Children))
	}
	c := tr.RootSpan.Children[0]
	if c.Name != "module.load" || c.Attributes["arcshell.module.id"] != "history-panel" {
		t.Errorf("child: got %+v", c)
	}
	if len(m.orphanedSpans) != 0 {
		t.Errorf("expected no orphans, got %d", len(m.orphanedSpans))
	}
}

func TestExportSpans_ErrorStatus(t *testing.T) {
	m, tp := newTestProvider(10)
	_, span := tp.Tracer("test").Start(context.Background(), "router.navigate")
	span.RecordError(errors.New("offline"))
	span.SetStatus(codes.Error, "offline")
	span.End()

	tr := m.GetRecentTraces()[0]
	if tr.Status != "error" || tr.RootSpan.Err != "offline" {
		t.Errorf("expected error trace, got status %q err %q", tr.Status, tr.RootSpan.Err)
	}
}

func TestGetRecentTraces_NewestFirstAndEvicts(t *testing.T) {
	m, tp := newTestProvider(2)
	tracer := tp.Tracer("test")
	var ids []string
	for _, name := range []string{"a", "b", "c"} {
		_, s := tracer.Start(context.Background(), name)
		s.End()
		ids = append(ids, s.SpanContext().TraceID().String())
	}

	recent := m.GetRecentTraces()
	if len(recent) != 2 {
		t.Fatalf("expected 2 traces, got %d", len(recent))
	}
	if recent[0].RootSpan.Name != "c" || recent[1].RootSpan.Name != "b" {
		t.Errorf("expected [c b], got [%s %s]", recent[0].RootSpan.Name, recent[1].RootSpan.Name)
	}
	if m.GetTrace(ids[0]) != nil {
		t.Error("expected oldest trace to be evicted")
	}
}

func TestSetOnChange_CallbackCalled(t *testing.T) {
	m, tp := newTestProvider(10)
	calls := 0
	m.SetOnChange(func() { calls++ })

	_, s := tp.Tracer("test").Start(context.Background(), "x")
	s.End()

	if calls != 1 {
		t.Errorf("expected 1 callback, got %d", calls)
	}
}

func TestConcurrentAccess_Safe(t *testing.T) {
	m, tp := newTestProvider(5)
	tracer := tp.Tracer("test")
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ctx, root := tracer.Start(context.Background(), "root")
			_, child := tracer.Start(ctx, "child")
			child.End()
			root.End()
			_ = m.GetRecentTraces()
		}()
	}
	wg.Wait()

	if got := len(m.GetRecentTraces()); got != 5 {
		t.Errorf("expected 5 kept traces, got %d", got)
	}
}

func TestNewProvider_WithoutEndpoint(t *testing.T) {
	t.Setenv("OTEL_EXPORTER_OTLP_ENDPOINT", "")
	p, err := NewProvider(context.Background(), 3)
	if err != nil {
		t.Fatalf("NewProvider: %v", err)
	}
	defer p.Shutdown(context.Background())

	if p.Exporting() {
		t.Error("expected OTLP export disabled")
	}
	_, s := p.TracerProvider().Tracer("test").Start(context.Background(), "x")
	s.End()
	if len(p.Manager.GetRecentTraces()) != 1 {
		t.Error("expected span recorded in manager")
	}
}
