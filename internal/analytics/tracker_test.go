package analytics

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"arcshell/internal/event"
	"arcshell/internal/route"
)

type memSync struct {
	values map[string]string
	setErr error
}

func (m *memSync) Get(key string) (string, error) {
	v, ok := m.values[key]
	if !ok {
		return "", errors.New("no such key")
	}
	return v, nil
}

func (m *memSync) Set(key, value string) error {
	if m.setErr != nil {
		return m.setErr
	}
	if m.values == nil {
		m.values = map[string]string{}
	}
	m.values[key] = value
	return nil
}

type memLegacy map[string]string

func (m memLegacy) Get(ctx context.Context, key string) (string, error) {
	v, ok := m[key]
	if !ok {
		return "", errors.New("missing")
	}
	return v, nil
}

type recordingSink struct {
	mu     sync.Mutex
	hits   []Hit
	onSend func(Hit)
}

func (r *recordingSink) Send(ctx context.Context, h Hit) error {
	r.mu.Lock()
	r.hits = append(r.hits, h)
	hook := r.onSend
	r.mu.Unlock()
	if hook != nil {
		hook(h)
	}
	return nil
}

func TestRestoreClientID_Sources(t *testing.T) {
	tests := []struct {
		name       string
		sync       *memSync
		legacy     LegacyStore
		want       string
		wantStored string
	}{
		{"synced", &memSync{values: map[string]string{SyncKey: "sync-id"}}, memLegacy{LegacyKey: "old"}, "sync-id", "sync-id"},
		{"legacy", &memSync{}, memLegacy{LegacyKey: "old"}, "old", ""},
		{"generated", &memSync{}, memLegacy{}, "new-id", "new-id"},
		{"generated without legacy", &memSync{}, nil, "new-id", "new-id"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr := NewTracker(tt.sync, tt.legacy, WithSink(&recordingSink{}))
			tr.newID = func() string { return "new-id" }

			id, err := tr.RestoreClientID(context.Background())
			require.NoError(t, err)
			assert.Equal(t, tt.want, id)
			assert.Equal(t, tt.want, tr.ClientID())
			assert.Equal(t, tt.wantStored, tt.sync.values[SyncKey])
		})
	}
}

func TestRestoreClientID_StoreFailure(t *testing.T) {
	tr := NewTracker(&memSync{setErr: errors.New("read-only")}, nil)
	_, err := tr.RestoreClientID(context.Background())
	assert.Error(t, err)
	assert.Empty(t, tr.ClientID())
}

func TestTracker_BuffersUntilClientID(t *testing.T) {
	bus := event.New()
	sink := &recordingSink{}
	tr := NewTracker(&memSync{values: map[string]string{SyncKey: "cid"}}, nil, WithSink(sink))
	tr.Subscribe(bus)
	defer tr.Close()

	event.Publish(bus, event.OnRouteChanged, event.RouteChanged{Route: route.Route{Key: route.Settings}})
	event.Publish(bus, event.OnAnalytics, event.Analytics{Category: "Request", Action: "Use XHR", Label: "true"})
	assert.Empty(t, sink.hits)

	_, err := tr.RestoreClientID(context.Background())
	require.NoError(t, err)
	require.Len(t, sink.hits, 2)
	assert.Equal(t, Hit{Type: HitScreen, ClientID: "cid", Screen: "settings"}, withoutTime(sink.hits[0]))
	assert.Equal(t, "Use XHR", sink.hits[1].Action)

	event.Publish(bus, event.OnRouteChanged, event.RouteChanged{Route: route.Route{Key: route.History}})
	require.Len(t, sink.hits, 3)
	assert.Equal(t, "history", sink.hits[2].Screen)
	assert.Equal(t, "cid", sink.hits[2].ClientID)
}

func TestTracker_ReportsCurrentScreenAfterRestore(t *testing.T) {
	bus := event.New()
	sink := &recordingSink{}
	tr := NewTracker(&memSync{}, nil, WithSink(sink))
	tr.newID = func() string { return "cid" }
	tr.Subscribe(bus)
	defer tr.Close()

	event.Publish(bus, event.OnAnalytics, event.Analytics{Category: "c", Action: "a"})
	tr.mu.Lock()
	tr.screen = "request"
	tr.mu.Unlock()

	_, err := tr.RestoreClientID(context.Background())
	require.NoError(t, err)
	require.Len(t, sink.hits, 2)
	assert.Equal(t, HitEvent, sink.hits[0].Type)
	assert.Equal(t, HitScreen, sink.hits[1].Type)
	assert.Equal(t, "request", sink.hits[1].Screen)
}

func TestTracker_HitsDuringFlushKeepOrder(t *testing.T) {
	bus := event.New()
	sink := &recordingSink{}
	tr := NewTracker(&memSync{values: map[string]string{SyncKey: "cid"}}, nil, WithSink(sink))
	tr.Subscribe(bus)
	defer tr.Close()

	event.Publish(bus, event.OnAnalytics, event.Analytics{Category: "c", Action: "first"})
	event.Publish(bus, event.OnAnalytics, event.Analytics{Category: "c", Action: "second"})
	sink.onSend = func(h Hit) {
		if h.Action == "first" {
			event.Publish(bus, event.OnAnalytics, event.Analytics{Category: "c", Action: "third"})
		}
	}

	_, err := tr.RestoreClientID(context.Background())
	require.NoError(t, err)

	var actions []string
	for _, h := range sink.hits {
		actions = append(actions, h.Action)
		assert.Equal(t, "cid", h.ClientID)
	}
	assert.Equal(t, []string{"first", "second", "third"}, actions)
}

func TestLogSink_RecordsSpan(t *testing.T) {
	exp := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exp))
	tr := NewTracker(&memSync{values: map[string]string{SyncKey: "cid"}}, nil, WithTracerProvider(tp))
	bus := event.New()
	tr.Subscribe(bus)
	defer tr.Close()
	_, err := tr.RestoreClientID(context.Background())
	require.NoError(t, err)

	event.Publish(bus, event.OnAnalytics, event.Analytics{Category: "Request", Action: "Send"})

	spans := exp.GetSpans()
	require.Len(t, spans, 1)
	assert.Equal(t, "analytics.event", spans[0].Name)
}

func withoutTime(h Hit) Hit {
	h.At = time.Time{}
	return h
}
