// Package analytics restores the anonymous client id and records screen views
// and events published on the bus.
package analytics

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"arcshell/internal/event"
)

// Storage keys.
const (
	SyncKey   = "ga.cid"
	LegacyKey = "cid"
)

// maxPending bounds the hits buffered before the client id is known.
const maxPending = 50

// SyncStore is the profile-synced key/value store. *syncstore.Store implements it.
type SyncStore interface {
	Get(key string) (string, error)
	Set(key, value string) error
}

// LegacyStore is the local metadata table of older releases.
// *database.MetaRepo implements it.
type LegacyStore interface {
	Get(ctx context.Context, key string) (string, error)
}

// Hit types.
const (
	HitScreen = "screenview"
	HitEvent  = "event"
)

// Hit is one recorded analytics hit.
type Hit struct {
	Type     string
	ClientID string
	Screen   string
	Category string
	Action   string
	Label    string
	At       time.Time
}

// Sink delivers hits.
type Sink interface {
	Send(ctx context.Context, h Hit) error
}

// LogSink writes hits to the log and as spans.
type LogSink struct {
	Log    *slog.Logger
	Tracer trace.Tracer
}

func (s LogSink) Send(ctx context.Context, h Hit) error {
	log := s.Log
	if log == nil {
		log = slog.Default()
	}
	log.Info("analytics.Send: hit", "type", h.Type, "screen", h.Screen, "category", h.Category, "action", h.Action, "label", h.Label)
	if s.Tracer != nil {
		_, span := s.Tracer.Start(ctx, "analytics."+h.Type, trace.WithAttributes(
			attribute.String("arcshell.analytics.screen", h.Screen),
			attribute.String("arcshell.analytics.category", h.Category),
			attribute.String("arcshell.analytics.action", h.Action),
			attribute.String("arcshell.analytics.label", h.Label),
		))
		span.End()
	}
	return nil
}

// Tracker records hits once the client id has been restored. Hits published
// earlier are buffered.
type Tracker struct {
	sync   SyncStore
	legacy LegacyStore
	sink   Sink
	tracer trace.Tracer
	log    *slog.Logger
	now    func() time.Time
	newID  func() string

	mu       sync.Mutex
	clientID string
	screen   string
	pending  []Hit
	subs     event.Group
}

// Option configures a Tracker.
type Option func(*Tracker)

// WithSink replaces the default LogSink.
func WithSink(s Sink) Option {
	return func(t *Tracker) { t.sink = s }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(t *Tracker) {
		if l != nil {
			t.log = l
		}
	}
}

// WithTracerProvider emits hits as spans through the default sink.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(t *Tracker) {
		if tp != nil {
			t.tracer = tp.Tracer("arcshell/analytics")
		}
	}
}

// NewTracker creates a tracker. legacy may be nil.
func NewTracker(sync SyncStore, legacy LegacyStore, opts ...Option) *Tracker {
	t := &Tracker{
		sync:   sync,
		legacy: legacy,
		log:    slog.Default(),
		now:    time.Now,
		newID:  uuid.NewString,
		tracer: noop.NewTracerProvider().Tracer("arcshell/analytics"),
	}
	for _, o := range opts {
		o(t)
	}
	if t.sink == nil {
		t.sink = LogSink{Log: t.log, Tracer: t.tracer}
	}
	return t
}

// RestoreClientID loads the client id from sync storage, then from the legacy
// table, and otherwise generates and stores a new one. Buffered hits are sent
// in record order before the id is published, then the current screen is
// reported.
func (t *Tracker) RestoreClientID(ctx context.Context) (string, error) {
	id, err := t.lookup(ctx)
	if err != nil {
		return "", err
	}

	hasScreen := false
	for {
		t.mu.Lock()
		pending := t.pending
		t.pending = nil
		if len(pending) == 0 {
			t.clientID = id
			screen := t.screen
			t.mu.Unlock()
			if !hasScreen && screen != "" {
				t.send(ctx, Hit{Type: HitScreen, ClientID: id, Screen: screen, At: t.now()})
			}
			return id, nil
		}
		t.mu.Unlock()

		for _, h := range pending {
			h.ClientID = id
			hasScreen = hasScreen || h.Type == HitScreen
			t.send(ctx, h)
		}
	}
}

func (t *Tracker) lookup(ctx context.Context) (string, error) {
	if t.sync != nil {
		id, err := t.sync.Get(SyncKey)
		if err == nil && id != "" {
			return id, nil
		}
		if err != nil {
			t.log.Debug("analytics.RestoreClientID: no synced id", "err", err)
		}
	}
	if t.legacy != nil {
		id, err := t.legacy.Get(ctx, LegacyKey)
		if err == nil && id != "" {
			return id, nil
		}
	}
	id := t.newID()
	if t.sync == nil {
		return id, nil
	}
	if err := t.sync.Set(SyncKey, id); err != nil {
		return "", fmt.Errorf("store client id: %w", err)
	}
	return id, nil
}

// ClientID returns the restored client id, or "".
func (t *Tracker) ClientID() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.clientID
}

// Subscribe records route changes as screen views and analytics events as
// events.
func (t *Tracker) Subscribe(bus *event.Bus) {
	t.subs.Add(event.Subscribe(bus, event.OnRouteChanged, "analytics", func(e *event.Event[event.RouteChanged]) {
		screen := string(e.Payload.Route.Key)
		t.mu.Lock()
		t.screen = screen
		t.mu.Unlock()
		t.record(Hit{Type: HitScreen, Screen: screen})
	}))
	t.subs.Add(event.Subscribe(bus, event.OnAnalytics, "analytics", func(e *event.Event[event.Analytics]) {
		p := e.Payload
		t.record(Hit{Type: HitEvent, Category: p.Category, Action: p.Action, Label: p.Label})
	}))
}

// Close releases the bus subscriptions.
func (t *Tracker) Close() {
	t.subs.Release()
}

func (t *Tracker) record(h Hit) {
	h.At = t.now()
	t.mu.Lock()
	if t.clientID == "" {
		t.pending = append(t.pending, h)
		if len(t.pending) > maxPending {
			t.pending = t.pending[len(t.pending)-maxPending:]
		}
		t.mu.Unlock()
		return
	}
	h.ClientID = t.clientID
	t.mu.Unlock()
	t.send(context.Background(), h)
}

func (t *Tracker) send(ctx context.Context, h Hit) {
	if err := t.sink.Send(ctx, h); err != nil && !errors.Is(err, context.Canceled) {
		t.log.Warn("analytics.send: dropping hit", "type", h.Type, "err", err)
	}
}
