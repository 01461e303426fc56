// Package trace configures OpenTelemetry for arcshell and keeps the recent
// navigation traces in memory for the in-app trace view.
package trace

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

// Span is a finished span and its finished children.
type Span struct {
	TraceID    string
	SpanID     string
	ParentID   string
	Name       string
	StartTime  time.Time
	Duration   time.Duration
	Attributes map[string]string
	Status     string // "ok" or "error"
	Err        string
	Children   []*Span
}

// Trace is one navigation or load, rooted at its outermost span.
type Trace struct {
	ID        string
	StartTime time.Time
	EndTime   time.Time
	RootSpan  *Span
	Status    string // "running" until the root span ends, then "completed" or "error"
}

// Manager is a span exporter that assembles exported spans into traces and
// keeps the most recent ones.
type Manager struct {
	mu            sync.RWMutex
	traces        map[string]*Trace  // traceID -> Trace
	orphanedSpans map[string][]*Span // parentID -> spans waiting for their parent
	recentIDs     []string           // ring buffer of recent trace IDs, oldest first
	maxTraces     int
	onChange      func()
}

var _ sdktrace.SpanExporter = (*Manager)(nil)

// NewManager creates a manager keeping maxTraces traces (default 10).
func NewManager(maxTraces int) *Manager {
	if maxTraces <= 0 {
		maxTraces = 10
	}
	return &Manager{
		traces:        make(map[string]*Trace),
		orphanedSpans: make(map[string][]*Span),
		recentIDs:     make([]string, 0, maxTraces),
		maxTraces:     maxTraces,
	}
}

// ExportSpans implements sdktrace.SpanExporter.
func (m *Manager) ExportSpans(ctx context.Context, spans []sdktrace.ReadOnlySpan) error {
	m.mu.Lock()
	for _, s := range spans {
		m.add(fromReadOnly(s))
	}
	m.mu.Unlock()
	m.callOnChange()
	return nil
}

// Shutdown implements sdktrace.SpanExporter.
func (m *Manager) Shutdown(ctx context.Context) error { return nil }

func fromReadOnly(s sdktrace.ReadOnlySpan) *Span {
	span := &Span{
		TraceID:    s.SpanContext().TraceID().String(),
		SpanID:     s.SpanContext().SpanID().String(),
		Name:       s.Name(),
		StartTime:  s.StartTime(),
		Duration:   s.EndTime().Sub(s.StartTime()),
		Attributes: make(map[string]string, len(s.Attributes())),
		Status:     "ok",
	}
	if p := s.Parent(); p.IsValid() {
		span.ParentID = p.SpanID().String()
	}
	for _, kv := range s.Attributes() {
		span.Attributes[string(kv.Key)] = kv.Value.Emit()
	}
	if st := s.Status(); st.Code == codes.Error {
		span.Status = "error"
		span.Err = st.Description
	}
	return span
}

// add files span under its trace. Children end before their parents, so a
// child whose parent has not been exported yet waits in orphanedSpans.
// Must be called with m.mu held.
func (m *Manager) add(span *Span) {
	trace, exists := m.traces[span.TraceID]
	if !exists {
		trace = &Trace{ID: span.TraceID, StartTime: span.StartTime, Status: "running"}
		m.traces[span.TraceID] = trace
		m.addToRecentIDs(span.TraceID)
	}
	m.attachOrphanedChildren(span)

	if span.ParentID == "" {
		trace.RootSpan = span
		trace.StartTime = span.StartTime
		trace.EndTime = span.StartTime.Add(span.Duration)
		trace.Status = "completed"
		if span.Status == "error" {
			trace.Status = "error"
		}
		return
	}
	if trace.RootSpan != nil {
		if parent := findSpanByID(trace.RootSpan, span.ParentID); parent != nil {
			parent.Children = append(parent.Children, span)
			return
		}
	}
	m.orphanedSpans[span.ParentID] = append(m.orphanedSpans[span.ParentID], span)
}

func (m *Manager) attachOrphanedChildren(span *Span) {
	if children, ok := m.orphanedSpans[span.SpanID]; ok {
		span.Children = append(span.Children, children...)
		delete(m.orphanedSpans, span.SpanID)
	}
}

func findSpanByID(root *Span, id string) *Span {
	if root.SpanID == id {
		return root
	}
	for _, c := range root.Children {
		if s := findSpanByID(c, id); s != nil {
			return s
		}
	}
	return nil
}

// addToRecentIDs records id and evicts the oldest trace past maxTraces.
// Must be called with m.mu held.
func (m *Manager) addToRecentIDs(id string) {
	m.recentIDs = append(m.recentIDs, id)
	if len(m.recentIDs) <= m.maxTraces {
		return
	}
	oldest := m.recentIDs[0]
	m.recentIDs = m.recentIDs[1:]
	delete(m.traces, oldest)
	for parentID, spans := range m.orphanedSpans {
		if len(spans) > 0 && spans[0].TraceID == oldest {
			delete(m.orphanedSpans, parentID)
		}
	}
}

// GetTrace returns the trace with id, or nil.
func (m *Manager) GetTrace(id string) *Trace {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.traces[id]
}

// GetRecentTraces returns the kept traces, newest first.
func (m *Manager) GetRecentTraces() []*Trace {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*Trace, 0, len(m.recentIDs))
	for i := len(m.recentIDs) - 1; i >= 0; i-- {
		if t, ok := m.traces[m.recentIDs[i]]; ok {
			out = append(out, t)
		}
	}
	return out
}

// SetOnChange sets a callback run after every export.
func (m *Manager) SetOnChange(fn func()) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onChange = fn
}

func (m *Manager) callOnChange() {
	m.mu.RLock()
	fn := m.onChange
	m.mu.RUnlock()
	if fn != nil {
		fn()
	}
}
