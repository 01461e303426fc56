package ui

import (
	"strings"
	"testing"
	"time"

	"arcshell/internal/trace"
)

type staticTraces []*trace.Trace

func (s staticTraces) GetRecentTraces() []*trace.Trace { return s }

func TestTraceView_RendersTree(t *testing.T) {
	load := &trace.Span{Name: "module.load", Duration: 40 * time.Millisecond, Status: "error", Err: "fetch failed"}
	root := &trace.Span{
		Name:       "router.navigate",
		Duration:   50 * time.Millisecond,
		Status:     "error",
		Attributes: map[string]string{"arcshell.route": "history"},
		Children:   []*trace.Span{load},
	}
	src := staticTraces{{ID: "0123456789abcdef", StartTime: time.Now(), RootSpan: root, Status: "error"}}

	v := NewTraceView(src, 100, 30)
	out := v.viewport.View()
	for _, want := range []string{"router.navigate", "01234567", "arcshell.route=history", "└─ module.load", "40ms", "fetch failed"} {
		if !strings.Contains(out, want) {
			t.Errorf("trace view missing %q:\n%s", want, out)
		}
	}
}

func TestTraceView_Empty(t *testing.T) {
	v := NewTraceView(nil, 60, 20)
	if !strings.Contains(v.viewport.View(), "No traces yet") {
		t.Errorf("expected empty state, got %q", v.viewport.View())
	}
}

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		d    time.Duration
		want string
	}{
		{500 * time.Microsecond, "500µs"},
		{12 * time.Millisecond, "12ms"},
		{1500 * time.Millisecond, "1.5s"},
		{90 * time.Second, "1m30s"},
	}
	for _, tt := range tests {
		if got := formatDuration(tt.d); got != tt.want {
			t.Errorf("formatDuration(%v) = %q, want %q", tt.d, got, tt.want)
		}
	}
}

func TestScreenTitle(t *testing.T) {
	if got := screenTitle("cookie-manager"); got != "Cookie Manager" {
		t.Errorf("screenTitle = %q", got)
	}
}
