package ui

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"arcshell/internal/trace"
	"arcshell/internal/ui/textutil"
)

// TraceSource lists recent traces. *trace.Manager implements it.
type TraceSource interface {
	GetRecentTraces() []*trace.Trace
}

// TraceView renders recent navigation and module load traces as trees.
type TraceView struct {
	source   TraceSource
	viewport viewport.Model
	width    int
}

var _ View = (*TraceView)(nil)

// NewTraceView creates a trace overlay over source.
func NewTraceView(source TraceSource, width, height int) *TraceView {
	if width < 40 {
		width = 40
	}
	if height < 10 {
		height = 10
	}
	vp := viewport.New(width, height)
	vp.Style = lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color(ColorHighlight)).
		Padding(0, 1)
	v := &TraceView{source: source, viewport: vp, width: width}
	v.refreshContent()
	return v
}

// Init implements View.
func (v *TraceView) Init() tea.Cmd {
	return v.viewport.Init()
}

// Update implements View.
func (v *TraceView) Update(msg tea.Msg) (View, tea.Cmd) {
	switch msg := msg.(type) {
	case TraceChangedMsg:
		atTop := v.viewport.AtTop()
		v.refreshContent()
		if atTop {
			v.viewport.GotoTop()
		}
		return v, nil
	case tea.WindowSizeMsg:
		v.SetSize(msg.Width-4, msg.Height-6)
		return v, nil
	case tea.KeyMsg:
		switch msg.String() {
		case "esc", "q":
			return v, send(DismissOverlayMsg{})
		case "j", "down":
			v.viewport.LineDown(1)
			return v, nil
		case "k", "up":
			v.viewport.LineUp(1)
			return v, nil
		case "ctrl+d", "pgdown":
			v.viewport.ViewDown()
			return v, nil
		case "ctrl+u", "pgup":
			v.viewport.ViewUp()
			return v, nil
		case "g", "home":
			v.viewport.GotoTop()
			return v, nil
		case "G", "end":
			v.viewport.GotoBottom()
			return v, nil
		}
	}
	var cmd tea.Cmd
	v.viewport, cmd = v.viewport.Update(msg)
	return v, cmd
}

// View implements View.
func (v *TraceView) View() string {
	header := Styles.Title.Render("Traces") + Styles.Hint.Render("  j/k: scroll  Esc: close")
	return header + "\n" + v.viewport.View()
}

// SetSize resizes the viewport.
func (v *TraceView) SetSize(width, height int) {
	if width < 40 {
		width = 40
	}
	if height < 10 {
		height = 10
	}
	v.width = width
	v.viewport.Width = width
	v.viewport.Height = height
	v.refreshContent()
}

func (v *TraceView) refreshContent() {
	var traces []*trace.Trace
	if v.source != nil {
		traces = v.source.GetRecentTraces()
	}
	if len(traces) == 0 {
		v.viewport.SetContent(Styles.Empty.Render("No traces yet"))
		return
	}
	var lines []string
	for i, t := range traces {
		if i > 0 {
			lines = append(lines, "")
		}
		lines = append(lines, v.renderTrace(t)...)
	}
	v.viewport.SetContent(strings.Join(lines, "\n"))
}

func (v *TraceView) renderTrace(t *trace.Trace) []string {
	name := "(pending)"
	if t.RootSpan != nil {
		name = t.RootSpan.Name
	}
	header := fmt.Sprintf("%s %s %s %s",
		statusMark(t.Status),
		Styles.Normal.Render(name),
		Styles.Muted.Render(shortTraceID(t.ID)),
		Styles.Muted.Render(t.StartTime.Format("15:04:05")))
	lines := []string{header}
	if t.RootSpan == nil {
		return lines
	}
	if attrs := formatAttributes(t.RootSpan.Attributes); attrs != "" {
		lines = append(lines, "   "+Styles.Muted.Render(attrs))
	}
	for i, child := range t.RootSpan.Children {
		lines = append(lines, v.renderSpan(child, "", i == len(t.RootSpan.Children)-1)...)
	}
	return lines
}

// renderSpan renders span and its children as tree lines.
func (v *TraceView) renderSpan(span *trace.Span, prefix string, isLast bool) []string {
	connector := "├─"
	if isLast {
		connector = "└─"
	}
	name := span.Name
	if name == "" {
		name = "(unnamed)"
	}
	maxName := v.width - textutil.VisualWidth(prefix) - 24
	if maxName < 12 {
		maxName = 12
	}
	line := prefix + connector + " " + textutil.Truncate(name, maxName) +
		" " + Styles.Muted.Render(formatDuration(span.Duration)) +
		" " + statusMark(span.Status)
	if span.Err != "" {
		line += " " + Styles.Error.Render(textutil.Truncate(span.Err, maxName))
	}
	lines := []string{line}

	childPrefix := prefix + "│  "
	if isLast {
		childPrefix = prefix + "   "
	}
	for i, c := range span.Children {
		lines = append(lines, v.renderSpan(c, childPrefix, i == len(span.Children)-1)...)
	}
	return lines
}

func statusMark(status string) string {
	switch status {
	case "running":
		return lipgloss.NewStyle().Foreground(lipgloss.Color(ColorWarning)).Render("●")
	case "error":
		return Styles.Error.Render("✗")
	default:
		return lipgloss.NewStyle().Foreground(lipgloss.Color(ColorOK)).Render("✓")
	}
}

func formatAttributes(attrs map[string]string) string {
	if len(attrs) == 0 {
		return ""
	}
	keys := make([]string, 0, len(attrs))
	for k := range attrs {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+"="+attrs[k])
	}
	return strings.Join(parts, " ")
}

// formatDuration formats sub-second durations in milliseconds.
func formatDuration(d time.Duration) string {
	switch {
	case d < time.Millisecond:
		return fmt.Sprintf("%dµs", d.Microseconds())
	case d < time.Second:
		return fmt.Sprintf("%dms", d.Milliseconds())
	case d < time.Minute:
		return fmt.Sprintf("%.1fs", d.Seconds())
	default:
		return d.Round(time.Second).String()
	}
}

func shortTraceID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
