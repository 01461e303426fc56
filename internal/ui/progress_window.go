package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"arcshell/internal/progress"
	"arcshell/internal/shell"
)

// ActivityView lists running progress indicators and recent notifications.
type ActivityView struct {
	progress *progress.Set
	toasts   *shell.Toasts
	spinner  spinner.Model
	viewport viewport.Model
}

var _ View = (*ActivityView)(nil)

const (
	defaultActivityWidth  = 70
	defaultActivityHeight = 14
)

// NewActivityView creates the activity overlay.
func NewActivityView(set *progress.Set, toasts *shell.Toasts) *ActivityView {
	vp := viewport.New(defaultActivityWidth, defaultActivityHeight)
	vp.Style = lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color(ColorHighlight)).
		Padding(0, 1)
	a := &ActivityView{
		progress: set,
		toasts:   toasts,
		spinner:  spinner.New(spinner.WithSpinner(spinner.Dot), spinner.WithStyle(Styles.Status)),
		viewport: vp,
	}
	a.refreshContent()
	return a
}

// Init implements View.
func (a *ActivityView) Init() tea.Cmd {
	return a.spinner.Tick
}

// Update implements View.
func (a *ActivityView) Update(msg tea.Msg) (View, tea.Cmd) {
	switch msg := msg.(type) {
	case spinner.TickMsg:
		var cmd tea.Cmd
		a.spinner, cmd = a.spinner.Update(msg)
		a.refreshContent()
		return a, cmd
	case tea.KeyMsg:
		switch msg.String() {
		case "esc":
			return a, send(DismissOverlayMsg{})
		case "x":
			if a.toasts != nil {
				a.toasts.Dismiss()
			}
			a.refreshContent()
			return a, nil
		}
	case tea.WindowSizeMsg:
		w := msg.Width - 4
		h := msg.Height/2 + 2
		if w < 40 {
			w = 40
		}
		if h < 8 {
			h = 8
		}
		a.viewport.Width = w
		a.viewport.Height = h
		a.refreshContent()
		return a, nil
	}
	var cmd tea.Cmd
	a.viewport, cmd = a.viewport.Update(msg)
	return a, cmd
}

// View implements View.
func (a *ActivityView) View() string {
	header := Styles.Title.Render("Activity") + Styles.Hint.Render("  x: dismiss notification  Esc: close")
	return header + "\n" + a.viewport.View()
}

func (a *ActivityView) refreshContent() {
	var lines []string
	lines = append(lines, Styles.Section.Render("In progress"))
	var running []progress.Indicator
	if a.progress != nil {
		running = a.progress.List()
	}
	if len(running) == 0 {
		lines = append(lines, Styles.Empty.Render("  nothing running"))
	}
	for _, ind := range running {
		mark := a.spinner.View()
		if !ind.Indeterminate {
			mark = "•"
		}
		lines = append(lines, fmt.Sprintf("  %s %s %s", mark, ind.Message, Styles.Muted.Render(ind.Started.Format("15:04:05"))))
	}

	lines = append(lines, "", Styles.Section.Render("Notifications"))
	var items []shell.Toast
	if a.toasts != nil {
		items = a.toasts.Items()
	}
	if len(items) == 0 {
		lines = append(lines, Styles.Empty.Render("  none"))
	}
	for i := len(items) - 1; i >= 0; i-- {
		lines = append(lines, "  "+renderToast(items[i]))
	}
	a.viewport.SetContent(strings.Join(lines, "\n"))
}

func renderToast(t shell.Toast) string {
	ts := Styles.Muted.Render(t.At.Format("15:04:05"))
	if t.Error {
		return Styles.ToastError.Render(t.Message) + " " + ts
	}
	return Styles.Toast.Render(t.Message) + " " + ts
}
