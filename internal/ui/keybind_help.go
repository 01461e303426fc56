package ui

import (
	"strings"

	"github.com/charmbracelet/bubbles/help"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"arcshell/internal/ui/textutil"
)

func newHelpModel() help.Model {
	m := help.New()
	m.Styles.ShortKey = lipgloss.NewStyle().Foreground(lipgloss.Color(ColorHighlight)).Bold(true)
	m.Styles.ShortDesc = Styles.Muted
	m.Styles.ShortSeparator = Styles.Muted
	m.Styles.FullKey = m.Styles.ShortKey
	m.Styles.FullDesc = Styles.Muted
	return m
}

// RenderKeybindHelp produces the transient help bar shown after SPC. When the
// handler has a buffered submenu (e.g. "SPC g") it shows the next level.
func RenderKeybindHelp(keyHandler *KeyHandler, mode AppMode) string {
	if keyHandler == nil {
		return ""
	}
	bindings := NewKeyMap(keyHandler.Registry, keyHandler, mode).ShortHelp()
	if len(bindings) == 0 {
		return ""
	}
	prefix := "SPC"
	if len(keyHandler.Buffer) > 0 {
		prefix = strings.Join(keyHandler.Buffer, " ")
	}
	content := Styles.Muted.Render(prefix) + " " + newHelpModel().ShortHelpView(bindings)
	return Styles.HelpBar.Render(content)
}

// HelpView lists every binding available in a mode.
type HelpView struct {
	registry *KeybindRegistry
	mode     AppMode
}

var _ View = (*HelpView)(nil)

// NewHelpView creates the help overlay for mode.
func NewHelpView(reg *KeybindRegistry, mode AppMode) *HelpView {
	return &HelpView{registry: reg, mode: mode}
}

// Init implements View.
func (v *HelpView) Init() tea.Cmd { return nil }

// Update implements View.
func (v *HelpView) Update(msg tea.Msg) (View, tea.Cmd) {
	if k, ok := msg.(tea.KeyMsg); ok && (k.String() == "esc" || k.String() == "?") {
		return v, send(DismissOverlayMsg{})
	}
	return v, nil
}

// View implements View.
func (v *HelpView) View() string {
	var b strings.Builder
	b.WriteString(Styles.Title.Render("Keys"))
	b.WriteString("  " + Styles.Hint.Render("Esc: close") + "\n\n")
	for _, kv := range v.registry.Sorted(v.mode) {
		b.WriteString(Styles.Selected.Render(textutil.PadRightVisual(kv[0], 10)))
		b.WriteString(" " + kv[1] + "\n")
	}
	return Styles.Box.Render(strings.TrimRight(b.String(), "\n"))
}
