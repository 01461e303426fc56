package ui

import tea "github.com/charmbracelet/bubbletea"

// View is a screen or overlay with its own model, update and view.
type View interface {
	Init() tea.Cmd
	Update(tea.Msg) (View, tea.Cmd)
	View() string
}
