package ui

import (
	tea "github.com/charmbracelet/bubbletea"

	"arcshell/internal/route"
	"arcshell/internal/workspace"
)

// NavigateMsg asks the router to show a screen.
type NavigateMsg struct {
	Key    route.Key
	Params map[string]string
}

// MenuActionMsg runs an application menu action by name.
type MenuActionMsg struct {
	Name string
}

// BackMsg is the back affordance.
type BackMsg struct{}

// ShowTracesMsg opens the trace overlay.
type ShowTracesMsg struct{}

// ShowActivityMsg opens the activity overlay (progress and notifications).
type ShowActivityMsg struct{}

// DismissOverlayMsg closes the topmost overlay.
type DismissOverlayMsg struct{}

// TraceChangedMsg is sent when new spans have been exported.
type TraceChangedMsg struct{}

// RequestsLoadedMsg carries a page of persisted requests for a list screen.
type RequestsLoadedMsg struct {
	Kind     string
	Requests []workspace.Request
	Err      error
}

// OpenRequestMsg opens a persisted request in the workspace.
type OpenRequestMsg struct {
	Kind string
	ID   string
}

func navigate(key route.Key, params map[string]string) tea.Cmd {
	return func() tea.Msg { return NavigateMsg{Key: key, Params: params} }
}

func menuAction(name string) tea.Cmd {
	return func() tea.Msg { return MenuActionMsg{Name: name} }
}

func send(msg tea.Msg) tea.Cmd {
	return func() tea.Msg { return msg }
}

// SaveRequestMsg saves the active workspace request.
type SaveRequestMsg struct{}

// ShowHelpMsg opens the key help overlay.
type ShowHelpMsg struct{}

// SignInMsg starts an interactive sign-in.
type SignInMsg struct{}

type savedMsg struct {
	Request workspace.Request
	Err     error
}
