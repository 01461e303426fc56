package ui

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"arcshell/internal/database"
	"arcshell/internal/event"
	"arcshell/internal/route"
	"arcshell/internal/router"
	"arcshell/internal/shell"
	"arcshell/internal/workspace"
)

// Overlay names.
const (
	overlayDialog   = "dialog"
	overlayTraces   = "traces"
	overlayActivity = "activity"
	overlayHelp     = "help"
)

// Config holds the collaborators of the root model. Coordinator, Router,
// Table and Bus are required.
type Config struct {
	Coordinator *shell.Coordinator
	Router      *router.Navigator
	Table       *route.Table
	Bus         *event.Bus
	Traces      TraceSource
	Requests    RequestStore
	Project     *workspace.Project
	Menu        *router.MenuConfig
	StartRoute  string
	Logger      *slog.Logger
}

// AppModel is the root model. It owns the chrome around the current screen
// and forwards every message to the shell coordinator.
type AppModel struct {
	Mode       AppMode
	Screen     View
	KeyHandler *KeyHandler
	Overlays   OverlayStack

	coord    *shell.Coordinator
	router   *router.Navigator
	table    *route.Table
	bus      *event.Bus
	traces   TraceSource
	requests RequestStore
	project  *workspace.Project
	menu     *router.MenuConfig
	start    string
	log      *slog.Logger

	shown    string // route the Screen was built for
	dialog   string
	spinner  spinner.Model
	spinning bool
	width    int
	height   int
}

var _ tea.Model = (*appModelAdapter)(nil)

// appModelAdapter wraps AppModel to implement tea.Model.
type appModelAdapter struct {
	*AppModel
}

// NewAppModel creates the root model and binds the application keys.
func NewAppModel(cfg Config) *AppModel {
	log := cfg.Logger
	if log == nil {
		log = slog.Default()
	}
	project := cfg.Project
	if project == nil {
		project = &workspace.Project{}
	}
	m := &AppModel{
		Mode:     ModeHome,
		coord:    cfg.Coordinator,
		router:   cfg.Router,
		table:    cfg.Table,
		bus:      cfg.Bus,
		traces:   cfg.Traces,
		requests: cfg.Requests,
		project:  project,
		menu:     cfg.Menu,
		start:    cfg.StartRoute,
		log:      log,
		spinner:  spinner.New(spinner.WithSpinner(spinner.MiniDot), spinner.WithStyle(Styles.Status)),
	}
	m.KeyHandler = NewKeyHandler(m.bindKeys())
	return m
}

// AsTeaModel returns a tea.Model adapter for use with tea.NewProgram.
func (m *AppModel) AsTeaModel() tea.Model {
	return &appModelAdapter{AppModel: m}
}

func (m *AppModel) bindKeys() *KeybindRegistry {
	reg := NewKeybindRegistry()
	reg.BindWithDesc("ctrl+c", tea.Quit, "Quit")
	reg.BindWithDescForMode("q", tea.Quit, "Quit", []AppMode{ModeHome})
	reg.BindWithDesc("SPC q", tea.Quit, "Quit")
	reg.BindWithDesc("?", send(ShowHelpMsg{}), "Keys")

	home := []AppMode{ModeHome}
	reg.BindWithDesc("SPC n", navigate(route.Request, map[string]string{"type": workspace.TypeNew}), "New request")
	reg.BindWithDescForMode("SPC k", menuAction("close-tab"), "Close tab", home)
	reg.BindWithDescForMode("SPC s", send(SaveRequestMsg{}), "Save request", home)
	reg.BindWithDesc("SPC r", menuAction("open-workspace"), "Workspace")
	reg.BindWithDescForMode("SPC b", send(BackMsg{}), "Back", []AppMode{ModeScreen, ModeConsole})
	reg.BindWithDesc("SPC t", send(ShowTracesMsg{}), "Traces")
	reg.BindWithDesc("SPC a", send(ShowActivityMsg{}), "Activity")

	reg.BindWithDesc("SPC o l", menuAction("open-license"), "License")
	reg.BindWithDesc("SPC o v", menuAction("open-variables"), "Variables")
	reg.BindWithDesc("SPC o s", send(SignInMsg{}), "Sign in")
	reg.BindWithDescForMode("SPC o b", m.publishActive(func(r workspace.Request) {
		event.Publish(m.bus, event.OnExternalLink, event.ExternalLink{URL: r.URL})
	}), "Open URL in browser", home)
	reg.BindWithDescForMode("SPC o y", m.publishActive(func(r workspace.Request) {
		event.Publish(m.bus, event.OnClipboardWrite, event.ClipboardWrite{Value: r.URL})
	}), "Copy URL", home)

	reg.BindWithDesc("SPC D i", navigate(route.DataImport, nil), "Import")
	reg.BindWithDesc("SPC D e", navigate(route.DataExport, nil), "Export")

	if router.MenuDisabled(m.menu) {
		return reg
	}
	hide := m.menu
	if hide == nil {
		hide = &router.MenuConfig{}
	}
	goTo := func(seq string, k route.Key, desc string, hidden bool) {
		if !hidden {
			reg.BindWithDesc(seq, navigate(k, nil), desc)
		}
	}
	goTo("SPC g h", route.History, "History", hide.HideHistory)
	goTo("SPC g s", route.Saved, "Saved", hide.HideSaved)
	goTo("SPC g p", route.Project, "Project", hide.HideProjects)
	goTo("SPC g x", route.ExchangeSearch, "Exchange search", hide.HideApis)
	goTo("SPC g a", route.APIConsole, "API console", hide.HideApis)
	goTo("SPC g c", route.CookieManager, "Cookies", false)
	goTo("SPC g H", route.HostRules, "Host rules", false)
	goTo("SPC g t", route.ThemesPanel, "Themes", false)
	goTo("SPC g w", route.Socket, "Web socket", false)
	goTo("SPC g d", route.Drive, "Drive", false)
	goTo("SPC g S", route.Settings, "Settings", false)
	goTo("SPC g A", route.About, "About", false)
	return reg
}

// publishActive returns a command that applies fn to the active request back
// on the update loop.
func (m *AppModel) publishActive(fn func(workspace.Request)) tea.Cmd {
	return func() tea.Msg {
		return activeRequestMsg{fn: fn}
	}
}

// activeRequestMsg moves bus publishing back onto the update loop.
type activeRequestMsg struct {
	fn func(workspace.Request)
}

// Init implements tea.Model.
func (a *appModelAdapter) Init() tea.Cmd {
	return a.after(a.coord.Init(a.start))
}

// Update implements tea.Model.
func (a *appModelAdapter) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width, a.height = msg.Width, msg.Height
		var cmds []tea.Cmd
		for i := range a.Overlays.Stack {
			v, cmd := a.Overlays.Stack[i].View.Update(msg)
			a.Overlays.Stack[i].View = v
			cmds = append(cmds, cmd)
		}
		cmds = append(cmds, a.updateScreen(msg))
		return a, a.after(cmds...)

	case tea.KeyMsg:
		return a, a.handleKey(msg)

	case NavigateMsg:
		a.coord.Navigate(string(msg.Key), msg.Params)
		return a, a.after(a.coord.Commands())

	case OpenRequestMsg:
		a.coord.Navigate(string(route.Request), map[string]string{"type": msg.Kind, "id": msg.ID})
		return a, a.after(a.coord.Commands())

	case MenuActionMsg:
		if err := a.coord.RunMenuAction(msg.Name); err != nil {
			a.log.Error("ui: menu action", "action", msg.Name, "err", err)
			a.coord.Toasts.NotifyError(err.Error())
		}
		return a, a.after(a.coord.Commands())

	case BackMsg:
		a.coord.Back()
		return a, a.after(a.coord.Commands())

	case SignInMsg:
		a.coord.SignIn()
		return a, a.after(a.coord.Commands())

	case activeRequestMsg:
		r, ok := a.coord.Workspace().Active()
		if !ok || r.URL == "" {
			a.coord.Toasts.Notify("The active request has no URL")
			return a, nil
		}
		msg.fn(r)
		return a, a.after(a.coord.Commands())

	case SaveRequestMsg:
		return a, a.after(a.saveActive())

	case savedMsg:
		if msg.Err != nil {
			a.log.Error("ui: saving request", "id", msg.Request.ID, "err", msg.Err)
			a.coord.Toasts.NotifyError(fmt.Sprintf("Unable to save request: %v", msg.Err))
			return a, nil
		}
		ws := a.coord.Workspace()
		if i := ws.FindRequestIndex(msg.Request.ID); i >= 0 {
			ws.UpdateRequest(msg.Request, i)
		}
		a.coord.Toasts.Notify("Request saved")
		return a, nil

	case ShowHelpMsg:
		if !a.Overlays.Has(overlayHelp) {
			a.Overlays.Push(Overlay{Name: overlayHelp, View: NewHelpView(a.KeyHandler.Registry, a.Mode), Dismiss: "esc"})
		}
		return a, nil

	case ShowTracesMsg:
		if a.Overlays.Has(overlayTraces) {
			return a, nil
		}
		v := NewTraceView(a.traces, a.width-4, a.height-6)
		a.Overlays.Push(Overlay{Name: overlayTraces, View: v, Dismiss: "esc"})
		return a, v.Init()

	case ShowActivityMsg:
		if err := a.coord.RunMenuAction("open-info-center"); err != nil {
			a.log.Error("ui: info center", "err", err)
		}
		return a, a.after()

	case DismissOverlayMsg:
		top, ok := a.Overlays.Pop()
		if !ok {
			return a, nil
		}
		switch top.Name {
		case overlayDialog:
			a.coord.CloseDialog()
			a.dialog = ""
		case overlayActivity:
			a.coord.InfoCenter = false
		}
		return a, nil

	case TraceChangedMsg:
		var cmds []tea.Cmd
		for i := range a.Overlays.Stack {
			if a.Overlays.Stack[i].Name == overlayTraces {
				v, cmd := a.Overlays.Stack[i].View.Update(msg)
				a.Overlays.Stack[i].View = v
				cmds = append(cmds, cmd)
			}
		}
		return a, tea.Batch(cmds...)

	case spinner.TickMsg:
		var cmds []tea.Cmd
		if msg.ID == a.spinner.ID() {
			if a.coord.Progress.Len() == 0 {
				a.spinning = false
				return a, nil
			}
			var cmd tea.Cmd
			a.spinner, cmd = a.spinner.Update(msg)
			return a, cmd
		}
		if cmd, ok := a.Overlays.UpdateTop(msg); ok {
			cmds = append(cmds, cmd)
		}
		return a, tea.Batch(cmds...)
	}

	cmd := a.coord.Update(msg)
	return a, a.after(cmd, a.updateScreen(msg))
}

func (a *appModelAdapter) handleKey(msg tea.KeyMsg) tea.Cmd {
	if msg.String() == "ctrl+c" {
		return tea.Quit
	}
	if top, ok := a.Overlays.Peek(); ok {
		if top.IsDismissKey(msg.String()) {
			return send(DismissOverlayMsg{})
		}
		cmd, _ := a.Overlays.UpdateTop(msg)
		return a.after(cmd)
	}
	if a.KeyHandler != nil {
		if consumed, keyCmd := a.KeyHandler.Handle(msg); consumed {
			return a.after(keyCmd)
		}
	}
	if msg.String() == "esc" && a.Mode != ModeHome {
		a.coord.Back()
		return a.after(a.coord.Commands())
	}
	return a.after(a.updateScreen(msg))
}

func (a *AppModel) updateScreen(msg tea.Msg) tea.Cmd {
	if a.Screen == nil {
		return nil
	}
	v, cmd := a.Screen.Update(msg)
	a.Screen = v
	return cmd
}

// after reconciles the chrome with the coordinator and router state and
// batches cmds with any commands that reconciling needs.
func (a *AppModel) after(cmds ...tea.Cmd) tea.Cmd {
	cmds = append(cmds, a.syncScreen(), a.syncOverlays())
	if a.coord.Progress.Len() > 0 && !a.spinning {
		a.spinning = true
		cmds = append(cmds, a.spinner.Tick)
	}
	return tea.Batch(cmds...)
}

// syncScreen rebuilds the screen when the committed route changed.
func (a *AppModel) syncScreen() tea.Cmd {
	cur := a.router.Current()
	a.Mode = ModeFor(cur)
	if a.KeyHandler != nil {
		a.KeyHandler.Mode = a.Mode
	}
	if cur.Key == "" || cur.String() == a.shown {
		return nil
	}
	a.shown = cur.String()
	switch cur.Key {
	case route.Request:
		a.Screen = NewWorkspaceScreen(a.coord.Workspace(), a.width)
	case route.History:
		a.Screen = NewRequestListScreen(database.KindHistory, a.requests, a.width, a.height)
	case route.Saved:
		a.Screen = NewRequestListScreen(database.KindSaved, a.requests, a.width, a.height)
	case route.APIConsole:
		a.Screen = NewConsoleScreen(&a.coord.Console, a.width, a.height)
	default:
		d, err := a.table.Resolve(string(cur.Key))
		if err != nil {
			a.log.Error("ui: no module for route", "route", cur.Key, "err", err)
		}
		if cur.Key == route.Project {
			cur.Params = map[string]string{"id": a.project.ID}
		}
		a.Screen = NewModuleScreen(cur, d)
	}
	return a.Screen.Init()
}

// syncOverlays opens the dialog and info center when the coordinator asks.
func (a *AppModel) syncOverlays() tea.Cmd {
	var cmds []tea.Cmd
	if a.coord.Dialog != a.dialog {
		a.Overlays.Remove(overlayDialog)
		a.dialog = a.coord.Dialog
		if a.dialog != "" {
			a.Overlays.Push(Overlay{Name: overlayDialog, View: NewDialogView(a.dialog), Dismiss: "esc"})
		}
	}
	if a.coord.InfoCenter && !a.Overlays.Has(overlayActivity) {
		v := NewActivityView(a.coord.Progress, a.coord.Toasts)
		a.Overlays.Push(Overlay{Name: overlayActivity, View: v, Dismiss: "esc"})
		cmds = append(cmds, v.Init())
	}
	return tea.Batch(cmds...)
}

func (a *AppModel) saveActive() tea.Cmd {
	r, ok := a.coord.Workspace().Active()
	if !ok {
		return nil
	}
	if a.requests == nil {
		a.coord.Toasts.NotifyError("Requests cannot be saved: no request store")
		return nil
	}
	r.Type = database.KindSaved
	r.Updated = time.Now()
	if r.Name == "" {
		r.Name = requestTitle(r)
	}
	store := a.requests
	return func() tea.Msg {
		return savedMsg{Request: r, Err: store.Upsert(context.Background(), r)}
	}
}

// View implements tea.Model.
func (a *appModelAdapter) View() string {
	var b strings.Builder
	b.WriteString(a.header())
	b.WriteString("\n\n")
	if top, ok := a.Overlays.Peek(); ok {
		b.WriteString(top.View.View())
	} else if a.Screen != nil {
		b.WriteString(a.Screen.View())
	} else {
		b.WriteString(Styles.Empty.Render("Loading…"))
	}
	if status := a.statusLine(); status != "" {
		b.WriteString("\n\n" + status)
	}
	if a.KeyHandler != nil && a.KeyHandler.LeaderWaiting {
		b.WriteString("\n" + RenderKeybindHelp(a.KeyHandler, a.Mode))
	}
	return b.String()
}

func (a *AppModel) header() string {
	cur := a.router.Current()
	title := Styles.Title.Render("arcshell")
	if cur.Key != "" {
		title += " " + Styles.Section.Render(screenTitle(cur.Key))
	}
	if st := a.router.State(); st.Pending != nil {
		title += " " + Styles.Muted.Render("→ "+screenTitle(st.Pending.Key))
	}
	switch {
	case router.BackVisible(cur):
		return title + "  " + Styles.Hint.Render("esc: back  SPC: menu")
	case router.MenuDisabled(a.menu):
		return title
	default:
		return title + "  " + Styles.Hint.Render("SPC: menu  ?: keys")
	}
}

func (a *AppModel) statusLine() string {
	var parts []string
	if ind, ok := a.coord.Progress.Latest(); ok {
		parts = append(parts, a.spinner.View()+" "+ind.Message)
	}
	if a.coord.Console.Processing {
		parts = append(parts, Styles.Details.Render("processing API…"))
	}
	if a.coord.SigninPrompt {
		parts = append(parts, Styles.Details.Render("signed out · SPC o s to sign in"))
	}
	if t, ok := a.coord.Toasts.Latest(); ok {
		parts = append(parts, renderToast(t))
	}
	return strings.Join(parts, "  ")
}
