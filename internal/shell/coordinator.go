// Package shell wires the cross-screen event protocols: authentication,
// progress, notifications, host integrations and the API console hand-off.
//
// The Coordinator runs on the Bubble Tea update loop. Bus handlers execute
// synchronously inside Publish and queue any blocking follow-up as a tea.Cmd;
// the UI drains the queue with Commands and feeds results back through Update.
package shell

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	tea "github.com/charmbracelet/bubbletea"

	"arcshell/internal/auth"
	"arcshell/internal/event"
	"arcshell/internal/module"
	"arcshell/internal/platform"
	"arcshell/internal/progress"
	"arcshell/internal/route"
	"arcshell/internal/router"
	"arcshell/internal/workspace"
)

const owner = "shell"

// Dialog ids.
const (
	DialogLicense   = "license"
	DialogVariables = "variables-drawer"
)

// Dialogs maps dialog ids to the modules rendering them.
var Dialogs = map[string]module.Descriptor{
	DialogLicense:   {ID: "arc-license-dialog", Resource: "arc-license-dialog/arc-license-dialog"},
	DialogVariables: {ID: "variables-drawer-editor", Resource: "variables-drawer-editor/variables-drawer-editor"},
}

// ClientIDRestorer restores the analytics client id.
type ClientIDRestorer interface {
	RestoreClientID(ctx context.Context) (string, error)
}

// APIConsole is the state of the API console screen.
type APIConsole struct {
	Active     bool
	Processing bool
	Model      json.RawMessage
	Type       string
	Selected   string
}

// Config holds the coordinator's collaborators. Bus, Router, Table and Modules
// are required.
type Config struct {
	Bus       *event.Bus
	Router    *router.Navigator
	Table     *route.Table
	Modules   router.Ensurer
	Auth      auth.Authenticator
	Opener    platform.Opener
	Clipboard platform.Clipboard
	Toasts    *Toasts
	Workspace *workspace.Workspace
	Restorer  *workspace.Restorer
	Analytics ClientIDRestorer
	Telemetry bool
	Logger    *slog.Logger
}

// Coordinator is the shell's event hub.
type Coordinator struct {
	bus       *event.Bus
	router    *router.Navigator
	table     *route.Table
	modules   router.Ensurer
	auth      auth.Authenticator
	opener    platform.Opener
	clipboard platform.Clipboard
	workspace *workspace.Workspace
	restorer  *workspace.Restorer
	analytics ClientIDRestorer
	telemetry bool
	log       *slog.Logger

	Toasts       *Toasts
	Progress     *progress.Set
	Console      APIConsole
	SigninPrompt bool
	Dialog       string
	InfoCenter   bool
	ClientID     string

	subs    event.Group
	queue   []tea.Cmd
	actions map[string]func() error
}

// New creates a coordinator. Call Start to subscribe it to the bus.
func New(cfg Config) *Coordinator {
	log := cfg.Logger
	if log == nil {
		log = slog.Default()
	}
	toasts := cfg.Toasts
	if toasts == nil {
		toasts = NewToasts(log)
	}
	ws := cfg.Workspace
	if ws == nil {
		ws = workspace.New()
	}
	c := &Coordinator{
		bus:       cfg.Bus,
		router:    cfg.Router,
		table:     cfg.Table,
		modules:   cfg.Modules,
		auth:      cfg.Auth,
		opener:    cfg.Opener,
		clipboard: cfg.Clipboard,
		workspace: ws,
		restorer:  cfg.Restorer,
		analytics: cfg.Analytics,
		telemetry: cfg.Telemetry,
		log:       log,
		Toasts:    toasts,
		Progress:  progress.NewSet(),
	}
	c.actions = map[string]func() error{
		"open-license":     func() error { c.OpenDialog(DialogLicense); return nil },
		"open-variables":   func() error { c.OpenDialog(DialogVariables); return nil },
		"open-workspace":   func() error { c.OpenWorkspace(); return nil },
		"close-tab":        func() error { c.workspace.CloseActiveTab(); return nil },
		"open-info-center": func() error { c.InfoCenter = true; return nil },
	}
	return c
}

// Start subscribes the shell protocols.
func (c *Coordinator) Start() {
	b := c.bus
	c.subs.Add(event.Subscribe(b, event.OnExternalLink, owner, c.onExternalLink))
	c.subs.Add(event.Subscribe(b, event.OnClipboardWrite, owner, c.onClipboardWrite))
	c.subs.Add(event.Subscribe(b, event.OnProgressStart, owner, c.onProgressStart))
	c.subs.Add(event.Subscribe(b, event.OnProgressStop, owner, c.onProgressStop))
	c.subs.Add(event.Subscribe(b, event.OnProcessError, owner, c.onProcessError))
	c.subs.Add(event.Subscribe(b, event.OnAuthScopeRequest, owner, c.onAuthScopeRequest))
	c.subs.Add(event.Subscribe(b, event.OnAuthError, owner, c.onAuthError))
	c.subs.Add(event.Subscribe(b, event.OnAssetExchange, owner, c.onAssetExchange))
	c.subs.Add(event.Subscribe(b, event.OnAPIDataReady, owner, c.onAPIDataReady))
	c.subs.Add(event.Subscribe(b, event.OnLicenseRequest, owner, c.onLicenseRequest))
	c.subs.Add(event.Subscribe(b, event.OnWorkspaceOpen, owner, c.onWorkspaceOpen))
	c.subs.Add(event.Subscribe(b, event.OnDriveFileOpen, owner, c.onDriveFileOpen))
}

// Stop releases every subscription made by Start.
func (c *Coordinator) Stop() {
	c.subs.Release()
}

// Workspace returns the request workspace.
func (c *Coordinator) Workspace() *workspace.Workspace {
	return c.workspace
}

// Init runs the startup sequence: a silent token request, the analytics id
// restore when telemetry is on, and navigation to start (a location fragment,
// home when empty).
func (c *Coordinator) Init(start string) tea.Cmd {
	if c.auth != nil {
		c.requestToken("", false)
	}
	if c.telemetry && c.analytics != nil {
		restorer := c.analytics
		c.enqueue(func() tea.Msg {
			id, err := restorer.RestoreClientID(context.Background())
			return clientIDMsg{ID: id, Err: err}
		})
	}
	key, params, err := route.ParseFragment(start)
	if err != nil {
		c.log.Warn("shell.Init: bad start route", "route", start, "err", err)
		key, params = "", nil
	}
	if key == "" {
		key = string(route.Home)
	}
	c.Navigate(key, params)
	return c.Commands()
}

// SignIn starts an interactive sign-in.
func (c *Coordinator) SignIn() {
	if c.auth == nil {
		c.signedOut("")
		return
	}
	c.requestToken("", true)
}

// Navigate starts a navigation through the router.
func (c *Coordinator) Navigate(key string, params map[string]string) {
	c.enqueue(c.router.Navigate(key, params))
}

// OpenWorkspace leaves the API console and shows the request workspace.
func (c *Coordinator) OpenWorkspace() {
	c.Console.Active = false
	c.Navigate(string(route.Request), nil)
}

// Back is the back affordance of every screen but home.
func (c *Coordinator) Back() {
	c.OpenWorkspace()
}

// OpenDialog loads the dialog's module and opens it once loaded.
func (c *Coordinator) OpenDialog(id string) {
	d, ok := Dialogs[id]
	if !ok {
		c.log.Error("shell.OpenDialog: unknown dialog", "dialog", id)
		return
	}
	modules := c.modules
	c.enqueue(func() tea.Msg {
		return dialogMsg{ID: id, Err: modules.EnsureLoaded(context.Background(), d)}
	})
}

// CloseDialog closes the open dialog.
func (c *Coordinator) CloseDialog() {
	c.Dialog = ""
}

// RunMenuAction dispatches an application menu action by name.
func (c *Coordinator) RunMenuAction(name string) error {
	fn, ok := c.actions[name]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownAction, name)
	}
	return fn()
}

// MenuActions lists the registered menu action names.
func (c *Coordinator) MenuActions() []string {
	names := make([]string, 0, len(c.actions))
	for name := range c.actions {
		names = append(names, name)
	}
	return names
}

// Commands drains the queued follow-up commands.
func (c *Coordinator) Commands() tea.Cmd {
	cmds := c.queue
	c.queue = nil
	switch len(cmds) {
	case 0:
		return nil
	case 1:
		return cmds[0]
	default:
		return tea.Batch(cmds...)
	}
}

// Update handles the results of commands issued by the shell, the router and
// the workspace, and returns the next commands to run.
func (c *Coordinator) Update(msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {
	case router.LoadedMsg:
		c.enqueue(c.router.HandleLoaded(msg))
	case workspace.RestoredMsg:
		if c.restorer != nil {
			c.restorer.HandleRestored(msg)
		}
	case tokenMsg:
		c.handleToken(msg)
	case assetModuleMsg:
		c.handleAssetModule(msg)
	case processedMsg:
		c.handleProcessed(msg)
	case apiModuleMsg:
		c.handleAPIModule(msg)
	case dialogMsg:
		c.handleDialog(msg)
	case platformMsg:
		if msg.Err != nil {
			c.log.Warn("shell.Update: host integration failed", "op", msg.Op, "err", msg.Err)
			c.Toasts.NotifyError(msg.Err.Error())
		}
	case clientIDMsg:
		if msg.Err != nil {
			c.log.Warn("shell.Update: restoring analytics client id", "err", msg.Err)
			break
		}
		c.ClientID = msg.ID
	}
	return c.Commands()
}

func (c *Coordinator) enqueue(cmd tea.Cmd) {
	if cmd != nil {
		c.queue = append(c.queue, cmd)
	}
}

func (c *Coordinator) handleDialog(msg dialogMsg) {
	if msg.Err != nil {
		err := &ComponentError{ID: Dialogs[msg.ID].ID, Err: msg.Err}
		c.log.Error("shell.OpenDialog: load failed", "dialog", msg.ID, "err", msg.Err)
		c.Toasts.NotifyError(err.Error())
		return
	}
	c.Dialog = msg.ID
}
