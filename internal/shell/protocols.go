package shell

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"

	"arcshell/internal/auth"
	"arcshell/internal/event"
	"arcshell/internal/progress"
	"arcshell/internal/route"
)

// apiFileClassifiers are the exchange classifiers the API console can open.
var apiFileClassifiers = map[string]bool{"fat-raml": true, "raml": true, "oas": true}

type tokenMsg struct {
	Scope       string
	Interactive bool
	Err         error
}

type assetModuleMsg struct {
	File event.AssetFile
	Err  error
}

type processedMsg struct {
	Data event.APIData
	Err  error
}

type apiModuleMsg struct {
	Data event.APIData
	Err  error
}

type dialogMsg struct {
	ID  string
	Err error
}

type platformMsg struct {
	Op  string
	Err error
}

type clientIDMsg struct {
	ID  string
	Err error
}

func (c *Coordinator) onExternalLink(e *event.Event[event.ExternalLink]) {
	e.PreventDefault()
	if c.opener == nil {
		c.log.Warn("shell.onExternalLink: no opener", "url", e.Payload.URL)
		return
	}
	opener, url := c.opener, e.Payload.URL
	c.enqueue(func() tea.Msg {
		return platformMsg{Op: "open", Err: opener.Open(context.Background(), url)}
	})
}

func (c *Coordinator) onClipboardWrite(e *event.Event[event.ClipboardWrite]) {
	e.PreventDefault()
	if c.clipboard == nil {
		c.log.Warn("shell.onClipboardWrite: no clipboard")
		return
	}
	clip, value := c.clipboard, e.Payload.Value
	c.enqueue(func() tea.Msg {
		return platformMsg{Op: "clipboard", Err: clip.WriteText(value)}
	})
}

func (c *Coordinator) onProgressStart(e *event.Event[event.ProgressStart]) {
	p := e.Payload
	err := c.Progress.Start(progress.Indicator{ID: p.ID, Message: p.Message, Indeterminate: p.Indeterminate})
	if err != nil {
		c.log.Warn("shell.onProgressStart: ignoring indicator", "id", p.ID, "err", err)
	}
}

func (c *Coordinator) onProgressStop(e *event.Event[event.ProgressStop]) {
	if !c.Progress.Stop(e.Payload.ID) {
		c.log.Debug("shell.onProgressStop: no such indicator", "id", e.Payload.ID)
	}
}

func (c *Coordinator) onProcessError(e *event.Event[event.ProcessError]) {
	n := c.Progress.Clear()
	c.log.Error("shell.onProcessError: process failed", "message", e.Payload.Message, "cleared", n)
	c.Toasts.NotifyError(e.Payload.Message)
}

func (c *Coordinator) onAuthScopeRequest(e *event.Event[event.AuthScopeRequest]) {
	e.PreventDefault()
	scope := e.Payload.Scope
	if c.auth == nil || !c.auth.SignedIn() {
		c.signedOut(scope)
		return
	}
	c.auth.SetScope(scope)
	if c.auth.NeedAdditionalAuth() {
		c.requestToken(scope, e.Payload.Interactive)
		return
	}
	c.publishSession(scope)
}

// publishSession reports the authenticator's session for scope to screens.
func (c *Coordinator) publishSession(scope string) {
	s := auth.Snapshot(c.auth, scope)
	if !s.Authorized {
		c.signedOut(scope)
		return
	}
	c.SigninPrompt = false
	event.Publish(c.bus, event.OnAuthSuccess, event.AuthSuccess{Scope: s.Scope, Token: s.Token})
}

func (c *Coordinator) onAuthError(e *event.Event[event.AuthError]) {
	c.Toasts.NotifyError(e.Payload.Message)
}

// requestToken asks the authenticator for a token off the update loop.
func (c *Coordinator) requestToken(scope string, interactive bool) {
	a := c.auth
	c.enqueue(func() tea.Msg {
		return tokenMsg{Scope: scope, Interactive: interactive, Err: a.SignIn(context.Background(), interactive)}
	})
}

func (c *Coordinator) handleToken(msg tokenMsg) {
	if msg.Err != nil {
		if !msg.Interactive {
			c.log.Debug("shell.handleToken: silent sign-in failed", "err", msg.Err)
			c.signedOut(msg.Scope)
			return
		}
		c.log.Error("shell.handleToken: sign-in failed", "err", msg.Err)
		event.Publish(c.bus, event.OnAuthError, event.AuthError{Message: msg.Err.Error()})
		c.signedOut(msg.Scope)
		return
	}
	c.publishSession(msg.Scope)
}

func (c *Coordinator) signedOut(scope string) {
	c.SigninPrompt = true
	event.Publish(c.bus, event.OnAuthSignedOut, event.AuthSignedOut{Scope: scope})
}

func (c *Coordinator) onAssetExchange(e *event.Event[event.AssetExchange]) {
	if e.DefaultPrevented() {
		return
	}
	e.PreventDefault()

	file, ok := selectAPIFile(e.Payload.Files)
	if !ok {
		c.reportAsset(&AssetExchangeError{Reason: ErrAssetDataNotFound})
		return
	}
	d, err := c.table.Resolve(string(route.APIConsole))
	if err != nil {
		c.reportAsset(&AssetExchangeError{Cause: err})
		return
	}
	modules := c.modules
	c.enqueue(func() tea.Msg {
		return assetModuleMsg{File: file, Err: modules.EnsureLoaded(context.Background(), d)}
	})
}

// selectAPIFile returns the first file with a supported classifier, provided
// it can be downloaded.
func selectAPIFile(files []event.AssetFile) (event.AssetFile, bool) {
	for _, f := range files {
		if apiFileClassifiers[f.Classifier] {
			return f, f.ExternalLink != ""
		}
	}
	return event.AssetFile{}, false
}

func (c *Coordinator) handleAssetModule(msg assetModuleMsg) {
	if msg.Err != nil {
		c.reportComponent(string(route.APIConsole), msg.Err)
		return
	}
	f := msg.File
	link := &event.ProcessLink{URL: f.ExternalLink, MainFile: f.MainFile, MD5: f.MD5, Packaging: f.Packaging}
	ev := event.Publish(c.bus, event.OnProcessLink, link)
	result := link.Result()
	if !ev.DefaultPrevented() || result == nil {
		c.reportAsset(&AssetExchangeError{Reason: ErrProcessorNotFound})
		return
	}
	c.Console.Processing = true
	c.enqueue(func() tea.Msg {
		data, err := result(context.Background())
		return processedMsg{Data: data, Err: err}
	})
}

func (c *Coordinator) handleProcessed(msg processedMsg) {
	c.Console.Processing = false
	if msg.Err != nil {
		c.reportAsset(&AssetExchangeError{Cause: msg.Err})
		return
	}
	c.showAPI(msg.Data)
}

func (c *Coordinator) onAPIDataReady(e *event.Event[event.APIDataReady]) {
	d, err := c.table.Resolve(string(route.APIConsole))
	if err != nil {
		c.log.Error("shell.onAPIDataReady: no api console route", "err", err)
		return
	}
	modules, data := c.modules, e.Payload.Data
	c.enqueue(func() tea.Msg {
		return apiModuleMsg{Data: data, Err: modules.EnsureLoaded(context.Background(), d)}
	})
}

func (c *Coordinator) handleAPIModule(msg apiModuleMsg) {
	if msg.Err != nil {
		c.reportComponent(string(route.APIConsole), msg.Err)
		return
	}
	c.showAPI(msg.Data)
}

// showAPI assigns the console data and navigates to it.
func (c *Coordinator) showAPI(data event.APIData) {
	c.Console.Active = true
	c.Console.Model = data.Model
	c.Console.Type = data.Type
	c.Console.Selected = "summary"
	c.Navigate(string(route.APIConsole), nil)
}

func (c *Coordinator) onLicenseRequest(*event.Event[event.LicenseRequest]) {
	c.OpenDialog(DialogLicense)
}

func (c *Coordinator) onWorkspaceOpen(*event.Event[event.WorkspaceOpen]) {
	c.OpenWorkspace()
}

// onDriveFileOpen hands a Drive download to the import screen as JSON.
func (c *Coordinator) onDriveFileOpen(e *event.Event[event.DriveFileOpen]) {
	f := e.Payload
	ev := event.Publish(c.bus, event.OnImportFile, event.ImportFile{
		Content:   f.Content,
		MediaType: "application/json",
		DriveID:   f.DriveID,
	})
	if !ev.DefaultPrevented() {
		c.log.Warn("shell.onDriveFileOpen: no importer took the file", "drive_id", f.DriveID)
	}
}

func (c *Coordinator) reportAsset(err *AssetExchangeError) {
	c.log.Error("shell.onAssetExchange: exchange asset failed", "err", err)
	c.Toasts.NotifyError(err.Error())
}

func (c *Coordinator) reportComponent(key string, err error) {
	id := key
	if d, rerr := c.table.Resolve(key); rerr == nil {
		id = d.ID
	}
	cerr := &ComponentError{ID: id, Err: err}
	c.log.Error("shell: component failed to load", "component", id, "err", err)
	c.Toasts.NotifyError(cerr.Error())
}
