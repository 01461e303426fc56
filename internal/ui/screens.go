package ui

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"arcshell/internal/docs"
	"arcshell/internal/module"
	"arcshell/internal/route"
	"arcshell/internal/shell"
	"arcshell/internal/ui/textutil"
	"arcshell/internal/workspace"
)

// RequestStore lists and edits persisted requests. *database.RequestRepo
// implements it.
type RequestStore interface {
	List(ctx context.Context, kind string, limit int) ([]workspace.Request, error)
	Upsert(ctx context.Context, req workspace.Request) error
	Delete(ctx context.Context, kind, id string) error
}

// requestListLimit bounds the history and saved screens.
const requestListLimit = 200

// WorkspaceScreen shows the open request tabs.
type WorkspaceScreen struct {
	ws    *workspace.Workspace
	width int
}

var _ View = (*WorkspaceScreen)(nil)

func NewWorkspaceScreen(ws *workspace.Workspace, width int) *WorkspaceScreen {
	return &WorkspaceScreen{ws: ws, width: width}
}

func (s *WorkspaceScreen) Init() tea.Cmd { return nil }

func (s *WorkspaceScreen) Update(msg tea.Msg) (View, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		s.width = msg.Width
	case tea.KeyMsg:
		n := s.ws.Len()
		if n == 0 {
			return s, nil
		}
		switch msg.String() {
		case "]", "tab":
			s.ws.Selected = (s.ws.Selected + 1) % n
		case "[", "shift+tab":
			s.ws.Selected = (s.ws.Selected + n - 1) % n
		}
	}
	return s, nil
}

func (s *WorkspaceScreen) View() string {
	if s.ws.Len() == 0 {
		return Styles.Empty.Render("No open requests. SPC n opens a new one.")
	}
	tabWidth := 24
	if s.width > 0 && s.ws.Len() > 0 {
		if w := s.width / s.ws.Len(); w < tabWidth {
			tabWidth = max(w, 8)
		}
	}
	tabs := make([]string, 0, s.ws.Len())
	for i, r := range s.ws.Requests {
		label := textutil.Truncate(requestTitle(r), tabWidth-2)
		if i == s.ws.Selected {
			tabs = append(tabs, Styles.TabActive.Render(label))
		} else {
			tabs = append(tabs, Styles.TabInactive.Render(label))
		}
	}
	active, _ := s.ws.Active()
	var b strings.Builder
	b.WriteString(strings.Join(tabs, ""))
	b.WriteString("\n\n")
	b.WriteString(Styles.Selected.Render(active.Method) + " " + Styles.Normal.Render(orPlaceholder(active.URL, "(no URL)")))
	if active.Headers != "" {
		b.WriteString("\n\n" + Styles.Section.Render("Headers") + "\n" + active.Headers)
	}
	if active.Payload != "" {
		b.WriteString("\n\n" + Styles.Section.Render("Body") + "\n" + active.Payload)
	}
	if active.Type != "" {
		b.WriteString("\n\n" + Styles.Muted.Render(active.Type+" request "+active.ID))
	}
	return b.String()
}

func requestTitle(r workspace.Request) string {
	if r.Name != "" {
		return r.Name
	}
	if r.URL != "" {
		return r.Method + " " + r.URL
	}
	return "New request"
}

func orPlaceholder(s, placeholder string) string {
	if s == "" {
		return placeholder
	}
	return s
}

type requestItem struct {
	req workspace.Request
}

func (i requestItem) Title() string       { return requestTitle(i.req) }
func (i requestItem) Description() string { return i.req.Method + " " + i.req.URL }
func (i requestItem) FilterValue() string { return i.req.Name + " " + i.req.URL }

// RequestListScreen lists saved or history requests.
type RequestListScreen struct {
	kind  string
	store RequestStore
	list  list.Model
	err   error
}

var _ View = (*RequestListScreen)(nil)

func NewRequestListScreen(kind string, store RequestStore, width, height int) *RequestListScreen {
	l := list.New(nil, NewCompactListDelegate(), max(width, 40), max(height-6, 8))
	l.Title = strings.ToUpper(kind[:1]) + kind[1:]
	l.Styles.Title = Styles.Title
	l.SetShowHelp(false)
	return &RequestListScreen{kind: kind, store: store, list: l}
}

func (s *RequestListScreen) Init() tea.Cmd {
	return s.load()
}

func (s *RequestListScreen) load() tea.Cmd {
	if s.store == nil {
		return nil
	}
	store, kind := s.store, s.kind
	return func() tea.Msg {
		reqs, err := store.List(context.Background(), kind, requestListLimit)
		return RequestsLoadedMsg{Kind: kind, Requests: reqs, Err: err}
	}
}

func (s *RequestListScreen) Update(msg tea.Msg) (View, tea.Cmd) {
	switch msg := msg.(type) {
	case RequestsLoadedMsg:
		if msg.Kind != s.kind {
			return s, nil
		}
		s.err = msg.Err
		items := make([]list.Item, 0, len(msg.Requests))
		for _, r := range msg.Requests {
			items = append(items, requestItem{req: r})
		}
		return s, s.list.SetItems(items)
	case tea.WindowSizeMsg:
		s.list.SetSize(max(msg.Width, 40), max(msg.Height-6, 8))
		return s, nil
	case tea.KeyMsg:
		if s.list.FilterState() == list.Filtering {
			break
		}
		switch msg.String() {
		case "enter":
			if it, ok := s.list.SelectedItem().(requestItem); ok {
				return s, send(OpenRequestMsg{Kind: s.kind, ID: it.req.ID})
			}
			return s, nil
		case "d":
			it, ok := s.list.SelectedItem().(requestItem)
			if !ok || s.store == nil {
				return s, nil
			}
			store, kind, id := s.store, s.kind, it.req.ID
			return s, func() tea.Msg {
				if err := store.Delete(context.Background(), kind, id); err != nil {
					return RequestsLoadedMsg{Kind: kind, Err: err}
				}
				reqs, err := store.List(context.Background(), kind, requestListLimit)
				return RequestsLoadedMsg{Kind: kind, Requests: reqs, Err: err}
			}
		}
	}
	var cmd tea.Cmd
	s.list, cmd = s.list.Update(msg)
	return s, cmd
}

func (s *RequestListScreen) View() string {
	if s.err != nil {
		return Styles.Error.Render(fmt.Sprintf("Unable to list %s requests: %v", s.kind, s.err))
	}
	if len(s.list.Items()) == 0 {
		return Styles.Title.Render(s.list.Title) + "\n\n" + Styles.Empty.Render("Nothing here yet")
	}
	return s.list.View() + "\n" + Styles.Hint.Render("enter: open  d: delete  /: filter")
}

// ConsoleScreen shows the API model handed to the API console.
type ConsoleScreen struct {
	console  *shell.APIConsole
	viewport viewport.Model
}

var _ View = (*ConsoleScreen)(nil)

func NewConsoleScreen(console *shell.APIConsole, width, height int) *ConsoleScreen {
	vp := viewport.New(max(width, 40), max(height-8, 6))
	s := &ConsoleScreen{console: console, viewport: vp}
	s.refresh()
	return s
}

func (s *ConsoleScreen) Init() tea.Cmd { return nil }

func (s *ConsoleScreen) Update(msg tea.Msg) (View, tea.Cmd) {
	if ws, ok := msg.(tea.WindowSizeMsg); ok {
		s.viewport.Width = max(ws.Width, 40)
		s.viewport.Height = max(ws.Height-8, 6)
		return s, nil
	}
	s.refresh()
	var cmd tea.Cmd
	s.viewport, cmd = s.viewport.Update(msg)
	return s, cmd
}

func (s *ConsoleScreen) refresh() {
	if len(s.console.Model) == 0 {
		s.viewport.SetContent(Styles.Empty.Render("No API loaded"))
		return
	}
	var out bytes.Buffer
	if err := json.Indent(&out, s.console.Model, "", "  "); err != nil {
		s.viewport.SetContent(string(s.console.Model))
		return
	}
	s.viewport.SetContent(out.String())
}

func (s *ConsoleScreen) View() string {
	header := Styles.Title.Render("API console")
	if s.console.Type != "" {
		header += " " + Styles.Muted.Render(s.console.Type)
	}
	if s.console.Selected != "" {
		header += " " + Styles.Section.Render(s.console.Selected)
	}
	if s.console.Processing {
		header += " " + Styles.Details.Render("processing…")
	}
	return header + "\n" + s.viewport.View()
}

// ModuleScreen is any screen whose content is owned by its loaded module.
type ModuleScreen struct {
	key    route.Key
	module module.Descriptor
	params map[string]string
}

var _ View = (*ModuleScreen)(nil)

func NewModuleScreen(r route.Route, d module.Descriptor) *ModuleScreen {
	return &ModuleScreen{key: r.Key, module: d, params: r.Params}
}

func (s *ModuleScreen) Init() tea.Cmd { return nil }

func (s *ModuleScreen) Update(tea.Msg) (View, tea.Cmd) { return s, nil }

func (s *ModuleScreen) View() string {
	var b strings.Builder
	b.WriteString(Styles.Title.Render(screenTitle(s.key)))
	b.WriteString("\n\n" + Styles.Muted.Render("module "+s.module.ID))
	if s.module.Resource != "" {
		b.WriteString(Styles.Muted.Render(" ("+s.module.Resource+")"))
	}
	keys := make([]string, 0, len(s.params))
	for k := range s.params {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		b.WriteString("\n" + Styles.Normal.Render(k+": "+s.params[k]))
	}
	return b.String()
}

// screenTitle turns a route key into a heading.
func screenTitle(k route.Key) string {
	words := strings.Split(string(k), "-")
	for i, w := range words {
		if w != "" {
			words[i] = strings.ToUpper(w[:1]) + w[1:]
		}
	}
	return strings.Join(words, " ")
}

// DialogView is an open shell dialog.
type DialogView struct {
	id     string
	module module.Descriptor
	body   string
}

var _ View = (*DialogView)(nil)

func NewDialogView(id string) *DialogView {
	body, _ := docs.Text(id)
	return &DialogView{id: id, module: shell.Dialogs[id], body: body}
}

func (d *DialogView) Init() tea.Cmd { return nil }

func (d *DialogView) Update(msg tea.Msg) (View, tea.Cmd) {
	if k, ok := msg.(tea.KeyMsg); ok && k.String() == "esc" {
		return d, send(DismissOverlayMsg{})
	}
	return d, nil
}

func (d *DialogView) View() string {
	title := screenTitle(route.Key(d.id))
	body := Styles.Normal.Render(strings.TrimSpace(d.body))
	if d.body == "" {
		body = Styles.Empty.Render("Nothing to show")
	}
	footer := Styles.Muted.Render(d.module.ID) + "  " + Styles.Hint.Render("Esc: close")
	return Styles.Box.Render(Styles.Title.Render(title) + "\n\n" + body + "\n\n" + footer)
}
