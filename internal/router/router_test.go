package router

import (
	"context"
	"errors"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"arcshell/internal/event"
	"arcshell/internal/module"
	"arcshell/internal/route"
)

type recordingNotifier struct {
	messages []string
}

func (r *recordingNotifier) NotifyError(message string) {
	r.messages = append(r.messages, message)
}

// fakeModules fails loads for ids in fail and succeeds otherwise.
type fakeModules struct {
	fail  map[string]error
	calls []string
}

func (f *fakeModules) EnsureLoaded(ctx context.Context, d module.Descriptor) error {
	f.calls = append(f.calls, d.ID)
	if err, ok := f.fail[d.ID]; ok {
		return &module.LoadError{ID: d.ID, Cause: err}
	}
	return nil
}

func newTestNavigator(t *testing.T, modules Ensurer, opts ...Option) (*Navigator, *recordingNotifier, *event.Bus) {
	t.Helper()
	bus := event.New()
	n := &recordingNotifier{}
	return New(route.DefaultTable(), modules, bus, n, opts...), n, bus
}

// run executes cmd and feeds the resulting LoadedMsg back into the navigator.
func run(t *testing.T, nav *Navigator, cmd tea.Cmd) tea.Cmd {
	t.Helper()
	require.NotNil(t, cmd)
	msg, ok := cmd().(LoadedMsg)
	require.True(t, ok, "expected LoadedMsg")
	return nav.HandleLoaded(msg)
}

func TestNavigate_CommitsRouteAndPublishes(t *testing.T) {
	modules := &fakeModules{}
	nav, notifier, bus := newTestNavigator(t, modules)
	var changed []route.Route
	event.Subscribe(bus, event.OnRouteChanged, "test", func(e *event.Event[event.RouteChanged]) {
		changed = append(changed, e.Payload.Route)
	})

	cmd := nav.Navigate("settings", nil)
	require.NotNil(t, nav.State().Pending)
	assert.Equal(t, route.Settings, nav.State().Pending.Key)

	run(t, nav, cmd)

	assert.Equal(t, route.Settings, nav.Current().Key)
	assert.Nil(t, nav.State().Pending)
	assert.Empty(t, notifier.messages)
	assert.Equal(t, []string{"arc-settings-panel"}, modules.calls)
	require.Len(t, changed, 1)
	assert.Equal(t, route.Settings, changed[0].Key)
}

func TestNavigate_UnknownRouteLeavesStateUnchanged(t *testing.T) {
	nav, notifier, _ := newTestNavigator(t, &fakeModules{})
	run(t, nav, nav.Navigate("history", nil))

	cmd := nav.Navigate("histroy", nil)

	assert.Nil(t, cmd)
	assert.Equal(t, route.History, nav.Current().Key)
	assert.Nil(t, nav.State().Pending)
	var nf *route.NotFoundError
	require.ErrorAs(t, nav.State().LastError, &nf)
	assert.Equal(t, "histroy", nf.Key)
	require.Len(t, notifier.messages, 1)
	assert.Contains(t, notifier.messages[0], "histroy")
}

func TestNavigate_LoadFailureKeepsCurrentRoute(t *testing.T) {
	modules := &fakeModules{fail: map[string]error{"cookie-manager": errors.New("offline")}}
	nav, notifier, _ := newTestNavigator(t, modules)
	run(t, nav, nav.Navigate("saved", nil))

	run(t, nav, nav.Navigate("cookie-manager", nil))

	assert.Equal(t, route.Saved, nav.Current().Key)
	assert.Nil(t, nav.State().Pending)
	var cerr *ComponentLoadError
	require.ErrorAs(t, nav.State().LastError, &cerr)
	assert.Equal(t, route.CookieManager, cerr.Route)
	var lerr *module.LoadError
	assert.ErrorAs(t, cerr, &lerr)
	assert.Equal(t, []string{"Unable to load cookie-manager component"}, notifier.messages)
}

func TestNavigate_LastWriterWins(t *testing.T) {
	orders := []struct {
		name   string
		aFirst bool
	}{
		{"A settles first", true},
		{"B settles first", false},
	}
	for _, tt := range orders {
		t.Run(tt.name, func(t *testing.T) {
			nav, _, bus := newTestNavigator(t, &fakeModules{})
			var changed []route.Key
			event.Subscribe(bus, event.OnRouteChanged, "test", func(e *event.Event[event.RouteChanged]) {
				changed = append(changed, e.Payload.Route.Key)
			})

			cmdA := nav.Navigate("history", nil)
			cmdB := nav.Navigate("saved", nil)
			msgA := cmdA().(LoadedMsg)
			msgB := cmdB().(LoadedMsg)

			if tt.aFirst {
				nav.HandleLoaded(msgA)
				nav.HandleLoaded(msgB)
			} else {
				nav.HandleLoaded(msgB)
				nav.HandleLoaded(msgA)
			}

			assert.Equal(t, route.Saved, nav.Current().Key)
			assert.Equal(t, []route.Key{route.Saved}, changed)
		})
	}
}

func TestNavigate_SupersededFailureIsNotReported(t *testing.T) {
	modules := &fakeModules{fail: map[string]error{"history-panel": errors.New("offline")}}
	nav, notifier, _ := newTestNavigator(t, modules)

	cmdA := nav.Navigate("history", nil)
	cmdB := nav.Navigate("saved", nil)
	nav.HandleLoaded(cmdB().(LoadedMsg))
	nav.HandleLoaded(cmdA().(LoadedMsg))

	assert.Equal(t, route.Saved, nav.Current().Key)
	assert.Empty(t, notifier.messages)
	assert.NoError(t, nav.State().LastError)
}

func TestNavigate_RunsSetupWithParams(t *testing.T) {
	var got map[string]string
	type setupDone struct{}
	nav, _, _ := newTestNavigator(t, &fakeModules{}, WithSetup(route.Project, func(params map[string]string) tea.Cmd {
		got = params
		return func() tea.Msg { return setupDone{} }
	}))

	cmd := run(t, nav, nav.Navigate("project", map[string]string{"id": "p-1"}))

	assert.Equal(t, map[string]string{"id": "p-1"}, got)
	require.NotNil(t, cmd)
	assert.IsType(t, setupDone{}, cmd())
}

func TestNavigate_SetupRunsBeforeRouteChanged(t *testing.T) {
	var order []string
	nav, _, bus := newTestNavigator(t, &fakeModules{}, WithSetup(route.Project, func(params map[string]string) tea.Cmd {
		order = append(order, "setup")
		return nil
	}))
	event.Subscribe(bus, event.OnRouteChanged, "test", func(e *event.Event[event.RouteChanged]) {
		order = append(order, "route-changed")
	})

	run(t, nav, nav.Navigate("project", map[string]string{"id": "p-1"}))

	assert.Equal(t, []string{"setup", "route-changed"}, order)
}

func TestNavigate_WithRegistry(t *testing.T) {
	var loads int
	reg := module.NewRegistry(module.LoaderFunc(func(ctx context.Context, d module.Descriptor) error {
		loads++
		return nil
	}))
	nav, _, _ := newTestNavigator(t, reg)

	run(t, nav, nav.Navigate("request", nil))
	run(t, nav, nav.Navigate("history", nil))
	run(t, nav, nav.Navigate("request", map[string]string{"type": "new"}))

	assert.Equal(t, 2, loads)
	assert.Equal(t, "new", nav.Current().Param("type"))
}

func TestBackVisible(t *testing.T) {
	tests := []struct {
		key  route.Key
		want bool
	}{
		{"", true},
		{route.Request, false},
		{route.Settings, true},
		{route.APIConsole, true},
	}
	for _, tt := range tests {
		if got := BackVisible(route.Route{Key: tt.key}); got != tt.want {
			t.Errorf("BackVisible(%q) = %v, want %v", tt.key, got, tt.want)
		}
	}
}

func TestMenuDisabled(t *testing.T) {
	tests := []struct {
		name string
		mc   *MenuConfig
		want bool
	}{
		{"nil config", nil, false},
		{"explicitly disabled", &MenuConfig{MenuDisabled: true}, true},
		{"everything hidden", &MenuConfig{HideHistory: true, HideSaved: true, HideProjects: true, HideApis: true}, true},
		{"something visible", &MenuConfig{HideHistory: true, HideSaved: true, HideProjects: true}, false},
	}
	for _, tt := range tests {
		if got := MenuDisabled(tt.mc); got != tt.want {
			t.Errorf("%s: MenuDisabled() = %v, want %v", tt.name, got, tt.want)
		}
	}
}
