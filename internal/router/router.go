// Package router owns the current screen and drives module loading on
// navigation.
//
// Navigation is a two-step state transition run on the Bubble Tea update loop:
// Navigate records the pending route and returns a command that ensures the
// screen's module is loaded; HandleLoaded commits the route when that command's
// LoadedMsg comes back. Only the most recent navigation can commit, so a slow
// load for a superseded route never overwrites the current one.
package router

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	tea "github.com/charmbracelet/bubbletea"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"arcshell/internal/event"
	"arcshell/internal/module"
	"arcshell/internal/route"
)

// Notifier shows a user-visible error.
type Notifier interface {
	NotifyError(message string)
}

// Ensurer makes sure a module is loaded. *module.Registry implements it.
type Ensurer interface {
	EnsureLoaded(ctx context.Context, d module.Descriptor) error
}

// SetupFunc prepares a screen after its route commits. The returned command, if
// any, is run by the caller.
type SetupFunc func(params map[string]string) tea.Cmd

// State is the router's owned navigation state.
type State struct {
	Current   route.Route
	Pending   *route.Route
	LastError error
}

// LoadedMsg reports the module load issued for navigation Seq.
type LoadedMsg struct {
	Seq    uint64
	Route  route.Route
	Module module.Descriptor
	Err    error
}

// ComponentLoadError reports that a screen's module could not be loaded.
type ComponentLoadError struct {
	Route route.Key
	Err   error
}

func (e *ComponentLoadError) Error() string {
	return fmt.Sprintf("load component for %q: %v", e.Route, e.Err)
}

func (e *ComponentLoadError) Unwrap() error { return e.Err }

// Navigator is the router. Navigate and HandleLoaded must be called from the
// update loop.
type Navigator struct {
	table   *route.Table
	modules Ensurer
	bus     *event.Bus
	notify  Notifier
	setups  map[route.Key]SetupFunc
	log     *slog.Logger
	tracer  trace.Tracer

	state State
	seq   uint64
}

// Option configures a Navigator.
type Option func(*Navigator)

// WithSetup registers the setup callback for key.
func WithSetup(key route.Key, fn SetupFunc) Option {
	return func(n *Navigator) { n.setups[key] = fn }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(n *Navigator) {
		if l != nil {
			n.log = l
		}
	}
}

// WithTracerProvider enables navigation spans.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(n *Navigator) {
		if tp != nil {
			n.tracer = tp.Tracer("arcshell/router")
		}
	}
}

// New creates a navigator with no current route.
func New(table *route.Table, modules Ensurer, bus *event.Bus, notify Notifier, opts ...Option) *Navigator {
	n := &Navigator{
		table:   table,
		modules: modules,
		bus:     bus,
		notify:  notify,
		setups:  make(map[route.Key]SetupFunc),
		log:     slog.Default(),
		tracer:  noop.NewTracerProvider().Tracer("arcshell/router"),
	}
	for _, o := range opts {
		o(n)
	}
	return n
}

// SetSetup registers or replaces the setup callback for key.
func (n *Navigator) SetSetup(key route.Key, fn SetupFunc) {
	n.setups[key] = fn
}

// State returns a copy of the navigation state.
func (n *Navigator) State() State {
	s := n.state
	if s.Pending != nil {
		p := *s.Pending
		s.Pending = &p
	}
	return s
}

// Current returns the committed route.
func (n *Navigator) Current() route.Route {
	return n.state.Current
}

// Navigate starts a navigation to key. Unknown keys are reported and leave the
// state untouched apart from LastError. The returned command loads the screen's
// module and yields a LoadedMsg.
func (n *Navigator) Navigate(key string, params map[string]string) tea.Cmd {
	d, err := n.table.Resolve(key)
	if err != nil {
		n.state.LastError = err
		n.log.Error("router.Navigate: unknown route", "route", key, "err", err)
		n.report(err.Error())
		return nil
	}

	n.seq++
	pending := route.Route{Key: route.Key(key), Params: params}
	n.state.Pending = &pending
	seq := n.seq
	modules := n.modules
	tracer := n.tracer

	return func() tea.Msg {
		ctx, span := tracer.Start(context.Background(), "router.navigate",
			trace.WithAttributes(
				attribute.String("arcshell.route", key),
				attribute.String("arcshell.module.id", d.ID),
			),
		)
		defer span.End()
		err := modules.EnsureLoaded(ctx, d)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		return LoadedMsg{Seq: seq, Route: pending, Module: d, Err: err}
	}
}

// HandleLoaded commits or rejects the navigation that issued msg. Results for a
// superseded navigation are discarded. On success the route's setup callback
// runs, then route-changed is published.
func (n *Navigator) HandleLoaded(msg LoadedMsg) tea.Cmd {
	if n.state.Pending == nil || msg.Seq != n.seq {
		n.log.Debug("router.HandleLoaded: discarding superseded navigation", "route", string(msg.Route.Key), "seq", msg.Seq)
		return nil
	}
	target := *n.state.Pending
	n.state.Pending = nil

	if msg.Err != nil {
		cerr := &ComponentLoadError{Route: target.Key, Err: msg.Err}
		n.state.LastError = cerr
		n.log.Error("router.HandleLoaded: component failed to load", "route", string(target.Key), "err", msg.Err)
		n.report(componentMessage(msg.Module, msg.Err))
		return nil
	}

	n.state.Current = target
	n.state.LastError = nil
	var cmd tea.Cmd
	if setup, ok := n.setups[target.Key]; ok && setup != nil {
		cmd = setup(target.Params)
	}
	if n.bus != nil {
		event.Publish(n.bus, event.OnRouteChanged, event.RouteChanged{Route: target})
	}
	return cmd
}

func (n *Navigator) report(message string) {
	if n.notify != nil {
		n.notify.NotifyError(message)
	}
}

func componentMessage(d module.Descriptor, err error) string {
	id := d.ID
	var lerr *module.LoadError
	if errors.As(err, &lerr) {
		id = lerr.ID
	}
	return fmt.Sprintf("Unable to load %s component", id)
}
