// Package event is the typed publish/subscribe bus shared by the shell and its
// screens.
//
// Every topic couples a Name from a closed set with one payload type, so a
// publisher and its subscribers agree on the payload at compile time. Delivery
// is synchronous and in subscription order; a handler that panics is isolated
// and does not stop delivery to the handlers after it.
package event

import (
	"fmt"
	"log/slog"
	"sync"
)

// Name identifies a protocol on the bus.
type Name string

// Topic binds a Name to its payload type.
type Topic[T any] struct {
	Name Name
}

func (t Topic[T]) String() string { return string(t.Name) }

// Event is one delivery of a payload. Handlers may prevent the publisher's
// default action; the publisher inspects DefaultPrevented after Publish returns.
type Event[T any] struct {
	Name    Name
	Payload T

	prevented bool
	errs      []error
}

// PreventDefault tells the publisher a handler took responsibility for the event.
func (e *Event[T]) PreventDefault() { e.prevented = true }

// DefaultPrevented reports whether any handler called PreventDefault.
func (e *Event[T]) DefaultPrevented() bool { return e.prevented }

// HandlerErrors returns the failures isolated during delivery.
func (e *Event[T]) HandlerErrors() []error { return e.errs }

// HandlerError wraps a panic raised by a subscriber.
type HandlerError struct {
	Name  Name
	Owner string
	Value any
}

func (e *HandlerError) Error() string {
	return fmt.Sprintf("handler %q for %s panicked: %v", e.Owner, e.Name, e.Value)
}

type subscriber struct {
	id     uint64
	owner  string
	fn     func(any) error
	active bool
}

// Bus routes events to subscribers. The zero value is not usable; call New.
type Bus struct {
	mu     sync.Mutex
	subs   map[Name][]*subscriber
	nextID uint64
	log    *slog.Logger
}

// Option configures a Bus.
type Option func(*Bus)

// WithLogger sets the logger used to report handler failures.
func WithLogger(l *slog.Logger) Option {
	return func(b *Bus) {
		if l != nil {
			b.log = l
		}
	}
}

// New creates an empty bus.
func New(opts ...Option) *Bus {
	b := &Bus{
		subs: make(map[Name][]*subscriber),
		log:  slog.Default(),
	}
	for _, o := range opts {
		o(b)
	}
	return b
}

// Subscription is the handle returned by Subscribe. The owner must Release it
// when it is torn down.
type Subscription struct {
	bus   *Bus
	name  Name
	id    uint64
	Owner string
}

// Release removes the subscription. It is safe to call more than once and from
// inside a handler; a released handler is not invoked again, even for an
// event that is already being delivered.
func (s *Subscription) Release() {
	if s == nil || s.bus == nil {
		return
	}
	s.bus.remove(s.name, s.id)
}

// Subscribe registers fn for topic t on behalf of owner.
func Subscribe[T any](b *Bus, t Topic[T], owner string, fn func(*Event[T])) *Subscription {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.nextID++
	sub := &subscriber{
		id:     b.nextID,
		owner:  owner,
		active: true,
		fn: func(v any) error {
			fn(v.(*Event[T]))
			return nil
		},
	}
	b.subs[t.Name] = append(b.subs[t.Name], sub)
	return &Subscription{bus: b, name: t.Name, id: sub.id, Owner: owner}
}

// Publish delivers payload to every subscriber of t, in subscription order, on
// the calling goroutine, and returns the delivered event.
func Publish[T any](b *Bus, t Topic[T], payload T) *Event[T] {
	ev := &Event[T]{Name: t.Name, Payload: payload}
	for _, sub := range b.snapshot(t.Name) {
		if !b.isActive(sub) {
			continue
		}
		if err := b.invoke(t.Name, sub, ev); err != nil {
			ev.errs = append(ev.errs, err)
		}
	}
	return ev
}

// Count returns the number of live subscriptions for name.
func (b *Bus) Count(name Name) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs[name])
}

func (b *Bus) invoke(name Name, sub *subscriber, ev any) (err error) {
	defer func() {
		if v := recover(); v != nil {
			err = &HandlerError{Name: name, Owner: sub.owner, Value: v}
			b.log.Error("event.Publish: handler failed", "event", string(name), "owner", sub.owner, "err", err)
		}
	}()
	return sub.fn(ev)
}

func (b *Bus) snapshot(name Name) []*subscriber {
	b.mu.Lock()
	defer b.mu.Unlock()
	subs := b.subs[name]
	out := make([]*subscriber, len(subs))
	copy(out, subs)
	return out
}

func (b *Bus) isActive(sub *subscriber) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return sub.active
}

func (b *Bus) remove(name Name, id uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	subs := b.subs[name]
	for i, s := range subs {
		if s.id == id {
			s.active = false
			b.subs[name] = append(subs[:i:i], subs[i+1:]...)
			break
		}
	}
	if len(b.subs[name]) == 0 {
		delete(b.subs, name)
	}
}

// Group collects the subscriptions of one owner so they can be released
// together on teardown.
type Group struct {
	subs []*Subscription
}

// Add records s in the group and returns it.
func (g *Group) Add(s *Subscription) *Subscription {
	g.subs = append(g.subs, s)
	return s
}

// Len returns the number of subscriptions held.
func (g *Group) Len() int { return len(g.subs) }

// Release releases every subscription in the group.
func (g *Group) Release() {
	for _, s := range g.subs {
		s.Release()
	}
	g.subs = nil
}
