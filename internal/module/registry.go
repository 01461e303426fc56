// Package module tracks lazily loaded UI modules and de-duplicates their loads.
//
// A module is identified by a Descriptor. The Registry keeps one entry per module
// id for the life of the process; concurrent requests for the same id share a
// single in-flight load and are notified in the order they asked.
package module

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
)

// Descriptor names a loadable module. Resource is a bundle path for remote
// modules and an in-app view identifier for local ones.
type Descriptor struct {
	ID       string
	Resource string
	Local    bool
}

// State is the lifecycle position of a registry entry.
type State int

const (
	StateUnloaded State = iota
	StateLoading
	StateLoaded
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateUnloaded:
		return "unloaded"
	case StateLoading:
		return "loading"
	case StateLoaded:
		return "loaded"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// LoadError is delivered to every waiter of a failed load attempt.
type LoadError struct {
	ID    string
	Cause error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("load module %q: %v", e.ID, e.Cause)
}

func (e *LoadError) Unwrap() error {
	return e.Cause
}

type entry struct {
	state    State
	attempts int
	waiters  []func(error)
}

// Registry owns the load state of every module requested so far.
type Registry struct {
	loader  Loader
	log     *slog.Logger
	mu      sync.Mutex
	entries map[string]*entry
}

// NewRegistry creates a registry that fetches modules through loader.
func NewRegistry(loader Loader) *Registry {
	return &Registry{
		loader:  loader,
		log:     slog.Default(),
		entries: make(map[string]*entry),
	}
}

// WithLogger sets the logger used to report failing waiters.
func (r *Registry) WithLogger(log *slog.Logger) *Registry {
	if log != nil {
		r.log = log
	}
	return r
}

// Ensure makes sure the module described by d is loaded and calls done with the
// outcome. A loaded module reports nil immediately. While a load is in flight,
// done joins its waiter list. Otherwise a new attempt starts on the calling
// goroutine and Ensure returns once every waiter has been notified.
func (r *Registry) Ensure(ctx context.Context, d Descriptor, done func(error)) {
	r.mu.Lock()
	e, ok := r.entries[d.ID]
	if !ok {
		e = &entry{state: StateUnloaded}
		r.entries[d.ID] = e
	}
	switch e.state {
	case StateLoaded:
		r.mu.Unlock()
		if done != nil {
			r.notify(d.ID, done, nil)
		}
		return
	case StateLoading:
		if done != nil {
			e.waiters = append(e.waiters, done)
		}
		r.mu.Unlock()
		return
	}
	e.state = StateLoading
	e.attempts++
	e.waiters = nil
	if done != nil {
		e.waiters = append(e.waiters, done)
	}
	r.mu.Unlock()

	r.settle(d.ID, r.load(ctx, d))
}

// EnsureLoaded is the blocking form of Ensure. It returns nil once the module is
// loaded, a *LoadError if the attempt it joined failed, or ctx.Err() if ctx ends
// first. A cancelled wait does not cancel the shared load.
func (r *Registry) EnsureLoaded(ctx context.Context, d Descriptor) error {
	ch := make(chan error, 1)
	r.Ensure(ctx, d, func(err error) { ch <- err })
	select {
	case err := <-ch:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// State reports the current state for id. Unknown ids are StateUnloaded.
func (r *Registry) State(id string) State {
	r.mu.Lock()
	defer r.mu.Unlock()
	if e, ok := r.entries[id]; ok {
		return e.state
	}
	return StateUnloaded
}

// Attempts returns how many loads have been issued for id.
func (r *Registry) Attempts(id string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	if e, ok := r.entries[id]; ok {
		return e.attempts
	}
	return 0
}

// waiting returns the number of callers parked on the in-flight attempt for id.
func (r *Registry) waiting(id string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	if e, ok := r.entries[id]; ok {
		return len(e.waiters)
	}
	return 0
}

// IsLoaded is shorthand for State(id) == StateLoaded.
func (r *Registry) IsLoaded(id string) bool {
	return r.State(id) == StateLoaded
}

func (r *Registry) load(ctx context.Context, d Descriptor) (err error) {
	defer func() {
		if v := recover(); v != nil {
			err = fmt.Errorf("loader panic: %v", v)
		}
	}()
	if r.loader == nil {
		return fmt.Errorf("no loader configured")
	}
	return r.loader.Load(ctx, d)
}

// settle records the outcome of the in-flight attempt for id and notifies its
// waiters outside the lock, in registration order.
func (r *Registry) settle(id string, cause error) {
	r.mu.Lock()
	e := r.entries[id]
	waiters := e.waiters
	e.waiters = nil
	var err error
	if cause != nil {
		e.state = StateFailed
		err = &LoadError{ID: id, Cause: cause}
	} else {
		e.state = StateLoaded
	}
	r.mu.Unlock()

	for _, w := range waiters {
		r.notify(id, w, err)
	}
}

// notify calls w, recovering a panic so the remaining waiters still run.
func (r *Registry) notify(id string, w func(error), err error) {
	defer func() {
		if v := recover(); v != nil {
			r.log.Error("module.Ensure: waiter failed", "module", id, "panic", v)
		}
	}()
	w(err)
}
