package module

import (
	"context"
	"fmt"
	"sync"
)

// Loader fetches the resource behind a descriptor. Local and remote modules use
// different mechanisms but report the same two outcomes.
type Loader interface {
	Load(ctx context.Context, d Descriptor) error
}

// LoaderFunc adapts a function to Loader.
type LoaderFunc func(ctx context.Context, d Descriptor) error

// Load implements Loader.
func (f LoaderFunc) Load(ctx context.Context, d Descriptor) error {
	return f(ctx, d)
}

// Loaders dispatches to Local or Remote depending on Descriptor.Local.
type Loaders struct {
	Local  Loader
	Remote Loader
}

// Ensure Loaders implements Loader.
var _ Loader = Loaders{}

// Load implements Loader.
func (l Loaders) Load(ctx context.Context, d Descriptor) error {
	next := l.Remote
	kind := "remote"
	if d.Local {
		next = l.Local
		kind = "local"
	}
	if next == nil {
		return fmt.Errorf("no %s loader for %q", kind, d.ID)
	}
	return next.Load(ctx, d)
}

// LocalLoader resolves in-app views compiled into the binary.
type LocalLoader struct {
	mu    sync.RWMutex
	views map[string]struct{}
}

// NewLocalLoader creates a loader that knows the given view ids.
func NewLocalLoader(views ...string) *LocalLoader {
	l := &LocalLoader{views: make(map[string]struct{}, len(views))}
	for _, v := range views {
		l.views[v] = struct{}{}
	}
	return l
}

// Register adds an in-app view id.
func (l *LocalLoader) Register(view string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.views[view] = struct{}{}
}

// Load implements Loader.
func (l *LocalLoader) Load(ctx context.Context, d Descriptor) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	view := d.Resource
	if view == "" {
		view = d.ID
	}
	l.mu.RLock()
	_, ok := l.views[view]
	l.mu.RUnlock()
	if !ok {
		return fmt.Errorf("local view %q is not registered", view)
	}
	return nil
}
