package submission

import (
	"context"
	"fmt"
	"sync"
)

// Enrichment maps field names to values merged over a request before transport.
type Enrichment map[string]string

// Hook lets the host add or override fields before a request is sent.
// Enrich receives a copy of the request and must call done exactly once,
// from any goroutine and at its own pace. A non-nil error aborts the
// submission locally without an outcome.
type Hook interface {
	Enrich(ctx context.Context, req Request, done func(Enrichment, error))
}

// HookFunc adapts a function to the Hook interface.
type HookFunc func(ctx context.Context, req Request, done func(Enrichment, error))

func (f HookFunc) Enrich(ctx context.Context, req Request, done func(Enrichment, error)) {
	f(ctx, req, done)
}

// SyncHook adapts a blocking enrichment function to the Hook interface.
func SyncHook(fn func(ctx context.Context, req Request) (Enrichment, error)) Hook {
	return HookFunc(func(ctx context.Context, req Request, done func(Enrichment, error)) {
		done(fn(ctx, req))
	})
}

// Chain runs hooks in order, merging each enrichment into the request seen
// by the next hook. Later hooks win on name collisions.
func Chain(hooks ...Hook) Hook {
	return HookFunc(func(ctx context.Context, req Request, done func(Enrichment, error)) {
		merged := make(Enrichment)
		for _, h := range hooks {
			e, err := await(ctx, h, req.Clone())
			if err != nil {
				done(nil, err)
				return
			}
			req.Merge(e)
			for k, v := range e {
				merged[k] = v
			}
		}
		done(merged, nil)
	})
}

type enrichResult struct {
	enrichment Enrichment
	err        error
}

// await invokes h and blocks until done is called or ctx ends.
// Only the first call to done is observed.
func await(ctx context.Context, h Hook, req Request) (Enrichment, error) {
	results := make(chan enrichResult, 1)
	var once sync.Once

	h.Enrich(ctx, req, func(e Enrichment, err error) {
		once.Do(func() {
			results <- enrichResult{enrichment: e, err: err}
		})
	})

	select {
	case r := <-results:
		return r.enrichment, r.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Registry resolves hooks and listeners by the names used in configuration.
type Registry struct {
	mu        sync.RWMutex
	hooks     map[string]Hook
	listeners map[string]Listener
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		hooks:     make(map[string]Hook),
		listeners: make(map[string]Listener),
	}
}

// RegisterHook binds name to an enrichment hook, replacing any previous binding.
func (r *Registry) RegisterHook(name string, h Hook) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.hooks[name] = h
}

// RegisterListener binds name to a notification listener.
func (r *Registry) RegisterListener(name string, l Listener) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.listeners[name] = l
}

// Hook returns the hook bound to name.
func (r *Registry) Hook(name string) (Hook, error) {
	if r == nil {
		return nil, fmt.Errorf("%w: %s", ErrUnknownHook, name)
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	h, ok := r.hooks[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownHook, name)
	}
	return h, nil
}

// Listener returns the listener bound to name.
func (r *Registry) Listener(name string) (Listener, error) {
	if r == nil {
		return nil, fmt.Errorf("%w: %s", ErrUnknownListener, name)
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	l, ok := r.listeners[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownListener, name)
	}
	return l, nil
}
