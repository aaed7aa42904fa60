package bootstrap

import (
	"context"
	"sync"
)

// Well-known dependency names.
const (
	DependencySpeechModel = "speech-model"
	DependencyTranscoder  = "transcoder"
)

// Registry groups the Bootstrappers a process owns.
type Registry struct {
	mu    sync.RWMutex
	order []string
	items map[string]*Bootstrapper
}

// NewRegistry builds a registry from the given bootstrappers.
func NewRegistry(items ...*Bootstrapper) *Registry {
	r := &Registry{items: make(map[string]*Bootstrapper)}
	for _, item := range items {
		r.Add(item)
	}
	return r
}

// Add registers b, replacing any bootstrapper with the same name.
func (r *Registry) Add(b *Bootstrapper) {
	if b == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.items[b.Name()]; !exists {
		r.order = append(r.order, b.Name())
	}
	r.items[b.Name()] = b
}

// Get returns the bootstrapper registered under name.
func (r *Registry) Get(name string) (*Bootstrapper, bool) {
	if r == nil {
		return nil, false
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	b, ok := r.items[name]
	return b, ok
}

// Start schedules every registered acquisition under the process context.
func (r *Registry) Start(ctx context.Context) {
	for _, b := range r.list() {
		b.Start(ctx)
	}
}

// EnsureReady waits for the named dependency. Names that were never
// registered need no acquisition and report Ready.
func (r *Registry) EnsureReady(ctx context.Context, name string) (State, error) {
	b, ok := r.Get(name)
	if !ok {
		return StateReady, nil
	}
	return b.EnsureReady(ctx)
}

// WaitAll blocks until every dependency settles or ctx ends, then returns
// their snapshots.
func (r *Registry) WaitAll(ctx context.Context) []Snapshot {
	for _, b := range r.list() {
		if _, err := b.EnsureReady(ctx); err != nil && ctx.Err() != nil {
			break
		}
	}
	return r.Snapshots()
}

// Reset clears every Failed dependency and reports how many were reset.
func (r *Registry) Reset() int {
	count := 0
	for _, b := range r.list() {
		if b.Reset() {
			count++
		}
	}
	return count
}

// Snapshots returns the state of every dependency in registration order.
func (r *Registry) Snapshots() []Snapshot {
	items := r.list()
	out := make([]Snapshot, 0, len(items))
	for _, b := range items {
		out = append(out, b.Snapshot())
	}
	return out
}

func (r *Registry) list() []*Bootstrapper {
	if r == nil {
		return nil
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Bootstrapper, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.items[name])
	}
	return out
}
