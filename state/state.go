// Package state holds host-owned objects that guest code refers to by
// opaque integer handles.
//
// A guest never sees a host address. It receives a [Handle], passes it back
// through an import, and the host looks the object up here:
//
//	states := state.NewRegistry[state.Counter]()
//	states.Insert(1, 0)
//	states.Mutate(1, func(c *state.Counter) { c.Add(5) })
package state

import (
	"fmt"
	"sync"

	"go.uber.org/zap"
)

// Handle is the key a guest holds for a host object. It crosses the boundary
// as an i32.
type Handle int32

// Counter is a host object carrying a running total.
type Counter int32

// Add increases the total by n, wrapping on overflow.
func (c *Counter) Add(n int32) { *c += Counter(n) }

// Option configures a Registry.
type Option func(*registryConfig)

type registryConfig struct {
	logger *zap.Logger
}

// WithLogger sets the logger used for registry events.
func WithLogger(l *zap.Logger) Option {
	return func(c *registryConfig) {
		c.logger = l
	}
}

// Registry maps handles to host objects. An entry lives from Insert or Issue
// until Remove.
type Registry[T any] struct {
	mu     sync.RWMutex
	data   map[Handle]*T
	next   Handle
	logger *zap.Logger
}

func NewRegistry[T any](opts ...Option) *Registry[T] {
	cfg := registryConfig{logger: zap.NewNop()}
	for _, opt := range opts {
		opt(&cfg)
	}
	return &Registry[T]{
		data:   make(map[Handle]*T),
		next:   1,
		logger: cfg.logger,
	}
}

// Insert installs v under h, replacing any previous value.
func (r *Registry[T]) Insert(h Handle, v T) {
	r.mu.Lock()
	r.data[h] = &v
	if h >= r.next {
		r.next = h + 1
	}
	r.mu.Unlock()

	r.logger.Debug("state inserted", zap.Int32("handle", int32(h)))
}

// Issue stores v under a fresh handle and returns it. Issued handles are
// positive and never collide with an existing entry.
func (r *Registry[T]) Issue(v T) Handle {
	r.mu.Lock()
	for r.next <= 0 || r.data[r.next] != nil {
		if r.next <= 0 {
			r.next = 1
			continue
		}
		r.next++
	}
	h := r.next
	r.data[h] = &v
	r.next++
	r.mu.Unlock()

	r.logger.Debug("state issued", zap.Int32("handle", int32(h)))
	return h
}

// Get returns a copy of the value under h.
func (r *Registry[T]) Get(h Handle) (T, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.data[h]
	if !ok {
		var zero T
		return zero, false
	}
	return *p, true
}

// Mutate applies fn to the value under h. A missing handle means the caller
// and the registry disagree about what exists, so Mutate panics.
func (r *Registry[T]) Mutate(h Handle, fn func(*T)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.data[h]
	if !ok {
		panic(fmt.Sprintf("state: no entry for handle %d", h))
	}
	fn(p)
	r.logger.Debug("state mutated", zap.Int32("handle", int32(h)))
}

// Remove drops the entry under h. Later Mutate calls on h panic. Removed
// handles are not reissued by Issue until the counter wraps.
func (r *Registry[T]) Remove(h Handle) bool {
	r.mu.Lock()
	_, ok := r.data[h]
	delete(r.data, h)
	r.mu.Unlock()

	if ok {
		r.logger.Debug("state removed", zap.Int32("handle", int32(h)))
	}
	return ok
}

// Len returns the number of entries.
func (r *Registry[T]) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.data)
}
