package hostfunc

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/caffeineduck/wasmbridge/memory"
	"github.com/caffeineduck/wasmbridge/value"
)

var (
	ErrUnknownImport = errors.New("unknown import")
	ErrDuplicate     = errors.New("host function already registered")
)

// Func implements a host function. args match the registered signature;
// mem is the calling module's memory and may be nil. A returned error traps
// the guest call.
type Func func(ctx context.Context, mem *memory.Accessor, args []value.Value) (value.Value, error)

// Resolver binds import names to host functions.
type Resolver interface {
	Resolve(name string) (FuncRef, error)
}

// Dispatcher invokes host functions by dispatch index.
type Dispatcher interface {
	Invoke(ctx context.Context, mem *memory.Accessor, idx Index, args []value.Value) (value.Value, error)
}

// Host is everything a module loader needs from the host side.
type Host interface {
	Resolver
	Dispatcher
}

type entry struct {
	ref FuncRef
	fn  Func
}

// Option configures a Registry.
type Option func(*Registry)

// WithLogger sets the logger used for resolution and dispatch.
func WithLogger(l *zap.Logger) Option {
	return func(r *Registry) {
		r.logger = l
	}
}

// Registry is a table of host functions. It implements Host.
type Registry struct {
	mu     sync.RWMutex
	funcs  []entry
	byName map[string]Index
	logger *zap.Logger
}

func NewRegistry(opts ...Option) *Registry {
	r := &Registry{
		byName: make(map[string]Index),
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Register adds fn under name and returns its dispatch index.
func (r *Registry) Register(name string, sig Signature, fn Func) (Index, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.byName[name]; ok {
		return 0, fmt.Errorf("%w: %s", ErrDuplicate, name)
	}
	idx := Index(len(r.funcs))
	r.funcs = append(r.funcs, entry{
		ref: FuncRef{Name: name, Signature: sig, Index: idx},
		fn:  fn,
	})
	r.byName[name] = idx
	r.logger.Debug("host function registered",
		zap.String("name", name),
		zap.Stringer("signature", sig),
		zap.Uint32("index", uint32(idx)))
	return idx, nil
}

// Resolve returns the reference for name.
func (r *Registry) Resolve(name string) (FuncRef, error) {
	r.mu.RLock()
	idx, ok := r.byName[name]
	var ref FuncRef
	if ok {
		ref = r.funcs[idx].ref
	}
	r.mu.RUnlock()

	if !ok {
		return FuncRef{}, fmt.Errorf("%w: host module doesn't export function with name %q", ErrUnknownImport, name)
	}
	return ref, nil
}

// Invoke calls the function at idx. An index this registry never issued
// means the loader and the registry have diverged; Invoke panics.
func (r *Registry) Invoke(ctx context.Context, mem *memory.Accessor, idx Index, args []value.Value) (value.Value, error) {
	r.mu.RLock()
	if int(idx) >= len(r.funcs) {
		r.mu.RUnlock()
		panic(fmt.Sprintf("hostfunc: unknown function index %d", idx))
	}
	e := r.funcs[idx]
	r.mu.RUnlock()

	if ce := r.logger.Check(zap.DebugLevel, "host call"); ce != nil {
		ce.Write(zap.String("name", e.ref.Name), zap.Stringers("args", args))
	}
	return e.fn(ctx, mem, args)
}

// List returns the registered names in index order.
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, len(r.funcs))
	for i, e := range r.funcs {
		names[i] = e.ref.Name
	}
	return names
}
