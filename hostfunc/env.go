package hostfunc

import (
	"context"
	"fmt"

	"github.com/caffeineduck/wasmbridge/memory"
	"github.com/caffeineduck/wasmbridge/state"
	"github.com/caffeineduck/wasmbridge/value"
)

// Namespace is the import module name guests use for host functions.
const Namespace = "env"

// Dispatch indices of the env functions.
const (
	MultiplyIndex Index = 0
	StateAddIndex Index = 1
)

var (
	MultiplySignature = Sig([]value.Kind{value.KindI32, value.KindI32}, value.KindI32)
	StateAddSignature = Sig([]value.Kind{value.KindI32, value.KindI32})
)

// Env is the host side of the env namespace.
type Env struct {
	states *state.Registry[state.Counter]
}

// NewEnv returns an Env backed by states.
func NewEnv(states *state.Registry[state.Counter]) *Env {
	return &Env{states: states}
}

// States returns the registry state_add mutates.
func (e *Env) States() *state.Registry[state.Counter] { return e.states }

// Multiply returns a*b with two's complement wrapping.
func (e *Env) Multiply(a, b int32) int32 { return a * b }

// StateAdd adds delta to the counter behind h. It panics if h was never
// registered.
func (e *Env) StateAdd(h state.Handle, delta int32) {
	e.states.Mutate(h, func(c *state.Counter) { c.Add(delta) })
}

// Registry returns a Registry exposing multiply at MultiplyIndex and
// state_add at StateAddIndex.
func (e *Env) Registry(opts ...Option) *Registry {
	r := NewRegistry(opts...)
	mustRegister(r, "multiply", MultiplySignature, MultiplyIndex, e.multiply)
	mustRegister(r, "state_add", StateAddSignature, StateAddIndex, e.stateAdd)
	return r
}

func mustRegister(r *Registry, name string, sig Signature, want Index, fn Func) {
	idx, err := r.Register(name, sig, fn)
	if err != nil {
		panic(err)
	}
	if idx != want {
		panic(fmt.Sprintf("hostfunc: %s registered at index %d, want %d", name, idx, want))
	}
}

func (e *Env) multiply(_ context.Context, _ *memory.Accessor, args []value.Value) (value.Value, error) {
	return value.I32(e.Multiply(args[0].I32(), args[1].I32())), nil
}

func (e *Env) stateAdd(_ context.Context, _ *memory.Accessor, args []value.Value) (value.Value, error) {
	e.StateAdd(state.Handle(args[0].I32()), args[1].I32())
	return value.None, nil
}
