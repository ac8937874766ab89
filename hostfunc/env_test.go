package hostfunc

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/caffeineduck/wasmbridge/state"
	"github.com/caffeineduck/wasmbridge/value"
)

func newEnvRegistry() (*state.Registry[state.Counter], *Registry) {
	states := state.NewRegistry[state.Counter]()
	return states, NewEnv(states).Registry()
}

func TestEnvIndices(t *testing.T) {
	_, r := newEnvRegistry()

	tests := []struct {
		name string
		idx  Index
		sig  Signature
	}{
		{"multiply", MultiplyIndex, MultiplySignature},
		{"state_add", StateAddIndex, StateAddSignature},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ref, err := r.Resolve(tt.name)
			if err != nil {
				t.Fatalf("Resolve failed: %v", err)
			}
			if ref.Index != tt.idx {
				t.Errorf("expected index %d, got %d", tt.idx, ref.Index)
			}
			if !ref.Signature.Equal(tt.sig) {
				t.Errorf("expected %s, got %s", tt.sig, ref.Signature)
			}
		})
	}
}

func TestEnvRejectsOtherNames(t *testing.T) {
	_, r := newEnvRegistry()
	for _, name := range []string{"add", "Multiply", "state_sub", ""} {
		if _, err := r.Resolve(name); !errors.Is(err, ErrUnknownImport) {
			t.Errorf("%q: expected ErrUnknownImport, got %v", name, err)
		}
	}
}

func TestEnvMultiply(t *testing.T) {
	_, r := newEnvRegistry()
	got, err := r.Invoke(context.Background(), nil, MultiplyIndex, []value.Value{value.I32(3), value.I32(6)})
	if err != nil {
		t.Fatalf("Invoke failed: %v", err)
	}
	if got != value.I32(18) {
		t.Errorf("expected 18, got %v", got)
	}
}

func TestEnvMultiplyWraps(t *testing.T) {
	env := NewEnv(state.NewRegistry[state.Counter]())
	if got := env.Multiply(math.MaxInt32, 2); got != -2 {
		t.Errorf("expected -2, got %d", got)
	}
}

func TestEnvStateAdd(t *testing.T) {
	states, r := newEnvRegistry()
	states.Insert(1, 0)

	got, err := r.Invoke(context.Background(), nil, StateAddIndex, []value.Value{value.I32(1), value.I32(5)})
	if err != nil {
		t.Fatalf("Invoke failed: %v", err)
	}
	if !got.IsNone() {
		t.Errorf("state_add should return no value, got %v", got)
	}
	if c, _ := states.Get(1); c != 5 {
		t.Errorf("expected counter 5, got %d", c)
	}
}

func TestEnvStateAddMissingHandlePanics(t *testing.T) {
	_, r := newEnvRegistry()

	defer func() {
		if recover() == nil {
			t.Fatal("expected panic for unregistered handle")
		}
	}()
	r.Invoke(context.Background(), nil, StateAddIndex, []value.Value{value.I32(9), value.I32(1)})
}
