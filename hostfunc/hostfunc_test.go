package hostfunc

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/caffeineduck/wasmbridge/memory"
	"github.com/caffeineduck/wasmbridge/value"
)

var i32i32 = []value.Kind{value.KindI32, value.KindI32}

func nop(context.Context, *memory.Accessor, []value.Value) (value.Value, error) {
	return value.None, nil
}

func TestRegisterAssignsDenseIndices(t *testing.T) {
	r := NewRegistry()
	for i, name := range []string{"a", "b", "c"} {
		idx, err := r.Register(name, Sig(nil), nop)
		if err != nil {
			t.Fatalf("Register %s failed: %v", name, err)
		}
		if idx != Index(i) {
			t.Errorf("%s: expected index %d, got %d", name, i, idx)
		}
	}

	names := r.List()
	if strings.Join(names, ",") != "a,b,c" {
		t.Errorf("expected a,b,c in index order, got %v", names)
	}
}

func TestRegisterDuplicate(t *testing.T) {
	r := NewRegistry()
	if _, err := r.Register("f", Sig(nil), nop); err != nil {
		t.Fatalf("first Register failed: %v", err)
	}
	_, err := r.Register("f", Sig(nil), nop)
	if !errors.Is(err, ErrDuplicate) {
		t.Fatalf("expected ErrDuplicate, got %v", err)
	}
	if len(r.List()) != 1 {
		t.Errorf("duplicate must not consume an index, got %v", r.List())
	}
}

func TestResolve(t *testing.T) {
	r := NewRegistry()
	sig := Sig(i32i32, value.KindI32)
	r.Register("first", Sig(nil), nop)
	r.Register("second", sig, nop)

	ref, err := r.Resolve("second")
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if ref.Name != "second" || ref.Index != 1 || !ref.Signature.Equal(sig) {
		t.Errorf("unexpected ref: %+v", ref)
	}

	again, _ := r.Resolve("second")
	if again.Index != ref.Index || !again.Signature.Equal(ref.Signature) {
		t.Errorf("resolution not repeatable: %+v vs %+v", ref, again)
	}
}

func TestResolveUnknown(t *testing.T) {
	r := NewRegistry()
	_, err := r.Resolve("divide")
	if !errors.Is(err, ErrUnknownImport) {
		t.Fatalf("expected ErrUnknownImport, got %v", err)
	}
	if !strings.Contains(err.Error(), `"divide"`) {
		t.Errorf("error should name the import, got %q", err)
	}
}

func TestInvokeRoutesByIndex(t *testing.T) {
	r := NewRegistry()
	var called []string
	for _, name := range []string{"x", "y"} {
		name := name
		r.Register(name, Sig(nil, value.KindI32), func(ctx context.Context, mem *memory.Accessor, args []value.Value) (value.Value, error) {
			called = append(called, name)
			return value.I32(int32(len(name))), nil
		})
	}

	if _, err := r.Invoke(context.Background(), nil, 1, nil); err != nil {
		t.Fatalf("Invoke failed: %v", err)
	}
	if len(called) != 1 || called[0] != "y" {
		t.Errorf("expected y to be called, got %v", called)
	}
}

func TestInvokeUnknownIndexPanics(t *testing.T) {
	r := NewRegistry()
	r.Register("only", Sig(nil), nop)

	defer func() {
		rec := recover()
		if rec == nil {
			t.Fatal("expected panic for unknown index")
		}
		if !strings.Contains(rec.(string), "unknown function index 5") {
			t.Errorf("unexpected panic value: %v", rec)
		}
	}()
	r.Invoke(context.Background(), nil, 5, nil)
}

func TestInvokePropagatesError(t *testing.T) {
	r := NewRegistry()
	boom := errors.New("boom")
	r.Register("fail", Sig(nil), func(context.Context, *memory.Accessor, []value.Value) (value.Value, error) {
		return value.None, boom
	})

	_, err := r.Invoke(context.Background(), nil, 0, nil)
	if !errors.Is(err, boom) {
		t.Errorf("expected boom, got %v", err)
	}
}

func TestSignatureString(t *testing.T) {
	tests := []struct {
		sig  Signature
		want string
	}{
		{MultiplySignature, "(i32, i32) -> i32"},
		{StateAddSignature, "(i32, i32) -> ()"},
		{Sig(nil), "() -> ()"},
		{Sig(nil, value.KindI64, value.KindF32), "() -> (i64, f32)"},
	}
	for _, tt := range tests {
		if got := tt.sig.String(); got != tt.want {
			t.Errorf("expected %q, got %q", tt.want, got)
		}
	}
}

func TestSignatureEqual(t *testing.T) {
	if !MultiplySignature.Equal(Sig(i32i32, value.KindI32)) {
		t.Error("identical signatures should be equal")
	}
	if MultiplySignature.Equal(StateAddSignature) {
		t.Error("result arity differs")
	}
	if MultiplySignature.Equal(Sig([]value.Kind{value.KindI32, value.KindI64}, value.KindI32)) {
		t.Error("param kinds differ")
	}
}
