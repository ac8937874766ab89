// Package hostfunc resolves guest imports to host functions and dispatches
// guest calls to them.
//
// # Resolution and dispatch
//
// A [Registry] assigns every registered function a dense dispatch [Index].
// At load time the module loader asks the [Resolver] for each import by name
// and receives a [FuncRef]: the signature the guest must declare and the
// index to call. At call time only the index is used:
//
//	registry := hostfunc.NewRegistry()
//	idx, _ := registry.Register("double", hostfunc.Sig(
//	    []value.Kind{value.KindI32}, value.KindI32,
//	), func(ctx context.Context, mem *memory.Accessor, args []value.Value) (value.Value, error) {
//	    return value.I32(args[0].I32() * 2), nil
//	})
//
//	ref, err := registry.Resolve("double")    // ref.Index == idx
//	v, err := registry.Invoke(ctx, nil, idx, []value.Value{value.I32(4)})
//
// Unknown names fail resolution with [ErrUnknownImport]. An unknown index
// at dispatch time is a bug in the caller and panics.
//
// # The env namespace
//
// [Env] provides the functions guests import from "env":
//
//	multiply(i32, i32) -> i32
//	state_add(i32, i32)
//
// state_add takes a [state.Handle] and a delta and updates the
// [state.Counter] the host registered under that handle.
package hostfunc
