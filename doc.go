// Package wasmbridge embeds WebAssembly modules in a Go host and exercises the
// boundary between them: host functions the guest imports, linear memory the
// host reads and writes, and host-side state the guest refers to by handle.
//
// # Overview
//
// A module is loaded by an [executor.Executor], which resolves every import
// from the env namespace through a [hostfunc.Resolver] and routes guest calls
// to host functions by dense index through a [hostfunc.Dispatcher].
//
// # Basic Usage
//
//	states := state.NewRegistry[state.Counter]()
//	exec, _ := executor.New(hostfunc.NewEnv(states).Registry())
//	defer exec.Close()
//
//	inst, err := exec.Load(ctx, wasm)
//	if err != nil {
//	    return err
//	}
//	defer inst.Close(ctx)
//
//	res, _ := inst.Call(ctx, "add", value.I32(3), value.I32(6)) // 9
//
// # Memory and Strings
//
//	ptr, _ := inst.Call(ctx, "return_str")
//	s, _ := inst.Memory().ReadCString(uint32(ptr.I32()))
//
// Text read from guest memory is decoded lossily: invalid UTF-8 becomes
// U+FFFD. Encoding strings into guest memory is not supported.
//
// # Host State
//
//	states.Insert(1, 0)
//	inst.Call(ctx, "host_state_add", value.I32(1)) // counter 1 is now 5
//
// See the [executor], [hostfunc], [memory], [state], [value] and
// [walkthrough] packages for detailed API documentation.
package wasmbridge
