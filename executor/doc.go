// Package executor loads WebAssembly modules and links them against
// host functions.
//
// # Overview
//
// An [Executor] turns module bytes into an [Instance]. Loading compiles the
// module with wazero, resolves each function the module imports from the
// "env" namespace through a [hostfunc.Resolver], and wires every resolved
// import to the host's dispatcher by its dispatch index. A module is
// rejected when it:
//
//   - fails to parse or validate,
//   - imports a name the host does not provide, or with another signature,
//   - imports anything from outside "env", or imports memory,
//   - has a start function,
//   - does not export its memory as "memory".
//
// # Basic Usage
//
//	states := state.NewRegistry[state.Counter]()
//	exec, err := executor.New(hostfunc.NewEnv(states).Registry())
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer exec.Close()
//
//	inst, err := exec.Load(ctx, wasm)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer inst.Close(ctx)
//
//	sum, err := inst.Call(ctx, "add", value.I32(3), value.I32(6))
//
// Host functions that fail or panic trap the guest call; the error comes
// back from [Instance.Call].
package executor
