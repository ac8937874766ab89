package executor

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"
	"go.uber.org/zap"

	"github.com/caffeineduck/wasmbridge/memory"
	"github.com/caffeineduck/wasmbridge/value"
)

// Instance is a loaded module. It owns its runtime and linear memory.
type Instance struct {
	runtime wazero.Runtime
	module  api.Module
	memory  *memory.Accessor
	logger  *zap.Logger
	mu      sync.Mutex
	closed  bool
}

// Memory returns the module's exported linear memory.
func (i *Instance) Memory() *memory.Accessor { return i.memory }

// Exports returns the names of the exported functions, sorted.
func (i *Instance) Exports() []string {
	defs := i.module.ExportedFunctionDefinitions()
	names := make([]string, 0, len(defs))
	for name := range defs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Call invokes the exported function name. It returns value.None for
// functions without a result.
func (i *Instance) Call(ctx context.Context, name string, args ...value.Value) (value.Value, error) {
	i.mu.Lock()
	closed := i.closed
	i.mu.Unlock()
	if closed {
		return value.None, ErrInstanceClosed
	}

	fn := i.module.ExportedFunction(name)
	if fn == nil {
		return value.None, fmt.Errorf("%w: %s", ErrExportNotFound, name)
	}

	def := fn.Definition()
	params := def.ParamTypes()
	if len(params) != len(args) {
		return value.None, fmt.Errorf("%w: %s takes %d arguments, got %d", ErrSignatureMismatch, name, len(params), len(args))
	}
	raw := make([]uint64, len(args))
	for n, arg := range args {
		if arg.IsNone() || arg.Kind().ValueType() != params[n] {
			return value.None, fmt.Errorf("%w: %s argument %d is %s, want %s",
				ErrSignatureMismatch, name, n, arg.Kind(), api.ValueTypeName(params[n]))
		}
		raw[n] = arg.Raw()
	}

	results := def.ResultTypes()
	if len(results) > 1 {
		return value.None, fmt.Errorf("%w: %s", ErrMultipleResults, name)
	}

	out, err := fn.Call(ctx, raw...)
	if err != nil {
		return value.None, fmt.Errorf("call %s: %w", name, err)
	}

	res := value.None
	if len(results) == 1 {
		k, err := value.KindOf(results[0])
		if err != nil {
			return value.None, fmt.Errorf("call %s: %w", name, err)
		}
		res = value.FromRaw(k, out[0])
	}

	if ce := i.logger.Check(zap.DebugLevel, "export called"); ce != nil {
		ce.Write(zap.String("name", name), zap.Stringers("args", args), zap.Stringer("result", res))
	}
	return res, nil
}

// Close releases the module and its runtime.
func (i *Instance) Close(ctx context.Context) error {
	i.mu.Lock()
	defer i.mu.Unlock()

	if i.closed {
		return nil
	}
	i.closed = true
	return i.runtime.Close(ctx)
}
