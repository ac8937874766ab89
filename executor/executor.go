package executor

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"
	"github.com/wippyai/wasm-runtime/wasm"
	"go.uber.org/zap"

	"github.com/caffeineduck/wasmbridge/hostfunc"
	"github.com/caffeineduck/wasmbridge/memory"
	"github.com/caffeineduck/wasmbridge/value"
)

// MemoryExport is the export name a module's linear memory must have.
const MemoryExport = "memory"

var (
	ErrClosed            = errors.New("executor closed")
	ErrStartFunction     = errors.New("module has a start function")
	ErrMemoryNotExported = errors.New("module does not export memory")
	ErrUnsupportedImport = errors.New("unsupported import")
	ErrSignatureMismatch = errors.New("signature mismatch")
	ErrExportNotFound    = errors.New("export not found")
	ErrMultipleResults   = errors.New("multiple results not supported")
	ErrInstanceClosed    = errors.New("instance closed")
)

// Executor loads modules against a host. Each loaded module gets its own
// wazero runtime; compiled code is shared through the compilation cache.
type Executor struct {
	host   hostfunc.Host
	cache  wazero.CompilationCache
	cfg    executorConfig
	logger *zap.Logger
	mu     sync.RWMutex
	closed bool
}

// New creates an Executor that links modules against host.
func New(host hostfunc.Host, opts ...Option) (*Executor, error) {
	cfg := defaultExecutorConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	var cache wazero.CompilationCache
	if cfg.diskCache {
		cacheDir := cfg.cacheDir
		if cacheDir == "" {
			cacheDir = defaultCacheDir()
		}
		var err error
		cache, err = wazero.NewCompilationCacheWithDir(cacheDir)
		if err != nil {
			return nil, fmt.Errorf("create disk cache: %w", err)
		}
	} else {
		cache = wazero.NewCompilationCache()
	}

	return &Executor{
		host:   host,
		cache:  cache,
		cfg:    cfg,
		logger: cfg.logger,
	}, nil
}

// Load compiles, links and instantiates the module binary bin. The module must export its
// memory as "memory", must not have a start function, and may only import
// functions from the env namespace that the host resolves with a matching
// signature. On error nothing from the module stays instantiated.
func (e *Executor) Load(ctx context.Context, bin []byte) (*Instance, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if e.closed {
		return nil, ErrClosed
	}

	rtConfig := wazero.NewRuntimeConfig().WithCompilationCache(e.cache)
	if e.cfg.memoryLimitPages > 0 {
		rtConfig = rtConfig.WithMemoryLimitPages(e.cfg.memoryLimitPages)
	}
	rt := wazero.NewRuntimeWithConfig(ctx, rtConfig)

	mod, err := e.instantiate(ctx, rt, bin)
	if err != nil {
		rt.Close(ctx)
		return nil, err
	}

	mem := mod.ExportedMemory(MemoryExport)
	e.logger.Debug("module loaded",
		zap.Int("bytes", len(bin)),
		zap.Uint32("memory_size", mem.Size()))

	return &Instance{
		runtime: rt,
		module:  mod,
		memory:  memory.New(mem),
		logger:  e.logger,
	}, nil
}

func (e *Executor) instantiate(ctx context.Context, rt wazero.Runtime, bin []byte) (api.Module, error) {
	compiled, err := rt.CompileModule(ctx, bin)
	if err != nil {
		return nil, fmt.Errorf("compile module: %w", err)
	}

	// wazero runs start functions on instantiation but does not report them
	// on a compiled module.
	parsed, err := wasm.ParseModule(bin)
	if err != nil {
		return nil, fmt.Errorf("parse module: %w", err)
	}
	if parsed.Start != nil {
		return nil, fmt.Errorf("%w: function %d", ErrStartFunction, *parsed.Start)
	}

	if _, ok := compiled.ExportedMemories()[MemoryExport]; !ok {
		return nil, fmt.Errorf("%w: expected export %q", ErrMemoryNotExported, MemoryExport)
	}
	for _, m := range compiled.ImportedMemories() {
		mod, name, _ := m.Import()
		return nil, fmt.Errorf("%w: memory %s.%s", ErrUnsupportedImport, mod, name)
	}

	refs, err := e.resolveImports(compiled)
	if err != nil {
		return nil, err
	}
	if len(refs) > 0 {
		if err := e.instantiateHost(ctx, rt, refs); err != nil {
			return nil, fmt.Errorf("instantiate %s: %w", hostfunc.Namespace, err)
		}
	}

	// Start functions stay off: modules are called export by export.
	moduleConfig := wazero.NewModuleConfig().
		WithName("").
		WithStartFunctions()
	mod, err := rt.InstantiateModule(ctx, compiled, moduleConfig)
	if err != nil {
		return nil, fmt.Errorf("instantiate module: %w", err)
	}
	return mod, nil
}

// resolveImports asks the host for every function import and checks the
// declared signature against the one the host provides.
func (e *Executor) resolveImports(compiled wazero.CompiledModule) ([]hostfunc.FuncRef, error) {
	var refs []hostfunc.FuncRef
	for _, def := range compiled.ImportedFunctions() {
		mod, name, _ := def.Import()
		if mod != hostfunc.Namespace {
			return nil, fmt.Errorf("%w: function %s.%s", ErrUnsupportedImport, mod, name)
		}

		ref, err := e.host.Resolve(name)
		if err != nil {
			return nil, fmt.Errorf("resolve %s.%s: %w", mod, name, err)
		}

		declared, err := hostfunc.SignatureOf(def.ParamTypes(), def.ResultTypes())
		if err != nil {
			return nil, fmt.Errorf("resolve %s.%s: %w", mod, name, err)
		}
		if !declared.Equal(ref.Signature) {
			return nil, fmt.Errorf("%w: %s.%s declared %s, host provides %s",
				ErrSignatureMismatch, mod, name, declared, ref.Signature)
		}

		e.logger.Debug("import resolved",
			zap.String("name", name),
			zap.Uint32("index", uint32(ref.Index)))
		refs = append(refs, ref)
	}
	return refs, nil
}

// instantiateHost exports exactly the resolved functions from the env
// module. Each one carries its dispatch index into the host.
func (e *Executor) instantiateHost(ctx context.Context, rt wazero.Runtime, refs []hostfunc.FuncRef) error {
	builder := rt.NewHostModuleBuilder(hostfunc.Namespace)
	for _, ref := range refs {
		builder.NewFunctionBuilder().
			WithGoModuleFunction(e.bridge(ref), ref.Signature.ParamTypes(), ref.Signature.ResultTypes()).
			WithName(ref.Name).
			Export(ref.Name)
	}
	_, err := builder.Instantiate(ctx)
	return err
}

// bridge adapts the wazero stack calling convention to Dispatcher.Invoke.
// A host error or panic surfaces as a trap from the guest call.
func (e *Executor) bridge(ref hostfunc.FuncRef) api.GoModuleFunc {
	params := ref.Signature.Params
	results := ref.Signature.Results
	return func(ctx context.Context, mod api.Module, stack []uint64) {
		args := make([]value.Value, len(params))
		for i, k := range params {
			args[i] = value.FromRaw(k, stack[i])
		}

		res, err := e.host.Invoke(ctx, memory.New(mod.Memory()), ref.Index, args)
		if err != nil {
			panic(fmt.Errorf("host function %s: %w", ref.Name, err))
		}

		if len(results) == 1 {
			if res.Kind() != results[0] {
				panic(fmt.Sprintf("host function %s returned %s, declared %s", ref.Name, res.Kind(), results[0]))
			}
			stack[0] = res.Raw()
		}
	}
}

// Close releases the compilation cache. Close every Instance first; their
// runtimes share the cache.
func (e *Executor) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return nil
	}
	e.closed = true
	return e.cache.Close(context.Background())
}

func defaultCacheDir() string {
	if dir := os.Getenv("XDG_CACHE_HOME"); dir != "" {
		return filepath.Join(dir, "wasmbridge")
	}
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, ".cache", "wasmbridge")
	}
	return filepath.Join(os.TempDir(), "wasmbridge-cache")
}
