package guest

import (
	"bytes"
	"context"
	"sort"
	"strings"
	"testing"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"
	"github.com/wippyai/wasm-runtime/wasm"
)

func compile(t *testing.T, wasm []byte) wazero.CompiledModule {
	t.Helper()
	ctx := context.Background()
	rt := wazero.NewRuntime(ctx)
	t.Cleanup(func() { rt.Close(ctx) })

	compiled, err := rt.CompileModule(ctx, wasm)
	if err != nil {
		t.Fatalf("failed to compile: %v", err)
	}
	return compiled
}

func TestDemoCompiles(t *testing.T) {
	compiled := compile(t, Demo())

	var names []string
	for name := range compiled.ExportedFunctions() {
		names = append(names, name)
	}
	sort.Strings(names)
	want := "add,calc_host,count_str,host_state_add,return_str"
	if got := strings.Join(names, ","); got != want {
		t.Errorf("expected exports %s, got %s", want, got)
	}

	if _, ok := compiled.ExportedMemories()["memory"]; !ok {
		t.Error("expected memory export")
	}

	imports := compiled.ImportedFunctions()
	if len(imports) != 2 {
		t.Fatalf("expected 2 imports, got %d", len(imports))
	}
	for i, want := range []string{"multiply", "state_add"} {
		mod, name, ok := imports[i].Import()
		if !ok || mod != "env" || name != want {
			t.Errorf("import %d: expected env.%s, got %s.%s", i, want, mod, name)
		}
	}
}

func TestDemoOptions(t *testing.T) {
	compiled := compile(t, Demo(
		WithoutMemoryExport(),
		WithStartFunction(),
		WithImport(Import{Module: "env", Name: "divide", Params: []api.ValueType{api.ValueTypeI32}}),
	))

	if _, ok := compiled.ExportedMemories()["memory"]; ok {
		t.Error("memory should not be exported")
	}
	if n := len(compiled.ImportedFunctions()); n != 3 {
		t.Errorf("expected 3 imports, got %d", n)
	}

	// Two imports and five exports precede the start function.
	parsed, err := wasm.ParseModule(Demo(WithStartFunction()))
	if err != nil {
		t.Fatalf("failed to parse: %v", err)
	}
	if parsed.Start == nil || *parsed.Start != 7 {
		t.Errorf("expected start function 7, got %v", parsed.Start)
	}
}

func TestImportsOnly(t *testing.T) {
	compiled := compile(t, Imports(Import{Module: "env", Name: "multiply", Params: []api.ValueType{api.ValueTypeI64}}))

	if len(compiled.ExportedFunctions()) != 0 {
		t.Error("expected no exported functions")
	}
	fn := compiled.ImportedFunctions()[0]
	if got := fn.ParamTypes(); len(got) != 1 || got[0] != api.ValueTypeI64 {
		t.Errorf("unexpected param types %v", got)
	}
}

func TestDemoDataSegment(t *testing.T) {
	parsed, err := wasm.ParseModule(Demo())
	if err != nil {
		t.Fatalf("failed to parse: %v", err)
	}
	if parsed.Start != nil {
		t.Error("demo module must not have a start function")
	}
	if len(parsed.Data) != 1 {
		t.Fatalf("expected one data segment, got %d", len(parsed.Data))
	}
	want := append([]byte(Greeting), 0)
	if got := parsed.Data[0].Init; !bytes.Equal(got, want) {
		t.Errorf("expected greeting with terminator, got %q", got)
	}
}

func TestDemoGreetingInMemory(t *testing.T) {
	ctx := context.Background()
	rt := wazero.NewRuntime(ctx)
	defer rt.Close(ctx)

	_, err := rt.NewHostModuleBuilder("env").
		NewFunctionBuilder().
		WithFunc(func(a, b int32) int32 { return a * b }).
		Export("multiply").
		NewFunctionBuilder().
		WithFunc(func(h, delta int32) {}).
		Export("state_add").
		Instantiate(ctx)
	if err != nil {
		t.Fatalf("failed to instantiate env: %v", err)
	}
	mod, err := rt.Instantiate(ctx, Demo())
	if err != nil {
		t.Fatalf("failed to instantiate demo: %v", err)
	}

	got, ok := mod.Memory().Read(GreetingOffset, uint32(len(Greeting)+1))
	if !ok || string(got) != Greeting+"\x00" {
		t.Errorf("expected greeting at %d, got %q", GreetingOffset, got)
	}
}
