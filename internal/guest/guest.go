// Package guest builds the demo guest module used by tests, benchmarks
// and the mkguest tool.
//
// The demo module imports env.multiply and env.state_add, exports one page
// of memory as "memory", and exports:
//
//	add(a, b i32) i32           a + b
//	count_str(ptr, len i32) i32 len
//	return_str() i32            offset of "hello from webassembly\0"
//	calc_host(a i32) i32        multiply(a, a+a)
//	host_state_add(h i32)       state_add(h, 5)
package guest

import (
	"fmt"
	"strings"

	"github.com/tetratelabs/wazero/api"
	"github.com/wippyai/wasm-runtime/wat"
)

// Greeting is the string return_str points at.
const Greeting = "hello from webassembly"

// GreetingOffset is where the data segment places Greeting.
const GreetingOffset = 1024

// Import describes a function import.
type Import struct {
	Module  string
	Name    string
	Params  []api.ValueType
	Results []api.ValueType
}

// Calls go through $multiply and $state_add, so extra imports never shift
// the functions the exports use.
const demoHeader = `
	(import "env" "multiply" (func $multiply (param i32 i32) (result i32)))
	(import "env" "state_add" (func $state_add (param i32 i32)))`

const demoFuncs = `
	(func (export "add") (param i32 i32) (result i32)
		local.get 0
		local.get 1
		i32.add)
	(func (export "count_str") (param i32 i32) (result i32)
		local.get 1)
	(func (export "return_str") (result i32)
		i32.const %d)
	(func (export "calc_host") (param i32) (result i32)
		local.get 0
		local.get 0
		local.get 0
		i32.add
		call $multiply)
	(func (export "host_state_add") (param i32)
		local.get 0
		i32.const 5
		call $state_add)`

type module struct {
	header       string
	imports      []Import
	funcs        string
	data         string
	exportMemory bool
	start        bool
}

// Option adjusts the demo module.
type Option func(*module)

// WithImport appends an extra function import after the env imports.
func WithImport(imp Import) Option {
	return func(m *module) {
		m.imports = append(m.imports, imp)
	}
}

// WithoutMemoryExport keeps the memory but does not export it.
func WithoutMemoryExport() Option {
	return func(m *module) {
		m.exportMemory = false
	}
}

// WithStartFunction adds an empty function and names it in the start
// section.
func WithStartFunction() Option {
	return func(m *module) {
		m.start = true
	}
}

// Demo returns the binary of the demo guest module.
func Demo(opts ...Option) []byte {
	m := &module{
		header:       demoHeader,
		funcs:        fmt.Sprintf(demoFuncs, GreetingOffset),
		data:         fmt.Sprintf(`(data (i32.const %d) "%s\00")`, GreetingOffset, Greeting),
		exportMemory: true,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m.compile()
}

// Imports returns a module that only declares the given function imports
// and exports a page of memory. Useful for exercising import resolution
// without any code depending on the imports' types.
func Imports(imports ...Import) []byte {
	m := &module{imports: imports, exportMemory: true}
	return m.compile()
}

// source renders the module in text format.
func (m *module) source() string {
	var b strings.Builder
	b.WriteString("(module")
	b.WriteString(m.header)
	for _, imp := range m.imports {
		fmt.Fprintf(&b, "\n\t(import %q %q (func%s))", imp.Module, imp.Name, signature(imp.Params, imp.Results))
	}
	b.WriteString("\n\t(memory 1)")
	if m.exportMemory {
		b.WriteString("\n\t(export \"memory\" (memory 0))")
	}
	if m.data != "" {
		b.WriteString("\n\t" + m.data)
	}
	b.WriteString(m.funcs)
	if m.start {
		b.WriteString("\n\t(func $init)\n\t(start $init)")
	}
	b.WriteString("\n)")
	return b.String()
}

func (m *module) compile() []byte {
	src := m.source()
	bin, err := wat.Compile(src)
	if err != nil {
		panic(fmt.Sprintf("guest: compile demo module: %v\n%s", err, src))
	}
	return bin
}

func signature(params, results []api.ValueType) string {
	var b strings.Builder
	if len(params) > 0 {
		b.WriteString(" (param")
		for _, t := range params {
			b.WriteString(" " + api.ValueTypeName(t))
		}
		b.WriteString(")")
	}
	if len(results) > 0 {
		b.WriteString(" (result")
		for _, t := range results {
			b.WriteString(" " + api.ValueTypeName(t))
		}
		b.WriteString(")")
	}
	return b.String()
}
