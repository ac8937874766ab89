package hostfunc

import (
	"strings"

	"github.com/tetratelabs/wazero/api"

	"github.com/caffeineduck/wasmbridge/value"
)

// Index is the dispatch index of a host function. Indices are assigned
// densely in registration order and never reused within a Registry.
type Index uint32

// Signature is the parameter and result kinds of a host function.
type Signature struct {
	Params  []value.Kind
	Results []value.Kind
}

// Sig builds a Signature from its parameter kinds and result kinds.
func Sig(params []value.Kind, results ...value.Kind) Signature {
	return Signature{Params: params, Results: results}
}

// Equal reports whether s and o have identical kinds in the same order.
func (s Signature) Equal(o Signature) bool {
	return kindsEqual(s.Params, o.Params) && kindsEqual(s.Results, o.Results)
}

func kindsEqual(a, b []value.Kind) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// ParamTypes returns the wazero value types of the parameters.
func (s Signature) ParamTypes() []api.ValueType { return valueTypes(s.Params) }

// ResultTypes returns the wazero value types of the results.
func (s Signature) ResultTypes() []api.ValueType { return valueTypes(s.Results) }

func valueTypes(kinds []value.Kind) []api.ValueType {
	out := make([]api.ValueType, len(kinds))
	for i, k := range kinds {
		out[i] = k.ValueType()
	}
	return out
}

// SignatureOf converts wazero value types into a Signature.
func SignatureOf(params, results []api.ValueType) (Signature, error) {
	var sig Signature
	for _, t := range params {
		k, err := value.KindOf(t)
		if err != nil {
			return Signature{}, err
		}
		sig.Params = append(sig.Params, k)
	}
	for _, t := range results {
		k, err := value.KindOf(t)
		if err != nil {
			return Signature{}, err
		}
		sig.Results = append(sig.Results, k)
	}
	return sig, nil
}

// String formats s as "(i32, i32) -> i32", or "(i32) -> ()" with no results.
func (s Signature) String() string {
	var b strings.Builder
	b.WriteByte('(')
	writeKinds(&b, s.Params)
	b.WriteString(") -> ")
	if len(s.Results) == 1 {
		b.WriteString(s.Results[0].String())
		return b.String()
	}
	b.WriteByte('(')
	writeKinds(&b, s.Results)
	b.WriteByte(')')
	return b.String()
}

func writeKinds(b *strings.Builder, kinds []value.Kind) {
	for i, k := range kinds {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(k.String())
	}
}

// FuncRef is what a Resolver hands back for an import: the signature the
// guest must declare and the index calls are dispatched by.
type FuncRef struct {
	Name      string
	Signature Signature
	Index     Index
}
