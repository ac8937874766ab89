package value

import (
	"fmt"
	"strconv"

	"github.com/tetratelabs/wazero/api"
)

// Kind is the tag of a Value.
type Kind uint8

const (
	KindNone Kind = iota
	KindI32
	KindI64
	KindF32
	KindF64
)

func (k Kind) String() string {
	switch k {
	case KindNone:
		return "none"
	case KindI32:
		return "i32"
	case KindI64:
		return "i64"
	case KindF32:
		return "f32"
	case KindF64:
		return "f64"
	default:
		return "kind(" + strconv.Itoa(int(k)) + ")"
	}
}

// ValueType returns the wazero value type for k. KindNone has no value type
// and panics.
func (k Kind) ValueType() api.ValueType {
	switch k {
	case KindI32:
		return api.ValueTypeI32
	case KindI64:
		return api.ValueTypeI64
	case KindF32:
		return api.ValueTypeF32
	case KindF64:
		return api.ValueTypeF64
	default:
		panic(fmt.Sprintf("value: %s has no wasm value type", k))
	}
}

// KindOf maps a wazero value type to a Kind.
func KindOf(t api.ValueType) (Kind, error) {
	switch t {
	case api.ValueTypeI32:
		return KindI32, nil
	case api.ValueTypeI64:
		return KindI64, nil
	case api.ValueTypeF32:
		return KindF32, nil
	case api.ValueTypeF64:
		return KindF64, nil
	default:
		return KindNone, fmt.Errorf("value: unsupported value type %s", api.ValueTypeName(t))
	}
}

// Value is a typed value passed across the boundary. Values are comparable
// with ==.
type Value struct {
	kind Kind
	bits uint64
}

// None is the absent value.
var None Value

func I32(v int32) Value   { return Value{kind: KindI32, bits: api.EncodeI32(v)} }
func I64(v int64) Value   { return Value{kind: KindI64, bits: api.EncodeI64(v)} }
func F32(v float32) Value { return Value{kind: KindF32, bits: api.EncodeF32(v)} }
func F64(v float64) Value { return Value{kind: KindF64, bits: api.EncodeF64(v)} }

func (v Value) Kind() Kind   { return v.kind }
func (v Value) IsNone() bool { return v.kind == KindNone }

// FromRaw rebuilds a Value from wazero's uint64 stack encoding.
func FromRaw(k Kind, raw uint64) Value {
	switch k {
	case KindI32, KindF32:
		raw = uint64(uint32(raw))
	case KindNone:
		raw = 0
	}
	return Value{kind: k, bits: raw}
}

// Raw returns the value in wazero's uint64 stack encoding.
func (v Value) Raw() uint64 { return v.bits }

// I32 returns the payload of an i32 value. It panics if v is not an i32.
func (v Value) I32() int32 {
	v.must(KindI32)
	return api.DecodeI32(v.bits)
}

func (v Value) I64() int64 {
	v.must(KindI64)
	return int64(v.bits)
}

func (v Value) F32() float32 {
	v.must(KindF32)
	return api.DecodeF32(v.bits)
}

func (v Value) F64() float64 {
	v.must(KindF64)
	return api.DecodeF64(v.bits)
}

func (v Value) must(k Kind) {
	if v.kind != k {
		panic(fmt.Sprintf("value: %s accessed as %s", v.kind, k))
	}
}

// String formats the payload alone, e.g. "9", or "none" for None.
func (v Value) String() string {
	switch v.kind {
	case KindI32:
		return strconv.FormatInt(int64(v.I32()), 10)
	case KindI64:
		return strconv.FormatInt(v.I64(), 10)
	case KindF32:
		return strconv.FormatFloat(float64(v.F32()), 'g', -1, 32)
	case KindF64:
		return strconv.FormatFloat(v.F64(), 'g', -1, 64)
	default:
		return "none"
	}
}
