// Package wasm implements the runtime data model and execution-adjacent
// machinery described in spec.md §3-4: value/type model (A), instance
// objects (B), the Store (C), and the Instantiator (G). The instruction
// interpreter itself lives in internal/engine/interpreter; this package is
// its substrate.
//
// Grounded on tetratelabs/wazero's internal/wasm package — only its test
// files survived retrieval, so the exported shapes here satisfy those
// observed contracts (module_instance_test.go, store_test.go, global_test.go,
// memory_test.go, table_test.go, host_test.go, function_definition_test.go)
// while following spec.md §3-4 for exact semantics.
package wasm

import (
	"fmt"

	"github.com/wasmedge-go/core/api"
)

// ValueType aliases api.ValueType for package-internal numeric/vector/funcref
// markers that aren't part of the public API (e.g. ValueTypeFuncref).
type ValueType = api.ValueType

const (
	ValueTypeI32       = api.ValueTypeI32
	ValueTypeI64       = api.ValueTypeI64
	ValueTypeF32       = api.ValueTypeF32
	ValueTypeF64       = api.ValueTypeF64
	ValueTypeV128      = api.ValueTypeV128
	ValueTypeFuncref   = api.ValueTypeFuncref
	ValueTypeExternref = api.ValueTypeExternref
	// ValueTypeRef is the generic marker for a "ref $idx"/"ref null $idx"
	// concrete type; HeapType+TypeIndex on ValType disambiguate further.
	ValueTypeRef ValueType = 0x64
)

// HeapType mirrors api.HeapType for internal bookkeeping.
type HeapType = api.HeapType

const (
	HeapTypeFunc       = api.HeapTypeFunc
	HeapTypeExtern     = api.HeapTypeExtern
	HeapTypeAny        = api.HeapTypeAny
	HeapTypeEq         = api.HeapTypeEq
	HeapTypeI31        = api.HeapTypeI31
	HeapTypeStruct     = api.HeapTypeStruct
	HeapTypeArray      = api.HeapTypeArray
	HeapTypeNone       = api.HeapTypeNone
	HeapTypeNoExtern   = api.HeapTypeNoExtern
	HeapTypeNoFunc     = api.HeapTypeNoFunc
	HeapTypeNoExn      = api.HeapTypeNoExn
	HeapTypeConcrete   = api.HeapTypeConcrete
)

// ValType is a fully described Wasm value type: a numeric/vector type, or a
// `ref null? H` reference type where H is one of the abstract heap types or
// a concrete type index (spec.md §3.1).
type ValType struct {
	// Numeric is one of ValueTypeI32/I64/F32/F64/V128, or zero when this is
	// a reference type (Numeric and IsRef are mutually exclusive).
	Numeric ValueType
	// IsRef is true when this ValType is `ref null? H`.
	IsRef bool
	// Nullable is only meaningful when IsRef.
	Nullable bool
	// Heap classifies the reference; when Heap == HeapTypeConcrete, TypeIndex
	// names the defining module's type-section entry.
	Heap      HeapType
	TypeIndex uint32
}

// I32/I64/F32/F64/V128 are the numeric ValTypes.
var (
	I32  = ValType{Numeric: ValueTypeI32}
	I64  = ValType{Numeric: ValueTypeI64}
	F32  = ValType{Numeric: ValueTypeF32}
	F64  = ValType{Numeric: ValueTypeF64}
	V128 = ValType{Numeric: ValueTypeV128}

	// FuncRef and ExternRef are the Wasm-1.0-baseline nullable reference
	// types.
	FuncRef   = ValType{IsRef: true, Nullable: true, Heap: HeapTypeFunc}
	ExternRef = ValType{IsRef: true, Nullable: true, Heap: HeapTypeExtern}
)

// RefNull constructs `ref null H`.
func RefNull(h HeapType) ValType { return ValType{IsRef: true, Nullable: true, Heap: h} }

// RefConcrete constructs `ref null? $idx`.
func RefConcrete(idx uint32, nullable bool) ValType {
	return ValType{IsRef: true, Nullable: nullable, Heap: HeapTypeConcrete, TypeIndex: idx}
}

func (t ValType) String() string {
	if !t.IsRef {
		return api.ValueTypeName(t.Numeric)
	}
	null := ""
	if t.Nullable {
		null = "null "
	}
	if t.Heap == HeapTypeConcrete {
		return fmt.Sprintf("(ref %s%d)", null, t.TypeIndex)
	}
	return fmt.Sprintf("(ref %s%s)", null, t.Heap.String())
}

// IsNumeric reports whether t is a scalar or vector numeric type (not a
// reference).
func (t ValType) IsNumeric() bool { return !t.IsRef }

// ErrMalformedValType is returned by type construction when an unsupported
// code appears for the currently negotiated proposal set (spec.md §4.1).
var ErrMalformedValType = fmt.Errorf("malformed value type")

// ErrMalformedRefType is returned constructing `ref null? idx` when
// function-references is disabled and idx is not func/extern (spec.md §4.1).
var ErrMalformedRefType = fmt.Errorf("malformed reference type")

// DefaultValue returns the zero value for t: 0 for numerics, the all-zero
// v128 lane set, and a null reference for reference types.
func (t ValType) DefaultValue() Value {
	if t.IsRef {
		return Value{RefType: t, IsNull: true}
	}
	switch t.Numeric {
	case ValueTypeV128:
		return Value{Lo: 0, Hi: 0, IsV128: true}
	default:
		return Value{Lo: 0}
	}
}

// Value is the tagged union described in spec.md §3.1: a 32/64-bit int,
// 32/64-bit float (stored bit-for-bit in Lo), a 128-bit vector (Lo/Hi), or a
// reference variant (null, func, extern, i31, or GC heap pointer).
type Value struct {
	// Lo holds i32/i64/f32/f64 bit patterns, or the low 64 bits of a v128.
	Lo uint64
	// Hi holds the high 64 bits of a v128; unused otherwise.
	Hi uint64
	// IsV128 marks Lo/Hi as a vector value.
	IsV128 bool

	// The following fields are populated only when RefType.IsRef.
	RefType ValType
	IsNull  bool
	// FuncRef points at the defining module's *FunctionInstance via an
	// opaque handle (function.go keeps the concrete type out of this
	// package-internal union to avoid an import cycle with the engine).
	FuncRef interface{}
	// ExternRef is an opaque host-supplied handle.
	ExternRef uintptr
	// I31 holds a 31-bit immediate (i31ref), sign-extended into an int32.
	I31 int32
	// Heap points at a GC object (struct/array ref). nil when not GC.
	Heap interface{}
}

// IsReference reports whether v carries a reference-typed payload.
func (v Value) IsReference() bool { return v.RefType.IsRef }
