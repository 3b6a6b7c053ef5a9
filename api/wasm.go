// Package api includes constants and interfaces used by both end-users and
// internal implementations of the execution engine.
package api

import (
	"context"
	"fmt"
	"math"
)

// ExternType classifies imports and exports with their respective types.
//
// See https://webassembly.github.io/spec/core/syntax/types.html#external-types
type ExternType = byte

const (
	ExternTypeFunc   ExternType = 0x00
	ExternTypeTable  ExternType = 0x01
	ExternTypeMemory ExternType = 0x02
	ExternTypeGlobal ExternType = 0x03
	ExternTypeTag    ExternType = 0x04
)

const (
	ExternTypeFuncName   = "func"
	ExternTypeTableName  = "table"
	ExternTypeMemoryName = "memory"
	ExternTypeGlobalName = "global"
	ExternTypeTagName    = "tag"
)

// ExternTypeName returns the textual name of an ExternType.
func ExternTypeName(et ExternType) string {
	switch et {
	case ExternTypeFunc:
		return ExternTypeFuncName
	case ExternTypeTable:
		return ExternTypeTableName
	case ExternTypeMemory:
		return ExternTypeMemoryName
	case ExternTypeGlobal:
		return ExternTypeGlobalName
	case ExternTypeTag:
		return ExternTypeTagName
	}
	return fmt.Sprintf("%#x", et)
}

// ValueType is a numeric value type as used on the operand stack. Reference
// and vector values are represented with HeapType/ValueTypeV128 below; all
// are encoded as the single byte used in the Wasm binary format so that the
// Loader's decoded bytes can be used directly.
type ValueType = byte

const (
	ValueTypeI32 ValueType = 0x7f
	ValueTypeI64 ValueType = 0x7e
	ValueTypeF32 ValueType = 0x7d
	ValueTypeF64 ValueType = 0x7c
	ValueTypeV128 ValueType = 0x7b

	// ValueTypeFuncref is `ref null func`.
	ValueTypeFuncref ValueType = 0x70
	// ValueTypeExternref is `ref null extern`.
	ValueTypeExternref ValueType = 0x6f
)

// HeapType discriminates the reference-type family of a ref value type. Only
// meaningful when a ValueType denotes a reference (func/extern/any/...).
type HeapType byte

const (
	HeapTypeFunc HeapType = iota
	HeapTypeExtern
	HeapTypeAny
	HeapTypeEq
	HeapTypeI31
	HeapTypeStruct
	HeapTypeArray
	HeapTypeNone
	HeapTypeNoExtern
	HeapTypeNoFunc
	HeapTypeNoExn
	// HeapTypeConcrete means the reference is typed by a concrete type index
	// (struct/array/func defined in a module's type section) rather than one
	// of the abstract heap types above.
	HeapTypeConcrete
)

func (h HeapType) String() string {
	switch h {
	case HeapTypeFunc:
		return "func"
	case HeapTypeExtern:
		return "extern"
	case HeapTypeAny:
		return "any"
	case HeapTypeEq:
		return "eq"
	case HeapTypeI31:
		return "i31"
	case HeapTypeStruct:
		return "struct"
	case HeapTypeArray:
		return "array"
	case HeapTypeNone:
		return "none"
	case HeapTypeNoExtern:
		return "noextern"
	case HeapTypeNoFunc:
		return "nofunc"
	case HeapTypeNoExn:
		return "noexn"
	case HeapTypeConcrete:
		return "concrete"
	}
	return "unknown"
}

// ValueTypeName returns the textual name of a numeric ValueType, matching
// the Wasm text format.
func ValueTypeName(t ValueType) string {
	switch t {
	case ValueTypeI32:
		return "i32"
	case ValueTypeI64:
		return "i64"
	case ValueTypeF32:
		return "f32"
	case ValueTypeF64:
		return "f64"
	case ValueTypeV128:
		return "v128"
	case ValueTypeFuncref:
		return "funcref"
	case ValueTypeExternref:
		return "externref"
	}
	return "unknown"
}

// Module is a live, instantiated module: the handle end-users and host
// functions use to reach exported state.
//
// Note: This is an interface for decoupling, not third-party implementation.
type Module interface {
	fmt.Stringer

	// Name is the name this module was instantiated with.
	Name() string

	// Memory returns the first memory defined or imported in this module, or
	// nil if there is none.
	Memory() Memory

	// ExportedFunction returns a function exported from this module, or nil.
	ExportedFunction(name string) Function

	// ExportedMemory returns a memory exported from this module, or nil.
	ExportedMemory(name string) Memory

	// ExportedGlobal returns a global exported from this module, or nil.
	ExportedGlobal(name string) Global

	// CloseWithExitCode releases resources owned by this module. A non-zero
	// exitCode surfaces as a sys.ExitError to any caller blocked inside an
	// ExportedFunction call.
	CloseWithExitCode(ctx context.Context, exitCode uint32) error

	Closer
}

// Closer closes a resource.
type Closer interface {
	Close(context.Context) error
}

// Function is an invocable WebAssembly function, either Wasm-defined or a
// host callback exposed through the same ABI.
type Function interface {
	// Definition describes the function's static signature and identity.
	Definition() FunctionDefinition

	// Call invokes the function. Parameters and results are uint64-encoded
	// per ValueType (see Encode*/Decode* below). An error is returned for
	// any trap, including signature mismatch at the call site.
	Call(ctx context.Context, params ...uint64) ([]uint64, error)
}

// FunctionDefinition is static metadata about an exported or imported
// function, independent of any particular instantiation.
type FunctionDefinition interface {
	ModuleName() string
	Index() uint32
	Name() string
	DebugName() string
	Import() (moduleName, name string, isImport bool)
	ExportNames() []string
	ParamTypes() []ValueType
	ResultTypes() []ValueType
}

// Global is an exported WebAssembly global.
type Global interface {
	fmt.Stringer

	Type() ValueType
	Get(context.Context) uint64
}

// MutableGlobal is a Global whose value may be updated (`mut`).
type MutableGlobal interface {
	Global
	Set(ctx context.Context, v uint64)
}

// Memory is restricted access to a module's linear memory. It does not
// permit growth from outside the engine's bounds-checked API.
type Memory interface {
	Size(context.Context) uint32
	Grow(ctx context.Context, deltaPages uint32) (previousPages uint32, ok bool)

	ReadByte(ctx context.Context, offset uint32) (byte, bool)
	ReadUint16Le(ctx context.Context, offset uint32) (uint16, bool)
	ReadUint32Le(ctx context.Context, offset uint32) (uint32, bool)
	ReadUint64Le(ctx context.Context, offset uint32) (uint64, bool)
	ReadFloat32Le(ctx context.Context, offset uint32) (float32, bool)
	ReadFloat64Le(ctx context.Context, offset uint32) (float64, bool)
	Read(ctx context.Context, offset, byteCount uint32) ([]byte, bool)

	WriteByte(ctx context.Context, offset uint32, v byte) bool
	WriteUint16Le(ctx context.Context, offset uint32, v uint16) bool
	WriteUint32Le(ctx context.Context, offset, v uint32) bool
	WriteUint64Le(ctx context.Context, offset uint32, v uint64) bool
	WriteFloat32Le(ctx context.Context, offset uint32, v float32) bool
	WriteFloat64Le(ctx context.Context, offset uint32, v float64) bool
	Write(ctx context.Context, offset uint32, v []byte) bool
}

// EncodeExternref/DecodeExternref convert an opaque host pointer to/from the
// uint64 representation used on the operand stack.
func EncodeExternref(input uintptr) uint64 { return uint64(input) }
func DecodeExternref(input uint64) uintptr { return uintptr(input) }

func EncodeI32(input int32) uint64 { return uint64(uint32(input)) }
func EncodeI64(input int64) uint64 { return uint64(input) }

func EncodeF32(input float32) uint64 { return uint64(math.Float32bits(input)) }
func DecodeF32(input uint64) float32 { return math.Float32frombits(uint32(input)) }

func EncodeF64(input float64) uint64 { return math.Float64bits(input) }
func DecodeF64(input uint64) float64 { return math.Float64frombits(input) }

// MemorySizer determines min/capacity/max pages (65536 bytes/page) to use
// when a memory is instantiated, applied after decoding but before
// instantiation.
type MemorySizer func(minPages uint32, maxPages *uint32) (min, capacity, max uint32)
