package wasm

import "reflect"

// FunctionInstance is a function in the index space of some ModuleInstance
// (spec.md §3.3). It carries either a Wasm body (Locals+Body) or a host
// callback (GoFunc), matching §6.3's compiled-function interface: the
// interpreter dispatches identically whichever is present.
type FunctionInstance struct {
	// Module is a weak reference to the defining module instance, so module-
	// relative index resolution (globals, other functions, tables) works
	// without keeping the module alive past its own lifetime (spec.md §3.3
	// ownership rules).
	Module *ModuleInstance
	// Idx is this function's position in Module's function index space.
	Idx uint32

	Type *FunctionType

	// IsHostFunction is true when this instance wraps a native Go callback
	// instead of interpreted Wasm code.
	IsHostFunction bool

	// The following apply only when !IsHostFunction.
	LocalTypes []ValueType
	Body       []Instruction

	// The following apply only when IsHostFunction.
	GoFunc *reflect.Value
	// Cost is an optional per-call gas charge in addition to whatever the
	// Wasm-side call instruction costs (spec.md §4.10, Code.GoFunc).
	Cost uint64

	DebugName string
}

// Instruction is defined in instr.go; FunctionInstance.Body is a flat,
// already-resolved instruction stream (branch targets are PC offsets),
// matching the "tagged sum type, single dispatch match" re-architecture
// spec.md §9 calls for instead of the teacher's two-stage wazeroir lowering.
