// Package features implements the proposal-gating mechanism described in
// spec.md §6.5: a bitset of post-2.0 Wasm proposals that can be toggled per
// Engine. The interpreter stores the Set but does not consult it during
// opcode dispatch: an opcode of a disabled proposal executes like any other,
// and no opcode traps IllegalOpCode because its proposal is off.
package features

import "strings"

// Set is a bitset of Proposal flags, modeled on the iota bit-flag style used
// for scoped logging elsewhere in the ecosystem (e.g. a LogScopes bitmask).
type Set uint32

const (
	// TailCall enables return_call / return_call_indirect / return_call_ref.
	TailCall Set = 1 << iota
	// ExtendedConst allows more instructions in global/element/data offset
	// init expressions (extended-const proposal).
	ExtendedConst
	// FunctionReferences enables typed `ref null? $t` / `ref $t` value types,
	// call_ref, ref.as_non_null.
	FunctionReferences
	// GC enables struct/array/i31 types and their instructions.
	GC
	// MultiMemory allows more than one memory per module and memory-indexed
	// memory instructions.
	MultiMemory
	// RelaxedSIMD enables the relaxed-SIMD instruction subset.
	RelaxedSIMD
	// ExceptionHandling enables tag/try/catch/throw/rethrow.
	ExceptionHandling
	// Threads enables shared memories and atomic instructions.
	Threads
	// Memory64 enables 64-bit memory addressing opcodes (gated per spec.md §9;
	// no Loader in scope emits these yet).
	Memory64
	// BulkMemory enables memory.copy/fill/init, table.copy/fill/init,
	// elem.drop, data.drop. Finished in the 2.0 baseline, kept togglable for
	// embedders pinned to 1.0 semantics.
	BulkMemory
	// ReferenceTypes enables funcref/externref, table.get/set/grow/size,
	// ref.null/ref.is_null/ref.func. Finished in the 2.0 baseline.
	ReferenceTypes
	// SignExtensionOps enables i32.extend8_s and friends. Finished in 2.0.
	SignExtensionOps
	// NonTrappingFloatToIntConversion enables the *.trunc_sat_* opcodes.
	// Finished in 2.0.
	NonTrappingFloatToIntConversion
	// MultiValue allows block types to be arbitrary function types and
	// functions/blocks to return more than one value. Finished in 2.0.
	MultiValue
	// SIMD enables the v128 instruction family. Finished in 2.0.
	SIMD
	// MutableGlobal allows `global.set` on imported/exported globals.
	// Finished since Wasm 1.0.
	MutableGlobal
)

// Baseline20 is the Wasm 2.0 feature baseline that spec.md §1 requires to
// always be available.
const Baseline20 = BulkMemory | ReferenceTypes | SignExtensionOps |
	NonTrappingFloatToIntConversion | MultiValue | SIMD | MutableGlobal

// All enables every proposal, including post-2.0 ones. Useful for
// compatibility with tools that assume everything is on.
const All = Set(^uint32(0))

// Set returns a copy of f with the given flag toggled to enabled.
func (f Set) Set(flag Set, enabled bool) Set {
	if enabled {
		return f | flag
	}
	return f &^ flag
}

// IsEnabled reports whether every bit in flag is enabled in f.
func (f Set) IsEnabled(flag Set) bool {
	return f&flag == flag
}

var names = []struct {
	flag Set
	name string
}{
	{TailCall, "tail-call"},
	{ExtendedConst, "extended-const"},
	{FunctionReferences, "function-references"},
	{GC, "gc"},
	{MultiMemory, "multi-memory"},
	{RelaxedSIMD, "relaxed-simd"},
	{ExceptionHandling, "exception-handling"},
	{Threads, "threads"},
	{Memory64, "memory64"},
	{BulkMemory, "bulk-memory-operations"},
	{ReferenceTypes, "reference-types"},
	{SignExtensionOps, "sign-extension-ops"},
	{NonTrappingFloatToIntConversion, "nontrapping-float-to-int-conversion"},
	{MultiValue, "multi-value"},
	{SIMD, "simd"},
	{MutableGlobal, "mutable-global"},
}

// String lists the enabled proposal names, comma-separated.
func (f Set) String() string {
	var sb strings.Builder
	first := true
	for _, n := range names {
		if f.IsEnabled(n.flag) {
			if !first {
				sb.WriteByte(',')
			}
			sb.WriteString(n.name)
			first = false
		}
	}
	if first {
		return "none"
	}
	return sb.String()
}
