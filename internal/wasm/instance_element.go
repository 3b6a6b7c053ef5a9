package wasm

import "github.com/wasmedge-go/core/internal/wasmruntime"

// ElementInstance is an element segment in the index space of some
// ModuleInstance, surviving past instantiation only so that active-segment
// optimizations and "elem.drop"/"table.init" (spec.md §4.2, §4.7 "Bulk
// memory & table ops") have something to act on.
type ElementInstance struct {
	Type       ValType
	References []Value

	Dropped bool
}

func (e *ElementInstance) boundsCheck(offset, n uint32) {
	if e.Dropped {
		if n != 0 {
			panic(wasmruntime.ErrRuntimeOutOfBoundsMemoryAccess)
		}
		return
	}
	if uint64(offset)+uint64(n) > uint64(len(e.References)) {
		panic(wasmruntime.ErrRuntimeOutOfBoundsMemoryAccess)
	}
}

// Drop implements "elem.drop": the segment's contents become inaccessible,
// but a zero-length table.init against it remains valid.
func (e *ElementInstance) Drop() {
	e.References = nil
	e.Dropped = true
}
