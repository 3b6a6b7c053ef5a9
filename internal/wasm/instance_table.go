package wasm

import "github.com/wasmedge-go/core/internal/wasmruntime"

// TableInstance is a table in the index space of some ModuleInstance
// (spec.md §3.3, §4.2 "Table").
type TableInstance struct {
	Type ValType // always a reference ValType
	Min  uint32
	Max  *uint32

	References []Value
}

// Size returns the current number of elements.
func (t *TableInstance) Size() uint32 { return uint32(len(t.References)) }

// Grow implements "table.grow": appends n copies of init, returning the
// previous size, or the ^uint32(0) sentinel ("-1") if growth would exceed
// Max. Growth is refused, not partial (spec.md §4.2).
func (t *TableInstance) Grow(n uint32, init Value) uint32 {
	old := t.Size()
	newSize := uint64(old) + uint64(n)
	if t.Max != nil && newSize > uint64(*t.Max) {
		return 0xffffffff
	}
	if newSize > 0xffffffff {
		return 0xffffffff
	}
	grown := make([]Value, n)
	for i := range grown {
		grown[i] = init
	}
	t.References = append(t.References, grown...)
	return old
}

func (t *TableInstance) boundsCheck(offset, n uint64) {
	if offset+n > uint64(t.Size()) {
		panic(wasmruntime.ErrRuntimeInvalidTableAccess)
	}
}

// Get implements "table.get".
func (t *TableInstance) Get(i uint32) Value {
	t.boundsCheck(uint64(i), 1)
	return t.References[i]
}

// Set implements "table.set". Traps RefTypeMismatch if value's dynamic type
// doesn't match the table's element type under defMod, or NonNullRequired
// if the table element type is non-nullable and value is null (spec.md
// §4.2 "Table").
func (t *TableInstance) Set(i uint32, value Value, defMod *ModuleInstance) {
	t.boundsCheck(uint64(i), 1)
	t.checkAssignable(value, defMod)
	t.References[i] = value
}

func (t *TableInstance) checkAssignable(value Value, defMod *ModuleInstance) {
	if value.IsNull {
		if !t.Type.Nullable {
			panic(wasmruntime.ErrRuntimeNonNullRequired)
		}
		return
	}
	if !Matches(value.RefType, t.Type, defMod, defMod) {
		panic(wasmruntime.ErrRuntimeRefTypeMismatch)
	}
}

// Fill implements "table.fill".
func (t *TableInstance) Fill(offset, n uint32, value Value, defMod *ModuleInstance) {
	t.boundsCheck(uint64(offset), uint64(n))
	t.checkAssignable(value, defMod)
	for i := uint32(0); i < n; i++ {
		t.References[offset+i] = value
	}
}

// Copy implements "table.copy", correctly handling overlap.
func (t *TableInstance) Copy(dst *TableInstance, dstOffset, srcOffset, n uint32) {
	t.boundsCheck(uint64(srcOffset), uint64(n))
	dst.boundsCheck(uint64(dstOffset), uint64(n))
	copy(dst.References[dstOffset:dstOffset+n], t.References[srcOffset:srcOffset+n])
}

// Init implements "table.init" from an ElementInstance's segment.
func (t *TableInstance) Init(dstOffset uint32, elem *ElementInstance, srcOffset, n uint32) {
	t.boundsCheck(uint64(dstOffset), uint64(n))
	elem.boundsCheck(srcOffset, n)
	copy(t.References[dstOffset:dstOffset+n], elem.References[srcOffset:srcOffset+n])
}
