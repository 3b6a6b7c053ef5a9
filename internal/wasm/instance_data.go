package wasm

import "github.com/wasmedge-go/core/internal/wasmruntime"

// DataInstance is a data segment in the index space of some ModuleInstance,
// surviving past instantiation for "data.drop"/"memory.init" (spec.md §4.2,
// §4.7 "Bulk memory & table ops").
type DataInstance struct {
	Bytes   []byte
	Dropped bool
}

func (d *DataInstance) bytesRange(offset, n uint32) []byte {
	if d.Dropped {
		if n != 0 {
			panic(wasmruntime.ErrRuntimeOutOfBoundsMemoryAccess)
		}
		return nil
	}
	if uint64(offset)+uint64(n) > uint64(len(d.Bytes)) {
		panic(wasmruntime.ErrRuntimeOutOfBoundsMemoryAccess)
	}
	return d.Bytes[offset : offset+n]
}

// BytesRange exposes bytesRange to other packages (array.new_data).
func (d *DataInstance) BytesRange(offset, n uint32) []byte { return d.bytesRange(offset, n) }

// Drop implements "data.drop".
func (d *DataInstance) Drop() {
	d.Bytes = nil
	d.Dropped = true
}
