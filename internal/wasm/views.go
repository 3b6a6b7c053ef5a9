package wasm

import (
	"context"
	"fmt"

	"github.com/wasmedge-go/core/api"
)

// Invoker is implemented by the engine package and attached to a
// FunctionInstance so that api.Function.Call can reach the interpreter
// without this package importing internal/engine/interpreter (which itself
// depends on internal/wasm), avoiding an import cycle (spec.md §4.10's
// calling-frame bridge lives on the engine side of this seam).
type Invoker interface {
	Invoke(ctx context.Context, fn *FunctionInstance, params []uint64) ([]uint64, error)
}

// engine is package-level because every FunctionInstance created by a given
// process run shares one interpreter; set once via SetInvoker before any
// instantiation (mirrors the teacher's single-engine-per-runtime model).
var engine Invoker

// SetInvoker installs the interpreter engine used by exported functions'
// Call method. Called once during top-level Runtime construction.
func SetInvoker(i Invoker) { engine = i }

type exportedFunction struct {
	mod *ModuleInstance
	fn  *FunctionInstance
}

func (f *exportedFunction) Definition() api.FunctionDefinition {
	return &functionDefinition{mod: f.mod, fn: f.fn}
}

func (f *exportedFunction) Call(ctx context.Context, params ...uint64) ([]uint64, error) {
	if engine == nil {
		return nil, fmt.Errorf("wasm: no engine installed")
	}
	return engine.Invoke(ctx, f.fn, params)
}

type functionDefinition struct {
	mod *ModuleInstance
	fn  *FunctionInstance
}

func (d *functionDefinition) ModuleName() string { return d.mod.ModuleName }
func (d *functionDefinition) Index() uint32      { return d.fn.Idx }
func (d *functionDefinition) Name() string       { return d.fn.DebugName }
func (d *functionDefinition) DebugName() string  { return d.fn.DebugName }

func (d *functionDefinition) Import() (moduleName, name string, isImport bool) {
	isImport = d.fn.Idx < uint32(d.mod.NumImportedFunctions)
	return d.mod.ModuleName, d.fn.DebugName, isImport
}

func (d *functionDefinition) ExportNames() []string {
	var names []string
	for name, e := range d.mod.exports {
		if e.Type == api.ExternTypeFunc && e.Index == d.fn.Idx {
			names = append(names, name)
		}
	}
	return names
}

func (d *functionDefinition) ParamTypes() []api.ValueType  { return d.fn.Type.Params }
func (d *functionDefinition) ResultTypes() []api.ValueType { return d.fn.Type.Results }

type memoryView struct{ m *MemoryInstance }

func (v memoryView) Size(context.Context) uint32 { return v.m.PageSize() }

func (v memoryView) Grow(_ context.Context, delta uint32) (uint32, bool) { return v.m.Grow(delta) }

func (v memoryView) inBounds(offset, size uint32) bool {
	end := uint64(offset) + uint64(size)
	return end <= uint64(v.m.ByteLength())
}

func (v memoryView) ReadByte(_ context.Context, offset uint32) (byte, bool) {
	if !v.inBounds(offset, 1) {
		return 0, false
	}
	return v.m.ReadByte(offset), true
}

func (v memoryView) ReadUint16Le(_ context.Context, offset uint32) (uint16, bool) {
	if !v.inBounds(offset, 2) {
		return 0, false
	}
	return v.m.ReadUint16Le(offset), true
}

func (v memoryView) ReadUint32Le(_ context.Context, offset uint32) (uint32, bool) {
	if !v.inBounds(offset, 4) {
		return 0, false
	}
	return v.m.ReadUint32Le(offset), true
}

func (v memoryView) ReadUint64Le(_ context.Context, offset uint32) (uint64, bool) {
	if !v.inBounds(offset, 8) {
		return 0, false
	}
	return v.m.ReadUint64Le(offset), true
}

func (v memoryView) ReadFloat32Le(ctx context.Context, offset uint32) (float32, bool) {
	b, ok := v.ReadUint32Le(ctx, offset)
	return api.DecodeF32(uint64(b)), ok
}

func (v memoryView) ReadFloat64Le(ctx context.Context, offset uint32) (float64, bool) {
	b, ok := v.ReadUint64Le(ctx, offset)
	return api.DecodeF64(b), ok
}

func (v memoryView) Read(_ context.Context, offset, byteCount uint32) ([]byte, bool) {
	if !v.inBounds(offset, byteCount) {
		return nil, false
	}
	out := make([]byte, byteCount)
	copy(out, v.m.Bytes(offset, byteCount))
	return out, true
}

func (v memoryView) WriteByte(_ context.Context, offset uint32, val byte) bool {
	if !v.inBounds(offset, 1) {
		return false
	}
	v.m.WriteByte(offset, val)
	return true
}

func (v memoryView) WriteUint16Le(_ context.Context, offset uint32, val uint16) bool {
	if !v.inBounds(offset, 2) {
		return false
	}
	v.m.WriteUint16Le(offset, val)
	return true
}

func (v memoryView) WriteUint32Le(_ context.Context, offset, val uint32) bool {
	if !v.inBounds(offset, 4) {
		return false
	}
	v.m.WriteUint32Le(offset, val)
	return true
}

func (v memoryView) WriteUint64Le(_ context.Context, offset uint32, val uint64) bool {
	if !v.inBounds(offset, 8) {
		return false
	}
	v.m.WriteUint64Le(offset, val)
	return true
}

func (v memoryView) WriteFloat32Le(ctx context.Context, offset uint32, val float32) bool {
	return v.WriteUint32Le(ctx, offset, uint32(api.EncodeF32(val)))
}

func (v memoryView) WriteFloat64Le(ctx context.Context, offset uint32, val float64) bool {
	return v.WriteUint64Le(ctx, offset, api.EncodeF64(val))
}

func (v memoryView) Write(_ context.Context, offset uint32, data []byte) bool {
	if !v.inBounds(offset, uint32(len(data))) {
		return false
	}
	copy(v.m.Bytes(offset, uint32(len(data))), data)
	return true
}

type globalView struct{ g *GlobalInstance }

func (v globalView) String() string { return fmt.Sprintf("global(%s)", v.g.Type.String()) }
func (v globalView) Type() api.ValueType {
	if v.g.Type.IsRef {
		return api.ValueTypeFuncref
	}
	return v.g.Type.Numeric
}
func (v globalView) Get(context.Context) uint64 { return v.g.Val.Lo }
func (v globalView) Set(_ context.Context, val uint64) {
	nv := v.g.Val
	nv.Lo = val
	v.g.Set(nv)
}

var _ api.MutableGlobal = globalView{}
