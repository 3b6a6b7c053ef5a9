package core

import (
	"context"
	"fmt"
	"reflect"

	"github.com/wasmedge-go/core/api"
	"github.com/wasmedge-go/core/internal/wasm"
)

// HostFunctionBuilder defines one host function (in Go) for a HostModuleBuilder
// to export, so that a compiled WebAssembly module can import and call it
// (spec.md §4.10, §6.4 "Host-function plug-in API").
//
// Here's an example of an addition function:
//
//	hostModuleBuilder.NewFunctionBuilder().
//		WithFunc(func(ctx context.Context, x, y uint32) uint32 {
//			return x + y
//		}).
//		Export("add")
//
// Except for an optional leading context.Context or api.Module parameter,
// every parameter and result must map to a WebAssembly numeric value type:
// uint32, int32, uint64, int64, float32, or float64. A trailing error result
// is allowed and becomes a trap when non-nil.
type HostFunctionBuilder interface {
	// WithFunc uses reflect.Value to bind a Go func as a host function. An
	// input that is not a func fails at Compile time, not here.
	WithFunc(fn interface{}) HostFunctionBuilder

	// WithName sets the function's module-local debug name, e.g. for stack
	// traces. Need not match the name given to Export.
	WithName(name string) HostFunctionBuilder

	// WithParameterNames names the function's parameters for diagnostics.
	// When set, one name is required per parameter.
	WithParameterNames(names ...string) HostFunctionBuilder

	// WithResultNames names the function's results for diagnostics. When
	// set, one name is required per result.
	WithResultNames(names ...string) HostFunctionBuilder

	// Export finalizes this function under the given export name and
	// returns to the owning HostModuleBuilder for further chaining.
	Export(name string) HostModuleBuilder
}

// HostModuleBuilder assembles a host module: a set of Go-implemented
// functions (and optionally an exported memory) that a WebAssembly binary
// can import by module/field name (spec.md §4.10, §6.4).
//
// Functions are indexed in the order NewFunctionBuilder+Export calls appear,
// since some ABIs (e.g. Emscripten's invoke_*) depend on call-index
// stability across instantiations.
type HostModuleBuilder interface {
	// ExportMemory adds a linear memory with no backing import, which an
	// importing module's binary can declare as an import and read/write via
	// api.Memory. If a memory is already exported under name, this replaces
	// it.
	ExportMemory(name string, minPages uint32) HostModuleBuilder

	// ExportMemoryWithMax is like ExportMemory, but bounds how far the
	// memory may grow.
	ExportMemoryWithMax(name string, minPages, maxPages uint32) HostModuleBuilder

	// NewFunctionBuilder begins defining one more host function.
	NewFunctionBuilder() HostFunctionBuilder

	// Compile validates every exported function and memory and returns a
	// CompiledModule ready for Engine.InstantiateModule.
	Compile(ctx context.Context) (*CompiledModule, error)

	// Instantiate is a convenience for Compile followed by
	// Engine.InstantiateModule under this builder's module name.
	Instantiate(ctx context.Context) (api.Module, error)
}

type hostModuleBuilder struct {
	e              *Engine
	moduleName     string
	exportNames    []string
	nameToHostFunc map[string]*wasm.HostFunc
	nameToMemory   map[string]*wasm.MemoryType
}

func (b *hostModuleBuilder) ExportMemory(name string, minPages uint32) HostModuleBuilder {
	b.nameToMemory[name] = &wasm.MemoryType{Min: minPages}
	return b
}

func (b *hostModuleBuilder) ExportMemoryWithMax(name string, minPages, maxPages uint32) HostModuleBuilder {
	b.nameToMemory[name] = &wasm.MemoryType{Min: minPages, Max: maxPages, MaxSet: true}
	return b
}

func (b *hostModuleBuilder) NewFunctionBuilder() HostFunctionBuilder {
	return &hostFunctionBuilder{b: b}
}

func (b *hostModuleBuilder) exportHostFunc(fn *wasm.HostFunc) {
	if _, ok := b.nameToHostFunc[fn.ExportName]; !ok {
		b.exportNames = append(b.exportNames, fn.ExportName)
	}
	b.nameToHostFunc[fn.ExportName] = fn
}

// Compile validates every bound Go func's signature, assembles the host
// module, and returns it wrapped as a CompiledModule. Unlike
// Engine.CompileModule, this never rewrites a memory's maximum: a host
// module's memory limits come from ExportMemoryWithMax, not the embedder-wide
// ceiling meant for guest modules.
func (b *hostModuleBuilder) Compile(ctx context.Context) (*CompiledModule, error) {
	for name, fn := range b.nameToHostFunc {
		rv := reflect.ValueOf(fn.GoFunc)
		_, ft, _, err := wasm.GetFunctionType(&rv, true)
		if err != nil {
			return nil, fmt.Errorf("core: host func %q: %w", name, err)
		}
		fn.ParamTypes, fn.ResultTypes = ft.Params, ft.Results
	}

	mod, err := wasm.NewHostModule(b.moduleName, b.exportNames, b.nameToHostFunc, b.nameToMemory)
	if err != nil {
		return nil, err
	}
	return &CompiledModule{module: mod, name: b.moduleName}, nil
}

func (b *hostModuleBuilder) Instantiate(ctx context.Context) (api.Module, error) {
	compiled, err := b.Compile(ctx)
	if err != nil {
		return nil, err
	}
	return b.e.InstantiateModule(ctx, compiled, b.moduleName, nil)
}

type hostFunctionBuilder struct {
	b           *hostModuleBuilder
	fn          interface{}
	name        string
	paramNames  []string
	resultNames []string
}

func (h *hostFunctionBuilder) WithFunc(fn interface{}) HostFunctionBuilder {
	h.fn = fn
	return h
}

func (h *hostFunctionBuilder) WithName(name string) HostFunctionBuilder {
	h.name = name
	return h
}

func (h *hostFunctionBuilder) WithParameterNames(names ...string) HostFunctionBuilder {
	h.paramNames = names
	return h
}

func (h *hostFunctionBuilder) WithResultNames(names ...string) HostFunctionBuilder {
	h.resultNames = names
	return h
}

func (h *hostFunctionBuilder) Export(exportName string) HostModuleBuilder {
	hf := &wasm.HostFunc{
		ExportName:  exportName,
		Name:        h.name,
		ParamNames:  h.paramNames,
		ResultNames: h.resultNames,
		GoFunc:      h.fn,
	}
	h.b.exportHostFunc(hf)
	return h.b
}
