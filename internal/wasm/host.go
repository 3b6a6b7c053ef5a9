package wasm

import (
	"fmt"

	"github.com/wasmedge-go/core/api"
)

// HostFunc describes one host-implemented function before it is assembled
// into a Module's type/function/code sections (spec.md §4.10, §6.4
// "Host-function plug-in API"). Grounded on the teacher's wasm.HostFunc,
// the intermediate value its HostModuleBuilder.Export hands to
// NewHostModule.
type HostFunc struct {
	ExportName string
	Name       string

	ParamTypes, ResultTypes []ValueType
	ParamNames, ResultNames []string

	// GoFunc is the raw Go func value; the interpreter's callGoFunc binds it
	// via reflect.Value at call time (spec.md §6.4).
	GoFunc interface{}
	Cost   uint64
}

// NewHostModule assembles a Module whose every function is a host callback,
// one type/function/code entry per name in exportNames, in that order
// (spec.md §6.4's builder insertion-ordering requirement — ABIs such as
// Emscripten's invoke_* rely on call index stability). nameToMemory adds
// exported memories with no backing import.
func NewHostModule(moduleName string, exportNames []string, nameToHostFunc map[string]*HostFunc, nameToMemory map[string]*MemoryType) (*Module, error) {
	mod := &Module{}

	for _, name := range exportNames {
		hf, ok := nameToHostFunc[name]
		if !ok {
			return nil, fmt.Errorf("wasm: host module %q: unresolved export %q", moduleName, name)
		}
		typeIdx := uint32(len(mod.Types))
		mod.Types = append(mod.Types, &TypeDef{Kind: TypeKindFunc, Func: &FunctionType{
			Params:  hf.ParamTypes,
			Results: hf.ResultTypes,
		}})
		mod.FunctionTypeIndexes = append(mod.FunctionTypeIndexes, typeIdx)

		debugName := hf.Name
		if debugName == "" {
			debugName = hf.ExportName
		}
		mod.Code = append(mod.Code, Code{GoFunc: hf.GoFunc, Cost: hf.Cost, DebugName: debugName})

		mod.Exports = append(mod.Exports, Export{
			Name:  hf.ExportName,
			Type:  api.ExternTypeFunc,
			Index: uint32(len(mod.FunctionTypeIndexes) - 1),
		})
	}

	for name, mt := range nameToMemory {
		idx := uint32(len(mod.Memories))
		mod.Memories = append(mod.Memories, *mt)
		mod.Exports = append(mod.Exports, Export{Name: name, Type: api.ExternTypeMemory, Index: idx})
	}

	CanonicalizeTypes(mod.Types)
	return mod, nil
}
