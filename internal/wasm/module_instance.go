package wasm

import (
	"context"
	"fmt"

	"github.com/wasmedge-go/core/api"
)

// ModuleInstance is a named, instantiated module held by the Store
// (spec.md §3.3, §3.4). It owns the instances it defines outright, and
// holds weak (non-owning) references to whatever it imported, matching the
// ownership rule in spec.md §3.3: "a module owns what it defines; it holds
// only a weak reference to what it imports."
type ModuleInstance struct {
	ModuleName string

	Types []*TypeDef

	Functions []*FunctionInstance
	Tables    []*TableInstance
	Memories  []*MemoryInstance
	Globals   []*GlobalInstance
	Tags      []*TagInstance
	Elements  []*ElementInstance
	Datas     []*DataInstance

	// NumImportedXxx records how many of the leading entries in each slice
	// above are imports (weak references) rather than locally owned
	// (spec.md §3.3). NumImportedFunctions backs FunctionDefinition.Import;
	// Close frees nothing and does not read these counts.
	NumImportedFunctions int
	NumImportedTables    int
	NumImportedMemories  int
	NumImportedGlobals   int
	NumImportedTags      int

	exports map[string]Export

	closed bool
	// ownerStore is set once this instance is registered, so Close can route
	// through the Store's ModuleInUse bookkeeping instead of only flipping a
	// local flag.
	ownerStore *Store
}

func (m *ModuleInstance) String() string { return fmt.Sprintf("module[%s]", m.ModuleName) }

// Name implements api.Module.
func (m *ModuleInstance) Name() string { return m.ModuleName }

// Memory implements api.Module: the first memory defined or imported.
func (m *ModuleInstance) Memory() api.Memory {
	if len(m.Memories) == 0 {
		return nil
	}
	return memoryView{m.Memories[0]}
}

func (m *ModuleInstance) exportedIndex(name string, want byte) (uint32, bool) {
	e, ok := m.exports[name]
	if !ok || e.Type != want {
		return 0, false
	}
	return e.Index, true
}

// ExportedFunction implements api.Module.
func (m *ModuleInstance) ExportedFunction(name string) api.Function {
	idx, ok := m.exportedIndex(name, api.ExternTypeFunc)
	if !ok {
		return nil
	}
	return &exportedFunction{mod: m, fn: m.Functions[idx]}
}

// ExportedMemory implements api.Module.
func (m *ModuleInstance) ExportedMemory(name string) api.Memory {
	idx, ok := m.exportedIndex(name, api.ExternTypeMemory)
	if !ok {
		return nil
	}
	return memoryView{m.Memories[idx]}
}

// ExportedGlobal implements api.Module.
func (m *ModuleInstance) ExportedGlobal(name string) api.Global {
	idx, ok := m.exportedIndex(name, api.ExternTypeGlobal)
	if !ok {
		return nil
	}
	return globalView{m.Globals[idx]}
}

// LookupExport resolves any export by name and kind, for import resolution
// during a later module's instantiation (spec.md §4.10).
func (m *ModuleInstance) LookupExport(name string) (Export, bool) {
	e, ok := m.exports[name]
	return e, ok
}

// Exports returns every export this module defines, for callers (e.g. an
// embedder wiring one registered module's exports as another's imports)
// that need the full set rather than a single lookup by name.
func (m *ModuleInstance) Exports() []Export {
	out := make([]Export, 0, len(m.exports))
	for _, e := range m.exports {
		out = append(out, e)
	}
	return out
}

// IsClosed reports whether Close has already run.
func (m *ModuleInstance) IsClosed() bool { return m.closed }

// markClosed is called by the Store once drop bookkeeping (ModuleInUse
// checks) has passed.
func (m *ModuleInstance) markClosed() { m.closed = true }

// Close implements api.Closer by dropping this instance from its owning
// Store, which refuses with ErrModuleInUse while another registered module
// still imports from it (spec.md §3.4).
func (m *ModuleInstance) Close(ctx context.Context) error {
	return m.CloseWithExitCode(ctx, 0)
}

// CloseWithExitCode implements api.Module. The exit code has no observable
// effect at this layer (no sys.ExitError propagation without a WASI-style
// host module in scope); it is accepted for interface parity.
func (m *ModuleInstance) CloseWithExitCode(ctx context.Context, _ uint32) error {
	if m.closed {
		return nil
	}
	if m.ownerStore == nil {
		m.markClosed()
		return nil
	}
	return m.ownerStore.Drop(ctx, m.ModuleName)
}
