package wasm

import (
	"context"
	"fmt"
	"reflect"

	"github.com/wasmedge-go/core/api"
)

// Instantiator turns a decoded Module plus a set of already-registered
// import sources into a live ModuleInstance, registering it with a Store
// (spec.md §3.4, §4.10 "Instantiation"). Instantiation is atomic: any
// failure at any step leaves the Store exactly as it was before the call
// began (spec.md §4.10 "all-or-nothing").
type Instantiator struct {
	Store *Store
}

// ImportSource supplies one import's concrete instance, resolved by the
// caller (an embedder wiring host modules, or another registered
// ModuleInstance's export) before Instantiate runs (spec.md §4.10 step 1
// "resolve imports").
type ImportSource struct {
	Function *FunctionInstance
	Table    *TableInstance
	Memory   *MemoryInstance
	Global   *GlobalInstance
	Tag      *TagInstance

	// FromModule names the module this import was sourced from, if any, so
	// the Store can track the ModuleInUse dependency edge; empty for host
	// modules the Store does not itself register.
	FromModule string
}

// InstantiateArgs bundles Instantiate's inputs.
type InstantiateArgs struct {
	Name    string
	Module  *Module
	Imports map[string]map[string]ImportSource // [moduleName][fieldName]
	Config  InstantiateConfig
}

// InstantiateConfig carries per-instantiation options that the Instantiator
// itself applies; nothing in it is stored on the ModuleInstance (spec.md
// §4.10, §6.5).
type InstantiateConfig struct {
	// StartFuncOverride, if non-nil, replaces Module's declared start
	// function selection (embedder-driven re-entry for multi-phase boot,
	// spec.md §4.10 Open Question).
	StartFuncOverride *uint32
}

var (
	ErrImportNotFound    = fmt.Errorf("wasm: import not found")
	ErrImportKindMismatch = fmt.Errorf("wasm: import kind mismatch")
	ErrImportTypeMismatch = fmt.Errorf("wasm: import signature mismatch")
)

// Instantiate performs allocation, element/data initialization, and the
// start function call, then registers the result with a.Store. On error,
// nothing is registered (spec.md §4.10). Writes already made before the
// failure are not undone: entries that earlier active element or data
// segments copied into imported tables or memories, and whatever a
// trapping start function wrote to imported state, stay in place.
func (a *Instantiator) Instantiate(invoker Invoker, args InstantiateArgs) (*ModuleInstance, error) {
	mod := args.Module

	mi := &ModuleInstance{
		ModuleName: args.Name,
		Types:      mod.Types,
	}

	depSet := map[string]struct{}{}

	// Step 1: resolve and attach imports (weak references; spec.md §3.3).
	if err := resolveFuncImports(mi, mod, args.Imports, depSet); err != nil {
		return nil, err
	}
	if err := resolveTableImports(mi, mod, args.Imports, depSet); err != nil {
		return nil, err
	}
	if err := resolveMemoryImports(mi, mod, args.Imports, depSet); err != nil {
		return nil, err
	}
	if err := resolveGlobalImports(mi, mod, args.Imports, depSet); err != nil {
		return nil, err
	}
	if err := resolveTagImports(mi, mod, args.Imports, depSet); err != nil {
		return nil, err
	}
	mi.NumImportedFunctions = len(mi.Functions)
	mi.NumImportedTables = len(mi.Tables)
	mi.NumImportedMemories = len(mi.Memories)
	mi.NumImportedGlobals = len(mi.Globals)
	mi.NumImportedTags = len(mi.Tags)

	// Step 2: allocate locally-defined instances.
	for i, typeIdx := range mod.FunctionTypeIndexes {
		code := mod.Code[i]
		fn := &FunctionInstance{
			Module:    mi,
			Idx:       uint32(len(mi.Functions)),
			Type:      mod.Types[typeIdx].Func,
			DebugName: code.DebugName,
		}
		if code.GoFunc != nil {
			fn.IsHostFunction = true
			fn.Cost = code.Cost
			rv := reflect.ValueOf(code.GoFunc)
			fn.GoFunc = &rv
		} else {
			fn.LocalTypes = code.LocalTypes
			fn.Body = code.Body
		}
		mi.Functions = append(mi.Functions, fn)
	}
	for _, t := range mod.Tables {
		mi.Tables = append(mi.Tables, &TableInstance{Type: t.Elem, Min: t.Min, Max: t.Max,
			References: defaultRefs(t.Elem, t.Min)})
	}
	for _, m := range mod.Memories {
		var max *uint32
		if m.MaxSet {
			mv := m.Max
			max = &mv
		}
		maxv := uint32(65536)
		if max != nil {
			maxv = *max
		}
		mi.Memories = append(mi.Memories, NewMemoryInstance(m.Min, maxv, 65536, m.Shared))
	}
	for _, g := range mod.Globals {
		mi.Globals = append(mi.Globals, &GlobalInstance{Type: g.Val, Mutable: g.Mutable, Val: g.Init})
	}
	for _, tag := range mod.Tags {
		mi.Tags = append(mi.Tags, &TagInstance{Type: tag})
	}
	for _, es := range mod.Elements {
		mi.Elements = append(mi.Elements, buildElement(es))
	}
	for _, ds := range mod.Datas {
		mi.Datas = append(mi.Datas, &DataInstance{Bytes: append([]byte(nil), ds.Init...)})
	}

	// Step 3: active segment initialization (spec.md §4.10 step "init
	// element/data segments"). Bounds violations here abort the whole
	// instantiation (atomicity), leaving nothing registered.
	if err := runActiveElements(mi, mod); err != nil {
		return nil, err
	}
	if err := runActiveData(mi, mod); err != nil {
		return nil, err
	}

	// Step 4: exports.
	mi.exports = make(map[string]Export, len(mod.Exports))
	for _, e := range mod.Exports {
		mi.exports[e.Name] = e
	}

	// Step 5: start function.
	startIdx, hasStart := mod.StartFuncIndex, mod.StartFuncSet
	if args.Config.StartFuncOverride != nil {
		startIdx, hasStart = *args.Config.StartFuncOverride, true
	}
	if hasStart {
		if _, err := invoker.Invoke(context.Background(), mi.Functions[startIdx], nil); err != nil {
			return nil, fmt.Errorf("wasm: start function trapped: %w", err)
		}
	}

	// Step 6: register. Only now does this instantiation become visible.
	var deps []string
	for d := range depSet {
		deps = append(deps, d)
	}
	if err := a.Store.Register(mi, deps); err != nil {
		return nil, err
	}
	mi.ownerStore = a.Store
	return mi, nil
}

func defaultRefs(elem ValType, n uint32) []Value {
	refs := make([]Value, n)
	def := elem.DefaultValue()
	for i := range refs {
		refs[i] = def
	}
	return refs
}

func buildElement(es ElementSegment) *ElementInstance {
	refs := make([]Value, len(es.Init))
	for i, vs := range es.Init {
		if len(vs) > 0 {
			refs[i] = vs[0]
		}
	}
	if es.Mode == 2 { // declarative: contents exist only to satisfy ref.func validation
		return &ElementInstance{Type: es.Type, Dropped: true}
	}
	return &ElementInstance{Type: es.Type, References: refs}
}

func runActiveElements(mi *ModuleInstance, mod *Module) error {
	for i, es := range mod.Elements {
		if es.Mode != 0 {
			continue
		}
		table := mi.Tables[es.TableIndex]
		offset := uint32(es.Offset.Lo)
		elem := mi.Elements[i]
		if uint64(offset)+uint64(len(elem.References)) > uint64(table.Size()) {
			return fmt.Errorf("wasm: active element segment %d out of bounds", i)
		}
		copy(table.References[offset:], elem.References)
		// An active segment's instance is dropped immediately after running,
		// matching the Wasm spec's as-if-by-elem.drop semantics.
		elem.Drop()
	}
	return nil
}

func runActiveData(mi *ModuleInstance, mod *Module) error {
	for i, ds := range mod.Datas {
		if ds.Mode != 0 {
			continue
		}
		mem := mi.Memories[ds.MemoryIndex]
		offset := uint32(ds.Offset.Lo)
		data := mi.Datas[i]
		if uint64(offset)+uint64(len(data.Bytes)) > uint64(mem.ByteLength()) {
			return fmt.Errorf("wasm: active data segment %d out of bounds", i)
		}
		copy(mem.Bytes(offset, uint32(len(data.Bytes))), data.Bytes)
		data.Drop()
	}
	return nil
}

func resolveFuncImports(mi *ModuleInstance, mod *Module, imports map[string]map[string]ImportSource, deps map[string]struct{}) error {
	for _, imp := range mod.ImportFuncs {
		src, err := lookupImport(imports, imp, deps)
		if err != nil {
			return err
		}
		if src.Function == nil {
			return fmt.Errorf("%w: %s.%s is not a function", ErrImportKindMismatch, imp.Module, imp.Name)
		}
		want := mod.Types[imp.DescIndex].Func
		if !src.Function.Type.EqualsSignature(want.Params, want.Results) {
			return fmt.Errorf("%w: %s.%s", ErrImportTypeMismatch, imp.Module, imp.Name)
		}
		mi.Functions = append(mi.Functions, src.Function)
	}
	return nil
}

func resolveTableImports(mi *ModuleInstance, mod *Module, imports map[string]map[string]ImportSource, deps map[string]struct{}) error {
	for _, imp := range mod.ImportTables {
		src, err := lookupImport(imports, imp, deps)
		if err != nil {
			return err
		}
		if src.Table == nil {
			return fmt.Errorf("%w: %s.%s is not a table", ErrImportKindMismatch, imp.Module, imp.Name)
		}
		mi.Tables = append(mi.Tables, src.Table)
	}
	return nil
}

func resolveMemoryImports(mi *ModuleInstance, mod *Module, imports map[string]map[string]ImportSource, deps map[string]struct{}) error {
	for _, imp := range mod.ImportMemories {
		src, err := lookupImport(imports, imp, deps)
		if err != nil {
			return err
		}
		if src.Memory == nil {
			return fmt.Errorf("%w: %s.%s is not a memory", ErrImportKindMismatch, imp.Module, imp.Name)
		}
		mi.Memories = append(mi.Memories, src.Memory)
	}
	return nil
}

func resolveGlobalImports(mi *ModuleInstance, mod *Module, imports map[string]map[string]ImportSource, deps map[string]struct{}) error {
	for _, imp := range mod.ImportGlobals {
		src, err := lookupImport(imports, imp, deps)
		if err != nil {
			return err
		}
		if src.Global == nil {
			return fmt.Errorf("%w: %s.%s is not a global", ErrImportKindMismatch, imp.Module, imp.Name)
		}
		mi.Globals = append(mi.Globals, src.Global)
	}
	return nil
}

func resolveTagImports(mi *ModuleInstance, mod *Module, imports map[string]map[string]ImportSource, deps map[string]struct{}) error {
	for _, imp := range mod.ImportTags {
		src, err := lookupImport(imports, imp, deps)
		if err != nil {
			return err
		}
		if src.Tag == nil {
			return fmt.Errorf("%w: %s.%s is not a tag", ErrImportKindMismatch, imp.Module, imp.Name)
		}
		mi.Tags = append(mi.Tags, src.Tag)
	}
	return nil
}

func lookupImport(imports map[string]map[string]ImportSource, imp Import, deps map[string]struct{}) (ImportSource, error) {
	byName, ok := imports[imp.Module]
	if !ok {
		return ImportSource{}, fmt.Errorf("%w: %s.%s", ErrImportNotFound, imp.Module, imp.Name)
	}
	src, ok := byName[imp.Name]
	if !ok {
		return ImportSource{}, fmt.Errorf("%w: %s.%s", ErrImportNotFound, imp.Module, imp.Name)
	}
	if src.FromModule != "" {
		deps[src.FromModule] = struct{}{}
	}
	return src, nil
}

var _ api.Module = (*ModuleInstance)(nil)
