// Package core is the top-level entry point for the WebAssembly core
// execution engine: the same seam the teacher's root `wazero` package
// occupies, wiring together the Store, Instantiator, and interpreter into
// one embeddable Engine (spec.md §2 "System overview").
package core

import (
	"context"
	"fmt"

	"github.com/wasmedge-go/core/api"
	"github.com/wasmedge-go/core/internal/asynctask"
	"github.com/wasmedge-go/core/internal/engine/interpreter"
	"github.com/wasmedge-go/core/internal/wasm"
)

// Engine is the top-level handle an embedder constructs once and uses to
// compile, instantiate, and run WebAssembly modules (spec.md §2, §6.5). It
// owns a Store (C) of live module instances and the single interpreter (F)
// they all share, matching the teacher's one-Runtime-one-engine model.
type Engine struct {
	config EngineConfig

	store        *wasm.Store
	instantiator *wasm.Instantiator
	interp       *interpreter.Engine

	asyncLimiter *asynctask.Limiter
}

// NewEngine constructs an Engine from config. Call Close when done to
// release every module this Engine ever instantiated.
func NewEngine(config EngineConfig) *Engine {
	interp := interpreter.NewEngine(config.enabledFeatures)
	interp.Counters.EnableInstructionCount(config.statsInstructionCount)
	interp.Counters.EnableGas(config.statsGas, config.gasLimit)
	interp.Counters.EnableTime(config.statsTime)
	interp.TimeLimit = config.timeLimit

	// Installs this Engine's interpreter as the one every FunctionInstance's
	// api.Function.Call resolves through (internal/wasm/views.go). One
	// process is expected to run one Engine at a time, mirroring the
	// teacher's single-engine-per-runtime assumption.
	wasm.SetInvoker(interp)

	store := wasm.NewStore()
	return &Engine{
		config:       config,
		store:        store,
		instantiator: &wasm.Instantiator{Store: store},
		interp:       interp,
		asyncLimiter: asynctask.NewLimiter(config.maxConcurrentAsync),
	}
}

// InvokeAsync runs fn on its own goroutine (spec.md §4.9 "Async Handle"),
// returning a handle the caller uses to wait, poll, or cancel. Cancelling
// the returned handle cancels fn's ctx, which the interpreter's opcode loop
// and host re-entry points both observe as wasmruntime.ErrRuntimeInterrupted
// (spec.md §4.9 "the interpreter observes the flag at each opcode boundary
// and at every blocking primitive").
func (e *Engine) InvokeAsync(ctx context.Context, fn api.Function, params ...uint64) *asynctask.Async[[]uint64] {
	return asynctask.Run(ctx, e.asyncLimiter, func(taskCtx context.Context) ([]uint64, error) {
		return fn.Call(taskCtx, params...)
	})
}

// CompiledModule is a Module (spec.md §6.1) that has passed the memory-limit
// checks an Engine enforces and is ready for InstantiateModule. Grounded on
// the teacher's CompiledModule/CompiledCode split, narrowed to this engine's
// interpreter-only compiled-function interface (spec.md §6.3).
type CompiledModule struct {
	module *wasm.Module
	name   string
}

// Name is the module name recorded by HostModuleBuilder.Compile; it is empty
// for a CompiledModule returned by CompileModule.
func (c *CompiledModule) Name() string { return c.name }

// CompileModule clamps each of mod's memory maximums (setting one where
// none is declared) to this Engine's configured memory-page ceiling and
// returns a CompiledModule ready to instantiate; it never rejects mod. cacheKey, if
// non-empty and a ModuleCache is configured, short-circuits repeat
// compilation of the same source bytes (the caller computes cacheKey, e.g.
// by hashing the original Wasm binary — this engine does not do that
// hashing itself, consistent with the Loader/core boundary of spec.md §6.1).
func (e *Engine) CompileModule(ctx context.Context, cacheKey string, mod *wasm.Module) (*CompiledModule, error) {
	if cm, ok := e.config.cache.get(cacheKey); ok {
		return cm, nil
	}

	for i := range mod.Memories {
		if !mod.Memories[i].MaxSet || mod.Memories[i].Max > e.config.maxMemoryPages {
			mod.Memories[i].Max = e.config.maxMemoryPages
			mod.Memories[i].MaxSet = true
		}
	}

	cm := &CompiledModule{module: mod}
	e.config.cache.put(cacheKey, cm)
	return cm, nil
}

// NewHostModuleBuilder begins defining a host module named moduleName
// (spec.md §4.10, §6.4). Returns an error immediately if moduleName was
// excluded via EngineConfig.WithForbiddenPlugins.
func (e *Engine) NewHostModuleBuilder(moduleName string) (HostModuleBuilder, error) {
	if e.config.pluginForbidden(moduleName) {
		return nil, fmt.Errorf("core: host module %q is forbidden by this Engine's configuration", moduleName)
	}
	return &hostModuleBuilder{
		e:              e,
		moduleName:     moduleName,
		nameToHostFunc: map[string]*wasm.HostFunc{},
		nameToMemory:   map[string]*wasm.MemoryType{},
	}, nil
}

// InstantiateModule runs the Instantiator (spec.md §4.10) over compiled,
// registering the result under name and resolving its imports from
// registered modules already in this Engine's Store plus any extra sources
// passed directly in imports (e.g. host modules not registered by name).
func (e *Engine) InstantiateModule(ctx context.Context, compiled *CompiledModule, name string, imports map[string]map[string]wasm.ImportSource) (api.Module, error) {
	args := wasm.InstantiateArgs{
		Name:    name,
		Module:  compiled.module,
		Imports: e.resolveImports(compiled.module, imports),
	}
	mi, err := e.instantiator.Instantiate(e.interp, args)
	if err != nil {
		e.config.logger.Info("instantiation failed", "module", name, "error", err.Error())
		return nil, err
	}
	e.config.logger.V(1).Info("module registered", "module", name)
	return mi, nil
}

// resolveImports merges caller-supplied import sources with exports of
// already-registered Store modules, so a module importing from another
// instantiated-and-registered module doesn't require the caller to thread
// its exports through by hand every time.
func (e *Engine) resolveImports(mod *wasm.Module, extra map[string]map[string]wasm.ImportSource) map[string]map[string]wasm.ImportSource {
	merged := make(map[string]map[string]wasm.ImportSource, len(extra))
	for modName, byName := range extra {
		merged[modName] = byName
	}

	needed := make(map[string]struct{})
	for _, imp := range mod.ImportFuncs {
		needed[imp.Module] = struct{}{}
	}
	for _, imp := range mod.ImportTables {
		needed[imp.Module] = struct{}{}
	}
	for _, imp := range mod.ImportMemories {
		needed[imp.Module] = struct{}{}
	}
	for _, imp := range mod.ImportGlobals {
		needed[imp.Module] = struct{}{}
	}
	for _, imp := range mod.ImportTags {
		needed[imp.Module] = struct{}{}
	}

	for modName := range needed {
		if _, already := merged[modName]; already {
			continue
		}
		src, ok := e.store.Module(modName)
		if !ok {
			continue
		}
		merged[modName] = exportsAsSources(modName, src)
	}
	return merged
}

func exportsAsSources(modName string, mi *wasm.ModuleInstance) map[string]wasm.ImportSource {
	out := map[string]wasm.ImportSource{}
	for _, e := range mi.Exports() {
		src := wasm.ImportSource{FromModule: modName}
		switch e.Type {
		case api.ExternTypeFunc:
			src.Function = mi.Functions[e.Index]
		case api.ExternTypeTable:
			src.Table = mi.Tables[e.Index]
		case api.ExternTypeMemory:
			src.Memory = mi.Memories[e.Index]
		case api.ExternTypeGlobal:
			src.Global = mi.Globals[e.Index]
		case api.ExternTypeTag:
			src.Tag = mi.Tags[e.Index]
		default:
			continue
		}
		out[e.Name] = src
	}
	return out
}
