package core

import (
	"time"

	"github.com/go-logr/logr"

	"github.com/wasmedge-go/core/internal/features"
)

// EngineConfig controls an Engine's behavior, built by chaining With*
// methods off NewEngineConfig (spec.md §6.5 "Configuration surface").
// Grounded on the teacher's RuntimeConfig: every With* clones the receiver
// before mutating, so a config already handed to one Engine is never
// retroactively changed by further chaining.
type EngineConfig struct {
	enabledFeatures features.Set

	maxMemoryPages uint32

	forceInterpreter bool

	statsInstructionCount bool
	statsGas              bool
	statsTime             bool
	gasLimit              uint64
	timeLimit             time.Duration

	maxConcurrentAsync int64

	forbiddenPlugins map[string]struct{}

	cache *ModuleCache

	logger logr.Logger
}

// defaultMaxMemoryPages is 4GiB worth of 64KiB pages, the Wasm-defined
// ceiling absent a narrower configured one (spec.md §4.2 "Memory").
const defaultMaxMemoryPages = 65536

// NewEngineConfig returns the default configuration: Wasm 2.0 baseline
// features only, no statistics, no gas limit, a discarding logger.
func NewEngineConfig() EngineConfig {
	return EngineConfig{
		enabledFeatures: features.Baseline20,
		maxMemoryPages:  defaultMaxMemoryPages,
		logger:          logr.Discard(),
	}
}

func (c EngineConfig) clone() EngineConfig {
	ret := c
	if c.forbiddenPlugins != nil {
		ret.forbiddenPlugins = make(map[string]struct{}, len(c.forbiddenPlugins))
		for k := range c.forbiddenPlugins {
			ret.forbiddenPlugins[k] = struct{}{}
		}
	}
	return ret
}

// WithFeature toggles a single named proposal (spec.md §6.5 "proposals").
func (c EngineConfig) WithFeature(flag features.Set, enabled bool) EngineConfig {
	ret := c.clone()
	ret.enabledFeatures = ret.enabledFeatures.Set(flag, enabled)
	return ret
}

// WithAllFeatures enables every known proposal, useful for compatibility
// with tools that assume a maximally-featured engine.
func (c EngineConfig) WithAllFeatures() EngineConfig {
	ret := c.clone()
	ret.enabledFeatures = features.All
	return ret
}

// WithMaxMemoryPages sets max_memory_page (spec.md §6.5): a hard ceiling on
// memory.grow regardless of what a module's own declared max allows.
func (c EngineConfig) WithMaxMemoryPages(pages uint32) EngineConfig {
	ret := c.clone()
	ret.maxMemoryPages = pages
	return ret
}

// WithForceInterpreter disables any compiled-code path even if available
// (spec.md §6.5 "force_interpreter"). This engine has only the interpreter
// path, so this is accepted for configuration-surface parity and always
// behaves as if true.
func (c EngineConfig) WithForceInterpreter(force bool) EngineConfig {
	ret := c.clone()
	ret.forceInterpreter = force
	return ret
}

// WithStatistics enables the instruction-count, gas, and wall-clock-time
// counters independently (spec.md §4.8, §6.5 "statistics.*").
func (c EngineConfig) WithStatistics(instructionCount, gas, time bool) EngineConfig {
	ret := c.clone()
	ret.statsInstructionCount = instructionCount
	ret.statsGas = gas
	ret.statsTime = time
	return ret
}

// WithGasLimit sets the per-invocation gas ceiling (spec.md §6.5
// "gas_limit"); has no effect unless gas accounting is also enabled via
// WithStatistics.
func (c EngineConfig) WithGasLimit(limit uint64) EngineConfig {
	ret := c.clone()
	ret.gasLimit = limit
	return ret
}

// WithTimeLimit sets time_limit_ms (spec.md §6.5): a per-invocation
// wall-clock ceiling, disarmed when d <= 0. Expiring it trips the same
// cancellation check the interpreter's opcode loop already performs for
// cancel(), unwinding with trap kind Interrupted rather than a distinct one.
func (c EngineConfig) WithTimeLimit(d time.Duration) EngineConfig {
	ret := c.clone()
	ret.timeLimit = d
	return ret
}

// WithMaxConcurrentAsyncTasks bounds how many Engine.InvokeAsync background
// invocations may run at once (spec.md §4.9's scheduling model is one
// thread per async invocation, not a shared worker pool, but an embedder
// hosting many concurrent requests still wants an admission ceiling).
// n <= 0 means unlimited.
func (c EngineConfig) WithMaxConcurrentAsyncTasks(n int64) EngineConfig {
	ret := c.clone()
	ret.maxConcurrentAsync = n
	return ret
}

// WithForbiddenPlugins names host-module (plug-in) names to refuse at
// NewHostModuleBuilder time (spec.md §6.5 "forbidden_plugins", §6.4).
func (c EngineConfig) WithForbiddenPlugins(names ...string) EngineConfig {
	ret := c.clone()
	ret.forbiddenPlugins = make(map[string]struct{}, len(names))
	for _, n := range names {
		ret.forbiddenPlugins[n] = struct{}{}
	}
	return ret
}

// WithCompilationCache attaches a ModuleCache so repeated CompileModule
// calls with the same cache key reuse the prior *CompiledModule instead of
// applying the memory-page ceiling again.
func (c EngineConfig) WithCompilationCache(cache *ModuleCache) EngineConfig {
	ret := c.clone()
	ret.cache = cache
	return ret
}

// WithLogger sets the structural-milestone logger (module registered at
// V(1), instantiation failed). Defaults to logr.Discard(), so an
// Engine built with zero configuration produces zero log volume.
func (c EngineConfig) WithLogger(logger logr.Logger) EngineConfig {
	ret := c.clone()
	ret.logger = logger
	return ret
}

func (c EngineConfig) pluginForbidden(name string) bool {
	_, ok := c.forbiddenPlugins[name]
	return ok
}
