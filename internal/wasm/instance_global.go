package wasm

import "github.com/wasmedge-go/core/internal/wasmruntime"

// GlobalInstance is a global in the index space of some ModuleInstance
// (spec.md §3.3, §4.2 "Global").
type GlobalInstance struct {
	Type    ValType
	Mutable bool

	Val Value
}

// Get implements "global.get".
func (g *GlobalInstance) Get() Value { return g.Val }

// Set implements "global.set". Traps ImmutableGlobal if the declared type
// isn't mutable; this is a validation-time check in the spec, but is
// enforced here too so a mis-linked host global can't corrupt state
// (spec.md §4.2 "Global").
func (g *GlobalInstance) Set(v Value) {
	if !g.Mutable {
		panic(wasmruntime.ErrRuntimeGlobalImmutable)
	}
	g.Val = v
}
