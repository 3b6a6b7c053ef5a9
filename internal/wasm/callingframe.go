package wasm

import "context"

// CallingFrame is the narrow view passed to a host function callback: just
// enough of the executing call's state to read memory, re-enter Wasm
// through an exported function, or identify the calling module (spec.md
// §4.10's "host-function bridge" / §6.4). Re-entrancy is only possible
// through Executor.Invoke; a host function never gets the interpreter's own
// internal stack state.
type CallingFrame struct {
	ctx      context.Context
	Module   *ModuleInstance
	executor Invoker
}

// NewCallingFrame is called by the interpreter immediately before invoking
// a host function.
func NewCallingFrame(ctx context.Context, mod *ModuleInstance, executor Invoker) *CallingFrame {
	return &CallingFrame{ctx: ctx, Module: mod, executor: executor}
}

// Context returns the context.Context the current top-level Call was made
// with (possibly wrapped, e.g. with a deadline from gas/time budgeting).
func (f *CallingFrame) Context() context.Context { return f.ctx }

// Memory returns the calling module's first memory, or nil.
func (f *CallingFrame) Memory() *MemoryInstance {
	if f.Module == nil || len(f.Module.Memories) == 0 {
		return nil
	}
	return f.Module.Memories[0]
}

// MemoryAt returns the calling module's i'th memory (multiple-memories
// proposal), or nil if out of range.
func (f *CallingFrame) MemoryAt(i uint32) *MemoryInstance {
	if f.Module == nil || int(i) >= len(f.Module.Memories) {
		return nil
	}
	return f.Module.Memories[i]
}

// Invoke re-enters the engine to call fn, e.g. so a host function can call
// back a Wasm-exported function passed to it as a funcref (spec.md §4.10
// re-entrancy rule: only through the calling frame's executor handle).
func (f *CallingFrame) Invoke(fn *FunctionInstance, params []uint64) ([]uint64, error) {
	return f.executor.Invoke(f.ctx, fn, params)
}
