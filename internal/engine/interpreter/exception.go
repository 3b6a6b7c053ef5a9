package interpreter

import (
	"context"

	"github.com/wasmedge-go/core/internal/wasm"
	"github.com/wasmedge-go/core/internal/wasmruntime"
)

// thrownException is the Go panic payload for a Wasm exception in flight
// (spec.md §4.9). It is the one place this engine deliberately reuses Go's
// own panic/recover as wasm control flow rather than a return-value check:
// a throw inside a deeply nested call needs to unwind past every
// intervening OpCall's Go stack frame to reach the nearest enclosing try,
// which is exactly what a recursive run()/recover() pair gives for free.
type thrownException struct {
	tag     *wasm.TagInstance
	tagIdx  uint32
	payload []uint64
}

// execException implements try/catch/catch_all/delegate/throw/throw_ref/
// rethrow. jumped mirrors execGC's convention: true means frame.pc is
// already positioned at its next value and the caller's dispatch loop must
// `continue` rather than apply its own pc++.
func execException(e *Engine, ctx context.Context, ce *callEngine, frame *callFrame, instr wasm.Instruction) (jumped bool) {
	switch instr.Op {
	case wasm.OpTry:
		handleTry(e, ctx, ce, frame, instr)
		return true

	case wasm.OpThrow:
		tag := frame.fn.Module.Tags[instr.Imm]
		payload := ce.popN(len(tag.Type.Params))
		panic(&thrownException{tag: tag, tagIdx: uint32(instr.Imm), payload: payload})

	case wasm.OpThrowRef:
		id := ce.pop()
		exc, ok := ce.exnRefs[id]
		if !ok {
			panic(wasmruntime.ErrRuntimeUncaughtException)
		}
		panic(exc)

	case wasm.OpRethrow:
		depth := int(instr.Imm)
		if depth >= len(ce.activeExceptions) {
			panic(wasmruntime.ErrRuntimeUncaughtException)
		}
		exc := ce.activeExceptions[len(ce.activeExceptions)-1-depth]
		panic(exc)

	case wasm.OpCatch, wasm.OpCatchAll, wasm.OpDelegate:
		// Reached only if control ever falls into a catch handler's marker
		// directly (it shouldn't: handleTry jumps straight to a clause's
		// Target, past the marker). Treated as a no-op, like Block/Loop/End.
	}
	return false
}

// handleTry runs a try construct: its body, recovering a thrownException
// that escapes it, dispatching to the first matching catch clause (or
// re-panicking past this try if none match, which is also the entire
// behavior of try...delegate and try with no catches at all).
//
// Instruction encoding convention for OpTry (decoder's responsibility, out
// of scope here): Imm is the pc where the try body ends and the catch
// dispatch section begins (the first "catch"/"catch_all" marker, or equal
// to the construct's end pc for a bare try...delegate); BrTargets[0] is the
// pc immediately after the whole try/catch/delegate construct.
func handleTry(e *Engine, ctx context.Context, ce *callEngine, frame *callFrame, instr wasm.Instruction) {
	bodyEnd := int(instr.Imm)
	endPC := instr.BrTargets[0]
	stackBase := len(ce.stack)
	framesBase := len(ce.frames)

	frame.pc++ // step past the try marker before running its body
	exc := runCatching(e, ctx, ce, frame, bodyEnd)
	if exc == nil {
		frame.pc = endPC
		return
	}

	// The unwound-past nested calls never got to pop their own frames
	// (callWasm's popFrame isn't deferred, matching how an uncaught trap
	// behaves); a caught exception means those activations are gone for
	// good, so clear them here rather than at the next call site.
	ce.frames = ce.frames[:framesBase]

	for _, c := range instr.CatchTargets {
		if !c.CatchAll && c.TagIdx != exc.tagIdx {
			continue
		}
		ce.stack = ce.stack[:stackBase]
		for _, v := range exc.payload {
			ce.push(v)
		}
		if c.CapturedExnRef {
			ce.push(ce.newExnRef(exc))
		}
		ce.activeExceptions = append(ce.activeExceptions, exc)
		frame.pc = c.Target
		e.run(ctx, ce, endPC)
		ce.activeExceptions = ce.activeExceptions[:len(ce.activeExceptions)-1]
		frame.pc = endPC
		return
	}

	// No clause matched (including the try...delegate case, which has none):
	// propagate to whatever enclosing try's runCatching is next up the Go
	// call stack, or to Invoke's top-level recover if there is none.
	panic(exc)
}

// runCatching runs frame's body from its current pc up to (excluding)
// bodyEnd, recovering any *thrownException that escapes it (including one a
// nested try re-panicked because none of its clauses matched) and returning
// it instead of letting it propagate further; any other panic (a trap) is
// re-raised as-is.
func runCatching(e *Engine, ctx context.Context, ce *callEngine, frame *callFrame, bodyEnd int) (exc *thrownException) {
	defer func() {
		if r := recover(); r != nil {
			if te, ok := r.(*thrownException); ok {
				exc = te
				return
			}
			panic(r)
		}
	}()
	e.run(ctx, ce, bodyEnd)
	return nil
}
