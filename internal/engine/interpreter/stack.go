package interpreter

import (
	"github.com/wasmedge-go/core/internal/wasm"
	"github.com/wasmedge-go/core/internal/wasmruntime"
)

// callStackCeiling bounds recursion depth (spec.md §4.6 "callstack
// overflow"), grounded on the teacher's buildoptions.CallStackCeiling.
var callStackCeiling = 2000

// callFrame is one entry of the interpreter's frame stack: a function
// activation with its own program counter and locals window (spec.md §5
// "Stack Manager" — frame stack).
type callFrame struct {
	fn   *wasm.FunctionInstance
	pc   int
	// base is the index into callEngine.stack where this frame's locals
	// begin; locals live on the same operand stack slice as temporaries,
	// consistent with the teacher's unified value stack.
	base int
}

// callEngine holds the per-invocation operand stack and frame stack, reset
// for each top-level Invoke the way the teacher allocates a fresh callEngine
// per moduleEngine.Call (spec.md §5).
type callEngine struct {
	stack  []uint64
	frames []*callFrame

	// activeExceptions and exnRefs support the exception-handling proposal's
	// rethrow/catch_ref/throw_ref (exception.go): activeExceptions is the
	// stack of exceptions currently being handled by an enclosing catch
	// body (innermost last), and exnRefs maps an exnref handle pushed by a
	// catch_ref clause back to the exception object it names, since the
	// operand stack itself can only carry a uint64.
	activeExceptions []*thrownException
	exnRefs          map[uint64]*thrownException
	nextExnRef       uint64
}

func newCallEngine() *callEngine { return &callEngine{} }

// newExnRef registers exc and returns an opaque, never-zero handle for it.
func (ce *callEngine) newExnRef(exc *thrownException) uint64 {
	if ce.exnRefs == nil {
		ce.exnRefs = make(map[uint64]*thrownException)
	}
	ce.nextExnRef++
	ce.exnRefs[ce.nextExnRef] = exc
	return ce.nextExnRef
}

func (ce *callEngine) push(v uint64) { ce.stack = append(ce.stack, v) }

func (ce *callEngine) pop() uint64 {
	i := len(ce.stack) - 1
	v := ce.stack[i]
	ce.stack = ce.stack[:i]
	return v
}

func (ce *callEngine) peek() uint64 { return ce.stack[len(ce.stack)-1] }

// popN pops n values and returns them in original (bottom-to-top) order.
func (ce *callEngine) popN(n int) []uint64 {
	if n == 0 {
		return nil
	}
	i := len(ce.stack) - n
	out := make([]uint64, n)
	copy(out, ce.stack[i:])
	ce.stack = ce.stack[:i]
	return out
}

func (ce *callEngine) pushFrame(f *callFrame) {
	if len(ce.frames) >= callStackCeiling {
		panic(wasmruntime.ErrRuntimeCallStackOverflow)
	}
	ce.frames = append(ce.frames, f)
}

func (ce *callEngine) popFrame() *callFrame {
	i := len(ce.frames) - 1
	f := ce.frames[i]
	ce.frames = ce.frames[:i]
	return f
}

func (ce *callEngine) currentFrame() *callFrame { return ce.frames[len(ce.frames)-1] }

// dropKeep removes the dropFromDepth values just below the top `keep` values, the
// unified implementation of a structured-control "br"'s stack adjustment
// (block/loop/if results, or a function return) — equivalent to the
// teacher's wazeroir.InclusiveRange-driven ce.drop.
func (ce *callEngine) dropKeep(dropFromDepth int, keep int) {
	top := len(ce.stack)
	keepStart := top - keep
	dropStart := keepStart - dropFromDepth
	if dropFromDepth == 0 {
		return
	}
	copy(ce.stack[dropStart:dropStart+keep], ce.stack[keepStart:top])
	ce.stack = ce.stack[:dropStart+keep]
}
