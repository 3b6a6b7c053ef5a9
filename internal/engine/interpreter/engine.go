// Package interpreter implements the single-threaded opcode dispatch loop
// described in spec.md §5 ("Interpreter Engine"), plus the Stack Manager
// (stack.go) it runs on. Grounded on the teacher's internal/engine/
// interpreter package: the callEngine/callFrame split, the panic-based trap
// unwind recovered exactly once at the invoke boundary, and tail calls
// implemented by frame replacement rather than genuine stack elision.
package interpreter

import (
	"context"
	"fmt"
	"time"

	"github.com/wasmedge-go/core/internal/features"
	"github.com/wasmedge-go/core/internal/gcheap"
	"github.com/wasmedge-go/core/internal/stats"
	"github.com/wasmedge-go/core/internal/wasm"
	"github.com/wasmedge-go/core/internal/wasmdebug"
	"github.com/wasmedge-go/core/internal/wasmruntime"
)

// Engine is the top-level interpreter, one per Runtime (spec.md §5, §6).
// It holds no per-call mutable state; every Invoke gets a fresh callEngine,
// matching the teacher's moduleEngine.Call/newCallEngine split.
type Engine struct {
	Features features.Set
	Heap     *gcheap.Heap
	Counters *stats.Counters

	// TimeLimit arms a per-invocation wall-clock ceiling (spec.md §6.5
	// "time_limit_ms"); zero means none. It trips the same cancellation
	// check the opcode loop already performs, via context.WithTimeout.
	TimeLimit time.Duration
}

// NewEngine constructs an Engine with the given enabled proposal set.
func NewEngine(enabled features.Set) *Engine {
	return &Engine{Features: enabled, Heap: gcheap.NewHeap(), Counters: &stats.Counters{}}
}

var _ wasm.Invoker = (*Engine)(nil)

// Invoke runs fn with params, recovering any trap into a single wrapped
// error carrying a Wasm call-stack trace (spec.md §7 "Error handling").
// This is the one invoke-boundary recover the teacher performs; internally,
// traps propagate as panics all the way up through nested OpCall frames.
func (e *Engine) Invoke(ctx context.Context, fn *wasm.FunctionInstance, params []uint64) (results []uint64, err error) {
	if len(params) != len(fn.Type.Params) {
		return nil, fmt.Errorf("interpreter: expected %d params, got %d", len(fn.Type.Params), len(params))
	}

	if e.TimeLimit > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.TimeLimit)
		defer cancel()
	}

	ce := newCallEngine()
	defer func() {
		if v := recover(); v != nil {
			builder := wasmdebug.NewErrorBuilder()
			for i := len(ce.frames) - 1; i >= 0; i-- {
				f := ce.frames[i].fn
				builder.AddFrame(f.DebugName, f.Type.Params, f.Type.Results)
			}
			err = builder.FromRecovered(v)
		}
	}()

	e.Counters.StartWasmTimer()
	defer e.Counters.StopTimer()

	if fn.IsHostFunction {
		return e.callHost(ctx, ce, nil, fn, params)
	}

	for _, p := range params {
		ce.push(p)
	}
	e.callWasm(ctx, ce, fn)
	results = ce.popN(len(fn.Type.Results))
	return results, nil
}

// callWasm pushes a frame for fn and runs the dispatch loop to completion
// (fn.Body exhausted, or an OpReturn/tail-call unwinds it). Results remain
// on ce.stack for the caller to pop.
func (e *Engine) callWasm(ctx context.Context, ce *callEngine, fn *wasm.FunctionInstance) {
	frame := &callFrame{fn: fn, base: len(ce.stack) - len(fn.Type.Params)}
	ce.pushFrame(frame)

	for _, lt := range fn.LocalTypes {
		ce.push(wasm.ValType{Numeric: lt}.DefaultValue().Lo)
	}

	e.run(ctx, ce, len(fn.Body))
	ce.popFrame()
}

// callHost invokes a host function. callerModule is the module that issued
// the call instruction (nil for a top-level Invoke straight into a host
// function) — it, not fn.Module, is what a WithFunc callback sees as its
// api.Module parameter, matching a host import's "importing module" view.
func (e *Engine) callHost(ctx context.Context, ce *callEngine, callerModule *wasm.ModuleInstance, fn *wasm.FunctionInstance, params []uint64) ([]uint64, error) {
	frame := &callFrame{fn: fn}
	ce.pushFrame(frame)
	defer ce.popFrame()

	if ctx.Err() != nil {
		panic(wasmruntime.ErrRuntimeInterrupted)
	}

	e.Counters.StartHostTimer()
	defer e.Counters.StartWasmTimer()

	if fn.Cost > 0 && e.Counters.ChargeGas(fn.Cost) {
		panic(wasmruntime.ErrRuntimeCostLimitExceeded)
	}

	if callerModule == nil {
		callerModule = fn.Module
	}
	cf := wasm.NewCallingFrame(ctx, callerModule, e)
	return callGoFunc(cf, fn, params)
}

// run is the dispatch loop for the current top frame, mirroring the
// teacher's callNativeFunc: a for loop over frame.pc driven by a switch on
// instruction.Op, ending when pc reaches stopPC (normally the end of the
// function body, but a bounded sub-range when called reentrantly to
// execute a try block's body or a catch handler — see exception.go).
func (e *Engine) run(ctx context.Context, ce *callEngine, stopPC int) {
	frame := ce.currentFrame()
	body := frame.fn.Body

	for frame.pc < stopPC {
		instr := body[frame.pc]

		// Cancellation and cost-limit checks happen before the opcode is
		// dispatched, so a tripped limit leaves it un-retired (spec.md §4.8,
		// §4.9, testable property 4 and 5: "checked at each opcode boundary").
		if ctx.Err() != nil {
			panic(wasmruntime.ErrRuntimeInterrupted)
		}
		if e.Counters.ChargeGas(opCost(instr.Op)) {
			panic(wasmruntime.ErrRuntimeCostLimitExceeded)
		}
		e.Counters.CountInstruction()

		switch instr.Op {
		case wasm.OpUnreachable:
			panic(wasmruntime.ErrRuntimeUnreachable)
		case wasm.OpNop, wasm.OpBlock, wasm.OpLoop, wasm.OpEnd:
			// Structured markers carry no runtime effect once branch targets
			// are pre-resolved; they exist only as jump targets/fallthrough
			// points.
		case wasm.OpIf:
			cond := ce.pop()
			if cond == 0 {
				frame.pc = instr.BrTargets[0] // else/end target
				continue
			}
		case wasm.OpElse:
			frame.pc = instr.BrTargets[0] // end target, skipping the else body
			continue
		case wasm.OpBr:
			ce.dropKeep(instr.BrDrops[0], instr.BrKeeps[0])
			frame.pc = instr.BrTargets[0]
			continue
		case wasm.OpBrIf:
			if ce.pop() != 0 {
				ce.dropKeep(instr.BrDrops[0], instr.BrKeeps[0])
				frame.pc = instr.BrTargets[0]
				continue
			}
		case wasm.OpBrTable:
			idx := uint32(ce.pop())
			last := len(instr.BrTargets) - 1
			if int(idx) > last-1 || int(idx) >= last {
				idx = uint32(last)
			}
			ce.dropKeep(instr.BrDrops[idx], instr.BrKeeps[idx])
			frame.pc = instr.BrTargets[idx]
			continue
		case wasm.OpReturn:
			return
		case wasm.OpDrop:
			ce.pop()
		case wasm.OpSelect, wasm.OpTypedSelect:
			cond := ce.pop()
			v2 := ce.pop()
			v1 := ce.pop()
			if cond != 0 {
				ce.push(v1)
			} else {
				ce.push(v2)
			}
		case wasm.OpLocalGet:
			ce.push(ce.stack[frame.base+int(instr.Imm)])
		case wasm.OpLocalSet:
			ce.stack[frame.base+int(instr.Imm)] = ce.pop()
		case wasm.OpLocalTee:
			ce.stack[frame.base+int(instr.Imm)] = ce.peek()
		case wasm.OpGlobalGet:
			ce.push(frame.fn.Module.Globals[instr.Imm].Get().Lo)
		case wasm.OpGlobalSet:
			g := frame.fn.Module.Globals[instr.Imm]
			nv := g.Val
			nv.Lo = ce.pop()
			g.Set(nv)

		case wasm.OpCall:
			e.execCall(ctx, ce, frame.fn.Module, frame.fn.Module.Functions[instr.Imm])
		case wasm.OpCallIndirect:
			e.execCallIndirect(ctx, ce, frame, instr)
		case wasm.OpReturnCall:
			target := frame.fn.Module.Functions[instr.Imm]
			callerModule := frame.fn.Module
			ce.popFrame()
			e.tailCall(ctx, ce, callerModule, target)
			return
		case wasm.OpReturnCallIndirect:
			target := e.resolveIndirect(ce, frame, instr)
			callerModule := frame.fn.Module
			ce.popFrame()
			e.tailCall(ctx, ce, callerModule, target)
			return

		case wasm.OpRefNull:
			ce.push(0)
		case wasm.OpRefIsNull:
			ce.push(b2u64(ce.pop() == 0))
		case wasm.OpRefFunc:
			ce.push(uint64(instr.Imm) + 1) // 0 reserved for null; see views for decode

		case wasm.OpTableGet:
			t := frame.fn.Module.Tables[instr.Imm]
			v := t.Get(uint32(ce.pop()))
			ce.push(v.Lo)
		case wasm.OpTableSet:
			t := frame.fn.Module.Tables[instr.Imm]
			val := ce.pop()
			idx := uint32(ce.pop())
			t.Set(idx, wasm.Value{Lo: val, IsNull: val == 0, RefType: t.Type}, frame.fn.Module)
		case wasm.OpTableSize:
			ce.push(uint64(frame.fn.Module.Tables[instr.Imm].Size()))
		case wasm.OpTableGrow:
			t := frame.fn.Module.Tables[instr.Imm]
			n := uint32(ce.pop())
			init := ce.pop()
			ce.push(uint64(t.Grow(n, wasm.Value{Lo: init, IsNull: init == 0, RefType: t.Type})))
		case wasm.OpTableFill:
			t := frame.fn.Module.Tables[instr.Imm]
			n := uint32(ce.pop())
			val := ce.pop()
			offset := uint32(ce.pop())
			t.Fill(offset, n, wasm.Value{Lo: val, IsNull: val == 0, RefType: t.Type}, frame.fn.Module)
		case wasm.OpTableCopy:
			dst := frame.fn.Module.Tables[instr.Imm]
			src := frame.fn.Module.Tables[instr.Imm2]
			n := uint32(ce.pop())
			srcOff := uint32(ce.pop())
			dstOff := uint32(ce.pop())
			src.Copy(dst, dstOff, srcOff, n)
		case wasm.OpTableInit:
			t := frame.fn.Module.Tables[instr.Imm]
			elem := frame.fn.Module.Elements[instr.Imm2]
			n := uint32(ce.pop())
			srcOff := uint32(ce.pop())
			dstOff := uint32(ce.pop())
			t.Init(dstOff, elem, srcOff, n)
		case wasm.OpElemDrop:
			frame.fn.Module.Elements[instr.Imm].Drop()

		case wasm.OpMemorySize:
			ce.push(uint64(frame.fn.Module.Memories[instr.Mem.MemIdx].PageSize()))
		case wasm.OpMemoryGrow:
			m := frame.fn.Module.Memories[instr.Mem.MemIdx]
			old, ok := m.Grow(uint32(ce.pop()))
			if !ok {
				ce.push(0xffffffff)
			} else {
				ce.push(uint64(old))
			}
		case wasm.OpMemoryFill:
			m := frame.fn.Module.Memories[instr.Mem.MemIdx]
			n := uint32(ce.pop())
			val := byte(ce.pop())
			offset := uint32(ce.pop())
			m.Fill(offset, n, val)
		case wasm.OpMemoryCopy:
			m := frame.fn.Module.Memories[instr.Mem.MemIdx]
			n := uint32(ce.pop())
			srcOff := uint32(ce.pop())
			dstOff := uint32(ce.pop())
			m.Copy(dstOff, srcOff, n)
		case wasm.OpMemoryInit:
			m := frame.fn.Module.Memories[instr.Mem.MemIdx]
			d := frame.fn.Module.Datas[instr.Imm2]
			n := uint32(ce.pop())
			srcOff := uint32(ce.pop())
			dstOff := uint32(ce.pop())
			m.InitFrom(dstOff, d, srcOff, n)
		case wasm.OpDataDrop:
			frame.fn.Module.Datas[instr.Imm].Drop()

		case wasm.OpLoad:
			execLoad(ce, frame.fn.Module.Memories[instr.Mem.MemIdx], instr)
		case wasm.OpStore:
			execStore(ce, frame.fn.Module.Memories[instr.Mem.MemIdx], instr)

		case wasm.OpConstI32:
			ce.push(uint64(uint32(instr.ConstI32)))
		case wasm.OpConstI64:
			ce.push(uint64(instr.ConstI64))
		case wasm.OpConstF32, wasm.OpConstF64:
			ce.push(instr.ConstBits)
		case wasm.OpConstV128:
			ce.push(instr.ConstBits)
			ce.push(instr.ConstHi)

		case wasm.OpUnary:
			execUnary(ce, wasm.NumKind(instr.Imm))
		case wasm.OpBinary:
			execBinary(ce, wasm.NumKind(instr.Imm))
		case wasm.OpCompare:
			execCompare(ce, wasm.NumKind(instr.Imm))
		case wasm.OpConversion:
			execConversion(ce, wasm.NumKind(instr.Imm))

		case wasm.OpVecOp:
			execVec(ce, instr)
		case wasm.OpAtomicOp:
			execAtomic(ce, frame.fn.Module.Memories[instr.Mem.MemIdx], instr)

		case wasm.OpStructNew, wasm.OpStructNewDefault, wasm.OpStructGet, wasm.OpStructGetS,
			wasm.OpStructGetU, wasm.OpStructSet, wasm.OpArrayNew, wasm.OpArrayNewDefault,
			wasm.OpArrayNewFixed, wasm.OpArrayNewData, wasm.OpArrayNewElem, wasm.OpArrayGet,
			wasm.OpArrayGetS, wasm.OpArrayGetU, wasm.OpArraySet, wasm.OpArrayLen,
			wasm.OpArrayFill, wasm.OpArrayCopy, wasm.OpI31New, wasm.OpI31GetS, wasm.OpI31GetU,
			wasm.OpRefTest, wasm.OpRefCast, wasm.OpRefAsNonNull, wasm.OpRefEq,
			wasm.OpBrOnNull, wasm.OpBrOnNonNull, wasm.OpBrOnCast, wasm.OpBrOnCastFail,
			wasm.OpAnyConvertExtern, wasm.OpExternConvertAny:
			if execGC(e, ce, frame, instr) {
				continue
			}

		case wasm.OpTry, wasm.OpCatch, wasm.OpCatchAll, wasm.OpDelegate, wasm.OpThrow,
			wasm.OpThrowRef, wasm.OpRethrow:
			if execException(e, ctx, ce, frame, instr) {
				continue
			}

		default:
			panic(wasmruntime.ErrRuntimeIllegalOpCode)
		}

		frame.pc++
	}
}

func (e *Engine) execCall(ctx context.Context, ce *callEngine, callerModule *wasm.ModuleInstance, target *wasm.FunctionInstance) {
	if target.IsHostFunction {
		params := ce.popN(len(target.Type.Params))
		res, err := e.callHost(ctx, ce, callerModule, target, params)
		if err != nil {
			panic(err)
		}
		for _, r := range res {
			ce.push(r)
		}
		return
	}
	e.callWasm(ctx, ce, target)
}

// tailCall replaces the current invocation with target without growing the
// frame stack further (return_call family, spec.md §4.6): the caller has
// already popped its own frame before this runs.
func (e *Engine) tailCall(ctx context.Context, ce *callEngine, callerModule *wasm.ModuleInstance, target *wasm.FunctionInstance) {
	if target.IsHostFunction {
		params := ce.popN(len(target.Type.Params))
		res, err := e.callHost(ctx, ce, callerModule, target, params)
		if err != nil {
			panic(err)
		}
		for _, r := range res {
			ce.push(r)
		}
		return
	}
	e.callWasm(ctx, ce, target)
}

func (e *Engine) execCallIndirect(ctx context.Context, ce *callEngine, frame *callFrame, instr wasm.Instruction) {
	target := e.resolveIndirect(ce, frame, instr)
	e.execCall(ctx, ce, frame.fn.Module, target)
}

func (e *Engine) resolveIndirect(ce *callEngine, frame *callFrame, instr wasm.Instruction) *wasm.FunctionInstance {
	table := frame.fn.Module.Tables[instr.Imm2]
	idx := uint32(ce.pop())
	v := table.Get(idx)
	if v.IsNull || v.Lo == 0 {
		panic(wasmruntime.ErrRuntimeUndefinedElement)
	}
	funcIdx := uint32(v.Lo - 1)
	if fnRef, ok := v.FuncRef.(*wasm.FunctionInstance); ok {
		funcIdx = fnRef.Idx
	}
	if int(funcIdx) >= len(frame.fn.Module.Functions) {
		panic(wasmruntime.ErrRuntimeUndefinedElement)
	}
	fn := frame.fn.Module.Functions[funcIdx]
	wantType := frame.fn.Module.Types[instr.Imm].Func
	if !fn.Type.EqualsSignature(wantType.Params, wantType.Results) {
		panic(wasmruntime.ErrRuntimeIndirectCallTypeMismatch)
	}
	return fn
}
