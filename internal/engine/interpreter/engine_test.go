package interpreter

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/wasmedge-go/core/internal/features"
	"github.com/wasmedge-go/core/internal/wasm"
	"github.com/wasmedge-go/core/internal/wasmruntime"
)

func TestEngine_Invoke_WasmAdd(t *testing.T) {
	e := NewEngine(features.Baseline20)

	mod := &wasm.ModuleInstance{}
	fn := &wasm.FunctionInstance{
		Module: mod,
		Type:   &wasm.FunctionType{Params: []wasm.ValueType{wasm.ValueTypeI32, wasm.ValueTypeI32}, Results: []wasm.ValueType{wasm.ValueTypeI32}},
		Body: []wasm.Instruction{
			{Op: wasm.OpLocalGet, Imm: 0},
			{Op: wasm.OpLocalGet, Imm: 1},
			{Op: wasm.OpBinary, Imm: uint64(wasm.NumI32Add)},
		},
	}
	mod.Functions = []*wasm.FunctionInstance{fn}

	results, err := e.Invoke(context.Background(), fn, []uint64{3, 4})
	require.NoError(t, err)
	require.Equal(t, []uint64{7}, results)
}

func TestEngine_Invoke_Unreachable(t *testing.T) {
	e := NewEngine(features.Baseline20)

	mod := &wasm.ModuleInstance{}
	fn := &wasm.FunctionInstance{
		Module: mod,
		Type:   &wasm.FunctionType{},
		Body:   []wasm.Instruction{{Op: wasm.OpUnreachable}},
	}

	_, err := e.Invoke(context.Background(), fn, nil)
	require.Error(t, err)
}

func TestEngine_Invoke_ParamCountMismatch(t *testing.T) {
	e := NewEngine(features.Baseline20)

	fn := &wasm.FunctionInstance{
		Type: &wasm.FunctionType{Params: []wasm.ValueType{wasm.ValueTypeI32}},
	}

	_, err := e.Invoke(context.Background(), fn, nil)
	require.Error(t, err)
}

func TestEngine_Invoke_HostFunction(t *testing.T) {
	e := NewEngine(features.Baseline20)
	wasm.SetInvoker(e)

	double := func(x uint32) uint32 { return x * 2 }
	nameToHostFunc := map[string]*wasm.HostFunc{
		"double": {ExportName: "double", GoFunc: double, ParamTypes: []wasm.ValueType{wasm.ValueTypeI32}, ResultTypes: []wasm.ValueType{wasm.ValueTypeI32}},
	}
	hostMod, err := wasm.NewHostModule("env", []string{"double"}, nameToHostFunc, nil)
	require.NoError(t, err)

	a := &wasm.Instantiator{Store: wasm.NewStore()}
	mi, err := a.Instantiate(e, wasm.InstantiateArgs{Name: "env", Module: hostMod})
	require.NoError(t, err)

	fn := mi.ExportedFunction("double")
	require.NotNil(t, fn)

	results, err := fn.Call(context.Background(), 21)
	require.NoError(t, err)
	require.Equal(t, []uint64{42}, results)
}

// divFunc builds the S2 scenario: div(i32,i32)->i32 = local.get 0; local.get
// 1; i32.div_s; end, three opcodes worth of gas.
func divFunc(mod *wasm.ModuleInstance) *wasm.FunctionInstance {
	fn := &wasm.FunctionInstance{
		Module: mod,
		Type:   &wasm.FunctionType{Params: []wasm.ValueType{wasm.ValueTypeI32, wasm.ValueTypeI32}, Results: []wasm.ValueType{wasm.ValueTypeI32}},
		Body: []wasm.Instruction{
			{Op: wasm.OpLocalGet, Imm: 0},
			{Op: wasm.OpLocalGet, Imm: 1},
			{Op: wasm.OpBinary, Imm: uint64(wasm.NumI32DivS)},
		},
	}
	mod.Functions = []*wasm.FunctionInstance{fn}
	return fn
}

func TestEngine_Invoke_GasChargedPerOpcode(t *testing.T) {
	e := NewEngine(features.Baseline20)
	e.Counters.EnableGas(true, 100)

	fn := divFunc(&wasm.ModuleInstance{})
	_, err := e.Invoke(context.Background(), fn, []uint64{10, 2})
	require.NoError(t, err)
	require.Equal(t, uint64(3), e.Counters.Snapshot().GasUsed)
}

func TestEngine_Invoke_GasLimitExceeded(t *testing.T) {
	e := NewEngine(features.Baseline20)
	e.Counters.EnableGas(true, 2)

	fn := divFunc(&wasm.ModuleInstance{})
	_, err := e.Invoke(context.Background(), fn, []uint64{10, 2})
	require.Error(t, err)

	snap := e.Counters.Snapshot()
	require.Equal(t, uint64(2), snap.GasUsed, "gas_used should saturate at gas_limit, not overshoot it")
}

func TestEngine_Invoke_Cancellation(t *testing.T) {
	e := NewEngine(features.Baseline20)

	mod := &wasm.ModuleInstance{}
	fn := &wasm.FunctionInstance{
		Module: mod,
		Type:   &wasm.FunctionType{},
		Body: []wasm.Instruction{
			{Op: wasm.OpNop},
			{Op: wasm.OpNop},
			{Op: wasm.OpNop},
		},
	}
	mod.Functions = []*wasm.FunctionInstance{fn}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := e.Invoke(ctx, fn, nil)
	require.ErrorIs(t, err, wasmruntime.ErrRuntimeInterrupted)
}

func TestEngine_Invoke_TimeLimit(t *testing.T) {
	e := NewEngine(features.Baseline20)
	e.TimeLimit = time.Millisecond

	mod := &wasm.ModuleInstance{}
	body := make([]wasm.Instruction, 0, 1<<20)
	for i := 0; i < cap(body); i++ {
		body = append(body, wasm.Instruction{Op: wasm.OpNop})
	}
	fn := &wasm.FunctionInstance{Module: mod, Type: &wasm.FunctionType{}, Body: body}
	mod.Functions = []*wasm.FunctionInstance{fn}

	_, err := e.Invoke(context.Background(), fn, nil)
	require.ErrorIs(t, err, wasmruntime.ErrRuntimeInterrupted)
}
