package core

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/wasmedge-go/core/api"
	"github.com/wasmedge-go/core/internal/wasm"
	"github.com/wasmedge-go/core/internal/wasmruntime"
)

func TestEngine_HostModuleRoundTrip(t *testing.T) {
	ctx := context.Background()
	e := NewEngine(NewEngineConfig())

	b, err := e.NewHostModuleBuilder("env")
	require.NoError(t, err)

	b.NewFunctionBuilder().
		WithFunc(func(x, y uint32) uint32 { return x + y }).
		WithName("add").
		Export("add")

	mod, err := b.Instantiate(ctx)
	require.NoError(t, err)
	defer mod.Close(ctx)

	fn := mod.ExportedFunction("add")
	require.NotNil(t, fn)

	results, err := fn.Call(ctx, 2, 40)
	require.NoError(t, err)
	require.Equal(t, []uint64{42}, results)
}

func TestEngine_ForbiddenPlugin(t *testing.T) {
	e := NewEngine(NewEngineConfig().WithForbiddenPlugins("env"))

	_, err := e.NewHostModuleBuilder("env")
	require.Error(t, err)
}

func TestEngine_ResolveImportsFromRegisteredModule(t *testing.T) {
	ctx := context.Background()
	e := NewEngine(NewEngineConfig())

	providerBuilder, err := e.NewHostModuleBuilder("provider")
	require.NoError(t, err)
	providerBuilder.NewFunctionBuilder().WithFunc(func() uint32 { return 7 }).Export("seven")

	providerCompiled, err := providerBuilder.Compile(ctx)
	require.NoError(t, err)
	_, err = e.InstantiateModule(ctx, providerCompiled, "provider", nil)
	require.NoError(t, err)

	mainMod := &wasm.Module{
		Types: []*wasm.TypeDef{{Kind: wasm.TypeKindFunc, Func: &wasm.FunctionType{Results: []wasm.ValueType{wasm.ValueTypeI32}}}},
		ImportFuncs: []wasm.Import{
			{Module: "provider", Name: "seven", DescIndex: 0},
		},
	}
	compiled, err := e.CompileModule(ctx, "", mainMod)
	require.NoError(t, err)

	inst, err := e.InstantiateModule(ctx, compiled, "main", nil)
	require.NoError(t, err)
	defer inst.Close(ctx)
	require.Equal(t, "main", inst.Name())
}

func busyLoopModule(t *testing.T) *wasm.Module {
	t.Helper()
	body := make([]wasm.Instruction, 0, 1<<20)
	for i := 0; i < cap(body); i++ {
		body = append(body, wasm.Instruction{Op: wasm.OpNop})
	}
	return &wasm.Module{
		Types:               []*wasm.TypeDef{{Kind: wasm.TypeKindFunc, Func: &wasm.FunctionType{}}},
		FunctionTypeIndexes: []uint32{0},
		Code:                []wasm.Code{{Body: body}},
		Exports:             []wasm.Export{{Name: "loop", Type: api.ExternTypeFunc, Index: 0}},
	}
}

func TestEngine_InvokeAsync_Completes(t *testing.T) {
	ctx := context.Background()
	e := NewEngine(NewEngineConfig())

	b, err := e.NewHostModuleBuilder("env")
	require.NoError(t, err)
	b.NewFunctionBuilder().WithFunc(func() uint32 { return 5 }).Export("five")
	mod, err := b.Instantiate(ctx)
	require.NoError(t, err)
	defer mod.Close(ctx)

	async := e.InvokeAsync(ctx, mod.ExportedFunction("five"))
	results, err := async.Get()
	require.NoError(t, err)
	require.Equal(t, []uint64{5}, results)
}

func TestEngine_InvokeAsync_Cancel(t *testing.T) {
	ctx := context.Background()
	e := NewEngine(NewEngineConfig())

	compiled, err := e.CompileModule(ctx, "", busyLoopModule(t))
	require.NoError(t, err)
	inst, err := e.InstantiateModule(ctx, compiled, "looper", nil)
	require.NoError(t, err)
	defer inst.Close(ctx)

	async := e.InvokeAsync(ctx, inst.ExportedFunction("loop"))
	async.Cancel()

	_, err = async.Get()
	require.ErrorIs(t, err, wasmruntime.ErrRuntimeInterrupted)
}

func TestEngine_WithTimeLimit(t *testing.T) {
	ctx := context.Background()
	e := NewEngine(NewEngineConfig().WithTimeLimit(time.Millisecond))

	compiled, err := e.CompileModule(ctx, "", busyLoopModule(t))
	require.NoError(t, err)
	inst, err := e.InstantiateModule(ctx, compiled, "looper", nil)
	require.NoError(t, err)
	defer inst.Close(ctx)

	_, err = inst.ExportedFunction("loop").Call(ctx)
	require.ErrorIs(t, err, wasmruntime.ErrRuntimeInterrupted)
}
