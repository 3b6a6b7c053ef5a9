package core

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestHostModuleBuilder_ExportMemory(t *testing.T) {
	e := NewEngine(NewEngineConfig())
	b, err := e.NewHostModuleBuilder("env")
	require.NoError(t, err)

	b.ExportMemory("memory", 1)

	compiled, err := b.Compile(context.Background())
	require.NoError(t, err)
	require.Equal(t, "env", compiled.Name())
}

func TestHostModuleBuilder_ExportMemoryWithMax(t *testing.T) {
	e := NewEngine(NewEngineConfig())
	b, err := e.NewHostModuleBuilder("env")
	require.NoError(t, err)

	b.ExportMemoryWithMax("memory", 1, 10)

	_, err = b.Compile(context.Background())
	require.NoError(t, err)
}

func TestHostModuleBuilder_Compile_RejectsUnsupportedSignature(t *testing.T) {
	e := NewEngine(NewEngineConfig())
	b, err := e.NewHostModuleBuilder("env")
	require.NoError(t, err)

	b.NewFunctionBuilder().
		WithFunc(func(s string) uint32 { return uint32(len(s)) }).
		Export("bad")

	_, err = b.Compile(context.Background())
	require.Error(t, err)
	require.Contains(t, err.Error(), `host func "bad"`)
}

func TestHostModuleBuilder_Compile_MultipleFunctionsPreserveNames(t *testing.T) {
	e := NewEngine(NewEngineConfig())
	b, err := e.NewHostModuleBuilder("env")
	require.NoError(t, err)

	b.NewFunctionBuilder().
		WithFunc(func(x uint32) uint32 { return x }).
		WithName("identity").
		WithParameterNames("x").
		WithResultNames("result").
		Export("identity")

	b.NewFunctionBuilder().
		WithFunc(func(x, y uint32) uint32 { return x + y }).
		Export("add")

	compiled, err := b.Compile(context.Background())
	require.NoError(t, err)
	require.NotNil(t, compiled.module)
	require.Len(t, compiled.module.Exports, 2)
}

func TestHostModuleBuilder_Instantiate(t *testing.T) {
	ctx := context.Background()
	e := NewEngine(NewEngineConfig())
	b, err := e.NewHostModuleBuilder("env")
	require.NoError(t, err)

	b.NewFunctionBuilder().WithFunc(func() uint32 { return 1 }).Export("one")

	mod, err := b.Instantiate(ctx)
	require.NoError(t, err)
	defer mod.Close(ctx)

	require.NotNil(t, mod.ExportedFunction("one"))
}
