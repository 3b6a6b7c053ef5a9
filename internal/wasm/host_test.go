package wasm

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/wasmedge-go/core/api"
)

func TestNewHostModule(t *testing.T) {
	add := func(x, y uint32) uint32 { return x + y }
	sub := func(x, y uint32) uint32 { return x - y }

	nameToHostFunc := map[string]*HostFunc{
		"add": {ExportName: "add", GoFunc: add, ParamTypes: []ValueType{ValueTypeI32, ValueTypeI32}, ResultTypes: []ValueType{ValueTypeI32}},
		"sub": {ExportName: "sub", GoFunc: sub, ParamTypes: []ValueType{ValueTypeI32, ValueTypeI32}, ResultTypes: []ValueType{ValueTypeI32}},
	}

	mod, err := NewHostModule("env", []string{"add", "sub"}, nameToHostFunc, map[string]*MemoryType{"memory": {Min: 1}})
	require.NoError(t, err)

	require.Len(t, mod.Types, 2)
	require.Len(t, mod.Code, 2)
	require.Equal(t, add, mod.Code[0].GoFunc)
	require.Equal(t, sub, mod.Code[1].GoFunc)

	var fnExports, memExports int
	for _, e := range mod.Exports {
		switch e.Type {
		case api.ExternTypeFunc:
			fnExports++
		case api.ExternTypeMemory:
			memExports++
			require.Equal(t, "memory", e.Name)
		}
	}
	require.Equal(t, 2, fnExports)
	require.Equal(t, 1, memExports)
	require.Len(t, mod.Memories, 1)
	require.EqualValues(t, 1, mod.Memories[0].Min)
}

func TestNewHostModule_UnresolvedExport(t *testing.T) {
	_, err := NewHostModule("env", []string{"missing"}, map[string]*HostFunc{}, nil)
	require.ErrorContains(t, err, `unresolved export "missing"`)
}

func TestNewHostModule_InsertionOrderPreserved(t *testing.T) {
	names := []string{"c", "a", "b"}
	nameToHostFunc := map[string]*HostFunc{
		"a": {ExportName: "a", GoFunc: func() {}},
		"b": {ExportName: "b", GoFunc: func() {}},
		"c": {ExportName: "c", GoFunc: func() {}},
	}

	mod, err := NewHostModule("env", names, nameToHostFunc, nil)
	require.NoError(t, err)

	var order []string
	for _, e := range mod.Exports {
		order = append(order, e.Name)
	}
	require.Equal(t, names, order)
}
