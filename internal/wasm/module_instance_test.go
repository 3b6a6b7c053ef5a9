package wasm

import (
	"context"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/require"

	"github.com/wasmedge-go/core/api"
)

func newTestModuleInstance() *ModuleInstance {
	m := &ModuleInstance{
		ModuleName: "m",
		Functions:  []*FunctionInstance{{}},
		Memories:   []*MemoryInstance{{Min: 1}},
		Globals:    []*GlobalInstance{{}},
	}
	m.exports = map[string]Export{
		"fn":  {Name: "fn", Type: api.ExternTypeFunc, Index: 0},
		"mem": {Name: "mem", Type: api.ExternTypeMemory, Index: 0},
		"g":   {Name: "g", Type: api.ExternTypeGlobal, Index: 0},
	}
	return m
}

func TestModuleInstance_ExportedFunction(t *testing.T) {
	m := newTestModuleInstance()

	require.NotNil(t, m.ExportedFunction("fn"))
	require.Nil(t, m.ExportedFunction("missing"))
	require.Nil(t, m.ExportedFunction("mem")) // wrong kind
}

func TestModuleInstance_ExportedMemory(t *testing.T) {
	m := newTestModuleInstance()

	require.NotNil(t, m.ExportedMemory("mem"))
	require.Nil(t, m.ExportedMemory("fn"))
}

func TestModuleInstance_ExportedGlobal(t *testing.T) {
	m := newTestModuleInstance()

	require.NotNil(t, m.ExportedGlobal("g"))
	require.Nil(t, m.ExportedGlobal("mem"))
}

func TestModuleInstance_Memory_FirstDefinedOrImported(t *testing.T) {
	m := &ModuleInstance{}
	require.Nil(t, m.Memory())

	m.Memories = []*MemoryInstance{{Min: 1}}
	require.NotNil(t, m.Memory())
}

func TestModuleInstance_LookupExport(t *testing.T) {
	m := newTestModuleInstance()

	e, ok := m.LookupExport("fn")
	require.True(t, ok)
	require.Equal(t, api.ExternTypeFunc, e.Type)

	_, ok = m.LookupExport("missing")
	require.False(t, ok)
}

func TestModuleInstance_Exports_ReturnsAll(t *testing.T) {
	m := newTestModuleInstance()

	want := []Export{
		{Name: "fn", Type: api.ExternTypeFunc, Index: 0},
		{Name: "mem", Type: api.ExternTypeMemory, Index: 0},
		{Name: "g", Type: api.ExternTypeGlobal, Index: 0},
	}
	got := m.Exports()

	// Exports() iterates a map, so compare ignoring order.
	sortExports := cmpopts.SortSlices(func(a, b Export) bool { return a.Name < b.Name })
	if diff := cmp.Diff(want, got, sortExports); diff != "" {
		t.Errorf("Exports() mismatch (-want +got):\n%s", diff)
	}
}

func TestModuleInstance_Close_NoOwnerStore(t *testing.T) {
	m := &ModuleInstance{ModuleName: "standalone"}
	require.False(t, m.IsClosed())

	require.NoError(t, m.Close(context.Background()))
	require.True(t, m.IsClosed())

	// Closing again is a no-op, not an error.
	require.NoError(t, m.Close(context.Background()))
}

func TestModuleInstance_Close_RoutesThroughStore(t *testing.T) {
	s := NewStore()
	m := &ModuleInstance{ModuleName: "env"}
	require.NoError(t, s.Register(m, nil))
	m.ownerStore = s

	require.NoError(t, m.Close(context.Background()))
	require.True(t, m.IsClosed())

	_, ok := s.Module("env")
	require.False(t, ok)
}
