package wasm

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestStore_RegisterAndModule(t *testing.T) {
	s := NewStore()
	m := &ModuleInstance{ModuleName: "env"}

	require.NoError(t, s.Register(m, nil))

	got, ok := s.Module("env")
	require.True(t, ok)
	require.Same(t, m, got)

	_, ok = s.Module("missing")
	require.False(t, ok)
}

func TestStore_Register_NameConflict(t *testing.T) {
	s := NewStore()
	require.NoError(t, s.Register(&ModuleInstance{ModuleName: "env"}, nil))

	err := s.Register(&ModuleInstance{ModuleName: "env"}, nil)
	require.ErrorIs(t, err, ErrModuleNameConflict)
}

func TestStore_Drop_NotFound(t *testing.T) {
	s := NewStore()
	err := s.Drop(context.Background(), "missing")
	require.ErrorIs(t, err, ErrModuleNotFound)
}

func TestStore_Drop_RefusedWhileInUse(t *testing.T) {
	s := NewStore()
	require.NoError(t, s.Register(&ModuleInstance{ModuleName: "provider"}, nil))
	require.NoError(t, s.Register(&ModuleInstance{ModuleName: "main"}, []string{"provider"}))

	err := s.Drop(context.Background(), "provider")
	require.ErrorIs(t, err, ErrModuleInUse)
}

func TestStore_Drop_SucceedsOnceDependentGone(t *testing.T) {
	s := NewStore()
	require.NoError(t, s.Register(&ModuleInstance{ModuleName: "provider"}, nil))
	main := &ModuleInstance{ModuleName: "main"}
	require.NoError(t, s.Register(main, []string{"provider"}))

	require.NoError(t, s.Drop(context.Background(), "main"))
	require.True(t, main.IsClosed())

	require.NoError(t, s.Drop(context.Background(), "provider"))

	_, ok := s.Module("provider")
	require.False(t, ok)
}

func TestStore_Names_PreservesRegistrationOrder(t *testing.T) {
	s := NewStore()
	require.NoError(t, s.Register(&ModuleInstance{ModuleName: "a"}, nil))
	require.NoError(t, s.Register(&ModuleInstance{ModuleName: "b"}, nil))
	require.NoError(t, s.Register(&ModuleInstance{ModuleName: "c"}, nil))

	require.Equal(t, []string{"a", "b", "c"}, s.Names())
}

func TestStore_CloseAll(t *testing.T) {
	s := NewStore()
	a := &ModuleInstance{ModuleName: "a"}
	b := &ModuleInstance{ModuleName: "b"}
	require.NoError(t, s.Register(a, nil))
	require.NoError(t, s.Register(b, []string{"a"}))

	require.NoError(t, s.CloseAll(context.Background()))

	require.True(t, a.IsClosed())
	require.True(t, b.IsClosed())
	require.Empty(t, s.Names())

	_, ok := s.Module("a")
	require.False(t, ok)
}
