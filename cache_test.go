package core

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestModuleCache_GetPut(t *testing.T) {
	c := NewModuleCache(2)
	cm := &CompiledModule{name: "m1"}

	_, ok := c.get("k1")
	require.False(t, ok)

	c.put("k1", cm)
	got, ok := c.get("k1")
	require.True(t, ok)
	require.Same(t, cm, got)
}

func TestModuleCache_Eviction(t *testing.T) {
	c := NewModuleCache(1)
	first := &CompiledModule{name: "first"}
	second := &CompiledModule{name: "second"}

	c.put("k1", first)
	c.put("k2", second)

	_, ok := c.get("k1")
	require.False(t, ok, "k1 should have been evicted once the cache exceeded its size")

	got, ok := c.get("k2")
	require.True(t, ok)
	require.Same(t, second, got)
}

func TestModuleCache_EmptyKeyIsNeverCached(t *testing.T) {
	c := NewModuleCache(2)
	c.put("", &CompiledModule{name: "anon"})

	_, ok := c.get("")
	require.False(t, ok)
}

func TestModuleCache_NilReceiverIsSafe(t *testing.T) {
	var c *ModuleCache

	_, ok := c.get("k1")
	require.False(t, ok)

	c.put("k1", &CompiledModule{})
	c.Close()
}

func TestModuleCache_Close(t *testing.T) {
	c := NewModuleCache(2)
	c.put("k1", &CompiledModule{name: "m1"})

	c.Close()

	_, ok := c.get("k1")
	require.False(t, ok)
}

func TestNewModuleCache_NonPositiveSizeFallsBackToOne(t *testing.T) {
	c := NewModuleCache(0)
	require.NotNil(t, c)

	c.put("k1", &CompiledModule{name: "m1"})
	c.put("k2", &CompiledModule{name: "m2"})

	_, ok := c.get("k1")
	require.False(t, ok)
	_, ok = c.get("k2")
	require.True(t, ok)
}
