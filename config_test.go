package core

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/wasmedge-go/core/internal/features"
)

func TestNewEngineConfig_Defaults(t *testing.T) {
	c := NewEngineConfig()
	require.Equal(t, features.Baseline20, c.enabledFeatures)
	require.Equal(t, uint32(defaultMaxMemoryPages), c.maxMemoryPages)
	require.False(t, c.pluginForbidden("anything"))
}

func TestEngineConfig_WithFeature_DoesNotMutateReceiver(t *testing.T) {
	base := NewEngineConfig()
	withTail := base.WithFeature(features.TailCall, true)

	require.False(t, base.enabledFeatures.IsEnabled(features.TailCall))
	require.True(t, withTail.enabledFeatures.IsEnabled(features.TailCall))
}

func TestEngineConfig_WithAllFeatures(t *testing.T) {
	c := NewEngineConfig().WithAllFeatures()
	require.Equal(t, features.All, c.enabledFeatures)
}

func TestEngineConfig_WithMaxMemoryPages(t *testing.T) {
	c := NewEngineConfig().WithMaxMemoryPages(10)
	require.Equal(t, uint32(10), c.maxMemoryPages)
}

func TestEngineConfig_WithStatistics(t *testing.T) {
	c := NewEngineConfig().WithStatistics(true, true, false)
	require.True(t, c.statsInstructionCount)
	require.True(t, c.statsGas)
	require.False(t, c.statsTime)
}

func TestEngineConfig_WithGasLimit(t *testing.T) {
	c := NewEngineConfig().WithGasLimit(1000)
	require.Equal(t, uint64(1000), c.gasLimit)
}

func TestEngineConfig_WithForbiddenPlugins(t *testing.T) {
	c := NewEngineConfig().WithForbiddenPlugins("env", "wasi_snapshot_preview1")
	require.True(t, c.pluginForbidden("env"))
	require.True(t, c.pluginForbidden("wasi_snapshot_preview1"))
	require.False(t, c.pluginForbidden("other"))
}

func TestEngineConfig_WithForbiddenPlugins_ClonePreservesIndependence(t *testing.T) {
	base := NewEngineConfig().WithForbiddenPlugins("env")
	derived := base.WithForbiddenPlugins("other")

	require.True(t, base.pluginForbidden("env"))
	require.False(t, base.pluginForbidden("other"))
	require.True(t, derived.pluginForbidden("other"))
	require.False(t, derived.pluginForbidden("env"))
}

func TestEngineConfig_WithCompilationCache(t *testing.T) {
	cache := NewModuleCache(4)
	c := NewEngineConfig().WithCompilationCache(cache)
	require.Same(t, cache, c.cache)
}

func TestEngineConfig_Clone_DeepCopiesForbiddenPlugins(t *testing.T) {
	base := NewEngineConfig().WithForbiddenPlugins("env")
	clone := base.clone()

	clone.forbiddenPlugins["extra"] = struct{}{}
	require.False(t, base.pluginForbidden("extra"))
}
