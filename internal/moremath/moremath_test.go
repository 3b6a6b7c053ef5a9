package moremath

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestWasmCompatMin(t *testing.T) {
	require.True(t, math.IsNaN(WasmCompatMin(math.NaN(), 1)))
	require.True(t, math.IsNaN(WasmCompatMin(1, math.NaN())))
	require.Equal(t, math.Inf(-1), WasmCompatMin(math.Inf(-1), 5))
	require.Equal(t, float64(1), WasmCompatMin(1, 2))
	require.Equal(t, float64(1), WasmCompatMin(2, 1))

	require.True(t, math.Signbit(WasmCompatMin(math.Copysign(0, -1), 0)))
	require.True(t, math.Signbit(WasmCompatMin(0, math.Copysign(0, -1))))
}

func TestWasmCompatMax(t *testing.T) {
	require.True(t, math.IsNaN(WasmCompatMax(math.NaN(), 1)))
	require.True(t, math.IsNaN(WasmCompatMax(1, math.NaN())))
	require.Equal(t, math.Inf(1), WasmCompatMax(math.Inf(1), 5))
	require.Equal(t, float64(2), WasmCompatMax(1, 2))
	require.Equal(t, float64(2), WasmCompatMax(2, 1))

	require.False(t, math.Signbit(WasmCompatMax(math.Copysign(0, -1), 0)))
	require.False(t, math.Signbit(WasmCompatMax(0, math.Copysign(0, -1))))
}

func TestWasmCompatNearest(t *testing.T) {
	require.True(t, math.IsNaN(WasmCompatNearest(math.NaN())))
	require.Equal(t, math.Inf(1), WasmCompatNearest(math.Inf(1)))
	require.Equal(t, float64(0), WasmCompatNearest(0))

	require.Equal(t, float64(2), WasmCompatNearest(2.5))
	require.Equal(t, float64(2), WasmCompatNearest(1.5))
	require.Equal(t, float64(-2), WasmCompatNearest(-2.5))
}

func TestTruncSat32(t *testing.T) {
	require.Equal(t, int32(0), I32TruncSatF64S(math.NaN()))
	require.Equal(t, int32(math.MinInt32), I32TruncSatF64S(-1e20))
	require.Equal(t, int32(math.MaxInt32), I32TruncSatF64S(1e20))
	require.Equal(t, int32(3), I32TruncSatF64S(3.9))

	require.Equal(t, uint32(0), I32TruncSatF64U(math.NaN()))
	require.Equal(t, uint32(0), I32TruncSatF64U(-1))
	require.Equal(t, uint32(math.MaxUint32), I32TruncSatF64U(1e20))
	require.Equal(t, uint32(3), I32TruncSatF64U(3.9))

	require.Equal(t, int32(3), I32TruncSatF32S(float32(3.9)))
	require.Equal(t, uint32(3), I32TruncSatF32U(float32(3.9)))
}

func TestTruncSat64(t *testing.T) {
	require.Equal(t, int64(0), I64TruncSatF64S(math.NaN()))
	require.Equal(t, int64(math.MinInt64), I64TruncSatF64S(-1e20))
	require.Equal(t, int64(math.MaxInt64), I64TruncSatF64S(1e20))
	require.Equal(t, int64(3), I64TruncSatF64S(3.9))

	require.Equal(t, uint64(0), I64TruncSatF64U(math.NaN()))
	require.Equal(t, uint64(0), I64TruncSatF64U(-1))
	require.Equal(t, uint64(math.MaxUint64), I64TruncSatF64U(1e20))
	require.Equal(t, uint64(3), I64TruncSatF64U(3.9))

	require.Equal(t, int64(3), I64TruncSatF32S(float32(3.9)))
	require.Equal(t, uint64(3), I64TruncSatF32U(float32(3.9)))
}
