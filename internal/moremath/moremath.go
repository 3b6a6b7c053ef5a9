// Package moremath collects floating point helpers whose NaN/sign/infinity
// handling Wasm specifies differently from Go's math package. Grounded on
// the teacher's internal/moremath package (WasmCompatMin/Max carried over
// near-verbatim); the saturating-conversion and rounding helpers below are
// new, added to cover the nontrapping-float-to-int-conversion and
// sign-extension proposals the teacher's file didn't need to touch directly
// in this form.
package moremath

import "math"

// WasmCompatMin mirrors the "f32.min"/"f64.min" instruction: unlike
// math.Min, any NaN operand yields NaN even when the other is -Inf.
// https://github.com/golang/go/blob/1d20a362d0ca4898d77865e314ef6f73582daef0/src/math/dim.go#L74-L91
func WasmCompatMin(x, y float64) float64 {
	switch {
	case math.IsNaN(x) || math.IsNaN(y):
		return math.NaN()
	case math.IsInf(x, -1) || math.IsInf(y, -1):
		return math.Inf(-1)
	case x == 0 && x == y:
		if math.Signbit(x) {
			return x
		}
		return y
	}
	if x < y {
		return x
	}
	return y
}

// WasmCompatMax mirrors the "f32.max"/"f64.max" instruction.
// https://github.com/golang/go/blob/1d20a362d0ca4898d77865e314ef6f73582daef0/src/math/dim.go#L42-L59
func WasmCompatMax(x, y float64) float64 {
	switch {
	case math.IsNaN(x) || math.IsNaN(y):
		return math.NaN()
	case math.IsInf(x, 1) || math.IsInf(y, 1):
		return math.Inf(1)
	case x == 0 && x == y:
		if math.Signbit(x) {
			return y
		}
		return x
	}
	if x > y {
		return x
	}
	return y
}

// WasmCompatNearest mirrors "f32.nearest"/"f64.nearest": round to nearest,
// ties to even, which differs from math.Round's ties-away-from-zero.
func WasmCompatNearest(f float64) float64 {
	if math.IsNaN(f) || math.IsInf(f, 0) || f == 0 {
		return f
	}
	rounded := math.RoundToEven(f)
	return rounded
}

// I32TruncSatF32S/etc. implement the *.trunc_sat_* family: non-trapping
// float-to-int conversion that clamps out-of-range values to the
// representable extreme and maps NaN to zero, instead of trapping
// InvalidConvToInt like the plain *.trunc_* opcodes.

func I32TruncSatF32S(f float32) int32 {
	return truncSat32(float64(f), math.MinInt32, math.MaxInt32)
}

func I32TruncSatF32U(f float32) uint32 {
	return truncSatU32(float64(f), math.MaxUint32)
}

func I32TruncSatF64S(f float64) int32 {
	return truncSat32(f, math.MinInt32, math.MaxInt32)
}

func I32TruncSatF64U(f float64) uint32 {
	return truncSatU32(f, math.MaxUint32)
}

func I64TruncSatF32S(f float32) int64 {
	return truncSat64(float64(f), math.MinInt64, math.MaxInt64)
}

func I64TruncSatF32U(f float32) uint64 {
	return truncSatU64(float64(f), math.MaxUint64)
}

func I64TruncSatF64S(f float64) int64 {
	return truncSat64(f, math.MinInt64, math.MaxInt64)
}

func I64TruncSatF64U(f float64) uint64 {
	return truncSatU64(f, math.MaxUint64)
}

func truncSat32(f float64, min, max int32) int32 {
	if math.IsNaN(f) {
		return 0
	}
	t := math.Trunc(f)
	if t < float64(min) {
		return min
	}
	if t > float64(max) {
		return max
	}
	return int32(t)
}

func truncSatU32(f float64, max uint32) uint32 {
	if math.IsNaN(f) || f < 0 {
		return 0
	}
	t := math.Trunc(f)
	if t > float64(max) {
		return max
	}
	return uint32(t)
}

func truncSat64(f float64, min, max int64) int64 {
	if math.IsNaN(f) {
		return 0
	}
	t := math.Trunc(f)
	if t < float64(min) {
		return min
	}
	if t >= 9223372036854775808.0 { // float64(math.MaxInt64)+1, exact in binary
		return max
	}
	return int64(t)
}

func truncSatU64(f float64, max uint64) uint64 {
	if math.IsNaN(f) || f < 0 {
		return 0
	}
	t := math.Trunc(f)
	if t >= 18446744073709551616.0 { // float64(math.MaxUint64)+1, exact in binary
		return max
	}
	return uint64(t)
}
