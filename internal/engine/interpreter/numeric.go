package interpreter

import (
	"math"
	"math/bits"

	"github.com/wasmedge-go/core/internal/moremath"
	"github.com/wasmedge-go/core/internal/wasm"
	"github.com/wasmedge-go/core/internal/wasmruntime"
)

// execUnary/execBinary/execCompare/execConversion implement the NumKind
// families (spec.md §4.4 "Numeric ops"), operating on raw uint64-encoded
// operands the way the teacher's engine keeps everything on one uint64
// stack regardless of declared type.

func execUnary(ce *callEngine, k wasm.NumKind) {
	v := ce.pop()
	switch k {
	case wasm.NumI32Eqz:
		ce.push(b2u64(uint32(v) == 0))
	case wasm.NumI32Clz:
		ce.push(uint64(bits.LeadingZeros32(uint32(v))))
	case wasm.NumI32Ctz:
		ce.push(uint64(bits.TrailingZeros32(uint32(v))))
	case wasm.NumI32Popcnt:
		ce.push(uint64(bits.OnesCount32(uint32(v))))
	case wasm.NumI64Eqz:
		ce.push(b2u64(v == 0))
	case wasm.NumI64Clz:
		ce.push(uint64(bits.LeadingZeros64(v)))
	case wasm.NumI64Ctz:
		ce.push(uint64(bits.TrailingZeros64(v)))
	case wasm.NumI64Popcnt:
		ce.push(uint64(bits.OnesCount64(v)))
	case wasm.NumF32Abs:
		ce.push(uint64(math.Float32bits(float32(math.Abs(float64(math.Float32frombits(uint32(v))))))))
	case wasm.NumF32Neg:
		ce.push(uint64(math.Float32bits(-math.Float32frombits(uint32(v)))))
	case wasm.NumF32Ceil:
		ce.push(f32u64(float32(math.Ceil(float64(math.Float32frombits(uint32(v)))))))
	case wasm.NumF32Floor:
		ce.push(f32u64(float32(math.Floor(float64(math.Float32frombits(uint32(v)))))))
	case wasm.NumF32Trunc:
		ce.push(f32u64(float32(math.Trunc(float64(math.Float32frombits(uint32(v)))))))
	case wasm.NumF32Nearest:
		ce.push(f32u64(float32(moremath.WasmCompatNearest(float64(math.Float32frombits(uint32(v)))))))
	case wasm.NumF32Sqrt:
		ce.push(f32u64(float32(math.Sqrt(float64(math.Float32frombits(uint32(v)))))))
	case wasm.NumF64Abs:
		ce.push(math.Float64bits(math.Abs(math.Float64frombits(v))))
	case wasm.NumF64Neg:
		ce.push(math.Float64bits(-math.Float64frombits(v)))
	case wasm.NumF64Ceil:
		ce.push(math.Float64bits(math.Ceil(math.Float64frombits(v))))
	case wasm.NumF64Floor:
		ce.push(math.Float64bits(math.Floor(math.Float64frombits(v))))
	case wasm.NumF64Trunc:
		ce.push(math.Float64bits(math.Trunc(math.Float64frombits(v))))
	case wasm.NumF64Nearest:
		ce.push(math.Float64bits(moremath.WasmCompatNearest(math.Float64frombits(v))))
	case wasm.NumF64Sqrt:
		ce.push(math.Float64bits(math.Sqrt(math.Float64frombits(v))))
	default:
		panic(wasmruntime.ErrRuntimeIllegalOpCode)
	}
}

func f32u64(f float32) uint64 { return uint64(math.Float32bits(f)) }
func b2u64(b bool) uint64 {
	if b {
		return 1
	}
	return 0
}

func execBinary(ce *callEngine, k wasm.NumKind) {
	b := ce.pop()
	a := ce.pop()
	switch k {
	case wasm.NumI32Add:
		ce.push(uint64(uint32(a) + uint32(b)))
	case wasm.NumI32Sub:
		ce.push(uint64(uint32(a) - uint32(b)))
	case wasm.NumI32Mul:
		ce.push(uint64(uint32(a) * uint32(b)))
	case wasm.NumI32DivS:
		x, y := int32(a), int32(b)
		if y == 0 {
			panic(wasmruntime.ErrRuntimeIntegerDivideByZero)
		}
		if x == math.MinInt32 && y == -1 {
			panic(wasmruntime.ErrRuntimeIntegerOverflow)
		}
		ce.push(uint64(uint32(x / y)))
	case wasm.NumI32DivU:
		y := uint32(b)
		if y == 0 {
			panic(wasmruntime.ErrRuntimeIntegerDivideByZero)
		}
		ce.push(uint64(uint32(a) / y))
	case wasm.NumI32RemS:
		x, y := int32(a), int32(b)
		if y == 0 {
			panic(wasmruntime.ErrRuntimeIntegerDivideByZero)
		}
		if x == math.MinInt32 && y == -1 {
			ce.push(0)
			return
		}
		ce.push(uint64(uint32(x % y)))
	case wasm.NumI32RemU:
		y := uint32(b)
		if y == 0 {
			panic(wasmruntime.ErrRuntimeIntegerDivideByZero)
		}
		ce.push(uint64(uint32(a) % y))
	case wasm.NumI32And:
		ce.push(uint64(uint32(a) & uint32(b)))
	case wasm.NumI32Or:
		ce.push(uint64(uint32(a) | uint32(b)))
	case wasm.NumI32Xor:
		ce.push(uint64(uint32(a) ^ uint32(b)))
	case wasm.NumI32Shl:
		ce.push(uint64(uint32(a) << (uint32(b) % 32)))
	case wasm.NumI32ShrS:
		ce.push(uint64(uint32(int32(a) >> (uint32(b) % 32))))
	case wasm.NumI32ShrU:
		ce.push(uint64(uint32(a) >> (uint32(b) % 32)))
	case wasm.NumI32Rotl:
		ce.push(uint64(bits.RotateLeft32(uint32(a), int(uint32(b)%32))))
	case wasm.NumI32Rotr:
		ce.push(uint64(bits.RotateLeft32(uint32(a), -int(uint32(b)%32))))

	case wasm.NumI64Add:
		ce.push(a + b)
	case wasm.NumI64Sub:
		ce.push(a - b)
	case wasm.NumI64Mul:
		ce.push(a * b)
	case wasm.NumI64DivS:
		x, y := int64(a), int64(b)
		if y == 0 {
			panic(wasmruntime.ErrRuntimeIntegerDivideByZero)
		}
		if x == math.MinInt64 && y == -1 {
			panic(wasmruntime.ErrRuntimeIntegerOverflow)
		}
		ce.push(uint64(x / y))
	case wasm.NumI64DivU:
		if b == 0 {
			panic(wasmruntime.ErrRuntimeIntegerDivideByZero)
		}
		ce.push(a / b)
	case wasm.NumI64RemS:
		x, y := int64(a), int64(b)
		if y == 0 {
			panic(wasmruntime.ErrRuntimeIntegerDivideByZero)
		}
		if x == math.MinInt64 && y == -1 {
			ce.push(0)
			return
		}
		ce.push(uint64(x % y))
	case wasm.NumI64RemU:
		if b == 0 {
			panic(wasmruntime.ErrRuntimeIntegerDivideByZero)
		}
		ce.push(a % b)
	case wasm.NumI64And:
		ce.push(a & b)
	case wasm.NumI64Or:
		ce.push(a | b)
	case wasm.NumI64Xor:
		ce.push(a ^ b)
	case wasm.NumI64Shl:
		ce.push(a << (b % 64))
	case wasm.NumI64ShrS:
		ce.push(uint64(int64(a) >> (b % 64)))
	case wasm.NumI64ShrU:
		ce.push(a >> (b % 64))
	case wasm.NumI64Rotl:
		ce.push(bits.RotateLeft64(a, int(b%64)))
	case wasm.NumI64Rotr:
		ce.push(bits.RotateLeft64(a, -int(b%64)))

	case wasm.NumF32Add:
		ce.push(f32u64(math.Float32frombits(uint32(a)) + math.Float32frombits(uint32(b))))
	case wasm.NumF32Sub:
		ce.push(f32u64(math.Float32frombits(uint32(a)) - math.Float32frombits(uint32(b))))
	case wasm.NumF32Mul:
		ce.push(f32u64(math.Float32frombits(uint32(a)) * math.Float32frombits(uint32(b))))
	case wasm.NumF32Div:
		ce.push(f32u64(math.Float32frombits(uint32(a)) / math.Float32frombits(uint32(b))))
	case wasm.NumF32Min:
		ce.push(f32u64(float32(moremath.WasmCompatMin(float64(math.Float32frombits(uint32(a))), float64(math.Float32frombits(uint32(b)))))))
	case wasm.NumF32Max:
		ce.push(f32u64(float32(moremath.WasmCompatMax(float64(math.Float32frombits(uint32(a))), float64(math.Float32frombits(uint32(b)))))))
	case wasm.NumF32Copysign:
		ce.push(f32u64(float32(math.Copysign(float64(math.Float32frombits(uint32(a))), float64(math.Float32frombits(uint32(b)))))))

	case wasm.NumF64Add:
		ce.push(math.Float64bits(math.Float64frombits(a) + math.Float64frombits(b)))
	case wasm.NumF64Sub:
		ce.push(math.Float64bits(math.Float64frombits(a) - math.Float64frombits(b)))
	case wasm.NumF64Mul:
		ce.push(math.Float64bits(math.Float64frombits(a) * math.Float64frombits(b)))
	case wasm.NumF64Div:
		ce.push(math.Float64bits(math.Float64frombits(a) / math.Float64frombits(b)))
	case wasm.NumF64Min:
		ce.push(math.Float64bits(moremath.WasmCompatMin(math.Float64frombits(a), math.Float64frombits(b))))
	case wasm.NumF64Max:
		ce.push(math.Float64bits(moremath.WasmCompatMax(math.Float64frombits(a), math.Float64frombits(b))))
	case wasm.NumF64Copysign:
		ce.push(math.Float64bits(math.Copysign(math.Float64frombits(a), math.Float64frombits(b))))
	default:
		panic(wasmruntime.ErrRuntimeIllegalOpCode)
	}
}

func execCompare(ce *callEngine, k wasm.NumKind) {
	b := ce.pop()
	a := ce.pop()
	switch k {
	case wasm.NumI32Eq:
		ce.push(b2u64(uint32(a) == uint32(b)))
	case wasm.NumI32Ne:
		ce.push(b2u64(uint32(a) != uint32(b)))
	case wasm.NumI32LtS:
		ce.push(b2u64(int32(a) < int32(b)))
	case wasm.NumI32LtU:
		ce.push(b2u64(uint32(a) < uint32(b)))
	case wasm.NumI32GtS:
		ce.push(b2u64(int32(a) > int32(b)))
	case wasm.NumI32GtU:
		ce.push(b2u64(uint32(a) > uint32(b)))
	case wasm.NumI32LeS:
		ce.push(b2u64(int32(a) <= int32(b)))
	case wasm.NumI32LeU:
		ce.push(b2u64(uint32(a) <= uint32(b)))
	case wasm.NumI32GeS:
		ce.push(b2u64(int32(a) >= int32(b)))
	case wasm.NumI32GeU:
		ce.push(b2u64(uint32(a) >= uint32(b)))

	case wasm.NumI64Eq:
		ce.push(b2u64(a == b))
	case wasm.NumI64Ne:
		ce.push(b2u64(a != b))
	case wasm.NumI64LtS:
		ce.push(b2u64(int64(a) < int64(b)))
	case wasm.NumI64LtU:
		ce.push(b2u64(a < b))
	case wasm.NumI64GtS:
		ce.push(b2u64(int64(a) > int64(b)))
	case wasm.NumI64GtU:
		ce.push(b2u64(a > b))
	case wasm.NumI64LeS:
		ce.push(b2u64(int64(a) <= int64(b)))
	case wasm.NumI64LeU:
		ce.push(b2u64(a <= b))
	case wasm.NumI64GeS:
		ce.push(b2u64(int64(a) >= int64(b)))
	case wasm.NumI64GeU:
		ce.push(b2u64(a >= b))

	case wasm.NumF32Eq:
		ce.push(b2u64(math.Float32frombits(uint32(a)) == math.Float32frombits(uint32(b))))
	case wasm.NumF32Ne:
		ce.push(b2u64(math.Float32frombits(uint32(a)) != math.Float32frombits(uint32(b))))
	case wasm.NumF32Lt:
		ce.push(b2u64(math.Float32frombits(uint32(a)) < math.Float32frombits(uint32(b))))
	case wasm.NumF32Gt:
		ce.push(b2u64(math.Float32frombits(uint32(a)) > math.Float32frombits(uint32(b))))
	case wasm.NumF32Le:
		ce.push(b2u64(math.Float32frombits(uint32(a)) <= math.Float32frombits(uint32(b))))
	case wasm.NumF32Ge:
		ce.push(b2u64(math.Float32frombits(uint32(a)) >= math.Float32frombits(uint32(b))))

	case wasm.NumF64Eq:
		ce.push(b2u64(math.Float64frombits(a) == math.Float64frombits(b)))
	case wasm.NumF64Ne:
		ce.push(b2u64(math.Float64frombits(a) != math.Float64frombits(b)))
	case wasm.NumF64Lt:
		ce.push(b2u64(math.Float64frombits(a) < math.Float64frombits(b)))
	case wasm.NumF64Gt:
		ce.push(b2u64(math.Float64frombits(a) > math.Float64frombits(b)))
	case wasm.NumF64Le:
		ce.push(b2u64(math.Float64frombits(a) <= math.Float64frombits(b)))
	case wasm.NumF64Ge:
		ce.push(b2u64(math.Float64frombits(a) >= math.Float64frombits(b)))
	default:
		panic(wasmruntime.ErrRuntimeIllegalOpCode)
	}
}

func execConversion(ce *callEngine, k wasm.NumKind) {
	v := ce.pop()
	switch k {
	case wasm.NumI32WrapI64:
		ce.push(uint64(uint32(v)))
	case wasm.NumI64ExtendI32S:
		ce.push(uint64(int64(int32(v))))
	case wasm.NumI64ExtendI32U:
		ce.push(uint64(uint32(v)))
	case wasm.NumI32Extend8S:
		ce.push(uint64(uint32(int32(int8(v)))))
	case wasm.NumI32Extend16S:
		ce.push(uint64(uint32(int32(int16(v)))))
	case wasm.NumI64Extend8S:
		ce.push(uint64(int64(int8(v))))
	case wasm.NumI64Extend16S:
		ce.push(uint64(int64(int16(v))))
	case wasm.NumI64Extend32S:
		ce.push(uint64(int64(int32(v))))

	case wasm.NumI32TruncF32S:
		ce.push(uint64(uint32(trapTrunc32(float64(math.Float32frombits(uint32(v))), math.MinInt32, math.MaxInt32))))
	case wasm.NumI32TruncF32U:
		ce.push(uint64(uint32(trapTruncU32(float64(math.Float32frombits(uint32(v))), math.MaxUint32))))
	case wasm.NumI32TruncF64S:
		ce.push(uint64(uint32(trapTrunc32(math.Float64frombits(v), math.MinInt32, math.MaxInt32))))
	case wasm.NumI32TruncF64U:
		ce.push(uint64(uint32(trapTruncU32(math.Float64frombits(v), math.MaxUint32))))
	case wasm.NumI64TruncF32S:
		ce.push(uint64(trapTrunc64(float64(math.Float32frombits(uint32(v))), math.MinInt64, math.MaxInt64)))
	case wasm.NumI64TruncF32U:
		ce.push(trapTruncU64(float64(math.Float32frombits(uint32(v))), math.MaxUint64))
	case wasm.NumI64TruncF64S:
		ce.push(uint64(trapTrunc64(math.Float64frombits(v), math.MinInt64, math.MaxInt64)))
	case wasm.NumI64TruncF64U:
		ce.push(trapTruncU64(math.Float64frombits(v), math.MaxUint64))

	case wasm.NumI32TruncSatF32S:
		ce.push(uint64(uint32(moremath.I32TruncSatF32S(math.Float32frombits(uint32(v))))))
	case wasm.NumI32TruncSatF32U:
		ce.push(uint64(moremath.I32TruncSatF32U(math.Float32frombits(uint32(v)))))
	case wasm.NumI32TruncSatF64S:
		ce.push(uint64(uint32(moremath.I32TruncSatF64S(math.Float64frombits(v)))))
	case wasm.NumI32TruncSatF64U:
		ce.push(uint64(moremath.I32TruncSatF64U(math.Float64frombits(v))))
	case wasm.NumI64TruncSatF32S:
		ce.push(uint64(moremath.I64TruncSatF32S(math.Float32frombits(uint32(v)))))
	case wasm.NumI64TruncSatF32U:
		ce.push(moremath.I64TruncSatF32U(math.Float32frombits(uint32(v))))
	case wasm.NumI64TruncSatF64S:
		ce.push(uint64(moremath.I64TruncSatF64S(math.Float64frombits(v))))
	case wasm.NumI64TruncSatF64U:
		ce.push(moremath.I64TruncSatF64U(math.Float64frombits(v)))

	case wasm.NumF32ConvertI32S:
		ce.push(f32u64(float32(int32(v))))
	case wasm.NumF32ConvertI32U:
		ce.push(f32u64(float32(uint32(v))))
	case wasm.NumF32ConvertI64S:
		ce.push(f32u64(float32(int64(v))))
	case wasm.NumF32ConvertI64U:
		ce.push(f32u64(float32(v)))
	case wasm.NumF32DemoteF64:
		ce.push(f32u64(float32(math.Float64frombits(v))))
	case wasm.NumF64ConvertI32S:
		ce.push(math.Float64bits(float64(int32(v))))
	case wasm.NumF64ConvertI32U:
		ce.push(math.Float64bits(float64(uint32(v))))
	case wasm.NumF64ConvertI64S:
		ce.push(math.Float64bits(float64(int64(v))))
	case wasm.NumF64ConvertI64U:
		ce.push(math.Float64bits(float64(v)))
	case wasm.NumF64PromoteF32:
		ce.push(math.Float64bits(float64(math.Float32frombits(uint32(v)))))

	case wasm.NumI32ReinterpretF32, wasm.NumI64ReinterpretF64:
		ce.push(v)
	case wasm.NumF32ReinterpretI32, wasm.NumF64ReinterpretI64:
		ce.push(v)
	default:
		panic(wasmruntime.ErrRuntimeIllegalOpCode)
	}
}

func trapTrunc32(f float64, min, max int32) int32 {
	if math.IsNaN(f) {
		panic(wasmruntime.ErrRuntimeInvalidConversionToInteger)
	}
	t := math.Trunc(f)
	if t < float64(min) || t >= float64(max)+1 {
		panic(wasmruntime.ErrRuntimeIntegerOverflow)
	}
	return int32(t)
}

func trapTruncU32(f float64, max uint32) uint32 {
	if math.IsNaN(f) {
		panic(wasmruntime.ErrRuntimeInvalidConversionToInteger)
	}
	t := math.Trunc(f)
	if t < 0 || t >= float64(max)+1 {
		panic(wasmruntime.ErrRuntimeIntegerOverflow)
	}
	return uint32(t)
}

func trapTrunc64(f float64, min, max int64) int64 {
	if math.IsNaN(f) {
		panic(wasmruntime.ErrRuntimeInvalidConversionToInteger)
	}
	t := math.Trunc(f)
	if t < float64(min) || t >= 9223372036854775808.0 {
		panic(wasmruntime.ErrRuntimeIntegerOverflow)
	}
	return int64(t)
}

func trapTruncU64(f float64, max uint64) uint64 {
	if math.IsNaN(f) {
		panic(wasmruntime.ErrRuntimeInvalidConversionToInteger)
	}
	t := math.Trunc(f)
	if t < 0 || t >= 18446744073709551616.0 {
		panic(wasmruntime.ErrRuntimeIntegerOverflow)
	}
	return uint64(t)
}
