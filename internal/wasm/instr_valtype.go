package wasm

// EncodeValType/DecodeValType pack a ValType into the two scalar immediate
// slots an Instruction carries (Imm/Imm2), for the handful of ops that need
// a full reference type rather than just a type index: ref.null's operand,
// ref.test/ref.cast's target type, and br_on_cast/br_on_cast_fail's source
// and target types (the latter pair uses Imm/Imm2 for the target and
// BrTargets/BrKeeps/BrDrops's single slot for the branch itself, since the
// source type only matters to validation, which is out of scope here).
func EncodeValType(t ValType) (imm uint64, imm2 uint64) {
	if !t.IsRef {
		return uint64(t.Numeric), 0
	}
	imm = 1 << 32 // ref-type marker
	if t.Nullable {
		imm |= 1 << 33
	}
	imm |= uint64(t.Heap)
	imm2 = uint64(t.TypeIndex)
	return imm, imm2
}

// DecodeValType reverses EncodeValType.
func DecodeValType(imm, imm2 uint64) ValType {
	if imm&(1<<32) == 0 {
		return ValType{Numeric: ValueType(imm)}
	}
	return ValType{
		IsRef:     true,
		Nullable:  imm&(1<<33) != 0,
		Heap:      HeapType(imm & 0xff),
		TypeIndex: uint32(imm2),
	}
}
