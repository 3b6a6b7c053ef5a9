package wasm

// Op enumerates every instruction this engine dispatches on. Unlike the
// teacher's two-stage wazeroir lowering (opcode -> IR -> interpreterOp with
// separate label-address resolution passes), spec.md §9 licenses a single
// tagged sum type with branch targets pre-resolved to PC offsets at decode
// time, dispatched by one switch in the interpreter loop.
type Op int

const (
	OpUnreachable Op = iota
	OpNop
	OpBlock
	OpLoop
	OpIf
	OpElse
	OpEnd
	OpBr
	OpBrIf
	OpBrTable
	OpReturn
	OpCall
	OpCallIndirect
	OpReturnCall
	OpReturnCallIndirect
	OpCallRef
	OpReturnCallRef
	OpDrop
	OpSelect
	OpTypedSelect
	OpLocalGet
	OpLocalSet
	OpLocalTee
	OpGlobalGet
	OpGlobalSet
	OpTableGet
	OpTableSet
	OpTableSize
	OpTableGrow
	OpTableFill
	OpTableCopy
	OpTableInit
	OpElemDrop
	OpRefNull
	OpRefIsNull
	OpRefFunc
	OpRefAsNonNull
	OpRefEq
	OpRefTest
	OpRefCast
	OpBrOnNull
	OpBrOnNonNull
	OpBrOnCast
	OpBrOnCastFail
	OpI31New
	OpI31GetS
	OpI31GetU
	OpStructNew
	OpStructNewDefault
	OpStructGet
	OpStructGetS
	OpStructGetU
	OpStructSet
	OpArrayNew
	OpArrayNewDefault
	OpArrayNewFixed
	OpArrayNewData
	OpArrayNewElem
	OpArrayGet
	OpArrayGetS
	OpArrayGetU
	OpArraySet
	OpArrayLen
	OpArrayFill
	OpArrayCopy
	OpAnyConvertExtern
	OpExternConvertAny
	OpMemorySize
	OpMemoryGrow
	OpMemoryFill
	OpMemoryCopy
	OpMemoryInit
	OpDataDrop
	OpLoad
	OpStore
	OpConstI32
	OpConstI64
	OpConstF32
	OpConstF64
	OpConstV128
	OpUnary
	OpBinary
	OpCompare
	OpConversion
	OpVecOp
	OpAtomicOp
	OpTry
	OpCatch
	OpCatchAll
	OpDelegate
	OpThrow
	OpThrowRef
	OpRethrow
	OpTailDispatchBoundary
)

// NumKind distinguishes the numeric sub-opcode carried by OpUnary/OpBinary/
// OpCompare/OpConversion so those four Op values don't need hundreds of
// siblings; each carries a NumKind in Instruction.Imm.
type NumKind int

const (
	NumI32Add NumKind = iota
	NumI32Sub
	NumI32Mul
	NumI32DivS
	NumI32DivU
	NumI32RemS
	NumI32RemU
	NumI32And
	NumI32Or
	NumI32Xor
	NumI32Shl
	NumI32ShrS
	NumI32ShrU
	NumI32Rotl
	NumI32Rotr
	NumI32Eq
	NumI32Ne
	NumI32LtS
	NumI32LtU
	NumI32GtS
	NumI32GtU
	NumI32LeS
	NumI32LeU
	NumI32GeS
	NumI32GeU
	NumI32Eqz
	NumI32Clz
	NumI32Ctz
	NumI32Popcnt

	NumI64Add
	NumI64Sub
	NumI64Mul
	NumI64DivS
	NumI64DivU
	NumI64RemS
	NumI64RemU
	NumI64And
	NumI64Or
	NumI64Xor
	NumI64Shl
	NumI64ShrS
	NumI64ShrU
	NumI64Rotl
	NumI64Rotr
	NumI64Eq
	NumI64Ne
	NumI64LtS
	NumI64LtU
	NumI64GtS
	NumI64GtU
	NumI64LeS
	NumI64LeU
	NumI64GeS
	NumI64GeU
	NumI64Eqz
	NumI64Clz
	NumI64Ctz
	NumI64Popcnt

	NumF32Add
	NumF32Sub
	NumF32Mul
	NumF32Div
	NumF32Min
	NumF32Max
	NumF32Copysign
	NumF32Abs
	NumF32Neg
	NumF32Ceil
	NumF32Floor
	NumF32Trunc
	NumF32Nearest
	NumF32Sqrt
	NumF32Eq
	NumF32Ne
	NumF32Lt
	NumF32Gt
	NumF32Le
	NumF32Ge

	NumF64Add
	NumF64Sub
	NumF64Mul
	NumF64Div
	NumF64Min
	NumF64Max
	NumF64Copysign
	NumF64Abs
	NumF64Neg
	NumF64Ceil
	NumF64Floor
	NumF64Trunc
	NumF64Nearest
	NumF64Sqrt
	NumF64Eq
	NumF64Ne
	NumF64Lt
	NumF64Gt
	NumF64Le
	NumF64Ge

	// Conversions, sign-extension and trunc_sat family (spec.md §4.4 "Numeric
	// ops", §1 finished proposals).
	NumI32WrapI64
	NumI32TruncF32S
	NumI32TruncF32U
	NumI32TruncF64S
	NumI32TruncF64U
	NumI64ExtendI32S
	NumI64ExtendI32U
	NumI64TruncF32S
	NumI64TruncF32U
	NumI64TruncF64S
	NumI64TruncF64U
	NumF32ConvertI32S
	NumF32ConvertI32U
	NumF32ConvertI64S
	NumF32ConvertI64U
	NumF32DemoteF64
	NumF64ConvertI32S
	NumF64ConvertI32U
	NumF64ConvertI64S
	NumF64ConvertI64U
	NumF64PromoteF32
	NumI32ReinterpretF32
	NumI64ReinterpretF64
	NumF32ReinterpretI32
	NumF64ReinterpretI64
	NumI32Extend8S
	NumI32Extend16S
	NumI64Extend8S
	NumI64Extend16S
	NumI64Extend32S
	NumI32TruncSatF32S
	NumI32TruncSatF32U
	NumI32TruncSatF64S
	NumI32TruncSatF64U
	NumI64TruncSatF32S
	NumI64TruncSatF32U
	NumI64TruncSatF64S
	NumI64TruncSatF64U
)

// MemArg carries a load/store/atomic instruction's static offset and the
// memory index it targets (multiple-memories proposal, spec.md §1).
type MemArg struct {
	Offset uint32
	Align  uint32
	MemIdx uint32
}

// LoadStoreKind discriminates the width/signedness of an OpLoad/OpStore,
// carried in Instruction.Imm so those two Ops don't need one sibling per
// Wasm load/store opcode.
type LoadStoreKind int

const (
	LSKindI32 LoadStoreKind = iota
	LSKindI64
	LSKindF32
	LSKindF64
	LSKindI32_8S
	LSKindI32_8U
	LSKindI32_16S
	LSKindI32_16U
	LSKindI64_8S
	LSKindI64_8U
	LSKindI64_16S
	LSKindI64_16U
	LSKindI64_32S
	LSKindI64_32U
)

// AtomicKind discriminates the RMW/wait/notify variant carried by
// Instruction.Imm for OpAtomicOp.
type AtomicKind int

const (
	AtomicLoad32 AtomicKind = iota
	AtomicLoad64
	AtomicStore32
	AtomicStore64
	AtomicAdd32
	AtomicAdd64
	AtomicSub32
	AtomicSub64
	AtomicAnd32
	AtomicAnd64
	AtomicOr32
	AtomicOr64
	AtomicXor32
	AtomicXor64
	AtomicXchg32
	AtomicXchg64
	AtomicCmpxchg32
	AtomicCmpxchg64
	AtomicWait32
	AtomicWait64
	AtomicNotify
)

// VecKind discriminates the OpVecOp variant carried by Instruction.Imm,
// covering the reduced SIMD/relaxed-SIMD surface documented in DESIGN.md's
// Open Question decisions.
type VecKind int

const (
	VecLoad VecKind = iota
	VecStore
	VecSplatI8x16
	VecSplatI16x8
	VecSplatI32x4
	VecSplatI64x2
	VecSplatF32x4
	VecSplatF64x2
	VecIAdd8x16
	VecIAdd16x8
	VecIAdd32x4
	VecIAdd64x2
	VecISub8x16
	VecISub16x8
	VecISub32x4
	VecISub64x2
	VecIMul16x8
	VecIMul32x4
	VecIMul64x2
	VecAnd
	VecOr
	VecXor
	VecNot
	VecRelaxedFmaF32x4
	VecRelaxedFnmaF32x4
	VecRelaxedFmaF64x2
	VecRelaxedFnmaF64x2
)

// Instruction is one entry of a flattened, already branch-resolved function
// body. Most fields apply to only a subset of Op values; zero otherwise.
type Instruction struct {
	Op Op

	// Imm carries Op-specific scalar immediates: NumKind for
	// Unary/Binary/Compare/Conversion, a ValueType for RefNull/TypedSelect,
	// a vector-op selector for VecOp/AtomicOp, local/global/type/func/table/
	// tag/elem/data indices, etc. Interpreted per Op.
	Imm uint64
	// Imm2 carries a second immediate where needed (e.g. call_indirect's
	// type index alongside its table index, or br_on_cast's two heap types).
	Imm2 uint64

	// ConstI32/ConstI64 hold the literal of OpConstI32/I64; ConstBits holds
	// the bit pattern of OpConstF32/F64 and the low half of OpConstV128,
	// whose high half is ConstHi.
	ConstI32  int32
	ConstI64  int64
	ConstBits uint64
	ConstHi   uint64

	Mem MemArg

	// BrTargets holds branch-table PC offsets for OpBrTable (last entry is
	// the default target); a single-entry slice for OpBr/OpBrIf/OpBrOnNull/
	// etc. Structured control that needs a jump rather than pure fallthrough
	// also uses index 0: for OpIf it is the pc taken when the condition is
	// zero (the else body, or end when there is no else), for OpElse the end.
	BrTargets []int
	// BrKeeps/BrDrops are parallel to BrTargets: the number of operand-stack
	// values to retain (the branch target label's result arity) and the
	// number immediately below those to discard, matching the teacher's
	// wazeroir.InclusiveRange{Start,End} per-branch stack adjustment. A
	// single-target Br/BrIf/BrOnNull/BrOnNonNull/BrOnCast(Fail) instruction
	// uses index 0 of each.
	BrKeeps []int
	BrDrops []int

	// BlockType names the structured-control signature for Block/Loop/If/
	// Try, resolved to a *FunctionType (possibly a single-ValueType or
	// empty shorthand, normalized by the decoder).
	BlockType *FunctionType

	// TagIdx, CatchTargets support exception handling's try/catch table
	// form (spec.md §4.9).
	TagIdx       uint32
	CatchTargets []CatchClause
}

// CatchClause is one entry of a try instruction's catch table.
type CatchClause struct {
	TagIdx   uint32 // ignored when CatchAll
	CatchAll bool
	Target   int
	// CapturedExnRef is true for catch_ref/catch_all_ref forms, which push
	// the caught exception's exnref alongside its payload values.
	CapturedExnRef bool
}
