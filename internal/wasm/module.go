package wasm

// Module is the decoded, validated projection of a Wasm binary that the
// Instantiator consumes (spec.md §4.10 "Loading & validation are out of
// scope"; this type is the seam a Loader implementation feeds). Imports are
// listed separately in the Import* slices; the other slices hold only
// locally-defined entries, which the Instantiator appends after the imports
// in each ModuleInstance index space, consistent with the Wasm binary
// format's own ordering.
type Module struct {
	Types []*TypeDef

	ImportFuncs   []Import
	ImportTables  []Import
	ImportMemories []Import
	ImportGlobals []Import
	ImportTags    []Import

	// FunctionTypeIndexes maps each locally-defined function to its entry in
	// Types.
	FunctionTypeIndexes []uint32
	// Code holds one entry per locally-defined function, parallel to
	// FunctionTypeIndexes.
	Code []Code

	Tables  []TableType
	Memories []MemoryType
	Globals []GlobalType
	Tags    []*FunctionType

	Exports []Export

	// StartFuncIndex, if StartFuncSet, names the function run automatically
	// at the end of instantiation (spec.md §4.10 step "run start function").
	StartFuncIndex uint32
	StartFuncSet   bool

	Elements []ElementSegment
	Datas    []DataSegment

	// DataCountSet records whether a datacount section was present, which
	// bulk-memory validation uses to permit data.drop/memory.init before
	// codegen; irrelevant at the Instantiator layer but kept for fidelity.
	DataCountSet bool
}

// Import names one imported extern, tagged by index into the owning slice
// (ImportFuncs etc.) so the Instantiator can report precise diagnostics.
type Import struct {
	Module, Name string
	// DescIndex is the Types index (functions) or the TableType/MemoryType/
	// GlobalType index (others) describing the expected shape.
	DescIndex uint32
}

// Code is one function body: its locals (run-length decoded into concrete
// types) and instruction stream.
type Code struct {
	LocalTypes []ValueType
	Body       []Instruction
	// GoFunc is set instead of Body for host-registered functions assembled
	// directly into a Module value by the HostModuleBuilder (spec.md §6.4).
	GoFunc interface{}
	Cost   uint64
	// DebugName carries the host function's export/builder-assigned name
	// through to FunctionInstance.DebugName for wasmdebug stack traces.
	DebugName string
}

type TableType struct {
	Elem ValType
	Min  uint32
	Max  *uint32
}

type MemoryType struct {
	Min, Max uint32
	MaxSet   bool
	Shared   bool
}

type GlobalType struct {
	Val     ValType
	Mutable bool
	// Init is the constant expression (or global.get-of-an-import)
	// initializing the global; already evaluated to a Value by the loader
	// so the Instantiator need only copy it in.
	Init Value
}

type Export struct {
	Name  string
	Type  byte // api.ExternType
	Index uint32
}

type ElementSegment struct {
	Type ValType
	Init [][]Value // one singleton Value slice per element, pre-evaluated

	// Mode, 0=active 1=passive 2=declarative.
	Mode       byte
	TableIndex uint32
	Offset     Value // only meaningful when Mode == active
}

type DataSegment struct {
	Init []byte

	// Mode, 0=active 1=passive.
	Mode       byte
	MemoryIndex uint32
	Offset      Value // only meaningful when Mode == active
}
