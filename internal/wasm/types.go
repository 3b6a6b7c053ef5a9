package wasm

import (
	"strings"

	"github.com/cespare/xxhash/v2"
)

// TypeKind discriminates a module's type-section entry: a function
// signature, or (under the GC proposal) a struct or array descriptor.
type TypeKind byte

const (
	TypeKindFunc TypeKind = iota
	TypeKindStruct
	TypeKindArray
)

// FunctionType is a Wasm function signature.
type FunctionType struct {
	Params, Results []ValueType
}

func (f *FunctionType) String() string {
	var sb strings.Builder
	for _, p := range f.Params {
		sb.WriteByte(' ')
		sb.WriteString(ValueTypeName(p))
	}
	sb.WriteString(" ->")
	for _, r := range f.Results {
		sb.WriteByte(' ')
		sb.WriteString(ValueTypeName(r))
	}
	return sb.String()
}

// EqualsSignature reports whether f has exactly params/results (used by
// call_indirect's dynamic type check, spec.md §4.6).
func (f *FunctionType) EqualsSignature(params, results []ValueType) bool {
	if len(f.Params) != len(params) || len(f.Results) != len(results) {
		return false
	}
	for i := range params {
		if f.Params[i] != params[i] {
			return false
		}
	}
	for i := range results {
		if f.Results[i] != results[i] {
			return false
		}
	}
	return true
}

// StorageType describes one struct field or an array's element type,
// including the packed 8/16-bit storage kinds the GC proposal adds
// alongside ordinary ValTypes (spec.md §4.1).
type StorageType struct {
	// Packed is true for i8/i16 field storage; when true, Val is ignored and
	// PackedBits (8 or 16) applies.
	Packed     bool
	PackedBits byte
	Val        ValType
}

var (
	StorageI8  = StorageType{Packed: true, PackedBits: 8}
	StorageI16 = StorageType{Packed: true, PackedBits: 16}
)

func StorageOf(v ValType) StorageType { return StorageType{Val: v} }

// FieldType is one struct field: its storage and mutability.
type FieldType struct {
	Storage StorageType
	Mutable bool
}

// TypeDef is a module's canonicalized type-section entry: either a function
// signature, or a GC struct/array descriptor, tagged with its recursion
// group and any declared (nominal) supertypes.
type TypeDef struct {
	Kind TypeKind

	Func *FunctionType // Kind == TypeKindFunc

	Fields  []FieldType // Kind == TypeKindStruct
	Element StorageType // Kind == TypeKindArray

	// Supertypes are indices (within the same module's type space) this
	// type nominally extends, per the GC proposal's `sub` clause.
	Supertypes []uint32
	// Final marks a type that may not be further extended.
	Final bool

	// RecursionGroup is the 0-based index of the mutually-recursive type
	// group this definition belongs to, and Position is this type's offset
	// within that group (spec.md §3.2, GLOSSARY "Recursion group").
	RecursionGroup int
	Position       int

	// CanonicalID is the interned identity of this type's structural
	// expansion: equal across modules iff the types are the same Wasm type
	// (spec.md §3.2). Computed once by CanonicalizeTypes.
	CanonicalID uint64
}

// CanonicalizeTypes assigns CanonicalID to every entry in defs by hashing
// each type's structural expansion together with its recursion-group
// shape, so that two recursion groups with the same shape (regardless of
// which module declared them) canonicalize identically. This mirrors how
// the GC heap's TypePack pool interns struct/array descriptors (spec.md
// §3.5), applied here to type-section identity as well.
func CanonicalizeTypes(defs []*TypeDef) {
	for i, d := range defs {
		d.CanonicalID = xxhash.Sum64(canonicalBytes(i, defs))
	}
}

// canonicalBytes renders def i's structural expansion, substituting
// recursion-group-relative back-references for any Supertypes/struct-field
// concrete-type references that point within the same group, so that
// equirecursive identity (spec.md §3.2) doesn't depend on absolute type
// indices.
func canonicalBytes(i int, defs []*TypeDef) []byte {
	d := defs[i]
	var sb strings.Builder
	sb.WriteByte(byte(d.Kind))
	switch d.Kind {
	case TypeKindFunc:
		for _, p := range d.Func.Params {
			sb.WriteByte(p)
		}
		sb.WriteByte(0xff)
		for _, r := range d.Func.Results {
			sb.WriteByte(r)
		}
	case TypeKindStruct:
		for _, f := range d.Fields {
			writeStorage(&sb, f.Storage, i, defs)
			if f.Mutable {
				sb.WriteByte(1)
			} else {
				sb.WriteByte(0)
			}
		}
	case TypeKindArray:
		writeStorage(&sb, d.Element, i, defs)
	}
	for _, s := range d.Supertypes {
		sb.WriteByte('<')
		writeRelativeIndex(&sb, s, i, defs)
	}
	return []byte(sb.String())
}

func writeStorage(sb *strings.Builder, s StorageType, from int, defs []*TypeDef) {
	if s.Packed {
		sb.WriteByte(0xf0 | s.PackedBits/8)
		return
	}
	if s.Val.IsRef && s.Val.Heap == HeapTypeConcrete {
		sb.WriteByte('@')
		writeRelativeIndex(sb, s.Val.TypeIndex, from, defs)
		if s.Val.Nullable {
			sb.WriteByte('?')
		}
		return
	}
	sb.WriteByte(s.Val.Numeric)
}

// writeRelativeIndex encodes idx as a group-relative offset when idx names a
// type in the same recursion group as `from`, and as an absolute canonical
// hash otherwise (the referenced type must already be canonicalized, which
// holds because type sections are processed in forward-reference-free
// dependency order per validation).
func writeRelativeIndex(sb *strings.Builder, idx uint32, from int, defs []*TypeDef) {
	fromGroup := defs[from].RecursionGroup
	if defs[idx].RecursionGroup == fromGroup {
		sb.WriteString("rel:")
		sb.WriteByte(byte(defs[idx].Position))
		return
	}
	sb.WriteString("abs:")
	var buf [8]byte
	id := defs[idx].CanonicalID
	for i := range buf {
		buf[i] = byte(id >> (8 * i))
	}
	sb.Write(buf[:])
}
