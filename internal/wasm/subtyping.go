package wasm

// Subtyping implements spec.md §3.2: `t1 <: t2` defined structurally over
// heap types plus numeric identity, with concrete type-index matching
// resolved relative to each value's defining module (because two modules
// can each define a type at index 3 with no relationship to each other).

// Matches reports whether sub is a subtype of (or identical to) sup, given
// the module instance that defines any concrete (TypeIndex-based) heap
// types named by sub. sup's concrete types, if any, are resolved against
// supModule.
func Matches(sub, sup ValType, subModule, supModule *ModuleInstance) bool {
	if sub.IsNumeric() != sup.IsNumeric() {
		return false
	}
	if sub.IsNumeric() {
		return sub.Numeric == sup.Numeric
	}

	// Reference types: null must be at least as restrictive on the sub side.
	if !sub.Nullable && sup.Nullable {
		// sub:non-null <: sup:nullable is fine either way; only reject when
		// sub allows null but sup doesn't.
	}
	if sub.Nullable && !sup.Nullable {
		return false
	}

	return heapMatches(sub.Heap, sub.TypeIndex, subModule, sup.Heap, sup.TypeIndex, supModule)
}

// bottomOf reports the bottom heap type of h's type hierarchy (none, nofunc,
// noextern, noexn), used so e.g. `(ref none)` matches any `(ref null? eq)`.
func bottomOf(h HeapType) HeapType {
	switch h {
	case HeapTypeFunc, HeapTypeNoFunc:
		return HeapTypeNoFunc
	case HeapTypeExtern, HeapTypeNoExtern:
		return HeapTypeNoExtern
	case HeapTypeNoExn:
		return HeapTypeNoExn
	default:
		return HeapTypeNone
	}
}

// topOf reports the top heap type of h's hierarchy (func, extern, any).
func topOf(h HeapType) HeapType {
	switch h {
	case HeapTypeFunc, HeapTypeNoFunc, HeapTypeConcrete:
		return HeapTypeFunc
	case HeapTypeExtern, HeapTypeNoExtern:
		return HeapTypeExtern
	default:
		return HeapTypeAny
	}
}

func heapMatches(subH HeapType, subIdx uint32, subMod *ModuleInstance, supH HeapType, supIdx uint32, supMod *ModuleInstance) bool {
	if supH == HeapTypeAny && subH != HeapTypeExtern && subH != HeapTypeNoExtern {
		return true
	}
	if subH == supH && (subH != HeapTypeConcrete || sameType(subIdx, subMod, supIdx, supMod)) {
		return true
	}

	// Bottom types match anything in the same hierarchy.
	if subH == bottomOf(subH) && bottomOf(subH) != HeapTypeNone {
		return topOf(supH) == topOf(subH) || supH == HeapTypeAny
	}
	if subH == HeapTypeNone {
		return supH == HeapTypeAny || supH == HeapTypeEq || supH == HeapTypeStruct ||
			supH == HeapTypeArray || supH == HeapTypeI31 || supH == HeapTypeNone
	}

	switch subH {
	case HeapTypeI31, HeapTypeStruct, HeapTypeArray:
		if supH == HeapTypeEq || supH == HeapTypeAny {
			return true
		}
	case HeapTypeConcrete:
		if supH == HeapTypeFunc {
			return isFuncType(subIdx, subMod)
		}
		if supH == HeapTypeEq || supH == HeapTypeAny {
			return !isFuncType(subIdx, subMod)
		}
		if supH == HeapTypeStruct {
			return isStructType(subIdx, subMod)
		}
		if supH == HeapTypeArray {
			return isArrayType(subIdx, subMod)
		}
		if supH == HeapTypeConcrete {
			return typeIndexIsSubtype(subIdx, subMod, supIdx, supMod)
		}
	}
	return false
}

// sameType reports whether two concrete type indices, each resolved in its
// own defining module, refer to the same recursion-group-canonicalized
// type (spec.md §3.2's "interned so that two types from the same recursion
// group in different modules match").
func sameType(subIdx uint32, subMod *ModuleInstance, supIdx uint32, supMod *ModuleInstance) bool {
	if subMod == nil || supMod == nil {
		return subMod == supMod && subIdx == supIdx
	}
	subPack := subMod.Types[subIdx].CanonicalID
	supPack := supMod.Types[supIdx].CanonicalID
	return subPack == supPack
}

// typeIndexIsSubtype walks declared supertypes for nominal GC subtyping
// (struct/array `sub` clauses) in addition to exact identity.
func typeIndexIsSubtype(subIdx uint32, subMod *ModuleInstance, supIdx uint32, supMod *ModuleInstance) bool {
	if sameType(subIdx, subMod, supIdx, supMod) {
		return true
	}
	ti := subMod.Types[subIdx]
	for _, superIdx := range ti.Supertypes {
		if typeIndexIsSubtype(superIdx, subMod, supIdx, supMod) {
			return true
		}
	}
	return false
}

func isFuncType(idx uint32, mod *ModuleInstance) bool {
	return mod.Types[idx].Kind == TypeKindFunc
}

func isStructType(idx uint32, mod *ModuleInstance) bool {
	return mod.Types[idx].Kind == TypeKindStruct
}

func isArrayType(idx uint32, mod *ModuleInstance) bool {
	return mod.Types[idx].Kind == TypeKindArray
}
