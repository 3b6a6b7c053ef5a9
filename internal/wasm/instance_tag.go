package wasm

// TagInstance is a tag in the index space of some ModuleInstance: the
// exception-handling proposal's analogue of a typed exception class
// (spec.md §4.9 "Exception handling", §3.3).
type TagInstance struct {
	// Type is the tag's parameter signature; a thrown exception carries
	// exactly Type.Params worth of Values (Type.Results is always empty).
	Type *FunctionType
}
