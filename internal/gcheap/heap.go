// Package gcheap implements the managed heap backing the GC proposal's
// struct/array/i31 reference types (spec.md §3.5 "GC heap / allocator",
// §9 design notes). Unlike the teacher — which has no GC-proposal heap at
// all — this package is grounded directly on spec.md's description, using
// the re-architecture the spec explicitly invites: an arena of slots
// indexed by ObjectId+generation instead of raw, refcounted pointers, so a
// stale handle is detected by generation mismatch rather than a dangling
// pointer dereference.
package gcheap

import (
	"bytes"
	"sync"

	"github.com/cespare/xxhash/v2"
)

// ObjectId is an opaque, generation-checked handle to a heap object. The
// zero value never denotes a live object.
type ObjectId struct {
	index      uint32
	generation uint32
}

// Kind discriminates a GC object's shape.
type Kind byte

const (
	KindStruct Kind = iota
	KindArray
)

// TypePack is the interned, canonicalized descriptor of a struct/array
// type's runtime layout: its kind and field storage widths, shared across
// every object of that Wasm type (spec.md §3.5 "TypePack"). Interning means
// two objects of the same structural type, even across module instances,
// share one TypePack and therefore one CanonicalID for `ref.test`/`ref.cast`.
type TypePack struct {
	Kind        Kind
	FieldWidths []byte // 1, 2, 4, 8, or 16 (v128) bytes per field/element; len==1 for arrays
	CanonicalID uint64
}

// object is one arena slot. Live while generation is even; a freed slot's
// generation is bumped to odd and its fields cleared, so a stale ObjectId
// (even generation recorded, slot now odd) is detected cheaply.
type object struct {
	generation uint32
	gray       bool
	marked     bool
	pack       *TypePack
	fields     []uint64    // numeric/packed-as-uint64 fields (struct) or elements (array)
	refs       []ObjectId  // the subset of fields that are themselves GC references
	refFields  []int       // index into fields that refs[i] corresponds to
}

// Heap is the arena allocator plus tri-color mark-sweep collector described
// in spec.md §3.5. Roots are registered explicitly (the operand stack,
// frame locals, globals) rather than discovered via stack scanning, which
// keeps collection pauses bounded by root-set size rather than VM internals.
type Heap struct {
	mu      sync.Mutex
	slots   []object
	free    []uint32
	typePool map[uint64]*TypePack

	// collecting guards against reentrant Collect calls from multiple
	// goroutines racing the collector pool (spec.md §3.5 "collector thread
	// pool").
	collecting bool
}

// NewHeap constructs an empty heap.
func NewHeap() *Heap {
	return &Heap{typePool: map[uint64]*TypePack{}}
}

// InternTypePack returns the canonical *TypePack for the given shape,
// creating and caching it on first use. Hashing with xxhash (rather than a
// string map key) keeps the common path to one hash computation instead of
// a string allocation per lookup (spec.md §3.5 "TypePack pool").
func (h *Heap) InternTypePack(kind Kind, fieldWidths []byte) *TypePack {
	h.mu.Lock()
	defer h.mu.Unlock()

	var buf []byte
	buf = append(buf, byte(kind))
	buf = append(buf, fieldWidths...)
	id := xxhash.Sum64(buf)
	for {
		tp, ok := h.typePool[id]
		if !ok {
			break
		}
		if tp.Kind == kind && bytes.Equal(tp.FieldWidths, fieldWidths) {
			return tp
		}
		id++ // hash collision with a different shape: probe the next key
	}
	tp := &TypePack{Kind: kind, FieldWidths: append([]byte(nil), fieldWidths...), CanonicalID: id}
	h.typePool[id] = tp
	return tp
}

// Alloc creates a new struct/array object with the given TypePack and
// initial field values, returning its handle. refFieldIdx names which
// entries of fields are GC references (for the collector's scan phase);
// their initial value, if any, is still stored numerically (an ObjectId
// packed into the uint64) for uniform field storage.
func (h *Heap) Alloc(pack *TypePack, fields []uint64, refFieldIdx []int) ObjectId {
	h.mu.Lock()
	defer h.mu.Unlock()

	fieldsCopy := append([]uint64(nil), fields...)
	refs := make([]ObjectId, len(refFieldIdx))
	for i, idx := range refFieldIdx {
		refs[i] = unpackObjectID(fieldsCopy[idx])
	}

	if n := len(h.free); n > 0 {
		idx := h.free[n-1]
		h.free = h.free[:n-1]
		slot := &h.slots[idx]
		slot.pack = pack
		slot.fields = fieldsCopy
		slot.refs = refs
		slot.refFields = append([]int(nil), refFieldIdx...)
		slot.marked = false
		slot.gray = false
		slot.generation++ // odd (free) -> even (live)
		return ObjectId{index: idx, generation: slot.generation}
	}

	// New slots start at generation 2 so the zero ObjectId never names a
	// live object.
	h.slots = append(h.slots, object{
		generation: 2,
		pack:       pack,
		fields:     fieldsCopy,
		refs:       refs,
		refFields:  append([]int(nil), refFieldIdx...),
	})
	return ObjectId{index: uint32(len(h.slots) - 1), generation: 2}
}

// packObjectID/unpackObjectID let an ObjectId travel through the same
// uint64 field slots as numeric values, the way the Value tagged union
// stores a GC reference as an opaque field (spec.md §3.1 Value.Heap). The
// index is biased by one so that the all-zero uint64 unambiguously means
// "null", matching ref.null's encoding on the operand stack.
func packObjectID(id ObjectId) uint64 {
	return (uint64(id.index)+1)<<32 | uint64(id.generation)
}

func unpackObjectID(v uint64) ObjectId {
	if v == 0 {
		return ObjectId{}
	}
	return ObjectId{index: uint32(v>>32) - 1, generation: uint32(v)}
}

// PackObjectID/UnpackObjectID expose the same encoding for the interpreter,
// whose operand stack is a flat []uint64 (spec.md §5's Stack Manager
// carries references the same way it carries any other value).
func PackObjectID(id ObjectId) uint64  { return packObjectID(id) }
func UnpackObjectID(v uint64) ObjectId { return unpackObjectID(v) }

// IsNullID reports whether v encodes the null GC reference.
func IsNullID(v uint64) bool { return v == 0 }

// StaleHandleError is returned by GetField/SetField when id's generation no
// longer matches the slot (the object was collected).
type StaleHandleError struct{}

func (StaleHandleError) Error() string { return "gcheap: stale object handle" }

func (h *Heap) resolve(id ObjectId) (*object, error) {
	if int(id.index) >= len(h.slots) {
		return nil, StaleHandleError{}
	}
	slot := &h.slots[id.index]
	if slot.generation != id.generation || slot.generation%2 == 1 {
		return nil, StaleHandleError{}
	}
	return slot, nil
}

// GetField reads field i of id's object.
func (h *Heap) GetField(id ObjectId, i int) (uint64, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	slot, err := h.resolve(id)
	if err != nil {
		return 0, err
	}
	return slot.fields[i], nil
}

// SetField writes field i of id's object, maintaining a write barrier: if
// the heap is mid-collection and this write introduces a new reference
// from a black (already-scanned) object to a white (unscanned) one, the
// target is shaded gray immediately so the strong tri-color invariant holds
// (spec.md §3.5 "write barriers").
func (h *Heap) SetField(id ObjectId, i int, v uint64) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	slot, err := h.resolve(id)
	if err != nil {
		return err
	}
	slot.fields[i] = v
	for ri, fieldIdx := range slot.refFields {
		if fieldIdx == i {
			slot.refs[ri] = unpackObjectID(v)
			if h.collecting && slot.marked && !slot.gray {
				if target, terr := h.resolve(slot.refs[ri]); terr == nil && !target.marked {
					target.gray = true
				}
			}
		}
	}
	return nil
}

// FieldCount reports the number of fields/elements id's object was
// allocated with (array.len).
func (h *Heap) FieldCount(id ObjectId) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	slot, err := h.resolve(id)
	if err != nil {
		return 0
	}
	return len(slot.fields)
}

// Len reports the number of allocated (live + freed-but-unreused) slots,
// mostly useful for tests.
func (h *Heap) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.slots)
}
