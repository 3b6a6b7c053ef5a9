package gcheap

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAllocGetSetField(t *testing.T) {
	h := NewHeap()
	tp := h.InternTypePack(KindStruct, []byte{4, 8})

	id := h.Alloc(tp, []uint64{42, 0}, nil)

	v, err := h.GetField(id, 0)
	require.NoError(t, err)
	require.Equal(t, uint64(42), v)

	require.NoError(t, h.SetField(id, 0, 7))
	v, err = h.GetField(id, 0)
	require.NoError(t, err)
	require.Equal(t, uint64(7), v)
}

func TestInternTypePack_Dedup(t *testing.T) {
	h := NewHeap()
	a := h.InternTypePack(KindArray, []byte{4})
	b := h.InternTypePack(KindArray, []byte{4})
	require.Same(t, a, b)
	require.Equal(t, a.CanonicalID, b.CanonicalID)
}

func TestResolve_StaleHandle(t *testing.T) {
	h := NewHeap()
	tp := h.InternTypePack(KindStruct, []byte{4})
	id := h.Alloc(tp, []uint64{1}, nil)

	_, err := h.Collect(context.Background(), nil, 2)
	require.NoError(t, err)

	_, err = h.GetField(id, 0)
	require.ErrorIs(t, err, StaleHandleError{})
}

func TestCollect_KeepsReachableFreesUnreachable(t *testing.T) {
	h := NewHeap()
	tp := h.InternTypePack(KindStruct, []byte{8})

	child := h.Alloc(tp, []uint64{1}, nil)
	parent := h.Alloc(tp, []uint64{PackObjectID(child)}, []int{0})
	garbage := h.Alloc(tp, []uint64{2}, nil)

	freed, err := h.Collect(context.Background(), []ObjectId{parent}, 4)
	require.NoError(t, err)
	require.Equal(t, 1, freed)

	_, err = h.GetField(parent, 0)
	require.NoError(t, err)
	_, err = h.GetField(child, 0)
	require.NoError(t, err)

	_, err = h.GetField(garbage, 0)
	require.ErrorIs(t, err, StaleHandleError{})
}

func TestCollect_ReentrantNoOp(t *testing.T) {
	h := NewHeap()
	h.collecting = true
	freed, err := h.Collect(context.Background(), nil, 1)
	require.NoError(t, err)
	require.Equal(t, 0, freed)
}

func TestPackUnpackObjectID_RoundTrip(t *testing.T) {
	id := ObjectId{index: 3, generation: 5}
	require.Equal(t, id, UnpackObjectID(PackObjectID(id)))
	require.True(t, IsNullID(0))
	require.False(t, IsNullID(PackObjectID(id)))
}
