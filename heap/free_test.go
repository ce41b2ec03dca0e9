package heap

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFree_NilRefIsNoop(t *testing.T) {
	h := newCheckedHeap(t, 1024)
	before := bytes.Clone(h.Buffer())
	require.NoError(t, h.Free(NilRef))
	assert.Equal(t, before, h.Buffer())
}

func TestFree_InvalidRefs(t *testing.T) {
	h := newCheckedHeap(t, 1024)
	a := mustAlloc(t, h, 40)
	mustAlloc(t, h, 40)
	before := bytes.Clone(h.Buffer())

	tests := []struct {
		name string
		ref  Ref
		want error
	}{
		{"inside_control_block", Ref(3), ErrBadRef},
		{"past_end", Ref(60000), ErrBadRef},
		{"inside_data", a + 10, ErrNotAllocated},
		{"free_block", a + 40 + 2*HeaderSize + 40, ErrNotAllocated},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.ErrorIs(t, h.Free(tt.ref), tt.want)
			assert.Equal(t, before, h.Buffer())
		})
	}
}

func TestFree_DoubleFree(t *testing.T) {
	h := newCheckedHeap(t, 1024)
	a := mustAlloc(t, h, 40)
	mustAlloc(t, h, 40)
	require.NoError(t, h.Free(a))

	before := bytes.Clone(h.Buffer())
	require.ErrorIs(t, h.Free(a), ErrNotAllocated)
	assert.Equal(t, before, h.Buffer())
}

func TestFree_RoundTripRestoresState(t *testing.T) {
	h := newCheckedHeap(t, 2048)
	mustAlloc(t, h, 64)
	keep := mustAlloc(t, h, 32)
	before := h.Query()

	r := mustAlloc(t, h, 100)
	require.NoError(t, h.Free(r))
	assert.Equal(t, before, h.Query())

	require.NoError(t, h.Free(keep))
	r = mustAlloc(t, h, 100)
	require.NoError(t, h.Free(r))
	assert.Equal(t, 1, h.Query().FreeBlocks)
}

func TestFree_Coalescing(t *testing.T) {
	// Four 40-byte blocks at headers 12, 58, 104 and 150 followed by the
	// remaining free space at 196.
	setup := func(t *testing.T) (*Heap, [4]Ref) {
		h := newCheckedHeap(t, 1024)
		var refs [4]Ref
		for i := range refs {
			refs[i] = mustAlloc(t, h, 40)
		}
		require.Equal(t, []int{822}, freeLengths(h))
		return h, refs
	}

	t.Run("no_neighbours", func(t *testing.T) {
		h, refs := setup(t)
		require.NoError(t, h.Free(refs[1]))
		assert.Equal(t, []int{40, 822}, freeLengths(h))
	})

	t.Run("left_neighbour", func(t *testing.T) {
		h, refs := setup(t)
		require.NoError(t, h.Free(refs[0]))
		require.NoError(t, h.Free(refs[1]))
		assert.Equal(t, []int{86, 822}, freeLengths(h))
	})

	t.Run("right_neighbour", func(t *testing.T) {
		h, refs := setup(t)
		require.NoError(t, h.Free(refs[3]))
		assert.Equal(t, []int{868}, freeLengths(h))
	})

	t.Run("both_neighbours", func(t *testing.T) {
		h, refs := setup(t)
		require.NoError(t, h.Free(refs[0]))
		require.NoError(t, h.Free(refs[2]))
		assert.Equal(t, []int{40, 40, 822}, freeLengths(h))

		require.NoError(t, h.Free(refs[1]))
		assert.Equal(t, []int{132, 822}, freeLengths(h))

		st := h.Query()
		assert.Equal(t, 954, st.FreeBytes)
		assert.Equal(t, 40, st.UsedBytes)

		require.NoError(t, h.Free(refs[3]))
		assert.Equal(t, []int{1006}, freeLengths(h))
	})
}

func TestFree_PoisonsReleasedData(t *testing.T) {
	h, err := Init(make([]byte, 1024), &Options{Poison: true, PoisonByte: 0x5A, AfterOp: checkedOptions(t).AfterOp})
	require.NoError(t, err)

	a := mustAlloc(t, h, 40)
	b := mustAlloc(t, h, 40)
	fill(h.Bytes(a), 0x11)
	fill(h.Bytes(b), 0x22)
	stale := h.Buffer()[int(a) : int(a)+40]

	require.NoError(t, h.Free(a))
	for i, v := range stale {
		require.Equal(t, byte(0x5A), v, "byte %d", i)
	}
	assert.Equal(t, byte(0x22), h.Bytes(b)[0])
}
