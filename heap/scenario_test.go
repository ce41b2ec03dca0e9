package heap

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestScenario_MixedSequence replays the reference console session on an
// 8 KiB heap.
func TestScenario_MixedSequence(t *testing.T) {
	h := newCheckedHeap(t, 8192)

	p40 := mustAlloc(t, h, 40)
	p60 := mustAlloc(t, h, 60)
	p10 := mustAlloc(t, h, 10)
	p32 := mustAlloc(t, h, 32)
	assert.Equal(t, 4, h.Query().UsedBlocks)

	for _, r := range []Ref{p60, p40, p32, p10} {
		require.NoError(t, h.Free(r))
	}
	st := h.Query()
	assert.Equal(t, 8192-ControlBlockSize-HeaderSize, st.FreeBytes)
	assert.Equal(t, 1, st.FreeBlocks)

	big := mustAlloc(t, h, 4000)
	mustAlloc(t, h, 80)
	require.NoError(t, h.Free(big))

	st = h.Query()
	assert.Equal(t, 80, st.UsedBytes)
	assert.Equal(t, 2, st.FreeBlocks)
	assert.Equal(t, 4000+4082, st.FreeBytes)
	assert.Equal(t, 4082, st.LargestFree)
	assert.Equal(t, 8192, st.TotalBytes)
}

// TestScenario_GrowingString grows a NUL-terminated string from 11 to 21 to
// 31 bytes, with and without room to grow in place.
func TestScenario_GrowingString(t *testing.T) {
	for _, blocked := range []bool{false, true} {
		name := "in_place"
		if blocked {
			name = "relocating"
		}
		t.Run(name, func(t *testing.T) {
			h := newCheckedHeap(t, 1024)
			r := mustAlloc(t, h, 11)
			if blocked {
				mustAlloc(t, h, 4)
			}
			copy(h.Bytes(r), "0123456789\x00")

			var err error
			r, err = h.Realloc(r, 21)
			require.NoError(t, err)
			require.Equal(t, "0123456789", string(h.Bytes(r)[:10]))
			copy(h.Bytes(r)[10:], "abcdefghij\x00")

			r, err = h.Realloc(r, 31)
			require.NoError(t, err)
			require.Equal(t, "0123456789abcdefghij", string(h.Bytes(r)[:20]))
			copy(h.Bytes(r)[20:], "ABCDEFGHIJ\x00")

			s, _, _ := strings.Cut(string(h.Bytes(r)), "\x00")
			assert.Equal(t, "0123456789abcdefghijABCDEFGHIJ", s)
		})
	}
}

// TestScenario_OversizedRequest asks for more than the smallest heap holds.
func TestScenario_OversizedRequest(t *testing.T) {
	h := newCheckedHeap(t, 1024)
	before := h.Query()

	r, err := h.Alloc(2000)
	require.ErrorIs(t, err, ErrNoSpace)
	assert.Equal(t, NilRef, r)
	assert.Equal(t, before, h.Query())
	assert.Equal(t, 1, before.FreeBlocks)
	assert.Equal(t, 0, before.UsedBlocks)
}
