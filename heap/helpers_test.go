package heap

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/joshuapare/fixedheap/heap/verify"
	"github.com/joshuapare/fixedheap/internal/format"
)

// newCheckedHeap formats a heap of the given size and validates every
// invariant after each mutating operation.
func newCheckedHeap(t testing.TB, size int) *Heap {
	t.Helper()
	h, err := Init(make([]byte, size), checkedOptions(t))
	require.NoError(t, err)
	return h
}

func checkedOptions(t testing.TB) *Options {
	return &Options{
		AfterOp: func(op string, h *Heap) {
			if err := verify.AllInvariants(h.Buffer()); err != nil {
				t.Fatalf("invariants broken after %s: %v", op, err)
			}
		},
	}
}

// mustAlloc allocates n bytes and fails the test on error.
func mustAlloc(t testing.TB, h *Heap, n int) Ref {
	t.Helper()
	r, err := h.Alloc(n)
	require.NoError(t, err, "Alloc(%d)", n)
	require.NotEqual(t, NilRef, r)
	return r
}

// freeLengths returns the free list lengths in list order.
func freeLengths(h *Heap) []int {
	var out []int
	for s := h.next(format.FreeListHead); s != none; s = h.next(s) {
		out = append(out, format.ReadLength(h.buf, s))
	}
	return out
}

// usedRefs returns the used list in list order.
func usedRefs(h *Heap) []Ref {
	var out []Ref
	for s := h.next(format.UsedListHead); s != none; s = h.next(s) {
		out = append(out, dataRef(s))
	}
	return out
}

func fill(b []byte, v byte) {
	for i := range b {
		b[i] = v
	}
}

// requireAccounting checks the accounting identity through Query.
func requireAccounting(t testing.TB, h *Heap) {
	t.Helper()
	st := h.Query()
	require.Equal(t, h.Len(), st.TotalBytes)
	require.Equal(t, h.Len()-ControlBlockSize, st.FreeBytes+st.UsedBytes+st.HeaderBytes)
}
