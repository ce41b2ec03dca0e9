package heap

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/joshuapare/fixedheap/internal/format"
)

// Alloc reserves at least n bytes and returns the reference of the data area.
//
// n is rounded up to an even value of at least four bytes. Alloc returns
// ErrSize for n <= 0 and ErrNoSpace when no free block is large enough; in
// both cases the heap is unchanged.
func (h *Heap) Alloc(n int) (Ref, error) {
	if n <= 0 {
		return NilRef, fmt.Errorf("%w: %d", ErrSize, n)
	}
	if n > format.MaxBuffer {
		return NilRef, fmt.Errorf("%w: need %d", ErrNoSpace, n)
	}
	need := format.DataSize(n)

	off := h.firstFit(need)
	if off == none {
		if h.log.Enabled(context.Background(), slog.LevelDebug) {
			st := h.Query()
			h.log.Debug("alloc failed",
				"need", need,
				"free_bytes", st.FreeBytes,
				"free_blocks", st.FreeBlocks,
				"largest_free", st.LargestFree)
		}
		return NilRef, fmt.Errorf("%w: need %d", ErrNoSpace, need)
	}

	h.take(off, need)
	h.after("alloc")
	return dataRef(off), nil
}

// firstFit returns the first free block whose length covers need. The free
// list is sorted, so this is also the tightest fit.
func (h *Heap) firstFit(need int) int {
	for s := h.next(format.FreeListHead); s != none; s = h.next(s) {
		if format.ReadLength(h.buf, s) >= need {
			return s
		}
	}
	return none
}

// take moves the free block at off to the used list, splitting off the tail
// when it is large enough to be a block of its own.
func (h *Heap) take(off, need int) {
	h.remove(off)

	length := format.ReadLength(h.buf, off)
	if length-need >= format.MinAlloc {
		rest := off + format.HeaderSize + need
		format.PutHeader(h.buf, rest, length-need-format.HeaderSize, false, format.ChainEnd, format.ChainEnd)
		h.insertFree(rest)
		length = need
	}

	format.PutLength(h.buf, off, length, true)
	h.insertAfter(format.UsedListHead, off)
}
