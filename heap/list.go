package heap

import "github.com/joshuapare/fixedheap/internal/format"

// List primitives. Every function works on header offsets; the sentinels at
// FreeListHead and UsedListHead are ordinary zero-length headers, so inserting
// after a sentinel and removing the first node need no special cases.

// none is the Go-side spelling of ChainEnd.
const none = -1

// next returns the offset of the node after off, or none.
func (h *Heap) next(off int) int {
	n := format.ReadNext(h.buf, off)
	if n == format.ChainEnd {
		return none
	}
	return int(n)
}

// insertAfter links item into target's list directly after target.
func (h *Heap) insertAfter(target, item int) {
	next := format.ReadNext(h.buf, target)
	format.PutNext(h.buf, item, next)
	format.PutPrev(h.buf, item, uint16(target))
	format.PutNext(h.buf, target, uint16(item))
	if next != format.ChainEnd {
		format.PutPrev(h.buf, int(next), uint16(item))
	}
}

// remove unlinks item from whichever list it is in.
func (h *Heap) remove(item int) {
	prev := format.ReadPrev(h.buf, item)
	next := format.ReadNext(h.buf, item)
	format.PutNext(h.buf, int(prev), next)
	if next != format.ChainEnd {
		format.PutPrev(h.buf, int(next), prev)
	}
	format.PutNext(h.buf, item, format.ChainEnd)
	format.PutPrev(h.buf, item, format.ChainEnd)
}

// insertFree links item into the free list in front of the first node that
// is at least as long, keeping the list sorted by ascending length.
func (h *Heap) insertFree(item int) {
	length := format.ReadLength(h.buf, item)
	target := format.FreeListHead
	for n := h.next(target); n != none && format.ReadLength(h.buf, n) < length; n = h.next(n) {
		target = n
	}
	h.insertAfter(target, item)
}

// rightFreeNeighbor returns the free block whose header starts where the data
// of off ends, or none.
func (h *Heap) rightFreeNeighbor(off int) int {
	end := format.BlockEnd(h.buf, off)
	for s := h.next(format.FreeListHead); s != none; s = h.next(s) {
		if s == end {
			return s
		}
	}
	return none
}
