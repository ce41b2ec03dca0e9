package heap

import "github.com/joshuapare/fixedheap/internal/format"

// Free releases the block addressed by r and merges it with any free block
// directly before or after it in memory. Freeing NilRef is a no-op.
//
// Free returns ErrBadRef or ErrNotAllocated when r does not address a live
// allocation; the heap is left unchanged.
func (h *Heap) Free(r Ref) error {
	if r == NilRef {
		return nil
	}
	off, err := h.usedHeader(r)
	if err != nil {
		return err
	}
	h.release(off)
	h.after("free")
	return nil
}

// release moves the used block at off into the free list.
func (h *Heap) release(off int) {
	h.remove(off)
	format.PutLength(h.buf, off, format.ReadLength(h.buf, off), false)

	off = h.coalesce(off)
	if h.opts.Poison {
		h.paint(off+format.HeaderSize, format.BlockEnd(h.buf, off))
	}
	h.insertFree(off)
}

// coalesce absorbs free blocks that are memory-adjacent to the unlinked block
// at off and returns the header of the merged block. The free list is
// rescanned after every merge since a merge can expose a new neighbour.
func (h *Heap) coalesce(off int) int {
	for {
		merged := false
		for s := h.next(format.FreeListHead); s != none; s = h.next(s) {
			switch format.Adjacent(h.buf, s, off) {
			case format.Before:
				h.remove(s)
				grown := format.ReadLength(h.buf, s) + format.HeaderSize + format.ReadLength(h.buf, off)
				format.PutLength(h.buf, s, grown, false)
				h.log.Debug("coalesce", "into", s, "from", off, "length", grown)
				off = s
				merged = true
			case format.After:
				h.remove(s)
				grown := format.ReadLength(h.buf, off) + format.HeaderSize + format.ReadLength(h.buf, s)
				format.PutLength(h.buf, off, grown, false)
				h.log.Debug("coalesce", "into", off, "from", s, "length", grown)
				merged = true
			}
			if merged {
				break
			}
		}
		if !merged {
			return off
		}
	}
}
