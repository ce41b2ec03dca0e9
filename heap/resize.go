package heap

import (
	"fmt"

	"github.com/joshuapare/fixedheap/internal/format"
)

// Realloc changes the size of the block addressed by r to n bytes.
//
//   - n == 0 releases the block and returns NilRef.
//   - n rounding to the current size returns r unchanged.
//   - A smaller n shrinks the block in place and returns r. When the freed
//     tail is too small to become a block and there is no free neighbour to
//     merge it into, the block keeps its old size.
//   - A larger n grows the block into a free right neighbour when that
//     neighbour is big enough, returning r. Otherwise the data is moved to a
//     new block and the new reference is returned.
//
// On error the original block is untouched and still owned by the caller.
func (h *Heap) Realloc(r Ref, n int) (Ref, error) {
	if r == NilRef {
		return NilRef, fmt.Errorf("%w: nil reference", ErrBadRef)
	}
	if n < 0 {
		return NilRef, fmt.Errorf("%w: %d", ErrSize, n)
	}
	off, err := h.usedHeader(r)
	if err != nil {
		return NilRef, err
	}
	if n == 0 {
		h.release(off)
		h.after("realloc")
		return NilRef, nil
	}
	if n > format.MaxBuffer {
		return NilRef, fmt.Errorf("%w: need %d", ErrNoSpace, n)
	}

	need := format.DataSize(n)
	length := format.ReadLength(h.buf, off)
	switch {
	case need == length:
		return r, nil
	case need < length:
		h.truncate(off, need)
		h.after("realloc")
		return r, nil
	default:
		return h.extend(off, need)
	}
}

// truncate shrinks the used block at off to need bytes. The reclaimed tail,
// plus a free right neighbour if there is one, becomes a new free block.
func (h *Heap) truncate(off, need int) {
	slack := format.ReadLength(h.buf, off) - need
	right := h.rightFreeNeighbor(off)
	if right == none && slack < format.MinAlloc {
		return
	}

	tailLen := slack - format.HeaderSize
	if right != none {
		// The new header may overlap the neighbour's, so read it first.
		tailLen += format.HeaderSize + format.ReadLength(h.buf, right)
		h.remove(right)
	}

	tail := off + format.HeaderSize + need
	format.PutLength(h.buf, off, need, true)
	format.PutHeader(h.buf, tail, tailLen, false, format.ChainEnd, format.ChainEnd)
	if h.opts.Poison {
		h.paint(tail+format.HeaderSize, format.BlockEnd(h.buf, tail))
	}
	h.insertFree(tail)
}

// extend grows the used block at off to need bytes, in place when the free
// block to its right can cover the growth, by relocation otherwise.
func (h *Heap) extend(off, need int) (Ref, error) {
	length := format.ReadLength(h.buf, off)
	grow := need - length

	right := h.rightFreeNeighbor(off)
	if right != none && format.HeaderSize+format.ReadLength(h.buf, right) >= grow {
		rightLen := format.ReadLength(h.buf, right)
		h.remove(right)

		left := format.HeaderSize + rightLen - grow
		if left >= format.MinAlloc {
			format.PutLength(h.buf, off, need, true)
			tail := off + format.HeaderSize + need
			format.PutHeader(h.buf, tail, left-format.HeaderSize, false, format.ChainEnd, format.ChainEnd)
			h.insertFree(tail)
		} else {
			// Too little would remain for a block; take the whole neighbour.
			format.PutLength(h.buf, off, length+format.HeaderSize+rightLen, true)
		}
		h.after("realloc")
		return dataRef(off), nil
	}

	nr, err := h.Alloc(need)
	if err != nil {
		h.log.Debug("relocation failed", "ref", dataRef(off), "need", need)
		return NilRef, err
	}
	start := off + format.HeaderSize
	copy(h.buf[int(nr):], h.buf[start:start+length])
	h.log.Debug("relocated", "from", dataRef(off), "to", nr, "length", need)
	h.release(off)
	h.after("realloc")
	return nr, nil
}
