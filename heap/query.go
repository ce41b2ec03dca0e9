package heap

import (
	"cmp"
	"fmt"
	"io"
	"slices"

	"github.com/joshuapare/fixedheap/internal/format"
)

// Stats summarizes both lists.
type Stats struct {
	FreeBytes   int `json:"free_bytes"`   // Data bytes in free blocks
	UsedBytes   int `json:"used_bytes"`   // Data bytes in used blocks
	HeaderBytes int `json:"header_bytes"` // Block headers, control block excluded
	TotalBytes  int `json:"total_bytes"`  // Everything accounted for, control block included
	LargestFree int `json:"largest_free"` // Data length of the largest free block
	FreeBlocks  int `json:"free_blocks"`
	UsedBlocks  int `json:"used_blocks"`
}

// BlockInfo describes one block as seen by Walk.
type BlockInfo struct {
	Ref    Ref  `json:"ref"`
	Offset int  `json:"offset"` // Header offset
	Length int  `json:"length"`
	Next   int  `json:"next"`
	Prev   int  `json:"previous"`
	Free   bool `json:"free"`
}

// Query walks both lists and totals them. On a consistent heap
// TotalBytes == Len() and FreeBytes+UsedBytes+HeaderBytes == Len()-ControlBlockSize.
func (h *Heap) Query() Stats {
	var st Stats
	h.Walk(func(b BlockInfo) bool {
		st.HeaderBytes += format.HeaderSize
		if b.Free {
			st.FreeBlocks++
			st.FreeBytes += b.Length
			st.LargestFree = max(st.LargestFree, b.Length)
		} else {
			st.UsedBlocks++
			st.UsedBytes += b.Length
		}
		return true
	})
	st.TotalBytes = st.FreeBytes + st.UsedBytes + st.HeaderBytes + format.ControlBlockSize
	return st
}

// Walk calls fn for every block in list order, the used list first, until fn
// returns false. A walk never visits more nodes than the buffer can hold, so
// a damaged list cannot loop forever.
func (h *Heap) Walk(fn func(BlockInfo) bool) {
	limit := len(h.buf) / format.HeaderSize
	for _, head := range []int{format.UsedListHead, format.FreeListHead} {
		steps := 0
		for off := h.next(head); off != none && steps < limit; off = h.next(off) {
			if off+format.HeaderSize > len(h.buf) {
				break
			}
			steps++
			if !fn(h.info(off, head == format.FreeListHead)) {
				return
			}
		}
	}
}

// Blocks returns every block ordered by address.
func (h *Heap) Blocks() []BlockInfo {
	var out []BlockInfo
	h.Walk(func(b BlockInfo) bool {
		out = append(out, b)
		return true
	})
	slices.SortFunc(out, func(a, b BlockInfo) int { return cmp.Compare(a.Offset, b.Offset) })
	return out
}

func (h *Heap) info(off int, free bool) BlockInfo {
	return BlockInfo{
		Ref:    dataRef(off),
		Offset: off,
		Length: format.ReadLength(h.buf, off),
		Next:   int(format.ReadNext(h.buf, off)),
		Prev:   int(format.ReadPrev(h.buf, off)),
		Free:   free,
	}
}

// Dump renders both lists and the totals, one block per line.
func (h *Heap) Dump(w io.Writer) error {
	ew := &errWriter{w: w}
	for _, list := range []struct {
		title string
		free  bool
	}{{"Used list", false}, {"Free list", true}} {
		ew.printf("%s\n", list.title)
		h.Walk(func(b BlockInfo) bool {
			if b.Free == list.free {
				ew.printf("  offset=%d next=%d previous=%d length=%d\n", b.Offset, b.Next, b.Prev, b.Length)
			}
			return ew.err == nil
		})
	}

	st := h.Query()
	ew.printf("bytes accounted for = %05d\n", st.TotalBytes)
	ew.printf("         free bytes = %05d\n", st.FreeBytes)
	ew.printf("         used bytes = %05d\n", st.UsedBytes)
	ew.printf(" largest free block = %05d\n", st.LargestFree)
	return ew.err
}

type errWriter struct {
	w   io.Writer
	err error
}

func (e *errWriter) printf(format string, args ...any) {
	if e.err != nil {
		return
	}
	_, e.err = fmt.Fprintf(e.w, format, args...)
}
