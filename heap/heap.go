package heap

import (
	"fmt"
	"log/slog"
	"unsafe"

	"github.com/joshuapare/fixedheap/heap/verify"
	"github.com/joshuapare/fixedheap/internal/buf"
	"github.com/joshuapare/fixedheap/internal/format"
)

// Ref is the offset of a block's data area relative to the start of the heap
// buffer.
type Ref uint16

// NilRef is returned by failed operations. It never addresses a block.
const NilRef Ref = 0

// HeaderSize is the per-block bookkeeping overhead in bytes.
const HeaderSize = format.HeaderSize

// ControlBlockSize is the number of bytes reserved at the start of the buffer.
const ControlBlockSize = format.ControlBlockSize

// Heap manages allocations inside a caller-owned buffer. All allocator state
// lives in the buffer; Heap only remembers the slice and its options.
type Heap struct {
	buf  []byte
	opts Options
	log  *slog.Logger
}

// Init formats buf as an empty heap: the control block at offset 0 and one
// free block covering the rest of the buffer.
//
// buf must be between 1024 and 65535 bytes long. An odd trailing byte is left
// outside the heap so block lengths stay even.
func Init(buf []byte, opts *Options) (*Heap, error) {
	h, err := newHeap(buf, opts)
	if err != nil {
		return nil, err
	}
	h.format()
	h.log.Debug("heap initialized", "length", len(h.buf), "free", h.free0())
	h.after("init")
	return h, nil
}

// Attach adopts a buffer that already holds a heap, for example one restored
// from an image or shared through a memory mapping. The buffer is validated
// before use.
func Attach(buf []byte, opts *Options) (*Heap, error) {
	h, err := newHeap(buf, opts)
	if err != nil {
		return nil, err
	}
	if err := verify.AllInvariants(h.buf); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCorrupt, err)
	}
	return h, nil
}

func newHeap(b []byte, opts *Options) (*Heap, error) {
	if len(b) < format.MinBuffer || len(b) > format.MaxBuffer {
		return nil, fmt.Errorf("%w: %d bytes (want %d..%d)",
			ErrBadBuffer, len(b), format.MinBuffer, format.MaxBuffer)
	}
	o := opts.withDefaults()
	return &Heap{
		buf:  b[:len(b)&^1],
		opts: o,
		log:  o.Logger,
	}, nil
}

// Reset discards every allocation and formats the buffer again.
func (h *Heap) Reset() {
	h.format()
	h.after("init")
}

func (h *Heap) format() {
	if h.opts.Poison {
		h.paint(0, len(h.buf))
	}
	format.PutHeader(h.buf, format.FreeListHead, 0, false, format.FirstBlock, format.ChainEnd)
	format.PutHeader(h.buf, format.UsedListHead, 0, false, format.ChainEnd, format.ChainEnd)
	format.PutHeader(h.buf, format.FirstBlock, h.free0(), false, format.ChainEnd, format.FreeListHead)
}

// free0 is the data length of the single free block of an empty heap.
func (h *Heap) free0() int {
	return len(h.buf) - format.ControlBlockSize - format.HeaderSize
}

// Len returns the number of buffer bytes managed by the heap.
func (h *Heap) Len() int { return len(h.buf) }

// Buffer returns the managed buffer, control block included.
func (h *Heap) Buffer() []byte { return h.buf }

// Bytes returns the data area of an allocated block, or nil if r does not
// address one. The slice's capacity ends at the block boundary.
func (h *Heap) Bytes(r Ref) []byte {
	off, err := h.usedHeader(r)
	if err != nil {
		return nil
	}
	data, _ := buf.Window(h.buf, off+format.HeaderSize, format.ReadLength(h.buf, off))
	return data
}

// Size returns the data length of an allocated block, or 0 if r does not
// address one. It can exceed the requested size after rounding or a
// truncation that left slack.
func (h *Heap) Size(r Ref) int {
	off, err := h.usedHeader(r)
	if err != nil {
		return 0
	}
	return format.ReadLength(h.buf, off)
}

// RefOf maps a slice obtained from Bytes back to its reference.
func (h *Heap) RefOf(p []byte) (Ref, error) {
	if cap(p) == 0 {
		return NilRef, ErrBadRef
	}
	base := uintptr(unsafe.Pointer(unsafe.SliceData(h.buf)))
	ptr := uintptr(unsafe.Pointer(unsafe.SliceData(p)))
	if ptr < base || ptr >= base+uintptr(len(h.buf)) {
		return NilRef, fmt.Errorf("%w: slice outside heap", ErrBadRef)
	}
	r := Ref(ptr - base)
	if _, err := h.usedHeader(r); err != nil {
		return NilRef, err
	}
	return r, nil
}

// usedHeader returns the header offset of the allocated block r.
// The checks are O(1): bounds, the allocated flag, and the back link of the
// previous node pointing at the header.
func (h *Heap) usedHeader(r Ref) (int, error) {
	off := int(r) - format.HeaderSize
	if r == NilRef || off < format.FirstBlock || !buf.Has(h.buf, off, format.HeaderSize) {
		return 0, fmt.Errorf("%w: %d", ErrBadRef, r)
	}
	if !format.IsAllocated(h.buf, off) {
		return 0, fmt.Errorf("%w: %d", ErrNotAllocated, r)
	}
	if format.BlockEnd(h.buf, off) > len(h.buf) {
		return 0, fmt.Errorf("%w: %d extends past heap", ErrBadRef, r)
	}
	prev := int(format.ReadPrev(h.buf, off))
	if !buf.Has(h.buf, prev, format.HeaderSize) || int(format.ReadNext(h.buf, prev)) != off {
		return 0, fmt.Errorf("%w: %d is not linked", ErrBadRef, r)
	}
	return off, nil
}

func (h *Heap) paint(from, to int) {
	if from >= to {
		return
	}
	b := h.buf[from:to]
	for i := range b {
		b[i] = h.opts.PoisonByte
	}
}

func (h *Heap) after(op string) {
	if h.opts.AfterOp != nil {
		h.opts.AfterOp(op, h)
	}
}

func dataRef(off int) Ref { return Ref(off + format.HeaderSize) }
