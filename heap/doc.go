// Package heap implements a fixed-size heap carved out of a single
// caller-supplied byte buffer.
//
// # Overview
//
// The heap never asks the Go runtime for memory. The caller owns a buffer of
// 1 KiB to 64 KiB and the allocator stores all of its bookkeeping inside that
// buffer: a 12-byte control block at offset 0 followed by blocks, each made of
// a 6-byte header and a data area. Headers link blocks into one of two doubly
// linked lists, the free list and the used list, using 16-bit byte offsets, so
// a heap image can be copied, saved or mapped anywhere and attached again.
//
// # Operations
//
//   - Init(buf, opts): format buf as an empty heap
//   - Attach(buf, opts): adopt a buffer that already holds a heap
//   - Alloc(n): reserve n bytes, returning a Ref
//   - Free(ref): release a block, merging it with free neighbours
//   - Realloc(ref, n): shrink or grow in place, or relocate
//   - Query(): totals for used, free and largest free bytes
//
// # Usage Example
//
//	buf := make([]byte, 4096)
//	h, err := heap.Init(buf, nil)
//	if err != nil {
//	    return err
//	}
//
//	ref, err := h.Alloc(40)
//	if err != nil {
//	    return err
//	}
//	copy(h.Bytes(ref), "hello")
//
//	ref, err = h.Realloc(ref, 80)
//	if err != nil {
//	    return err
//	}
//	_ = h.Free(ref)
//
// # References
//
// A Ref is the offset of a block's data area from the start of the buffer.
// The block header always sits HeaderSize bytes before it, so Free and Realloc
// find it without searching. NilRef (0) is never a valid data offset because
// the control block occupies the start of the buffer.
//
// # Allocation Policy
//
// The free list is kept sorted by ascending length. Alloc takes the first
// block that is large enough, which makes first-fit a best-fit search. When
// the leftover space can hold another block the match is split and the
// remainder goes back into the free list at its sorted position.
//
// Lengths are always even. Requests are rounded up to an even size of at least
// four bytes, so every block that is later released is a valid list node.
//
// # Thread Safety
//
// Heap instances are not thread-safe. Callers must serialize access to a
// given buffer externally.
package heap
