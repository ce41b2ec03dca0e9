package verify

import (
	"cmp"
	"fmt"
	"slices"

	"github.com/joshuapare/fixedheap/internal/format"
)

// ValidationError describes the first invariant violation found.
type ValidationError struct {
	Type    string
	Message string
	Offset  int
	Details map[string]interface{}
}

func (e *ValidationError) Error() string {
	if e.Offset >= 0 {
		return fmt.Sprintf("%s at offset 0x%X: %s", e.Type, e.Offset, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// AllInvariants validates all heap invariants in one call.
// Returns the first error encountered, or nil if all checks pass.
func AllInvariants(data []byte) error {
	checks := []func([]byte) error{
		ControlBlock,
		ListLinks,
		Coverage,
		Accounting,
		FreeListSorted,
		NoAdjacentFree,
	}
	for _, check := range checks {
		if err := check(data); err != nil {
			return err
		}
	}
	return nil
}

// ControlBlock validates the buffer length and both sentinel headers.
func ControlBlock(data []byte) error {
	if len(data) < format.MinBuffer || len(data) > format.MaxBuffer || len(data)%2 != 0 {
		return &ValidationError{
			Type:    "ControlBlock",
			Message: fmt.Sprintf("heap length %d outside [%d, %d] or odd", len(data), format.MinBuffer, format.MaxBuffer),
			Offset:  -1,
		}
	}
	for _, head := range []int{format.FreeListHead, format.UsedListHead} {
		if word := format.ReadU16(data, head+format.BlockLengthOffset); word != 0 {
			return &ValidationError{
				Type:    "ControlBlock",
				Message: fmt.Sprintf("sentinel length word is 0x%04X, want 0", word),
				Offset:  head,
			}
		}
		if next := format.ReadNext(data, head); next != format.ChainEnd && int(next) < format.FirstBlock {
			return &ValidationError{
				Type:    "ControlBlock",
				Message: fmt.Sprintf("sentinel next link %d points into the control block", next),
				Offset:  head,
			}
		}
	}
	return nil
}

// ListLinks validates that both lists are well-formed doubly linked lists.
func ListLinks(data []byte) error {
	if _, err := walk(data, format.FreeListHead); err != nil {
		return err
	}
	_, err := walk(data, format.UsedListHead)
	return err
}

// Coverage validates that the blocks of both lists tile the buffer from the
// end of the control block to the end of the buffer with no gap or overlap.
func Coverage(data []byte) error {
	blocks, err := allBlocks(data)
	if err != nil {
		return err
	}
	pos := format.FirstBlock
	for _, bl := range blocks {
		if bl.Offset != pos {
			msg := "gap before block"
			if bl.Offset < pos {
				msg = "block overlaps its predecessor"
			}
			return &ValidationError{
				Type:    "Coverage",
				Message: fmt.Sprintf("%s: expected header at 0x%X", msg, pos),
				Offset:  bl.Offset,
			}
		}
		pos = bl.End()
	}
	if pos != len(data) {
		return &ValidationError{
			Type:    "Coverage",
			Message: fmt.Sprintf("blocks end at 0x%X, heap ends at 0x%X", pos, len(data)),
			Offset:  pos,
		}
	}
	return nil
}

// Accounting validates that data bytes, block headers and the control block
// add up to the buffer length.
func Accounting(data []byte) error {
	blocks, err := allBlocks(data)
	if err != nil {
		return err
	}
	var free, used int
	for _, bl := range blocks {
		if bl.Allocated {
			used += bl.Length
		} else {
			free += bl.Length
		}
	}
	headers := len(blocks) * format.HeaderSize
	total := free + used + headers + format.ControlBlockSize
	if total != len(data) {
		return &ValidationError{
			Type:    "Accounting",
			Message: fmt.Sprintf("bytes accounted for %d, heap length %d", total, len(data)),
			Offset:  -1,
			Details: map[string]interface{}{
				"free":    free,
				"used":    used,
				"headers": headers,
			},
		}
	}
	return nil
}

// FreeListSorted validates that the free list is ordered by ascending length.
func FreeListSorted(data []byte) error {
	free, err := walk(data, format.FreeListHead)
	if err != nil {
		return err
	}
	for i := 1; i < len(free); i++ {
		if free[i].Length < free[i-1].Length {
			return &ValidationError{
				Type:    "FreeListSorted",
				Message: fmt.Sprintf("length %d follows length %d", free[i].Length, free[i-1].Length),
				Offset:  free[i].Offset,
			}
		}
	}
	return nil
}

// NoAdjacentFree validates that no two free blocks touch in memory.
func NoAdjacentFree(data []byte) error {
	free, err := walk(data, format.FreeListHead)
	if err != nil {
		return err
	}
	starts := make(map[int]struct{}, len(free))
	for _, bl := range free {
		starts[bl.Offset] = struct{}{}
	}
	for _, bl := range free {
		if _, ok := starts[bl.End()]; ok {
			return &ValidationError{
				Type:    "NoAdjacentFree",
				Message: fmt.Sprintf("free block is followed by free block at 0x%X", bl.End()),
				Offset:  bl.Offset,
			}
		}
	}
	return nil
}

// walk follows the list starting at head and returns its nodes in list order.
func walk(data []byte, head int) ([]format.Block, error) {
	name := "free"
	if head == format.UsedListHead {
		name = "used"
	}
	if len(data) < format.ControlBlockSize {
		return nil, &ValidationError{Type: "ListLinks", Message: "buffer too small for control block", Offset: -1}
	}

	var out []format.Block
	limit := len(data) / format.MinAlloc
	prev := head
	for next := format.ReadNext(data, head); next != format.ChainEnd; {
		off := int(next)
		if len(out) >= limit {
			return nil, &ValidationError{
				Type:    "ListLinks",
				Message: fmt.Sprintf("%s list longer than %d nodes (cycle?)", name, limit),
				Offset:  off,
			}
		}
		if off < format.FirstBlock {
			return nil, &ValidationError{
				Type:    "ListLinks",
				Message: fmt.Sprintf("%s list link %d points into the control block", name, off),
				Offset:  prev,
			}
		}
		bl, err := format.ParseBlock(data, off)
		if err != nil {
			return nil, &ValidationError{
				Type:    "ListLinks",
				Message: fmt.Sprintf("%s list node: %v", name, err),
				Offset:  off,
			}
		}
		if int(bl.Prev) != prev {
			return nil, &ValidationError{
				Type:    "ListLinks",
				Message: fmt.Sprintf("%s list back link is %d, want %d", name, bl.Prev, prev),
				Offset:  off,
			}
		}
		if bl.Allocated != (head == format.UsedListHead) {
			return nil, &ValidationError{
				Type:    "ListLinks",
				Message: fmt.Sprintf("allocated flag %v on a %s list node", bl.Allocated, name),
				Offset:  off,
			}
		}
		out = append(out, bl)
		prev = off
		next = bl.Next
	}
	return out, nil
}

// allBlocks returns the nodes of both lists ordered by address.
func allBlocks(data []byte) ([]format.Block, error) {
	free, err := walk(data, format.FreeListHead)
	if err != nil {
		return nil, err
	}
	used, err := walk(data, format.UsedListHead)
	if err != nil {
		return nil, err
	}
	blocks := append(free, used...)
	slices.SortFunc(blocks, func(a, b format.Block) int { return cmp.Compare(a.Offset, b.Offset) })
	return blocks, nil
}
