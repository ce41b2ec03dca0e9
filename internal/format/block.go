package format

import (
	"fmt"

	"github.com/joshuapare/fixedheap/internal/buf"
)

// Block is a decoded block header together with its data area.
type Block struct {
	Offset    int    // Header offset relative to the start of the buffer
	Length    int    // Data length, allocated flag stripped
	Next      uint16 // Next link (ChainEnd terminates)
	Prev      uint16 // Previous link
	Allocated bool   // True when bit 0 of the length word is set
	Data      []byte // Data area (alias of the underlying buffer)
}

// End returns the offset one past the last data byte.
func (bl Block) End() int { return bl.Offset + HeaderSize + bl.Length }

// ParseBlock decodes the header at off and bounds-checks the block against b.
func ParseBlock(b []byte, off int) (Block, error) {
	if !buf.Has(b, off, HeaderSize) {
		return Block{}, fmt.Errorf("block at %d: %w", off, ErrTruncated)
	}
	word := buf.U16LE(b[off+BlockLengthOffset:])
	length := int(word & LengthMask)
	data, ok := buf.Slice(b, off+HeaderSize, length)
	if !ok {
		return Block{}, fmt.Errorf("block at %d: length %d: %w", off, length, ErrTruncated)
	}
	return Block{
		Offset:    off,
		Length:    length,
		Next:      buf.U16LE(b[off+BlockNextOffset:]),
		Prev:      buf.U16LE(b[off+BlockPrevOffset:]),
		Allocated: word&AllocatedFlag != 0,
		Data:      data,
	}, nil
}

// ReadLength returns the data length of the block at off.
func ReadLength(b []byte, off int) int {
	return int(ReadU16(b, off+BlockLengthOffset) & LengthMask)
}

// IsAllocated reports whether the block at off carries the allocated flag.
func IsAllocated(b []byte, off int) bool {
	return ReadU16(b, off+BlockLengthOffset)&AllocatedFlag != 0
}

// PutLength writes the length word of the block at off.
func PutLength(b []byte, off, length int, allocated bool) {
	word := uint16(length) & LengthMask
	if allocated {
		word |= AllocatedFlag
	}
	PutU16(b, off+BlockLengthOffset, word)
}

// ReadNext returns the next link of the header at off.
func ReadNext(b []byte, off int) uint16 { return ReadU16(b, off+BlockNextOffset) }

// ReadPrev returns the previous link of the header at off.
func ReadPrev(b []byte, off int) uint16 { return ReadU16(b, off+BlockPrevOffset) }

// PutNext sets the next link of the header at off.
func PutNext(b []byte, off int, next uint16) { PutU16(b, off+BlockNextOffset, next) }

// PutPrev sets the previous link of the header at off.
func PutPrev(b []byte, off int, prev uint16) { PutU16(b, off+BlockPrevOffset, prev) }

// PutHeader writes a complete header.
func PutHeader(b []byte, off, length int, allocated bool, next, prev uint16) {
	PutLength(b, off, length, allocated)
	PutNext(b, off, next)
	PutPrev(b, off, prev)
}

// BlockEnd returns the offset one past the data area of the block at off.
func BlockEnd(b []byte, off int) int {
	return off + HeaderSize + ReadLength(b, off)
}

// Adjacency describes how two blocks sit relative to each other in memory.
type Adjacency int

const (
	NotAdjacent Adjacency = 0
	// Before means the first block's data ends where the second header begins.
	Before Adjacency = -1
	// After means the second block's data ends where the first header begins.
	After Adjacency = 1
)

// Adjacent compares the blocks whose headers are at first and second.
func Adjacent(b []byte, first, second int) Adjacency {
	switch {
	case BlockEnd(b, first) == second:
		return Before
	case BlockEnd(b, second) == first:
		return After
	default:
		return NotAdjacent
	}
}
