// Package format houses the in-buffer layout of a fixed heap: the block
// header that precedes every data area, the control block holding the two
// list sentinels, and the header of a heap image file. Higher-level packages
// only touch the buffer through these codecs.
package format

// Block header layout (little-endian), stored immediately before a data area:
//
//	Offset  Size  Description
//	0x00    2     Length word. Data length in bytes (always even).
//	              Bit 0 is set while the block is allocated.
//	0x02    2     Next link: offset of the next header in the same list.
//	0x04    2     Previous link: offset of the previous header or sentinel.
const (
	BlockLengthOffset = 0x00
	BlockNextOffset   = 0x02
	BlockPrevOffset   = 0x04

	// HeaderSize is the number of bytes used by the header preceding every
	// block (free, used or sentinel).
	HeaderSize = 6
)

// Control block layout. It lives at offset 0 and consists of two zero-length
// headers acting as list sentinels.
const (
	FreeListHead = 0x00
	UsedListHead = HeaderSize

	// ControlBlockSize is the size of the control block in bytes.
	ControlBlockSize = 2 * HeaderSize

	// FirstBlock is the header offset of the block created by initialization.
	FirstBlock = ControlBlockSize
)

const (
	// ChainEnd marks the end of a list in a next or previous link.
	ChainEnd = 0xFFFF

	// AllocatedFlag is stored in bit 0 of the length word of used blocks.
	AllocatedFlag = 0x0001

	// LengthMask strips the allocated flag from a length word.
	LengthMask = 0xFFFE

	// MinBuffer is the smallest buffer a heap can be built over.
	MinBuffer = 1024

	// MaxBuffer is the largest buffer a heap can be built over. Links are 16
	// bits wide and ChainEnd is reserved.
	MaxBuffer = 0xFFFF

	// MinData is the smallest data area handed out. Requests below it are
	// rounded up so that any released block is a valid list node.
	MinData = 4

	// MinAlloc is the smallest total block size (header plus data).
	MinAlloc = HeaderSize + MinData
)
