package heap

import "errors"

var (
	// ErrBadBuffer indicates a buffer whose length is outside [1024, 65535].
	ErrBadBuffer = errors.New("heap: buffer length outside supported range")

	// ErrSize indicates a negative or zero allocation request.
	ErrSize = errors.New("heap: size must be positive")

	// ErrNoSpace indicates that no free block large enough was found.
	ErrNoSpace = errors.New("heap: no free block large enough")

	// ErrBadRef indicates a reference that does not address a block.
	ErrBadRef = errors.New("heap: bad block reference")

	// ErrNotAllocated indicates an attempt to release or resize a free block.
	ErrNotAllocated = errors.New("heap: block is not allocated")

	// ErrCorrupt indicates Attach was given a buffer that fails validation.
	ErrCorrupt = errors.New("heap: corrupt heap image")
)
