package format

import "errors"

var (
	// ErrTruncated indicates the buffer lacked the bytes required for a structure.
	ErrTruncated = errors.New("format: truncated buffer")
	// ErrSignatureMismatch indicates an image header had an unexpected magic.
	ErrSignatureMismatch = errors.New("format: signature mismatch")
	// ErrUnsupported indicates an image version this package cannot read.
	ErrUnsupported = errors.New("format: unsupported image version")
)
