package format

import "fmt"

// Heap image file header (little-endian), followed by the heap bytes:
//
//	Offset  Size  Description
//	0x00    4     Signature "fhp1"
//	0x04    2     Version
//	0x06    2     Heap length in bytes
//	0x08    8     xxhash3 of the heap bytes
//	0x10    16    Reserved (zero)
const (
	ImageSignatureOffset = 0x00
	ImageVersionOffset   = 0x04
	ImageLengthOffset    = 0x06
	ImageChecksumOffset  = 0x08

	// ImageHeaderSize is the size of the image header in bytes.
	ImageHeaderSize = 0x20

	// ImageVersion is the only version written and accepted.
	ImageVersion = 1
)

// ImageSignature is the four-byte signature at the start of a heap image.
var ImageSignature = []byte{'f', 'h', 'p', '1'}

// ImageHeader is the decoded header of a heap image file.
type ImageHeader struct {
	Version  uint16
	Length   int
	Checksum uint64
}

// ParseImageHeader decodes the header at the start of b.
func ParseImageHeader(b []byte) (ImageHeader, error) {
	if len(b) < ImageHeaderSize {
		return ImageHeader{}, fmt.Errorf("image header: %w", ErrTruncated)
	}
	if string(b[ImageSignatureOffset:ImageSignatureOffset+4]) != string(ImageSignature) {
		return ImageHeader{}, fmt.Errorf("image header: %w", ErrSignatureMismatch)
	}
	h := ImageHeader{
		Version:  ReadU16(b, ImageVersionOffset),
		Length:   int(ReadU16(b, ImageLengthOffset)),
		Checksum: ReadU64(b, ImageChecksumOffset),
	}
	if h.Version != ImageVersion {
		return ImageHeader{}, fmt.Errorf("image header: version %d: %w", h.Version, ErrUnsupported)
	}
	return h, nil
}

// PutImageHeader encodes h into the first ImageHeaderSize bytes of b.
func PutImageHeader(b []byte, h ImageHeader) {
	copy(b[ImageSignatureOffset:], ImageSignature)
	PutU16(b, ImageVersionOffset, h.Version)
	PutU16(b, ImageLengthOffset, uint16(h.Length))
	PutU64(b, ImageChecksumOffset, h.Checksum)
	clear(b[ImageChecksumOffset+8 : ImageHeaderSize])
}
