// Package heapfile stores heaps in image files.
//
// A heap holds no pointers, so its buffer can be written out verbatim and
// attached again later, at any address. An image is a 32-byte header
// (signature, version, heap length, xxhash3 of the heap bytes) followed by
// the heap buffer.
//
// Save and Load copy whole images. Create and Open map the file read-write,
// so the heap lives directly in the file and Sync makes it durable.
package heapfile

import (
	"errors"
	"fmt"
	"os"

	"github.com/bytedance/gopkg/lang/dirtmake"
	"github.com/bytedance/gopkg/util/xxhash3"

	"github.com/joshuapare/fixedheap/heap"
	"github.com/joshuapare/fixedheap/internal/format"
)

var (
	// ErrChecksum indicates heap bytes that do not match the stored checksum.
	ErrChecksum = errors.New("heapfile: checksum mismatch")

	// ErrLength indicates a header length that disagrees with the file size.
	ErrLength = errors.New("heapfile: heap length exceeds file")
)

// Save writes h to path as an image, replacing any existing file.
func Save(path string, h *heap.Heap) error {
	body := h.Buffer()
	img := dirtmake.Bytes(format.ImageHeaderSize+len(body), format.ImageHeaderSize+len(body))
	format.PutImageHeader(img, format.ImageHeader{
		Version:  format.ImageVersion,
		Length:   len(body),
		Checksum: xxhash3.Hash(body),
	})
	copy(img[format.ImageHeaderSize:], body)
	if err := os.WriteFile(path, img, 0o644); err != nil {
		return fmt.Errorf("heapfile: save %s: %w", path, err)
	}
	return nil
}

// Load reads the image at path into memory and attaches a heap to it.
func Load(path string, opts *heap.Options) (*heap.Heap, error) {
	img, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("heapfile: load %s: %w", path, err)
	}
	_, body, err := decode(img)
	if err != nil {
		return nil, fmt.Errorf("heapfile: load %s: %w", path, err)
	}
	h, err := heap.Attach(body, opts)
	if err != nil {
		return nil, fmt.Errorf("heapfile: load %s: %w", path, err)
	}
	return h, nil
}

// Inspect decodes the header of the image at path and checks its checksum
// without attaching a heap.
func Inspect(path string) (format.ImageHeader, error) {
	img, err := os.ReadFile(path)
	if err != nil {
		return format.ImageHeader{}, err
	}
	hdr, _, err := decode(img)
	return hdr, err
}

// decode validates an image and returns its header and heap bytes.
func decode(img []byte) (format.ImageHeader, []byte, error) {
	hdr, err := format.ParseImageHeader(img)
	if err != nil {
		return format.ImageHeader{}, nil, err
	}
	body := img[format.ImageHeaderSize:]
	if hdr.Length > len(body) {
		return hdr, nil, fmt.Errorf("%w: header says %d, file holds %d", ErrLength, hdr.Length, len(body))
	}
	body = body[:hdr.Length]
	if sum := xxhash3.Hash(body); sum != hdr.Checksum {
		return hdr, nil, fmt.Errorf("%w: stored %016x, computed %016x", ErrChecksum, hdr.Checksum, sum)
	}
	return hdr, body, nil
}
