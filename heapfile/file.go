package heapfile

import (
	"errors"
	"fmt"
	"os"

	"github.com/bytedance/gopkg/util/xxhash3"

	"github.com/joshuapare/fixedheap/heap"
	"github.com/joshuapare/fixedheap/internal/format"
	"github.com/joshuapare/fixedheap/internal/mmfile"
)

// File is a heap living inside a memory-mapped image file.
type File struct {
	path   string
	region *mmfile.Region
	heap   *heap.Heap
}

// Create makes a new image file at path holding an empty heap of size bytes.
// It fails if the file already exists.
func Create(path string, size int, opts *heap.Options) (*File, error) {
	if size < format.MinBuffer || size > format.MaxBuffer {
		return nil, fmt.Errorf("heapfile: create %s: %w: %d bytes", path, heap.ErrBadBuffer, size)
	}
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return nil, fmt.Errorf("heapfile: create %s: %w", path, err)
	}
	if err := f.Truncate(int64(format.ImageHeaderSize + size)); err != nil {
		f.Close()
		os.Remove(path)
		return nil, fmt.Errorf("heapfile: create %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		os.Remove(path)
		return nil, fmt.Errorf("heapfile: create %s: %w", path, err)
	}

	region, err := mmfile.Map(path)
	if err != nil {
		os.Remove(path)
		return nil, fmt.Errorf("heapfile: create %s: %w", path, err)
	}
	h, err := heap.Init(region.Bytes()[format.ImageHeaderSize:], opts)
	if err != nil {
		region.Close()
		os.Remove(path)
		return nil, fmt.Errorf("heapfile: create %s: %w", path, err)
	}

	hf := &File{path: path, region: region, heap: h}
	if err := hf.Sync(); err != nil {
		hf.Close()
		return nil, err
	}
	return hf, nil
}

// Open maps an existing image file and attaches a heap to it. The checksum
// and every heap invariant are verified first.
func Open(path string, opts *heap.Options) (*File, error) {
	region, err := mmfile.Map(path)
	if err != nil {
		return nil, fmt.Errorf("heapfile: open %s: %w", path, err)
	}
	_, body, err := decode(region.Bytes())
	if err == nil {
		var h *heap.Heap
		if h, err = heap.Attach(body, opts); err == nil {
			return &File{path: path, region: region, heap: h}, nil
		}
	}
	return nil, errors.Join(fmt.Errorf("heapfile: open %s: %w", path, err), region.Close())
}

// Path returns the file name the heap is mapped from.
func (f *File) Path() string { return f.path }

// Heap returns the heap stored in the file. It is valid until Close.
func (f *File) Heap() *heap.Heap { return f.heap }

// Sync refreshes the header checksum and flushes the mapping to disk.
func (f *File) Sync() error {
	data := f.region.Bytes()
	if data == nil {
		return fmt.Errorf("heapfile: sync %s: %w", f.path, os.ErrClosed)
	}
	body := f.heap.Buffer()
	format.PutImageHeader(data, format.ImageHeader{
		Version:  format.ImageVersion,
		Length:   len(body),
		Checksum: xxhash3.Hash(body),
	})
	if err := f.region.Sync(); err != nil {
		return fmt.Errorf("heapfile: sync %s: %w", f.path, err)
	}
	return nil
}

// Close syncs the file and releases the mapping.
func (f *File) Close() error {
	if f.region.Bytes() == nil {
		return nil
	}
	return errors.Join(f.Sync(), f.region.Close())
}
