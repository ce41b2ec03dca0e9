// Package mmfile maps heap image files into memory for reading and writing.
// On unix systems the mapping is shared with the file; elsewhere the file is
// read into memory and written back on Sync.
package mmfile

import "errors"

// ErrEmpty is returned when mapping a zero-length file.
var ErrEmpty = errors.New("mmfile: file is empty")

// Region is a writable view of a whole file.
type Region struct {
	data  []byte
	sync  func([]byte) error
	close func([]byte) error
}

// Bytes returns the mapped contents. The slice is invalid after Close.
func (r *Region) Bytes() []byte { return r.data }

// Sync makes modifications durable in the underlying file.
func (r *Region) Sync() error {
	if r.data == nil {
		return nil
	}
	return r.sync(r.data)
}

// Close releases the mapping. Calling Close more than once is a no-op.
func (r *Region) Close() error {
	if r.data == nil {
		return nil
	}
	data := r.data
	r.data = nil
	return r.close(data)
}
