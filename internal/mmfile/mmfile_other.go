//go:build !unix

package mmfile

import (
	"fmt"
	"os"
)

// Map reads the entire file when a shared mapping is not available. Sync
// writes the buffer back in place.
func Map(path string) (*Region, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrEmpty, path)
	}
	writeBack := func(b []byte) error {
		f, err := os.OpenFile(path, os.O_WRONLY, 0)
		if err != nil {
			return err
		}
		if _, err := f.WriteAt(b, 0); err != nil {
			f.Close()
			return err
		}
		if err := f.Sync(); err != nil {
			f.Close()
			return err
		}
		return f.Close()
	}
	return &Region{
		data:  data,
		sync:  writeBack,
		close: func([]byte) error { return nil },
	}, nil
}
