package heapfile

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joshuapare/fixedheap/heap"
	"github.com/joshuapare/fixedheap/internal/format"
)

func newPopulatedHeap(t *testing.T) (*heap.Heap, heap.Ref) {
	t.Helper()
	h, err := heap.Init(make([]byte, 2048), nil)
	require.NoError(t, err)
	r, err := h.Alloc(32)
	require.NoError(t, err)
	copy(h.Bytes(r), "persisted payload")
	_, err = h.Alloc(100)
	require.NoError(t, err)
	return h, r
}

func TestSaveLoad_RoundTrip(t *testing.T) {
	h, r := newPopulatedHeap(t)
	path := filepath.Join(t.TempDir(), "heap.img")
	require.NoError(t, Save(path, h))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, int64(format.ImageHeaderSize+2048), info.Size())

	loaded, err := Load(path, nil)
	require.NoError(t, err)
	assert.Equal(t, h.Query(), loaded.Query())
	assert.Equal(t, "persisted payload", string(loaded.Bytes(r)[:17]))

	hdr, err := Inspect(path)
	require.NoError(t, err)
	assert.Equal(t, 2048, hdr.Length)
	assert.Equal(t, uint16(format.ImageVersion), hdr.Version)
}

func TestLoad_Damaged(t *testing.T) {
	h, _ := newPopulatedHeap(t)
	dir := t.TempDir()
	good := filepath.Join(dir, "good.img")
	require.NoError(t, Save(good, h))
	img, err := os.ReadFile(good)
	require.NoError(t, err)

	tests := []struct {
		name    string
		mutate  func([]byte) []byte
		wantErr error
	}{
		{"signature", func(b []byte) []byte { b[0] = 'x'; return b }, format.ErrSignatureMismatch},
		{"truncated_header", func(b []byte) []byte { return b[:10] }, format.ErrTruncated},
		{"truncated_body", func(b []byte) []byte { return b[:format.ImageHeaderSize+100] }, ErrLength},
		{"flipped_byte", func(b []byte) []byte { b[format.ImageHeaderSize+40] ^= 0xFF; return b }, ErrChecksum},
		{"version", func(b []byte) []byte { b[format.ImageVersionOffset] = 9; return b }, format.ErrUnsupported},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(dir, tt.name+".img")
			require.NoError(t, os.WriteFile(path, tt.mutate(append([]byte(nil), img...)), 0o644))
			_, err := Load(path, nil)
			require.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestLoad_CorruptHeapWithValidChecksum(t *testing.T) {
	h, err := heap.Init(make([]byte, 1024), nil)
	require.NoError(t, err)
	// Break the free-list sentinel, then save so the checksum matches.
	format.PutLength(h.Buffer(), format.FreeListHead, 8, false)

	path := filepath.Join(t.TempDir(), "corrupt.img")
	require.NoError(t, Save(path, h))
	_, err = Load(path, nil)
	require.ErrorIs(t, err, heap.ErrCorrupt)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.img"), nil)
	require.ErrorIs(t, err, os.ErrNotExist)
}

func TestFile_CreateReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mapped.img")

	f, err := Create(path, 4096, nil)
	require.NoError(t, err)
	assert.Equal(t, path, f.Path())
	r, err := f.Heap().Alloc(64)
	require.NoError(t, err)
	copy(f.Heap().Bytes(r), "lives in the file")
	require.NoError(t, f.Close())
	require.NoError(t, f.Close(), "second Close is a no-op")

	f, err = Open(path, nil)
	require.NoError(t, err)
	defer f.Close()
	assert.Equal(t, "lives in the file", string(f.Heap().Bytes(r)[:17]))
	assert.Equal(t, 1, f.Heap().Query().UsedBlocks)

	// A mapped file is also a valid image for Load.
	require.NoError(t, f.Sync())
	loaded, err := Load(path, nil)
	require.NoError(t, err)
	assert.Equal(t, f.Heap().Query(), loaded.Query())
}

func TestFile_CreateErrors(t *testing.T) {
	dir := t.TempDir()

	_, err := Create(filepath.Join(dir, "small.img"), 100, nil)
	require.ErrorIs(t, err, heap.ErrBadBuffer)
	_, statErr := os.Stat(filepath.Join(dir, "small.img"))
	assert.ErrorIs(t, statErr, os.ErrNotExist)

	existing := filepath.Join(dir, "existing.img")
	require.NoError(t, os.WriteFile(existing, []byte("occupied"), 0o644))
	_, err = Create(existing, 1024, nil)
	require.ErrorIs(t, err, os.ErrExist)
}

func TestFile_OpenStaleChecksum(t *testing.T) {
	path := filepath.Join(t.TempDir(), "stale.img")
	f, err := Create(path, 1024, nil)
	require.NoError(t, err)
	require.NoError(t, f.Close())

	img, err := os.ReadFile(path)
	require.NoError(t, err)
	img[format.ImageHeaderSize+format.FirstBlock+format.BlockNextOffset] ^= 0x01
	require.NoError(t, os.WriteFile(path, img, 0o644))

	_, err = Open(path, nil)
	require.ErrorIs(t, err, ErrChecksum)
}
