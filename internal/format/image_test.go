package format

import (
	"errors"
	"testing"
)

func TestImageHeaderRoundTrip(t *testing.T) {
	buf := make([]byte, ImageHeaderSize)
	for i := range buf {
		buf[i] = 0xAA
	}
	PutImageHeader(buf, ImageHeader{Version: ImageVersion, Length: 4096, Checksum: 0x1122334455667788})

	h, err := ParseImageHeader(buf)
	if err != nil {
		t.Fatalf("ParseImageHeader: %v", err)
	}
	if h.Length != 4096 || h.Checksum != 0x1122334455667788 {
		t.Fatalf("unexpected header: %+v", h)
	}
	for i := ImageChecksumOffset + 8; i < ImageHeaderSize; i++ {
		if buf[i] != 0 {
			t.Fatalf("reserved byte %d not cleared", i)
		}
	}
}

func TestImageHeaderErrors(t *testing.T) {
	if _, err := ParseImageHeader(make([]byte, 8)); !errors.Is(err, ErrTruncated) {
		t.Fatalf("expected ErrTruncated, got %v", err)
	}

	buf := make([]byte, ImageHeaderSize)
	copy(buf, "XXXX")
	if _, err := ParseImageHeader(buf); !errors.Is(err, ErrSignatureMismatch) {
		t.Fatalf("expected ErrSignatureMismatch, got %v", err)
	}

	PutImageHeader(buf, ImageHeader{Version: 9, Length: 1024})
	if _, err := ParseImageHeader(buf); !errors.Is(err, ErrUnsupported) {
		t.Fatalf("expected ErrUnsupported, got %v", err)
	}
}
