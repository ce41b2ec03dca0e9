package sastoken

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
)

// ErrEncoding indicates base64 input that cannot be decoded.
var ErrEncoding = errors.New("sastoken: invalid base64")

const upperHex = "0123456789ABCDEF"

func unreserved(c byte) bool {
	return 'a' <= c && c <= 'z' || 'A' <= c && c <= 'Z' || '0' <= c && c <= '9' ||
		c == '-' || c == '.' || c == '_'
}

// URLEncode percent-encodes src into dst and returns the encoded length.
// Letters, digits and "-._" are copied; every other byte becomes %XX with
// upper-case hex. If dst is shorter than the result nothing is written, so
// URLEncode(nil, src) measures.
func URLEncode(dst, src []byte) int {
	n := 0
	for _, c := range src {
		if unreserved(c) {
			n++
		} else {
			n += 3
		}
	}
	if len(dst) < n {
		return n
	}
	i := 0
	for _, c := range src {
		if unreserved(c) {
			dst[i] = c
			i++
			continue
		}
		dst[i], dst[i+1], dst[i+2] = '%', upperHex[c>>4], upperHex[c&15]
		i += 3
	}
	return n
}

// Base64Encode writes the padded standard base64 encoding of src into dst
// and returns its length. If dst is too short nothing is written.
func Base64Encode(dst, src []byte) int {
	n := base64.StdEncoding.EncodedLen(len(src))
	if len(dst) >= n {
		base64.StdEncoding.Encode(dst, src)
	}
	return n
}

// Base64Decode decodes padded standard base64 from src into dst and returns
// the decoded length. The length is derived from the input alone, so the
// input is only fully validated when dst is large enough to be written.
// Line breaks are rejected; the length could not be derived otherwise.
func Base64Decode(dst, src []byte) (int, error) {
	if i := bytes.IndexAny(src, "\r\n"); i >= 0 {
		return 0, fmt.Errorf("%w: line break at offset %d", ErrEncoding, i)
	}
	if len(src)%4 != 0 {
		return 0, fmt.Errorf("%w: length %d is not a multiple of 4", ErrEncoding, len(src))
	}
	n := len(src) / 4 * 3
	for i := len(src) - 1; i >= 0 && i >= len(src)-2 && src[i] == '='; i-- {
		n--
	}
	if len(dst) < n {
		return n, nil
	}
	got, err := base64.StdEncoding.Decode(dst[:n], src)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrEncoding, err)
	}
	return got, nil
}
