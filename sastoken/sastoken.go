// Package sastoken builds shared access signature tokens for IoT hub style
// device connection strings, using a fixed heap for every scratch buffer.
//
// All encoders follow the same two-call protocol: called with a nil or short
// destination they only report the length they need; called again with a
// buffer of at least that length they fill it. Generate works the same way.
package sastoken

import (
	"crypto/hmac"
	"crypto/sha256"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/joshuapare/fixedheap/connstr"
	"github.com/joshuapare/fixedheap/heap"
)

// ErrMissingKey indicates a connection string without HostName, DeviceId or
// SharedAccessKey.
var ErrMissingKey = errors.New("sastoken: missing keyword")

const (
	tokenPrefix = "SharedAccessSignature sr="
	sigField    = "&sig="
	expiryField = "&se="
	devicesPath = "/devices/"
)

// SignFunc computes a MAC of msg under key.
type SignFunc func(key, msg []byte) []byte

// HMACSHA256 is the default SignFunc.
func HMACSHA256(key, msg []byte) []byte {
	mac := hmac.New(sha256.New, key)
	mac.Write(msg)
	return mac.Sum(nil)
}

// Generator produces tokens. The zero value signs with HMAC-SHA256, takes
// scratch space from the connection string's own heap and uses the wall
// clock.
type Generator struct {
	Heap *heap.Heap
	Sign SignFunc
	Now  func() time.Time
}

// Generate writes the token for cs, valid for ttl from now, into dst and
// returns its length. When dst is too short nothing is written and only the
// length is returned; call again with a larger buffer.
//
//	SharedAccessSignature sr=<url(host/devices/id)>&sig=<url(base64(mac))>&se=<expiry>
//
// The signed message is the encoded resource URI, a newline and the expiry
// in Unix seconds. The key is the base64-decoded SharedAccessKey.
func (g *Generator) Generate(cs *connstr.ConnString, ttl time.Duration, dst []byte) (int, error) {
	host, hostOK := cs.Lookup("hostname")
	device, deviceOK := cs.Lookup("deviceid")
	key, keyOK := cs.Lookup("sharedaccesskey")
	switch {
	case !hostOK || len(host) == 0:
		return 0, fmt.Errorf("%w: HostName", ErrMissingKey)
	case !deviceOK || len(device) == 0:
		return 0, fmt.Errorf("%w: DeviceId", ErrMissingKey)
	case !keyOK || len(key) == 0:
		return 0, fmt.Errorf("%w: SharedAccessKey", ErrMissingKey)
	}

	s := &scratch{h: g.Heap}
	if s.h == nil {
		s.h = cs.Heap()
	}
	defer s.releaseAll()

	var expiryBuf [20]byte
	expiry := strconv.AppendInt(expiryBuf[:0], g.now().Add(ttl).Unix(), 10)

	// Resource URI, percent-encoded.
	uri, err := s.alloc(len(host) + len(devicesPath) + len(device))
	if err != nil {
		return 0, err
	}
	n := copy(uri, host)
	n += copy(uri[n:], devicesPath)
	copy(uri[n:], device)
	encURI, err := s.alloc(URLEncode(nil, uri))
	if err != nil {
		return 0, err
	}
	URLEncode(encURI, uri)
	s.release(uri)

	// Message to sign.
	msg, err := s.alloc(len(encURI) + 1 + len(expiry))
	if err != nil {
		return 0, err
	}
	n = copy(msg, encURI)
	msg[n] = '\n'
	copy(msg[n+1:], expiry)

	// Key.
	keyLen, err := Base64Decode(nil, key)
	if err != nil {
		return 0, fmt.Errorf("sastoken: SharedAccessKey: %w", err)
	}
	if keyLen == 0 {
		return 0, fmt.Errorf("%w: SharedAccessKey is empty", ErrEncoding)
	}
	rawKey, err := s.alloc(keyLen)
	if err != nil {
		return 0, err
	}
	got, err := Base64Decode(rawKey, key)
	if err != nil {
		return 0, fmt.Errorf("sastoken: SharedAccessKey: %w", err)
	}

	mac := g.sign()(rawKey[:got], msg)
	s.release(rawKey)
	s.release(msg)

	// Signature: base64, then percent-encoded.
	b64, err := s.alloc(Base64Encode(nil, mac))
	if err != nil {
		return 0, err
	}
	Base64Encode(b64, mac)
	sig, err := s.alloc(URLEncode(nil, b64))
	if err != nil {
		return 0, err
	}
	URLEncode(sig, b64)
	s.release(b64)

	total := len(tokenPrefix) + len(encURI) + len(sigField) + len(sig) + len(expiryField) + len(expiry)
	if len(dst) >= total {
		w := dst[:0]
		w = append(w, tokenPrefix...)
		w = append(w, encURI...)
		w = append(w, sigField...)
		w = append(w, sig...)
		w = append(w, expiryField...)
		_ = append(w, expiry...)
	}
	return total, nil
}

// Token is a convenience wrapper that measures, then fills a Go-allocated
// buffer.
func (g *Generator) Token(cs *connstr.ConnString, ttl time.Duration) (string, error) {
	n, err := g.Generate(cs, ttl, nil)
	if err != nil {
		return "", err
	}
	out := make([]byte, n)
	if _, err := g.Generate(cs, ttl, out); err != nil {
		return "", err
	}
	return string(out), nil
}

func (g *Generator) now() time.Time {
	if g.Now != nil {
		return g.Now()
	}
	return time.Now()
}

func (g *Generator) sign() SignFunc {
	if g.Sign != nil {
		return g.Sign
	}
	return HMACSHA256
}

// scratch tracks heap allocations made while building one token.
type scratch struct {
	h    *heap.Heap
	refs []heap.Ref
}

// alloc returns exactly n bytes of heap memory.
func (s *scratch) alloc(n int) ([]byte, error) {
	r, err := s.h.Alloc(n)
	if err != nil {
		return nil, fmt.Errorf("sastoken: scratch %d bytes: %w", n, err)
	}
	s.refs = append(s.refs, r)
	return s.h.Bytes(r)[:n], nil
}

// release frees the allocation backing b early.
func (s *scratch) release(b []byte) {
	r, err := s.h.RefOf(b)
	if err != nil {
		return
	}
	for i, have := range s.refs {
		if have == r {
			s.refs = append(s.refs[:i], s.refs[i+1:]...)
			_ = s.h.Free(r)
			return
		}
	}
}

func (s *scratch) releaseAll() {
	for _, r := range s.refs {
		_ = s.h.Free(r)
	}
	s.refs = nil
}
