// Package connstr parses "key=value;key=value" connection strings into a
// fixed heap.
//
// Every keyword, every value and the table that indexes them are heap
// allocations, so a ConnString consumes nothing but the heap it was parsed
// into. Keywords are matched without regard to case; values are stored
// verbatim and may contain '='.
package connstr

import (
	"bytes"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/text/cases"

	"github.com/joshuapare/fixedheap/heap"
	"github.com/joshuapare/fixedheap/internal/format"
)

// ErrMalformed indicates a segment without '=' or with an empty keyword.
var ErrMalformed = errors.New("connstr: malformed connection string")

// Table entry layout, one per keyword/value pair:
//
//	Offset  Size  Description
//	0x00    2     Keyword reference
//	0x02    2     Keyword length
//	0x04    2     Value reference (zero for an empty value)
//	0x06    2     Value length
const (
	entryKeyRef   = 0x00
	entryKeyLen   = 0x02
	entryValueRef = 0x04
	entryValueLen = 0x06
	entrySize     = 0x08
)

// ConnString is a parsed connection string held in a heap.
type ConnString struct {
	h     *heap.Heap
	table heap.Ref
	n     int
}

// Parse splits s into keyword/value pairs and stores them in h. Empty
// segments, such as the one after a trailing ';', are ignored.
//
// If a segment is malformed or h runs out of space, everything allocated so
// far is released and the error is returned.
func Parse(h *heap.Heap, s string) (*ConnString, error) {
	var segments []string
	for seg := range strings.SplitSeq(s, ";") {
		if seg != "" {
			segments = append(segments, seg)
		}
	}
	if len(segments) == 0 {
		return nil, fmt.Errorf("%w: no keywords", ErrMalformed)
	}

	table, err := h.Alloc(len(segments) * entrySize)
	if err != nil {
		return nil, fmt.Errorf("connstr: table: %w", err)
	}
	clear(h.Bytes(table))
	cs := &ConnString{h: h, table: table}

	fold := cases.Fold()
	for _, seg := range segments {
		keyword, value, ok := strings.Cut(seg, "=")
		if !ok || keyword == "" {
			_ = cs.Close()
			return nil, fmt.Errorf("%w: segment %q", ErrMalformed, seg)
		}
		if err := cs.add(fold.String(keyword), value); err != nil {
			_ = cs.Close()
			return nil, fmt.Errorf("connstr: keyword %q: %w", keyword, err)
		}
	}
	return cs, nil
}

// add stores one pair and appends its table entry.
func (cs *ConnString) add(keyword, value string) error {
	kref, err := cs.store(keyword)
	if err != nil {
		return err
	}
	vref, err := cs.store(value)
	if err != nil {
		_ = cs.h.Free(kref)
		return err
	}

	e := cs.entry(cs.n)
	format.PutU16(e, entryKeyRef, uint16(kref))
	format.PutU16(e, entryKeyLen, uint16(len(keyword)))
	format.PutU16(e, entryValueRef, uint16(vref))
	format.PutU16(e, entryValueLen, uint16(len(value)))
	cs.n++
	return nil
}

// store copies s into a new allocation. Empty strings need none.
func (cs *ConnString) store(s string) (heap.Ref, error) {
	if s == "" {
		return heap.NilRef, nil
	}
	r, err := cs.h.Alloc(len(s))
	if err != nil {
		return heap.NilRef, err
	}
	copy(cs.h.Bytes(r), s)
	return r, nil
}

func (cs *ConnString) entry(i int) []byte {
	return cs.h.Bytes(cs.table)[i*entrySize : (i+1)*entrySize]
}

func (cs *ConnString) field(i, refOff, lenOff int) []byte {
	e := cs.entry(i)
	r := heap.Ref(format.ReadU16(e, refOff))
	if r == heap.NilRef {
		return nil
	}
	return cs.h.Bytes(r)[:format.ReadU16(e, lenOff)]
}

func (cs *ConnString) keyword(i int) []byte { return cs.field(i, entryKeyRef, entryKeyLen) }
func (cs *ConnString) value(i int) []byte   { return cs.field(i, entryValueRef, entryValueLen) }

// Lookup returns the value stored for keyword as a view into the heap. The
// slice is valid until Close. The first matching pair wins.
func (cs *ConnString) Lookup(keyword string) ([]byte, bool) {
	if cs.table == heap.NilRef {
		return nil, false
	}
	want := []byte(cases.Fold().String(keyword))
	for i := range cs.n {
		if bytes.Equal(cs.keyword(i), want) {
			return cs.value(i), true
		}
	}
	return nil, false
}

// Get returns a copy of the value stored for keyword.
func (cs *ConnString) Get(keyword string) (string, bool) {
	v, ok := cs.Lookup(keyword)
	return string(v), ok
}

// Len returns the number of keyword/value pairs.
func (cs *ConnString) Len() int { return cs.n }

// Keywords returns the folded keywords in the order they appeared.
func (cs *ConnString) Keywords() []string {
	out := make([]string, 0, cs.n)
	for i := range cs.n {
		out = append(out, string(cs.keyword(i)))
	}
	return out
}

// Heap returns the heap the connection string lives in.
func (cs *ConnString) Heap() *heap.Heap { return cs.h }

// Close releases every allocation. Calling Close again is a no-op.
func (cs *ConnString) Close() error {
	if cs.table == heap.NilRef {
		return nil
	}
	var errs []error
	for i := range cs.n {
		e := cs.entry(i)
		errs = append(errs,
			cs.h.Free(heap.Ref(format.ReadU16(e, entryKeyRef))),
			cs.h.Free(heap.Ref(format.ReadU16(e, entryValueRef))))
	}
	errs = append(errs, cs.h.Free(cs.table))
	cs.table = heap.NilRef
	cs.n = 0
	return errors.Join(errs...)
}
