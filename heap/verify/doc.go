// Package verify provides validation functions for fixed heap buffers.
//
// # Overview
//
// The checks read the buffer directly and never trust a link before
// bounds-checking it, so they are safe to run on damaged or hostile images.
// The heap package runs AllInvariants when attaching to an existing buffer;
// tests run it after every mutating operation.
//
// Validation categories:
//   - Control block: buffer length, sentinel headers
//   - List links: forward and backward links agree, no cycles, allocated
//     flag matches the list a block is on
//   - Coverage: blocks tile the buffer after the control block exactly once
//   - Accounting: data plus headers plus control block equals buffer length
//   - Free list: sorted by ascending length, no two members memory-adjacent
//
// # Quick Start
//
//	if err := verify.AllInvariants(buf); err != nil {
//	    fmt.Printf("heap damaged: %v\n", err)
//	}
//
// All validation functions return *ValidationError on failure:
//
//	var verr *verify.ValidationError
//	if errors.As(err, &verr) {
//	    fmt.Printf("%s at 0x%X: %s\n", verr.Type, verr.Offset, verr.Message)
//	}
package verify
