package format

// AlignEven returns n rounded up to the next even value.
// Block lengths are kept even so every header starts on a 2-byte boundary.
//
// Example:
//
//	AlignEven(0)  = 0
//	AlignEven(11) = 12
//	AlignEven(12) = 12
func AlignEven(n int) int {
	return (n + 1) &^ 1
}

// DataSize converts a caller request into the data length the allocator
// reserves: even, and never below MinData. Non-positive requests return 0.
func DataSize(n int) int {
	if n <= 0 {
		return 0
	}
	n = AlignEven(n)
	if n < MinData {
		n = MinData
	}
	return n
}
