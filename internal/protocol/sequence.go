package protocol

// Sequence is a monotone 64-bit packet counter. Subtraction is defined to
// wrap modulo 2^64 so that comparisons stay correct across wraparound;
// ordering is decided by the sign of the resulting delta, not by the raw
// unsigned values.
type Sequence uint64

// Delta returns a-b as a signed 64-bit quantity, wrapping modulo 2^64.
func (a Sequence) Delta(b Sequence) int64 {
	return int64(a - b)
}

// Less reports whether a occurs before b.
func (a Sequence) Less(b Sequence) bool {
	return a.Delta(b) < 0
}

// LessOrEqual reports whether a occurs at or before b.
func (a Sequence) LessOrEqual(b Sequence) bool {
	return a.Delta(b) <= 0
}

// Add returns the sequence n steps after a.
func (a Sequence) Add(n int64) Sequence {
	return Sequence(int64(a) + n)
}
