// Package seqnum defines the types and helper functions for working with
// the sequence numbers used by the file-transfer reliability engine.
package seqnum

// Value represents the value of a sequence number. It wraps around modulo
// 2^32, mirroring the wire representation of a segment's sequence number.
type Value uint32

// Size represents the size of a sequence number window, that is, a count
// of segments or bytes depending on context.
type Size uint32

// Add returns v + delta.
func (v Value) Add(delta Size) Value {
	return v + Value(delta)
}

// Size returns the difference between v and other, i.e. other - v, as a
// Size. It is the number of sequence numbers in the half-open range
// [v, other).
func (v Value) Size(other Value) Size {
	return Size(other - v)
}

// LessThan checks if v is before other, that is, if it'd be seen before
// other if the sequence number wrapped around.
func (v Value) LessThan(other Value) bool {
	return int32(v-other) < 0
}

// LessThanEq checks if v is before or equal to other.
func (v Value) LessThanEq(other Value) bool {
	return v == other || v.LessThan(other)
}

// InRange checks if v is in the range [a, b).
func (v Value) InRange(a, b Value) bool {
	return v-a < b-a
}

// InWindow checks if v is in the range [first, first+size).
func (v Value) InWindow(first Value, size Size) bool {
	return first.Size(v) < size
}
