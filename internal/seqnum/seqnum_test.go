package seqnum

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAddAndSize(t *testing.T) {
	v := Value(100)
	require.Equal(t, Value(110), v.Add(10))
	require.Equal(t, Size(10), v.Size(v.Add(10)))
}

func TestLessThan(t *testing.T) {
	require.True(t, Value(1).LessThan(Value(2)))
	require.False(t, Value(2).LessThan(Value(1)))
	require.False(t, Value(1).LessThan(Value(1)))

	// Wraparound: the value just below zero is "before" zero.
	require.True(t, Value(0xFFFFFFFF).LessThan(Value(0)))
}

func TestLessThanEq(t *testing.T) {
	require.True(t, Value(1).LessThanEq(Value(1)))
	require.True(t, Value(1).LessThanEq(Value(2)))
	require.False(t, Value(2).LessThanEq(Value(1)))
}

func TestInRange(t *testing.T) {
	require.True(t, Value(5).InRange(Value(0), Value(10)))
	require.False(t, Value(10).InRange(Value(0), Value(10)))
	require.True(t, Value(0).InRange(Value(0), Value(10)))
	require.False(t, Value(20).InRange(Value(0), Value(10)))
}

func TestInWindow(t *testing.T) {
	first := Value(100)
	require.True(t, first.InWindow(first, Size(10)))
	require.True(t, Value(109).InWindow(first, Size(10)))
	require.False(t, Value(110).InWindow(first, Size(10)))
	require.False(t, Value(99).InWindow(first, Size(10)))
}

func TestWraparound(t *testing.T) {
	near := Value(0xFFFFFFF0)
	require.Equal(t, Value(5), near.Add(Size(0x15)))
	require.True(t, near.LessThan(near.Add(1)))
}
