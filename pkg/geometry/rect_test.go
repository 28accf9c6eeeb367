package geometry

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestOverlap_TouchingEdgesDoNotOverlap(t *testing.T) {
	a := Rect{X: 0, Y: 0, W: 10, H: 10}
	b := Rect{X: 10, Y: 0, W: 10, H: 10}
	require.False(t, Overlap(a, b), "touching rectangles must not overlap")
}

func TestOverlap_Intersecting(t *testing.T) {
	a := Rect{X: 0, Y: 0, W: 10, H: 10}
	b := Rect{X: 5, Y: 5, W: 10, H: 10}
	require.True(t, Overlap(a, b))
}

func TestOverlap_Disjoint(t *testing.T) {
	a := Rect{X: 0, Y: 0, W: 10, H: 10}
	b := Rect{X: 20, Y: 20, W: 10, H: 10}
	require.False(t, Overlap(a, b))
}

func TestInflate_GrowsOnlyRightAndTop(t *testing.T) {
	r := Rect{X: 5, Y: 5, W: 10, H: 10}
	inflated := r.Inflate(2)
	require.Equal(t, 5.0, inflated.X)
	require.Equal(t, 5.0, inflated.Y)
	require.Equal(t, 12.0, inflated.W)
	require.Equal(t, 12.0, inflated.H)
}

func TestFits(t *testing.T) {
	require.True(t, Fits(0, 0, 10, 10, 10, 10), "a rectangle exactly matching the sheet should fit")
	require.False(t, Fits(1, 0, 10, 10, 10, 10), "a rectangle exceeding the sheet bounds should not fit")
}
