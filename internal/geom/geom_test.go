package geom

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func square(x, y, size float64) Ring {
	return Ring{
		{X: x, Y: y},
		{X: x + size, Y: y},
		{X: x + size, Y: y + size},
		{X: x, Y: y + size},
	}
}

func TestRing_SignedArea(t *testing.T) {
	ccw := square(0, 0, 10)
	assert.InDelta(t, 100.0, ccw.SignedArea(), 1e-9)

	cw := Ring{{X: 0, Y: 0}, {X: 0, Y: 10}, {X: 10, Y: 10}, {X: 10, Y: 0}}
	assert.InDelta(t, -100.0, cw.SignedArea(), 1e-9)
	assert.InDelta(t, 100.0, cw.Area(), 1e-9)
}

func TestRing_Centroid(t *testing.T) {
	c := square(10, 20, 4).Centroid()
	assert.InDelta(t, 12.0, c.X, 1e-9)
	assert.InDelta(t, 22.0, c.Y, 1e-9)
}

func TestRing_BoundingBox(t *testing.T) {
	r := Ring{{X: -3, Y: 2}, {X: 5, Y: -1}, {X: 4, Y: 7}}
	min, max := r.BoundingBox()
	assert.Equal(t, Point{X: -3, Y: -1}, min)
	assert.Equal(t, Point{X: 5, Y: 7}, max)
}

func TestRing_TranslateAndRotate90(t *testing.T) {
	r := square(0, 0, 10)

	moved := r.Translate(5, -2)
	assert.Equal(t, Point{X: 5, Y: -2}, moved[0])
	assert.InDelta(t, 100.0, moved.Area(), 1e-9)

	rotated := Ring{{X: 0, Y: 0}, {X: 20, Y: 0}, {X: 20, Y: 5}, {X: 0, Y: 5}}.Rotate90()
	min, max := rotated.BoundingBox()
	assert.InDelta(t, 5.0, max.X-min.X, 1e-9)
	assert.InDelta(t, 20.0, max.Y-min.Y, 1e-9)
}

func TestRing_Contains(t *testing.T) {
	r := square(0, 0, 10)
	assert.True(t, r.Contains(Point{X: 5, Y: 5}))
	assert.False(t, r.Contains(Point{X: 15, Y: 5}))
	assert.False(t, r.Contains(Point{X: -1, Y: -1}))
}

func TestRing_SelfIntersects(t *testing.T) {
	assert.False(t, square(0, 0, 10).SelfIntersects())

	bowtie := Ring{{X: 0, Y: 0}, {X: 10, Y: 10}, {X: 10, Y: 0}, {X: 0, Y: 10}}
	assert.True(t, bowtie.SelfIntersects())
}

func TestRing_Offset_GrowsSquare(t *testing.T) {
	r := square(0, 0, 10)
	out := r.Offset(2.5)
	require.Len(t, out, 4)

	min, max := out.BoundingBox()
	assert.InDelta(t, -2.5, min.X, 1e-9)
	assert.InDelta(t, -2.5, min.Y, 1e-9)
	assert.InDelta(t, 12.5, max.X, 1e-9)
	assert.InDelta(t, 12.5, max.Y, 1e-9)
	assert.InDelta(t, 225.0, out.Area(), 1e-9)
}

func TestRing_Offset_ZeroIsCopy(t *testing.T) {
	r := square(0, 0, 10)
	out := r.Offset(0)
	assert.Equal(t, r, out)
}

func TestRing_Offset_ClockwiseStillGrowsOutward(t *testing.T) {
	cw := Ring{{X: 0, Y: 0}, {X: 0, Y: 10}, {X: 10, Y: 10}, {X: 10, Y: 0}}
	out := cw.Offset(1)
	assert.InDelta(t, 144.0, out.Area(), 1e-9)
}

func TestIntersects_Overlapping(t *testing.T) {
	a := square(0, 0, 10)
	b := square(5, 5, 10)
	assert.True(t, Intersects(a, b))
	assert.True(t, Intersects(b, a))
}

func TestIntersects_Contained(t *testing.T) {
	outer := square(0, 0, 20)
	inner := square(5, 5, 5)
	assert.True(t, Intersects(outer, inner))
	assert.True(t, Intersects(inner, outer))
}

func TestIntersects_CoincidentRings(t *testing.T) {
	// Identical outlines have no proper edge crossing and every boundary
	// sample of one lies on the boundary of the other; the overlap must
	// still be detected or identical parts stack at the same anchor.
	a := square(0, 0, 10)
	assert.True(t, Intersects(a, square(0, 0, 10)))

	ell := Ring{
		{X: 0, Y: 0}, {X: 10, Y: 0}, {X: 10, Y: 4},
		{X: 4, Y: 4}, {X: 4, Y: 10}, {X: 0, Y: 10},
	}
	assert.True(t, Intersects(ell, append(Ring(nil), ell...)))
}

func TestIntersects_NearCoincidentRings(t *testing.T) {
	a := square(0, 0, 10)
	b := square(1e-8, 1e-8, 10)
	assert.True(t, Intersects(a, b))
}

func TestIntersects_SharedEdgeContainment(t *testing.T) {
	// The left half of a square shares three edges with it; interiors
	// overlap even though no edge properly crosses.
	whole := square(0, 0, 10)
	half := Ring{{X: 0, Y: 0}, {X: 5, Y: 0}, {X: 5, Y: 10}, {X: 0, Y: 10}}
	assert.True(t, Intersects(whole, half))
	assert.True(t, Intersects(half, whole))
}

func TestIntersects_Disjoint(t *testing.T) {
	a := square(0, 0, 10)
	b := square(20, 0, 10)
	assert.False(t, Intersects(a, b))
}

func TestIntersects_EdgeContactIsNotOverlap(t *testing.T) {
	// Placements separated by exactly the minimum spacing produce buffered
	// outlines whose edges coincide. They must not be reported as colliding.
	a := square(0, 0, 10)
	b := square(10, 0, 10)
	assert.False(t, Intersects(a, b))

	corner := square(10, 10, 10)
	assert.False(t, Intersects(a, corner))
}

func TestPolygon_AreaSubtractsHoles(t *testing.T) {
	p := Polygon{
		Outer: square(0, 0, 10),
		Holes: []Ring{square(2, 2, 3)},
	}
	assert.InDelta(t, 91.0, p.Area(), 1e-9)
}

func TestPolygon_Normalize(t *testing.T) {
	p := Polygon{
		Outer: square(7, -3, 10),
		Holes: []Ring{square(9, -1, 2)},
	}
	n := p.Normalize()
	min, _ := n.Outer.BoundingBox()
	assert.Equal(t, Point{}, min)
	hmin, _ := n.Holes[0].BoundingBox()
	assert.Equal(t, Point{X: 2, Y: 2}, hmin)
}

func TestPolygon_Rotate90_SwapsDimensions(t *testing.T) {
	p := Polygon{Outer: Ring{{X: 0, Y: 0}, {X: 30, Y: 0}, {X: 30, Y: 10}, {X: 0, Y: 10}}}
	r := p.Rotate90()
	assert.InDelta(t, 10.0, r.Width(), 1e-9)
	assert.InDelta(t, 30.0, r.Height(), 1e-9)

	min, _ := r.Outer.BoundingBox()
	assert.Equal(t, Point{}, min)
}
