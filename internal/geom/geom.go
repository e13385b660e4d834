// Package geom provides the 2D polygon operations used by the nesting
// engine: area, centroid, bounding box, translation, 90-degree rotation,
// outward offsetting, and intersection testing. All coordinates are in
// millimeters. The engine only touches this operation set, so the
// implementation can be swapped without touching placement logic.
package geom

import "math"

// Epsilon merges points and absorbs rounding error. Anything closer than
// this is considered coincident.
const Epsilon = 1e-9

// Point is a 2D coordinate in mm. X increases to the right, Y up.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Ring is a closed polygon boundary as an ordered point sequence.
// The last point implicitly connects back to the first.
type Ring []Point

// SignedArea returns the shoelace area: positive for counter-clockwise
// rings, negative for clockwise.
func (r Ring) SignedArea() float64 {
	n := len(r)
	if n < 3 {
		return 0
	}
	var area float64
	for i := 0; i < n; i++ {
		j := (i + 1) % n
		area += r[i].X*r[j].Y - r[j].X*r[i].Y
	}
	return area / 2
}

// Area returns the absolute enclosed area.
func (r Ring) Area() float64 {
	return math.Abs(r.SignedArea())
}

// Centroid returns the area centroid of the ring. Degenerate rings fall
// back to the vertex average.
func (r Ring) Centroid() Point {
	n := len(r)
	if n == 0 {
		return Point{}
	}
	a := r.SignedArea()
	if math.Abs(a) < Epsilon {
		var sum Point
		for _, p := range r {
			sum.X += p.X
			sum.Y += p.Y
		}
		return Point{X: sum.X / float64(n), Y: sum.Y / float64(n)}
	}
	var cx, cy float64
	for i := 0; i < n; i++ {
		j := (i + 1) % n
		cross := r[i].X*r[j].Y - r[j].X*r[i].Y
		cx += (r[i].X + r[j].X) * cross
		cy += (r[i].Y + r[j].Y) * cross
	}
	return Point{X: cx / (6 * a), Y: cy / (6 * a)}
}

// BoundingBox returns the min and max corners of the ring.
func (r Ring) BoundingBox() (min, max Point) {
	if len(r) == 0 {
		return Point{}, Point{}
	}
	min, max = r[0], r[0]
	for _, p := range r[1:] {
		if p.X < min.X {
			min.X = p.X
		}
		if p.Y < min.Y {
			min.Y = p.Y
		}
		if p.X > max.X {
			max.X = p.X
		}
		if p.Y > max.Y {
			max.Y = p.Y
		}
	}
	return min, max
}

// Translate returns a copy of the ring shifted by dx, dy.
func (r Ring) Translate(dx, dy float64) Ring {
	out := make(Ring, len(r))
	for i, p := range r {
		out[i] = Point{X: p.X + dx, Y: p.Y + dy}
	}
	return out
}

// Rotate90 returns the ring rotated 90 degrees counter-clockwise about
// the origin.
func (r Ring) Rotate90() Ring {
	out := make(Ring, len(r))
	for i, p := range r {
		out[i] = Point{X: -p.Y, Y: p.X}
	}
	return out
}

// Contains reports whether p lies strictly inside the ring, using ray
// casting. Points on the boundary are not guaranteed either way.
func (r Ring) Contains(p Point) bool {
	n := len(r)
	if n < 3 {
		return false
	}
	inside := false
	for i, j := 0, n-1; i < n; j, i = i, i+1 {
		a, b := r[i], r[j]
		if (a.Y > p.Y) != (b.Y > p.Y) {
			x := a.X + (p.Y-a.Y)*(b.X-a.X)/(b.Y-a.Y)
			if p.X < x {
				inside = !inside
			}
		}
	}
	return inside
}

// SelfIntersects reports whether any two non-adjacent edges of the ring
// cross each other.
func (r Ring) SelfIntersects() bool {
	n := len(r)
	if n < 4 {
		return false
	}
	for i := 0; i < n; i++ {
		a1 := r[i]
		a2 := r[(i+1)%n]
		for j := i + 2; j < n; j++ {
			// Skip the edge sharing a vertex with edge i (including the
			// wrap-around pair 0 / n-1).
			if i == 0 && j == n-1 {
				continue
			}
			b1 := r[j]
			b2 := r[(j+1)%n]
			if segmentsCross(a1, a2, b1, b2) {
				return true
			}
		}
	}
	return false
}

// Offset returns the ring inflated outward by d along edge normals, with
// miter joins at the vertices. d of zero returns a copy. The result is
// exact for convex rings; concave vertices may overshoot slightly, which
// is conservative for collision testing.
func (r Ring) Offset(d float64) Ring {
	n := len(r)
	if n < 3 || d == 0 {
		return append(Ring(nil), r...)
	}
	ccw := r.SignedArea() > 0
	out := make(Ring, 0, n)
	for i := 0; i < n; i++ {
		prev := r[(i-1+n)%n]
		cur := r[i]
		next := r[(i+1)%n]

		n1, ok1 := outwardNormal(prev, cur, ccw)
		n2, ok2 := outwardNormal(cur, next, ccw)
		switch {
		case !ok1 && !ok2:
			out = append(out, cur)
			continue
		case !ok1:
			n1 = n2
		case !ok2:
			n2 = n1
		}

		p1 := Point{X: prev.X + n1.X*d, Y: prev.Y + n1.Y*d}
		p2 := Point{X: cur.X + n1.X*d, Y: cur.Y + n1.Y*d}
		p3 := Point{X: cur.X + n2.X*d, Y: cur.Y + n2.Y*d}
		p4 := Point{X: next.X + n2.X*d, Y: next.Y + n2.Y*d}

		if pt, ok := lineIntersection(p1, p2, p3, p4); ok {
			out = append(out, pt)
		} else {
			// Collinear edges: the two offset lines coincide.
			out = append(out, p2)
		}
	}
	return out
}

// outwardNormal returns the unit normal of edge a->b pointing away from
// the interior. ok is false for degenerate (zero-length) edges.
func outwardNormal(a, b Point, ccw bool) (Point, bool) {
	dx := b.X - a.X
	dy := b.Y - a.Y
	l := math.Hypot(dx, dy)
	if l < Epsilon {
		return Point{}, false
	}
	// Right-hand normal: outward when the ring winds counter-clockwise.
	nx, ny := dy/l, -dx/l
	if !ccw {
		nx, ny = -nx, -ny
	}
	return Point{X: nx, Y: ny}, true
}

// lineIntersection intersects the infinite lines through p1-p2 and p3-p4.
// ok is false when the lines are (near) parallel.
func lineIntersection(p1, p2, p3, p4 Point) (Point, bool) {
	d1x, d1y := p2.X-p1.X, p2.Y-p1.Y
	d2x, d2y := p4.X-p3.X, p4.Y-p3.Y
	denom := d1x*d2y - d1y*d2x
	if math.Abs(denom) < Epsilon {
		return Point{}, false
	}
	t := ((p3.X-p1.X)*d2y - (p3.Y-p1.Y)*d2x) / denom
	return Point{X: p1.X + t*d1x, Y: p1.Y + t*d1y}, true
}

// orientation classifies the turn a->b->c: >0 counter-clockwise,
// <0 clockwise, 0 collinear (within Epsilon).
func orientation(a, b, c Point) float64 {
	v := (b.X-a.X)*(c.Y-a.Y) - (b.Y-a.Y)*(c.X-a.X)
	if math.Abs(v) < Epsilon {
		return 0
	}
	return v
}

// onSegment reports whether collinear point p lies within segment a-b.
func onSegment(a, b, p Point) bool {
	return p.X <= math.Max(a.X, b.X)+Epsilon && p.X >= math.Min(a.X, b.X)-Epsilon &&
		p.Y <= math.Max(a.Y, b.Y)+Epsilon && p.Y >= math.Min(a.Y, b.Y)-Epsilon
}

// segmentsCross reports whether segments a1-a2 and b1-b2 intersect,
// including collinear overlap.
func segmentsCross(a1, a2, b1, b2 Point) bool {
	o1 := orientation(a1, a2, b1)
	o2 := orientation(a1, a2, b2)
	o3 := orientation(b1, b2, a1)
	o4 := orientation(b1, b2, a2)

	if o1*o2 < 0 && o3*o4 < 0 {
		return true
	}
	if o1 == 0 && onSegment(a1, a2, b1) {
		return true
	}
	if o2 == 0 && onSegment(a1, a2, b2) {
		return true
	}
	if o3 == 0 && onSegment(b1, b2, a1) {
		return true
	}
	if o4 == 0 && onSegment(b1, b2, a2) {
		return true
	}
	return false
}

// touchTolerance is the slack below which two rings are considered to be
// merely touching rather than overlapping. Placements separated by
// exactly the minimum spacing produce buffered outlines in edge contact,
// which must not count as a collision.
const touchTolerance = 1e-7

// properCross reports a transversal crossing of the two segments'
// interiors, ignoring endpoint contact and collinear touching.
func properCross(a1, a2, b1, b2 Point) bool {
	o1 := rawOrientation(a1, a2, b1)
	o2 := rawOrientation(a1, a2, b2)
	o3 := rawOrientation(b1, b2, a1)
	o4 := rawOrientation(b1, b2, a2)
	opposite := func(x, y float64) bool {
		return (x > touchTolerance && y < -touchTolerance) ||
			(x < -touchTolerance && y > touchTolerance)
	}
	return opposite(o1, o2) && opposite(o3, o4)
}

func rawOrientation(a, b, c Point) float64 {
	return (b.X-a.X)*(c.Y-a.Y) - (b.Y-a.Y)*(c.X-a.X)
}

// distPointSegment returns the distance from p to segment a-b.
func distPointSegment(p, a, b Point) float64 {
	dx, dy := b.X-a.X, b.Y-a.Y
	l2 := dx*dx + dy*dy
	if l2 < Epsilon {
		return math.Hypot(p.X-a.X, p.Y-a.Y)
	}
	t := ((p.X-a.X)*dx + (p.Y-a.Y)*dy) / l2
	t = math.Max(0, math.Min(1, t))
	return math.Hypot(p.X-(a.X+t*dx), p.Y-(a.Y+t*dy))
}

// strictlyInside reports whether p lies in the interior of r, farther
// than touchTolerance from every edge.
func strictlyInside(p Point, r Ring) bool {
	if !r.Contains(p) {
		return false
	}
	n := len(r)
	for i := 0; i < n; i++ {
		if distPointSegment(p, r[i], r[(i+1)%n]) <= touchTolerance {
			return false
		}
	}
	return true
}

// insetDelta pushes boundary samples into a ring's interior. It must be
// larger than touchTolerance so a sample taken off a shared boundary
// still registers as inside the other ring.
const insetDelta = 1e-6

// interiorSampleInside reports whether a point of a's interior lies
// strictly inside b. Sampled points are a's vertices, edge midpoints,
// and edge midpoints inset inward; the inset samples catch coincident
// and shared-edge overlap, where every boundary point of a sits within
// touchTolerance of b's boundary. Together with properCross this detects
// containment and collinear-sliding overlap while letting rings in pure
// edge contact pass.
func interiorSampleInside(a, b Ring) bool {
	ccw := a.SignedArea() > 0
	n := len(a)
	for i := 0; i < n; i++ {
		if strictlyInside(a[i], b) {
			return true
		}
		j := (i + 1) % n
		mid := Point{X: (a[i].X + a[j].X) / 2, Y: (a[i].Y + a[j].Y) / 2}
		if strictlyInside(mid, b) {
			return true
		}
		if nrm, ok := outwardNormal(a[i], a[j], ccw); ok {
			inset := Point{X: mid.X - nrm.X*insetDelta, Y: mid.Y - nrm.Y*insetDelta}
			if a.Contains(inset) && strictlyInside(inset, b) {
				return true
			}
		}
	}
	return false
}

// Intersects reports whether the interiors of two rings overlap. Rings
// that only touch along edges or at vertices do not intersect.
func Intersects(a, b Ring) bool {
	if len(a) < 3 || len(b) < 3 {
		return false
	}
	// Cheap reject on bounding boxes first.
	amin, amax := a.BoundingBox()
	bmin, bmax := b.BoundingBox()
	if amax.X <= bmin.X+touchTolerance || bmax.X <= amin.X+touchTolerance ||
		amax.Y <= bmin.Y+touchTolerance || bmax.Y <= amin.Y+touchTolerance {
		return false
	}
	na, nb := len(a), len(b)
	for i := 0; i < na; i++ {
		a1, a2 := a[i], a[(i+1)%na]
		for j := 0; j < nb; j++ {
			if properCross(a1, a2, b[j], b[(j+1)%nb]) {
				return true
			}
		}
	}
	return interiorSampleInside(a, b) || interiorSampleInside(b, a)
}
