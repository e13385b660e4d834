package geom

// Polygon is a closed outer boundary with zero or more hole rings.
// Invariants: the outer ring does not self-intersect and has positive
// area; holes lie strictly inside the outer ring.
type Polygon struct {
	Outer Ring   `json:"outer"`
	Holes []Ring `json:"holes,omitempty"`
}

// Area returns the outer area minus the hole areas.
func (p Polygon) Area() float64 {
	a := p.Outer.Area()
	for _, h := range p.Holes {
		a -= h.Area()
	}
	if a < 0 {
		return 0
	}
	return a
}

// Centroid returns the centroid of the outer ring. Holes are ignored;
// the centroid is only used for label placement.
func (p Polygon) Centroid() Point {
	return p.Outer.Centroid()
}

// BoundingBox returns the min and max corners of the outer ring.
func (p Polygon) BoundingBox() (min, max Point) {
	return p.Outer.BoundingBox()
}

// Width returns the bounding-box width.
func (p Polygon) Width() float64 {
	min, max := p.Outer.BoundingBox()
	return max.X - min.X
}

// Height returns the bounding-box height.
func (p Polygon) Height() float64 {
	min, max := p.Outer.BoundingBox()
	return max.Y - min.Y
}

// Translate shifts the whole polygon by dx, dy.
func (p Polygon) Translate(dx, dy float64) Polygon {
	out := Polygon{Outer: p.Outer.Translate(dx, dy)}
	for _, h := range p.Holes {
		out.Holes = append(out.Holes, h.Translate(dx, dy))
	}
	return out
}

// Rotate90 rotates the polygon 90 degrees counter-clockwise and
// re-normalizes so the bounding box starts at the origin again.
func (p Polygon) Rotate90() Polygon {
	out := Polygon{Outer: p.Outer.Rotate90()}
	for _, h := range p.Holes {
		out.Holes = append(out.Holes, h.Rotate90())
	}
	return out.Normalize()
}

// Normalize translates the polygon so its bounding box starts at (0, 0).
func (p Polygon) Normalize() Polygon {
	min, _ := p.Outer.BoundingBox()
	if min.X == 0 && min.Y == 0 {
		return p
	}
	return p.Translate(-min.X, -min.Y)
}
