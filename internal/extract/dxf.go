// Package extract parses 2D vector drawings (DXF) into closed
// polygons-with-holes in millimeter coordinates. Coordinates are consumed
// as-is; unit inference belongs to the upstream CAD-export pipeline.
package extract

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"

	"github.com/yofu/dxf"
	"github.com/yofu/dxf/drawing"
	"github.com/yofu/dxf/entity"

	"github.com/sheetfab/nestd/internal/geom"
)

const (
	// arcSegments is the fixed subdivision count for arcs, bulges, and
	// circles. Exact arcs are not preserved past extraction; this is a
	// precision/performance trade-off.
	arcSegments = 16

	// chainTolerance is the maximum endpoint distance, in mm, at which two
	// loose segments are considered connected.
	chainTolerance = 0.01
)

// segment is a straight edge between two points, used for chaining
// disconnected LINE and ARC entities into closed rings.
type segment struct {
	start geom.Point
	end   geom.Point
}

// File extracts all outlines from a DXF file on disk.
func File(path string) ([]geom.Polygon, error) {
	d, err := dxf.Open(path)
	if err != nil {
		return nil, &ParseError{Source: path, Reason: fmt.Sprintf("cannot open DXF: %v", err)}
	}
	return fromDrawing(path, d)
}

// Bytes extracts all outlines from in-memory DXF data. name is used in
// error messages only.
func Bytes(name string, data []byte) ([]geom.Polygon, error) {
	tmp, err := os.CreateTemp("", "nestd-*"+filepath.Ext(name))
	if err != nil {
		return nil, &ParseError{Source: name, Reason: fmt.Sprintf("cannot stage DXF data: %v", err)}
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return nil, &ParseError{Source: name, Reason: fmt.Sprintf("cannot stage DXF data: %v", err)}
	}
	if err := tmp.Close(); err != nil {
		return nil, &ParseError{Source: name, Reason: fmt.Sprintf("cannot stage DXF data: %v", err)}
	}
	d, err := dxf.Open(tmp.Name())
	if err != nil {
		return nil, &ParseError{Source: name, Reason: fmt.Sprintf("cannot decode DXF: %v", err)}
	}
	return fromDrawing(name, d)
}

// fromDrawing converts DXF entities into polygons. Closed LWPOLYLINEs and
// CIRCLEs become rings directly; LINEs, ARCs, and open polylines are
// chained by shared endpoints. The largest ring of each connected group
// becomes the outer boundary, enclosed rings become holes.
func fromDrawing(source string, d *drawing.Drawing) ([]geom.Polygon, error) {
	entities := d.Entities()
	if len(entities) == 0 {
		return nil, &ParseError{Source: source, Reason: "drawing contains no entities"}
	}

	var rings []geom.Ring
	var segments []segment

	for _, ent := range entities {
		switch e := ent.(type) {
		case *entity.LwPolyline:
			pts := lwPolylinePoints(e)
			if e.Closed {
				if len(pts) >= 3 {
					rings = append(rings, geom.Ring(pts))
				}
			} else if len(pts) >= 2 {
				segments = append(segments, pointsToSegments(pts)...)
			}

		case *entity.Circle:
			rings = append(rings, circleRing(e, arcSegments))

		case *entity.Arc:
			pts := arcPoints(e, arcSegments)
			if len(pts) >= 2 {
				segments = append(segments, pointsToSegments(pts)...)
			}

		case *entity.Line:
			segments = append(segments, segment{
				start: geom.Point{X: e.Start[0], Y: e.Start[1]},
				end:   geom.Point{X: e.End[0], Y: e.End[1]},
			})

		default:
			// Unsupported entity types are skipped.
		}
	}

	rings = append(rings, chainSegments(segments, chainTolerance)...)
	if len(rings) == 0 {
		return nil, &ParseError{Source: source, Reason: "no closed outline could be formed"}
	}

	polygons, err := groupRings(source, rings)
	if err != nil {
		return nil, err
	}
	return polygons, nil
}

// groupRings assigns rings to polygons: processed largest-area first, a
// ring enclosed by an already-accepted outer becomes its hole, anything
// else starts a new polygon. A ring enclosed by a hole is an island and
// nests as its own part, not as a second hole.
func groupRings(source string, rings []geom.Ring) ([]geom.Polygon, error) {
	sort.SliceStable(rings, func(i, j int) bool {
		return rings[i].Area() > rings[j].Area()
	})

	var polygons []geom.Polygon
	for _, ring := range rings {
		assigned := false
		for i := range polygons {
			if !polygons[i].Outer.Contains(ring[0]) {
				continue
			}
			insideHole := false
			for _, hole := range polygons[i].Holes {
				if hole.Contains(ring[0]) {
					insideHole = true
					break
				}
			}
			if insideHole {
				continue
			}
			polygons[i].Holes = append(polygons[i].Holes, ring)
			assigned = true
			break
		}
		if assigned {
			continue
		}
		if ring.Area() < geom.Epsilon {
			return nil, &GeometryError{Source: source, Reason: "outer ring has non-positive area"}
		}
		if ring.SelfIntersects() {
			return nil, &GeometryError{Source: source, Reason: "outer ring is self-intersecting"}
		}
		polygons = append(polygons, geom.Polygon{Outer: ring})
	}

	for i := range polygons {
		polygons[i] = polygons[i].Normalize()
	}
	return polygons, nil
}

// lwPolylinePoints converts an LWPOLYLINE to a point sequence, expanding
// bulge values into tessellated arcs.
func lwPolylinePoints(lw *entity.LwPolyline) []geom.Point {
	var pts []geom.Point
	n := len(lw.Vertices)
	for i := 0; i < n; i++ {
		v := lw.Vertices[i]
		current := geom.Point{X: v[0], Y: v[1]}

		bulge := 0.0
		if i < len(lw.Bulges) {
			bulge = lw.Bulges[i]
		}
		if math.Abs(bulge) > 1e-9 && (lw.Closed || i < n-1) {
			next := geom.Point{X: lw.Vertices[(i+1)%n][0], Y: lw.Vertices[(i+1)%n][1]}
			arc := bulgeArcPoints(current, next, bulge, arcSegments)
			// Drop the last point; the next vertex adds it.
			pts = append(pts, arc[:len(arc)-1]...)
		} else {
			pts = append(pts, current)
		}
	}
	return pts
}

// bulgeArcPoints tessellates the arc between p1 and p2 described by a DXF
// bulge factor (tangent of a quarter of the included angle) using the
// three-point start / bulge-derived midpoint / end construction.
func bulgeArcPoints(p1, p2 geom.Point, bulge float64, numSegments int) []geom.Point {
	dx := p2.X - p1.X
	dy := p2.Y - p1.Y
	chord := math.Hypot(dx, dy)
	if chord < 1e-9 {
		return []geom.Point{p1, p2}
	}

	sagitta := math.Abs(bulge) * chord / 2
	radius := (chord*chord/(4*sagitta) + sagitta) / 2

	// Arc center sits on the chord's perpendicular bisector.
	mx := (p1.X + p2.X) / 2
	my := (p1.Y + p2.Y) / 2
	perpX := -dy / chord
	perpY := dx / chord
	dist := radius - sagitta
	if bulge > 0 {
		perpX, perpY = -perpX, -perpY
	}
	cx := mx + perpX*dist
	cy := my + perpY*dist

	startAngle := math.Atan2(p1.Y-cy, p1.X-cx)
	endAngle := math.Atan2(p2.Y-cy, p2.X-cx)
	if bulge < 0 {
		if endAngle > startAngle {
			endAngle -= 2 * math.Pi
		}
	} else {
		if endAngle < startAngle {
			endAngle += 2 * math.Pi
		}
	}

	pts := make([]geom.Point, 0, numSegments+1)
	for i := 0; i <= numSegments; i++ {
		t := float64(i) / float64(numSegments)
		angle := startAngle + t*(endAngle-startAngle)
		pts = append(pts, geom.Point{
			X: cx + radius*math.Cos(angle),
			Y: cy + radius*math.Sin(angle),
		})
	}
	return pts
}

// circleRing approximates a full circle as a regular polygon.
func circleRing(c *entity.Circle, numSegments int) geom.Ring {
	ring := make(geom.Ring, numSegments)
	cx, cy, r := c.Center[0], c.Center[1], c.Radius
	for i := 0; i < numSegments; i++ {
		angle := 2 * math.Pi * float64(i) / float64(numSegments)
		ring[i] = geom.Point{X: cx + r*math.Cos(angle), Y: cy + r*math.Sin(angle)}
	}
	return ring
}

// arcPoints tessellates an ARC entity into a point sequence.
func arcPoints(a *entity.Arc, numSegments int) []geom.Point {
	cx, cy := a.Circle.Center[0], a.Circle.Center[1]
	r := a.Circle.Radius
	startRad := a.Angle[0] * math.Pi / 180
	endRad := a.Angle[1] * math.Pi / 180
	if endRad <= startRad {
		endRad += 2 * math.Pi
	}

	pts := make([]geom.Point, numSegments+1)
	for i := 0; i <= numSegments; i++ {
		t := float64(i) / float64(numSegments)
		angle := startRad + t*(endRad-startRad)
		pts[i] = geom.Point{X: cx + r*math.Cos(angle), Y: cy + r*math.Sin(angle)}
	}
	return pts
}

// pointsToSegments turns a point sequence into connected segments.
func pointsToSegments(pts []geom.Point) []segment {
	segs := make([]segment, 0, len(pts)-1)
	for i := 0; i < len(pts)-1; i++ {
		segs = append(segs, segment{start: pts[i], end: pts[i+1]})
	}
	return segs
}

// chainSegments connects loose segments into closed rings by matching
// endpoints within the tolerance. Chains that never close are dropped;
// if nothing closes, the caller reports the parse failure.
func chainSegments(segs []segment, tolerance float64) []geom.Ring {
	if len(segs) == 0 {
		return nil
	}

	used := make([]bool, len(segs))
	var rings []geom.Ring

	for {
		startIdx := -1
		for i, u := range used {
			if !u {
				startIdx = i
				break
			}
		}
		if startIdx == -1 {
			break
		}

		chain := []geom.Point{segs[startIdx].start, segs[startIdx].end}
		used[startIdx] = true

		changed := true
		for changed {
			changed = false
			tail := chain[len(chain)-1]
			for i, seg := range segs {
				if used[i] {
					continue
				}
				if pointsClose(tail, seg.start, tolerance) {
					chain = append(chain, seg.end)
					used[i] = true
					changed = true
					break
				}
				if pointsClose(tail, seg.end, tolerance) {
					chain = append(chain, seg.start)
					used[i] = true
					changed = true
					break
				}
			}
		}

		if len(chain) >= 4 && pointsClose(chain[0], chain[len(chain)-1], tolerance) {
			rings = append(rings, geom.Ring(chain[:len(chain)-1]))
		}
	}
	return rings
}

// pointsClose reports whether two points are within tolerance of each other.
func pointsClose(a, b geom.Point, tolerance float64) bool {
	return math.Hypot(a.X-b.X, a.Y-b.Y) <= tolerance
}
