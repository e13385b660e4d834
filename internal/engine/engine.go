// Package engine implements the Bottom-Left-Fill placement algorithm:
// greedy, single pass, no backtracking, deterministic for a given input
// ordering. Spacing between parts is enforced by inflating every outline
// by half the minimum gap and testing the buffered polygons for
// intersection.
package engine

import (
	"fmt"
	"sort"

	"github.com/sheetfab/nestd/internal/geom"
	"github.com/sheetfab/nestd/internal/model"
)

// PlacementError means an item cannot fit on an empty sheet in any
// allowed orientation. The whole job is rejected rather than silently
// dropping the part from the cut plan.
type PlacementError struct {
	RefID  string
	Width  float64
	Height float64
}

func (e *PlacementError) Error() string {
	return fmt.Sprintf("item %q (%.1f x %.1f mm) does not fit on an empty sheet in any allowed orientation",
		e.RefID, e.Width, e.Height)
}

// candidate is one placement instance produced by quantity expansion.
type candidate struct {
	refID    string
	instance int // 1-based within refID
	total    int
	polygon  geom.Polygon
}

// shape is a candidate prepared for one orientation: the normalized part
// polygon plus its buffered outer ring in the same local frame.
type shape struct {
	rotated  bool
	polygon  geom.Polygon // part outline, local frame
	buffered geom.Ring    // outer ring inflated by spacing/2, local frame
	bmin     geom.Point   // buffered bounding-box min in the local frame
	bw, bh   float64      // buffered bounding-box size
}

// Pack places every part instance onto as few sheets as needed and
// returns the resulting layout. Candidates are sorted by bounding-box
// area descending with ties broken by stable input order, which makes the
// output reproducible for identical inputs.
func Pack(parts []model.Part, params model.Params) (model.NestResult, error) {
	if err := params.Validate(); err != nil {
		return model.NestResult{}, err
	}

	var candidates []candidate
	for _, part := range parts {
		normalized := part.Polygon.Normalize()
		for q := 1; q <= part.Quantity; q++ {
			candidates = append(candidates, candidate{
				refID:    part.RefID,
				instance: q,
				total:    part.Quantity,
				polygon:  normalized,
			})
		}
	}

	if len(candidates) == 0 {
		return model.NestResult{}, nil
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		ai := candidates[i].polygon.Width() * candidates[i].polygon.Height()
		aj := candidates[j].polygon.Width() * candidates[j].polygon.Height()
		return ai > aj
	})

	buffer := params.Spacing / 2
	sheets := []*sheetState{newSheetState(params, buffer)}

	for _, cand := range candidates {
		shapes := orientations(cand, buffer, params.AllowRotation)

		current := sheets[len(sheets)-1]
		if current.place(cand, shapes) {
			continue
		}

		fresh := newSheetState(params, buffer)
		if !fresh.place(cand, shapes) {
			return model.NestResult{}, &PlacementError{
				RefID:  cand.refID,
				Width:  cand.polygon.Width(),
				Height: cand.polygon.Height(),
			}
		}
		sheets = append(sheets, fresh)
	}

	result := model.NestResult{Sheets: make([]model.Sheet, len(sheets))}
	for i, s := range sheets {
		result.Sheets[i] = s.sheet
	}
	return result, nil
}

// orientations prepares the 0-degree shape and, when rotation is allowed
// and the outline is not square, the 90-degree shape.
func orientations(cand candidate, buffer float64, allowRotation bool) []shape {
	shapes := []shape{newShape(cand.polygon, false, buffer)}
	if allowRotation {
		rotated := cand.polygon.Rotate90()
		if rotated.Width() != cand.polygon.Width() || rotated.Height() != cand.polygon.Height() {
			shapes = append(shapes, newShape(rotated, true, buffer))
		}
	}
	return shapes
}

func newShape(polygon geom.Polygon, rotated bool, buffer float64) shape {
	buffered := polygon.Outer.Offset(buffer)
	bmin, bmax := buffered.BoundingBox()
	return shape{
		rotated:  rotated,
		polygon:  polygon,
		buffered: buffered,
		bmin:     bmin,
		bw:       bmax.X - bmin.X,
		bh:       bmax.Y - bmin.Y,
	}
}

// sheetState tracks one open sheet during packing: its placements plus
// the buffered world-space rings used for collision tests.
type sheetState struct {
	sheet  model.Sheet
	margin float64     // inner margin: sheet rectangle shrunk by buffer
	rings  []geom.Ring // buffered world-space outlines of placements
}

func newSheetState(params model.Params, buffer float64) *sheetState {
	return &sheetState{
		sheet:  model.Sheet{Width: params.SheetWidth, Height: params.SheetHeight},
		margin: buffer,
	}
}

// place finds the bottom-left-most valid position among all orientations
// and records the placement. Returns false when no orientation fits.
func (s *sheetState) place(cand candidate, shapes []shape) bool {
	bestIdx := -1
	var bestX, bestY float64

	for i, sh := range shapes {
		x, y, ok := s.findPosition(sh)
		if !ok {
			continue
		}
		if bestIdx < 0 || y < bestY || (y == bestY && x < bestX) {
			bestIdx, bestX, bestY = i, x, y
		}
	}
	if bestIdx < 0 {
		return false
	}

	sh := shapes[bestIdx]
	// Anchor is the buffered bounding-box min; the part origin is offset
	// from it by the buffer amount.
	dx := bestX - sh.bmin.X
	dy := bestY - sh.bmin.Y
	s.rings = append(s.rings, sh.buffered.Translate(dx, dy))
	s.sheet.Placements = append(s.sheet.Placements, model.Placement{
		RefID:    cand.refID,
		Instance: cand.instance,
		Total:    cand.total,
		Rotated:  sh.rotated,
		X:        dx,
		Y:        dy,
		Polygon:  sh.polygon.Translate(dx, dy),
	})
	return true
}

// findPosition scans anchor positions bottom-left first and returns the
// first collision-free anchor for the shape's buffered outline.
func (s *sheetState) findPosition(sh shape) (float64, float64, bool) {
	maxX := s.sheet.Width - s.margin - sh.bw
	maxY := s.sheet.Height - s.margin - sh.bh
	if maxX < s.margin || maxY < s.margin {
		return 0, 0, false
	}

	for _, a := range s.anchors() {
		if a.X > maxX+geom.Epsilon || a.Y > maxY+geom.Epsilon {
			continue
		}
		world := sh.buffered.Translate(a.X-sh.bmin.X, a.Y-sh.bmin.Y)
		collides := false
		for _, placed := range s.rings {
			if geom.Intersects(world, placed) {
				collides = true
				break
			}
		}
		if !collides {
			return a.X, a.Y, true
		}
	}
	return 0, 0, false
}

// anchors returns candidate positions for the buffered bounding-box min
// corner: the margin corner plus the bottom-right and top-left corners of
// every placed buffered outline, sorted lowest y then lowest x.
func (s *sheetState) anchors() []geom.Point {
	pts := []geom.Point{{X: s.margin, Y: s.margin}}
	for _, r := range s.rings {
		min, max := r.BoundingBox()
		pts = append(pts,
			geom.Point{X: max.X, Y: min.Y},
			geom.Point{X: min.X, Y: max.Y},
		)
	}
	sort.SliceStable(pts, func(i, j int) bool {
		if pts[i].Y != pts[j].Y {
			return pts[i].Y < pts[j].Y
		}
		return pts[i].X < pts[j].X
	})
	return pts
}
