// Package model defines the core domain types of the nesting engine:
// parts to be nested, placements, sheets, and jobs.
package model

import "github.com/sheetfab/nestd/internal/geom"

// Part is one nestable item: a flat-pattern outline plus how many copies
// of it the job requires. Parts are immutable once constructed.
type Part struct {
	RefID    string       `json:"ref_id"`
	Polygon  geom.Polygon `json:"polygon"`
	Quantity int          `json:"quantity"`
}

// Placement locates one part instance on a sheet. X, Y is the translation
// applied to the part's normalized polygon; Polygon is the resulting
// world-space outline (unbuffered).
type Placement struct {
	RefID    string       `json:"ref_id"`
	Instance int          `json:"instance"` // 1-based ordinal within RefID
	Total    int          `json:"total"`    // requested quantity for RefID
	Rotated  bool         `json:"rotated"`  // 90-degree orientation chosen
	X        float64      `json:"x"`
	Y        float64      `json:"y"`
	Polygon  geom.Polygon `json:"polygon"`
}

// Sheet is one instance of stock material with its placements. A sheet is
// immutable once the engine stops targeting it.
type Sheet struct {
	Width      float64     `json:"width"`
	Height     float64     `json:"height"`
	Placements []Placement `json:"placements"`
}

// PlacedArea returns the sum of unbuffered placement areas.
func (s Sheet) PlacedArea() float64 {
	var total float64
	for _, p := range s.Placements {
		total += p.Polygon.Area()
	}
	return total
}

// Area returns the sheet area.
func (s Sheet) Area() float64 {
	return s.Width * s.Height
}

// Utilization returns placed-area / sheet-area as a percentage.
func (s Sheet) Utilization() float64 {
	a := s.Area()
	if a == 0 {
		return 0
	}
	return s.PlacedArea() / a * 100.0
}

// NestResult holds the completed multi-sheet layout for one job.
type NestResult struct {
	Sheets []Sheet `json:"sheets"`
}

// TotalPlacements returns the number of placed instances across all sheets.
func (r NestResult) TotalPlacements() int {
	total := 0
	for _, s := range r.Sheets {
		total += len(s.Placements)
	}
	return total
}

// OverallUtilization returns the area-weighted utilization across sheets.
func (r NestResult) OverallUtilization() float64 {
	var placed, total float64
	for _, s := range r.Sheets {
		placed += s.PlacedArea()
		total += s.Area()
	}
	if total == 0 {
		return 0
	}
	return placed / total * 100.0
}
