// Package export renders completed sheet layouts as layered DXF
// drawings, a JSON manifest, a PDF cut report, and QR-coded part labels.
// It performs no geometric validation; the placement engine's invariants
// are trusted.
package export

import (
	"fmt"
	"os"

	"github.com/yofu/dxf"
	"github.com/yofu/dxf/color"
	"github.com/yofu/dxf/drawing"
	"github.com/yofu/dxf/table"

	"github.com/sheetfab/nestd/internal/geom"
	"github.com/sheetfab/nestd/internal/model"
)

// labelTextHeight is the fixed height of placement labels in mm. Labels
// do not participate in collision geometry.
const labelTextHeight = 10.0

// DXF layer names of the three output layers.
const (
	LayerSheet  = "SHEET"
	LayerParts  = "PARTS"
	LayerLabels = "LABELS"
)

// SheetDXF renders one sheet as a DXF drawing with three layers: the
// sheet boundary, the placed part outlines (holes included), and a text
// label at each placement's centroid.
func SheetDXF(sheet model.Sheet) ([]byte, error) {
	d := dxf.NewDrawing()

	if _, err := d.AddLayer(LayerSheet, dxf.DefaultColor, dxf.DefaultLineType, true); err != nil {
		return nil, fmt.Errorf("add layer %s: %w", LayerSheet, err)
	}
	if _, err := d.LwPolyline(true,
		[]float64{0, 0},
		[]float64{sheet.Width, 0},
		[]float64{sheet.Width, sheet.Height},
		[]float64{0, sheet.Height},
	); err != nil {
		return nil, fmt.Errorf("draw sheet boundary: %w", err)
	}

	if _, err := d.AddLayer(LayerParts, color.Red, table.LT_CONTINUOUS, true); err != nil {
		return nil, fmt.Errorf("add layer %s: %w", LayerParts, err)
	}
	for _, p := range sheet.Placements {
		if err := drawRing(d, p.Polygon.Outer); err != nil {
			return nil, fmt.Errorf("draw outline for %s: %w", p.RefID, err)
		}
		for _, hole := range p.Polygon.Holes {
			if err := drawRing(d, hole); err != nil {
				return nil, fmt.Errorf("draw hole for %s: %w", p.RefID, err)
			}
		}
	}

	if _, err := d.AddLayer(LayerLabels, color.Yellow, table.LT_CONTINUOUS, true); err != nil {
		return nil, fmt.Errorf("add layer %s: %w", LayerLabels, err)
	}
	for _, p := range sheet.Placements {
		c := p.Polygon.Centroid()
		text := fmt.Sprintf("%s %d/%d", p.RefID, p.Instance, p.Total)
		if _, err := d.Text(text, c.X, c.Y, 0.0, labelTextHeight); err != nil {
			return nil, fmt.Errorf("draw label for %s: %w", p.RefID, err)
		}
	}

	return drawingBytes(d)
}

// drawRing adds a closed lightweight polyline for the ring.
func drawRing(d *drawing.Drawing, ring geom.Ring) error {
	vertices := make([][]float64, len(ring))
	for i, p := range ring {
		vertices[i] = []float64{p.X, p.Y}
	}
	_, err := d.LwPolyline(true, vertices...)
	return err
}

// drawingBytes serializes the drawing. The dxf library only writes to
// files, so the drawing is staged through a temp file.
func drawingBytes(d *drawing.Drawing) ([]byte, error) {
	tmp, err := os.CreateTemp("", "nestd-sheet-*.dxf")
	if err != nil {
		return nil, err
	}
	name := tmp.Name()
	tmp.Close()
	defer os.Remove(name)

	if err := d.SaveAs(name); err != nil {
		return nil, err
	}
	return os.ReadFile(name)
}
