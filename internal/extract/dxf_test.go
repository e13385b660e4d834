package extract

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yofu/dxf"
	"github.com/yofu/dxf/drawing"
)

// writeDXF builds a drawing with the given entities and saves it to a
// temp file.
func writeDXF(t *testing.T, build func(d *drawing.Drawing)) string {
	t.Helper()
	d := dxf.NewDrawing()
	build(d)
	path := filepath.Join(t.TempDir(), "fixture.dxf")
	require.NoError(t, d.SaveAs(path))
	return path
}

func TestFile_ClosedPolyline(t *testing.T) {
	path := writeDXF(t, func(d *drawing.Drawing) {
		d.LwPolyline(true,
			[]float64{10, 10},
			[]float64{110, 10},
			[]float64{110, 60},
			[]float64{10, 60},
		)
	})

	polygons, err := File(path)
	require.NoError(t, err)
	require.Len(t, polygons, 1)

	p := polygons[0]
	assert.InDelta(t, 100.0, p.Width(), 1e-9)
	assert.InDelta(t, 50.0, p.Height(), 1e-9)
	assert.Empty(t, p.Holes)

	// Outlines are normalized to the origin.
	min, _ := p.BoundingBox()
	assert.InDelta(t, 0.0, min.X, 1e-9)
	assert.InDelta(t, 0.0, min.Y, 1e-9)
}

func TestFile_CircleBecomesHole(t *testing.T) {
	path := writeDXF(t, func(d *drawing.Drawing) {
		d.LwPolyline(true,
			[]float64{0, 0},
			[]float64{100, 0},
			[]float64{100, 100},
			[]float64{0, 100},
		)
		d.Circle(50, 50, 0, 10)
	})

	polygons, err := File(path)
	require.NoError(t, err)
	require.Len(t, polygons, 1)
	require.Len(t, polygons[0].Holes, 1)

	// The tessellated hole is slightly smaller than the true circle.
	hole := polygons[0].Holes[0]
	assert.Greater(t, hole.Area(), 280.0)
	assert.Less(t, hole.Area(), 315.0)
	assert.Less(t, polygons[0].Area(), 10000.0)
}

func TestFile_IslandInsideHoleIsOwnPart(t *testing.T) {
	path := writeDXF(t, func(d *drawing.Drawing) {
		d.LwPolyline(true,
			[]float64{0, 0},
			[]float64{100, 0},
			[]float64{100, 100},
			[]float64{0, 100},
		)
		d.Circle(50, 50, 0, 20)
		// Square fully inside the circular cutout.
		d.LwPolyline(true,
			[]float64{45, 45},
			[]float64{55, 45},
			[]float64{55, 55},
			[]float64{45, 55},
		)
	})

	polygons, err := File(path)
	require.NoError(t, err)
	require.Len(t, polygons, 2)

	require.Len(t, polygons[0].Holes, 1)
	assert.InDelta(t, 100.0, polygons[0].Width(), 1e-9)

	island := polygons[1]
	assert.Empty(t, island.Holes)
	assert.InDelta(t, 100.0, island.Area(), 1e-9)
}

func TestFile_ChainsLooseLines(t *testing.T) {
	path := writeDXF(t, func(d *drawing.Drawing) {
		// Triangle drawn as three disconnected LINE entities, out of order.
		d.Line(0, 0, 0, 100, 0, 0)
		d.Line(50, 80, 0, 0, 0, 0)
		d.Line(100, 0, 0, 50, 80, 0)
	})

	polygons, err := File(path)
	require.NoError(t, err)
	require.Len(t, polygons, 1)
	assert.InDelta(t, 4000.0, polygons[0].Area(), 1e-6)
}

func TestFile_SeparateOutlinesStaySeparate(t *testing.T) {
	path := writeDXF(t, func(d *drawing.Drawing) {
		d.LwPolyline(true,
			[]float64{0, 0}, []float64{50, 0}, []float64{50, 50}, []float64{0, 50},
		)
		d.LwPolyline(true,
			[]float64{200, 0}, []float64{260, 0}, []float64{260, 40}, []float64{200, 40},
		)
	})

	polygons, err := File(path)
	require.NoError(t, err)
	assert.Len(t, polygons, 2)
}

func TestFile_OpenChainFails(t *testing.T) {
	path := writeDXF(t, func(d *drawing.Drawing) {
		// Two sides of a triangle; the chain never closes.
		d.Line(0, 0, 0, 100, 0, 0)
		d.Line(100, 0, 0, 50, 80, 0)
	})

	_, err := File(path)
	var perr *ParseError
	require.ErrorAs(t, err, &perr)
	assert.Contains(t, perr.Error(), "no closed outline")
}

func TestFile_MissingFile(t *testing.T) {
	_, err := File(filepath.Join(t.TempDir(), "nope.dxf"))
	var perr *ParseError
	assert.ErrorAs(t, err, &perr)
}

func TestBytes_RoundTrip(t *testing.T) {
	path := writeDXF(t, func(d *drawing.Drawing) {
		d.LwPolyline(true,
			[]float64{0, 0}, []float64{80, 0}, []float64{80, 30}, []float64{0, 30},
		)
	})
	data, err := os.ReadFile(path)
	require.NoError(t, err)

	polygons, err := Bytes("part.dxf", data)
	require.NoError(t, err)
	require.Len(t, polygons, 1)
	assert.InDelta(t, 2400.0, polygons[0].Area(), 1e-6)
}

func TestBytes_Garbage(t *testing.T) {
	_, err := Bytes("junk.dxf", []byte("not a dxf file"))
	var perr *ParseError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, "junk.dxf", perr.Source)
}
