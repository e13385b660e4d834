package engine

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sheetfab/nestd/internal/geom"
	"github.com/sheetfab/nestd/internal/model"
)

func rectPart(refID string, w, h float64, qty int) model.Part {
	return model.Part{
		RefID: refID,
		Polygon: geom.Polygon{Outer: geom.Ring{
			{X: 0, Y: 0}, {X: w, Y: 0}, {X: w, Y: h}, {X: 0, Y: h},
		}},
		Quantity: qty,
	}
}

func defaultParams() model.Params {
	return model.Params{
		SheetWidth:    2500,
		SheetHeight:   1250,
		Spacing:       5,
		AllowRotation: true,
	}
}

func TestPack_SinglePartSingleSheet(t *testing.T) {
	result, err := Pack([]model.Part{rectPart("bracket", 100, 80, 1)}, defaultParams())
	require.NoError(t, err)
	require.Len(t, result.Sheets, 1)
	require.Len(t, result.Sheets[0].Placements, 1)

	p := result.Sheets[0].Placements[0]
	assert.Equal(t, "bracket", p.RefID)
	assert.Equal(t, 1, p.Instance)
	assert.Equal(t, 1, p.Total)
	assert.InDelta(t, 100.0*80/(2500*1250)*100, result.OverallUtilization(), 0.01)
}

func TestPack_EmptyInputYieldsNoSheets(t *testing.T) {
	result, err := Pack(nil, defaultParams())
	require.NoError(t, err)
	assert.Empty(t, result.Sheets)
}

func TestPack_InvalidParams(t *testing.T) {
	_, err := Pack(nil, model.Params{SheetWidth: 0, SheetHeight: 100})
	assert.Error(t, err)

	_, err = Pack(nil, model.Params{SheetWidth: 100, SheetHeight: 100, Spacing: -1})
	assert.Error(t, err)
}

func TestPack_OversizedPartFailsJob(t *testing.T) {
	params := defaultParams()
	parts := []model.Part{
		rectPart("ok", 100, 100, 1),
		rectPart("huge", 3000, 2000, 1),
	}
	_, err := Pack(parts, params)
	require.Error(t, err)

	var perr *PlacementError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, "huge", perr.RefID)
}

func TestPack_QuantityExpansion(t *testing.T) {
	result, err := Pack([]model.Part{rectPart("plate", 50, 50, 3)}, defaultParams())
	require.NoError(t, err)
	require.Equal(t, 3, result.TotalPlacements())

	seen := map[int]bool{}
	for _, p := range result.Sheets[0].Placements {
		assert.Equal(t, "plate", p.RefID)
		assert.Equal(t, 3, p.Total)
		seen[p.Instance] = true
	}
	assert.Equal(t, map[int]bool{1: true, 2: true, 3: true}, seen)
}

func TestPack_OverflowOpensSecondSheet(t *testing.T) {
	// 50x50 squares with 5mm spacing occupy a 55mm pitch. On a 300x300
	// sheet that is a 5x5 grid, so 30 squares need a second sheet.
	params := model.Params{SheetWidth: 300, SheetHeight: 300, Spacing: 5, AllowRotation: true}
	result, err := Pack([]model.Part{rectPart("sq", 50, 50, 30)}, params)
	require.NoError(t, err)
	require.Len(t, result.Sheets, 2)
	assert.Len(t, result.Sheets[0].Placements, 25)
	assert.Len(t, result.Sheets[1].Placements, 5)
	assert.Equal(t, 30, result.TotalPlacements())
}

func TestPack_LargestFirstOrdering(t *testing.T) {
	parts := []model.Part{
		rectPart("small", 20, 20, 1),
		rectPart("big", 200, 200, 1),
	}
	result, err := Pack(parts, defaultParams())
	require.NoError(t, err)
	require.Len(t, result.Sheets, 1)
	require.Len(t, result.Sheets[0].Placements, 2)
	assert.Equal(t, "big", result.Sheets[0].Placements[0].RefID)
	assert.Equal(t, "small", result.Sheets[0].Placements[1].RefID)
}

func TestPack_Deterministic(t *testing.T) {
	parts := []model.Part{
		rectPart("a", 120, 40, 4),
		rectPart("b", 80, 80, 3),
		rectPart("c", 30, 200, 2),
	}
	first, err := Pack(parts, defaultParams())
	require.NoError(t, err)
	second, err := Pack(parts, defaultParams())
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestPack_RotationAllowsFit(t *testing.T) {
	// 200x50 only fits the 60x250 sheet after rotating to 50x200.
	params := model.Params{SheetWidth: 60, SheetHeight: 250, Spacing: 0, AllowRotation: true}
	result, err := Pack([]model.Part{rectPart("strip", 200, 50, 1)}, params)
	require.NoError(t, err)
	require.Len(t, result.Sheets, 1)
	require.Len(t, result.Sheets[0].Placements, 1)
	assert.True(t, result.Sheets[0].Placements[0].Rotated)
}

func TestPack_RotationDisabledFailsOversized(t *testing.T) {
	params := model.Params{SheetWidth: 60, SheetHeight: 250, Spacing: 0, AllowRotation: false}
	_, err := Pack([]model.Part{rectPart("strip", 200, 50, 1)}, params)
	var perr *PlacementError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, "strip", perr.RefID)
}

func TestPack_SquareNeverRotates(t *testing.T) {
	// A square's bounding box is identical in either orientation, so the
	// rotated variant is never tried and the output is orientation-stable.
	result, err := Pack([]model.Part{rectPart("sq", 80, 80, 2)}, defaultParams())
	require.NoError(t, err)
	for _, p := range result.Sheets[0].Placements {
		assert.False(t, p.Rotated)
	}
}

func TestPack_PlacementsStayOnSheetAndDisjoint(t *testing.T) {
	params := model.Params{SheetWidth: 400, SheetHeight: 300, Spacing: 6, AllowRotation: true}
	parts := []model.Part{
		rectPart("a", 90, 60, 5),
		rectPart("b", 40, 110, 4),
		rectPart("c", 70, 70, 3),
	}
	result, err := Pack(parts, params)
	require.NoError(t, err)
	require.Equal(t, 12, result.TotalPlacements())

	// All fixtures are rectangles, so bounding boxes equal outlines and
	// disjointness can be verified without the collision predicate the
	// packer itself relies on.
	for _, sheet := range result.Sheets {
		for i, p := range sheet.Placements {
			min, max := p.Polygon.BoundingBox()
			assert.GreaterOrEqual(t, min.X, 0.0)
			assert.GreaterOrEqual(t, min.Y, 0.0)
			assert.LessOrEqual(t, max.X, sheet.Width+geom.Epsilon)
			assert.LessOrEqual(t, max.Y, sheet.Height+geom.Epsilon)

			for j := i + 1; j < len(sheet.Placements); j++ {
				omin, omax := sheet.Placements[j].Polygon.BoundingBox()
				overlapW := math.Min(max.X, omax.X) - math.Max(min.X, omin.X)
				overlapH := math.Min(max.Y, omax.Y) - math.Max(min.Y, omin.Y)
				assert.False(t, overlapW > 1e-6 && overlapH > 1e-6,
					"placements %d and %d overlap by %.3fx%.3f", i, j, overlapW, overlapH)
			}
		}
	}
}

func TestPack_IdenticalPartsGetDistinctPositions(t *testing.T) {
	// Identical outlines must never share an anchor; every expanded
	// instance gets its own collision-free position.
	result, err := Pack([]model.Part{rectPart("sq", 50, 50, 4)}, defaultParams())
	require.NoError(t, err)
	require.Equal(t, 4, result.TotalPlacements())

	seen := map[[2]float64]bool{}
	for _, p := range result.Sheets[0].Placements {
		pos := [2]float64{p.X, p.Y}
		assert.False(t, seen[pos], "duplicate position (%.1f, %.1f)", p.X, p.Y)
		seen[pos] = true
	}
}

func TestPack_SpacingKeepsMinimumGap(t *testing.T) {
	// Two 50-wide squares on one row: the second anchor sits at the first
	// buffered outline's right edge, giving exactly the requested gap.
	params := model.Params{SheetWidth: 300, SheetHeight: 100, Spacing: 8, AllowRotation: false}
	result, err := Pack([]model.Part{rectPart("sq", 50, 50, 2)}, params)
	require.NoError(t, err)
	require.Len(t, result.Sheets, 1)
	require.Len(t, result.Sheets[0].Placements, 2)

	first := result.Sheets[0].Placements[0]
	second := result.Sheets[0].Placements[1]
	assert.InDelta(t, 8.0, second.X-(first.X+50), 1e-6)
	assert.InDelta(t, first.Y, second.Y, 1e-6)
}

func TestPack_NonRectangularOutline(t *testing.T) {
	triangle := model.Part{
		RefID: "tri",
		Polygon: geom.Polygon{Outer: geom.Ring{
			{X: 0, Y: 0}, {X: 100, Y: 0}, {X: 50, Y: 90},
		}},
		Quantity: 2,
	}
	result, err := Pack([]model.Part{triangle}, defaultParams())
	require.NoError(t, err)
	assert.Equal(t, 2, result.TotalPlacements())
	for _, p := range result.Sheets[0].Placements {
		assert.InDelta(t, 4500.0, p.Polygon.Area(), 1e-6)
	}
}
