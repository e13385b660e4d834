package export

import (
	"bytes"
	"fmt"
	"math"

	"github.com/go-pdf/fpdf"

	"github.com/sheetfab/nestd/internal/model"
)

// partColor is an RGB fill color for a placed part.
type partColor struct {
	R, G, B int
}

var partColors = []partColor{
	{R: 76, G: 175, B: 80},  // green
	{R: 33, G: 150, B: 243}, // blue
	{R: 255, G: 152, B: 0},  // orange
	{R: 156, G: 39, B: 176}, // purple
	{R: 0, G: 188, B: 212},  // cyan
	{R: 244, G: 67, B: 54},  // red
	{R: 255, G: 235, B: 59}, // yellow
	{R: 121, G: 85, B: 72},  // brown
}

// Page layout constants (A4 landscape in mm).
const (
	pageWidth    = 297.0
	pageHeight   = 210.0
	marginLeft   = 15.0
	marginRight  = 15.0
	marginTop    = 15.0
	marginBottom = 15.0
	headerHeight = 12.0
	drawAreaTop  = marginTop + headerHeight + 5.0
)

// ReportPDF renders the nesting result as a PDF: one page per sheet with
// a scaled layout diagram, followed by a summary page.
func ReportPDF(jobID string, result model.NestResult) ([]byte, error) {
	if len(result.Sheets) == 0 {
		return nil, fmt.Errorf("no sheets to report")
	}

	pdf := fpdf.New("L", "mm", "A4", "")
	pdf.SetAutoPageBreak(false, marginBottom)

	for i, sheet := range result.Sheets {
		pdf.AddPage()
		renderSheetPage(pdf, jobID, sheet, i+1)
	}

	pdf.AddPage()
	renderSummaryPage(pdf, jobID, result)

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// renderSheetPage draws a single sheet layout on the current page.
func renderSheetPage(pdf *fpdf.Fpdf, jobID string, sheet model.Sheet, sheetNum int) {
	pdf.SetFont("Helvetica", "B", 14)
	pdf.SetXY(marginLeft, marginTop)
	title := fmt.Sprintf("Job %s - Sheet %d (%.0f x %.0f mm)", jobID, sheetNum, sheet.Width, sheet.Height)
	pdf.CellFormat(pageWidth-marginLeft-marginRight, headerHeight, title, "", 0, "L", false, 0, "")

	pdf.SetFont("Helvetica", "", 10)
	pdf.SetXY(marginLeft, marginTop+headerHeight)
	stats := fmt.Sprintf("Placements: %d | Placed area: %.0f mm2 | Utilization: %.2f%%",
		len(sheet.Placements), sheet.PlacedArea(), sheet.Utilization())
	pdf.CellFormat(pageWidth-marginLeft-marginRight, 5, stats, "", 0, "L", false, 0, "")

	drawWidth := pageWidth - marginLeft - marginRight
	drawHeight := pageHeight - drawAreaTop - marginBottom

	scale := math.Min(drawWidth/sheet.Width, drawHeight/sheet.Height)
	canvasW := sheet.Width * scale
	canvasH := sheet.Height * scale
	offsetX := marginLeft + (drawWidth-canvasW)/2
	offsetY := drawAreaTop

	// Sheet background.
	pdf.SetFillColor(235, 235, 235)
	pdf.SetDrawColor(100, 100, 100)
	pdf.SetLineWidth(0.5)
	pdf.Rect(offsetX, offsetY, canvasW, canvasH, "FD")

	// Placed outlines. PDF page coordinates grow downward, so Y flips.
	for i, p := range sheet.Placements {
		col := partColors[i%len(partColors)]
		pdf.SetFillColor(col.R, col.G, col.B)
		pdf.SetDrawColor(30, 30, 30)
		pdf.SetLineWidth(0.3)

		points := make([]fpdf.PointType, len(p.Polygon.Outer))
		for j, pt := range p.Polygon.Outer {
			points[j] = fpdf.PointType{
				X: offsetX + pt.X*scale,
				Y: offsetY + (sheet.Height-pt.Y)*scale,
			}
		}
		pdf.Polygon(points, "FD")

		pdf.SetFillColor(235, 235, 235)
		for _, hole := range p.Polygon.Holes {
			hp := make([]fpdf.PointType, len(hole))
			for j, pt := range hole {
				hp[j] = fpdf.PointType{
					X: offsetX + pt.X*scale,
					Y: offsetY + (sheet.Height-pt.Y)*scale,
				}
			}
			pdf.Polygon(hp, "FD")
		}

		c := p.Polygon.Centroid()
		label := fmt.Sprintf("%s %d/%d", p.RefID, p.Instance, p.Total)
		pdf.SetFont("Helvetica", "", 7)
		pdf.SetTextColor(0, 0, 0)
		labelW := pdf.GetStringWidth(label)
		pdf.SetXY(offsetX+c.X*scale-labelW/2, offsetY+(sheet.Height-c.Y)*scale-2)
		pdf.CellFormat(labelW, 4, label, "", 0, "C", false, 0, "")
	}
}

// renderSummaryPage draws overall statistics and a per-sheet table.
func renderSummaryPage(pdf *fpdf.Fpdf, jobID string, result model.NestResult) {
	pdf.SetFont("Helvetica", "B", 16)
	pdf.SetXY(marginLeft, marginTop)
	pdf.CellFormat(pageWidth-marginLeft-marginRight, 10, "Nesting Summary", "", 0, "L", false, 0, "")

	pdf.SetDrawColor(0, 0, 0)
	pdf.SetLineWidth(0.5)
	pdf.Line(marginLeft, marginTop+12, pageWidth-marginRight, marginTop+12)

	y := marginTop + 18
	summaryItems := []struct {
		label string
		value string
	}{
		{"Job", jobID},
		{"Total Sheets", fmt.Sprintf("%d", len(result.Sheets))},
		{"Total Placements", fmt.Sprintf("%d", result.TotalPlacements())},
		{"Overall Utilization", fmt.Sprintf("%.2f%%", result.OverallUtilization())},
	}

	pdf.SetFont("Helvetica", "", 10)
	for _, item := range summaryItems {
		pdf.SetXY(marginLeft+5, y)
		pdf.CellFormat(60, 6, item.label+":", "", 0, "L", false, 0, "")
		pdf.SetFont("Helvetica", "B", 10)
		pdf.CellFormat(80, 6, item.value, "", 0, "L", false, 0, "")
		pdf.SetFont("Helvetica", "", 10)
		y += 7
	}

	y += 5
	colWidths := []float64{20, 50, 40, 40}
	headers := []string{"Sheet", "Dimensions", "Placements", "Utilization"}

	pdf.SetFont("Helvetica", "B", 9)
	pdf.SetFillColor(230, 230, 230)
	xPos := marginLeft
	for i, header := range headers {
		pdf.SetXY(xPos, y)
		pdf.CellFormat(colWidths[i], 6, header, "1", 0, "C", true, 0, "")
		xPos += colWidths[i]
	}
	y += 6

	pdf.SetFont("Helvetica", "", 9)
	for i, sheet := range result.Sheets {
		xPos = marginLeft
		rowData := []string{
			fmt.Sprintf("%d", i+1),
			fmt.Sprintf("%.0f x %.0f mm", sheet.Width, sheet.Height),
			fmt.Sprintf("%d", len(sheet.Placements)),
			fmt.Sprintf("%.2f%%", sheet.Utilization()),
		}
		if i%2 == 0 {
			pdf.SetFillColor(245, 245, 245)
		} else {
			pdf.SetFillColor(255, 255, 255)
		}
		for j, cell := range rowData {
			pdf.SetXY(xPos, y)
			pdf.CellFormat(colWidths[j], 6, cell, "1", 0, "C", true, 0, "")
			xPos += colWidths[j]
		}
		y += 6
	}
}
