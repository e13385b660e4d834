package export

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/go-pdf/fpdf"
	qrcode "github.com/skip2/go-qrcode"

	"github.com/sheetfab/nestd/internal/model"
)

// LabelInfo is the payload encoded into each part label's QR code.
type LabelInfo struct {
	JobID    string  `json:"job_id"`
	RefID    string  `json:"ref_id"`
	Instance int     `json:"instance"`
	Total    int     `json:"total"`
	Sheet    int     `json:"sheet"`
	Rotated  bool    `json:"rotated"`
	X        float64 `json:"x_mm"`
	Y        float64 `json:"y_mm"`
}

// Label layout constants: 3 columns by 10 rows per A4 portrait page.
const (
	labelPageWidth  = 210.0
	labelMarginTop  = 12.0
	labelMarginLeft = 5.0
	labelWidth      = 66.0
	labelHeight     = 27.0
	labelCols       = 3
	labelRows       = 10
	labelsPerPage   = labelCols * labelRows
	qrSize          = 20.0
	labelPadding    = 2.0
)

// LabelsPDF generates a sheet of QR-coded labels, one per placed
// instance, so cut parts can be traced back to their source item and
// sheet position.
func LabelsPDF(jobID string, result model.NestResult) ([]byte, error) {
	labels := CollectLabelInfos(jobID, result)
	if len(labels) == 0 {
		return nil, fmt.Errorf("no placements to generate labels for")
	}

	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetAutoPageBreak(false, 0)

	for i, label := range labels {
		if i%labelsPerPage == 0 {
			pdf.AddPage()
		}
		posOnPage := i % labelsPerPage
		col := posOnPage % labelCols
		row := posOnPage / labelCols

		x := labelMarginLeft + float64(col)*labelWidth
		y := labelMarginTop + float64(row)*labelHeight
		if err := renderLabel(pdf, x, y, i, label); err != nil {
			return nil, fmt.Errorf("render label for %q: %w", label.RefID, err)
		}
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// renderLabel draws one label cell at the given position.
func renderLabel(pdf *fpdf.Fpdf, x, y float64, seq int, info LabelInfo) error {
	pdf.SetDrawColor(200, 200, 200)
	pdf.SetLineWidth(0.1)
	pdf.Rect(x, y, labelWidth, labelHeight, "D")

	qrData, err := json.Marshal(info)
	if err != nil {
		return fmt.Errorf("marshal label info: %w", err)
	}
	qrPNG, err := qrcode.Encode(string(qrData), qrcode.Medium, 256)
	if err != nil {
		return fmt.Errorf("generate QR code: %w", err)
	}

	imgName := fmt.Sprintf("qr_%d", seq)
	pdf.RegisterImageOptionsReader(imgName, fpdf.ImageOptions{ImageType: "PNG"}, bytes.NewReader(qrPNG))
	qrX := x + labelWidth - qrSize - labelPadding
	qrY := y + (labelHeight-qrSize)/2
	pdf.ImageOptions(imgName, qrX, qrY, qrSize, qrSize, false, fpdf.ImageOptions{ImageType: "PNG"}, 0, "")

	textX := x + labelPadding
	textW := labelWidth - qrSize - 3*labelPadding

	pdf.SetFont("Helvetica", "B", 9)
	pdf.SetTextColor(0, 0, 0)
	pdf.SetXY(textX, y+labelPadding)
	title := fmt.Sprintf("%s (%d/%d)", info.RefID, info.Instance, info.Total)
	if pdf.GetStringWidth(title) > textW {
		for len(title) > 0 && pdf.GetStringWidth(title+"...") > textW {
			title = title[:len(title)-1]
		}
		title += "..."
	}
	pdf.CellFormat(textW, 4.5, title, "", 1, "L", false, 0, "")

	pdf.SetFont("Helvetica", "", 7)
	pdf.SetXY(textX, y+labelPadding+5)
	pos := fmt.Sprintf("Sheet %d @ (%.0f, %.0f)", info.Sheet, info.X, info.Y)
	pdf.CellFormat(textW, 3.5, pos, "", 1, "L", false, 0, "")

	if info.Rotated {
		pdf.SetFont("Helvetica", "I", 6)
		pdf.SetTextColor(150, 100, 0)
		pdf.SetXY(textX, y+labelPadding+9)
		pdf.CellFormat(textW, 3, "Rotated 90", "", 0, "L", false, 0, "")
	}

	pdf.SetTextColor(0, 0, 0)
	return nil
}

// CollectLabelInfos flattens a result into label payloads, for rendering
// and for tests.
func CollectLabelInfos(jobID string, result model.NestResult) []LabelInfo {
	var labels []LabelInfo
	for sheetIdx, sheet := range result.Sheets {
		for _, p := range sheet.Placements {
			labels = append(labels, LabelInfo{
				JobID:    jobID,
				RefID:    p.RefID,
				Instance: p.Instance,
				Total:    p.Total,
				Sheet:    sheetIdx + 1,
				Rotated:  p.Rotated,
				X:        p.X,
				Y:        p.Y,
			})
		}
	}
	return labels
}
