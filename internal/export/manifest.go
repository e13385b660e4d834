package export

import (
	"encoding/json"
	"math"

	"github.com/sheetfab/nestd/internal/model"
)

// PlacementRecord is one placed instance in the manifest, keeping
// per-instance traceability explicit instead of encoded in label text.
type PlacementRecord struct {
	RefID    string  `json:"ref_id"`
	Instance int     `json:"instance"`
	Total    int     `json:"total"`
	Rotated  bool    `json:"rotated"`
	X        float64 `json:"x_mm"`
	Y        float64 `json:"y_mm"`
}

// SheetSummary describes one output sheet in the manifest.
type SheetSummary struct {
	Index          int               `json:"index"` // 1-based
	File           string            `json:"file"`
	UtilizationPct float64           `json:"utilization_pct"`
	PlacementCount int               `json:"placement_count"`
	Placements     []PlacementRecord `json:"placements"`
}

// Manifest summarizes one completed nesting job.
type Manifest struct {
	JobID          string         `json:"job_id"`
	SheetCount     int            `json:"sheet_count"`
	UtilizationPct float64        `json:"utilization_pct"`
	Sheets         []SheetSummary `json:"sheets"`
}

// BuildManifest assembles the manifest for a job result. files holds the
// per-sheet artifact references, index-aligned with result.Sheets.
func BuildManifest(jobID string, result model.NestResult, files []string) Manifest {
	m := Manifest{
		JobID:          jobID,
		SheetCount:     len(result.Sheets),
		UtilizationPct: round2(result.OverallUtilization()),
	}
	for i, sheet := range result.Sheets {
		file := ""
		if i < len(files) {
			file = files[i]
		}
		summary := SheetSummary{
			Index:          i + 1,
			File:           file,
			UtilizationPct: round2(sheet.Utilization()),
			PlacementCount: len(sheet.Placements),
			Placements:     make([]PlacementRecord, 0, len(sheet.Placements)),
		}
		for _, p := range sheet.Placements {
			summary.Placements = append(summary.Placements, PlacementRecord{
				RefID:    p.RefID,
				Instance: p.Instance,
				Total:    p.Total,
				Rotated:  p.Rotated,
				X:        round2(p.X),
				Y:        round2(p.Y),
			})
		}
		m.Sheets = append(m.Sheets, summary)
	}
	return m
}

// JSON encodes the manifest with stable, indented formatting.
func (m Manifest) JSON() ([]byte, error) {
	return json.MarshalIndent(m, "", "  ")
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
