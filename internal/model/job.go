package model

import "fmt"

// DefaultSpacing is the minimum gap between parts when a job does not
// specify one, in mm.
const DefaultSpacing = 5.0

// Params are the sheet and spacing parameters of a nesting job.
type Params struct {
	SheetWidth    float64 `json:"sheet_width"`  // mm
	SheetHeight   float64 `json:"sheet_height"` // mm
	Spacing       float64 `json:"spacing"`      // minimum gap between parts, mm
	AllowRotation bool    `json:"allow_rotation"`
}

// Validate checks the parameter invariants.
func (p Params) Validate() error {
	if p.SheetWidth <= 0 || p.SheetHeight <= 0 {
		return fmt.Errorf("sheet dimensions must be positive, got %.1f x %.1f", p.SheetWidth, p.SheetHeight)
	}
	if p.Spacing < 0 {
		return fmt.Errorf("spacing must not be negative, got %.1f", p.Spacing)
	}
	return nil
}

// Item references one input drawing with its required quantity. The
// outline itself is extracted from the file the key points at.
type Item struct {
	RefID    string `json:"ref_id"`
	FileKey  string `json:"file_key"`
	Quantity int    `json:"quantity"`
}

// Job is one nesting request claimed from the queue.
type Job struct {
	ID        string `json:"id"`
	ProjectID string `json:"project_id"`
	Params    Params `json:"params"`
	Items     []Item `json:"items"`
}
