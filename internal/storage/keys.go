package storage

import "fmt"

// Artifact keys follow the layout the surrounding application expects:
// everything for one nesting job lives under {project}/nests/{job}/.

// SheetKey returns the key for the n-th (1-based) sheet drawing.
func SheetKey(projectID, jobID string, n int) string {
	return fmt.Sprintf("%s/nests/%s/sheet_%d.dxf", projectID, jobID, n)
}

// ManifestKey returns the key for the job manifest.
func ManifestKey(projectID, jobID string) string {
	return fmt.Sprintf("%s/nests/%s/manifest.json", projectID, jobID)
}

// ReportKey returns the key for the PDF cut report.
func ReportKey(projectID, jobID string) string {
	return fmt.Sprintf("%s/nests/%s/report.pdf", projectID, jobID)
}

// LabelsKey returns the key for the QR label sheet.
func LabelsKey(projectID, jobID string) string {
	return fmt.Sprintf("%s/nests/%s/labels.pdf", projectID, jobID)
}
