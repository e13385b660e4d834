package cli

import (
	"fmt"
	"os"
	"path/filepath"

	charmlog "github.com/charmbracelet/log"
	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/sheetfab/nestd/internal/engine"
	"github.com/sheetfab/nestd/internal/export"
	"github.com/sheetfab/nestd/internal/extract"
	"github.com/sheetfab/nestd/internal/model"
)

// newRunCmd builds the one-shot local nesting command. It reads a
// cutlist, extracts outlines from the referenced DXF files, and writes
// the layouts, manifest, report, and labels to an output directory
// without touching the queue or object storage.
func newRunCmd(level func() charmlog.Level) *cobra.Command {
	var (
		sheetWidth  float64
		sheetHeight float64
		spacing     float64
		rotation    bool
		outDir      string
	)

	cmd := &cobra.Command{
		Use:   "run <cutlist>",
		Short: "Nest a local cutlist and write the results to a directory",
		Long: `run reads a CSV or Excel cutlist whose rows reference DXF drawings
(paths relative to the cutlist file) and quantities, nests them onto
sheets of the given size, and writes sheet_N.dxf, manifest.json,
report.pdf, and labels.pdf to the output directory.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := exitLogger(level())

			params := model.Params{
				SheetWidth:    sheetWidth,
				SheetHeight:   sheetHeight,
				Spacing:       spacing,
				AllowRotation: rotation,
			}
			if err := params.Validate(); err != nil {
				return err
			}

			items, err := readCutlist(args[0])
			if err != nil {
				return err
			}
			baseDir := filepath.Dir(args[0])

			var parts []model.Part
			for _, item := range items {
				path := item.FileKey
				if !filepath.IsAbs(path) {
					path = filepath.Join(baseDir, path)
				}
				polygons, err := extract.File(path)
				if err != nil {
					return err
				}
				logger.Debug("extracted outlines", "file", item.FileKey, "outlines", len(polygons))
				for _, polygon := range polygons {
					parts = append(parts, model.Part{
						RefID:    item.RefID,
						Polygon:  polygon,
						Quantity: item.Quantity,
					})
				}
			}

			jobID := uuid.NewString()
			logger.Info("nesting", "job", jobID, "parts", len(parts),
				"sheet", fmt.Sprintf("%.0fx%.0f", params.SheetWidth, params.SheetHeight))

			result, err := engine.Pack(parts, params)
			if err != nil {
				return err
			}

			if err := os.MkdirAll(outDir, 0o755); err != nil {
				return fmt.Errorf("create output dir: %w", err)
			}
			files := make([]string, len(result.Sheets))
			for i, sheet := range result.Sheets {
				data, err := export.SheetDXF(sheet)
				if err != nil {
					return fmt.Errorf("render sheet %d: %w", i+1, err)
				}
				name := fmt.Sprintf("sheet_%d.dxf", i+1)
				if err := os.WriteFile(filepath.Join(outDir, name), data, 0o644); err != nil {
					return err
				}
				files[i] = name
			}

			manifest := export.BuildManifest(jobID, result, files)
			manifestJSON, err := manifest.JSON()
			if err != nil {
				return fmt.Errorf("encode manifest: %w", err)
			}
			if err := os.WriteFile(filepath.Join(outDir, "manifest.json"), manifestJSON, 0o644); err != nil {
				return err
			}

			report, err := export.ReportPDF(jobID, result)
			if err != nil {
				return fmt.Errorf("render report: %w", err)
			}
			if err := os.WriteFile(filepath.Join(outDir, "report.pdf"), report, 0o644); err != nil {
				return err
			}

			labels, err := export.LabelsPDF(jobID, result)
			if err != nil {
				return fmt.Errorf("render labels: %w", err)
			}
			if err := os.WriteFile(filepath.Join(outDir, "labels.pdf"), labels, 0o644); err != nil {
				return err
			}

			logger.Info("done",
				"sheets", len(result.Sheets),
				"placements", result.TotalPlacements(),
				"utilization_pct", fmt.Sprintf("%.2f", result.OverallUtilization()),
				"out", outDir)
			return nil
		},
	}

	cmd.Flags().Float64Var(&sheetWidth, "sheet-width", 2500, "sheet width in mm")
	cmd.Flags().Float64Var(&sheetHeight, "sheet-height", 1250, "sheet height in mm")
	cmd.Flags().Float64Var(&spacing, "spacing", model.DefaultSpacing, "minimum gap between parts in mm")
	cmd.Flags().BoolVar(&rotation, "rotation", true, "allow 90 degree rotation")
	cmd.Flags().StringVarP(&outDir, "out", "o", "nest-out", "output directory")
	return cmd
}
