// Package worker runs the job orchestration loop: poll the queue, claim
// at most one job, drive extraction, placement, and export to completion,
// and report success or failure. Jobs are processed strictly one at a
// time; horizontal scaling means running more worker processes competing
// on the queue's claim semantics, not adding concurrency here.
package worker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/log"

	"github.com/sheetfab/nestd/internal/engine"
	"github.com/sheetfab/nestd/internal/export"
	"github.com/sheetfab/nestd/internal/extract"
	"github.com/sheetfab/nestd/internal/model"
	"github.com/sheetfab/nestd/internal/queue"
	"github.com/sheetfab/nestd/internal/storage"
)

// JobSource is the queue surface the worker needs. Claim must hand a
// given job to exactly one caller.
type JobSource interface {
	Claim(ctx context.Context) (*model.Job, error)
	Complete(ctx context.Context, id string, sheetCount int, utilizationPct float64) error
	Fail(ctx context.Context, id string, msg string) error
}

// Worker is the long-lived nesting worker.
type Worker struct {
	jobs     JobSource
	store    storage.Store
	interval time.Duration
	logger   *log.Logger
}

// New creates a worker polling at the given interval.
func New(jobs JobSource, store storage.Store, interval time.Duration, logger *log.Logger) *Worker {
	if logger == nil {
		logger = log.Default()
	}
	return &Worker{jobs: jobs, store: store, interval: interval, logger: logger}
}

// Run polls until the context is canceled. A failure in one job never
// stops the loop; it is recorded on the job and polling continues.
func (w *Worker) Run(ctx context.Context) error {
	w.logger.Info("worker started", "poll_interval", w.interval)
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		w.drain(ctx)
		select {
		case <-ctx.Done():
			w.logger.Info("worker stopping")
			return nil
		case <-ticker.C:
		}
	}
}

// drain claims and processes jobs until the queue is empty or the
// context is canceled.
func (w *Worker) drain(ctx context.Context) {
	for ctx.Err() == nil {
		job, err := w.jobs.Claim(ctx)
		if errors.Is(err, queue.ErrNoJob) {
			return
		}
		if err != nil {
			// Includes jobs rejected at intake; they are already failed.
			w.logger.Error("claim failed", "err", err)
			return
		}
		w.Process(ctx, job)
	}
}

// Process runs one job to completion or failure.
func (w *Worker) Process(ctx context.Context, job *model.Job) {
	logger := w.logger.With("job", job.ID, "project", job.ProjectID)
	logger.Info("processing job", "items", len(job.Items),
		"sheet", fmt.Sprintf("%.0fx%.0f", job.Params.SheetWidth, job.Params.SheetHeight))
	start := time.Now()

	result, err := w.runJob(ctx, job)
	if err != nil {
		logger.Error("job failed", "err", err)
		if failErr := w.jobs.Fail(ctx, job.ID, err.Error()); failErr != nil {
			logger.Error("could not record job failure", "err", failErr)
		}
		return
	}

	if err := w.jobs.Complete(ctx, job.ID, len(result.Sheets), result.OverallUtilization()); err != nil {
		logger.Error("could not record job completion", "err", err)
		return
	}
	logger.Info("job completed",
		"sheets", len(result.Sheets),
		"placements", result.TotalPlacements(),
		"utilization_pct", fmt.Sprintf("%.2f", result.OverallUtilization()),
		"elapsed", time.Since(start).Round(time.Millisecond))
}

// runJob drives the extract -> pack -> export pipeline. The first error
// aborts the job; partial output is never persisted as a result.
func (w *Worker) runJob(ctx context.Context, job *model.Job) (model.NestResult, error) {
	var parts []model.Part
	for _, item := range job.Items {
		data, err := w.store.Download(ctx, item.FileKey)
		if err != nil {
			return model.NestResult{}, err
		}
		polygons, err := extract.Bytes(item.FileKey, data)
		if err != nil {
			return model.NestResult{}, err
		}
		for _, polygon := range polygons {
			parts = append(parts, model.Part{
				RefID:    item.RefID,
				Polygon:  polygon,
				Quantity: item.Quantity,
			})
		}
	}

	result, err := engine.Pack(parts, job.Params)
	if err != nil {
		return model.NestResult{}, err
	}

	if err := w.uploadArtifacts(ctx, job, result); err != nil {
		return model.NestResult{}, err
	}
	return result, nil
}

// uploadArtifacts writes the per-sheet drawings, the manifest, and the
// PDF report and labels under the job's storage prefix.
func (w *Worker) uploadArtifacts(ctx context.Context, job *model.Job, result model.NestResult) error {
	files := make([]string, len(result.Sheets))
	for i, sheet := range result.Sheets {
		data, err := export.SheetDXF(sheet)
		if err != nil {
			return fmt.Errorf("render sheet %d: %w", i+1, err)
		}
		key := storage.SheetKey(job.ProjectID, job.ID, i+1)
		if err := w.store.Upload(ctx, key, data, "image/vnd.dxf"); err != nil {
			return err
		}
		files[i] = key
	}

	manifest := export.BuildManifest(job.ID, result, files)
	manifestJSON, err := manifest.JSON()
	if err != nil {
		return fmt.Errorf("encode manifest: %w", err)
	}
	if err := w.store.Upload(ctx, storage.ManifestKey(job.ProjectID, job.ID), manifestJSON, "application/json"); err != nil {
		return err
	}

	report, err := export.ReportPDF(job.ID, result)
	if err != nil {
		return fmt.Errorf("render report: %w", err)
	}
	if err := w.store.Upload(ctx, storage.ReportKey(job.ProjectID, job.ID), report, "application/pdf"); err != nil {
		return err
	}

	labels, err := export.LabelsPDF(job.ID, result)
	if err != nil {
		return fmt.Errorf("render labels: %w", err)
	}
	return w.store.Upload(ctx, storage.LabelsKey(job.ProjectID, job.ID), labels, "application/pdf")
}
