// Package queue is the Postgres-backed job queue client. Claiming uses
// FOR UPDATE SKIP LOCKED so that exactly one worker processes a given
// job; the database, not this process, arbitrates concurrent claims.
package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"

	"github.com/sheetfab/nestd/internal/model"
)

// Status is the lifecycle state of a job record.
type Status string

const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
)

// ErrNoJob is returned by Claim when no pending job is available.
var ErrNoJob = errors.New("no pending jobs")

// JobRecord is the jobs table row.
type JobRecord struct {
	ID             string `gorm:"type:uuid;primaryKey"`
	ProjectID      string `gorm:"index"`
	Status         Status `gorm:"index;default:pending"`
	Params         []byte `gorm:"type:jsonb"`
	ErrorMessage   string
	SheetCount     int
	UtilizationPct float64
	CreatedAt      time.Time
	UpdatedAt      time.Time
	StartedAt      *time.Time
	FinishedAt     *time.Time
}

// TableName keeps the table name explicit.
func (JobRecord) TableName() string { return "nest_jobs" }

// JobParams is the wire format of the params column. Spacing and
// rotation are optional; defaults are applied at intake.
type JobParams struct {
	SheetWidth    float64   `json:"sheet_width"`
	SheetHeight   float64   `json:"sheet_height"`
	Spacing       *float64  `json:"spacing,omitempty"`
	AllowRotation *bool     `json:"allow_rotation,omitempty"`
	Items         []JobItem `json:"items"`
}

// JobItem references one input drawing in the job descriptor.
type JobItem struct {
	RefID    string `json:"ref_id"`
	FileKey  string `json:"file_key"`
	Quantity int    `json:"quantity"`
}

// Normalize validates the descriptor and applies defaults, producing the
// engine-facing parameter and item types.
func (p JobParams) Normalize() (model.Params, []model.Item, error) {
	params := model.Params{
		SheetWidth:    p.SheetWidth,
		SheetHeight:   p.SheetHeight,
		Spacing:       model.DefaultSpacing,
		AllowRotation: true,
	}
	if p.Spacing != nil {
		params.Spacing = *p.Spacing
	}
	if p.AllowRotation != nil {
		params.AllowRotation = *p.AllowRotation
	}
	if err := params.Validate(); err != nil {
		return model.Params{}, nil, err
	}

	if len(p.Items) == 0 {
		return model.Params{}, nil, errors.New("job has no items")
	}
	items := make([]model.Item, 0, len(p.Items))
	for i, it := range p.Items {
		if it.FileKey == "" {
			return model.Params{}, nil, fmt.Errorf("item %d: missing file key", i)
		}
		if it.RefID == "" {
			return model.Params{}, nil, fmt.Errorf("item %d: missing ref id", i)
		}
		if it.Quantity < 1 {
			return model.Params{}, nil, fmt.Errorf("item %q: quantity must be at least 1, got %d", it.RefID, it.Quantity)
		}
		items = append(items, model.Item{RefID: it.RefID, FileKey: it.FileKey, Quantity: it.Quantity})
	}
	return params, items, nil
}

// Queue wraps the database handle.
type Queue struct {
	db *gorm.DB
}

// Open connects to Postgres and migrates the jobs table.
func Open(dsn string) (*Queue, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("connect to queue database: %w", err)
	}
	if err := db.AutoMigrate(&JobRecord{}); err != nil {
		return nil, fmt.Errorf("migrate jobs table: %w", err)
	}
	return &Queue{db: db}, nil
}

// Enqueue inserts a new pending job and returns its id. Used by
// integration tooling and tests; the web application normally inserts
// rows directly.
func (q *Queue) Enqueue(ctx context.Context, projectID string, params JobParams) (string, error) {
	if _, _, err := params.Normalize(); err != nil {
		return "", fmt.Errorf("invalid job descriptor: %w", err)
	}
	raw, err := json.Marshal(params)
	if err != nil {
		return "", err
	}
	rec := JobRecord{
		ID:        uuid.NewString(),
		ProjectID: projectID,
		Status:    StatusPending,
		Params:    raw,
	}
	if err := q.db.WithContext(ctx).Create(&rec).Error; err != nil {
		return "", fmt.Errorf("enqueue job: %w", err)
	}
	return rec.ID, nil
}

// Claim atomically takes the oldest pending job and flips it to
// processing. A job whose descriptor fails validation is marked failed
// immediately and reported as an error; the caller should log it and
// poll again.
func (q *Queue) Claim(ctx context.Context) (*model.Job, error) {
	var rec JobRecord
	err := q.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.
			Clauses(clause.Locking{Strength: "UPDATE", Options: "SKIP LOCKED"}).
			Where("status = ?", StatusPending).
			Order("created_at").
			First(&rec).Error; err != nil {
			return err
		}
		now := time.Now().UTC()
		rec.Status = StatusProcessing
		rec.StartedAt = &now
		return tx.Save(&rec).Error
	})
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNoJob
	}
	if err != nil {
		return nil, fmt.Errorf("claim job: %w", err)
	}

	var params JobParams
	if err := json.Unmarshal(rec.Params, &params); err != nil {
		msg := fmt.Sprintf("undecodable job descriptor: %v", err)
		_ = q.Fail(ctx, rec.ID, msg)
		return nil, fmt.Errorf("job %s: %s", rec.ID, msg)
	}
	engineParams, items, err := params.Normalize()
	if err != nil {
		msg := fmt.Sprintf("invalid job descriptor: %v", err)
		_ = q.Fail(ctx, rec.ID, msg)
		return nil, fmt.Errorf("job %s: %s", rec.ID, msg)
	}

	return &model.Job{
		ID:        rec.ID,
		ProjectID: rec.ProjectID,
		Params:    engineParams,
		Items:     items,
	}, nil
}

// Complete finalizes a processing job with its result figures.
func (q *Queue) Complete(ctx context.Context, id string, sheetCount int, utilizationPct float64) error {
	now := time.Now().UTC()
	res := q.db.WithContext(ctx).
		Model(&JobRecord{}).
		Where("id = ? AND status = ?", id, StatusProcessing).
		Updates(map[string]interface{}{
			"status":          StatusCompleted,
			"sheet_count":     sheetCount,
			"utilization_pct": utilizationPct,
			"finished_at":     &now,
		})
	if res.Error != nil {
		return fmt.Errorf("complete job %s: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("complete job %s: not in processing state", id)
	}
	return nil
}

// Fail marks a job failed with a human-readable message. A completed job
// is never overwritten.
func (q *Queue) Fail(ctx context.Context, id string, msg string) error {
	now := time.Now().UTC()
	res := q.db.WithContext(ctx).
		Model(&JobRecord{}).
		Where("id = ? AND status <> ?", id, StatusCompleted).
		Updates(map[string]interface{}{
			"status":        StatusFailed,
			"error_message": msg,
			"finished_at":   &now,
		})
	if res.Error != nil {
		return fmt.Errorf("fail job %s: %w", id, res.Error)
	}
	return nil
}
