package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// ReportGenerator renders and stores a quarter report for a claimed
// REPORT_GENERATE job. Implemented in internal/report; an interface here
// keeps this package free of a dependency on the domain packages.
type ReportGenerator interface {
	Generate(ctx context.Context, job *Job) error
}

type Worker struct {
	ID      string
	Repo    *Repo
	DB      *gorm.DB
	Log     *zap.Logger
	Reports ReportGenerator
}

// goalRow is a narrow projection of the goals table; a local struct avoids
// importing the goal package from here.
type goalRow struct {
	ID         string     `gorm:"column:id"`
	UserID     uint64     `gorm:"column:user_id"`
	Title      string     `gorm:"column:title"`
	IsComplete bool       `gorm:"column:is_complete"`
	DueDate    *time.Time `gorm:"column:due_date"`
}

func (goalRow) TableName() string { return "goals" }

func (w *Worker) Run(ctx context.Context) {
	ticker := time.NewTicker(800 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			job, err := w.Repo.Claim(w.ID)
			if err != nil {
				w.Log.Warn("worker claim failed", zap.Error(err))
				continue
			}
			if job == nil {
				continue
			}
			w.handle(ctx, job)
		}
	}
}

func (w *Worker) handle(ctx context.Context, job *Job) {
	switch job.Type {
	case TypeDueReminder:
		w.handleDueReminder(job)
	case TypeReportGenerate:
		w.handleReportGenerate(ctx, job)
	default:
		_ = w.Repo.MarkFailed(job.ID, "unknown job type")
	}
}

func (w *Worker) handleDueReminder(job *Job) {
	type payload struct {
		GoalID string `json:"goal_id"`
	}
	var p payload
	if err := json.Unmarshal(job.Payload, &p); err != nil {
		_ = w.Repo.MarkFailed(job.ID, "bad payload")
		return
	}

	var g goalRow
	if err := w.DB.
		Where("id = ? AND user_id = ?", p.GoalID, job.UserID).
		First(&g).Error; err != nil {

		if errors.Is(err, gorm.ErrRecordNotFound) {
			// Goal deleted since enqueue; nothing to remind about.
			_ = w.Repo.MarkDone(job.ID)
			return
		}
		w.retry(job, "db read error")
		return
	}

	if g.IsComplete || g.DueDate == nil {
		_ = w.Repo.MarkDone(job.ID)
		return
	}

	w.Log.Info("goal due",
		zap.Uint64("user_id", job.UserID),
		zap.String("goal_id", g.ID),
		zap.String("title", g.Title),
		zap.Timep("due_date", g.DueDate),
	)
	_ = w.Repo.MarkDone(job.ID)
}

func (w *Worker) handleReportGenerate(ctx context.Context, job *Job) {
	if w.Reports == nil {
		_ = w.Repo.MarkFailed(job.ID, "report generator not configured")
		return
	}
	if err := w.Reports.Generate(ctx, job); err != nil {
		w.Log.Warn("report generation failed",
			zap.Uint64("job_id", job.ID), zap.Error(err))
		w.retry(job, err.Error())
		return
	}
	_ = w.Repo.MarkDone(job.ID)
}

func (w *Worker) retry(job *Job, errMsg string) {
	attempts := job.Attempts + 1
	if attempts >= job.MaxAttempts {
		_ = w.Repo.MarkFailed(job.ID, errMsg)
		return
	}

	sec := math.Min(math.Pow(2, float64(attempts)), 600)
	next := time.Now().Add(time.Duration(sec) * time.Second)

	_ = w.Repo.RetryLater(job.ID, attempts, next, errMsg)
}
