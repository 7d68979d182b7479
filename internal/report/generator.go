package report

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"questlog/internal/goal"
	"questlog/internal/jobs"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Generator renders quarter reports for REPORT_GENERATE jobs and persists
// them. It satisfies jobs.ReportGenerator.
type Generator struct {
	DB         *gorm.DB
	Summarizer *goal.Summarizer
}

// GeneratePayload is the REPORT_GENERATE job payload.
type GeneratePayload struct {
	Year           int      `json:"year"`
	Quarter        int      `json:"quarter"`
	GoalIDs        []string `json:"goal_ids"`
	OmitIncomplete bool     `json:"omit_incomplete"`
	Domains        []string `json:"domains,omitempty"`
	IncludeAdhoc   bool     `json:"include_adhoc"`
}

// Generate builds the multi-goal summary, renders it, and stores the
// result. Precondition failures (bad goal IDs) are permanent; the caller
// should not retry them, which is signaled by wrapping the sentinel.
func (g *Generator) Generate(ctx context.Context, job *jobs.Job) error {
	var p GeneratePayload
	if err := json.Unmarshal(job.Payload, &p); err != nil {
		return fmt.Errorf("report: bad payload: %w", err)
	}

	ids := make([]uuid.UUID, 0, len(p.GoalIDs))
	for _, raw := range p.GoalIDs {
		id, err := uuid.Parse(raw)
		if err != nil {
			return fmt.Errorf("report: bad goal id %q: %w", raw, err)
		}
		ids = append(ids, id)
	}

	sum, err := g.Summarizer.MultiGoalSummary(ctx, job.UserID, ids, p.Year, p.Quarter, p.Domains, p.IncludeAdhoc)
	if err != nil {
		return fmt.Errorf("report: summarize Q%d %d: %w", p.Quarter, p.Year, err)
	}

	md := RenderMulti(sum, Options{OmitIncomplete: p.OmitIncomplete}, time.Now())

	rec := Report{
		UserID:         job.UserID,
		Year:           p.Year,
		Quarter:        p.Quarter,
		GoalIDs:        p.GoalIDs,
		OmitIncomplete: p.OmitIncomplete,
		Markdown:       md,
	}
	return g.DB.WithContext(ctx).Create(&rec).Error
}

// List returns the user's stored reports, newest first, without bodies.
func (g *Generator) List(ctx context.Context, userID uint64) ([]Report, error) {
	var rows []Report
	err := g.DB.WithContext(ctx).
		Select("id", "user_id", "year", "quarter", "goal_ids", "omit_incomplete", "created_at").
		Where("user_id = ?", userID).
		Order("created_at desc").
		Limit(100).
		Find(&rows).Error
	return rows, err
}

// Get returns one stored report with its Markdown body.
func (g *Generator) Get(ctx context.Context, userID uint64, id uuid.UUID) (*Report, error) {
	var r Report
	err := g.DB.WithContext(ctx).
		Where("user_id = ? AND id = ?", userID, id).
		First(&r).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, goal.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &r, nil
}
