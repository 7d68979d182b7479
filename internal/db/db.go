package db

import (
	"fmt"

	"questlog/internal/auth"
	"questlog/internal/goal"
	"questlog/internal/jobs"
	"questlog/internal/report"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func Connect(dsn string) (*gorm.DB, error) {
	gdb, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, err
	}
	return gdb, nil
}

func AutoMigrateAndIndexes(gdb *gorm.DB) error {
	// Tables
	if err := gdb.AutoMigrate(
		&goal.Goal{},
		&goal.WeekState{},
		&goal.Domain{},
		&goal.Log{},
		&report.Report{},
		&jobs.Job{},
		&auth.User{},
	); err != nil {
		return err
	}

	// The week-state fetch is the hot read path: one lookup per week per
	// summary. The composite unique index from the model covers it; the
	// partial indexes below serve the adhoc scan and the job queue.
	stmts := []string{
		`create index if not exists idx_goals_adhoc_week on goals(user_id, year, week_number) where is_adhoc;`,
		`create index if not exists idx_goals_parent on goals(user_id, parent_id) where parent_id is not null;`,
		`create index if not exists idx_logs_goal_created on logs(goal_id, created_at desc);`,
		`create index if not exists idx_jobs_due on jobs(status, run_at);`,
		`create index if not exists idx_jobs_lock on jobs(status, locked_at);`,
		`create index if not exists idx_jobs_ref on jobs(user_id, type, status, ref_id) where ref_id is not null;`,
		`create index if not exists idx_reports_user_created on reports(user_id, created_at desc);`,
	}
	for _, s := range stmts {
		if err := gdb.Exec(s).Error; err != nil {
			return fmt.Errorf("index exec failed: %w (sql=%s)", err, s)
		}
	}

	return nil
}
