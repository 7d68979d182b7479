package goal

import (
	"testing"

	"questlog/internal/jobs"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// openTestDB opens an in-memory SQLite DB with the tables the goal domain
// touches (goals, week states, domains, logs, jobs).
func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	// A pooled :memory: connection is its own empty database. Pin the pool
	// to one connection so concurrent queries all see the migrated schema.
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("unwrap test db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	if err := db.AutoMigrate(
		&Goal{},
		&WeekState{},
		&Domain{},
		&Log{},
		&jobs.Job{},
	); err != nil {
		t.Fatalf("auto migrate: %v", err)
	}
	return db
}
