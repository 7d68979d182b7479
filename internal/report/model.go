package report

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/gorm"
)

// Report is a stored Markdown export of a quarter summary, kept so async
// generation has somewhere to land and past exports remain retrievable.
type Report struct {
	ID      uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	UserID  uint64    `gorm:"index;not null" json:"user_id"`
	Year    int       `gorm:"not null" json:"year"`
	Quarter int       `gorm:"not null" json:"quarter"`

	GoalIDs        pq.StringArray `gorm:"type:text[];not null;default:'{}'" json:"goal_ids"`
	OmitIncomplete bool           `gorm:"not null;default:false" json:"omit_incomplete"`

	Markdown string `gorm:"type:text;not null" json:"markdown"`

	CreatedAt time.Time `json:"created_at"`
}

func (r *Report) BeforeCreate(tx *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}
