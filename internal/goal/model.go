package goal

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Depth of a goal in the quarterly/weekly/daily hierarchy.
type Depth int

const (
	DepthQuarterly Depth = 0
	DepthWeekly    Depth = 1
	DepthDaily     Depth = 2
)

// Goal is one node of the hierarchy, or an adhoc (unscheduled) task when
// IsAdhoc is set. Depth is fixed at creation and never changes.
type Goal struct {
	ID      uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	UserID  uint64    `gorm:"index:idx_goals_user_quarter,priority:1;not null" json:"user_id"`
	Title   string    `gorm:"type:text;not null" json:"title"`
	Details *string   `gorm:"type:text" json:"details,omitempty"`

	Year    int   `gorm:"index:idx_goals_user_quarter,priority:2;not null" json:"year"`
	Quarter int   `gorm:"index:idx_goals_user_quarter,priority:3;not null" json:"quarter"`
	Depth   Depth `gorm:"not null" json:"depth"`

	// ParentID is set iff Depth > 0. InPath is the slash-joined ancestor
	// chain: "/" for depth 0, "/<quarterlyId>" for depth 1,
	// "/<quarterlyId>/<weeklyId>" for depth 2.
	ParentID *uuid.UUID `gorm:"type:uuid;index" json:"parent_id,omitempty"`
	InPath   string     `gorm:"type:text;not null;default:'/'" json:"in_path"`

	IsComplete  bool       `gorm:"not null;default:false" json:"is_complete"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	DueDate     *time.Time `json:"due_date,omitempty"`

	// Adhoc goals live outside the hierarchy: no week-state rows, tagged by
	// an optional domain, pinned to a single (year, week_number).
	IsAdhoc    bool       `gorm:"not null;default:false" json:"is_adhoc"`
	WeekNumber int        `gorm:"not null;default:0" json:"week_number,omitempty"`
	DomainID   *uuid.UUID `gorm:"type:uuid;index" json:"domain_id,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (g *Goal) BeforeCreate(tx *gorm.DB) error {
	if g.ID == uuid.Nil {
		g.ID = uuid.New()
	}
	return nil
}

// ChildPath returns the InPath a direct child of g must carry.
func (g *Goal) ChildPath() string {
	if g.InPath == "/" {
		return "/" + g.ID.String()
	}
	return g.InPath + "/" + g.ID.String()
}

// ValidatePath checks the depth/InPath agreement invariant.
func (g *Goal) ValidatePath() error {
	segments := 0
	if g.InPath != "/" {
		if !strings.HasPrefix(g.InPath, "/") {
			return fmt.Errorf("%w: in_path %q must start with '/'", ErrInvalidGoal, g.InPath)
		}
		segments = strings.Count(g.InPath, "/")
	}
	if segments != int(g.Depth) {
		return fmt.Errorf("%w: depth %d does not match in_path %q", ErrInvalidGoal, g.Depth, g.InPath)
	}
	if g.Depth > DepthQuarterly && g.ParentID == nil {
		return fmt.Errorf("%w: depth %d goal requires a parent", ErrInvalidGoal, g.Depth)
	}
	if g.Depth == DepthQuarterly && g.ParentID != nil {
		return fmt.Errorf("%w: quarterly goal cannot have a parent", ErrInvalidGoal)
	}
	return nil
}

// WeekState is the per-week record for a goal. Exactly one row exists per
// (user, year, quarter, week_number, goal) tuple. Star/pin flags are scoped
// to the one week; the daily placement fields are set for depth-2 goals only.
type WeekState struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	UserID     uint64    `gorm:"uniqueIndex:uq_week_states_scope,priority:1;not null" json:"user_id"`
	Year       int       `gorm:"uniqueIndex:uq_week_states_scope,priority:2;not null" json:"year"`
	Quarter    int       `gorm:"uniqueIndex:uq_week_states_scope,priority:3;not null" json:"quarter"`
	WeekNumber int       `gorm:"uniqueIndex:uq_week_states_scope,priority:4;not null" json:"week_number"`
	GoalID     uuid.UUID `gorm:"type:uuid;uniqueIndex:uq_week_states_scope,priority:5;index;not null" json:"goal_id"`

	IsStarred bool `gorm:"not null;default:false" json:"is_starred"`
	IsPinned  bool `gorm:"not null;default:false" json:"is_pinned"`

	// Daily placement, depth-2 goals only. DayOfWeek: 0=Monday .. 6=Sunday.
	DayOfWeek    *int       `json:"day_of_week,omitempty"`
	ScheduledFor *time.Time `json:"scheduled_for,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (s *WeekState) BeforeCreate(tx *gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}

// Domain is a per-user tag bucket for adhoc goals.
type Domain struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	UserID    uint64    `gorm:"uniqueIndex:uq_domains_user_name,priority:1;not null" json:"user_id"`
	Name      string    `gorm:"type:text;uniqueIndex:uq_domains_user_name,priority:2;not null" json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

func (d *Domain) BeforeCreate(tx *gorm.DB) error {
	if d.ID == uuid.Nil {
		d.ID = uuid.New()
	}
	return nil
}

// DomainUncategorized is the sentinel filter value selecting adhoc goals
// that have no domain.
const DomainUncategorized = "uncategorized"

// Log is a free-form progress note on a goal. Content is untrusted rich
// text; it is sanitized at render time, never at rest.
type Log struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	GoalID    uuid.UUID `gorm:"type:uuid;index;not null" json:"goal_id"`
	UserID    uint64    `gorm:"index;not null" json:"user_id"`
	Content   string    `gorm:"type:text;not null" json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

func (l *Log) BeforeCreate(tx *gorm.DB) error {
	if l.ID == uuid.Nil {
		l.ID = uuid.New()
	}
	return nil
}

// TreeNode is the runtime, per-week wrapping of a Goal: never persisted,
// rebuilt on every read. ParentTitle and GrandParentTitle are denormalized
// read-only annotations set during the ancestry pass.
type TreeNode struct {
	Goal

	Path             string      `json:"path"`
	State            *WeekState  `json:"state,omitempty"`
	ParentTitle      string      `json:"parent_title,omitempty"`
	GrandParentTitle string      `json:"grand_parent_title,omitempty"`
	Children         []*TreeNode `json:"children"`
}
