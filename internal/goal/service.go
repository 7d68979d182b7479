package goal

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"questlog/internal/jobs"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Service struct {
	DB *gorm.DB
}

type CreateInput struct {
	Title   string
	Details *string
	Year    int
	Quarter int
	Depth   Depth
	// ParentID is required for depth 1/2.
	ParentID *uuid.UUID
	// WeekNumber is the creation week for weekly/daily goals. Quarterly
	// goals ignore it: they get a state row for every week of the quarter.
	WeekNumber int
	DueDate    *time.Time
}

// Create inserts a hierarchy goal plus its per-week state rows in one
// transaction. Quarterly goals get one state row per week of the quarter's
// range; weekly and daily goals get only the creation week's row.
func (s *Service) Create(ctx context.Context, userID uint64, in CreateInput) (*Goal, error) {
	in.Title = strings.TrimSpace(in.Title)
	if in.Title == "" {
		return nil, fmt.Errorf("%w: title required", ErrInvalidGoal)
	}
	if in.Depth < DepthQuarterly || in.Depth > DepthDaily {
		return nil, fmt.Errorf("%w: depth %d out of range", ErrInvalidGoal, in.Depth)
	}
	wr, err := QuarterWeekRange(in.Year, in.Quarter)
	if err != nil {
		return nil, err
	}

	g := &Goal{
		Title:   in.Title,
		Details: in.Details,
		UserID:  userID,
		Year:    in.Year,
		Quarter: in.Quarter,
		Depth:   in.Depth,
		InPath:  "/",
		DueDate: in.DueDate,
	}

	err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if in.Depth > DepthQuarterly {
			if in.ParentID == nil {
				return fmt.Errorf("%w: depth %d goal requires a parent", ErrInvalidGoal, in.Depth)
			}
			var parent Goal
			if err := tx.Where("user_id = ? AND id = ?", userID, *in.ParentID).First(&parent).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return fmt.Errorf("%w: parent %s", ErrNotFound, *in.ParentID)
				}
				return err
			}
			if parent.Depth != in.Depth-1 {
				return fmt.Errorf("%w: parent %s has depth %d, want %d",
					ErrInvalidGoal, parent.ID, parent.Depth, in.Depth-1)
			}
			if parent.IsAdhoc {
				return fmt.Errorf("%w: adhoc goals cannot have children", ErrInvalidGoal)
			}
			if parent.Year != in.Year || parent.Quarter != in.Quarter {
				return fmt.Errorf("%w: parent belongs to Q%d %d", ErrInvalidGoal, parent.Quarter, parent.Year)
			}
			g.ParentID = in.ParentID
			g.InPath = parent.ChildPath()
		}
		if err := g.ValidatePath(); err != nil {
			return err
		}
		if err := tx.Create(g).Error; err != nil {
			return err
		}

		// Per-week state rows. The single-row behavior for weekly/daily
		// goals is deliberate: those goals belong to their creation week
		// unless a later week's state is set explicitly.
		weeks := []int{in.WeekNumber}
		if in.Depth == DepthQuarterly {
			weeks = weeks[:0]
			for w := wr.StartWeek; w <= wr.EndWeek; w++ {
				weeks = append(weeks, w)
			}
		} else if in.WeekNumber < wr.StartWeek || in.WeekNumber > wr.EndWeek {
			return fmt.Errorf("%w: week %d outside quarter range %d-%d",
				ErrInvalidGoal, in.WeekNumber, wr.StartWeek, wr.EndWeek)
		}
		for _, w := range weeks {
			st := WeekState{
				UserID:     userID,
				Year:       in.Year,
				Quarter:    in.Quarter,
				WeekNumber: w,
				GoalID:     g.ID,
			}
			if err := tx.Create(&st).Error; err != nil {
				return err
			}
		}

		if in.DueDate != nil {
			return enqueueDueReminder(tx, userID, g.ID, *in.DueDate)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return g, nil
}

type CreateAdhocInput struct {
	Title      string
	Details    *string
	Year       int
	WeekNumber int
	DomainID   *uuid.UUID
	DueDate    *time.Time
}

// CreateAdhoc inserts a domain-tagged adhoc goal. Adhoc goals carry their
// own week number and get no per-week state rows.
func (s *Service) CreateAdhoc(ctx context.Context, userID uint64, in CreateAdhocInput) (*Goal, error) {
	in.Title = strings.TrimSpace(in.Title)
	if in.Title == "" {
		return nil, fmt.Errorf("%w: title required", ErrInvalidGoal)
	}
	if in.WeekNumber < 1 || in.WeekNumber > lastISOWeek(in.Year) {
		return nil, fmt.Errorf("%w: week %d out of range for %d", ErrInvalidGoal, in.WeekNumber, in.Year)
	}

	g := &Goal{
		Title:      in.Title,
		Details:    in.Details,
		UserID:     userID,
		Year:       in.Year,
		Quarter:    (in.WeekNumber-1)/13 + 1,
		InPath:     "/",
		IsAdhoc:    true,
		WeekNumber: in.WeekNumber,
		DomainID:   in.DomainID,
		DueDate:    in.DueDate,
	}
	if g.Quarter > 4 {
		g.Quarter = 4
	}

	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if in.DomainID != nil {
			var d Domain
			if err := tx.Where("user_id = ? AND id = ?", userID, *in.DomainID).First(&d).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return fmt.Errorf("%w: domain %s", ErrNotFound, *in.DomainID)
				}
				return err
			}
		}
		if err := tx.Create(g).Error; err != nil {
			return err
		}
		if in.DueDate != nil {
			return enqueueDueReminder(tx, userID, g.ID, *in.DueDate)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return g, nil
}

// ToggleComplete flips a goal's completion. Toggling a weekly goal with
// cascade set applies the new value to its daily children as well.
func (s *Service) ToggleComplete(ctx context.Context, userID uint64, goalID uuid.UUID, cascade bool) (*Goal, error) {
	var g Goal
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("user_id = ? AND id = ?", userID, goalID).First(&g).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}

		g.IsComplete = !g.IsComplete
		if g.IsComplete {
			now := time.Now()
			g.CompletedAt = &now
		} else {
			g.CompletedAt = nil
		}
		if err := tx.Save(&g).Error; err != nil {
			return err
		}

		if cascade && g.Depth == DepthWeekly {
			return tx.Model(&Goal{}).
				Where("user_id = ? AND parent_id = ?", userID, g.ID).
				Updates(map[string]any{
					"is_complete":  g.IsComplete,
					"completed_at": g.CompletedAt,
				}).Error
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &g, nil
}

type UpdateInput struct {
	Title        *string
	Details      *string
	DueDate      *time.Time
	ClearDueDate bool
}

// Update edits a goal's title, details, or due date. Due-date changes
// re-enqueue the reminder job; the stale pending one is removed first.
func (s *Service) Update(ctx context.Context, userID uint64, goalID uuid.UUID, in UpdateInput) (*Goal, error) {
	var g Goal
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("user_id = ? AND id = ?", userID, goalID).First(&g).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}

		if in.Title != nil {
			t := strings.TrimSpace(*in.Title)
			if t == "" {
				return fmt.Errorf("%w: title required", ErrInvalidGoal)
			}
			g.Title = t
		}
		if in.Details != nil {
			g.Details = in.Details
		}
		dueChanged := false
		if in.ClearDueDate {
			g.DueDate = nil
			dueChanged = true
		} else if in.DueDate != nil {
			g.DueDate = in.DueDate
			dueChanged = true
		}
		if err := tx.Save(&g).Error; err != nil {
			return err
		}

		if dueChanged {
			if err := cancelDueReminders(tx, userID, g.ID); err != nil {
				return err
			}
			if g.DueDate != nil {
				return enqueueDueReminder(tx, userID, g.ID, *g.DueDate)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &g, nil
}

// Delete removes a goal with its week-state rows and logs. Goals that
// still have children are refused.
func (s *Service) Delete(ctx context.Context, userID uint64, goalID uuid.UUID) error {
	return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var g Goal
		if err := tx.Where("user_id = ? AND id = ?", userID, goalID).First(&g).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}

		var children int64
		if err := tx.Model(&Goal{}).
			Where("user_id = ? AND parent_id = ?", userID, g.ID).
			Count(&children).Error; err != nil {
			return err
		}
		if children > 0 {
			return fmt.Errorf("%w: goal %s has %d children", ErrHasChildren, g.ID, children)
		}

		if err := tx.Where("user_id = ? AND goal_id = ?", userID, g.ID).Delete(&WeekState{}).Error; err != nil {
			return err
		}
		if err := tx.Where("user_id = ? AND goal_id = ?", userID, g.ID).Delete(&Log{}).Error; err != nil {
			return err
		}
		if err := cancelDueReminders(tx, userID, g.ID); err != nil {
			return err
		}
		return tx.Delete(&g).Error
	})
}

type StateInput struct {
	GoalID     uuid.UUID
	Year       int
	Quarter    int
	WeekNumber int

	IsStarred *bool
	IsPinned  *bool
	// Daily placement, depth-2 goals only.
	DayOfWeek    *int
	ScheduledFor *time.Time
}

// SetWeekState upserts one (goal, week) state row. An upsert rather than an
// update keeps later weeks reachable for weekly/daily goals, which only get
// their creation week's row at insert time.
func (s *Service) SetWeekState(ctx context.Context, userID uint64, in StateInput) (*WeekState, error) {
	var st WeekState
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var g Goal
		if err := tx.Where("user_id = ? AND id = ?", userID, in.GoalID).First(&g).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}
		if g.IsAdhoc {
			return fmt.Errorf("%w: adhoc goals have no week state", ErrInvalidGoal)
		}
		if g.Year != in.Year || g.Quarter != in.Quarter {
			return fmt.Errorf("%w: goal belongs to Q%d %d", ErrInvalidGoal, g.Quarter, g.Year)
		}
		if (in.DayOfWeek != nil || in.ScheduledFor != nil) && g.Depth != DepthDaily {
			return fmt.Errorf("%w: daily placement requires a daily goal", ErrInvalidGoal)
		}
		if in.DayOfWeek != nil && (*in.DayOfWeek < 0 || *in.DayOfWeek > 6) {
			return fmt.Errorf("%w: day of week %d out of range", ErrInvalidGoal, *in.DayOfWeek)
		}
		wr, err := QuarterWeekRange(in.Year, in.Quarter)
		if err != nil {
			return err
		}
		if in.WeekNumber < wr.StartWeek || in.WeekNumber > wr.EndWeek {
			return fmt.Errorf("%w: week %d outside quarter range %d-%d",
				ErrInvalidGoal, in.WeekNumber, wr.StartWeek, wr.EndWeek)
		}

		// Placing a goal into a week its ancestors never reached would
		// leave that week's tree with an orphan. Backfill their rows first.
		if err := ensureAncestorStates(tx, &g, userID, in.Year, in.Quarter, in.WeekNumber); err != nil {
			return err
		}

		err = tx.Where("user_id = ? AND year = ? AND quarter = ? AND week_number = ? AND goal_id = ?",
			userID, in.Year, in.Quarter, in.WeekNumber, in.GoalID).First(&st).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			st = WeekState{
				UserID:     userID,
				Year:       in.Year,
				Quarter:    in.Quarter,
				WeekNumber: in.WeekNumber,
				GoalID:     in.GoalID,
			}
		} else if err != nil {
			return err
		}

		if in.IsStarred != nil {
			st.IsStarred = *in.IsStarred
		}
		if in.IsPinned != nil {
			st.IsPinned = *in.IsPinned
		}
		if in.DayOfWeek != nil {
			st.DayOfWeek = in.DayOfWeek
		}
		if in.ScheduledFor != nil {
			st.ScheduledFor = in.ScheduledFor
		}
		return tx.Save(&st).Error
	})
	if err != nil {
		return nil, err
	}
	return &st, nil
}

// ensureAncestorStates inserts missing week-state rows for a goal's parent
// chain in (year, quarter, week), so the week's tree build always finds the
// full quarterly/weekly path above the goal.
func ensureAncestorStates(tx *gorm.DB, g *Goal, userID uint64, year, quarter, week int) error {
	parentID := g.ParentID
	for parentID != nil {
		var parent Goal
		if err := tx.Where("user_id = ? AND id = ?", userID, *parentID).First(&parent).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: goal %s references missing parent %s",
					ErrOrphanGoal, g.ID, *parentID)
			}
			return err
		}
		var count int64
		if err := tx.Model(&WeekState{}).
			Where("user_id = ? AND year = ? AND quarter = ? AND week_number = ? AND goal_id = ?",
				userID, year, quarter, week, parent.ID).
			Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			st := WeekState{
				UserID:     userID,
				Year:       year,
				Quarter:    quarter,
				WeekNumber: week,
				GoalID:     parent.ID,
			}
			if err := tx.Create(&st).Error; err != nil {
				return err
			}
		}
		parentID = parent.ParentID
	}
	return nil
}

// AddLog appends a progress note to a goal the user owns.
func (s *Service) AddLog(ctx context.Context, userID uint64, goalID uuid.UUID, content string) (*Log, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, fmt.Errorf("%w: log content required", ErrInvalidGoal)
	}
	var l Log
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var g Goal
		if err := tx.Where("user_id = ? AND id = ?", userID, goalID).First(&g).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}
		l = Log{GoalID: goalID, UserID: userID, Content: content}
		return tx.Create(&l).Error
	})
	if err != nil {
		return nil, err
	}
	return &l, nil
}

// ListLogs returns a goal's progress notes, newest first.
func (s *Service) ListLogs(ctx context.Context, userID uint64, goalID uuid.UUID) ([]Log, error) {
	var g Goal
	err := s.DB.WithContext(ctx).Where("user_id = ? AND id = ?", userID, goalID).First(&g).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	var rows []Log
	err = s.DB.WithContext(ctx).
		Where("user_id = ? AND goal_id = ?", userID, goalID).
		Order("created_at desc").
		Find(&rows).Error
	return rows, err
}

// CreateDomain adds an adhoc tag bucket for the user.
func (s *Service) CreateDomain(ctx context.Context, userID uint64, name string) (*Domain, error) {
	name = strings.TrimSpace(name)
	if name == "" || name == DomainUncategorized {
		return nil, fmt.Errorf("%w: invalid domain name %q", ErrInvalidGoal, name)
	}
	d := Domain{UserID: userID, Name: name}
	if err := s.DB.WithContext(ctx).Create(&d).Error; err != nil {
		return nil, err
	}
	return &d, nil
}

// ListDomains returns the user's domains, name-ordered.
func (s *Service) ListDomains(ctx context.Context, userID uint64) ([]Domain, error) {
	var rows []Domain
	err := s.DB.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("name asc").
		Find(&rows).Error
	return rows, err
}

func enqueueDueReminder(tx *gorm.DB, userID uint64, goalID uuid.UUID, runAt time.Time) error {
	payload, _ := json.Marshal(map[string]any{"goal_id": goalID.String()})
	ref := goalID.String()
	j := jobs.Job{
		UserID:  userID,
		Type:    jobs.TypeDueReminder,
		Payload: payload,
		RefID:   &ref,
		RunAt:   runAt,
		Status:  jobs.StatusPending,
	}
	return tx.Create(&j).Error
}

// cancelDueReminders drops pending reminder jobs for one goal so a due-date
// change never double-fires.
func cancelDueReminders(tx *gorm.DB, userID uint64, goalID uuid.UUID) error {
	return tx.Where("user_id = ? AND type = ? AND status = ? AND ref_id = ?",
		userID, jobs.TypeDueReminder, jobs.StatusPending, goalID.String()).
		Delete(&jobs.Job{}).Error
}
