package goal

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Store is the read-side snapshot access used by the tree builder and the
// quarter aggregator. Every query is scoped by user_id.
type Store struct {
	DB *gorm.DB
}

// StatesForWeek returns the per-week state rows for one (user, year,
// quarter, week). Indexed lookup on the composite unique index.
func (s *Store) StatesForWeek(ctx context.Context, userID uint64, year, quarter, week int) ([]WeekState, error) {
	var rows []WeekState
	err := s.DB.WithContext(ctx).
		Where("user_id = ? AND year = ? AND quarter = ? AND week_number = ?", userID, year, quarter, week).
		Order("created_at asc").
		Find(&rows).Error
	return rows, err
}

// GoalsByIDs batch-fetches the user's goals, silently omitting IDs that no
// longer resolve.
func (s *Store) GoalsByIDs(ctx context.Context, userID uint64, ids []uuid.UUID) ([]Goal, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var rows []Goal
	err := s.DB.WithContext(ctx).
		Where("user_id = ? AND id IN ?", userID, ids).
		Order("created_at asc").
		Find(&rows).Error
	return rows, err
}

// GoalByID returns the user's goal or nil when it does not exist (or
// belongs to someone else).
func (s *Store) GoalByID(ctx context.Context, userID uint64, id uuid.UUID) (*Goal, error) {
	var g Goal
	err := s.DB.WithContext(ctx).
		Where("user_id = ? AND id = ?", userID, id).
		First(&g).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &g, nil
}

// AdhocGoalsForWeek returns the user's adhoc goals for (year, week),
// optionally filtered to a set of domain IDs. The DomainUncategorized
// sentinel selects goals with no domain.
func (s *Store) AdhocGoalsForWeek(ctx context.Context, userID uint64, year, week int, domainFilter []string) ([]Goal, error) {
	q := s.DB.WithContext(ctx).
		Where("user_id = ? AND is_adhoc = ? AND year = ? AND week_number = ?", userID, true, year, week)

	if len(domainFilter) > 0 {
		var ids []uuid.UUID
		uncategorized := false
		for _, d := range domainFilter {
			if d == DomainUncategorized {
				uncategorized = true
				continue
			}
			id, err := uuid.Parse(d)
			if err != nil {
				continue // unknown filter values select nothing
			}
			ids = append(ids, id)
		}
		switch {
		case len(ids) > 0 && uncategorized:
			q = q.Where("domain_id IN ? OR domain_id IS NULL", ids)
		case len(ids) > 0:
			q = q.Where("domain_id IN ?", ids)
		case uncategorized:
			q = q.Where("domain_id IS NULL")
		default:
			return nil, nil
		}
	}

	var rows []Goal
	err := q.Order("created_at asc").Find(&rows).Error
	return rows, err
}

// LogsByGoalIDs batch-fetches progress logs for a set of goals, keyed by
// goal ID, newest first.
func (s *Store) LogsByGoalIDs(ctx context.Context, userID uint64, ids []uuid.UUID) (map[uuid.UUID][]Log, error) {
	if len(ids) == 0 {
		return map[uuid.UUID][]Log{}, nil
	}
	var rows []Log
	err := s.DB.WithContext(ctx).
		Where("user_id = ? AND goal_id IN ?", userID, ids).
		Order("created_at desc").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	out := make(map[uuid.UUID][]Log, len(ids))
	for _, l := range rows {
		out[l.GoalID] = append(out[l.GoalID], l)
	}
	return out, nil
}

// TreeForWeek fetches one week's state rows plus their goals and assembles
// the forest. Goals without a state row for the week are absent by design.
func (s *Store) TreeForWeek(ctx context.Context, userID uint64, year, quarter, week int) ([]*TreeNode, map[uuid.UUID]*TreeNode, error) {
	states, err := s.StatesForWeek(ctx, userID, year, quarter, week)
	if err != nil {
		return nil, nil, err
	}
	if len(states) == 0 {
		return nil, map[uuid.UUID]*TreeNode{}, nil
	}

	byGoal := make(map[uuid.UUID]*WeekState, len(states))
	ids := make([]uuid.UUID, 0, len(states))
	for i := range states {
		st := states[i]
		byGoal[st.GoalID] = &st
		ids = append(ids, st.GoalID)
	}

	goals, err := s.GoalsByIDs(ctx, userID, ids)
	if err != nil {
		return nil, nil, err
	}

	return BuildTree(goals, func(n *TreeNode) {
		n.State = byGoal[n.Goal.ID]
	})
}
