package goal

import "errors"

var (
	// ErrNotFound covers both missing rows and rows owned by another user;
	// ownership is enforced by user_id filters so existence never leaks.
	ErrNotFound = errors.New("goal not found")

	// ErrNotQuarterly is returned when a summary is requested for a goal
	// that is not a depth-0 hierarchy goal.
	ErrNotQuarterly = errors.New("goal is not a quarterly goal")

	// ErrHasChildren guards deletion of goals that still have children.
	ErrHasChildren = errors.New("goal has children")

	// ErrOrphanGoal signals structural corruption: a depth-1/2 goal whose
	// parent is absent from the week's result set. Fatal, never retried.
	ErrOrphanGoal = errors.New("orphaned goal")

	// ErrInvalidGoal covers bad creation input: depth/path mismatch,
	// missing parent, out-of-range quarter or week.
	ErrInvalidGoal = errors.New("invalid goal")
)
