package goal

import (
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func quarterlyGoal(title string) Goal {
	return Goal{ID: uuid.New(), Title: title, Year: 2024, Quarter: 1, Depth: DepthQuarterly, InPath: "/"}
}

func childGoal(title string, parent Goal, depth Depth) Goal {
	id := parent.ID
	return Goal{
		ID:       uuid.New(),
		Title:    title,
		Year:     2024,
		Quarter:  1,
		Depth:    depth,
		ParentID: &id,
		InPath:   parent.ChildPath(),
	}
}

func TestBuildTree_ThreeLevels(t *testing.T) {
	q := quarterlyGoal("Ship v1")
	w := childGoal("Build API", q, DepthWeekly)
	d1 := childGoal("Write handlers", w, DepthDaily)
	d2 := childGoal("Write tests", w, DepthDaily)

	attached := 0
	roots, index, err := BuildTree([]Goal{q, w, d1, d2}, func(n *TreeNode) {
		attached++
	})
	require.NoError(t, err)
	require.Equal(t, 4, attached, "attach must run once per goal")
	require.Len(t, roots, 1)
	require.Len(t, index, 4)

	root := roots[0]
	require.Equal(t, q.ID, root.Goal.ID)
	require.Len(t, root.Children, 1)

	weekly := root.Children[0]
	require.Equal(t, w.ID, weekly.Goal.ID)
	require.Equal(t, "Ship v1", weekly.ParentTitle)
	require.Len(t, weekly.Children, 2)

	daily := weekly.Children[0]
	require.Equal(t, "Build API", daily.ParentTitle)
	require.Equal(t, "Ship v1", daily.GrandParentTitle)
	require.Equal(t, "/"+q.ID.String()+"/"+w.ID.String()+"/"+d1.ID.String(), daily.Path)
}

func TestBuildTree_AttachInjectsState(t *testing.T) {
	q := quarterlyGoal("Ship v1")
	st := &WeekState{GoalID: q.ID, WeekNumber: 3, IsStarred: true}

	roots, _, err := BuildTree([]Goal{q}, func(n *TreeNode) {
		n.State = st
	})
	require.NoError(t, err)
	require.NotNil(t, roots[0].State)
	require.True(t, roots[0].State.IsStarred)
}

func TestBuildTree_OrphanWeeklyFails(t *testing.T) {
	q := quarterlyGoal("Ship v1")
	w := childGoal("Build API", q, DepthWeekly)

	// Parent absent from the supplied set: corrupted state, never dropped.
	_, _, err := BuildTree([]Goal{w}, nil)
	require.Error(t, err)
	require.True(t, errors.Is(err, ErrOrphanGoal))
	require.Contains(t, err.Error(), w.ID.String())
}

func TestBuildTree_MissingParentIDFails(t *testing.T) {
	w := Goal{ID: uuid.New(), Title: "stray", Depth: DepthWeekly, InPath: "/"}

	_, _, err := BuildTree([]Goal{w}, nil)
	require.True(t, errors.Is(err, ErrOrphanGoal))
}

func TestBuildTree_NeverSilentlyDrops(t *testing.T) {
	q := quarterlyGoal("A")
	w1 := childGoal("w1", q, DepthWeekly)
	w2 := childGoal("w2", q, DepthWeekly)
	d := childGoal("d", w1, DepthDaily)

	roots, index, err := BuildTree([]Goal{q, w1, w2, d}, nil)
	require.NoError(t, err)

	placed := 0
	var walk func(n *TreeNode)
	walk = func(n *TreeNode) {
		placed++
		for _, c := range n.Children {
			walk(c)
		}
	}
	for _, r := range roots {
		walk(r)
	}
	require.Equal(t, len(index), placed, "every indexed goal must be reachable from a root")
}
