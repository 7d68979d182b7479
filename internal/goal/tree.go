package goal

import (
	"fmt"

	"github.com/google/uuid"
)

// AttachFunc enriches a freshly-wrapped node before it is placed in the
// tree, typically injecting the week's state record.
type AttachFunc func(*TreeNode)

// BuildTree reconstructs the quarterly → weekly → daily forest from a flat
// set of goals belonging to one (user, year, quarter, week). It returns the
// depth-0 roots plus an index of every constructed node keyed by goal ID.
//
// A depth-1/2 goal whose parent is absent from the input is corrupted
// state, not a benign empty-week case, and fails the build with
// ErrOrphanGoal. A missing parent during the ancestry (title) pass is
// tolerated only because the structural pass behind it will fail anyway;
// titles are best-effort annotations.
func BuildTree(goals []Goal, attach AttachFunc) ([]*TreeNode, map[uuid.UUID]*TreeNode, error) {
	index := make(map[uuid.UUID]*TreeNode, len(goals))

	// Index pass: wrap every goal and let the caller attach week state.
	for i := range goals {
		g := goals[i]
		node := &TreeNode{
			Goal:     g,
			Path:     g.ChildPath(),
			Children: []*TreeNode{},
		}
		if attach != nil {
			attach(node)
		}
		index[g.ID] = node
	}

	// Ancestry pass: denormalized parent/grandparent titles.
	for _, node := range index {
		if node.ParentID == nil {
			continue
		}
		parent, ok := index[*node.ParentID]
		if !ok {
			continue
		}
		node.ParentTitle = parent.Title
		if parent.ParentID != nil {
			if grand, ok := index[*parent.ParentID]; ok {
				node.GrandParentTitle = grand.Title
			}
		}
	}

	// Structural pass: attach children to parents, roots to the forest.
	var roots []*TreeNode
	for i := range goals {
		node := index[goals[i].ID]
		switch node.Depth {
		case DepthQuarterly:
			roots = append(roots, node)
		case DepthWeekly, DepthDaily:
			if node.ParentID == nil {
				return nil, nil, fmt.Errorf("%w: goal %s at depth %d has no parent id",
					ErrOrphanGoal, node.ID, node.Depth)
			}
			parent, ok := index[*node.ParentID]
			if !ok {
				return nil, nil, fmt.Errorf("%w: goal %s at depth %d references missing parent %s",
					ErrOrphanGoal, node.ID, node.Depth, *node.ParentID)
			}
			parent.Children = append(parent.Children, node)
		default:
			return nil, nil, fmt.Errorf("%w: goal %s has unknown depth %d",
				ErrInvalidGoal, node.ID, node.Depth)
		}
	}

	return roots, index, nil
}
