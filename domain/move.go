package domain

import "time"

// MoveRequest reshapes the tree: any non-empty combination of moving to the
// top level, assigning a new parent, and a 1-based target position.
type MoveRequest struct {
	ID          int64  `json:"id"`
	ToTop       bool   `json:"to_top,omitempty"`
	NewParentID *int64 `json:"new_parent_id,omitempty"`
	Position    *int   `json:"position,omitempty"`
}

// moveKind is the exhaustive classification of a move request. Every request
// maps to exactly one kind or is rejected.
type moveKind int

const (
	moveReparentToTop moveKind = iota
	moveReparentToTopAt
	moveAlreadyTop
	moveReparentToChild
	moveTopToChild
	moveReorder
)

// classifyMove validates the shape of the request against the node's current
// placement. Requesting both the top level and a new parent is contradictory;
// requesting neither destination nor position says nothing.
func classifyMove(req MoveRequest, atTop bool, currentParent *int64) (moveKind, error) {
	if req.ToTop && req.NewParentID != nil {
		return 0, Invalid("cannot both move to top level and assign a new parent")
	}
	if !req.ToTop && req.NewParentID == nil && req.Position == nil {
		return 0, Invalid("move request carries no destination")
	}
	if req.ToTop {
		switch {
		case !atTop && req.Position == nil:
			return moveReparentToTop, nil
		case !atTop:
			return moveReparentToTopAt, nil
		case req.Position == nil:
			return moveAlreadyTop, nil
		default:
			return moveReorder, nil
		}
	}
	if req.NewParentID != nil {
		if currentParent != nil && *currentParent == *req.NewParentID {
			return moveReorder, nil
		}
		if atTop {
			return moveTopToChild, nil
		}
		return moveReparentToChild, nil
	}
	return moveReorder, nil
}

// MoveGoal reparents and/or reorders a goal. Before any structural change it
// walks the new parent's ancestor chain and rejects the move if the goal
// itself appears there.
func (p *Plan) MoveGoal(req MoveRequest, now time.Time) (*Goal, error) {
	g, err := p.goalByID(req.ID, false)
	if err != nil {
		return nil, err
	}
	if g.IsSystem {
		return nil, Invalid("system goal %d cannot be moved", g.ID)
	}

	atTop := g.ParentID == nil
	kind, err := classifyMove(req, atTop, g.ParentID)
	if err != nil {
		return nil, err
	}
	if kind == moveAlreadyTop {
		return g, nil
	}

	src := &p.GoalOrder
	if g.ParentID != nil {
		parent, ok := p.goalIndex[*g.ParentID]
		if !ok {
			return nil, Integrity("goal %d parent %d missing", g.ID, *g.ParentID)
		}
		src = &parent.SubGoalOrder
	}

	var dst *[]int64
	var newParent *Goal
	switch kind {
	case moveReparentToTop, moveReparentToTopAt:
		dst = &p.GoalOrder
	case moveReorder:
		dst = src
		if g.ParentID != nil {
			newParent = p.goalIndex[*g.ParentID]
		}
	case moveTopToChild, moveReparentToChild:
		newParent, err = p.goalByID(*req.NewParentID, false)
		if err != nil {
			return nil, err
		}
		cycle, err := p.goalChainContains(newParent.ID, g.ID)
		if err != nil {
			return nil, err
		}
		if cycle {
			return nil, Invalid("moving goal %d under goal %d would create a cycle", g.ID, newParent.ID)
		}
		dst = &newParent.SubGoalOrder
	}

	targetLen := len(*dst)
	if dst == src {
		targetLen--
	}
	pos := targetLen + 1
	if req.Position != nil {
		pos = *req.Position
		if pos < 1 || pos > targetLen+1 {
			return nil, Invalid("position %d out of range 1..%d", pos, targetLen+1)
		}
	}

	*src, _ = removeID(*src, g.ID)
	inserted, err := insertAt(*dst, g.ID, pos)
	if err != nil {
		return nil, err
	}
	*dst = inserted

	if newParent == nil {
		g.ParentID = nil
	} else if kind != moveReorder {
		g.ParentID = &newParent.ID
		if narrowed := NarrowRange(g.Range, newParent.Range); narrowed != g.Range {
			g.Range = narrowed
			g.Deadline = RangeDeadline(narrowed, now)
			p.clampSubtree(g, now)
		}
	}
	return g, nil
}

// goalChainContains follows parent links from startID to the root, reporting
// whether needle occurs. A chain longer than the goal count means the links
// themselves are corrupt.
func (p *Plan) goalChainContains(startID, needle int64) (bool, error) {
	cur := &startID
	for hops := 0; cur != nil; hops++ {
		if hops > len(p.Goals) {
			return false, Integrity("goal parent chain from %d does not terminate", startID)
		}
		if *cur == needle {
			return true, nil
		}
		g, ok := p.goalIndex[*cur]
		if !ok {
			return false, Integrity("goal parent chain references missing goal %d", *cur)
		}
		cur = g.ParentID
	}
	return false, nil
}

// MoveSubTask applies the same move semantics one level down: "top level"
// means directly under the owning task.
func (p *Plan) MoveSubTask(req MoveRequest) (*SubTask, error) {
	s, err := p.subTaskByID(req.ID, false)
	if err != nil {
		return nil, err
	}
	t, ok := p.taskIndex[s.TaskID]
	if !ok {
		return nil, Integrity("subtask %d owner task %d missing", s.ID, s.TaskID)
	}

	atTop := s.ParentID == nil
	kind, err := classifyMove(req, atTop, s.ParentID)
	if err != nil {
		return nil, err
	}
	if kind == moveAlreadyTop {
		return s, nil
	}

	src := &t.SubTaskOrder
	if s.ParentID != nil {
		parent, ok := p.subTaskIndex[*s.ParentID]
		if !ok {
			return nil, Integrity("subtask %d parent %d missing", s.ID, *s.ParentID)
		}
		src = &parent.ChildOrder
	}

	var dst *[]int64
	var newParent *SubTask
	switch kind {
	case moveReparentToTop, moveReparentToTopAt:
		dst = &t.SubTaskOrder
	case moveReorder:
		dst = src
		if s.ParentID != nil {
			newParent = p.subTaskIndex[*s.ParentID]
		}
	case moveTopToChild, moveReparentToChild:
		newParent, err = p.subTaskByID(*req.NewParentID, false)
		if err != nil {
			return nil, err
		}
		if newParent.TaskID != s.TaskID {
			return nil, Invalid("subtask %d belongs to task %d, not task %d", newParent.ID, newParent.TaskID, s.TaskID)
		}
		cycle, err := p.subTaskChainContains(newParent.ID, s.ID)
		if err != nil {
			return nil, err
		}
		if cycle {
			return nil, Invalid("moving subtask %d under subtask %d would create a cycle", s.ID, newParent.ID)
		}
		dst = &newParent.ChildOrder
	}

	targetLen := len(*dst)
	if dst == src {
		targetLen--
	}
	pos := targetLen + 1
	if req.Position != nil {
		pos = *req.Position
		if pos < 1 || pos > targetLen+1 {
			return nil, Invalid("position %d out of range 1..%d", pos, targetLen+1)
		}
	}

	*src, _ = removeID(*src, s.ID)
	inserted, err := insertAt(*dst, s.ID, pos)
	if err != nil {
		return nil, err
	}
	*dst = inserted

	if newParent == nil {
		s.ParentID = nil
	} else if kind != moveReorder {
		s.ParentID = &newParent.ID
	}
	return s, nil
}

func (p *Plan) subTaskChainContains(startID, needle int64) (bool, error) {
	cur := &startID
	for hops := 0; cur != nil; hops++ {
		if hops > len(p.SubTasks) {
			return false, Integrity("subtask parent chain from %d does not terminate", startID)
		}
		if *cur == needle {
			return true, nil
		}
		s, ok := p.subTaskIndex[*cur]
		if !ok {
			return false, Integrity("subtask parent chain references missing subtask %d", *cur)
		}
		cur = s.ParentID
	}
	return false, nil
}
