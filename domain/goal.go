package domain

import "time"

// Goal is a node of the plan tree. Child goals, metrics, and tasks hang off
// it through explicit order arrays kept in lock-step with membership.
type Goal struct {
	ID           int64      `json:"id"`
	ParentID     *int64     `json:"parent_id,omitempty"`
	IsSystem     bool       `json:"is_system"`
	Title        string     `json:"title"`
	Description  string     `json:"description,omitempty"`
	Range        GoalRange  `json:"range"`
	Deadline     *time.Time `json:"deadline,omitempty"`
	SubGoalOrder []int64    `json:"subgoal_order"`
	MetricOrder  []int64    `json:"metric_order"`
	TaskOrder    []int64    `json:"task_order"`
	Suspended    bool       `json:"suspended"`
	Done         bool       `json:"done"`
	Archived     bool       `json:"archived"`
	CreatedAt    time.Time  `json:"created_at"`
}

// GoalCreate carries the createGoal request fields.
type GoalCreate struct {
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	ParentID    *int64    `json:"parent_id,omitempty"`
	Range       GoalRange `json:"range,omitempty"`
}

// GoalUpdate carries the optional updateGoal fields; only fields present apply.
type GoalUpdate struct {
	ID          int64      `json:"id"`
	Title       *string    `json:"title,omitempty"`
	Description *string    `json:"description,omitempty"`
	Range       *GoalRange `json:"range,omitempty"`
	Suspended   *bool      `json:"suspended,omitempty"`
}

// CreateGoal adds a goal under the requested parent, defaulting to the inbox.
// The child's range is clamped to its parent's and the deadline derived from
// the clamp instant.
func (p *Plan) CreateGoal(req GoalCreate, now time.Time) (*Goal, error) {
	if req.Title == "" {
		return nil, Invalid("goal title must not be empty")
	}
	parentID := p.InboxGoalID
	if req.ParentID != nil {
		parentID = *req.ParentID
	}
	parent, err := p.goalByID(parentID, false)
	if err != nil {
		return nil, err
	}

	rng := req.Range
	if rng == "" {
		rng = parent.Range
	}
	if !rng.Valid() {
		return nil, Invalid("invalid goal range %q", rng)
	}
	rng = NarrowRange(rng, parent.Range)

	g := &Goal{
		ID:          p.NextID(),
		ParentID:    &parent.ID,
		Title:       req.Title,
		Description: req.Description,
		Range:       rng,
		Deadline:    RangeDeadline(rng, now),
		CreatedAt:   now,
	}
	p.addGoal(g)
	parent.SubGoalOrder = append(parent.SubGoalOrder, g.ID)
	return g, nil
}

// UpdateGoal applies a partial goal update. System goals are immutable.
func (p *Plan) UpdateGoal(upd GoalUpdate, now time.Time) (*Goal, error) {
	g, err := p.goalByID(upd.ID, false)
	if err != nil {
		return nil, err
	}
	if g.IsSystem {
		return nil, Invalid("system goal %d cannot be updated", g.ID)
	}
	if upd.Title == nil && upd.Description == nil && upd.Range == nil && upd.Suspended == nil {
		return nil, Invalid("goal update carries no fields")
	}
	if upd.Range != nil && !upd.Range.Valid() {
		return nil, Invalid("invalid goal range %q", *upd.Range)
	}
	if upd.Suspended != nil && *upd.Suspended == g.Suspended {
		if g.Suspended {
			return nil, Invalid("goal %d is already suspended", g.ID)
		}
		return nil, Invalid("goal %d is not suspended", g.ID)
	}

	if upd.Title != nil {
		if *upd.Title == "" {
			return nil, Invalid("goal title must not be empty")
		}
		g.Title = *upd.Title
	}
	if upd.Description != nil {
		g.Description = *upd.Description
	}
	if upd.Range != nil {
		rng := *upd.Range
		if g.ParentID != nil {
			parent, err := p.goalByID(*g.ParentID, true)
			if err != nil {
				return nil, Integrity("goal %d parent %d missing", g.ID, *g.ParentID)
			}
			rng = NarrowRange(rng, parent.Range)
		}
		g.Range = rng
		g.Deadline = RangeDeadline(rng, now)
		p.clampSubtree(g, now)
	}
	if upd.Suspended != nil {
		g.Suspended = *upd.Suspended
	}
	return g, nil
}

// MarkGoalDone flags the goal done and drops it from its parent's order
// array. Membership and history stay addressable by id.
func (p *Plan) MarkGoalDone(id int64) (*Goal, error) {
	g, err := p.goalByID(id, false)
	if err != nil {
		return nil, err
	}
	if g.IsSystem {
		return nil, Invalid("system goal %d cannot be marked done", g.ID)
	}
	g.Done = true
	p.dropGoalFromOrder(g)
	return g, nil
}

// ArchiveGoal flags the goal archived and drops it from its parent's order
// array. Archiving an already-done goal is allowed; re-archiving is not.
func (p *Plan) ArchiveGoal(id int64) (*Goal, error) {
	g, ok := p.goalIndex[id]
	if !ok {
		return nil, ErrGoalNotFound
	}
	if g.IsSystem {
		return nil, Invalid("system goal %d cannot be archived", g.ID)
	}
	if g.Archived {
		return nil, Invalid("goal %d is already archived", g.ID)
	}
	g.Archived = true
	p.dropGoalFromOrder(g)
	return g, nil
}

// clampSubtree pushes a range change down the live subtree so no descendant
// stays broader than its parent. Deadlines are recomputed where the clamp
// bites; goals already narrow enough are left alone.
func (p *Plan) clampSubtree(g *Goal, now time.Time) {
	for _, id := range g.SubGoalOrder {
		child, ok := p.goalIndex[id]
		if !ok {
			continue
		}
		if narrowed := NarrowRange(child.Range, g.Range); narrowed != child.Range {
			child.Range = narrowed
			child.Deadline = RangeDeadline(narrowed, now)
		}
		p.clampSubtree(child, now)
	}
}

func (p *Plan) dropGoalFromOrder(g *Goal) {
	if g.ParentID == nil {
		p.GoalOrder, _ = removeID(p.GoalOrder, g.ID)
		return
	}
	if parent, ok := p.goalIndex[*g.ParentID]; ok {
		parent.SubGoalOrder, _ = removeID(parent.SubGoalOrder, g.ID)
	}
}
