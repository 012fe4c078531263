package domain

import "time"

// MetricKind selects how samples are collected. Immutable after creation.
type MetricKind string

const (
	MetricCounter MetricKind = "COUNTER"
	MetricGauge   MetricKind = "GAUGE"
)

func (k MetricKind) Valid() bool {
	return k == MetricCounter || k == MetricGauge
}

// Metric is a counter or gauge owned by exactly one goal. Samples live in the
// paired CollectedMetric inside the Schedule aggregate.
type Metric struct {
	ID        int64      `json:"id"`
	GoalID    int64      `json:"goal_id"`
	Title     string     `json:"title"`
	Kind      MetricKind `json:"kind"`
	Archived  bool       `json:"archived"`
	CreatedAt time.Time  `json:"created_at"`
}

// MetricCreate carries the createMetric request fields.
type MetricCreate struct {
	Title  string     `json:"title"`
	GoalID *int64     `json:"goal_id,omitempty"`
	Kind   MetricKind `json:"kind"`
}

// MetricUpdate carries the optional updateMetric fields. The kind is
// deliberately absent: it is fixed at creation.
type MetricUpdate struct {
	ID    int64   `json:"id"`
	Title *string `json:"title,omitempty"`
}

// LeafMove reparents or reorders a metric/task within the goal tree's leaf
// order arrays. At least one of GoalID and Position must be present.
type LeafMove struct {
	ID       int64  `json:"id"`
	GoalID   *int64 `json:"goal_id,omitempty"`
	Position *int   `json:"position,omitempty"`
}

// CreateMetric adds a metric to the requested goal, defaulting to the inbox.
func (p *Plan) CreateMetric(req MetricCreate, now time.Time) (*Metric, error) {
	if req.Title == "" {
		return nil, Invalid("metric title must not be empty")
	}
	if !req.Kind.Valid() {
		return nil, Invalid("invalid metric kind %q", req.Kind)
	}
	goalID := p.InboxGoalID
	if req.GoalID != nil {
		goalID = *req.GoalID
	}
	goal, err := p.goalByID(goalID, false)
	if err != nil {
		return nil, err
	}

	m := &Metric{
		ID:        p.NextID(),
		GoalID:    goal.ID,
		Title:     req.Title,
		Kind:      req.Kind,
		CreatedAt: now,
	}
	p.addMetric(m)
	goal.MetricOrder = append(goal.MetricOrder, m.ID)
	return m, nil
}

// UpdateMetric applies a partial metric update.
func (p *Plan) UpdateMetric(upd MetricUpdate) (*Metric, error) {
	m, err := p.metricByID(upd.ID, false)
	if err != nil {
		return nil, err
	}
	if upd.Title == nil {
		return nil, Invalid("metric update carries no fields")
	}
	if *upd.Title == "" {
		return nil, Invalid("metric title must not be empty")
	}
	m.Title = *upd.Title
	return m, nil
}

// MoveMetric reparents the metric to another goal and/or repositions it.
func (p *Plan) MoveMetric(req LeafMove) (*Metric, error) {
	m, err := p.metricByID(req.ID, false)
	if err != nil {
		return nil, err
	}
	owner, err := p.goalByID(m.GoalID, true)
	if err != nil {
		return nil, Integrity("metric %d owner goal %d missing", m.ID, m.GoalID)
	}
	target, err := moveLeaf(p, req, m.ID, owner, func(g *Goal) *[]int64 { return &g.MetricOrder })
	if err != nil {
		return nil, err
	}
	if target != nil {
		m.GoalID = target.ID
	}
	return m, nil
}

// ArchiveMetric flags the metric archived and drops it from its goal's order.
func (p *Plan) ArchiveMetric(id int64) (*Metric, error) {
	m, ok := p.metricIndex[id]
	if !ok {
		return nil, ErrMetricNotFound
	}
	if m.Archived {
		return nil, Invalid("metric %d is already archived", id)
	}
	m.Archived = true
	if goal, ok := p.goalIndex[m.GoalID]; ok {
		goal.MetricOrder, _ = removeID(goal.MetricOrder, m.ID)
	}
	return m, nil
}

// moveLeaf implements the shared metric/task move: validate, remove from the
// old order list, insert into the target. It returns the target goal when the
// move reparented (nil for a pure reorder) so the caller can update the
// back-reference. Validation happens before any structural change.
func moveLeaf(p *Plan, req LeafMove, id int64, owner *Goal, order func(*Goal) *[]int64) (*Goal, error) {
	if req.GoalID == nil && req.Position == nil {
		return nil, Invalid("move request carries no destination")
	}

	target := owner
	reparent := false
	if req.GoalID != nil && *req.GoalID != owner.ID {
		var err error
		target, err = p.goalByID(*req.GoalID, false)
		if err != nil {
			return nil, err
		}
		reparent = true
	}

	targetOrder := order(target)
	targetLen := len(*targetOrder)
	if !reparent {
		targetLen--
	}
	pos := targetLen + 1
	if req.Position != nil {
		pos = *req.Position
		if pos < 1 || pos > targetLen+1 {
			return nil, Invalid("position %d out of range 1..%d", pos, targetLen+1)
		}
	}

	ownerOrder := order(owner)
	*ownerOrder, _ = removeID(*ownerOrder, id)
	inserted, err := insertAt(*targetOrder, id, pos)
	if err != nil {
		return nil, err
	}
	*targetOrder = inserted

	if reparent {
		return target, nil
	}
	return nil, nil
}
