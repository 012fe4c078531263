package domain

import (
	"time"

	"github.com/google/uuid"
)

// Plan is the root aggregate holding a user's full goal tree. Entities are
// stored flat, addressed by int64 ids allocated from IDSerial; the by-id
// indices are derived and rebuilt after every load.
type Plan struct {
	ID          string    `json:"id"`
	UserID      string    `json:"user_id"`
	Version     Version   `json:"version"`
	InboxGoalID int64     `json:"inbox_goal_id"`
	GoalOrder   []int64   `json:"goal_order"`
	Suspended   bool      `json:"suspended"`
	IDSerial    int64     `json:"id_serial"`
	Goals       []*Goal   `json:"goals"`
	Metrics     []*Metric `json:"metrics"`
	Tasks       []*Task   `json:"tasks"`
	SubTasks    []*SubTask `json:"subtasks"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`

	goalIndex    map[int64]*Goal
	metricIndex  map[int64]*Metric
	taskIndex    map[int64]*Task
	subTaskIndex map[int64]*SubTask
}

// NewPlan seeds a plan for a brand-new user: version 1.1 with a single
// system inbox goal that can never be moved, archived, or marked done.
func NewPlan(userID string, now time.Time) *Plan {
	p := &Plan{
		ID:        uuid.NewString(),
		UserID:    userID,
		Version:   InitialVersion,
		CreatedAt: now,
		UpdatedAt: now,
	}
	p.rebuildIndices()

	inbox := &Goal{
		ID:        p.NextID(),
		IsSystem:  true,
		Title:     "Inbox",
		Range:     RangeLifetime,
		CreatedAt: now,
	}
	p.addGoal(inbox)
	p.InboxGoalID = inbox.ID
	p.GoalOrder = []int64{inbox.ID}
	return p
}

// NextID allocates an entity id. The serial is a plain aggregate field so it
// rides along in every snapshot and survives restarts.
func (p *Plan) NextID() int64 {
	p.IDSerial++
	return p.IDSerial
}

func (p *Plan) Touch(now time.Time) {
	p.UpdatedAt = now
}

func (p *Plan) rebuildIndices() {
	p.goalIndex = make(map[int64]*Goal, len(p.Goals))
	p.metricIndex = make(map[int64]*Metric, len(p.Metrics))
	p.taskIndex = make(map[int64]*Task, len(p.Tasks))
	p.subTaskIndex = make(map[int64]*SubTask, len(p.SubTasks))
	for _, g := range p.Goals {
		p.goalIndex[g.ID] = g
	}
	for _, m := range p.Metrics {
		p.metricIndex[m.ID] = m
	}
	for _, t := range p.Tasks {
		p.taskIndex[t.ID] = t
	}
	for _, s := range p.SubTasks {
		p.subTaskIndex[s.ID] = s
	}
}

// Reindex rebuilds the derived by-id indices and verifies the structural
// invariants of the tree. It must run after every load; a failure means the
// persisted document is internally inconsistent.
func (p *Plan) Reindex() error {
	p.rebuildIndices()

	inbox, ok := p.goalIndex[p.InboxGoalID]
	if !ok {
		return Integrity("plan %s: inbox goal %d missing", p.ID, p.InboxGoalID)
	}
	if !inbox.IsSystem {
		return Integrity("plan %s: inbox goal %d is not a system goal", p.ID, p.InboxGoalID)
	}
	if inbox.Archived || inbox.Done {
		return Integrity("plan %s: inbox goal %d is archived or done", p.ID, p.InboxGoalID)
	}

	if err := p.checkGoalOrders(); err != nil {
		return err
	}
	return p.checkLeafOrders()
}

func (p *Plan) checkGoalOrders() error {
	seen := make(map[int64]bool, len(p.Goals))
	check := func(list []int64, parent *int64) error {
		for _, id := range list {
			g, ok := p.goalIndex[id]
			if !ok {
				return Integrity("goal order references missing goal %d", id)
			}
			if seen[id] {
				return Integrity("goal %d appears in more than one order list", id)
			}
			seen[id] = true
			switch {
			case parent == nil && g.ParentID != nil:
				return Integrity("goal %d is in the top-level order but has parent %d", id, *g.ParentID)
			case parent != nil && (g.ParentID == nil || *g.ParentID != *parent):
				return Integrity("goal %d is in goal %d's order but does not point back", id, *parent)
			}
			if parent != nil {
				par := p.goalIndex[*parent]
				if NarrowRange(g.Range, par.Range) != g.Range {
					return Integrity("goal %d range %s is broader than parent %d range %s", id, g.Range, par.ID, par.Range)
				}
			}
		}
		return nil
	}
	if err := check(p.GoalOrder, nil); err != nil {
		return err
	}
	for _, g := range p.Goals {
		parentID := g.ID
		if err := check(g.SubGoalOrder, &parentID); err != nil {
			return err
		}
	}
	return nil
}

func (p *Plan) checkLeafOrders() error {
	metricSeen := make(map[int64]bool, len(p.Metrics))
	taskSeen := make(map[int64]bool, len(p.Tasks))
	for _, g := range p.Goals {
		for _, id := range g.MetricOrder {
			m, ok := p.metricIndex[id]
			if !ok {
				return Integrity("goal %d metric order references missing metric %d", g.ID, id)
			}
			if metricSeen[id] {
				return Integrity("metric %d appears in more than one order list", id)
			}
			metricSeen[id] = true
			if m.GoalID != g.ID {
				return Integrity("metric %d is in goal %d's order but belongs to goal %d", id, g.ID, m.GoalID)
			}
		}
		for _, id := range g.TaskOrder {
			t, ok := p.taskIndex[id]
			if !ok {
				return Integrity("goal %d task order references missing task %d", g.ID, id)
			}
			if taskSeen[id] {
				return Integrity("task %d appears in more than one order list", id)
			}
			taskSeen[id] = true
			if t.GoalID != g.ID {
				return Integrity("task %d is in goal %d's order but belongs to goal %d", id, g.ID, t.GoalID)
			}
		}
	}

	subSeen := make(map[int64]bool, len(p.SubTasks))
	checkSub := func(list []int64, taskID int64, parent *int64) error {
		for _, id := range list {
			s, ok := p.subTaskIndex[id]
			if !ok {
				return Integrity("subtask order references missing subtask %d", id)
			}
			if subSeen[id] {
				return Integrity("subtask %d appears in more than one order list", id)
			}
			subSeen[id] = true
			if s.TaskID != taskID {
				return Integrity("subtask %d is ordered under task %d but belongs to task %d", id, taskID, s.TaskID)
			}
			switch {
			case parent == nil && s.ParentID != nil:
				return Integrity("subtask %d is in the task-level order but has parent %d", id, *s.ParentID)
			case parent != nil && (s.ParentID == nil || *s.ParentID != *parent):
				return Integrity("subtask %d is in subtask %d's order but does not point back", id, *parent)
			}
		}
		return nil
	}
	for _, t := range p.Tasks {
		if err := checkSub(t.SubTaskOrder, t.ID, nil); err != nil {
			return err
		}
	}
	for _, s := range p.SubTasks {
		parentID := s.ID
		if err := checkSub(s.ChildOrder, s.TaskID, &parentID); err != nil {
			return err
		}
	}
	return nil
}

func (p *Plan) addGoal(g *Goal) {
	p.Goals = append(p.Goals, g)
	p.goalIndex[g.ID] = g
}

func (p *Plan) addMetric(m *Metric) {
	p.Metrics = append(p.Metrics, m)
	p.metricIndex[m.ID] = m
}

func (p *Plan) addTask(t *Task) {
	p.Tasks = append(p.Tasks, t)
	p.taskIndex[t.ID] = t
}

func (p *Plan) addSubTask(s *SubTask) {
	p.SubTasks = append(p.SubTasks, s)
	p.subTaskIndex[s.ID] = s
}

// goalByID resolves a goal, rejecting archived/done ones unless the caller
// explicitly opted in (read-only traversal during scheduling does).
func (p *Plan) goalByID(id int64, allowClosed bool) (*Goal, error) {
	g, ok := p.goalIndex[id]
	if !ok {
		return nil, ErrGoalNotFound
	}
	if !allowClosed && (g.Archived || g.Done) {
		return nil, Invalid("goal %d is archived or done", id)
	}
	return g, nil
}

func (p *Plan) metricByID(id int64, allowArchived bool) (*Metric, error) {
	m, ok := p.metricIndex[id]
	if !ok {
		return nil, ErrMetricNotFound
	}
	if !allowArchived && m.Archived {
		return nil, Invalid("metric %d is archived", id)
	}
	return m, nil
}

func (p *Plan) taskByID(id int64, allowArchived bool) (*Task, error) {
	t, ok := p.taskIndex[id]
	if !ok {
		return nil, ErrTaskNotFound
	}
	if !allowArchived && t.Archived {
		return nil, Invalid("task %d is archived", id)
	}
	return t, nil
}

func (p *Plan) subTaskByID(id int64, allowArchived bool) (*SubTask, error) {
	s, ok := p.subTaskIndex[id]
	if !ok {
		return nil, ErrSubTaskNotFound
	}
	if !allowArchived && s.Archived {
		return nil, Invalid("subtask %d is archived", id)
	}
	return s, nil
}

// GoalByID is the exported read-only lookup.
func (p *Plan) GoalByID(id int64) (*Goal, error) {
	return p.goalByID(id, true)
}

// TaskByID is the exported read-only lookup.
func (p *Plan) TaskByID(id int64) (*Task, error) {
	return p.taskByID(id, true)
}

// MetricByID is the exported read-only lookup.
func (p *Plan) MetricByID(id int64) (*Metric, error) {
	return p.metricByID(id, true)
}

// PlanUpdate carries the optional fields of an updatePlan request; only
// fields present apply.
type PlanUpdate struct {
	Suspended *bool `json:"suspended,omitempty"`
}

// Update applies a partial plan update. Toggling the suspension flag to its
// current value is rejected rather than silently accepted.
func (p *Plan) Update(upd PlanUpdate) error {
	if upd.Suspended == nil {
		return Invalid("plan update carries no fields")
	}
	if *upd.Suspended == p.Suspended {
		if p.Suspended {
			return Invalid("plan is already suspended")
		}
		return Invalid("plan is not suspended")
	}
	p.Suspended = *upd.Suspended
	return nil
}

// Order-list helpers. Positions are 1-based; a valid insertion position after
// the node left its old list is 1..len+1, and out-of-range values are
// rejected, never clamped.

func indexOf(list []int64, id int64) int {
	for i, v := range list {
		if v == id {
			return i
		}
	}
	return -1
}

func removeID(list []int64, id int64) ([]int64, bool) {
	i := indexOf(list, id)
	if i < 0 {
		return list, false
	}
	out := make([]int64, 0, len(list)-1)
	out = append(out, list[:i]...)
	return append(out, list[i+1:]...), true
}

func insertAt(list []int64, id int64, pos int) ([]int64, error) {
	if pos < 1 || pos > len(list)+1 {
		return nil, Invalid("position %d out of range 1..%d", pos, len(list)+1)
	}
	out := make([]int64, 0, len(list)+1)
	out = append(out, list[:pos-1]...)
	out = append(out, id)
	return append(out, list[pos-1:]...), nil
}
