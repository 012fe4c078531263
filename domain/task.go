package domain

import "time"

// TaskPriority orders tasks within a goal's view.
type TaskPriority string

const (
	PriorityNormal TaskPriority = "NORMAL"
	PriorityHigh   TaskPriority = "HIGH"
)

func (p TaskPriority) Valid() bool {
	return p == PriorityNormal || p == PriorityHigh
}

// TaskUrgency controls whether scheduling respects suspension and vacations.
// CRITICAL tasks bypass both.
type TaskUrgency string

const (
	UrgencyRegular  TaskUrgency = "REGULAR"
	UrgencyCritical TaskUrgency = "CRITICAL"
)

func (u TaskUrgency) Valid() bool {
	return u == UrgencyRegular || u == UrgencyCritical
}

// RepeatPeriod is the calendar cadence of a recurring task.
type RepeatPeriod string

const (
	RepeatDaily     RepeatPeriod = "DAILY"
	RepeatWeekly    RepeatPeriod = "WEEKLY"
	RepeatMonthly   RepeatPeriod = "MONTHLY"
	RepeatQuarterly RepeatPeriod = "QUARTERLY"
	RepeatYearly    RepeatPeriod = "YEARLY"
)

func (r RepeatPeriod) Valid() bool {
	switch r {
	case RepeatDaily, RepeatWeekly, RepeatMonthly, RepeatQuarterly, RepeatYearly:
		return true
	}
	return false
}

// ReminderPolicy controls reminder delivery for a task.
type ReminderPolicy string

const (
	RemindNever      ReminderPolicy = "NEVER"
	RemindOnDeadline ReminderPolicy = "ON_DEADLINE"
	RemindDaily      ReminderPolicy = "DAILY"
)

func (r ReminderPolicy) Valid() bool {
	switch r {
	case RemindNever, RemindOnDeadline, RemindDaily:
		return true
	}
	return false
}

// Task is an actionable item owned by exactly one goal. Its occurrences and
// their completion status live in the paired ScheduledTask inside the
// Schedule aggregate.
type Task struct {
	ID           int64          `json:"id"`
	GoalID       int64          `json:"goal_id"`
	Title        string         `json:"title"`
	Description  string         `json:"description,omitempty"`
	Priority     TaskPriority   `json:"priority"`
	Urgency      TaskUrgency    `json:"urgency"`
	Deadline     *time.Time     `json:"deadline,omitempty"`
	Repeat       *RepeatPeriod  `json:"repeat,omitempty"`
	Reminder     ReminderPolicy `json:"reminder"`
	DonePolicy   DonePolicyBox  `json:"done_policy"`
	SubTaskOrder []int64        `json:"subtask_order"`
	Suspended    bool           `json:"suspended"`
	Archived     bool           `json:"archived"`
	CreatedAt    time.Time      `json:"created_at"`
}

// TaskCreate carries the createTask request fields. A nil DonePolicy defaults
// to BOOLEAN.
type TaskCreate struct {
	Title       string
	Description string
	GoalID      *int64
	Priority    TaskPriority
	Urgency     TaskUrgency
	Deadline    *time.Time
	Repeat      *RepeatPeriod
	Reminder    ReminderPolicy
	DonePolicy  DonePolicy
}

// TaskUpdate carries the optional updateTask fields; only fields present
// apply. The done policy is deliberately absent: its type is fixed at
// creation.
type TaskUpdate struct {
	ID            int64           `json:"id"`
	Title         *string         `json:"title,omitempty"`
	Description   *string         `json:"description,omitempty"`
	Priority      *TaskPriority   `json:"priority,omitempty"`
	Urgency       *TaskUrgency    `json:"urgency,omitempty"`
	Deadline      *time.Time      `json:"deadline,omitempty"`
	ClearDeadline bool            `json:"clear_deadline,omitempty"`
	Repeat        *RepeatPeriod   `json:"repeat,omitempty"`
	ClearRepeat   bool            `json:"clear_repeat,omitempty"`
	Reminder      *ReminderPolicy `json:"reminder,omitempty"`
	Suspended     *bool           `json:"suspended,omitempty"`
}

// CreateTask adds a task to the requested goal, defaulting to the inbox.
func (p *Plan) CreateTask(req TaskCreate, now time.Time) (*Task, error) {
	if req.Title == "" {
		return nil, Invalid("task title must not be empty")
	}
	goalID := p.InboxGoalID
	if req.GoalID != nil {
		goalID = *req.GoalID
	}
	goal, err := p.goalByID(goalID, false)
	if err != nil {
		return nil, err
	}

	priority := req.Priority
	if priority == "" {
		priority = PriorityNormal
	}
	if !priority.Valid() {
		return nil, Invalid("invalid task priority %q", priority)
	}
	urgency := req.Urgency
	if urgency == "" {
		urgency = UrgencyRegular
	}
	if !urgency.Valid() {
		return nil, Invalid("invalid task urgency %q", urgency)
	}
	if req.Repeat != nil && !req.Repeat.Valid() {
		return nil, Invalid("invalid repeat period %q", *req.Repeat)
	}
	reminder := req.Reminder
	if reminder == "" {
		reminder = RemindNever
	}
	if !reminder.Valid() {
		return nil, Invalid("invalid reminder policy %q", reminder)
	}

	policy := req.DonePolicy
	if policy == nil {
		policy = BooleanPolicy{}
	}
	switch pol := policy.(type) {
	case CounterPolicy:
		if err := pol.Validate(); err != nil {
			return nil, err
		}
	case GaugePolicy:
		if err := pol.Validate(); err != nil {
			return nil, err
		}
	}

	t := &Task{
		ID:          p.NextID(),
		GoalID:      goal.ID,
		Title:       req.Title,
		Description: req.Description,
		Priority:    priority,
		Urgency:     urgency,
		Deadline:    req.Deadline,
		Repeat:      req.Repeat,
		Reminder:    reminder,
		DonePolicy:  DonePolicyBox{Policy: policy},
		CreatedAt:   now,
	}
	p.addTask(t)
	goal.TaskOrder = append(goal.TaskOrder, t.ID)
	return t, nil
}

// UpdateTask applies a partial task update.
func (p *Plan) UpdateTask(upd TaskUpdate) (*Task, error) {
	t, err := p.taskByID(upd.ID, false)
	if err != nil {
		return nil, err
	}
	if upd.Title == nil && upd.Description == nil && upd.Priority == nil &&
		upd.Urgency == nil && upd.Deadline == nil && !upd.ClearDeadline &&
		upd.Repeat == nil && !upd.ClearRepeat && upd.Reminder == nil && upd.Suspended == nil {
		return nil, Invalid("task update carries no fields")
	}
	if upd.Deadline != nil && upd.ClearDeadline {
		return nil, Invalid("cannot both set and clear the deadline")
	}
	if upd.Repeat != nil && upd.ClearRepeat {
		return nil, Invalid("cannot both set and clear the repeat period")
	}
	if upd.Priority != nil && !upd.Priority.Valid() {
		return nil, Invalid("invalid task priority %q", *upd.Priority)
	}
	if upd.Urgency != nil && !upd.Urgency.Valid() {
		return nil, Invalid("invalid task urgency %q", *upd.Urgency)
	}
	if upd.Repeat != nil && !upd.Repeat.Valid() {
		return nil, Invalid("invalid repeat period %q", *upd.Repeat)
	}
	if upd.Reminder != nil && !upd.Reminder.Valid() {
		return nil, Invalid("invalid reminder policy %q", *upd.Reminder)
	}
	if upd.Suspended != nil && *upd.Suspended == t.Suspended {
		if t.Suspended {
			return nil, Invalid("task %d is already suspended", t.ID)
		}
		return nil, Invalid("task %d is not suspended", t.ID)
	}

	if upd.Title != nil {
		if *upd.Title == "" {
			return nil, Invalid("task title must not be empty")
		}
		t.Title = *upd.Title
	}
	if upd.Description != nil {
		t.Description = *upd.Description
	}
	if upd.Priority != nil {
		t.Priority = *upd.Priority
	}
	if upd.Urgency != nil {
		t.Urgency = *upd.Urgency
	}
	if upd.Deadline != nil {
		t.Deadline = upd.Deadline
	}
	if upd.ClearDeadline {
		t.Deadline = nil
	}
	if upd.Repeat != nil {
		t.Repeat = upd.Repeat
	}
	if upd.ClearRepeat {
		t.Repeat = nil
	}
	if upd.Reminder != nil {
		t.Reminder = *upd.Reminder
	}
	if upd.Suspended != nil {
		t.Suspended = *upd.Suspended
	}
	return t, nil
}

// MoveTask reparents the task to another goal and/or repositions it.
func (p *Plan) MoveTask(req LeafMove) (*Task, error) {
	t, err := p.taskByID(req.ID, false)
	if err != nil {
		return nil, err
	}
	owner, err := p.goalByID(t.GoalID, true)
	if err != nil {
		return nil, Integrity("task %d owner goal %d missing", t.ID, t.GoalID)
	}
	target, err := moveLeaf(p, req, t.ID, owner, func(g *Goal) *[]int64 { return &g.TaskOrder })
	if err != nil {
		return nil, err
	}
	if target != nil {
		t.GoalID = target.ID
	}
	return t, nil
}

// ArchiveTask flags the task archived and drops it from its goal's order.
func (p *Plan) ArchiveTask(id int64) (*Task, error) {
	t, ok := p.taskIndex[id]
	if !ok {
		return nil, ErrTaskNotFound
	}
	if t.Archived {
		return nil, Invalid("task %d is already archived", id)
	}
	t.Archived = true
	if goal, ok := p.goalIndex[t.GoalID]; ok {
		goal.TaskOrder, _ = removeID(goal.TaskOrder, t.ID)
	}
	return t, nil
}

// LiveSubTaskIDs lists the non-archived subtasks of a task, the set a
// SUBTASKS done status is judged against. Archived subtasks drop out of the
// completeness check going forward.
func (p *Plan) LiveSubTaskIDs(taskID int64) []int64 {
	var ids []int64
	for _, s := range p.SubTasks {
		if s.TaskID == taskID && !s.Archived {
			ids = append(ids, s.ID)
		}
	}
	return ids
}
