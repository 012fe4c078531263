package domain

import (
	"time"

	"github.com/google/uuid"
)

// Schedule is the sibling aggregate to Plan, under the same versioning
// discipline. It holds every collected metric sample and every dated task
// occurrence, keyed back to plan entities by their ids.
type Schedule struct {
	ID               string             `json:"id"`
	UserID           string             `json:"user_id"`
	PlanID           string             `json:"plan_id"`
	Version          Version            `json:"version"`
	IDSerial         int64              `json:"id_serial"`
	CollectedMetrics []*CollectedMetric `json:"collected_metrics"`
	ScheduledTasks   []*ScheduledTask   `json:"scheduled_tasks"`
	CreatedAt        time.Time          `json:"created_at"`
	UpdatedAt        time.Time          `json:"updated_at"`

	metricIndex map[int64]*CollectedMetric
	taskIndex   map[int64]*ScheduledTask
}

// CollectedMetric is the append-only sample history paired 1:1 with a plan
// metric.
type CollectedMetric struct {
	ID       int64                  `json:"id"`
	MetricID int64                  `json:"metric_id"`
	Entries  []CollectedMetricEntry `json:"entries"`
}

type CollectedMetricEntry struct {
	Timestamp time.Time `json:"timestamp"`
	Value     float64   `json:"value"`
}

// ScheduledTask is the occurrence history paired 1:1 with a plan task. The
// entry list is never empty; the last entry is the current occurrence.
type ScheduledTask struct {
	ID      int64                `json:"id"`
	TaskID  int64                `json:"task_id"`
	Entries []ScheduledTaskEntry `json:"entries"`
}

// ScheduledTaskEntry is one dated occurrence carrying its own completion
// status. IsDone is always derived from (policy, status), never written
// directly.
type ScheduledTaskEntry struct {
	InProgress bool          `json:"in_progress"`
	IsDone     bool          `json:"is_done"`
	Status     DoneStatusBox `json:"status"`
	Day        Day           `json:"day"`
}

// NewSchedule seeds the empty schedule paired with a freshly created plan.
func NewSchedule(userID, planID string, now time.Time) *Schedule {
	s := &Schedule{
		ID:        uuid.NewString(),
		UserID:    userID,
		PlanID:    planID,
		Version:   InitialVersion,
		CreatedAt: now,
		UpdatedAt: now,
	}
	s.rebuildIndices()
	return s
}

// NextID allocates an id from the schedule's own serial.
func (s *Schedule) NextID() int64 {
	s.IDSerial++
	return s.IDSerial
}

func (s *Schedule) Touch(now time.Time) {
	s.UpdatedAt = now
}

func (s *Schedule) rebuildIndices() {
	s.metricIndex = make(map[int64]*CollectedMetric, len(s.CollectedMetrics))
	s.taskIndex = make(map[int64]*ScheduledTask, len(s.ScheduledTasks))
	for _, cm := range s.CollectedMetrics {
		s.metricIndex[cm.MetricID] = cm
	}
	for _, st := range s.ScheduledTasks {
		s.taskIndex[st.TaskID] = st
	}
}

// Reindex rebuilds the derived indices and verifies the aggregate's own
// invariants after a load.
func (s *Schedule) Reindex() error {
	s.rebuildIndices()
	if len(s.metricIndex) != len(s.CollectedMetrics) {
		return Integrity("schedule %s: duplicate collected metric pairing", s.ID)
	}
	if len(s.taskIndex) != len(s.ScheduledTasks) {
		return Integrity("schedule %s: duplicate scheduled task pairing", s.ID)
	}
	for _, st := range s.ScheduledTasks {
		if len(st.Entries) == 0 {
			return Integrity("scheduled task for task %d has no entries", st.TaskID)
		}
	}
	return nil
}

// EnsureScheduledTask creates the 1:1 ScheduledTask for a newly created plan
// task, seeded with a single fresh entry dated to the creation day.
func (s *Schedule) EnsureScheduledTask(task *Task, day Day) (*ScheduledTask, error) {
	if existing, ok := s.taskIndex[task.ID]; ok {
		return existing, nil
	}
	status, err := FreshStatus(task.DonePolicy.Policy)
	if err != nil {
		return nil, err
	}
	st := &ScheduledTask{
		ID:     s.NextID(),
		TaskID: task.ID,
		Entries: []ScheduledTaskEntry{{
			Status: DoneStatusBox{Status: status},
			Day:    day,
		}},
	}
	s.ScheduledTasks = append(s.ScheduledTasks, st)
	s.taskIndex[task.ID] = st
	return st, nil
}

// EnsureCollectedMetric creates the 1:1 CollectedMetric for a newly created
// plan metric.
func (s *Schedule) EnsureCollectedMetric(metric *Metric) *CollectedMetric {
	if existing, ok := s.metricIndex[metric.ID]; ok {
		return existing
	}
	cm := &CollectedMetric{
		ID:       s.NextID(),
		MetricID: metric.ID,
	}
	s.CollectedMetrics = append(s.CollectedMetrics, cm)
	s.metricIndex[metric.ID] = cm
	return cm
}

// ScheduledTaskFor resolves the occurrence history of a task. Absence is an
// integrity failure: the pairing is created with the task.
func (s *Schedule) ScheduledTaskFor(taskID int64) (*ScheduledTask, error) {
	st, ok := s.taskIndex[taskID]
	if !ok {
		return nil, Integrity("task %d has no scheduled task pairing", taskID)
	}
	return st, nil
}

// CollectedMetricFor resolves the sample history of a metric.
func (s *Schedule) CollectedMetricFor(metricID int64) (*CollectedMetric, error) {
	cm, ok := s.metricIndex[metricID]
	if !ok {
		return nil, Integrity("metric %d has no collected metric pairing", metricID)
	}
	return cm, nil
}

// Current returns the current (last) occurrence.
func (st *ScheduledTask) Current() *ScheduledTaskEntry {
	if len(st.Entries) == 0 {
		return nil
	}
	return &st.Entries[len(st.Entries)-1]
}

func (s *Schedule) recomputeEntry(plan *Plan, task *Task, entry *ScheduledTaskEntry) error {
	done, err := RecomputeDone(task.DonePolicy.Policy, entry.Status.Status, plan.LiveSubTaskIDs(task.ID))
	if err != nil {
		return err
	}
	entry.IsDone = done
	return nil
}

// MarkTaskDone sets the explicit done flag on the current occurrence of a
// BOOLEAN-policy task.
func (s *Schedule) MarkTaskDone(plan *Plan, taskID int64) (*ScheduledTaskEntry, error) {
	task, err := plan.taskByID(taskID, false)
	if err != nil {
		return nil, err
	}
	if task.DonePolicy.Policy.Kind() != DoneByBoolean {
		return nil, Invalid("task %d does not use the BOOLEAN done policy", taskID)
	}
	st, err := s.ScheduledTaskFor(taskID)
	if err != nil {
		return nil, err
	}
	entry := st.Current()
	entry.Status = DoneStatusBox{Status: BooleanStatus{IsDone: true}}
	if err := s.recomputeEntry(plan, task, entry); err != nil {
		return nil, err
	}
	return entry, nil
}

// MarkSubTaskDone adds the subtask to the done set of the owning task's
// current occurrence. Completeness is then re-derived against the live
// subtask set.
func (s *Schedule) MarkSubTaskDone(plan *Plan, subTaskID int64) (*ScheduledTaskEntry, error) {
	sub, err := plan.subTaskByID(subTaskID, false)
	if err != nil {
		return nil, err
	}
	task, err := plan.taskByID(sub.TaskID, false)
	if err != nil {
		return nil, err
	}
	if task.DonePolicy.Policy.Kind() != DoneBySubTasks {
		return nil, Invalid("task %d does not use the SUBTASKS done policy", task.ID)
	}
	st, err := s.ScheduledTaskFor(task.ID)
	if err != nil {
		return nil, err
	}
	entry := st.Current()
	status, ok := entry.Status.Status.(SubTasksStatus)
	if !ok {
		return nil, Integrity("task %d current entry status is not a SUBTASKS status", task.ID)
	}
	entry.Status = DoneStatusBox{Status: status.With(subTaskID)}
	if err := s.recomputeEntry(plan, task, entry); err != nil {
		return nil, err
	}
	return entry, nil
}

// IncrementCounterTask adds a positive step to the current occurrence of a
// COUNTER-policy task.
func (s *Schedule) IncrementCounterTask(plan *Plan, taskID int64, step int64) (*ScheduledTaskEntry, error) {
	if step <= 0 {
		return nil, Invalid("counter step must be a positive integer, got %d", step)
	}
	task, err := plan.taskByID(taskID, false)
	if err != nil {
		return nil, err
	}
	if task.DonePolicy.Policy.Kind() != DoneByCounter {
		return nil, Invalid("task %d does not use the COUNTER done policy", taskID)
	}
	st, err := s.ScheduledTaskFor(taskID)
	if err != nil {
		return nil, err
	}
	entry := st.Current()
	status, ok := entry.Status.Status.(CounterStatus)
	if !ok {
		return nil, Integrity("task %d current entry status is not a COUNTER status", taskID)
	}
	entry.Status = DoneStatusBox{Status: CounterStatus{CurrentValue: status.CurrentValue + step}}
	if err := s.recomputeEntry(plan, task, entry); err != nil {
		return nil, err
	}
	return entry, nil
}

// SetGaugeTask sets the current occurrence value of a GAUGE-policy task.
func (s *Schedule) SetGaugeTask(plan *Plan, taskID int64, value float64) (*ScheduledTaskEntry, error) {
	if value < 0 {
		return nil, Invalid("gauge value must be non-negative, got %g", value)
	}
	task, err := plan.taskByID(taskID, false)
	if err != nil {
		return nil, err
	}
	if task.DonePolicy.Policy.Kind() != DoneByGauge {
		return nil, Invalid("task %d does not use the GAUGE done policy", taskID)
	}
	st, err := s.ScheduledTaskFor(taskID)
	if err != nil {
		return nil, err
	}
	entry := st.Current()
	entry.Status = DoneStatusBox{Status: GaugeStatus{CurrentValue: value}}
	if err := s.recomputeEntry(plan, task, entry); err != nil {
		return nil, err
	}
	return entry, nil
}

// EntryUpdate rewrites fields of one occurrence. A replacement status must
// match the task's policy type; isDone is re-derived, never accepted.
type EntryUpdate struct {
	TaskID     int64          `json:"task_id"`
	Index      *int           `json:"index,omitempty"` // 1-based, defaults to the current entry
	InProgress *bool          `json:"in_progress,omitempty"`
	Status     *DoneStatusBox `json:"status,omitempty"`
}

// UpdateEntry applies a partial update to one occurrence of a task.
func (s *Schedule) UpdateEntry(plan *Plan, upd EntryUpdate) (*ScheduledTaskEntry, error) {
	task, err := plan.taskByID(upd.TaskID, false)
	if err != nil {
		return nil, err
	}
	st, err := s.ScheduledTaskFor(upd.TaskID)
	if err != nil {
		return nil, err
	}
	if upd.InProgress == nil && upd.Status == nil {
		return nil, Invalid("entry update carries no fields")
	}

	idx := len(st.Entries)
	if upd.Index != nil {
		idx = *upd.Index
		if idx < 1 || idx > len(st.Entries) {
			return nil, Invalid("entry index %d out of range 1..%d", idx, len(st.Entries))
		}
	}
	entry := &st.Entries[idx-1]

	if upd.Status != nil {
		if upd.Status.Status == nil {
			return nil, Invalid("entry status update carries no status")
		}
		if upd.Status.Status.Kind() != task.DonePolicy.Policy.Kind() {
			return nil, Invalid("status kind %s does not match task %d policy %s",
				upd.Status.Status.Kind(), task.ID, task.DonePolicy.Policy.Kind())
		}
		entry.Status = *upd.Status
	}
	if upd.InProgress != nil {
		entry.InProgress = *upd.InProgress
	}
	if err := s.recomputeEntry(plan, task, entry); err != nil {
		return nil, err
	}
	return entry, nil
}

// IncrementMetric appends a sample to a COUNTER metric: the last cumulative
// value plus a positive step.
func (s *Schedule) IncrementMetric(plan *Plan, metricID int64, step int64, now time.Time) (*CollectedMetricEntry, error) {
	if step <= 0 {
		return nil, Invalid("metric step must be a positive integer, got %d", step)
	}
	metric, err := plan.metricByID(metricID, false)
	if err != nil {
		return nil, err
	}
	if metric.Kind != MetricCounter {
		return nil, Invalid("metric %d is not a counter", metricID)
	}
	cm, err := s.CollectedMetricFor(metricID)
	if err != nil {
		return nil, err
	}
	var last float64
	if n := len(cm.Entries); n > 0 {
		last = cm.Entries[n-1].Value
		if now.Before(cm.Entries[n-1].Timestamp) {
			return nil, Invalid("sample timestamp precedes the last entry")
		}
	}
	cm.Entries = append(cm.Entries, CollectedMetricEntry{Timestamp: now, Value: last + float64(step)})
	return &cm.Entries[len(cm.Entries)-1], nil
}

// RecordForMetric appends a directly observed sample to a GAUGE metric.
func (s *Schedule) RecordForMetric(plan *Plan, metricID int64, value float64, now time.Time) (*CollectedMetricEntry, error) {
	metric, err := plan.metricByID(metricID, false)
	if err != nil {
		return nil, err
	}
	if metric.Kind != MetricGauge {
		return nil, Invalid("metric %d is not a gauge", metricID)
	}
	cm, err := s.CollectedMetricFor(metricID)
	if err != nil {
		return nil, err
	}
	if n := len(cm.Entries); n > 0 && now.Before(cm.Entries[n-1].Timestamp) {
		return nil, Invalid("sample timestamp precedes the last entry")
	}
	cm.Entries = append(cm.Entries, CollectedMetricEntry{Timestamp: now, Value: value})
	return &cm.Entries[len(cm.Entries)-1], nil
}
