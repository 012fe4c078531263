package domain

import (
	"testing"
	"time"
)

func newTestPair(t *testing.T) (*Plan, *Schedule) {
	t.Helper()
	p := NewPlan("user-1", testNow)
	s := NewSchedule("user-1", p.ID, testNow)
	return p, s
}

func createScheduledTask(t *testing.T, p *Plan, s *Schedule, req TaskCreate) *Task {
	t.Helper()
	task := mustCreateTask(t, p, req)
	if _, err := s.EnsureScheduledTask(task, DayOf(testNow)); err != nil {
		t.Fatalf("EnsureScheduledTask failed: %v", err)
	}
	return task
}

func TestEnsureScheduledTaskSeedsOneEntry(t *testing.T) {
	p, s := newTestPair(t)
	task := createScheduledTask(t, p, s, TaskCreate{Title: "Read"})

	st, err := s.ScheduledTaskFor(task.ID)
	if err != nil {
		t.Fatalf("ScheduledTaskFor failed: %v", err)
	}
	if len(st.Entries) != 1 {
		t.Fatalf("entries = %d, want 1", len(st.Entries))
	}
	entry := st.Current()
	if entry.IsDone || entry.InProgress {
		t.Errorf("fresh entry = %+v, want untouched", entry)
	}
	if !entry.Day.Equal(DayOf(testNow)) {
		t.Errorf("entry day = %s, want %s", entry.Day, DayOf(testNow))
	}

	// Idempotent for the same task.
	again, err := s.EnsureScheduledTask(task, DayOf(testNow).Next())
	if err != nil {
		t.Fatalf("EnsureScheduledTask failed: %v", err)
	}
	if again != st || len(st.Entries) != 1 {
		t.Error("EnsureScheduledTask re-created the pairing")
	}
}

func TestMarkTaskDoneBooleanOnly(t *testing.T) {
	p, s := newTestPair(t)
	boolTask := createScheduledTask(t, p, s, TaskCreate{Title: "Call"})
	counterTask := createScheduledTask(t, p, s, TaskCreate{
		Title:      "Pushups",
		DonePolicy: CounterPolicy{Comparison: CompareAtLeast, Lower: 10},
	})

	entry, err := s.MarkTaskDone(p, boolTask.ID)
	if err != nil {
		t.Fatalf("MarkTaskDone failed: %v", err)
	}
	if !entry.IsDone {
		t.Error("boolean task should be done after marking")
	}

	if _, err := s.MarkTaskDone(p, counterTask.ID); !IsDomainError(err, ErrCodeInvalid) {
		t.Errorf("marking a counter task done directly should be invalid, got %v", err)
	}
}

func TestIncrementCounterTask(t *testing.T) {
	p, s := newTestPair(t)
	task := createScheduledTask(t, p, s, TaskCreate{
		Title:      "Pages",
		DonePolicy: CounterPolicy{Comparison: CompareBetween, Lower: 2, Upper: int64p(5)},
	})

	if _, err := s.IncrementCounterTask(p, task.ID, 0); !IsDomainError(err, ErrCodeInvalid) {
		t.Errorf("zero step should be invalid, got %v", err)
	}
	if _, err := s.IncrementCounterTask(p, task.ID, -3); !IsDomainError(err, ErrCodeInvalid) {
		t.Errorf("negative step should be invalid, got %v", err)
	}

	var entry *ScheduledTaskEntry
	var err error
	for i := 0; i < 3; i++ {
		entry, err = s.IncrementCounterTask(p, task.ID, 1)
		if err != nil {
			t.Fatalf("increment %d failed: %v", i+1, err)
		}
	}
	if got := entry.Status.Status.(CounterStatus).CurrentValue; got != 3 {
		t.Errorf("value = %d, want 3", got)
	}
	if !entry.IsDone {
		t.Error("value 3 inside [2,5] should be done")
	}

	entry, err = s.IncrementCounterTask(p, task.ID, 3)
	if err != nil {
		t.Fatalf("increment failed: %v", err)
	}
	if entry.IsDone {
		t.Error("value 6 above the upper limit should flip back to not done")
	}
}

func TestMarkSubTaskDoneCompleteness(t *testing.T) {
	p, s := newTestPair(t)
	task := createScheduledTask(t, p, s, TaskCreate{Title: "Party", DonePolicy: SubTasksPolicy{}})
	s1, _ := p.CreateSubTask(SubTaskCreate{TaskID: task.ID, Title: "Invites"}, testNow)
	s2, _ := p.CreateSubTask(SubTaskCreate{TaskID: task.ID, Title: "Cake"}, testNow)

	entry, err := s.MarkSubTaskDone(p, s1.ID)
	if err != nil {
		t.Fatalf("MarkSubTaskDone failed: %v", err)
	}
	if entry.IsDone {
		t.Error("one of two subtasks done should not complete the task")
	}

	entry, err = s.MarkSubTaskDone(p, s2.ID)
	if err != nil {
		t.Fatalf("MarkSubTaskDone failed: %v", err)
	}
	if !entry.IsDone {
		t.Error("all subtasks done should complete the task")
	}

	// Marking again is a set add, still done.
	entry, err = s.MarkSubTaskDone(p, s2.ID)
	if err != nil {
		t.Fatalf("MarkSubTaskDone failed: %v", err)
	}
	if !entry.IsDone {
		t.Error("repeated mark flipped completion")
	}
}

func TestSetGaugeTask(t *testing.T) {
	p, s := newTestPair(t)
	task := createScheduledTask(t, p, s, TaskCreate{
		Title:      "Run km",
		DonePolicy: GaugePolicy{Comparison: CompareAtLeast, Lower: 5},
	})

	if _, err := s.SetGaugeTask(p, task.ID, -1); !IsDomainError(err, ErrCodeInvalid) {
		t.Errorf("negative gauge value should be invalid, got %v", err)
	}

	entry, err := s.SetGaugeTask(p, task.ID, 6.5)
	if err != nil {
		t.Fatalf("SetGaugeTask failed: %v", err)
	}
	if !entry.IsDone {
		t.Error("6.5 at least 5 should be done")
	}

	// The value is set, not accumulated.
	entry, err = s.SetGaugeTask(p, task.ID, 2)
	if err != nil {
		t.Fatalf("SetGaugeTask failed: %v", err)
	}
	if got := entry.Status.Status.(GaugeStatus).CurrentValue; got != 2 {
		t.Errorf("value = %g, want 2", got)
	}
	if entry.IsDone {
		t.Error("2 below 5 should not be done")
	}
}

func TestUpdateEntry(t *testing.T) {
	p, s := newTestPair(t)
	task := createScheduledTask(t, p, s, TaskCreate{
		Title:      "Pages",
		DonePolicy: CounterPolicy{Comparison: CompareAtLeast, Lower: 3},
	})

	if _, err := s.UpdateEntry(p, EntryUpdate{TaskID: task.ID}); !IsDomainError(err, ErrCodeInvalid) {
		t.Errorf("empty entry update should be invalid, got %v", err)
	}

	// Replacement status of the wrong kind is rejected.
	_, err := s.UpdateEntry(p, EntryUpdate{
		TaskID: task.ID,
		Status: &DoneStatusBox{Status: BooleanStatus{IsDone: true}},
	})
	if !IsDomainError(err, ErrCodeInvalid) {
		t.Errorf("mismatched status kind should be invalid, got %v", err)
	}

	entry, err := s.UpdateEntry(p, EntryUpdate{
		TaskID:     task.ID,
		InProgress: boolp(true),
		Status:     &DoneStatusBox{Status: CounterStatus{CurrentValue: 4}},
	})
	if err != nil {
		t.Fatalf("UpdateEntry failed: %v", err)
	}
	if !entry.InProgress {
		t.Error("in_progress not applied")
	}
	if !entry.IsDone {
		t.Error("isDone should be re-derived from the replaced status")
	}

	if _, err := s.UpdateEntry(p, EntryUpdate{TaskID: task.ID, Index: intp(2), InProgress: boolp(false)}); !IsDomainError(err, ErrCodeInvalid) {
		t.Errorf("out-of-range index should be invalid, got %v", err)
	}
}

func TestMetricSamples(t *testing.T) {
	p, s := newTestPair(t)
	counter, err := p.CreateMetric(MetricCreate{Title: "Books", Kind: MetricCounter}, testNow)
	if err != nil {
		t.Fatalf("CreateMetric failed: %v", err)
	}
	gauge, err := p.CreateMetric(MetricCreate{Title: "Weight", Kind: MetricGauge}, testNow)
	if err != nil {
		t.Fatalf("CreateMetric failed: %v", err)
	}
	s.EnsureCollectedMetric(counter)
	s.EnsureCollectedMetric(gauge)

	e1, err := s.IncrementMetric(p, counter.ID, 1, testNow)
	if err != nil {
		t.Fatalf("IncrementMetric failed: %v", err)
	}
	e2, err := s.IncrementMetric(p, counter.ID, 2, testNow.Add(time.Hour))
	if err != nil {
		t.Fatalf("IncrementMetric failed: %v", err)
	}
	if e1.Value != 1 || e2.Value != 3 {
		t.Errorf("cumulative values = %g, %g, want 1, 3", e1.Value, e2.Value)
	}

	if _, err := s.IncrementMetric(p, counter.ID, 1, testNow.Add(-time.Hour)); !IsDomainError(err, ErrCodeInvalid) {
		t.Errorf("out-of-order sample should be invalid, got %v", err)
	}
	if _, err := s.IncrementMetric(p, gauge.ID, 1, testNow); !IsDomainError(err, ErrCodeInvalid) {
		t.Errorf("incrementing a gauge metric should be invalid, got %v", err)
	}

	g, err := s.RecordForMetric(p, gauge.ID, 81.5, testNow)
	if err != nil {
		t.Fatalf("RecordForMetric failed: %v", err)
	}
	if g.Value != 81.5 {
		t.Errorf("gauge sample = %g, want 81.5", g.Value)
	}
	if _, err := s.RecordForMetric(p, counter.ID, 1, testNow); !IsDomainError(err, ErrCodeInvalid) {
		t.Errorf("recording on a counter metric should be invalid, got %v", err)
	}
}
