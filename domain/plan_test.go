package domain

import (
	"testing"
	"time"
)

var testNow = time.Date(2025, time.March, 10, 12, 0, 0, 0, time.UTC)

func boolp(v bool) *bool { return &v }
func intp(v int) *int    { return &v }

func newTestPlan(t *testing.T) *Plan {
	t.Helper()
	return NewPlan("user-1", testNow)
}

func mustCreateGoal(t *testing.T, p *Plan, req GoalCreate) *Goal {
	t.Helper()
	g, err := p.CreateGoal(req, testNow)
	if err != nil {
		t.Fatalf("CreateGoal(%q) failed: %v", req.Title, err)
	}
	return g
}

func mustCreateTask(t *testing.T, p *Plan, req TaskCreate) *Task {
	t.Helper()
	task, err := p.CreateTask(req, testNow)
	if err != nil {
		t.Fatalf("CreateTask(%q) failed: %v", req.Title, err)
	}
	return task
}

func TestNewPlanSeedsInbox(t *testing.T) {
	p := newTestPlan(t)

	if p.Version != InitialVersion {
		t.Errorf("version = %v, want %v", p.Version, InitialVersion)
	}
	inbox, err := p.GoalByID(p.InboxGoalID)
	if err != nil {
		t.Fatalf("inbox missing: %v", err)
	}
	if !inbox.IsSystem || inbox.Range != RangeLifetime {
		t.Errorf("inbox = %+v, want system LIFETIME goal", inbox)
	}
	if len(p.GoalOrder) != 1 || p.GoalOrder[0] != inbox.ID {
		t.Errorf("goal order = %v, want just the inbox", p.GoalOrder)
	}
}

func TestCreateGoalDefaultsAndClamping(t *testing.T) {
	p := newTestPlan(t)

	trip := mustCreateGoal(t, p, GoalCreate{Title: "Trip", Range: RangeYear})
	if trip.ParentID == nil || *trip.ParentID != p.InboxGoalID {
		t.Errorf("parent = %v, want inbox %d", trip.ParentID, p.InboxGoalID)
	}
	if trip.Deadline == nil {
		t.Fatal("YEAR goal should carry a deadline")
	}

	// A child requesting a broader range than its parent is clamped.
	sub, err := p.CreateGoal(GoalCreate{Title: "Flights", ParentID: &trip.ID, Range: RangeLifetime}, testNow)
	if err != nil {
		t.Fatalf("CreateGoal failed: %v", err)
	}
	if sub.Range != RangeYear {
		t.Errorf("child range = %s, want clamped to YEAR", sub.Range)
	}

	if _, err := p.CreateGoal(GoalCreate{Title: ""}, testNow); !IsDomainError(err, ErrCodeInvalid) {
		t.Errorf("empty title should be invalid, got %v", err)
	}
	if _, err := p.CreateGoal(GoalCreate{Title: "x", Range: "DECADE"}, testNow); !IsDomainError(err, ErrCodeInvalid) {
		t.Errorf("unknown range should be invalid, got %v", err)
	}
}

func TestUpdatePlanSuspension(t *testing.T) {
	p := newTestPlan(t)

	if err := p.Update(PlanUpdate{}); !IsDomainError(err, ErrCodeInvalid) {
		t.Errorf("empty update should be invalid, got %v", err)
	}
	if err := p.Update(PlanUpdate{Suspended: boolp(true)}); err != nil {
		t.Fatalf("suspend failed: %v", err)
	}
	if err := p.Update(PlanUpdate{Suspended: boolp(true)}); !IsDomainError(err, ErrCodeInvalid) {
		t.Errorf("double suspend should be invalid, got %v", err)
	}
	if err := p.Update(PlanUpdate{Suspended: boolp(false)}); err != nil {
		t.Fatalf("resume failed: %v", err)
	}
}

func TestMarkGoalDoneDropsFromOrderKeepsMembership(t *testing.T) {
	p := newTestPlan(t)
	trip := mustCreateGoal(t, p, GoalCreate{Title: "Trip", Range: RangeYear})

	if _, err := p.MarkGoalDone(trip.ID); err != nil {
		t.Fatalf("MarkGoalDone failed: %v", err)
	}

	inbox, _ := p.GoalByID(p.InboxGoalID)
	if indexOf(inbox.SubGoalOrder, trip.ID) != -1 {
		t.Error("done goal still present in parent order")
	}
	got, err := p.GoalByID(trip.ID)
	if err != nil || !got.Done {
		t.Errorf("done goal no longer addressable: %v %+v", err, got)
	}

	// Done goals reject further mutation.
	if _, err := p.UpdateGoal(GoalUpdate{ID: trip.ID, Title: strp("Trip 2")}, testNow); !IsDomainError(err, ErrCodeInvalid) {
		t.Errorf("updating a done goal should be invalid, got %v", err)
	}
}

func TestSystemGoalImmutable(t *testing.T) {
	p := newTestPlan(t)

	if _, err := p.MarkGoalDone(p.InboxGoalID); !IsDomainError(err, ErrCodeInvalid) {
		t.Errorf("marking inbox done should be invalid, got %v", err)
	}
	if _, err := p.ArchiveGoal(p.InboxGoalID); !IsDomainError(err, ErrCodeInvalid) {
		t.Errorf("archiving inbox should be invalid, got %v", err)
	}
	if _, err := p.UpdateGoal(GoalUpdate{ID: p.InboxGoalID, Title: strp("Junk")}, testNow); !IsDomainError(err, ErrCodeInvalid) {
		t.Errorf("updating inbox should be invalid, got %v", err)
	}
}

func TestArchiveTaskDropsFromOrder(t *testing.T) {
	p := newTestPlan(t)
	task := mustCreateTask(t, p, TaskCreate{Title: "Book flight"})

	if _, err := p.ArchiveTask(task.ID); err != nil {
		t.Fatalf("ArchiveTask failed: %v", err)
	}
	inbox, _ := p.GoalByID(p.InboxGoalID)
	if indexOf(inbox.TaskOrder, task.ID) != -1 {
		t.Error("archived task still present in goal order")
	}
	if _, err := p.ArchiveTask(task.ID); !IsDomainError(err, ErrCodeInvalid) {
		t.Errorf("re-archiving should be invalid, got %v", err)
	}
}

func TestReindexAfterMutationSequence(t *testing.T) {
	p := newTestPlan(t)
	trip := mustCreateGoal(t, p, GoalCreate{Title: "Trip", Range: RangeYear})
	health := mustCreateGoal(t, p, GoalCreate{Title: "Health", Range: RangeFiveYears})
	mustCreateGoal(t, p, GoalCreate{Title: "Packing", ParentID: &trip.ID})
	task := mustCreateTask(t, p, TaskCreate{Title: "Book flight", GoalID: &trip.ID})
	if _, err := p.CreateMetric(MetricCreate{Title: "Weight", GoalID: &health.ID, Kind: MetricGauge}, testNow); err != nil {
		t.Fatalf("CreateMetric failed: %v", err)
	}
	if _, err := p.MoveTask(LeafMove{ID: task.ID, GoalID: &health.ID}); err != nil {
		t.Fatalf("MoveTask failed: %v", err)
	}
	if _, err := p.ArchiveGoal(trip.ID); err != nil {
		t.Fatalf("ArchiveGoal failed: %v", err)
	}

	if err := p.Reindex(); err != nil {
		t.Fatalf("Reindex after mutation sequence failed: %v", err)
	}
}

func TestUpdateGoalNarrowingCascadesToDescendants(t *testing.T) {
	p := newTestPlan(t)
	parent := mustCreateGoal(t, p, GoalCreate{Title: "Parent", Range: RangeYear})
	child := mustCreateGoal(t, p, GoalCreate{Title: "Child", ParentID: &parent.ID, Range: RangeYear})
	grand := mustCreateGoal(t, p, GoalCreate{Title: "Grand", ParentID: &child.ID, Range: RangeYear})

	month := RangeMonth
	if _, err := p.UpdateGoal(GoalUpdate{ID: parent.ID, Range: &month}, testNow); err != nil {
		t.Fatalf("UpdateGoal failed: %v", err)
	}
	for _, g := range []*Goal{child, grand} {
		if g.Range != RangeMonth {
			t.Errorf("%s range = %s, want clamped to MONTH", g.Title, g.Range)
		}
		if g.Deadline == nil || !g.Deadline.Equal(*RangeDeadline(RangeMonth, testNow)) {
			t.Errorf("%s deadline not recomputed from the clamp", g.Title)
		}
	}
	if err := p.Reindex(); err != nil {
		t.Fatalf("Reindex after the cascade failed: %v", err)
	}
}

func TestReindexDetectsBroaderChildRange(t *testing.T) {
	p := newTestPlan(t)
	parent := mustCreateGoal(t, p, GoalCreate{Title: "Parent", Range: RangeMonth})
	child := mustCreateGoal(t, p, GoalCreate{Title: "Child", ParentID: &parent.ID, Range: RangeMonth})

	child.Range = RangeYear
	if err := p.Reindex(); !IsDomainError(err, ErrCodeInternal) {
		t.Fatalf("err = %v, want an integrity error for the broader child", err)
	}
}

func TestReindexDetectsCorruptOrder(t *testing.T) {
	p := newTestPlan(t)
	mustCreateGoal(t, p, GoalCreate{Title: "Trip"})

	p.GoalOrder = append(p.GoalOrder, 9999)
	if err := p.Reindex(); !IsDomainError(err, ErrCodeInternal) {
		t.Errorf("expected integrity error for dangling order id, got %v", err)
	}
}

func strp(s string) *string { return &s }
