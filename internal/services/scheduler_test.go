package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/planwise/backend/domain"
	"github.com/planwise/backend/usecase"
)

var testNow = time.Date(2025, time.March, 10, 12, 0, 0, 0, time.UTC)

// fakePlanRepo keeps serialized snapshots so loads hand back independent
// copies, the way the real store does.
type fakePlanRepo struct {
	docs    map[string]map[string][]byte // userID -> version -> doc
	latest  map[string]domain.Version
	saves   int
	saveErr error
	loadErr map[string]error
}

func newFakePlanRepo() *fakePlanRepo {
	return &fakePlanRepo{
		docs:    make(map[string]map[string][]byte),
		latest:  make(map[string]domain.Version),
		loadErr: make(map[string]error),
	}
}

func (r *fakePlanRepo) LoadLatest(ctx context.Context, userID string) (*domain.Plan, error) {
	if err := r.loadErr[userID]; err != nil {
		return nil, err
	}
	versions, ok := r.docs[userID]
	if !ok || len(versions) == 0 {
		return nil, domain.ErrPlanNotFound
	}
	doc := versions[r.latest[userID].String()]
	var plan domain.Plan
	if err := json.Unmarshal(doc, &plan); err != nil {
		return nil, err
	}
	if err := plan.Reindex(); err != nil {
		return nil, err
	}
	return &plan, nil
}

func (r *fakePlanRepo) SaveNewVersion(ctx context.Context, plan *domain.Plan) (*domain.Plan, error) {
	if r.saveErr != nil {
		return nil, r.saveErr
	}
	key := plan.Version.String()
	if r.docs[plan.UserID] == nil {
		r.docs[plan.UserID] = make(map[string][]byte)
	}
	if _, exists := r.docs[plan.UserID][key]; exists {
		return nil, domain.ErrVersionConflict
	}
	doc, err := json.Marshal(plan)
	if err != nil {
		return nil, err
	}
	r.docs[plan.UserID][key] = doc
	if r.latest[plan.UserID].Less(plan.Version) || len(r.docs[plan.UserID]) == 1 {
		r.latest[plan.UserID] = plan.Version
	}
	r.saves++
	return plan, nil
}

type fakeScheduleRepo struct {
	docs    map[string]map[string][]byte // userID/planID -> version -> doc
	latest  map[string]domain.Version
	saves   int
	saveErr error
}

func newFakeScheduleRepo() *fakeScheduleRepo {
	return &fakeScheduleRepo{
		docs:   make(map[string]map[string][]byte),
		latest: make(map[string]domain.Version),
	}
}

func scheduleKey(userID, planID string) string {
	return fmt.Sprintf("%s/%s", userID, planID)
}

func (r *fakeScheduleRepo) LoadLatest(ctx context.Context, userID, planID string) (*domain.Schedule, error) {
	key := scheduleKey(userID, planID)
	versions, ok := r.docs[key]
	if !ok || len(versions) == 0 {
		return nil, domain.ErrScheduleNotFound
	}
	doc := versions[r.latest[key].String()]
	var schedule domain.Schedule
	if err := json.Unmarshal(doc, &schedule); err != nil {
		return nil, err
	}
	if err := schedule.Reindex(); err != nil {
		return nil, err
	}
	return &schedule, nil
}

func (r *fakeScheduleRepo) SaveNewVersion(ctx context.Context, schedule *domain.Schedule) (*domain.Schedule, error) {
	if r.saveErr != nil {
		return nil, r.saveErr
	}
	key := scheduleKey(schedule.UserID, schedule.PlanID)
	version := schedule.Version.String()
	if r.docs[key] == nil {
		r.docs[key] = make(map[string][]byte)
	}
	if _, exists := r.docs[key][version]; exists {
		return nil, domain.ErrVersionConflict
	}
	doc, err := json.Marshal(schedule)
	if err != nil {
		return nil, err
	}
	r.docs[key][version] = doc
	if r.latest[key].Less(schedule.Version) || len(r.docs[key]) == 1 {
		r.latest[key] = schedule.Version
	}
	r.saves++
	return schedule, nil
}

type fakeUserRepo struct {
	users map[string]*domain.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[string]*domain.User)}
}

func (r *fakeUserRepo) GetByID(ctx context.Context, id string) (*domain.User, error) {
	u, ok := r.users[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	copied := *u
	return &copied, nil
}

func (r *fakeUserRepo) Upsert(ctx context.Context, user *domain.User) error {
	copied := *user
	r.users[user.ID] = &copied
	return nil
}

func (r *fakeUserRepo) ListActive(ctx context.Context) ([]domain.User, error) {
	var out []domain.User
	for _, u := range r.users {
		if u.IsActive() {
			out = append(out, *u)
		}
	}
	return out, nil
}

type fakeBuffer struct {
	plans     int
	schedules int
}

func (b *fakeBuffer) BufferPlan(ctx context.Context, plan *domain.Plan) error {
	b.plans++
	return nil
}

func (b *fakeBuffer) BufferSchedule(ctx context.Context, schedule *domain.Schedule) error {
	b.schedules++
	return nil
}

// One user's broken snapshot must not keep the rest of the pass from
// generating occurrences.
func TestRunPassIsolatesUserFailures(t *testing.T) {
	ctx := context.Background()
	plans := newFakePlanRepo()
	schedules := newFakeScheduleRepo()
	users := newFakeUserRepo()
	users.users["user-1"] = &domain.User{ID: "user-1", Status: "active"}
	users.users["user-2"] = &domain.User{ID: "user-2", Status: "active"}

	coord := usecase.NewCoordinator(plans, schedules, users, nil, &fakeBuffer{}, nil).
		WithClock(func() time.Time { return testNow })

	// user-2 owns a daily task last scheduled yesterday, so today's pass
	// owes it exactly one fresh entry.
	daily := domain.RepeatDaily
	var taskID int64
	plan, _, err := coord.InTx(ctx, "user-2", func(p *domain.Plan, s *domain.Schedule) (usecase.Outcome, error) {
		task, err := p.CreateTask(domain.TaskCreate{Title: "Stretch", Repeat: &daily}, testNow)
		if err != nil {
			return usecase.OutcomeNone, err
		}
		taskID = task.ID
		if _, err := s.EnsureScheduledTask(task, domain.DayOf(testNow.AddDate(0, 0, -1))); err != nil {
			return usecase.OutcomeNone, err
		}
		return usecase.OutcomePlanAndSchedule, nil
	})
	if err != nil {
		t.Fatalf("setup transaction failed: %v", err)
	}

	plans.loadErr["user-1"] = errors.New("corrupt snapshot")

	s := NewScheduler(coord, users, nil, SchedulerConfig{Interval: time.Hour})
	err = s.RunPass(ctx)
	if err == nil {
		t.Fatal("RunPass should report the failing user")
	}
	if !strings.Contains(err.Error(), "user-1") {
		t.Errorf("err = %v, want it to name user-1", err)
	}
	if strings.Contains(err.Error(), "user-2") {
		t.Errorf("err = %v, must not blame user-2", err)
	}

	schedule, err := schedules.LoadLatest(ctx, "user-2", plan.ID)
	if err != nil {
		t.Fatalf("LoadLatest failed: %v", err)
	}
	st, err := schedule.ScheduledTaskFor(taskID)
	if err != nil {
		t.Fatalf("ScheduledTaskFor failed: %v", err)
	}
	if len(st.Entries) != 2 {
		t.Fatalf("entries = %d, want yesterday's seed plus today's occurrence", len(st.Entries))
	}
	if got := st.Current().Day; !got.Equal(domain.DayOf(testNow)) {
		t.Errorf("latest entry day = %s, want today", got)
	}
}

// A pass with nothing due must not bump any schedule version.
func TestRunPassWithNothingDueSavesNothing(t *testing.T) {
	ctx := context.Background()
	plans := newFakePlanRepo()
	schedules := newFakeScheduleRepo()
	users := newFakeUserRepo()
	users.users["user-1"] = &domain.User{ID: "user-1", Status: "active"}

	coord := usecase.NewCoordinator(plans, schedules, users, nil, &fakeBuffer{}, nil).
		WithClock(func() time.Time { return testNow })

	s := NewScheduler(coord, users, nil, SchedulerConfig{Interval: time.Hour})
	if err := s.RunPass(ctx); err != nil {
		t.Fatalf("RunPass failed: %v", err)
	}

	// The first visit seeds the pair; nothing repeats, so the seed save is
	// the only one and a second pass adds none.
	if schedules.saves != 1 {
		t.Errorf("schedule saves = %d, want the seed only", schedules.saves)
	}
	if err := s.RunPass(ctx); err != nil {
		t.Fatalf("second RunPass failed: %v", err)
	}
	if schedules.saves != 1 {
		t.Errorf("schedule saves after rerun = %d, want still 1", schedules.saves)
	}
}
