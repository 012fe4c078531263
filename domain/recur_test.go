package domain

import (
	"testing"
	"time"
)

func repeatp(r RepeatPeriod) *RepeatPeriod { return &r }

func testUser() *User {
	return &User{ID: "user-1", Status: "active"}
}

func TestGenerateOccurrencesDaily(t *testing.T) {
	p, s := newTestPair(t)
	task := createScheduledTask(t, p, s, TaskCreate{Title: "Stretch", Repeat: repeatp(RepeatDaily)})

	today := DayOf(testNow).Next().Next().Next()
	added, err := GenerateOccurrences(p, s, testUser(), today)
	if err != nil {
		t.Fatalf("GenerateOccurrences failed: %v", err)
	}
	if added != 3 {
		t.Errorf("added = %d, want 3", added)
	}

	st, _ := s.ScheduledTaskFor(task.ID)
	if len(st.Entries) != 4 {
		t.Fatalf("entries = %d, want 4", len(st.Entries))
	}
	if !st.Current().Day.Equal(today) {
		t.Errorf("current entry day = %s, want %s", st.Current().Day, today)
	}
	for _, e := range st.Entries {
		if e.IsDone || e.InProgress {
			t.Errorf("generated entry %s should start fresh", e.Day)
		}
	}

	// A second pass the same day adds nothing.
	added, err = GenerateOccurrences(p, s, testUser(), today)
	if err != nil {
		t.Fatalf("GenerateOccurrences failed: %v", err)
	}
	if added != 0 {
		t.Errorf("rerun added = %d, want 0", added)
	}
}

func TestGenerateOccurrencesWeekly(t *testing.T) {
	p, s := newTestPair(t)
	// testNow is Monday 2025-03-10.
	task := createScheduledTask(t, p, s, TaskCreate{Title: "Review", Repeat: repeatp(RepeatWeekly)})

	today := DayOf(testNow.AddDate(0, 0, 14))
	added, err := GenerateOccurrences(p, s, testUser(), today)
	if err != nil {
		t.Fatalf("GenerateOccurrences failed: %v", err)
	}
	if added != 2 {
		t.Errorf("added = %d, want 2 Mondays", added)
	}
	st, _ := s.ScheduledTaskFor(task.ID)
	for _, e := range st.Entries[1:] {
		if e.Day.Weekday() != time.Monday {
			t.Errorf("entry day %s is not a Monday", e.Day)
		}
	}
}

func TestGenerateOccurrencesSkipsSuspendedAndVacation(t *testing.T) {
	p, s := newTestPair(t)
	regular := createScheduledTask(t, p, s, TaskCreate{Title: "Jog", Repeat: repeatp(RepeatDaily)})
	critical := createScheduledTask(t, p, s, TaskCreate{
		Title:   "Meds",
		Urgency: UrgencyCritical,
		Repeat:  repeatp(RepeatDaily),
	})

	user := testUser()
	if _, err := user.AddVacation(testNow.AddDate(0, 0, 1), testNow.AddDate(0, 0, 3)); err != nil {
		t.Fatalf("AddVacation failed: %v", err)
	}

	// Days 1 and 2 fall in the half-open vacation window, day 3 does not.
	today := DayOf(testNow).Next().Next().Next()
	added, err := GenerateOccurrences(p, s, user, today)
	if err != nil {
		t.Fatalf("GenerateOccurrences failed: %v", err)
	}
	if added != 4 {
		t.Errorf("added = %d, want 1 regular + 3 critical", added)
	}
	stRegular, _ := s.ScheduledTaskFor(regular.ID)
	if len(stRegular.Entries) != 2 {
		t.Errorf("regular entries = %d, want 2", len(stRegular.Entries))
	}
	stCritical, _ := s.ScheduledTaskFor(critical.ID)
	if len(stCritical.Entries) != 4 {
		t.Errorf("critical entries = %d, want 4", len(stCritical.Entries))
	}

	// Plan suspension stops regular tasks entirely, critical ones keep firing.
	if err := p.Update(PlanUpdate{Suspended: boolp(true)}); err != nil {
		t.Fatalf("suspend failed: %v", err)
	}
	added, err = GenerateOccurrences(p, s, user, today.Next())
	if err != nil {
		t.Fatalf("GenerateOccurrences failed: %v", err)
	}
	if added != 1 {
		t.Errorf("added = %d, want only the critical entry", added)
	}
}

func TestGenerateOccurrencesStopsAtDeadline(t *testing.T) {
	p, s := newTestPair(t)
	deadline := testNow.AddDate(0, 0, 2)
	task := createScheduledTask(t, p, s, TaskCreate{
		Title:    "Drill",
		Repeat:   repeatp(RepeatDaily),
		Deadline: &deadline,
	})

	today := DayOf(testNow).Next().Next().Next().Next()
	added, err := GenerateOccurrences(p, s, testUser(), today)
	if err != nil {
		t.Fatalf("GenerateOccurrences failed: %v", err)
	}
	// Only the day strictly before the deadline fires.
	if added != 1 {
		t.Errorf("added = %d, want 1", added)
	}

	st, _ := s.ScheduledTaskFor(task.ID)
	if !st.Current().Day.Equal(DayOf(testNow).Next()) {
		t.Errorf("current day = %s, want the day before the deadline", st.Current().Day)
	}

	// Later passes never emit at or past the deadline.
	added, err = GenerateOccurrences(p, s, testUser(), today.Next())
	if err != nil {
		t.Fatalf("GenerateOccurrences failed: %v", err)
	}
	if added != 0 {
		t.Errorf("added = %d, want 0 past the deadline", added)
	}
}

func TestGenerateOccurrencesSkipsArchivedAndNonRepeating(t *testing.T) {
	p, s := newTestPair(t)
	createScheduledTask(t, p, s, TaskCreate{Title: "One-shot"})
	archived := createScheduledTask(t, p, s, TaskCreate{Title: "Old", Repeat: repeatp(RepeatDaily)})
	if _, err := p.ArchiveTask(archived.ID); err != nil {
		t.Fatalf("ArchiveTask failed: %v", err)
	}

	added, err := GenerateOccurrences(p, s, testUser(), DayOf(testNow).Next())
	if err != nil {
		t.Fatalf("GenerateOccurrences failed: %v", err)
	}
	if added != 0 {
		t.Errorf("added = %d, want 0", added)
	}
}

func TestCadenceMatches(t *testing.T) {
	day := func(y int, m time.Month, d int) Day {
		return DayOf(time.Date(y, m, d, 0, 0, 0, 0, time.UTC))
	}
	cases := []struct {
		period RepeatPeriod
		d      Day
		want   bool
	}{
		{RepeatDaily, day(2025, time.March, 11), true},
		{RepeatWeekly, day(2025, time.March, 10), true},  // Monday
		{RepeatWeekly, day(2025, time.March, 11), false}, // Tuesday
		{RepeatMonthly, day(2025, time.April, 1), true},
		{RepeatMonthly, day(2025, time.April, 2), false},
		{RepeatQuarterly, day(2025, time.July, 1), true},
		{RepeatQuarterly, day(2025, time.June, 1), false},
		{RepeatYearly, day(2026, time.January, 1), true},
		{RepeatYearly, day(2026, time.February, 1), false},
	}
	for _, c := range cases {
		if got := cadenceMatches(c.period, c.d); got != c.want {
			t.Errorf("cadenceMatches(%s, %s) = %v, want %v", c.period, c.d, got, c.want)
		}
	}
}

func TestOnVacationHalfOpen(t *testing.T) {
	user := testUser()
	start := time.Date(2025, time.March, 11, 9, 0, 0, 0, time.UTC)
	end := time.Date(2025, time.March, 13, 17, 0, 0, 0, time.UTC)
	v, err := user.AddVacation(start, end)
	if err != nil {
		t.Fatalf("AddVacation failed: %v", err)
	}

	if user.OnVacation(DayOf(start.AddDate(0, 0, -1))) {
		t.Error("day before start should not be on vacation")
	}
	if !user.OnVacation(DayOf(start)) {
		t.Error("start day should be on vacation")
	}
	if user.OnVacation(DayOf(end)) {
		t.Error("end day is excluded by the half-open window")
	}

	if _, err := user.ArchiveVacation(v.ID); err != nil {
		t.Fatalf("ArchiveVacation failed: %v", err)
	}
	if user.OnVacation(DayOf(start)) {
		t.Error("archived vacation should not count")
	}
}
