package domain

import "time"

// cadenceMatches reports whether a repeating task fires on the given day.
func cadenceMatches(period RepeatPeriod, d Day) bool {
	t := d.Time()
	switch period {
	case RepeatDaily:
		return true
	case RepeatWeekly:
		return t.Weekday() == time.Monday
	case RepeatMonthly:
		return t.Day() == 1
	case RepeatQuarterly:
		switch t.Month() {
		case time.January, time.April, time.July, time.October:
			return t.Day() == 1
		}
		return false
	case RepeatYearly:
		return t.Month() == time.January && t.Day() == 1
	default:
		return false
	}
}

// beforeDeadline reports whether the day is strictly before the deadline on
// the day grain. A nil deadline never constrains.
func beforeDeadline(d Day, deadline *time.Time) bool {
	if deadline == nil {
		return true
	}
	return d.Before(DayOf(*deadline))
}

// GenerateOccurrences walks every repeating task day-by-day from its last
// occurrence up to and including today, appending a fresh entry for each day
// the cadence fires. It mutates the schedule in place and returns how many
// entries were added, so the caller can skip the save (and the version bump)
// when nothing changed.
//
// REGULAR-urgency tasks skip days inside a vacation window and emit nothing
// while the task, its goal, or the plan is suspended; CRITICAL tasks bypass
// both checks.
func GenerateOccurrences(plan *Plan, schedule *Schedule, user *User, today Day) (int, error) {
	added := 0
	for _, task := range plan.Tasks {
		if task.Repeat == nil || task.Archived {
			continue
		}
		goal, err := plan.goalByID(task.GoalID, true)
		if err != nil {
			return added, Integrity("task %d owner goal %d missing", task.ID, task.GoalID)
		}
		if goal.Archived || goal.Done {
			continue
		}

		st, err := schedule.ScheduledTaskFor(task.ID)
		if err != nil {
			return added, err
		}
		last := st.Current()
		if last == nil {
			return added, Integrity("scheduled task for task %d has no entries", task.ID)
		}
		if !beforeDeadline(last.Day, goal.Deadline) || !beforeDeadline(last.Day, task.Deadline) {
			continue
		}

		for d := last.Day.Next(); !d.After(today); d = d.Next() {
			if !cadenceMatches(*task.Repeat, d) {
				continue
			}
			if !beforeDeadline(d, goal.Deadline) || !beforeDeadline(d, task.Deadline) {
				continue
			}
			if task.Urgency == UrgencyRegular {
				if plan.Suspended || goal.Suspended || task.Suspended {
					continue
				}
				if user.OnVacation(d) {
					continue
				}
			}
			status, err := FreshStatus(task.DonePolicy.Policy)
			if err != nil {
				return added, err
			}
			st.Entries = append(st.Entries, ScheduledTaskEntry{
				Status: DoneStatusBox{Status: status},
				Day:    d,
			})
			added++
		}
	}
	return added, nil
}
