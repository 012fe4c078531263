package domain

import "time"

// GoalRange bounds the time horizon of a goal. A child goal's effective
// range can never be broader than its parent's.
type GoalRange string

const (
	RangeLifetime  GoalRange = "LIFETIME"
	RangeFiveYears GoalRange = "FIVE_YEARS"
	RangeYear      GoalRange = "YEAR"
	RangeQuarter   GoalRange = "QUARTER"
	RangeMonth     GoalRange = "MONTH"
)

// Broadest-first ordering used by the narrowing rule.
var rangeBreadth = map[GoalRange]int{
	RangeLifetime:  4,
	RangeFiveYears: 3,
	RangeYear:      2,
	RangeQuarter:   1,
	RangeMonth:     0,
}

func (r GoalRange) Valid() bool {
	_, ok := rangeBreadth[r]
	return ok
}

// NarrowRange clamps a child range to be no broader than its parent's.
// It is idempotent: clamping an already-clamped range is a no-op.
func NarrowRange(child, parent GoalRange) GoalRange {
	if rangeBreadth[child] > rangeBreadth[parent] {
		return parent
	}
	return child
}

// RangeDeadline derives a goal's deadline from its range and the clamp
// instant. Deadlines are exclusive: the first instant past the period.
// LIFETIME goals carry none.
func RangeDeadline(r GoalRange, now time.Time) *time.Time {
	u := now.UTC()
	var deadline time.Time
	switch r {
	case RangeLifetime:
		return nil
	case RangeFiveYears:
		deadline = time.Date(u.Year()+6, time.January, 1, 0, 0, 0, 0, time.UTC)
	case RangeYear:
		deadline = time.Date(u.Year()+1, time.January, 1, 0, 0, 0, 0, time.UTC)
	case RangeQuarter:
		quarterStart := time.Month((int(u.Month())-1)/3*3 + 1)
		deadline = time.Date(u.Year(), quarterStart, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 3, 0)
	case RangeMonth:
		deadline = time.Date(u.Year(), u.Month(), 1, 0, 0, 0, 0, time.UTC).AddDate(0, 1, 0)
	default:
		return nil
	}
	return &deadline
}
