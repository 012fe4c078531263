package domain

import (
	"testing"
	"time"
)

func TestNarrowRange(t *testing.T) {
	cases := []struct {
		child, parent, want GoalRange
	}{
		{RangeLifetime, RangeYear, RangeYear},
		{RangeFiveYears, RangeQuarter, RangeQuarter},
		{RangeMonth, RangeLifetime, RangeMonth},
		{RangeYear, RangeYear, RangeYear},
		{RangeQuarter, RangeFiveYears, RangeQuarter},
	}
	for _, c := range cases {
		if got := NarrowRange(c.child, c.parent); got != c.want {
			t.Errorf("NarrowRange(%s, %s) = %s, want %s", c.child, c.parent, got, c.want)
		}
	}
}

func TestNarrowRangeIdempotent(t *testing.T) {
	for child := range rangeBreadth {
		for parent := range rangeBreadth {
			once := NarrowRange(child, parent)
			twice := NarrowRange(once, parent)
			if once != twice {
				t.Errorf("NarrowRange(%s, %s) not idempotent: %s then %s", child, parent, once, twice)
			}
		}
	}
}

func TestRangeDeadline(t *testing.T) {
	now := time.Date(2025, time.May, 14, 16, 30, 0, 0, time.UTC)

	if d := RangeDeadline(RangeLifetime, now); d != nil {
		t.Errorf("LIFETIME deadline = %v, want nil", d)
	}

	cases := []struct {
		r    GoalRange
		want time.Time
	}{
		{RangeFiveYears, time.Date(2031, time.January, 1, 0, 0, 0, 0, time.UTC)},
		{RangeYear, time.Date(2026, time.January, 1, 0, 0, 0, 0, time.UTC)},
		{RangeQuarter, time.Date(2025, time.July, 1, 0, 0, 0, 0, time.UTC)},
		{RangeMonth, time.Date(2025, time.June, 1, 0, 0, 0, 0, time.UTC)},
	}
	for _, c := range cases {
		d := RangeDeadline(c.r, now)
		if d == nil || !d.Equal(c.want) {
			t.Errorf("RangeDeadline(%s) = %v, want %v", c.r, d, c.want)
		}
	}
}

func TestRangeDeadlineQuarterBoundary(t *testing.T) {
	// A clamp on the first day of a quarter still points at the next quarter.
	now := time.Date(2025, time.October, 1, 0, 0, 0, 0, time.UTC)
	d := RangeDeadline(RangeQuarter, now)
	want := time.Date(2026, time.January, 1, 0, 0, 0, 0, time.UTC)
	if d == nil || !d.Equal(want) {
		t.Errorf("RangeDeadline(QUARTER) = %v, want %v", d, want)
	}
}
