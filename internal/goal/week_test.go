package goal

import (
	"errors"
	"testing"
	"time"
)

func TestQuarterWeekRange(t *testing.T) {
	cases := []struct {
		name      string
		year      int
		quarter   int
		startWeek int
		endWeek   int
	}{
		// 2024 starts on a Monday: clean alignment.
		{"2024 Q1", 2024, 1, 1, 13},
		{"2024 Q2", 2024, 2, 14, 26},
		// Dec 31 2024 falls in ISO week 1 of 2025; clamp to week 52.
		{"2024 Q4 spills into next ISO year", 2024, 4, 40, 52},
		// Jan 1 2021 falls in ISO week 53 of 2020; clamp to week 1.
		{"2021 Q1 starts in prior ISO year", 2021, 1, 1, 13},
		// 2020 is a 53-week ISO year.
		{"2020 Q4 ends week 53", 2020, 4, 40, 53},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r, err := QuarterWeekRange(tc.year, tc.quarter)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if r.StartWeek != tc.startWeek || r.EndWeek != tc.endWeek {
				t.Errorf("got weeks %d-%d, want %d-%d", r.StartWeek, r.EndWeek, tc.startWeek, tc.endWeek)
			}
			if r.EndWeek < r.StartWeek {
				t.Errorf("range not ascending: %d-%d", r.StartWeek, r.EndWeek)
			}
		})
	}
}

func TestQuarterWeekRange_InvalidQuarter(t *testing.T) {
	for _, q := range []int{0, 5, -1} {
		if _, err := QuarterWeekRange(2024, q); !errors.Is(err, ErrInvalidGoal) {
			t.Errorf("quarter %d: got %v, want ErrInvalidGoal", q, err)
		}
	}
}

func TestWeekBounds(t *testing.T) {
	start, end := WeekBounds(2024, 3)
	wantStart := time.Date(2024, time.January, 15, 0, 0, 0, 0, time.UTC)
	if !start.Equal(wantStart) {
		t.Errorf("week 3 2024 start = %v, want %v", start, wantStart)
	}
	if end.Weekday() != time.Sunday {
		t.Errorf("week end is %v, want Sunday", end.Weekday())
	}
	if got := end.Sub(start); got != 7*24*time.Hour-time.Second {
		t.Errorf("week span = %v", got)
	}

	// Jan 4 is always in ISO week 1; 2021's week 1 starts Jan 4.
	start, _ = WeekBounds(2021, 1)
	if want := time.Date(2021, time.January, 4, 0, 0, 0, 0, time.UTC); !start.Equal(want) {
		t.Errorf("week 1 2021 start = %v, want %v", start, want)
	}
}
