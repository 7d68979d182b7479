package goal

import (
	"fmt"
	"time"
)

// WeekRange is the contiguous ISO-week span of one quarter. StartWeek and
// EndWeek are clamped to the quarter's own ISO year: Q1's first days can
// fall in week 52/53 of the prior year (clamped up to 1), and Q4's last
// days can fall in week 1 of the next year (clamped down to the year's
// final ISO week). Keys derived from the range therefore sort naturally.
type WeekRange struct {
	StartWeek int       `json:"start_week"`
	EndWeek   int       `json:"end_week"`
	Start     time.Time `json:"start"`
	End       time.Time `json:"end"`
}

// Weeks returns the number of week slots in the range.
func (r WeekRange) Weeks() int { return r.EndWeek - r.StartWeek + 1 }

// QuarterWeekRange resolves the full ISO-week range of (year, quarter).
func QuarterWeekRange(year, quarter int) (WeekRange, error) {
	if quarter < 1 || quarter > 4 {
		return WeekRange{}, fmt.Errorf("%w: quarter %d out of range", ErrInvalidGoal, quarter)
	}

	start := time.Date(year, time.Month(3*(quarter-1)+1), 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 3, -1)

	sy, sw := start.ISOWeek()
	if sy < year {
		sw = 1
	}
	ey, ew := end.ISOWeek()
	if ey > year {
		ew = lastISOWeek(year)
	}

	return WeekRange{StartWeek: sw, EndWeek: ew, Start: start, End: end}, nil
}

// WeekBounds returns the Monday 00:00 and Sunday 23:59:59 UTC instants of
// the given ISO week.
func WeekBounds(year, week int) (time.Time, time.Time) {
	// January 4 is always inside ISO week 1.
	jan4 := time.Date(year, time.January, 4, 0, 0, 0, 0, time.UTC)
	offset := int(jan4.Weekday())
	if offset == 0 {
		offset = 7 // Sunday
	}
	week1Monday := jan4.AddDate(0, 0, 1-offset)

	start := week1Monday.AddDate(0, 0, (week-1)*7)
	end := start.AddDate(0, 0, 7).Add(-time.Second)
	return start, end
}

// lastISOWeek returns 52 or 53: December 28 is always in the final week.
func lastISOWeek(year int) int {
	_, w := time.Date(year, time.December, 28, 0, 0, 0, 0, time.UTC).ISOWeek()
	return w
}

// WeekOf returns the ISO week number a hierarchy goal created at t belongs
// to, clamped into the quarter's range the same way QuarterWeekRange clamps
// its endpoints.
func WeekOf(t time.Time, year, quarter int) (int, error) {
	r, err := QuarterWeekRange(year, quarter)
	if err != nil {
		return 0, err
	}
	_, w := t.UTC().ISOWeek()
	if w < r.StartWeek {
		w = r.StartWeek
	}
	if w > r.EndWeek {
		w = r.EndWeek
	}
	return w, nil
}
