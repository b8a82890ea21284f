package domain

import (
	"fmt"
	"time"
)

// CycleDate identifies one weekly matching cycle as an ISO week, for example
// "2024-W10". At most one batch exists per cycle date.
type CycleDate string

// CycleDateFor returns the ISO week containing t.
func CycleDateFor(t time.Time) CycleDate {
	year, week := t.UTC().ISOWeek()
	return CycleDate(fmt.Sprintf("%04d-W%02d", year, week))
}

// ParseCycleDate validates s as an ISO week and returns it in canonical form.
// A plain calendar date (2006-01-02) is accepted and converted to its week.
func ParseCycleDate(s string) (CycleDate, error) {
	var year, week int
	if n, err := fmt.Sscanf(s, "%4d-W%2d", &year, &week); err == nil && n == 2 {
		cd := CycleDate(fmt.Sprintf("%04d-W%02d", year, week))
		if string(cd) != s {
			return "", fmt.Errorf("%w: %q", ErrInvalidCycleDate, s)
		}
		if week < 1 || week > weeksInYear(year) {
			return "", fmt.Errorf("%w: week %d out of range for %d", ErrInvalidCycleDate, week, year)
		}
		return cd, nil
	}

	if t, err := time.Parse(time.DateOnly, s); err == nil {
		return CycleDateFor(t), nil
	}

	return "", fmt.Errorf("%w: %q", ErrInvalidCycleDate, s)
}

// Start returns Monday 00:00 UTC of the cycle's week. It is the reference
// time for eligibility and the LastMatchedAt value written on commit, so that
// a retried cycle sees exactly the same pool.
func (c CycleDate) Start() (time.Time, error) {
	var year, week int
	if _, err := fmt.Sscanf(string(c), "%4d-W%2d", &year, &week); err != nil {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidCycleDate, string(c))
	}

	// January 4th is always in ISO week 1.
	jan4 := time.Date(year, time.January, 4, 0, 0, 0, 0, time.UTC)
	offset := (int(jan4.Weekday()) + 6) % 7
	week1Monday := jan4.AddDate(0, 0, -offset)
	return week1Monday.AddDate(0, 0, (week-1)*7), nil
}

// String implements fmt.Stringer.
func (c CycleDate) String() string {
	return string(c)
}

func weeksInYear(year int) int {
	_, week := time.Date(year, time.December, 28, 0, 0, 0, 0, time.UTC).ISOWeek()
	return week
}
