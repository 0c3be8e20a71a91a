package reports

import (
	"fmt"
	"time"
)

// ParseDateRange turns the from/to query strings of a report request
// into a closed UTC interval. Values are either calendar dates
// (2006-01-02) or RFC 3339 timestamps. A date-only "to" covers the
// whole day, so a single-day report uses from == to.
func ParseDateRange(fromStr, toStr string) (time.Time, time.Time, error) {
	if fromStr == "" || toStr == "" {
		return time.Time{}, time.Time{}, fmt.Errorf("both from and to are required")
	}

	from, _, err := parseDateParam(fromStr)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid from date %q: %w", fromStr, err)
	}

	to, dateOnly, err := parseDateParam(toStr)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid to date %q: %w", toStr, err)
	}
	if dateOnly {
		// Extend to the end of the day so the interval stays closed.
		to = to.AddDate(0, 0, 1).Add(-time.Nanosecond)
	}

	if from.After(to) {
		return time.Time{}, time.Time{}, fmt.Errorf("from %s is after to %s", fromStr, toStr)
	}
	return from, to, nil
}

// parseDateParam reports whether the value was date-only so callers can
// widen "to" bounds to the end of the day.
func parseDateParam(value string) (time.Time, bool, error) {
	if t, err := time.Parse(dayKeyLayout, value); err == nil {
		return t.UTC(), true, nil
	}
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return time.Time{}, false, err
	}
	return t.UTC(), false, nil
}
