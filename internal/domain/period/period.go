// Package period computes and parses report date windows.
package period

import (
	"errors"
	"time"
)

// APILayout is the date format the Wildberries API expects.
const APILayout = "2006-01-02"

// SheetLayout is the dotted format commonly used in the settings sheet.
const SheetLayout = "02.01.2006"

// ErrUnknownLayout is returned when a date string matches no known layout.
var ErrUnknownLayout = errors.New("unknown date layout")

// Period is an inclusive report window.
type Period struct {
	From time.Time
	To   time.Time
}

// PreviousWeek returns the previous ISO week relative to now, in now's
// location: Monday 00:00:00 through Sunday 23:59:59.999999999.
func PreviousWeek(now time.Time) Period {
	// Days since Monday of the current week (Go weeks start on Sunday).
	sinceMonday := (int(now.Weekday()) + 6) % 7

	currentMonday := now.AddDate(0, 0, -sinceMonday)
	previousMonday := currentMonday.AddDate(0, 0, -7)
	previousSunday := currentMonday.AddDate(0, 0, -1)

	loc := now.Location()
	from := time.Date(previousMonday.Year(), previousMonday.Month(), previousMonday.Day(), 0, 0, 0, 0, loc)
	to := time.Date(previousSunday.Year(), previousSunday.Month(), previousSunday.Day(), 23, 59, 59, int(time.Second-time.Nanosecond), loc)
	return Period{From: from, To: to}
}

// Week returns a pinned window for explicit start and end days of a month.
func Week(year int, month time.Month, startDay, endDay int, loc *time.Location) Period {
	return Period{
		From: time.Date(year, month, startDay, 0, 0, 0, 0, loc),
		To:   time.Date(year, month, endDay, 23, 59, 59, int(time.Second-time.Nanosecond), loc),
	}
}

// FormatAPI renders t in the WB API date format.
func FormatAPI(t time.Time) string {
	return t.Format(APILayout)
}

// Parse accepts dates in either APILayout or SheetLayout.
func Parse(s string, loc *time.Location) (time.Time, error) {
	t, _, err := ParseWithLayout(s, loc)
	return t, err
}

// ParseWithLayout parses s and also reports which layout matched, so
// callers can write dates back in the same style.
func ParseWithLayout(s string, loc *time.Location) (time.Time, string, error) {
	for _, layout := range []string{APILayout, SheetLayout} {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t, layout, nil
		}
	}
	return time.Time{}, "", ErrUnknownLayout
}

// DetectLayout reports the layout of s, defaulting to APILayout when s
// is empty or unrecognized.
func DetectLayout(s string) string {
	if _, layout, err := ParseWithLayout(s, time.UTC); err == nil {
		return layout
	}
	return APILayout
}
