// Package timeutil provides date handling for the school intranet.
// The intranet speaks wall-clock time in the school's timezone and formats
// dates as "YYYY-MM-DD" and date-times as "YYYY-MM-DD HH:MM:SS".
// No external dependencies - uses only standard library. Zone data is
// embedded so the school timezone resolves on hosts without tzdata.
package timeutil

import (
	"fmt"
	"time"
	_ "time/tzdata"
)

// Layouts used by the intranet API.
const (
	DateLayout     = "2006-01-02"
	DateTimeLayout = "2006-01-02 15:04:05"
	ClockLayout    = "15:04"
)

// SchoolTZ is the timezone used when no other location is configured.
var SchoolTZ = mustLoad("Europe/Paris")

func mustLoad(name string) *time.Location {
	loc, err := time.LoadLocation(name)
	if err != nil {
		panic(fmt.Sprintf("timeutil: load %s: %v", name, err))
	}
	return loc
}

// StartOfDay truncates t to midnight in t's location.
func StartOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// ParseDate parses a strict "YYYY-MM-DD" calendar date in loc.
// Out of range values such as "2020-02-30" are rejected.
func ParseDate(value string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = SchoolTZ
	}
	t, err := time.ParseInLocation(DateLayout, value, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse date %q: %w", value, err)
	}
	return t, nil
}

// FormatDate formats t as "YYYY-MM-DD".
func FormatDate(t time.Time) string {
	return t.Format(DateLayout)
}

// ParseDateTime parses an intranet "YYYY-MM-DD HH:MM:SS" wall-clock value.
func ParseDateTime(value string) (time.Time, error) {
	t, err := time.Parse(DateTimeLayout, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse date-time %q: %w", value, err)
	}
	return t, nil
}
