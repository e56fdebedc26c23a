// Package calendar provides the date arithmetic shared by the scheduling
// engine: week day resolution, week alignment and the hour block model.
package calendar

import (
	"fmt"
	"strings"
	"time"
)

// WeekDay numbers the days of the week with Sunday as 0, matching
// time.Weekday.
type WeekDay int

const (
	Sunday WeekDay = iota
	Monday
	Tuesday
	Wednesday
	Thursday
	Friday
	Saturday
)

// DayFromWorkStart marks an hour block whose week day is not fixed: it is
// taken from the work's start date when the block is resolved. Only
// single-session works may carry such blocks.
const DayFromWorkStart WeekDay = -1

// Fixed reports whether the week day is a concrete day rather than the
// derived sentinel.
func (d WeekDay) Fixed() bool {
	return d != DayFromWorkStart
}

// Valid reports whether the week day is either a concrete day or the
// derived sentinel.
func (d WeekDay) Valid() bool {
	return d == DayFromWorkStart || (d >= Sunday && d <= Saturday)
}

// ParseWeekDay parses a week day name such as "monday" or "mon",
// case-insensitively. "start" names the derived sentinel.
func ParseWeekDay(s string) (WeekDay, error) {
	switch strings.ToLower(s) {
	case "start":
		return DayFromWorkStart, nil
	case "sunday", "sun":
		return Sunday, nil
	case "monday", "mon":
		return Monday, nil
	case "tuesday", "tue":
		return Tuesday, nil
	case "wednesday", "wed":
		return Wednesday, nil
	case "thursday", "thu":
		return Thursday, nil
	case "friday", "fri":
		return Friday, nil
	case "saturday", "sat":
		return Saturday, nil
	}
	return Sunday, fmt.Errorf("unknown week day %q", s)
}

func (d WeekDay) String() string {
	if d == DayFromWorkStart {
		return "from-work-start"
	}
	if d < Sunday || d > Saturday {
		return fmt.Sprintf("WeekDay(%d)", int(d))
	}
	return time.Weekday(d).String()
}

// TimeOfDay is a wall-clock time with minute precision.
type TimeOfDay struct {
	Hour   int
	Minute int
}

// ParseTimeOfDay parses a "15:04" formatted time of day.
func ParseTimeOfDay(s string) (TimeOfDay, error) {
	t, err := time.Parse("15:04", s)
	if err != nil {
		return TimeOfDay{}, fmt.Errorf("failed to parse time of day %q: %w", s, err)
	}
	return TimeOfDay{Hour: t.Hour(), Minute: t.Minute()}, nil
}

func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d", t.Hour, t.Minute)
}

// SameHour reports whether two times of day fall in the same hour of the
// day. Minutes are ignored on purpose: commitments are booked at hour
// granularity, so 10:00 and 10:30 occupy the same block.
func (t TimeOfDay) SameHour(o TimeOfDay) bool {
	return t.Hour == o.Hour
}

// HourBlock is one weekly availability slot: a week day and a time of day.
type HourBlock struct {
	Day   WeekDay
	Start TimeOfDay
}

// Resolve returns the block's concrete week day. Blocks carrying the
// DayFromWorkStart sentinel resolve to the week day of workStart.
func (b HourBlock) Resolve(workStart time.Time) WeekDay {
	if b.Day.Fixed() {
		return b.Day
	}
	return WeekdayOf(workStart)
}

func (b HourBlock) String() string {
	return fmt.Sprintf("%s %s", b.Day, b.Start)
}

// WeekdayOf returns the week day of a date, Sunday as 0.
func WeekdayOf(date time.Time) WeekDay {
	return WeekDay(date.Weekday())
}

// MondayOnOrBefore returns the Monday of the week containing date, at
// midnight in the date's location.
func MondayOnOrBefore(date time.Time) time.Time {
	d := Midnight(date)
	offset := (int(d.Weekday()) - int(time.Monday) + 7) % 7
	return d.AddDate(0, 0, -offset)
}

// Midnight truncates a date to midnight in its own location.
func Midnight(date time.Time) time.Time {
	return time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, date.Location())
}

// Date builds a midnight UTC date, the canonical form the engine stores.
func Date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// SameDate reports whether two instants fall on the same calendar date.
func SameDate(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}
