package engine

import (
	"fmt"
	"sort"
	"time"

	"github.com/teambition/rrule-go"

	"github.com/openvolunteering/postulate/pkg/calendar"
	"github.com/openvolunteering/postulate/pkg/model"
)

var rruleWeekdays = map[calendar.WeekDay]rrule.Weekday{
	calendar.Sunday:    rrule.SU,
	calendar.Monday:    rrule.MO,
	calendar.Tuesday:   rrule.TU,
	calendar.Wednesday: rrule.WE,
	calendar.Thursday:  rrule.TH,
	calendar.Friday:    rrule.FR,
	calendar.Saturday:  rrule.SA,
}

// Occurrences returns the distinct dates a work occurs on within a
// window, without creating anything. It is the calendar-view counterpart
// of session generation and agrees with it on any shared window: a
// SESSION work occurs on its start date only, a RECURRING work on every
// date in the window matching one of its hour block week days.
func Occurrences(work *model.Work, window model.DateRange) ([]time.Time, error) {
	window = clip(window, work.Window())
	if window.Start.After(window.End) {
		return nil, nil
	}

	if work.Kind == model.KindSession {
		if window.Contains(work.StartDate) {
			return []time.Time{work.StartDate}, nil
		}
		return nil, nil
	}

	days := make([]rrule.Weekday, 0, len(work.HourBlocks))
	seen := make(map[calendar.WeekDay]struct{}, len(work.HourBlocks))
	for _, block := range work.HourBlocks {
		day := block.Resolve(work.StartDate)
		if _, dup := seen[day]; dup {
			continue
		}
		seen[day] = struct{}{}
		days = append(days, rruleWeekdays[day])
	}

	rule, err := rrule.NewRRule(rrule.ROption{
		Freq:      rrule.WEEKLY,
		Dtstart:   calendar.Midnight(window.Start.UTC()),
		Until:     calendar.Midnight(window.End.UTC()),
		Byweekday: days,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to build recurrence rule: %w", err)
	}

	dates := rule.All()
	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })
	return dates, nil
}

func clip(r, bounds model.DateRange) model.DateRange {
	if r.Start.Before(bounds.Start) {
		r.Start = bounds.Start
	}
	if r.End.After(bounds.End) {
		r.End = bounds.End
	}
	return r
}
