package engine

import (
	"time"

	"github.com/google/uuid"

	"github.com/openvolunteering/postulate/pkg/calendar"
	"github.com/openvolunteering/postulate/pkg/model"
)

// GenerateSessions expands a work instance against its work's hour blocks
// into the concrete dated sessions of the contract. It is deterministic:
// the same work and instance always produce the same (date, time, week
// day) set. All sessions start PENDING.
//
// SESSION works yield exactly one session per hour block, all dated at the
// work's start date. RECURRING works yield one session per hour block per
// week of the instance window.
func GenerateSessions(work *model.Work, inst *model.WorkInstance) []model.WorkSession {
	if work.Kind == model.KindSession {
		sessions := make([]model.WorkSession, 0, len(work.HourBlocks))
		day := calendar.WeekdayOf(work.StartDate)
		for _, block := range work.HourBlocks {
			sessions = append(sessions, newSession(inst.ID, work.StartDate, block.Start, day))
		}
		return sessions
	}

	window := model.DateRange{Start: inst.StartDate, End: inst.EndDate}
	var sessions []model.WorkSession

	// Walk week by week from the Monday of the first week. The candidate
	// date is re-checked against both the window and the block's week day
	// so a window boundary falling mid-week cannot let a stray date in.
	for cursor := calendar.MondayOnOrBefore(inst.StartDate); !cursor.After(inst.EndDate); cursor = cursor.AddDate(0, 0, 7) {
		for _, block := range work.HourBlocks {
			candidate := cursor.AddDate(0, 0, mod7(int(block.Day)-1))
			if window.Contains(candidate) && calendar.WeekdayOf(candidate) == block.Day {
				sessions = append(sessions, newSession(inst.ID, candidate, block.Start, block.Day))
			}
		}
	}

	return sessions
}

func newSession(instanceID string, date time.Time, start calendar.TimeOfDay, day calendar.WeekDay) model.WorkSession {
	return model.WorkSession{
		ID:         uuid.New().String(),
		InstanceID: instanceID,
		Date:       date,
		Start:      start,
		WeekDay:    day,
		Status:     model.SessionPending,
	}
}

func mod7(n int) int {
	return ((n % 7) + 7) % 7
}
