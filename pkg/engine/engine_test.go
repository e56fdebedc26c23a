package engine

import (
	"time"

	"go.uber.org/zap"

	"github.com/openvolunteering/postulate/pkg/calendar"
	"github.com/openvolunteering/postulate/pkg/model"
)

// The engine tests run against a frozen clock: Monday 2024-01-15.
var testToday = calendar.Date(2024, time.January, 15)

func testEngine(f *fakeStore) *Engine {
	e := New(f, zap.NewNop())
	e.now = func() time.Time { return testToday.Add(10 * time.Hour) }
	return e
}

func block(day calendar.WeekDay, hour int) calendar.HourBlock {
	return calendar.HourBlock{Day: day, Start: calendar.TimeOfDay{Hour: hour}}
}

func dr(start, end time.Time) model.DateRange {
	return model.DateRange{Start: start, End: end}
}

func addWork(f *fakeStore, id, supplierID string, kind model.WorkKind, window model.DateRange, capacity int, blocks ...calendar.HourBlock) *model.Work {
	w := &model.Work{
		ID:         id,
		SupplierID: supplierID,
		Name:       id,
		Kind:       kind,
		StartDate:  window.Start,
		EndDate:    window.End,
		Capacity:   capacity,
		HourBlocks: blocks,
	}
	f.works[id] = w
	return w
}

func addPostulation(f *fakeStore, id, volunteerID, workID string, r model.DateRange, status model.PostulationStatus) *model.Postulation {
	p := &model.Postulation{
		ID:          id,
		VolunteerID: volunteerID,
		WorkID:      workID,
		StartDate:   r.Start,
		EndDate:     r.End,
		Status:      status,
		SubmittedOn: testToday,
	}
	f.postulations[id] = p
	return p
}

var (
	volunteer = model.Actor{UserID: "vol-1", Role: model.RoleVolunteer}
	supplier  = model.Actor{UserID: "sup-1", Role: model.RoleSupplier}
)
