package engine

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openvolunteering/postulate/pkg/calendar"
	"github.com/openvolunteering/postulate/pkg/model"
)

func TestMonthWindowRange(t *testing.T) {
	r := MonthWindow{Year: 2024, Month: time.February}.Range()
	assert.Equal(t, calendar.Date(2024, time.February, 1), r.Start)
	assert.Equal(t, calendar.Date(2024, time.February, 29), r.End) // leap year

	r = MonthWindow{Year: 2024, Month: time.December}.Range()
	assert.Equal(t, calendar.Date(2024, time.December, 31), r.End)
}

func TestOpenWorks_HidesFullWorks(t *testing.T) {
	f := newFakeStore()
	e := testEngine(f)
	window := dr(calendar.Date(2024, time.February, 1), calendar.Date(2024, time.February, 29))
	addWork(f, "w-open", "sup-1", model.KindRecurring, window, 2, block(calendar.Tuesday, 10))
	addWork(f, "w-full", "sup-1", model.KindRecurring, window, 1, block(calendar.Friday, 16))
	f.instances["i1"] = &model.WorkInstance{ID: "i1", WorkID: "w-full", VolunteerID: "vol-9"}
	month := MonthWindow{Year: 2024, Month: time.February}

	listings, err := e.OpenWorks(context.Background(), volunteer, month)
	require.NoError(t, err)
	require.Len(t, listings, 1)
	assert.Equal(t, "w-open", listings[0].Work.ID)
}

func TestOpenWorks_KeepsFullWorkForItsVolunteer(t *testing.T) {
	f := newFakeStore()
	e := testEngine(f)
	window := dr(calendar.Date(2024, time.February, 1), calendar.Date(2024, time.February, 29))
	addWork(f, "w-full", "sup-1", model.KindRecurring, window, 1, block(calendar.Friday, 16))
	addPostulation(f, "p1", "vol-1", "w-full", window, model.PostulationAccepted)
	f.instances["i1"] = &model.WorkInstance{ID: "i1", WorkID: "w-full", VolunteerID: "vol-1"}
	month := MonthWindow{Year: 2024, Month: time.February}

	// The volunteer holding the contract still sees the work.
	listings, err := e.OpenWorks(context.Background(), volunteer, month)
	require.NoError(t, err)
	require.Len(t, listings, 1)
	assert.True(t, listings[0].Postulated)

	// Anyone else does not.
	other := model.Actor{UserID: "vol-2", Role: model.RoleVolunteer}
	listings, err = e.OpenWorks(context.Background(), other, month)
	require.NoError(t, err)
	assert.Empty(t, listings)
}

func TestOpenWorks_ExcludesOtherMonths(t *testing.T) {
	f := newFakeStore()
	e := testEngine(f)
	addWork(f, "w-feb", "sup-1", model.KindRecurring,
		dr(calendar.Date(2024, time.February, 1), calendar.Date(2024, time.February, 29)),
		2, block(calendar.Tuesday, 10))
	addWork(f, "w-apr", "sup-1", model.KindRecurring,
		dr(calendar.Date(2024, time.April, 1), calendar.Date(2024, time.April, 30)),
		2, block(calendar.Tuesday, 10))
	// Straddles the February/March boundary, overlaps both months.
	addWork(f, "w-straddle", "sup-1", model.KindRecurring,
		dr(calendar.Date(2024, time.February, 20), calendar.Date(2024, time.March, 10)),
		2, block(calendar.Tuesday, 10))

	listings, err := e.OpenWorks(context.Background(), volunteer, MonthWindow{Year: 2024, Month: time.February})
	require.NoError(t, err)
	require.Len(t, listings, 2)
	assert.Equal(t, "w-feb", listings[0].Work.ID)
	assert.Equal(t, "w-straddle", listings[1].Work.ID)
}

func TestVolunteerPostulations(t *testing.T) {
	f := newFakeStore()
	e := testEngine(f)
	window := yearWindow()
	addWork(f, "w1", "sup-1", model.KindRecurring, window, 2, block(calendar.Tuesday, 10))
	addPostulation(f, "p1", "vol-1", "w1", window, model.PostulationPending)
	addPostulation(f, "p2", "vol-2", "w1", window, model.PostulationPending)

	ps, err := e.VolunteerPostulations(context.Background(), volunteer)
	require.NoError(t, err)
	require.Len(t, ps, 1)
	assert.Equal(t, "p1", ps[0].ID)

	_, err = e.VolunteerPostulations(context.Background(), supplier)
	assert.Equal(t, KindForbidden, KindOf(err))
}

func TestWorkPendingPostulations(t *testing.T) {
	f := newFakeStore()
	e := testEngine(f)
	window := yearWindow()
	addWork(f, "w1", "sup-1", model.KindRecurring, window, 3, block(calendar.Tuesday, 10))
	addPostulation(f, "p1", "vol-1", "w1", window, model.PostulationPending)
	addPostulation(f, "p2", "vol-2", "w1", window, model.PostulationAccepted)
	addPostulation(f, "p3", "vol-3", "w1", window, model.PostulationRejected)

	ps, err := e.WorkPendingPostulations(context.Background(), supplier, "w1")
	require.NoError(t, err)
	require.Len(t, ps, 1)
	assert.Equal(t, "p1", ps[0].ID)

	otherSupplier := model.Actor{UserID: "sup-2", Role: model.RoleSupplier}
	_, err = e.WorkPendingPostulations(context.Background(), otherSupplier, "w1")
	assert.Equal(t, KindForbidden, KindOf(err))

	_, err = e.WorkPendingPostulations(context.Background(), supplier, "missing")
	assert.Equal(t, KindNotFound, KindOf(err))
}

func TestInstanceSessions_Authorization(t *testing.T) {
	f := newFakeStore()
	e := testEngine(f)
	window := yearWindow()
	addWork(f, "w1", "sup-1", model.KindRecurring, window, 2, block(calendar.Tuesday, 10))
	f.instances["i1"] = &model.WorkInstance{ID: "i1", WorkID: "w1", VolunteerID: "vol-1"}
	f.sessions["s1"] = &model.WorkSession{
		ID:         "s1",
		InstanceID: "i1",
		Date:       calendar.Date(2024, time.January, 2),
		Start:      calendar.TimeOfDay{Hour: 10},
		WeekDay:    calendar.Tuesday,
		Status:     model.SessionPending,
	}

	// Both the contract's volunteer and the work's supplier can read.
	for _, actor := range []model.Actor{volunteer, supplier} {
		sessions, err := e.InstanceSessions(context.Background(), actor, "i1")
		require.NoError(t, err)
		assert.Len(t, sessions, 1)
	}

	otherVolunteer := model.Actor{UserID: "vol-2", Role: model.RoleVolunteer}
	_, err := e.InstanceSessions(context.Background(), otherVolunteer, "i1")
	assert.Equal(t, KindForbidden, KindOf(err))

	otherSupplier := model.Actor{UserID: "sup-2", Role: model.RoleSupplier}
	_, err = e.InstanceSessions(context.Background(), otherSupplier, "i1")
	assert.Equal(t, KindForbidden, KindOf(err))

	_, err = e.InstanceSessions(context.Background(), volunteer, "missing")
	assert.Equal(t, KindNotFound, KindOf(err))
}

func TestWorkSessionsAt(t *testing.T) {
	f := newFakeStore()
	e := testEngine(f)
	window := yearWindow()
	addWork(f, "w1", "sup-1", model.KindRecurring, window, 3, block(calendar.Tuesday, 10))

	date := calendar.Date(2024, time.January, 2)
	ten := calendar.TimeOfDay{Hour: 10}
	for i, vol := range []string{"vol-1", "vol-2"} {
		instID := "i" + string(rune('1'+i))
		f.instances[instID] = &model.WorkInstance{ID: instID, WorkID: "w1", VolunteerID: vol}
		f.sessions["s-"+vol] = &model.WorkSession{
			ID: "s-" + vol, InstanceID: instID,
			Date: date, Start: ten, WeekDay: calendar.Tuesday,
			Status: model.SessionPending,
		}
	}
	// Same work, different date: excluded from the view.
	f.sessions["s-other"] = &model.WorkSession{
		ID: "s-other", InstanceID: "i1",
		Date: calendar.Date(2024, time.January, 9), Start: ten, WeekDay: calendar.Tuesday,
		Status: model.SessionPending,
	}

	sessions, err := e.WorkSessionsAt(context.Background(), supplier, "w1", date, ten)
	require.NoError(t, err)
	assert.Len(t, sessions, 2)
}

func TestSupplierWorks(t *testing.T) {
	f := newFakeStore()
	e := testEngine(f)
	window := dr(calendar.Date(2024, time.February, 1), calendar.Date(2024, time.February, 29))
	addWork(f, "w-mine", "sup-1", model.KindRecurring, window, 2, block(calendar.Tuesday, 10))
	addWork(f, "w-theirs", "sup-2", model.KindRecurring, window, 2, block(calendar.Friday, 16))

	works, err := e.SupplierWorks(context.Background(), supplier, MonthWindow{Year: 2024, Month: time.February})
	require.NoError(t, err)
	require.Len(t, works, 1)
	assert.Equal(t, "w-mine", works[0].ID)

	_, err = e.SupplierWorks(context.Background(), volunteer, MonthWindow{Year: 2024, Month: time.February})
	assert.Equal(t, KindForbidden, KindOf(err))
}
