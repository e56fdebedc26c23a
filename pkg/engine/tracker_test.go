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

func trackerFixture(f *fakeStore) {
	addWork(f, "w1", "sup-1", model.KindRecurring, yearWindow(), 2, block(calendar.Monday, 10))
	f.instances["i1"] = &model.WorkInstance{
		ID: "i1", WorkID: "w1", VolunteerID: "vol-1",
		StartDate: calendar.Date(2024, time.January, 1),
		EndDate:   calendar.Date(2024, time.January, 31),
	}
	f.sessions["s-past"] = &model.WorkSession{
		ID: "s-past", InstanceID: "i1",
		Date:    calendar.Date(2024, time.January, 8), // before the frozen today
		Start:   calendar.TimeOfDay{Hour: 10},
		WeekDay: calendar.Monday,
		Status:  model.SessionPending,
	}
	f.sessions["s-future"] = &model.WorkSession{
		ID: "s-future", InstanceID: "i1",
		Date:    calendar.Date(2024, time.January, 22),
		Start:   calendar.TimeOfDay{Hour: 10},
		WeekDay: calendar.Monday,
		Status:  model.SessionPending,
	}
}

func TestSetSessionStatus_RecordsPastSession(t *testing.T) {
	f := newFakeStore()
	e := testEngine(f)
	trackerFixture(f)

	require.NoError(t, e.SetSessionStatus(context.Background(), supplier, "s-past", model.SessionAttended))
	assert.Equal(t, model.SessionAttended, f.sessions["s-past"].Status)

	// Overwriting is allowed and idempotent.
	require.NoError(t, e.SetSessionStatus(context.Background(), supplier, "s-past", model.SessionAbsent))
	require.NoError(t, e.SetSessionStatus(context.Background(), supplier, "s-past", model.SessionAbsent))
	assert.Equal(t, model.SessionAbsent, f.sessions["s-past"].Status)
}

func TestSetSessionStatus_SessionTodayIsRecordable(t *testing.T) {
	f := newFakeStore()
	e := testEngine(f)
	trackerFixture(f)
	f.sessions["s-today"] = &model.WorkSession{
		ID: "s-today", InstanceID: "i1",
		Date:   testToday,
		Start:  calendar.TimeOfDay{Hour: 10},
		Status: model.SessionPending,
	}

	require.NoError(t, e.SetSessionStatus(context.Background(), supplier, "s-today", model.SessionAttended))
}

func TestSetSessionStatus_RefusesFutureSession(t *testing.T) {
	f := newFakeStore()
	e := testEngine(f)
	trackerFixture(f)

	err := e.SetSessionStatus(context.Background(), supplier, "s-future", model.SessionAttended)
	require.Error(t, err)
	assert.Equal(t, KindInvalidState, KindOf(err))
	assert.Equal(t, model.SessionPending, f.sessions["s-future"].Status)
}

func TestSetSessionStatus_Authorization(t *testing.T) {
	f := newFakeStore()
	e := testEngine(f)
	trackerFixture(f)

	err := e.SetSessionStatus(context.Background(), volunteer, "s-past", model.SessionAttended)
	assert.Equal(t, KindForbidden, KindOf(err))

	otherSupplier := model.Actor{UserID: "sup-2", Role: model.RoleSupplier}
	err = e.SetSessionStatus(context.Background(), otherSupplier, "s-past", model.SessionAttended)
	assert.Equal(t, KindForbidden, KindOf(err))

	err = e.SetSessionStatus(context.Background(), supplier, "missing", model.SessionAttended)
	assert.Equal(t, KindNotFound, KindOf(err))

	err = e.SetSessionStatus(context.Background(), supplier, "s-past", model.SessionStatus("LOST"))
	assert.Equal(t, KindInvalidState, KindOf(err))
}
