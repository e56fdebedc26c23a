package engine

import (
	"context"
	"time"

	"github.com/openvolunteering/postulate/pkg/calendar"
	"github.com/openvolunteering/postulate/pkg/model"
)

// MonthWindow names one calendar month.
type MonthWindow struct {
	Year  int
	Month time.Month
}

// Range returns the inclusive date range of the month.
func (m MonthWindow) Range() model.DateRange {
	start := calendar.Date(m.Year, m.Month, 1)
	return model.DateRange{Start: start, End: start.AddDate(0, 1, -1)}
}

// WorkListing is a work as seen by a browsing volunteer.
type WorkListing struct {
	Work model.Work
	// Postulated is set when the volunteer already has an active
	// postulation on the work.
	Postulated bool
}

// OpenWorks lists the works whose window overlaps a month and that can
// still take the volunteer: fully staffed works are hidden unless the
// volunteer already holds an active postulation on them.
func (e *Engine) OpenWorks(ctx context.Context, actor model.Actor, month MonthWindow) ([]WorkListing, error) {
	if actor.Role != model.RoleVolunteer {
		return nil, errForbidden("only volunteers browse works")
	}

	works, err := e.store.ListWorksOverlapping(ctx, month.Range())
	if err != nil {
		return nil, storageErr("listing works", err)
	}

	listings := make([]WorkListing, 0, len(works))
	for i := range works {
		work := works[i]

		existing, err := e.store.FindPostulation(ctx, actor.UserID, work.ID)
		if err != nil {
			return nil, storageErr("looking up postulation", err)
		}
		postulated := existing != nil && existing.Active()

		count, err := e.store.CountWorkInstances(ctx, work.ID)
		if err != nil {
			return nil, storageErr("counting work instances", err)
		}
		if count >= work.Capacity && !postulated {
			continue
		}

		listings = append(listings, WorkListing{Work: work, Postulated: postulated})
	}
	return listings, nil
}

// VolunteerPostulations lists a volunteer's own postulations.
func (e *Engine) VolunteerPostulations(ctx context.Context, actor model.Actor) ([]model.Postulation, error) {
	if actor.Role != model.RoleVolunteer {
		return nil, errForbidden("only volunteers list their postulations")
	}
	ps, err := e.store.ListVolunteerPostulations(ctx, actor.UserID)
	if err != nil {
		return nil, storageErr("listing postulations", err)
	}
	return ps, nil
}

// WorkPendingPostulations lists the postulations awaiting a decision on
// one of the supplier's works.
func (e *Engine) WorkPendingPostulations(ctx context.Context, actor model.Actor, workID string) ([]model.Postulation, error) {
	work, err := e.authorizeSupplierWork(ctx, actor, workID)
	if err != nil {
		return nil, err
	}
	ps, err := e.store.ListWorkPostulationsByStatus(ctx, work.ID, model.PostulationPending)
	if err != nil {
		return nil, storageErr("listing pending postulations", err)
	}
	return ps, nil
}

// VolunteerInstances lists the contracts a volunteer holds.
func (e *Engine) VolunteerInstances(ctx context.Context, actor model.Actor) ([]model.WorkInstance, error) {
	if actor.Role != model.RoleVolunteer {
		return nil, errForbidden("only volunteers list their contracts")
	}
	insts, err := e.store.ListVolunteerInstances(ctx, actor.UserID)
	if err != nil {
		return nil, storageErr("listing instances", err)
	}
	return insts, nil
}

// InstanceSessions lists the sessions of one contract, visible to the
// contract's volunteer and the work's supplier.
func (e *Engine) InstanceSessions(ctx context.Context, actor model.Actor, instanceID string) ([]model.WorkSession, error) {
	inst, err := e.store.GetInstance(ctx, instanceID)
	if err != nil {
		return nil, storageErr("loading instance", err)
	}
	if inst == nil {
		return nil, errNotFound("work instance", instanceID)
	}

	switch actor.Role {
	case model.RoleVolunteer:
		if inst.VolunteerID != actor.UserID {
			return nil, errForbidden("contract belongs to another volunteer")
		}
	case model.RoleSupplier:
		work, err := e.store.GetWork(ctx, inst.WorkID)
		if err != nil {
			return nil, storageErr("loading work", err)
		}
		if work == nil {
			return nil, errNotFound("work", inst.WorkID)
		}
		if work.SupplierID != actor.UserID {
			return nil, errForbidden("contract belongs to another supplier's work")
		}
	default:
		return nil, errForbidden("unknown actor role")
	}

	sessions, err := e.store.ListInstanceSessions(ctx, inst.ID)
	if err != nil {
		return nil, storageErr("listing sessions", err)
	}
	return sessions, nil
}

// WorkSessionsAt lists the sessions of all of a work's contracts on one
// date and hour block, for the supplier's attendance view.
func (e *Engine) WorkSessionsAt(ctx context.Context, actor model.Actor, workID string, date time.Time, start calendar.TimeOfDay) ([]model.WorkSession, error) {
	work, err := e.authorizeSupplierWork(ctx, actor, workID)
	if err != nil {
		return nil, err
	}
	sessions, err := e.store.ListWorkSessionsAt(ctx, work.ID, calendar.Midnight(date), start)
	if err != nil {
		return nil, storageErr("listing sessions", err)
	}
	return sessions, nil
}

// SupplierWorks lists a supplier's works whose window overlaps a month.
func (e *Engine) SupplierWorks(ctx context.Context, actor model.Actor, month MonthWindow) ([]model.Work, error) {
	if actor.Role != model.RoleSupplier {
		return nil, errForbidden("only suppliers list their works")
	}
	works, err := e.store.ListWorksOverlapping(ctx, month.Range())
	if err != nil {
		return nil, storageErr("listing works", err)
	}
	own := works[:0]
	for _, w := range works {
		if w.SupplierID == actor.UserID {
			own = append(own, w)
		}
	}
	return own, nil
}

func (e *Engine) authorizeSupplierWork(ctx context.Context, actor model.Actor, workID string) (*model.Work, error) {
	if actor.Role != model.RoleSupplier {
		return nil, errForbidden("supplier role required")
	}
	work, err := e.store.GetWork(ctx, workID)
	if err != nil {
		return nil, storageErr("loading work", err)
	}
	if work == nil {
		return nil, errNotFound("work", workID)
	}
	if work.SupplierID != actor.UserID {
		return nil, errForbidden("work belongs to another supplier")
	}
	return work, nil
}
