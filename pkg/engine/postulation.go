package engine

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/openvolunteering/postulate/internal/metrics"
	"github.com/openvolunteering/postulate/pkg/model"
)

// Submit creates a PENDING postulation from a volunteer to a work, or
// resubmits a previously REJECTED one by overwriting its dates. A
// volunteer can hold at most one PENDING or ACCEPTED postulation per work.
func (e *Engine) Submit(ctx context.Context, actor model.Actor, workID string, r model.DateRange) (*model.Postulation, error) {
	if actor.Role != model.RoleVolunteer {
		return nil, errForbidden("only volunteers can submit postulations")
	}

	unlock := e.volunteerLocks.Lock(actor.UserID)
	defer unlock()

	var result *model.Postulation
	err := e.store.RunInTx(ctx, func(tx Store) error {
		work, err := tx.GetWork(ctx, workID)
		if err != nil {
			return storageErr("loading work", err)
		}
		if work == nil {
			return errNotFound("work", workID)
		}

		if err := e.validateRange(r, work); err != nil {
			return err
		}

		conflicting, err := hasConflict(ctx, tx, actor.UserID, work, r, "")
		if err != nil {
			return err
		}
		if conflicting {
			return errConflict("volunteer already has a commitment in one of the work's hour blocks")
		}

		existing, err := tx.FindPostulation(ctx, actor.UserID, workID)
		if err != nil {
			return storageErr("looking up existing postulation", err)
		}

		if existing != nil {
			if existing.Active() {
				return errInvalidState("volunteer already has an active postulation to this work")
			}

			// Resubmission after rejection reuses the row.
			existing.StartDate = r.Start
			existing.EndDate = r.End
			existing.Status = model.PostulationPending
			existing.SubmittedOn = e.today()
			if err := tx.UpdatePostulation(ctx, existing); err != nil {
				return storageErr("updating postulation", err)
			}
			result = existing
			return nil
		}

		p := &model.Postulation{
			ID:          uuid.New().String(),
			VolunteerID: actor.UserID,
			WorkID:      workID,
			StartDate:   r.Start,
			EndDate:     r.End,
			Status:      model.PostulationPending,
			SubmittedOn: e.today(),
		}
		if err := tx.InsertPostulation(ctx, p); err != nil {
			return storageErr("inserting postulation", err)
		}
		result = p
		return nil
	})
	if err != nil {
		return nil, err
	}

	metrics.PostulationsSubmitted.Inc()
	e.logger.Info("postulation submitted",
		zap.String("postulation_id", result.ID),
		zap.String("volunteer_id", actor.UserID),
		zap.String("work_id", workID))
	return result, nil
}

// Cancel removes a PENDING postulation. Only the owning volunteer may
// cancel, and only before the supplier has decided.
func (e *Engine) Cancel(ctx context.Context, actor model.Actor, postulationID string) error {
	unlock := e.volunteerLocks.Lock(actor.UserID)
	defer unlock()

	err := e.store.RunInTx(ctx, func(tx Store) error {
		p, err := tx.GetPostulation(ctx, postulationID)
		if err != nil {
			return storageErr("loading postulation", err)
		}
		if p == nil {
			return errNotFound("postulation", postulationID)
		}
		if p.VolunteerID != actor.UserID {
			return errForbidden("postulation belongs to another volunteer")
		}
		if p.Status != model.PostulationPending {
			return errInvalidState("only pending postulations can be canceled")
		}

		if err := tx.DeletePostulation(ctx, p.ID); err != nil {
			return storageErr("deleting postulation", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	e.logger.Info("postulation canceled",
		zap.String("postulation_id", postulationID),
		zap.String("volunteer_id", actor.UserID))
	return nil
}

// EditRange changes the date range of a PENDING postulation. The new
// range is validated against the work's window and re-checked for
// conflicts, excluding the postulation itself.
func (e *Engine) EditRange(ctx context.Context, actor model.Actor, postulationID string, r model.DateRange) error {
	unlock := e.volunteerLocks.Lock(actor.UserID)
	defer unlock()

	err := e.store.RunInTx(ctx, func(tx Store) error {
		p, err := tx.GetPostulation(ctx, postulationID)
		if err != nil {
			return storageErr("loading postulation", err)
		}
		if p == nil {
			return errNotFound("postulation", postulationID)
		}
		if p.VolunteerID != actor.UserID {
			return errForbidden("postulation belongs to another volunteer")
		}
		if p.Status != model.PostulationPending {
			return errInvalidState("only pending postulations can be edited")
		}

		work, err := tx.GetWork(ctx, p.WorkID)
		if err != nil {
			return storageErr("loading work", err)
		}
		if work == nil {
			return errNotFound("work", p.WorkID)
		}

		if err := e.validateRange(r, work); err != nil {
			return err
		}

		conflicting, err := hasConflict(ctx, tx, actor.UserID, work, r, p.ID)
		if err != nil {
			return err
		}
		if conflicting {
			return errConflict("volunteer already has a commitment in one of the work's hour blocks")
		}

		p.StartDate = r.Start
		p.EndDate = r.End
		if err := tx.UpdatePostulation(ctx, p); err != nil {
			return storageErr("updating postulation", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	e.logger.Info("postulation range edited",
		zap.String("postulation_id", postulationID),
		zap.String("volunteer_id", actor.UserID))
	return nil
}

// validateRange checks a postulation range against a work's window and
// the current date.
func (e *Engine) validateRange(r model.DateRange, work *model.Work) error {
	window := work.Window()
	if !window.Contains(r.Start) || !window.Contains(r.End) {
		return errInvalidRange("postulation dates fall outside the work's window")
	}
	if r.Start.After(r.End) {
		return errInvalidRange("postulation start date is after its end date")
	}
	today := e.today()
	if today.After(r.End) {
		return errInvalidRange("postulation end date cannot be in the past")
	}
	if today.After(work.EndDate) {
		return errInvalidRange("work has already finished")
	}
	return nil
}
