package engine

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/openvolunteering/postulate/internal/metrics"
	"github.com/openvolunteering/postulate/pkg/model"
)

// Accept turns a PENDING postulation into a contract: the postulation
// becomes ACCEPTED, a work instance is created and its sessions are
// generated, all in one transaction. When the acceptance fills the work's
// last open slot, every other PENDING postulation on the work is rejected
// in the same transaction. The whole sequence holds the work's lock, so
// two concurrent acceptances cannot both take the last slot.
func (e *Engine) Accept(ctx context.Context, actor model.Actor, postulationID string) (*model.WorkInstance, error) {
	if actor.Role != model.RoleSupplier {
		return nil, errForbidden("only suppliers can accept postulations")
	}

	p, err := e.store.GetPostulation(ctx, postulationID)
	if err != nil {
		return nil, storageErr("loading postulation", err)
	}
	if p == nil {
		return nil, errNotFound("postulation", postulationID)
	}

	unlock := e.workLocks.Lock(p.WorkID)
	defer unlock()

	var instance *model.WorkInstance
	var rejected, generated int
	err = e.store.RunInTx(ctx, func(tx Store) error {
		// Re-read under the lock; the first read only located the work.
		p, err := tx.GetPostulation(ctx, postulationID)
		if err != nil {
			return storageErr("loading postulation", err)
		}
		if p == nil {
			return errNotFound("postulation", postulationID)
		}
		if p.Status != model.PostulationPending {
			return errInvalidState("only pending postulations can be accepted")
		}

		work, err := tx.GetWork(ctx, p.WorkID)
		if err != nil {
			return storageErr("loading work", err)
		}
		if work == nil {
			return errNotFound("work", p.WorkID)
		}
		if work.SupplierID != actor.UserID {
			return errForbidden("work belongs to another supplier")
		}

		count, err := tx.CountWorkInstances(ctx, work.ID)
		if err != nil {
			return storageErr("counting work instances", err)
		}
		if count >= work.Capacity {
			// Unreachable while accepts are serialized per work; checked
			// anyway before any instance is created.
			return errCapacity(work.ID)
		}
		lastSlot := count+1 == work.Capacity

		p.Status = model.PostulationAccepted
		if err := tx.UpdatePostulation(ctx, p); err != nil {
			return storageErr("updating postulation", err)
		}

		inst := &model.WorkInstance{
			ID:          uuid.New().String(),
			WorkID:      work.ID,
			VolunteerID: p.VolunteerID,
			StartDate:   p.StartDate,
			EndDate:     p.EndDate,
		}
		if err := tx.InsertInstance(ctx, inst); err != nil {
			return storageErr("inserting work instance", err)
		}
		sessions := GenerateSessions(work, inst)
		if err := tx.InsertSessions(ctx, sessions); err != nil {
			return storageErr("inserting work sessions", err)
		}
		generated = len(sessions)

		if lastSlot {
			pending, err := tx.ListWorkPostulationsByStatus(ctx, work.ID, model.PostulationPending)
			if err != nil {
				return storageErr("listing pending postulations", err)
			}
			for i := range pending {
				other := &pending[i]
				if other.ID == p.ID {
					continue
				}
				other.Status = model.PostulationRejected
				if err := tx.UpdatePostulation(ctx, other); err != nil {
					return storageErr("rejecting surplus postulation", err)
				}
				rejected++
			}
		}

		instance = inst
		return nil
	})
	if err != nil {
		return nil, err
	}

	metrics.PostulationsAccepted.Inc()
	metrics.PostulationsRejected.Add(float64(rejected))
	metrics.SessionsGenerated.Add(float64(generated))

	e.logger.Info("postulation accepted",
		zap.String("postulation_id", postulationID),
		zap.String("instance_id", instance.ID),
		zap.Int("sessions", generated),
		zap.Int("surplus_rejected", rejected))
	return instance, nil
}

// Reject turns a PENDING postulation into REJECTED. No instance or
// session is touched; the volunteer may resubmit later.
func (e *Engine) Reject(ctx context.Context, actor model.Actor, postulationID string) error {
	if actor.Role != model.RoleSupplier {
		return errForbidden("only suppliers can reject postulations")
	}

	p, err := e.store.GetPostulation(ctx, postulationID)
	if err != nil {
		return storageErr("loading postulation", err)
	}
	if p == nil {
		return errNotFound("postulation", postulationID)
	}

	// Rejection competes with Accept's cascade for the same work lock.
	unlock := e.workLocks.Lock(p.WorkID)
	defer unlock()

	err = e.store.RunInTx(ctx, func(tx Store) error {
		p, err := tx.GetPostulation(ctx, postulationID)
		if err != nil {
			return storageErr("loading postulation", err)
		}
		if p == nil {
			return errNotFound("postulation", postulationID)
		}
		if p.Status != model.PostulationPending {
			return errInvalidState("only pending postulations can be rejected")
		}

		work, err := tx.GetWork(ctx, p.WorkID)
		if err != nil {
			return storageErr("loading work", err)
		}
		if work == nil {
			return errNotFound("work", p.WorkID)
		}
		if work.SupplierID != actor.UserID {
			return errForbidden("work belongs to another supplier")
		}

		p.Status = model.PostulationRejected
		if err := tx.UpdatePostulation(ctx, p); err != nil {
			return storageErr("updating postulation", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	metrics.PostulationsRejected.Inc()
	e.logger.Info("postulation rejected", zap.String("postulation_id", postulationID))
	return nil
}
