package engine

import (
	"context"

	"go.uber.org/zap"

	"github.com/openvolunteering/postulate/pkg/model"
)

// SetSessionStatus records attendance for a past session: ACCEPTED for
// attended, REJECTED for absent. Only the supplier owning the session's
// work may record it, and only once the session date has passed; setting
// the same status again is a no-op.
func (e *Engine) SetSessionStatus(ctx context.Context, actor model.Actor, sessionID string, status model.SessionStatus) error {
	if actor.Role != model.RoleSupplier {
		return errForbidden("only suppliers can record session attendance")
	}
	if !status.Valid() {
		return errInvalidState("unknown session status")
	}

	err := e.store.RunInTx(ctx, func(tx Store) error {
		session, err := tx.GetSession(ctx, sessionID)
		if err != nil {
			return storageErr("loading session", err)
		}
		if session == nil {
			return errNotFound("session", sessionID)
		}

		inst, err := tx.GetInstance(ctx, session.InstanceID)
		if err != nil {
			return storageErr("loading work instance", err)
		}
		if inst == nil {
			return errNotFound("work instance", session.InstanceID)
		}

		work, err := tx.GetWork(ctx, inst.WorkID)
		if err != nil {
			return storageErr("loading work", err)
		}
		if work == nil {
			return errNotFound("work", inst.WorkID)
		}
		if work.SupplierID != actor.UserID {
			return errForbidden("session belongs to another supplier's work")
		}

		if session.Date.After(e.today()) {
			return errInvalidState("attendance can only be recorded after the session date")
		}

		if err := tx.UpdateSessionStatus(ctx, session.ID, status); err != nil {
			return storageErr("updating session status", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	e.logger.Info("session status recorded",
		zap.String("session_id", sessionID),
		zap.String("status", string(status)))
	return nil
}
