package engine

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/openvolunteering/postulate/pkg/calendar"
	"github.com/openvolunteering/postulate/pkg/model"
)

// WorkDraft carries the supplier-provided fields of a work definition.
type WorkDraft struct {
	Name        string
	Description string
	Kind        model.WorkKind
	Range       model.DateRange
	Capacity    int
	HourBlocks  []calendar.HourBlock
	Tags        []string
}

// CreateWork registers a new work owned by the acting supplier. Work
// names are unique per supplier.
func (e *Engine) CreateWork(ctx context.Context, actor model.Actor, draft WorkDraft) (*model.Work, error) {
	if actor.Role != model.RoleSupplier {
		return nil, errForbidden("only suppliers can create works")
	}
	if err := validateDraft(draft); err != nil {
		return nil, err
	}

	work := &model.Work{
		ID:          uuid.New().String(),
		SupplierID:  actor.UserID,
		Name:        strings.TrimSpace(draft.Name),
		Description: draft.Description,
		Kind:        draft.Kind,
		StartDate:   draft.Range.Start,
		EndDate:     draft.Range.End,
		Capacity:    draft.Capacity,
		HourBlocks:  draft.HourBlocks,
		Tags:        normalizeTags(draft.Tags),
	}

	err := e.store.RunInTx(ctx, func(tx Store) error {
		existing, err := tx.GetWorkByName(ctx, actor.UserID, work.Name)
		if err != nil {
			return storageErr("looking up work by name", err)
		}
		if existing != nil {
			return errInvalidState(fmt.Sprintf("supplier already has a work named %q", work.Name))
		}
		if err := tx.InsertWork(ctx, work); err != nil {
			return storageErr("inserting work", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	e.logger.Info("work created",
		zap.String("work_id", work.ID),
		zap.String("supplier_id", actor.UserID),
		zap.String("kind", string(work.Kind)))
	return work, nil
}

// EditWork replaces a work's mutable fields. A work can only be edited
// while it has no pending or accepted postulations, so no contract can be
// invalidated underneath a volunteer.
func (e *Engine) EditWork(ctx context.Context, actor model.Actor, workID string, draft WorkDraft) error {
	if actor.Role != model.RoleSupplier {
		return errForbidden("only suppliers can edit works")
	}
	if err := validateDraft(draft); err != nil {
		return err
	}

	unlock := e.workLocks.Lock(workID)
	defer unlock()

	err := e.store.RunInTx(ctx, func(tx Store) error {
		work, err := tx.GetWork(ctx, workID)
		if err != nil {
			return storageErr("loading work", err)
		}
		if work == nil {
			return errNotFound("work", workID)
		}
		if work.SupplierID != actor.UserID {
			return errForbidden("work belongs to another supplier")
		}

		for _, status := range []model.PostulationStatus{model.PostulationPending, model.PostulationAccepted} {
			active, err := tx.ListWorkPostulationsByStatus(ctx, workID, status)
			if err != nil {
				return storageErr("listing work postulations", err)
			}
			if len(active) > 0 {
				return errInvalidState("cannot edit a work with pending or accepted postulations")
			}
		}

		newName := strings.TrimSpace(draft.Name)
		if newName != work.Name {
			clash, err := tx.GetWorkByName(ctx, actor.UserID, newName)
			if err != nil {
				return storageErr("looking up work by name", err)
			}
			if clash != nil {
				return errInvalidState(fmt.Sprintf("supplier already has a work named %q", newName))
			}
		}

		work.Name = newName
		work.Description = draft.Description
		work.Kind = draft.Kind
		work.StartDate = draft.Range.Start
		work.EndDate = draft.Range.End
		work.Capacity = draft.Capacity
		work.HourBlocks = draft.HourBlocks
		work.Tags = normalizeTags(draft.Tags)

		if err := tx.UpdateWork(ctx, work); err != nil {
			return storageErr("updating work", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	e.logger.Info("work edited", zap.String("work_id", workID))
	return nil
}

// DeleteWork tears a work down: sessions first, then instances, then
// postulations, then the work itself, in one transaction. Admins may
// delete any work; suppliers only their own.
func (e *Engine) DeleteWork(ctx context.Context, actor model.Actor, workID string) error {
	if actor.Role != model.RoleSupplier && actor.Role != model.RoleAdmin {
		return errForbidden("only the owning supplier or an admin can delete a work")
	}

	unlock := e.workLocks.Lock(workID)
	defer unlock()

	err := e.store.RunInTx(ctx, func(tx Store) error {
		work, err := tx.GetWork(ctx, workID)
		if err != nil {
			return storageErr("loading work", err)
		}
		if work == nil {
			return errNotFound("work", workID)
		}
		if actor.Role == model.RoleSupplier && work.SupplierID != actor.UserID {
			return errForbidden("work belongs to another supplier")
		}

		if err := tx.DeleteWorkSessions(ctx, workID); err != nil {
			return storageErr("deleting work sessions", err)
		}
		if err := tx.DeleteWorkInstances(ctx, workID); err != nil {
			return storageErr("deleting work instances", err)
		}
		if err := tx.DeleteWorkPostulations(ctx, workID); err != nil {
			return storageErr("deleting work postulations", err)
		}
		if err := tx.DeleteWork(ctx, workID); err != nil {
			return storageErr("deleting work", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	e.logger.Info("work deleted", zap.String("work_id", workID))
	return nil
}

func validateDraft(draft WorkDraft) error {
	if strings.TrimSpace(draft.Name) == "" {
		return errInvalidRange("work name cannot be empty")
	}
	if !draft.Kind.Valid() {
		return errInvalidRange(fmt.Sprintf("unknown work kind %q", draft.Kind))
	}
	if draft.Range.Start.After(draft.Range.End) {
		return errInvalidRange("work start date is after its end date")
	}
	if draft.Capacity <= 0 {
		return errInvalidRange("work capacity must be positive")
	}
	if len(draft.HourBlocks) == 0 {
		return errInvalidRange("work needs at least one hour block")
	}
	return validateHourBlocks(draft.HourBlocks, draft.Kind == model.KindSession)
}

// validateHourBlocks enforces the shared hour block rules: every week day
// valid, the derived sentinel only where allowed, and no duplicate
// (week day, time) pair.
func validateHourBlocks(blocks []calendar.HourBlock, allowDerived bool) error {
	seen := make(map[string]struct{}, len(blocks))
	for _, b := range blocks {
		if !b.Day.Valid() {
			return errInvalidRange(fmt.Sprintf("invalid week day %d", int(b.Day)))
		}
		if !b.Day.Fixed() && !allowDerived {
			return errInvalidRange("derived week day is only allowed on single-session works")
		}
		key := b.String()
		if _, dup := seen[key]; dup {
			return errInvalidRange(fmt.Sprintf("duplicate hour block %s", key))
		}
		seen[key] = struct{}{}
	}
	return nil
}

func normalizeTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	seen := make(map[string]struct{}, len(tags))
	for _, t := range tags {
		t = strings.TrimSpace(t)
		if t == "" {
			continue
		}
		if _, dup := seen[t]; dup {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}
