package engine

import (
	"context"

	"go.uber.org/zap"

	"github.com/openvolunteering/postulate/pkg/calendar"
	"github.com/openvolunteering/postulate/pkg/model"
)

// EditPreferences replaces a volunteer's personal hour block set. The
// sentinel week day is meaningless without a work, so preference blocks
// must name concrete days.
func (e *Engine) EditPreferences(ctx context.Context, actor model.Actor, blocks []calendar.HourBlock) error {
	if actor.Role != model.RoleVolunteer {
		return errForbidden("only volunteers have hour block preferences")
	}
	if err := validateHourBlocks(blocks, false); err != nil {
		return err
	}

	if err := e.store.ReplacePreferences(ctx, actor.UserID, blocks); err != nil {
		return storageErr("replacing preferences", err)
	}

	e.logger.Info("preferences replaced",
		zap.String("volunteer_id", actor.UserID),
		zap.Int("blocks", len(blocks)))
	return nil
}

// Preferences returns a volunteer's hour block set.
func (e *Engine) Preferences(ctx context.Context, actor model.Actor) ([]calendar.HourBlock, error) {
	if actor.Role != model.RoleVolunteer {
		return nil, errForbidden("only volunteers have hour block preferences")
	}
	blocks, err := e.store.GetPreferences(ctx, actor.UserID)
	if err != nil {
		return nil, storageErr("loading preferences", err)
	}
	return blocks, nil
}

// PreferredWorks lists the open works of a month that share at least one
// hour block with the volunteer's preference set. When nothing matches
// the preferences, the full open list is returned instead so the
// volunteer is never shown an empty month for lack of preference overlap.
func (e *Engine) PreferredWorks(ctx context.Context, actor model.Actor, month MonthWindow) ([]WorkListing, error) {
	if actor.Role != model.RoleVolunteer {
		return nil, errForbidden("only volunteers browse works")
	}

	prefs, err := e.store.GetPreferences(ctx, actor.UserID)
	if err != nil {
		return nil, storageErr("loading preferences", err)
	}

	open, err := e.OpenWorks(ctx, actor, month)
	if err != nil {
		return nil, err
	}
	if len(prefs) == 0 {
		return open, nil
	}

	matched := make([]WorkListing, 0, len(open))
	for _, listing := range open {
		if listing.Postulated || workMatchesPreferences(&listing.Work, prefs) {
			matched = append(matched, listing)
		}
	}
	if len(matched) == 0 {
		return open, nil
	}
	return matched, nil
}

func workMatchesPreferences(work *model.Work, prefs []calendar.HourBlock) bool {
	for _, wb := range work.HourBlocks {
		day := wb.Resolve(work.StartDate)
		for _, pb := range prefs {
			if day == pb.Day && wb.Start.SameHour(pb.Start) {
				return true
			}
		}
	}
	return false
}
