package engine

import (
	"context"
	"fmt"

	"github.com/openvolunteering/postulate/pkg/model"
)

// hasConflict reports whether the volunteer already holds an active
// postulation that collides with a candidate commitment: the date ranges
// overlap and some pair of hour blocks lands on the same resolved week day
// in the same hour of the day. excludeID skips the postulation being
// edited in place; pass "" when submitting a new one.
func hasConflict(ctx context.Context, store Store, volunteerID string, candidate *model.Work, r model.DateRange, excludeID string) (bool, error) {
	existing, err := store.ListActiveOverlapping(ctx, volunteerID, r)
	if err != nil {
		return false, storageErr("listing overlapping postulations", err)
	}

	for i := range existing {
		p := &existing[i]
		if p.ID == excludeID {
			continue
		}

		held, err := store.GetWork(ctx, p.WorkID)
		if err != nil {
			return false, storageErr("loading work of existing postulation", err)
		}
		if held == nil {
			return false, fmt.Errorf("postulation %s references missing work %s", p.ID, p.WorkID)
		}

		for _, heldBlock := range held.HourBlocks {
			for _, wantBlock := range candidate.HourBlocks {
				sameDay := heldBlock.Resolve(held.StartDate) == wantBlock.Resolve(candidate.StartDate)
				if sameDay && heldBlock.Start.SameHour(wantBlock.Start) {
					return true, nil
				}
			}
		}
	}

	return false, nil
}
