package engine

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/openvolunteering/postulate/internal/metrics"
	"github.com/openvolunteering/postulate/pkg/model"
)

// SweepResult summarizes one expiration sweep.
type SweepResult struct {
	Expired int
	Failed  int
}

// SweepExpired rejects every postulation still PENDING after its end
// date, acting as the owning supplier of each work. A failure on one
// postulation is logged and counted without aborting the rest of the
// batch.
func (e *Engine) SweepExpired(ctx context.Context) (SweepResult, error) {
	var result SweepResult

	expired, err := e.store.ListExpiredPending(ctx, e.today())
	if err != nil {
		return result, storageErr("listing expired postulations", err)
	}

	for i := range expired {
		p := &expired[i]

		work, err := e.store.GetWork(ctx, p.WorkID)
		if err != nil || work == nil {
			result.Failed++
			e.logger.Warn("skipping expired postulation with unresolvable work",
				zap.String("postulation_id", p.ID),
				zap.String("work_id", p.WorkID),
				zap.Error(err))
			continue
		}

		supplier := model.Actor{UserID: work.SupplierID, Role: model.RoleSupplier}
		if err := e.Reject(ctx, supplier, p.ID); err != nil {
			// InvalidState means another actor already decided this
			// postulation between the listing and the reject; that is not
			// a failure of the sweep.
			if IsKind(err, KindInvalidState) {
				continue
			}
			result.Failed++
			e.logger.Warn("failed to reject expired postulation",
				zap.String("postulation_id", p.ID),
				zap.Error(err))
			continue
		}
		result.Expired++
	}

	metrics.SweepRuns.Inc()
	metrics.PostulationsExpired.Add(float64(result.Expired))

	e.logger.Info("expiration sweep finished",
		zap.Int("expired", result.Expired),
		zap.Int("failed", result.Failed))
	return result, nil
}

// RunSweeper runs SweepExpired immediately and then on a fixed interval
// until the context is canceled. Runs never overlap: the next tick waits
// for the previous sweep to return.
func (e *Engine) RunSweeper(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = 24 * time.Hour
	}

	e.logger.Info("expiration sweeper started", zap.Duration("interval", interval))

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		if _, err := e.SweepExpired(ctx); err != nil {
			e.logger.Error("expiration sweep failed", zap.Error(err))
		}

		select {
		case <-ctx.Done():
			e.logger.Info("expiration sweeper stopped")
			return
		case <-ticker.C:
		}
	}
}
