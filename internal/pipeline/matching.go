package pipeline

import (
	"context"

	"go.uber.org/zap"

	"talent-pipeline/internal/errors"
	"talent-pipeline/internal/logger"
	"talent-pipeline/internal/storage"
)

// matchAndStore scores cvIDs against the position's JD in one call, stores
// each result and tells the position its matching pass is done.
func (p *Pipeline) matchAndStore(ctx context.Context, positionID string, cvIDs []string, weight *storage.WeightConfig, model string) error {
	if len(cvIDs) == 0 {
		return errors.NotFoundf("no CVs to match")
	}
	pos, err := p.positions.Get(ctx, positionID)
	if err != nil {
		return err
	}

	// One JD serves the whole batch.
	jdID := pos.JDForCV(cvIDs[0])
	if jdID == "" {
		return errors.Conflictf("position %s has no job description", positionID)
	}

	results, err := p.matcher.Match(ctx, jdID, cvIDs, weight, model)
	if err != nil {
		return err
	}

	stored := 0
	for _, res := range results {
		if err := p.store.CVs.UpdateMatching(ctx, res.CVID, res.MatchingResult); err != nil {
			if errors.Is(err, errors.ErrNotFound) {
				p.log.Warn("matching result for a missing CV", zap.String(logger.FieldCVID, res.CVID))
				continue
			}
			return err
		}
		stored++
	}

	if err := p.positions.CompleteMatching(ctx, positionID); err != nil {
		return err
	}
	if err := p.positions.RecordMatch(ctx, positionID, stored, model); err != nil {
		p.log.Warn("recording match detail failed", zap.String(logger.FieldPositionID, positionID), zap.Error(err))
	}
	return nil
}

// StartRematch re-runs matching for the position's existing CVs in the
// background. Failures are logged, never reported back.
func (p *Pipeline) StartRematch(ctx context.Context, positionID string, weight *storage.WeightConfig, model string) error {
	pos, err := p.positions.Get(ctx, positionID)
	if err != nil {
		return err
	}
	if weight != nil {
		if err := weight.Validate(); err != nil {
			return err
		}
	}
	cvs, err := p.store.CVs.GetMany(ctx, pos.CVs)
	if err != nil {
		return err
	}
	if len(cvs) == 0 {
		return errors.NotFoundf("position %s has no CVs to match", positionID)
	}

	return p.runner.Submit(Task{
		Name: "rematch",
		Key:  positionID,
		Run: func(ctx context.Context) {
			p.rematch(ctx, positionID, weight, model)
		},
	})
}

func (p *Pipeline) rematch(ctx context.Context, positionID string, weight *storage.WeightConfig, model string) {
	log := p.log.With(zap.String(logger.FieldPositionID, positionID))

	if err := p.positions.SetReAnalyzing(ctx, positionID, true); err != nil {
		log.Warn("flagging re-analysis failed", zap.Error(err))
	}
	defer func() {
		if err := p.positions.SetReAnalyzing(ctx, positionID, false); err != nil {
			log.Warn("clearing re-analysis flag failed", zap.Error(err))
		}
	}()

	ids, err := p.existingCVs(ctx, positionID)
	if err != nil {
		log.Error("re-matching failed", zap.Error(err))
		return
	}
	if err := p.matchAndStore(ctx, positionID, ids, weight, model); err != nil {
		log.Error("re-matching failed", zap.Error(err))
		return
	}
	log.Info("re-matching finished", zap.Int(logger.FieldCount, len(ids)))
}

// existingCVs returns the ids on the position's CV list that still have a record.
func (p *Pipeline) existingCVs(ctx context.Context, positionID string) ([]string, error) {
	pos, err := p.positions.Get(ctx, positionID)
	if err != nil {
		return nil, err
	}
	cvs, err := p.store.CVs.GetMany(ctx, pos.CVs)
	if err != nil {
		return nil, err
	}
	ids := make([]string, len(cvs))
	for i, c := range cvs {
		ids[i] = c.ID
	}
	return ids, nil
}
