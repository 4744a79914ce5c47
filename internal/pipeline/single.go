package pipeline

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"talent-pipeline/internal/errors"
	"talent-pipeline/internal/logger"
	"talent-pipeline/internal/position"
	"talent-pipeline/internal/progress"
	"talent-pipeline/internal/storage"
)

// StartSingleUpload queues the per-file phase for one CV. Processing and
// matching wait for StartAnalysis. The record ends with StatusUploaded.
func (p *Pipeline) StartSingleUpload(ctx context.Context, positionID string, f File) (string, error) {
	if err := p.extractor.ValidateExtension(f.Name); err != nil {
		return "", err
	}
	pos, err := p.positions.Get(ctx, positionID)
	if err != nil {
		return "", err
	}
	if err := position.CanIngest(pos.Status); err != nil {
		return "", err
	}

	watchID := uuid.NewString()
	if err := p.progress.Initialize(ctx, watchID, []string{f.Name}); err != nil {
		return "", err
	}
	err = p.submit(ctx, "single-upload", watchID, func(ctx context.Context) {
		if _, err := p.ingestFile(ctx, watchID, positionID, f); err != nil {
			p.abort(ctx, watchID, err)
			return
		}
		p.setStatus(ctx, watchID, progress.StatusUploaded, "")
	})
	if err != nil {
		return "", err
	}
	return watchID, nil
}

// StartAnalysis processes every CV of the position that has no summary yet
// and then matches all of the position's CVs. Progress is keyed by CV name.
func (p *Pipeline) StartAnalysis(ctx context.Context, positionID string, weight *storage.WeightConfig, model string) (string, error) {
	pos, err := p.positions.Get(ctx, positionID)
	if err != nil {
		return "", err
	}
	if weight != nil {
		if err := weight.Validate(); err != nil {
			return "", err
		}
	}
	cvs, err := p.store.CVs.GetMany(ctx, pos.CVs)
	if err != nil {
		return "", err
	}
	if len(cvs) == 0 {
		return "", errors.NotFoundf("position %s has no CVs to analyze", positionID)
	}

	keys := progressKeys(cvs)
	watchID := uuid.NewString()
	if err := p.progress.Initialize(ctx, watchID, keys); err != nil {
		return "", err
	}
	err = p.submit(ctx, "analyze", watchID, func(ctx context.Context) {
		p.analyze(ctx, watchID, positionID, cvs, keys, weight, model)
	})
	if err != nil {
		return "", err
	}
	return watchID, nil
}

func (p *Pipeline) analyze(ctx context.Context, watchID, positionID string, cvs []*storage.CV, keys []string, weight *storage.WeightConfig, model string) {
	log := p.log.With(zap.String(logger.FieldWatchID, watchID), zap.String(logger.FieldPositionID, positionID))

	var pending []ingested
	ids := make([]string, len(cvs))
	for i, c := range cvs {
		ids[i] = c.ID
		if c.Summary != nil {
			p.setPercent(ctx, watchID, keys[i], progress.Complete)
			continue
		}
		p.setPercent(ctx, watchID, keys[i], PerFilePercent)
		pending = append(pending, ingested{id: c.ID, name: keys[i]})
	}

	if err := p.processCVs(ctx, watchID, pending, weight, model); err != nil {
		p.abort(ctx, watchID, err)
		return
	}
	if _, err := p.positions.CloseIfExpired(ctx, positionID, p.now()); err != nil {
		log.Warn("end date check failed", zap.Error(err))
	}
	if err := p.matchAndStore(ctx, positionID, ids, weight, model); err != nil {
		log.Error("matching failed", zap.Error(err))
		p.setStatus(ctx, watchID, progress.StatusFailed, err.Error())
		return
	}
	p.finish(ctx, watchID, log)
}

// progressKeys names each CV by its file name, disambiguating repeats with the CV id.
func progressKeys(cvs []*storage.CV) []string {
	count := make(map[string]int, len(cvs))
	for _, c := range cvs {
		count[c.Name]++
	}
	keys := make([]string, len(cvs))
	for i, c := range cvs {
		if count[c.Name] > 1 {
			keys[i] = c.Name + " [" + c.ID + "]"
			continue
		}
		keys[i] = c.Name
	}
	return keys
}
