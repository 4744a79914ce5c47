package pipeline

import (
	"context"

	"go.uber.org/zap"

	"talent-pipeline/internal/cv"
	"talent-pipeline/internal/errors"
	"talent-pipeline/internal/logger"
	"talent-pipeline/internal/storage"
)

// DeleteCV takes the CV off the position, then removes its file and record.
// Detaching first means the position never lists a CV whose record is gone;
// a failure after the detach leaves an unlisted record that DeleteCVs can
// still clean up. A file already missing from storage does not stop the deletion.
func (p *Pipeline) DeleteCV(ctx context.Context, positionID, cvID string) error {
	pos, err := p.positions.Get(ctx, positionID)
	if err != nil {
		return err
	}
	if !pos.HasCV(cvID) {
		return errors.NotFoundf("CV %s not found in position %s", cvID, positionID)
	}

	if err := p.positions.DetachCV(ctx, positionID, cvID); err != nil {
		return err
	}
	if err := p.deleteCVRecord(ctx, cvID); err != nil && !errors.Is(err, errors.ErrNotFound) {
		return errors.Wrapf(err, "delete CV %s", cvID)
	}
	return nil
}

// DeleteCVs removes the files and records of ids. Missing CVs are skipped.
func (p *Pipeline) DeleteCVs(ctx context.Context, ids []string) error {
	for _, id := range ids {
		if err := p.deleteCVRecord(ctx, id); err != nil && !errors.Is(err, errors.ErrNotFound) {
			return errors.Wrapf(err, "delete CV %s", id)
		}
	}
	return nil
}

func (p *Pipeline) deleteCVRecord(ctx context.Context, cvID string) error {
	record, err := p.store.CVs.Get(ctx, cvID)
	if err != nil {
		return err
	}
	if record.Path != "" {
		if err := p.blobs.Remove(ctx, record.Path); err != nil && !errors.Is(err, errors.ErrNotFound) {
			return err
		}
	}
	if err := p.store.CVs.Delete(ctx, cvID); err != nil {
		return err
	}
	p.log.Info("CV deleted", zap.String(logger.FieldCVID, cvID))
	return nil
}

// DeletePosition deletes the position's CVs with their files, then the
// position itself with its JD.
func (p *Pipeline) DeletePosition(ctx context.Context, projectID, positionID string) error {
	pos, err := p.positions.Get(ctx, positionID)
	if err != nil {
		return err
	}
	if err := p.DeleteCVs(ctx, pos.CVs); err != nil {
		return err
	}
	return p.positions.DeletePosition(ctx, projectID, positionID)
}

// Download is a stored CV file ready to be served.
type Download struct {
	Filename    string
	ContentType string
	Data        []byte
}

func (p *Pipeline) DownloadCV(ctx context.Context, cvID string) (*Download, error) {
	record, err := p.store.CVs.Get(ctx, cvID)
	if err != nil {
		return nil, err
	}
	if record.Path == "" {
		return nil, errors.NotFoundf("CV %s has no stored file", cvID)
	}
	data, err := p.blobs.Download(ctx, record.Path)
	if err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return nil, errors.NotFoundf("CV %s content not found", cvID)
	}
	return &Download{
		Filename:    record.Name,
		ContentType: cv.ContentType(record.Name),
		Data:        data,
	}, nil
}

func (p *Pipeline) UpdateCVStatus(ctx context.Context, cvID string, status storage.CVStatus) (*storage.CV, error) {
	if err := p.store.CVs.UpdateStatus(ctx, cvID, status); err != nil {
		return nil, err
	}
	return p.store.CVs.Get(ctx, cvID)
}

// ListCVs returns the position's CVs in list order.
func (p *Pipeline) ListCVs(ctx context.Context, positionID string) ([]*storage.CV, error) {
	pos, err := p.positions.Get(ctx, positionID)
	if err != nil {
		return nil, err
	}
	return p.store.CVs.GetMany(ctx, pos.CVs)
}

// GetCV returns one CV of the position.
func (p *Pipeline) GetCV(ctx context.Context, positionID, cvID string) (*storage.CV, error) {
	pos, err := p.positions.Get(ctx, positionID)
	if err != nil {
		return nil, err
	}
	if !pos.HasCV(cvID) {
		return nil, errors.NotFoundf("CV %s not found in position %s", cvID, positionID)
	}
	return p.store.CVs.Get(ctx, cvID)
}
