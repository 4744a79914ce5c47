package pipeline

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"talent-pipeline/internal/aiclient"
	"talent-pipeline/internal/cv"
	"talent-pipeline/internal/errors"
	"talent-pipeline/internal/logger"
	"talent-pipeline/internal/position"
	"talent-pipeline/internal/progress"
	"talent-pipeline/internal/storage"
)

// File is one uploaded CV.
type File struct {
	Name string
	Data []byte
}

type IngestRequest struct {
	PositionID string
	Files      []File
	Weight     *storage.WeightConfig
	Model      string
}

// ingested links a created CV record back to the file it came from.
type ingested struct {
	id   string
	name string
}

// StartIngestion validates the request, registers a progress record and
// queues the batch. It returns the watch id to poll.
func (p *Pipeline) StartIngestion(ctx context.Context, req IngestRequest) (string, error) {
	pos, err := p.positions.Get(ctx, req.PositionID)
	if err != nil {
		return "", err
	}
	if err := position.CanIngest(pos.Status); err != nil {
		return "", err
	}
	if err := p.validateFiles(req.Files); err != nil {
		return "", err
	}
	if req.Weight != nil {
		if err := req.Weight.Validate(); err != nil {
			return "", err
		}
	}

	watchID := uuid.NewString()
	if err := p.progress.Initialize(ctx, watchID, fileNames(req.Files)); err != nil {
		return "", err
	}
	err = p.submit(ctx, "ingest", watchID, func(ctx context.Context) {
		p.ingest(ctx, watchID, req)
	})
	if err != nil {
		return "", err
	}

	p.log.Info("ingestion queued",
		zap.String(logger.FieldWatchID, watchID),
		zap.String(logger.FieldPositionID, req.PositionID),
		zap.Int(logger.FieldCount, len(req.Files)))
	return watchID, nil
}

func (p *Pipeline) validateFiles(files []File) error {
	if len(files) == 0 {
		return errors.Validationf("no files uploaded")
	}
	seen := make(map[string]bool, len(files))
	for _, f := range files {
		if err := p.extractor.ValidateExtension(f.Name); err != nil {
			return err
		}
		if seen[f.Name] {
			return errors.Validationf("file %s was uploaded twice", f.Name)
		}
		seen[f.Name] = true
	}
	return nil
}

func fileNames(files []File) []string {
	names := make([]string, len(files))
	for i, f := range files {
		names[i] = f.Name
	}
	return names
}

// ingest runs the whole batch: the per-file phase for every file, one
// processing call, the end date check and one matching call.
func (p *Pipeline) ingest(ctx context.Context, watchID string, req IngestRequest) {
	log := p.log.With(zap.String(logger.FieldWatchID, watchID), zap.String(logger.FieldPositionID, req.PositionID))

	cvs := make([]ingested, 0, len(req.Files))
	for _, f := range req.Files {
		id, err := p.ingestFile(ctx, watchID, req.PositionID, f)
		if err != nil {
			p.abort(ctx, watchID, err)
			return
		}
		cvs = append(cvs, ingested{id: id, name: f.Name})
	}

	if err := p.processCVs(ctx, watchID, cvs, req.Weight, req.Model); err != nil {
		p.abort(ctx, watchID, err)
		return
	}

	if closed, err := p.positions.CloseIfExpired(ctx, req.PositionID, p.now()); err != nil {
		log.Warn("end date check failed", zap.Error(err))
	} else if closed {
		log.Info("position is past its end date, matching the current batch anyway")
	}

	ids := make([]string, len(cvs))
	for i, c := range cvs {
		ids[i] = c.id
	}
	if err := p.matchAndStore(ctx, req.PositionID, ids, req.Weight, req.Model); err != nil {
		log.Error("matching failed", zap.Error(err))
		p.setStatus(ctx, watchID, progress.StatusFailed, err.Error())
		return
	}
	p.finish(ctx, watchID, log)
}

// finish marks the record completed, or failed when some file never reached 100.
func (p *Pipeline) finish(ctx context.Context, watchID string, log *zap.Logger) {
	done, err := p.progress.MarkCompleted(ctx, watchID)
	if err != nil {
		log.Warn("marking progress completed failed", zap.Error(err))
		return
	}
	if !done {
		p.setStatus(ctx, watchID, progress.StatusFailed, "some files were not processed")
		return
	}
	log.Info("ingestion completed")
}

// ingestFile runs the per-file stages in order: create record, upload,
// persist path and url, extract text, persist content, attach to position.
func (p *Pipeline) ingestFile(ctx context.Context, watchID, positionID string, f File) (string, error) {
	record := &storage.CV{
		Name:     f.Name,
		Labels:   []string{},
		Status:   storage.CVApplying,
		UploadAt: p.now().UTC(),
	}
	id, err := p.store.CVs.Create(ctx, record)
	if err != nil {
		return "", errors.Aborted(err, "create record")
	}
	p.advance(ctx, watchID, f.Name, weightCreate)

	path, url, err := p.blobs.Upload(ctx, f.Data, f.Name, cv.ContentType(f.Name))
	if err != nil {
		return id, errors.Aborted(err, "upload")
	}
	p.advance(ctx, watchID, f.Name, weightUpload)

	if err := p.store.CVs.UpdatePathURL(ctx, id, path, url); err != nil {
		return id, errors.Aborted(err, "store path")
	}
	p.advance(ctx, watchID, f.Name, weightPathURL)

	content, err := p.extractor.ExtractBytes(f.Name, f.Data)
	if err != nil {
		return id, errors.Aborted(err, "extract text")
	}
	p.advance(ctx, watchID, f.Name, weightExtract)

	if err := p.store.CVs.UpdateContent(ctx, id, content); err != nil {
		return id, errors.Aborted(err, "store content")
	}
	p.advance(ctx, watchID, f.Name, weightContent)

	if err := p.positions.AttachCV(ctx, positionID, id); err != nil {
		return id, errors.Aborted(err, "attach to position")
	}
	p.advance(ctx, watchID, f.Name, weightAttach)

	p.log.Debug("file ingested",
		zap.String(logger.FieldWatchID, watchID),
		zap.String(logger.FieldFile, f.Name),
		zap.String(logger.FieldCVID, id))
	return id, nil
}

// processCVs sends every CV of the batch to the processing service in one
// call and stores what comes back. Each processed file reaches 100.
func (p *Pipeline) processCVs(ctx context.Context, watchID string, cvs []ingested, weight *storage.WeightConfig, model string) error {
	if len(cvs) == 0 {
		return nil
	}
	names := make(map[string]string, len(cvs))
	ids := make([]string, len(cvs))
	for i, c := range cvs {
		names[c.id] = c.name
		ids[i] = c.id
	}

	results, err := p.processor.Process(ctx, ids, aiclient.DocCV, model)
	if err != nil {
		return errors.Aborted(err, "processing")
	}

	for _, res := range results {
		name, ok := names[res.DocID]
		if !ok {
			p.log.Warn("processing returned an unknown document",
				zap.String(logger.FieldWatchID, watchID),
				zap.String(logger.FieldCVID, res.DocID))
			continue
		}
		summary, err := decodeSummary(res.Summary)
		if err != nil {
			return errors.Aborted(errors.Wrapf(err, "summary of %s", name), "processing")
		}
		if err := p.store.CVs.UpdateAnalysis(ctx, res.DocID, summary, res.Labels, weight); err != nil {
			return errors.Aborted(err, "store summary")
		}
		p.setPercent(ctx, watchID, name, progress.Complete)
	}
	return nil
}

func decodeSummary(raw json.RawMessage) (*storage.Summary, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return nil, nil
	}
	var s storage.Summary
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, errors.Upstream(errors.Wrap(err, "malformed summary"), "processing service")
	}
	return &s, nil
}
