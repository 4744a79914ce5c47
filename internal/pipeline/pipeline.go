// Package pipeline runs CV ingestion and matching in the background and
// reports per-file progress through a progress.Cache.
package pipeline

import (
	"context"
	"time"

	"go.uber.org/zap"

	"talent-pipeline/internal/aiclient"
	"talent-pipeline/internal/logger"
	"talent-pipeline/internal/position"
	"talent-pipeline/internal/progress"
	"talent-pipeline/internal/storage"
)

// Per-file progress weights. The per-file phase adds up to 60; processing
// takes a file to 100.
const (
	weightCreate  = 10
	weightUpload  = 15
	weightPathURL = 5
	weightExtract = 10
	weightContent = 10
	weightAttach  = 10

	PerFilePercent = weightCreate + weightUpload + weightPathURL + weightExtract + weightContent + weightAttach
)

type BlobStore interface {
	Upload(ctx context.Context, data []byte, filename, contentType string) (path, url string, err error)
	Download(ctx context.Context, path string) ([]byte, error)
	Remove(ctx context.Context, path string) error
}

type TextExtractor interface {
	ValidateExtension(filename string) error
	ExtractBytes(filename string, data []byte) (string, error)
}

type Processor interface {
	Process(ctx context.Context, docIDs []string, docType aiclient.DocType, model string) ([]aiclient.ProcessResult, error)
}

type Matcher interface {
	Match(ctx context.Context, jdID string, cvIDs []string, weight *storage.WeightConfig, model string) ([]aiclient.MatchResult, error)
}

type Deps struct {
	Store     *storage.Store
	Positions *position.Service
	Progress  progress.Cache
	Blobs     BlobStore
	Extractor TextExtractor
	Processor Processor
	Matcher   Matcher
	Runner    Submitter
	Log       *zap.Logger
}

type Pipeline struct {
	store     *storage.Store
	positions *position.Service
	progress  progress.Cache
	blobs     BlobStore
	extractor TextExtractor
	processor Processor
	matcher   Matcher
	runner    Submitter
	now       func() time.Time
	log       *zap.Logger
}

func New(d Deps) *Pipeline {
	return &Pipeline{
		store:     d.Store,
		positions: d.Positions,
		progress:  d.Progress,
		blobs:     d.Blobs,
		extractor: d.Extractor,
		processor: d.Processor,
		matcher:   d.Matcher,
		runner:    d.Runner,
		now:       time.Now,
		log:       logger.Component(d.Log, "pipeline"),
	}
}

// GetProgress returns a snapshot of the progress record for watchID.
func (p *Pipeline) GetProgress(ctx context.Context, watchID string) (progress.Record, error) {
	return p.progress.Get(ctx, watchID)
}

// advance adds delta to a file's percent. Progress is best effort: a failed
// update is logged and the pipeline carries on.
func (p *Pipeline) advance(ctx context.Context, watchID, filename string, delta int) {
	if err := p.progress.IncrementPercent(ctx, watchID, filename, delta); err != nil {
		p.log.Warn("progress update failed",
			zap.String(logger.FieldWatchID, watchID),
			zap.String(logger.FieldFile, filename),
			zap.Error(err))
	}
}

func (p *Pipeline) setPercent(ctx context.Context, watchID, filename string, value int) {
	if err := p.progress.SetPercent(ctx, watchID, filename, value); err != nil {
		p.log.Warn("progress update failed",
			zap.String(logger.FieldWatchID, watchID),
			zap.String(logger.FieldFile, filename),
			zap.Error(err))
	}
}

func (p *Pipeline) setStatus(ctx context.Context, watchID string, status progress.Status, message string) {
	if err := p.progress.SetStatus(ctx, watchID, status, message); err != nil {
		p.log.Warn("progress status update failed",
			zap.String(logger.FieldWatchID, watchID),
			zap.String(logger.FieldStatus, string(status)),
			zap.Error(err))
	}
}

// abort fails every pending file of the batch with err's message.
func (p *Pipeline) abort(ctx context.Context, watchID string, err error) {
	p.log.Error("ingestion aborted", zap.String(logger.FieldWatchID, watchID), zap.Error(err))
	if ferr := p.progress.FailPending(ctx, watchID, err.Error()); ferr != nil {
		p.log.Warn("failing progress record failed", zap.String(logger.FieldWatchID, watchID), zap.Error(ferr))
	}
}

// submit queues a background task for watchID, dropping the progress
// record again when the queue refuses it.
func (p *Pipeline) submit(ctx context.Context, name, watchID string, run func(ctx context.Context)) error {
	err := p.runner.Submit(Task{Name: name, Key: watchID, Run: run})
	if err != nil {
		_ = p.progress.Remove(ctx, watchID)
		return err
	}
	return nil
}
