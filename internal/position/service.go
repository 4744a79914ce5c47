package position

import (
	"context"
	"encoding/json"
	"time"

	"go.uber.org/zap"

	"talent-pipeline/internal/aiclient"
	"talent-pipeline/internal/errors"
	"talent-pipeline/internal/logger"
	"talent-pipeline/internal/storage"
)

// JDProcessor summarizes job descriptions.
type JDProcessor interface {
	Process(ctx context.Context, docIDs []string, docType aiclient.DocType, model string) ([]aiclient.ProcessResult, error)
}

// Service applies every change to a position's CV list or status while
// holding that position's lock, so the list and the status derived from it
// never disagree.
type Service struct {
	store     *storage.Store
	processor JDProcessor
	locks     *keyedLocks
	now       func() time.Time
	log       *zap.Logger
}

func NewService(store *storage.Store, processor JDProcessor, log *zap.Logger) *Service {
	return &Service{
		store:     store,
		processor: processor,
		locks:     newKeyedLocks(),
		now:       time.Now,
		log:       logger.Component(log, "position"),
	}
}

func (s *Service) Get(ctx context.Context, positionID string) (*storage.Position, error) {
	return s.store.Positions.Get(ctx, positionID)
}

// AttachCV appends cvID to the position's CV list.
func (s *Service) AttachCV(ctx context.Context, positionID, cvID string) error {
	unlock := s.locks.Lock(positionID)
	defer unlock()

	p, err := s.store.Positions.Get(ctx, positionID)
	if err != nil {
		return err
	}
	next, err := Next(p.Status, CVAdded)
	if err != nil {
		return err
	}
	if p.HasCV(cvID) {
		return nil
	}
	if err := s.store.Positions.SetCVs(ctx, positionID, append(p.CVs, cvID), next); err != nil {
		return err
	}
	s.logTransition(positionID, p.Status, next, CVAdded)
	return nil
}

// DetachCV removes cvID from the position's CV list. Removing a CV the
// position does not hold is a no-op.
func (s *Service) DetachCV(ctx context.Context, positionID, cvID string) error {
	unlock := s.locks.Lock(positionID)
	defer unlock()

	p, err := s.store.Positions.Get(ctx, positionID)
	if err != nil {
		return err
	}
	if !p.HasCV(cvID) {
		return nil
	}

	remaining := make([]string, 0, len(p.CVs)-1)
	for _, id := range p.CVs {
		if id != cvID {
			remaining = append(remaining, id)
		}
	}
	ev := CVRemoved(len(remaining))
	next, err := Next(p.Status, ev)
	if err != nil {
		return err
	}
	if err := s.store.Positions.SetCVs(ctx, positionID, remaining, next); err != nil {
		return err
	}
	s.logTransition(positionID, p.Status, next, ev)
	return nil
}

// CompleteMatching records that a matching pass for the position finished.
func (s *Service) CompleteMatching(ctx context.Context, positionID string) error {
	_, err := s.apply(ctx, positionID, func(*storage.Position) Event { return MatchingCompleted })
	return err
}

// CloseIfExpired closes the position when its end date lies before now and
// reports whether the position is closed afterwards.
func (s *Service) CloseIfExpired(ctx context.Context, positionID string, now time.Time) (bool, error) {
	p, err := s.apply(ctx, positionID, func(p *storage.Position) Event {
		if !s.expired(p, now) {
			return Event{}
		}
		return EndDateElapsed
	})
	if err != nil {
		return false, err
	}
	return p.Status == storage.PositionClosed, nil
}

func (s *Service) Close(ctx context.Context, positionID string) (*storage.Position, error) {
	return s.apply(ctx, positionID, func(*storage.Position) Event { return CloseRequested })
}

func (s *Service) Open(ctx context.Context, positionID string) (*storage.Position, error) {
	return s.apply(ctx, positionID, func(p *storage.Position) Event { return OpenRequested(len(p.CVs)) })
}

func (s *Service) Cancel(ctx context.Context, positionID string) (*storage.Position, error) {
	return s.apply(ctx, positionID, func(*storage.Position) Event { return CancelRequested })
}

// apply loads the position under its lock, asks pick for the event to apply
// and stores the resulting status. A zero Event leaves the position alone.
func (s *Service) apply(ctx context.Context, positionID string, pick func(*storage.Position) Event) (*storage.Position, error) {
	unlock := s.locks.Lock(positionID)
	defer unlock()

	p, err := s.store.Positions.Get(ctx, positionID)
	if err != nil {
		return nil, err
	}
	ev := pick(p)
	if ev.Kind == 0 {
		return p, nil
	}
	next, err := Next(p.Status, ev)
	if err != nil {
		return nil, err
	}
	if next != p.Status {
		if err := s.store.Positions.SetStatus(ctx, positionID, next); err != nil {
			return nil, err
		}
		s.logTransition(positionID, p.Status, next, ev)
	}
	p.Status = next
	return p, nil
}

func (s *Service) expired(p *storage.Position, now time.Time) bool {
	end, ok, err := EndDate(p)
	if err != nil {
		s.log.Warn("ignoring unparseable end date",
			zap.String(logger.FieldPositionID, p.ID),
			zap.String("end_date", p.EndDate),
			zap.Error(err))
		return false
	}
	return ok && now.After(end)
}

func (s *Service) logTransition(positionID string, from, to Status, ev Event) {
	if from == to {
		return
	}
	s.log.Info("position status changed",
		zap.String(logger.FieldPositionID, positionID),
		zap.String("from", string(from)),
		zap.String("to", string(to)),
		zap.Stringer("event", ev.Kind))
}

// CloseExpired closes open and processing positions whose end date has
// passed, at most limit of them per call (no cap when limit <= 0). With
// dryRun set nothing is written. It returns the ids of the positions that
// were (or would be) closed.
func (s *Service) CloseExpired(ctx context.Context, limit int, dryRun bool) ([]string, error) {
	positions, err := s.store.Positions.ListByStatus(ctx, storage.PositionOpen, storage.PositionProcessing)
	if err != nil {
		return nil, err
	}

	now := s.now()
	var closed []string
	for _, p := range positions {
		if limit > 0 && len(closed) >= limit {
			break
		}
		if !s.expired(p, now) {
			continue
		}
		if dryRun {
			closed = append(closed, p.ID)
			continue
		}
		ok, err := s.CloseIfExpired(ctx, p.ID, now)
		if err != nil {
			return closed, errors.Wrapf(err, "close position %s", p.ID)
		}
		if ok {
			closed = append(closed, p.ID)
		}
	}
	return closed, nil
}

// SetReAnalyzing flags a position while its CVs are being re-matched.
func (s *Service) SetReAnalyzing(ctx context.Context, positionID string, on bool) error {
	return s.store.Positions.SetReAnalyzing(ctx, positionID, on)
}

// RecordMatch stores a short description of the last matching pass.
func (s *Service) RecordMatch(ctx context.Context, positionID string, matched int, model string) error {
	detail, err := json.Marshal(map[string]any{
		"matched_cvs": matched,
		"llm_name":    model,
		"matched_at":  s.now().UTC().Format(time.RFC3339),
	})
	if err != nil {
		return errors.Wrap(err, "encode match detail")
	}
	return s.store.Positions.SetMatchDetail(ctx, positionID, detail)
}
