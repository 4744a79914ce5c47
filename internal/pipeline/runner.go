package pipeline

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"talent-pipeline/internal/errors"
	"talent-pipeline/internal/logger"
)

// Task is one unit of background work.
type Task struct {
	Name      string
	Key       string
	Run       func(ctx context.Context)
	Submitted time.Time
}

// Submitter hands tasks to background execution.
type Submitter interface {
	Submit(t Task) error
}

// Runner is a fixed pool of workers reading from a buffered queue.
type Runner struct {
	queue   chan Task
	workers int
	log     *zap.Logger

	mu     sync.RWMutex
	closed bool
	wg     sync.WaitGroup
}

func NewRunner(workers, queueSize int, log *zap.Logger) *Runner {
	if workers < 1 {
		workers = 1
	}
	return &Runner{
		queue:   make(chan Task, queueSize),
		workers: workers,
		log:     logger.Component(log, "runner"),
	}
}

// Start launches the workers. Tasks run with ctx, which should outlive the
// request that submitted them.
func (r *Runner) Start(ctx context.Context) {
	for i := 0; i < r.workers; i++ {
		r.wg.Add(1)
		go r.worker(ctx, i)
	}
	r.log.Info("background workers started", zap.Int(logger.FieldCount, r.workers))
}

// Submit queues t without blocking. A full or stopped queue is a conflict.
func (r *Runner) Submit(t Task) error {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.closed {
		return errors.Conflictf("background runner is shutting down")
	}
	if t.Submitted.IsZero() {
		t.Submitted = time.Now()
	}

	select {
	case r.queue <- t:
		r.log.Debug("queued task", zap.String("task", t.Name), zap.String("key", t.Key))
		return nil
	default:
		r.log.Warn("queue full, rejecting task", zap.String("task", t.Name), zap.String("key", t.Key))
		return errors.WithHint(
			errors.Conflictf("background queue is full"),
			"retry the request in a moment")
	}
}

// Stop stops accepting tasks and waits for the queued ones to finish.
func (r *Runner) Stop() {
	r.mu.Lock()
	if !r.closed {
		r.closed = true
		close(r.queue)
	}
	r.mu.Unlock()

	r.wg.Wait()
	r.log.Info("background workers stopped")
}

func (r *Runner) worker(ctx context.Context, id int) {
	defer r.wg.Done()
	for t := range r.queue {
		r.run(ctx, id, t)
	}
}

func (r *Runner) run(ctx context.Context, id int, t Task) {
	start := time.Now()
	defer func() {
		if rec := recover(); rec != nil {
			r.log.Error("task panicked",
				zap.String("task", t.Name),
				zap.String("key", t.Key),
				zap.Any("panic", rec))
		}
	}()

	t.Run(ctx)

	r.log.Debug("task finished",
		zap.Int("worker", id),
		zap.String("task", t.Name),
		zap.String("key", t.Key),
		zap.Int64(logger.FieldDurationMS, time.Since(start).Milliseconds()),
		zap.Duration("queued_for", start.Sub(t.Submitted)))
}
