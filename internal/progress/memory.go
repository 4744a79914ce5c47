package progress

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"talent-pipeline/internal/errors"
	"talent-pipeline/internal/logger"
)

// MemoryCache keeps progress records in process memory.
type MemoryCache struct {
	mutator

	mu      sync.RWMutex
	records map[string]*Record
	ttl     time.Duration
	now     func() time.Time
}

var _ Cache = (*MemoryCache)(nil)

func NewMemoryCache(ttl time.Duration) *MemoryCache {
	c := &MemoryCache{
		records: make(map[string]*Record),
		ttl:     ttl,
		now:     time.Now,
	}
	c.mutator = mutator{update: c.apply}
	return c
}

func (c *MemoryCache) Initialize(_ context.Context, watchID string, filenames []string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.records[watchID] = newRecord(filenames, c.now())
	return nil
}

func (c *MemoryCache) Get(_ context.Context, watchID string) (Record, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	r, ok := c.records[watchID]
	if !ok {
		return NotFound(), nil
	}
	return r.clone(), nil
}

func (c *MemoryCache) apply(_ context.Context, watchID string, fn func(*Record)) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	r, ok := c.records[watchID]
	if !ok {
		return errors.NotFoundf("progress %s not found", watchID)
	}
	fn(r)
	r.UpdatedAt = c.now()
	return nil
}

func (c *MemoryCache) Remove(_ context.Context, watchID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.records, watchID)
	return nil
}

func (c *MemoryCache) Reap(_ context.Context, now time.Time) (int, error) {
	if c.ttl <= 0 {
		return 0, nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	removed := 0
	for id, r := range c.records {
		if now.Sub(r.UpdatedAt) > c.ttl {
			delete(c.records, id)
			removed++
		}
	}
	return removed, nil
}

// StartReaper calls Reap every interval until ctx is done.
func StartReaper(ctx context.Context, c Cache, interval time.Duration, log *zap.Logger) {
	log = logger.Component(log, "progress-reaper")
	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case now := <-ticker.C:
				n, err := c.Reap(ctx, now)
				if err != nil {
					log.Warn("reaping progress records failed", zap.Error(err))
					continue
				}
				if n > 0 {
					log.Debug("reaped progress records", zap.Int(logger.FieldCount, n))
				}
			}
		}
	}()
}
