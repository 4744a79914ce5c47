package progress

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"talent-pipeline/internal/errors"
)

const (
	keyPrefix  = "progress:"
	maxRetries = 10
)

// RedisCache keeps each record as a JSON value under progress:{watch id}.
// Expiry is left to Redis: every write refreshes the key's TTL.
type RedisCache struct {
	mutator

	rdb *redis.Client
	ttl time.Duration
	now func() time.Time
}

var _ Cache = (*RedisCache)(nil)

func NewRedisCache(rdb *redis.Client, ttl time.Duration) *RedisCache {
	c := &RedisCache{rdb: rdb, ttl: ttl, now: time.Now}
	c.mutator = mutator{update: c.apply}
	return c
}

func key(watchID string) string { return keyPrefix + watchID }

func (c *RedisCache) Initialize(ctx context.Context, watchID string, filenames []string) error {
	data, err := json.Marshal(newRecord(filenames, c.now()))
	if err != nil {
		return errors.Wrap(err, "encode progress record")
	}
	if err := c.rdb.Set(ctx, key(watchID), data, c.ttl).Err(); err != nil {
		return errors.Wrapf(err, "store progress %s", watchID)
	}
	return nil
}

func (c *RedisCache) Get(ctx context.Context, watchID string) (Record, error) {
	data, err := c.rdb.Get(ctx, key(watchID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return NotFound(), nil
	}
	if err != nil {
		return Record{}, errors.Wrapf(err, "load progress %s", watchID)
	}
	r, err := decodeRecord(data)
	if err != nil {
		return Record{}, err
	}
	return *r, nil
}

// apply runs fn inside an optimistic WATCH transaction, retrying when a
// concurrent writer touched the key first.
func (c *RedisCache) apply(ctx context.Context, watchID string, fn func(*Record)) error {
	k := key(watchID)
	txf := func(tx *redis.Tx) error {
		data, err := tx.Get(ctx, k).Bytes()
		if errors.Is(err, redis.Nil) {
			return errors.NotFoundf("progress %s not found", watchID)
		}
		if err != nil {
			return err
		}
		r, err := decodeRecord(data)
		if err != nil {
			return err
		}
		fn(r)
		r.UpdatedAt = c.now()
		out, err := json.Marshal(r)
		if err != nil {
			return errors.Wrap(err, "encode progress record")
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, k, out, c.ttl)
			return nil
		})
		return err
	}

	for i := 0; i < maxRetries; i++ {
		err := c.rdb.Watch(ctx, txf, k)
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		if err != nil && !errors.Is(err, errors.ErrNotFound) {
			return errors.Wrapf(err, "update progress %s", watchID)
		}
		return err
	}
	return errors.Conflictf("progress %s: too many concurrent updates", watchID)
}

func (c *RedisCache) Remove(ctx context.Context, watchID string) error {
	if err := c.rdb.Del(ctx, key(watchID)).Err(); err != nil {
		return errors.Wrapf(err, "remove progress %s", watchID)
	}
	return nil
}

// Reap is a no-op: Redis expires keys on its own.
func (c *RedisCache) Reap(context.Context, time.Time) (int, error) {
	return 0, nil
}

func decodeRecord(data []byte) (*Record, error) {
	var r Record
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, errors.Wrap(err, "decode progress record")
	}
	if r.Percent == nil {
		r.Percent = map[string]int{}
	}
	if r.Error == nil {
		r.Error = map[string]string{}
	}
	return &r, nil
}
