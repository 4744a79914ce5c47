package progress

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"talent-pipeline/internal/errors"
)

// newTestRedis connects to TEST_REDIS_ADDR, skipping when it is unset.
func newTestRedis(t *testing.T) *RedisCache {
	addr := os.Getenv("TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("TEST_REDIS_ADDR not set")
	}
	rdb := redis.NewClient(&redis.Options{Addr: addr})
	t.Cleanup(func() { rdb.Close() })
	require.NoError(t, rdb.Ping(context.Background()).Err())
	return NewRedisCache(rdb, time.Minute)
}

func TestRedisCache_Lifecycle(t *testing.T) {
	ctx := context.Background()
	c := newTestRedis(t)
	watchID := uuid.NewString()
	t.Cleanup(func() { _ = c.Remove(ctx, watchID) })

	rec, err := c.Get(ctx, watchID)
	require.NoError(t, err)
	assert.Equal(t, StatusNotFound, rec.Status)

	require.NoError(t, c.Initialize(ctx, watchID, []string{"a.pdf", "b.pdf"}))
	require.NoError(t, c.IncrementPercent(ctx, watchID, "a.pdf", 60))
	require.NoError(t, c.SetPercent(ctx, watchID, "a.pdf", 100))
	require.NoError(t, c.FailPending(ctx, watchID, "processing timed out"))

	rec, err = c.Get(ctx, watchID)
	require.NoError(t, err)
	assert.Equal(t, 100, rec.Percent["a.pdf"])
	assert.Equal(t, -1, rec.Percent["b.pdf"])
	assert.Equal(t, "processing timed out", rec.Error["b.pdf"])
	assert.Equal(t, StatusFailed, rec.Status)

	ttl, err := c.rdb.TTL(ctx, key(watchID)).Result()
	require.NoError(t, err)
	assert.Greater(t, ttl, time.Duration(0))
}

func TestRedisCache_UnknownWatchID(t *testing.T) {
	c := newTestRedis(t)
	err := c.SetError(context.Background(), uuid.NewString(), "a.pdf", "boom")
	assert.True(t, errors.Is(err, errors.ErrNotFound))
}

func TestDecodeRecord_FillsMaps(t *testing.T) {
	r, err := decodeRecord([]byte(`{"status":"processing"}`))
	require.NoError(t, err)
	assert.NotNil(t, r.Percent)
	assert.NotNil(t, r.Error)
	assert.Equal(t, StatusProcessing, r.Status)
}
