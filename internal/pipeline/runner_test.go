package pipeline

import (
	"context"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"talent-pipeline/internal/errors"
)

func TestRunner_RunsQueuedTasks(t *testing.T) {
	r := NewRunner(3, 10, zap.NewNop())
	r.Start(context.Background())

	var ran atomic.Int32
	for i := 0; i < 10; i++ {
		require.NoError(t, r.Submit(Task{Name: "count", Run: func(context.Context) { ran.Add(1) }}))
	}
	r.Stop()

	assert.Equal(t, int32(10), ran.Load())
}

func TestRunner_QueueFull(t *testing.T) {
	r := NewRunner(1, 1, zap.NewNop())

	require.NoError(t, r.Submit(Task{Name: "first", Run: func(context.Context) {}}))
	err := r.Submit(Task{Name: "second", Run: func(context.Context) {}})
	assert.True(t, errors.Is(err, errors.ErrConflict))

	r.Start(context.Background())
	r.Stop()
}

func TestRunner_RejectsAfterStop(t *testing.T) {
	r := NewRunner(1, 1, zap.NewNop())
	r.Start(context.Background())
	r.Stop()

	err := r.Submit(Task{Name: "late", Run: func(context.Context) {}})
	assert.True(t, errors.Is(err, errors.ErrConflict))
}

func TestRunner_SurvivesPanics(t *testing.T) {
	r := NewRunner(1, 2, zap.NewNop())
	r.Start(context.Background())

	var ran atomic.Bool
	require.NoError(t, r.Submit(Task{Name: "boom", Run: func(context.Context) { panic("boom") }}))
	require.NoError(t, r.Submit(Task{Name: "after", Run: func(context.Context) { ran.Store(true) }}))
	r.Stop()

	assert.True(t, ran.Load())
}
