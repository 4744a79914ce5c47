package storage

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"talent-pipeline/internal/errors"
)

func TestMemory_UpdateLeavesOtherFields(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	id, err := m.Create(ctx, CVCollection, map[string]any{"name": "a.pdf", "content": ""})
	require.NoError(t, err)
	require.NoError(t, m.Update(ctx, CVCollection, id, map[string]any{"content": "text"}))

	doc, err := m.Get(ctx, CVCollection, id)
	require.NoError(t, err)
	assert.JSONEq(t, `{"name":"a.pdf","content":"text"}`, string(doc.Body))
}

func TestMemory_MissingDocument(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	_, err := m.Get(ctx, CVCollection, "nope")
	assert.True(t, errors.Is(err, errors.ErrNotFound))
	assert.True(t, errors.Is(m.Update(ctx, CVCollection, "nope", map[string]any{"a": 1}), errors.ErrNotFound))
	assert.True(t, errors.Is(m.Delete(ctx, CVCollection, "nope"), errors.ErrNotFound))
}

func TestMemory_GetReturnsCopy(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	id, err := m.Create(ctx, JDCollection, map[string]any{"content": "x"})
	require.NoError(t, err)

	doc, err := m.Get(ctx, JDCollection, id)
	require.NoError(t, err)
	doc.Body[0] = '['

	again, err := m.Get(ctx, JDCollection, id)
	require.NoError(t, err)
	assert.JSONEq(t, `{"content":"x"}`, string(again.Body))
}

func TestMemory_FindByFieldAndList(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	tick := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	m.now = func() time.Time {
		tick = tick.Add(time.Second)
		return tick
	}

	first, _ := m.Create(ctx, PositionCollection, map[string]any{"project_id": "p1"})
	_, _ = m.Create(ctx, PositionCollection, map[string]any{"project_id": "p2"})
	third, _ := m.Create(ctx, PositionCollection, map[string]any{"project_id": "p1"})

	found, err := m.FindByField(ctx, PositionCollection, "project_id", "p1")
	require.NoError(t, err)
	require.Len(t, found, 2)
	assert.Equal(t, first, found[0].ID)
	assert.Equal(t, third, found[1].ID)

	listed, err := m.List(ctx, PositionCollection, 2)
	require.NoError(t, err)
	assert.Len(t, listed, 2)
	assert.Equal(t, first, listed[0].ID)
}

func TestMemory_GetAllByIDsOrder(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	a, _ := m.Create(ctx, CVCollection, map[string]any{"name": "a"})
	b, _ := m.Create(ctx, CVCollection, map[string]any{"name": "b"})

	docs, err := m.GetAllByIDs(ctx, CVCollection, []string{b, "gone", a})
	require.NoError(t, err)
	require.Len(t, docs, 2)
	assert.Equal(t, b, docs[0].ID)
	assert.Equal(t, a, docs[1].ID)
}
