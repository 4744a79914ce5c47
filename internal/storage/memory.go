package storage

import (
	"context"
	"encoding/json"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"talent-pipeline/internal/errors"
)

// Memory is an in-process Backend used for local runs (DATABASE_URL=memory)
// and tests. It mirrors the Postgres merge semantics of Update.
type Memory struct {
	mu   sync.RWMutex
	docs map[string]map[string]*Document
	now  func() time.Time
}

func NewMemory() *Memory {
	return &Memory{
		docs: make(map[string]map[string]*Document),
		now:  time.Now,
	}
}

func (m *Memory) Create(_ context.Context, collection string, body any) (string, error) {
	data, err := json.Marshal(body)
	if err != nil {
		return "", errors.Wrapf(err, "encode %s document", collection)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	id := uuid.NewString()
	now := m.now()
	if m.docs[collection] == nil {
		m.docs[collection] = make(map[string]*Document)
	}
	m.docs[collection][id] = &Document{ID: id, Body: data, CreatedAt: now, UpdatedAt: now}
	return id, nil
}

func (m *Memory) Get(_ context.Context, collection, id string) (*Document, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	d, ok := m.docs[collection][id]
	if !ok {
		return nil, errors.NotFoundf("%s document %s not found", collection, id)
	}
	return copyDoc(d), nil
}

func (m *Memory) GetAllByIDs(_ context.Context, collection string, ids []string) ([]*Document, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var docs []*Document
	for _, id := range ids {
		if d, ok := m.docs[collection][id]; ok {
			docs = append(docs, copyDoc(d))
		}
	}
	return orderByIDs(ids, docs), nil
}

func (m *Memory) Update(_ context.Context, collection, id string, fields map[string]any) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	d, ok := m.docs[collection][id]
	if !ok {
		return errors.NotFoundf("%s document %s not found", collection, id)
	}

	merged := map[string]json.RawMessage{}
	if err := json.Unmarshal(d.Body, &merged); err != nil {
		return errors.Wrapf(err, "decode %s document %s", collection, id)
	}
	for k, v := range fields {
		raw, err := json.Marshal(v)
		if err != nil {
			return errors.Wrapf(err, "encode %s field %s", collection, k)
		}
		merged[k] = raw
	}
	data, err := json.Marshal(merged)
	if err != nil {
		return errors.Wrapf(err, "encode %s document %s", collection, id)
	}
	d.Body = data
	d.UpdatedAt = m.now()
	return nil
}

func (m *Memory) Delete(_ context.Context, collection, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.docs[collection][id]; !ok {
		return errors.NotFoundf("%s document %s not found", collection, id)
	}
	delete(m.docs[collection], id)
	return nil
}

func (m *Memory) FindByField(_ context.Context, collection, field, value string) ([]*Document, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []*Document
	for _, d := range m.docs[collection] {
		var body map[string]any
		if err := json.Unmarshal(d.Body, &body); err != nil {
			return nil, errors.Wrapf(err, "decode %s document %s", collection, d.ID)
		}
		if s, ok := body[field].(string); ok && s == value {
			out = append(out, copyDoc(d))
		}
	}
	sortByCreated(out)
	return out, nil
}

func (m *Memory) List(_ context.Context, collection string, limit int) ([]*Document, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]*Document, 0, len(m.docs[collection]))
	for _, d := range m.docs[collection] {
		out = append(out, copyDoc(d))
	}
	sortByCreated(out)
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func copyDoc(d *Document) *Document {
	c := *d
	c.Body = append(json.RawMessage(nil), d.Body...)
	return &c
}

func sortByCreated(docs []*Document) {
	sort.SliceStable(docs, func(i, j int) bool {
		if docs[i].CreatedAt.Equal(docs[j].CreatedAt) {
			return docs[i].ID < docs[j].ID
		}
		return docs[i].CreatedAt.Before(docs[j].CreatedAt)
	})
}
