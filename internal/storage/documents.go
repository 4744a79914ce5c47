package storage

import (
	"context"
	"encoding/json"
	"time"
)

// Document is one stored record: its id and JSON body.
type Document struct {
	ID        string
	Body      json.RawMessage
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Backend is a collection-scoped document database.
//
// Update merges the given top-level fields into the stored body; it never
// touches fields it was not given. Get, Update and Delete return an
// ErrNotFound-marked error for unknown ids.
type Backend interface {
	Create(ctx context.Context, collection string, body any) (string, error)
	Get(ctx context.Context, collection, id string) (*Document, error)
	GetAllByIDs(ctx context.Context, collection string, ids []string) ([]*Document, error)
	Update(ctx context.Context, collection, id string, fields map[string]any) error
	Delete(ctx context.Context, collection, id string) error
	FindByField(ctx context.Context, collection, field, value string) ([]*Document, error)
	List(ctx context.Context, collection string, limit int) ([]*Document, error)
}

// Store bundles the typed repositories over one backend.
type Store struct {
	Backend   Backend
	CVs       *CVRepo
	Positions *PositionRepo
	Projects  *ProjectRepo
	JDs       *JDRepo
}

func NewStore(b Backend) *Store {
	return &Store{
		Backend:   b,
		CVs:       &CVRepo{b: b},
		Positions: &PositionRepo{b: b},
		Projects:  &ProjectRepo{b: b},
		JDs:       &JDRepo{b: b},
	}
}

// orderByIDs returns docs in the order of ids, skipping ids that were not found.
func orderByIDs(ids []string, docs []*Document) []*Document {
	byID := make(map[string]*Document, len(docs))
	for _, d := range docs {
		byID[d.ID] = d
	}
	out := make([]*Document, 0, len(ids))
	for _, id := range ids {
		if d, ok := byID[id]; ok {
			out = append(out, d)
		}
	}
	return out
}
