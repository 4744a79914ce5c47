// Package progress tracks per-file ingestion progress under a watch id.
//
// A record maps each uploaded filename to a percent in [-1, 100], where -1
// means the file failed, plus per-file error messages and a batch status.
// Readers always get a snapshot; writers mutate atomically.
package progress

import (
	"context"
	"time"
)

type Status string

const (
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
	StatusUploaded   Status = "uploaded"
	StatusNotFound   Status = "not_found"
)

const (
	Failed   = -1
	Complete = 100
)

type Record struct {
	Percent   map[string]int    `json:"percent"`
	Error     map[string]string `json:"error"`
	Status    Status            `json:"status,omitempty"`
	Message   string            `json:"message,omitempty"`
	UpdatedAt time.Time         `json:"updated_at"`
}

// Cache is the progress store shared by the background pipeline (writer)
// and the progress endpoint (reader).
//
// Mutating an unknown watch id returns an ErrNotFound-marked error. Get of
// an unknown watch id returns a record with StatusNotFound instead.
type Cache interface {
	Initialize(ctx context.Context, watchID string, filenames []string) error
	Get(ctx context.Context, watchID string) (Record, error)
	SetPercent(ctx context.Context, watchID, filename string, value int) error
	IncrementPercent(ctx context.Context, watchID, filename string, delta int) error
	SetError(ctx context.Context, watchID, filename, message string) error
	// FailPending fails every file that has not reached 100 with message.
	FailPending(ctx context.Context, watchID, message string) error
	SetStatus(ctx context.Context, watchID string, status Status, message string) error
	// MarkCompleted sets StatusCompleted when every file is at 100 and
	// reports whether it did.
	MarkCompleted(ctx context.Context, watchID string) (bool, error)
	Remove(ctx context.Context, watchID string) error
	// Reap drops records not updated since before now minus the TTL.
	Reap(ctx context.Context, now time.Time) (int, error)
}

func newRecord(filenames []string, now time.Time) *Record {
	r := &Record{
		Percent:   make(map[string]int, len(filenames)),
		Error:     make(map[string]string),
		Status:    StatusProcessing,
		UpdatedAt: now,
	}
	for _, f := range filenames {
		r.Percent[f] = 0
	}
	return r
}

// NotFound is what Get returns for unknown or reaped watch ids.
func NotFound() Record {
	return Record{
		Percent: map[string]int{},
		Error:   map[string]string{},
		Status:  StatusNotFound,
	}
}

func (r *Record) clone() Record {
	c := *r
	c.Percent = make(map[string]int, len(r.Percent))
	for k, v := range r.Percent {
		c.Percent[k] = v
	}
	c.Error = make(map[string]string, len(r.Error))
	for k, v := range r.Error {
		c.Error[k] = v
	}
	return c
}

func clamp(v int) int {
	if v < Failed {
		return Failed
	}
	if v > Complete {
		return Complete
	}
	return v
}

func (r *Record) setPercent(filename string, value int) {
	r.Percent[filename] = clamp(value)
}

// incrementPercent leaves failed files failed.
func (r *Record) incrementPercent(filename string, delta int) {
	cur := r.Percent[filename]
	if cur == Failed {
		return
	}
	r.Percent[filename] = clamp(cur + delta)
}

func (r *Record) setError(filename, message string) {
	r.Percent[filename] = Failed
	r.Error[filename] = message
}

func (r *Record) failPending(message string) {
	for f, p := range r.Percent {
		if p < Complete {
			r.setError(f, message)
		}
	}
	r.Status = StatusFailed
	r.Message = message
}

func (r *Record) markCompleted() bool {
	if len(r.Percent) == 0 {
		return false
	}
	for _, p := range r.Percent {
		if p != Complete {
			return false
		}
	}
	r.Status = StatusCompleted
	return true
}

// mutator turns a single atomic update primitive into the Cache mutation
// methods, so backends only implement update.
type mutator struct {
	update func(ctx context.Context, watchID string, fn func(*Record)) error
}

func (m mutator) SetPercent(ctx context.Context, watchID, filename string, value int) error {
	return m.update(ctx, watchID, func(r *Record) { r.setPercent(filename, value) })
}

func (m mutator) IncrementPercent(ctx context.Context, watchID, filename string, delta int) error {
	return m.update(ctx, watchID, func(r *Record) { r.incrementPercent(filename, delta) })
}

func (m mutator) SetError(ctx context.Context, watchID, filename, message string) error {
	return m.update(ctx, watchID, func(r *Record) { r.setError(filename, message) })
}

func (m mutator) FailPending(ctx context.Context, watchID, message string) error {
	return m.update(ctx, watchID, func(r *Record) { r.failPending(message) })
}

func (m mutator) SetStatus(ctx context.Context, watchID string, status Status, message string) error {
	return m.update(ctx, watchID, func(r *Record) {
		r.Status = status
		r.Message = message
	})
}

func (m mutator) MarkCompleted(ctx context.Context, watchID string) (bool, error) {
	var done bool
	err := m.update(ctx, watchID, func(r *Record) { done = r.markCompleted() })
	return done, err
}
