package storage

import (
	"context"
	"encoding/json"

	"talent-pipeline/internal/errors"
)

func decode[T any](doc *Document, assignID func(*T, string)) (*T, error) {
	var v T
	if err := json.Unmarshal(doc.Body, &v); err != nil {
		return nil, errors.Wrapf(err, "decode document %s", doc.ID)
	}
	assignID(&v, doc.ID)
	return &v, nil
}

func decodeAll[T any](docs []*Document, assignID func(*T, string)) ([]*T, error) {
	out := make([]*T, 0, len(docs))
	for _, d := range docs {
		v, err := decode(d, assignID)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

// CVRepo holds the CV mutations the pipeline performs, one per stage.
type CVRepo struct{ b Backend }

func setCVID(cv *CV, id string) { cv.ID = id }

func (r *CVRepo) Create(ctx context.Context, cv *CV) (string, error) {
	cv.ID = ""
	id, err := r.b.Create(ctx, CVCollection, cv)
	if err != nil {
		return "", err
	}
	cv.ID = id
	return id, nil
}

func (r *CVRepo) Get(ctx context.Context, id string) (*CV, error) {
	doc, err := r.b.Get(ctx, CVCollection, id)
	if err != nil {
		return nil, err
	}
	return decode(doc, setCVID)
}

func (r *CVRepo) GetMany(ctx context.Context, ids []string) ([]*CV, error) {
	docs, err := r.b.GetAllByIDs(ctx, CVCollection, ids)
	if err != nil {
		return nil, err
	}
	return decodeAll(docs, setCVID)
}

func (r *CVRepo) UpdatePathURL(ctx context.Context, id, path, url string) error {
	return r.b.Update(ctx, CVCollection, id, map[string]any{"path": path, "url": url})
}

func (r *CVRepo) UpdateContent(ctx context.Context, id, content string) error {
	return r.b.Update(ctx, CVCollection, id, map[string]any{"content": content})
}

// UpdateAnalysis stores what the processing service derived from the CV.
func (r *CVRepo) UpdateAnalysis(ctx context.Context, id string, summary *Summary, labels []string, weight *WeightConfig) error {
	if labels == nil {
		labels = []string{}
	}
	return r.b.Update(ctx, CVCollection, id, map[string]any{
		"summary": summary,
		"labels":  labels,
		"weight":  weight,
	})
}

func (r *CVRepo) UpdateMatching(ctx context.Context, id string, result *MatchingResult) error {
	return r.b.Update(ctx, CVCollection, id, map[string]any{"matching": result})
}

func (r *CVRepo) UpdateStatus(ctx context.Context, id string, status CVStatus) error {
	if !status.Valid() {
		return errors.Validationf("unknown CV status %q", status)
	}
	return r.b.Update(ctx, CVCollection, id, map[string]any{"status": status})
}

func (r *CVRepo) Delete(ctx context.Context, id string) error {
	return r.b.Delete(ctx, CVCollection, id)
}

type PositionRepo struct{ b Backend }

func setPositionID(p *Position, id string) { p.ID = id }

func (r *PositionRepo) Create(ctx context.Context, p *Position) (string, error) {
	p.ID = ""
	if p.CVs == nil {
		p.CVs = []string{}
	}
	id, err := r.b.Create(ctx, PositionCollection, p)
	if err != nil {
		return "", err
	}
	p.ID = id
	return id, nil
}

func (r *PositionRepo) Get(ctx context.Context, id string) (*Position, error) {
	doc, err := r.b.Get(ctx, PositionCollection, id)
	if err != nil {
		return nil, err
	}
	return decode(doc, setPositionID)
}

func (r *PositionRepo) GetMany(ctx context.Context, ids []string) ([]*Position, error) {
	docs, err := r.b.GetAllByIDs(ctx, PositionCollection, ids)
	if err != nil {
		return nil, err
	}
	return decodeAll(docs, setPositionID)
}

func (r *PositionRepo) ListByProject(ctx context.Context, projectID string) ([]*Position, error) {
	docs, err := r.b.FindByField(ctx, PositionCollection, "project_id", projectID)
	if err != nil {
		return nil, err
	}
	return decodeAll(docs, setPositionID)
}

// ListByStatus returns the positions in any of the given statuses across
// all projects, grouped by status in argument order, oldest first within a group.
func (r *PositionRepo) ListByStatus(ctx context.Context, statuses ...PositionStatus) ([]*Position, error) {
	var out []*Position
	for _, status := range statuses {
		docs, err := r.b.FindByField(ctx, PositionCollection, "status", string(status))
		if err != nil {
			return nil, err
		}
		positions, err := decodeAll(docs, setPositionID)
		if err != nil {
			return nil, err
		}
		out = append(out, positions...)
	}
	return out, nil
}

// SetCVs writes the CV list and the status it implies in one update.
func (r *PositionRepo) SetCVs(ctx context.Context, id string, cvs []string, status PositionStatus) error {
	if cvs == nil {
		cvs = []string{}
	}
	return r.b.Update(ctx, PositionCollection, id, map[string]any{"cvs": cvs, "status": status})
}

func (r *PositionRepo) SetStatus(ctx context.Context, id string, status PositionStatus) error {
	return r.b.Update(ctx, PositionCollection, id, map[string]any{"status": status})
}

func (r *PositionRepo) SetJD(ctx context.Context, id, jdID string) error {
	return r.b.Update(ctx, PositionCollection, id, map[string]any{"jd": jdID})
}

func (r *PositionRepo) SetReAnalyzing(ctx context.Context, id string, on bool) error {
	return r.b.Update(ctx, PositionCollection, id, map[string]any{"re_analyzing": on})
}

func (r *PositionRepo) SetMatchDetail(ctx context.Context, id string, detail json.RawMessage) error {
	return r.b.Update(ctx, PositionCollection, id, map[string]any{"match_detail": detail})
}

// PositionUpdate carries the user-editable position fields; nil fields are left alone.
type PositionUpdate struct {
	Name        *string `json:"name,omitempty"`
	Description *string `json:"description,omitempty"`
	Alias       *string `json:"alias,omitempty"`
	StartDate   *string `json:"start_date,omitempty"`
	EndDate     *string `json:"end_date,omitempty"`
}

func (u PositionUpdate) fields() map[string]any {
	f := map[string]any{}
	if u.Name != nil {
		f["name"] = *u.Name
	}
	if u.Description != nil {
		f["description"] = *u.Description
	}
	if u.Alias != nil {
		f["alias"] = *u.Alias
	}
	if u.StartDate != nil {
		f["start_date"] = *u.StartDate
	}
	if u.EndDate != nil {
		f["end_date"] = *u.EndDate
	}
	return f
}

func (r *PositionRepo) Update(ctx context.Context, id string, u PositionUpdate) error {
	f := u.fields()
	if len(f) == 0 {
		_, err := r.b.Get(ctx, PositionCollection, id)
		return err
	}
	return r.b.Update(ctx, PositionCollection, id, f)
}

func (r *PositionRepo) Delete(ctx context.Context, id string) error {
	return r.b.Delete(ctx, PositionCollection, id)
}

type ProjectRepo struct{ b Backend }

func setProjectID(p *Project, id string) { p.ID = id }

func (r *ProjectRepo) Create(ctx context.Context, p *Project) (string, error) {
	p.ID = ""
	if p.Members == nil {
		p.Members = []string{}
	}
	if p.Positions == nil {
		p.Positions = []string{}
	}
	id, err := r.b.Create(ctx, ProjectCollection, p)
	if err != nil {
		return "", err
	}
	p.ID = id
	return id, nil
}

func (r *ProjectRepo) Get(ctx context.Context, id string) (*Project, error) {
	doc, err := r.b.Get(ctx, ProjectCollection, id)
	if err != nil {
		return nil, err
	}
	return decode(doc, setProjectID)
}

func (r *ProjectRepo) SetPositions(ctx context.Context, id string, positions []string) error {
	if positions == nil {
		positions = []string{}
	}
	return r.b.Update(ctx, ProjectCollection, id, map[string]any{"positions": positions})
}

type JDRepo struct{ b Backend }

func setJDID(jd *JD, id string) { jd.ID = id }

func (r *JDRepo) Create(ctx context.Context, jd *JD) (string, error) {
	jd.ID = ""
	id, err := r.b.Create(ctx, JDCollection, jd)
	if err != nil {
		return "", err
	}
	jd.ID = id
	return id, nil
}

func (r *JDRepo) Get(ctx context.Context, id string) (*JD, error) {
	doc, err := r.b.Get(ctx, JDCollection, id)
	if err != nil {
		return nil, err
	}
	return decode(doc, setJDID)
}

func (r *JDRepo) UpdateContent(ctx context.Context, id, content string) error {
	return r.b.Update(ctx, JDCollection, id, map[string]any{"content": content})
}

func (r *JDRepo) UpdateSummary(ctx context.Context, id string, summary json.RawMessage) error {
	return r.b.Update(ctx, JDCollection, id, map[string]any{"summary": summary})
}

func (r *JDRepo) Delete(ctx context.Context, id string) error {
	return r.b.Delete(ctx, JDCollection, id)
}
