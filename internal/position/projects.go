package position

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"talent-pipeline/internal/aiclient"
	"talent-pipeline/internal/errors"
	"talent-pipeline/internal/logger"
	"talent-pipeline/internal/storage"
)

type ProjectInput struct {
	Name        string   `json:"name"`
	Alias       string   `json:"alias"`
	Description string   `json:"description"`
	Members     []string `json:"members"`
}

func (s *Service) CreateProject(ctx context.Context, owner string, in ProjectInput) (*storage.Project, error) {
	if strings.TrimSpace(in.Name) == "" {
		return nil, errors.Validationf("project name is required")
	}
	p := &storage.Project{
		Name:        in.Name,
		Alias:       in.Alias,
		Description: in.Description,
		Owner:       owner,
		Members:     in.Members,
	}
	if _, err := s.store.Projects.Create(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *Service) GetProject(ctx context.Context, projectID string) (*storage.Project, error) {
	return s.store.Projects.Get(ctx, projectID)
}

type PositionInput struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Alias       string `json:"alias"`
	StartDate   string `json:"start_date"`
	EndDate     string `json:"end_date"`
}

// CreatePosition creates an open position and lists it on its project.
func (s *Service) CreatePosition(ctx context.Context, projectID string, in PositionInput) (*storage.Position, error) {
	if strings.TrimSpace(in.Name) == "" {
		return nil, errors.Validationf("position name is required")
	}

	unlock := s.locks.Lock(projectKey(projectID))
	defer unlock()

	project, err := s.store.Projects.Get(ctx, projectID)
	if err != nil {
		return nil, err
	}

	p := &storage.Position{
		ProjectID:   projectID,
		Name:        in.Name,
		Description: in.Description,
		Alias:       in.Alias,
		Status:      storage.PositionOpen,
		StartDate:   in.StartDate,
		EndDate:     in.EndDate,
	}
	if _, err := s.store.Positions.Create(ctx, p); err != nil {
		return nil, err
	}
	if err := s.store.Projects.SetPositions(ctx, projectID, append(project.Positions, p.ID)); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *Service) ListPositions(ctx context.Context, projectID string) ([]*storage.Position, error) {
	project, err := s.store.Projects.Get(ctx, projectID)
	if err != nil {
		return nil, err
	}
	return s.store.Positions.GetMany(ctx, project.Positions)
}

func (s *Service) UpdatePosition(ctx context.Context, positionID string, u storage.PositionUpdate) (*storage.Position, error) {
	if u.Name != nil && strings.TrimSpace(*u.Name) == "" {
		return nil, errors.Validationf("position name cannot be empty")
	}
	unlock := s.locks.Lock(positionID)
	defer unlock()

	if err := s.store.Positions.Update(ctx, positionID, u); err != nil {
		return nil, err
	}
	return s.store.Positions.Get(ctx, positionID)
}

// DeletePosition removes the position record, its JD, and its entry in
// the project. The caller removes the position's CVs first.
func (s *Service) DeletePosition(ctx context.Context, projectID, positionID string) error {
	unlockProject := s.locks.Lock(projectKey(projectID))
	defer unlockProject()
	unlock := s.locks.Lock(positionID)
	defer unlock()

	p, err := s.store.Positions.Get(ctx, positionID)
	if err != nil {
		return err
	}
	if p.JD != "" {
		if err := s.store.JDs.Delete(ctx, p.JD); err != nil && !errors.Is(err, errors.ErrNotFound) {
			return err
		}
	}
	if err := s.store.Positions.Delete(ctx, positionID); err != nil {
		return err
	}

	project, err := s.store.Projects.Get(ctx, projectID)
	if err != nil {
		return err
	}
	kept := make([]string, 0, len(project.Positions))
	for _, id := range project.Positions {
		if id != positionID {
			kept = append(kept, id)
		}
	}
	s.log.Info("position deleted",
		zap.String(logger.FieldProjectID, projectID),
		zap.String(logger.FieldPositionID, positionID))
	return s.store.Projects.SetPositions(ctx, projectID, kept)
}

// GetJD returns the position's job description, creating an empty one the
// first time it is asked for.
func (s *Service) GetJD(ctx context.Context, positionID string) (*storage.JD, error) {
	unlock := s.locks.Lock(positionID)
	defer unlock()
	return s.getOrCreateJD(ctx, positionID)
}

func (s *Service) getOrCreateJD(ctx context.Context, positionID string) (*storage.JD, error) {
	p, err := s.store.Positions.Get(ctx, positionID)
	if err != nil {
		return nil, err
	}
	if p.JD != "" {
		jd, err := s.store.JDs.Get(ctx, p.JD)
		if err == nil {
			return jd, nil
		}
		if !errors.Is(err, errors.ErrNotFound) {
			return nil, err
		}
		s.log.Warn("position points at a missing JD, creating a new one",
			zap.String(logger.FieldPositionID, positionID),
			zap.String(logger.FieldJDID, p.JD))
	}

	jd := &storage.JD{}
	if _, err := s.store.JDs.Create(ctx, jd); err != nil {
		return nil, err
	}
	if err := s.store.Positions.SetJD(ctx, positionID, jd.ID); err != nil {
		return nil, err
	}
	return jd, nil
}

// UpdateJD stores new content for the position's JD and has the processing
// service summarize it.
func (s *Service) UpdateJD(ctx context.Context, positionID, content, model string) (*storage.JD, error) {
	if strings.TrimSpace(content) == "" {
		return nil, errors.Validationf("job description content is empty")
	}

	unlock := s.locks.Lock(positionID)
	defer unlock()

	jd, err := s.getOrCreateJD(ctx, positionID)
	if err != nil {
		return nil, err
	}
	if err := s.store.JDs.UpdateContent(ctx, jd.ID, content); err != nil {
		return nil, err
	}
	jd.Content = content

	results, err := s.processor.Process(ctx, []string{jd.ID}, aiclient.DocJD, model)
	if err != nil {
		return nil, err
	}
	if len(results) == 0 {
		return nil, errors.Upstream(errors.Newf("no result for JD %s", jd.ID), "processing service")
	}
	if err := s.store.JDs.UpdateSummary(ctx, jd.ID, results[0].Summary); err != nil {
		return nil, err
	}
	jd.Summary = results[0].Summary
	return jd, nil
}

func projectKey(id string) string { return "project:" + id }
