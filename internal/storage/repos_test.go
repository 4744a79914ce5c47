package storage

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"talent-pipeline/internal/errors"
)

func TestCVRepo_StageUpdates(t *testing.T) {
	ctx := context.Background()
	s := NewStore(NewMemory())

	cv := &CV{Name: "alice.pdf", Status: CVApplying}
	id, err := s.CVs.Create(ctx, cv)
	require.NoError(t, err)
	assert.Equal(t, id, cv.ID)

	require.NoError(t, s.CVs.UpdatePathURL(ctx, id, "CVs/x.pdf", "http://minio/cvs/CVs/x.pdf"))
	require.NoError(t, s.CVs.UpdateContent(ctx, id, "Go developer"))

	summary := &Summary{PersonalInformation: PersonalInformation{FullName: "Alice"}}
	weight := &WeightConfig{Education: &EducationWeight{Weight: 0.2}}
	require.NoError(t, s.CVs.UpdateAnalysis(ctx, id, summary, []string{"go"}, weight))

	score := 80.0
	require.NoError(t, s.CVs.UpdateMatching(ctx, id, &MatchingResult{OverallResult: &ScoreSet{OverallScore: &score}}))

	got, err := s.CVs.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, id, got.ID)
	assert.Equal(t, "alice.pdf", got.Name)
	assert.Equal(t, "CVs/x.pdf", got.Path)
	assert.Equal(t, "Go developer", got.Content)
	assert.Equal(t, "Alice", got.Summary.PersonalInformation.FullName)
	assert.Equal(t, []string{"go"}, got.Labels)
	assert.Equal(t, 0.2, got.Weight.Education.Weight)
	require.NotNil(t, got.Matching.OverallResult)
	assert.Equal(t, 80.0, *got.Matching.OverallResult.OverallScore)
}

func TestCVRepo_UpdateStatusRejectsUnknown(t *testing.T) {
	ctx := context.Background()
	s := NewStore(NewMemory())
	id, err := s.CVs.Create(ctx, &CV{Name: "a.pdf"})
	require.NoError(t, err)

	err = s.CVs.UpdateStatus(ctx, id, "rejected")
	assert.True(t, errors.Is(err, errors.ErrValidation))

	require.NoError(t, s.CVs.UpdateStatus(ctx, id, CVHired))
	got, err := s.CVs.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, CVHired, got.Status)
}

func TestPositionRepo_SetCVsAndList(t *testing.T) {
	ctx := context.Background()
	s := NewStore(NewMemory())

	id, err := s.Positions.Create(ctx, &Position{ProjectID: "pr1", Name: "Backend", Status: PositionOpen})
	require.NoError(t, err)
	require.NoError(t, s.Positions.SetCVs(ctx, id, []string{"cv1"}, PositionProcessing))

	p, err := s.Positions.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, []string{"cv1"}, p.CVs)
	assert.Equal(t, PositionProcessing, p.Status)
	assert.Equal(t, "cv1", p.CVs[0])
	assert.Equal(t, "", p.JDForCV("cv1"))

	require.NoError(t, s.Positions.SetJD(ctx, id, "jd1"))
	p, err = s.Positions.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "jd1", p.JDForCV("cv1"))
	assert.Equal(t, "", p.JDForCV("other"))

	list, err := s.Positions.ListByProject(ctx, "pr1")
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, id, list[0].ID)
}

func TestPositionRepo_ListByStatus(t *testing.T) {
	ctx := context.Background()
	s := NewStore(NewMemory())

	open, err := s.Positions.Create(ctx, &Position{Name: "Open", Status: PositionOpen})
	require.NoError(t, err)
	_, err = s.Positions.Create(ctx, &Position{Name: "Closed", Status: PositionClosed})
	require.NoError(t, err)
	busy, err := s.Positions.Create(ctx, &Position{Name: "Busy", Status: PositionProcessing})
	require.NoError(t, err)

	list, err := s.Positions.ListByStatus(ctx, PositionOpen, PositionProcessing)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, open, list[0].ID)
	assert.Equal(t, busy, list[1].ID)

	list, err = s.Positions.ListByStatus(ctx)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestPositionRepo_UpdateOnlyGivenFields(t *testing.T) {
	ctx := context.Background()
	s := NewStore(NewMemory())
	id, err := s.Positions.Create(ctx, &Position{Name: "Backend", Alias: "be", Status: PositionOpen})
	require.NoError(t, err)

	name := "Platform"
	require.NoError(t, s.Positions.Update(ctx, id, PositionUpdate{Name: &name}))

	p, err := s.Positions.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "Platform", p.Name)
	assert.Equal(t, "be", p.Alias)

	err = s.Positions.Update(ctx, "missing", PositionUpdate{})
	assert.True(t, errors.Is(err, errors.ErrNotFound))
}

func TestProject_CanAccess(t *testing.T) {
	p := &Project{Owner: "u1", Members: []string{"u2"}, Positions: []string{"pos1"}}

	assert.True(t, p.CanAccess("u1"))
	assert.True(t, p.CanAccess("u2"))
	assert.False(t, p.CanAccess("u3"))
	assert.False(t, p.CanAccess(""))
	assert.True(t, p.HasPosition("pos1"))
	assert.False(t, p.HasPosition("pos2"))
}
