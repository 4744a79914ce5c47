package storage

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"talent-pipeline/internal/errors"
)

func TestParseWeight(t *testing.T) {
	w, err := ParseWeight([]byte(`{
		"education_score_config": {"W_education_score": "0.1"},
		"work_experience_score_config": {
			"W_work_experience_score": 0.4,
			"relevance_score_w": 0.5,
			"duration_score_w": 0.3,
			"responsibilities_score_w": 0.2
		}
	}`))
	require.NoError(t, err)
	assert.Equal(t, 0.1, w.Education.Weight)
	assert.Equal(t, 0.4, w.WorkExperience.Weight)
	assert.Equal(t, 0.3, w.WorkExperience.Duration)
	assert.Nil(t, w.Publications)
}

func TestParseWeight_Empty(t *testing.T) {
	w, err := ParseWeight(nil)
	require.NoError(t, err)
	assert.NotNil(t, w)
	assert.Empty(t, w.weights())
}

func TestParseWeight_Invalid(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"not json", `{`},
		{"unknown category", `{"salary_score_config": {"W_salary": 1}}`},
		{"unknown weight", `{"education_score_config": {"W_gpa": 1}}`},
		{"out of range", `{"language_skills_score_config": {"W_language_skills_score": 1.5}}`},
		{"negative", `{"personal_projects_score_config": {"W_personal_projects_score": 0.5, "relevance_score_w": -0.1}}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseWeight([]byte(tt.data))
			require.Error(t, err)
			assert.True(t, errors.Is(err, errors.ErrValidation))
		})
	}
}

func TestSummary_FlexibleDates(t *testing.T) {
	var s Summary
	err := json.Unmarshal([]byte(`{
		"PersonalInformation": {"FullName": "Bob", "ContactInformation": {"Email": "bob@example.com"}},
		"Education": [{"Degree": "BSc", "GraduationYear": 2019}],
		"WorkExperience": [{"JobTitle": "Dev", "Duration": {"StartDate": "2019-06", "EndDate": null}}],
		"CertificationsAndTraining": [{"CertificationName": "CKA", "DateObtained": "2021"}]
	}`), &s)
	require.NoError(t, err)
	assert.Equal(t, FlexString("2019"), s.Education[0].GraduationYear)
	assert.Equal(t, FlexString("2019-06"), s.WorkExperience[0].Duration.StartDate)
	assert.Equal(t, FlexString(""), s.WorkExperience[0].Duration.EndDate)
	assert.Equal(t, FlexString("2021"), s.CertificationsAndTraining[0].DateObtained)
}

func TestMatchingResult_FlatLayout(t *testing.T) {
	var m MatchingResult
	err := json.Unmarshal([]byte(`{
		"overall_result": {"overall_score": 71.5, "education_score": 60},
		"education": {"score": 60, "comment": "ok"},
		"technical_skills": {"score": 80}
	}`), &m)
	require.NoError(t, err)
	require.NotNil(t, m.OverallResult)
	assert.Equal(t, 71.5, *m.OverallResult.OverallScore)
	assert.Nil(t, m.OverallResult.PublicationsScore)
	assert.Len(t, m.Details, 2)
	assert.JSONEq(t, `{"score": 80}`, string(m.Details["technical_skills"]))
	assert.False(t, m.Empty())
}

func TestMatchingResult_StoredLayoutRoundTrip(t *testing.T) {
	score := 42.0
	in := MatchingResult{
		OverallResult: &ScoreSet{OverallScore: &score},
		Details:       map[string]json.RawMessage{"education": json.RawMessage(`{"score":42}`)},
	}
	data, err := json.Marshal(in)
	require.NoError(t, err)

	var out MatchingResult
	require.NoError(t, json.Unmarshal(data, &out))
	assert.Equal(t, 42.0, *out.OverallResult.OverallScore)
	assert.JSONEq(t, `{"score":42}`, string(out.Details["education"]))
}

func TestMatchingResult_Empty(t *testing.T) {
	var nilResult *MatchingResult
	assert.True(t, nilResult.Empty())
	assert.True(t, (&MatchingResult{}).Empty())
}
