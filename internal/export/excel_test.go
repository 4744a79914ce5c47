package export

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"talent-pipeline/internal/storage"
)

func sampleCVs() []*storage.CV {
	overall := 87.5
	tech := 90.0
	return []*storage.CV{
		{
			ID:       "older",
			Name:     "bob.pdf",
			UploadAt: time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC),
		},
		{
			ID:       "newer",
			Name:     "alice.pdf",
			UploadAt: time.Date(2024, 3, 2, 9, 0, 0, 0, time.UTC),
			Summary: &storage.Summary{
				PersonalInformation: storage.PersonalInformation{
					FullName:           "Alice Smith",
					ContactInformation: storage.ContactInformation{Email: "alice@example.com"},
				},
				Skills: storage.Skills{TechnicalSkills: []string{"Go", "PostgreSQL"}},
			},
			Matching: &storage.MatchingResult{
				OverallResult: &storage.ScoreSet{OverallScore: &overall, TechnicalSkillsScore: &tech},
			},
		},
	}
}

func readRows(t *testing.T, data []byte, sheet string) [][]string {
	t.Helper()
	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()
	rows, err := f.GetRows(sheet)
	require.NoError(t, err)
	return rows
}

func TestCVSummaryWorkbook(t *testing.T) {
	buf, err := CVSummaryWorkbook(sampleCVs())
	require.NoError(t, err)

	rows := readRows(t, buf.Bytes(), SummarySheet)
	require.Len(t, rows, 3)
	assert.Equal(t, summaryHeaders, rows[0])

	assert.Equal(t, "1", rows[1][0])
	assert.Equal(t, "Alice Smith", rows[1][1])
	assert.Equal(t, "alice@example.com", rows[1][2])
	assert.Equal(t, "Go, PostgreSQL", rows[1][7])

	assert.Equal(t, "2", rows[2][0])
	assert.Equal(t, "bob.pdf", rows[2][1])
}

func TestCVMatchingWorkbook(t *testing.T) {
	buf, err := CVMatchingWorkbook(sampleCVs())
	require.NoError(t, err)

	rows := readRows(t, buf.Bytes(), MatchingSheet)
	require.Len(t, rows, 3)
	assert.Equal(t, matchingHeaders, rows[0])
	assert.Equal(t, "Alice Smith", rows[1][1])
	assert.Equal(t, "90", rows[1][4])
	assert.Equal(t, "87.5", rows[1][8])
}

func TestEmptyWorkbook(t *testing.T) {
	buf, err := CVMatchingWorkbook(nil)
	require.NoError(t, err)
	rows := readRows(t, buf.Bytes(), MatchingSheet)
	assert.Len(t, rows, 1)
}

func TestFormatters(t *testing.T) {
	assert.Equal(t,
		"BSc - Computer Science\nMIT\nGraduation Year: 2015\n\nHigh school",
		FormatEducation([]storage.Education{
			{Degree: "BSc", Major: "Computer Science", Institution: "MIT", GraduationYear: "2015"},
			{Degree: "High school"},
		}))

	assert.Equal(t,
		"Engineer at Acme\nFrom 2019 to 2023\nBuilt things",
		FormatWorkExperience([]storage.WorkExperience{{
			JobTitle:                           "Engineer",
			CompanyName:                        "Acme",
			Duration:                           storage.Duration{StartDate: "2019", EndDate: "2023"},
			KeyResponsibilitiesAndAchievements: "Built things",
		}}))

	assert.Equal(t, "Engineer\nFrom 2019",
		FormatWorkExperience([]storage.WorkExperience{{
			JobTitle: "Engineer",
			Duration: storage.Duration{StartDate: "2019"},
		}}))

	assert.Equal(t, "CKA - CNCF (2022)\nAWS SAA",
		FormatCertifications([]storage.Certification{
			{CertificationName: "CKA", IssuingOrganization: "CNCF", DateObtained: "2022"},
			{CertificationName: "AWS SAA"},
		}))

	assert.Equal(t, "English - Fluent\nGerman",
		FormatLanguages([]storage.Language{
			{Language: "English", ProficiencyLevel: "Fluent"},
			{Language: "German"},
		}))
}
