// Package export renders a position's CVs as Excel workbooks.
package export

import (
	"bytes"
	"fmt"
	"sort"
	"strings"

	"github.com/xuri/excelize/v2"

	"talent-pipeline/internal/errors"
	"talent-pipeline/internal/storage"
)

const (
	SummarySheet  = "CVs Summary"
	MatchingSheet = "CVs Matching"
)

var summaryHeaders = []string{
	"ID", "Name", "Email", "Phone Number", "Address", "Professional Summary",
	"Education", "Technical Skills", "Work Experience", "Soft Skills",
	"Certifications", "Languages",
}

var matchingHeaders = []string{
	"ID", "Name", "Education", "Language Skills", "Technical Skills",
	"Personal Projects", "Work Experience", "Publications", "Overall",
}

// CVSummaryWorkbook lays out one row per CV with its extracted summary,
// newest upload first. IDs are sequential row numbers.
func CVSummaryWorkbook(cvs []*storage.CV) (*bytes.Buffer, error) {
	rows := make([][]any, 0, len(cvs))
	for i, cv := range newestFirst(cvs) {
		s := cv.Summary
		if s == nil {
			s = &storage.Summary{}
		}
		contact := s.PersonalInformation.ContactInformation
		rows = append(rows, []any{
			i + 1,
			displayName(cv),
			contact.Email,
			contact.PhoneNumber,
			contact.Address,
			s.ProfessionalSummary,
			FormatEducation(s.Education),
			strings.Join(s.Skills.TechnicalSkills, ", "),
			FormatWorkExperience(s.WorkExperience),
			strings.Join(s.Skills.SoftSkills, ", "),
			FormatCertifications(s.CertificationsAndTraining),
			FormatLanguages(s.Languages),
		})
	}
	return workbook(SummarySheet, summaryHeaders, rows)
}

// CVMatchingWorkbook lays out one row per CV with its overall scores,
// newest upload first. Unscored categories are left blank.
func CVMatchingWorkbook(cvs []*storage.CV) (*bytes.Buffer, error) {
	rows := make([][]any, 0, len(cvs))
	for i, cv := range newestFirst(cvs) {
		scores := &storage.ScoreSet{}
		if cv.Matching != nil && cv.Matching.OverallResult != nil {
			scores = cv.Matching.OverallResult
		}
		rows = append(rows, []any{
			i + 1,
			displayName(cv),
			score(scores.EducationScore),
			score(scores.LanguageSkillsScore),
			score(scores.TechnicalSkillsScore),
			score(scores.PersonalProjectsScore),
			score(scores.WorkExperienceScore),
			score(scores.PublicationsScore),
			score(scores.OverallScore),
		})
	}
	return workbook(MatchingSheet, matchingHeaders, rows)
}

func workbook(sheet string, headers []string, rows [][]any) (*bytes.Buffer, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return nil, errors.Wrap(err, "rename sheet")
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"4472C4"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	if err != nil {
		return nil, errors.Wrap(err, "create header style")
	}
	wrapStyle, err := f.NewStyle(&excelize.Style{
		Alignment: &excelize.Alignment{WrapText: true, Vertical: "top"},
	})
	if err != nil {
		return nil, errors.Wrap(err, "create cell style")
	}

	if err := f.SetSheetRow(sheet, "A1", &headers); err != nil {
		return nil, errors.Wrap(err, "write header")
	}
	lastCol, _ := excelize.ColumnNumberToName(len(headers))
	if err := f.SetCellStyle(sheet, "A1", lastCol+"1", headerStyle); err != nil {
		return nil, errors.Wrap(err, "style header")
	}
	if err := f.SetColWidth(sheet, "B", lastCol, 25); err != nil {
		return nil, errors.Wrap(err, "set column width")
	}

	for i, row := range rows {
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return nil, errors.Wrapf(err, "write row %d", i+1)
		}
	}
	if len(rows) > 0 {
		last := fmt.Sprintf("%s%d", lastCol, len(rows)+1)
		if err := f.SetCellStyle(sheet, "A2", last, wrapStyle); err != nil {
			return nil, errors.Wrap(err, "style rows")
		}
	}

	if err := f.SetPanes(sheet, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	}); err != nil {
		return nil, errors.Wrap(err, "freeze header")
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, errors.Wrap(err, "write workbook")
	}
	return buf, nil
}

func newestFirst(cvs []*storage.CV) []*storage.CV {
	out := make([]*storage.CV, len(cvs))
	copy(out, cvs)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].UploadAt.After(out[j].UploadAt)
	})
	return out
}

func displayName(cv *storage.CV) string {
	if cv.Summary != nil && cv.Summary.PersonalInformation.FullName != "" {
		return cv.Summary.PersonalInformation.FullName
	}
	return cv.Name
}

func score(v *float64) any {
	if v == nil {
		return ""
	}
	return *v
}

// joinNonEmpty joins the non-empty parts with sep.
func joinNonEmpty(sep string, parts ...string) string {
	var kept []string
	for _, p := range parts {
		if p != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, sep)
}

// FormatEducation renders each entry as "Degree - Major", institution and
// graduation year on separate lines, with a blank line between entries.
func FormatEducation(education []storage.Education) string {
	entries := make([]string, len(education))
	for i, e := range education {
		year := ""
		if e.GraduationYear != "" {
			year = "Graduation Year: " + string(e.GraduationYear)
		}
		entries[i] = joinNonEmpty("\n",
			joinNonEmpty(" - ", e.Degree, e.Major),
			e.Institution,
			year)
	}
	return strings.Join(entries, "\n\n")
}

func FormatWorkExperience(work []storage.WorkExperience) string {
	entries := make([]string, len(work))
	for i, w := range work {
		entries[i] = joinNonEmpty("\n",
			joinNonEmpty(" at ", w.JobTitle, w.CompanyName),
			formatDuration(w.Duration),
			w.KeyResponsibilitiesAndAchievements)
	}
	return strings.Join(entries, "\n\n")
}

func formatDuration(d storage.Duration) string {
	start, end := string(d.StartDate), string(d.EndDate)
	switch {
	case start != "" && end != "":
		return "From " + start + " to " + end
	case start != "":
		return "From " + start
	case end != "":
		return "Until " + end
	}
	return ""
}

func FormatCertifications(certs []storage.Certification) string {
	lines := make([]string, len(certs))
	for i, c := range certs {
		line := joinNonEmpty(" - ", c.CertificationName, c.IssuingOrganization)
		if c.DateObtained != "" {
			line += " (" + string(c.DateObtained) + ")"
		}
		lines[i] = line
	}
	return strings.Join(lines, "\n")
}

func FormatLanguages(langs []storage.Language) string {
	lines := make([]string, len(langs))
	for i, l := range langs {
		lines[i] = joinNonEmpty(" - ", l.Language, l.ProficiencyLevel)
	}
	return strings.Join(lines, "\n")
}
