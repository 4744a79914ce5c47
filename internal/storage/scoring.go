package storage

import (
	"encoding/json"

	"github.com/mitchellh/mapstructure"

	"talent-pipeline/internal/errors"
)

// WeightConfig configures how the matching service weighs each score
// category. Top-level W_* weights select the category share; the *_w
// weights split a category into its sub-scores.
type WeightConfig struct {
	Education        *EducationWeight        `json:"education_score_config,omitempty" mapstructure:"education_score_config"`
	LanguageSkills   *LanguageSkillsWeight   `json:"language_skills_score_config,omitempty" mapstructure:"language_skills_score_config"`
	TechnicalSkills  *TechnicalSkillsWeight  `json:"technical_skills_score_config,omitempty" mapstructure:"technical_skills_score_config"`
	WorkExperience   *WorkExperienceWeight   `json:"work_experience_score_config,omitempty" mapstructure:"work_experience_score_config"`
	PersonalProjects *PersonalProjectsWeight `json:"personal_projects_score_config,omitempty" mapstructure:"personal_projects_score_config"`
	Publications     *PublicationsWeight     `json:"publications_score_config,omitempty" mapstructure:"publications_score_config"`
}

type EducationWeight struct {
	Weight float64 `json:"W_education_score" mapstructure:"W_education_score"`
}

type LanguageSkillsWeight struct {
	Weight float64 `json:"W_language_skills_score" mapstructure:"W_language_skills_score"`
}

type TechnicalSkillsWeight struct {
	Weight float64 `json:"W_technical_skills_score" mapstructure:"W_technical_skills_score"`
}

type WorkExperienceWeight struct {
	Weight           float64 `json:"W_work_experience_score" mapstructure:"W_work_experience_score"`
	Relevance        float64 `json:"relevance_score_w" mapstructure:"relevance_score_w"`
	Duration         float64 `json:"duration_score_w" mapstructure:"duration_score_w"`
	Responsibilities float64 `json:"responsibilities_score_w" mapstructure:"responsibilities_score_w"`
}

type PersonalProjectsWeight struct {
	Weight           float64 `json:"W_personal_projects_score" mapstructure:"W_personal_projects_score"`
	Relevance        float64 `json:"relevance_score_w" mapstructure:"relevance_score_w"`
	Technologies     float64 `json:"technologies_score_w" mapstructure:"technologies_score_w"`
	Responsibilities float64 `json:"responsibilities_score_w" mapstructure:"responsibilities_score_w"`
}

type PublicationsWeight struct {
	Weight float64 `json:"W_publications_score" mapstructure:"W_publications_score"`
}

// DecodeWeight turns a loosely typed weight payload into a WeightConfig.
// Unknown keys and out-of-range weights are validation errors.
func DecodeWeight(raw map[string]any) (*WeightConfig, error) {
	var w WeightConfig
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &w,
		ErrorUnused:      true,
		WeaklyTypedInput: true,
	})
	if err != nil {
		return nil, errors.Wrap(err, "build weight decoder")
	}
	if err := dec.Decode(raw); err != nil {
		return nil, errors.Validationf("malformed weight configuration: %v", err)
	}
	if err := w.Validate(); err != nil {
		return nil, err
	}
	return &w, nil
}

// ParseWeight decodes a JSON weight payload. Empty input yields an empty config.
func ParseWeight(data []byte) (*WeightConfig, error) {
	if len(data) == 0 {
		return &WeightConfig{}, nil
	}
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, errors.Validationf("malformed weight configuration: %v", err)
	}
	return DecodeWeight(raw)
}

type namedWeight struct {
	name  string
	value float64
}

func (w *WeightConfig) weights() []namedWeight {
	var out []namedWeight
	if w.Education != nil {
		out = append(out, namedWeight{"W_education_score", w.Education.Weight})
	}
	if w.LanguageSkills != nil {
		out = append(out, namedWeight{"W_language_skills_score", w.LanguageSkills.Weight})
	}
	if w.TechnicalSkills != nil {
		out = append(out, namedWeight{"W_technical_skills_score", w.TechnicalSkills.Weight})
	}
	if we := w.WorkExperience; we != nil {
		out = append(out,
			namedWeight{"W_work_experience_score", we.Weight},
			namedWeight{"work_experience.relevance_score_w", we.Relevance},
			namedWeight{"work_experience.duration_score_w", we.Duration},
			namedWeight{"work_experience.responsibilities_score_w", we.Responsibilities},
		)
	}
	if pp := w.PersonalProjects; pp != nil {
		out = append(out,
			namedWeight{"W_personal_projects_score", pp.Weight},
			namedWeight{"personal_projects.relevance_score_w", pp.Relevance},
			namedWeight{"personal_projects.technologies_score_w", pp.Technologies},
			namedWeight{"personal_projects.responsibilities_score_w", pp.Responsibilities},
		)
	}
	if w.Publications != nil {
		out = append(out, namedWeight{"W_publications_score", w.Publications.Weight})
	}
	return out
}

// Validate checks every configured weight lies within [0, 1].
func (w *WeightConfig) Validate() error {
	for _, nw := range w.weights() {
		if nw.value < 0 || nw.value > 1 {
			return errors.Validationf("weight %s must be within [0, 1], got %v", nw.name, nw.value)
		}
	}
	return nil
}

// FlexString decodes from either a JSON string or a JSON number; the
// processing service is not consistent about years and dates.
type FlexString string

func (f *FlexString) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		*f = ""
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		*f = FlexString(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	*f = FlexString(n.String())
	return nil
}

// Summary is the structured extraction the processing service returns for a CV.
type Summary struct {
	PersonalInformation       PersonalInformation `json:"PersonalInformation"`
	ProfessionalSummary       string              `json:"ProfessionalSummary,omitempty"`
	Education                 []Education         `json:"Education,omitempty"`
	Skills                    Skills              `json:"Skills"`
	WorkExperience            []WorkExperience    `json:"WorkExperience,omitempty"`
	CertificationsAndTraining []Certification     `json:"CertificationsAndTraining,omitempty"`
	Languages                 []Language          `json:"Languages,omitempty"`
}

type PersonalInformation struct {
	FullName           string             `json:"FullName,omitempty"`
	ContactInformation ContactInformation `json:"ContactInformation"`
}

type ContactInformation struct {
	Email       string `json:"Email,omitempty"`
	PhoneNumber string `json:"PhoneNumber,omitempty"`
	Address     string `json:"Address,omitempty"`
}

type Education struct {
	Degree         string     `json:"Degree,omitempty"`
	Major          string     `json:"Major,omitempty"`
	Institution    string     `json:"Institution,omitempty"`
	GraduationYear FlexString `json:"GraduationYear,omitempty"`
}

type Skills struct {
	TechnicalSkills []string `json:"TechnicalSkills,omitempty"`
	SoftSkills      []string `json:"SoftSkills,omitempty"`
}

type WorkExperience struct {
	JobTitle                           string   `json:"JobTitle,omitempty"`
	CompanyName                        string   `json:"CompanyName,omitempty"`
	Duration                           Duration `json:"Duration"`
	KeyResponsibilitiesAndAchievements string   `json:"KeyResponsibilitiesAndAchievements,omitempty"`
}

type Duration struct {
	StartDate FlexString `json:"StartDate,omitempty"`
	EndDate   FlexString `json:"EndDate,omitempty"`
}

type Certification struct {
	CertificationName   string     `json:"CertificationName,omitempty"`
	IssuingOrganization string     `json:"IssuingOrganization,omitempty"`
	DateObtained        FlexString `json:"DateObtained,omitempty"`
}

type Language struct {
	Language         string `json:"Language,omitempty"`
	ProficiencyLevel string `json:"ProficiencyLevel,omitempty"`
}

// MatchingResult is the scored comparison of a CV against a JD.
type MatchingResult struct {
	OverallResult *ScoreSet `json:"overall_result,omitempty"`
	// Per-category breakdowns, kept as returned by the matching service.
	Details map[string]json.RawMessage `json:"details,omitempty"`
}

// ScoreSet holds the 0–100 scores per category. Nil means not scored.
type ScoreSet struct {
	EducationScore        *float64 `json:"education_score,omitempty"`
	LanguageSkillsScore   *float64 `json:"language_skills_score,omitempty"`
	TechnicalSkillsScore  *float64 `json:"technical_skills_score,omitempty"`
	PersonalProjectsScore *float64 `json:"personal_projects_score,omitempty"`
	WorkExperienceScore   *float64 `json:"work_experience_score,omitempty"`
	PublicationsScore     *float64 `json:"publications_score,omitempty"`
	OverallScore          *float64 `json:"overall_score,omitempty"`
}

// UnmarshalJSON accepts the matching service's flat layout, where the
// category breakdowns sit next to overall_result.
func (m *MatchingResult) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*m = MatchingResult{}
	for key, value := range raw {
		switch key {
		case "overall_result":
			if string(value) == "null" {
				continue
			}
			m.OverallResult = &ScoreSet{}
			if err := json.Unmarshal(value, m.OverallResult); err != nil {
				return errors.Wrap(err, "decode overall_result")
			}
		case "details":
			var details map[string]json.RawMessage
			if err := json.Unmarshal(value, &details); err != nil {
				return errors.Wrap(err, "decode details")
			}
			for k, v := range details {
				m.setDetail(k, v)
			}
		default:
			m.setDetail(key, value)
		}
	}
	return nil
}

func (m *MatchingResult) setDetail(key string, value json.RawMessage) {
	if m.Details == nil {
		m.Details = make(map[string]json.RawMessage)
	}
	m.Details[key] = value
}

// Empty reports whether the result carries no scores at all.
func (m *MatchingResult) Empty() bool {
	return m == nil || (m.OverallResult == nil && len(m.Details) == 0)
}
