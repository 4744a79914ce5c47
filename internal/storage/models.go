package storage

import (
	"encoding/json"
	"time"
)

// Collection names, one per record type.
const (
	ProjectCollection  = "Projects"
	PositionCollection = "Positions"
	CVCollection       = "CVs"
	JDCollection       = "JDs"
)

type CVStatus string

const (
	CVApplying     CVStatus = "applying"
	CVAccepted     CVStatus = "accepted"
	CVInterviewing CVStatus = "interviewing"
	CVHired        CVStatus = "hired"
)

func (s CVStatus) Valid() bool {
	switch s {
	case CVApplying, CVAccepted, CVInterviewing, CVHired:
		return true
	}
	return false
}

type PositionStatus string

const (
	PositionOpen       PositionStatus = "open"
	PositionProcessing PositionStatus = "processing"
	PositionClosed     PositionStatus = "closed"
	PositionCancelled  PositionStatus = "cancelled"
)

// CV is an uploaded resume and everything derived from it.
// Position membership is tracked on the Position, not here.
type CV struct {
	ID       string          `json:"id,omitempty"`
	Name     string          `json:"name"`
	Path     string          `json:"path"`
	URL      string          `json:"url"`
	Weight   *WeightConfig   `json:"weight,omitempty"`
	Matching *MatchingResult `json:"matching,omitempty"`
	Summary  *Summary        `json:"summary,omitempty"`
	Content  string          `json:"content"`
	Labels   []string        `json:"labels"`
	Status   CVStatus        `json:"status"`
	UploadAt time.Time       `json:"upload_at"`
}

// Position is a hiring request inside a project.
type Position struct {
	ID          string          `json:"id,omitempty"`
	ProjectID   string          `json:"project_id"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Alias       string          `json:"alias"`
	Status      PositionStatus  `json:"status"`
	StartDate   string          `json:"start_date"`
	EndDate     string          `json:"end_date"`
	CVs         []string        `json:"cvs"`
	JD          string          `json:"jd"`
	ReAnalyzing bool            `json:"re_analyzing"`
	MatchDetail json.RawMessage `json:"match_detail,omitempty"`
}

// HasCV reports whether id is in the position's CV list.
func (p *Position) HasCV(id string) bool {
	for _, cv := range p.CVs {
		if cv == id {
			return true
		}
	}
	return false
}

// JDForCV returns the position's job description id when cvID belongs to
// the position, and "" otherwise. One JD serves the whole batch.
func (p *Position) JDForCV(cvID string) string {
	if p.HasCV(cvID) {
		return p.JD
	}
	return ""
}

// PublicPosition is the view served without authentication.
type PublicPosition struct {
	ID          string         `json:"id"`
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Alias       string         `json:"alias"`
	Status      PositionStatus `json:"status"`
	JD          string         `json:"jd"`
}

func (p *Position) Public() PublicPosition {
	return PublicPosition{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		Alias:       p.Alias,
		Status:      p.Status,
		JD:          p.JD,
	}
}

type Project struct {
	ID          string   `json:"id,omitempty"`
	Name        string   `json:"name"`
	Alias       string   `json:"alias"`
	Description string   `json:"description"`
	Owner       string   `json:"owner"`
	Members     []string `json:"members"`
	Positions   []string `json:"positions"`
}

// CanAccess reports whether userID owns the project or is a member of it.
func (p *Project) CanAccess(userID string) bool {
	if userID == "" {
		return false
	}
	if p.Owner == userID {
		return true
	}
	for _, m := range p.Members {
		if m == userID {
			return true
		}
	}
	return false
}

func (p *Project) HasPosition(id string) bool {
	for _, pos := range p.Positions {
		if pos == id {
			return true
		}
	}
	return false
}

// JD is a job description attached to a position.
type JD struct {
	ID      string          `json:"id,omitempty"`
	Content string          `json:"content"`
	Summary json.RawMessage `json:"summary,omitempty"`
}
