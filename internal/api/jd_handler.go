package api

import (
	"net/http"
)

type updateJDRequest struct {
	Content string `json:"content"`
	LLMName string `json:"llm_name,omitempty"`
}

// GetJDHandler returns the position's job description, creating an empty one on first use
// @Summary Get job description
// @Tags jd
// @Produce json
// @Param X-User-ID header string true "Caller identity"
// @Param project_id path string true "Project ID"
// @Param position_id path string true "Position ID"
// @Success 200 {object} Response{data=storage.JD}
// @Router /jd/{project_id}/{position_id} [get]
func (a *API) GetJDHandler(w http.ResponseWriter, r *http.Request) {
	_, p, err := a.access.Authorize(r.Context(), userID(r), r.PathValue("project_id"), r.PathValue("position_id"))
	if err != nil {
		a.fail(w, r, err)
		return
	}
	jd, err := a.positions.GetJD(r.Context(), p.ID)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	writeOK(w, jd)
}

// UpdateJDHandler stores new JD content and has it summarized
// @Summary Update job description
// @Tags jd
// @Accept json
// @Produce json
// @Param X-User-ID header string true "Caller identity"
// @Param project_id path string true "Project ID"
// @Param position_id path string true "Position ID"
// @Param jd body updateJDRequest true "JD content"
// @Success 200 {object} Response{data=storage.JD}
// @Failure 400 {object} Response
// @Failure 502 {object} Response
// @Router /jd/{project_id}/{position_id} [put]
func (a *API) UpdateJDHandler(w http.ResponseWriter, r *http.Request) {
	_, p, err := a.access.Authorize(r.Context(), userID(r), r.PathValue("project_id"), r.PathValue("position_id"))
	if err != nil {
		a.fail(w, r, err)
		return
	}
	var req updateJDRequest
	if err := decodeJSON(r, &req); err != nil {
		a.fail(w, r, err)
		return
	}
	jd, err := a.positions.UpdateJD(r.Context(), p.ID, req.Content, a.model(req.LLMName))
	if err != nil {
		a.fail(w, r, err)
		return
	}
	writeOK(w, jd)
}
