package api

import (
	"context"
	"net/http"

	"talent-pipeline/internal/position"
	"talent-pipeline/internal/storage"
)

// CreatePositionHandler opens a new position in a project
// @Summary Create position
// @Tags positions
// @Accept json
// @Produce json
// @Param X-User-ID header string true "Caller identity"
// @Param project_id path string true "Project ID"
// @Param position body position.PositionInput true "Position"
// @Success 201 {object} Response{data=storage.Position}
// @Router /positions/{project_id} [post]
func (a *API) CreatePositionHandler(w http.ResponseWriter, r *http.Request) {
	projectID := r.PathValue("project_id")
	if _, err := a.access.AuthorizeProject(r.Context(), userID(r), projectID); err != nil {
		a.fail(w, r, err)
		return
	}
	var in position.PositionInput
	if err := decodeJSON(r, &in); err != nil {
		a.fail(w, r, err)
		return
	}
	p, err := a.positions.CreatePosition(r.Context(), projectID, in)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, "success", p)
}

// ListPositionsHandler lists a project's positions
// @Summary List positions
// @Tags positions
// @Produce json
// @Param X-User-ID header string true "Caller identity"
// @Param project_id path string true "Project ID"
// @Success 200 {object} Response{data=[]storage.Position}
// @Router /positions/{project_id} [get]
func (a *API) ListPositionsHandler(w http.ResponseWriter, r *http.Request) {
	projectID := r.PathValue("project_id")
	if _, err := a.access.AuthorizeProject(r.Context(), userID(r), projectID); err != nil {
		a.fail(w, r, err)
		return
	}
	positions, err := a.positions.ListPositions(r.Context(), projectID)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	writeOK(w, positions)
}

// GetPositionHandler returns one position
// @Summary Get position
// @Tags positions
// @Produce json
// @Param X-User-ID header string true "Caller identity"
// @Param project_id path string true "Project ID"
// @Param position_id path string true "Position ID"
// @Success 200 {object} Response{data=storage.Position}
// @Router /positions/{project_id}/{position_id} [get]
func (a *API) GetPositionHandler(w http.ResponseWriter, r *http.Request) {
	_, p, err := a.access.Authorize(r.Context(), userID(r), r.PathValue("project_id"), r.PathValue("position_id"))
	if err != nil {
		a.fail(w, r, err)
		return
	}
	writeOK(w, p)
}

// GetPublicPositionHandler returns the public view of a position. No identity is required.
// @Summary Get public position
// @Tags positions
// @Produce json
// @Param position_id path string true "Position ID"
// @Success 200 {object} Response{data=storage.PublicPosition}
// @Router /positions/public/{position_id} [get]
func (a *API) GetPublicPositionHandler(w http.ResponseWriter, r *http.Request) {
	p, err := a.positions.Get(r.Context(), r.PathValue("position_id"))
	if err != nil {
		a.fail(w, r, err)
		return
	}
	writeOK(w, p.Public())
}

// UpdatePositionHandler edits a position's name, alias, description or dates
// @Summary Update position
// @Tags positions
// @Accept json
// @Produce json
// @Param X-User-ID header string true "Caller identity"
// @Param project_id path string true "Project ID"
// @Param position_id path string true "Position ID"
// @Param position body storage.PositionUpdate true "Fields to change"
// @Success 200 {object} Response{data=storage.Position}
// @Router /positions/{project_id}/{position_id} [put]
func (a *API) UpdatePositionHandler(w http.ResponseWriter, r *http.Request) {
	_, p, err := a.access.Authorize(r.Context(), userID(r), r.PathValue("project_id"), r.PathValue("position_id"))
	if err != nil {
		a.fail(w, r, err)
		return
	}
	var u storage.PositionUpdate
	if err := decodeJSON(r, &u); err != nil {
		a.fail(w, r, err)
		return
	}
	updated, err := a.positions.UpdatePosition(r.Context(), p.ID, u)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	writeOK(w, updated)
}

// ClosePositionHandler stops a position from taking new CVs
// @Summary Close position
// @Tags positions
// @Produce json
// @Param X-User-ID header string true "Caller identity"
// @Param project_id path string true "Project ID"
// @Param position_id path string true "Position ID"
// @Success 200 {object} Response{data=storage.Position}
// @Failure 409 {object} Response
// @Router /positions/{project_id}/{position_id}/close [put]
func (a *API) ClosePositionHandler(w http.ResponseWriter, r *http.Request) {
	a.transition(w, r, a.positions.Close)
}

// OpenPositionHandler reopens a closed position
// @Summary Open position
// @Tags positions
// @Produce json
// @Param X-User-ID header string true "Caller identity"
// @Param project_id path string true "Project ID"
// @Param position_id path string true "Position ID"
// @Success 200 {object} Response{data=storage.Position}
// @Failure 409 {object} Response
// @Router /positions/{project_id}/{position_id}/open [put]
func (a *API) OpenPositionHandler(w http.ResponseWriter, r *http.Request) {
	a.transition(w, r, a.positions.Open)
}

func (a *API) transition(w http.ResponseWriter, r *http.Request, apply func(ctx context.Context, positionID string) (*storage.Position, error)) {
	_, p, err := a.access.Authorize(r.Context(), userID(r), r.PathValue("project_id"), r.PathValue("position_id"))
	if err != nil {
		a.fail(w, r, err)
		return
	}
	updated, err := apply(r.Context(), p.ID)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	writeOK(w, updated)
}

// DeletePositionHandler deletes a position with its CVs, files and JD
// @Summary Delete position
// @Tags positions
// @Produce json
// @Param X-User-ID header string true "Caller identity"
// @Param project_id path string true "Project ID"
// @Param position_id path string true "Position ID"
// @Success 200 {object} Response
// @Router /positions/{project_id}/{position_id} [delete]
func (a *API) DeletePositionHandler(w http.ResponseWriter, r *http.Request) {
	project, p, err := a.access.Authorize(r.Context(), userID(r), r.PathValue("project_id"), r.PathValue("position_id"))
	if err != nil {
		a.fail(w, r, err)
		return
	}
	if err := a.pipeline.DeletePosition(r.Context(), project.ID, p.ID); err != nil {
		a.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, "position deleted", nil)
}
