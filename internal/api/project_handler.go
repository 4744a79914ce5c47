package api

import (
	"net/http"

	"talent-pipeline/internal/position"
)

// CreateProjectHandler creates a project owned by the caller
// @Summary Create project
// @Tags projects
// @Accept json
// @Produce json
// @Param X-User-ID header string true "Caller identity"
// @Param project body position.ProjectInput true "Project"
// @Success 201 {object} Response{data=storage.Project}
// @Failure 400 {object} Response
// @Router /projects [post]
func (a *API) CreateProjectHandler(w http.ResponseWriter, r *http.Request) {
	owner := userID(r)
	if owner == "" {
		writeJSON(w, http.StatusForbidden, "missing user identity", nil)
		return
	}
	var in position.ProjectInput
	if err := decodeJSON(r, &in); err != nil {
		a.fail(w, r, err)
		return
	}
	project, err := a.positions.CreateProject(r.Context(), owner, in)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, "success", project)
}

// GetProjectHandler returns a project the caller owns or belongs to
// @Summary Get project
// @Tags projects
// @Produce json
// @Param X-User-ID header string true "Caller identity"
// @Param project_id path string true "Project ID"
// @Success 200 {object} Response{data=storage.Project}
// @Failure 403 {object} Response
// @Failure 404 {object} Response
// @Router /projects/{project_id} [get]
func (a *API) GetProjectHandler(w http.ResponseWriter, r *http.Request) {
	project, err := a.access.AuthorizeProject(r.Context(), userID(r), r.PathValue("project_id"))
	if err != nil {
		a.fail(w, r, err)
		return
	}
	writeOK(w, project)
}
