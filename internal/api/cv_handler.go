package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"

	"go.uber.org/zap"

	"talent-pipeline/internal/errors"
	"talent-pipeline/internal/export"
	"talent-pipeline/internal/logger"
	"talent-pipeline/internal/pipeline"
	"talent-pipeline/internal/storage"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type progressResponse struct {
	ProgressID string `json:"progress_id"`
}

type matchRequest struct {
	Weight  json.RawMessage `json:"weight,omitempty"`
	LLMName string          `json:"llm_name,omitempty"`
}

type statusRequest struct {
	Status storage.CVStatus `json:"status"`
}

type cvDetail struct {
	Summary  *storage.Summary        `json:"summary"`
	Matching *storage.MatchingResult `json:"matching"`
}

// UploadCVsHandler queues a batch of CVs for ingestion and matching
// @Summary Upload CVs
// @Description Uploads CVs to a position. Poll /cv/progress/{watch_id} with the returned progress_id.
// @Tags cv
// @Accept multipart/form-data
// @Produce json
// @Param X-User-ID header string true "Caller identity"
// @Param project_id path string true "Project ID"
// @Param position_id path string true "Position ID"
// @Param cvs formData file true "CV files"
// @Param weight formData string false "Weight configuration (JSON)"
// @Param llm_name formData string false "LLM to use"
// @Success 202 {object} Response{data=progressResponse}
// @Failure 400 {object} Response
// @Failure 409 {object} Response
// @Router /cv/{project_id}/{position_id}/uploads [post]
func (a *API) UploadCVsHandler(w http.ResponseWriter, r *http.Request) {
	_, p, err := a.access.Authorize(r.Context(), userID(r), r.PathValue("project_id"), r.PathValue("position_id"))
	if err != nil {
		a.fail(w, r, err)
		return
	}
	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		a.fail(w, r, errors.Validationf("file too large or invalid (max %dMB)", maxUploadSize>>20))
		return
	}
	files, err := readFiles(r.MultipartForm.File["cvs"])
	if err != nil {
		a.fail(w, r, err)
		return
	}
	weight, err := storage.ParseWeight([]byte(r.FormValue("weight")))
	if err != nil {
		a.fail(w, r, err)
		return
	}

	watchID, err := a.pipeline.StartIngestion(r.Context(), pipeline.IngestRequest{
		PositionID: p.ID,
		Files:      files,
		Weight:     weight,
		Model:      a.model(r.FormValue("llm_name")),
	})
	if err != nil {
		a.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusAccepted, "success", progressResponse{ProgressID: watchID})
}

// UploadCVHandler stores a single CV for a position, typically from its public page
// @Summary Upload one CV
// @Description Runs the upload steps only; processing and matching happen on /analyze.
// @Tags cv
// @Accept multipart/form-data
// @Produce json
// @Param position_id path string true "Position ID"
// @Param cv formData file true "CV file"
// @Success 202 {object} Response{data=progressResponse}
// @Failure 400 {object} Response
// @Failure 409 {object} Response
// @Router /cv/{position_id}/upload [post]
func (a *API) UploadCVHandler(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		a.fail(w, r, errors.Validationf("file too large or invalid (max %dMB)", maxUploadSize>>20))
		return
	}
	files, err := readFiles(r.MultipartForm.File["cv"])
	if err != nil {
		a.fail(w, r, err)
		return
	}
	if len(files) != 1 {
		a.fail(w, r, errors.Validationf("expected exactly one file, got %d", len(files)))
		return
	}
	watchID, err := a.pipeline.StartSingleUpload(r.Context(), r.PathValue("position_id"), files[0])
	if err != nil {
		a.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusAccepted, "CV uploaded successfully", progressResponse{ProgressID: watchID})
}

// RematchHandler re-runs matching for every CV of the position in the background
// @Summary Re-match CVs
// @Tags cv
// @Accept json
// @Produce json
// @Param X-User-ID header string true "Caller identity"
// @Param project_id path string true "Project ID"
// @Param position_id path string true "Position ID"
// @Param request body matchRequest false "Weight configuration and LLM"
// @Success 202 {object} Response
// @Failure 404 {object} Response
// @Router /cv/{project_id}/{position_id}/rematch [post]
func (a *API) RematchHandler(w http.ResponseWriter, r *http.Request) {
	_, p, err := a.access.Authorize(r.Context(), userID(r), r.PathValue("project_id"), r.PathValue("position_id"))
	if err != nil {
		a.fail(w, r, err)
		return
	}
	req, weight, err := decodeMatchRequest(r)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	if err := a.pipeline.StartRematch(r.Context(), p.ID, weight, a.model(req.LLMName)); err != nil {
		a.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusAccepted, "re-matching started", nil)
}

// AnalyzeHandler processes CVs that have no summary yet and matches all CVs of the position
// @Summary Analyze CVs
// @Tags cv
// @Accept json
// @Produce json
// @Param X-User-ID header string true "Caller identity"
// @Param project_id path string true "Project ID"
// @Param position_id path string true "Position ID"
// @Param request body matchRequest false "Weight configuration and LLM"
// @Success 202 {object} Response{data=progressResponse}
// @Router /cv/{project_id}/{position_id}/analyze [post]
func (a *API) AnalyzeHandler(w http.ResponseWriter, r *http.Request) {
	_, p, err := a.access.Authorize(r.Context(), userID(r), r.PathValue("project_id"), r.PathValue("position_id"))
	if err != nil {
		a.fail(w, r, err)
		return
	}
	req, weight, err := decodeMatchRequest(r)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	watchID, err := a.pipeline.StartAnalysis(r.Context(), p.ID, weight, a.model(req.LLMName))
	if err != nil {
		a.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusAccepted, "success", progressResponse{ProgressID: watchID})
}

// ProgressHandler returns the progress record of an upload
// @Summary Upload progress
// @Tags cv
// @Produce json
// @Param watch_id path string true "Progress ID"
// @Success 200 {object} Response{data=progress.Record}
// @Router /cv/progress/{watch_id} [get]
func (a *API) ProgressHandler(w http.ResponseWriter, r *http.Request) {
	rec, err := a.pipeline.GetProgress(r.Context(), r.PathValue("watch_id"))
	if err != nil {
		a.fail(w, r, err)
		return
	}
	writeOK(w, rec)
}

// ListCVsHandler lists the position's CVs
// @Summary List CVs
// @Tags cv
// @Produce json
// @Param X-User-ID header string true "Caller identity"
// @Param project_id path string true "Project ID"
// @Param position_id path string true "Position ID"
// @Success 200 {object} Response{data=[]storage.CV}
// @Router /cv/{project_id}/{position_id} [get]
func (a *API) ListCVsHandler(w http.ResponseWriter, r *http.Request) {
	cvs, ok := a.positionCVs(w, r)
	if !ok {
		return
	}
	writeOK(w, cvs)
}

// GetCVHandler returns one CV
// @Summary Get CV
// @Tags cv
// @Produce json
// @Param X-User-ID header string true "Caller identity"
// @Param project_id path string true "Project ID"
// @Param position_id path string true "Position ID"
// @Param cv_id path string true "CV ID"
// @Success 200 {object} Response{data=storage.CV}
// @Router /cv/{project_id}/{position_id}/{cv_id} [get]
func (a *API) GetCVHandler(w http.ResponseWriter, r *http.Request) {
	cv, ok := a.authorizedCV(w, r)
	if !ok {
		return
	}
	writeOK(w, cv)
}

// GetCVDetailHandler returns a CV's summary and matching result
// @Summary Get CV detail
// @Tags cv
// @Produce json
// @Param X-User-ID header string true "Caller identity"
// @Param project_id path string true "Project ID"
// @Param position_id path string true "Position ID"
// @Param cv_id path string true "CV ID"
// @Success 200 {object} Response{data=cvDetail}
// @Router /cv/{project_id}/{position_id}/{cv_id}/detail [get]
func (a *API) GetCVDetailHandler(w http.ResponseWriter, r *http.Request) {
	cv, ok := a.authorizedCV(w, r)
	if !ok {
		return
	}
	writeOK(w, cvDetail{Summary: cv.Summary, Matching: cv.Matching})
}

// DownloadCVHandler streams the stored CV file
// @Summary Download CV
// @Tags cv
// @Produce octet-stream
// @Param X-User-ID header string true "Caller identity"
// @Param project_id path string true "Project ID"
// @Param position_id path string true "Position ID"
// @Param cv_id path string true "CV ID"
// @Success 200 {file} file
// @Failure 404 {object} Response
// @Router /cv/{project_id}/{position_id}/{cv_id}/download [get]
func (a *API) DownloadCVHandler(w http.ResponseWriter, r *http.Request) {
	cv, ok := a.authorizedCV(w, r)
	if !ok {
		return
	}
	dl, err := a.pipeline.DownloadCV(r.Context(), cv.ID)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	a.attachment(w, dl.ContentType, dl.Filename, dl.Data)
}

// UpdateCVStatusHandler moves a CV through the hiring steps
// @Summary Update CV status
// @Tags cv
// @Accept json
// @Produce json
// @Param X-User-ID header string true "Caller identity"
// @Param project_id path string true "Project ID"
// @Param position_id path string true "Position ID"
// @Param cv_id path string true "CV ID"
// @Param status body statusRequest true "applying, accepted, interviewing or hired"
// @Success 200 {object} Response{data=storage.CV}
// @Failure 400 {object} Response
// @Router /cv/{project_id}/{position_id}/{cv_id}/status [put]
func (a *API) UpdateCVStatusHandler(w http.ResponseWriter, r *http.Request) {
	cv, ok := a.authorizedCV(w, r)
	if !ok {
		return
	}
	var req statusRequest
	if err := decodeJSON(r, &req); err != nil {
		a.fail(w, r, err)
		return
	}
	updated, err := a.pipeline.UpdateCVStatus(r.Context(), cv.ID, req.Status)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	writeOK(w, updated)
}

// DeleteCVHandler deletes a CV with its file and removes it from the position
// @Summary Delete CV
// @Tags cv
// @Produce json
// @Param X-User-ID header string true "Caller identity"
// @Param project_id path string true "Project ID"
// @Param position_id path string true "Position ID"
// @Param cv_id path string true "CV ID"
// @Success 200 {object} Response
// @Router /cv/{project_id}/{position_id}/{cv_id} [delete]
func (a *API) DeleteCVHandler(w http.ResponseWriter, r *http.Request) {
	_, p, err := a.access.Authorize(r.Context(), userID(r), r.PathValue("project_id"), r.PathValue("position_id"))
	if err != nil {
		a.fail(w, r, err)
		return
	}
	if err := a.pipeline.DeleteCV(r.Context(), p.ID, r.PathValue("cv_id")); err != nil {
		a.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, "CV deleted", nil)
}

// DownloadSummaryHandler exports the position's CV summaries as an Excel workbook
// @Summary Download CV summaries
// @Tags cv
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Param X-User-ID header string true "Caller identity"
// @Param project_id path string true "Project ID"
// @Param position_id path string true "Position ID"
// @Success 200 {file} file
// @Router /cv/{project_id}/{position_id}/download/summary [get]
func (a *API) DownloadSummaryHandler(w http.ResponseWriter, r *http.Request) {
	a.exportWorkbook(w, r, "cvs_summary.xlsx", export.CVSummaryWorkbook)
}

// DownloadMatchingHandler exports the position's matching scores as an Excel workbook
// @Summary Download CV matching scores
// @Tags cv
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Param X-User-ID header string true "Caller identity"
// @Param project_id path string true "Project ID"
// @Param position_id path string true "Position ID"
// @Success 200 {file} file
// @Router /cv/{project_id}/{position_id}/download/matching [get]
func (a *API) DownloadMatchingHandler(w http.ResponseWriter, r *http.Request) {
	a.exportWorkbook(w, r, "cvs_matching.xlsx", export.CVMatchingWorkbook)
}

func (a *API) exportWorkbook(w http.ResponseWriter, r *http.Request, filename string, build func([]*storage.CV) (*bytes.Buffer, error)) {
	cvs, ok := a.positionCVs(w, r)
	if !ok {
		return
	}
	buf, err := build(cvs)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	a.attachment(w, xlsxContentType, filename, buf.Bytes())
}

func (a *API) positionCVs(w http.ResponseWriter, r *http.Request) ([]*storage.CV, bool) {
	_, p, err := a.access.Authorize(r.Context(), userID(r), r.PathValue("project_id"), r.PathValue("position_id"))
	if err != nil {
		a.fail(w, r, err)
		return nil, false
	}
	cvs, err := a.pipeline.ListCVs(r.Context(), p.ID)
	if err != nil {
		a.fail(w, r, err)
		return nil, false
	}
	return cvs, true
}

func (a *API) authorizedCV(w http.ResponseWriter, r *http.Request) (*storage.CV, bool) {
	_, p, err := a.access.Authorize(r.Context(), userID(r), r.PathValue("project_id"), r.PathValue("position_id"))
	if err != nil {
		a.fail(w, r, err)
		return nil, false
	}
	cv, err := a.pipeline.GetCV(r.Context(), p.ID, r.PathValue("cv_id"))
	if err != nil {
		a.fail(w, r, err)
		return nil, false
	}
	return cv, true
}

func (a *API) attachment(w http.ResponseWriter, contentType, filename string, data []byte) {
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(data); err != nil {
		a.log.Warn("writing download failed", zap.String(logger.FieldFile, filename), zap.Error(err))
	}
}

func decodeMatchRequest(r *http.Request) (matchRequest, *storage.WeightConfig, error) {
	var req matchRequest
	if r.ContentLength != 0 {
		if err := decodeJSON(r, &req); err != nil {
			return req, nil, err
		}
	}
	weight, err := storage.ParseWeight(req.Weight)
	if err != nil {
		return req, nil, err
	}
	return req, weight, nil
}

func readFiles(headers []*multipart.FileHeader) ([]pipeline.File, error) {
	files := make([]pipeline.File, 0, len(headers))
	for _, h := range headers {
		data, err := readFile(h)
		if err != nil {
			return nil, err
		}
		files = append(files, pipeline.File{Name: h.Filename, Data: data})
	}
	return files, nil
}

func readFile(h *multipart.FileHeader) ([]byte, error) {
	f, err := h.Open()
	if err != nil {
		return nil, errors.Wrapf(err, "open upload %s", h.Filename)
	}
	defer f.Close()
	data, err := io.ReadAll(f)
	if err != nil {
		return nil, errors.Wrapf(err, "read upload %s", h.Filename)
	}
	return data, nil
}
