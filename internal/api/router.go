package api

import (
	"net/http"

	httpSwagger "github.com/swaggo/http-swagger"
)

func NewRouter(a *API, swaggerURL string) http.Handler {
	mux := http.NewServeMux()

	// Swagger documentation
	mux.Handle("/swagger/", httpSwagger.Handler(
		httpSwagger.URL(swaggerURL),
	))

	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"healthy"}`))
	})

	// Projects
	mux.HandleFunc("POST /api/projects", a.CreateProjectHandler)
	mux.HandleFunc("GET /api/projects/{project_id}", a.GetProjectHandler)

	// Positions
	mux.HandleFunc("POST /api/positions/{project_id}", a.CreatePositionHandler)
	mux.HandleFunc("GET /api/positions/{project_id}", a.ListPositionsHandler)
	mux.HandleFunc("GET /api/positions/public/{position_id}", a.GetPublicPositionHandler)
	mux.HandleFunc("GET /api/positions/{project_id}/{position_id}", a.GetPositionHandler)
	mux.HandleFunc("PUT /api/positions/{project_id}/{position_id}", a.UpdatePositionHandler)
	mux.HandleFunc("PUT /api/positions/{project_id}/{position_id}/close", a.ClosePositionHandler)
	mux.HandleFunc("PUT /api/positions/{project_id}/{position_id}/open", a.OpenPositionHandler)
	mux.HandleFunc("DELETE /api/positions/{project_id}/{position_id}", a.DeletePositionHandler)

	// Job descriptions
	mux.HandleFunc("GET /api/jd/{project_id}/{position_id}", a.GetJDHandler)
	mux.HandleFunc("PUT /api/jd/{project_id}/{position_id}", a.UpdateJDHandler)

	// CVs
	mux.HandleFunc("POST /api/cv/{project_id}/{position_id}/uploads", a.UploadCVsHandler)
	mux.HandleFunc("POST /api/cv/{position_id}/upload", a.UploadCVHandler)
	mux.HandleFunc("POST /api/cv/{project_id}/{position_id}/rematch", a.RematchHandler)
	mux.HandleFunc("POST /api/cv/{project_id}/{position_id}/analyze", a.AnalyzeHandler)
	mux.HandleFunc("GET /api/cv/progress/{watch_id}", a.ProgressHandler)
	mux.HandleFunc("GET /api/cv/{project_id}/{position_id}", a.ListCVsHandler)
	mux.HandleFunc("GET /api/cv/{project_id}/{position_id}/download/summary", a.DownloadSummaryHandler)
	mux.HandleFunc("GET /api/cv/{project_id}/{position_id}/download/matching", a.DownloadMatchingHandler)
	mux.HandleFunc("GET /api/cv/{project_id}/{position_id}/{cv_id}", a.GetCVHandler)
	mux.HandleFunc("GET /api/cv/{project_id}/{position_id}/{cv_id}/detail", a.GetCVDetailHandler)
	mux.HandleFunc("GET /api/cv/{project_id}/{position_id}/{cv_id}/download", a.DownloadCVHandler)
	mux.HandleFunc("PUT /api/cv/{project_id}/{position_id}/{cv_id}/status", a.UpdateCVStatusHandler)
	mux.HandleFunc("DELETE /api/cv/{project_id}/{position_id}/{cv_id}", a.DeleteCVHandler)

	return mux
}
