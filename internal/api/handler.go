package api

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"talent-pipeline/internal/access"
	"talent-pipeline/internal/errors"
	"talent-pipeline/internal/logger"
	"talent-pipeline/internal/pipeline"
	"talent-pipeline/internal/position"
)

// UserHeader carries the caller's identity, set by the gateway in front of the API.
const UserHeader = "X-User-ID"

// maxUploadSize bounds a multipart upload, all files included.
const maxUploadSize = 50 << 20

type API struct {
	pipeline     *pipeline.Pipeline
	positions    *position.Service
	access       *access.Checker
	defaultModel string
	log          *zap.Logger
}

type Deps struct {
	Pipeline     *pipeline.Pipeline
	Positions    *position.Service
	Access       *access.Checker
	DefaultModel string
	Log          *zap.Logger
}

func NewAPI(d Deps) *API {
	return &API{
		pipeline:     d.Pipeline,
		positions:    d.Positions,
		access:       d.Access,
		defaultModel: d.DefaultModel,
		log:          logger.Component(d.Log, "api"),
	}
}

// Response is the envelope every JSON endpoint answers with.
type Response struct {
	Msg  string `json:"msg"`
	Data any    `json:"data"`
}

func writeJSON(w http.ResponseWriter, status int, msg string, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(Response{Msg: msg, Data: data})
}

func writeOK(w http.ResponseWriter, data any) {
	writeJSON(w, http.StatusOK, "success", data)
}

// fail maps err to its status code. Server-side failures are logged with
// the request path; client errors are not.
func (a *API) fail(w http.ResponseWriter, r *http.Request, err error) {
	status := errors.HTTPStatus(err)
	if status >= http.StatusInternalServerError {
		a.log.Error("request failed",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.String("kind", errors.Kind(err)),
			zap.Error(err))
	}
	writeJSON(w, status, errors.Describe(err), nil)
}

func decodeJSON(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return errors.Validationf("invalid JSON body: %v", err)
	}
	return nil
}

func userID(r *http.Request) string {
	return r.Header.Get(UserHeader)
}

// model picks the LLM named in the request, falling back to the configured one.
func (a *API) model(name string) string {
	if name != "" {
		return name
	}
	return a.defaultModel
}
