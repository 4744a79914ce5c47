// Package errors provides error handling for the pipeline.
//
// It re-exports github.com/cockroachdb/errors and adds the error kinds the
// API layer maps onto HTTP status codes. A kind is attached with
// cockroachdb's Mark, so errors.Is keeps working after any amount of wrapping:
//
//	err := errors.NotFoundf("position %s", id)
//	err = errors.Wrap(err, "load position")
//	errors.Is(err, errors.ErrNotFound) // true
package errors

import (
	"fmt"
	"net/http"

	crdb "github.com/cockroachdb/errors"
)

// Core error creation and wrapping
var (
	New   = crdb.New
	Newf  = crdb.Newf
	Wrap  = crdb.Wrap
	Wrapf = crdb.Wrapf
)

// User-facing hints
var (
	WithHint  = crdb.WithHint
	WithHintf = crdb.WithHintf
)

// Is reports whether any error in err's chain matches reference.
var Is = crdb.Is

// Error kinds.
var (
	ErrPermissionDenied = crdb.New("permission denied")
	ErrNotFound         = crdb.New("not found")
	ErrConflict         = crdb.New("conflict")
	ErrValidation       = crdb.New("validation error")
	ErrUpstream         = crdb.New("upstream service error")
	ErrIngestionAborted = crdb.New("ingestion aborted")
)

func PermissionDeniedf(format string, args ...any) error {
	return crdb.Mark(crdb.NewWithDepthf(1, format, args...), ErrPermissionDenied)
}

func NotFoundf(format string, args ...any) error {
	return crdb.Mark(crdb.NewWithDepthf(1, format, args...), ErrNotFound)
}

func Conflictf(format string, args ...any) error {
	return crdb.Mark(crdb.NewWithDepthf(1, format, args...), ErrConflict)
}

func Validationf(format string, args ...any) error {
	return crdb.Mark(crdb.NewWithDepthf(1, format, args...), ErrValidation)
}

// Upstream marks err as a failure of an external service call.
func Upstream(err error, service string) error {
	if err == nil {
		return nil
	}
	return crdb.Mark(crdb.Wrapf(err, "%s", service), ErrUpstream)
}

// Aborted marks err as the fatal error that stopped an ingestion batch.
func Aborted(err error, stage string) error {
	if err == nil {
		return nil
	}
	return crdb.Mark(crdb.Wrapf(err, "ingestion stopped at %s", stage), ErrIngestionAborted)
}

// Kind returns a short name for the kind of err, or "internal".
func Kind(err error) string {
	switch {
	case err == nil:
		return ""
	case crdb.Is(err, ErrPermissionDenied):
		return "permission_denied"
	case crdb.Is(err, ErrNotFound):
		return "not_found"
	case crdb.Is(err, ErrConflict):
		return "conflict"
	case crdb.Is(err, ErrValidation):
		return "validation"
	case crdb.Is(err, ErrUpstream):
		return "upstream"
	case crdb.Is(err, ErrIngestionAborted):
		return "ingestion_aborted"
	default:
		return "internal"
	}
}

// HTTPStatus maps the kind of err to a response status code.
func HTTPStatus(err error) int {
	switch Kind(err) {
	case "permission_denied":
		return http.StatusForbidden
	case "not_found":
		return http.StatusNotFound
	case "conflict":
		return http.StatusConflict
	case "validation":
		return http.StatusBadRequest
	case "upstream":
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// Describe renders err for a client: the message plus any hints.
func Describe(err error) string {
	if err == nil {
		return ""
	}
	if hint := crdb.FlattenHints(err); hint != "" {
		return fmt.Sprintf("%s (%s)", err.Error(), hint)
	}
	return err.Error()
}
