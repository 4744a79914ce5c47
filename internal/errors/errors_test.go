package errors

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindSurvivesWrapping(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		kind   error
		status int
	}{
		{"permission", PermissionDeniedf("project %s", "p1"), ErrPermissionDenied, http.StatusForbidden},
		{"not found", NotFoundf("position %s", "x"), ErrNotFound, http.StatusNotFound},
		{"conflict", Conflictf("position is closed"), ErrConflict, http.StatusConflict},
		{"validation", Validationf("bad extension"), ErrValidation, http.StatusBadRequest},
		{"upstream", Upstream(New("status 500"), "matching"), ErrUpstream, http.StatusBadGateway},
		{"aborted", Aborted(New("boom"), "upload"), ErrIngestionAborted, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			wrapped := Wrap(Wrap(tt.err, "layer one"), "layer two")
			assert.True(t, Is(wrapped, tt.kind))
			assert.Equal(t, tt.status, HTTPStatus(wrapped))
		})
	}
}

func TestKindOfPlainError(t *testing.T) {
	assert.Equal(t, "internal", Kind(New("plain")))
	assert.Equal(t, "", Kind(nil))
	assert.Equal(t, http.StatusInternalServerError, HTTPStatus(New("plain")))
}

func TestUpstreamKeepsMessage(t *testing.T) {
	err := Upstream(New("status 503"), "processing service")
	assert.Contains(t, err.Error(), "processing service")
	assert.Contains(t, err.Error(), "status 503")
	assert.Nil(t, Upstream(nil, "x"))
}

func TestDescribeIncludesHints(t *testing.T) {
	err := WithHint(Validationf("file extension not allowed"), "allowed: pdf, docx")
	assert.Equal(t, "file extension not allowed (allowed: pdf, docx)", Describe(err))
}
