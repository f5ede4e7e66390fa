package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/smallnest/scriptflow/pipeline"
	"github.com/smallnest/scriptflow/script"
	"github.com/smallnest/scriptflow/store"
)

// APIError is the body of every error response.
type APIError struct {
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

// ErrorEnvelope wraps an APIError.
type ErrorEnvelope struct {
	Error APIError `json:"error"`
}

var errorStatus = []struct {
	err    error
	status int
	code   string
}{
	{pipeline.ErrEmptyTopic, http.StatusBadRequest, "empty_topic"},
	{script.ErrUnknownCategory, http.StatusBadRequest, "unknown_category"},
	{script.ErrComponentNotFound, http.StatusBadRequest, "component_not_found"},
	{errBadRequest, http.StatusBadRequest, "bad_request"},
	{pipeline.ErrIncompleteSelection, http.StatusConflict, "incomplete_selection"},
	{pipeline.ErrInvalidTransition, http.StatusConflict, "invalid_transition"},
	{pipeline.ErrSuperseded, http.StatusConflict, "superseded"},
	{errNoScript, http.StatusConflict, "no_script"},
	{ErrSessionNotFound, http.StatusNotFound, "session_not_found"},
	{store.ErrNotFound, http.StatusNotFound, "script_not_found"},
	{ErrArchiveDisabled, http.StatusNotImplemented, "archive_disabled"},
	{ErrServerClosed, http.StatusServiceUnavailable, "server_closed"},
}

var (
	errBadRequest = errors.New("bad request")
	errNoScript   = errors.New("no finished script in this session")
)

// statusOf maps an error to an HTTP status and a stable code.
func statusOf(err error) (int, string) {
	for _, e := range errorStatus {
		if errors.Is(err, e.err) {
			return e.status, e.code
		}
	}
	return http.StatusInternalServerError, "internal"
}

func respondError(c *gin.Context, err error) {
	status, code := statusOf(err)
	msg := "unknown error"
	if err != nil {
		msg = err.Error()
	}
	c.AbortWithStatusJSON(status, ErrorEnvelope{
		Error: APIError{
			Message: msg,
			Code:    code,
		},
	})
}
