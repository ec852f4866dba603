package web

// errors.go provides unified error responses for the API.
//
// Every error is logged with its technical detail and the request id, then
// mapped through core.MapError to a coded user message.

import (
	"errors"
	"net/http"
	"strings"

	"github.com/JonMunkholm/refdata/internal/core"
	"github.com/JonMunkholm/refdata/internal/logging"
)

// ErrorResponse is the JSON body of an API error.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Action  string `json:"action,omitempty"`
	Code    string `json:"code"`
}

// respondError logs err and writes its user message with statusCode.
func (s *Server) respondError(w http.ResponseWriter, r *http.Request, err error, statusCode int) {
	msg := core.MapError(err)

	logging.FromContext(r.Context()).Error("request error",
		"path", r.URL.Path,
		"method", r.Method,
		"status", statusCode,
		"error", err.Error(),
		"code", msg.Code,
	)

	writeJSON(w, statusCode, ErrorResponse{
		Error:   msg.Message,
		Message: msg.Message,
		Action:  msg.Action,
		Code:    msg.Code,
	})
}

// uploadStatus picks the HTTP status of a failed upload. Store and unmapped
// errors are server errors; everything else is the client's file.
func uploadStatus(err error) int {
	code := core.MapError(err).Code
	switch {
	case errors.Is(err, core.ErrTooManyUploads):
		return http.StatusServiceUnavailable
	case strings.HasPrefix(code, "DB"), code == "ERR000":
		return http.StatusInternalServerError
	default:
		return http.StatusBadRequest
	}
}

// logUploadError logs an upload answered with an error response body.
func (s *Server) logUploadError(r *http.Request, err error, code string, status int) {
	logging.FromContext(r.Context()).Warn("upload rejected",
		"path", r.URL.Path,
		"status", status,
		"error", err.Error(),
		"code", code,
	)
}
