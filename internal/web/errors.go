package web

// errors.go renders every failure as JSON. The status code comes from the
// error chain; the body comes from core.MapError so clients always get a
// message, an action and a support code.

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/JonMunkholm/claimsimport/internal/core"
	"github.com/JonMunkholm/claimsimport/internal/ingest"
	"github.com/JonMunkholm/claimsimport/internal/logging"
)

var errRateLimited = errors.New("rate limit exceeded")

// ErrorResponse is the body of every error reply.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Action  string `json:"action,omitempty"`
	Code    string `json:"code"`
	// Detail is the technical error, sent only for recognized client errors.
	Detail  string `json:"detail,omitempty"`
}

// statusFor picks the HTTP status for err.
func statusFor(err error) int {
	switch {
	case errors.Is(err, core.ErrImportNotFound):
		return http.StatusNotFound
	case errors.Is(err, core.ErrTooManyImports):
		return http.StatusServiceUnavailable
	case errors.Is(err, ingest.ErrUnsupportedFormat):
		return http.StatusUnsupportedMediaType
	case errors.Is(err, ingest.ErrFileTooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, core.ErrInvalidRequest),
		errors.Is(err, core.ErrNoFile),
		errors.Is(err, core.ErrNoMappings),
		errors.Is(err, core.ErrNoRows),
		errors.Is(err, ingest.ErrEmptyFile),
		errors.Is(err, ingest.ErrNoHeaders),
		errors.Is(err, ingest.ErrEmptyHeader),
		errors.Is(err, ingest.ErrTooManyColumns),
		errors.Is(err, ingest.ErrDuplicateHeader):
		return http.StatusBadRequest
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

// fail responds with the status statusFor picks.
func fail(w http.ResponseWriter, r *http.Request, err error) {
	respondError(w, r, err, statusFor(err))
}

// respondError logs the technical error and writes the user message.
func respondError(w http.ResponseWriter, r *http.Request, err error, status int) {
	msg := core.MapError(err)

	log := logging.FromContext(r.Context())
	level := slog.LevelWarn
	if status >= http.StatusInternalServerError {
		level = slog.LevelError
	}
	log.Log(r.Context(), level, "request error",
		slog.String("path", r.URL.Path),
		slog.Int("status", status),
		slog.String("error", err.Error()),
		slog.String("code", msg.Code),
	)

	resp := ErrorResponse{
		Error:   msg.Message,
		Message: msg.Message,
		Action:  msg.Action,
		Code:    msg.Code,
	}
	if status < http.StatusInternalServerError && core.IsUserFacing(err) {
		resp.Detail = err.Error()
	}
	writeJSONStatus(w, status, resp)
}

func writeJSON(w http.ResponseWriter, v any) {
	writeJSONStatus(w, http.StatusOK, v)
}

func writeJSONStatus(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Warn("json encode error", slog.String("error", err.Error()))
	}
}
