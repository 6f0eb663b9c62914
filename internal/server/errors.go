package server

import (
	"errors"
	"net/http"

	"augnotes/internal/store"
)

// appError carries an HTTP status and a short machine code for logging.
type appError struct {
	status int
	code   string
	err    error
}

func (e appError) Error() string {
	if e.err == nil {
		return http.StatusText(e.status)
	}
	return e.err.Error()
}

func (e appError) Unwrap() error {
	return e.err
}

func makeAppError(status int, code string, err error) error {
	if err == nil {
		err = errors.New(http.StatusText(status))
	}
	var existing appError
	if errors.As(err, &existing) && existing.status != 0 {
		return existing
	}
	return appError{status: status, code: code, err: err}
}

func badRequest(err error) error {
	return makeAppError(http.StatusBadRequest, "invalid_argument", err)
}

func notFound(err error) error {
	return makeAppError(http.StatusNotFound, "not_found", err)
}

func forbidden(err error) error {
	return makeAppError(http.StatusForbidden, "forbidden", err)
}

func internalError(err error) error {
	return makeAppError(http.StatusInternalServerError, "internal", err)
}

func httpStatusFromError(err error) int {
	var appErr appError
	if errors.As(err, &appErr) {
		return appErr.status
	}
	if errors.Is(err, store.ErrSongNotFound) {
		return http.StatusNotFound
	}
	return http.StatusInternalServerError
}

func errorCode(status int, err error) string {
	var appErr appError
	if errors.As(err, &appErr) && appErr.code != "" {
		return appErr.code
	}
	switch status {
	case http.StatusBadRequest:
		return "invalid_argument"
	case http.StatusUnauthorized:
		return "unauthorized"
	case http.StatusForbidden:
		return "forbidden"
	case http.StatusNotFound:
		return "not_found"
	default:
		return "internal"
	}
}

// writeError logs the failure and renders a plain error response. Client
// errors keep their message; server errors are masked.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := httpStatusFromError(err)
	message := err.Error()

	fields := []any{"status", status, "code", errorCode(status, err), "error", err}
	if r != nil {
		fields = append(fields, "method", r.Method, "path", r.URL.Path, "remote_addr", r.RemoteAddr)
	}

	switch {
	case status >= 500:
		s.log().Error("request error", fields...)
		message = "internal error"
	default:
		s.log().Debug("request rejected", fields...)
	}

	http.Error(w, message, status)
}
