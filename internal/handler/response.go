package handler

// RESPONSE HELPERS:
// Every handler answers through writeJSON and WriteError, so success and
// error bodies have one shape across the API.
//
// ERROR FORMAT:
// Every error response has the same body:
//   {"message": "forbidden access"}
//
// The web client only ever reads `message`; the status code carries the kind.

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/sakif/scholar-stream/internal/apperror"
	"github.com/sakif/scholar-stream/internal/auth"
)

// maxBodyBytes bounds JSON request bodies.
const maxBodyBytes = 1 << 20

// ErrorResponse is the body of every error response.
type ErrorResponse struct {
	Message string `json:"message"`
}

// writeJSON sends a JSON response with the given status code.
//
// Headers and status must be written before the body: once Encode writes,
// later header changes are ignored.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			slog.Error("failed to encode JSON response", slog.String("error", err.Error()))
		}
	}
}

var _ auth.ErrorResponder = WriteError

// WriteError maps a domain error to its status code and sends {message}.
//
// ERROR MAPPING:
//
//	ErrValidation   → 400
//	ErrUnauthorized → 401
//	ErrForbidden    → 403
//	ErrNotFound     → 404
//	anything else   → 500, generic message, detail logged
//
// errors.Is walks the whole chain, so a service may wrap an AppError with
// fmt.Errorf("...: %w", err) and still get the right status.
//
// It doubles as the auth.ErrorResponder of the authorization pipeline.
func WriteError(w http.ResponseWriter, r *http.Request, err error) {
	var appErr *apperror.AppError
	if errors.As(err, &appErr) {
		status := http.StatusInternalServerError
		switch {
		case errors.Is(err, apperror.ErrValidation):
			status = http.StatusBadRequest
		case errors.Is(err, apperror.ErrUnauthorized):
			status = http.StatusUnauthorized
		case errors.Is(err, apperror.ErrForbidden):
			status = http.StatusForbidden
		case errors.Is(err, apperror.ErrNotFound):
			status = http.StatusNotFound
		}
		if status != http.StatusInternalServerError {
			writeJSON(w, status, ErrorResponse{Message: appErr.Message})
			return
		}
	}

	// Never expose internal error text: it may carry queries or hostnames.
	slog.ErrorContext(r.Context(), "request failed",
		slog.String("method", r.Method),
		slog.String("path", r.URL.Path),
		slog.String("error", err.Error()),
	)
	writeJSON(w, http.StatusInternalServerError, ErrorResponse{Message: "An internal error occurred"})
}

// decodeJSON reads a JSON body of at most maxBodyBytes into dst.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return apperror.ValidationFailed("body", "request body is required")
		}
		return apperror.ValidationFailed("body", "invalid JSON body")
	}
	return nil
}

// principal returns the authenticated caller stored by auth.Guard.
func principal(r *http.Request) (auth.Principal, error) {
	p, ok := auth.PrincipalFromContext(r.Context())
	if !ok {
		return auth.Principal{}, apperror.Unauthorized("unauthorized access")
	}
	return p, nil
}

// pathID returns a required path parameter, unescaped. chi matches on the
// escaped path when the request has one, so /users/a%40b.c/role yields
// "a%40b.c" until it is decoded here.
func pathID(r *http.Request, name string) (string, error) {
	raw := r.PathValue(name)
	if raw == "" {
		return "", apperror.Required(name)
	}
	v, err := url.PathUnescape(raw)
	if err != nil {
		return "", apperror.ValidationFailed(name, "invalid "+name+" in path")
	}
	if v == "" {
		return "", apperror.Required(name)
	}
	return v, nil
}
