package handlers

import (
	"errors"
	"io"
	"net/http"

	"github.com/goccy/go-json"

	"listingboard/internal/apperr"
	"listingboard/internal/logging"
)

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Error string `json:"error"`
}

type MessageResponse struct {
	Message string `json:"message"`
}

func WriteError(w http.ResponseWriter, message string, statusCode int) {
	WriteJSON(w, ErrorResponse{Error: message}, statusCode)
}

func WriteJSON(w http.ResponseWriter, data any, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		logging.Error().Err(err).Msg("encode response")
	}
}

// StatusFor maps an error kind to its HTTP status.
func StatusFor(kind apperr.Kind) int {
	switch kind {
	case apperr.InvalidInput, apperr.InvalidFileType, apperr.TooLarge, apperr.Conflict:
		return http.StatusBadRequest
	case apperr.Unauthorized:
		return http.StatusUnauthorized
	case apperr.Forbidden:
		return http.StatusForbidden
	case apperr.NotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// HandleError writes err as a JSON error. Server-side failures are logged
// and answered with a generic message.
func HandleError(w http.ResponseWriter, r *http.Request, err error) {
	kind := apperr.KindOf(err)
	status := StatusFor(kind)

	if status < http.StatusInternalServerError {
		WriteError(w, apperr.Message(err, "Invalid request"), status)
		return
	}

	logging.Ctx(r.Context()).Error().
		Err(err).
		Str("kind", kind.String()).
		Str("method", r.Method).
		Str("path", r.URL.Path).
		Msg("request failed")

	message := "Internal server error"
	switch kind {
	case apperr.ServerMisconfigured:
		message = "Server configuration error"
	case apperr.UpstreamFailure:
		message = apperr.Message(err, "Storage service unavailable")
	}

	WriteError(w, message, status)
}

func decodeJSON(r *http.Request, dst any) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return apperr.Invalid("Request body is required")
		}
		return apperr.Wrap(apperr.InvalidInput, "Invalid request format", err)
	}
	return nil
}
