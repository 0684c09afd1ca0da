// Package respond writes the JSON envelopes shared by every handler.
package respond

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/wellbot/wellbot-api/internal/apperr"
	"github.com/wellbot/wellbot-api/pkg/logging"
)

const internalMessage = "internal server error"

// JSON writes payload with the given status.
func JSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

// OK writes {"success": true, ...fields}.
func OK(w http.ResponseWriter, fields map[string]any) {
	body := map[string]any{"success": true}
	for k, v := range fields {
		body[k] = v
	}
	JSON(w, http.StatusOK, body)
}

// Fail writes {"success": false, "error": message}.
func Fail(w http.ResponseWriter, status int, message string) {
	JSON(w, status, map[string]any{"success": false, "error": message})
}

// Error maps err onto the status taxonomy. Internal errors are logged and
// replaced by a fixed message so driver or provider detail never reaches clients.
func Error(w http.ResponseWriter, logger *logging.Logger, err error) {
	status, message := Status(err)
	if status == http.StatusInternalServerError {
		if logger == nil {
			logger = logging.Default()
		}
		logger.Error("request failed", "error", err)
	}
	Fail(w, status, message)
}

// Status returns the HTTP status and client-safe message for err.
func Status(err error) (int, string) {
	appErr, ok := apperr.As(err)
	if !ok {
		return http.StatusInternalServerError, internalMessage
	}
	switch appErr.Kind {
	case apperr.KindValidation:
		return http.StatusBadRequest, appErr.Message
	case apperr.KindUnauthorized:
		return http.StatusUnauthorized, appErr.Message
	case apperr.KindNotFound:
		return http.StatusNotFound, appErr.Message
	case apperr.KindConflict:
		return http.StatusConflict, appErr.Message
	default:
		return http.StatusInternalServerError, internalMessage
	}
}

// Decode reads a JSON body into dst, rejecting unknown shapes with a validation error.
func Decode(r *http.Request, dst any) error {
	if r.Body == nil {
		return apperr.Validation("body", "Invalid request body")
	}
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return apperr.Validation("body", "Request body too large")
		}
		return apperr.Validation("body", "Invalid request body")
	}
	return nil
}
