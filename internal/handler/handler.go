package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"farmart/internal/auth"
	"farmart/internal/model"

	"github.com/rs/zerolog"
)

// codeStatus maps domain error codes to HTTP status codes.
var codeStatus = map[string]int{
	model.ErrCodeInvalidJSON:             http.StatusBadRequest,
	model.ErrCodeValidation:              http.StatusBadRequest,
	model.ErrCodeInvalidQuantity:         http.StatusBadRequest,
	model.ErrCodeInvalidStatus:           http.StatusBadRequest,
	model.ErrCodeInvalidCredentials:      http.StatusUnauthorized,
	model.ErrCodeUnauthorised:            http.StatusUnauthorized,
	model.ErrCodeTokenMissing:            http.StatusUnauthorized,
	model.ErrCodeTokenExpired:            http.StatusUnauthorized,
	model.ErrCodeTokenInvalid:            http.StatusUnauthorized,
	model.ErrCodeForbidden:               http.StatusForbidden,
	model.ErrCodeAccountDisabled:         http.StatusForbidden,
	model.ErrCodeProductNotFound:         http.StatusNotFound,
	model.ErrCodeOrderNotFound:           http.StatusNotFound,
	model.ErrCodeUserNotFound:            http.StatusNotFound,
	model.ErrCodeCheckoutNotFound:        http.StatusNotFound,
	model.ErrCodeStatusConflict:          http.StatusConflict,
	model.ErrCodeCheckoutInProgress:      http.StatusConflict,
	model.ErrCodeDuplicateOrder:          http.StatusConflict,
	model.ErrCodeEmailExists:             http.StatusConflict,
	model.ErrCodeEmptyCart:               http.StatusUnprocessableEntity,
	model.ErrCodeMixedCurrency:           http.StatusUnprocessableEntity,
	model.ErrCodeUnsupportedCurrency:     http.StatusUnprocessableEntity,
	model.ErrCodeInvalidStatusTransition: http.StatusUnprocessableEntity,
	model.ErrCodeUnsupportedFileType:     http.StatusUnsupportedMediaType,
	model.ErrCodeOrderNotSaved:           http.StatusInternalServerError,
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		// Log the error but don't expose it to the client
		return
	}
}

// writeError writes an error response with the given status code and message.
func writeError(w http.ResponseWriter, status int, code, message string, logger zerolog.Logger) {
	logger.Error().Str("error", message).Str("code", code).Int("status", status).Msg("handler error")
	writeJSON(w, status, model.ErrorResponse{Error: message, Code: code})
}

// classify returns the HTTP status and body for err. Errors that are not
// domain errors become a generic 500.
func classify(err error) (int, model.ErrorResponse) {
	var verr *model.ValidationError
	if errors.As(err, &verr) {
		return http.StatusBadRequest, model.ErrorResponse{
			Error:  "validation failed",
			Code:   model.ErrCodeValidation,
			Fields: verr.Fields,
		}
	}

	var derr *model.DomainError
	if errors.As(err, &derr) {
		status, ok := codeStatus[derr.Code]
		if !ok {
			status = http.StatusInternalServerError
		}
		return status, model.ErrorResponse{Error: derr.Message, Code: derr.Code}
	}

	return http.StatusInternalServerError, model.ErrorResponse{
		Error: "internal server error",
		Code:  model.ErrCodeInternalError,
	}
}

// writeServiceError maps a service error onto the response.
func writeServiceError(w http.ResponseWriter, err error, logger zerolog.Logger) {
	status, body := classify(err)
	event := logger.Warn()
	if status >= http.StatusInternalServerError {
		event = logger.Error()
	}
	event.Err(err).Str("code", body.Code).Int("status", status).Msg("request failed")
	writeJSON(w, status, body)
}

// decodeJSON reads the request body into v.
func decodeJSON(w http.ResponseWriter, r *http.Request, v interface{}, logger zerolog.Logger) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, model.ErrCodeInvalidJSON, "invalid request body", logger)
		return false
	}
	return true
}

// principal returns the authenticated caller or writes a 401.
func principal(w http.ResponseWriter, r *http.Request, logger zerolog.Logger) (*auth.Principal, bool) {
	p, ok := auth.FromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, model.ErrCodeUnauthorised, "authentication required", logger)
		return nil, false
	}
	return p, true
}

// queryInt reads an integer query parameter, falling back to def.
func queryInt(r *http.Request, name string, def int) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, nil
	}
	return strconv.Atoi(raw)
}
