package common

import (
	"encoding/json"
	"net/http"
)

// ErrorBody is the payload of the "error" envelope.
type ErrorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

// JSON writes v with the given status.
func JSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// Data writes v inside the {"data": ...} envelope.
func Data(w http.ResponseWriter, status int, v any) {
	JSON(w, status, map[string]any{"data": v})
}

// JSONError writes the {"error": {...}} envelope.
func JSONError(w http.ResponseWriter, status int, code, message string, details any) {
	JSON(w, status, map[string]any{
		"error": ErrorBody{Code: code, Message: message, Details: details},
	})
}

// WriteAppError renders err in the error envelope, defaulting to 500 INTERNAL.
func WriteAppError(w http.ResponseWriter, err *AppError) {
	status, code := http.StatusInternalServerError, CodeInternal
	if err == nil {
		JSONError(w, status, code, "internal error", nil)
		return
	}
	if err.HTTPStatus != 0 {
		status = err.HTTPStatus
	}
	if err.Code != "" {
		code = err.Code
	}
	JSONError(w, status, code, err.Message, err.Details)
}
