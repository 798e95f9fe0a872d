package httputil

import (
	"encoding/json"
	"net/http"

	"github.com/docuflow/docuflow-backend/pkg/errors"
)

// ErrorBody represents an error in the response
type ErrorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// errorResponse is the body of every error response. The top-level status
// field mirrors the success responses so clients can branch on one field.
type errorResponse struct {
	Status string     `json:"status"`
	Error  *ErrorBody `json:"error"`
}

// JSON sends a JSON response
func JSON(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	json.NewEncoder(w).Encode(data)
}

// Error sends an error response
func Error(w http.ResponseWriter, err error) {
	var appErr *errors.AppError
	if errors.As(err, &appErr) {
		JSON(w, appErr.StatusCode, errorResponse{
			Status: "error",
			Error: &ErrorBody{
				Code:    appErr.Code,
				Message: appErr.Message,
			},
		})
		return
	}

	// Default to internal server error
	JSON(w, http.StatusInternalServerError, errorResponse{
		Status: "error",
		Error: &ErrorBody{
			Code:    "INTERNAL_ERROR",
			Message: "an unexpected error occurred",
		},
	})
}
