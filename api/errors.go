package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"
)

// HTTPError is the explicit error value handlers translate lower-layer
// failures into. One formatting stage turns it into the JSON response.
type HTTPError struct {
	Code    int
	Message string
}

func (e *HTTPError) Error() string {
	return e.Message
}

func NewError(code int, message string) *HTTPError {
	return &HTTPError{Code: code, Message: message}
}

func ErrInvalidInput() *HTTPError {
	return NewError(http.StatusUnprocessableEntity, "Invalid inputs passed, please check your data.")
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		// headers already sent, nothing left to do but log upstream
		return
	}
}

func writeError(log *zap.Logger, w http.ResponseWriter, err error) {
	var httpErr *HTTPError
	if !errors.As(err, &httpErr) {
		log.Error("unclassified handler error", zap.Error(err))
		httpErr = NewError(http.StatusInternalServerError, "An unknown error occurred.")
	}
	writeJSON(w, httpErr.Code, map[string]string{"message": httpErr.Message})
}
