package httpext

import (
	"encoding/json"
	"net/http"

	"github.com/deepgram/assistkit/pkg/logger"
)

// ErrorResponse represents a standardised JSON error response
type ErrorResponse struct {
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description,omitempty"`
	RequestID        string `json:"request_id,omitempty"`
}

// JsonError writes a JSON error response with the specified status code
func JsonError(w http.ResponseWriter, message string, code int) {
	JsonErrorWithDetails(w, code, ErrorResponse{Error: message})
}

// JsonErrorWithDetails writes a detailed JSON error response. The request ID is
// taken from the response headers when not set.
func JsonErrorWithDetails(w http.ResponseWriter, code int, body ErrorResponse) {
	if body.RequestID == "" {
		body.RequestID = w.Header().Get("X-Request-ID")
	}
	JsonResponse(w, code, body)
}

// JsonResponse writes v as a JSON body with the given status code
func JsonResponse(w http.ResponseWriter, code int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)

	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Error(logger.HANDLER, "Failed to encode response: %v", err)
	}
}
