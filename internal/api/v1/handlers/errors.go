package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/deepgram/assistkit/internal/services/assistant"
	"github.com/deepgram/assistkit/pkg/httpext"
	"github.com/deepgram/assistkit/pkg/logger"
	"github.com/go-playground/validator/v10"
	"github.com/sashabaranov/go-openai"
)

var validate = validator.New()

// decode reads a JSON body into v and validates its struct tags. An empty body
// leaves v untouched.
func decode(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(v); err != nil {
			logger.Warn(logger.HANDLER, "Failed to decode request body: %v", err)
			httpext.JsonError(w, "Invalid request format", http.StatusBadRequest)
			return false
		}
	}

	if err := validate.Struct(v); err != nil {
		logger.Warn(logger.HANDLER, "Request validation failed: %v", err)
		httpext.JsonErrorWithDetails(w, http.StatusBadRequest, httpext.ErrorResponse{
			Error:            "invalid_request",
			ErrorDescription: err.Error(),
		})
		return false
	}
	return true
}

// writeServiceError maps wrapper and upstream errors onto HTTP statuses
func writeServiceError(w http.ResponseWriter, err error) {
	code := statusFor(err)
	if code >= http.StatusInternalServerError {
		logger.Error(logger.HANDLER, "Request failed: %v", err)
	}
	httpext.JsonErrorWithDetails(w, code, httpext.ErrorResponse{
		Error:            http.StatusText(code),
		ErrorDescription: err.Error(),
	})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, assistant.ErrUnknownAssistant), errors.Is(err, assistant.ErrNoResponse):
		return http.StatusNotFound
	case errors.Is(err, assistant.ErrMissingInstructions),
		errors.Is(err, assistant.ErrEmptyContent),
		errors.Is(err, assistant.ErrEmptyThreadID),
		errors.Is(err, assistant.ErrTooManyFiles),
		errors.Is(err, assistant.ErrTooManyMetadata):
		return http.StatusBadRequest
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	}

	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.HTTPStatusCode {
		case http.StatusBadRequest, http.StatusNotFound:
			return apiErr.HTTPStatusCode
		}
	}
	return http.StatusBadGateway
}
