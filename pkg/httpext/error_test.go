package httpext

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestJsonError(t *testing.T) {
	tests := []struct {
		name      string
		message   string
		code      int
		requestID string
	}{
		{
			name:    "Basic error",
			message: "Something went wrong",
			code:    http.StatusBadRequest,
		},
		{
			name:      "Carries request ID",
			message:   "Internal error",
			code:      http.StatusInternalServerError,
			requestID: "req-123",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			if tt.requestID != "" {
				w.Header().Set("X-Request-ID", tt.requestID)
			}
			JsonError(w, tt.message, tt.code)

			if w.Code != tt.code {
				t.Errorf("Expected status code %d, got %d", tt.code, w.Code)
			}

			if w.Header().Get("Content-Type") != "application/json" {
				t.Errorf("Expected Content-Type application/json, got %s", w.Header().Get("Content-Type"))
			}

			var response ErrorResponse
			if err := json.NewDecoder(w.Body).Decode(&response); err != nil {
				t.Fatalf("Failed to decode response body: %v", err)
			}

			if response.Error != tt.message {
				t.Errorf("Expected error message %q, got %q", tt.message, response.Error)
			}
			if response.RequestID != tt.requestID {
				t.Errorf("Expected request ID %q, got %q", tt.requestID, response.RequestID)
			}
		})
	}
}

func TestJsonErrorWithDetails(t *testing.T) {
	w := httptest.NewRecorder()
	JsonErrorWithDetails(w, http.StatusBadRequest, ErrorResponse{
		Error:            "invalid_request",
		ErrorDescription: "Instructions are required",
	})

	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected status code %d, got %d", http.StatusBadRequest, w.Code)
	}

	var response ErrorResponse
	if err := json.NewDecoder(w.Body).Decode(&response); err != nil {
		t.Fatalf("Failed to decode response body: %v", err)
	}

	if response.ErrorDescription != "Instructions are required" {
		t.Errorf("Expected error description, got %q", response.ErrorDescription)
	}
}

func TestJsonResponse(t *testing.T) {
	w := httptest.NewRecorder()
	JsonResponse(w, http.StatusCreated, map[string]string{"id": "asst_1"})

	if w.Code != http.StatusCreated {
		t.Errorf("Expected status code %d, got %d", http.StatusCreated, w.Code)
	}

	var body map[string]string
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("Failed to decode response body: %v", err)
	}
	if body["id"] != "asst_1" {
		t.Errorf("Expected id asst_1, got %q", body["id"])
	}
}
