package oauth

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/deepgram/assistkit/internal/config"
	"github.com/deepgram/assistkit/internal/services/oauth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHandleToken(t *testing.T) {
	t.Setenv("ASSISTKIT_CLI_CLIENT_ID", "cli-id")
	t.Setenv("ASSISTKIT_CLI_CLIENT_SECRET", "cli-secret")
	t.Setenv("ASSISTKIT_CLI_SCOPES", "assistants:read,assistants:write")
	restore := config.SetJWTSecret([]byte("token-test-secret"))
	defer restore()

	tests := []struct {
		name     string
		body     string
		expected int
	}{
		{"valid credentials", `{"grant_type":"client_credentials","client_id":"cli-id","client_secret":"cli-secret"}`, http.StatusOK},
		{"wrong secret", `{"grant_type":"client_credentials","client_id":"cli-id","client_secret":"nope"}`, http.StatusUnauthorized},
		{"unknown client", `{"grant_type":"client_credentials","client_id":"other","client_secret":"cli-secret"}`, http.StatusUnauthorized},
		{"unsupported grant", `{"grant_type":"password","client_id":"cli-id","client_secret":"cli-secret"}`, http.StatusBadRequest},
		{"malformed body", `{"grant_type":`, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/v1/oauth/token", strings.NewReader(tt.body))
			rr := httptest.NewRecorder()

			HandleToken(rr, req)
			require.Equal(t, tt.expected, rr.Code, rr.Body.String())

			if tt.expected != http.StatusOK {
				return
			}

			var resp TokenResponse
			require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
			assert.Equal(t, "Bearer", resp.TokenType)
			assert.Equal(t, 900, resp.ExpiresIn)

			validation := oauth.ValidateToken(resp.AccessToken)
			require.True(t, validation.Valid)
			assert.Equal(t, "cli-id", validation.Subject)
			assert.True(t, validation.HasScope(oauth.ScopeAssistantsWrite))
		})
	}
}
