package oauth

import (
	"crypto/subtle"
	"encoding/json"
	"net/http"

	"github.com/deepgram/assistkit/internal/config"
	"github.com/deepgram/assistkit/internal/services/oauth"
	"github.com/deepgram/assistkit/pkg/httpext"
	"github.com/rs/zerolog/log"
)

const GrantTypeClientCredentials = "client_credentials"

type TokenResponse struct {
	AccessToken string   `json:"access_token"`
	TokenType   string   `json:"token_type"`
	ExpiresIn   int      `json:"expires_in"`
	Scope       []string `json:"scope,omitempty"`
}

type ClientCredentialsRequest struct {
	GrantType    string `json:"grant_type"`
	ClientID     string `json:"client_id"`
	ClientSecret string `json:"client_secret"`
}

// HandleToken exchanges client credentials for a scoped bearer token
func HandleToken(w http.ResponseWriter, r *http.Request) {
	var req ClientCredentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpext.JsonError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if req.GrantType != GrantTypeClientCredentials {
		httpext.JsonError(w, "Invalid grant type", http.StatusBadRequest)
		return
	}

	client, ok := config.FindClientByID(req.ClientID)
	if !ok || !validateClientSecret(req.ClientSecret, client.Secret) {
		log.Warn().Str("client_id", req.ClientID).Msg("Rejected client credentials")
		httpext.JsonError(w, "Invalid client credentials", http.StatusUnauthorized)
		return
	}

	lifetime := config.GetTokenLifetime()
	token, err := oauth.IssueToken(client.ID, client.Scopes, lifetime)
	if err != nil {
		log.Error().Err(err).Str("client_id", client.ID).Msg("Failed to issue token")
		httpext.JsonError(w, "Error creating token", http.StatusInternalServerError)
		return
	}

	httpext.JsonResponse(w, http.StatusOK, TokenResponse{
		AccessToken: token,
		TokenType:   "Bearer",
		ExpiresIn:   int(lifetime.Seconds()),
		Scope:       client.Scopes,
	})
}

func validateClientSecret(provided, stored string) bool {
	return subtle.ConstantTimeCompare([]byte(provided), []byte(stored)) == 1
}
