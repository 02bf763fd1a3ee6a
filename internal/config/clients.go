package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/deepgram/assistkit/pkg/logger"
)

// ClientConfig describes an API client allowed to exchange credentials for a token
type ClientConfig struct {
	ID     string
	Secret string
	Scopes []string
}

// GetAPIClients scans ASSISTKIT_<TYPE>_CLIENT_ID variables. Each client needs a
// matching _CLIENT_SECRET and may list comma separated _SCOPES.
func GetAPIClients() map[string]ClientConfig {
	clients := make(map[string]ClientConfig)

	for _, env := range os.Environ() {
		key := strings.SplitN(env, "=", 2)[0]
		if !strings.HasPrefix(key, "ASSISTKIT_") || !strings.HasSuffix(key, "_CLIENT_ID") {
			continue
		}

		clientType := strings.ToLower(strings.TrimSuffix(strings.TrimPrefix(key, "ASSISTKIT_"), "_CLIENT_ID"))
		prefix := fmt.Sprintf("ASSISTKIT_%s", strings.ToUpper(clientType))

		client := ClientConfig{
			ID:     GetEnvOrDefault(prefix+"_CLIENT_ID", ""),
			Secret: GetEnvOrDefault(prefix+"_CLIENT_SECRET", ""),
			Scopes: cleanEmptyStrings(strings.Split(GetEnvOrDefault(prefix+"_SCOPES", ""), ",")),
		}
		if client.ID == "" || client.Secret == "" {
			logger.Warn(logger.CONFIG, "Ignoring API client %s without ID or secret", clientType)
			continue
		}
		clients[clientType] = client
	}

	return clients
}

// FindClientByID returns the configured client with the given ID
func FindClientByID(clientID string) (ClientConfig, bool) {
	if clientID == "" {
		return ClientConfig{}, false
	}
	for _, client := range GetAPIClients() {
		if client.ID == clientID {
			return client, true
		}
	}
	return ClientConfig{}, false
}

// GetTokenLifetime is how long issued access tokens stay valid
func GetTokenLifetime() time.Duration {
	return parseEnvDuration("API_TOKEN_LIFETIME", 15*time.Minute)
}

func cleanEmptyStrings(slice []string) []string {
	result := make([]string, 0, len(slice))
	for _, s := range slice {
		if s = strings.TrimSpace(s); s != "" {
			result = append(result, s)
		}
	}
	return result
}
