package config

import (
	"errors"
	"sync"
)

// DefaultJWTSecret is the placeholder used when JWT_SECRET is unset
const DefaultJWTSecret = "your-256-bit-secret"

// ErrDefaultJWTSecret is returned when auth is enabled without a real secret
var ErrDefaultJWTSecret = errors.New("API_AUTH_ENABLED requires JWT_SECRET to be set to a non-default value")

var (
	jwtSecretMu sync.RWMutex
	// JWTSecret is the secret used to verify API bearer tokens
	JWTSecret = []byte(GetEnvOrDefault("JWT_SECRET", DefaultJWTSecret))
)

// SetJWTSecret temporarily changes the JWT secret and returns a function to restore it
// This is primarily used for testing
func SetJWTSecret(secret []byte) func() {
	jwtSecretMu.Lock()
	previous := JWTSecret
	JWTSecret = secret
	jwtSecretMu.Unlock()

	return func() {
		jwtSecretMu.Lock()
		JWTSecret = previous
		jwtSecretMu.Unlock()
	}
}

// GetJWTSecret returns the current JWT secret in a thread-safe manner
func GetJWTSecret() []byte {
	jwtSecretMu.RLock()
	defer jwtSecretMu.RUnlock()
	return JWTSecret
}

// IsAuthEnabled reports whether the v1 API requires a bearer token
func IsAuthEnabled() bool {
	return parseEnvBool("API_AUTH_ENABLED", false)
}

// ValidateAuthConfig rejects enabling auth while the JWT secret is empty or the placeholder
func ValidateAuthConfig() error {
	if !IsAuthEnabled() {
		return nil
	}
	secret := string(GetJWTSecret())
	if secret == "" || secret == DefaultJWTSecret {
		return ErrDefaultJWTSecret
	}
	return nil
}
