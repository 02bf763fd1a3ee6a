package oauth

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/deepgram/assistkit/internal/config"
	"github.com/deepgram/assistkit/pkg/logger"
	"github.com/golang-jwt/jwt/v5"
)

const (
	ScopeAssistantsRead  = "assistants:read"
	ScopeAssistantsWrite = "assistants:write"
)

func ExtractToken(r *http.Request) string {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		logger.Debug(logger.SERVICE, "No Authorization header found")
		return ""
	}

	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || parts[0] != "Bearer" {
		logger.Warn(logger.SERVICE, "Malformed Authorization header")
		return ""
	}

	return parts[1]
}

type TokenValidationResult struct {
	Valid     bool
	Subject   string
	ExpiresAt time.Time
	Scopes    []string
}

// HasScope reports whether the token grants scope
func (r TokenValidationResult) HasScope(scope string) bool {
	for _, s := range r.Scopes {
		if s == scope {
			return true
		}
	}
	return false
}

type CustomClaims struct {
	jwt.RegisteredClaims
	Scopes []string `json:"scp"`
}

// IssueToken signs an HS256 token for subject with the given scopes
func IssueToken(subject string, scopes []string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := CustomClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		Scopes: scopes,
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(config.GetJWTSecret())
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// ValidateToken checks the signature, algorithm and expiry of a bearer token
func ValidateToken(tokenString string) TokenValidationResult {
	result := TokenValidationResult{Valid: false}

	token, err := jwt.ParseWithClaims(tokenString, &CustomClaims{}, func(token *jwt.Token) (interface{}, error) {
		return config.GetJWTSecret(), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())

	if err != nil {
		logger.Warn(logger.SERVICE, "Failed to parse token: %v", err)
		return result
	}

	claims, ok := token.Claims.(*CustomClaims)
	if !ok || !token.Valid {
		logger.Error(logger.SERVICE, "Invalid token claims")
		return result
	}

	if claims.Subject == "" {
		logger.Warn(logger.SERVICE, "Missing subject in token")
		return result
	}

	result.Valid = true
	result.Subject = claims.Subject
	result.ExpiresAt = claims.ExpiresAt.Time
	result.Scopes = claims.Scopes
	return result
}
