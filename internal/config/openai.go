package config

import (
	"github.com/deepgram/assistkit/pkg/logger"
)

const DefaultModel = "gpt-3.5-turbo"

// GetOpenAIKey returns the configured OpenAI key, or an empty string when unset
func GetOpenAIKey() string {
	value := GetEnvOrDefault("OPENAI_KEY", "")
	if value == "" {
		logger.Error(logger.CONFIG, "OPENAI_KEY environment variable not set")
	}
	return value
}

// GetOpenAIBaseURL returns an override for the OpenAI API base URL. Empty means the public API.
func GetOpenAIBaseURL() string {
	return GetEnvOrDefault("OPENAI_BASE_URL", "")
}

// GetOpenAIModel returns the model used for new assistants when a request names none
func GetOpenAIModel() string {
	return GetEnvOrDefault("OPENAI_MODEL", DefaultModel)
}
