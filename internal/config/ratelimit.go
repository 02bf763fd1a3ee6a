package config

import (
	"time"

	"github.com/deepgram/assistkit/pkg/logger"
)

type RateLimitConfig struct {
	Enabled bool
	MaxHits int
	Window  time.Duration
}

func GetRateLimitConfig(key string) RateLimitConfig {
	enabled := parseEnvBool("RATELIMIT_ENABLED", false)

	configs := map[string]RateLimitConfig{
		"global": {
			Enabled: enabled,
			MaxHits: parseEnvInt("RATELIMIT_GLOBAL", 1000), // 1000 requests per minute globally
			Window:  time.Minute,
		},
		"assistant_write": {
			Enabled: enabled,
			MaxHits: parseEnvInt("RATELIMIT_ASSISTANT_WRITE", 30),
			Window:  time.Minute,
		},
		"run": {
			Enabled: enabled,
			MaxHits: parseEnvInt("RATELIMIT_RUN", 60),
			Window:  time.Minute,
		},
	}

	if config, exists := configs[key]; exists {
		return config
	}

	logger.Warn(logger.CONFIG, "No rate limit config found for key: %s", key)
	return RateLimitConfig{Enabled: false}
}
