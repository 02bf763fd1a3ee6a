package config

import (
	"github.com/deepgram/assistkit/pkg/logger"
)

func GetRedisURL() string {
	logger.Debug(logger.CONFIG, "Attempting to retrieve Redis URL from environment")
	value := GetEnvOrDefault("REDIS_URL", "")
	if value == "" {
		logger.Warn(logger.CONFIG, "Redis URL not set - registry will be kept in memory")
	} else {
		logger.Info(logger.CONFIG, "Redis URL successfully loaded")
	}
	return value
}

func GetRedisPassword() string {
	return GetEnvOrDefault("REDIS_PASSWORD", "")
}

// GetRegistryNamespace prefixes the registry keys. Instances sharing one Redis
// need distinct namespaces, otherwise a sweep on one removes the others' assistants.
func GetRegistryNamespace() string {
	return GetEnvOrDefault("REGISTRY_NAMESPACE", "assistkit")
}
