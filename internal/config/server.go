package config

import "time"

// GetServerAddr returns the listen address for the HTTP server
func GetServerAddr() string {
	return ":" + GetEnvOrDefault("PORT", "8080")
}

// GetDemoModalDelay returns how long the spinner demo keeps its modal open
func GetDemoModalDelay() time.Duration {
	return parseEnvDuration("DEMO_MODAL_DELAY", 5*time.Second)
}
