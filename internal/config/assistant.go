package config

import "time"

type AssistantConfig struct {
	SnapshotDir  string
	PollInterval time.Duration
	RunTimeout   time.Duration
	SweepOnStart bool
}

func GetAssistantConfig() AssistantConfig {
	return AssistantConfig{
		SnapshotDir:  GetEnvOrDefault("ASSISTANT_SNAPSHOT_DIR", "tmp"),
		PollInterval: parseEnvDuration("ASSISTANT_POLL_INTERVAL", time.Second),
		RunTimeout:   parseEnvDuration("ASSISTANT_RUN_TIMEOUT", 10*time.Minute),
		SweepOnStart: parseEnvBool("ASSISTANT_SWEEP_ON_START", false),
	}
}
