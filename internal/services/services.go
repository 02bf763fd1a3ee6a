package services

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/deepgram/assistkit/internal/config"
	"github.com/deepgram/assistkit/internal/connections"
	"github.com/deepgram/assistkit/internal/infrastructure/openai"
	"github.com/deepgram/assistkit/internal/infrastructure/redis"
	"github.com/deepgram/assistkit/internal/services/assistant"
	"github.com/deepgram/assistkit/internal/services/registry"
	"github.com/deepgram/assistkit/internal/services/snapshot"
	"github.com/rs/zerolog/log"
)

var (
	// Mutex for thread-safe initialization
	servicesMu sync.RWMutex
)

type Services struct {
	openAIService     *openai.Service
	redisService      *redis.Service
	tracker           registry.Tracker
	assistantManager  *assistant.Manager
	connectionManager *connections.Manager
}

// InitializeServices initializes all required services
func InitializeServices() (*Services, error) {
	servicesMu.Lock()
	defer servicesMu.Unlock()

	log.Info().Msg("Initializing core services")

	if err := config.ValidateAuthConfig(); err != nil {
		return nil, err
	}

	// Initialize OpenAI service (required)
	openAIService := openai.NewService()
	if openAIService == nil {
		return nil, fmt.Errorf("failed to initialize OpenAI service: OPENAI_KEY is required")
	}

	// Initialize Redis service (optional)
	redisService := redis.NewService()
	log.Info().Bool("redis", redisService != nil).Msg("Initializing resource registry")

	return NewServices(openAIService, redisService, config.GetAssistantConfig()), nil
}

// NewServices wires the services around already constructed infrastructure
func NewServices(openAIService *openai.Service, redisService *redis.Service, cfg config.AssistantConfig) *Services {
	tracker := registry.NewService(redisService, config.GetRegistryNamespace())

	manager := assistant.NewManager(
		openAIService.GetClient(),
		config.GetOpenAIModel(),
		assistant.WithTracker(tracker),
		assistant.WithSnapshots(snapshot.NewWriter(cfg.SnapshotDir)),
		assistant.WithPollInterval(cfg.PollInterval),
		assistant.WithRunTimeout(cfg.RunTimeout),
	)

	log.Info().
		Str("snapshot_dir", cfg.SnapshotDir).
		Dur("poll_interval", cfg.PollInterval).
		Dur("run_timeout", cfg.RunTimeout).
		Msg("All services initialized successfully")

	return &Services{
		openAIService:     openAIService,
		redisService:      redisService,
		tracker:           tracker,
		assistantManager:  manager,
		connectionManager: connections.NewManager(connections.DefaultTimeouts),
	}
}

// Sweep removes resources a previous process left behind
func (s *Services) Sweep(ctx context.Context) (registry.SweepResult, error) {
	return registry.Sweep(ctx, s.openAIService.GetClient(), s.tracker)
}

// Shutdown closes stream connections, deletes every live assistant and
// releases Redis
func (s *Services) Shutdown(ctx context.Context) error {
	s.connectionManager.CloseAll()

	err := s.assistantManager.Shutdown(ctx)
	if s.redisService != nil {
		err = errors.Join(err, s.redisService.Close())
	}
	return err
}

// GetAssistantManager returns the assistant manager
func (s *Services) GetAssistantManager() *assistant.Manager {
	return s.assistantManager
}

// GetConnectionManager returns the run-stream connection manager
func (s *Services) GetConnectionManager() *connections.Manager {
	return s.connectionManager
}

// GetTracker returns the resource registry
func (s *Services) GetTracker() registry.Tracker {
	return s.tracker
}
