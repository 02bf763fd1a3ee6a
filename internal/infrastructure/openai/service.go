package openai

import (
	"sync"

	"github.com/deepgram/assistkit/internal/config"
	"github.com/deepgram/assistkit/pkg/logger"
	"github.com/sashabaranov/go-openai"
)

type Service struct {
	mu     sync.RWMutex
	client *openai.Client
}

// NewService builds the OpenAI client from the environment. It returns nil when
// no key is configured.
func NewService() *Service {
	logger.Info(logger.SERVICE, "Initialising OpenAI service")
	key := config.GetOpenAIKey()

	if key == "" {
		logger.Warn(logger.SERVICE, "OpenAI service not configured - OPENAI_KEY missing")
		return nil
	}

	return NewServiceWithBaseURL(key, config.GetOpenAIBaseURL())
}

// NewServiceWithBaseURL builds a client against an explicit API root, e.g. a proxy
// or a test server. An empty baseURL keeps the public endpoint.
func NewServiceWithBaseURL(key, baseURL string) *Service {
	cfg := openai.DefaultConfig(key)
	if baseURL != "" {
		logger.Info(logger.SERVICE, "Using OpenAI base URL override: %s", baseURL)
		cfg.BaseURL = baseURL
	}

	return &Service{
		client: openai.NewClientWithConfig(cfg),
	}
}

func (s *Service) GetClient() *openai.Client {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.client
}
