package registry

import (
	"context"
	"sort"
	"sync"

	"github.com/deepgram/assistkit/internal/infrastructure/redis"
	"github.com/deepgram/assistkit/pkg/logger"
)

const (
	assistantsSet   = "Assistants"
	threadKeyPrefix = "Assistant:"
)

// Tracker records which remote resources this process created so they can be
// cleaned up later, even by another process.
type Tracker interface {
	TrackAssistant(ctx context.Context, assistantID string) error
	UntrackAssistant(ctx context.Context, assistantID string) error
	TrackThread(ctx context.Context, assistantID, threadID string) error
	UntrackThread(ctx context.Context, assistantID, threadID string) error
	Assistants(ctx context.Context) ([]string, error)
	Threads(ctx context.Context, assistantID string) ([]string, error)
}

type RedisStore struct {
	redisService *redis.Service
	namespace    string
}

type MemoryStore struct {
	mu         sync.RWMutex
	assistants map[string]map[string]struct{}
}

// NewService picks Redis when it is reachable and falls back to memory otherwise.
// Redis keys live under namespace so several instances can share one server.
func NewService(redisService *redis.Service, namespace string) Tracker {
	logger.Info(logger.REGISTRY, "Initialising resource registry")

	if redisService != nil {
		if err := redisService.Ping(context.Background()); err != nil {
			logger.Error(logger.REGISTRY, "Redis connection failed: %v", err)
			logger.Warn(logger.REGISTRY, "Falling back to in-memory registry")
			return NewMemoryStore()
		}
		logger.Info(logger.REGISTRY, "Using Redis for resource registry under namespace %q", namespace)
		return NewRedisStore(redisService, namespace)
	}

	logger.Info(logger.REGISTRY, "Using in-memory resource registry")
	return NewMemoryStore()
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		assistants: make(map[string]map[string]struct{}),
	}
}

func NewRedisStore(redisService *redis.Service, namespace string) *RedisStore {
	return &RedisStore{redisService: redisService, namespace: namespace}
}

func (rs *RedisStore) key(k string) string {
	if rs.namespace == "" {
		return k
	}
	return rs.namespace + ":" + k
}

func (rs *RedisStore) assistantsKey() string {
	return rs.key(assistantsSet)
}

func (rs *RedisStore) threadsKey(assistantID string) string {
	return rs.key(threadKeyPrefix + assistantID + ":threads")
}

// Redis Store implementation
func (rs *RedisStore) TrackAssistant(ctx context.Context, assistantID string) error {
	return rs.redisService.AddMember(ctx, rs.assistantsKey(), assistantID)
}

func (rs *RedisStore) UntrackAssistant(ctx context.Context, assistantID string) error {
	if err := rs.redisService.Delete(ctx, rs.threadsKey(assistantID)); err != nil {
		return err
	}
	return rs.redisService.RemoveMember(ctx, rs.assistantsKey(), assistantID)
}

func (rs *RedisStore) TrackThread(ctx context.Context, assistantID, threadID string) error {
	return rs.redisService.AddMember(ctx, rs.threadsKey(assistantID), threadID)
}

func (rs *RedisStore) UntrackThread(ctx context.Context, assistantID, threadID string) error {
	return rs.redisService.RemoveMember(ctx, rs.threadsKey(assistantID), threadID)
}

func (rs *RedisStore) Assistants(ctx context.Context) ([]string, error) {
	return rs.redisService.Members(ctx, rs.assistantsKey())
}

func (rs *RedisStore) Threads(ctx context.Context, assistantID string) ([]string, error) {
	return rs.redisService.Members(ctx, rs.threadsKey(assistantID))
}

// Memory Store implementation
func (ms *MemoryStore) TrackAssistant(ctx context.Context, assistantID string) error {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	if _, exists := ms.assistants[assistantID]; !exists {
		ms.assistants[assistantID] = make(map[string]struct{})
	}
	return nil
}

func (ms *MemoryStore) UntrackAssistant(ctx context.Context, assistantID string) error {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	delete(ms.assistants, assistantID)
	return nil
}

func (ms *MemoryStore) TrackThread(ctx context.Context, assistantID, threadID string) error {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	threads, exists := ms.assistants[assistantID]
	if !exists {
		threads = make(map[string]struct{})
		ms.assistants[assistantID] = threads
	}
	threads[threadID] = struct{}{}
	return nil
}

func (ms *MemoryStore) UntrackThread(ctx context.Context, assistantID, threadID string) error {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	if threads, exists := ms.assistants[assistantID]; exists {
		delete(threads, threadID)
	}
	return nil
}

func (ms *MemoryStore) Assistants(ctx context.Context) ([]string, error) {
	ms.mu.RLock()
	defer ms.mu.RUnlock()
	ids := make([]string, 0, len(ms.assistants))
	for id := range ms.assistants {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

func (ms *MemoryStore) Threads(ctx context.Context, assistantID string) ([]string, error) {
	ms.mu.RLock()
	defer ms.mu.RUnlock()
	threads := ms.assistants[assistantID]
	ids := make([]string, 0, len(threads))
	for id := range threads {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}
