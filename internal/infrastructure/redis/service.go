package redis

import (
	"context"

	"github.com/deepgram/assistkit/internal/config"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

type Service struct {
	client *redis.Client
}

// NewService connects to the configured Redis instance. It returns nil when Redis
// is not configured or unreachable so callers can fall back to memory.
func NewService() *Service {
	url := config.GetRedisURL()

	if url == "" {
		log.Warn().Msg("Redis URL not configured - service will be unavailable")
		return nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     url,
		Password: config.GetRedisPassword(),
		DB:       0,
	})

	if err := client.Ping(context.Background()).Err(); err != nil {
		log.Error().
			Err(err).
			Str("addr", url).
			Msg("Failed to establish Redis connection")
		return nil
	}

	return &Service{
		client: client,
	}
}

// AddMember adds a member to the set stored at key
func (s *Service) AddMember(ctx context.Context, key, member string) error {
	if err := s.client.SAdd(ctx, key, member).Err(); err != nil {
		log.Error().
			Err(err).
			Str("key", key).
			Str("member", member).
			Msg("Critical Redis SADD operation failed")
		return err
	}
	return nil
}

// RemoveMember removes a member from the set stored at key
func (s *Service) RemoveMember(ctx context.Context, key, member string) error {
	if err := s.client.SRem(ctx, key, member).Err(); err != nil {
		log.Error().
			Err(err).
			Str("key", key).
			Str("member", member).
			Msg("Critical Redis SREM operation failed")
		return err
	}
	return nil
}

// Members returns every member of the set stored at key
func (s *Service) Members(ctx context.Context, key string) ([]string, error) {
	members, err := s.client.SMembers(ctx, key).Result()
	if err != nil && err != redis.Nil {
		log.Error().
			Err(err).
			Str("key", key).
			Msg("Critical Redis SMEMBERS operation failed")
		return nil, err
	}
	return members, nil
}

// Delete removes a key from Redis
func (s *Service) Delete(ctx context.Context, key string) error {
	return s.client.Del(ctx, key).Err()
}

// Ping checks if Redis is accessible
func (s *Service) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// Close closes the Redis connection
func (s *Service) Close() error {
	return s.client.Close()
}
