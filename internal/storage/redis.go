package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/terra-clan/event-portal/internal/models"
)

// RedisStore is a Store backed by Redis, for headless agents that
// share credentials across hosts. Keys live under a fixed prefix so
// several agents can share one database.
type RedisStore struct {
	client *redis.Client
	prefix string
}

// NewRedisStore connects to Redis and verifies connectivity
func NewRedisStore(address, password string, db int, prefix string) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     address,
		Password: password,
		DB:       db,
	})

	if err := client.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	if prefix == "" {
		prefix = "event-portal:"
	}

	return &RedisStore{client: client, prefix: prefix}, nil
}

func (s *RedisStore) key(name string) string {
	return s.prefix + name
}

// Token returns the stored bearer token for a domain, or ""
func (s *RedisStore) Token(ctx context.Context, domain models.Domain) (string, error) {
	value, err := s.client.Get(ctx, s.key(domain.TokenKey())).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to read token: %w", err)
	}
	return value, nil
}

// SetToken stores the bearer token for a domain
func (s *RedisStore) SetToken(ctx context.Context, domain models.Domain, token string) error {
	if err := s.client.Set(ctx, s.key(domain.TokenKey()), token, 0).Err(); err != nil {
		return fmt.Errorf("failed to write token: %w", err)
	}
	return nil
}

// DeleteToken removes the token for a domain
func (s *RedisStore) DeleteToken(ctx context.Context, domain models.Domain) error {
	if err := s.client.Del(ctx, s.key(domain.TokenKey())).Err(); err != nil {
		return fmt.Errorf("failed to delete token: %w", err)
	}
	return nil
}

// Profile returns the persisted participant snapshot, or nil
func (s *RedisStore) Profile(ctx context.Context) (*models.Participant, error) {
	raw, err := s.client.Get(ctx, s.key(profileKey)).Result()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read profile snapshot: %w", err)
	}

	var p models.Participant
	if err := json.Unmarshal([]byte(raw), &p); err != nil {
		return nil, fmt.Errorf("failed to decode profile snapshot: %w", err)
	}
	return &p, nil
}

// SaveProfile persists the participant snapshot
func (s *RedisStore) SaveProfile(ctx context.Context, p *models.Participant) error {
	raw, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("failed to encode profile snapshot: %w", err)
	}
	if err := s.client.Set(ctx, s.key(profileKey), raw, 0).Err(); err != nil {
		return fmt.Errorf("failed to write profile snapshot: %w", err)
	}
	return nil
}

// DeleteProfile removes the participant snapshot
func (s *RedisStore) DeleteProfile(ctx context.Context) error {
	if err := s.client.Del(ctx, s.key(profileKey)).Err(); err != nil {
		return fmt.Errorf("failed to delete profile snapshot: %w", err)
	}
	return nil
}

// HealthCheck verifies Redis connectivity
func (s *RedisStore) HealthCheck(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// Close closes the Redis connection
func (s *RedisStore) Close() error {
	return s.client.Close()
}
