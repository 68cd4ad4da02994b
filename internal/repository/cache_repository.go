package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/django102/routelink-capricorn/internal/models"
)

// CacheRepository handles the two Redis-backed concerns of the service:
// transport-level idempotent response replay and the per-user fraud pattern
// profile. Both are plain key/value entries with a bounded TTL.
type CacheRepository interface {
	// GetIdempotentResponse returns the cached response body for the key,
	// or nil on a miss.
	GetIdempotentResponse(ctx context.Context, key string) ([]byte, error)

	// SetIdempotentResponse stores the serialized response under the key.
	SetIdempotentResponse(ctx context.Context, key string, body []byte, ttl time.Duration) error

	// GetUserPattern returns the cached behavioural profile for the user,
	// or nil on a miss.
	GetUserPattern(ctx context.Context, userID string) (*models.UserTransactionPattern, error)

	// SetUserPattern stores the behavioural profile. Overwrites are
	// idempotent; last writer wins.
	SetUserPattern(ctx context.Context, pattern *models.UserTransactionPattern, ttl time.Duration) error
}

type cacheRepository struct {
	client *redis.Client
}

// NewCacheRepository creates a new cache repository
func NewCacheRepository(client *redis.Client) CacheRepository {
	return &cacheRepository{
		client: client,
	}
}

func (r *cacheRepository) GetIdempotentResponse(ctx context.Context, key string) ([]byte, error) {
	cacheKey := fmt.Sprintf("idempotency_%s", key)

	val, err := r.client.Get(ctx, cacheKey).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get idempotent response: %w", err)
	}

	return val, nil
}

func (r *cacheRepository) SetIdempotentResponse(ctx context.Context, key string, body []byte, ttl time.Duration) error {
	cacheKey := fmt.Sprintf("idempotency_%s", key)
	return r.client.Set(ctx, cacheKey, body, ttl).Err()
}

func (r *cacheRepository) GetUserPattern(ctx context.Context, userID string) (*models.UserTransactionPattern, error) {
	cacheKey := fmt.Sprintf("user_pattern_%s", userID)

	val, err := r.client.Get(ctx, cacheKey).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user pattern: %w", err)
	}

	pattern := &models.UserTransactionPattern{}
	if err := json.Unmarshal(val, pattern); err != nil {
		return nil, fmt.Errorf("failed to decode user pattern: %w", err)
	}
	return pattern, nil
}

func (r *cacheRepository) SetUserPattern(ctx context.Context, pattern *models.UserTransactionPattern, ttl time.Duration) error {
	cacheKey := fmt.Sprintf("user_pattern_%s", pattern.UserID)

	val, err := json.Marshal(pattern)
	if err != nil {
		return fmt.Errorf("failed to encode user pattern: %w", err)
	}
	return r.client.Set(ctx, cacheKey, val, ttl).Err()
}
