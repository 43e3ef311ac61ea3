// Package cache keeps complete composite records in Redis, keyed by the
// CPF hash so raw identifiers never appear in key space.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"dossier/internal/dossier/models"
	"dossier/pkg/domain"
)

const (
	keyPrefix  = "dossier:cpf:"
	DefaultTTL = time.Hour
)

// RedisCache stores records as JSON with a fixed TTL.
type RedisCache struct {
	client redis.Cmdable
	ttl    time.Duration
}

func NewRedisCache(client redis.Cmdable, ttl time.Duration) *RedisCache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &RedisCache{client: client, ttl: ttl}
}

// Key returns the Redis key for cpf.
func Key(cpf domain.CPF) string {
	return keyPrefix + cpf.Hash()
}

func (c *RedisCache) Get(ctx context.Context, cpf domain.CPF) (*models.CompositeRecord, bool, error) {
	raw, err := c.client.Get(ctx, Key(cpf)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("cache get: %w", err)
	}
	var rec models.CompositeRecord
	if err := json.Unmarshal(raw, &rec); err != nil {
		// an undecodable entry would fail every read until its TTL ran out
		if delErr := c.invalidate(ctx, cpf); delErr != nil {
			return nil, false, errors.Join(fmt.Errorf("cache decode: %w", err), delErr)
		}
		return nil, false, fmt.Errorf("cache decode: %w", err)
	}
	return &rec, true, nil
}

func (c *RedisCache) Set(ctx context.Context, cpf domain.CPF, rec *models.CompositeRecord) error {
	raw, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("cache encode: %w", err)
	}
	if err := c.client.Set(ctx, Key(cpf), raw, c.ttl).Err(); err != nil {
		return fmt.Errorf("cache set: %w", err)
	}
	return nil
}

// invalidate drops any cached record for cpf.
func (c *RedisCache) invalidate(ctx context.Context, cpf domain.CPF) error {
	if err := c.client.Del(ctx, Key(cpf)).Err(); err != nil {
		return fmt.Errorf("cache delete: %w", err)
	}
	return nil
}
