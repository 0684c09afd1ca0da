package speech

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const cacheKeyPrefix = "wellbot:tts:"

// Cache stores synthesized audio by voice and text.
type Cache interface {
	Get(ctx context.Context, voiceType, text string) (string, bool, error)
	Set(ctx context.Context, voiceType, text, audio string) error
}

// RedisCache keeps synthesized audio in Redis with a TTL.
type RedisCache struct {
	redis *redis.Client
	ttl   time.Duration
}

func NewRedisCache(client *redis.Client, ttl time.Duration) *RedisCache {
	return &RedisCache{redis: client, ttl: ttl}
}

func (c *RedisCache) key(voiceType, text string) string {
	sum := sha256.Sum256([]byte(voiceType + "|" + text))
	return cacheKeyPrefix + hex.EncodeToString(sum[:])
}

func (c *RedisCache) Get(ctx context.Context, voiceType, text string) (string, bool, error) {
	audio, err := c.redis.Get(ctx, c.key(voiceType, text)).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("speech: cache get: %w", err)
	}
	return audio, true, nil
}

func (c *RedisCache) Set(ctx context.Context, voiceType, text, audio string) error {
	if err := c.redis.Set(ctx, c.key(voiceType, text), audio, c.ttl).Err(); err != nil {
		return fmt.Errorf("speech: cache set: %w", err)
	}
	return nil
}
