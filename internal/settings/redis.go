package settings

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// DefaultRedisHash is the hash holding all settings fields.
const DefaultRedisHash = "payble:settings"

// RedisRepository stores settings as fields of a single Redis hash.
type RedisRepository struct {
	client redis.UniversalClient
	hash   string
}

// NewRedisRepository connects to addr, which is either a redis:// URL or a
// bare host:port, and verifies the connection with a ping.
func NewRedisRepository(ctx context.Context, addr, hash string) (*RedisRepository, error) {
	if !strings.Contains(addr, "://") {
		addr = "redis://" + addr
	}
	opts, err := redis.ParseURL(addr)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	r := NewRedisRepositoryWithClient(redis.NewClient(opts), hash)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := r.Ping(pingCtx); err != nil {
		_ = r.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	return r, nil
}

func NewRedisRepositoryWithClient(client redis.UniversalClient, hash string) *RedisRepository {
	if hash == "" {
		hash = DefaultRedisHash
	}
	return &RedisRepository{client: client, hash: hash}
}

func (r *RedisRepository) Get(ctx context.Context, key string) (string, bool, error) {
	v, err := r.client.HGet(ctx, r.hash, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("redis hget %s: %w", key, err)
	}
	return v, true, nil
}

func (r *RedisRepository) Set(ctx context.Context, key, value string) error {
	if err := r.client.HSet(ctx, r.hash, key, value).Err(); err != nil {
		return fmt.Errorf("redis hset %s: %w", key, err)
	}
	return nil
}

// Ping checks connectivity.
func (r *RedisRepository) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

func (r *RedisRepository) Close() error {
	return r.client.Close()
}
