package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisConfig holds the connection settings for RedisStorage
type RedisConfig struct {
	Address   string
	Password  string
	DB        int
	KeyPrefix string
	Timeout   time.Duration
}

// RedisStorage implements Storage on Redis so counters are shared between
// portal instances.
type RedisStorage struct {
	client    *redis.Client
	keyPrefix string
	address   string
}

// incrWithExpiry increments a key and sets its expiry only when the key is new.
var incrWithExpiry = redis.NewScript(`
local v = redis.call("INCR", KEYS[1])
if v == 1 then
  redis.call("PEXPIRE", KEYS[1], ARGV[1])
end
return v
`)

// NewRedisStorage connects to Redis and verifies the connection with a ping.
func NewRedisStorage(config RedisConfig) (*RedisStorage, error) {
	if config.Address == "" {
		return nil, fmt.Errorf("redis address is required")
	}

	opts := &redis.Options{
		Addr:     config.Address,
		Password: config.Password,
		DB:       config.DB,
	}
	if config.Timeout > 0 {
		opts.DialTimeout = config.Timeout
		opts.ReadTimeout = config.Timeout
		opts.WriteTimeout = config.Timeout
	}

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &RedisStorage{
		client:    client,
		keyPrefix: config.KeyPrefix,
		address:   config.Address,
	}, nil
}

func (rs *RedisStorage) getKey(key string) string {
	return rs.keyPrefix + key
}

// IncrementWithExpiry increments the counter and sets expiry if it's a new key
func (rs *RedisStorage) IncrementWithExpiry(ctx context.Context, key string, expiry time.Duration) (int64, bool, error) {
	v, err := incrWithExpiry.Run(ctx, rs.client, []string{rs.getKey(key)}, expiry.Milliseconds()).Int64()
	if err != nil {
		return 0, false, fmt.Errorf("failed to increment key %s: %w", key, err)
	}
	return v, v == 1, nil
}

// GetWithTTL retrieves the value and remaining TTL for a key
func (rs *RedisStorage) GetWithTTL(ctx context.Context, key string) (int64, time.Duration, error) {
	fullKey := rs.getKey(key)

	pipe := rs.client.Pipeline()
	getCmd := pipe.Get(ctx, fullKey)
	ttlCmd := pipe.PTTL(ctx, fullKey)
	if _, err := pipe.Exec(ctx); err != nil && err != redis.Nil {
		return 0, 0, fmt.Errorf("failed to get key %s: %w", key, err)
	}

	v, err := getCmd.Int64()
	if err == redis.Nil {
		return 0, 0, nil
	}
	if err != nil {
		return 0, 0, fmt.Errorf("failed to parse key %s: %w", key, err)
	}

	ttl := ttlCmd.Val()
	if ttl < 0 {
		ttl = 0
	}
	return v, ttl, nil
}

// Delete removes the key from storage
func (rs *RedisStorage) Delete(ctx context.Context, key string) error {
	if err := rs.client.Del(ctx, rs.getKey(key)).Err(); err != nil {
		return fmt.Errorf("failed to delete key %s: %w", key, err)
	}
	return nil
}

// Close closes the Redis client
func (rs *RedisStorage) Close() error {
	return rs.client.Close()
}

// Health returns the health status of the Redis storage
func (rs *RedisStorage) Health() map[string]interface{} {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	status := "healthy"
	health := map[string]interface{}{
		"type":    "redis",
		"address": rs.address,
	}
	if err := rs.client.Ping(ctx).Err(); err != nil {
		status = "unhealthy"
		health["error"] = err.Error()
	}
	health["status"] = status
	return health
}
