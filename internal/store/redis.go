package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	redis "github.com/redis/go-redis/v9"

	"sensuapi/internal/connwatch"
)

// RedisConfig configures Redis access.
type RedisConfig struct {
	Addr          string
	Password      string
	DB            int
	WatchInterval time.Duration
	FatalAfter    time.Duration
}

// RedisStore implements Store on a go-redis client.
type RedisStore struct {
	client  *redis.Client
	watcher *connwatch.Watcher
}

// NewRedisStore constructs a Redis-backed store. An unreachable server is not
// an error: the store starts disconnected and the watcher reports when it
// becomes reachable.
func NewRedisStore(cfg RedisConfig) (*RedisStore, error) {
	if strings.TrimSpace(cfg.Addr) == "" {
		cfg.Addr = "127.0.0.1:6379"
	}
	if cfg.DB < 0 {
		return nil, fmt.Errorf("invalid redis db %d", cfg.DB)
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	s := &RedisStore{client: client}
	s.watcher = connwatch.New(s.ping, cfg.WatchInterval, cfg.FatalAfter)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	s.watcher.MarkConnected(s.ping(ctx) == nil)

	return s, nil
}

func (s *RedisStore) ping(ctx context.Context) error {
	if err := s.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("ping redis: %w", err)
	}
	return nil
}

// Watcher exposes the connectivity watcher so bootstrap code can install
// lifecycle hooks and run it.
func (s *RedisStore) Watcher() *connwatch.Watcher {
	return s.watcher
}

// Connected reports the last observed connectivity.
func (s *RedisStore) Connected() bool {
	return s.watcher.Connected()
}

func (s *RedisStore) Get(ctx context.Context, key string) (string, bool, error) {
	v, err := s.client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("get %s: %w", key, err)
	}
	return v, true, nil
}

func (s *RedisStore) Set(ctx context.Context, key, value string) error {
	if err := s.client.Set(ctx, key, value, 0).Err(); err != nil {
		return fmt.Errorf("set %s: %w", key, err)
	}
	return nil
}

func (s *RedisStore) Del(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	if err := s.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("del %s: %w", strings.Join(keys, ","), err)
	}
	return nil
}

func (s *RedisStore) Exists(ctx context.Context, key string) (bool, error) {
	n, err := s.client.Exists(ctx, key).Result()
	if err != nil {
		return false, fmt.Errorf("exists %s: %w", key, err)
	}
	return n > 0, nil
}

func (s *RedisStore) Expire(ctx context.Context, key string, seconds int64) error {
	// client.Expire takes a time.Duration, which overflows for lifetimes
	// beyond roughly 292 years.
	if err := s.client.Do(ctx, "EXPIRE", key, seconds).Err(); err != nil {
		return fmt.Errorf("expire %s: %w", key, err)
	}
	return nil
}

func (s *RedisStore) TTL(ctx context.Context, key string) (int64, error) {
	d, err := s.client.TTL(ctx, key).Result()
	if err != nil {
		return 0, fmt.Errorf("ttl %s: %w", key, err)
	}
	// go-redis passes the -1/-2 sentinels through unscaled.
	if d < 0 {
		return int64(d), nil
	}
	return int64(d / time.Second), nil
}

func (s *RedisStore) SAdd(ctx context.Context, key string, members ...string) error {
	if err := s.client.SAdd(ctx, key, toArgs(members)...).Err(); err != nil {
		return fmt.Errorf("sadd %s: %w", key, err)
	}
	return nil
}

func (s *RedisStore) SRem(ctx context.Context, key string, members ...string) error {
	if err := s.client.SRem(ctx, key, toArgs(members)...).Err(); err != nil {
		return fmt.Errorf("srem %s: %w", key, err)
	}
	return nil
}

func (s *RedisStore) SMembers(ctx context.Context, key string) ([]string, error) {
	members, err := s.client.SMembers(ctx, key).Result()
	if err != nil {
		return nil, fmt.Errorf("smembers %s: %w", key, err)
	}
	return members, nil
}

func (s *RedisStore) HGetAll(ctx context.Context, key string) (map[string]string, error) {
	hash, err := s.client.HGetAll(ctx, key).Result()
	if err != nil {
		return nil, fmt.Errorf("hgetall %s: %w", key, err)
	}
	return hash, nil
}

func (s *RedisStore) HGet(ctx context.Context, key, field string) (string, bool, error) {
	v, err := s.client.HGet(ctx, key, field).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("hget %s %s: %w", key, field, err)
	}
	return v, true, nil
}

func (s *RedisStore) LRange(ctx context.Context, key string, start, stop int64) ([]string, error) {
	items, err := s.client.LRange(ctx, key, start, stop).Result()
	if err != nil {
		return nil, fmt.Errorf("lrange %s: %w", key, err)
	}
	return items, nil
}

// Close closes Redis resources.
func (s *RedisStore) Close() error {
	if s == nil || s.client == nil {
		return nil
	}
	return s.client.Close()
}

func toArgs(members []string) []interface{} {
	out := make([]interface{}, len(members))
	for i, m := range members {
		out[i] = m
	}
	return out
}
