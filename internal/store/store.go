// Package store is the typed façade over the Redis state shared by the
// monitoring platform. Absent keys and fields are reported through ok flags
// or empty collections; errors are reserved for failures of the store itself.
package store

import "context"

// Store is the subset of Redis operations the API needs.
type Store interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
	Del(ctx context.Context, keys ...string) error
	Exists(ctx context.Context, key string) (bool, error)
	// Expire sets the remaining lifetime of key to seconds, sent to Redis as is.
	Expire(ctx context.Context, key string, seconds int64) error
	// TTL returns the remaining lifetime in seconds, -1 when the key has no
	// expiry and -2 when it does not exist.
	TTL(ctx context.Context, key string) (int64, error)

	SAdd(ctx context.Context, key string, members ...string) error
	SRem(ctx context.Context, key string, members ...string) error
	SMembers(ctx context.Context, key string) ([]string, error)

	HGetAll(ctx context.Context, key string) (map[string]string, error)
	HGet(ctx context.Context, key, field string) (string, bool, error)

	LRange(ctx context.Context, key string, start, stop int64) ([]string, error)

	Connected() bool
}
