package icons

import (
	"context"
	"errors"

	"github.com/redis/go-redis/v9"
)

// DefaultRedisPrefix namespaces symbol keys in a shared Redis.
const DefaultRedisPrefix = "gns3:symbol:"

// RedisGetter is the subset of redis.Cmdable used by RedisSource.
type RedisGetter interface {
	Get(ctx context.Context, key string) *redis.StringCmd
}

// RedisSource reads symbol payloads stored under {prefix}{normalized} in
// Redis. It is a read-only tier: populating the store is left to whoever
// operates it.
type RedisSource struct {
	client RedisGetter
	prefix string
}

// NewRedisSource creates a Redis-backed source. An empty prefix uses
// [DefaultRedisPrefix].
func NewRedisSource(client RedisGetter, prefix string) *RedisSource {
	if prefix == "" {
		prefix = DefaultRedisPrefix
	}
	return &RedisSource{client: client, prefix: prefix}
}

// NewRedisSourceFromURL parses a redis:// URL and connects lazily.
func NewRedisSourceFromURL(url, prefix string) (*RedisSource, *redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, nil, err
	}
	client := redis.NewClient(opts)
	return NewRedisSource(client, prefix), client, nil
}

func (s *RedisSource) Name() string { return "redis" }

func (s *RedisSource) Fetch(ctx context.Context, symbol string) ([]byte, error) {
	name := Normalize(symbol)
	if name == "" {
		return nil, ErrMiss
	}
	data, err := s.client.Get(ctx, s.prefix+name).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrMiss
	}
	return data, err
}
