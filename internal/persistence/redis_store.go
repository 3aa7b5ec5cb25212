package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisBackend is a Backend backed by Redis. Records live under
//
//	<prefix>rec:<key>
//
// and never expire unless a TTL is configured.
type RedisBackend struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

var _ Backend = (*RedisBackend)(nil)

// NewRedisBackend creates a RedisBackend.
// prefix is optional but recommended (e.g. "surveyflow:").
func NewRedisBackend(client *redis.Client, prefix string) *RedisBackend {
	if prefix == "" {
		prefix = "surveyflow:"
	}
	return &RedisBackend{
		client: client,
		prefix: prefix,
	}
}

// WithTTL returns a copy of b whose writes expire after ttl. Zero disables
// expiry.
func (b *RedisBackend) WithTTL(ttl time.Duration) *RedisBackend {
	out := *b
	out.ttl = ttl
	return &out
}

func (b *RedisBackend) keyRecord(key string) string {
	return b.prefix + "rec:" + key
}

func (b *RedisBackend) Get(ctx context.Context, key string) ([]byte, error) {
	data, err := b.client.Get(ctx, b.keyRecord(key)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrRecordNotFound
		}
		return nil, err
	}
	return data, nil
}

func (b *RedisBackend) Put(ctx context.Context, key string, data []byte) error {
	return b.client.Set(ctx, b.keyRecord(key), data, b.ttl).Err()
}

func (b *RedisBackend) Delete(ctx context.Context, key string) error {
	return b.client.Del(ctx, b.keyRecord(key)).Err()
}
