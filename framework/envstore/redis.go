package envstore

import (
	"context"
	"fmt"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
)

// DefaultRedisPrefix is prepended to every key written by a RedisStore.
const DefaultRedisPrefix = "driver:env:"

// RedisStore keeps each key as a plain Redis string.
type RedisStore struct {
	redis  *redis.Client
	prefix string
}

func NewRedisStore(client *redis.Client, prefix string) *RedisStore {
	return &RedisStore{redis: client, prefix: prefix}
}

// DSN describes the server the store talks to.
func (r *RedisStore) DSN() string {
	return fmt.Sprintf("redis://%s", r.redis.Options().Addr)
}

func (r *RedisStore) Write(key string, data []byte) error {
	if err := ValidateKey(key); err != nil {
		return err
	}
	var ctx = context.Background()
	if err := r.redis.Set(ctx, r.prefix+key, data, 0).Err(); err != nil {
		return errors.Wrapf(err, "could not write %q to redis", key)
	}
	return nil
}

func (r *RedisStore) Read(key string) ([]byte, error) {
	if err := ValidateKey(key); err != nil {
		return nil, err
	}
	var ctx = context.Background()
	data, err := r.redis.Get(ctx, r.prefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, errors.Wrapf(ErrNotFound, "%q", key)
	}
	if err != nil {
		return nil, errors.Wrapf(err, "could not read %q from redis", key)
	}
	return data, nil
}
