package store

import (
	"context"
	"encoding/json"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
)

// RedisStore persists each key as a prefixed redis string holding JSON.
// Values never expire; the indexes are caches by contract but their
// lifetime is managed by the link hooks, not by TTL.
type RedisStore struct {
	redis  *redis.Client
	prefix string
}

func NewRedisStore(rds *redis.Client, prefix string) *RedisStore {
	return &RedisStore{
		redis:  rds,
		prefix: prefix,
	}
}

func (s *RedisStore) Read(ctx context.Context, key string, dest interface{}) error {
	data, err := s.redis.Get(ctx, s.prefix+key).Bytes()
	if err != nil {
		if err == redis.Nil {
			return ErrNotFound
		}
		return errors.Wrap(err, "failed to read from store")
	}

	if err := json.Unmarshal(data, dest); err != nil {
		return errors.Wrap(err, "failed to unmarshal stored value")
	}
	return nil
}

func (s *RedisStore) Write(ctx context.Context, key string, value interface{}) error {
	data, err := json.Marshal(value)
	if err != nil {
		return errors.Wrap(err, "failed to marshal value for store")
	}

	if err := s.redis.Set(ctx, s.prefix+key, data, 0).Err(); err != nil {
		return errors.Wrap(err, "failed to write to store")
	}
	return nil
}

func (s *RedisStore) Delete(ctx context.Context, key string) error {
	if err := s.redis.Del(ctx, s.prefix+key).Err(); err != nil {
		return errors.Wrap(err, "failed to delete from store")
	}
	return nil
}
