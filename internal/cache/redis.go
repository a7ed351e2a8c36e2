package cache

import (
	"context"
	"time"

	"stockgpt/pkg/logger"

	"github.com/redis/go-redis/v9"
)

// redisStore keeps cached values in Redis so repeated runs (or several
// users sharing one server) reuse fetches. TTL handling is native.
type redisStore struct {
	client *redis.Client
	log    *logger.Logger
}

// NewRedis creates a Redis-backed store from an already connected client.
func NewRedis(client *redis.Client, log *logger.Logger) Store {
	return &redisStore{client: client, log: log}
}

func (s *redisStore) Get(ctx context.Context, key Key) ([]byte, bool) {
	b, err := s.client.Get(ctx, key.String()).Bytes()
	if err != nil {
		if err != redis.Nil {
			s.log.Warn("Redis cache read failed, treating as miss", logger.ErrorField(err), logger.StringField("key", key.String()))
		}
		return nil, false
	}
	return b, true
}

func (s *redisStore) Put(ctx context.Context, key Key, value []byte, ttl time.Duration) {
	if err := s.client.Set(ctx, key.String(), value, ttl).Err(); err != nil {
		s.log.Warn("Redis cache write failed", logger.ErrorField(err), logger.StringField("key", key.String()))
	}
}

func (s *redisStore) Invalidate(ctx context.Context, key Key) {
	if err := s.client.Del(ctx, key.String()).Err(); err != nil {
		s.log.Warn("Redis cache delete failed", logger.ErrorField(err), logger.StringField("key", key.String()))
	}
}

func (s *redisStore) Close(_ context.Context) error {
	return s.client.Close()
}
