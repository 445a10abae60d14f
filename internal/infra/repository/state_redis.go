package repository

import (
	"context"
	"errors"
	"time"

	repo "github.com/nickchild-info/conbrako-laser-sub000/internal/repository"

	"github.com/go-redis/redis/v8"
)

// Redisに保存する。ttl=0なら期限なし。
type StateRedisRepository struct {
	rdb    redis.UniversalClient
	prefix string
	ttl    time.Duration
}

func NewStateRedisRepository(rdb redis.UniversalClient, prefix string, ttl time.Duration) *StateRedisRepository {
	return &StateRedisRepository{rdb: rdb, prefix: prefix, ttl: ttl}
}

func (r *StateRedisRepository) Get(ctx context.Context, key string) ([]byte, error) {
	b, err := r.rdb.Get(ctx, r.prefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, repo.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return b, nil
}

func (r *StateRedisRepository) Set(ctx context.Context, key string, value []byte) error {
	return r.rdb.Set(ctx, r.prefix+key, value, r.ttl).Err()
}

func (r *StateRedisRepository) Delete(ctx context.Context, key string) error {
	return r.rdb.Del(ctx, r.prefix+key).Err()
}
