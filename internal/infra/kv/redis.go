package kv

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// Redis keeps each document under "<prefix>:<owner>:<key>" without expiry.
type Redis struct {
	client redis.UniversalClient
	prefix string
}

func NewRedis(client redis.UniversalClient, prefix string) *Redis {
	if prefix == "" {
		prefix = "smeta"
	}
	return &Redis{client: client, prefix: prefix}
}

func (r *Redis) key(owner int64, key Key) string {
	return fmt.Sprintf("%s:%d:%s", r.prefix, owner, key)
}

func (r *Redis) Get(ctx context.Context, owner int64, key Key) ([]byte, error) {
	raw, err := r.client.Get(ctx, r.key(owner, key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("kv/redis: get: %w", err)
	}
	return raw, nil
}

func (r *Redis) Put(ctx context.Context, owner int64, key Key, doc []byte) error {
	if err := r.client.Set(ctx, r.key(owner, key), doc, 0).Err(); err != nil {
		return fmt.Errorf("kv/redis: set: %w", err)
	}
	return nil
}

func (r *Redis) Delete(ctx context.Context, owner int64, key Key) error {
	if err := r.client.Del(ctx, r.key(owner, key)).Err(); err != nil {
		return fmt.Errorf("kv/redis: del: %w", err)
	}
	return nil
}
