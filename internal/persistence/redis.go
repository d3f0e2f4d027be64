package persistence

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

func NewRedisSlot(client *redis.Client) *RedisSlot {
	return &RedisSlot{client: client}
}

// RedisSlot stores each cart as a plain string value. Entries carry no TTL:
// this is the system of record for the cart, not a cache.
type RedisSlot struct {
	client *redis.Client
}

func (r *RedisSlot) Load(ctx context.Context, key string) ([]byte, error) {
	data, err := r.client.Get(ctx, slotKey(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrEmptySlot
	}
	if err != nil {
		return nil, fmt.Errorf("redis get failed: %w", err)
	}
	return data, nil
}

func (r *RedisSlot) Save(ctx context.Context, key string, payload []byte) error {
	if err := r.client.Set(ctx, slotKey(key), payload, 0).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}
	return nil
}

func (r *RedisSlot) Delete(ctx context.Context, key string) error {
	if err := r.client.Del(ctx, slotKey(key)).Err(); err != nil {
		return fmt.Errorf("redis delete failed: %w", err)
	}
	return nil
}

func slotKey(key string) string {
	return fmt.Sprintf("cart:%s", key)
}
