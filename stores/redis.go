package stores

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisStore keeps wizard state in Redis under prefix+key. A non-zero ttl is
// refreshed on every write so abandoned wizards expire on their own.
type RedisStore struct {
	client  *redis.Client
	prefix  string
	ttl     time.Duration
	timeout time.Duration
}

func NewRedisStore(client *redis.Client, prefix string, ttl time.Duration) *RedisStore {
	return &RedisStore{
		client:  client,
		prefix:  prefix,
		ttl:     ttl,
		timeout: 3 * time.Second,
	}
}

// NewRedisStoreFromAddr dials addr with default options.
func NewRedisStoreFromAddr(addr, prefix string, ttl time.Duration) *RedisStore {
	rdb := redis.NewClient(&redis.Options{
		Addr: addr,
	})
	return NewRedisStore(rdb, prefix, ttl)
}

func (r *RedisStore) ctx() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), r.timeout)
}

func (r *RedisStore) GetItem(key string) (string, bool, error) {
	ctx, cancel := r.ctx()
	defer cancel()

	val, err := r.client.Get(ctx, r.prefix+key).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("redis get %s: %w", key, err)
	}
	return val, true, nil
}

func (r *RedisStore) SetItem(key, value string) error {
	ctx, cancel := r.ctx()
	defer cancel()

	if err := r.client.Set(ctx, r.prefix+key, value, r.ttl).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	return nil
}

func (r *RedisStore) RemoveItem(key string) error {
	ctx, cancel := r.ctx()
	defer cancel()

	if err := r.client.Del(ctx, r.prefix+key).Err(); err != nil {
		return fmt.Errorf("redis del %s: %w", key, err)
	}
	return nil
}

// Ping checks connectivity, used at startup.
func (r *RedisStore) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

func (r *RedisStore) Close() error {
	return r.client.Close()
}
