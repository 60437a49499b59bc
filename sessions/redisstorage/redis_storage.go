package redisstorage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jrsteele09/go-church-portal/sessions"
	"github.com/redis/go-redis/v9"
)

var _ sessions.Storage = (*RedisStorage)(nil)

// RedisStorage stores one client context's snapshots in Redis, so every replica of the
// server sees the same browser session.
type RedisStorage struct {
	client redis.Cmdable
	prefix string
	ttl    time.Duration
}

// New scopes keys to clientID. A zero ttl keeps keys until they are deleted.
func New(client redis.Cmdable, clientID string, ttl time.Duration) *RedisStorage {
	return &RedisStorage{
		client: client,
		prefix: "portal:" + clientID + ":",
		ttl:    ttl,
	}
}

// Connect opens a client and pings it.
func Connect(ctx context.Context, addr, password string) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       0,
	})

	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("[redisstorage] ping %s: %w", addr, err)
	}
	return client, nil
}

func (r *RedisStorage) Key(key string) string {
	return r.prefix + key
}

func (r *RedisStorage) Get(ctx context.Context, key string) (string, bool, error) {
	val, err := r.client.Get(ctx, r.Key(key)).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return val, true, nil
}

func (r *RedisStorage) Set(ctx context.Context, key, value string) error {
	return r.client.Set(ctx, r.Key(key), value, r.ttl).Err()
}

func (r *RedisStorage) Delete(ctx context.Context, key string) error {
	return r.client.Del(ctx, r.Key(key)).Err()
}
