package backend

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Redis is the distributed backend. Atomicity across processes comes from the
// store itself (INCRBY, SET with expiry); no application-level locking.
type Redis struct {
	client redis.Cmdable
}

// NewRedis wraps an existing client. The caller owns the client's lifecycle.
func NewRedis(client redis.Cmdable) *Redis {
	return &Redis{client: client}
}

// Dial connects to a Redis-compatible store and verifies reachability.
func Dial(ctx context.Context, addr, password string, db int, dialTimeout time.Duration) (*Redis, error) {
	client := redis.NewClient(&redis.Options{
		Addr:        addr,
		Password:    password,
		DB:          db,
		DialTimeout: dialTimeout,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping %s: %w", addr, errors.Join(ErrUnavailable, err))
	}
	return &Redis{client: client}, nil
}

// Ping verifies the store is still reachable. Used by health probes.
func (r *Redis) Ping(ctx context.Context) error {
	if err := r.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("ping: %w", errors.Join(ErrUnavailable, err))
	}
	return nil
}

// Incr implements Backend. The expiry is set only when the increment created
// the key (NX), so a window's TTL is never refreshed by later hits.
func (r *Redis) Incr(ctx context.Context, key string, amount int64, ttl time.Duration) (int64, error) {
	pipe := r.client.TxPipeline()
	incr := pipe.IncrBy(ctx, key, amount)
	if ttl > 0 {
		pipe.ExpireNX(ctx, key, ttl)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, unavailable("incr", key, err)
	}
	return incr.Val(), nil
}

// Get implements Backend. redis.Nil is a miss, not an error.
func (r *Redis) Get(ctx context.Context, key string) (string, bool, error) {
	value, err := r.client.Get(ctx, key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", false, nil
		}
		return "", false, unavailable("get", key, err)
	}
	return value, true, nil
}

// Set implements Backend.
func (r *Redis) Set(ctx context.Context, key string, value string, ttl time.Duration) error {
	if err := r.client.Set(ctx, key, value, ttl).Err(); err != nil {
		return unavailable("set", key, err)
	}
	return nil
}

// Del implements Backend.
func (r *Redis) Del(ctx context.Context, key string) error {
	if err := r.client.Del(ctx, key).Err(); err != nil {
		return unavailable("del", key, err)
	}
	return nil
}

func unavailable(op, key string, err error) error {
	return fmt.Errorf("redis %s %s: %w", op, key, errors.Join(ErrUnavailable, err))
}
