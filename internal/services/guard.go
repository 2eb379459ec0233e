package services

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"ticket-marketplace/internal/status"
)

// Guard serializes workflow invocations per (user, action, resource).
// A held guard rejects overlapping invocations of the same flow, e.g. a
// double-submitted buy.
type Guard interface {
	Acquire(ctx context.Context, userID, action, resource string) error
	Release(ctx context.Context, userID, action, resource string) error
}

// RedisGuard implements Guard with a short-lived SETNX lock. The TTL
// bounds how long a crashed flow can block retries.
type RedisGuard struct {
	Redis *redis.Client
	TTL   time.Duration
}

func NewRedisGuard(redisClient *redis.Client, ttl time.Duration) *RedisGuard {
	return &RedisGuard{
		Redis: redisClient,
		TTL:   ttl,
	}
}

func (g *RedisGuard) Acquire(ctx context.Context, userID, action, resource string) error {
	ok, err := g.Redis.SetNX(ctx, guardKey(userID, action, resource), time.Now().Unix(), g.TTL).Result()
	if err != nil {
		return err
	}
	if !ok {
		return status.ErrOperationInFlight
	}
	return nil
}

func (g *RedisGuard) Release(ctx context.Context, userID, action, resource string) error {
	return g.Redis.Del(ctx, guardKey(userID, action, resource)).Err()
}

func guardKey(userID, action, resource string) string {
	return fmt.Sprintf("inflight:%s:%s:%s", action, userID, resource)
}
