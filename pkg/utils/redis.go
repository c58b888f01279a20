package utils

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisConfig controls redis client behavior.
// Keep it config-driven; defaults should be safe and conservative.
type RedisConfig struct {
	Addr string

	// Basic timeouts
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration

	// Pool tuning
	PoolSize           int
	MinIdleConns       int
	PoolTimeout        time.Duration
	ConnMaxIdleTime    time.Duration
	ConnMaxLifetime    time.Duration

	PingTimeout time.Duration
}

func (c RedisConfig) withDefaults() RedisConfig {
	out := c
	if out.DialTimeout <= 0 {
		out.DialTimeout = 3 * time.Second
	}
	if out.ReadTimeout <= 0 {
		out.ReadTimeout = 2 * time.Second
	}
	if out.WriteTimeout <= 0 {
		out.WriteTimeout = 2 * time.Second
	}
	if out.PoolSize <= 0 {
		out.PoolSize = 20
	}
	if out.MinIdleConns < 0 {
		out.MinIdleConns = 0
	}
	if out.PoolTimeout <= 0 {
		out.PoolTimeout = 4 * time.Second
	}
	if out.ConnMaxIdleTime <= 0 {
		out.ConnMaxIdleTime = 5 * time.Minute
	}
	if out.ConnMaxLifetime <= 0 {
		out.ConnMaxLifetime = 30 * time.Minute
	}
	if out.PingTimeout <= 0 {
		out.PingTimeout = 2 * time.Second
	}
	return out
}

// OpenRedis initializes a Redis client and validates connectivity via PING.
func OpenRedis(ctx context.Context, cfg RedisConfig) (*redis.Client, error) {
	cfg = cfg.withDefaults()
	if cfg.Addr == "" {
		return nil, fmt.Errorf("redis addr is required")
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:            cfg.Addr,
		DialTimeout:     cfg.DialTimeout,
		ReadTimeout:     cfg.ReadTimeout,
		WriteTimeout:    cfg.WriteTimeout,
		PoolSize:        cfg.PoolSize,
		MinIdleConns:    cfg.MinIdleConns,
		PoolTimeout:     cfg.PoolTimeout,
		ConnMaxIdleTime: cfg.ConnMaxIdleTime,
		ConnMaxLifetime: cfg.ConnMaxLifetime,
	})

	pingCtx, cancel := context.WithTimeout(ctx, cfg.PingTimeout)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}
	return rdb, nil
}

var callSlotAcquireScript = redis.NewScript(`
-- KEYS[1] = active-call counter key
-- ARGV[1] = limit (int)
-- ARGV[2] = ttl_ms (int)
--
-- Returns 1 if a slot was claimed, 0 if the limit is already reached.
local n = redis.call('INCR', KEYS[1])
if n > tonumber(ARGV[1]) then
  redis.call('DECR', KEYS[1])
  return 0
end
-- Refresh the TTL on every acquire so a busy counter cannot expire out
-- from under its active calls, and so a counter left without a TTL by an
-- older deployment picks one up.
redis.call('PEXPIRE', KEYS[1], ARGV[2])
return 1
`)

var callSlotBoundReleaseScript = redis.NewScript(`
-- KEYS[1] = per-call binding key; its value is the counter key it holds
--           a slot against.
--
-- Consuming the binding and decrementing the counter happen in one script
-- so a redelivered status callback finds no binding and changes nothing.
--
-- Returns 1 if a slot was released, 0 if the binding was already gone.
local counter = redis.call('GET', KEYS[1])
if not counter then
  return 0
end
redis.call('DEL', KEYS[1])
local n = redis.call('DECR', counter)
if n <= 0 then
  redis.call('DEL', counter)
end
return 1
`)

var callSlotForfeitScript = redis.NewScript(`
-- KEYS[1] = active-call counter key
local n = redis.call('DECR', KEYS[1])
if n <= 0 then
  redis.call('DEL', KEYS[1])
end
return 1
`)

// AcquireCallSlot attempts to claim one active-call slot under counterKey.
//
// Safety properties:
// - Atomic acquire using Lua.
// - TTL prevents leaked slots when the releasing callback never arrives.
func AcquireCallSlot(ctx context.Context, rdb *redis.Client, counterKey string, limit int, ttl time.Duration) (bool, error) {
	if rdb == nil {
		return false, fmt.Errorf("redis client is nil")
	}
	if counterKey == "" {
		return false, fmt.Errorf("counter key is required")
	}
	if limit <= 0 {
		return false, fmt.Errorf("limit must be > 0")
	}
	if ttl <= 0 {
		return false, fmt.Errorf("ttl must be > 0")
	}

	res, err := callSlotAcquireScript.Run(ctx, rdb, []string{counterKey}, limit, ttl.Milliseconds()).Int()
	if err != nil {
		return false, err
	}
	return res == 1, nil
}

// BindCallSlot ties an already-claimed slot to a specific call so the slot
// can only be released once, no matter how often the terminal callback is
// redelivered. The binding carries the same TTL as the counter.
func BindCallSlot(ctx context.Context, rdb *redis.Client, bindingKey, counterKey string, ttl time.Duration) error {
	if rdb == nil {
		return fmt.Errorf("redis client is nil")
	}
	if bindingKey == "" || counterKey == "" {
		return fmt.Errorf("binding and counter keys are required")
	}
	return rdb.Set(ctx, bindingKey, counterKey, ttl).Err()
}

// ReleaseBoundSlot consumes the per-call binding and frees its slot. It
// reports false when the binding does not exist, which makes duplicate
// releases harmless.
func ReleaseBoundSlot(ctx context.Context, rdb *redis.Client, bindingKey string) (bool, error) {
	if rdb == nil {
		return false, fmt.Errorf("redis client is nil")
	}
	if bindingKey == "" {
		return false, fmt.Errorf("binding key is required")
	}
	res, err := callSlotBoundReleaseScript.Run(ctx, rdb, []string{bindingKey}).Int()
	if err != nil {
		return false, err
	}
	return res == 1, nil
}

// ForfeitCallSlot returns a claimed slot that never got bound to a call.
// Callers must only invoke it for a slot they actually acquired.
func ForfeitCallSlot(ctx context.Context, rdb *redis.Client, counterKey string) error {
	if rdb == nil {
		return fmt.Errorf("redis client is nil")
	}
	if counterKey == "" {
		return fmt.Errorf("counter key is required")
	}
	_, err := callSlotForfeitScript.Run(ctx, rdb, []string{counterKey}).Result()
	return err
}
