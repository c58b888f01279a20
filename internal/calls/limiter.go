package calls

import (
	"context"
	"errors"
	"time"

	"voicebridge/pkg/utils"

	"github.com/redis/go-redis/v9"
)

// Limiter caps the number of concurrently active outbound calls per agent.
//
// A slot is acquired before the call is placed, bound to the call SID once
// the provider accepts it, and released when a terminal status callback
// arrives. Release goes through the per-call binding so redelivered
// callbacks cannot free a slot twice. The TTL guards against leaked slots
// when a callback never shows up (process crash, misconfigured callback
// URL).
type Limiter struct {
	rdb   *redis.Client
	limit int
	ttl   time.Duration
}

func NewLimiter(rdb *redis.Client, limit int, ttl time.Duration) (*Limiter, error) {
	if rdb == nil {
		return nil, errors.New("calls: redis client is required")
	}
	if limit <= 0 {
		return nil, errors.New("calls: limit must be > 0")
	}
	if ttl <= 0 {
		return nil, errors.New("calls: slot ttl must be > 0")
	}
	return &Limiter{rdb: rdb, limit: limit, ttl: ttl}, nil
}

// Acquire claims a slot for the agent. It returns false when the agent is
// already at its concurrent-call limit.
func (l *Limiter) Acquire(ctx context.Context, agentID string) (bool, error) {
	return utils.AcquireCallSlot(ctx, l.rdb, slotKey(agentID), l.limit, l.ttl)
}

// Bind ties an acquired slot to the call SID the provider returned. Until a
// slot is bound it can only be freed by Forfeit or by the TTL.
func (l *Limiter) Bind(ctx context.Context, agentID, callSID string) error {
	if callSID == "" {
		return errors.New("calls: call sid is required")
	}
	return utils.BindCallSlot(ctx, l.rdb, bindingKey(callSID), slotKey(agentID), l.ttl)
}

// ReleaseCall frees the slot bound to callSID. It reports false when no
// binding exists, so duplicate terminal callbacks are no-ops.
func (l *Limiter) ReleaseCall(ctx context.Context, callSID string) (bool, error) {
	if callSID == "" {
		return false, errors.New("calls: call sid is required")
	}
	return utils.ReleaseBoundSlot(ctx, l.rdb, bindingKey(callSID))
}

// Forfeit returns a claimed slot that never got bound to a call, such as
// when the provider rejects the call placement.
func (l *Limiter) Forfeit(ctx context.Context, agentID string) error {
	return utils.ForfeitCallSlot(ctx, l.rdb, slotKey(agentID))
}

func slotKey(agentID string) string {
	return "calls:active:" + agentID
}

func bindingKey(callSID string) string {
	return "calls:slot:" + callSID
}
