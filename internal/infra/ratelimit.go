package infra

import (
	"context"
	"sync"
	"time"
)

// RateLimiter provides simple token-bucket rate limiting.
// A nil *RateLimiter never blocks.
type RateLimiter struct {
	mu         sync.Mutex
	tokens     int
	maxTokens  int
	refillRate time.Duration
	lastRefill time.Time
}

// NewRateLimiter creates a rate limiter that allows maxTokens requests
// per refillRate duration.
func NewRateLimiter(maxTokens int, refillRate time.Duration) *RateLimiter {
	return &RateLimiter{
		tokens:     maxTokens,
		maxTokens:  maxTokens,
		refillRate: refillRate,
		lastRefill: time.Now(),
	}
}

// PerSecond returns a limiter admitting rps requests per second, refilled one
// token at a time. rps <= 0 returns nil (unlimited).
func PerSecond(rps float64) *RateLimiter {
	if rps <= 0 {
		return nil
	}
	burst := int(rps)
	if burst < 1 {
		burst = 1
	}
	return NewRateLimiter(burst, time.Duration(float64(time.Second)/rps))
}

// Wait blocks until a token is available or ctx is done.
func (rl *RateLimiter) Wait(ctx context.Context) error {
	if rl == nil {
		return ctx.Err()
	}
	for {
		rl.mu.Lock()
		rl.refill()
		if rl.tokens > 0 {
			rl.tokens--
			rl.mu.Unlock()
			return nil
		}
		wait := rl.refillRate - time.Since(rl.lastRefill)
		rl.mu.Unlock()

		if wait <= 0 {
			continue
		}
		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}

// refill adds tokens based on elapsed time. Must be called with mu held.
func (rl *RateLimiter) refill() {
	elapsed := time.Since(rl.lastRefill)
	if elapsed < rl.refillRate {
		return
	}
	periods := int(elapsed / rl.refillRate)
	rl.tokens += periods
	if rl.tokens > rl.maxTokens {
		rl.tokens = rl.maxTokens
	}
	rl.lastRefill = rl.lastRefill.Add(time.Duration(periods) * rl.refillRate)
}
