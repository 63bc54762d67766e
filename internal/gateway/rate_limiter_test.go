package gateway

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRateLimiter_BurstThenDeny(t *testing.T) {
	rl := NewRateLimiter(60, 3)

	for i := 0; i < 3; i++ {
		allowed, err := rl.Allow("user-1")
		assert.NoError(t, err)
		assert.True(t, allowed, "request %d should be allowed", i+1)
	}

	allowed, err := rl.Allow("user-1")
	assert.NoError(t, err)
	assert.False(t, allowed, "burst exhausted, request should be denied")
}

func TestRateLimiter_UsersAreIndependent(t *testing.T) {
	rl := NewRateLimiter(60, 1)

	allowed, _ := rl.Allow("user-1")
	assert.True(t, allowed)
	allowed, _ = rl.Allow("user-1")
	assert.False(t, allowed)

	allowed, _ = rl.Allow("user-2")
	assert.True(t, allowed)
}

func TestRateLimiter_Reset(t *testing.T) {
	rl := NewRateLimiter(60, 2)

	rl.Allow("user-1")
	rl.Allow("user-1")
	allowed, _ := rl.Allow("user-1")
	assert.False(t, allowed)

	assert.NoError(t, rl.Reset("user-1"))

	allowed, _ = rl.Allow("user-1")
	assert.True(t, allowed)
}

func TestRateLimiter_RefillOverTime(t *testing.T) {
	rl := NewRateLimiter(60, 2)

	rl.Allow("user-1")
	rl.Allow("user-1")
	allowed, _ := rl.Allow("user-1")
	assert.False(t, allowed)

	// Rewind the refill clock by two seconds; at 60/min that adds two tokens
	bucket := rl.getBucket("user-1")
	bucket.mutex.Lock()
	bucket.lastRefill = bucket.lastRefill.Add(-2 * time.Second)
	bucket.mutex.Unlock()

	allowed, _ = rl.Allow("user-1")
	assert.True(t, allowed)
}

func TestRateLimiter_GetLimits(t *testing.T) {
	rl := NewRateLimiter(60, 5)

	remaining, limit, err := rl.GetLimits("user-1")
	assert.NoError(t, err)
	assert.Equal(t, 5, remaining)
	assert.Equal(t, 5, limit)

	rl.Allow("user-1")
	remaining, _, _ = rl.GetLimits("user-1")
	assert.LessOrEqual(t, remaining, 4)
}

func TestRateLimiter_DefaultBurst(t *testing.T) {
	rl := NewRateLimiter(10, 0)

	_, limit, err := rl.GetLimits("user-1")
	assert.NoError(t, err)
	assert.Equal(t, 10, limit)
}
