package gateway

import (
	"sync"
	"time"
)

// RateLimiter implements per-user rate limiting with token buckets. Buckets
// refill continuously at the configured per-minute rate up to the burst size.
type RateLimiter struct {
	buckets    map[string]*tokenBucket
	bucketsMux sync.RWMutex
	burstSize  int
	refillRate float64 // tokens per second
}

// tokenBucket represents a token bucket for one user
type tokenBucket struct {
	tokens     float64
	lastRefill time.Time
	mutex      sync.Mutex
}

// NewRateLimiter creates a new rate limiter
func NewRateLimiter(requestsPerMin, burstSize int) *RateLimiter {
	if burstSize <= 0 {
		burstSize = requestsPerMin
	}

	return &RateLimiter{
		buckets:    make(map[string]*tokenBucket),
		burstSize:  burstSize,
		refillRate: float64(requestsPerMin) / 60.0,
	}
}

// Allow checks if a request is allowed for the given user
func (rl *RateLimiter) Allow(userID string) (bool, error) {
	bucket := rl.getBucket(userID)

	bucket.mutex.Lock()
	defer bucket.mutex.Unlock()

	rl.refill(bucket)

	if bucket.tokens >= 1 {
		bucket.tokens--
		return true, nil
	}

	return false, nil
}

// Reset refills the bucket for a user
func (rl *RateLimiter) Reset(userID string) error {
	rl.bucketsMux.Lock()
	defer rl.bucketsMux.Unlock()

	if bucket, exists := rl.buckets[userID]; exists {
		bucket.mutex.Lock()
		bucket.tokens = float64(rl.burstSize)
		bucket.lastRefill = time.Now()
		bucket.mutex.Unlock()
	}

	return nil
}

// GetLimits returns the remaining tokens and burst size for a user
func (rl *RateLimiter) GetLimits(userID string) (int, int, error) {
	bucket := rl.getBucket(userID)

	bucket.mutex.Lock()
	defer bucket.mutex.Unlock()

	rl.refill(bucket)
	return int(bucket.tokens), rl.burstSize, nil
}

// refill adds tokens based on elapsed time. Caller holds the bucket mutex.
func (rl *RateLimiter) refill(bucket *tokenBucket) {
	now := time.Now()
	elapsed := now.Sub(bucket.lastRefill).Seconds()

	if elapsed <= 0 {
		return
	}

	bucket.tokens += elapsed * rl.refillRate
	if bucket.tokens > float64(rl.burstSize) {
		bucket.tokens = float64(rl.burstSize)
	}
	bucket.lastRefill = now
}

// getBucket gets or creates a token bucket for a user
func (rl *RateLimiter) getBucket(userID string) *tokenBucket {
	rl.bucketsMux.RLock()
	bucket, exists := rl.buckets[userID]
	rl.bucketsMux.RUnlock()

	if exists {
		return bucket
	}

	rl.bucketsMux.Lock()
	defer rl.bucketsMux.Unlock()

	// Double-check after acquiring write lock
	if bucket, exists := rl.buckets[userID]; exists {
		return bucket
	}

	bucket = &tokenBucket{
		tokens:     float64(rl.burstSize),
		lastRefill: time.Now(),
	}
	rl.buckets[userID] = bucket

	return bucket
}

// cleanup removes buckets idle for more than 24 hours
func (rl *RateLimiter) cleanup() {
	rl.bucketsMux.Lock()
	defer rl.bucketsMux.Unlock()

	cutoff := time.Now().Add(-24 * time.Hour)

	for userID, bucket := range rl.buckets {
		bucket.mutex.Lock()
		if bucket.lastRefill.Before(cutoff) {
			delete(rl.buckets, userID)
		}
		bucket.mutex.Unlock()
	}
}

// StartCleanup starts periodic cleanup of idle buckets
func (rl *RateLimiter) StartCleanup(interval time.Duration) {
	ticker := time.NewTicker(interval)
	go func() {
		for range ticker.C {
			rl.cleanup()
		}
	}()
}
