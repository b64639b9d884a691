// Package security provides rate limiting and login lockout.
package security

import (
	"sync"
	"time"
)

// RateLimiter is a per-identifier token bucket. Identifiers are usually
// client IPs; the assignment endpoint keys on the admin's user id instead.
type RateLimiter struct {
	limiters map[string]*bucketState
	mu       sync.Mutex

	maxTokens  int
	refillRate time.Duration // time to earn back one token
	now        func() time.Time

	cleanupTicker *time.Ticker
	stopCleanup   chan struct{}
	stopOnce      sync.Once
}

type bucketState struct {
	tokens     int
	lastRefill time.Time
}

// NewRateLimiter allows bursts of maxTokens requests and refills one token
// every refillRate.
//
// Example:
//
//	// 5 submissions per minute per IP
//	limiter := NewRateLimiter(5, 12*time.Second)
func NewRateLimiter(maxTokens int, refillRate time.Duration) *RateLimiter {
	rl := &RateLimiter{
		limiters:      make(map[string]*bucketState),
		maxTokens:     maxTokens,
		refillRate:    refillRate,
		now:           time.Now,
		cleanupTicker: time.NewTicker(10 * time.Minute),
		stopCleanup:   make(chan struct{}),
	}
	go rl.cleanup()
	return rl
}

// refill tops up the bucket for the time elapsed since the last refill.
// Caller holds rl.mu.
func (rl *RateLimiter) refill(b *bucketState, now time.Time) {
	earned := int(now.Sub(b.lastRefill) / rl.refillRate)
	if earned <= 0 {
		return
	}
	b.tokens += earned
	if b.tokens > rl.maxTokens {
		b.tokens = rl.maxTokens
	}
	// Keep the fractional progress toward the next token.
	b.lastRefill = b.lastRefill.Add(time.Duration(earned) * rl.refillRate)
}

// Allow consumes a token for identifier and reports whether the request may proceed.
func (rl *RateLimiter) Allow(identifier string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	b, ok := rl.limiters[identifier]
	if !ok {
		b = &bucketState{tokens: rl.maxTokens, lastRefill: now}
		rl.limiters[identifier] = b
	}
	rl.refill(b, now)

	if b.tokens > 0 {
		b.tokens--
		return true
	}
	return false
}

// RetryAfter returns how long identifier must wait for its next token.
// Zero means a request would be allowed now.
func (rl *RateLimiter) RetryAfter(identifier string) time.Duration {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	b, ok := rl.limiters[identifier]
	if !ok {
		return 0
	}
	now := rl.now()
	rl.refill(b, now)
	if b.tokens > 0 {
		return 0
	}
	return b.lastRefill.Add(rl.refillRate).Sub(now)
}

// Reset forgets identifier's bucket.
func (rl *RateLimiter) Reset(identifier string) {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	delete(rl.limiters, identifier)
}

// cleanup drops buckets idle for more than an hour.
func (rl *RateLimiter) cleanup() {
	for {
		select {
		case <-rl.cleanupTicker.C:
			rl.mu.Lock()
			now := rl.now()
			for id, b := range rl.limiters {
				if now.Sub(b.lastRefill) > time.Hour {
					delete(rl.limiters, id)
				}
			}
			rl.mu.Unlock()
		case <-rl.stopCleanup:
			return
		}
	}
}

// Stop ends the cleanup goroutine. Safe to call more than once.
func (rl *RateLimiter) Stop() {
	rl.stopOnce.Do(func() {
		rl.cleanupTicker.Stop()
		close(rl.stopCleanup)
	})
}

// AccountLockout locks an admin account after repeated failed logins.
// Failures older than the window are forgotten.
type AccountLockout struct {
	lockouts map[string]*lockoutState
	mu       sync.Mutex

	threshold int
	duration  time.Duration
	window    time.Duration
	now       func() time.Time
}

type lockoutState struct {
	failedAttempts int
	lastAttempt    time.Time
	lockedUntil    time.Time
}

// NewAccountLockout locks an account for duration once threshold failures
// land within 30 minutes of each other.
func NewAccountLockout(threshold int, duration time.Duration) *AccountLockout {
	return &AccountLockout{
		lockouts:  make(map[string]*lockoutState),
		threshold: threshold,
		duration:  duration,
		window:    30 * time.Minute,
		now:       time.Now,
	}
}

// RecordFailedAttempt counts a failed login and reports whether it locked the account.
func (al *AccountLockout) RecordFailedAttempt(identifier string) bool {
	al.mu.Lock()
	defer al.mu.Unlock()

	now := al.now()
	state, ok := al.lockouts[identifier]
	if !ok || now.Sub(state.lastAttempt) > al.window {
		state = &lockoutState{}
		al.lockouts[identifier] = state
	}

	state.failedAttempts++
	state.lastAttempt = now

	if state.failedAttempts >= al.threshold {
		state.lockedUntil = now.Add(al.duration)
		return true
	}
	return false
}

// IsLocked reports whether identifier is currently locked out.
func (al *AccountLockout) IsLocked(identifier string) bool {
	return al.Remaining(identifier) > 0
}

// Remaining returns the time left on identifier's lockout, or zero.
func (al *AccountLockout) Remaining(identifier string) time.Duration {
	al.mu.Lock()
	defer al.mu.Unlock()

	state, ok := al.lockouts[identifier]
	if !ok || state.lockedUntil.IsZero() {
		return 0
	}

	remaining := state.lockedUntil.Sub(al.now())
	if remaining <= 0 {
		delete(al.lockouts, identifier)
		return 0
	}
	return remaining
}

// ResetAttempts clears identifier's failures. Call on successful login.
func (al *AccountLockout) ResetAttempts(identifier string) {
	al.mu.Lock()
	defer al.mu.Unlock()
	delete(al.lockouts, identifier)
}
