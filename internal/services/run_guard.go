package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// ErrRunInProgress is returned when an assignment run is already executing.
var ErrRunInProgress = errors.New("an assignment run is already in progress")

// RunLockKey is the Redis key holding the distributed run lock.
const RunLockKey = "roster:lock:assignment-run"

// releaseScript deletes the lock only if it still holds our token, so an
// expired lock re-acquired by another instance is never released by us.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
  return redis.call("DEL", KEYS[1])
end
return 0
`)

// LockClient is the subset of a Redis client RunGuard uses.
type LockClient interface {
	redis.Scripter
	SetNX(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.BoolCmd
}

// RunGuard admits at most one assignment run at a time. Within a process
// this is a mutex; with a LockClient it also holds a Redis lock so that
// several server instances and the CLI exclude each other.
type RunGuard struct {
	mu     sync.Mutex
	client LockClient
	ttl    time.Duration
}

// NewLocalRunGuard guards runs within this process only.
func NewLocalRunGuard() *RunGuard {
	return &RunGuard{}
}

// NewRunGuard guards runs across processes through client. ttl bounds how
// long a crashed holder can block other runs.
func NewRunGuard(client LockClient, ttl time.Duration) *RunGuard {
	return &RunGuard{client: client, ttl: ttl}
}

// Acquire takes the run lock or returns ErrRunInProgress without waiting.
// The returned release func must be called exactly once.
func (g *RunGuard) Acquire(ctx context.Context) (func(), error) {
	if !g.mu.TryLock() {
		return nil, ErrRunInProgress
	}

	if g.client == nil {
		return g.mu.Unlock, nil
	}

	token := uuid.NewString()
	ok, err := g.client.SetNX(ctx, RunLockKey, token, g.ttl).Result()
	if err != nil {
		g.mu.Unlock()
		return nil, fmt.Errorf("failed to acquire run lock: %w", err)
	}
	if !ok {
		g.mu.Unlock()
		return nil, ErrRunInProgress
	}

	release := func() {
		// The request context may already be cancelled by now.
		rctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = releaseScript.Run(rctx, g.client, []string{RunLockKey}, token).Err()
		g.mu.Unlock()
	}
	return release, nil
}
