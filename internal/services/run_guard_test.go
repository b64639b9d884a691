package services_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/avissapr/roster/internal/services"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeLockClient emulates the two Redis operations RunGuard relies on:
// SET NX and the compare-and-delete release script.
type fakeLockClient struct {
	mu     sync.Mutex
	values map[string]string
	err    error
}

func newFakeLockClient() *fakeLockClient {
	return &fakeLockClient{values: make(map[string]string)}
}

func (f *fakeLockClient) SetNX(ctx context.Context, key string, value interface{}, _ time.Duration) *redis.BoolCmd {
	cmd := redis.NewBoolCmd(ctx)
	if f.err != nil {
		cmd.SetErr(f.err)
		return cmd
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, held := f.values[key]; held {
		cmd.SetVal(false)
		return cmd
	}
	f.values[key] = value.(string)
	cmd.SetVal(true)
	return cmd
}

func (f *fakeLockClient) compareAndDelete(ctx context.Context, keys []string, args []interface{}) *redis.Cmd {
	cmd := redis.NewCmd(ctx)
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.values[keys[0]] == args[0] {
		delete(f.values, keys[0])
		cmd.SetVal(int64(1))
		return cmd
	}
	cmd.SetVal(int64(0))
	return cmd
}

func (f *fakeLockClient) Eval(ctx context.Context, _ string, keys []string, args ...interface{}) *redis.Cmd {
	return f.compareAndDelete(ctx, keys, args)
}

func (f *fakeLockClient) EvalSha(ctx context.Context, _ string, keys []string, args ...interface{}) *redis.Cmd {
	return f.compareAndDelete(ctx, keys, args)
}

func (f *fakeLockClient) EvalRO(ctx context.Context, _ string, keys []string, args ...interface{}) *redis.Cmd {
	return f.compareAndDelete(ctx, keys, args)
}

func (f *fakeLockClient) EvalShaRO(ctx context.Context, _ string, keys []string, args ...interface{}) *redis.Cmd {
	return f.compareAndDelete(ctx, keys, args)
}

func (f *fakeLockClient) ScriptExists(ctx context.Context, hashes ...string) *redis.BoolSliceCmd {
	cmd := redis.NewBoolSliceCmd(ctx)
	cmd.SetVal(make([]bool, len(hashes)))
	return cmd
}

func (f *fakeLockClient) ScriptLoad(ctx context.Context, _ string) *redis.StringCmd {
	cmd := redis.NewStringCmd(ctx)
	cmd.SetVal("sha")
	return cmd
}

func (f *fakeLockClient) holder() (string, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	v, ok := f.values[services.RunLockKey]
	return v, ok
}

func TestRunGuard_Local(t *testing.T) {
	guard := services.NewLocalRunGuard()

	release, err := guard.Acquire(context.Background())
	require.NoError(t, err)

	_, err = guard.Acquire(context.Background())
	assert.ErrorIs(t, err, services.ErrRunInProgress)

	release()

	release, err = guard.Acquire(context.Background())
	require.NoError(t, err, "lock is reusable after release")
	release()
}

func TestRunGuard_Distributed(t *testing.T) {
	client := newFakeLockClient()
	first := services.NewRunGuard(client, time.Minute)
	second := services.NewRunGuard(client, time.Minute)

	release, err := first.Acquire(context.Background())
	require.NoError(t, err)
	_, held := client.holder()
	assert.True(t, held)

	_, err = second.Acquire(context.Background())
	assert.ErrorIs(t, err, services.ErrRunInProgress, "another instance holds the lock")

	release()
	_, held = client.holder()
	assert.False(t, held)

	release, err = second.Acquire(context.Background())
	require.NoError(t, err)
	release()
}

// TestRunGuard_ReleaseKeepsForeignLock verifies a holder whose lock expired
// and was taken over does not delete the new holder's lock.
func TestRunGuard_ReleaseKeepsForeignLock(t *testing.T) {
	client := newFakeLockClient()
	guard := services.NewRunGuard(client, time.Minute)

	release, err := guard.Acquire(context.Background())
	require.NoError(t, err)

	client.mu.Lock()
	client.values[services.RunLockKey] = "someone-else"
	client.mu.Unlock()

	release()

	holder, held := client.holder()
	assert.True(t, held)
	assert.Equal(t, "someone-else", holder)
}

func TestRunGuard_RedisError(t *testing.T) {
	client := newFakeLockClient()
	client.err = errors.New("connection refused")
	guard := services.NewRunGuard(client, time.Minute)

	_, err := guard.Acquire(context.Background())
	require.Error(t, err)
	assert.NotErrorIs(t, err, services.ErrRunInProgress)

	client.err = nil
	release, err := guard.Acquire(context.Background())
	require.NoError(t, err, "local mutex was released after the failure")
	release()
}
