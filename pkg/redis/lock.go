package redis

import (
	"context"
	"time"

	"swap-route.backend/pkg/crypto"
)

// releaseScript deletes the lock only when the stored token matches. The
// check and the delete must be one atomic step: a GET-then-DEL pair would let
// a stale holder delete a lock that expired and was reacquired in between.
const releaseScript = `if redis.call("get", KEYS[1]) == ARGV[1] then return redis.call("del", KEYS[1]) else return 0 end`

const lockPrefix = "lock:"

// LockManager provides per-key mutual exclusion across service instances,
// backed by Redis SET NX with a TTL. The TTL bounds the blast radius of a
// crashed holder: its lock self-expires and another instance resumes.
type LockManager struct{}

// NewLockManager creates a new lock manager
func NewLockManager() *LockManager {
	return &LockManager{}
}

// Acquire attempts to take the lock for key. It returns the holder token on
// success and "" when the lock is already held by someone else.
func (m *LockManager) Acquire(ctx context.Context, key string, ttl time.Duration) (string, error) {
	token, err := crypto.GenerateRandomToken(16)
	if err != nil {
		return "", err
	}

	ok, err := SetNX(ctx, lockPrefix+key, token, ttl)
	if err != nil {
		return "", err
	}
	if !ok {
		return "", nil
	}
	return token, nil
}

// Release releases the lock for key if token still owns it. It reports
// whether the release took effect.
func (m *LockManager) Release(ctx context.Context, key, token string) (bool, error) {
	res, err := Eval(ctx, releaseScript, []string{lockPrefix + key}, token)
	if err != nil {
		return false, err
	}
	n, ok := res.(int64)
	return ok && n == 1, nil
}

// WithLock runs fn while holding the lock for key, releasing it on the way
// out. It returns (false, nil) without running fn when the lock is held
// elsewhere.
func (m *LockManager) WithLock(ctx context.Context, key string, ttl time.Duration, fn func(ctx context.Context) error) (bool, error) {
	token, err := m.Acquire(ctx, key, ttl)
	if err != nil {
		return false, err
	}
	if token == "" {
		return false, nil
	}

	defer func() {
		// Best effort: an expired lock is released by the TTL anyway.
		releaseCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		defer cancel()
		m.Release(releaseCtx, key, token)
	}()

	return true, fn(ctx)
}
