package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// LockTTL is the safety net against a crashed holder: Redis expires the key
// even if Release is never called.
const LockTTL = 30 * time.Second

// ErrLockBusy signals that another worker holds the user's lock. Callers
// treat it as transient contention and retry with backoff.
var ErrLockBusy = errors.New("user score lock is held by another worker")

// Token-checked delete: only the holder that acquired the lock may release
// it, so a slow worker can never free a lock re-acquired after TTL expiry.
var releaseScript = redis.NewScript(`
if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("del", KEYS[1])
end
return 0
`)

func lockKey(userID uint) string {
	return fmt.Sprintf("lock:user_score:%d", userID)
}

// UserLock is the per-user mutual-exclusion lock serializing counter updates.
type UserLock struct {
	rdb *redis.Client
}

func NewUserLock(rdb *redis.Client) *UserLock {
	return &UserLock{rdb: rdb}
}

// Acquire claims the user's lock atomically (SET NX with TTL) and returns
// the token Release requires. Returns ErrLockBusy when already held.
func (l *UserLock) Acquire(ctx context.Context, userID uint) (string, error) {
	token := uuid.NewString()
	ok, err := l.rdb.SetNX(ctx, lockKey(userID), token, LockTTL).Result()
	if err != nil {
		return "", fmt.Errorf("acquire lock for user %d: %w", userID, err)
	}
	if !ok {
		return "", ErrLockBusy
	}
	return token, nil
}

// Release frees the lock if token still owns it. Releasing an expired or
// stolen lock is a no-op, not an error.
func (l *UserLock) Release(ctx context.Context, userID uint, token string) error {
	if err := releaseScript.Run(ctx, l.rdb, []string{lockKey(userID)}, token).Err(); err != nil {
		return fmt.Errorf("release lock for user %d: %w", userID, err)
	}
	return nil
}
