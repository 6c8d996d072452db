package cache

import (
	"context"
	"errors"
	"time"

	"github.com/bsm/redislock"
)

// ErrLockBusy means another request held the lock for the whole wait.
var ErrLockBusy = errors.New("lock is held by another request")

const lockRetryInterval = 50 * time.Millisecond

// Locker hands out short-lived distributed locks backed by Redis.
type Locker struct {
	locker *redislock.Client
	ttl    time.Duration
}

// NewLocker returns nil when the client has no Redis connection.
func NewLocker(c *Client, ttl time.Duration) *Locker {
	if !c.Enabled() {
		return nil
	}
	if ttl <= 0 {
		ttl = 5 * time.Second
	}
	return &Locker{locker: redislock.New(c.rdb), ttl: ttl}
}

// Lock obtains key, retrying for up to the lock TTL. The returned func
// releases the lock; it is safe to call once.
func (l *Locker) Lock(ctx context.Context, key string) (func(), error) {
	retries := int(l.ttl / lockRetryInterval)
	lock, err := l.locker.Obtain(ctx, "lock:"+key, l.ttl, &redislock.Options{
		RetryStrategy: redislock.LimitRetry(redislock.LinearBackoff(lockRetryInterval), retries),
	})
	if errors.Is(err, redislock.ErrNotObtained) {
		return nil, ErrLockBusy
	}
	if err != nil {
		return nil, err
	}

	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = lock.Release(ctx)
	}, nil
}
