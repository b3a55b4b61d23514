package ports

import (
	"context"
	"time"
)

// UnlockFunc releases a lock taken by DistributedLocker.Lock.
type UnlockFunc func(ctx context.Context) error

// DistributedLocker serializes steps on one session across server replicas.
// The in-process mutex of session.Manager only covers a single process.
type DistributedLocker interface {
	// Lock blocks until the lock on key is held or ctx is done. The lock
	// expires after ttl even if never released, so a crashed holder cannot
	// wedge a session.
	Lock(ctx context.Context, key string, ttl time.Duration) (UnlockFunc, error)
}
