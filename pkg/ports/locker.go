package ports

import (
	"context"
	"time"
)

// UnlockFunc releases a lock taken by a DistributedLocker.
type UnlockFunc func(ctx context.Context) error

// DistributedLocker serializes runs of one session across processes, so two
// replicas never both satisfy the same just_once block or hand out the same
// record ids.
type DistributedLocker interface {
	// Lock blocks until the lock for key (a session ID) is held or ctx ends.
	// The lock expires after ttl if the holder dies; callers must invoke the
	// returned UnlockFunc when the run is persisted.
	Lock(ctx context.Context, key string, ttl time.Duration) (UnlockFunc, error)
}
