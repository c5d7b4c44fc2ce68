// Package lease provides short-lived exclusive leases so only one replica runs the
// distribution sweep at a time.
package lease

import (
	"context"
	"errors"
	"sync"
	"time"
)

// ErrHeld is returned by Acquire when another owner holds the lease.
var ErrHeld = errors.New("lease is held by another owner")

// Release gives a lease back before its TTL runs out.
type Release func(ctx context.Context) error

// Locker hands out exclusive, expiring leases by key.
type Locker interface {
	Acquire(ctx context.Context, key string, ttl time.Duration) (Release, error)
}

// LocalLocker is an in-process Locker for single-replica deployments and tests.
type LocalLocker struct {
	mu      sync.Mutex
	expires map[string]time.Time
	seq     map[string]uint64
	now     func() time.Time
}

// NewLocalLocker creates an empty LocalLocker.
func NewLocalLocker() *LocalLocker {
	return &LocalLocker{
		expires: make(map[string]time.Time),
		seq:     make(map[string]uint64),
		now:     time.Now,
	}
}

func (l *LocalLocker) Acquire(_ context.Context, key string, ttl time.Duration) (Release, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	if exp, ok := l.expires[key]; ok && now.Before(exp) {
		return nil, ErrHeld
	}

	l.seq[key]++
	owner := l.seq[key]
	l.expires[key] = now.Add(ttl)

	return func(context.Context) error {
		l.mu.Lock()
		defer l.mu.Unlock()
		// An expired lease may have been taken over; only the owner may release it.
		if l.seq[key] == owner {
			delete(l.expires, key)
		}
		return nil
	}, nil
}
