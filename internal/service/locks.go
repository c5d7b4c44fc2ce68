package service

import (
	"sync"
)

// EntityLocks serialises ledger operations that touch the same account, property or
// investment within this process. Locks are always taken in the order account ->
// property -> investment, so two operations can never wait on each other in a cycle.
type EntityLocks struct {
	mapMutex sync.Mutex // protects locks
	locks    map[string]*entityLock
}

type entityLock struct {
	mu   sync.Mutex
	refs int
}

// NewEntityLocks creates an empty lock table.
func NewEntityLocks() *EntityLocks {
	return &EntityLocks{
		locks: make(map[string]*entityLock),
	}
}

// LockScope names the entities an operation will write. Empty IDs are ignored.
type LockScope struct {
	AccountID    string
	PropertyID   string
	InvestmentID string
}

func (s LockScope) keys() []string {
	keys := make([]string, 0, 3)
	if s.AccountID != "" {
		keys = append(keys, "account:"+s.AccountID)
	}
	if s.PropertyID != "" {
		keys = append(keys, "property:"+s.PropertyID)
	}
	if s.InvestmentID != "" {
		keys = append(keys, "investment:"+s.InvestmentID)
	}
	return keys
}

// Lock blocks until every entity in scope is held and returns the function that
// releases them. Locks must be taken before the database transaction begins.
func (l *EntityLocks) Lock(scope LockScope) (unlock func()) {
	keys := scope.keys()
	held := make([]*entityLock, 0, len(keys))

	for _, key := range keys {
		l.mapMutex.Lock()
		el := l.locks[key]
		if el == nil {
			el = &entityLock{}
			l.locks[key] = el
		}
		el.refs++
		l.mapMutex.Unlock()

		el.mu.Lock()
		held = append(held, el)
	}

	return func() {
		for i := len(held) - 1; i >= 0; i-- {
			held[i].mu.Unlock()
		}

		l.mapMutex.Lock()
		for i, key := range keys {
			held[i].refs--
			if held[i].refs == 0 {
				delete(l.locks, key)
			}
		}
		l.mapMutex.Unlock()
	}
}

// size returns the number of live lock entries.
func (l *EntityLocks) size() int {
	l.mapMutex.Lock()
	defer l.mapMutex.Unlock()
	return len(l.locks)
}
