package service

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestEntityLocks(t *testing.T) {
	t.Run("serialises operations on the same entity", func(t *testing.T) {
		locks := NewEntityLocks()

		var inside, maxInside int32
		var wg sync.WaitGroup
		for range 20 {
			wg.Add(1)
			go func() {
				defer wg.Done()
				unlock := locks.Lock(LockScope{AccountID: "a1", PropertyID: "p1"})
				defer unlock()

				n := atomic.AddInt32(&inside, 1)
				for {
					m := atomic.LoadInt32(&maxInside)
					if n <= m || atomic.CompareAndSwapInt32(&maxInside, m, n) {
						break
					}
				}
				time.Sleep(time.Millisecond)
				atomic.AddInt32(&inside, -1)
			}()
		}
		wg.Wait()

		if maxInside != 1 {
			t.Errorf("Expected at most one holder at a time, got %d", maxInside)
		}
	})

	t.Run("does not block unrelated entities", func(t *testing.T) {
		locks := NewEntityLocks()
		unlock := locks.Lock(LockScope{AccountID: "a1"})
		defer unlock()

		done := make(chan struct{})
		go func() {
			release := locks.Lock(LockScope{AccountID: "a2", InvestmentID: "i2"})
			release()
			close(done)
		}()

		select {
		case <-done:
		case <-time.After(time.Second):
			t.Fatal("Lock on unrelated entity blocked")
		}
	})

	t.Run("drops entries once released", func(t *testing.T) {
		locks := NewEntityLocks()

		unlock := locks.Lock(LockScope{AccountID: "a1", PropertyID: "p1", InvestmentID: "i1"})
		if got := locks.size(); got != 3 {
			t.Errorf("Expected 3 live entries, got %d", got)
		}
		unlock()

		if got := locks.size(); got != 0 {
			t.Errorf("Expected no live entries, got %d", got)
		}
	})

	t.Run("overlapping scopes do not deadlock", func(t *testing.T) {
		locks := NewEntityLocks()

		var wg sync.WaitGroup
		for i := range 50 {
			wg.Add(1)
			go func() {
				defer wg.Done()
				scope := LockScope{AccountID: "a1", PropertyID: "p1", InvestmentID: "i1"}
				if i%2 == 0 {
					scope = LockScope{AccountID: "a1", InvestmentID: "i1"}
				}
				locks.Lock(scope)()
			}()
		}

		done := make(chan struct{})
		go func() {
			wg.Wait()
			close(done)
		}()
		select {
		case <-done:
		case <-time.After(5 * time.Second):
			t.Fatal("Overlapping lock scopes deadlocked")
		}
	})
}
