// Package flightlock provides the per-flight serialization point shared by the seat
// ledger and the ticket seat pool.
package flightlock

import (
	"context"
	"fmt"
	"sync"
)

// Locker hands out one lock per flight id. Locks of different flights never contend.
type Locker struct {
	locks sync.Map // flight id -> chan struct{}
}

func New() *Locker {
	return &Locker{}
}

// Lock blocks until the flight's lock is held or ctx is done. The returned unlock
// func is safe to call more than once.
func (l *Locker) Lock(ctx context.Context, flightID string) (func(), error) {
	ch := l.slot(flightID)
	select {
	case ch <- struct{}{}:
		var once sync.Once
		return func() { once.Do(func() { <-ch }) }, nil
	case <-ctx.Done():
		return nil, fmt.Errorf("lock flight %s: %w", flightID, ctx.Err())
	}
}

func (l *Locker) slot(flightID string) chan struct{} {
	if v, ok := l.locks.Load(flightID); ok {
		return v.(chan struct{})
	}
	v, _ := l.locks.LoadOrStore(flightID, make(chan struct{}, 1))
	return v.(chan struct{})
}
