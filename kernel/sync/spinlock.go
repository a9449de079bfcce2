// Package sync provides the busy-wait spinlock used by the kernel to protect
// short critical sections shared between cores.
package sync

import "sync/atomic"

// spinsBeforeYielding defines the number of failed acquisition attempts after
// which a spinning task yields the core to whatever else is runnable.
const spinsBeforeYielding = 64

var (
	// TODO: replace with the scheduler yield once context-switching lands.
	yieldFn func()
)

// Spinlock implements a lock where each task trying to acquire it busy-waits
// till the lock becomes available.
type Spinlock struct {
	state uint32
}

// Acquire blocks until the lock can be acquired by the currently active task.
// Any attempt to re-acquire a lock already held by the current task will cause
// a deadlock.
func (l *Spinlock) Acquire() {
	var attempt uint32

	for !l.TryToAcquire() {
		attempt++
		if attempt%spinsBeforeYielding == 0 && yieldFn != nil {
			yieldFn()
		}
	}
}

// TryToAcquire attempts to acquire the lock and returns true if the lock could
// be acquired or false otherwise.
func (l *Spinlock) TryToAcquire() bool {
	return atomic.SwapUint32(&l.state, 1) == 0
}

// Release relinquishes a held lock allowing other tasks to acquire it. Calling
// Release while the lock is free has no effect.
func (l *Spinlock) Release() {
	atomic.StoreUint32(&l.state, 0)
}
