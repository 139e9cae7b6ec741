// Package sync provides the mutual exclusion primitives used by the kernel:
// a busy-waiting spinlock and an interrupt-safe spinlock that also masks
// interrupt delivery for as long as it is held.
package sync

import "sync/atomic"

// spinAttemptsBeforeYield is the number of failed acquisition attempts
// before yieldFn gets a chance to run.
const spinAttemptsBeforeYield = 64

var (
	// yieldFn is invoked while spinning. The kernel has no scheduler so
	// it stays nil; tests substitute runtime.Gosched.
	yieldFn func()
)

// Spinlock implements a lock where each context trying to acquire it
// busy-waits till the lock becomes available.
type Spinlock struct {
	state uint32
}

// Acquire blocks until the lock can be acquired by the current context. Any
// attempt to re-acquire a lock already held by the current context will cause
// a deadlock.
func (l *Spinlock) Acquire() {
	for attempt := uint32(1); !atomic.CompareAndSwapUint32(&l.state, 0, 1); attempt++ {
		if attempt%spinAttemptsBeforeYield == 0 && yieldFn != nil {
			yieldFn()
		}
	}
}

// TryToAcquire attempts to acquire the lock and returns true if the lock could
// be acquired or false otherwise.
func (l *Spinlock) TryToAcquire() bool {
	return atomic.CompareAndSwapUint32(&l.state, 0, 1)
}

// Release relinquishes a held lock allowing other contexts to acquire it.
// Calling Release while the lock is free has no effect.
func (l *Spinlock) Release() {
	atomic.StoreUint32(&l.state, 0)
}

// Held returns true if the lock is currently acquired.
func (l *Spinlock) Held() bool {
	return atomic.LoadUint32(&l.state) == 1
}
