package sync

import "bibos/kernel/cpu"

var (
	saveAndDisableInterruptsFn = cpu.SaveAndDisableInterrupts
	restoreInterruptsFn        = cpu.RestoreInterrupts
)

// IRQSpinlock guards resources that are shared between foreground code and
// interrupt handlers. Lock masks interrupt delivery before acquiring the
// spinlock and Unlock releases the spinlock before restoring the interrupt
// flag, so a handler can never fire while the lock is held by the context it
// interrupted.
//
// Handlers run with interrupts already masked; taking an IRQSpinlock from a
// handler keeps them masked on release.
type IRQSpinlock struct {
	lock Spinlock
}

// Lock masks interrupts, acquires the lock and returns the previous interrupt
// state which must be passed to Unlock.
func (l *IRQSpinlock) Lock() cpu.InterruptState {
	state := saveAndDisableInterruptsFn()
	l.lock.Acquire()
	return state
}

// Unlock releases the lock and then restores the interrupt state returned by
// the matching Lock call.
func (l *IRQSpinlock) Unlock(state cpu.InterruptState) {
	l.lock.Release()
	restoreInterruptsFn(state)
}

// Do runs fn while holding the lock with interrupts masked. The lock is
// released and the interrupt state restored on every exit path out of fn.
func (l *IRQSpinlock) Do(fn func()) {
	state := l.Lock()
	defer l.Unlock(state)
	fn()
}

// Held returns true if the lock is currently acquired.
func (l *IRQSpinlock) Held() bool {
	return l.lock.Held()
}
