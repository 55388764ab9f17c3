// Package spin provides a busy-wait mutex and a wrapper that grants exclusive
// access to a value through it.
//
// Waiters poll a shared flag instead of parking, so there is no queue and no
// fairness. A holder that tries to lock again deadlocks; so does an interrupt
// handler that allocates while the code it interrupted holds the lock.
package spin

import (
	"runtime"
	"sync"
	"sync/atomic"
)

// Pause is called on every failed poll. On hardware it is the spin-loop hint;
// hosted, it yields the processor so the holder can make progress.
func Pause() {
	runtime.Gosched()
}

// Mutex is a test-and-test-and-set spin lock. The zero value is unlocked.
type Mutex struct {
	held atomic.Bool
}

var _ sync.Locker = (*Mutex)(nil)

// Lock spins until the caller is the sole holder.
func (m *Mutex) Lock() {
	for {
		if m.held.CompareAndSwap(false, true) {
			return
		}
		for m.held.Load() {
			Pause()
		}
	}
}

// TryLock acquires the lock if it is free and reports whether it did.
func (m *Mutex) TryLock() bool {
	return m.held.CompareAndSwap(false, true)
}

// Unlock releases the lock. Unlocking an unlocked Mutex panics.
func (m *Mutex) Unlock() {
	if !m.held.CompareAndSwap(true, false) {
		panic("spin: unlock of unlocked mutex")
	}
}

// Locked guards a value with a Mutex. The value is only reachable through
// Lock or With.
type Locked[T any] struct {
	mu    Mutex
	inner T
}

// NewLocked wraps inner.
func NewLocked[T any](inner T) *Locked[T] {
	return &Locked[T]{inner: inner}
}

// Lock spins until exclusive, then returns the guarded value and the func
// that releases it. Callers defer the release:
//
//	fl, unlock := l.Lock()
//	defer unlock()
//
// The release func is idempotent.
func (l *Locked[T]) Lock() (T, func()) {
	l.mu.Lock()
	var once sync.Once
	return l.inner, func() { once.Do(l.mu.Unlock) }
}

// With runs fn with exclusive access to the value.
func (l *Locked[T]) With(fn func(T)) {
	v, unlock := l.Lock()
	defer unlock()
	fn(v)
}
