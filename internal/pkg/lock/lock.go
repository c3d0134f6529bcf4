// Package lock provides per-user locking. Battle, safe-zone, and
// mining sessions live in process memory, so mutations for the same
// user must be serialized here rather than in the database.
package lock

import (
	"context"
	"sync"
	"time"
)

// userMutex wraps a mutex with reference counting for cleanup.
type userMutex struct {
	mu       sync.Mutex
	refCount int
}

// UserLock provides per-user locking to prevent race conditions
// on in-memory session state and read-modify-write ledger flows.
type UserLock struct {
	locks sync.Map // map[int64]*userMutex
	pool  sync.Pool
}

// NewUserLock creates a new UserLock instance.
func NewUserLock() *UserLock {
	return &UserLock{
		pool: sync.Pool{
			New: func() any {
				return &userMutex{}
			},
		},
	}
}

// getLock retrieves or creates a mutex for the given user ID.
func (ul *UserLock) getLock(userID int64) *userMutex {
	if v, ok := ul.locks.Load(userID); ok {
		return v.(*userMutex)
	}

	newLock := ul.pool.Get().(*userMutex)
	newLock.refCount = 0

	actual, loaded := ul.locks.LoadOrStore(userID, newLock)
	if loaded {
		// Another goroutine created the lock first, return ours to pool
		ul.pool.Put(newLock)
	}
	return actual.(*userMutex)
}

// Lock acquires the lock for a user.
func (ul *UserLock) Lock(userID int64) {
	lock := ul.getLock(userID)
	lock.mu.Lock()
	lock.refCount++
}

// Unlock releases the lock for a user.
func (ul *UserLock) Unlock(userID int64) {
	if v, ok := ul.locks.Load(userID); ok {
		lock := v.(*userMutex)
		lock.refCount--
		lock.mu.Unlock()
	}
}

// TryLock attempts to acquire the lock without blocking.
// Returns true if the lock was acquired, false otherwise.
func (ul *UserLock) TryLock(userID int64) bool {
	lock := ul.getLock(userID)
	if lock.mu.TryLock() {
		lock.refCount++
		return true
	}
	return false
}

// LockWithTimeout attempts to acquire the lock with a timeout.
// Returns true if the lock was acquired, false if timeout occurred.
func (ul *UserLock) LockWithTimeout(ctx context.Context, userID int64, timeout time.Duration) bool {
	lock := ul.getLock(userID)

	done := make(chan struct{})

	go func() {
		lock.mu.Lock()
		close(done)
	}()

	timeoutCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	select {
	case <-done:
		lock.refCount++
		return true
	case <-timeoutCtx.Done():
		// The waiting goroutine will eventually acquire the lock;
		// release it as soon as it does.
		go func() {
			<-done
			lock.mu.Unlock()
		}()
		return false
	}
}

// WithLock executes a function while holding the user's lock.
func (ul *UserLock) WithLock(userID int64, fn func() error) error {
	ul.Lock(userID)
	defer ul.Unlock(userID)
	return fn()
}

// WithLockContext executes a function while holding the user's lock,
// with context support for cancellation.
func (ul *UserLock) WithLockContext(ctx context.Context, userID int64, timeout time.Duration, fn func() error) error {
	if !ul.LockWithTimeout(ctx, userID, timeout) {
		return ErrLockTimeout
	}
	defer ul.Unlock(userID)

	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
		return fn()
	}
}

// IsLocked checks if a user currently has an active lock.
// Note: This is a point-in-time check and may change immediately after.
func (ul *UserLock) IsLocked(userID int64) bool {
	if v, ok := ul.locks.Load(userID); ok {
		lock := v.(*userMutex)
		if lock.mu.TryLock() {
			lock.mu.Unlock()
			return false
		}
		return true
	}
	return false
}

// DefaultUserLock is the global user lock instance.
var DefaultUserLock = NewUserLock()

// Lock acquires the lock for a user using the default instance.
func Lock(userID int64) {
	DefaultUserLock.Lock(userID)
}

// Unlock releases the lock for a user using the default instance.
func Unlock(userID int64) {
	DefaultUserLock.Unlock(userID)
}

// TryLock attempts to acquire the lock using the default instance.
func TryLock(userID int64) bool {
	return DefaultUserLock.TryLock(userID)
}

// WithLock executes a function while holding the lock using the default instance.
func WithLock(userID int64, fn func() error) error {
	return DefaultUserLock.WithLock(userID, fn)
}
