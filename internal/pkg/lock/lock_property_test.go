package lock

import (
	"sync"
	"sync/atomic"
	"testing"

	"pgregory.net/rapid"
)

// Concurrent energy mutations under the lock must match sequential
// execution of the same operations.
func TestConcurrentMutationSafetyProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		initial := rapid.Int64Range(1000, 100000).Draw(t, "initial")
		numOps := rapid.IntRange(2, 20).Draw(t, "numOps")

		deltas := make([]int64, numOps)
		expected := initial
		for i := 0; i < numOps; i++ {
			deltas[i] = rapid.Int64Range(-500, 500).Draw(t, "delta")
			expected += deltas[i]
		}

		userID := rapid.Int64Range(1, 1000000).Draw(t, "userID")
		ul := NewUserLock()
		value := initial

		var wg sync.WaitGroup
		wg.Add(numOps)
		for _, d := range deltas {
			go func(delta int64) {
				defer wg.Done()
				ul.Lock(userID)
				defer ul.Unlock(userID)
				value += delta
			}(d)
		}
		wg.Wait()

		if value != expected {
			t.Fatalf("value mismatch with locking: expected %d, got %d (initial=%d, numOps=%d)",
				expected, value, initial, numOps)
		}
	})
}

// WithLock serializes read-modify-write cycles.
func TestWithLockSerializationProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		initial := rapid.Int64Range(1000, 100000).Draw(t, "initial")
		numOps := rapid.IntRange(5, 30).Draw(t, "numOps")
		perOp := rapid.Int64Range(1, 100).Draw(t, "perOp")
		userID := rapid.Int64Range(1, 1000000).Draw(t, "userID")

		expected := initial + int64(numOps)*perOp
		ul := NewUserLock()
		value := initial

		var wg sync.WaitGroup
		wg.Add(numOps)
		for i := 0; i < numOps; i++ {
			go func() {
				defer wg.Done()
				_ = ul.WithLock(userID, func() error {
					value += perOp
					return nil
				})
			}()
		}
		wg.Wait()

		if value != expected {
			t.Fatalf("value mismatch with WithLock: expected %d, got %d", expected, value)
		}
	})
}

// Locks for different users are independent.
func TestMultipleUsersIndependentLocksProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		numUsers := rapid.IntRange(2, 10).Draw(t, "numUsers")
		opsPerUser := rapid.IntRange(5, 20).Draw(t, "opsPerUser")

		ul := NewUserLock()
		values := make(map[int64]*int64)
		expected := make(map[int64]int64)
		for i := 0; i < numUsers; i++ {
			userID := int64(i + 1)
			v := rapid.Int64Range(1000, 10000).Draw(t, "initial")
			values[userID] = &v
			expected[userID] = v + int64(opsPerUser)*10
		}

		var wg sync.WaitGroup
		wg.Add(numUsers * opsPerUser)
		for userID := int64(1); userID <= int64(numUsers); userID++ {
			for j := 0; j < opsPerUser; j++ {
				go func(uid int64) {
					defer wg.Done()
					ul.Lock(uid)
					defer ul.Unlock(uid)
					*values[uid] += 10
				}(userID)
			}
		}
		wg.Wait()

		for userID := int64(1); userID <= int64(numUsers); userID++ {
			if *values[userID] != expected[userID] {
				t.Fatalf("user %d value mismatch: expected %d, got %d",
					userID, expected[userID], *values[userID])
			}
		}
	})
}

// TryLock admits exactly one holder at a time; a single in-progress
// battle action per user relies on this.
func TestTryLockSingleHolderProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		userID := rapid.Int64Range(1, 1000000).Draw(t, "userID")
		numAttempts := rapid.IntRange(5, 20).Draw(t, "numAttempts")

		ul := NewUserLock()

		var successCount atomic.Int32
		var wg sync.WaitGroup
		wg.Add(numAttempts)
		startCh := make(chan struct{})

		for i := 0; i < numAttempts; i++ {
			go func() {
				defer wg.Done()
				<-startCh
				if ul.TryLock(userID) {
					successCount.Add(1)
					ul.Unlock(userID)
				}
			}()
		}

		close(startCh)
		wg.Wait()

		if successCount.Load() < 1 {
			t.Fatalf("at least one TryLock should succeed, got %d successes", successCount.Load())
		}

		if !ul.TryLock(userID) {
			t.Fatal("lock should be available after all operations complete")
		}
		ul.Unlock(userID)
	})
}

func TestLockUnlockSymmetryProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		userID := rapid.Int64Range(1, 1000000).Draw(t, "userID")
		numCycles := rapid.IntRange(1, 50).Draw(t, "numCycles")

		ul := NewUserLock()
		for i := 0; i < numCycles; i++ {
			ul.Lock(userID)
			ul.Unlock(userID)
		}

		if !ul.TryLock(userID) {
			t.Fatal("lock should be available after symmetric lock/unlock cycles")
		}
		ul.Unlock(userID)
	})
}
