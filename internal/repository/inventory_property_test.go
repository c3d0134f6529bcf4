// Package repository provides data access layer implementations.
// Property-based tests for inventory stack arithmetic.
package repository

import (
	"testing"

	"pgregory.net/rapid"
)

// stackState is a pure model of one (user, item) stack. It mirrors the
// SQL in InventoryRepository: removing the full quantity deletes the
// row, removing more than held is rejected without mutation.
type stackState struct {
	quantity int64
	exists   bool
}

func newStackState() *stackState {
	return &stackState{}
}

func (s *stackState) Add(n int64) {
	s.quantity += n
	s.exists = true
}

// Remove debits n, reporting whether the debit was accepted.
func (s *stackState) Remove(n int64) bool {
	if s.quantity < n {
		return false
	}
	s.quantity -= n
	if s.quantity == 0 {
		s.exists = false
	}
	return true
}

// TestStackNeverNegativeProperty checks that no sequence of adds and
// removes can drive a stack below zero.
func TestStackNeverNegativeProperty(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		state := newStackState()
		ops := rapid.IntRange(1, 50).Draw(rt, "ops")

		for i := 0; i < ops; i++ {
			amount := rapid.Int64Range(1, 100).Draw(rt, "amount")
			if rapid.Bool().Draw(rt, "isAdd") {
				state.Add(amount)
			} else {
				before := state.quantity
				ok := state.Remove(amount)
				if !ok && state.quantity != before {
					rt.Fatalf("rejected remove mutated quantity: before=%d, after=%d", before, state.quantity)
				}
			}
			if state.quantity < 0 {
				rt.Fatalf("stack went negative: %d", state.quantity)
			}
		}
	})
}

// TestStackDeleteAtZeroProperty checks that draining a stack removes
// the row entirely rather than leaving an empty stack behind.
func TestStackDeleteAtZeroProperty(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		state := newStackState()
		total := rapid.Int64Range(1, 1000).Draw(rt, "total")
		state.Add(total)

		// Drain in random chunks.
		for state.quantity > 0 {
			chunk := rapid.Int64Range(1, state.quantity).Draw(rt, "chunk")
			if !state.Remove(chunk) {
				rt.Fatalf("remove of %d from %d should succeed", chunk, state.quantity+chunk)
			}
		}

		if state.exists {
			rt.Fatalf("drained stack should be deleted")
		}
		if state.Remove(1) {
			rt.Fatalf("remove from a deleted stack should fail")
		}
	})
}

// TestStackConservationProperty checks that accepted operations
// conserve quantity exactly.
func TestStackConservationProperty(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		state := newStackState()
		var expected int64

		ops := rapid.IntRange(1, 50).Draw(rt, "ops")
		for i := 0; i < ops; i++ {
			amount := rapid.Int64Range(1, 100).Draw(rt, "amount")
			if rapid.Bool().Draw(rt, "isAdd") {
				state.Add(amount)
				expected += amount
			} else if state.Remove(amount) {
				expected -= amount
			}
			if state.quantity != expected {
				rt.Fatalf("quantity drift: expected %d, got %d", expected, state.quantity)
			}
		}
	})
}
