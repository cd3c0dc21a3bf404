// Property-based tests for keyed locking.
// **Feature: monad-bot, Property: Serialized Entity Updates**
package lock

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"pgregory.net/rapid"
)

// TestConcurrentUpdatesSerializedProperty checks that concurrent read-modify-write
// under the same key matches sequential execution.
func TestConcurrentUpdatesSerializedProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		initial := rapid.Int64Range(0, 100000).Draw(t, "initial")
		deltas := rapid.SliceOfN(rapid.Int64Range(-500, 500), 2, 30).Draw(t, "deltas")
		key := fmt.Sprintf("balance:%d", rapid.IntRange(1, 1000).Draw(t, "user"))

		kl := New()
		balance := initial
		expected := initial
		for _, d := range deltas {
			expected += d
		}

		var wg sync.WaitGroup
		wg.Add(len(deltas))
		for _, d := range deltas {
			go func(d int64) {
				defer wg.Done()
				kl.Lock(key)
				defer kl.Unlock(key)
				balance += d
			}(d)
		}
		wg.Wait()

		if balance != expected {
			t.Fatalf("expected %d, got %d", expected, balance)
		}
	})
}

// TestLockAllOrderingProperty runs overlapping multi-key operations with keys
// given in random order; sorted acquisition must never deadlock.
func TestLockAllOrderingProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		ops := rapid.IntRange(2, 20).Draw(t, "ops")
		kl := New()
		keys := []string{"a", "b", "c"}
		counter := 0

		var wg sync.WaitGroup
		wg.Add(ops)
		for i := 0; i < ops; i++ {
			first := keys[i%3]
			second := keys[(i+1)%3]
			go func() {
				defer wg.Done()
				unlock := kl.LockAll(second, first, second)
				counter++
				unlock()
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
			t.Fatal("LockAll deadlocked")
		}
		if counter != ops {
			t.Fatalf("expected %d increments, got %d", ops, counter)
		}
	})
}

func TestLockEntriesAreReclaimed(t *testing.T) {
	kl := New()
	for i := 0; i < 100; i++ {
		kl.Lock(fmt.Sprintf("k%d", i))
		kl.Unlock(fmt.Sprintf("k%d", i))
	}
	kl.mu.Lock()
	defer kl.mu.Unlock()
	assert.Empty(t, kl.locks)
}
