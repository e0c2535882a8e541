package memory

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSessionLocksSerializeSameKey(t *testing.T) {
	locks := NewSessionLocks()

	const workers = 20
	var (
		wg      sync.WaitGroup
		counter int
	)

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			release := locks.Acquire("session-a")
			defer release()
			counter++
		}()
	}
	wg.Wait()

	assert.Equal(t, workers, counter)
}

func TestSessionLocksDifferentKeysRunInParallel(t *testing.T) {
	locks := NewSessionLocks()

	releaseA := locks.Acquire("session-a")
	defer releaseA()

	done := make(chan struct{})
	go func() {
		releaseB := locks.Acquire("session-b")
		releaseB()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("holding session-a must not block session-b")
	}
}

func TestSessionLocksReleaseIsIdempotent(t *testing.T) {
	locks := NewSessionLocks()

	release := locks.Acquire("session-a")
	release()
	assert.NotPanics(t, release)

	// The key is free again.
	again := locks.Acquire("session-a")
	again()
}

func TestSessionLocksForget(t *testing.T) {
	locks := NewSessionLocks()

	release := locks.Acquire("session-a")
	release()
	locks.Forget("session-a")

	// Acquiring after Forget creates a fresh entry.
	release = locks.Acquire("session-a")
	release()
}
