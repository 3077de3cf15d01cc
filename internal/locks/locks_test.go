package locks

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAcquireRelease(t *testing.T) {
	l := NewKeyedLocker()

	release, err := l.Acquire(context.Background(), 1, 2)
	require.NoError(t, err)
	release()

	// Entries are dropped once the last holder releases.
	l.mu.Lock()
	assert.Empty(t, l.locks)
	l.mu.Unlock()
}

func TestReleaseIsIdempotent(t *testing.T) {
	l := NewKeyedLocker()

	release, err := l.Acquire(context.Background(), 7)
	require.NoError(t, err)
	release()
	assert.NotPanics(t, func() { release() })

	// The account is lockable again.
	release2, err := l.Acquire(context.Background(), 7)
	require.NoError(t, err)
	release2()
}

func TestDuplicateIDsCollapse(t *testing.T) {
	l := NewKeyedLocker()

	release, err := l.Acquire(context.Background(), 3, 3, 3)
	require.NoError(t, err)
	defer release()
}

func TestSerializesSameAccount(t *testing.T) {
	l := NewKeyedLocker()
	ctx := context.Background()

	release, err := l.Acquire(ctx, 1)
	require.NoError(t, err)

	acquired := make(chan struct{})
	go func() {
		r2, err := l.Acquire(ctx, 1)
		if err == nil {
			r2()
		}
		close(acquired)
	}()

	select {
	case <-acquired:
		t.Fatal("second acquire succeeded while lock was held")
	case <-time.After(50 * time.Millisecond):
	}

	release()
	select {
	case <-acquired:
	case <-time.After(time.Second):
		t.Fatal("second acquire never completed after release")
	}
}

// Two transfers locking the same pair of accounts in opposite request order
// must not deadlock thanks to canonical ordering.
func TestNoDeadlockOnOpposingOrder(t *testing.T) {
	l := NewKeyedLocker()
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 200; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			r, err := l.Acquire(ctx, 1, 2)
			if err == nil {
				r()
			}
		}()
		go func() {
			defer wg.Done()
			r, err := l.Acquire(ctx, 2, 1)
			if err == nil {
				r()
			}
		}()
	}

	done := make(chan struct{})
	go func() { wg.Wait(); close(done) }()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("deadlock: opposing-order acquisitions never finished")
	}
}

func TestAcquireCancelledContext(t *testing.T) {
	l := NewKeyedLocker()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := l.Acquire(ctx, 1, 2)
	assert.Error(t, err)

	// Nothing may be left held.
	l.mu.Lock()
	assert.Empty(t, l.locks)
	l.mu.Unlock()
}
