// README: Keyed lock tests (run with -race).
package tap

import (
	"context"
	"sync"
	"testing"
)

func TestKeyedLockMutualExclusion(t *testing.T) {
	lock := NewKeyedLock()
	ctx := context.Background()

	const workers = 16
	counter := 0
	var wg sync.WaitGroup
	start := make(chan struct{})

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			release, err := lock.Lock(ctx, "c1")
			if err != nil {
				t.Errorf("lock: %v", err)
				return
			}
			counter++ // data race here if exclusion is broken
			release()
		}()
	}
	close(start)
	wg.Wait()

	if counter != workers {
		t.Errorf("expected %d increments, got %d", workers, counter)
	}
}

func TestKeyedLockIndependentCards(t *testing.T) {
	lock := NewKeyedLock()
	ctx := context.Background()

	releaseA, err := lock.Lock(ctx, "a")
	if err != nil {
		t.Fatalf("lock a: %v", err)
	}
	// A held lock on one card must not block another card.
	releaseB, err := lock.Lock(ctx, "b")
	if err != nil {
		t.Fatalf("lock b: %v", err)
	}
	releaseB()
	releaseA()
}

func TestKeyedLockCleansUpEntries(t *testing.T) {
	lock := NewKeyedLock()
	release, err := lock.Lock(context.Background(), "c1")
	if err != nil {
		t.Fatalf("lock: %v", err)
	}
	release()

	lock.mu.Lock()
	defer lock.mu.Unlock()
	if len(lock.locks) != 0 {
		t.Errorf("expected released locks to be dropped, %d entries remain", len(lock.locks))
	}
}
