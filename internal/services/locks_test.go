package services

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestWithLockSerialisesSameCareer(t *testing.T) {
	locks := NewCareerLocks()

	const workers = 50
	counter := 0
	inCritical := false

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := locks.WithLock(1, func() error {
				assert.False(t, inCritical, "two goroutines inside the same career's critical section")
				inCritical = true
				counter++
				inCritical = false
				return nil
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()
	assert.Equal(t, workers, counter)
}

func TestDifferentCareersDoNotBlockEachOther(t *testing.T) {
	locks := NewCareerLocks()

	locks.Lock(1)
	defer locks.Unlock(1)

	done := make(chan struct{})
	go func() {
		locks.WithLock(2, func() error { return nil })
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("career 2 blocked behind career 1's lock")
	}
}

func TestWithLockPropagatesError(t *testing.T) {
	locks := NewCareerLocks()
	err := locks.WithLock(1, func() error { return assert.AnError })
	assert.ErrorIs(t, err, assert.AnError)

	// Lock is released after the error
	done := make(chan struct{})
	go func() {
		locks.WithLock(1, func() error { return nil })
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("lock leaked after an error return")
	}
}
