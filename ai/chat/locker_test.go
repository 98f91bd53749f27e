package chat

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestKeyedLockerSerializesSameKey(t *testing.T) {
	locker := newKeyedLocker()

	var mu sync.Mutex
	var active, maxActive int

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock := locker.Lock("conversation-1")
			defer unlock()

			mu.Lock()
			active++
			if active > maxActive {
				maxActive = active
			}
			mu.Unlock()

			mu.Lock()
			active--
			mu.Unlock()
		}()
	}
	wg.Wait()

	require.Equal(t, 1, maxActive, "at most one holder per key")
}

func TestKeyedLockerReleasesEntries(t *testing.T) {
	locker := newKeyedLocker()
	unlock := locker.Lock("a")
	unlock()

	locker.mu.Lock()
	defer locker.mu.Unlock()
	require.Empty(t, locker.locks, "entries are removed once unused")
}
