package spin

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestMutex_TryLock(t *testing.T) {
	var m Mutex
	require.True(t, m.TryLock())
	require.False(t, m.TryLock())
	m.Unlock()
	require.True(t, m.TryLock())
	m.Unlock()
}

func TestMutex_UnlockUnlockedPanics(t *testing.T) {
	var m Mutex
	require.PanicsWithValue(t, "spin: unlock of unlocked mutex", func() { m.Unlock() })
}

func TestMutex_WaiterSpinsUntilRelease(t *testing.T) {
	var m Mutex
	m.Lock()

	acquired := make(chan struct{})
	go func() {
		m.Lock()
		close(acquired)
		m.Unlock()
	}()

	select {
	case <-acquired:
		t.Fatal("waiter acquired a held lock")
	case <-time.After(20 * time.Millisecond):
	}

	m.Unlock()
	select {
	case <-acquired:
	case <-time.After(5 * time.Second):
		t.Fatal("waiter never acquired the lock")
	}
}

func TestMutex_Serializes(t *testing.T) {
	var m Mutex
	counter := 0

	const workers, iterations = 8, 2000
	var wg sync.WaitGroup
	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range iterations {
				m.Lock()
				// non-atomic read-modify-write: lost updates mean the lock leaked
				v := counter
				Pause()
				counter = v + 1
				m.Unlock()
			}
		}()
	}
	wg.Wait()
	require.Equal(t, workers*iterations, counter)
}

func TestLocked_LockAndRelease(t *testing.T) {
	l := NewLocked(&[]int{})

	s, unlock := l.Lock()
	*s = append(*s, 1)
	require.False(t, l.mu.TryLock(), "value must stay locked until released")
	unlock()
	unlock() // idempotent

	l.With(func(s *[]int) {
		*s = append(*s, 2)
	})
	require.True(t, l.mu.TryLock())
	l.mu.Unlock()

	s, unlock = l.Lock()
	defer unlock()
	require.Equal(t, []int{1, 2}, *s)
}

func TestLocked_ConcurrentWith(t *testing.T) {
	l := NewLocked(map[int]int{})

	var wg sync.WaitGroup
	for w := range 4 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range 500 {
				l.With(func(m map[int]int) { m[w*1000+i] = i })
			}
		}()
	}
	wg.Wait()

	l.With(func(m map[int]int) { require.Len(t, m, 2000) })
}
