package alloc

import (
	"errors"
	"math/rand"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joshuapare/heapkit/heap/freelist"
	"github.com/joshuapare/heapkit/heap/mem"
	"github.com/joshuapare/heapkit/heap/verify"
	"github.com/joshuapare/heapkit/internal/testutil"
)

func newAllocator(t *testing.T, base mem.Addr, size int) *Allocator {
	t.Helper()
	m := testutil.NewMemory(t, base, size)
	a := New(m)
	require.NoError(t, a.Init(base, uint64(size)))
	return a
}

func TestInit_Once(t *testing.T) {
	m := testutil.NewMemory(t, 0x1000, 4096)
	a := New(m)
	require.False(t, a.Initialized())

	require.NoError(t, a.Init(0x1000, 4096))
	require.True(t, a.Initialized())
	require.ErrorIs(t, a.Init(0x1000, 4096), ErrAlreadyInitialized)

	require.Equal(t, []freelist.Block{{Addr: 0x1000, Size: 4096}}, a.Blocks())
}

func TestInit_RangeOutsideMemory(t *testing.T) {
	m := testutil.NewMemory(t, 0x1000, 4096)
	a := New(m)
	require.ErrorIs(t, a.Init(0x1000, 4097), ErrOutOfHeap)
	require.False(t, a.Initialized())
}

func TestAllocate_BeforeInitFails(t *testing.T) {
	a := New(testutil.NewMemory(t, 0x1000, 4096))
	require.Equal(t, mem.Null, a.Allocate(8, 8))
}

func TestAllocate_Scenario(t *testing.T) {
	a := newAllocator(t, 0x1000, 4096)

	p := a.Allocate(32, 8)
	require.NotEqual(t, mem.Null, p)
	require.Zero(t, uint64(p)%8)
	require.GreaterOrEqual(t, p, mem.Addr(0x1000))
	require.Less(t, p, mem.Addr(0x1000+4096))
	require.Equal(t, uint64(4096-32), a.Stats().FreeBytes)
}

func TestAllocate_PerfectFitThenFailure(t *testing.T) {
	a := newAllocator(t, 0x1000, 4096)

	require.Equal(t, mem.Addr(0x1000), a.Allocate(4096, 8))
	require.Empty(t, a.Blocks())
	require.Equal(t, mem.Null, a.Allocate(1, 1))
	require.Equal(t, 1, a.Counters().Failures)
}

func TestRelease_RoundTripReuse(t *testing.T) {
	a := newAllocator(t, 0x1000, 4096)

	p := a.Allocate(64, 8)
	require.NotEqual(t, mem.Null, p)
	a.Release(p, 64)

	q := a.Allocate(64, 8)
	require.Equal(t, p, q)
}

func TestRelease_MiddleReused(t *testing.T) {
	a := newAllocator(t, 0x1000, 4096)

	p1 := a.Allocate(16, 8)
	p2 := a.Allocate(16, 8)
	p3 := a.Allocate(16, 8)
	require.NotContains(t, []mem.Addr{p1, p2, p3}, mem.Null)

	a.Release(p2, 16)
	require.Equal(t, p2, a.Allocate(16, 8))
}

func TestRelease_TinyRegionDropped(t *testing.T) {
	a := newAllocator(t, 0x1000, 4096)

	p := a.Allocate(64, 8)
	before := a.Stats()
	a.Release(p, 8)
	require.Equal(t, before, a.Stats())
	require.Equal(t, 1, a.Counters().DroppedFragments)
}

func TestAllocLayout(t *testing.T) {
	a := newAllocator(t, 0x1000, 256)

	l, err := NewLayout(128, 16)
	require.NoError(t, err)

	p, err := a.AllocLayout(l)
	require.NoError(t, err)
	require.Zero(t, uint64(p)%16)

	_, err = a.AllocLayout(l)
	require.NoError(t, err)

	_, err = a.AllocLayout(l)
	var allocErr *Error
	require.ErrorAs(t, err, &allocErr)
	require.Equal(t, uint64(128), allocErr.Size)
	require.Equal(t, uint64(16), allocErr.Align)
	require.ErrorIs(t, err, ErrNoSpace)

	a.ReleaseLayout(p, l)
	_, err = a.AllocLayout(l)
	require.NoError(t, err)
}

func TestMustAllocate_DefaultHandlerPanics(t *testing.T) {
	a := newAllocator(t, 0x1000, 64)

	defer func() {
		r := recover()
		require.NotNil(t, r)
		err, ok := r.(error)
		require.True(t, ok)
		require.True(t, errors.Is(err, ErrNoSpace))
		require.Equal(t, "allocation error: Layout { size: 128, align: 8 }", err.Error())
	}()
	a.MustAllocate(128, 8)
	t.Fatal("MustAllocate returned on exhaustion")
}

func TestMustAllocate_CustomHandler(t *testing.T) {
	a := newAllocator(t, 0x1000, 64)

	var gotSize, gotAlign uint64
	a.SetErrorHandler(func(size, align uint64) { gotSize, gotAlign = size, align })

	require.Equal(t, mem.Null, a.MustAllocate(128, 32))
	require.Equal(t, uint64(128), gotSize)
	require.Equal(t, uint64(32), gotAlign)

	require.NotEqual(t, mem.Null, a.MustAllocate(16, 8))

	a.SetErrorHandler(nil)
	require.Panics(t, func() { a.MustAllocate(4096, 8) })
}

func TestExhaustion_IsStable(t *testing.T) {
	a := newAllocator(t, 0x1000, 4096)

	var live []mem.Addr
	for {
		p := a.Allocate(48, 8)
		if p == mem.Null {
			break
		}
		live = append(live, p)
	}
	require.Greater(t, len(live), 3)
	for range 5 {
		require.Equal(t, mem.Null, a.Allocate(48, 8))
	}

	a.Release(live[3], 48)
	assert.Equal(t, live[3], a.Allocate(48, 8))
}

// Test_ConcurrentAllocRelease hammers one allocator from many goroutines and
// checks that every live allocation keeps its contents and the free list
// stays valid.
func Test_ConcurrentAllocRelease(t *testing.T) {
	const workers, steps = 8, 1500
	a := newAllocator(t, testutil.DefaultBase, 1<<20)
	m := a.Memory()

	type held struct {
		addr mem.Addr
		size uint64
	}
	errOverwritten := errors.New("allocation overwritten by another goroutine")

	var wg sync.WaitGroup
	errs := make(chan error, workers)
	for w := range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			rng := rand.New(rand.NewSource(int64(w)))
			pattern := byte(w + 1)
			var live []held

			for range steps {
				if len(live) > 0 && rng.Intn(2) == 0 {
					j := rng.Intn(len(live))
					h := live[j]
					if !testutil.Holds(m, h.addr, h.size, pattern) {
						errs <- errOverwritten
						return
					}
					a.Release(h.addr, h.size)
					live = append(live[:j], live[j+1:]...)
					continue
				}
				size := uint64(16 + rng.Intn(256))
				p := a.Allocate(size, 8)
				if p == mem.Null {
					continue
				}
				testutil.Fill(m, p, size, pattern)
				live = append(live, held{addr: p, size: size})
			}
			for _, h := range live {
				if !testutil.Holds(m, h.addr, h.size, pattern) {
					errs <- errOverwritten
					return
				}
				a.Release(h.addr, h.size)
			}
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	a.Inspect(func(fl *freelist.FreeList) {
		require.NoError(t, verify.FreeList(fl))
	})
	c := a.Counters()
	require.Equal(t, c.AllocCalls-c.Failures, c.ReleaseCalls-1, "every allocation was released once")
}
