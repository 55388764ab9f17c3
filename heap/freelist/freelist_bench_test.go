package freelist

import (
	"math/rand"
	"testing"

	"github.com/joshuapare/heapkit/heap/mem"
	"github.com/joshuapare/heapkit/internal/testutil"
)

func newBenchHeap(b *testing.B, size int) *FreeList {
	b.Helper()
	l := New(testutil.NewMemory(b, testutil.DefaultBase, size))
	l.Init(testutil.DefaultBase, uint64(size))
	return l
}

// Benchmark_FindRegion_AllocRelease measures a split followed by a release
// that restores a single-block list.
func Benchmark_FindRegion_AllocRelease(b *testing.B) {
	l := newBenchHeap(b, 1<<20)

	b.ResetTimer()
	b.ReportAllocs()

	for range b.N {
		addr, ok := l.FindRegion(64, 8)
		if !ok {
			b.Fatal("allocation failed")
		}
		l.AddFreeRegion(addr, 64)
	}
}

// Benchmark_FindRegion_Fragmented measures first-fit search past many small
// blocks that cannot host the request.
func Benchmark_FindRegion_Fragmented(b *testing.B) {
	l := newBenchHeap(b, 4<<20)

	// Carve 1024 live 64-byte allocations and free every other one, leaving
	// 512 holes of 64 bytes in front of the large remainder.
	var addrs []mem.Addr
	for range 1024 {
		addr, ok := l.FindRegion(64, 8)
		if !ok {
			b.Fatal("setup allocation failed")
		}
		addrs = append(addrs, addr)
	}
	for i := 0; i < len(addrs); i += 2 {
		l.AddFreeRegion(addrs[i], 64)
	}

	b.ResetTimer()
	b.ReportAllocs()

	for range b.N {
		addr, ok := l.FindRegion(256, 8)
		if !ok {
			b.Fatal("allocation failed")
		}
		l.AddFreeRegion(addr, 256)
	}
}

// Benchmark_AddFreeRegion_Random measures sorted insertion of releases in
// random order.
func Benchmark_AddFreeRegion_Random(b *testing.B) {
	const n = 256
	l := newBenchHeap(b, 1<<20)
	addrs := make([]mem.Addr, n)
	for i := range addrs {
		addr, ok := l.FindRegion(32, 8)
		if !ok {
			b.Fatal("setup allocation failed")
		}
		addrs[i] = addr
	}
	rng := rand.New(rand.NewSource(1))

	b.ResetTimer()
	b.ReportAllocs()

	for range b.N {
		b.StopTimer()
		rng.Shuffle(n, func(i, j int) { addrs[i], addrs[j] = addrs[j], addrs[i] })
		b.StartTimer()
		for _, addr := range addrs {
			l.AddFreeRegion(addr, 32)
		}
		b.StopTimer()
		for i := range addrs {
			addr, ok := l.FindRegion(32, 8)
			if !ok {
				b.Fatal("re-allocation failed")
			}
			addrs[i] = addr
		}
		b.StartTimer()
	}
}
