package alloc

import (
	"sync/atomic"

	"github.com/joshuapare/heapkit/heap/mem"
	"github.com/joshuapare/heapkit/heap/spin"
)

var (
	defaultMu    spin.Mutex
	defaultAlloc atomic.Pointer[Allocator]
)

// InitDefault creates the process-wide allocator over m and initializes it
// with [heapStart, heapStart+heapSize). It succeeds once; later calls return
// ErrAlreadyInitialized and leave the installed allocator untouched.
func InitDefault(m *mem.Memory, heapStart mem.Addr, heapSize uint64) (*Allocator, error) {
	defaultMu.Lock()
	defer defaultMu.Unlock()

	if defaultAlloc.Load() != nil {
		return nil, ErrAlreadyInitialized
	}
	a := New(m)
	if err := a.Init(heapStart, heapSize); err != nil {
		return nil, err
	}
	defaultAlloc.Store(a)
	return a, nil
}

// Default returns the process-wide allocator, or nil before InitDefault.
func Default() *Allocator {
	return defaultAlloc.Load()
}

// Allocate allocates from the process-wide allocator. It returns mem.Null
// when the default allocator is missing or exhausted.
func Allocate(size, align uint64) mem.Addr {
	a := Default()
	if a == nil {
		return mem.Null
	}
	return a.Allocate(size, align)
}

// Release releases to the process-wide allocator. It is a no-op before
// InitDefault.
func Release(addr mem.Addr, size uint64) {
	if a := Default(); a != nil {
		a.Release(addr, size)
	}
}
