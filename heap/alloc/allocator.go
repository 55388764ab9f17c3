package alloc

import (
	"fmt"
	"sync/atomic"

	"github.com/joshuapare/heapkit/heap/freelist"
	"github.com/joshuapare/heapkit/heap/mem"
	"github.com/joshuapare/heapkit/heap/spin"
)

// ErrorHandler is called by MustAllocate when a request cannot be satisfied.
// Handlers are expected not to return; if one does, MustAllocate returns mem.Null.
type ErrorHandler func(size, align uint64)

// PanicOnError is the default ErrorHandler. It panics with an *Error.
func PanicOnError(size, align uint64) {
	panic(&Error{Size: size, Align: align})
}

// Allocator serializes access to a free list behind a spin lock.
type Allocator struct {
	mem         *mem.Memory
	list        *spin.Locked[*freelist.FreeList]
	initialized atomic.Bool
	onError     atomic.Pointer[ErrorHandler]
}

// New returns an allocator over m with an empty free list. Init must be called
// before anything can be allocated.
func New(m *mem.Memory) *Allocator {
	return &Allocator{
		mem:  m,
		list: spin.NewLocked(freelist.New(m)),
	}
}

// Init hands [heapStart, heapStart+heapSize) to the allocator. The range must
// lie inside the allocator's memory and must not be used by anything else.
// A second call returns ErrAlreadyInitialized.
func (a *Allocator) Init(heapStart mem.Addr, heapSize uint64) error {
	if !a.mem.Contains(heapStart, heapSize) {
		return fmt.Errorf("%w: [%s, +%d) not in [%s, %s)",
			ErrOutOfHeap, heapStart, heapSize, a.mem.Base(), a.mem.End())
	}
	if !a.initialized.CompareAndSwap(false, true) {
		return ErrAlreadyInitialized
	}

	fl, unlock := a.list.Lock()
	defer unlock()
	fl.Init(heapStart, heapSize)
	return nil
}

// Initialized reports whether Init has succeeded.
func (a *Allocator) Initialized() bool { return a.initialized.Load() }

// Memory returns the memory the heap lives in.
func (a *Allocator) Memory() *mem.Memory { return a.mem }

// Allocate returns the address of size bytes aligned to align, or mem.Null
// when no free block can host them. align must be a power of two and size
// non-zero; neither is checked.
func (a *Allocator) Allocate(size, align uint64) mem.Addr {
	fl, unlock := a.list.Lock()
	defer unlock()

	addr, ok := fl.FindRegion(size, align)
	if !ok {
		return mem.Null
	}
	return addr
}

// Release returns the region at addr to the heap. size must be the size the
// region was allocated with.
func (a *Allocator) Release(addr mem.Addr, size uint64) {
	fl, unlock := a.list.Lock()
	defer unlock()

	fl.AddFreeRegion(addr, size)
}

// AllocLayout allocates l and reports exhaustion as an *Error.
func (a *Allocator) AllocLayout(l Layout) (mem.Addr, error) {
	addr := a.Allocate(l.Size(), l.Align())
	if addr == mem.Null {
		return mem.Null, &Error{Size: l.Size(), Align: l.Align()}
	}
	return addr, nil
}

// ReleaseLayout releases a region allocated with l.
func (a *Allocator) ReleaseLayout(addr mem.Addr, l Layout) {
	a.Release(addr, l.Size())
}

// MustAllocate is Allocate for callers that treat exhaustion as fatal: on
// failure it calls the error handler (PanicOnError unless replaced).
func (a *Allocator) MustAllocate(size, align uint64) mem.Addr {
	addr := a.Allocate(size, align)
	if addr == mem.Null {
		a.errorHandler()(size, align)
	}
	return addr
}

// SetErrorHandler replaces the handler MustAllocate calls. nil restores
// PanicOnError.
func (a *Allocator) SetErrorHandler(h ErrorHandler) {
	if h == nil {
		a.onError.Store(nil)
		return
	}
	a.onError.Store(&h)
}

func (a *Allocator) errorHandler() ErrorHandler {
	if h := a.onError.Load(); h != nil {
		return *h
	}
	return PanicOnError
}

// Stats returns a snapshot of the free list.
func (a *Allocator) Stats() freelist.Stats {
	fl, unlock := a.list.Lock()
	defer unlock()
	return fl.Stats()
}

// Blocks returns the free blocks in address order.
func (a *Allocator) Blocks() []freelist.Block {
	fl, unlock := a.list.Lock()
	defer unlock()
	return fl.Blocks()
}

// Counters returns the free list's operation counters.
func (a *Allocator) Counters() freelist.Counters {
	fl, unlock := a.list.Lock()
	defer unlock()
	return fl.Counters()
}

// Inspect runs fn with the lock held. fn must not call back into a.
func (a *Allocator) Inspect(fn func(*freelist.FreeList)) {
	a.list.With(fn)
}
