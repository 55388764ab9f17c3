// Package alloc binds the free-list engine to the conventional allocator
// contract: Allocate(size, align) returns an address or mem.Null, and
// Release(addr, size) gives a region back.
//
// # Overview
//
// An Allocator owns one freelist.FreeList behind a spin lock. Every entry
// point takes the lock for the duration of a single list operation, so
// allocations and releases from any number of goroutines are serialized.
//
//	data, cleanup, _ := mmfile.Anonymous(128 << 20)
//	defer cleanup()
//	m, _ := mem.New(0x8000_0000, data)
//
//	a := alloc.New(m)
//	if err := a.Init(m.Base(), m.Size()); err != nil {
//	    return err
//	}
//
//	p := a.Allocate(32, 8)
//	if p == mem.Null {
//	    // exhausted
//	}
//	a.Release(p, 32)
//
// # Caller Contract
//
// Allocate and Release trust their arguments: align must be a power of two,
// size must be non-zero, and Release must receive exactly the size used for
// the allocation. Violations corrupt the heap. AllocLayout and ReleaseLayout
// take a Layout, which NewLayout validates, for callers that want the checks.
//
// Regions released with fewer bytes than a descriptor (16) are dropped and
// never reused. Adjacent free regions are not merged.
//
// # Exhaustion
//
// Allocate reports exhaustion with mem.Null and never aborts. MustAllocate
// routes exhaustion to the registered error handler instead; the default
// handler panics with an *Error.
//
// # Default Allocator
//
// InitDefault installs the process-wide allocator exactly once; Default
// returns it afterwards.
package alloc
