// Package verify checks the structural invariants of a heap free list.
//
// It is used by tests and by heapctl to confirm that a sequence of
// allocations and releases left the list well formed:
//
//   - blocks are in strictly ascending address order and do not overlap
//   - every block can hold a descriptor (16 bytes) and starts word-aligned
//   - every block lies inside the managed memory
//   - the chain terminates
//
// # ValidationError
//
// Failures are reported as *ValidationError:
//
//	if err := verify.FreeList(fl); err != nil {
//	    var verr *verify.ValidationError
//	    if errors.As(err, &verr) {
//	        fmt.Printf("%s at %s: %s\n", verr.Type, verr.Addr, verr.Message)
//	    }
//	}
package verify
