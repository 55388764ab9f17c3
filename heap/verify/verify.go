package verify

import (
	"errors"
	"fmt"

	"github.com/joshuapare/heapkit/heap/freelist"
	"github.com/joshuapare/heapkit/heap/mem"
	"github.com/joshuapare/heapkit/internal/format"
)

// ValidationError describes a broken invariant.
type ValidationError struct {
	Type    string   // Error category (e.g., "Order")
	Message string   // Human-readable description
	Addr    mem.Addr // Block where the error occurred (mem.Null if N/A)
	Err     error    // Underlying cause, if any
}

func (e *ValidationError) Error() string {
	if e.Addr != mem.Null {
		return fmt.Sprintf("%s at %s: %s", e.Type, e.Addr, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

func (e *ValidationError) Unwrap() error { return e.Err }

// FreeList validates every invariant of fl. The caller must hold whatever
// lock serializes access to fl.
func FreeList(fl *freelist.FreeList) error {
	m := fl.Memory()
	var (
		prev    freelist.Block
		hasPrev bool
		verr    *ValidationError
	)

	walkErr := fl.Walk(func(b freelist.Block) bool {
		verr = checkBlock(m, b)
		if verr == nil && hasPrev {
			verr = checkOrder(prev, b)
		}
		prev, hasPrev = b, true
		return verr == nil
	})
	if verr != nil {
		return verr
	}
	if walkErr != nil {
		return &ValidationError{
			Type:    "Chain",
			Message: walkErr.Error(),
			Err:     walkErr,
		}
	}
	return nil
}

// Blocks validates an already captured block list against m.
func Blocks(m *mem.Memory, blocks []freelist.Block) error {
	for i, b := range blocks {
		if verr := checkBlock(m, b); verr != nil {
			return verr
		}
		if i > 0 {
			if verr := checkOrder(blocks[i-1], b); verr != nil {
				return verr
			}
		}
	}
	return nil
}

// AllInvariants runs FreeList and, when live is non-nil, also checks that no
// free block overlaps one of the live allocations.
func AllInvariants(fl *freelist.FreeList, live []Region) error {
	if err := FreeList(fl); err != nil {
		return err
	}
	return Disjoint(fl.Blocks(), live)
}

// Region is an allocated range, as handed out by the allocator.
type Region struct {
	Addr mem.Addr
	Size uint64
}

// End returns the address one past the region.
func (r Region) End() mem.Addr { return r.Addr + mem.Addr(r.Size) }

// Disjoint reports an error if any live region overlaps a free block or
// another live region. blocks must be in address order.
func Disjoint(blocks []freelist.Block, live []Region) error {
	var errs []error
	for i, r := range live {
		for _, b := range blocks {
			if r.Addr < b.End() && b.Addr < r.End() {
				errs = append(errs, &ValidationError{
					Type:    "Overlap",
					Message: fmt.Sprintf("free block [%s, %s) overlaps live region [%s, %s)", b.Addr, b.End(), r.Addr, r.End()),
					Addr:    b.Addr,
				})
			}
		}
		for _, o := range live[i+1:] {
			if r.Addr < o.End() && o.Addr < r.End() {
				errs = append(errs, &ValidationError{
					Type:    "Overlap",
					Message: fmt.Sprintf("live regions [%s, %s) and [%s, %s) overlap", r.Addr, r.End(), o.Addr, o.End()),
					Addr:    r.Addr,
				})
			}
		}
	}
	return errors.Join(errs...)
}

func checkBlock(m *mem.Memory, b freelist.Block) *ValidationError {
	if uint64(b.Addr)&format.WordAlignMask != 0 {
		return &ValidationError{
			Type:    "Alignment",
			Message: fmt.Sprintf("descriptor not %d-byte aligned", format.WordAlign),
			Addr:    b.Addr,
		}
	}
	if b.Size < format.DescriptorSize {
		return &ValidationError{
			Type:    "Size",
			Message: fmt.Sprintf("block of %d bytes cannot hold a %d-byte descriptor", b.Size, format.DescriptorSize),
			Addr:    b.Addr,
		}
	}
	if !m.Contains(b.Addr, b.Size) {
		return &ValidationError{
			Type:    "Bounds",
			Message: fmt.Sprintf("block [%s, +%d) outside memory [%s, %s)", b.Addr, b.Size, m.Base(), m.End()),
			Addr:    b.Addr,
		}
	}
	return nil
}

func checkOrder(prev, b freelist.Block) *ValidationError {
	if b.Addr <= prev.Addr {
		return &ValidationError{
			Type:    "Order",
			Message: fmt.Sprintf("block follows %s but is not above it", prev.Addr),
			Addr:    b.Addr,
		}
	}
	if b.Addr < prev.End() {
		return &ValidationError{
			Type:    "Overlap",
			Message: fmt.Sprintf("block starts inside [%s, %s)", prev.Addr, prev.End()),
			Addr:    b.Addr,
		}
	}
	return nil
}
