package alloc

import (
	"fmt"

	"github.com/joshuapare/heapkit/internal/format"
)

// Layout is a validated (size, align) request.
type Layout struct {
	size  uint64
	align uint64
}

// NewLayout checks that size is non-zero and align is a power of two.
func NewLayout(size, align uint64) (Layout, error) {
	if size == 0 {
		return Layout{}, ErrZeroSize
	}
	if !format.IsPowerOfTwo(align) {
		return Layout{}, fmt.Errorf("%w: %d", ErrBadAlign, align)
	}
	return Layout{size: size, align: align}, nil
}

// LayoutOf returns the layout of n elements of elemSize bytes aligned to align.
func LayoutOf(elemSize, n, align uint64) (Layout, error) {
	if elemSize != 0 && n > ^uint64(0)/elemSize {
		return Layout{}, fmt.Errorf("alloc: layout of %d x %d bytes overflows", n, elemSize)
	}
	return NewLayout(elemSize*n, align)
}

// Size returns the requested byte count.
func (l Layout) Size() uint64 { return l.size }

// Align returns the requested alignment.
func (l Layout) Align() uint64 { return l.align }

func (l Layout) String() string {
	return fmt.Sprintf("Layout { size: %d, align: %d }", l.size, l.align)
}
