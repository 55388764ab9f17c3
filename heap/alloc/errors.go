package alloc

import (
	"errors"
	"fmt"
)

var (
	// ErrNoSpace indicates that no free block could host the request.
	ErrNoSpace = errors.New("alloc: no free block large enough")

	// ErrAlreadyInitialized indicates a second Init of the same heap.
	ErrAlreadyInitialized = errors.New("alloc: heap already initialized")

	// ErrBadAlign indicates an alignment that is not a power of two.
	ErrBadAlign = errors.New("alloc: alignment must be a power of two")

	// ErrZeroSize indicates a zero-byte request.
	ErrZeroSize = errors.New("alloc: size must be non-zero")

	// ErrOutOfHeap indicates a heap range outside the mapped memory.
	ErrOutOfHeap = errors.New("alloc: heap range outside memory")
)

// Error describes an allocation that could not be satisfied.
type Error struct {
	Size  uint64
	Align uint64
}

func (e *Error) Error() string {
	return fmt.Sprintf("allocation error: Layout { size: %d, align: %d }", e.Size, e.Align)
}

// Unwrap lets errors.Is match ErrNoSpace.
func (e *Error) Unwrap() error { return ErrNoSpace }
