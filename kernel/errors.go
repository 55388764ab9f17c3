package kernel

import "errors"

var (
	// ErrHalted is returned by Boot after a kernel panic.
	ErrHalted = errors.New("kernel: halted")

	// ErrBadConfig indicates a Config that Validate rejects.
	ErrBadConfig = errors.New("kernel: invalid config")

	// ErrDefaultHeap is returned by Reset when the heap is the process-wide
	// allocator, which can only be initialized once.
	ErrDefaultHeap = errors.New("kernel: process-wide heap cannot be reset")
)

// halt carries a kernel panic message up to Boot.
type halt struct {
	msg string
}
