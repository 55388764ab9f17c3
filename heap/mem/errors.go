package mem

import "errors"

var (
	// ErrOutOfRange is the panic value (wrapped) for access outside the mapped window.
	ErrOutOfRange = errors.New("mem: access outside mapped memory")

	// ErrBadRange indicates a window that cannot be mapped.
	ErrBadRange = errors.New("mem: invalid memory range")
)
