//go:build unix

// Package mmfile provides platform-specific helpers for mapping RAM backing.
package mmfile

import (
	"errors"
	"fmt"
	"runtime"

	"golang.org/x/sys/unix"
)

// Anonymous maps size bytes of zeroed, private read/write memory and returns
// it together with a cleanup func that unmaps it. Pages are committed lazily
// by the kernel, so large simulated RAM sizes are cheap until touched.
func Anonymous(size int) ([]byte, func() error, error) {
	if size < 0 {
		return nil, nil, fmt.Errorf("mmfile: negative size %d", size)
	}
	if size == 0 {
		return []byte{}, func() error { return nil }, nil
	}
	data, err := unix.Mmap(-1, 0, size, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_ANON|unix.MAP_PRIVATE)
	if err != nil {
		return nil, nil, fmt.Errorf("mmfile: mmap %d bytes: %w", size, err)
	}
	unmapped := false
	cleanup := func() error {
		if unmapped {
			return nil
		}
		unmapped = true
		err := unix.Munmap(data)
		if errors.Is(err, unix.EINVAL) {
			// Treat double-unmap as no-op for callers.
			return nil
		}
		return err
	}
	return data, cleanup, nil
}

// Discard tells the host kernel the contents of b are no longer needed.
// Subsequent reads observe zeroes. b must come from Anonymous.
func Discard(b []byte) error {
	if len(b) == 0 {
		return nil
	}
	if err := unix.Madvise(b, unix.MADV_DONTNEED); err != nil {
		return err
	}
	// Only Linux drops private anonymous pages on MADV_DONTNEED; elsewhere
	// it is a hint and the old contents may survive.
	if runtime.GOOS != "linux" && runtime.GOOS != "android" {
		clear(b)
	}
	return nil
}
