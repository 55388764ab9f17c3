//go:build !unix

// Package mmfile provides platform-specific helpers for mapping RAM backing.
package mmfile

import "fmt"

// Anonymous allocates size zeroed bytes on the Go heap when mmap is not available.
func Anonymous(size int) ([]byte, func() error, error) {
	if size < 0 {
		return nil, nil, fmt.Errorf("mmfile: negative size %d", size)
	}
	return make([]byte, size), func() error { return nil }, nil
}

// Discard zeroes b.
func Discard(b []byte) error {
	clear(b)
	return nil
}
