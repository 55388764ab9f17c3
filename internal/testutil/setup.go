// Package testutil holds helpers shared by package tests.
package testutil

import (
	"testing"

	"github.com/joshuapare/heapkit/heap/mem"
	"github.com/joshuapare/heapkit/internal/mmfile"
)

// DefaultBase is the address test memories are mapped at unless a test needs
// a specific one. It mirrors the start of RAM on the QEMU virt machine.
const DefaultBase mem.Addr = 0x8000_0000

// NewMemory maps size bytes of anonymous memory at base and unmaps it when the
// test finishes.
//
// Example:
//
//	m := testutil.NewMemory(t, 0x1000, 4096)
//	fl := freelist.New(m)
//	fl.Init(m.Base(), m.Size())
func NewMemory(t testing.TB, base mem.Addr, size int) *mem.Memory {
	t.Helper()

	data, cleanup, err := mmfile.Anonymous(size)
	if err != nil {
		t.Fatalf("map %d bytes: %v", size, err)
	}
	t.Cleanup(func() {
		if err := cleanup(); err != nil {
			t.Errorf("unmap: %v", err)
		}
	})

	m, err := mem.New(base, data)
	if err != nil {
		t.Fatalf("mem.New(%s, %d): %v", base, size, err)
	}
	return m
}

// Fill writes pattern over [addr, addr+n).
func Fill(m *mem.Memory, addr mem.Addr, n uint64, pattern byte) {
	b := m.Bytes(addr, n)
	for i := range b {
		b[i] = pattern
	}
}

// Holds reports whether every byte in [addr, addr+n) equals pattern.
func Holds(m *mem.Memory, addr mem.Addr, n uint64, pattern byte) bool {
	for _, v := range m.Bytes(addr, n) {
		if v != pattern {
			return false
		}
	}
	return true
}
