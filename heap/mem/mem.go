// Package mem models a contiguous window of physical memory.
//
// A Memory is a byte slice mapped at a base physical address. All reads and
// writes go through absolute addresses, so data structures placed in it (the
// heap's free-block descriptors, for one) live at the same addresses they
// describe. Address 0 is never mapped and serves as the null address.
package mem

import (
	"fmt"

	"github.com/joshuapare/heapkit/internal/buf"
	"github.com/joshuapare/heapkit/internal/format"
)

// Addr is a physical address.
type Addr uint64

// Null is the address that is never backed by memory. It is returned by the
// allocator on failure and terminates descriptor chains.
const Null Addr = 0

// String formats the address as hex.
func (a Addr) String() string {
	return fmt.Sprintf("0x%x", uint64(a))
}

// Memory is a byte slice mapped at a base address. It performs no
// synchronization; owners serialize access.
type Memory struct {
	base Addr
	buf  []byte
}

// New maps b at base. The window must not contain Null and must not wrap the
// address space.
func New(base Addr, b []byte) (*Memory, error) {
	if base == Null {
		return nil, fmt.Errorf("%w: base address is null", ErrBadRange)
	}
	if _, ok := buf.AddOverflowSafe(uint64(base), uint64(len(b))); !ok {
		return nil, fmt.Errorf("%w: %s + %d wraps the address space", ErrBadRange, base, len(b))
	}
	return &Memory{base: base, buf: b}, nil
}

// Base returns the first mapped address.
func (m *Memory) Base() Addr { return m.base }

// End returns the address one past the last mapped byte.
func (m *Memory) End() Addr { return m.base + Addr(len(m.buf)) }

// Size returns the number of mapped bytes.
func (m *Memory) Size() uint64 { return uint64(len(m.buf)) }

// Contains reports whether [addr, addr+n) is fully mapped.
func (m *Memory) Contains(addr Addr, n uint64) bool {
	_, ok := buf.Window(uint64(m.base), uint64(len(m.buf)), uint64(addr), n)
	return ok
}

// Bytes returns the window [addr, addr+n) of the backing slice. Writes through
// the returned slice are writes to memory. It panics with an error wrapping
// ErrOutOfRange when the window is not mapped.
func (m *Memory) Bytes(addr Addr, n uint64) []byte {
	off, ok := buf.Window(uint64(m.base), uint64(len(m.buf)), uint64(addr), n)
	if !ok {
		panic(m.fault(addr, n))
	}
	b, ok := buf.Slice(m.buf, off, int(n))
	if !ok {
		panic(m.fault(addr, n))
	}
	return b
}

// Load64 reads the little-endian word at addr.
func (m *Memory) Load64(addr Addr) uint64 {
	return format.ReadU64(m.Bytes(addr, 8), 0)
}

// Store64 writes v as a little-endian word at addr.
func (m *Memory) Store64(addr Addr, v uint64) {
	format.PutU64(m.Bytes(addr, 8), 0, v)
}

// Load8 reads the byte at addr.
func (m *Memory) Load8(addr Addr) byte {
	return m.Bytes(addr, 1)[0]
}

// Store8 writes the byte at addr.
func (m *Memory) Store8(addr Addr, v byte) {
	m.Bytes(addr, 1)[0] = v
}

func (m *Memory) fault(addr Addr, n uint64) error {
	return fmt.Errorf("%w: [%s, +%d) outside [%s, %s)", ErrOutOfRange, addr, n, m.base, m.End())
}
