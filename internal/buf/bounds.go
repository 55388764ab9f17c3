// Package buf contains bounds helpers for addressing windows of a backing slice.
package buf

import "math"

// AddOverflowSafe adds a and b, returning ok = false when the result would overflow uint64.
func AddOverflowSafe(a, b uint64) (uint64, bool) {
	if a > math.MaxUint64-b {
		return 0, false
	}
	return a + b, true
}

// Window translates the address range [addr, addr+n) into an offset within a
// region [base, base+size). ok is false when the range is not fully contained
// or when any end computation overflows.
//
//	off, ok := buf.Window(0x8000_0000, 4096, 0x8000_0010, 16) // off = 16
func Window(base, size, addr, n uint64) (int, bool) {
	if addr < base {
		return 0, false
	}
	regionEnd, ok := AddOverflowSafe(base, size)
	if !ok {
		return 0, false
	}
	end, ok := AddOverflowSafe(addr, n)
	if !ok || end > regionEnd {
		return 0, false
	}
	off := addr - base
	if off > math.MaxInt {
		return 0, false
	}
	return int(off), true
}

// Slice returns the sub-slice [off:off+n] if it fits within len(b).
func Slice(b []byte, off, n int) ([]byte, bool) {
	if off < 0 || n < 0 || off > len(b) {
		return nil, false
	}
	if n > len(b)-off {
		return nil, false
	}
	return b[off : off+n], true
}
