package format

// AlignUp rounds addr up to the next multiple of align. An address that is
// already aligned is returned unchanged. align must be non-zero; callers pass
// powers of two.
//
// Example:
//
//	AlignUp(0x1001, 8) = 0x1008
//	AlignUp(0x1008, 8) = 0x1008
//	AlignUp(0x1009, 4) = 0x100C
func AlignUp(addr, align uint64) uint64 {
	rem := addr % align
	if rem == 0 {
		return addr
	}
	return addr + align - rem
}

// Align8 returns n aligned up to the next 8-byte boundary.
func Align8(n uint64) uint64 {
	return (n + WordAlignMask) &^ WordAlignMask
}

// IsPowerOfTwo reports whether n is a non-zero power of two.
func IsPowerOfTwo(n uint64) bool {
	return n != 0 && n&(n-1) == 0
}
